package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
// ID is a UUID string assigned on insert when the caller did not set one.
type Base struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// SoftDeleteBase adds a deleted_at column. gorm's default scope hides
// soft-deleted rows from every query made through the model.
type SoftDeleteBase struct {
	Base
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
