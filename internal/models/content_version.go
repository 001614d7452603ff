package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentVersionModel is an immutable snapshot of every section of a page.
// Version counts up from 1 per page and orders the history.
type ContentVersionModel struct {
	ID               string                            `json:"id"                gorm:"type:char(36);primaryKey"`
	PageType         PageType                          `json:"page_type"         gorm:"type:varchar(32);not null"`
	PageID           string                            `json:"page_id"           gorm:"type:varchar(191);not null;uniqueIndex:idx_content_versions_page_version,priority:1"`
	Version          int                               `json:"version"           gorm:"not null;uniqueIndex:idx_content_versions_page_version,priority:2"`
	CreatedBy        *string                           `json:"created_by"        gorm:"type:varchar(191)"`
	SectionsSnapshot datatypes.JSONType[[]SectionModel] `json:"sections_snapshot"`
	CreatedAt        time.Time                         `json:"created_at"        gorm:"index"`
}

func (ContentVersionModel) TableName() string { return "content_versions" }

func (v *ContentVersionModel) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// Sections returns the snapshotted sections.
func (v ContentVersionModel) Sections() []SectionModel {
	sections := v.SectionsSnapshot.Data()
	if sections == nil {
		return []SectionModel{}
	}
	return sections
}
