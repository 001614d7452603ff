package database

import (
	"fmt"

	"github.com/mx-space/pagebuilder/internal/config"
	"github.com/mx-space/pagebuilder/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

// Models lists every table owned by the page composer, parents before children.
func Models() []interface{} {
	return []interface{}{
		&models.ActivityModel{},
		&models.EventModel{},
		&models.AccommodationModel{},
		&models.ContentPageModel{},
		&models.LocationModel{},
		&models.SectionModel{},
		&models.ColumnModel{},
		&models.ContentVersionModel{},
	}
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
