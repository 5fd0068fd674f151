// Package datastore opens the application database and owns schema
// migration. Repositories live in the repository subpackage; entity
// definitions in entities.
package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// Open opens (or creates) the SQLite database at path and migrates the
// schema. Foreign keys are enabled so cascade deletes work.
func Open(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=ON", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema for all application entities.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Pet{},
		&entities.MedicationRecord{},
		&entities.HealthRecord{},
		&entities.OutboxOperation{},
		&entities.ReminderHistory{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
