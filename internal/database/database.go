package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
)

// sqliteParams make concurrent writers wait on the lock instead of failing.
const sqliteParams = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// Connect bootstraps a SQLite database using the provided filesystem path.
func Connect(dbPath string) (*gorm.DB, error) {
	dsn := dbPath
	if strings.Contains(dsn, "?") {
		dsn += "&" + sqliteParams
	} else {
		dsn += "?" + sqliteParams
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the tables backing templates and the delivery log.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.NotificationTemplate{},
		&models.DeliveryRecord{},
		&models.DeliveryAttempt{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
