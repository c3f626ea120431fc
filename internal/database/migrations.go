package database

import (
	"fmt"

	"github.com/yukikurage/printshop-manager/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates the sheet tables when they are missing. Existing tables are left as they are.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Task{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}
