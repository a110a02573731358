package database

import (
	"mtrbac/internal/models"
	"mtrbac/pkg/logger"

	"gorm.io/gorm"
)

// Migrate 迁移主库的全部表
func Migrate(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting main database migration...")

	if err := db.AutoMigrate(models.Models(models.ScopeMain)...); err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Main database migration completed successfully")
	return nil
}
