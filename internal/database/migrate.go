package database

import (
	"propagentic/internal/models"
	"propagentic/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.PropertyTenant{},
		&models.PropertyInvite{},
		&models.LandlordProfile{},
		&models.MaintenanceRequest{},
		&models.MailLog{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")

	return nil
}
