package main

import (
	"fmt"

	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	if err := createDemoLandlord(db); err != nil {
		return fmt.Errorf("创建演示房东失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDemoLandlord 创建演示房东账号（已存在则跳过）
func createDemoLandlord(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "landlord").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("演示房东已存在，跳过创建")
		return nil
	}

	landlord := &models.User{
		Username: "landlord",
		Email:    "landlord@propagentic.com",
		Name:     "演示房东",
		Role:     models.RoleLandlord,
		Status:   models.UserStatusActive,
	}
	if err := landlord.SetPassword("Landlord@123"); err != nil {
		return err
	}

	tx := db.Begin()

	if err := tx.Create(landlord).Error; err != nil {
		tx.Rollback()
		return err
	}

	profile := &models.LandlordProfile{
		UserID:               landlord.ID,
		InviteAcceptanceRate: 100,
	}
	if err := tx.Create(profile).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	logger.GetLogger().Warn("已创建演示房东账号 landlord/Landlord@123，请及时修改密码")
	return nil
}
