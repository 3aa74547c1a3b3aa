package services

import (
	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/errors"
	"propagentic/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PropertyService 物业服务
type PropertyService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewPropertyService 创建物业服务
func NewPropertyService() *PropertyService {
	return &PropertyService{
		db:  database.GetDB(),
		log: logger.GetLogger(),
	}
}

// CreatePropertyRequest 创建物业请求
type CreatePropertyRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Address    string `json:"address" binding:"max=255"`
	TotalUnits int    `json:"total_units"`
}

// Create 创建物业
func (s *PropertyService) Create(landlordID uint, req *CreatePropertyRequest) (*models.Property, error) {
	totalUnits := req.TotalUnits
	if totalUnits <= 0 {
		totalUnits = 1
	}

	property := &models.Property{
		Name:       req.Name,
		Address:    req.Address,
		LandlordID: landlordID,
		TotalUnits: totalUnits,
	}

	if err := s.db.Create(property).Error; err != nil {
		s.log.Errorf("创建物业失败: %v", err)
		return nil, errors.Internal("创建物业失败")
	}

	s.log.WithFields(logrus.Fields{
		"property_id": property.ID,
		"landlord_id": landlordID,
	}).Info("物业创建成功")

	return property, nil
}

// GetByID 获取物业详情
func (s *PropertyService) GetByID(id uint) (*models.Property, error) {
	var property models.Property
	err := s.db.First(&property, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("物业不存在")
		}
		return nil, errors.Internal("查询物业失败")
	}
	return &property, nil
}

// ListByLandlord 获取房东名下物业列表
func (s *PropertyService) ListByLandlord(landlordID uint) ([]models.Property, error) {
	var properties []models.Property
	err := s.db.Where("landlord_id = ?", landlordID).
		Order("created_at DESC").Find(&properties).Error
	if err != nil {
		return nil, errors.Internal("查询物业列表失败")
	}
	return properties, nil
}

// GetTenants 获取物业的租客集合
func (s *PropertyService) GetTenants(propertyID, landlordID uint) ([]models.PropertyTenant, error) {
	property, err := s.GetByID(propertyID)
	if err != nil {
		return nil, err
	}
	if property.LandlordID != landlordID {
		return nil, errors.Forbidden("只能查看自己物业的租客")
	}

	var links []models.PropertyTenant
	err = s.db.Where("property_id = ?", propertyID).
		Preload("Tenant").
		Order("joined_at ASC").Find(&links).Error
	if err != nil {
		return nil, errors.Internal("查询物业租客失败")
	}
	return links, nil
}
