package services

import (
	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/errors"
	"propagentic/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LandlordService 房东档案服务
type LandlordService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewLandlordService 创建房东档案服务
func NewLandlordService() *LandlordService {
	return &LandlordService{
		db:  database.GetDB(),
		log: logger.GetLogger(),
	}
}

// ProfileView 档案视图：统计字段加解出的反规范化记录
type ProfileView struct {
	UserID               uint                            `json:"user_id"`
	TotalInvitesSent     int                             `json:"total_invites_sent"`
	TotalInvitesAccepted int                             `json:"total_invites_accepted"`
	InviteAcceptanceRate int                             `json:"invite_acceptance_rate"`
	AcceptedTenants      []uint                          `json:"accepted_tenants"`
	TenantDetails        []models.TenantAcceptanceRecord `json:"tenant_details"`
}

// GetProfile 获取房东档案，历史账号缺档案时现场补建
func (s *LandlordService) GetProfile(landlordID uint) (*ProfileView, error) {
	profile, err := s.EnsureProfile(landlordID)
	if err != nil {
		return nil, err
	}

	ids, err := profile.TenantIDs()
	if err != nil {
		return nil, errors.Internal("解析租客记录失败")
	}
	details, err := profile.Details()
	if err != nil {
		return nil, errors.Internal("解析租客记录失败")
	}

	if ids == nil {
		ids = []uint{}
	}
	if details == nil {
		details = []models.TenantAcceptanceRecord{}
	}

	return &ProfileView{
		UserID:               profile.UserID,
		TotalInvitesSent:     profile.TotalInvitesSent,
		TotalInvitesAccepted: profile.TotalInvitesAccepted,
		InviteAcceptanceRate: profile.InviteAcceptanceRate,
		AcceptedTenants:      ids,
		TenantDetails:        details,
	}, nil
}

// EnsureProfile 档案缺失时补建（历史数据迁移场景）
func (s *LandlordService) EnsureProfile(landlordID uint) (*models.LandlordProfile, error) {
	var profile models.LandlordProfile
	err := s.db.Where("user_id = ?", landlordID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Internal("查询房东档案失败")
	}

	profile = models.LandlordProfile{
		UserID:               landlordID,
		InviteAcceptanceRate: 100,
	}
	if err := s.db.Create(&profile).Error; err != nil {
		s.log.Errorf("补建房东档案失败: %v", err)
		return nil, errors.Internal("创建房东档案失败")
	}
	return &profile, nil
}
