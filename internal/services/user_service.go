package services

import (
	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/errors"
	"propagentic/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewUserService 创建用户服务
func NewUserService() *UserService {
	return &UserService{
		db:  database.GetDB(),
		log: logger.GetLogger(),
	}
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("用户不存在")
		}
		return nil, errors.Internal("查询用户失败")
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("用户不存在")
		}
		return nil, errors.Internal("查询用户失败")
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("用户不存在")
		}
		return nil, errors.Internal("查询用户失败")
	}
	return &user, nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Name     string  `json:"name" binding:"required,max=100"`
	Role     string  `json:"role" binding:"required,oneof=landlord tenant contractor"`
	Phone    *string `json:"phone"`
}

// Create 创建用户（注册）
func (s *UserService) Create(req *RegisterRequest) (*models.User, error) {
	// 检查用户名和邮箱是否已占用
	var count int64
	s.db.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		return nil, errors.InvalidParam("用户名或邮箱已被注册")
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.Internal("密码加密失败")
	}

	tx := s.db.Begin()

	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		s.log.Errorf("创建用户失败: %v", err)
		return nil, errors.Internal("创建用户失败")
	}

	// 房东注册时同步建立档案
	if user.Role == models.RoleLandlord {
		profile := &models.LandlordProfile{
			UserID:               user.ID,
			InviteAcceptanceRate: 100,
		}
		if err := tx.Create(profile).Error; err != nil {
			tx.Rollback()
			s.log.Errorf("创建房东档案失败: %v", err)
			return nil, errors.Internal("创建房东档案失败")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.Internal("提交事务失败")
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("用户注册成功")

	return user, nil
}

// IsActive 检查用户状态
func (s *UserService) IsActive(user *models.User) bool {
	return user.Status == models.UserStatusActive
}
