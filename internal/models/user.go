package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型（房东/租客/承包商共用一张表）
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"unique;not null;size:50;index"`
	Email        string     `json:"email" gorm:"unique;not null;size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	Role         string     `json:"role" gorm:"not null;size:20;index"` // landlord/tenant/contractor
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// 租客单物业模型：接受邀请后写入，移除后清空
	PropertyID         *uint `json:"property_id" gorm:"index"`
	LandlordID         *uint `json:"landlord_id" gorm:"index"`
	OnboardingComplete bool  `json:"onboarding_complete" gorm:"default:false"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户角色常量
const (
	RoleLandlord   = "landlord"
	RoleTenant     = "tenant"
	RoleContractor = "contractor"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// LinkedToProperty 检查租客是否已关联指定物业
func (u *User) LinkedToProperty(propertyID uint) bool {
	return u.PropertyID != nil && *u.PropertyID == propertyID
}

// LinkedToOtherProperty 检查租客是否已关联其他物业
func (u *User) LinkedToOtherProperty(propertyID uint) bool {
	return u.PropertyID != nil && *u.PropertyID != propertyID
}
