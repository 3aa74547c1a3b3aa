package models

import (
	"time"
)

// Property 物业模型
type Property struct {
	BaseModel
	Name          string `json:"name" gorm:"not null;size:100"`
	Address       string `json:"address" gorm:"size:255"`
	LandlordID    uint   `json:"landlord_id" gorm:"not null;index"`
	TotalUnits    int    `json:"total_units" gorm:"default:1"`
	OccupiedUnits int    `json:"occupied_units" gorm:"default:0"`
	IsOccupied    bool   `json:"is_occupied" gorm:"default:false"`

	// 关联
	Landlord User `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
}

// TableName 表名
func (p *Property) TableName() string {
	return "properties"
}

// PropertyTenant 物业-租客关联（物业的租客集合）
type PropertyTenant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"not null;index;uniqueIndex:idx_property_tenant" json:"property_id"`
	TenantID   uint      `gorm:"not null;index;uniqueIndex:idx_property_tenant" json:"tenant_id"`
	UnitNumber *string   `gorm:"size:20" json:"unit_number,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
	InvitedBy  *uint     `json:"invited_by,omitempty"` // 签发邀请的房东

	// 关联
	Property Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
	Tenant   User     `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}

// TableName 表名
func (PropertyTenant) TableName() string {
	return "property_tenants"
}

// RecalculateOccupancy 按剩余租客数重算占用状态
func (p *Property) RecalculateOccupancy(tenantCount int) {
	p.OccupiedUnits = tenantCount
	p.IsOccupied = tenantCount > 0
}
