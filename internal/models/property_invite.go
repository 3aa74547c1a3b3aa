package models

import (
	"time"
)

// PropertyInvite 物业邀请
type PropertyInvite struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	TenantEmail  string     `gorm:"size:200;not null;index" json:"tenant_email"`        // 被邀请租客邮箱
	PropertyID   uint       `gorm:"not null;index" json:"property_id"`
	LandlordID   uint       `gorm:"not null;index" json:"landlord_id"`
	PropertyName string     `gorm:"size:100" json:"property_name"`                      // 反规范化显示名
	LandlordName string     `gorm:"size:100" json:"landlord_name"`                      // 反规范化显示名
	UnitNumber   *string    `gorm:"size:20" json:"unit_number,omitempty"`
	Status       string     `gorm:"size:20;not null;default:'pending'" json:"status"`   // sent/pending/accepted/declined/expired
	InviteCode   string     `gorm:"size:50;uniqueIndex" json:"invite_code"`             // 带外投递用短码
	MailDocID    string     `gorm:"size:100" json:"mail_doc_id"`                        // 邮件投递ID
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`                         // 过期时间
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`                              // 接受时间
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`                              // 拒绝时间
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Property Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
	Landlord User     `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
}

// TableName 指定表名
func (PropertyInvite) TableName() string {
	return "property_invites"
}

// 邀请状态常量
const (
	InviteStatusSent     = "sent"    // 已签发、邮件已入队
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

// IsOpen 检查邀请是否处于可处理状态（sent 与 pending 等价，均为待处理）
func (pi *PropertyInvite) IsOpen() bool {
	return pi.Status == InviteStatusPending || pi.Status == InviteStatusSent
}

// IsValid 检查邀请是否有效（待处理且未过期）
func (pi *PropertyInvite) IsValid() bool {
	return pi.IsOpen() && time.Now().Before(pi.ExpiresAt)
}

// Accept 接受邀请
func (pi *PropertyInvite) Accept() {
	now := time.Now()
	pi.Status = InviteStatusAccepted
	pi.AcceptedAt = &now
}

// Decline 拒绝邀请
func (pi *PropertyInvite) Decline() {
	now := time.Now()
	pi.Status = InviteStatusDeclined
	pi.RejectedAt = &now
}

// MarkExpired 标记为过期
func (pi *PropertyInvite) MarkExpired() {
	pi.Status = InviteStatusExpired
}
