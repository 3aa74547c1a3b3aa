package models

import (
	"time"
)

// MailLog 邮件投递记录
type MailLog struct {
	BaseModel
	MailDocID    string     `gorm:"size:100;uniqueIndex;not null" json:"mail_doc_id"`
	InviteID     uint       `gorm:"index" json:"invite_id"`
	Recipient    string     `gorm:"size:200;not null" json:"recipient"`
	Template     string     `gorm:"size:50" json:"template"`
	Status       string     `gorm:"size:20;not null;default:'queued'" json:"status"` // queued/sent/failed
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `gorm:"size:500" json:"error_message,omitempty"`
}

// TableName 表名
func (MailLog) TableName() string {
	return "mail_logs"
}

// 投递状态常量
const (
	MailStatusQueued = "queued"
	MailStatusSent   = "sent"
	MailStatusFailed = "failed"
)
