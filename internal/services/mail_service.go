package services

import (
	"fmt"
	"time"

	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/config"
	"propagentic/pkg/errors"
	"propagentic/pkg/logger"
	"propagentic/pkg/queue"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 邮件模板名常量
const (
	MailTemplateInvite = "property_invite"
)

// MailService 邮件外发服务：写投递记录并入队，由分发协程异步发送
type MailService struct {
	db       *gorm.DB
	log      *logrus.Logger
	queue    *queue.MailQueue
	validate *validator.Validate
}

// NewMailService 创建邮件服务
func NewMailService() *MailService {
	return &MailService{
		db:       database.GetDB(),
		log:      logger.GetLogger(),
		queue:    database.GetMailQueue(),
		validate: validator.New(),
	}
}

// ValidateAddress 校验收件地址格式
func (s *MailService) ValidateAddress(address string) error {
	if err := s.validate.Var(address, "required,email"); err != nil {
		return errors.InvalidParam("邮箱地址格式不正确")
	}
	return nil
}

// QueueInviteMail 邀请邮件入队，返回投递ID
func (s *MailService) QueueInviteMail(invite *models.PropertyInvite) (string, error) {
	if err := s.ValidateAddress(invite.TenantEmail); err != nil {
		return "", err
	}

	mailDocID := uuid.New().String()

	unitNumber := ""
	if invite.UnitNumber != nil {
		unitNumber = *invite.UnitNumber
	}

	message := &queue.MailMessage{
		MailDocID: mailDocID,
		InviteID:  invite.ID,
		To:        invite.TenantEmail,
		Template:  MailTemplateInvite,
		Params: map[string]string{
			"invite_code":   invite.InviteCode,
			"property_name": invite.PropertyName,
			"landlord_name": invite.LandlordName,
			"unit_number":   unitNumber,
			"expires_at":    invite.ExpiresAt.Format(time.RFC3339),
		},
	}

	if err := s.queue.Enqueue(message); err != nil {
		s.log.Errorf("邀请邮件入队失败: %v", err)
		return "", errors.Internal("邮件入队失败")
	}

	// 投递记录落库，供状态查询与重发
	mailLog := &models.MailLog{
		MailDocID: mailDocID,
		InviteID:  invite.ID,
		Recipient: invite.TenantEmail,
		Template:  MailTemplateInvite,
		Status:    models.MailStatusQueued,
	}
	if err := s.db.Create(mailLog).Error; err != nil {
		s.log.Errorf("写入邮件投递记录失败: %v", err)
		return "", errors.Internal("写入邮件投递记录失败")
	}

	s.log.WithFields(logrus.Fields{
		"mail_doc_id": mailDocID,
		"invite_id":   invite.ID,
		"to":          invite.TenantEmail,
	}).Info("邀请邮件已入队")

	return mailDocID, nil
}

// GetDeliveryStatus 查询邮件投递状态，仅限签发该邀请的房东
func (s *MailService) GetDeliveryStatus(mailDocID string, landlordID uint) (*models.MailLog, error) {
	var mailLog models.MailLog
	err := s.db.Where("mail_doc_id = ?", mailDocID).First(&mailLog).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("投递记录不存在")
		}
		return nil, errors.Internal("查询投递记录失败")
	}

	var invite models.PropertyInvite
	err = s.db.First(&invite, mailLog.InviteID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("投递记录关联的邀请不存在")
		}
		return nil, errors.Internal("查询邀请失败")
	}
	if invite.LandlordID != landlordID {
		return nil, errors.Forbidden("只能查询自己签发邀请的投递记录")
	}

	return &mailLog, nil
}

// MarkSent 标记投递成功
func (s *MailService) MarkSent(mailDocID string) error {
	now := time.Now()
	err := s.db.Model(&models.MailLog{}).
		Where("mail_doc_id = ?", mailDocID).
		Updates(map[string]interface{}{
			"status":  models.MailStatusSent,
			"sent_at": &now,
		}).Error
	if err != nil {
		return err
	}
	return s.queue.SetStatus(mailDocID, models.MailStatusSent)
}

// MarkFailed 标记投递失败
func (s *MailService) MarkFailed(mailDocID string, reason string) error {
	err := s.db.Model(&models.MailLog{}).
		Where("mail_doc_id = ?", mailDocID).
		Updates(map[string]interface{}{
			"status":        models.MailStatusFailed,
			"error_message": reason,
		}).Error
	if err != nil {
		return err
	}
	return s.queue.SetStatus(mailDocID, models.MailStatusFailed)
}

// RenderSubject 渲染邮件主题
func RenderSubject(message *queue.MailMessage) string {
	cfg := config.GetConfig()
	switch message.Template {
	case MailTemplateInvite:
		return fmt.Sprintf("%s 邀请您入住 %s", message.Params["landlord_name"], message.Params["property_name"])
	default:
		return cfg.Mail.FromName
	}
}
