package services

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/config"
	"propagentic/pkg/errors"
	"propagentic/pkg/logger"
	"propagentic/pkg/pagination"
	"propagentic/pkg/queue"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 邀请码字符集：去掉易混淆的 0/O/1/I
const inviteCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteService 物业邀请服务
type InviteService struct {
	db          *gorm.DB
	log         *logrus.Logger
	queue       *queue.MailQueue
	userService *UserService
	mailService *MailService
}

// NewInviteService 创建邀请服务
func NewInviteService() *InviteService {
	return &InviteService{
		db:          database.GetDB(),
		log:         logger.GetLogger(),
		queue:       database.GetMailQueue(),
		userService: NewUserService(),
		mailService: NewMailService(),
	}
}

// SendInviteRequest 签发邀请请求
type SendInviteRequest struct {
	TenantEmail string  `json:"tenant_email" binding:"required,email"`
	PropertyID  uint    `json:"property_id" binding:"required"`
	UnitNumber  *string `json:"unit_number"`
}

// SendInvite 签发邀请：生成邀请码、落库并将邀请邮件入队
func (s *InviteService) SendInvite(landlordID uint, req *SendInviteRequest) (*models.PropertyInvite, error) {
	if err := s.mailService.ValidateAddress(req.TenantEmail); err != nil {
		return nil, err
	}

	// 校验物业归属
	var property models.Property
	err := s.db.First(&property, req.PropertyID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("物业不存在")
		}
		return nil, errors.Internal("查询物业失败")
	}
	if property.LandlordID != landlordID {
		return nil, errors.Forbidden("只能为自己的物业签发邀请")
	}

	landlord, err := s.userService.GetByID(landlordID)
	if err != nil {
		return nil, err
	}

	// 同一邮箱同一物业只允许一条待处理邀请
	var existing models.PropertyInvite
	err = s.db.Where("tenant_email = ? AND property_id = ? AND status IN ?",
		req.TenantEmail, req.PropertyID,
		[]string{models.InviteStatusSent, models.InviteStatusPending}).
		First(&existing).Error
	if err == nil {
		return nil, errors.FailedPrecondition("该邮箱已有待处理的邀请")
	}

	code, err := s.generateInviteCode()
	if err != nil {
		return nil, err
	}

	cfg := config.GetConfig()
	invite := &models.PropertyInvite{
		TenantEmail:  req.TenantEmail,
		PropertyID:   property.ID,
		LandlordID:   landlordID,
		PropertyName: property.Name,
		LandlordName: landlord.Name,
		UnitNumber:   req.UnitNumber,
		Status:       models.InviteStatusSent,
		InviteCode:   code,
		ExpiresAt:    time.Now().Add(time.Duration(cfg.Invite.ExpireDays) * 24 * time.Hour),
	}

	tx := s.db.Begin()

	if err := tx.Create(invite).Error; err != nil {
		tx.Rollback()
		s.log.Errorf("创建邀请失败: %v", err)
		return nil, errors.Internal("创建邀请失败")
	}

	// 房东档案计数：已发出+1，重算接受率
	var profile models.LandlordProfile
	err = tx.Where("user_id = ?", landlordID).First(&profile).Error
	if err == nil {
		profile.MarkInviteSent()
		if err := tx.Save(&profile).Error; err != nil {
			tx.Rollback()
			return nil, errors.Internal("更新房东档案失败")
		}
	} else if err != gorm.ErrRecordNotFound {
		tx.Rollback()
		return nil, errors.Internal("查询房东档案失败")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.Internal("提交事务失败")
	}

	// 邮件入队在事务外：入队失败不回滚邀请，但错误必须上抛，调用方不得视为成功
	mailDocID, err := s.mailService.QueueInviteMail(invite)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"invite_id": invite.ID,
			"email":     invite.TenantEmail,
		}).Errorf("邀请邮件入队失败，邀请已创建待重发: %v", err)
		return nil, err
	}

	invite.MailDocID = mailDocID
	if err := s.db.Model(invite).Update("mail_doc_id", mailDocID).Error; err != nil {
		s.log.Errorf("回写邮件投递ID失败: %v", err)
		return nil, errors.Internal("回写邮件投递ID失败")
	}

	s.log.WithFields(logrus.Fields{
		"invite_id":   invite.ID,
		"property_id": property.ID,
		"landlord_id": landlordID,
		"email":       invite.TenantEmail,
	}).Info("物业邀请已签发")

	return invite, nil
}

// AcceptInvite 接受邀请：事务内联动更新邀请、租客档案、物业租客集合与房东统计
func (s *InviteService) AcceptInvite(inviteID, tenantID uint) error {
	// 1. 邀请必须存在
	var invite models.PropertyInvite
	err := s.db.First(&invite, inviteID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("邀请不存在")
		}
		return errors.Internal("查询邀请失败")
	}

	// 2. 租客必须存在
	tenant, err := s.userService.GetByID(tenantID)
	if err != nil {
		return err
	}

	// 3. 邮箱必须归属当前租客
	if tenant.Email != invite.TenantEmail {
		return errors.Forbidden("该邀请不属于当前账号")
	}

	// 4. 重复接受幂等：已接受且已关联同一物业，直接成功，零写入
	if invite.Status == models.InviteStatusAccepted && tenant.LinkedToProperty(invite.PropertyID) {
		return nil
	}

	// 5. 非待处理状态拒绝
	if !invite.IsOpen() {
		return errors.FailedPrecondition("邀请已处理，无法接受")
	}

	// 6. 已过期拒绝
	if !invite.IsValid() {
		return errors.FailedPrecondition("邀请已过期")
	}

	// 7. 邀请数据完整性
	if invite.PropertyID == 0 || invite.LandlordID == 0 {
		return errors.Internal("邀请数据不完整")
	}

	// 8. 物业必须仍然存在
	var property models.Property
	err = s.db.First(&property, invite.PropertyID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("邀请关联的物业已不存在")
		}
		return errors.Internal("查询物业失败")
	}

	// 9. 租客已关联其他物业拒绝（单物业模型）
	if tenant.LinkedToOtherProperty(invite.PropertyID) {
		return errors.FailedPrecondition("您已入住其他物业，请先退租")
	}

	// 已关联同一物业但邀请仍待处理：仅补记邀请状态
	alreadyLinked := tenant.LinkedToProperty(invite.PropertyID)

	tx := s.db.Begin()

	// 以待处理状态为前置条件落下状态变更，读取快照后被并发处理时在此拦截
	invite.Accept()
	if err := s.claimInvite(tx, invite.ID, map[string]interface{}{
		"status":      invite.Status,
		"accepted_at": invite.AcceptedAt,
	}, "邀请已处理，无法接受"); err != nil {
		tx.Rollback()
		return err
	}

	if !alreadyLinked {
		// 租客档案：单物业关联
		updates := map[string]interface{}{
			"property_id":         invite.PropertyID,
			"landlord_id":         invite.LandlordID,
			"onboarding_complete": true,
		}
		if err := tx.Model(&models.User{}).Where("id = ?", tenantID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return errors.Internal("更新租客档案失败")
		}

		// 物业租客集合
		link := &models.PropertyTenant{
			PropertyID: invite.PropertyID,
			TenantID:   tenantID,
			UnitNumber: invite.UnitNumber,
			JoinedAt:   time.Now(),
			InvitedBy:  &invite.LandlordID,
		}
		if err := tx.Create(link).Error; err != nil {
			tx.Rollback()
			return errors.Internal("创建物业租客关联失败")
		}

		// 重算占用
		var tenantCount int64
		if err := tx.Model(&models.PropertyTenant{}).
			Where("property_id = ?", invite.PropertyID).Count(&tenantCount).Error; err != nil {
			tx.Rollback()
			return errors.Internal("统计物业租客失败")
		}
		property.RecalculateOccupancy(int(tenantCount))
		if err := tx.Save(&property).Error; err != nil {
			tx.Rollback()
			return errors.Internal("更新物业占用状态失败")
		}

		// 房东档案：缺失时容忍，不阻塞接受流程
		var profile models.LandlordProfile
		err = tx.Where("user_id = ?", invite.LandlordID).First(&profile).Error
		if err == nil {
			unitNumber := ""
			if invite.UnitNumber != nil {
				unitNumber = *invite.UnitNumber
			}
			record := models.TenantAcceptanceRecord{
				TenantID:     tenantID,
				TenantEmail:  tenant.Email,
				PropertyID:   invite.PropertyID,
				PropertyName: invite.PropertyName,
				UnitNumber:   unitNumber,
				AcceptedAt:   time.Now(),
			}
			if err := profile.AddAcceptance(record); err != nil {
				tx.Rollback()
				return errors.Internal("更新房东统计失败")
			}
			if err := tx.Save(&profile).Error; err != nil {
				tx.Rollback()
				return errors.Internal("更新房东统计失败")
			}
		} else if err == gorm.ErrRecordNotFound {
			s.log.WithField("landlord_id", invite.LandlordID).Warn("房东档案缺失，跳过统计更新")
		} else {
			tx.Rollback()
			return errors.Internal("查询房东档案失败")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Internal("提交事务失败")
	}

	// 通知房东仪表盘
	s.publishEvent(&queue.Event{
		Type:       "invite.accepted",
		InviteID:   invite.ID,
		PropertyID: invite.PropertyID,
		TenantID:   tenantID,
		LandlordID: invite.LandlordID,
	})

	s.log.WithFields(logrus.Fields{
		"invite_id":   invite.ID,
		"tenant_id":   tenantID,
		"property_id": invite.PropertyID,
		"landlord_id": invite.LandlordID,
	}).Info("租客接受邀请入住物业")

	return nil
}

// DeclineInvite 拒绝邀请：只改邀请状态，不动其他文档
func (s *InviteService) DeclineInvite(inviteID, tenantID uint) error {
	var invite models.PropertyInvite
	err := s.db.First(&invite, inviteID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("邀请不存在")
		}
		return errors.Internal("查询邀请失败")
	}

	tenant, err := s.userService.GetByID(tenantID)
	if err != nil {
		return err
	}

	if tenant.Email != invite.TenantEmail {
		return errors.Forbidden("该邀请不属于当前账号")
	}

	// 重复拒绝幂等
	if invite.Status == models.InviteStatusDeclined {
		return nil
	}

	if !invite.IsOpen() {
		return errors.FailedPrecondition("邀请已处理，无法拒绝")
	}

	invite.Decline()
	if err := s.claimInvite(s.db, invite.ID, map[string]interface{}{
		"status":      invite.Status,
		"rejected_at": invite.RejectedAt,
	}, "邀请已处理，无法拒绝"); err != nil {
		return err
	}

	s.publishEvent(&queue.Event{
		Type:       "invite.declined",
		InviteID:   invite.ID,
		PropertyID: invite.PropertyID,
		TenantID:   tenantID,
		LandlordID: invite.LandlordID,
	})

	s.log.WithFields(logrus.Fields{
		"invite_id": invite.ID,
		"tenant_id": tenantID,
	}).Info("租客拒绝邀请")

	return nil
}

// RemoveTenant 房东移除租客：事务内回滚接受邀请时的全部关联写入
func (s *InviteService) RemoveTenant(landlordID, propertyID, tenantID uint) error {
	var property models.Property
	err := s.db.First(&property, propertyID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("物业不存在")
		}
		return errors.Internal("查询物业失败")
	}
	if property.LandlordID != landlordID {
		return errors.Forbidden("只能管理自己的物业")
	}

	var link models.PropertyTenant
	err = s.db.Where("property_id = ? AND tenant_id = ?", propertyID, tenantID).First(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("该租客未入住此物业")
		}
		return errors.Internal("查询租客关联失败")
	}

	tx := s.db.Begin()

	if err := tx.Delete(&link).Error; err != nil {
		tx.Rollback()
		return errors.Internal("移除租客关联失败")
	}

	// 清空租客档案上的单物业关联
	updates := map[string]interface{}{
		"property_id": nil,
		"landlord_id": nil,
	}
	if err := tx.Model(&models.User{}).
		Where("id = ? AND property_id = ?", tenantID, propertyID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return errors.Internal("更新租客档案失败")
	}

	var tenantCount int64
	if err := tx.Model(&models.PropertyTenant{}).
		Where("property_id = ?", propertyID).Count(&tenantCount).Error; err != nil {
		tx.Rollback()
		return errors.Internal("统计物业租客失败")
	}
	property.RecalculateOccupancy(int(tenantCount))
	if err := tx.Save(&property).Error; err != nil {
		tx.Rollback()
		return errors.Internal("更新物业占用状态失败")
	}

	// 房东档案反规范化记录同步剔除
	var profile models.LandlordProfile
	err = tx.Where("user_id = ?", landlordID).First(&profile).Error
	if err == nil {
		removed, rerr := profile.RemoveTenant(tenantID, propertyID)
		if rerr != nil {
			tx.Rollback()
			return errors.Internal("更新房东统计失败")
		}
		if removed {
			if err := tx.Save(&profile).Error; err != nil {
				tx.Rollback()
				return errors.Internal("更新房东统计失败")
			}
		}
	} else if err != gorm.ErrRecordNotFound {
		tx.Rollback()
		return errors.Internal("查询房东档案失败")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Internal("提交事务失败")
	}

	s.publishEvent(&queue.Event{
		Type:       "tenant.removed",
		PropertyID: propertyID,
		TenantID:   tenantID,
		LandlordID: landlordID,
	})

	s.log.WithFields(logrus.Fields{
		"landlord_id": landlordID,
		"property_id": propertyID,
		"tenant_id":   tenantID,
	}).Info("房东移除租客")

	return nil
}

// GetByCode 根据邀请码获取邀请
func (s *InviteService) GetByCode(code string) (*models.PropertyInvite, error) {
	var invite models.PropertyInvite
	err := s.db.Where("invite_code = ?", code).First(&invite).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("邀请码不存在")
		}
		return nil, errors.Internal("查询邀请失败")
	}
	return &invite, nil
}

// ValidationResult 邀请码校验结果：已用/过期是"无效"而非错误。
// 校验接口无需登录，只回物业ID，不暴露邀请上的租客邮箱等字段
type ValidationResult struct {
	IsValid    bool   `json:"is_valid"`
	Message    string `json:"message"`
	PropertyID *uint  `json:"property_id,omitempty"`
}

// ValidateCodeFormat 本地格式校验，不触库
func ValidateCodeFormat(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.InvalidParam("邀请码不能为空")
	}
	if len(code) < 6 || len(code) > 16 {
		return errors.InvalidParam("邀请码长度不正确")
	}
	for _, ch := range code {
		if !strings.ContainsRune(inviteCodeCharset, ch) {
			return errors.InvalidParam("邀请码包含无效字符")
		}
	}
	return nil
}

// ValidateInviteCode 校验邀请码；仅数据库故障返回error
func (s *InviteService) ValidateInviteCode(code string) (*ValidationResult, error) {
	if err := ValidateCodeFormat(code); err != nil {
		return &ValidationResult{IsValid: false, Message: err.Error()}, nil
	}

	var invite models.PropertyInvite
	err := s.db.Where("invite_code = ?", strings.TrimSpace(code)).First(&invite).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &ValidationResult{IsValid: false, Message: "邀请码不存在"}, nil
		}
		return nil, errors.Internal("查询邀请失败")
	}

	if !invite.IsOpen() {
		return &ValidationResult{IsValid: false, Message: "邀请码已被使用"}, nil
	}
	if !invite.IsValid() {
		return &ValidationResult{IsValid: false, Message: "邀请码已过期"}, nil
	}

	return &ValidationResult{IsValid: true, Message: "邀请码有效", PropertyID: &invite.PropertyID}, nil
}

// RedeemInviteCode 兑换邀请码：校验后走标准接受流程
func (s *InviteService) RedeemInviteCode(code string, tenantID uint) (*models.PropertyInvite, error) {
	invite, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}

	if err := s.AcceptInvite(invite.ID, tenantID); err != nil {
		return nil, err
	}

	// 回读最新状态
	return s.GetByCode(code)
}

// GetTenantInvites 获取租客的邀请列表（按邮箱）
func (s *InviteService) GetTenantInvites(email string, status string) ([]models.PropertyInvite, error) {
	query := s.db.Where("tenant_email = ?", email)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var invites []models.PropertyInvite
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, errors.Internal("查询邀请列表失败")
	}
	return invites, nil
}

// GetLandlordInvites 分页获取房东签发的邀请列表
func (s *InviteService) GetLandlordInvites(landlordID uint, status string, params *pagination.PageParams) ([]models.PropertyInvite, *pagination.PageInfo, error) {
	query := s.db.Model(&models.PropertyInvite{}).Where("landlord_id = ?", landlordID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, errors.Internal("统计邀请数量失败")
	}

	var invites []models.PropertyInvite
	if err := query.Order("created_at DESC").
		Offset(params.GetOffset()).Limit(params.GetLimit()).
		Find(&invites).Error; err != nil {
		return nil, nil, errors.Internal("查询邀请列表失败")
	}

	return invites, pagination.NewPageInfo(params.Page, params.PageSize, total), nil
}

// GetPropertyInvites 获取指定物业的邀请列表（归属校验）
func (s *InviteService) GetPropertyInvites(propertyID, landlordID uint, status string) ([]models.PropertyInvite, error) {
	var property models.Property
	err := s.db.First(&property, propertyID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("物业不存在")
		}
		return nil, errors.Internal("查询物业失败")
	}
	if property.LandlordID != landlordID {
		return nil, errors.Forbidden("只能查看自己物业的邀请")
	}

	query := s.db.Where("property_id = ?", propertyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var invites []models.PropertyInvite
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, errors.Internal("查询邀请列表失败")
	}
	return invites, nil
}

// CancelInvite 房东撤销待处理邀请
func (s *InviteService) CancelInvite(inviteID, landlordID uint) error {
	var invite models.PropertyInvite
	err := s.db.First(&invite, inviteID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("邀请不存在")
		}
		return errors.Internal("查询邀请失败")
	}

	if invite.LandlordID != landlordID {
		return errors.Forbidden("只能撤销自己签发的邀请")
	}

	if !invite.IsOpen() {
		return errors.FailedPrecondition("只能撤销待处理的邀请")
	}

	invite.MarkExpired()
	return s.claimInvite(s.db, invite.ID, map[string]interface{}{
		"status": invite.Status,
	}, "只能撤销待处理的邀请")
}

// claimInvite 以待处理状态为前置条件更新邀请；
// 读取快照后状态被并发改写时返回前置条件失败
func (s *InviteService) claimInvite(db *gorm.DB, inviteID uint, updates map[string]interface{}, conflictMsg string) error {
	result := db.Model(&models.PropertyInvite{}).
		Where("id = ? AND status IN ?", inviteID,
			[]string{models.InviteStatusSent, models.InviteStatusPending}).
		Updates(updates)
	if result.Error != nil {
		return errors.Internal("更新邀请状态失败")
	}
	if result.RowsAffected == 0 {
		return errors.FailedPrecondition(conflictMsg)
	}
	return nil
}

// CleanupExpiredInvites 批量标记过期邀请，由定时任务调用
func (s *InviteService) CleanupExpiredInvites() error {
	result := s.db.Model(&models.PropertyInvite{}).
		Where("status IN ? AND expires_at < ?",
			[]string{models.InviteStatusSent, models.InviteStatusPending}, time.Now()).
		Update("status", models.InviteStatusExpired)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		s.log.Infof("清理过期邀请 %d 条", result.RowsAffected)
	}
	return nil
}

// generateInviteCode 生成短邀请码，碰撞时重试
func (s *InviteService) generateInviteCode() (string, error) {
	cfg := config.GetConfig()

	for attempt := 0; attempt < cfg.Invite.CodeMaxRetries; attempt++ {
		code, err := randomCode(cfg.Invite.CodeLength)
		if err != nil {
			return "", errors.Internal("生成邀请码失败")
		}

		var count int64
		if err := s.db.Model(&models.PropertyInvite{}).
			Where("invite_code = ?", code).Count(&count).Error; err != nil {
			return "", errors.Internal("校验邀请码失败")
		}
		if count == 0 {
			return code, nil
		}
	}

	return "", errors.Internal("邀请码碰撞次数过多")
}

func randomCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(inviteCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// publishEvent 发布仪表盘事件，失败只记日志
func (s *InviteService) publishEvent(event *queue.Event) {
	if err := s.queue.PublishEvent(event); err != nil {
		s.log.Warnf("发布仪表盘事件失败: %v", err)
	}
}
