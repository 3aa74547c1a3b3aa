package services

import (
	"propagentic/internal/database"
	"propagentic/internal/models"
	"propagentic/pkg/errors"
	"propagentic/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaintenanceService 维修工单服务
type MaintenanceService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewMaintenanceService 创建维修服务
func NewMaintenanceService() *MaintenanceService {
	return &MaintenanceService{
		db:  database.GetDB(),
		log: logger.GetLogger(),
	}
}

// CreateMaintenanceRequest 提交工单请求
type CreateMaintenanceRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// Create 租客提交维修工单，必须已入住物业
func (s *MaintenanceService) Create(tenantID uint, req *CreateMaintenanceRequest) (*models.MaintenanceRequest, error) {
	var tenant models.User
	err := s.db.First(&tenant, tenantID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("用户不存在")
		}
		return nil, errors.Internal("查询用户失败")
	}

	if tenant.PropertyID == nil {
		return nil, errors.FailedPrecondition("请先入住物业再提交维修工单")
	}

	request := &models.MaintenanceRequest{
		TenantID:    tenantID,
		PropertyID:  *tenant.PropertyID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.MaintenanceStatusNew,
	}

	if err := s.db.Create(request).Error; err != nil {
		s.log.Errorf("创建维修工单失败: %v", err)
		return nil, errors.Internal("创建维修工单失败")
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  request.ID,
		"tenant_id":   tenantID,
		"property_id": request.PropertyID,
	}).Info("维修工单已提交")

	return request, nil
}

// AssessmentInput 评估输入
type AssessmentInput struct {
	PartsNeeded      *bool  `json:"parts_needed"`
	Complexity       string `json:"complexity" binding:"omitempty,oneof=low medium high"`
	FurtherInquiry   *bool  `json:"further_inquiry"`
	FurtherQuestions string `json:"further_questions" binding:"max=2000"`
	Instructions     string `json:"instructions" binding:"max=2000"`
}

// TriageResult 分诊结果
type TriageResult struct {
	Decision string
	Message  string
}

// Triage 分诊规则（纯函数）：
// 需要备件或高复杂度的工单直接派承包商；
// 需要补充信息的向租客追问；有自助指引的下发指引；否则待定。
func Triage(input *AssessmentInput) TriageResult {
	if (input.PartsNeeded != nil && *input.PartsNeeded) || input.Complexity == models.ComplexityHigh {
		return TriageResult{
			Decision: models.TriageDispatchContractor,
			Message:  "该工单需要专业承包商处理",
		}
	}

	// 需要补充信息时始终走追问，不落入指引分支
	if input.FurtherInquiry != nil && *input.FurtherInquiry {
		if input.FurtherQuestions == "" {
			return TriageResult{
				Decision: models.TriageAsk,
				Message:  "需要补充信息，但未提供追问内容",
			}
		}
		return TriageResult{
			Decision: models.TriageAsk,
			Message:  input.FurtherQuestions,
		}
	}

	if input.Instructions != "" {
		return TriageResult{
			Decision: models.TriageInstruct,
			Message:  input.Instructions,
		}
	}

	return TriageResult{
		Decision: models.TriageUndetermined,
		Message:  "信息不足，暂无法分诊",
	}
}

// Assess 记录评估输入并执行分诊
func (s *MaintenanceService) Assess(requestID, landlordID uint, input *AssessmentInput) (*models.MaintenanceRequest, error) {
	request, err := s.getOwned(requestID, landlordID)
	if err != nil {
		return nil, err
	}

	if request.Status == models.MaintenanceStatusCompleted {
		return nil, errors.FailedPrecondition("工单已完结，无法评估")
	}

	result := Triage(input)

	request.PartsNeeded = input.PartsNeeded
	request.Complexity = input.Complexity
	request.FurtherInquiry = input.FurtherInquiry
	request.FurtherQuestions = input.FurtherQuestions
	request.Instructions = input.Instructions
	request.TriageDecision = result.Decision
	request.TriageMessage = result.Message
	if result.Decision != models.TriageUndetermined {
		request.Status = models.MaintenanceStatusTriaged
	}

	if err := s.db.Save(request).Error; err != nil {
		return nil, errors.Internal("保存评估结果失败")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": request.ID,
		"decision":   result.Decision,
	}).Info("维修工单已分诊")

	return request, nil
}

// Dispatch 派遣承包商，仅允许分诊结论为派遣的工单
func (s *MaintenanceService) Dispatch(requestID, landlordID, contractorID uint) (*models.MaintenanceRequest, error) {
	request, err := s.getOwned(requestID, landlordID)
	if err != nil {
		return nil, err
	}

	if request.TriageDecision != models.TriageDispatchContractor {
		return nil, errors.FailedPrecondition("该工单分诊结论不是派遣承包商")
	}
	if request.Status == models.MaintenanceStatusDispatched {
		return nil, errors.FailedPrecondition("工单已派遣")
	}

	var contractor models.User
	err = s.db.First(&contractor, contractorID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("承包商不存在")
		}
		return nil, errors.Internal("查询承包商失败")
	}
	if contractor.Role != models.RoleContractor {
		return nil, errors.InvalidParam("指定用户不是承包商")
	}

	request.ContractorID = &contractorID
	request.Status = models.MaintenanceStatusDispatched
	if err := s.db.Save(request).Error; err != nil {
		return nil, errors.Internal("派遣承包商失败")
	}

	s.log.WithFields(logrus.Fields{
		"request_id":    request.ID,
		"contractor_id": contractorID,
	}).Info("维修工单已派遣承包商")

	return request, nil
}

// Complete 完结工单
func (s *MaintenanceService) Complete(requestID, landlordID uint) error {
	request, err := s.getOwned(requestID, landlordID)
	if err != nil {
		return err
	}

	if request.Status == models.MaintenanceStatusCompleted {
		return nil
	}

	request.Status = models.MaintenanceStatusCompleted
	if err := s.db.Save(request).Error; err != nil {
		return errors.Internal("完结工单失败")
	}
	return nil
}

// ListByTenant 租客查看自己的工单
func (s *MaintenanceService) ListByTenant(tenantID uint) ([]models.MaintenanceRequest, error) {
	var requests []models.MaintenanceRequest
	err := s.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, errors.Internal("查询工单列表失败")
	}
	return requests, nil
}

// ListByLandlord 房东查看名下物业的工单
func (s *MaintenanceService) ListByLandlord(landlordID uint, status string) ([]models.MaintenanceRequest, error) {
	query := s.db.
		Joins("JOIN properties ON properties.id = maintenance_requests.property_id").
		Where("properties.landlord_id = ?", landlordID)
	if status != "" {
		query = query.Where("maintenance_requests.status = ?", status)
	}

	var requests []models.MaintenanceRequest
	err := query.Order("maintenance_requests.created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, errors.Internal("查询工单列表失败")
	}
	return requests, nil
}

// getOwned 按房东归属取工单
func (s *MaintenanceService) getOwned(requestID, landlordID uint) (*models.MaintenanceRequest, error) {
	var request models.MaintenanceRequest
	err := s.db.First(&request, requestID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("工单不存在")
		}
		return nil, errors.Internal("查询工单失败")
	}

	var property models.Property
	err = s.db.First(&property, request.PropertyID).Error
	if err != nil {
		return nil, errors.Internal("查询物业失败")
	}
	if property.LandlordID != landlordID {
		return nil, errors.Forbidden("只能管理自己物业的工单")
	}

	return &request, nil
}
