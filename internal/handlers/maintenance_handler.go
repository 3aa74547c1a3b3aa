package handlers

import (
	"strconv"

	"propagentic/internal/services"
	"propagentic/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaintenanceHandler 维修工单处理器
type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
}

// NewMaintenanceHandler 创建维修处理器
func NewMaintenanceHandler() *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: services.NewMaintenanceService(),
	}
}

// Create 提交工单
// @Summary 提交维修工单
// @Description 租客为已入住物业提交维修工单
// @Tags 维修工单
// @Accept json
// @Produce json
// @Param request body services.CreateMaintenanceRequest true "工单信息"
// @Success 200 {object} response.Response{data=models.MaintenanceRequest}
// @Router /api/v1/maintenance [post]
func (h *MaintenanceHandler) Create(c *gin.Context) {
	tenantID, _ := c.Get("user_id")

	var req services.CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	request, err := h.maintenanceService.Create(tenantID.(uint), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, request)
}

// ListMine 我的工单
// @Summary 我的工单列表
// @Description 租客查看自己提交的工单
// @Tags 维修工单
// @Produce json
// @Success 200 {object} response.Response{data=[]models.MaintenanceRequest}
// @Router /api/v1/maintenance/my [get]
func (h *MaintenanceHandler) ListMine(c *gin.Context) {
	tenantID, _ := c.Get("user_id")

	requests, err := h.maintenanceService.ListByTenant(tenantID.(uint))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, requests)
}

// ListForLandlord 物业工单
// @Summary 物业工单列表
// @Description 房东查看名下物业的工单
// @Tags 维修工单
// @Produce json
// @Param status query string false "工单状态(new/triaged/dispatched/completed)"
// @Success 200 {object} response.Response{data=[]models.MaintenanceRequest}
// @Router /api/v1/maintenance [get]
func (h *MaintenanceHandler) ListForLandlord(c *gin.Context) {
	landlordID, _ := c.Get("user_id")
	status := c.Query("status")

	requests, err := h.maintenanceService.ListByLandlord(landlordID.(uint), status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, requests)
}

// Assess 评估分诊
// @Summary 评估分诊工单
// @Description 房东录入评估结论，系统按规则分诊
// @Tags 维修工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Param request body services.AssessmentInput true "评估输入"
// @Success 200 {object} response.Response{data=models.MaintenanceRequest}
// @Router /api/v1/maintenance/{id}/assess [post]
func (h *MaintenanceHandler) Assess(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "工单ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")

	var input services.AssessmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	request, err := h.maintenanceService.Assess(uint(requestID), landlordID.(uint), &input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, request)
}

// Dispatch 派遣承包商
// @Summary 派遣承包商
// @Description 对分诊结论为派遣的工单指定承包商
// @Tags 维修工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Success 200 {object} response.Response{data=models.MaintenanceRequest}
// @Router /api/v1/maintenance/{id}/dispatch [post]
func (h *MaintenanceHandler) Dispatch(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "工单ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")

	var req struct {
		ContractorID uint `json:"contractor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	request, err := h.maintenanceService.Dispatch(uint(requestID), landlordID.(uint), req.ContractorID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, request)
}

// Complete 完结工单
// @Summary 完结工单
// @Description 房东完结工单，重复完结幂等
// @Tags 维修工单
// @Produce json
// @Param id path int true "工单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/maintenance/{id}/complete [post]
func (h *MaintenanceHandler) Complete(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "工单ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")

	if err := h.maintenanceService.Complete(uint(requestID), landlordID.(uint)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "工单已完结", nil)
}
