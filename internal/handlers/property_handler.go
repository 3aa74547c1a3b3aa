package handlers

import (
	"strconv"

	"propagentic/internal/services"
	"propagentic/pkg/response"

	"github.com/gin-gonic/gin"
)

// PropertyHandler 物业处理器
type PropertyHandler struct {
	propertyService *services.PropertyService
	inviteService   *services.InviteService
}

// NewPropertyHandler 创建物业处理器
func NewPropertyHandler() *PropertyHandler {
	return &PropertyHandler{
		propertyService: services.NewPropertyService(),
		inviteService:   services.NewInviteService(),
	}
}

// Create 创建物业
// @Summary 创建物业
// @Description 房东创建名下物业
// @Tags 物业管理
// @Accept json
// @Produce json
// @Param request body services.CreatePropertyRequest true "物业信息"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /api/v1/properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	landlordID, _ := c.Get("user_id")

	var req services.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	property, err := h.propertyService.Create(landlordID.(uint), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, property)
}

// List 物业列表
// @Summary 物业列表
// @Description 房东查看名下物业
// @Tags 物业管理
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Property}
// @Router /api/v1/properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	landlordID, _ := c.Get("user_id")

	properties, err := h.propertyService.ListByLandlord(landlordID.(uint))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, properties)
}

// GetTenants 物业租客列表
// @Summary 物业租客列表
// @Description 房东查看物业的当前租客
// @Tags 物业管理
// @Produce json
// @Param id path int true "物业ID"
// @Success 200 {object} response.Response{data=[]models.PropertyTenant}
// @Router /api/v1/properties/{id}/tenants [get]
func (h *PropertyHandler) GetTenants(c *gin.Context) {
	propertyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "物业ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")

	tenants, err := h.propertyService.GetTenants(uint(propertyID), landlordID.(uint))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tenants)
}

// GetInvites 物业邀请列表
// @Summary 物业邀请列表
// @Description 房东查看指定物业的邀请
// @Tags 物业管理
// @Produce json
// @Param id path int true "物业ID"
// @Param status query string false "邀请状态(sent/pending/accepted/declined/expired)"
// @Success 200 {object} response.Response{data=[]models.PropertyInvite}
// @Router /api/v1/properties/{id}/invites [get]
func (h *PropertyHandler) GetInvites(c *gin.Context) {
	propertyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "物业ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")
	status := c.Query("status")

	invites, err := h.inviteService.GetPropertyInvites(uint(propertyID), landlordID.(uint), status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invites)
}

// RemoveTenant 移除租客
// @Summary 移除租客
// @Description 房东将租客从物业中移除，联动清理租客档案与统计
// @Tags 物业管理
// @Produce json
// @Param id path int true "物业ID"
// @Param tenantId path int true "租客ID"
// @Success 200 {object} response.Response
// @Router /api/v1/properties/{id}/tenants/{tenantId} [delete]
func (h *PropertyHandler) RemoveTenant(c *gin.Context) {
	propertyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "物业ID格式错误")
		return
	}

	tenantID, err := strconv.ParseUint(c.Param("tenantId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "租客ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")

	if err := h.inviteService.RemoveTenant(landlordID.(uint), uint(propertyID), uint(tenantID)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "租客已移除", nil)
}
