package handlers

import (
	"strconv"

	"propagentic/internal/models"
	"propagentic/internal/services"
	"propagentic/pkg/pagination"
	"propagentic/pkg/response"

	"github.com/gin-gonic/gin"
)

// InviteHandler 物业邀请处理器
type InviteHandler struct {
	inviteService *services.InviteService
	mailService   *services.MailService
}

// NewInviteHandler 创建邀请处理器
func NewInviteHandler() *InviteHandler {
	return &InviteHandler{
		inviteService: services.NewInviteService(),
		mailService:   services.NewMailService(),
	}
}

// SendInvite 签发邀请
// @Summary 签发物业邀请
// @Description 房东向租客邮箱签发入住邀请，邀请邮件异步投递
// @Tags 邀请管理
// @Accept json
// @Produce json
// @Param request body services.SendInviteRequest true "邀请信息"
// @Success 200 {object} response.Response{data=models.PropertyInvite}
// @Router /api/v1/invites [post]
func (h *InviteHandler) SendInvite(c *gin.Context) {
	landlordID, _ := c.Get("user_id")

	var req services.SendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	invite, err := h.inviteService.SendInvite(landlordID.(uint), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invite)
}

// GetMyInvites 获取我收到的邀请
// @Summary 我的邀请列表
// @Description 租客按自己的邮箱查看收到的邀请
// @Tags 邀请管理
// @Produce json
// @Param status query string false "邀请状态(sent/pending/accepted/declined/expired)"
// @Success 200 {object} response.Response{data=[]models.PropertyInvite}
// @Router /api/v1/invites/my [get]
func (h *InviteHandler) GetMyInvites(c *gin.Context) {
	userObj, _ := c.Get("user")
	user := userObj.(*models.User)

	status := c.Query("status")

	invites, err := h.inviteService.GetTenantInvites(user.Email, status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invites)
}

// GetSentInvites 获取我签发的邀请
// @Summary 签发的邀请列表
// @Description 房东分页查看自己签发的邀请
// @Tags 邀请管理
// @Produce json
// @Param status query string false "邀请状态(sent/pending/accepted/declined/expired)"
// @Param page query int false "页码"
// @Param page_size query int false "每页大小"
// @Success 200 {object} response.Response{data=[]models.PropertyInvite}
// @Router /api/v1/invites/sent [get]
func (h *InviteHandler) GetSentInvites(c *gin.Context) {
	landlordID, _ := c.Get("user_id")
	status := c.Query("status")
	params := pagination.ParsePageParams(c)

	invites, pageInfo, err := h.inviteService.GetLandlordInvites(landlordID.(uint), status, params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPage(c, invites, pageInfo)
}

// AcceptInvite 接受邀请
// @Summary 接受邀请
// @Description 租客接受邀请入住物业，重复接受幂等
// @Tags 邀请管理
// @Produce json
// @Param id path int true "邀请ID"
// @Success 200 {object} response.Response
// @Router /api/v1/invites/{id}/accept [post]
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	inviteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "邀请ID格式错误")
		return
	}

	tenantID, _ := c.Get("user_id")

	if err := h.inviteService.AcceptInvite(uint(inviteID), tenantID.(uint)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邀请已接受", nil)
}

// DeclineInvite 拒绝邀请
// @Summary 拒绝邀请
// @Description 租客拒绝邀请，只更新邀请状态
// @Tags 邀请管理
// @Produce json
// @Param id path int true "邀请ID"
// @Success 200 {object} response.Response
// @Router /api/v1/invites/{id}/decline [post]
func (h *InviteHandler) DeclineInvite(c *gin.Context) {
	inviteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "邀请ID格式错误")
		return
	}

	tenantID, _ := c.Get("user_id")

	if err := h.inviteService.DeclineInvite(uint(inviteID), tenantID.(uint)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邀请已拒绝", nil)
}

// CancelInvite 撤销邀请
// @Summary 撤销邀请
// @Description 房东撤销自己签发的待处理邀请
// @Tags 邀请管理
// @Produce json
// @Param id path int true "邀请ID"
// @Success 200 {object} response.Response
// @Router /api/v1/invites/{id}/cancel [post]
func (h *InviteHandler) CancelInvite(c *gin.Context) {
	inviteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "邀请ID格式错误")
		return
	}

	landlordID, _ := c.Get("user_id")

	if err := h.inviteService.CancelInvite(uint(inviteID), landlordID.(uint)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邀请已撤销", nil)
}

// GetMailStatus 查询邀请邮件投递状态
// @Summary 邀请邮件投递状态
// @Description 房东按投递ID查询邀请邮件的投递状态
// @Tags 邀请管理
// @Produce json
// @Param mailDocId path string true "投递ID"
// @Success 200 {object} response.Response{data=models.MailLog}
// @Router /api/v1/invites/mail/{mailDocId} [get]
func (h *InviteHandler) GetMailStatus(c *gin.Context) {
	mailDocID := c.Param("mailDocId")
	landlordID, _ := c.Get("user_id")

	mailLog, err := h.mailService.GetDeliveryStatus(mailDocID, landlordID.(uint))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, mailLog)
}

// ValidateCode 校验邀请码
// @Summary 校验邀请码
// @Description 校验邀请码有效性，用于兑换前展示；无需登录。
// @Description 已用/过期返回 is_valid=false 和区分消息，不按错误处理
// @Tags 邀请管理
// @Produce json
// @Param code path string true "邀请码"
// @Success 200 {object} response.Response{data=services.ValidationResult}
// @Router /api/v1/invite-codes/{code} [get]
func (h *InviteHandler) ValidateCode(c *gin.Context) {
	code := c.Param("code")

	result, err := h.inviteService.ValidateInviteCode(code)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// RedeemCode 兑换邀请码
// @Summary 兑换邀请码
// @Description 租客用邀请码入住物业，走标准接受流程
// @Tags 邀请管理
// @Produce json
// @Param code path string true "邀请码"
// @Success 200 {object} response.Response{data=models.PropertyInvite}
// @Router /api/v1/invite-codes/{code}/redeem [post]
func (h *InviteHandler) RedeemCode(c *gin.Context) {
	code := c.Param("code")
	tenantID, _ := c.Get("user_id")

	invite, err := h.inviteService.RedeemInviteCode(code, tenantID.(uint))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邀请码兑换成功", invite)
}
