package handlers

import (
	"propagentic/internal/services"
	"propagentic/pkg/response"

	"github.com/gin-gonic/gin"
)

// LandlordHandler 房东档案处理器
type LandlordHandler struct {
	landlordService *services.LandlordService
}

// NewLandlordHandler 创建房东档案处理器
func NewLandlordHandler() *LandlordHandler {
	return &LandlordHandler{
		landlordService: services.NewLandlordService(),
	}
}

// GetProfile 获取档案
// @Summary 房东档案
// @Description 查看邀请统计与已接受租客记录
// @Tags 房东档案
// @Produce json
// @Success 200 {object} response.Response{data=services.ProfileView}
// @Router /api/v1/landlord/profile [get]
func (h *LandlordHandler) GetProfile(c *gin.Context) {
	landlordID, _ := c.Get("user_id")

	profile, err := h.landlordService.GetProfile(landlordID.(uint))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, profile)
}
