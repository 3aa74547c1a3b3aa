package handlers

import (
	"time"

	"propagentic/internal/models"
	"propagentic/internal/services"
	"propagentic/pkg/jwt"
	"propagentic/pkg/logger"
	"propagentic/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	userService *services.UserService
	jwtManager  *jwt.JWTManager
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{
		userService: services.NewUserService(),
		jwtManager:  jwt.GetJWTManager(),
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"` // 秒
	User      *models.User `json:"user"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 注册房东、租客或承包商账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "注册信息"
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Create(&req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户名密码登录，返回JWT令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=LoginResponse}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.GetByUsername(req.Username)
	if err != nil {
		// 不泄露用户是否存在
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	if !user.CheckPassword(req.Password) {
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	if !h.userService.IsActive(user) {
		response.Unauthorized(c, "用户已被禁用")
		return
	}

	landlordID := uint(0)
	if user.LandlordID != nil {
		landlordID = *user.LandlordID
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.Role, landlordID)
	if err != nil {
		response.ServerError(c, "生成令牌失败")
		return
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("用户登录成功")

	response.Success(c, LoginResponse{
		Token:     token,
		ExpiresIn: int64(h.jwtManager.GetTokenDuration() / time.Second),
		User:      user,
	})
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Description 用未过期的令牌换取新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	newToken, err := h.jwtManager.RefreshToken(req.Token)
	if err != nil {
		response.Unauthorized(c, "Token无效或已过期")
		return
	}

	response.Success(c, gin.H{
		"token":      newToken,
		"expires_in": int64(h.jwtManager.GetTokenDuration() / time.Second),
	})
}

// Me 获取当前用户信息
// @Summary 当前用户
// @Description 获取当前登录用户的信息
// @Tags 认证
// @Produce json
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userObj, _ := c.Get("user")
	response.Success(c, userObj.(*models.User))
}
