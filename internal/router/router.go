package router

import (
	"time"

	"propagentic/internal/database"
	"propagentic/internal/handlers"
	"propagentic/internal/middleware"
	"propagentic/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	auth := middleware.NewAuthMiddleware()

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证路由
		authHandler := handlers.NewAuthHandler()
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register) // 用户注册
			authGroup.POST("/login", authHandler.Login)       // 用户登录
			authGroup.POST("/refresh", authHandler.RefreshToken)

			// 🔒 获取当前用户信息
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 邀请路由
		inviteHandler := handlers.NewInviteHandler()
		invites := api.Group("/invites")
		{
			// 🔒 房东签发与管理
			invites.POST("", auth.RequireLogin(), auth.RequireLandlord(), inviteHandler.SendInvite)
			invites.GET("/sent", auth.RequireLogin(), auth.RequireLandlord(), inviteHandler.GetSentInvites)
			invites.POST("/:id/cancel", auth.RequireLogin(), auth.RequireLandlord(), inviteHandler.CancelInvite)
			invites.GET("/mail/:mailDocId", auth.RequireLogin(), auth.RequireLandlord(), inviteHandler.GetMailStatus)

			// 🔒 租客处理邀请
			invites.GET("/my", auth.RequireLogin(), auth.RequireTenant(), inviteHandler.GetMyInvites)
			invites.POST("/:id/accept", auth.RequireLogin(), auth.RequireTenant(), inviteHandler.AcceptInvite)
			invites.POST("/:id/decline", auth.RequireLogin(), auth.RequireTenant(), inviteHandler.DeclineInvite)
		}

		// 邀请码：校验无需登录（兑换页展示），兑换需租客身份
		inviteCodes := api.Group("/invite-codes")
		{
			inviteCodes.GET("/:code", inviteHandler.ValidateCode)
			inviteCodes.POST("/:code/redeem", auth.RequireLogin(), auth.RequireTenant(), inviteHandler.RedeemCode)
		}

		// 物业路由（房东）
		propertyHandler := handlers.NewPropertyHandler()
		properties := api.Group("/properties", auth.RequireLogin(), auth.RequireLandlord())
		{
			properties.POST("", propertyHandler.Create)
			properties.GET("", propertyHandler.List)
			properties.GET("/:id/tenants", propertyHandler.GetTenants)
			properties.GET("/:id/invites", propertyHandler.GetInvites)
			properties.DELETE("/:id/tenants/:tenantId", propertyHandler.RemoveTenant)
		}

		// 房东档案
		landlordHandler := handlers.NewLandlordHandler()
		landlord := api.Group("/landlord", auth.RequireLogin(), auth.RequireLandlord())
		{
			landlord.GET("/profile", landlordHandler.GetProfile)
		}

		// 维修工单
		maintenanceHandler := handlers.NewMaintenanceHandler()
		maintenance := api.Group("/maintenance")
		{
			// 🔒 租客提交与查看
			maintenance.POST("", auth.RequireLogin(), auth.RequireTenant(), maintenanceHandler.Create)
			maintenance.GET("/my", auth.RequireLogin(), auth.RequireTenant(), maintenanceHandler.ListMine)

			// 🔒 房东分诊与派遣
			maintenance.GET("", auth.RequireLogin(), auth.RequireLandlord(), maintenanceHandler.ListForLandlord)
			maintenance.POST("/:id/assess", auth.RequireLogin(), auth.RequireLandlord(), maintenanceHandler.Assess)
			maintenance.POST("/:id/dispatch", auth.RequireLogin(), auth.RequireLandlord(), maintenanceHandler.Dispatch)
			maintenance.POST("/:id/complete", auth.RequireLogin(), auth.RequireLandlord(), maintenanceHandler.Complete)
		}

		// WebSocket：房东仪表盘事件（token走查询参数）
		wsHandler := handlers.NewWebSocketHandler()
		api.GET("/ws/landlord/events", wsHandler.LandlordEvents)
	}
}

// 健康检查
func healthCheck(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	redisStatus := "ok"
	if err := database.GetMailQueue().Ping(); err != nil {
		redisStatus = "down"
	}

	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "PropAgentic",
		"version":   "1.0.0",
		"database":  dbStatus,
		"redis":     redisStatus,
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
