package services

import (
	"fmt"

	"propagentic/pkg/logger"

	"github.com/robfig/cron/v3"
)

// InviteScheduler 邀请过期清理调度器
type InviteScheduler struct {
	cron          *cron.Cron
	inviteService *InviteService
	running       bool
}

// NewInviteScheduler 创建邀请调度器
func NewInviteScheduler(inviteService *InviteService) *InviteScheduler {
	return &InviteScheduler{
		cron:          cron.New(),
		inviteService: inviteService,
	}
}

// Start 启动调度器，每小时扫描一次过期邀请
func (s *InviteScheduler) Start() error {
	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	_, err := s.cron.AddFunc("@hourly", func() {
		if err := s.inviteService.CleanupExpiredInvites(); err != nil {
			logger.GetLogger().Errorf("清理过期邀请失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册清理任务失败: %v", err)
	}

	// 启动前先扫一次，避免服务重启期间积压
	if err := s.inviteService.CleanupExpiredInvites(); err != nil {
		logger.GetLogger().Errorf("清理过期邀请失败: %v", err)
	}

	s.cron.Start()
	s.running = true

	logger.GetLogger().Info("邀请过期清理调度器启动成功")
	return nil
}

// Stop 停止调度器
func (s *InviteScheduler) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	logger.GetLogger().Info("邀请过期清理调度器已停止")
}
