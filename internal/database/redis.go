package database

import (
	"propagentic/pkg/config"
	"propagentic/pkg/queue"
)

var mailQueueInstance *queue.MailQueue

// GetMailQueue 获取邮件队列的单例实例
func GetMailQueue() *queue.MailQueue {
	if mailQueueInstance == nil {
		cfg := config.GetConfig()
		mailQueueInstance = queue.NewMailQueue(&queue.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}
	return mailQueueInstance
}

// SetMailQueue 替换队列实例，测试时注入内存Redis
func SetMailQueue(q *queue.MailQueue) {
	mailQueueInstance = q
}

// CloseMailQueue 关闭Redis连接
func CloseMailQueue() error {
	if mailQueueInstance != nil {
		return mailQueueInstance.Close()
	}
	return nil
}
