package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// MailQueue 基于Redis的邮件外发队列
type MailQueue struct {
	client *redis.Client
	prefix string
}

// MailMessage 队列中的邮件消息
type MailMessage struct {
	MailDocID  string            `json:"mail_doc_id"` // 邮件投递ID
	InviteID   uint              `json:"invite_id"`   // 关联的邀请ID
	To         string            `json:"to"`          // 收件人
	Template   string            `json:"template"`    // 邮件模板名
	Params     map[string]string `json:"params"`      // 模板参数
	EnqueuedAt int64             `json:"enqueued_at"`
}

// Event 仪表盘通知事件（Pub/Sub）
type Event struct {
	Type       string `json:"type"` // invite.accepted / invite.declined / tenant.removed
	InviteID   uint   `json:"invite_id,omitempty"`
	PropertyID uint   `json:"property_id,omitempty"`
	TenantID   uint   `json:"tenant_id,omitempty"`
	LandlordID uint   `json:"landlord_id"`
	Occurred   int64  `json:"occurred"`
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewMailQueue 创建邮件队列实例
func NewMailQueue(config *Config) *MailQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "propagentic:mail"
	}

	return &MailQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *MailQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *MailQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

// GetClient 获取底层Redis客户端（Pub/Sub订阅用）
func (q *MailQueue) GetClient() *redis.Client {
	return q.client
}

// Enqueue 邮件消息入队
func (q *MailQueue) Enqueue(message *MailMessage) error {
	ctx := context.Background()

	message.EnqueuedAt = time.Now().Unix()

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化邮件消息失败: %v", err)
	}

	// 左侧入队
	if err := q.client.LPush(ctx, q.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("邮件入队失败: %v", err)
	}

	// 记录投递状态（用于查询）
	statusKey := q.statusKey(message.MailDocID)
	statusInfo := map[string]interface{}{
		"mail_doc_id": message.MailDocID,
		"to":          message.To,
		"template":    message.Template,
		"status":      "queued",
		"queued_at":   time.Now().Unix(),
	}
	if err := q.client.HSet(ctx, statusKey, statusInfo).Err(); err != nil {
		return fmt.Errorf("记录邮件状态失败: %v", err)
	}

	// 状态保留24小时
	q.client.Expire(ctx, statusKey, 24*time.Hour)

	return nil
}

// Dequeue 阻塞出队（右侧），timeout为0表示一直阻塞
func (q *MailQueue) Dequeue(timeout time.Duration) (*MailMessage, error) {
	ctx := context.Background()

	result, err := q.client.BRPop(ctx, timeout, q.queueKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时无消息
		}
		return nil, fmt.Errorf("邮件出队失败: %v", err)
	}

	// BRPOP返回 [key, value]
	if len(result) < 2 {
		return nil, fmt.Errorf("邮件出队返回格式异常")
	}

	var message MailMessage
	if err := json.Unmarshal([]byte(result[1]), &message); err != nil {
		return nil, fmt.Errorf("反序列化邮件消息失败: %v", err)
	}

	return &message, nil
}

// SetStatus 更新邮件投递状态
func (q *MailQueue) SetStatus(mailDocID, status string) error {
	ctx := context.Background()
	return q.client.HSet(ctx, q.statusKey(mailDocID), "status", status).Err()
}

// GetStatus 查询邮件投递状态
func (q *MailQueue) GetStatus(mailDocID string) (map[string]string, error) {
	ctx := context.Background()
	return q.client.HGetAll(ctx, q.statusKey(mailDocID)).Result()
}

// PublishEvent 发布仪表盘通知事件
func (q *MailQueue) PublishEvent(event *Event) error {
	ctx := context.Background()

	event.Occurred = time.Now().Unix()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %v", err)
	}

	return q.client.Publish(ctx, q.eventChannel(event.LandlordID), data).Err()
}

// SubscribeEvents 订阅指定房东的通知事件
func (q *MailQueue) SubscribeEvents(ctx context.Context, landlordID uint) *redis.PubSub {
	return q.client.Subscribe(ctx, q.eventChannel(landlordID))
}

func (q *MailQueue) queueKey() string {
	return q.prefix + ":outbox"
}

func (q *MailQueue) statusKey(mailDocID string) string {
	return fmt.Sprintf("%s:status:%s", q.prefix, mailDocID)
}

func (q *MailQueue) eventChannel(landlordID uint) string {
	return fmt.Sprintf("%s:events:landlord:%d", q.prefix, landlordID)
}
