package services

import (
	"time"

	"propagentic/internal/database"
	"propagentic/pkg/logger"
	"propagentic/pkg/queue"

	"github.com/sirupsen/logrus"
)

// MailDispatcher 邮件分发器：从队列取邮件并投递
type MailDispatcher struct {
	queue       *queue.MailQueue
	mailService *MailService
	log         *logrus.Logger
	stopChan    chan struct{}
	running     bool
}

// NewMailDispatcher 创建邮件分发器
func NewMailDispatcher() *MailDispatcher {
	return &MailDispatcher{
		queue:       database.GetMailQueue(),
		mailService: NewMailService(),
		log:         logger.GetLogger(),
		stopChan:    make(chan struct{}),
	}
}

// Start 启动分发协程
func (d *MailDispatcher) Start() {
	if d.running {
		return
	}
	d.running = true

	go d.loop()
	d.log.Info("邮件分发器启动成功")
}

// Stop 停止分发器
func (d *MailDispatcher) Stop() {
	if !d.running {
		return
	}
	close(d.stopChan)
	d.running = false
	d.log.Info("邮件分发器已停止")
}

func (d *MailDispatcher) loop() {
	for {
		select {
		case <-d.stopChan:
			return
		default:
		}

		// 阻塞出队，5秒超时以便响应停止信号
		message, err := d.queue.Dequeue(5 * time.Second)
		if err != nil {
			d.log.Errorf("邮件出队失败: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if message == nil {
			continue
		}

		d.deliver(message)
	}
}

// deliver 投递单封邮件并回写状态
func (d *MailDispatcher) deliver(message *queue.MailMessage) {
	if err := d.send(message); err != nil {
		d.log.WithFields(logrus.Fields{
			"mail_doc_id": message.MailDocID,
			"to":          message.To,
		}).Errorf("邮件投递失败: %v", err)

		if merr := d.mailService.MarkFailed(message.MailDocID, err.Error()); merr != nil {
			d.log.Errorf("回写邮件投递状态失败: %v", merr)
		}
		return
	}

	if err := d.mailService.MarkSent(message.MailDocID); err != nil {
		d.log.Errorf("回写邮件投递状态失败: %v", err)
	}
}

// send 投递走日志通道；接入真实SMTP网关时在此替换
func (d *MailDispatcher) send(message *queue.MailMessage) error {
	if err := d.mailService.ValidateAddress(message.To); err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"mail_doc_id": message.MailDocID,
		"to":          message.To,
		"template":    message.Template,
		"subject":     RenderSubject(message),
	}).Info("投递邮件")
	return nil
}
