package bootstrap

import (
	"time"

	"vboard/pkg/config"
	"vboard/pkg/logger"
	"vboard/pkg/mail"
	"vboard/pkg/queue"
	"vboard/pkg/redis"
)

// mailWorker 全局 worker 引用，供优雅关闭使用
var mailWorker *queue.Worker

// SetupQueue 初始化邮件队列与投递 worker
func SetupQueue() {
	if redis.Manager == nil {
		logger.ErrorString("Queue", "Setup", "Redis manager not initialized")
		return
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     config.GetString("mail.smtp.host"),
		Port:     config.GetString("mail.smtp.port"),
		Username: config.GetString("mail.smtp.username"),
		Password: config.GetString("mail.smtp.password"),
		FromAddr: config.GetString("mail.from.address"),
		FromName: config.GetString("mail.from.name"),
	})
	if err != nil {
		// SMTP 未配置时队列仍可入队，只是没有 worker 消费
		logger.WarnString("Queue", "Setup", "邮件投递未启用："+err.Error())
		return
	}

	mailWorker = queue.NewWorker(queue.NewMailQueue(), mailer, queue.WorkerConfig{
		WorkerCount:     config.GetInt("queue.worker_count", 10),
		MaxRetries:      config.GetInt("queue.retry_times", 3),
		RetryInterval:   time.Duration(config.GetInt("queue.retry_delay", 1)) * time.Second,
		ShutdownTimeout: 30 * time.Second,
	})
	mailWorker.Start()

	logger.InfoString("Queue", "Setup", "队列服务启动成功")
}

// ShutdownQueue 优雅关闭邮件 worker，在进程退出前调用
func ShutdownQueue() {
	if mailWorker != nil {
		mailWorker.Stop()
	}
}
