package bootstrap

import (
	"context"
	"time"

	"vboard/app/models/user"
	"vboard/app/repositories"
	"vboard/app/services"
	"vboard/pkg/config"
	"vboard/pkg/gate"
	"vboard/pkg/logger"
	"vboard/pkg/queue"
	"vboard/pkg/redis"
	"vboard/pkg/telegram"
)

const (
	// reminderInterval 提醒扫描周期
	// 扫描比窗口密集没有关系，闸门保证同类提醒 24 小时内至多一次
	reminderInterval = time.Hour
	// reminderBatchSize 单批扫描的用户数
	reminderBatchSize = 500
	// reminderScanTimeout 单轮扫描的总超时
	reminderScanTimeout = 10 * time.Minute
)

var reminderStop = make(chan struct{})

// SetupReminder 启动流量与到期提醒的周期扫描
func SetupReminder() {
	if redis.Manager == nil {
		logger.ErrorString("Reminder", "Setup", "Redis manager not initialized")
		return
	}

	users := repositories.NewUserRepository()
	mailService := services.NewMailService(
		gate.New(gate.NewRedisStore(redis.Redis.Client), config.GetString("app.name")),
		queue.NewMailQueue(),
		telegramSender(),
		users,
	)

	go func() {
		ticker := time.NewTicker(reminderInterval)
		defer ticker.Stop()

		// 启动后先跑一轮，重启不应把提醒推迟一个周期
		scanReminders(users, mailService)

		for {
			select {
			case <-reminderStop:
				return
			case <-ticker.C:
				scanReminders(users, mailService)
			}
		}
	}()

	logger.InfoString("Reminder", "Setup", "提醒扫描已启动")
}

// StopReminder 停止提醒扫描
func StopReminder() {
	close(reminderStop)
}

// scanReminders 扫描一轮候选用户并触发提醒
func scanReminders(users *repositories.UserRepository, mailService *services.MailService) {
	ctx, cancel := context.WithTimeout(context.Background(), reminderScanTimeout)
	defer cancel()

	err := users.EachReminderCandidate(ctx, reminderBatchSize, func(u *user.User) {
		mailService.RemindTraffic(ctx, u)
		mailService.RemindExpire(ctx, u)
	})
	if err != nil {
		logger.ErrorString("Reminder", "Scan", err.Error())
	}
}

// telegramSender 组装 TG 推送端，未配置 bot token 时返回 nil 接口
func telegramSender() services.TelegramSender {
	if client := telegram.NewClient(config.GetString("mail.telegram_bot_token")); client != nil {
		return client
	}
	return nil
}
