package config

import "vboard/pkg/config"

func init() {
	config.Add("mail", func() map[string]interface{} {
		return map[string]interface{}{

			// SMTP 服务器
			"smtp": map[string]interface{}{
				"host":     config.Env("MAIL_HOST", ""),
				"port":     config.Env("MAIL_PORT", "465"),
				"username": config.Env("MAIL_USERNAME", ""),
				"password": config.Env("MAIL_PASSWORD", ""),
			},

			// 发信人
			"from": map[string]interface{}{
				"address": config.Env("MAIL_FROM_ADDRESS", ""),
				"name":    config.Env("MAIL_FROM_NAME", "VBoard"),
			},

			// Telegram Bot，留空表示不启用 TG 推送
			"telegram_bot_token": config.Env("TELEGRAM_BOT_TOKEN", ""),
		}
	})
}
