// Package user 存放用户 Model 相关逻辑
package user

import (
	"time"

	"vboard/app/models"
)

// User 用户模型
type User struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string     `gorm:"unique;type:varchar(255)" json:"email"`
	TelegramID     int64      `gorm:"index;default:0" json:"telegram_id"` // 0 表示未绑定
	PlanID         uint64     `gorm:"index" json:"plan_id"`
	U              int64      `gorm:"default:0" json:"u"` // 上行流量，字节
	D              int64      `gorm:"default:0" json:"d"` // 下行流量，字节
	TransferEnable int64      `gorm:"default:0" json:"transfer_enable"`
	ExpiredAt      *time.Time `gorm:"index" json:"expired_at"` // NULL 表示长期有效
	RemindTraffic  bool       `gorm:"default:true" json:"remind_traffic"`
	RemindExpire   bool       `gorm:"default:true" json:"remind_expire"`

	models.CommonTimestampsField
}

// TableName 表名
func (User) TableName() string {
	return "users"
}
