// Package order 存放订单 Model 相关逻辑
package order

import (
	"time"

	"vboard/app/models"
)

// Order 订单模型
// 状态只读写 Status 与 CallbackNo，余下字段由下单流程填写
type Order struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeNo     string `gorm:"type:varchar(36);uniqueIndex" json:"trade_no"`
	UserID      uint64 `gorm:"index" json:"user_id"`
	PlanID      uint64 `gorm:"index" json:"plan_id"`
	PlanName    string `gorm:"type:varchar(255)" json:"plan_name"`
	Period      string `gorm:"type:varchar(32)" json:"period"`
	Type        int    `gorm:"default:1" json:"type"` // 1 新购 2 续费 3 变更 4 重置流量
	TotalAmount int64  `gorm:"" json:"total_amount"`  // 单位：分
	Status      string `gorm:"type:varchar(20);index" json:"status"`

	// PaymentMethod 收银台选定的支付方式，未发起支付时为空
	PaymentMethod string     `gorm:"type:varchar(32)" json:"payment_method"`
	CallbackNo    string     `gorm:"type:varchar(64)" json:"callback_no"` // 网关侧交易号
	PaidAt        *time.Time `gorm:"" json:"paid_at"`

	models.CommonTimestampsField
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
