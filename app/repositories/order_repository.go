// Package repositories 数据仓储层
package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vboard/app/models/order"
	"vboard/pkg/database"
)

// OrderRepository 订单台账仓库
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建仓库实例
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		db: database.DB,
	}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// FindByTradeNo 根据订单号获取订单
func (r *OrderRepository) FindByTradeNo(ctx context.Context, tradeNo string) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Where("trade_no = ?", tradeNo).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SetPaid 将订单从 pending 原子推进到 paid，并记录网关交易号
// 条件更新以当前状态为前置条件，返回值表示本次调用是否赢得了这次转移；
// 并发回调下恰好一个调用返回 true，其余观察到 false
func (r *OrderRepository) SetPaid(ctx context.Context, tradeNo, callbackNo string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("trade_no = ? AND status = ?", tradeNo, order.StatusPending).
		Updates(map[string]interface{}{
			"status":      order.StatusPaid,
			"callback_no": callbackNo,
			"paid_at":     &now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetPaymentMethod 记录收银台选定的支付方式，通知文案用它标注支付渠道
func (r *OrderRepository) SetPaymentMethod(ctx context.Context, tradeNo, method string) error {
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("trade_no = ?", tradeNo).
		Update("payment_method", method).Error
}

// SetNotified 将订单从 paid 推进到 notified
func (r *OrderRepository) SetNotified(ctx context.Context, tradeNo string) error {
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("trade_no = ? AND status = ?", tradeNo, order.StatusPaid).
		Update("status", order.StatusNotified).Error
}

// SetFailed 将订单从 pending 置为失败终态（超时取消等场景）
func (r *OrderRepository) SetFailed(ctx context.Context, tradeNo string) error {
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("trade_no = ? AND status = ?", tradeNo, order.StatusPending).
		Update("status", order.StatusFailed).Error
}
