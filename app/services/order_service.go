// Package services 业务服务层
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"vboard/app/models/order"
	"vboard/pkg/gate"
	"vboard/pkg/logger"
)

// 订单台账错误
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrderState = errors.New("order state does not accept payment")
)

// orderCompleteGateWindow 订单完成通知的闸门窗口
// 状态 CAS 已保证转移只发生一次，窗口过后重放的回调仍会命中 already_processed
const orderCompleteGateWindow = 24 * time.Hour

// OrderLedger 订单台账的协作边界
// SetPaid 必须是以 pending 为前置条件的条件更新，返回是否赢得本次转移
type OrderLedger interface {
	FindByTradeNo(ctx context.Context, tradeNo string) (*order.Order, error)
	SetPaid(ctx context.Context, tradeNo, callbackNo string) (bool, error)
	SetNotified(ctx context.Context, tradeNo string) error
}

// OrderNotifier 订单完成通知的协作边界
type OrderNotifier interface {
	OrderComplete(ctx context.Context, o *order.Order) error
}

// PaidOutcome 验签通过的支付结果
type PaidOutcome struct {
	TradeNo    string
	CallbackNo string
}

// TransitionResult 状态转移结果
type TransitionResult struct {
	AlreadyProcessed bool `json:"already_processed"`
}

// OrderService 订单状态机
// 回调可能并发、重复到达，这里保证 pending→paid 恰好发生一次，
// 用户可见副作用（邮件、TG 消息）至多触发一次
type OrderService struct {
	ledger   OrderLedger
	notifier OrderNotifier
	gate     *gate.Gate
}

// NewOrderService 创建订单状态机
func NewOrderService(ledger OrderLedger, notifier OrderNotifier, g *gate.Gate) *OrderService {
	return &OrderService{
		ledger:   ledger,
		notifier: notifier,
		gate:     g,
	}
}

// ApplyPaidOutcome 将已验签的支付结果应用到订单上
//
// - 订单不存在：ErrOrderNotFound，绝不凭回调伪造订单
// - 已是 paid / notified：幂等成功，AlreadyProcessed=true，无任何副作用
// - pending：原子推进到 paid，并发回调只有一个赢家，其余拿到 AlreadyProcessed
// - 其它状态（failed）：ErrInvalidOrderState
func (s *OrderService) ApplyPaidOutcome(ctx context.Context, outcome PaidOutcome) (*TransitionResult, error) {
	o, err := s.ledger.FindByTradeNo(ctx, outcome.TradeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	switch o.Status {
	case order.StatusPaid, order.StatusNotified:
		// 网关重试属于预期行为，重复回调不得二次入账
		return &TransitionResult{AlreadyProcessed: true}, nil
	case order.StatusPending:
		// 继续推进
	default:
		return nil, ErrInvalidOrderState
	}

	won, err := s.ledger.SetPaid(ctx, o.TradeNo, outcome.CallbackNo)
	if err != nil {
		return nil, err
	}
	if !won {
		// 并发回调中输掉了 CAS，对方已完成入账
		return &TransitionResult{AlreadyProcessed: true}, nil
	}

	s.fireCompleteNotification(ctx, o, outcome.CallbackNo)
	return &TransitionResult{}, nil
}

// fireCompleteNotification 通过闸门触发订单完成通知
// 通知失败只记录，不回滚支付状态；订单停在 paid，可人工补发
func (s *OrderService) fireCompleteNotification(ctx context.Context, o *order.Order, callbackNo string) {
	if !s.gate.TryFire(ctx, o.TradeNo, "order_complete", orderCompleteGateWindow) {
		return
	}

	o.Status = order.StatusPaid
	o.CallbackNo = callbackNo

	if err := s.notifier.OrderComplete(ctx, o); err != nil {
		logger.ErrorString("订单", "完成通知", err.Error())
		return
	}
	logger.LogIf(s.ledger.SetNotified(ctx, o.TradeNo))
}
