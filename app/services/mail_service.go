package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"vboard/app/models/order"
	"vboard/app/models/user"
	"vboard/pkg/config"
	"vboard/pkg/gate"
	"vboard/pkg/logger"
	"vboard/pkg/mail"
	"vboard/pkg/queue"
)

// reminderGateWindow 流量与到期提醒的闸门窗口
const reminderGateWindow = 24 * time.Hour

// MailDispatcher 邮件投递的协作边界（Redis 队列实现）
type MailDispatcher interface {
	Push(ctx context.Context, task *queue.MailTask) error
}

// TelegramSender Telegram 推送的协作边界
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// UserFinder 用户查询的协作边界
type UserFinder interface {
	FindByID(ctx context.Context, id uint64) (*user.User, error)
}

// MailService 通知服务
// 所有提醒类通知都经过幂等闸门：提醒扫描可能与上一轮扫描并发，
// 同一用户同一类提醒在窗口内至多发出一次
type MailService struct {
	gate       *gate.Gate
	dispatcher MailDispatcher
	telegram   TelegramSender // 为 nil 时不推送 TG
	users      UserFinder
}

// NewMailService 创建通知服务
func NewMailService(g *gate.Gate, dispatcher MailDispatcher, telegram TelegramSender, users UserFinder) *MailService {
	return &MailService{
		gate:       g,
		dispatcher: dispatcher,
		telegram:   telegram,
		users:      users,
	}
}

// OrderComplete 订单完成通知
// 闸门由订单状态机把关，这里只负责组装与投递
func (s *MailService) OrderComplete(ctx context.Context, o *order.Order) error {
	u, err := s.users.FindByID(ctx, o.UserID)
	if err != nil {
		return fmt.Errorf("order complete notification: find user %d: %w", o.UserID, err)
	}

	appName := config.Get("app.name", "VBoard")
	orderAmount := fmt.Sprintf("¥%d.%02d", o.TotalAmount/100, o.TotalAmount%100)

	err = s.pushMail(ctx, &mail.Message{
		To:           u.Email,
		Subject:      fmt.Sprintf("您在 %s 的订单已完成", appName),
		TemplateName: "orderComplete",
		TemplateValue: map[string]string{
			"name":           appName,
			"url":            config.Get("app.url"),
			"user_email":     u.Email,
			"order_trade_no": o.TradeNo,
			"plan_name":      o.PlanNameWithType(),
			"plan_time":      planTimeRange(o, u),
			"order_time":     o.CreatedAt.Format("2006/01/02 15:04:05"),
			"order_amount":   orderAmount,
			"payment_method": paymentMethodName(o.PaymentMethod),
		},
	})
	if err != nil {
		return err
	}

	s.sendTelegram(ctx, u, fmt.Sprintf(
		"✅ 您的订单已完成。\n\n📦 套餐：%s\n🧾 订单号：%s\n💰 金额：%s",
		o.PlanNameWithType(), o.TradeNo, orderAmount))
	return nil
}

// RemindTraffic 流量使用达到 95% 时提醒，24 小时内最多一次
// 阈值是瞬时判断，用量回落不会提前解除闸门，只随窗口过期
func (s *MailService) RemindTraffic(ctx context.Context, u *user.User) {
	if !u.RemindTraffic {
		return
	}
	if !u.IsTrafficWarn() {
		return
	}
	if !s.gate.TryFire(ctx, cast.ToString(u.ID), "remind_traffic", reminderGateWindow) {
		return
	}

	appName := config.Get("app.name", "VBoard")
	err := s.pushMail(ctx, &mail.Message{
		To:           u.Email,
		Subject:      fmt.Sprintf("%s 的流量使用已达到 95%%", appName),
		TemplateName: "remindTraffic",
		TemplateValue: map[string]string{
			"name": appName,
			"url":  config.Get("app.url"),
		},
	})
	if err != nil {
		logger.ErrorString("提醒", "流量邮件", err.Error())
	}

	s.sendTelegram(ctx, u, fmt.Sprintf(
		"⚠️ 您的流量使用已达到95%%，请及时充值。\n\n💡 当前已使用流量：%s\n📊 总流量：%s",
		user.FormatTraffic(u.TrafficUsed()), user.FormatTraffic(u.TransferEnable)))
}

// RemindExpire 服务将于 24 小时内到期时提醒，窗口内最多一次
func (s *MailService) RemindExpire(ctx context.Context, u *user.User) {
	if !u.RemindExpire {
		return
	}
	if !u.IsExpiringWithin(24 * time.Hour) {
		return
	}
	if !s.gate.TryFire(ctx, cast.ToString(u.ID), "remind_expire", reminderGateWindow) {
		return
	}

	appName := config.Get("app.name", "VBoard")
	err := s.pushMail(ctx, &mail.Message{
		To:           u.Email,
		Subject:      fmt.Sprintf("%s 的服务即将到期", appName),
		TemplateName: "remindExpire",
		TemplateValue: map[string]string{
			"name": appName,
			"url":  config.Get("app.url"),
		},
	})
	if err != nil {
		logger.ErrorString("提醒", "到期邮件", err.Error())
	}

	s.sendTelegram(ctx, u, fmt.Sprintf(
		"⏰ 您的服务即将到期，请及时续费。\n\n📅 到期时间：%s",
		u.ExpiredAt.Format("2006-01-02")))
}

// planTimeRange 套餐生效时间段文案
// 续费订单从上一个到期时间起算，上一个到期时间 = 当前到期时间减去本次购买的月数；
// 新购与变更从下单时间起算
func planTimeRange(o *order.Order, u *user.User) string {
	if o.Period == order.PeriodOnetime {
		return "一次性流量包"
	}
	if u.ExpiredAt == nil {
		return ""
	}

	start := o.CreatedAt
	if o.Type == order.TypeRenew {
		if months := o.PeriodMonths(); months > 0 {
			start = u.ExpiredAt.AddDate(0, -months, 0)
		}
	}
	return start.Format("2006/01/02 15:04:05") + "-" + u.ExpiredAt.Format("2006/01/02 15:04:05")
}

// paymentMethodName 支付渠道文案，未经过收银台的订单按余额支付处理
func paymentMethodName(method string) string {
	switch method {
	case "epusdt":
		return "USDT"
	case "alipay":
		return "支付宝"
	default:
		return "余额支付"
	}
}

// pushMail 投递到邮件队列
func (s *MailService) pushMail(ctx context.Context, message *mail.Message) error {
	return s.dispatcher.Push(ctx, &queue.MailTask{
		ID:        uuid.New().String(),
		Message:   *message,
		CreatedAt: time.Now(),
	})
}

// sendTelegram 绑定了 Telegram 的用户同步推送 TG 消息
func (s *MailService) sendTelegram(ctx context.Context, u *user.User, text string) {
	if s.telegram == nil || u.TelegramID == 0 {
		return
	}
	if err := s.telegram.SendMessage(ctx, u.TelegramID, text); err != nil {
		logger.ErrorString("提醒", "Telegram", err.Error())
	}
}
