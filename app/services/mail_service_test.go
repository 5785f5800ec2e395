package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"vboard/app/models/order"
	"vboard/app/models/user"
	"vboard/app/services"
	"vboard/pkg/gate"
	"vboard/pkg/queue"
)

// fakeDispatcher 记录入队的邮件任务
type fakeDispatcher struct {
	mu    sync.Mutex
	tasks []*queue.MailTask
}

func (d *fakeDispatcher) Push(_ context.Context, task *queue.MailTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

func (d *fakeDispatcher) last() *queue.MailTask {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) == 0 {
		return nil
	}
	return d.tasks[len(d.tasks)-1]
}

// fakeTelegram 记录推送的 TG 消息
type fakeTelegram struct {
	mu       sync.Mutex
	messages []string
	chatIDs  []int64
}

func (t *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chatIDs = append(t.chatIDs, chatID)
	t.messages = append(t.messages, text)
	return nil
}

func (t *fakeTelegram) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// fakeUsers 内存用户查询
type fakeUsers struct {
	users map[uint64]*user.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uint64) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, context.Canceled
}

func newMailService(dispatcher *fakeDispatcher, telegram *fakeTelegram, users ...*user.User) *services.MailService {
	finder := &fakeUsers{users: make(map[uint64]*user.User)}
	for _, u := range users {
		finder.users[u.ID] = u
	}

	// 显式构造接口值：带类型的 nil 指针塞进接口后不再等于 nil，
	// 会绕过未启用 TG 的判断
	var sender services.TelegramSender
	if telegram != nil {
		sender = telegram
	}

	g := gate.New(gate.NewMemoryStore(), "test")
	return services.NewMailService(g, dispatcher, sender, finder)
}

func warnUser(id uint64) *user.User {
	return &user.User{
		ID:             id,
		Email:          "user@example.com",
		TelegramID:     10086,
		U:              50 * 1024 * 1024 * 1024,
		D:              46 * 1024 * 1024 * 1024,
		TransferEnable: 100 * 1024 * 1024 * 1024,
		RemindTraffic:  true,
		RemindExpire:   true,
	}
}

func TestRemindTrafficFiresOncePerWindow(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	telegram := &fakeTelegram{}
	u := warnUser(42)
	svc := newMailService(dispatcher, telegram, u)

	// 提醒扫描每小时跑一轮，同一用户重复命中阈值
	for i := 0; i < 3; i++ {
		svc.RemindTraffic(context.Background(), u)
	}

	if got := dispatcher.count(); got != 1 {
		t.Errorf("pushed %d traffic mails, want 1", got)
	}
	if got := telegram.count(); got != 1 {
		t.Errorf("sent %d telegram messages, want 1", got)
	}

	task := dispatcher.last()
	if task.Message.To != "user@example.com" {
		t.Errorf("mail to = %q, want user@example.com", task.Message.To)
	}
	if task.Message.TemplateName != "remindTraffic" {
		t.Errorf("template = %q, want remindTraffic", task.Message.TemplateName)
	}
}

func TestRemindTrafficWithoutTelegramSender(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	// 未配置 TG 推送端，但用户绑定了 TelegramID
	u := warnUser(51)
	svc := newMailService(dispatcher, nil, u)

	svc.RemindTraffic(context.Background(), u)

	if got := dispatcher.count(); got != 1 {
		t.Errorf("pushed %d mails without a telegram sender, want 1", got)
	}
}

func TestRemindTrafficBelowThreshold(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(43)
	u.U = 10 * 1024 * 1024 * 1024
	u.D = 10 * 1024 * 1024 * 1024
	svc := newMailService(dispatcher, nil, u)

	svc.RemindTraffic(context.Background(), u)

	if got := dispatcher.count(); got != 0 {
		t.Errorf("pushed %d mails below threshold, want 0", got)
	}
}

func TestRemindTrafficDisabledByUser(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(44)
	u.RemindTraffic = false
	svc := newMailService(dispatcher, nil, u)

	svc.RemindTraffic(context.Background(), u)

	if got := dispatcher.count(); got != 0 {
		t.Errorf("pushed %d mails with reminder disabled, want 0", got)
	}
}

func TestRemindExpireWithinWindow(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	telegram := &fakeTelegram{}
	u := warnUser(45)
	expiredAt := time.Now().Add(6 * time.Hour)
	u.ExpiredAt = &expiredAt
	svc := newMailService(dispatcher, telegram, u)

	svc.RemindExpire(context.Background(), u)
	svc.RemindExpire(context.Background(), u)

	if got := dispatcher.count(); got != 1 {
		t.Errorf("pushed %d expire mails, want 1", got)
	}
	if dispatcher.last().Message.TemplateName != "remindExpire" {
		t.Errorf("template = %q, want remindExpire", dispatcher.last().Message.TemplateName)
	}
	if got := telegram.count(); got != 1 {
		t.Errorf("sent %d telegram messages, want 1", got)
	}
}

func TestRemindExpireOutsideWindow(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(46)
	expiredAt := time.Now().Add(72 * time.Hour)
	u.ExpiredAt = &expiredAt
	svc := newMailService(dispatcher, nil, u)

	svc.RemindExpire(context.Background(), u)

	if got := dispatcher.count(); got != 0 {
		t.Errorf("pushed %d mails for a far-off expiry, want 0", got)
	}
}

func TestRemindExpireAlreadyExpired(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(47)
	expiredAt := time.Now().Add(-time.Hour)
	u.ExpiredAt = &expiredAt
	svc := newMailService(dispatcher, nil, u)

	svc.RemindExpire(context.Background(), u)

	if got := dispatcher.count(); got != 0 {
		t.Errorf("pushed %d mails for an expired user, want 0", got)
	}
}

func TestReminderGatesAreIndependent(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(48)
	expiredAt := time.Now().Add(6 * time.Hour)
	u.ExpiredAt = &expiredAt
	svc := newMailService(dispatcher, nil, u)

	// 同一用户同时命中两类提醒，闸门按类型隔离，各发一封
	svc.RemindTraffic(context.Background(), u)
	svc.RemindExpire(context.Background(), u)

	if got := dispatcher.count(); got != 2 {
		t.Errorf("pushed %d mails for two distinct reminders, want 2", got)
	}
}

func TestOrderCompleteNotification(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	telegram := &fakeTelegram{}
	u := warnUser(49)
	expiredAt := time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local)
	u.ExpiredAt = &expiredAt
	svc := newMailService(dispatcher, telegram, u)

	o := pendingOrder("V20240101000010")
	o.UserID = 49
	o.Period = order.PeriodMonth
	o.PaymentMethod = "epusdt"
	o.CreatedAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	if err := svc.OrderComplete(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := dispatcher.count(); got != 1 {
		t.Fatalf("pushed %d order mails, want 1", got)
	}

	task := dispatcher.last()
	if task.Message.TemplateName != "orderComplete" {
		t.Errorf("template = %q, want orderComplete", task.Message.TemplateName)
	}
	if got := task.Message.TemplateValue["order_trade_no"]; got != "V20240101000010" {
		t.Errorf("order_trade_no = %q, want V20240101000010", got)
	}
	if got := task.Message.TemplateValue["order_amount"]; got != "¥19.99" {
		t.Errorf("order_amount = %q, want ¥19.99", got)
	}
	if got := task.Message.TemplateValue["plan_name"]; got != "标准套餐（新购）" {
		t.Errorf("plan_name = %q", got)
	}
	if got := task.Message.TemplateValue["plan_time"]; got != "2024/01/01 10:00:00-2024/02/01 10:00:00" {
		t.Errorf("plan_time = %q", got)
	}
	if got := task.Message.TemplateValue["payment_method"]; got != "USDT" {
		t.Errorf("payment_method = %q, want USDT", got)
	}

	if got := telegram.count(); got != 1 {
		t.Fatalf("sent %d telegram messages, want 1", got)
	}
	if telegram.chatIDs[0] != 10086 {
		t.Errorf("telegram chat id = %d, want 10086", telegram.chatIDs[0])
	}
}

func TestOrderCompletePlanTimeForRenewal(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(52)
	// 续费后到期时间已是 4 月，生效期应从上一个到期时间（1 月）起算
	expiredAt := time.Date(2024, 4, 1, 10, 0, 0, 0, time.Local)
	u.ExpiredAt = &expiredAt
	svc := newMailService(dispatcher, nil, u)

	o := pendingOrder("V20240101000013")
	o.UserID = 52
	o.Type = order.TypeRenew
	o.Period = order.PeriodQuarter
	o.PaymentMethod = "alipay"
	o.CreatedAt = time.Date(2024, 3, 28, 9, 0, 0, 0, time.Local)

	if err := svc.OrderComplete(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := dispatcher.last()
	if got := task.Message.TemplateValue["plan_time"]; got != "2024/01/01 10:00:00-2024/04/01 10:00:00" {
		t.Errorf("plan_time = %q", got)
	}
	if got := task.Message.TemplateValue["payment_method"]; got != "支付宝" {
		t.Errorf("payment_method = %q, want 支付宝", got)
	}
}

func TestOrderCompletePlanTimeForOnetime(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	u := warnUser(53)
	svc := newMailService(dispatcher, nil, u)

	o := pendingOrder("V20240101000014")
	o.UserID = 53
	o.Period = order.PeriodOnetime

	if err := svc.OrderComplete(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := dispatcher.last()
	if got := task.Message.TemplateValue["plan_time"]; got != "一次性流量包" {
		t.Errorf("plan_time = %q, want 一次性流量包", got)
	}
	// 未经过收银台的订单按余额支付标注
	if got := task.Message.TemplateValue["payment_method"]; got != "余额支付" {
		t.Errorf("payment_method = %q, want 余额支付", got)
	}
}

func TestOrderCompleteSkipsTelegramWhenUnbound(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	telegram := &fakeTelegram{}
	u := warnUser(50)
	u.TelegramID = 0
	svc := newMailService(dispatcher, telegram, u)

	o := pendingOrder("V20240101000011")
	o.UserID = 50

	if err := svc.OrderComplete(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := dispatcher.count(); got != 1 {
		t.Errorf("pushed %d mails, want 1", got)
	}
	if got := telegram.count(); got != 0 {
		t.Errorf("sent %d telegram messages for an unbound user, want 0", got)
	}
}

func TestOrderCompleteUnknownUser(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newMailService(dispatcher, nil)

	o := pendingOrder("V20240101000012")
	o.UserID = 999

	if err := svc.OrderComplete(context.Background(), o); err == nil {
		t.Error("expected an error for an unknown user")
	}
	if got := dispatcher.count(); got != 0 {
		t.Errorf("pushed %d mails for an unknown user, want 0", got)
	}
}
