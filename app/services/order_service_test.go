package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"vboard/app/models/order"
	"vboard/app/services"
	"vboard/pkg/gate"
)

// fakeLedger 内存订单台账，SetPaid 与数据库实现一样是条件更新
type fakeLedger struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newFakeLedger(orders ...*order.Order) *fakeLedger {
	l := &fakeLedger{orders: make(map[string]*order.Order)}
	for _, o := range orders {
		l.orders[o.TradeNo] = o
	}
	return l
}

func (l *fakeLedger) FindByTradeNo(_ context.Context, tradeNo string) (*order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[tradeNo]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *o
	return &clone, nil
}

func (l *fakeLedger) SetPaid(_ context.Context, tradeNo, callbackNo string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[tradeNo]
	if !ok || o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusPaid
	o.CallbackNo = callbackNo
	return true, nil
}

func (l *fakeLedger) SetNotified(_ context.Context, tradeNo string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if o, ok := l.orders[tradeNo]; ok && o.Status == order.StatusPaid {
		o.Status = order.StatusNotified
	}
	return nil
}

func (l *fakeLedger) status(tradeNo string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.orders[tradeNo].Status
}

// fakeNotifier 记录通知次数
type fakeNotifier struct {
	fired atomic.Int64
}

func (n *fakeNotifier) OrderComplete(_ context.Context, _ *order.Order) error {
	n.fired.Add(1)
	return nil
}

func newOrderService(ledger *fakeLedger, notifier *fakeNotifier) *services.OrderService {
	g := gate.New(gate.NewMemoryStore(), "test")
	return services.NewOrderService(ledger, notifier, g)
}

func pendingOrder(tradeNo string) *order.Order {
	return &order.Order{
		TradeNo:     tradeNo,
		UserID:      1,
		PlanName:    "标准套餐",
		Type:        order.TypeNew,
		TotalAmount: 1999,
		Status:      order.StatusPending,
	}
}

func TestApplyPaidOutcomePendingOrder(t *testing.T) {
	ledger := newFakeLedger(pendingOrder("V20240101000001"))
	notifier := &fakeNotifier{}
	svc := newOrderService(ledger, notifier)

	result, err := svc.ApplyPaidOutcome(context.Background(), services.PaidOutcome{
		TradeNo:    "V20240101000001",
		CallbackNo: "ep-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyProcessed {
		t.Error("first callback should not be reported as already processed")
	}
	if got := notifier.fired.Load(); got != 1 {
		t.Errorf("notifier fired %d times, want 1", got)
	}
	if got := ledger.status("V20240101000001"); got != order.StatusNotified {
		t.Errorf("order status = %q, want %q", got, order.StatusNotified)
	}

	o, _ := ledger.FindByTradeNo(context.Background(), "V20240101000001")
	if o.CallbackNo != "ep-123" {
		t.Errorf("callback no = %q, want %q", o.CallbackNo, "ep-123")
	}
}

func TestApplyPaidOutcomeReplay(t *testing.T) {
	ledger := newFakeLedger(pendingOrder("V20240101000002"))
	notifier := &fakeNotifier{}
	svc := newOrderService(ledger, notifier)

	outcome := services.PaidOutcome{TradeNo: "V20240101000002", CallbackNo: "ep-456"}

	if _, err := svc.ApplyPaidOutcome(context.Background(), outcome); err != nil {
		t.Fatalf("first callback: %v", err)
	}

	// 网关重试：同一回调再来两次
	for i := 0; i < 2; i++ {
		result, err := svc.ApplyPaidOutcome(context.Background(), outcome)
		if err != nil {
			t.Fatalf("replayed callback: %v", err)
		}
		if !result.AlreadyProcessed {
			t.Error("replayed callback should report already processed")
		}
	}

	if got := notifier.fired.Load(); got != 1 {
		t.Errorf("notifier fired %d times after replay, want 1", got)
	}
}

func TestApplyPaidOutcomeOrderNotFound(t *testing.T) {
	svc := newOrderService(newFakeLedger(), &fakeNotifier{})

	_, err := svc.ApplyPaidOutcome(context.Background(), services.PaidOutcome{TradeNo: "V-missing"})
	if !errors.Is(err, services.ErrOrderNotFound) {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
}

func TestApplyPaidOutcomeFailedOrder(t *testing.T) {
	failed := pendingOrder("V20240101000003")
	failed.Status = order.StatusFailed
	ledger := newFakeLedger(failed)
	notifier := &fakeNotifier{}
	svc := newOrderService(ledger, notifier)

	_, err := svc.ApplyPaidOutcome(context.Background(), services.PaidOutcome{TradeNo: "V20240101000003"})
	if !errors.Is(err, services.ErrInvalidOrderState) {
		t.Errorf("error = %v, want ErrInvalidOrderState", err)
	}
	if got := notifier.fired.Load(); got != 0 {
		t.Errorf("notifier fired %d times for failed order, want 0", got)
	}
	if got := ledger.status("V20240101000003"); got != order.StatusFailed {
		t.Errorf("failed order moved to %q", got)
	}
}

func TestApplyPaidOutcomeConcurrentCallbacks(t *testing.T) {
	ledger := newFakeLedger(pendingOrder("V20240101000004"))
	notifier := &fakeNotifier{}
	svc := newOrderService(ledger, notifier)

	const callbacks = 50

	var wg sync.WaitGroup
	var winners atomic.Int64
	start := make(chan struct{})

	for i := 0; i < callbacks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			result, err := svc.ApplyPaidOutcome(context.Background(), services.PaidOutcome{
				TradeNo:    "V20240101000004",
				CallbackNo: "ep-789",
			})
			if err != nil {
				t.Errorf("concurrent callback: %v", err)
				return
			}
			if !result.AlreadyProcessed {
				winners.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Errorf("%d callbacks won the transition, want exactly 1", got)
	}
	if got := notifier.fired.Load(); got != 1 {
		t.Errorf("notifier fired %d times under concurrency, want 1", got)
	}
	if got := ledger.status("V20240101000004"); got != order.StatusNotified {
		t.Errorf("order status = %q, want %q", got, order.StatusNotified)
	}
}
