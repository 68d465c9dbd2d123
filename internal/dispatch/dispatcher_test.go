package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sentinai/sentin"
	"github.com/sentinai/sentin/internal/eventbus"
	"github.com/sentinai/sentin/internal/schedule"
	"github.com/sentinai/sentin/internal/state"
)

type fakeNotifier struct {
	calls    int
	lastSubj string
	err      error
	panics   bool
}

func (n *fakeNotifier) Notify(ctx context.Context, subject, body string) error {
	if n.panics {
		panic("notifier exploded")
	}
	n.calls++
	n.lastSubj = subject
	return n.err
}

type fakeStore struct {
	orders []sentin.OrderRecord
	err    error
}

func (s *fakeStore) SaveOrder(ctx context.Context, order sentin.OrderRecord) error {
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, order)
	return nil
}

func newTestDispatcher(t *testing.T, notifier sentin.Notifier, store sentin.DocumentStore, delay time.Duration) (*Dispatcher, *state.OperationalState, *schedule.Scheduler) {
	t.Helper()
	st := state.New(map[string]int{
		"masks":          454,
		"oxygen":         32,
		"beds_available": 17,
		"ors_packs":      50,
	})
	sched := schedule.NewScheduler(nil)
	t.Cleanup(sched.Close)
	d := NewDispatcher(st, notifier, store, sched, nil, "MedSupply Co.", delay)
	d.SetRand(rand.New(rand.NewSource(1)))
	return d, st, sched
}

func TestExecuteAlertSuccess(t *testing.T) {
	notifier := &fakeNotifier{}
	d, st, _ := newTestDispatcher(t, notifier, nil, time.Minute)

	result := d.Execute(context.Background(), sentin.ActionItem{
		ID: 1, Title: "Notify ICU leads", Executable: true,
		Category: sentin.ActionCategoryCommunication,
		ToolCall: &sentin.ToolCall{
			Tool: sentin.ToolAlertEmail,
			Args: map[string]interface{}{"subject": "Surge warning", "body": "Vector risk critical"},
		},
	})
	if !result.Success {
		t.Errorf("expected success, got %+v", result)
	}
	if notifier.calls != 1 || notifier.lastSubj != "Surge warning" {
		t.Errorf("notifier not invoked as expected: %+v", notifier)
	}
	logs := st.Logs()
	if len(logs) != 1 || !strings.Contains(logs[0].Message, "ALERT sent") {
		t.Errorf("expected alert log entry, got %v", logs)
	}
}

func TestExecuteAlertDeliveryFailureIsLenient(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp unreachable")}
	d, _, _ := newTestDispatcher(t, notifier, nil, time.Minute)

	result := d.Execute(context.Background(), sentin.ActionItem{
		ID: 1, Title: "Notify ICU leads", Executable: true,
		Category: sentin.ActionCategoryCommunication,
		ToolCall: &sentin.ToolCall{Tool: sentin.ToolAlertEmail, Args: map[string]interface{}{"subject": "Surge warning"}},
	})
	if !result.Success {
		t.Error("alert delivery failure must still report success")
	}
	if !strings.Contains(result.Message, "smtp unreachable") {
		t.Errorf("failure detail missing from message: %q", result.Message)
	}
}

func TestExecutePurchaseOrder(t *testing.T) {
	store := &fakeStore{}
	d, st, _ := newTestDispatcher(t, nil, store, 10*time.Millisecond)

	result := d.Execute(context.Background(), sentin.ActionItem{
		ID: 2, Title: "Order oxygen cylinders", Executable: true,
		Category: sentin.ActionCategoryInventory,
		ToolCall: &sentin.ToolCall{
			Tool: sentin.ToolGeneratePurchaseOrder,
			Args: map[string]interface{}{"item": "oxygen cylinders", "quantity": float64(20)},
		},
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.Contains(result.Message, "PO-") {
		t.Errorf("expected order ID in message, got %q", result.Message)
	}

	if len(store.orders) != 1 {
		t.Fatalf("expected 1 persisted order, got %d", len(store.orders))
	}
	order := store.orders[0]
	if len(order.OrderID) != len("PO-00000") || !strings.HasPrefix(order.OrderID, "PO-") {
		t.Errorf("unexpected order ID format: %q", order.OrderID)
	}
	if order.Quantity != 20 {
		t.Errorf("expected quantity 20, got %d", order.Quantity)
	}
	minCost, maxCost := 10.0*20, 150.0*20
	if order.Cost < minCost || order.Cost > maxCost {
		t.Errorf("cost %v outside unit price bounds", order.Cost)
	}

	// Stock lands only after the fulfillment delay.
	if qty, _ := st.Stock("oxygen"); qty != 32 {
		t.Errorf("stock must not change before delivery, got %d", qty)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if qty, _ := st.Stock("oxygen"); qty == 52 {
			break
		}
		if time.Now().After(deadline) {
			qty, _ := st.Stock("oxygen")
			t.Fatalf("delivery never merged, oxygen=%d", qty)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExecutePurchaseOrderSendsInvoice(t *testing.T) {
	notifier := &fakeNotifier{}
	store := &fakeStore{}
	d, _, _ := newTestDispatcher(t, notifier, store, time.Minute)

	result := d.Execute(context.Background(), sentin.ActionItem{
		ID: 2, Title: "Order masks", Executable: true,
		Category: sentin.ActionCategoryInventory,
		ToolCall: &sentin.ToolCall{Tool: sentin.ToolGeneratePurchaseOrder, Args: map[string]interface{}{"item": "masks", "quantity": 100}},
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one invoice notification, got %d", notifier.calls)
	}
	if !strings.HasPrefix(notifier.lastSubj, "Invoice PO-") {
		t.Errorf("unexpected invoice subject: %q", notifier.lastSubj)
	}

	// A broken relay must not break the order itself.
	notifier.err = errors.New("relay down")
	result = d.Execute(context.Background(), sentin.ActionItem{
		ID: 3, Title: "Order more masks", Executable: true,
		Category: sentin.ActionCategoryInventory,
		ToolCall: &sentin.ToolCall{Tool: sentin.ToolGeneratePurchaseOrder, Args: map[string]interface{}{"item": "masks", "quantity": 10}},
	})
	if !result.Success {
		t.Errorf("invoice delivery failure must not fail the order, got %+v", result)
	}
}

func TestExecutePurchaseOrderStoreFailureTolerated(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	d, _, _ := newTestDispatcher(t, nil, store, time.Minute)

	result := d.Execute(context.Background(), sentin.ActionItem{
		ID: 2, Title: "Order masks", Executable: true,
		Category: sentin.ActionCategoryInventory,
		ToolCall: &sentin.ToolCall{Tool: sentin.ToolGeneratePurchaseOrder, Args: map[string]interface{}{"item": "masks", "quantity": 100}},
	})
	if !result.Success {
		t.Errorf("persistence failure must not fail the order, got %+v", result)
	}
}

func TestExecuteStockFallbackByTitle(t *testing.T) {
	d, st, _ := newTestDispatcher(t, nil, nil, time.Minute)

	cases := []struct {
		title string
		key   string
		want  int
	}{
		{"Distribute N95 masks to staff", "masks", 954},
		{"Procure additional oxygen", "oxygen", 52},
		{"Prepare surge capacity", "beds_available", 22},
		{"Stock ORS and fluids", "ors_packs", 150},
	}
	for _, tc := range cases {
		result := d.Execute(context.Background(), sentin.ActionItem{
			Title: tc.title, Executable: true, Category: sentin.ActionCategoryResource,
		})
		if !result.Success {
			t.Errorf("%s: expected success, got %+v", tc.title, result)
		}
		if qty, _ := st.Stock(tc.key); qty != tc.want {
			t.Errorf("%s: expected %s=%d, got %d", tc.title, tc.key, tc.want, qty)
		}
	}
}

func TestExecuteStockFallbackGeneric(t *testing.T) {
	d, st, _ := newTestDispatcher(t, nil, nil, time.Minute)

	d.Execute(context.Background(), sentin.ActionItem{
		Title: "Expand emergency supplies", Executable: true, Category: sentin.ActionCategoryResource,
	})
	if qty, _ := st.Stock("ors_packs"); qty != 100 {
		t.Errorf("expected generic bump to ors_packs=100, got %d", qty)
	}
}

func TestExecuteProtocolActionLogsOnly(t *testing.T) {
	d, st, _ := newTestDispatcher(t, nil, nil, time.Minute)

	before := st.Inventory()
	result := d.Execute(context.Background(), sentin.ActionItem{
		Title: "Activate vector control protocol", Executable: true, Category: sentin.ActionCategoryProtocol,
	})
	if !result.Success {
		t.Errorf("expected success, got %+v", result)
	}
	after := st.Inventory()
	for k, v := range before {
		if after[k] != v {
			t.Errorf("inventory %s changed from %d to %d", k, v, after[k])
		}
	}
	logs := st.Logs()
	if len(logs) != 1 || !strings.Contains(logs[0].Message, "Activate vector control protocol") {
		t.Errorf("expected action log entry, got %v", logs)
	}
}

func TestExecuteNonExecutableActionResolvesToLog(t *testing.T) {
	d, st, _ := newTestDispatcher(t, nil, nil, time.Minute)

	before := st.Inventory()
	result := d.Execute(context.Background(), sentin.ActionItem{
		Title: "Monitor dengue trend", Executable: false, Category: sentin.ActionCategoryProtocol,
	})
	if !result.Success {
		t.Errorf("advisory action must resolve to a logged success, got %+v", result)
	}
	logs := st.Logs()
	if len(logs) != 1 || !strings.Contains(logs[0].Message, "Monitor dengue trend") {
		t.Errorf("expected exactly one log entry, got %v", logs)
	}
	after := st.Inventory()
	for k, v := range before {
		if after[k] != v {
			t.Errorf("inventory %s changed from %d to %d", k, v, after[k])
		}
	}
}

func TestExecuteUnknownToolFallsBackToLog(t *testing.T) {
	d, st, _ := newTestDispatcher(t, nil, nil, time.Minute)

	result := d.Execute(context.Background(), sentin.ActionItem{
		Title: "Do something odd", Executable: true,
		ToolCall: &sentin.ToolCall{Tool: "sync_db"},
	})
	if !result.Success {
		t.Errorf("unrecognized tool must resolve to a logged success, got %+v", result)
	}
	logs := st.Logs()
	if len(logs) != 1 || !strings.Contains(logs[0].Message, "Do something odd") {
		t.Errorf("expected exactly one log entry, got %v", logs)
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	notifier := &fakeNotifier{panics: true}
	d, _, _ := newTestDispatcher(t, notifier, nil, time.Minute)

	result := d.Execute(context.Background(), sentin.ActionItem{
		Title: "Notify staff", Executable: true,
		ToolCall: &sentin.ToolCall{Tool: sentin.ToolAlertEmail},
	})
	if result.Success {
		t.Error("panicking handler must produce a failed result")
	}
	if !strings.Contains(result.Message, "Internal fault") {
		t.Errorf("expected internal fault message, got %q", result.Message)
	}
}

func TestExecutePurchaseOrderPublishesLifecycleEvents(t *testing.T) {
	d, _, _ := newTestDispatcher(t, nil, &fakeStore{}, 10*time.Millisecond)

	var mu sync.Mutex
	var seen []eventbus.EventType
	d.SetEventPublisher(func(ctx context.Context, e eventbus.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	result := d.Execute(context.Background(), sentin.ActionItem{
		ID: 4, Title: "Order masks", Executable: true,
		Category: sentin.ActionCategoryInventory,
		ToolCall: &sentin.ToolCall{Tool: sentin.ToolGeneratePurchaseOrder, Args: map[string]interface{}{"item": "masks", "quantity": 10}},
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	mu.Lock()
	if len(seen) != 1 || seen[0] != eventbus.EventOrderPlaced {
		t.Fatalf("expected order_placed immediately, got %v", seen)
	}
	mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("delivery_received never published")
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	if seen[1] != eventbus.EventDeliveryReceived {
		t.Errorf("expected delivery_received, got %v", seen[1])
	}
	mu.Unlock()
}

func TestTitleResolver(t *testing.T) {
	r := NewTitleResolver()

	key, qty := r.Resolve("Deploy MASKS immediately")
	if key != "masks" || qty != 500 {
		t.Errorf("expected masks+500, got %s+%d", key, qty)
	}
	key, qty = r.Resolve("surge staffing plan")
	if key != "beds_available" || qty != 5 {
		t.Errorf("expected beds_available+5, got %s+%d", key, qty)
	}
	key, qty = r.Resolve("unrelated title")
	if key != "ors_packs" || qty != 50 {
		t.Errorf("expected generic ors_packs+50, got %s+%d", key, qty)
	}
}
