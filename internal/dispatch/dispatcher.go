// Package dispatch executes action items: it routes structured tool calls to
// their handlers and falls back to title-based inventory adjustments for
// resource actions without one.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/sentinai/sentin"
	"github.com/sentinai/sentin/internal/eventbus"
	"github.com/sentinai/sentin/internal/schedule"
	"github.com/sentinai/sentin/internal/state"
)

const (
	unitPriceMin = 10.0
	unitPriceMax = 150.0
)

// Dispatcher turns approved action items into side effects on the
// operational state. Execute never panics out to its caller; internal faults
// come back as failed results.
type Dispatcher struct {
	state     *state.OperationalState
	notifier  sentin.Notifier
	store     sentin.DocumentStore
	scheduler *schedule.Scheduler
	clock     schedule.Clock
	resolver  *TitleResolver

	vendor           string
	fulfillmentDelay time.Duration
	publish          func(context.Context, eventbus.Event)

	rngMutex sync.Mutex
	rng      *rand.Rand
}

// NewDispatcher wires a dispatcher over the shared operational state. The
// notifier and store may be nil; the corresponding tool calls then degrade to
// log-only behavior.
func NewDispatcher(st *state.OperationalState, notifier sentin.Notifier, store sentin.DocumentStore, scheduler *schedule.Scheduler, clock schedule.Clock, vendor string, fulfillmentDelay time.Duration) *Dispatcher {
	if clock == nil {
		clock = schedule.RealClock()
	}
	return &Dispatcher{
		state:            st,
		notifier:         notifier,
		store:            store,
		scheduler:        scheduler,
		clock:            clock,
		resolver:         NewTitleResolver(),
		vendor:           vendor,
		fulfillmentDelay: fulfillmentDelay,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetEventPublisher attaches a hook invoked for order lifecycle events. The
// hook may be nil.
func (d *Dispatcher) SetEventPublisher(publish func(context.Context, eventbus.Event)) {
	d.publish = publish
}

func (d *Dispatcher) publishEvent(ctx context.Context, eventType eventbus.EventType, payload interface{}) {
	if d.publish != nil {
		d.publish(ctx, eventbus.NewEvent(eventType, "dispatcher", payload))
	}
}

// SetRand replaces the random source used for order IDs and pricing. Useful
// in tests.
func (d *Dispatcher) SetRand(rng *rand.Rand) {
	d.rngMutex.Lock()
	defer d.rngMutex.Unlock()
	d.rng = rng
}

// Execute runs a single action item and reports the outcome. Actions with a
// structured tool call route by tool name; resource and inventory actions
// without one resolve through title keywords; anything else is recorded in
// the activity log.
func (d *Dispatcher) Execute(ctx context.Context, action sentin.ActionItem) (result sentin.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic during action execution (action: %d, panic: %v)", action.ID, r)
			result = sentin.ExecutionResult{
				Success: false,
				Message: fmt.Sprintf("Internal fault while executing '%s'.", action.Title),
			}
		}
	}()

	if !action.Executable {
		// Advisory items still resolve through the log fallback; nothing
		// submitted is silently dropped.
		return d.executeLog(action)
	}

	if action.ToolCall != nil {
		switch action.ToolCall.Tool {
		case sentin.ToolAlertEmail:
			return d.executeAlert(ctx, action)
		case sentin.ToolGeneratePurchaseOrder:
			return d.executePurchaseOrder(ctx, action)
		case sentin.ToolGeneralLog:
			return d.executeLog(action)
		default:
			log.Printf("Unrecognized tool routed to log fallback (tool: %s, action: %d)", action.ToolCall.Tool, action.ID)
			return d.executeLog(action)
		}
	}

	if action.Category == sentin.ActionCategoryResource || action.Category == sentin.ActionCategoryInventory {
		return d.executeStockFallback(action)
	}

	return d.executeLog(action)
}

// executeAlert sends a staff notification. Delivery failures are deliberately
// lenient: the action still counts as executed and the failure is reported
// in the message text only.
func (d *Dispatcher) executeAlert(ctx context.Context, action sentin.ActionItem) sentin.ExecutionResult {
	args := action.ToolCall.Args
	recipient := stringArg(args, "recipient", "duty-manager@hospital.local")
	subject := stringArg(args, "subject", action.Title)
	body := stringArg(args, "body", action.Description)

	if d.notifier == nil {
		d.state.AppendLog(fmt.Sprintf("ALERT (unsent, no notifier): %s", subject))
		return sentin.ExecutionResult{
			Success: true,
			Message: fmt.Sprintf("Alert '%s' recorded; no notifier configured.", subject),
		}
	}

	if err := d.notifier.Notify(ctx, subject, body); err != nil {
		log.Printf("Alert delivery failed (recipient: %s, error: %v)", recipient, err)
		d.state.AppendLog(fmt.Sprintf("ALERT (delivery failed): %s", subject))
		return sentin.ExecutionResult{
			Success: true,
			Message: fmt.Sprintf("Alert '%s' processed, but delivery to %s failed: %v", subject, recipient, err),
		}
	}

	d.state.AppendLog(fmt.Sprintf("ALERT sent to %s: %s", recipient, subject))
	return sentin.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Alert '%s' sent to %s.", subject, recipient),
	}
}

// executePurchaseOrder places an order and schedules its delivery. Stock is
// merged into inventory only when the deferred delivery fires.
func (d *Dispatcher) executePurchaseOrder(ctx context.Context, action sentin.ActionItem) sentin.ExecutionResult {
	args := action.ToolCall.Args
	item := stringArg(args, "item", action.Title)
	quantity := intArg(args, "quantity", 1)
	if quantity < 1 {
		quantity = 1
	}
	vendor := stringArg(args, "vendor", d.vendor)

	d.rngMutex.Lock()
	orderID := fmt.Sprintf("PO-%05d", d.rng.Intn(100000))
	unitPrice := unitPriceMin + d.rng.Float64()*(unitPriceMax-unitPriceMin)
	d.rngMutex.Unlock()
	cost := unitPrice * float64(quantity)

	order := sentin.OrderRecord{
		OrderID:  orderID,
		Item:     item,
		Quantity: quantity,
		Vendor:   vendor,
		Date:     d.clock.Now(),
		Cost:     cost,
	}
	if d.store != nil {
		if err := d.store.SaveOrder(ctx, order); err != nil {
			// Order still proceeds; persistence is best-effort.
			log.Printf("Failed to persist order record (order: %s, error: %v)", orderID, err)
		}
	}

	if d.notifier != nil {
		subject := fmt.Sprintf("Invoice %s: %s", orderID, item)
		body := fmt.Sprintf("Order %s placed with %s: %d x %s at $%.2f total.", orderID, vendor, quantity, item, cost)
		if err := d.notifier.Notify(ctx, subject, body); err != nil {
			// Independent side effect; the order stands regardless.
			log.Printf("Invoice notification failed (order: %s, error: %v)", orderID, err)
		}
	}

	d.state.AppendLog(fmt.Sprintf("Purchase order %s placed: %d x %s from %s ($%.2f)", orderID, quantity, item, vendor, cost))
	d.publishEvent(ctx, eventbus.EventOrderPlaced, order)

	task := schedule.NewDeliveryTask(item, quantity, d.fulfillmentDelay, d.clock)
	d.scheduler.Schedule(task, func(tk sentin.DeferredTask) {
		key, total := d.state.MergeStock(tk.Item, tk.Quantity)
		d.state.AppendLog(fmt.Sprintf("Delivery received for %s: %s +%d (now %d)", orderID, key, tk.Quantity, total))
		d.publishEvent(context.Background(), eventbus.EventDeliveryReceived, orderID)
	})

	return sentin.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Purchase order %s placed for %d x %s ($%.2f). Delivery expected in %s.", orderID, quantity, item, cost, d.fulfillmentDelay),
	}
}

// executeStockFallback adjusts inventory from the action title alone.
func (d *Dispatcher) executeStockFallback(action sentin.ActionItem) sentin.ExecutionResult {
	key, quantity := d.resolver.Resolve(action.Title)
	total := d.state.AddStock(key, quantity)
	d.state.AppendLog(fmt.Sprintf("Stock adjusted for '%s': %s +%d (now %d)", action.Title, key, quantity, total))
	return sentin.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Inventory updated: %s +%d (now %d).", key, quantity, total),
	}
}

// executeLog records the action in the activity log.
func (d *Dispatcher) executeLog(action sentin.ActionItem) sentin.ExecutionResult {
	message := action.Title
	if action.ToolCall != nil {
		message = stringArg(action.ToolCall.Args, "message", action.Title)
	}
	d.state.AppendLog(fmt.Sprintf("ACTION: %s", message))
	return sentin.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Action '%s' recorded in the activity log.", action.Title),
	}
}

// stringArg reads a string argument, falling back when absent or mistyped.
func stringArg(args map[string]interface{}, key, fallback string) string {
	if args == nil {
		return fallback
	}
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// intArg reads an integer argument. JSON decoding yields float64, so both
// numeric shapes are accepted.
func intArg(args map[string]interface{}, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
