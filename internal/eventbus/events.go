// Package eventbus provides in-process publish/subscribe for runtime
// lifecycle events.
package eventbus

import (
	"context"
	"time"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	// Scan lifecycle
	EventScanStarted   EventType = "scan_started"
	EventScanCompleted EventType = "scan_completed"

	// Source fetching
	EventSourceFetchFailed EventType = "source_fetch_failed"

	// Plan generation
	EventPlanCacheHit  EventType = "plan_cache_hit"
	EventPlanGenerated EventType = "plan_generated"
	EventPlanFallback  EventType = "plan_fallback"

	// Action execution
	EventActionExecuted EventType = "action_executed"
	EventActionFailed   EventType = "action_failed"

	// Purchase orders
	EventOrderPlaced      EventType = "order_placed"
	EventDeliveryReceived EventType = "delivery_received"
)

// Event is a timestamped occurrence inside the runtime.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
	At      time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, source string, payload interface{}) Event {
	return Event{
		Type:    eventType,
		Source:  source,
		Payload: payload,
		At:      time.Now(),
	}
}

// Handler processes a published event. A non-nil error triggers the bus's
// retry policy.
type Handler func(context.Context, Event) error
