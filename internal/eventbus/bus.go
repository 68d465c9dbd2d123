package eventbus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bus is a channel-backed event bus with a fixed worker pool. Handlers run
// off the publisher's goroutine; a slow subscriber delays other events only
// once the channel buffer fills.
type Bus struct {
	subscribers    map[EventType]map[string]Handler
	allSubscribers map[string]Handler

	eventChan chan publishedEvent
	done      chan struct{}
	closed    bool
	wg        sync.WaitGroup
	mutex     sync.RWMutex

	bufferSize    int
	workerCount   int
	maxRetries    int
	retryInterval time.Duration
}

type publishedEvent struct {
	ctx   context.Context
	event Event
}

// BusOption configures the event bus.
type BusOption func(*Bus)

// WithBufferSize sets the event channel buffer size.
func WithBufferSize(size int) BusOption {
	return func(b *Bus) {
		b.bufferSize = size
	}
}

// WithWorkerCount sets the number of event processing workers.
func WithWorkerCount(count int) BusOption {
	return func(b *Bus) {
		b.workerCount = count
	}
}

// WithRetries configures handler retry behavior.
func WithRetries(maxRetries int, retryInterval time.Duration) BusOption {
	return func(b *Bus) {
		b.maxRetries = maxRetries
		b.retryInterval = retryInterval
	}
}

// NewBus creates an event bus and starts its worker pool.
func NewBus(options ...BusOption) *Bus {
	b := &Bus{
		subscribers:    make(map[EventType]map[string]Handler),
		allSubscribers: make(map[string]Handler),
		done:           make(chan struct{}),

		bufferSize:    100,
		workerCount:   5,
		maxRetries:    3,
		retryInterval: 100 * time.Millisecond,
	}
	for _, option := range options {
		option(b)
	}

	b.eventChan = make(chan publishedEvent, b.bufferSize)
	for i := 0; i < b.workerCount; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case evt := <-b.eventChan:
			b.dispatch(evt)
		}
	}
}

func (b *Bus) dispatch(evt publishedEvent) {
	if evt.ctx.Err() != nil {
		return
	}

	// Copy handler sets so handlers can subscribe or unsubscribe without
	// deadlocking against the dispatch.
	b.mutex.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[evt.event.Type])+len(b.allSubscribers))
	for _, handler := range b.subscribers[evt.event.Type] {
		handlers = append(handlers, handler)
	}
	for _, handler := range b.allSubscribers {
		handlers = append(handlers, handler)
	}
	b.mutex.RUnlock()

	for _, handler := range handlers {
		b.runHandler(evt.ctx, evt.event, handler)
	}
}

func (b *Bus) runHandler(ctx context.Context, event Event, handler Handler) {
	var err error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if err = handler(ctx, event); err == nil {
			return
		}
		if attempt == b.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryInterval):
		}
	}
	log.Printf("Event handler failed (event: %s, retries: %d, error: %v)", event.Type, b.maxRetries, err)
}

// Publish queues an event for delivery to its subscribers. Publishing blocks
// only when the buffer is full, and unblocks if the context is cancelled.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mutex.RLock()
	closed := b.closed
	b.mutex.RUnlock()
	if closed {
		return fmt.Errorf("event bus is closed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return fmt.Errorf("event bus is closed")
	case b.eventChan <- publishedEvent{ctx: ctx, event: event}:
		return nil
	}
}

// Subscribe registers a handler for specific event types and returns a
// subscription ID for later removal.
func (b *Bus) Subscribe(eventTypes []EventType, handler Handler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}
	if len(eventTypes) == 0 {
		return "", fmt.Errorf("at least one event type is required")
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return "", fmt.Errorf("event bus is closed")
	}

	subscriptionID := uuid.New().String()
	for _, eventType := range eventTypes {
		if _, exists := b.subscribers[eventType]; !exists {
			b.subscribers[eventType] = make(map[string]Handler)
		}
		b.subscribers[eventType][subscriptionID] = handler
	}
	return subscriptionID, nil
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return "", fmt.Errorf("event bus is closed")
	}

	subscriptionID := uuid.New().String()
	b.allSubscribers[subscriptionID] = handler
	return subscriptionID, nil
}

// Unsubscribe removes a subscription by ID.
func (b *Bus) Unsubscribe(subscriptionID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.allSubscribers, subscriptionID)
	for eventType := range b.subscribers {
		delete(b.subscribers[eventType], subscriptionID)
	}
}

// Close stops the worker pool. Events still buffered are dropped.
func (b *Bus) Close() error {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return nil
	}
	b.closed = true
	b.mutex.Unlock()

	close(b.done)
	b.wg.Wait()
	return nil
}
