// Package schedule runs deferred one-shot tasks, such as purchase order
// deliveries that land in inventory after a fulfillment delay.
package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/sentinai/sentin"
)

// Scheduler fires deferred tasks exactly once after their ready time. Tasks
// are fire-and-forget: Schedule returns immediately and the callback runs on
// its own goroutine. Closing the scheduler cancels pending tasks and waits
// for in-flight callbacks to finish.
type Scheduler struct {
	clock  Clock
	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mutex  sync.Mutex
	closed bool
}

// NewScheduler creates a scheduler driven by the given clock. A nil clock
// defaults to wall time.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule queues a task and invokes apply with it once its ready time
// passes. A task whose ready time is already in the past fires immediately.
// Scheduling on a closed scheduler is a logged no-op.
func (s *Scheduler) Schedule(task sentin.DeferredTask, apply func(sentin.DeferredTask)) {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		log.Printf("Scheduler closed, dropping task (item: %s)", task.Item)
		return
	}
	s.mutex.Unlock()

	delay := task.ReadyAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.wg.Go(func() {
		select {
		case <-s.clock.After(delay):
			apply(task)
			log.Printf("Deferred task fired (item: %s, quantity: %d)", task.Item, task.Quantity)
		case <-s.ctx.Done():
			log.Printf("Deferred task cancelled (item: %s)", task.Item)
		}
	})
}

// Close cancels pending tasks and blocks until all task goroutines exit.
// It is safe to call more than once.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.closed = true
	s.mutex.Unlock()

	s.cancel()
	s.wg.Wait()
}

// NewDeliveryTask builds a deferred delivery for an ordered item.
func NewDeliveryTask(item string, quantity int, delay time.Duration, clock Clock) sentin.DeferredTask {
	if clock == nil {
		clock = RealClock()
	}
	return sentin.DeferredTask{
		Item:     item,
		Quantity: quantity,
		ReadyAt:  clock.Now().Add(delay),
	}
}
