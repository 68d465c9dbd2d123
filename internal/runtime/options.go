package runtime

import (
	"github.com/sentinai/sentin"
	"github.com/sentinai/sentin/internal/cache"
	"github.com/sentinai/sentin/internal/eventbus"
	"github.com/sentinai/sentin/internal/schedule"
)

// Option is a function that configures a Runtime instance.
type Option func(*Runtime)

// WithConfig sets the runtime configuration.
func WithConfig(config sentin.Config) Option {
	return func(r *Runtime) {
		r.config = config
	}
}

// WithGenerator sets the plan generator.
func WithGenerator(generator sentin.PlanGenerator) Option {
	return func(r *Runtime) {
		r.generator = generator
	}
}

// WithFallback sets the plan served when generation fails.
func WithFallback(fallback func(error) *sentin.ActionPlan) Option {
	return func(r *Runtime) {
		r.fallback = fallback
	}
}

// WithAssessor sets the risk assessor.
func WithAssessor(assessor sentin.RiskAssessor) Option {
	return func(r *Runtime) {
		r.assessor = assessor
	}
}

// WithSources sets a pre-built source cache, replacing the default fetchers.
func WithSources(sources *cache.SourceCache) Option {
	return func(r *Runtime) {
		r.sources = sources
	}
}

// WithNotifier sets the alert notifier.
func WithNotifier(notifier sentin.Notifier) Option {
	return func(r *Runtime) {
		r.notifier = notifier
	}
}

// WithDocumentStore sets the purchase order store.
func WithDocumentStore(store sentin.DocumentStore) Option {
	return func(r *Runtime) {
		r.store = store
	}
}

// WithEventBus sets a pre-built event bus.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(r *Runtime) {
		r.bus = bus
	}
}

// WithClock sets the time source for scheduling and caches. Useful in tests.
func WithClock(clock schedule.Clock) Option {
	return func(r *Runtime) {
		r.clock = clock
	}
}
