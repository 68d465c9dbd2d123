package sentin

import "context"

// Fetcher retrieves a fresh reading from one external data source. A fetcher
// is invoked only on a source-cache miss; failures are never cached.
type Fetcher interface {
	Fetch(ctx context.Context) (SensorReading, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (SensorReading, error)

// Fetch implements the Fetcher interface.
func (f FetcherFunc) Fetch(ctx context.Context) (SensorReading, error) {
	return f(ctx)
}

// RiskAssessor derives per-category risk scores from a merged sensor reading.
// Implementations must be pure: same reading, same scores.
type RiskAssessor interface {
	Assess(reading SensorReading) map[string]RiskScore
}

// PlanGenerator produces an action plan for a risk state. It wraps an
// expensive external reasoning service and is invoked at most once per
// distinct state per decision-cache TTL window.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, state RiskState) (*ActionPlan, error)
}

// PlanGeneratorFunc adapts a plain function to the PlanGenerator interface.
type PlanGeneratorFunc func(ctx context.Context, state RiskState) (*ActionPlan, error)

// GeneratePlan implements the PlanGenerator interface.
func (f PlanGeneratorFunc) GeneratePlan(ctx context.Context, state RiskState) (*ActionPlan, error) {
	return f(ctx, state)
}

// Notifier sends a message to the fixed external recipient (staff roster,
// vendor contact). Failures are reported, never fatal.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// DocumentStore persists a durable order record keyed by its order ID.
type DocumentStore interface {
	SaveOrder(ctx context.Context, order OrderRecord) error
}
