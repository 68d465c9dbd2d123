package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/sentinai/sentin"
)

// Outcome reports how a decision cache lookup was satisfied.
type Outcome int

const (
	// OutcomeHit means a live cached plan matched the state hash.
	OutcomeHit Outcome = iota
	// OutcomeGenerated means the generator produced a fresh plan.
	OutcomeGenerated
	// OutcomeFallback means the generator failed and a fallback plan was
	// substituted. Fallback plans are never cached.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeGenerated:
		return "generated"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// DecisionCache deduplicates plan generation. It remembers the single most
// recent plan together with the canonical hash of the state that produced it;
// a new state with the same hash reuses the plan until the entry expires.
type DecisionCache struct {
	generator sentin.PlanGenerator
	fallback  func(error) *sentin.ActionPlan
	ttl       time.Duration
	now       func() time.Time

	mutex      sync.Mutex
	stateHash  string
	plan       *sentin.ActionPlan
	recordedAt time.Time
}

// NewDecisionCache creates a decision cache over a plan generator. The
// fallback is consulted when the generator fails; it must not be nil.
func NewDecisionCache(generator sentin.PlanGenerator, fallback func(error) *sentin.ActionPlan, ttl time.Duration) *DecisionCache {
	return &DecisionCache{
		generator: generator,
		fallback:  fallback,
		ttl:       ttl,
		now:       time.Now,
	}
}

// SetClock replaces the cache's time source. Useful in tests.
func (d *DecisionCache) SetClock(now func() time.Time) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.now = now
}

// GetOrCompute returns the plan for a risk state. A live cached plan whose
// state hash matches is reused; otherwise the generator runs and its plan
// replaces the cached entry. Returned plans are copies, so a caller holding
// one never observes a later MarkExecuted. Generator failures surface as a
// fallback plan and leave the cache empty, so the next scan retries
// generation.
func (d *DecisionCache) GetOrCompute(ctx context.Context, state sentin.RiskState) (*sentin.ActionPlan, Outcome, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, OutcomeFallback, err
	}

	hash := CanonicalHash(state)

	d.mutex.Lock()
	if d.plan != nil && d.stateHash == hash && d.now().Sub(d.recordedAt) < d.ttl {
		plan := clonePlan(d.plan)
		d.mutex.Unlock()
		log.Printf("Decision cache hit (hash: %s)", hash)
		return plan, OutcomeHit, nil
	}
	d.mutex.Unlock()

	log.Printf("Decision cache miss, generating plan (hash: %s)", hash)
	plan, err := d.generator.GeneratePlan(ctx, state)
	if err != nil {
		log.Printf("Plan generation failed, using fallback (error: %v)", err)
		d.mutex.Lock()
		d.stateHash = ""
		d.plan = nil
		d.mutex.Unlock()
		return d.fallback(err), OutcomeFallback, nil
	}

	d.mutex.Lock()
	d.stateHash = hash
	d.plan = plan
	d.recordedAt = d.now()
	out := clonePlan(plan)
	d.mutex.Unlock()
	return out, OutcomeGenerated, nil
}

// Cached returns the current plan without consulting the generator. The
// boolean is false when the cache is empty or the entry has expired.
func (d *DecisionCache) Cached() (*sentin.ActionPlan, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.plan == nil || d.now().Sub(d.recordedAt) >= d.ttl {
		return nil, false
	}
	return clonePlan(d.plan), true
}

// MarkExecuted flips the status of the cached action with the given ID to
// executed. It reports whether a matching action was found; calling it again
// for the same ID is a no-op that still reports true.
func (d *DecisionCache) MarkExecuted(actionID int) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.plan == nil {
		return false
	}
	for i := range d.plan.Actions {
		if d.plan.Actions[i].ID == actionID {
			d.plan.Actions[i].Status = sentin.ActionStatusExecuted
			return true
		}
	}
	return false
}

// clonePlan copies the plan deeply enough that MarkExecuted on the cached
// entry never races with a caller reading a returned plan. Tool call args are
// shared; they are read-only after generation.
func clonePlan(plan *sentin.ActionPlan) *sentin.ActionPlan {
	out := &sentin.ActionPlan{
		Summary: plan.Summary,
		Actions: make([]sentin.ActionItem, len(plan.Actions)),
	}
	copy(out.Actions, plan.Actions)
	for i := range out.Actions {
		if tc := out.Actions[i].ToolCall; tc != nil {
			copied := *tc
			out.Actions[i].ToolCall = &copied
		}
	}
	return out
}

// Invalidate discards the cached plan.
func (d *DecisionCache) Invalidate() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.stateHash = ""
	d.plan = nil
}
