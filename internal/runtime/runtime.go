// Package runtime assembles the surge readiness engine: cached sensor
// sources feeding a rule-based risk assessor, a deduplicated action planner,
// and a dispatcher that applies approved actions to the operational state.
package runtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sentinai/sentin"
	"github.com/sentinai/sentin/internal/agent"
	"github.com/sentinai/sentin/internal/cache"
	"github.com/sentinai/sentin/internal/dispatch"
	"github.com/sentinai/sentin/internal/eventbus"
	"github.com/sentinai/sentin/internal/fetch"
	"github.com/sentinai/sentin/internal/risk"
	"github.com/sentinai/sentin/internal/schedule"
	"github.com/sentinai/sentin/internal/state"
)

// Runtime is the main entry point into the surge readiness engine.
type Runtime struct {
	config    sentin.Config
	sources   *cache.SourceCache
	assessor  sentin.RiskAssessor
	generator sentin.PlanGenerator
	fallback  func(error) *sentin.ActionPlan
	decisions *cache.DecisionCache
	state     *state.OperationalState
	scheduler *schedule.Scheduler
	dispatch  *dispatch.Dispatcher
	bus       *eventbus.Bus
	notifier  sentin.Notifier
	store     sentin.DocumentStore
	clock     schedule.Clock

	closeOnce sync.Once
}

// New creates a Runtime with the provided options. A plan generator is
// required; everything else has a working default.
func New(ctx context.Context, options ...Option) (*Runtime, error) {
	r := &Runtime{
		config: sentin.DefaultConfig(),
	}
	for _, option := range options {
		option(r)
	}

	if r.generator == nil {
		return nil, sentin.NewConfigurationError("plan generator is required", nil)
	}
	if r.fallback == nil {
		r.fallback = agent.ManualFallbackPlan
	}
	if r.assessor == nil {
		r.assessor = risk.NewDefaultAssessor()
	}
	if r.clock == nil {
		r.clock = schedule.RealClock()
	}
	if r.sources == nil {
		r.sources = defaultSources(r.config)
	}
	if r.bus == nil && r.config.EnableEventBus {
		r.bus = eventbus.NewBus(
			eventbus.WithBufferSize(r.config.EventBusBufferSize),
			eventbus.WithWorkerCount(r.config.EventBusWorkerCount),
		)
		log.Printf("Initialized default event bus")
	}

	r.decisions = cache.NewDecisionCache(r.generator, r.fallback, r.config.DecisionTTL.Std())
	r.state = state.New(r.config.Inventory)
	r.scheduler = schedule.NewScheduler(r.clock)
	r.dispatch = dispatch.NewDispatcher(
		r.state, r.notifier, r.store, r.scheduler, r.clock,
		r.config.Vendor, r.config.FulfillmentDelay.Std(),
	)
	if r.bus != nil {
		r.dispatch.SetEventPublisher(func(ctx context.Context, event eventbus.Event) {
			if err := r.bus.Publish(ctx, event); err != nil {
				log.Printf("Event publish failed (event: %s, error: %v)", event.Type, err)
			}
		})
	}
	return r, nil
}

// defaultSources registers the standard four fetchers against the configured
// endpoints and TTLs.
func defaultSources(config sentin.Config) *cache.SourceCache {
	opts := fetch.Options{
		MaxRetries: config.MaxRetries,
		RetryDelay: config.RetryDelay.Std(),
	}
	sources := cache.NewSourceCache()
	sources.Register(sentin.SourceWeather, config.SourceTTLOrDefault(sentin.SourceWeather),
		fetch.NewWeatherFetcher(config.WeatherEndpoint, config.Latitude, config.Longitude, opts))
	sources.Register(sentin.SourceAirQuality, config.SourceTTLOrDefault(sentin.SourceAirQuality),
		fetch.NewAirQualityFetcher(config.AirQualityEndpoint, config.Latitude, config.Longitude, opts))
	sources.Register(sentin.SourceTrends, config.SourceTTLOrDefault(sentin.SourceTrends),
		fetch.NewTrendsFetcher(config.TrendsEndpoint, opts))
	sources.Register(sentin.SourceBaseline, config.SourceTTLOrDefault(sentin.SourceBaseline),
		fetch.NewBaselineFetcher(config.BaselinePath))
	return sources
}

// scanSources are fetched concurrently on every scan.
var scanSources = []string{
	sentin.SourceWeather,
	sentin.SourceAirQuality,
	sentin.SourceTrends,
	sentin.SourceBaseline,
}

// Scan runs a full situation assessment: fetch all sources, score risk, and
// produce an action plan. A failed source degrades to its fallback reading
// instead of failing the scan.
func (r *Runtime) Scan(ctx context.Context) (*sentin.ScanResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, sentin.NewCancelledError("scan", err)
	}
	r.publish(ctx, eventbus.EventScanStarted, "runtime", nil)

	var mutex sync.Mutex
	env := sentin.SensorReading{}

	g, gctx := errgroup.WithContext(ctx)
	for _, source := range scanSources {
		source := source
		g.Go(func() error {
			reading, _, err := r.sources.Fetch(gctx, source)
			if err != nil {
				log.Printf("Source degraded to fallback (source: %s, error: %v)", source, err)
				r.publish(gctx, eventbus.EventSourceFetchFailed, source, err.Error())
				reading = fetch.FallbackReading(source)
			}
			mutex.Lock()
			env = env.Merge(reading)
			mutex.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	riskState := sentin.RiskState{
		Environment: env,
		Predictions: r.assessor.Assess(env),
		TopTrend:    risk.TopTrend(env),
	}

	plan, outcome, err := r.decisions.GetOrCompute(ctx, riskState)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case cache.OutcomeHit:
		r.publish(ctx, eventbus.EventPlanCacheHit, "planner", plan.Summary)
	case cache.OutcomeGenerated:
		r.publish(ctx, eventbus.EventPlanGenerated, "planner", plan.Summary)
	case cache.OutcomeFallback:
		r.publish(ctx, eventbus.EventPlanFallback, "planner", plan.Summary)
	}

	response := &sentin.ScanResponse{
		Success: true,
		Environment: sentin.Environment{
			Temp:     env["temp"],
			Rain:     env["rainfall"],
			AQI:      env["aqi"],
			Humidity: env["humidity"],
		},
		Predictions: riskState.Predictions,
		TopTrend:    riskState.TopTrend,
		Inventory:   r.state.Inventory(),
		AIAgent:     plan,
	}
	r.publish(ctx, eventbus.EventScanCompleted, "runtime", outcome.String())
	return response, nil
}

// ExecuteAction runs one approved action. The action is resolved from the
// cached plan by ID when possible; otherwise the request's own title,
// category, and tool call describe it. Executed plan actions are marked so
// the frontier of pending work stays accurate across scans.
func (r *Runtime) ExecuteAction(ctx context.Context, req sentin.ExecuteActionRequest) (*sentin.ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, sentin.NewCancelledError("dispatch", err)
	}

	action, found := r.lookupAction(req.ActionID)
	if !found {
		if req.Title == "" {
			// Unroutable requests still resolve through the log fallback
			// rather than an error.
			req.Title = fmt.Sprintf("Unrecognized action %d", req.ActionID)
		}
		action = sentin.ActionItem{
			ID:         req.ActionID,
			Title:      req.Title,
			Category:   req.Category,
			Executable: true,
			Status:     sentin.ActionStatusPending,
			ToolCall:   req.ToolCall,
		}
	}

	r.decisions.MarkExecuted(req.ActionID)
	result := r.dispatch.Execute(ctx, action)
	if result.Success {
		r.publish(ctx, eventbus.EventActionExecuted, "dispatcher", action.Title)
	} else {
		r.publish(ctx, eventbus.EventActionFailed, "dispatcher", result.Message)
	}
	return &result, nil
}

func (r *Runtime) lookupAction(actionID int) (sentin.ActionItem, bool) {
	plan, ok := r.decisions.Cached()
	if !ok {
		return sentin.ActionItem{}, false
	}
	for _, item := range plan.Actions {
		if item.ID == actionID {
			return item, true
		}
	}
	return sentin.ActionItem{}, false
}

// State exposes the operational record for read access.
func (r *Runtime) State() *state.OperationalState {
	return r.state
}

// Bus exposes the event bus so callers can subscribe to lifecycle events.
// It is nil when the bus is disabled.
func (r *Runtime) Bus() *eventbus.Bus {
	return r.bus
}

// InvalidateCaches drops all cached readings and the cached plan.
func (r *Runtime) InvalidateCaches() {
	r.sources.InvalidateAll()
	r.decisions.Invalidate()
}

// Close shuts down the scheduler and the event bus. Pending deferred
// deliveries are cancelled.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		r.scheduler.Close()
		if r.bus != nil {
			r.bus.Close()
		}
	})
}

func (r *Runtime) publish(ctx context.Context, eventType eventbus.EventType, source string, payload interface{}) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(ctx, eventbus.NewEvent(eventType, source, payload)); err != nil {
		log.Printf("Event publish failed (event: %s, error: %v)", eventType, err)
	}
}
