// Package agent generates action plans from risk states through a Genkit
// flow, with a manual fallback plan for when the model is unreachable.
package agent

import (
	"context"
	"log"

	"github.com/firebase/genkit/go/core"

	"github.com/sentinai/sentin"
)

// GenkitPlanAdapter runs a Genkit flow to implement the PlanGenerator
// interface.
type GenkitPlanAdapter struct {
	planFlow *core.Flow[*sentin.RiskState, *sentin.ActionPlan, struct{}]
}

// NewGenkitPlanAdapter creates an adapter for the plan flow.
func NewGenkitPlanAdapter(planFlow *core.Flow[*sentin.RiskState, *sentin.ActionPlan, struct{}]) *GenkitPlanAdapter {
	return &GenkitPlanAdapter{planFlow: planFlow}
}

// GeneratePlan implements the sentin.PlanGenerator interface.
func (a *GenkitPlanAdapter) GeneratePlan(ctx context.Context, state sentin.RiskState) (*sentin.ActionPlan, error) {
	plan, err := a.planFlow.Run(ctx, &state)
	if err != nil {
		return nil, sentin.NewPlanGenerationError(err)
	}
	if plan == nil || len(plan.Actions) == 0 {
		return nil, sentin.NewPlanGenerationError(nil)
	}

	NormalizePlan(plan)
	log.Printf("Plan generated (actions: %d)", len(plan.Actions))
	return plan, nil
}

// NormalizePlan repairs model output in place: every action gets a unique
// positive ID and a pending status, and advisory items lose any stray tool
// call.
func NormalizePlan(plan *sentin.ActionPlan) {
	seen := make(map[int]bool, len(plan.Actions))
	next := 1
	for i := range plan.Actions {
		item := &plan.Actions[i]
		if item.ID <= 0 || seen[item.ID] {
			for seen[next] {
				next++
			}
			item.ID = next
		}
		seen[item.ID] = true
		if item.Status == "" {
			item.Status = sentin.ActionStatusPending
		}
		if !item.Executable {
			item.ToolCall = nil
		}
	}
}
