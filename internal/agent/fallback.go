package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/sentinai/sentin"
)

// SafeModeGenerator is the PlanGenerator used when no model credentials are
// configured. It never calls out; every scan receives a canned advisory plan
// keyed off the worst category status.
func SafeModeGenerator() sentin.PlanGenerator {
	return sentin.PlanGeneratorFunc(func(ctx context.Context, state sentin.RiskState) (*sentin.ActionPlan, error) {
		worst := sentin.StatusNormal
		for _, score := range state.Predictions {
			switch score.Status {
			case sentin.StatusCritical:
				worst = sentin.StatusCritical
			case sentin.StatusWarning:
				if worst != sentin.StatusCritical {
					worst = sentin.StatusWarning
				}
			}
		}
		return &sentin.ActionPlan{
			Summary: fmt.Sprintf("Safe mode: no planning credentials configured. Worst category status is %s; review readings manually.", worst),
			Actions: []sentin.ActionItem{
				{
					ID:          1,
					Title:       "Review surge readings manually",
					Category:    sentin.ActionCategoryProtocol,
					Description: "Automated planning is disabled. Review the current readings and apply the standing playbook as needed.",
					Priority:    sentin.PriorityMedium,
					Executable:  true,
					Status:      sentin.ActionStatusPending,
					ToolCall: &sentin.ToolCall{
						Tool: sentin.ToolGeneralLog,
						Args: map[string]interface{}{
							"message": "Safe-mode scan reviewed; no automated plan available.",
						},
					},
				},
			},
		}, nil
	})
}

// ManualFallbackPlan returns the canned plan served when automated planning
// fails. It covers the standing surge playbook: alert staff, replenish core
// supplies, and activate triage protocols. The triggering error is logged,
// never surfaced to operators.
func ManualFallbackPlan(err error) *sentin.ActionPlan {
	if err != nil {
		log.Printf("Serving manual fallback plan (error: %v)", err)
	}
	return &sentin.ActionPlan{
		Summary: "Automated planning unavailable; standing surge playbook in effect.",
		Actions: []sentin.ActionItem{
			{
				ID:          1,
				Title:       "Alert duty staff of degraded planning",
				Category:    sentin.ActionCategoryCommunication,
				Description: "Notify the duty manager that automated surge planning is offline and manual review is required.",
				Priority:    sentin.PriorityHigh,
				Executable:  true,
				Status:      sentin.ActionStatusPending,
				ToolCall: &sentin.ToolCall{
					Tool: sentin.ToolAlertEmail,
					Args: map[string]interface{}{
						"subject": "Surge planner offline",
						"body":    "Automated surge planning failed. Follow the standing playbook until service is restored.",
					},
				},
			},
			{
				ID:          2,
				Title:       "Distribute masks to front-line staff",
				Category:    sentin.ActionCategoryResource,
				Description: "Issue protective masks from stock as a precaution while risk visibility is reduced.",
				Priority:    sentin.PriorityMedium,
				Executable:  true,
				Status:      sentin.ActionStatusPending,
			},
			{
				ID:          3,
				Title:       "Activate standard triage protocol",
				Category:    sentin.ActionCategoryProtocol,
				Description: "Run the default triage protocol until automated risk assessment returns.",
				Priority:    sentin.PriorityMedium,
				Executable:  true,
				Status:      sentin.ActionStatusPending,
				ToolCall: &sentin.ToolCall{
					Tool: sentin.ToolGeneralLog,
					Args: map[string]interface{}{
						"message": "Standard triage protocol activated under manual fallback.",
					},
				},
			},
		},
	}
}
