package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sentinai/sentin"
)

// BuildPrompt renders the planning prompt for a risk state and the current
// inventory. The model is asked for a JSON action plan matching the
// ActionPlan type, with tool calls restricted to the closed tool set.
func BuildPrompt(state sentin.RiskState, inventory map[string]int) string {
	var b strings.Builder

	b.WriteString("You are Sentin-AI, the operations planner for a city hospital preparing for patient surges.\n\n")

	b.WriteString("Current environment readings:\n")
	for _, key := range sortedKeys(state.Environment) {
		fmt.Fprintf(&b, "- %s: %g\n", key, state.Environment[key])
	}

	b.WriteString("\nRisk assessment by category:\n")
	categories := make([]string, 0, len(state.Predictions))
	for category := range state.Predictions {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		score := state.Predictions[category]
		fmt.Fprintf(&b, "- %s: %.1f/10 (%s)\n", category, score.Score, score.Status)
	}
	if state.TopTrend != "" {
		fmt.Fprintf(&b, "\nDominant symptom search trend: %s\n", state.TopTrend)
	}

	b.WriteString("\nCurrent hospital inventory:\n")
	invKeys := make([]string, 0, len(inventory))
	for key := range inventory {
		invKeys = append(invKeys, key)
	}
	sort.Strings(invKeys)
	for _, key := range invKeys {
		fmt.Fprintf(&b, "- %s: %d\n", key, inventory[key])
	}

	b.WriteString(`
Produce an action plan as a JSON object:

{
  "summary": "one-sentence situation summary",
  "actions": [
    {
      "id": 1,
      "title": "short imperative title",
      "category": "COMMUNICATION" | "INVENTORY" | "PROTOCOL" | "RESOURCE",
      "description": "what to do and why",
      "priority": "High" | "Medium" | "Low",
      "executable": true,
      "status": "Pending",
      "tool_call": {
        "tool": "alert_email" | "generate_purchase_order" | "general_log",
        "args": {}
      }
    }
  ]
}

Rules:
- Use only the three tools listed. Omit tool_call for advisory items and set executable to false.
- alert_email args: recipient, subject, body.
- generate_purchase_order args: item, quantity.
- general_log args: message.
- Order actions by priority, 3 to 5 actions total.

JSON plan:
`)
	return b.String()
}

func sortedKeys(reading sentin.SensorReading) []string {
	keys := make([]string, 0, len(reading))
	for key := range reading {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
