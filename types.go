package sentin

import (
	"time"
)

// SensorReading is an opaque record of numeric fields produced by a Fetcher.
// The caches are agnostic to its shape; downstream consumers pick the fields
// they understand by name.
type SensorReading map[string]float64

// Merge returns a new reading containing the union of r and other.
// Keys present in both take other's value.
func (r SensorReading) Merge(other SensorReading) SensorReading {
	merged := make(SensorReading, len(r)+len(other))
	for k, v := range r {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// RiskScore is a single category's assessed risk.
type RiskScore struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
}

// Risk status labels, ordered by severity.
const (
	StatusNormal   = "NORMAL"
	StatusWarning  = "WARNING"
	StatusCritical = "CRITICAL"
)

// Risk categories assessed on every scan.
const (
	CategoryVector      = "vector"
	CategoryRespiratory = "respiratory"
	CategoryWater       = "water"
)

// RiskState is the full risk picture for one scan: the merged environmental
// readings plus the per-category scores. It is the unit the decision cache
// hashes to detect "no material change".
type RiskState struct {
	Environment SensorReading        `json:"environment"`
	Predictions map[string]RiskScore `json:"predictions"`
	TopTrend    string               `json:"top_trend"`
}

// ActionCategory groups action items by the kind of response they represent.
type ActionCategory string

const (
	ActionCategoryCommunication ActionCategory = "COMMUNICATION"
	ActionCategoryInventory     ActionCategory = "INVENTORY"
	ActionCategoryProtocol      ActionCategory = "PROTOCOL"
	ActionCategoryResource      ActionCategory = "RESOURCE"
)

// ActionPriority is the urgency assigned by the plan generator.
type ActionPriority string

const (
	PriorityHigh   ActionPriority = "High"
	PriorityMedium ActionPriority = "Medium"
	PriorityLow    ActionPriority = "Low"
)

// ActionStatus tracks whether an item has been executed.
type ActionStatus string

const (
	ActionStatusPending  ActionStatus = "Pending"
	ActionStatusExecuted ActionStatus = "Executed"
)

// ToolName identifies one of the closed set of executable tools. Anything
// outside the set falls back to the general log at dispatch.
type ToolName string

const (
	ToolAlertEmail            ToolName = "alert_email"
	ToolGeneratePurchaseOrder ToolName = "generate_purchase_order"
	ToolGeneralLog            ToolName = "general_log"
)

// ToolCall is a named, typed operation with its argument payload.
type ToolCall struct {
	Tool ToolName               `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// ActionItem is a single proposed mitigation inside an ActionPlan. Status is
// the only field mutated after creation (by the dispatcher, through the
// decision cache's lock).
type ActionItem struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Category    ActionCategory `json:"category"`
	Description string         `json:"description"`
	Priority    ActionPriority `json:"priority"`
	Executable  bool           `json:"executable"`
	Status      ActionStatus   `json:"status"`
	ToolCall    *ToolCall      `json:"tool_call,omitempty"`
}

// ActionPlan is the plan generator's output for one risk state. Produced once
// per decision-cache miss and immutable apart from item statuses.
type ActionPlan struct {
	Summary string       `json:"summary"`
	Actions []ActionItem `json:"actions"`
}

// ExecutionResult is the outcome of executing a single approved action.
// Success is about the action being handled, not about every side effect
// landing; partial failures are surfaced in the message text.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeferredTask is a time-delayed inventory mutation created by the purchase
// order path and consumed exactly once by the scheduler.
type DeferredTask struct {
	Item     string
	Quantity int
	ReadyAt  time.Time
}

// LogEntry is one line of the append-only activity log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// OrderRecord is the durable purchase order persisted through a DocumentStore.
type OrderRecord struct {
	OrderID  string    `json:"order_id"`
	Item     string    `json:"item"`
	Quantity int       `json:"quantity"`
	Vendor   string    `json:"vendor"`
	Date     time.Time `json:"date"`
	Cost     float64   `json:"cost"`
}

// Environment is the subset of readings echoed back to scan callers.
type Environment struct {
	Temp     float64 `json:"temp"`
	Rain     float64 `json:"rain"`
	AQI      float64 `json:"aqi"`
	Humidity float64 `json:"humidity"`
}

// ScanRequest triggers a full sensor scan. Action is carried for audit
// purposes but unused by the core.
type ScanRequest struct {
	Action string `json:"action"`
}

// ScanResponse is the full situation report returned to scan callers.
type ScanResponse struct {
	Success     bool                 `json:"success"`
	Environment Environment          `json:"environment"`
	Predictions map[string]RiskScore `json:"predictions"`
	TopTrend    string               `json:"top_trend"`
	Inventory   map[string]int       `json:"inventory"`
	AIAgent     *ActionPlan          `json:"ai_agent"`
}

// ExecuteActionRequest submits one approved action from the current plan.
type ExecuteActionRequest struct {
	ActionID int            `json:"action_id"`
	Title    string         `json:"title"`
	Category ActionCategory `json:"category"`
	ToolCall *ToolCall      `json:"tool_call,omitempty"`
}
