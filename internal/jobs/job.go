// Package jobs holds the process-lifetime record of background jobs:
// metadata, status, live progress snapshot, and the terminal result.
package jobs

import "time"

// Status is the lifecycle state of a job. Transitions are monotone:
// pending -> running -> completed|failed, with no way out of a terminal
// state.
type Status string

// Job lifecycle states.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Type is the closed set of job kinds.
type Type string

// Supported job kinds.
const (
	TypeOnboard Type = "onboard"
	TypeMonitor Type = "monitor"
)

// OnboardParams are the immutable inputs of an onboarding job.
type OnboardParams struct {
	CompanyName  string `json:"company_name"`
	Website      string `json:"website"`
	DeepResearch bool   `json:"deep_research"`
}

// MonitorParams are the immutable inputs of a monitoring job.
// CustomerAgeDays is the recency window; customers last seen longer ago
// are excluded from the run.
type MonitorParams struct {
	SaaSClientName  string `json:"saas_client_name"`
	CustomerAgeDays int    `json:"customer_age_days"`
}

// Result is the closed set of terminal job payloads. Exactly one concrete
// type exists per job type so the boundary can validate shape before
// responding.
type Result interface {
	JobType() Type
}

// OnboardResult is the terminal payload of an onboarding job.
type OnboardResult struct {
	CompanyName         string `json:"company_name"`
	CustomersDiscovered int    `json:"customers_discovered"`
	EnterpriseCustomers int    `json:"enterprise_customers"`
	ProductsFound       int    `json:"products_found"`
	PricingTiersFound   int    `json:"pricing_tiers_found"`
	ICPsFound           int    `json:"icps_found"`
	PersonasFound       int    `json:"personas_found"`
}

// JobType implements Result.
func (*OnboardResult) JobType() Type { return TypeOnboard }

// SignalSummary is the condensed view of one intelligence record inside a
// monitoring result.
type SignalSummary struct {
	Ticker          string  `json:"ticker"`
	CompanyName     string  `json:"company_name"`
	SignalType      string  `json:"signal_type"`
	SignalSummary   string  `json:"signal_summary"`
	FilingDate      string  `json:"filing_date"`
	OpportunityType string  `json:"opportunity_type"`
	UrgencyScore    float64 `json:"urgency_score"`
	EstimatedValue  string  `json:"estimated_value"`
	GeneratedAt     string  `json:"generated_at"`
}

// MonitorResult is the terminal payload of a monitoring job.
type MonitorResult struct {
	SaaSClient   string          `json:"saas_client"`
	SignalsFound int             `json:"signals_found"`
	Signals      []SignalSummary `json:"signals"`
}

// JobType implements Result.
func (*MonitorResult) JobType() Type { return TypeMonitor }

// Job is one invocation of a workflow, tracked end-to-end. Params are
// immutable once created; Result is set at most once, together with the
// transition to completed; Error only with the transition to failed.
type Job struct {
	ID          string     `json:"job_id"`
	Type        Type       `json:"job_type"`
	Status      Status     `json:"status"`
	Params      any        `json:"params"`
	Progress    float64    `json:"progress"`
	CurrentStep string     `json:"current_step,omitempty"`
	Result      Result     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
