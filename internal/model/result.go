package model

// DeliveryOutcome is the per-recipient result of one delivery attempt.
// A failed render or send is recorded here instead of propagating.
type DeliveryOutcome struct {
	Email   string `json:"email"`
	Records int    `json:"records"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RunResult aggregates one pipeline run. It is surfaced to the trigger
// (HTTP response, CLI output, scheduler log) and never persisted.
type RunResult struct {
	RunID          string            `json:"run_id"`
	Date           string            `json:"date"`
	TotalRecords   int               `json:"records"`
	SkippedRecords int               `json:"skipped"`
	BundleCount    int               `json:"bundles"`
	Outcomes       []DeliveryOutcome `json:"outcomes,omitempty"`
}

// Delivered counts successful outcomes.
func (r RunResult) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Failed counts contained per-recipient failures.
func (r RunResult) Failed() int {
	return len(r.Outcomes) - r.Delivered()
}
