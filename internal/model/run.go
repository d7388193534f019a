package model

import "time"

// RunStatus represents the state of a batch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// Summary counts batch results by outcome.
type Summary struct {
	Total    int           `json:"total"`
	Found    int           `json:"found"`
	NotFound int           `json:"not_found"`
	Errors   int           `json:"error_not_found"`
	Bypassed int           `json:"bypassed"`
	CostUSD  float64       `json:"cost_usd"`
	Duration time.Duration `json:"duration_ns"`
}

// Add folds one result into the summary.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Outcome {
	case OutcomeFound:
		s.Found++
		if r.School.HasExistingURL() {
			s.Bypassed++
		}
	case OutcomeNotFound:
		s.NotFound++
	default:
		s.Errors++
	}
}

// Summarize counts a full result slice.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Add(r)
	}
	return s
}

// Run is a recorded batch execution.
type Run struct {
	ID         string    `json:"id"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	Status     RunStatus `json:"status"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunFilter narrows a run listing.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}
