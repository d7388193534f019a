// Package model holds the data types shared across the staff-directory resolution pipeline.
package model

import "strings"

// Sentinel staff_url values written when no directory URL is produced.
const (
	NotFound      = "NOT_FOUND"
	ErrorNotFound = "ERROR_NOT_FOUND"
)

// Confidence is the selector's certainty in a decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the three allowed levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Outcome classifies a Result for summary reporting.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// SchoolRecord is one input row.
type SchoolRecord struct {
	Row         int               `json:"row"`
	Name        string            `json:"name"`
	City        string            `json:"city,omitempty"`
	State       string            `json:"state,omitempty"`
	District    string            `json:"district,omitempty"`
	ExistingURL string            `json:"existing_url,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"` // passthrough columns
}

// HasExistingURL reports whether the record carries a usable pre-supplied URL.
func (s SchoolRecord) HasExistingURL() bool {
	return !IsNullish(s.ExistingURL)
}

// IsNullish reports whether a cell value should be treated as empty. Sentinel
// values from a previous run count as empty so those rows are resolved again.
func IsNullish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none", "null", "not_found", "error_not_found":
		return true
	}
	return false
}

// SearchHit is one raw result returned by a search provider.
type SearchHit struct {
	Position int    `json:"position"` // 1-based provider rank
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
}

// Candidate is a shortlisted hit annotated with a heuristic score.
type Candidate struct {
	SearchHit
	Score  float64 `json:"score"`
	Domain string  `json:"domain"`
}

// Decision is the selector's structured verdict. SelectedIndex is 1-based into
// the candidate list; 0 means no candidate was chosen and SelectedURL is nil.
type Decision struct {
	SelectedIndex int        `json:"selected_index"`
	SelectedURL   *string    `json:"selected_url"`
	Confidence    Confidence `json:"confidence"`
	Reasoning     string     `json:"reasoning"`
}

// Result is one output row.
type Result struct {
	School     SchoolRecord `json:"school"`
	StaffURL   string       `json:"staff_url"`
	Confidence Confidence   `json:"confidence,omitempty"`
	Reasoning  string       `json:"reasoning"`
	Outcome    Outcome      `json:"outcome"`
}

// Found returns a Result for a resolved directory URL.
func Found(school SchoolRecord, url string, conf Confidence, reasoning string) Result {
	return Result{School: school, StaffURL: url, Confidence: conf, Reasoning: reasoning, Outcome: OutcomeFound}
}

// NotFoundResult returns a Result for a school with no acceptable candidate.
func NotFoundResult(school SchoolRecord, conf Confidence, reasoning string) Result {
	return Result{School: school, StaffURL: NotFound, Confidence: conf, Reasoning: reasoning, Outcome: OutcomeNotFound}
}

// CancelledReasoning marks error results for rows the run abandoned before
// they finished.
const CancelledReasoning = "cancelled"

// CancelledResult returns the error Result recorded for an abandoned row.
func CancelledResult(school SchoolRecord) Result {
	return ErrorResult(school, CancelledReasoning)
}

// Cancelled reports whether r was recorded for an abandoned row rather than
// produced by the pipeline.
func (r Result) Cancelled() bool {
	return r.Outcome == OutcomeError && r.Reasoning == CancelledReasoning
}

// ErrorResult returns a Result for a school whose pipeline failed.
func ErrorResult(school SchoolRecord, reasoning string) Result {
	return Result{School: school, StaffURL: ErrorNotFound, Reasoning: reasoning, Outcome: OutcomeError}
}

// OutputConfidence is the confidence value written to the output table. It
// is empty for NOT_FOUND and error rows.
func (r Result) OutputConfidence() string {
	if r.Outcome != OutcomeFound {
		return ""
	}
	return string(r.Confidence)
}
