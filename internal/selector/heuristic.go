package selector

import (
	"context"
	"fmt"

	"github.com/sells-group/staff-finder/internal/model"
)

// DefaultMinScore is the lowest shortlist score the heuristic selector accepts.
const DefaultMinScore = 3.0

// Heuristic picks the top shortlisted candidate when its score clears a
// threshold. It makes no network calls and is used for offline runs.
type Heuristic struct {
	minScore float64
}

// NewHeuristic creates a Heuristic selector. A non-positive minScore uses
// DefaultMinScore.
func NewHeuristic(minScore float64) *Heuristic {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Heuristic{minScore: minScore}
}

// Select implements resolver.Selector. Candidates arrive sorted by score.
func (h *Heuristic) Select(ctx context.Context, _ model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return model.Decision{}, err
	}
	if len(candidates) == 0 || candidates[0].Score < h.minScore {
		return model.Decision{
			Confidence: model.ConfidenceLow,
			Reasoning:  fmt.Sprintf("no candidate scored at least %.1f", h.minScore),
		}, nil
	}

	top := candidates[0]
	conf := model.ConfidenceMedium
	if top.Score >= 2*h.minScore {
		conf = model.ConfidenceHigh
	}
	url := top.URL
	return model.Decision{
		SelectedIndex: 1,
		SelectedURL:   &url,
		Confidence:    conf,
		Reasoning:     fmt.Sprintf("top shortlist score %.1f on %s", top.Score, top.Domain),
	}, nil
}
