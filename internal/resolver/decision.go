package resolver

import (
	"fmt"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/shortlist"
)

// ValidateDecision checks d against the candidates that were sent to the
// selector and returns the URL to record. An index of 0 must come with a
// nil URL and yields "". A non-zero index must be in range and its URL must
// match that candidate exactly or by normalized form; the candidate's own
// URL is returned so the classifier never supplies the recorded value.
func ValidateDecision(d model.Decision, candidates []model.Candidate) (string, error) {
	if !d.Confidence.Valid() {
		return "", NewContractError(fmt.Sprintf("confidence %q is not high, medium or low", d.Confidence), nil)
	}

	if d.SelectedIndex == 0 {
		if d.SelectedURL != nil {
			return "", NewContractError("selected_index is 0 but selected_url is set", nil)
		}
		return "", nil
	}

	if d.SelectedURL == nil {
		return "", NewContractError(fmt.Sprintf("selected_index is %d but selected_url is null", d.SelectedIndex), nil)
	}
	if d.SelectedIndex < 0 || d.SelectedIndex > len(candidates) {
		return "", NewContractError(fmt.Sprintf("selected_index %d out of range 0..%d", d.SelectedIndex, len(candidates)), nil)
	}

	chosen := candidates[d.SelectedIndex-1]
	if *d.SelectedURL == chosen.URL || shortlist.NormalizeURL(*d.SelectedURL) == shortlist.NormalizeURL(chosen.URL) {
		return chosen.URL, nil
	}

	for i, c := range candidates {
		if shortlist.NormalizeURL(*d.SelectedURL) == shortlist.NormalizeURL(c.URL) {
			return "", NewContractError(fmt.Sprintf("selected_url matches candidate %d, not selected_index %d", i+1, d.SelectedIndex), nil)
		}
	}
	return "", NewContractError(fmt.Sprintf("selected_url %q is not a candidate", *d.SelectedURL), nil)
}
