// Package selector asks a language model to pick the staff directory page
// among shortlisted candidates, and decodes its answer strictly.
package selector

import (
	"fmt"
	"strings"

	"github.com/sells-group/staff-finder/internal/model"
)

// Provider names, used as config values and breaker keys.
const (
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
	ProviderHeuristic  = "heuristic"
)

const systemPrompt = `You are an expert at identifying staff directory pages for K-12 schools.

A good staff directory page usually:
- has words like "staff", "faculty", "directory", "personnel" or "our-staff" in its URL or title
- is on the school's or district's official website, not an aggregator or social network
- lists many staff members with contact details
- is not a job posting, calendar, news or single-contact page

Always respond with a single JSON object and nothing else:
{"selected_index": <integer>, "selected_url": <string or null>, "confidence": "high" | "medium" | "low", "reasoning": <string>}

selected_index is 1-based into the numbered candidate list. Use 0 with a null
selected_url when no candidate is a staff directory. When selected_index is not 0,
selected_url must be copied exactly from that candidate.`

// BuildPrompt renders the user message: the school and an enumerated
// candidate list with its explicit length.
func BuildPrompt(s model.SchoolRecord, candidates []model.Candidate) string {
	var b strings.Builder
	b.WriteString("School:\n")
	fmt.Fprintf(&b, "- Name: %s\n", s.Name)
	writeField(&b, "City", s.City)
	writeField(&b, "State", s.State)
	writeField(&b, "District", s.District)

	fmt.Fprintf(&b, "\nCandidates (%d):\n", len(candidates))
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. URL: %s\n", i+1, c.URL)
		writeField(&b, "   Title", c.Title)
		writeField(&b, "   Snippet", c.Snippet)
	}

	fmt.Fprintf(&b, "\nSelect the staff directory page. selected_index must be between 0 and %d.", len(candidates))
	return b.String()
}

func writeField(b *strings.Builder, label, v string) {
	if v = strings.TrimSpace(v); v != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, v)
	}
}

// decisionSchema is the JSON schema sent to providers that support
// structured output.
func decisionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selected_index": map[string]any{"type": "integer", "minimum": 0},
			"selected_url":   map[string]any{"type": []string{"string", "null"}},
			"confidence":     map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
			"reasoning":      map[string]any{"type": "string"},
		},
		"required":             []string{"selected_index", "selected_url", "confidence", "reasoning"},
		"additionalProperties": false,
	}
}
