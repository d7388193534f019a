package selector

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resolver"
)

var decisionFields = []string{"selected_index", "selected_url", "confidence", "reasoning"}

// Decode parses a selector response into a Decision. Missing or extra
// fields, wrong types and non-JSON text are contract errors. Range and URL
// checks against the candidate list happen in resolver.ValidateDecision.
func Decode(raw string) (model.Decision, error) {
	body := stripFences(raw)
	if body == "" {
		return model.Decision{}, resolver.NewContractError("empty response", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return model.Decision{}, resolver.NewContractError("response is not a JSON object", err)
	}

	for _, f := range decisionFields {
		if _, ok := fields[f]; !ok {
			return model.Decision{}, resolver.NewContractError("missing field "+f, nil)
		}
	}
	if len(fields) > len(decisionFields) {
		var extra []string
		for k := range fields {
			if !slices.Contains(decisionFields, k) {
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		return model.Decision{}, resolver.NewContractError("unexpected field "+strings.Join(extra, ", "), nil)
	}

	var d model.Decision
	if err := json.Unmarshal(fields["selected_index"], &d.SelectedIndex); err != nil {
		return model.Decision{}, resolver.NewContractError("selected_index must be an integer", err)
	}

	if string(fields["selected_url"]) != "null" {
		var u string
		if err := json.Unmarshal(fields["selected_url"], &u); err != nil {
			return model.Decision{}, resolver.NewContractError("selected_url must be a string or null", err)
		}
		d.SelectedURL = &u
	}

	var conf string
	if err := json.Unmarshal(fields["confidence"], &conf); err != nil {
		return model.Decision{}, resolver.NewContractError("confidence must be a string", err)
	}
	d.Confidence = model.Confidence(strings.ToLower(strings.TrimSpace(conf)))

	if err := json.Unmarshal(fields["reasoning"], &d.Reasoning); err != nil {
		return model.Decision{}, resolver.NewContractError("reasoning must be a string", err)
	}
	d.Reasoning = strings.TrimSpace(d.Reasoning)

	return d, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
