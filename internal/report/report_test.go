package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
)

func sampleReport() *Report {
	lincoln := model.SchoolRecord{Row: 1, Name: "Lincoln High School"}
	grant := model.SchoolRecord{Row: 2, Name: "Grant High School", ExistingURL: "https://grant.example/staff"}
	jeff := model.SchoolRecord{Row: 3, Name: "Jefferson"}
	results := []model.Result{
		model.Found(lincoln, "https://www.pps.net/lincoln/staff", model.ConfidenceHigh, "official staff page"),
		model.Found(grant, "https://grant.example/staff", model.ConfidenceHigh, "pre-supplied URL"),
		model.ErrorResult(jeff, "selector failed: "+strings.Repeat("x", 200)),
	}
	sum := model.Summarize(results)
	sum.CostUSD = 0.0123
	sum.Duration = 1500 * time.Millisecond
	return New("run-1", "in.csv", "out.csv", model.RunStatusComplete, results, sum,
		cost.Usage{SearchCalls: 3, CacheHits: 1, SelectorCalls: 1}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestNewPending(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 3, r.Summary.Total)
	assert.Equal(t, 1, r.Summary.Bypassed)
	assert.Equal(t, 2, r.Pending)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	summary := got["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["found"])
	assert.EqualValues(t, 1, summary["error_not_found"])
	assert.NotContains(t, got, "Results")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "Found:")
	assert.Contains(t, out, "ERROR_NOT_FOUND:")
	assert.Contains(t, out, "$0.0123")
	assert.Contains(t, out, "3 (1 cached)")
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "# Staff Directory Run")
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "mermaid")
	assert.Contains(t, out, "https://www.pps.net/lincoln/staff")
	assert.Contains(t, out, "--resume")
	assert.NotContains(t, out, strings.Repeat("x", 100), "long reasoning is truncated")
}

func TestWriteMarkdownEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := New("", "in.csv", "", model.RunStatusComplete, nil, model.Summary{}, cost.Usage{}, time.Now())
	require.NoError(t, WriteMarkdown(&buf, r))
	assert.NotContains(t, buf.String(), "mermaid")
	assert.NotContains(t, buf.String(), "## Results")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdefgh", 2))
	assert.Equal(t, "é…", truncate("é…", 2))
}
