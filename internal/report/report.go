// Package report renders a run summary as text, JSON or Markdown.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
)

// Report is everything a run summary shows.
type Report struct {
	RunID      string          `json:"run_id,omitempty"`
	InputPath  string          `json:"input_path"`
	OutputPath string          `json:"output_path,omitempty"`
	Status     model.RunStatus `json:"status"`
	Pending    int             `json:"pending"`
	Summary    model.Summary   `json:"summary"`
	Usage      cost.Usage      `json:"usage"`
	Results    []model.Result  `json:"-"`
	StartedAt  time.Time       `json:"started_at"`
}

// New builds a Report from a finished batch.
func New(runID, input, output string, status model.RunStatus, results []model.Result, summary model.Summary, usage cost.Usage, started time.Time) *Report {
	return &Report{
		RunID:      runID,
		InputPath:  input,
		OutputPath: output,
		Status:     status,
		Pending:    summary.Total - summary.Bypassed,
		Summary:    summary,
		Usage:      usage,
		Results:    results,
		StartedAt:  started,
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a short aligned summary for terminals.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Total rows:\t%d\n", r.Summary.Total)
	fmt.Fprintf(tw, "Pending:\t%d\n", r.Pending)
	fmt.Fprintf(tw, "Found:\t%d\n", r.Summary.Found)
	fmt.Fprintf(tw, "NOT_FOUND:\t%d\n", r.Summary.NotFound)
	fmt.Fprintf(tw, "ERROR_NOT_FOUND:\t%d\n", r.Summary.Errors)
	fmt.Fprintf(tw, "Search calls:\t%d (%d cached)\n", r.Usage.SearchCalls, r.Usage.CacheHits)
	fmt.Fprintf(tw, "Selector calls:\t%d\n", r.Usage.SelectorCalls)
	fmt.Fprintf(tw, "Estimated cost:\t$%.4f\n", r.Summary.CostUSD)
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Summary.Duration.Round(time.Millisecond))
	return tw.Flush()
}

// WriteMarkdown writes the report with a result table and an outcome chart.
func WriteMarkdown(w io.Writer, r *Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Staff Directory Run")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", orDash(r.RunID)},
			{"Input", "`" + r.InputPath + "`"},
			{"Output", orDash(r.OutputPath)},
			{"Status", string(r.Status)},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", r.Summary.Duration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Found", strconv.Itoa(r.Summary.Found)},
			{"Pre-supplied", strconv.Itoa(r.Summary.Bypassed)},
			{"NOT_FOUND", strconv.Itoa(r.Summary.NotFound)},
			{"ERROR_NOT_FOUND", strconv.Itoa(r.Summary.Errors)},
			{"**Total**", "**" + strconv.Itoa(r.Summary.Total) + "**"},
		},
	})
	md.PlainText("")

	if r.Summary.Total > 0 {
		chart := piechart.NewPieChart(io.Discard,
			piechart.WithTitle("Outcomes"),
			piechart.WithShowData(true),
		)
		for _, s := range []struct {
			label string
			n     int
		}{
			{"Found", r.Summary.Found},
			{"NOT_FOUND", r.Summary.NotFound},
			{"ERROR_NOT_FOUND", r.Summary.Errors},
		} {
			if s.n > 0 {
				chart.LabelAndIntValue(s.label, uint64(s.n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	if r.Summary.Errors > 0 {
		md.Warningf("%d row(s) ended in ERROR_NOT_FOUND. Re-run with --resume to retry them.", r.Summary.Errors)
		md.PlainText("")
	}

	md.H2("Usage")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Search calls", strconv.FormatInt(r.Usage.SearchCalls, 10)},
			{"Cache hits", strconv.FormatInt(r.Usage.CacheHits, 10)},
			{"Selector calls", strconv.FormatInt(r.Usage.SelectorCalls, 10)},
			{"Input tokens", strconv.FormatInt(r.Usage.InputTokens, 10)},
			{"Output tokens", strconv.FormatInt(r.Usage.OutputTokens, 10)},
			{"Estimated cost", fmt.Sprintf("$%.4f", r.Summary.CostUSD)},
		},
	})
	md.PlainText("")

	if len(r.Results) > 0 {
		md.H2("Results")
		md.PlainText("")
		rows := make([][]string, 0, len(r.Results))
		for _, res := range r.Results {
			rows = append(rows, []string{
				strconv.Itoa(res.School.Row),
				res.School.Name,
				res.StaffURL,
				orDash(res.OutputConfidence()),
				truncate(res.Reasoning, 80),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Row", "School", "Staff URL", "Confidence", "Reasoning"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
