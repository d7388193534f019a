package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/staff-finder/internal/batch"
	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/planner"
	"github.com/sells-group/staff-finder/internal/report"
	"github.com/sells-group/staff-finder/internal/tabular"
)

var (
	runInput       string
	runOutput      string
	runResume      bool
	runLimit       int
	runDryRun      bool
	runJSON        bool
	runReport      string
	runDebug       bool
	runConcurrency int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve staff directory URLs for every school in a file",
	Long: `Reads a CSV or XLSX file of schools and writes a copy with staff_url,
confidence and reasoning columns filled in.

Examples:
  # Parse the file and show the planned queries, no API calls
  staff-finder run --input schools.csv --dry-run

  # First 20 rows, markdown summary
  staff-finder run --input schools.csv --limit 20 --report run.md

  # Pick up an interrupted run from its output file
  staff-finder run --input schools.csv --resume`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runConcurrency > 0 {
			cfg.Batch.Concurrency = runConcurrency
		}
		if runDebug {
			if err := printDebug(cmd.ErrOrStderr()); err != nil {
				return err
			}
		}

		output := runOutput
		if output == "" {
			output = defaultOutputPath(runInput)
		}

		table, source, err := tabular.ReadForRun(ctx, runInput, output, runResume)
		if err != nil {
			return invalidInput(err)
		}
		schools, err := table.Records()
		if err != nil {
			return invalidInput(err)
		}
		if runLimit > 0 && runLimit < len(schools) {
			schools = schools[:runLimit]
		}
		zap.L().Info("input loaded",
			zap.String("source", source),
			zap.Int("rows", len(schools)),
			zap.Bool("resume", source == output),
		)

		if runDryRun {
			return writeDryRun(cmd.OutOrStdout(), schools, planner.New(cfg.Planner.MaxQueries))
		}

		env, err := initPipeline(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		return executeRun(ctx, cmd.OutOrStdout(), env, table, schools, source, output)
	},
}

// executeRun runs the batch, writes the output file and records the run.
// An interrupted run still writes every row and exits cleanly.
func executeRun(ctx context.Context, out io.Writer, env *pipelineEnv, table *tabular.Table, schools []model.SchoolRecord, source, output string) error {
	started := time.Now()

	var runID string
	if env.Store != nil {
		run, err := env.Store.CreateRun(ctx, source, output)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		runID = run.ID
	}

	writer := tabular.NewWriter(table, output)
	runner := batch.New(env.Resolver, batch.Options{
		Concurrency:     cfg.Batch.Concurrency,
		CheckpointEvery: cfg.Batch.CheckpointEvery,
		OnCheckpoint:    writer.Checkpoint,
	})

	results, summary, runErr := runner.Run(ctx, schools)
	if err := writer.Flush(results); err != nil {
		return eris.Wrap(err, "write output")
	}

	usage := env.Usage.Snapshot()
	summary.CostUSD = cost.NewCalculator(pricing()).Total(cfg.Search.Provider, usage)

	status := model.RunStatusComplete
	var errMsg string
	switch {
	case errors.Is(runErr, context.Canceled):
		status = model.RunStatusCancelled
	case runErr != nil:
		status = model.RunStatusFailed
		errMsg = runErr.Error()
	}

	if env.Store != nil {
		// The parent context may already be cancelled; history is still recorded.
		bg := context.WithoutCancel(ctx)
		if err := env.Store.SaveResults(bg, runID, results); err != nil {
			zap.L().Error("save results failed", zap.String("run_id", runID), zap.Error(err))
		}
		if err := env.Store.FinishRun(bg, runID, status, summary, errMsg); err != nil {
			zap.L().Error("finish run failed", zap.String("run_id", runID), zap.Error(err))
		}
	}

	rep := report.New(runID, source, output, status, results, summary, usage, started)
	if runReport != "" {
		if err := writeMarkdownReport(runReport, rep); err != nil {
			return err
		}
	}
	if runJSON {
		if err := report.WriteJSON(out, rep); err != nil {
			return err
		}
	} else if err := report.WriteText(out, rep); err != nil {
		return err
	}

	if status == model.RunStatusCancelled {
		fmt.Fprintln(os.Stderr, "Interrupted. Partial results saved to", output)
		return nil
	}
	return runErr
}

// defaultOutputPath returns <stem>_with_urls<ext> next to the input.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_with_urls" + ext
}

func writeMarkdownReport(path string, rep *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create report")
	}
	defer f.Close() //nolint:errcheck
	return report.WriteMarkdown(f, rep)
}

// dryRunRow is one planned school in --dry-run output.
type dryRunRow struct {
	Row         int      `json:"row"`
	School      string   `json:"school"`
	ExistingURL string   `json:"existing_url,omitempty"`
	Queries     []string `json:"queries,omitempty"`
}

func writeDryRun(out io.Writer, schools []model.SchoolRecord, p *planner.Planner) error {
	rows := make([]dryRunRow, 0, len(schools))
	for _, s := range schools {
		row := dryRunRow{Row: s.Row, School: s.Name}
		if s.HasExistingURL() {
			row.ExistingURL = s.ExistingURL
		} else {
			row.Queries = p.Plan(s)
		}
		rows = append(rows, row)
	}

	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	for _, r := range rows {
		if r.ExistingURL != "" {
			fmt.Fprintf(out, "%d\t%s\tbypass %s\n", r.Row, r.School, r.ExistingURL)
			continue
		}
		for _, q := range r.Queries {
			fmt.Fprintf(out, "%d\t%s\t%s\n", r.Row, r.School, q)
		}
	}
	return nil
}

func printDebug(w io.Writer) error {
	redacted := cfg.Redacted()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(redacted)
}

func pricing() cost.Rates {
	rates := cost.Rates{
		SearchPerQuery:  cfg.Pricing.SearchPerQuery,
		InputPerMTok:    cfg.Pricing.InputPerMTok,
		OutputPerMTok:   cfg.Pricing.OutputPerMTok,
		SelectorPerCall: cfg.Pricing.SelectorPerCall,
	}
	if rates.SearchPerQuery == nil {
		rates.SearchPerQuery = cost.DefaultRates().SearchPerQuery
	}
	return rates
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "input CSV or XLSX file (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "output file (default <input>_with_urls.<ext>)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "continue from the output file when it exists")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "process only the first N rows (0 = all)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "parse the input and plan queries without calling providers")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the summary as JSON")
	runCmd.Flags().StringVar(&runReport, "report", "", "also write a markdown report to this path")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "print the effective config with secrets redacted")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "override batch.concurrency")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
