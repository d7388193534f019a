package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/staff-finder/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect batch run history",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, model.RunFilter{Status: model.RunStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its per-row results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		results, err := st.ListResults(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show: results")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Run     *model.Run       `json:"run"`
				Results []resultResponse `json:"results"`
			}{run, toResultResponses(results)})
		}

		formatRunDetail(cmd.OutOrStdout(), run, results)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (running, complete, cancelled, failed)")
	runsListCmd.Flags().Int("limit", 20, "max number of runs to display")
	runsShowCmd.Flags().Bool("json", false, "print the run and results as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func toResultResponses(results []model.Result) []resultResponse {
	out := make([]resultResponse, len(results))
	for i, r := range results {
		out[i] = toResultResponse(r)
	}
	return out
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tINPUT\tSTATUS\tTOTAL\tFOUND\tNOT_FOUND\tERRORS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t-----\t-----\t---------\t------\t-------\t--------")

	for _, r := range runs {
		input := r.InputPath
		if len(input) > 30 {
			input = "..." + input[len(input)-27:]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			input,
			r.Status,
			r.Summary.Total,
			r.Summary.Found,
			r.Summary.NotFound,
			r.Summary.Errors,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second),
		)
	}
	_ = w.Flush()
}

// formatRunDetail writes a run header followed by one line per result.
func formatRunDetail(out io.Writer, run *model.Run, results []model.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "Input:\t%s\n", run.InputPath)
	_, _ = fmt.Fprintf(w, "Output:\t%s\n", run.OutputPath)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", run.Status)
	if run.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", run.Error)
	}
	_, _ = fmt.Fprintf(w, "Found / NOT_FOUND / ERROR:\t%d / %d / %d of %d\n",
		run.Summary.Found, run.Summary.NotFound, run.Summary.Errors, run.Summary.Total)
	_, _ = fmt.Fprintf(w, "Cost:\t$%.4f\n", run.Summary.CostUSD)
	_ = w.Flush()

	if len(results) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROW\tSCHOOL\tSTAFF_URL\tCONFIDENCE")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.School.Row, r.School.Name, r.StaffURL, r.OutputConfidence())
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
