package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/staff-finder/internal/model"
)

var resolveSchool model.SchoolRecord

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the staff directory URL for a single school",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(resolveSchool.Name) == "" {
			return invalidInput(errors.New("--name must not be blank"))
		}

		ctx := cmd.Context()
		env, err := initPipeline(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		school := resolveSchool
		school.Row = 1
		res := env.Resolver.Resolve(ctx, school)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toResultResponse(res))
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveSchool.Name, "name", "", "school name (required)")
	resolveCmd.Flags().StringVar(&resolveSchool.City, "city", "", "city")
	resolveCmd.Flags().StringVar(&resolveSchool.State, "state", "", "state or region")
	resolveCmd.Flags().StringVar(&resolveSchool.District, "district", "", "school district")
	resolveCmd.Flags().StringVar(&resolveSchool.ExistingURL, "url", "", "known staff directory URL; skips search when set")
	_ = resolveCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(resolveCmd)
}
