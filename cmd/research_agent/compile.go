package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/deep-research/internal/observability"
	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/report"
	"github.com/jonathan/deep-research/internal/schemas"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		outputDir string
		withHTML  bool
		offline   bool
	)
	cmd := &cobra.Command{
		Use:   "compile <result.json>",
		Short: "Compile the sectioned report from a saved research result",
		Long: `Validates a result.json written by "run" against the result schema and compiles its analysis
and sources into the five-section markdown report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("out") {
				a.cfg.OutputDir = outputDir
			}
			if cmd.Flags().Changed("offline") {
				a.cfg.Offline = offline
			}
			cfg := a.cfg

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read result: %w", err)
			}
			if err := schemas.ValidateResult(data); err != nil {
				return err
			}
			var res pipeline.Result
			if err := json.Unmarshal(data, &res); err != nil {
				return fmt.Errorf("failed to parse result: %w", err)
			}
			if !res.Success {
				return fmt.Errorf("cannot compile a failed run (status %s): %s", res.Status, res.Error)
			}

			model, err := newModel(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer model.Close() //nolint:errcheck

			rep := newGenerator(model, cfg, a.logger).Build(cmd.Context(), report.Input{
				Query:       res.Query,
				Analysis:    res.Analysis,
				Sources:     res.SearchResults,
				GeneratedAt: res.FinishedAt(),
			})
			path, err := writeReport(cfg.OutputDir, rep, withHTML)
			if err != nil {
				return err
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintReport(rep, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory")
	cmd.Flags().BoolVar(&withHTML, "html", false, "Also write an HTML export of the report")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use canned model responses (no network)")
	return cmd
}
