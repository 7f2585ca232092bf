package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/deep-research/internal/observability"
	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/progress"
	"github.com/jonathan/deep-research/internal/rendering"
	"github.com/jonathan/deep-research/internal/report"
	"github.com/jonathan/deep-research/internal/ui/live"
)

// resultFileName is the saved result document read back by "compile"
const resultFileName = "result.json"

type runFlags struct {
	provider      string
	model         string
	apiKey        string
	outputDir     string
	maxResults    int
	workers       int
	markFallbacks bool
	enrich        bool
	useBrowser    bool
	offline       bool
	tui           bool
	html          bool
	noColor       bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Research a question end-to-end and write the report",
		Long: `Runs query analysis -> web research -> content analysis -> report drafting while showing live
progress, then compiles the five-section report and writes it to the output directory
together with result.json.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResearch(cmd, f, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&f.provider, "provider", "", "Model provider: gemini or openai")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name used for every tier")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key for the provider (optional, defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	cmd.Flags().StringVarP(&f.outputDir, "out", "o", "", "Output directory")
	cmd.Flags().IntVar(&f.maxResults, "max-results", 0, "Search hits requested (1-10)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Report sections generated concurrently (1-5)")
	cmd.Flags().BoolVar(&f.markFallbacks, "mark-fallbacks", false, "Add a visible note under sections that show fallback text")
	cmd.Flags().BoolVar(&f.enrich, "enrich", false, "Replace short search snippets with page text")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use canned model responses and sources (no network)")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "Show an interactive progress view")
	cmd.Flags().BoolVar(&f.html, "html", false, "Also write an HTML export of the report")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colors in the interactive view")
	return cmd
}

// apply overrides config values with explicitly set flags
func (f *runFlags) apply(cmd *cobra.Command, a *app) error {
	cfg := &a.cfg
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = f.provider
	}
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("api-key") {
		if cfg.Provider == "openai" {
			cfg.OpenAIAPIKey = f.apiKey
		} else {
			cfg.APIKey = f.apiKey
		}
	}
	if flags.Changed("out") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("max-results") {
		cfg.MaxResults = f.maxResults
		cfg.KeepResults = min(cfg.KeepResults, f.maxResults)
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("mark-fallbacks") {
		cfg.MarkFallbacks = f.markFallbacks
	}
	if flags.Changed("enrich") {
		cfg.EnrichPages = f.enrich
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if flags.Changed("offline") {
		cfg.Offline = f.offline
	}
	return cfg.Validate()
}

func (a *app) runResearch(cmd *cobra.Command, f *runFlags, query string) error {
	if err := f.apply(cmd, a); err != nil {
		return err
	}
	cfg := a.cfg

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	model, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer model.Close() //nolint:errcheck

	searcher, err := newSearcher(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	p := newPipeline(model, searcher, cfg, a.logger)

	a.logger.Info("starting research", zap.String("query", query), zap.Bool("offline", cfg.Offline))
	h := p.Start(ctx, query, progress.NewEventLog())

	if f.tui {
		_, quit, err := live.Run(ctx, out, h, live.Options{Query: query, NoColor: f.noColor, PollInterval: cfg.PollInterval.Std()})
		if err != nil {
			a.logger.Warn("live view stopped", zap.Error(err))
		}
		if quit {
			stop()
		}
	} else {
		progress.Watch(ctx, progress.NewObserver(h.Log()), cfg.PollInterval.Std(), h.Done(), func(v progress.View) {
			if v.Changed || v.Done {
				printer.PrintStatus(v)
			}
		})
	}

	res := h.Wait()
	printer.PrintSources(res.SearchResults)
	printer.PrintResult(res)

	resultPath, err := writeResult(cfg.OutputDir, res)
	if err != nil {
		return err
	}
	a.logger.Debug("result saved", zap.String("path", resultPath))

	if res.Success {
		rep := newGenerator(model, cfg, a.logger).Build(ctx, report.Input{
			Query:       res.Query,
			Analysis:    res.Analysis,
			Sources:     res.SearchResults,
			GeneratedAt: res.FinishedAt(),
		})
		mdPath, err := writeReport(cfg.OutputDir, rep, f.html)
		if err != nil {
			return err
		}
		printer.PrintReport(rep, mdPath)
	}

	if !res.Success {
		return fmt.Errorf("research failed: %s", res.Error)
	}
	return nil
}

// writeResult saves res as indented JSON in dir
func writeResult(dir string, res pipeline.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	path := filepath.Join(dir, resultFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return path, nil
}

// writeReport saves the report markdown, and optionally its HTML export, in dir
func writeReport(dir string, rep *report.Report, withHTML bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	mdPath := filepath.Join(dir, rendering.FileName(rep.Query))
	if err := os.WriteFile(mdPath, []byte(rep.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if !withHTML {
		return mdPath, nil
	}

	page, err := rendering.HTML("Research Report: "+rep.Query, rep.Markdown)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, rendering.HTMLFileName(rep.Query)), []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("failed to write HTML report: %w", err)
	}
	return mdPath, nil
}

// signalContext cancels on interrupt; shared by long-running commands
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
