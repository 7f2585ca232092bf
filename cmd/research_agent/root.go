package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/deep-research/internal/config"
	"github.com/jonathan/deep-research/internal/observability"
)

// app carries state shared by every subcommand once the root pre-run has finished
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "research_agent",
		Short: "Deep research agent",
		Long: `research_agent answers a research question by analyzing the query, searching the web,
analyzing the sources and drafting a structured markdown report.

Configuration can be loaded from a JSON or YAML file using --config. Command-line flags override config file values.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by flags)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRunCmd(a), newCompileCmd(a), newServeCmd(a))
	return root
}

// setup loads the config file, applies the persistent flags and the environment,
// fills defaults and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	var cfg config.Config
	if a.configPath != "" {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	if a.configPath != "" {
		logger.Debug("loaded config", zap.String("path", a.configPath))
	}
	return nil
}
