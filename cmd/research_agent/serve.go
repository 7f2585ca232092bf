package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/deep-research/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Start an HTTP server that runs one research query at a time and streams its progress.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("offline") {
				a.cfg.Offline = offline
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

			srv := server.New(server.Config{
				Addr:         cfg.Addr,
				PollInterval: cfg.PollInterval.Std(),
				Logger:       a.logger,
			}, newPipeline(model, searcher, cfg, a.logger), newGenerator(model, cfg, a.logger))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default :8080)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use canned model responses and sources (no network)")
	return cmd
}
