package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bawdo/filtersql/internal/config"
	"github.com/bawdo/filtersql/internal/logging"
	"github.com/bawdo/filtersql/server"
	"github.com/bawdo/filtersql/tool"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search tool over HTTP",
		Long: `Serve the search_records tool as a stateless JSON-RPC endpoint at / and /mcp,
plus /v1/compile, /v1/search, /health and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rootOpts, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, loader, err := loadConfig(opts)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, opts.Fs, appOptions{connect: true, comment: tool.Name})
	if err != nil {
		return err
	}
	defer a.close()

	if migrate || cfg.Database.Migrate {
		a.logger.Info("running migrations")
		if err := a.store.Migrate(); err != nil {
			return err
		}
	}
	if err := a.schema.Current().Verify(ctx, a.store); err != nil {
		a.logger.Warn("schema does not match database", "error", err)
	}
	if cfg.WatchSchema && cfg.Schema != "" {
		if err := a.schema.Watch(ctx, opts.Fs, cfg.Schema, a.logger); err != nil {
			return err
		}
	}
	loader.Watch(func(next *config.Config) {
		logging.SetLevel(next.Log.Level)
		a.logger.Info("config reloaded", "log_level", next.Log.Level)
	}, func(err error) {
		a.logger.Error("config reload failed", "error", err)
	})

	srv := server.New(cfg.HTTP(), a.search, a.logger)
	return srv.Run(ctx)
}
