// Package cli implements the filtersql command line.
package cli

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bawdo/filtersql/internal/config"
	"github.com/bawdo/filtersql/internal/logging"
)

// Version is reported by the server and --version.
var Version = "1.0.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	EnvFiles   []string
	LogLevel   string
	Fs         afero.Fs
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Fs: afero.NewOsFs()})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "filtersql",
		Short:         "Compile filter trees into parameterized SQL",
		Long:          "filtersql turns JSON filter trees into parameterized SELECT and COUNT statements and serves them as a search tool.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default: filtersql.yaml in . or ~/.config/filtersql)")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", []string{".env"}, "dotenv files to load")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}

// Execute runs the root command and reports any error on stderr.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		printError(err)
		return 1
	}
	return 0
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig(opts *RootOptions) (*config.Config, *config.Loader, error) {
	cfg, loader, err := config.Load(config.Options{File: opts.ConfigFile, EnvFiles: opts.EnvFiles, Fs: opts.Fs})
	if err != nil {
		return nil, nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	logging.Init(cfg.Logging())
	return cfg, loader, nil
}
