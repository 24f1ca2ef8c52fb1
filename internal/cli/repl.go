package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	Dialect string
	Connect bool
	Raw     bool
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{}
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactively build filter trees and inspect the SQL they compile to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "postgres|mysql|sqlite (default from database url)")
	cmd.Flags().BoolVar(&opts.Connect, "connect", false, "connect to the configured database on start")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print run results without rendering markdown")
	return cmd
}

func runRepl(cmd *cobra.Command, rootOpts *RootOptions, opts *ReplOptions) error {
	cfg, _, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, rootOpts.Fs, appOptions{dialect: opts.Dialect})
	if err != nil {
		return err
	}
	sess, err := NewSession(cmd.Context(), a, rootOpts.Fs, a.compiler.Dialect())
	if err != nil {
		return err
	}
	defer sess.close()
	sess.raw = opts.Raw
	sess.out = cmd.OutOrStdout()

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "filtersql> ",
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	if opts.Connect {
		if err := sess.Execute("connect"); err != nil {
			printError(err)
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "\nfiltersql %s: searching %s with %s, type 'help' for commands, 'exit' to quit\n\n",
		Version, sess.table, sess.dialect)
	return loop(rl, sess)
}

func loop(rl *readline.Instance, sess *Session) error {
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			return nil
		}
		if err := sess.Execute(line); err != nil {
			printError(err)
		}
	}
}

func historyPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".filtersql_history")
}
