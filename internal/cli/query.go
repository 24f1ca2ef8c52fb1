package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "query [args.json|-]",
		Short: "Run the search tool once and print its markdown result",
		Long: `Run search_records against the configured database with the given tool
arguments ({"filter_tree", "select_fields", "limit", "offset"}) and print the
result. Reads stdin when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			cfg, _, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, rootOpts.Fs, appOptions{connect: true})
			if err != nil {
				return err
			}
			defer a.close()

			data, err := readInput(rootOpts.Fs, src, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read %s: %w", src, err)
			}
			text, isErr := a.search.Call(cmd.Context(), json.RawMessage(data))
			if err := writeMarkdown(cmd.OutOrStdout(), text, raw); err != nil {
				return err
			}
			if isErr {
				return errors.New("search failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

// writeMarkdown renders md for the terminal unless raw is set.
func writeMarkdown(w io.Writer, md string, raw bool) error {
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
