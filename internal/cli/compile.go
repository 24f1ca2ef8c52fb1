package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bawdo/filtersql/compiler"
	"github.com/bawdo/filtersql/visitors"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	Dialect string
	Pretty  bool
	JSON    bool
	Dot     bool
	NoColor bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{}
	cmd := &cobra.Command{
		Use:   "compile [query.json|-]",
		Short: "Compile a query request into data and count statements",
		Long: `Compile a JSON query request ({"filter_tree", "table_name", "select_fields",
"limit", "offset"}) without touching the database. The table defaults to the
configured tool table. Reads stdin when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			return runCompile(cmd, rootOpts, opts, src)
		},
	}
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "postgres|mysql|sqlite (default from database url)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "multi-line SQL")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.Dot, "dot", false, "print the data statement AST as Graphviz DOT")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	return cmd
}

func readInput(fs afero.Fs, src string, stdin io.Reader) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	return afero.ReadFile(fs, src)
}

func runCompile(cmd *cobra.Command, rootOpts *RootOptions, opts *CompileOptions, src string) error {
	if opts.NoColor {
		color.NoColor = true
	}
	cfg, _, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, rootOpts.Fs, appOptions{dialect: opts.Dialect, pretty: opts.Pretty})
	if err != nil {
		return err
	}

	data, err := readInput(rootOpts.Fs, src, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	q, err := compiler.DecodeQuery(data, a.compiler.MaxDepth())
	if err != nil {
		return err
	}
	if q.Table == "" {
		q.Table = cfg.Tool.Table
	}

	out := cmd.OutOrStdout()
	if opts.Dot {
		m, err := a.compiler.Build(cmd.Context(), q)
		if err != nil {
			return err
		}
		dv := visitors.NewDotVisitor()
		m.Accept(dv)
		_, err = io.WriteString(out, dv.ToDot())
		return err
	}

	res, err := a.compiler.Compile(cmd.Context(), q)
	if err != nil {
		return err
	}
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printStatement(out, "data", res.Data)
	printStatement(out, "count", res.Count)
	return nil
}

var (
	labelColor  = color.New(color.FgYellow, color.Bold)
	sqlColor    = color.New(color.FgCyan)
	paramsColor = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed, color.Bold)
)

func printStatement(w io.Writer, label string, st compiler.Statement) {
	labelColor.Fprintf(w, "-- %s\n", label)
	sqlColor.Fprintln(w, st.SQL)
	params, _ := json.Marshal(st.Params)
	paramsColor.Fprintf(w, "-- params: %s\n", params)
}

// printError writes err to stderr in the CLI's error style.
func printError(err error) {
	errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
}
