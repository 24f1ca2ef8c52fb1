package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/bawdo/filtersql/compiler"
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/store"
	"github.com/bawdo/filtersql/tool"
	"github.com/bawdo/filtersql/visitors"
)

var errNoFilter = errors.New("no filter (use 'where <json>' first)")

// Session holds the REPL state: the table being searched, the filter tree
// built so far, the projection and page, and the active dialect.
type Session struct {
	ctx      context.Context
	app      *app
	fs       afero.Fs
	compiler *compiler.Compiler
	dialect  string
	pretty   bool
	raw      bool // print run results as plain markdown

	table  string
	tree   filter.Node
	fields []string
	limit  *int
	offset *int

	store    *store.Store   // nil when disconnected
	commands []commandEntry // command registry (sorted by prefix length desc)
	out      io.Writer      // destination for REPL output (default os.Stdout)
}

// NewSession creates a session over a's schema using the given dialect.
func NewSession(ctx context.Context, a *app, fs afero.Fs, dialect string) (*Session, error) {
	s := &Session{
		ctx:   ctx,
		app:   a,
		fs:    fs,
		table: a.cfg.Tool.Table,
		store: a.store,
		out:   os.Stdout,
	}
	if err := s.setDialect(dialect); err != nil {
		return nil, err
	}
	s.initCommands()
	return s, nil
}

func (s *Session) setDialect(dialect string) error {
	c, err := s.app.newCompiler(dialect, s.pretty, "")
	if err != nil {
		return err
	}
	s.compiler, s.dialect = c, c.Dialect()
	return nil
}

// Query returns the compile request for the current state.
func (s *Session) Query() compiler.Query {
	return compiler.Query{
		Filter: s.tree,
		Table:  s.table,
		Select: s.fields,
		Limit:  s.limit,
		Offset: s.offset,
	}
}

// Execute parses and runs a single REPL line.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// close releases the session's database connection.
func (s *Session) close() {
	if s.store != nil {
		_ = s.store.Close()
		s.store = nil
	}
}

// --- Filter building ---

func (s *Session) decodeTree(args string) (filter.Node, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil, errors.New("expected a JSON filter tree")
	}
	return filter.DecodeDepth([]byte(args), s.compiler.MaxDepth())
}

func (s *Session) cmdWhere(args string) error {
	n, err := s.decodeTree(args)
	if err != nil {
		return err
	}
	s.tree = n
	s.printTree()
	return nil
}

func (s *Session) cmdCombine(op filter.BoolOp, args string) error {
	n, err := s.decodeTree(args)
	if err != nil {
		return err
	}
	s.tree = combine(s.tree, op, n)
	s.printTree()
	return nil
}

// combine joins n onto cur with op, extending cur in place when it is
// already a group of the same operator.
func combine(cur filter.Node, op filter.BoolOp, n filter.Node) filter.Node {
	if cur == nil {
		return n
	}
	if g, ok := cur.(*filter.Group); ok && g.Op == op {
		g.Children = append(g.Children, n)
		return g
	}
	return &filter.Group{Op: op, Children: []filter.Node{cur, n}}
}

// cmdLeaf adds "<field> <op> [json value]" to the filter with AND.
func (s *Session) cmdLeaf(args string) error {
	field, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	op, value, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if field == "" || op == "" {
		return errors.New("usage: leaf <field> <op> [json value]")
	}
	obj := map[string]any{"field": field, "op": op}
	if value = strings.TrimSpace(value); value != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(value)))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		obj["value"] = raw
	}
	n, err := filter.DecodeValue(obj, 0)
	if err != nil {
		return err
	}
	s.tree = combine(s.tree, filter.And, n)
	s.printTree()
	return nil
}

func (s *Session) cmdNot() error {
	if s.tree == nil {
		return errNoFilter
	}
	s.tree = filter.NewNot(s.tree)
	s.printTree()
	return nil
}

func (s *Session) printTree() {
	_, _ = fmt.Fprintf(s.out, "  Filter: %s\n", filter.Format(s.tree))
}

func (s *Session) cmdTree() error {
	if s.tree == nil {
		_, _ = fmt.Fprintln(s.out, "  No filter")
		return nil
	}
	s.printTree()
	return nil
}

// --- Projection and paging ---

func (s *Session) cmdSelect(args string) error {
	var fields []string
	for _, f := range strings.Split(args, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	s.fields = fields
	if len(fields) == 0 {
		_, _ = fmt.Fprintln(s.out, "  Selecting default columns")
		return nil
	}
	_, _ = fmt.Fprintf(s.out, "  Selecting %s\n", strings.Join(fields, ", "))
	return nil
}

func parseCount(name, args string) (*int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, args)
	}
	if n < 0 {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &n, nil
}

func (s *Session) cmdLimit(args string) error {
	n, err := parseCount("limit", args)
	if err != nil {
		return err
	}
	s.limit = n
	return nil
}

func (s *Session) cmdOffset(args string) error {
	n, err := parseCount("offset", args)
	if err != nil {
		return err
	}
	s.offset = n
	return nil
}

func (s *Session) cmdTable(args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return errors.New("usage: table <name>")
	}
	if !s.app.schema.IsValidTable(name) {
		return fmt.Errorf("unknown table %q (see 'tables')", name)
	}
	if name != s.table {
		s.table = name
		s.tree, s.fields = nil, nil
	}
	_, _ = fmt.Fprintf(s.out, "  Searching %s\n", name)
	return nil
}

func (s *Session) tableNames() []string {
	var names []string
	for _, t := range s.app.schema.Current().Tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// fieldNames lists the filterable columns of the current table.
func (s *Session) fieldNames() []string {
	t, ok := s.app.schema.Current().Table(s.table)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

func (s *Session) cmdTables() error {
	for _, name := range s.tableNames() {
		marker := " "
		if name == s.table {
			marker = "*"
		}
		_, _ = fmt.Fprintf(s.out, "  %s %s\n", marker, name)
	}
	return nil
}

func (s *Session) cmdFields() error {
	_, _ = fmt.Fprintln(s.out, s.app.schema.Current().Describe(s.table))
	return nil
}

func (s *Session) cmdReset() error {
	s.tree, s.fields, s.limit, s.offset = nil, nil, nil, nil
	_, _ = fmt.Fprintln(s.out, "  Query cleared")
	return nil
}

// --- Output ---

func (s *Session) cmdSQL() error {
	res, err := s.compiler.Compile(s.ctx, s.Query())
	if err != nil {
		return err
	}
	printStatement(s.out, "data", res.Data)
	printStatement(s.out, "count", res.Count)
	return nil
}

func (s *Session) cmdJSON() error {
	data, err := json.MarshalIndent(s.Query(), "  ", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s\n", data)
	return nil
}

// cmdDot exports the AST of the data statement as a Graphviz DOT file.
func (s *Session) cmdDot(args string) error {
	fpath := strings.TrimSpace(args)
	if fpath == "" {
		return errors.New("usage: dot <filepath>")
	}
	m, err := s.compiler.Build(s.ctx, s.Query())
	if err != nil {
		return err
	}
	dv := visitors.NewDotVisitor()
	m.Accept(dv)
	if err := afero.WriteFile(s.fs, fpath, []byte(dv.ToDot()), 0o600); err != nil {
		return fmt.Errorf("failed to write DOT file: %w", err)
	}
	_, _ = fmt.Fprintf(s.out, "  Wrote DOT to %s\n", fpath)
	return nil
}

func (s *Session) cmdPretty() error {
	s.pretty = !s.pretty
	if err := s.setDialect(s.dialect); err != nil {
		s.pretty = !s.pretty
		return err
	}
	state := "off"
	if s.pretty {
		state = "on"
	}
	_, _ = fmt.Fprintf(s.out, "  Pretty printing %s\n", state)
	return nil
}

func (s *Session) cmdDialect(args string) error {
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		_, _ = fmt.Fprintf(s.out, "  Dialect: %s\n", s.dialect)
		return nil
	}
	if err := s.setDialect(name); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  Dialect set to %s\n", s.dialect)
	if s.store != nil && s.store.Engine() != s.dialect {
		_, _ = fmt.Fprintf(s.out, "  Warning: connected to %s but dialect is %s\n", s.store.Engine(), s.dialect)
	}
	return nil
}

// --- Database ---

func (s *Session) cmdConnect(args string) error {
	url := strings.TrimSpace(args)
	if url == "" {
		url = s.app.cfg.Database.URL
	}
	engine, dsn, err := store.ParseURL(url)
	if err != nil {
		return err
	}
	st, err := store.Open(s.ctx, engine, dsn, store.WithLogger(s.app.logger))
	if err != nil {
		return fmt.Errorf("connect %s: %w", store.SanitizeDSN(dsn), err)
	}
	s.close()
	s.store = st
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", store.SanitizeDSN(dsn), engine)
	if engine != s.dialect {
		if err := s.setDialect(engine); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.out, "  Dialect set to %s\n", s.dialect)
	}
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.store == nil {
		return errors.New("not connected")
	}
	s.close()
	_, _ = fmt.Fprintln(s.out, "  Disconnected")
	return nil
}

// cmdRun executes the current query through the search tool and prints
// the markdown it would return to an agent.
func (s *Session) cmdRun() error {
	if s.store == nil {
		return errors.New("not connected (use 'connect [url]' first)")
	}
	search, err := tool.New(s.compiler, s.store, s.app.schema, s.table, s.app.logger)
	if err != nil {
		return err
	}
	q := s.Query()
	if q.Limit == nil {
		n := tool.DefaultLimit
		q.Limit = &n
	}
	if q.Offset == nil {
		n := tool.DefaultOffset
		q.Offset = &n
	}
	text, err := search.Run(s.ctx, q)
	if err != nil {
		return err
	}
	return writeMarkdown(s.out, text, s.raw)
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Filter Building:
    where <json>              Replace the filter with a JSON filter tree
    and <json>                AND a JSON filter tree onto the filter
    or <json>                 OR a JSON filter tree onto the filter
    leaf <field> <op> [json]  AND a single condition, e.g. leaf budget gt 1000
    not                       Negate the whole filter
    tree                      Show the current filter

  Query:
    table <name>              Search another table (clears filter and select)
    tables                    List searchable tables
    fields                    Describe the fields of the current table
    select <col>, <col>       Set projections (empty for defaults)
    limit [n]                 Set LIMIT (empty to clear)
    offset [n]                Set OFFSET (empty to clear)
    reset                     Clear filter, select, limit and offset

  Output:
    sql                       Compile to data and count statements
    json                      Show the query as a JSON request
    dot <file>                Export the data statement AST as Graphviz DOT
    pretty                    Toggle multi-line SQL
    dialect [name]            Show or set the dialect (postgres, mysql, sqlite)

  Database:
    connect [url]             Connect (defaults to the configured database url)
    disconnect                Close the connection
    run                       Search and print the result as markdown

  Other:
    help                      Show this help
    exit, quit                Leave the REPL`)
}
