// Package compiler turns a filter tree into a parameterized data statement
// and a matching COUNT(*) statement.
//
// Compilation is atomic: it either returns both statements or an error
// built by package filter that names the failure kind and, for problems
// inside the tree, the offending node path. Nothing is cached between calls,
// so a Compiler is safe for concurrent use.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bawdo/filtersql/embedding"
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/internal/logging"
	"github.com/bawdo/filtersql/managers"
	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/plugins"
	"github.com/bawdo/filtersql/plugins/softdelete"
	"github.com/bawdo/filtersql/schema"
	"github.com/bawdo/filtersql/visitors"
)

// Defaults for the compiler options.
const (
	DefaultMaxDepth         = filter.DefaultMaxDepth
	DefaultEmbedConcurrency = 4
)

// Compiler compiles queries against one allowlist and dialect.
type Compiler struct {
	allow        schema.Allowlist
	embedder     embedding.Provider
	dialect      string
	maxDepth     int
	concurrency  int
	dimensions   int
	pretty       bool
	comment      string
	transformers []plugins.Transformer
	logger       *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDialect selects the SQL dialect: postgres (default), mysql or sqlite.
func WithDialect(d string) Option { return func(c *Compiler) { c.dialect = d } }

// WithEmbedder sets the provider used for semantic conditions.
func WithEmbedder(p embedding.Provider) Option { return func(c *Compiler) { c.embedder = p } }

// WithMaxDepth bounds how deeply filter trees may nest.
func WithMaxDepth(n int) Option { return func(c *Compiler) { c.maxDepth = n } }

// WithEmbedConcurrency bounds concurrent embedding calls per compile.
func WithEmbedConcurrency(n int) Option { return func(c *Compiler) { c.concurrency = n } }

// WithDimensions rejects embeddings whose length is not n.
func WithDimensions(n int) Option { return func(c *Compiler) { c.dimensions = n } }

// WithPretty renders multi-line statements.
func WithPretty() Option { return func(c *Compiler) { c.pretty = true } }

// WithComment prefixes both statements with /* text */.
func WithComment(text string) Option { return func(c *Compiler) { c.comment = text } }

// WithTransformer adds a transformer that runs on every compiled query,
// after the table's soft delete condition.
func WithTransformer(t plugins.Transformer) Option {
	return func(c *Compiler) { c.transformers = append(c.transformers, t) }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option { return func(c *Compiler) { c.logger = l } }

// New returns a Compiler for allow.
func New(allow schema.Allowlist, opts ...Option) (*Compiler, error) {
	if allow == nil {
		return nil, errors.New("compiler: allowlist is required")
	}
	c := &Compiler{
		allow:       allow,
		dialect:     "postgres",
		maxDepth:    DefaultMaxDepth,
		concurrency: DefaultEmbedConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxDepth <= 0 {
		return nil, fmt.Errorf("compiler: max depth must be positive, got %d", c.maxDepth)
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if _, err := c.renderer(); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	return c, nil
}

// Dialect returns the configured dialect name.
func (c *Compiler) Dialect() string { return c.dialect }

// MaxDepth returns the nesting limit for filter trees.
func (c *Compiler) MaxDepth() int { return c.maxDepth }

func (c *Compiler) renderer() (visitors.Renderer, error) {
	r, err := visitors.New(c.dialect, visitors.WithBareTables())
	if err != nil {
		return nil, err
	}
	if c.pretty {
		return visitors.NewFormattingVisitor(r), nil
	}
	return r, nil
}

// snapshot pins the allowlist for one call. A reloadable allowlist is read
// once so every lookup of the call sees the same schema.
func (c *Compiler) snapshot() schema.Allowlist {
	if sn, ok := c.allow.(schema.Snapshotter); ok {
		if cur := sn.Current(); cur != nil {
			return cur
		}
	}
	return c.allow
}

// state is the per-call compile state.
type state struct {
	c       *Compiler
	r       visitors.Renderer
	allow   schema.Allowlist // pinned for the whole call
	table   string
	vectors map[string]embedding.Vector
	leaves  int
}

// Compile compiles q into a data statement and a count statement. On error
// the result is nil.
func (c *Compiler) Compile(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	m, s, err := c.build(ctx, q)
	if err != nil {
		return nil, err
	}

	data, count, params, err := render(m, s.r)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = []any{}
	}

	logging.FromContext(ctx, c.logger).DebugContext(ctx, "compiled query",
		"table", q.Table,
		"dialect", s.r.Dialect(),
		"leaves", s.leaves,
		"embeddings", len(s.vectors),
		"params", len(params),
		"elapsed", time.Since(start),
	)
	res := &Result{
		Data:  Statement{SQL: data, Params: params},
		Count: Statement{SQL: count, Params: params},
	}
	res.Schema, _ = s.allow.(*schema.Schema)
	return res, nil
}

// Build resolves q into a select manager without rendering it. Semantic
// conditions are embedded, so the returned tree is final.
func (c *Compiler) Build(ctx context.Context, q Query) (*managers.SelectManager, error) {
	m, _, err := c.build(ctx, q)
	return m, err
}

func (c *Compiler) build(ctx context.Context, q Query) (*managers.SelectManager, *state, error) {
	r, err := c.renderer()
	if err != nil {
		return nil, nil, filter.Assembly("renderer", err)
	}
	s := &state{c: c, r: r, allow: c.snapshot(), table: q.Table}

	if !s.allow.IsValidTable(q.Table) {
		return nil, nil, &filter.Error{Kind: filter.KindIdentifier, Path: "table_name", Msg: fmt.Sprintf("unknown table %q", q.Table)}
	}
	if q.Limit != nil && *q.Limit < 0 {
		return nil, nil, &filter.Error{Kind: filter.KindValidation, Path: "limit", Msg: "limit must not be negative"}
	}
	if q.Offset != nil && *q.Offset < 0 {
		return nil, nil, &filter.Error{Kind: filter.KindValidation, Path: "offset", Msg: "offset must not be negative"}
	}

	cols := q.Select
	if len(cols) == 0 {
		cols = s.allow.DefaultColumns(q.Table)
	}
	projections := make([]nodes.Node, len(cols))
	for i, name := range cols {
		col, ok := s.allow.Column(q.Table, name)
		if !ok {
			return nil, nil, &filter.Error{Kind: filter.KindIdentifier, Path: indexed("select_fields", i), Msg: fmt.Sprintf("unknown column %q on table %q", name, q.Table)}
		}
		if col.Kind == schema.KindVector {
			return nil, nil, &filter.Error{Kind: filter.KindValidation, Path: indexed("select_fields", i), Msg: fmt.Sprintf("vector column %q cannot be selected", name)}
		}
		projections[i] = nodes.Column(name)
	}

	var predicate nodes.Node
	if q.Filter != nil {
		if err := s.check(q.Filter); err != nil {
			return nil, nil, err
		}
		if err := s.embedAll(ctx, q.Filter); err != nil {
			return nil, nil, err
		}
		predicate, err = s.compose(q.Filter, filter.Root, 1)
		if err != nil {
			return nil, nil, err
		}
	}

	m := managers.NewSelectManager(nodes.NewTable(q.Table)).
		Select(projections...).
		Where(predicate)
	if q.Limit != nil {
		m.Limit(*q.Limit)
	}
	if q.Offset != nil {
		m.Offset(*q.Offset)
	}
	if c.comment != "" {
		m.Comment(c.comment)
	}
	if col := s.allow.SoftDeleteColumn(q.Table); col != "" {
		m.Use(softdelete.New(softdelete.WithTableColumn(q.Table, col)))
	}
	for _, t := range c.transformers {
		m.Use(t)
	}
	return m, s, nil
}

// render produces both statements. A visitor panic means the tree holds a
// node the dialect cannot render, which check should have rejected.
func render(m *managers.SelectManager, r visitors.Renderer) (data, count string, params []any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = filter.Assembly(fmt.Sprint(p), nil)
		}
	}()
	data, count, params, err = m.Statements(r)
	if err != nil {
		return "", "", nil, filter.Assembly("render statements", err)
	}
	return data, count, params, nil
}
