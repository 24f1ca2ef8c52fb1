// Package tool implements the search_records tool: it decodes the agent's
// arguments, compiles them against the deployment's table, runs the data and
// count statements and renders the page as markdown.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bawdo/filtersql/compiler"
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/internal/logging"
	"github.com/bawdo/filtersql/schema"
	"github.com/bawdo/filtersql/store"
)

// Name is the tool name advertised to clients.
const Name = "search_records"

// Paging defaults applied when the caller leaves limit or offset out.
const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

// Fetcher runs a data statement and its count statement together.
type Fetcher interface {
	Fetch(ctx context.Context, data, count compiler.Statement) (*store.Page, error)
}

// Search is the search_records tool bound to one table.
type Search struct {
	compiler *compiler.Compiler
	fetcher  Fetcher
	schema   *schema.Holder
	table    string
	logger   *slog.Logger
}

// New binds the tool to table. The table must exist in the schema.
func New(c *compiler.Compiler, f Fetcher, h *schema.Holder, table string, logger *slog.Logger) (*Search, error) {
	if c == nil || f == nil || h == nil {
		return nil, errors.New("tool: compiler, fetcher and schema are required")
	}
	if !h.IsValidTable(table) {
		return nil, fmt.Errorf("tool: table %q is not in the schema", table)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{compiler: c, fetcher: f, schema: h, table: table, logger: logger}, nil
}

// Name returns the tool name.
func (s *Search) Name() string { return Name }

// Compiler returns the compiler the tool uses.
func (s *Search) Compiler() *compiler.Compiler { return s.compiler }

// Table returns the table the tool searches.
func (s *Search) Table() string { return s.table }

// Query decodes raw tool arguments into a compile request with the tool's
// table and paging defaults. A table_name in the arguments is ignored.
func (s *Search) Query(raw json.RawMessage) (compiler.Query, error) {
	var q compiler.Query
	if len(strings.TrimSpace(string(raw))) > 0 {
		var err error
		q, err = compiler.DecodeQuery(raw, s.compiler.MaxDepth())
		if err != nil {
			return compiler.Query{}, err
		}
	}
	q.Table = s.table
	if q.Limit == nil {
		n := DefaultLimit
		q.Limit = &n
	}
	if q.Offset == nil {
		n := DefaultOffset
		q.Offset = &n
	}
	return q, nil
}

// Run executes q and returns the rendered markdown.
func (s *Search) Run(ctx context.Context, q compiler.Query) (string, error) {
	res, err := s.compiler.Compile(ctx, q)
	if err != nil {
		return "", err
	}
	page, err := s.fetcher.Fetch(ctx, res.Data, res.Count)
	if err != nil {
		return "", err
	}

	cur := res.Schema
	if cur == nil {
		cur = s.schema.Current()
	}
	t, _ := cur.Table(s.table)
	indicator, namespace := "", ""
	if t != nil {
		indicator, namespace = t.Indicator, t.Namespace
	}
	logging.FromContext(ctx, s.logger).Debug("search completed",
		"table", s.table,
		"rows", len(page.Rows),
		"total", page.Total)
	return Render(page, indicator, namespace), nil
}

// Call decodes raw arguments and runs the search. Failures are returned as
// text for the agent rather than as errors.
func (s *Search) Call(ctx context.Context, raw json.RawMessage) (string, bool) {
	q, err := s.Query(raw)
	if err == nil {
		var out string
		out, err = s.Run(ctx, q)
		if err == nil {
			return out, false
		}
	}
	logging.FromContext(ctx, s.logger).Warn("search failed",
		"validation", IsValidation(err),
		"path", filter.PathOf(err),
		"error", err)
	return ErrorText(err), true
}

// IsValidation reports whether err was caused by the caller's payload.
func IsValidation(err error) bool {
	return errors.Is(err, filter.ErrValidation) ||
		errors.Is(err, filter.ErrUnsupportedOperator) ||
		errors.Is(err, filter.ErrIdentifier)
}

// ErrorText maps err to the message returned to the agent.
func ErrorText(err error) string {
	if IsValidation(err) {
		return "Validation Error: Your payload was malformed. " + err.Error()
	}
	return "Internal Tool Error: " + err.Error()
}
