// Package managers provides high-level fluent APIs for building SQL ASTs.
package managers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/plugins"
)

// SelectManager provides a fluent API for building SELECT queries.
// It wraps a SelectCore and applies transformer plugins before SQL generation.
type SelectManager struct {
	treeManager
	Core *nodes.SelectCore
}

// NewSelectManager creates a new SelectManager with the given table as FROM.
// If from is nil, the FROM clause is left unset.
func NewSelectManager(from nodes.Node) *SelectManager {
	return &SelectManager{
		Core: &nodes.SelectCore{From: from},
	}
}

// Select sets the projection list, replacing any existing projections.
func (m *SelectManager) Select(projections ...nodes.Node) *SelectManager {
	m.Core.Projections = projections
	return m
}

// Project is an alias for Select.
func (m *SelectManager) Project(projections ...nodes.Node) *SelectManager {
	return m.Select(projections...)
}

// Where appends one or more conditions to the WHERE clause.
// Multiple calls to Where are combined with AND at the visitor level.
// Nil conditions are ignored.
func (m *SelectManager) Where(conditions ...nodes.Node) *SelectManager {
	for _, c := range conditions {
		if c != nil {
			m.Core.Wheres = append(m.Core.Wheres, c)
		}
	}
	return m
}

// From sets or changes the FROM source.
func (m *SelectManager) From(table nodes.Node) *SelectManager {
	m.Core.From = table
	return m
}

// Limit sets the LIMIT value. It is rendered inline; n is an int, so it
// cannot carry SQL.
func (m *SelectManager) Limit(n int) *SelectManager {
	m.Core.Limit = nodes.NewSqlLiteral(strconv.Itoa(n))
	return m
}

// Offset sets the OFFSET value, rendered inline like Limit.
func (m *SelectManager) Offset(n int) *SelectManager {
	m.Core.Offset = nodes.NewSqlLiteral(strconv.Itoa(n))
	return m
}

// Take is an alias for Limit.
func (m *SelectManager) Take(n int) *SelectManager {
	return m.Limit(n)
}

// Comment sets a query comment (rendered as /* ... */).
// Any occurrence of */ in the text is sanitized to prevent comment breakout.
func (m *SelectManager) Comment(text string) *SelectManager {
	m.Core.Comment = text
	return m
}

// Use registers a transformer plugin to be applied before SQL generation.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

// transformed applies all registered transformers to a copy of the core.
func (m *SelectManager) transformed() (*nodes.SelectCore, error) {
	core := m.CloneCore()
	for _, t := range m.transformers {
		var err error
		core, err = t.TransformSelect(core)
		if err != nil {
			return nil, err
		}
	}
	return core, nil
}

// toSQLCore applies all registered transformers to a copy of the SelectCore,
// then generates SQL using the given visitor.
func (m *SelectManager) toSQLCore(v nodes.Visitor) (string, error) {
	core, err := m.transformed()
	if err != nil {
		return "", err
	}
	return core.Accept(v), nil
}

// ToSQL applies all registered transformers and generates SQL with parameters.
func (m *SelectManager) ToSQL(v nodes.Visitor) (string, []any, error) {
	return toSQLParams(v, m.toSQLCore)
}

// Statements renders the data statement and its matching COUNT(*)
// statement. The WHERE conditions are rendered once into a shared fragment,
// and both statements are resolved against the same bound values, so their
// parameter lists are identical. The count statement carries no
// projection list, LIMIT or OFFSET.
func (m *SelectManager) Statements(v Resolver) (data, count string, params []any, err error) {
	if p, ok := v.(nodes.Parameterizer); ok {
		p.Reset()
	}

	core, err := m.transformed()
	if err != nil {
		return "", "", nil, err
	}

	if len(core.Wheres) > 0 {
		parts := make([]string, len(core.Wheres))
		for i, w := range core.Wheres {
			parts[i] = w.Accept(v)
		}
		core.Wheres = []nodes.Node{nodes.NewSqlLiteral(strings.Join(parts, " AND "))}
	}

	countCore := countOf(core)

	data, params, err = v.Resolve(core.Accept(v))
	if err != nil {
		return "", "", nil, fmt.Errorf("data statement: %w", err)
	}
	count, countParams, err := v.Resolve(countCore.Accept(v))
	if err != nil {
		return "", "", nil, fmt.Errorf("count statement: %w", err)
	}
	if len(countParams) != len(params) {
		return "", "", nil, fmt.Errorf("count statement binds %d values, data statement %d", len(countParams), len(params))
	}
	return data, count, params, nil
}

// CountCore returns a COUNT(*) core over the same FROM and WHERE as the
// manager's core, without LIMIT or OFFSET. Transformers are not applied.
func (m *SelectManager) CountCore() *nodes.SelectCore {
	return countOf(m.CloneCore())
}

func countOf(core *nodes.SelectCore) *nodes.SelectCore {
	return &nodes.SelectCore{
		From:        core.From,
		Projections: []nodes.Node{nodes.Count(nil)},
		Wheres:      core.Wheres,
		Comment:     core.Comment,
	}
}

// Accept implements the Node interface. It delegates to the underlying
// SelectCore.
func (m *SelectManager) Accept(v nodes.Visitor) string {
	return m.Core.Accept(v)
}

// CloneCore returns a shallow copy of the SelectCore so transformers
// don't modify the original.
func (m *SelectManager) CloneCore() *nodes.SelectCore {
	projections := make([]nodes.Node, len(m.Core.Projections))
	copy(projections, m.Core.Projections)

	wheres := make([]nodes.Node, len(m.Core.Wheres))
	copy(wheres, m.Core.Wheres)

	return &nodes.SelectCore{
		From:        m.Core.From,
		Projections: projections,
		Wheres:      wheres,
		Limit:       m.Core.Limit,
		Offset:      m.Core.Offset,
		Comment:     m.Core.Comment,
	}
}
