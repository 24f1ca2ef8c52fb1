// Package visitors provides SQL dialect generators that walk the AST.
//
// Every literal value is bound through a Binder and rendered as a synthetic
// key; Resolve turns the keys into the dialect's positional placeholders
// once the statement text is complete.
package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/filtersql/internal/quoting"
	"github.com/bawdo/filtersql/nodes"
)

// Feature names an optional capability of a dialect.
type Feature uint

const (
	// FeatureILike is a native case-insensitive ILIKE operator.
	FeatureILike Feature = 1 << iota
	// FeatureArrays covers the array containment (@>) and overlap (&&) operators.
	FeatureArrays
	// FeatureVectors covers pgvector distance operators.
	FeatureVectors
)

// Operator SQL strings for ComparisonOp values.
var comparisonOpSQL = [...]string{
	nodes.OpEq:       "=",
	nodes.OpNotEq:    "<>",
	nodes.OpGt:       ">",
	nodes.OpGtEq:     ">=",
	nodes.OpLt:       "<",
	nodes.OpLtEq:     "<=",
	nodes.OpContains: "@>",
	nodes.OpOverlaps: "&&",
}

// Operator SQL strings for DistanceMetric values.
var distanceOpSQL = [...]string{
	nodes.Cosine:       "<=>",
	nodes.Euclidean:    "<->",
	nodes.InnerProduct: "<#>",
}

// Renderer is a dialect visitor that can also resolve the synthetic keys it
// produced into positional placeholders.
type Renderer interface {
	nodes.Visitor
	nodes.Parameterizer

	// Dialect returns the dialect name: "postgres", "mysql" or "sqlite".
	Dialect() string

	// Supports reports whether the dialect can render f.
	Supports(f Feature) bool

	// Binder returns the binder literals are bound through.
	Binder() *Binder

	// Resolve rewrites the synthetic keys in sql to positional placeholders.
	Resolve(sql string) (string, []any, error)
}

// Option configures a visitor at construction time.
type Option func(*baseVisitor)

// WithBinder makes the visitor bind literals through b instead of a
// private binder.
func WithBinder(b *Binder) Option {
	return func(v *baseVisitor) {
		v.binder = b
	}
}

// WithBareTables renders table names without quotes when they are plain
// identifiers. Table names that need quoting are still quoted.
func WithBareTables() Option {
	return func(v *baseVisitor) {
		v.bareTables = true
	}
}

// baseVisitor implements the shared SQL generation logic used by all dialects.
// Dialect-specific visitors embed *baseVisitor and set the outer field to
// themselves, enabling correct virtual dispatch through the Visitor interface.
type baseVisitor struct {
	// outer is the concrete dialect visitor. All recursive Accept calls
	// go through outer so that dialect overrides are respected.
	outer nodes.Visitor

	// dialect is the name reported by Dialect.
	dialect string

	// features is the set of optional capabilities.
	features Feature

	// quoteIdent quotes a SQL identifier (table name, column name).
	quoteIdent func(string) string

	// quoteString renders a constant string literal. It is only used for
	// ESCAPE clauses; values are always bound.
	quoteString func(string) string

	// placeholder returns the bind placeholder for a given parameter index.
	// PostgreSQL uses $1, $2; MySQL/SQLite use ?.
	placeholder func(int) string

	// binder receives every literal value.
	binder *Binder

	// bareTables renders plain table names unquoted.
	bareTables bool
}

// applyOptions applies functional options to the baseVisitor.
func (b *baseVisitor) applyOptions(opts []Option) {
	for _, o := range opts {
		o(b)
	}
	if b.binder == nil {
		b.binder = NewBinder()
	}
}

func (b *baseVisitor) Dialect() string { return b.dialect }

func (b *baseVisitor) Supports(f Feature) bool { return b.features&f == f }

func (b *baseVisitor) Binder() *Binder { return b.binder }

// Params returns the values bound so far, in bind order.
func (b *baseVisitor) Params() []any {
	return b.binder.Values()
}

// Reset clears bound values for reuse.
func (b *baseVisitor) Reset() {
	b.binder.Reset()
}

func (b *baseVisitor) Resolve(sql string) (string, []any, error) {
	return b.binder.Resolve(sql, b.placeholder)
}

// require panics when the dialect lacks f. Callers check Supports first;
// reaching this is a programming error.
func (b *baseVisitor) require(f Feature, what string) {
	if !b.Supports(f) {
		panic(fmt.Sprintf("filtersql: %s is not supported by %s", what, b.dialect))
	}
}

func (b *baseVisitor) VisitTable(n *nodes.Table) string {
	if b.bareTables && quoting.IsBareIdentifier(n.Name) {
		return n.Name
	}
	return b.quoteIdent(n.Name)
}

func (b *baseVisitor) VisitAttribute(n *nodes.Attribute) string {
	if n.Relation == nil {
		return b.quoteIdent(n.Name)
	}
	return n.Relation.Accept(b.outer) + "." + b.quoteIdent(n.Name)
}

func (b *baseVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	// nil always renders as NULL keyword, never bound.
	if n.Value == nil {
		return "NULL"
	}
	return b.binder.Bind(n.Value)
}

func (b *baseVisitor) VisitStar(n *nodes.StarNode) string {
	if n.Table != nil {
		return n.Table.Accept(b.outer) + ".*"
	}
	return "*"
}

func (b *baseVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	return n.Raw
}

func (b *baseVisitor) VisitComparison(n *nodes.ComparisonNode) string {
	if n.Op == nodes.OpContains || n.Op == nodes.OpOverlaps {
		b.require(FeatureArrays, "array comparison")
	}
	left := n.Left.Accept(b.outer)
	right := n.Right.Accept(b.outer)
	return left + " " + comparisonOpSQL[n.Op] + " " + right
}

func (b *baseVisitor) VisitMatch(n *nodes.MatchNode) string {
	keyword := "LIKE"
	if b.Supports(FeatureILike) {
		keyword = "ILIKE"
	}
	var sb strings.Builder
	sb.WriteString(n.Expr.Accept(b.outer))
	sb.WriteString(" ")
	sb.WriteString(keyword)
	sb.WriteString(" ")
	sb.WriteString(n.Pattern.Accept(b.outer))
	if n.Escape != "" {
		sb.WriteString(" ESCAPE ")
		sb.WriteString(b.quoteString(n.Escape))
	}
	return sb.String()
}

func (b *baseVisitor) VisitDistance(n *nodes.DistanceNode) string {
	b.require(FeatureVectors, "vector distance")
	return n.Left.Accept(b.outer) + " " + distanceOpSQL[n.Metric] + " " + n.Right.Accept(b.outer)
}

func (b *baseVisitor) VisitUnary(n *nodes.UnaryNode) string {
	expr := n.Expr.Accept(b.outer)
	switch n.Op {
	case nodes.OpIsNull:
		return expr + " IS NULL"
	case nodes.OpIsNotNull:
		return expr + " IS NOT NULL"
	default:
		return expr
	}
}

func (b *baseVisitor) VisitAnd(n *nodes.AndNode) string {
	return b.join(n.Children, " AND ")
}

func (b *baseVisitor) VisitOr(n *nodes.OrNode) string {
	return b.join(n.Children, " OR ")
}

func (b *baseVisitor) join(children []nodes.Node, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.Accept(b.outer)
	}
	return strings.Join(parts, sep)
}

func (b *baseVisitor) VisitNot(n *nodes.NotNode) string {
	return "NOT (" + n.Expr.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitIn(n *nodes.InNode) string {
	expr := n.Expr.Accept(b.outer)
	keyword := "IN"
	if n.Negate {
		keyword = "NOT IN"
	}
	return expr + " " + keyword + " (" + b.join(n.Vals, ", ") + ")"
}

func (b *baseVisitor) VisitBetween(n *nodes.BetweenNode) string {
	expr := n.Expr.Accept(b.outer)
	low := n.Low.Accept(b.outer)
	high := n.High.Accept(b.outer)
	keyword := "BETWEEN"
	if n.Negate {
		keyword = "NOT BETWEEN"
	}
	return expr + " " + keyword + " " + low + " AND " + high
}

func (b *baseVisitor) VisitGrouping(n *nodes.GroupingNode) string {
	return "(" + n.Expr.Accept(b.outer) + ")"
}

// Aggregate function SQL names.
var aggregateFuncSQL = [...]string{
	nodes.AggCount: "COUNT",
}

func (b *baseVisitor) VisitAggregate(n *nodes.AggregateNode) string {
	if n.Expr == nil {
		return aggregateFuncSQL[n.Func] + "(*)"
	}
	return aggregateFuncSQL[n.Func] + "(" + n.Expr.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitSelectCore(n *nodes.SelectCore) string {
	var sb strings.Builder

	b.writeComment(&sb, n.Comment)
	sb.WriteString("SELECT ")
	b.writeProjections(&sb, n.Projections)
	b.writeNodeClause(&sb, " FROM ", n.From)
	b.writeClause(&sb, " WHERE ", n.Wheres, " AND ")
	b.writeNodeClause(&sb, " LIMIT ", n.Limit)
	b.writeNodeClause(&sb, " OFFSET ", n.Offset)

	return sb.String()
}

// writeClause writes "keyword item1 sep item2 sep ..." if items is non-empty.
func (b *baseVisitor) writeClause(sb *strings.Builder, keyword string, items []nodes.Node, sep string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(keyword)
	sb.WriteString(b.join(items, sep))
}

// writeNodeClause writes "keyword node" if node is non-nil.
func (b *baseVisitor) writeNodeClause(sb *strings.Builder, keyword string, n nodes.Node) {
	if n != nil {
		sb.WriteString(keyword)
		sb.WriteString(n.Accept(b.outer))
	}
}

func (b *baseVisitor) writeComment(sb *strings.Builder, comment string) {
	if comment != "" {
		sb.WriteString("/* ")
		sb.WriteString(strings.ReplaceAll(comment, "*/", "* /"))
		sb.WriteString(" */ ")
	}
}

func (b *baseVisitor) writeProjections(sb *strings.Builder, projections []nodes.Node) {
	if len(projections) == 0 {
		sb.WriteString("*")
		return
	}
	sb.WriteString(b.join(projections, ", "))
}

// New returns the visitor for dialect. Recognised names are "postgres"
// (alias "postgresql", "pg"), "mysql" and "sqlite" (alias "sqlite3").
func New(dialect string, opts ...Option) (Renderer, error) {
	switch strings.ToLower(dialect) {
	case "postgres", "postgresql", "pg", "":
		return NewPostgresVisitor(opts...), nil
	case "mysql":
		return NewMySQLVisitor(opts...), nil
	case "sqlite", "sqlite3":
		return NewSQLiteVisitor(opts...), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
}
