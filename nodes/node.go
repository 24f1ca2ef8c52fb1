// Package nodes defines the AST node types used to represent SQL query elements.
//
// The tree covers exactly what a filtered, paginated single-table read needs:
// a relation, column references, bound literals, predicates and their boolean
// combinations, and a select core that can carry either a projection list or
// a COUNT(*) aggregate.
package nodes

// Node is the interface that all AST nodes implement.
type Node interface {
	Accept(visitor Visitor) string
}

// Visitor defines the interface for walking the AST and producing output.
// Concrete visitors (e.g., Postgres, MySQL) implement this interface.
type Visitor interface {
	VisitTable(node *Table) string
	VisitAttribute(node *Attribute) string
	VisitLiteral(node *LiteralNode) string
	VisitStar(node *StarNode) string
	VisitSqlLiteral(node *SqlLiteral) string
	VisitComparison(node *ComparisonNode) string
	VisitMatch(node *MatchNode) string
	VisitDistance(node *DistanceNode) string
	VisitUnary(node *UnaryNode) string
	VisitAnd(node *AndNode) string
	VisitOr(node *OrNode) string
	VisitNot(node *NotNode) string
	VisitIn(node *InNode) string
	VisitBetween(node *BetweenNode) string
	VisitGrouping(node *GroupingNode) string
	VisitAggregate(node *AggregateNode) string
	VisitSelectCore(node *SelectCore) string
}

// Parameterizer is implemented by visitors that collect bind parameters.
// Callers use type assertion to extract collected parameters after SQL generation.
type Parameterizer interface {
	Params() []any
	Reset()
}

// Literal wraps a raw Go value into a LiteralNode. If val already
// implements Node, it is returned as-is.
func Literal(val any) Node {
	if n, ok := val.(Node); ok {
		return n
	}
	lit := &LiteralNode{Value: val}
	lit.Predications.self = lit
	return lit
}
