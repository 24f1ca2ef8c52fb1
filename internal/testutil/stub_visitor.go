// Package testutil provides shared test helpers for the filtersql project.
package testutil

import (
	"strings"

	"github.com/bawdo/filtersql/nodes"
)

// StubVisitor implements nodes.Visitor with minimal return values for testing.
// Methods return meaningful short strings to aid in test assertions.
type StubVisitor struct{}

var _ nodes.Visitor = StubVisitor{}

func (sv StubVisitor) VisitTable(n *nodes.Table) string         { return n.Name }
func (sv StubVisitor) VisitAttribute(n *nodes.Attribute) string { return n.Name }
func (sv StubVisitor) VisitLiteral(n *nodes.LiteralNode) string { return "lit" }
func (sv StubVisitor) VisitStar(n *nodes.StarNode) string       { return "*" }
func (sv StubVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	return n.Raw
}
func (sv StubVisitor) VisitComparison(n *nodes.ComparisonNode) string {
	return n.Left.Accept(sv) + "=?" + n.Right.Accept(sv)
}
func (sv StubVisitor) VisitMatch(n *nodes.MatchNode) string       { return "match" }
func (sv StubVisitor) VisitDistance(n *nodes.DistanceNode) string { return "distance" }
func (sv StubVisitor) VisitUnary(n *nodes.UnaryNode) string       { return "unary" }
func (sv StubVisitor) VisitAnd(n *nodes.AndNode) string           { return sv.join(n.Children, " and ") }
func (sv StubVisitor) VisitOr(n *nodes.OrNode) string             { return sv.join(n.Children, " or ") }
func (sv StubVisitor) VisitNot(n *nodes.NotNode) string           { return "not " + n.Expr.Accept(sv) }
func (sv StubVisitor) VisitIn(n *nodes.InNode) string             { return "in" }
func (sv StubVisitor) VisitBetween(n *nodes.BetweenNode) string   { return "between" }
func (sv StubVisitor) VisitGrouping(n *nodes.GroupingNode) string {
	return "(" + n.Expr.Accept(sv) + ")"
}
func (sv StubVisitor) VisitAggregate(n *nodes.AggregateNode) string { return "aggregate" }
func (sv StubVisitor) VisitSelectCore(n *nodes.SelectCore) string   { return "select_core" }

func (sv StubVisitor) join(children []nodes.Node, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.Accept(sv)
	}
	return strings.Join(parts, sep)
}

// StubParamVisitor implements nodes.Visitor and nodes.Parameterizer for testing.
type StubParamVisitor struct {
	StubVisitor
	params []any
}

var _ nodes.Visitor = (*StubParamVisitor)(nil)
var _ nodes.Parameterizer = (*StubParamVisitor)(nil)

func (sv *StubParamVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	sv.params = append(sv.params, n.Value)
	return "lit"
}

func (sv *StubParamVisitor) Params() []any { return sv.params }
func (sv *StubParamVisitor) Reset()        { sv.params = nil }
