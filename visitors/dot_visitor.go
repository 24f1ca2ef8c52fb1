package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/filtersql/nodes"
)

// Color constants for DOT node categories.
const (
	colorTable      = "#6CA6CD" // blue: tables, select cores
	colorAttribute  = "#B0D4E8" // light blue: attributes, stars
	colorComparison = "#FFB347" // orange: comparisons, predicates
	colorLogical    = "#FFEB80" // yellow: AND, OR, NOT, grouping
	colorLiteral    = "#D3D3D3" // grey: literals, values
	colorVector     = "#CDA0E0" // purple: vector distance
	colorFunction   = "#87CEEB" // sky blue: aggregates
)

// dotNode represents a single node in the DOT graph.
type dotNode struct {
	id    string
	label string
	color string
}

// dotEdge represents a directed edge between two nodes in the DOT graph.
type dotEdge struct {
	from  string
	to    string
	label string
}

// DotVisitor walks the AST and produces Graphviz DOT output.
// It implements nodes.Visitor.
type DotVisitor struct {
	nextID    int
	nodes     []dotNode
	edges     []dotEdge
	parentID  string
	edgeLabel string
}

var _ nodes.Visitor = (*DotVisitor)(nil)

// NewDotVisitor creates a new DotVisitor ready to walk an AST.
func NewDotVisitor() *DotVisitor {
	return &DotVisitor{}
}

// addNode creates a new DOT node with the given label and color, returning its ID.
func (dv *DotVisitor) addNode(label, color string) string {
	id := fmt.Sprintf("n%d", dv.nextID)
	dv.nextID++
	dv.nodes = append(dv.nodes, dotNode{id: id, label: label, color: color})
	dv.connectToParent(id)
	return id
}

// visitChild saves and restores the parent context, sets the edge label,
// and calls child.Accept to recursively visit the child node.
func (dv *DotVisitor) visitChild(parentID, label string, child nodes.Node) string {
	savedParent := dv.parentID
	savedLabel := dv.edgeLabel
	dv.parentID = parentID
	dv.edgeLabel = label
	result := child.Accept(dv)
	dv.parentID = savedParent
	dv.edgeLabel = savedLabel
	return result
}

// visitChildList visits a slice of nodes as indexed children (e.g. "SELECT[0]", "SELECT[1]").
func (dv *DotVisitor) visitChildList(parentID, prefix string, items []nodes.Node) {
	for i, item := range items {
		dv.visitChild(parentID, fmt.Sprintf("%s[%d]", prefix, i), item)
	}
}

// connectToParent adds an edge from the current parentID to nodeID if a parent exists.
func (dv *DotVisitor) connectToParent(nodeID string) {
	if dv.parentID != "" {
		dv.edges = append(dv.edges, dotEdge{from: dv.parentID, to: nodeID, label: dv.edgeLabel})
	}
}

// NodeCount returns the number of nodes accumulated so far.
func (dv *DotVisitor) NodeCount() int {
	return len(dv.nodes)
}

// ToDot generates the complete DOT graph text.
func (dv *DotVisitor) ToDot() string {
	var sb strings.Builder

	sb.WriteString("digraph AST {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	for _, n := range dv.nodes {
		fmt.Fprintf(&sb, "  %s [label=\"%s\", fillcolor=\"%s\"];\n", n.id, escapeLabel(n.label), n.color)
	}
	for _, e := range dv.edges {
		if e.label != "" {
			fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", e.from, e.to, e.label)
		} else {
			fmt.Fprintf(&sb, "  %s -> %s;\n", e.from, e.to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// escapeLabel escapes double quotes in DOT labels.
// Backslash sequences like \n are intentional DOT line breaks and are preserved.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// --- Visitor interface implementation ---

func (dv *DotVisitor) VisitTable(n *nodes.Table) string {
	return dv.addNode("Table\\n"+n.Name, colorTable)
}

func (dv *DotVisitor) VisitAttribute(n *nodes.Attribute) string {
	label := "Attribute\\n"
	if q := nodes.RelationName(n.Relation); q != "" {
		label += q + "."
	}
	return dv.addNode(label+n.Name, colorAttribute)
}

// literalLabel keeps long values such as embedding vectors readable.
func literalLabel(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}

func (dv *DotVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	return dv.addNode("Literal\\n"+literalLabel(n.Value), colorLiteral)
}

func (dv *DotVisitor) VisitStar(n *nodes.StarNode) string {
	if n.Table != nil {
		return dv.addNode("Star\\n"+n.Table.Name+".*", colorAttribute)
	}
	return dv.addNode("Star\\n*", colorAttribute)
}

func (dv *DotVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	return dv.addNode("SqlLiteral\\n"+n.Raw, colorLiteral)
}

func (dv *DotVisitor) VisitComparison(n *nodes.ComparisonNode) string {
	id := dv.addNode("Comparison\\n"+comparisonOpSQL[n.Op], colorComparison)
	dv.visitChild(id, "LEFT", n.Left)
	dv.visitChild(id, "RIGHT", n.Right)
	return id
}

func (dv *DotVisitor) VisitMatch(n *nodes.MatchNode) string {
	id := dv.addNode("Match\\nESCAPE "+n.Escape, colorComparison)
	dv.visitChild(id, "EXPR", n.Expr)
	dv.visitChild(id, "PATTERN", n.Pattern)
	return id
}

func (dv *DotVisitor) VisitDistance(n *nodes.DistanceNode) string {
	id := dv.addNode("Distance\\n"+distanceOpSQL[n.Metric], colorVector)
	dv.visitChild(id, "LEFT", n.Left)
	dv.visitChild(id, "RIGHT", n.Right)
	return id
}

func (dv *DotVisitor) VisitUnary(n *nodes.UnaryNode) string {
	label := "Unary"
	switch n.Op {
	case nodes.OpIsNull:
		label = "Unary\\nIS NULL"
	case nodes.OpIsNotNull:
		label = "Unary\\nIS NOT NULL"
	}
	id := dv.addNode(label, colorComparison)
	dv.visitChild(id, "EXPR", n.Expr)
	return id
}

func (dv *DotVisitor) VisitAnd(n *nodes.AndNode) string {
	id := dv.addNode("AND", colorLogical)
	dv.visitChildList(id, "CHILD", n.Children)
	return id
}

func (dv *DotVisitor) VisitOr(n *nodes.OrNode) string {
	id := dv.addNode("OR", colorLogical)
	dv.visitChildList(id, "CHILD", n.Children)
	return id
}

func (dv *DotVisitor) VisitNot(n *nodes.NotNode) string {
	id := dv.addNode("NOT", colorLogical)
	dv.visitChild(id, "EXPR", n.Expr)
	return id
}

func (dv *DotVisitor) VisitIn(n *nodes.InNode) string {
	label := "IN"
	if n.Negate {
		label = "NOT IN"
	}
	id := dv.addNode(label, colorComparison)
	dv.visitChild(id, "EXPR", n.Expr)
	dv.visitChildList(id, "VAL", n.Vals)
	return id
}

func (dv *DotVisitor) VisitBetween(n *nodes.BetweenNode) string {
	label := "BETWEEN"
	if n.Negate {
		label = "NOT BETWEEN"
	}
	id := dv.addNode(label, colorComparison)
	dv.visitChild(id, "EXPR", n.Expr)
	dv.visitChild(id, "LOW", n.Low)
	dv.visitChild(id, "HIGH", n.High)
	return id
}

func (dv *DotVisitor) VisitGrouping(n *nodes.GroupingNode) string {
	id := dv.addNode("Grouping\\n( )", colorLogical)
	dv.visitChild(id, "EXPR", n.Expr)
	return id
}

func (dv *DotVisitor) VisitAggregate(n *nodes.AggregateNode) string {
	id := dv.addNode("Aggregate\\n"+aggregateFuncSQL[n.Func], colorFunction)
	if n.Expr != nil {
		dv.visitChild(id, "EXPR", n.Expr)
	}
	return id
}

func (dv *DotVisitor) VisitSelectCore(n *nodes.SelectCore) string {
	id := dv.addNode("SelectCore", colorTable)

	if n.Comment != "" {
		dv.visitChild(id, "COMMENT", nodes.NewSqlLiteral(n.Comment))
	}
	if n.From != nil {
		dv.visitChild(id, "FROM", n.From)
	}
	dv.visitChildList(id, "SELECT", n.Projections)
	dv.visitChildList(id, "WHERE", n.Wheres)
	if n.Limit != nil {
		dv.visitChild(id, "LIMIT", n.Limit)
	}
	if n.Offset != nil {
		dv.visitChild(id, "OFFSET", n.Offset)
	}
	return id
}
