package nodes

// ComparisonOp represents a binary comparison operator.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNotEq
	OpGt
	OpGtEq
	OpLt
	OpLtEq
	OpContains
	OpOverlaps
)

// ComparisonNode represents a binary comparison: Left Op Right.
type ComparisonNode struct {
	Left  Node
	Right Node
	Op    ComparisonOp
}

func (n *ComparisonNode) Accept(v Visitor) string { return v.VisitComparison(n) }

// NewComparisonNode creates a ComparisonNode.
func NewComparisonNode(left, right Node, op ComparisonOp) *ComparisonNode {
	return &ComparisonNode{Left: left, Right: right, Op: op}
}
