package nodes

// MatchNode represents a pattern match with an explicit escape character:
// Expr ILIKE Pattern ESCAPE '\'. Dialects without ILIKE render a
// case-insensitive LIKE instead.
type MatchNode struct {
	Expr    Node
	Pattern Node
	Escape  string
}

func (n *MatchNode) Accept(v Visitor) string { return v.VisitMatch(n) }

// DistanceMetric selects the vector distance operator.
type DistanceMetric int

const (
	Cosine DistanceMetric = iota
	Euclidean
	InnerProduct
)

// DistanceNode represents a vector distance between two expressions,
// e.g. "embedding" <=> $1.
type DistanceNode struct {
	Predications
	Left   Node
	Right  Node
	Metric DistanceMetric
}

func (n *DistanceNode) Accept(v Visitor) string { return v.VisitDistance(n) }

// NewDistanceNode creates a DistanceNode with Predications initialised so that
// a threshold can be chained: NewDistanceNode(col, vec, Cosine).LtEq(0.3).
func NewDistanceNode(left, right Node, metric DistanceMetric) *DistanceNode {
	n := &DistanceNode{Left: left, Right: right, Metric: metric}
	n.Predications.self = n
	return n
}
