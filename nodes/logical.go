package nodes

// AndNode represents a logical AND across one or more expressions.
type AndNode struct {
	Children []Node
}

func (n *AndNode) Accept(v Visitor) string { return v.VisitAnd(n) }

// OrNode represents a logical OR across one or more expressions.
type OrNode struct {
	Children []Node
}

func (n *OrNode) Accept(v Visitor) string { return v.VisitOr(n) }

// NotNode represents a logical NOT of an expression.
type NotNode struct {
	Expr Node
}

func (n *NotNode) Accept(v Visitor) string { return v.VisitNot(n) }

// NewAnd chains children with AND, wrapped in a GroupingNode.
func NewAnd(children ...Node) *GroupingNode {
	return &GroupingNode{Expr: &AndNode{Children: children}}
}

// NewOr chains children with OR, wrapped in a GroupingNode.
func NewOr(children ...Node) *GroupingNode {
	return &GroupingNode{Expr: &OrNode{Children: children}}
}

// NewNot negates expr.
func NewNot(expr Node) *NotNode {
	return &NotNode{Expr: expr}
}
