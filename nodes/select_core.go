package nodes

// SelectCore represents the data container for a SELECT clause.
// The fluent API for building queries lives in the managers package.
type SelectCore struct {
	From        Node
	Projections []Node
	Wheres      []Node
	Limit       Node // nil or SqlLiteral
	Offset      Node // nil or SqlLiteral
	Comment     string
}

func (n *SelectCore) Accept(v Visitor) string { return v.VisitSelectCore(n) }
