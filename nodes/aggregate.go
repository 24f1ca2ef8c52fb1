package nodes

// AggregateFunc identifies the aggregate function.
type AggregateFunc int

const (
	AggCount AggregateFunc = iota
)

// AggregateNode represents an aggregate function call.
type AggregateNode struct {
	Func AggregateFunc
	Expr Node // argument (nil for COUNT(*))
}

func (n *AggregateNode) Accept(v Visitor) string { return v.VisitAggregate(n) }

// Count creates a COUNT aggregate. Pass nil for COUNT(*).
func Count(expr Node) *AggregateNode {
	return &AggregateNode{Func: AggCount, Expr: expr}
}
