package nodes

// Predications provides comparison methods to types that embed it.
// The self field must be set to the embedding node so that comparisons
// reference the correct left-hand side.
type Predications struct {
	self Node
}

// Eq creates an equality comparison: self = val.
func (p Predications) Eq(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpEq)
}

// NotEq creates an inequality comparison: self <> val.
func (p Predications) NotEq(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpNotEq)
}

// Gt creates a greater-than comparison: self > val.
func (p Predications) Gt(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpGt)
}

// GtEq creates a greater-than-or-equal comparison: self >= val.
func (p Predications) GtEq(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpGtEq)
}

// Lt creates a less-than comparison: self < val.
func (p Predications) Lt(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpLt)
}

// LtEq creates a less-than-or-equal comparison: self <= val.
func (p Predications) LtEq(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpLtEq)
}

// Matches creates a case-insensitive pattern match with an explicit
// escape character. The pattern must already be escaped.
func (p Predications) Matches(pattern any, escape string) *MatchNode {
	return &MatchNode{Expr: p.self, Pattern: Literal(pattern), Escape: escape}
}

// In creates an IN predicate: self IN (vals...).
func (p Predications) In(vals ...any) *InNode {
	return &InNode{Expr: p.self, Vals: wrapAll(vals)}
}

// NotIn creates a NOT IN predicate: self NOT IN (vals...).
func (p Predications) NotIn(vals ...any) *InNode {
	return &InNode{Expr: p.self, Vals: wrapAll(vals), Negate: true}
}

// Between creates a BETWEEN predicate: self BETWEEN low AND high.
func (p Predications) Between(low, high any) *BetweenNode {
	return &BetweenNode{Expr: p.self, Low: Literal(low), High: Literal(high)}
}

// NotBetween creates a NOT BETWEEN predicate: self NOT BETWEEN low AND high.
func (p Predications) NotBetween(low, high any) *BetweenNode {
	return &BetweenNode{Expr: p.self, Low: Literal(low), High: Literal(high), Negate: true}
}

// Contains creates an array containment operator: self @> val.
func (p Predications) Contains(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpContains)
}

// Overlaps creates an array overlap operator: self && val.
func (p Predications) Overlaps(val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), OpOverlaps)
}

// Distance creates a vector distance expression: self <=> val for Cosine.
func (p Predications) Distance(val any, metric DistanceMetric) *DistanceNode {
	return NewDistanceNode(p.self, Literal(val), metric)
}

// IsNull creates an IS NULL predicate.
func (p Predications) IsNull() *UnaryNode {
	return &UnaryNode{Expr: p.self, Op: OpIsNull}
}

// IsNotNull creates an IS NOT NULL predicate.
func (p Predications) IsNotNull() *UnaryNode {
	return &UnaryNode{Expr: p.self, Op: OpIsNotNull}
}

func wrapAll(vals []any) []Node {
	wrapped := make([]Node, len(vals))
	for i, v := range vals {
		wrapped[i] = Literal(v)
	}
	return wrapped
}
