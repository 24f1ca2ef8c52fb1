package nodes

// Attribute represents a column reference. Relation is nil for an
// unqualified column, which is how single-table filters render them.
type Attribute struct {
	Predications
	Name     string
	Relation Node // *Table or nil
}

// NewAttribute creates an Attribute with Predications properly initialized
// to reference the new Attribute as self.
func NewAttribute(relation Node, name string) *Attribute {
	a := &Attribute{Name: name, Relation: relation}
	a.Predications.self = a
	return a
}

// Column creates an unqualified column reference.
func Column(name string) *Attribute {
	return NewAttribute(nil, name)
}

func (a *Attribute) Accept(v Visitor) string { return v.VisitAttribute(a) }
