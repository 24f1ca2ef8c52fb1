package nodes

// Table represents a SQL table reference.
type Table struct {
	Name string
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Accept(v Visitor) string { return v.VisitTable(t) }

// Col creates an Attribute (column reference) bound to this table.
func (t *Table) Col(name string) *Attribute {
	return NewAttribute(t, name)
}

// Star creates a qualified star (table.*) for this table.
func (t *Table) Star() *StarNode {
	return &StarNode{Table: t}
}

// RelationName returns the name associated with a relation node, or "" for
// anything that is not a table.
func RelationName(n Node) string {
	if r, ok := n.(*Table); ok {
		return r.Name
	}
	return ""
}
