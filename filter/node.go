// Package filter defines the filter tree that callers send: leaf conditions
// (field, operator, value) combined by and, or and not.
//
// The tree is decoded from JSON with Decode and encoded back with Encode.
// Decoding checks the shape of every node and reports failures as *Error
// values that carry the offending node's path.
package filter

import (
	"fmt"
	"math"
	"strings"
)

// Node is a filter tree node: a *Leaf or a *Group.
type Node interface {
	isNode()
	// Validate checks this node, not its children.
	Validate(path string) error
}

// Leaf is a single field/operator/value test.
type Leaf struct {
	Field string
	Op    Operator
	Value Value
}

func (*Leaf) isNode() {}

// NewLeaf returns a leaf condition.
func NewLeaf(field string, op Operator, value Value) *Leaf {
	return &Leaf{Field: field, Op: op, Value: value}
}

// Group combines its children with Op.
type Group struct {
	Op       BoolOp
	Children []Node
}

func (*Group) isNode() {}

// NewAnd returns an and group.
func NewAnd(children ...Node) *Group { return &Group{Op: And, Children: children} }

// NewOr returns an or group.
func NewOr(children ...Node) *Group { return &Group{Op: Or, Children: children} }

// NewNot returns a not group over child.
func NewNot(child Node) *Group { return &Group{Op: Not, Children: []Node{child}} }

// Validate checks the group's operator and arity.
func (g *Group) Validate(path string) error {
	if err := checkArity(g.Op, len(g.Children), path); err != nil {
		return err
	}
	for i, c := range g.Children {
		if c == nil {
			return Validationf(ChildPath(path, i), "child is null")
		}
	}
	return nil
}

func checkArity(op BoolOp, n int, path string) error {
	switch op {
	case Not:
		if n != 1 {
			return Validationf(path, "not takes exactly one child, got %d", n)
		}
	case And, Or:
		if n == 0 {
			return Validationf(path, "%s needs at least one child", op)
		}
	default:
		return Unsupported(path, string(op), "is not a boolean operator")
	}
	return nil
}

// Validate checks that the value variant matches what the operator needs.
func (l *Leaf) Validate(path string) error {
	if strings.TrimSpace(l.Field) == "" {
		return Validationf(FieldPath(path, "field"), "field is required")
	}
	cat, ok := l.Op.Category()
	if !ok {
		return Unsupported(path, string(l.Op), "")
	}
	vp := FieldPath(path, "value")
	mismatch := func() error {
		return Validationf(vp, "%s expects %s", l.Op, cat)
	}

	switch cat {
	case CategoryScalar:
		s, ok := l.Value.(Scalar)
		if !ok {
			return mismatch()
		}
		if err := s.valid(); err != nil {
			return Validationf(vp, "%v", err)
		}
	case CategoryText:
		if _, ok := l.Value.(Text); !ok {
			return mismatch()
		}
	case CategoryList, CategoryArray:
		list, ok := l.Value.(List)
		if !ok || len(list) == 0 {
			return mismatch()
		}
		for i, s := range list {
			if err := s.valid(); err != nil {
				return Validationf(IndexPath(vp, i), "%v", err)
			}
			if cat == CategoryArray && s.IsNumber() != list[0].IsNumber() {
				return Validationf(IndexPath(vp, i), "%s elements must all be numbers or all be strings", l.Op)
			}
		}
	case CategoryNone:
		if _, ok := l.Value.(None); !ok && l.Value != nil {
			return Validationf(vp, "%s takes no value", l.Op)
		}
	case CategoryBounds, CategoryRange:
		b, ok := l.Value.(Bounds)
		if !ok {
			return mismatch()
		}
		if cat == CategoryBounds {
			if b.From == nil {
				return Validationf(FieldPath(vp, "from"), "%s requires from", l.Op)
			}
			if b.To == nil {
				return Validationf(FieldPath(vp, "to"), "%s requires to", l.Op)
			}
		} else if b.From == nil && b.To == nil {
			return Validationf(vp, "range requires from or to")
		}
		for _, side := range []struct {
			name string
			s    *Scalar
		}{{"from", b.From}, {"to", b.To}} {
			if side.s == nil {
				continue
			}
			if err := side.s.valid(); err != nil {
				return Validationf(FieldPath(vp, side.name), "%v", err)
			}
		}
	case CategorySemantic:
		s, ok := l.Value.(Semantic)
		if !ok {
			return mismatch()
		}
		if strings.TrimSpace(s.Query) == "" {
			return Validationf(FieldPath(vp, "query"), "query is required")
		}
		if t := s.Threshold; t != nil && (math.IsNaN(*t) || math.IsInf(*t, 0) || *t < 0) {
			return Validationf(FieldPath(vp, "threshold"), "threshold must be a finite, non-negative number")
		}
	}
	return nil
}

// Walk calls fn for n and then for each descendant in depth-first order.
// The root has depth 1. Walk stops at the first error fn returns.
func Walk(n Node, fn func(n Node, path string, depth int) error) error {
	return walk(n, Root, 1, fn)
}

func walk(n Node, path string, depth int, fn func(Node, string, int) error) error {
	if err := fn(n, path, depth); err != nil {
		return err
	}
	if g, ok := n.(*Group); ok {
		for i, c := range g.Children {
			if c == nil {
				continue
			}
			if err := walk(c, ChildPath(path, i), depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks every node of the tree rooted at n, rejecting trees that
// nest deeper than maxDepth (unbounded when maxDepth <= 0).
func Validate(n Node, maxDepth int) error {
	if n == nil {
		return Validationf(Root, "filter tree is null")
	}
	return Walk(n, func(n Node, path string, depth int) error {
		if maxDepth > 0 && depth > maxDepth {
			return Validationf(path, "filter tree nests deeper than %d levels", maxDepth)
		}
		return n.Validate(path)
	})
}

// Format renders the tree in a compact, human readable form.
func Format(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case *Leaf:
		fmt.Fprintf(sb, "%s %s", x.Field, x.Op)
		switch v := x.Value.(type) {
		case Scalar:
			sb.WriteString(" " + v.String())
		case Text:
			fmt.Fprintf(sb, " %q", string(v))
		case List:
			parts := make([]string, len(v))
			for i, s := range v {
				parts[i] = s.String()
			}
			sb.WriteString(" [" + strings.Join(parts, ", ") + "]")
		case Bounds:
			sb.WriteString(" " + boundString(v.From) + ".." + boundString(v.To))
		case Semantic:
			fmt.Fprintf(sb, " %q <= %g", v.Query, v.Limit())
		}
	case *Group:
		if x.Op == Not && len(x.Children) == 1 {
			sb.WriteString("not (")
			writeNode(sb, x.Children[0])
			sb.WriteString(")")
			return
		}
		sb.WriteString("(")
		for i, c := range x.Children {
			if i > 0 {
				sb.WriteString(" " + string(x.Op) + " ")
			}
			writeNode(sb, c)
		}
		sb.WriteString(")")
	case nil:
		sb.WriteString("null")
	}
}

func boundString(s *Scalar) string {
	if s == nil {
		return ""
	}
	return s.String()
}
