package compiler

import (
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/nodes"
)

// compose turns a filter tree into a predicate. Groups are parenthesized,
// not is rendered as NOT (child). Depth is bounded by the compiler's
// max depth.
func (s *state) compose(n filter.Node, path string, depth int) (nodes.Node, error) {
	if depth > s.c.maxDepth {
		return nil, filter.Validationf(path, "filter tree nests deeper than %d levels", s.c.maxDepth)
	}
	if n == nil {
		return nil, filter.Validationf(path, "node is null")
	}
	if err := n.Validate(path); err != nil {
		return nil, err
	}

	switch x := n.(type) {
	case *filter.Leaf:
		s.leaves++
		return s.leaf(x, path)
	case *filter.Group:
		children := make([]nodes.Node, len(x.Children))
		for i, c := range x.Children {
			child, err := s.compose(c, filter.ChildPath(path, i), depth+1)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		switch x.Op {
		case filter.Not:
			return nodes.NewNot(children[0]), nil
		case filter.And:
			return nodes.NewAnd(children...), nil
		case filter.Or:
			return nodes.NewOr(children...), nil
		}
	}
	return nil, filter.Validationf(path, "unknown node type %T", n)
}

// check walks the tree once before any embedding call so that shape,
// identifier and dialect errors never cost a provider round trip.
func (s *state) check(root filter.Node) error {
	if err := filter.Validate(root, s.c.maxDepth); err != nil {
		return err
	}
	return filter.Walk(root, func(n filter.Node, path string, _ int) error {
		if l, ok := n.(*filter.Leaf); ok {
			_, err := s.checkLeaf(l, path)
			return err
		}
		return nil
	})
}
