package compiler

import (
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/internal/quoting"
	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/schema"
	"github.com/bawdo/filtersql/visitors"
)

// checkLeaf checks a shape-valid leaf against the allowlist, the column's
// kind and the dialect. It returns the column the leaf targets.
func (s *state) checkLeaf(l *filter.Leaf, path string) (*schema.Column, error) {
	col, ok := s.allow.Column(s.table, l.Field)
	if !ok {
		return nil, filter.Identifierf(filter.FieldPath(path, "field"), "unknown column %q on table %q", l.Field, s.table)
	}

	cat, _ := l.Op.Category()
	switch {
	case cat == filter.CategoryArray:
		if col.Kind != schema.KindArray {
			return nil, filter.Validationf(path, "%s needs an array column, %q is %s", l.Op, l.Field, col.Kind)
		}
		if !s.r.Supports(visitors.FeatureArrays) {
			return nil, filter.Unsupported(path, string(l.Op), "is not supported by "+s.r.Dialect())
		}
	case cat == filter.CategorySemantic:
		if _, ok := s.embeddingColumn(col); !ok {
			return nil, filter.Validationf(path, "semantic search is not available on %q", l.Field)
		}
		if !s.r.Supports(visitors.FeatureVectors) {
			return nil, filter.Unsupported(path, string(l.Op), "is not supported by "+s.r.Dialect())
		}
	case col.Kind == schema.KindVector && cat != filter.CategoryNone:
		return nil, filter.Validationf(path, "vector column %q only supports semantic and null checks", l.Field)
	}
	return col, nil
}

// embeddingColumn returns the vector column a semantic leaf on col compares
// against: col itself, or the embedding column of a text column.
func (s *state) embeddingColumn(col *schema.Column) (*schema.Column, bool) {
	if col.Kind == schema.KindVector {
		return col, true
	}
	if col.Embedding == "" {
		return nil, false
	}
	return s.allow.Column(s.table, col.Embedding)
}

// leaf turns one leaf condition into a predicate node. Every value is
// carried as a literal node so the visitor binds it.
func (s *state) leaf(l *filter.Leaf, path string) (nodes.Node, error) {
	col, err := s.checkLeaf(l, path)
	if err != nil {
		return nil, err
	}
	attr := nodes.Column(col.Name)

	switch v := l.Value.(type) {
	case filter.Scalar:
		switch l.Op {
		case filter.OpEq:
			return attr.Eq(v.Any()), nil
		case filter.OpNeq:
			return attr.NotEq(v.Any()), nil
		case filter.OpGt:
			return attr.Gt(v.Any()), nil
		case filter.OpGte:
			return attr.GtEq(v.Any()), nil
		case filter.OpLt:
			return attr.Lt(v.Any()), nil
		case filter.OpLte:
			return attr.LtEq(v.Any()), nil
		}
	case filter.Text:
		escaped := quoting.EscapeLikePattern(string(v))
		switch l.Op {
		case filter.OpContains:
			return attr.Matches("%"+escaped+"%", quoting.LikeEscapeChar), nil
		case filter.OpStartsWith:
			return attr.Matches(escaped+"%", quoting.LikeEscapeChar), nil
		case filter.OpEndsWith:
			return attr.Matches("%"+escaped, quoting.LikeEscapeChar), nil
		case filter.OpILike:
			return attr.Matches(escaped, quoting.LikeEscapeChar), nil
		}
	case filter.List:
		switch l.Op {
		case filter.OpIn:
			return attr.In(v.Any()...), nil
		case filter.OpNotIn:
			return attr.NotIn(v.Any()...), nil
		case filter.OpContainsAny:
			return attr.Overlaps(arrayValue(v)), nil
		case filter.OpContainsAll:
			return attr.Contains(arrayValue(v)), nil
		}
	case filter.None, nil:
		switch l.Op {
		case filter.OpIsNull:
			return attr.IsNull(), nil
		case filter.OpIsNotNull:
			return attr.IsNotNull(), nil
		}
	case filter.Bounds:
		switch l.Op {
		case filter.OpBetween:
			return attr.Between(v.From.Any(), v.To.Any()), nil
		case filter.OpNotBetween:
			return attr.NotBetween(v.From.Any(), v.To.Any()), nil
		case filter.OpRange:
			var sides []nodes.Node
			if v.From != nil {
				sides = append(sides, attr.GtEq(v.From.Any()))
			}
			if v.To != nil {
				sides = append(sides, attr.LtEq(v.To.Any()))
			}
			return nodes.NewAnd(sides...), nil
		}
	case filter.Semantic:
		return s.semantic(col, v, path)
	}
	return nil, filter.Assembly("no rendering for "+string(l.Op)+" at "+path, nil)
}

// arrayValue converts a homogeneous list into a typed slice so drivers
// encode it as one array parameter.
func arrayValue(l filter.List) any {
	if !l[0].IsNumber() {
		out := make([]string, len(l))
		for i, s := range l {
			out[i] = s.Any().(string)
		}
		return out
	}
	ints := make([]int64, 0, len(l))
	for _, s := range l {
		if s.Kind() != filter.ScalarInt {
			break
		}
		ints = append(ints, s.Any().(int64))
	}
	if len(ints) == len(l) {
		return ints
	}
	out := make([]float64, len(l))
	for i, s := range l {
		switch x := s.Any().(type) {
		case int64:
			out[i] = float64(x)
		case float64:
			out[i] = x
		}
	}
	return out
}
