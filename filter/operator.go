package filter

import "sort"

// Operator is a leaf condition operator as it appears on the wire.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpILike       Operator = "ilike"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpIsNull      Operator = "is_null"
	OpIsNotNull   Operator = "is_not_null"
	OpBetween     Operator = "between"
	OpNotBetween  Operator = "not_between"
	OpRange       Operator = "range"
	OpContainsAny Operator = "contains_any"
	OpContainsAll Operator = "contains_all"
	OpSemantic    Operator = "semantic"
)

// Category is the value shape an operator requires.
type Category int

const (
	CategoryScalar Category = iota + 1
	CategoryText
	CategoryList
	CategoryArray
	CategoryNone
	CategoryBounds
	CategoryRange
	CategorySemantic
)

var operatorCategories = map[Operator]Category{
	OpEq:          CategoryScalar,
	OpNeq:         CategoryScalar,
	OpGt:          CategoryScalar,
	OpGte:         CategoryScalar,
	OpLt:          CategoryScalar,
	OpLte:         CategoryScalar,
	OpContains:    CategoryText,
	OpStartsWith:  CategoryText,
	OpEndsWith:    CategoryText,
	OpILike:       CategoryText,
	OpIn:          CategoryList,
	OpNotIn:       CategoryList,
	OpIsNull:      CategoryNone,
	OpIsNotNull:   CategoryNone,
	OpBetween:     CategoryBounds,
	OpNotBetween:  CategoryBounds,
	OpRange:       CategoryRange,
	OpContainsAny: CategoryArray,
	OpContainsAll: CategoryArray,
	OpSemantic:    CategorySemantic,
}

// Category returns the value shape op requires. ok is false for operators
// that are not leaf operators.
func (op Operator) Category() (c Category, ok bool) {
	c, ok = operatorCategories[op]
	return c, ok
}

// Valid reports whether op is a known leaf operator.
func (op Operator) Valid() bool {
	_, ok := operatorCategories[op]
	return ok
}

// Operators returns every leaf operator in lexical order.
func Operators() []Operator {
	ops := make([]Operator, 0, len(operatorCategories))
	for op := range operatorCategories {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// BoolOp combines child conditions.
type BoolOp string

const (
	And BoolOp = "and"
	Or  BoolOp = "or"
	Not BoolOp = "not"
)

// Valid reports whether b is and, or, or not.
func (b BoolOp) Valid() bool {
	return b == And || b == Or || b == Not
}

func (c Category) String() string {
	switch c {
	case CategoryScalar:
		return "a number or string"
	case CategoryText:
		return "a string"
	case CategoryList:
		return "a non-empty list of numbers or strings"
	case CategoryArray:
		return "a non-empty list of numbers or strings of one type"
	case CategoryNone:
		return "no value"
	case CategoryBounds:
		return `an object with "from" and "to"`
	case CategoryRange:
		return `an object with "from" and/or "to"`
	case CategorySemantic:
		return `an object with "query" and optional "threshold"`
	}
	return "unknown"
}
