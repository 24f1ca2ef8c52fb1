package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the operand of a leaf condition. Each operator category has its
// own variant: Scalar, Text, List, None, Bounds or Semantic.
type Value interface {
	isValue()
}

// ScalarKind tells which Go type a Scalar holds.
type ScalarKind int

const (
	ScalarString ScalarKind = iota + 1
	ScalarInt
	ScalarFloat
)

// Scalar is a string or numeric literal. The zero Scalar is invalid.
type Scalar struct {
	kind ScalarKind
	s    string
	i    int64
	f    float64
}

// String returns a string Scalar.
func String(s string) Scalar { return Scalar{kind: ScalarString, s: s} }

// Int returns an integer Scalar.
func Int(i int64) Scalar { return Scalar{kind: ScalarInt, i: i} }

// Float returns a floating point Scalar.
func Float(f float64) Scalar { return Scalar{kind: ScalarFloat, f: f} }

// ScalarOf converts a Go string, integer or float to a Scalar.
func ScalarOf(v any) (Scalar, error) {
	switch x := v.(type) {
	case Scalar:
		return x, nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Scalar{}, fmt.Errorf("number %q: %w", x.String(), err)
		}
		return Float(f), nil
	}
	return Scalar{}, fmt.Errorf("expected a number or string, got %s", typeName(v))
}

func (Scalar) isValue() {}

// Kind returns the scalar's kind, 0 for the zero Scalar.
func (s Scalar) Kind() ScalarKind { return s.kind }

// IsNumber reports whether s holds an integer or a float.
func (s Scalar) IsNumber() bool { return s.kind == ScalarInt || s.kind == ScalarFloat }

// Any returns the held value as string, int64 or float64.
func (s Scalar) Any() any {
	switch s.kind {
	case ScalarString:
		return s.s
	case ScalarInt:
		return s.i
	case ScalarFloat:
		return s.f
	}
	return nil
}

func (s Scalar) String() string {
	switch s.kind {
	case ScalarString:
		return strconv.Quote(s.s)
	case ScalarInt:
		return strconv.FormatInt(s.i, 10)
	case ScalarFloat:
		return formatFloat(s.f)
	}
	return "<invalid>"
}

func (s Scalar) valid() error {
	switch s.kind {
	case ScalarString, ScalarInt:
		return nil
	case ScalarFloat:
		if math.IsNaN(s.f) || math.IsInf(s.f, 0) {
			return fmt.Errorf("number must be finite")
		}
		return nil
	}
	return fmt.Errorf("expected a number or string")
}

// MarshalJSON keeps floats distinguishable from integers so a decoded tree
// re-encodes to the same variant.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case ScalarString:
		return json.Marshal(s.s)
	case ScalarInt:
		return []byte(strconv.FormatInt(s.i, 10)), nil
	case ScalarFloat:
		if err := s.valid(); err != nil {
			return nil, err
		}
		return []byte(formatFloat(s.f)), nil
	}
	return nil, fmt.Errorf("filter: cannot encode an empty scalar")
}

func formatFloat(f float64) string {
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(out, ".eEn") {
		out += ".0"
	}
	return out
}

// Text is the operand of the pattern operators.
type Text string

func (Text) isValue() {}

// List is the operand of in, not_in, contains_any and contains_all.
type List []Scalar

func (List) isValue() {}

// Any returns the elements as plain Go values.
func (l List) Any() []any {
	out := make([]any, len(l))
	for i, s := range l {
		out[i] = s.Any()
	}
	return out
}

// None is the operand of is_null and is_not_null.
type None struct{}

func (None) isValue() {}

// Bounds is the operand of between, not_between and range.
type Bounds struct {
	From *Scalar `json:"from,omitempty"`
	To   *Scalar `json:"to,omitempty"`
}

func (Bounds) isValue() {}

// DefaultThreshold is the distance limit used when a semantic condition
// leaves it out.
const DefaultThreshold = 0.7

// Semantic is the operand of the semantic operator.
type Semantic struct {
	Query     string   `json:"query"`
	Threshold *float64 `json:"threshold,omitempty"`
}

func (Semantic) isValue() {}

// Limit returns the threshold, or DefaultThreshold when unset.
func (s Semantic) Limit() float64 {
	if s.Threshold == nil {
		return DefaultThreshold
	}
	return *s.Threshold
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case json.Number, float64, int, int64:
		return "a number"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
