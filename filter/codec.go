package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
)

// DefaultMaxDepth bounds how deeply Decode lets groups nest.
const DefaultMaxDepth = 32

// Decode parses a JSON filter tree.
func Decode(data []byte) (Node, error) {
	return DecodeDepth(data, DefaultMaxDepth)
}

// DecodeDepth parses a JSON filter tree, rejecting trees nested deeper than
// maxDepth levels. maxDepth <= 0 disables the check.
func DecodeDepth(data []byte, maxDepth int) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Kind: KindValidation, Path: Root, Msg: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, Validationf(Root, "unexpected data after filter tree")
	}
	return DecodeValue(raw, maxDepth)
}

// DecodeValue converts an already parsed JSON document (as produced by a
// json.Decoder with UseNumber) into a filter tree.
func DecodeValue(raw any, maxDepth int) (Node, error) {
	d := decoder{maxDepth: maxDepth}
	return d.node(raw, Root, 1)
}

type decoder struct {
	maxDepth int
}

func (d decoder) node(raw any, path string, depth int) (Node, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, Validationf(path, "expected an object, got %s", typeName(raw))
	}
	if d.maxDepth > 0 && depth > d.maxDepth {
		return nil, Validationf(path, "filter tree nests deeper than %d levels", d.maxDepth)
	}

	opRaw, ok := obj["op"]
	if !ok {
		return nil, Validationf(FieldPath(path, "op"), "op is required")
	}
	op, ok := opRaw.(string)
	if !ok {
		return nil, Validationf(FieldPath(path, "op"), "op must be a string, got %s", typeName(opRaw))
	}

	if BoolOp(op).Valid() {
		return d.group(obj, BoolOp(op), path, depth)
	}
	if Operator(op).Valid() {
		return d.leaf(obj, Operator(op), path)
	}
	return nil, Unsupported(path, op, "")
}

func (d decoder) group(obj map[string]any, op BoolOp, path string, depth int) (Node, error) {
	if err := onlyKeys(obj, path, "op", "children"); err != nil {
		return nil, err
	}
	raw, ok := obj["children"]
	if !ok {
		return nil, Validationf(FieldPath(path, "children"), "%s requires children", op)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, Validationf(FieldPath(path, "children"), "children must be a list, got %s", typeName(raw))
	}

	if err := checkArity(op, len(list), path); err != nil {
		return nil, err
	}
	g := &Group{Op: op, Children: make([]Node, 0, len(list))}
	for i, c := range list {
		child, err := d.node(c, ChildPath(path, i), depth+1)
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, child)
	}
	if err := g.Validate(path); err != nil {
		return nil, err
	}
	return g, nil
}

func (d decoder) leaf(obj map[string]any, op Operator, path string) (Node, error) {
	if err := onlyKeys(obj, path, "field", "op", "value"); err != nil {
		return nil, err
	}
	fieldRaw, ok := obj["field"]
	if !ok {
		return nil, Validationf(FieldPath(path, "field"), "field is required")
	}
	field, ok := fieldRaw.(string)
	if !ok {
		return nil, Validationf(FieldPath(path, "field"), "field must be a string, got %s", typeName(fieldRaw))
	}

	cat, _ := op.Category()
	rawValue, has := obj["value"]
	value, err := decodeValue(cat, op, rawValue, has, FieldPath(path, "value"))
	if err != nil {
		return nil, err
	}

	l := &Leaf{Field: field, Op: op, Value: value}
	if err := l.Validate(path); err != nil {
		return nil, err
	}
	return l, nil
}

func decodeValue(cat Category, op Operator, raw any, has bool, path string) (Value, error) {
	if cat == CategoryNone {
		if has && raw != nil {
			return nil, Validationf(path, "%s takes no value", op)
		}
		return None{}, nil
	}
	if !has || raw == nil {
		return nil, Validationf(path, "%s expects %s", op, cat)
	}

	switch cat {
	case CategoryScalar:
		s, err := ScalarOf(raw)
		if err != nil {
			return nil, Validationf(path, "%v", err)
		}
		return s, nil
	case CategoryText:
		s, ok := raw.(string)
		if !ok {
			return nil, Validationf(path, "%s expects a string, got %s", op, typeName(raw))
		}
		return Text(s), nil
	case CategoryList, CategoryArray:
		items, ok := raw.([]any)
		if !ok {
			return nil, Validationf(path, "%s expects a list, got %s", op, typeName(raw))
		}
		list := make(List, len(items))
		for i, item := range items {
			s, err := ScalarOf(item)
			if err != nil {
				return nil, Validationf(IndexPath(path, i), "%v", err)
			}
			list[i] = s
		}
		return list, nil
	case CategoryBounds, CategoryRange:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, Validationf(path, "%s expects %s, got %s", op, cat, typeName(raw))
		}
		if err := onlyKeys(obj, path, "from", "to"); err != nil {
			return nil, err
		}
		var b Bounds
		for _, side := range []struct {
			name string
			dst  **Scalar
		}{{"from", &b.From}, {"to", &b.To}} {
			v, ok := obj[side.name]
			if !ok || v == nil {
				continue
			}
			s, err := ScalarOf(v)
			if err != nil {
				return nil, Validationf(FieldPath(path, side.name), "%v", err)
			}
			*side.dst = &s
		}
		return b, nil
	case CategorySemantic:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, Validationf(path, "%s expects %s, got %s", op, cat, typeName(raw))
		}
		if err := onlyKeys(obj, path, "query", "threshold"); err != nil {
			return nil, err
		}
		q, ok := obj["query"].(string)
		if !ok {
			return nil, Validationf(FieldPath(path, "query"), "query must be a string")
		}
		s := Semantic{Query: q}
		if t, ok := obj["threshold"]; ok && t != nil {
			n, ok := t.(json.Number)
			if !ok {
				return nil, Validationf(FieldPath(path, "threshold"), "threshold must be a number, got %s", typeName(t))
			}
			f, err := n.Float64()
			if err != nil {
				return nil, Validationf(FieldPath(path, "threshold"), "%v", err)
			}
			s.Threshold = &f
		}
		return s, nil
	}
	return nil, Validationf(path, "%s expects %s", op, cat)
}

func onlyKeys(obj map[string]any, path string, allowed ...string) error {
	var unknown []string
	for k := range obj {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return Validationf(FieldPath(path, unknown[0]), "unknown key %q", unknown[0])
}

// Encode returns the JSON wire form of n.
func Encode(n Node) ([]byte, error) {
	return json.Marshal(n)
}

type leafJSON struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value any      `json:"value,omitempty"`
}

func (l *Leaf) MarshalJSON() ([]byte, error) {
	out := leafJSON{Field: l.Field, Op: l.Op}
	switch v := l.Value.(type) {
	case None, nil:
	default:
		out.Value = v
	}
	return json.Marshal(out)
}

type groupJSON struct {
	Op       BoolOp `json:"op"`
	Children []Node `json:"children"`
}

func (g *Group) MarshalJSON() ([]byte, error) {
	children := g.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(groupJSON{Op: g.Op, Children: children})
}
