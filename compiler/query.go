package compiler

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/schema"
)

// Query is one compile request.
type Query struct {
	Filter filter.Node
	Table  string
	Select []string
	Limit  *int
	Offset *int
}

type queryJSON struct {
	Filter json.RawMessage `json:"filter_tree,omitempty"`
	Table  string          `json:"table_name"`
	Select []string        `json:"select_fields,omitempty"`
	Limit  *int            `json:"limit,omitempty"`
	Offset *int            `json:"offset,omitempty"`
}

// DecodeQuery parses a JSON query request, bounding the filter tree to
// maxDepth levels.
func DecodeQuery(data []byte, maxDepth int) (Query, error) {
	var raw queryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Query{}, &filter.Error{Kind: filter.KindValidation, Msg: "invalid query", Err: err}
	}
	q := Query{Table: raw.Table, Select: raw.Select, Limit: raw.Limit, Offset: raw.Offset}
	if f := bytes.TrimSpace(raw.Filter); len(f) > 0 && !bytes.Equal(f, []byte("null")) {
		n, err := filter.DecodeDepth(f, maxDepth)
		if err != nil {
			return Query{}, err
		}
		q.Filter = n
	}
	return q, nil
}

func (q *Query) UnmarshalJSON(data []byte) error {
	out, err := DecodeQuery(data, filter.DefaultMaxDepth)
	if err != nil {
		return err
	}
	*q = out
	return nil
}

func (q Query) MarshalJSON() ([]byte, error) {
	raw := queryJSON{Table: q.Table, Select: q.Select, Limit: q.Limit, Offset: q.Offset}
	if q.Filter != nil {
		f, err := filter.Encode(q.Filter)
		if err != nil {
			return nil, err
		}
		raw.Filter = f
	}
	return json.Marshal(raw)
}

// Statement is one compiled SQL statement and its positional parameters.
type Statement struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// Result holds the data statement and the matching count statement. Both
// share the same predicate and parameters.
type Result struct {
	Data  Statement `json:"data"`
	Count Statement `json:"count"`
	// Schema is the schema the statements were checked against, when the
	// allowlist is a schema or a Snapshotter.
	Schema *schema.Schema `json:"-"`
}

func indexed(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}
