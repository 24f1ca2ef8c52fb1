package managers

import (
	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/plugins"
)

// Resolver is a visitor that binds literals under synthetic keys and can
// rewrite those keys into positional placeholders. The dialect visitors in
// package visitors implement it.
type Resolver interface {
	nodes.Visitor
	Resolve(sql string) (string, []any, error)
}

// treeManager is the shared base for manager types. It holds the
// transformer pipeline.
type treeManager struct {
	transformers []plugins.Transformer
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

// toSQLParams is a helper that resets a parameterizer (if present), calls
// the provided generate function, and returns SQL + params. Visitors that
// implement Resolver have their synthetic keys rewritten.
func toSQLParams(v nodes.Visitor, generate func(nodes.Visitor) (string, error)) (string, []any, error) {
	p, _ := v.(nodes.Parameterizer)
	if p != nil {
		p.Reset()
	}

	sql, err := generate(v)
	if err != nil {
		return "", nil, err
	}

	if r, ok := v.(Resolver); ok {
		return r.Resolve(sql)
	}
	if p != nil {
		return sql, p.Params(), nil
	}
	return sql, nil, nil
}
