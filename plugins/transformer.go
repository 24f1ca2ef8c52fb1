// Package plugins defines the Transformer interface for AST middleware.
//
// Transformers run on a copy of the select core before SQL generation, so a
// deployment can add conditions (for example, hiding soft-deleted rows)
// without the caller's filter tree knowing about them. Transformers apply to
// the data statement and the count statement alike.
package plugins

import "github.com/bawdo/filtersql/nodes"

// Transformer is the interface that AST transformation plugins implement.
type Transformer interface {
	TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error)
}

// TransformerFunc adapts an ordinary function to a Transformer.
type TransformerFunc func(core *nodes.SelectCore) (*nodes.SelectCore, error)

func (f TransformerFunc) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	return f(core)
}

// BaseTransformer is a no-op Transformer. Plugins embed it to pick up a
// default TransformSelect.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(c *nodes.SelectCore) (*nodes.SelectCore, error) {
	return c, nil
}

// TableName returns the name of the core's FROM table, or "" when the FROM
// source is not a plain table.
func TableName(core *nodes.SelectCore) string {
	return nodes.RelationName(core.From)
}
