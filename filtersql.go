// Package filtersql compiles JSON filter trees into parameterized SELECT and
// COUNT statements for PostgreSQL, MySQL and SQLite.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/filtersql/filter (filter trees and errors)
//   - github.com/bawdo/filtersql/schema (table and column allowlists)
//   - github.com/bawdo/filtersql/compiler (SQL generation)
//   - github.com/bawdo/filtersql/embedding (semantic search providers)
package filtersql

import (
	"context"

	"github.com/spf13/afero"

	"github.com/bawdo/filtersql/compiler"
	"github.com/bawdo/filtersql/embedding"
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/schema"
)

// --- Filter Trees ---

// Node is a filter tree node: a *Leaf or a *Group.
type Node = filter.Node

// Leaf is a single field condition.
type Leaf = filter.Leaf

// Group combines child conditions with and, or or not.
type Group = filter.Group

// Operator is a leaf condition operator.
type Operator = filter.Operator

// Decode parses a JSON filter tree.
func Decode(data []byte) (Node, error) {
	return filter.Decode(data)
}

// NewLeaf creates a leaf condition.
func NewLeaf(field string, op Operator, value filter.Value) *Leaf {
	return filter.NewLeaf(field, op, value)
}

// And combines children with AND.
func And(children ...Node) *Group { return filter.NewAnd(children...) }

// Or combines children with OR.
func Or(children ...Node) *Group { return filter.NewOr(children...) }

// Not negates child.
func Not(child Node) *Group { return filter.NewNot(child) }

// --- Errors ---

// Error is the error type returned for rejected filter trees.
type Error = filter.Error

// KindOf returns the kind of a filter error, or zero for other errors.
func KindOf(err error) filter.Kind {
	return filter.KindOf(err)
}

// --- Schemas ---

// Schema is a table and column allowlist.
type Schema = schema.Schema

// DefaultSchema returns the built-in projects schema.
func DefaultSchema() *Schema {
	return schema.Default()
}

// LoadSchema reads a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	return schema.Load(afero.NewOsFs(), path)
}

// --- Compiling ---

// Compiler turns queries into statements.
type Compiler = compiler.Compiler

// Query is one compile request.
type Query = compiler.Query

// Result holds the data and count statements of a compiled query.
type Result = compiler.Result

// Option configures a Compiler.
type Option = compiler.Option

// NewCompiler creates a compiler over allow.
func NewCompiler(allow schema.Allowlist, opts ...Option) (*Compiler, error) {
	return compiler.New(allow, opts...)
}

// WithDialect selects postgres, mysql or sqlite output.
func WithDialect(d string) Option { return compiler.WithDialect(d) }

// WithEmbedder sets the provider used for semantic conditions.
func WithEmbedder(p embedding.Provider) Option { return compiler.WithEmbedder(p) }

// WithPretty renders multi-line SQL.
func WithPretty() Option { return compiler.WithPretty() }

// Compile compiles a JSON query request against the built-in schema.
func Compile(ctx context.Context, request []byte, opts ...Option) (*Result, error) {
	c, err := compiler.New(schema.Default(), opts...)
	if err != nil {
		return nil, err
	}
	q, err := compiler.DecodeQuery(request, c.MaxDepth())
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx, q)
}
