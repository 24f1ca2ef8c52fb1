// Package schema is the identifier allowlist: the tables and columns that
// may appear in generated SQL, with the kind of each column and the
// embedding column that backs semantic search on a text column.
package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Kind is the storage kind of a column.
type Kind string

const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindDate      Kind = "date"
	KindTimestamp Kind = "timestamp"
	KindBoolean   Kind = "boolean"
	KindArray     Kind = "array"
	KindVector    Kind = "vector"
)

func (k Kind) valid() bool {
	switch k {
	case KindText, KindNumber, KindDate, KindTimestamp, KindBoolean, KindArray, KindVector:
		return true
	}
	return false
}

// Metric is the distance function used for a vector column.
type Metric string

const (
	MetricCosine       Metric = "cosine"
	MetricL2           Metric = "l2"
	MetricInnerProduct Metric = "inner_product"
)

// Column describes one allowlisted column.
type Column struct {
	Name        string `yaml:"name"`
	Kind        Kind   `yaml:"kind"`
	Description string `yaml:"description,omitempty"`
	// Embedding names the vector column holding this column's embedding.
	Embedding string `yaml:"embedding,omitempty"`
	// Metric applies to vector columns; cosine when empty.
	Metric Metric `yaml:"metric,omitempty"`
}

// Table describes one allowlisted table.
type Table struct {
	Name             string    `yaml:"name"`
	Description      string    `yaml:"description,omitempty"`
	Columns          []*Column `yaml:"columns"`
	DefaultColumns   []string  `yaml:"default_columns,omitempty"`
	SoftDeleteColumn string    `yaml:"soft_delete_column,omitempty"`
	// Indicator is the column used as the heading of each result record.
	Indicator string `yaml:"indicator,omitempty"`
	// Namespace prefixes the indicator value in result headings.
	Namespace string `yaml:"namespace,omitempty"`

	index map[string]*Column
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.index[name]
	return c, ok
}

// Schema is a set of tables. It is read-only once loaded and safe for
// concurrent use.
type Schema struct {
	Tables []*Table `yaml:"tables"`

	index map[string]*Table
}

// Allowlist is the read side of a schema used by the compiler.
type Allowlist interface {
	IsValidTable(name string) bool
	IsValidColumn(table, name string) bool
	Column(table, name string) (*Column, bool)
	DefaultColumns(table string) []string
	SoftDeleteColumn(table string) string
}

var _ Allowlist = (*Schema)(nil)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in schema.
func Default() *Schema {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic("schema: built-in schema is invalid: " + err.Error())
	}
	return s
}

// Load reads and parses a schema file from fs.
func Load(fs afero.Fs, path string) (*Schema, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML schema document and checks it.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) build() error {
	if len(s.Tables) == 0 {
		return errors.New("no tables defined")
	}
	s.index = make(map[string]*Table, len(s.Tables))
	for _, t := range s.Tables {
		if err := t.build(); err != nil {
			return err
		}
		if _, dup := s.index[t.Name]; dup {
			return fmt.Errorf("table %q defined twice", t.Name)
		}
		s.index[t.Name] = t
	}
	return nil
}

func (t *Table) build() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("table without a name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	t.index = make(map[string]*Column, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("table %q: column without a name", t.Name)
		}
		if _, dup := t.index[c.Name]; dup {
			return fmt.Errorf("table %q: column %q defined twice", t.Name, c.Name)
		}
		if c.Kind == "" {
			c.Kind = KindText
		}
		if !c.Kind.valid() {
			return fmt.Errorf("table %q: column %q: unknown kind %q", t.Name, c.Name, c.Kind)
		}
		if c.Kind == KindVector {
			switch c.Metric {
			case "":
				c.Metric = MetricCosine
			case MetricCosine, MetricL2, MetricInnerProduct:
			default:
				return fmt.Errorf("table %q: column %q: unknown metric %q", t.Name, c.Name, c.Metric)
			}
		}
		t.index[c.Name] = c
	}

	for _, c := range t.Columns {
		if c.Embedding == "" {
			continue
		}
		e, ok := t.index[c.Embedding]
		if !ok || e.Kind != KindVector {
			return fmt.Errorf("table %q: column %q: embedding column %q is not a vector column", t.Name, c.Name, c.Embedding)
		}
	}
	for _, name := range t.DefaultColumns {
		c, ok := t.index[name]
		if !ok {
			return fmt.Errorf("table %q: default column %q is not defined", t.Name, name)
		}
		if c.Kind == KindVector {
			return fmt.Errorf("table %q: default column %q is a vector column", t.Name, name)
		}
	}
	if t.SoftDeleteColumn != "" {
		if _, ok := t.index[t.SoftDeleteColumn]; !ok {
			return fmt.Errorf("table %q: soft delete column %q is not defined", t.Name, t.SoftDeleteColumn)
		}
	}
	if t.Indicator != "" {
		if _, ok := t.index[t.Indicator]; !ok {
			return fmt.Errorf("table %q: indicator column %q is not defined", t.Name, t.Indicator)
		}
	}
	return nil
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.index[name]
	return t, ok
}

func (s *Schema) IsValidTable(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema) IsValidColumn(table, name string) bool {
	_, ok := s.Column(table, name)
	return ok
}

func (s *Schema) Column(table, name string) (*Column, bool) {
	t, ok := s.index[table]
	if !ok {
		return nil, false
	}
	return t.Column(name)
}

// DefaultColumns returns the select list used when a query names none: the
// table's default_columns, or every non-vector column in declaration order.
func (s *Schema) DefaultColumns(table string) []string {
	t, ok := s.index[table]
	if !ok {
		return nil
	}
	if len(t.DefaultColumns) > 0 {
		return append([]string(nil), t.DefaultColumns...)
	}
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Kind != KindVector {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

func (s *Schema) SoftDeleteColumn(table string) string {
	if t, ok := s.index[table]; ok {
		return t.SoftDeleteColumn
	}
	return ""
}
