// Package softdelete provides a Transformer that hides soft-deleted rows by
// injecting a "column IS NULL" condition into SELECT queries.
//
// The schema declares the column per table (soft_delete_column); the
// compiler installs the transformer for tables that have one, so both the
// data statement and the count statement exclude deleted rows.
//
// # Basic usage
//
//	sd := softdelete.New()
//	m := managers.NewSelectManager(nodes.NewTable("projects")).Use(sd)
//	// SELECT * FROM projects WHERE "deleted_at" IS NULL
//
// # Custom column
//
//	sd := softdelete.New(softdelete.WithColumn("archived_at"))
//
// # Per-table columns
//
//	sd := softdelete.New(
//	    softdelete.WithTableColumn("projects", "deleted_at"),
//	    softdelete.WithTableColumn("clients", "removed_at"),
//	)
package softdelete

import (
	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/plugins"
)

// SoftDelete is a Transformer that appends an IS NULL condition for a
// soft-delete column on the FROM table.
type SoftDelete struct {
	plugins.BaseTransformer
	Column  string
	Columns map[string]string // per-table column overrides (table name → column name)
	tables  map[string]bool   // nil means apply to all tables
}

var _ plugins.Transformer = (*SoftDelete)(nil)

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithColumn sets the soft-delete column name. Default is "deleted_at".
func WithColumn(name string) Option {
	return func(sd *SoftDelete) { sd.Column = name }
}

// WithTables restricts the plugin to only the named tables.
// By default, the plugin applies to every table.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		sd.tables = make(map[string]bool, len(names))
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableColumn sets a per-table column override. The table is
// automatically added to the allowed set, restricting the plugin's scope.
func WithTableColumn(table, column string) Option {
	return func(sd *SoftDelete) {
		if sd.Columns == nil {
			sd.Columns = make(map[string]string)
		}
		sd.Columns[table] = column
		if sd.tables == nil {
			sd.tables = make(map[string]bool)
		}
		sd.tables[table] = true
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Column: "deleted_at"}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformSelect appends "column IS NULL" to the WHERE clause when the
// FROM table is covered. Columns render unqualified, matching the rest of
// a single-table query.
func (sd *SoftDelete) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	name := plugins.TableName(core)
	if name == "" || !sd.appliesTo(name) {
		return core, nil
	}
	core.Wheres = append(core.Wheres, nodes.Column(sd.columnFor(name)).IsNull())
	return core, nil
}

func (sd *SoftDelete) appliesTo(tableName string) bool {
	if sd.tables == nil {
		return true
	}
	return sd.tables[tableName]
}

// columnFor returns the column name to use for the given table.
// It checks Columns for a per-table override, falling back to Column.
func (sd *SoftDelete) columnFor(tableName string) string {
	if col, ok := sd.Columns[tableName]; ok {
		return col
	}
	return sd.Column
}
