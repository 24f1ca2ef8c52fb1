package softdelete

import (
	"testing"

	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/plugins"
	"github.com/bawdo/filtersql/visitors"
)

func toSQL(t *testing.T, core *nodes.SelectCore) string {
	t.Helper()
	v := visitors.NewPostgresVisitor(visitors.WithBareTables())
	sql, _, err := v.Resolve(core.Accept(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sql
}

func transform(t *testing.T, sd *SoftDelete, core *nodes.SelectCore) string {
	t.Helper()
	result, err := sd.TransformSelect(core)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return toSQL(t, result)
}

// --- Default behaviour ---

func TestDefaultColumnDeletedAt(t *testing.T) {
	t.Parallel()
	got := transform(t, New(), &nodes.SelectCore{From: nodes.NewTable("projects")})
	expected := `SELECT * FROM projects WHERE "deleted_at" IS NULL`
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// --- Custom column name ---

func TestCustomColumnName(t *testing.T) {
	t.Parallel()
	got := transform(t, New(WithColumn("archived_at")), &nodes.SelectCore{From: nodes.NewTable("projects")})
	expected := `SELECT * FROM projects WHERE "archived_at" IS NULL`
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// --- Preserves existing WHERE conditions ---

func TestPreservesExistingWheres(t *testing.T) {
	t.Parallel()
	core := &nodes.SelectCore{
		From:   nodes.NewTable("projects"),
		Wheres: []nodes.Node{nodes.Column("industry").Eq("retail")},
	}
	got := transform(t, New(), core)
	expected := `SELECT * FROM projects WHERE "industry" = $1 AND "deleted_at" IS NULL`
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// --- Table scoping ---

func TestWithTablesSkipsOtherTables(t *testing.T) {
	t.Parallel()
	got := transform(t, New(WithTables("clients")), &nodes.SelectCore{From: nodes.NewTable("projects")})
	expected := `SELECT * FROM projects`
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

func TestNoTableIsNoOp(t *testing.T) {
	t.Parallel()
	core := &nodes.SelectCore{From: nodes.NewSqlLiteral("generate_series(1, 3)")}
	result, err := New().TransformSelect(core)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Wheres) != 0 {
		t.Errorf("expected no wheres, got %d", len(result.Wheres))
	}
}

func TestWithTableColumn(t *testing.T) {
	t.Parallel()
	sd := New(
		WithTableColumn("projects", "deleted_at"),
		WithTableColumn("clients", "removed_at"),
	)

	got := transform(t, sd, &nodes.SelectCore{From: nodes.NewTable("clients")})
	expected := `SELECT * FROM clients WHERE "removed_at" IS NULL`
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}

	got = transform(t, sd, &nodes.SelectCore{From: nodes.NewTable("invoices")})
	if got != `SELECT * FROM invoices` {
		t.Errorf("expected invoices to be untouched, got %s", got)
	}
}

func TestWithTableColumnFallsBackToDefault(t *testing.T) {
	t.Parallel()
	sd := New(WithTables("projects", "clients"), WithTableColumn("clients", "removed_at"))
	got := transform(t, sd, &nodes.SelectCore{From: nodes.NewTable("projects")})
	expected := `SELECT * FROM projects WHERE "deleted_at" IS NULL`
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

func TestImplementsTransformer(t *testing.T) {
	t.Parallel()
	var _ plugins.Transformer = New()
}
