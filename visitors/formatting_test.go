package visitors

import (
	"testing"

	"github.com/bawdo/filtersql/internal/testutil"
	"github.com/bawdo/filtersql/nodes"
)

// fmtPG returns a FormattingVisitor wrapping a PostgresVisitor with bare tables.
func fmtPG() *FormattingVisitor {
	return NewFormattingVisitor(NewPostgresVisitor(WithBareTables()))
}

func TestFormattingVisitorDelegatesLeafNodes(t *testing.T) {
	t.Parallel()
	fv := fmtPG()
	testutil.AssertSQL(t, fv, nodes.NewTable("projects"), `projects`)
	testutil.AssertSQL(t, fv, nodes.Column("id"), `"id"`)
	testutil.AssertSQL(t, fv, nodes.Star(), `*`)
}

func TestFormattingVisitorDelegatesMySQLQuoting(t *testing.T) {
	t.Parallel()
	fv := NewFormattingVisitor(NewMySQLVisitor())
	testutil.AssertSQL(t, fv, nodes.NewTable("projects"), "`projects`")
	testutil.AssertSQL(t, fv, nodes.Column("id"), "`id`")
}

func TestFormattingVisitorSelectCore(t *testing.T) {
	t.Parallel()
	fv := fmtPG()
	sc := &nodes.SelectCore{
		From:        nodes.NewTable("projects"),
		Projections: []nodes.Node{nodes.Column("project_name"), nodes.Column("industry")},
		Wheres:      []nodes.Node{nodes.Column("industry").Eq("automotive"), nodes.Column("end_date").IsNull()},
		Limit:       nodes.NewSqlLiteral("5"),
		Offset:      nodes.NewSqlLiteral("10"),
	}

	sql, params, err := fv.Resolve(sc.Accept(fv))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "SELECT \"project_name\"\n\t,\"industry\"\nFROM projects\nWHERE \"industry\" = $1\n\tAND \"end_date\" IS NULL\nLIMIT 5\nOFFSET 10")
	testutil.AssertEqual(t, len(params), 1)
}

func TestFormattingVisitorDefaultStarAndComment(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{From: nodes.NewTable("projects"), Comment: "count"}
	testutil.AssertSQL(t, fmtPG(), sc, "/* count */\nSELECT *\nFROM projects")
}

func TestFormattingVisitorSharesBinder(t *testing.T) {
	t.Parallel()
	inner := NewPostgresVisitor()
	fv := NewFormattingVisitor(inner)
	nodes.Literal("hello").Accept(fv)
	testutil.AssertEqual(t, len(inner.Params()), 1)
	testutil.AssertEqual(t, len(fv.Params()), 1)
}

func TestFormattingVisitorNilInnerPanics(t *testing.T) {
	t.Parallel()
	assertPanics(t, "non-nil inner", func() { NewFormattingVisitor(nil) })
}
