package visitors

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bawdo/filtersql/internal/testutil"
	"github.com/bawdo/filtersql/nodes"
)

// assertResolved renders node with v, resolves the synthetic keys and
// compares both the SQL and the parameter list.
func assertResolved(t *testing.T, v Renderer, node nodes.Node, wantSQL string, wantParams ...any) {
	t.Helper()
	sql, params, err := v.Resolve(node.Accept(v))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, wantSQL)
	if len(wantParams) == 0 {
		wantParams = []any{}
	}
	if !reflect.DeepEqual(params, wantParams) {
		t.Errorf("expected params %v, got %v", wantParams, params)
	}
}

func assertPanics(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, substr) {
			t.Errorf("expected panic containing %q, got %v", substr, r)
		}
	}()
	fn()
}

// --- Table ---

func TestVisitTable(t *testing.T) {
	t.Parallel()
	projects := nodes.NewTable("projects")
	testutil.AssertSQL(t, NewPostgresVisitor(), projects, `"projects"`)
	testutil.AssertSQL(t, NewMySQLVisitor(), projects, "`projects`")
	testutil.AssertSQL(t, NewSQLiteVisitor(), projects, `"projects"`)
}

func TestVisitTableBare(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), nodes.NewTable("projects"), `projects`)
	testutil.AssertSQL(t, NewMySQLVisitor(WithBareTables()), nodes.NewTable("projects"), `projects`)
}

func TestVisitTableBareFallsBackToQuoting(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), nodes.NewTable("my projects"), `"my projects"`)
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), nodes.NewTable(`x"; DROP`), `"x""; DROP"`)
}

// --- Attribute ---

func TestVisitAttributeUnqualified(t *testing.T) {
	t.Parallel()
	col := nodes.Column("industry")
	testutil.AssertSQL(t, NewPostgresVisitor(), col, `"industry"`)
	testutil.AssertSQL(t, NewMySQLVisitor(), col, "`industry`")
}

func TestVisitAttributeQualified(t *testing.T) {
	t.Parallel()
	col := nodes.NewTable("projects").Col("industry")
	testutil.AssertSQL(t, NewPostgresVisitor(), col, `"projects"."industry"`)
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), col, `projects."industry"`)
}

func TestVisitAttributeEscapesQuotes(t *testing.T) {
	t.Parallel()
	col := nodes.Column(`in"dustry`)
	testutil.AssertSQL(t, NewPostgresVisitor(), col, `"in""dustry"`)
	testutil.AssertSQL(t, NewMySQLVisitor(), nodes.Column("in`dustry"), "`in``dustry`")
}

// --- Literals ---

func TestVisitLiteralBindsSyntheticKey(t *testing.T) {
	t.Parallel()
	v := NewPostgresVisitor()
	testutil.AssertSQL(t, v, nodes.Literal("Alice"), `:p0`)
	testutil.AssertSQL(t, v, nodes.Literal(42), `:p1`)
	if !reflect.DeepEqual(v.Params(), []any{"Alice", 42}) {
		t.Errorf("unexpected params %v", v.Params())
	}
}

func TestVisitLiteralNeverInlinesStrings(t *testing.T) {
	t.Parallel()
	assertResolved(t, NewPostgresVisitor(), nodes.Column("name").Eq("O'Brien'; DROP TABLE projects; --"),
		`"name" = $1`, "O'Brien'; DROP TABLE projects; --")
}

func TestVisitLiteralNil(t *testing.T) {
	t.Parallel()
	v := NewPostgresVisitor()
	testutil.AssertSQL(t, v, nodes.Literal(nil), `NULL`)
	testutil.AssertEqual(t, len(v.Params()), 0)
}

func TestVisitSqlLiteral(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresVisitor(), nodes.NewSqlLiteral("5"), `5`)
}

func TestVisitStar(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresVisitor(), nodes.Star(), `*`)
	testutil.AssertSQL(t, NewPostgresVisitor(), nodes.NewTable("projects").Star(), `"projects".*`)
}

// --- Comparisons ---

func TestVisitComparisons(t *testing.T) {
	t.Parallel()
	col := nodes.Column("budget")

	tests := []struct {
		name string
		node nodes.Node
		want string
	}{
		{"eq", col.Eq(1), `"budget" = $1`},
		{"neq", col.NotEq(1), `"budget" <> $1`},
		{"gt", col.Gt(1), `"budget" > $1`},
		{"gte", col.GtEq(1), `"budget" >= $1`},
		{"lt", col.Lt(1), `"budget" < $1`},
		{"lte", col.LtEq(1), `"budget" <= $1`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertResolved(t, NewPostgresVisitor(), tt.node, tt.want, 1)
		})
	}
}

func TestVisitComparisonQuestionPlaceholders(t *testing.T) {
	t.Parallel()
	node := nodes.Column("budget").Gt(int64(100))
	assertResolved(t, NewMySQLVisitor(), node, "`budget` > ?", int64(100))
	assertResolved(t, NewSQLiteVisitor(), node, `"budget" > ?`, int64(100))
}

func TestVisitArrayOperators(t *testing.T) {
	t.Parallel()
	tags := []string{"ai", "retail"}
	assertResolved(t, NewPostgresVisitor(), nodes.Column("tags").Overlaps(tags), `"tags" && $1`, tags)
	assertResolved(t, NewPostgresVisitor(), nodes.Column("tags").Contains(tags), `"tags" @> $1`, tags)
}

func TestVisitArrayOperatorsUnsupported(t *testing.T) {
	t.Parallel()
	node := nodes.Column("tags").Overlaps([]string{"ai"})
	assertPanics(t, "not supported by mysql", func() { node.Accept(NewMySQLVisitor()) })
	assertPanics(t, "not supported by sqlite", func() { node.Accept(NewSQLiteVisitor()) })
}

// --- Pattern match ---

func TestVisitMatchPostgres(t *testing.T) {
	t.Parallel()
	node := nodes.Column("name").Matches(`%100\%%`, `\`)
	assertResolved(t, NewPostgresVisitor(), node, `"name" ILIKE $1 ESCAPE '\'`, `%100\%%`)
}

func TestVisitMatchSQLite(t *testing.T) {
	t.Parallel()
	node := nodes.Column("name").Matches("%acme%", `\`)
	assertResolved(t, NewSQLiteVisitor(), node, `"name" LIKE ? ESCAPE '\'`, "%acme%")
}

func TestVisitMatchMySQL(t *testing.T) {
	t.Parallel()
	node := nodes.Column("name").Matches("%acme%", `\`)
	assertResolved(t, NewMySQLVisitor(), node, "LOWER(`name`) LIKE LOWER(?) ESCAPE _utf8mb4 X'5C'", "%acme%")
}

// --- Distance ---

func TestVisitDistanceMetrics(t *testing.T) {
	t.Parallel()
	col := nodes.Column("solution_embedding")

	tests := []struct {
		name   string
		metric nodes.DistanceMetric
		want   string
	}{
		{"cosine", nodes.Cosine, `"solution_embedding" <=> $1 <= $2`},
		{"euclidean", nodes.Euclidean, `"solution_embedding" <-> $1 <= $2`},
		{"inner product", nodes.InnerProduct, `"solution_embedding" <#> $1 <= $2`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			node := col.Distance("[0.1,0.2]", tt.metric).LtEq(0.3)
			assertResolved(t, NewPostgresVisitor(), node, tt.want, "[0.1,0.2]", 0.3)
		})
	}
}

func TestVisitDistanceUnsupported(t *testing.T) {
	t.Parallel()
	node := nodes.Column("e").Distance("[1]", nodes.Cosine)
	assertPanics(t, "vector distance", func() { node.Accept(NewSQLiteVisitor()) })
}

// --- Unary ---

func TestVisitUnary(t *testing.T) {
	t.Parallel()
	assertResolved(t, NewPostgresVisitor(), nodes.Column("end_date").IsNull(), `"end_date" IS NULL`)
	assertResolved(t, NewPostgresVisitor(), nodes.Column("end_date").IsNotNull(), `"end_date" IS NOT NULL`)
}

// --- Logical ---

func TestVisitAnd(t *testing.T) {
	t.Parallel()
	and := nodes.NewAnd(nodes.Column("a").Eq(1), nodes.Column("b").Eq(2))
	assertResolved(t, NewPostgresVisitor(), and, `("a" = $1 AND "b" = $2)`, 1, 2)
}

func TestVisitOr(t *testing.T) {
	t.Parallel()
	or := nodes.NewOr(nodes.Column("role").Eq("admin"), nodes.Column("role").Eq("mod"), nodes.Column("role").Eq("ops"))
	assertResolved(t, NewPostgresVisitor(), or, `("role" = $1 OR "role" = $2 OR "role" = $3)`, "admin", "mod", "ops")
}

func TestVisitSingleChildGroup(t *testing.T) {
	t.Parallel()
	assertResolved(t, NewPostgresVisitor(), nodes.NewAnd(nodes.Column("a").Eq(1)), `("a" = $1)`, 1)
}

func TestVisitNot(t *testing.T) {
	t.Parallel()
	not := nodes.NewNot(nodes.Column("active").Eq(1))
	assertResolved(t, NewPostgresVisitor(), not, `NOT ("active" = $1)`, 1)
}

func TestVisitNestedGroups(t *testing.T) {
	t.Parallel()
	tree := nodes.NewAnd(
		nodes.Column("a").Eq(1),
		nodes.NewNot(nodes.NewOr(nodes.Column("b").Eq(2), nodes.Column("c").IsNull())),
	)
	assertResolved(t, NewPostgresVisitor(), tree, `("a" = $1 AND NOT (("b" = $2 OR "c" IS NULL)))`, 1, 2)
}

// --- In / Between ---

func TestVisitIn(t *testing.T) {
	t.Parallel()
	in := nodes.Column("id").In(1, 2, 3)
	assertResolved(t, NewPostgresVisitor(), in, `"id" IN ($1, $2, $3)`, 1, 2, 3)
	assertResolved(t, NewMySQLVisitor(), in, "`id` IN (?, ?, ?)", 1, 2, 3)
}

func TestVisitNotIn(t *testing.T) {
	t.Parallel()
	in := nodes.Column("status").NotIn("deleted", "banned")
	assertResolved(t, NewPostgresVisitor(), in, `"status" NOT IN ($1, $2)`, "deleted", "banned")
}

func TestVisitBetween(t *testing.T) {
	t.Parallel()
	assertResolved(t, NewPostgresVisitor(), nodes.Column("age").Between(18, 65), `"age" BETWEEN $1 AND $2`, 18, 65)
	assertResolved(t, NewPostgresVisitor(), nodes.Column("age").NotBetween(18, 65), `"age" NOT BETWEEN $1 AND $2`, 18, 65)
}

// --- Aggregate ---

func TestVisitCountStar(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresVisitor(), nodes.Count(nil), `COUNT(*)`)
	testutil.AssertSQL(t, NewPostgresVisitor(), nodes.Count(nodes.Column("id")), `COUNT("id")`)
}

// --- SelectCore ---

func TestVisitSelectCoreSimple(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{
		From:        nodes.NewTable("projects"),
		Projections: []nodes.Node{nodes.Column("project_name"), nodes.Column("industry")},
	}
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), sc,
		`SELECT "project_name", "industry" FROM projects`)
}

func TestVisitSelectCoreDefaultStar(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{From: nodes.NewTable("projects")}
	testutil.AssertSQL(t, NewPostgresVisitor(), sc, `SELECT * FROM "projects"`)
}

func TestVisitSelectCoreFull(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{
		From:        nodes.NewTable("projects"),
		Projections: []nodes.Node{nodes.Column("project_name")},
		Wheres:      []nodes.Node{nodes.Column("industry").Eq("automotive")},
		Limit:       nodes.NewSqlLiteral("5"),
		Offset:      nodes.NewSqlLiteral("10"),
	}
	assertResolved(t, NewPostgresVisitor(WithBareTables()), sc,
		`SELECT "project_name" FROM projects WHERE "industry" = $1 LIMIT 5 OFFSET 10`, "automotive")
}

func TestVisitSelectCoreMultipleWheres(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{
		From:   nodes.NewTable("projects"),
		Wheres: []nodes.Node{nodes.Column("a").Eq(1), nodes.Column("b").IsNull()},
	}
	assertResolved(t, NewSQLiteVisitor(WithBareTables()), sc,
		`SELECT * FROM projects WHERE "a" = ? AND "b" IS NULL`, 1)
}

func TestVisitSelectCoreCount(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{
		From:        nodes.NewTable("projects"),
		Projections: []nodes.Node{nodes.Count(nil)},
	}
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), sc, `SELECT COUNT(*) FROM projects`)
}

func TestVisitSelectCoreCommentSanitized(t *testing.T) {
	t.Parallel()
	sc := &nodes.SelectCore{From: nodes.NewTable("projects"), Comment: "evil */ DROP"}
	testutil.AssertSQL(t, NewPostgresVisitor(WithBareTables()), sc, `/* evil * / DROP */ SELECT * FROM projects`)
}

// --- Shared binder ---

func TestSharedBinderAcrossVisitors(t *testing.T) {
	t.Parallel()
	b := NewBinder()
	v := NewPostgresVisitor(WithBinder(b))
	frag := nodes.Column("x").Eq(1).Accept(v)

	testutil.AssertEqual(t, frag, `"x" = :p0`)
	testutil.AssertEqual(t, b.Len(), 1)
	if v.Binder() != b {
		t.Error("expected visitor to use the supplied binder")
	}
}

func TestResetClearsParams(t *testing.T) {
	t.Parallel()
	v := NewPostgresVisitor()
	nodes.Literal(1).Accept(v)
	v.Reset()
	testutil.AssertEqual(t, len(v.Params()), 0)
}

// --- Dialect selection ---

func TestNewDialects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		dialect string
		want    string
	}{
		{"postgres", "postgres", "postgres"},
		{"postgresql alias", "PostgreSQL", "postgres"},
		{"pg alias", "pg", "postgres"},
		{"mysql", "mysql", "mysql"},
		{"sqlite", "sqlite", "sqlite"},
		{"sqlite3 alias", "sqlite3", "sqlite"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := New(tt.dialect)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, v.Dialect(), tt.want)
		})
	}
}

func TestNewUnknownDialect(t *testing.T) {
	t.Parallel()
	_, err := New("oracle")
	testutil.AssertError(t, err)
}

func TestSupports(t *testing.T) {
	t.Parallel()
	pg := NewPostgresVisitor()
	if !pg.Supports(FeatureArrays | FeatureVectors | FeatureILike) {
		t.Error("expected postgres to support arrays, vectors and ILIKE")
	}
	for _, v := range []Renderer{NewMySQLVisitor(), NewSQLiteVisitor()} {
		if v.Supports(FeatureArrays) || v.Supports(FeatureVectors) {
			t.Errorf("%s: expected no array or vector support", v.Dialect())
		}
	}
}
