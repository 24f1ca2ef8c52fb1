package nodes

import "testing"

// --- Table / Attribute creation ---

func TestTableCreatesAttributes(t *testing.T) {
	t.Parallel()
	projects := NewTable("projects")
	col := projects.Col("industry")

	if col.Name != "industry" {
		t.Errorf("expected col name %q, got %q", "industry", col.Name)
	}
	if col.Relation != projects {
		t.Error("expected attribute relation to be the projects table")
	}
}

func TestColumnIsUnqualified(t *testing.T) {
	t.Parallel()
	col := Column("industry")
	if col.Relation != nil {
		t.Errorf("expected nil relation, got %T", col.Relation)
	}
}

func TestTableStar(t *testing.T) {
	t.Parallel()
	projects := NewTable("projects")
	star := projects.Star()

	if star.Table != projects {
		t.Error("expected qualified star to reference the table")
	}
}

func TestUnqualifiedStar(t *testing.T) {
	t.Parallel()
	star := Star()
	if star.Table != nil {
		t.Error("expected unqualified star to have nil table")
	}
}

func TestRelationName(t *testing.T) {
	t.Parallel()
	if got := RelationName(NewTable("projects")); got != "projects" {
		t.Errorf("expected %q, got %q", "projects", got)
	}
	if got := RelationName(NewSqlLiteral("x")); got != "" {
		t.Errorf("expected empty name for non-table, got %q", got)
	}
}

// --- Literals ---

func TestLiteralWrapsRawValues(t *testing.T) {
	t.Parallel()
	lit, ok := Literal("automotive").(*LiteralNode)
	if !ok {
		t.Fatalf("expected *LiteralNode, got %T", Literal("automotive"))
	}
	if lit.Value != "automotive" {
		t.Errorf("expected value %q, got %v", "automotive", lit.Value)
	}
}

func TestLiteralPassesThroughNodes(t *testing.T) {
	t.Parallel()
	col := Column("industry")
	if Literal(col) != Node(col) {
		t.Error("expected Literal to return existing nodes unchanged")
	}
}

// --- Predications return correct node types ---

func TestEqReturnsComparisonNodeWithOpEq(t *testing.T) {
	t.Parallel()
	col := Column("industry")
	cmp := col.Eq("automotive")

	if cmp.Op != OpEq {
		t.Errorf("expected OpEq, got %d", cmp.Op)
	}
	if cmp.Left != col {
		t.Error("expected left to be the attribute")
	}
	right, ok := cmp.Right.(*LiteralNode)
	if !ok {
		t.Fatalf("expected right to be *LiteralNode, got %T", cmp.Right)
	}
	if right.Value != "automotive" {
		t.Errorf("expected right value %q, got %v", "automotive", right.Value)
	}
}

func TestComparisons(t *testing.T) {
	t.Parallel()
	col := Column("x")

	tests := []struct {
		name string
		node *ComparisonNode
		want ComparisonOp
	}{
		{"NotEq", col.NotEq(1), OpNotEq},
		{"Gt", col.Gt(10), OpGt},
		{"GtEq", col.GtEq(10), OpGtEq},
		{"Lt", col.Lt(5), OpLt},
		{"LtEq", col.LtEq(5), OpLtEq},
		{"Contains", col.Contains([]string{"a"}), OpContains},
		{"Overlaps", col.Overlaps([]string{"b"}), OpOverlaps},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.node.Op != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.node.Op)
			}
		})
	}
}

func TestMatchesKeepsEscape(t *testing.T) {
	t.Parallel()
	m := Column("name").Matches(`%100\%%`, `\`)
	if m.Escape != `\` {
		t.Errorf("expected escape %q, got %q", `\`, m.Escape)
	}
	pat, ok := m.Pattern.(*LiteralNode)
	if !ok {
		t.Fatalf("expected pattern to be *LiteralNode, got %T", m.Pattern)
	}
	if pat.Value != `%100\%%` {
		t.Errorf("unexpected pattern %v", pat.Value)
	}
}

func TestDistanceChainsThreshold(t *testing.T) {
	t.Parallel()
	col := Column("solution_embedding")
	cmp := col.Distance("[0.1,0.2]", Cosine).LtEq(0.3)

	if cmp.Op != OpLtEq {
		t.Errorf("expected OpLtEq, got %d", cmp.Op)
	}
	d, ok := cmp.Left.(*DistanceNode)
	if !ok {
		t.Fatalf("expected left to be *DistanceNode, got %T", cmp.Left)
	}
	if d.Left != col {
		t.Error("expected distance left to be the column")
	}
	if d.Metric != Cosine {
		t.Errorf("expected Cosine, got %d", d.Metric)
	}
}

// --- Unary predicates ---

func TestIsNull(t *testing.T) {
	t.Parallel()
	col := Column("end_date")
	u := col.IsNull()

	if u.Op != OpIsNull {
		t.Errorf("expected OpIsNull, got %d", u.Op)
	}
	if u.Expr != col {
		t.Error("expected expr to be the attribute")
	}
}

func TestIsNotNull(t *testing.T) {
	t.Parallel()
	u := Column("end_date").IsNotNull()

	if u.Op != OpIsNotNull {
		t.Errorf("expected OpIsNotNull, got %d", u.Op)
	}
}

// --- In / NotIn ---

func TestIn(t *testing.T) {
	t.Parallel()
	col := Column("id")
	in := col.In(1, 2, 3)

	if in.Negate {
		t.Error("expected In to not be negated")
	}
	if len(in.Vals) != 3 {
		t.Fatalf("expected 3 values, got %d", len(in.Vals))
	}
	if in.Expr != col {
		t.Error("expected expr to be the attribute")
	}
}

func TestNotIn(t *testing.T) {
	t.Parallel()
	in := Column("status").NotIn("archived")

	if !in.Negate {
		t.Error("expected NotIn to be negated")
	}
	if len(in.Vals) != 1 {
		t.Fatalf("expected 1 value, got %d", len(in.Vals))
	}
}

// --- Between ---

func TestBetween(t *testing.T) {
	t.Parallel()
	col := Column("budget")
	b := col.Between(100, 500)

	if b.Negate {
		t.Error("expected Between to not be negated")
	}
	low, ok := b.Low.(*LiteralNode)
	if !ok {
		t.Fatalf("expected low to be *LiteralNode, got %T", b.Low)
	}
	if low.Value != 100 {
		t.Errorf("expected low value 100, got %v", low.Value)
	}
	high, ok := b.High.(*LiteralNode)
	if !ok {
		t.Fatalf("expected high to be *LiteralNode, got %T", b.High)
	}
	if high.Value != 500 {
		t.Errorf("expected high value 500, got %v", high.Value)
	}
}

func TestNotBetween(t *testing.T) {
	t.Parallel()
	if b := Column("budget").NotBetween(1, 2); !b.Negate {
		t.Error("expected NotBetween to be negated")
	}
}

// --- Combinators ---

func TestNewAndWrapsInGrouping(t *testing.T) {
	t.Parallel()
	a := Column("a").Eq(1)
	b := Column("b").Eq(2)
	g := NewAnd(a, b)

	and, ok := g.Expr.(*AndNode)
	if !ok {
		t.Fatalf("expected grouping over *AndNode, got %T", g.Expr)
	}
	if len(and.Children) != 2 || and.Children[0] != Node(a) || and.Children[1] != Node(b) {
		t.Error("expected children in insertion order")
	}
}

func TestNewOrWrapsInGrouping(t *testing.T) {
	t.Parallel()
	g := NewOr(Column("a").Eq(1))
	if _, ok := g.Expr.(*OrNode); !ok {
		t.Fatalf("expected grouping over *OrNode, got %T", g.Expr)
	}
}

func TestNewNot(t *testing.T) {
	t.Parallel()
	inner := Column("a").IsNull()
	n := NewNot(inner)
	if n.Expr != Node(inner) {
		t.Error("expected NOT to wrap the inner expression")
	}
}

// --- Aggregates / SelectCore ---

func TestCountStar(t *testing.T) {
	t.Parallel()
	c := Count(nil)
	if c.Func != AggCount {
		t.Errorf("expected AggCount, got %d", c.Func)
	}
	if c.Expr != nil {
		t.Error("expected nil expr for COUNT(*)")
	}
}

func TestSelectCoreHoldsData(t *testing.T) {
	t.Parallel()
	projects := NewTable("projects")
	core := &SelectCore{
		From:        projects,
		Projections: []Node{Column("project_name")},
		Wheres:      []Node{Column("industry").Eq("automotive")},
		Limit:       NewSqlLiteral("5"),
	}
	if core.From != projects {
		t.Error("expected From to be projects")
	}
	if len(core.Projections) != 1 || len(core.Wheres) != 1 {
		t.Error("expected one projection and one where")
	}
	if core.Offset != nil {
		t.Error("expected nil offset")
	}
}

// --- Visitor dispatch ---

type stubVisitor struct{}

func (stubVisitor) VisitTable(*Table) string { return "table" }
func (stubVisitor) VisitAttribute(*Attribute) string { return "attr" }
func (stubVisitor) VisitLiteral(*LiteralNode) string { return "lit" }
func (stubVisitor) VisitStar(*StarNode) string { return "*" }
func (stubVisitor) VisitSqlLiteral(n *SqlLiteral) string { return n.Raw }
func (stubVisitor) VisitComparison(*ComparisonNode) string { return "cmp" }
func (stubVisitor) VisitMatch(*MatchNode) string { return "match" }
func (stubVisitor) VisitDistance(*DistanceNode) string { return "distance" }
func (stubVisitor) VisitUnary(*UnaryNode) string { return "unary" }
func (stubVisitor) VisitAnd(*AndNode) string { return "and" }
func (stubVisitor) VisitOr(*OrNode) string { return "or" }
func (stubVisitor) VisitNot(*NotNode) string { return "not" }
func (stubVisitor) VisitIn(*InNode) string { return "in" }
func (stubVisitor) VisitBetween(*BetweenNode) string { return "between" }
func (stubVisitor) VisitGrouping(*GroupingNode) string { return "grouping" }
func (stubVisitor) VisitAggregate(*AggregateNode) string { return "aggregate" }
func (stubVisitor) VisitSelectCore(*SelectCore) string { return "select_core" }

func TestAllNodesImplementNodeInterface(t *testing.T) {
	t.Parallel()
	sv := stubVisitor{}

	tests := []struct {
		node Node
		want string
	}{
		{NewTable("t"), "table"},
		{Column("c"), "attr"},
		{Literal(1), "lit"},
		{Star(), "*"},
		{NewSqlLiteral("raw"), "raw"},
		{&ComparisonNode{}, "cmp"},
		{&MatchNode{}, "match"},
		{&DistanceNode{}, "distance"},
		{&UnaryNode{}, "unary"},
		{&AndNode{}, "and"},
		{&OrNode{}, "or"},
		{&NotNode{}, "not"},
		{&InNode{}, "in"},
		{&BetweenNode{}, "between"},
		{&GroupingNode{}, "grouping"},
		{Count(nil), "aggregate"},
		{&SelectCore{}, "select_core"},
	}
	for _, tt := range tests {
		if got := tt.node.Accept(sv); got != tt.want {
			t.Errorf("%T: expected %q, got %q", tt.node, tt.want, got)
		}
	}
}
