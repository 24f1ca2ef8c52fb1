package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/internal/config"
	"github.com/bawdo/filtersql/internal/logging"
	"github.com/bawdo/filtersql/internal/testutil"
	"github.com/bawdo/filtersql/schema"
)

func newTestSession(t *testing.T, dialect string) *Session {
	t.Helper()
	a := &app{
		cfg:    &config.Config{Tool: config.ToolConfig{Table: "projects"}},
		logger: logging.Discard(),
		schema: schema.NewHolder(schema.Default()),
	}
	sess, err := NewSession(context.Background(), a, afero.NewMemMapFs(), dialect)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	sess.out = io.Discard
	t.Cleanup(sess.close)
	return sess
}

// execSQL executes commands then returns the compiled data statement.
func execSQL(t *testing.T, dialect string, commands ...string) string {
	t.Helper()
	sess := newTestSession(t, dialect)
	for _, cmd := range commands {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
	res, err := sess.compiler.Compile(context.Background(), sess.Query())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return res.Data.SQL
}

// --- Filter building ---

func TestWhereSelectLimit(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		`where {"field": "industry", "op": "eq", "value": "automotive"}`,
		"select project_name",
		"limit 5",
	)
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects WHERE "industry" = $1 LIMIT 5`)
}

func TestLeafCommandsAreAnded(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		`leaf industry eq "automotive"`,
		"leaf budget gt 1000",
		"select project_name",
	)
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects WHERE ("industry" = $1 AND "budget" > $2)`)
}

func TestOrCombinesWithCurrentFilter(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		`where {"field": "industry", "op": "eq", "value": "automotive"}`,
		`or {"field": "location", "op": "eq", "value": "Berlin"}`,
		"select project_name",
	)
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects WHERE ("industry" = $1 OR "location" = $2)`)
}

func TestAndExtendsExistingAndGroup(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	for _, cmd := range []string{
		`where {"op": "and", "children": [{"field": "industry", "op": "eq", "value": "retail"}, {"field": "budget", "op": "gt", "value": 10}]}`,
		`and {"field": "location", "op": "is_not_null"}`,
	} {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
	g, ok := sess.tree.(*filter.Group)
	if !ok {
		t.Fatalf("expected a group, got %T", sess.tree)
	}
	testutil.AssertEqual(t, g.Op, filter.And)
	testutil.AssertEqual(t, len(g.Children), 3)
}

func TestNotWrapsFilter(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	if err := sess.Execute("not"); err == nil {
		t.Fatal("expected error negating an empty filter")
	}
	testutil.AssertNoError(t, sess.Execute(`leaf industry eq "retail"`))
	testutil.AssertNoError(t, sess.Execute("not"))
	testutil.AssertEqual(t, filter.Format(sess.tree), `not (industry eq "retail")`)
}

func TestLeafWithoutValue(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres", "leaf end_date is_null", "select project_name")
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects WHERE "end_date" IS NULL`)
}

func TestLeafErrors(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	tests := []string{
		"leaf industry",
		"leaf industry eq {bad",
		"leaf industry sounds_like \"x\"",
		"leaf budget between 5",
	}
	for _, cmd := range tests {
		if err := sess.Execute(cmd); err == nil {
			t.Errorf("expected error for %q", cmd)
		}
	}
	if sess.tree != nil {
		t.Errorf("expected no filter after failed commands, got %s", filter.Format(sess.tree))
	}
}

func TestWhereRejectsMalformedTree(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	err := sess.Execute(`where {"op": "and", "children": []}`)
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, filter.KindOf(err), filter.KindValidation)
}

// --- Query state ---

func TestLimitAndOffset(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres", "select project_name", "limit 10", "offset 20")
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects LIMIT 10 OFFSET 20`)

	got = execSQL(t, "postgres", "select project_name", "limit 10", "limit")
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects`)
}

func TestLimitRejectsBadValues(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	testutil.AssertError(t, sess.Execute("limit ten"))
	testutil.AssertError(t, sess.Execute("offset -1"))
}

func TestSelectDefaultsWhenEmpty(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	testutil.AssertNoError(t, sess.Execute("select project_name, industry"))
	testutil.AssertEqual(t, strings.Join(sess.fields, ","), "project_name,industry")
	testutil.AssertNoError(t, sess.Execute("select"))
	testutil.AssertEqual(t, len(sess.fields), 0)
}

func TestReset(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	for _, cmd := range []string{`leaf industry eq "retail"`, "select id", "limit 3", "offset 1", "reset"} {
		testutil.AssertNoError(t, sess.Execute(cmd))
	}
	if sess.tree != nil || sess.fields != nil || sess.limit != nil || sess.offset != nil {
		t.Errorf("expected cleared state, got %+v", sess.Query())
	}
}

func TestTableMustBeAllowlisted(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	testutil.AssertError(t, sess.Execute("table users"))
	testutil.AssertEqual(t, sess.table, "projects")
	testutil.AssertNoError(t, sess.Execute("table projects"))
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	err := sess.Execute("frobnicate now")
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("expected command name in error, got %v", err)
	}
}

// --- Dialects and output ---

func TestDialectSwitch(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		"dialect mysql",
		`leaf industry eq "automotive"`,
		"select project_name",
		"limit 5",
	)
	testutil.AssertEqual(t, got, "SELECT `project_name` FROM projects WHERE `industry` = ? LIMIT 5")

	got = execSQL(t, "postgres", "dialect sqlite", `leaf industry eq "automotive"`, "select project_name")
	testutil.AssertEqual(t, got, `SELECT "project_name" FROM projects WHERE "industry" = ?`)
}

func TestDialectRejectsUnknown(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	testutil.AssertError(t, sess.Execute("dialect oracle"))
	testutil.AssertEqual(t, sess.dialect, "postgres")
}

func TestSQLCommandPrintsBothStatements(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	var buf bytes.Buffer
	sess.out = &buf
	testutil.AssertNoError(t, sess.Execute(`leaf industry eq "automotive"`))
	testutil.AssertNoError(t, sess.Execute("sql"))

	out := buf.String()
	for _, want := range []string{"-- data", "-- count", `SELECT COUNT(*) FROM projects WHERE "industry" = $1`, `-- params: ["automotive"]`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestJSONCommand(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	var buf bytes.Buffer
	sess.out = &buf
	testutil.AssertNoError(t, sess.Execute(`leaf industry eq "automotive"`))
	testutil.AssertNoError(t, sess.Execute("json"))

	out := buf.String()
	for _, want := range []string{`"filter_tree"`, `"table_name": "projects"`, `"value": "automotive"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDotWritesFile(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	testutil.AssertNoError(t, sess.Execute(`leaf industry eq "automotive"`))
	testutil.AssertError(t, sess.Execute("dot"))
	testutil.AssertNoError(t, sess.Execute("dot /out/query.dot"))

	data, err := afero.ReadFile(sess.fs, "/out/query.dot")
	testutil.AssertNoError(t, err)
	if !strings.Contains(string(data), "digraph") {
		t.Errorf("expected DOT output, got %q", data)
	}
}

func TestPrettyToggle(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres", `leaf industry eq "automotive"`, "select project_name", "pretty")
	if !strings.Contains(got, "\n") {
		t.Errorf("expected multi-line SQL, got %q", got)
	}
	got = execSQL(t, "postgres", `leaf industry eq "automotive"`, "select project_name", "pretty", "pretty")
	if strings.Contains(got, "\n") {
		t.Errorf("expected single-line SQL, got %q", got)
	}
}

// --- Database ---

func TestRunRequiresConnection(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	testutil.AssertError(t, sess.Execute("run"))
	testutil.AssertError(t, sess.Execute("disconnect"))
}

func TestRunAgainstSQLite(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "postgres")
	sess.raw = true
	var buf bytes.Buffer
	sess.out = &buf

	path := filepath.Join(t.TempDir(), "repl.db")
	testutil.AssertNoError(t, sess.Execute("connect sqlite://"+path))
	testutil.AssertEqual(t, sess.dialect, "sqlite")
	testutil.AssertNoError(t, sess.store.Migrate())
	for _, name := range []string{"Fleet telemetry", "Dealer chatbot"} {
		_, err := sess.store.DB().Exec("INSERT INTO projects (project_name, industry) VALUES (?, ?)", name, "automotive")
		testutil.AssertNoError(t, err)
	}
	_, err := sess.store.DB().Exec("INSERT INTO projects (project_name, industry) VALUES (?, ?)", "Claims triage", "insurance")
	testutil.AssertNoError(t, err)

	for _, cmd := range []string{`leaf industry eq "automotive"`, "select project_name, industry", "run"} {
		testutil.AssertNoError(t, sess.Execute(cmd))
	}
	out := buf.String()
	for _, want := range []string{"### Project: Fleet telemetry", "industry: automotive", "Loaded 2 of 2."} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Claims triage") {
		t.Errorf("unexpected filtered record in output:\n%s", out)
	}

	testutil.AssertNoError(t, sess.Execute("disconnect"))
	if sess.store != nil {
		t.Error("expected store to be closed")
	}
}
