package visitors

import (
	"github.com/bawdo/filtersql/internal/quoting"
	"github.com/bawdo/filtersql/nodes"
)

// MySQLVisitor generates MySQL-dialect SQL.
// Identifiers are quoted with backticks: `table`.`column`.
type MySQLVisitor struct {
	*baseVisitor
}

// NewMySQLVisitor creates a MySQLVisitor ready for use.
// MySQL has no array or vector operators.
func NewMySQLVisitor(opts ...Option) *MySQLVisitor {
	v := &MySQLVisitor{}
	v.baseVisitor = &baseVisitor{
		outer:       v,
		dialect:     "mysql",
		quoteIdent:  quoting.Backtick,
		quoteString: quoting.MySQLString,
		placeholder: func(_ int) string { return "?" },
	}
	v.applyOptions(opts)
	return v
}

// VisitMatch lowers both sides so the match is case-insensitive under
// binary collations too.
func (v *MySQLVisitor) VisitMatch(n *nodes.MatchNode) string {
	return "LOWER(" + n.Expr.Accept(v) + ") LIKE LOWER(" + n.Pattern.Accept(v) + ") ESCAPE " + v.quoteString(n.Escape)
}
