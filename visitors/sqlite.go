package visitors

import (
	"github.com/bawdo/filtersql/internal/quoting"
)

// SQLiteVisitor generates SQLite-dialect SQL.
// Identifiers are quoted with double quotes: "table"."column" (ANSI SQL).
// SQLite's LIKE is already case-insensitive for ASCII.
type SQLiteVisitor struct {
	*baseVisitor
}

// NewSQLiteVisitor creates a SQLiteVisitor ready for use.
func NewSQLiteVisitor(opts ...Option) *SQLiteVisitor {
	v := &SQLiteVisitor{}
	v.baseVisitor = &baseVisitor{
		outer:       v,
		dialect:     "sqlite",
		quoteIdent:  quoting.DoubleQuote,
		quoteString: quoting.SingleQuote,
		placeholder: func(_ int) string { return "?" },
	}
	v.applyOptions(opts)
	return v
}
