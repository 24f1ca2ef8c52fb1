package visitors

import (
	"fmt"

	"github.com/bawdo/filtersql/internal/quoting"
)

// PostgresVisitor generates PostgreSQL-dialect SQL.
// Identifiers are quoted with double quotes: "table"."column". Pattern
// matches use ILIKE, and pgvector distance and array operators are available.
type PostgresVisitor struct {
	*baseVisitor
}

// NewPostgresVisitor creates a PostgresVisitor ready for use.
func NewPostgresVisitor(opts ...Option) *PostgresVisitor {
	v := &PostgresVisitor{}
	v.baseVisitor = &baseVisitor{
		outer:       v,
		dialect:     "postgres",
		features:    FeatureILike | FeatureArrays | FeatureVectors,
		quoteIdent:  quoting.DoubleQuote,
		quoteString: quoting.SingleQuote,
		placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	}
	v.applyOptions(opts)
	return v
}
