// Package quoting provides shared identifier quoting utilities.
package quoting

import (
	"encoding/hex"
	"strings"
)

// DoubleQuote quotes a SQL identifier using double quotes (PostgreSQL, SQLite, ANSI SQL).
// Internal double quotes are escaped by doubling them.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backtick quotes a SQL identifier using backticks (MySQL).
// Internal backticks are escaped by doubling them.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// SingleQuote renders s as a standard SQL string constant. Internal single
// quotes are doubled; backslashes are literal.
func SingleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// MySQLString renders s as a MySQL string constant that reads the same with
// or without NO_BACKSLASH_ESCAPES in sql_mode. Strings holding a backslash
// become a utf8mb4 hex literal; the rest are quoted as standard SQL.
func MySQLString(s string) string {
	if strings.Contains(s, `\`) {
		return "_utf8mb4 X'" + strings.ToUpper(hex.EncodeToString([]byte(s))) + "'"
	}
	return SingleQuote(s)
}

// LikeEscapeChar is the escape character used by EscapeLikePattern. Visitors
// render it in the ESCAPE clause of every pattern match.
const LikeEscapeChar = `\`

// EscapeLikePattern escapes LIKE wildcard characters (%, _) in a string
// so they are matched literally. The backslash is used as the escape character
// and is itself escaped first.
func EscapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// IsBareIdentifier reports whether s can be rendered without quotes:
// an ASCII letter or underscore followed by letters, digits or underscores.
func IsBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
