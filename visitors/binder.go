package visitors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPlaceholder is returned by Resolve when the SQL text and the bound
// values disagree: an unknown key, a key used twice, a key out of bind
// order, or a bound value that the SQL never references.
var ErrPlaceholder = errors.New("placeholder mismatch")

// keyPrefix starts every synthetic key. Keys look like :p0, :p1, ...
const keyPrefix = ":p"

// Binder collects literal values during rendering. Each Bind call appends a
// value and returns a fresh synthetic key; Resolve later rewrites those keys
// into the driver's positional placeholders in a single pass.
//
// A Binder belongs to one compile. It is not safe for concurrent use.
type Binder struct {
	values []any
}

// NewBinder returns an empty Binder.
func NewBinder() *Binder {
	return &Binder{}
}

// Bind records val and returns its synthetic key.
func (b *Binder) Bind(val any) string {
	key := keyPrefix + strconv.Itoa(len(b.values))
	b.values = append(b.values, val)
	return key
}

// Len returns the number of bound values.
func (b *Binder) Len() int {
	return len(b.values)
}

// Values returns a copy of the bound values in bind order.
func (b *Binder) Values() []any {
	out := make([]any, len(b.values))
	copy(out, b.values)
	return out
}

// Reset discards all bound values.
func (b *Binder) Reset() {
	b.values = nil
}

// Resolve rewrites every synthetic key in sql to placeholder(position),
// where position is 1-based. Keys must appear in bind order, each exactly
// once, and every bound value must be referenced. Quoted identifiers,
// string literals and block comments are copied untouched.
//
// Resolving the same fragment twice (e.g. for a data statement and its
// count statement) yields the same parameter slice.
func (b *Binder) Resolve(sql string, placeholder func(int) string) (string, []any, error) {
	var sb strings.Builder
	sb.Grow(len(sql))
	next := 0

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '"' || c == '`' || c == '\'':
			end := skipQuoted(sql, i, c)
			sb.WriteString(sql[i:end])
			i = end
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				sb.WriteString(sql[i:])
				i = len(sql)
				continue
			}
			end += i + 4
			sb.WriteString(sql[i:end])
			i = end
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			sb.WriteString("::")
			i += 2
		case strings.HasPrefix(sql[i:], keyPrefix) && i+len(keyPrefix) < len(sql) && isDigit(sql[i+len(keyPrefix)]):
			start := i + len(keyPrefix)
			end := start
			for end < len(sql) && isDigit(sql[end]) {
				end++
			}
			idx, err := strconv.Atoi(sql[start:end])
			if err != nil || idx >= len(b.values) {
				return "", nil, fmt.Errorf("%w: unknown key %s", ErrPlaceholder, sql[i:end])
			}
			if idx < next {
				return "", nil, fmt.Errorf("%w: key %s referenced more than once", ErrPlaceholder, sql[i:end])
			}
			if idx > next {
				return "", nil, fmt.Errorf("%w: key %s appears before %s%d", ErrPlaceholder, sql[i:end], keyPrefix, next)
			}
			next++
			sb.WriteString(placeholder(next))
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}

	if next != len(b.values) {
		return "", nil, fmt.Errorf("%w: %d values bound, %d referenced", ErrPlaceholder, len(b.values), next)
	}
	return sb.String(), b.Values(), nil
}

// skipQuoted returns the index just past the quoted run starting at start.
// A doubled quote character inside the run is part of the content. An
// unterminated run extends to the end of s.
func skipQuoted(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
