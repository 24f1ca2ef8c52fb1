package cli

import (
	"strings"

	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/store"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand   completionContext = iota // start of line or partial command
	contextTableName                          // after table
	contextField                              // after leaf or select
	contextOperator                           // after leaf <field>
	contextDialect                            // after dialect
	contextNone                               // inside a value
)

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextTableName:
		candidates = filterPrefix(c.sess.tableNames(), prefix)
	case contextField:
		candidates = filterPrefix(c.sess.fieldNames(), prefix)
	case contextOperator:
		candidates = filterPrefix(operatorNames(), prefix)
	case contextDialect:
		candidates = filterPrefix(store.Engines(), prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		// Add trailing space for convenience.
		newLine = append(newLine, []rune(suffix+" "))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)

	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue // exact-match commands have no arg completion
		}
		if strings.HasPrefix(lower, cmd.prefix) {
			if cmd.completer == nil {
				return contextNone, ""
			}
			return cmd.completer(line[len(cmd.prefix):])
		}
	}

	return contextCommand, strings.TrimSpace(line)
}

func operatorNames() []string {
	ops := filter.Operators()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return names
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the last whitespace- or comma-separated token.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t"); i >= 0 {
		return s[i+1:]
	}
	return s
}
