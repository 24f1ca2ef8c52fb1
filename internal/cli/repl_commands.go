package cli

import (
	"sort"
	"strings"

	"github.com/bawdo/filtersql/filter"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- display ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "json", handler: func(_ string) error { return s.cmdJSON() }},
		{prefix: "tree", handler: func(_ string) error { return s.cmdTree() }},
		{prefix: "dot ", handler: func(a string) error { return s.cmdDot(a) }},
		{prefix: "dot", handler: func(_ string) error { return s.cmdDot("") }},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},

		// --- filter building ---
		{prefix: "where ", handler: func(a string) error { return s.cmdWhere(a) }},
		{prefix: "and ", handler: func(a string) error { return s.cmdCombine(filter.And, a) }},
		{prefix: "or ", handler: func(a string) error { return s.cmdCombine(filter.Or, a) }},
		{prefix: "leaf ", handler: func(a string) error { return s.cmdLeaf(a) }, completer: completeLeafArgs},
		{prefix: "not", handler: func(_ string) error { return s.cmdNot() }},

		// --- query ---
		{prefix: "table ", handler: func(a string) error { return s.cmdTable(a) }, completer: completeTableArgs},
		{prefix: "from ", handler: func(a string) error { return s.cmdTable(a) }, completer: completeTableArgs, hidden: true},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},
		{prefix: "fields", handler: func(_ string) error { return s.cmdFields() }},
		{prefix: "select ", handler: func(a string) error { return s.cmdSelect(a) }, completer: completeFieldListArgs},
		{prefix: "select", handler: func(_ string) error { return s.cmdSelect("") }},
		{prefix: "limit ", handler: func(a string) error { return s.cmdLimit(a) }},
		{prefix: "limit", handler: func(_ string) error { return s.cmdLimit("") }},
		{prefix: "take ", handler: func(a string) error { return s.cmdLimit(a) }, hidden: true},
		{prefix: "offset ", handler: func(a string) error { return s.cmdOffset(a) }},
		{prefix: "offset", handler: func(_ string) error { return s.cmdOffset("") }},

		// --- rendering ---
		{prefix: "pretty", handler: func(_ string) error { return s.cmdPretty() }},
		{prefix: "dialect ", handler: func(a string) error { return s.cmdDialect(a) }, completer: completeDialectArgs},
		{prefix: "dialect", handler: func(_ string) error { return s.cmdDialect("") }},

		// --- database connectivity ---
		{prefix: "connect ", handler: func(a string) error { return s.cmdConnect(a) }},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdRun() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdRun() }, hidden: true},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// --- Argument completion ---

// completeLeafArgs completes "<field> <op> ...".
func completeLeafArgs(args string) (completionContext, string) {
	words := strings.Fields(args)
	trailing := strings.HasSuffix(args, " ")
	switch {
	case len(words) == 0:
		return contextField, ""
	case len(words) == 1 && !trailing:
		return contextField, words[0]
	case len(words) == 1 || (len(words) == 2 && !trailing):
		if trailing {
			return contextOperator, ""
		}
		return contextOperator, words[1]
	}
	return contextNone, ""
}

// completeFieldListArgs completes the last entry of a comma-separated list.
func completeFieldListArgs(args string) (completionContext, string) {
	return contextField, lastToken(args)
}

func completeTableArgs(args string) (completionContext, string) {
	return contextTableName, strings.TrimSpace(args)
}

func completeDialectArgs(args string) (completionContext, string) {
	return contextDialect, strings.TrimSpace(args)
}
