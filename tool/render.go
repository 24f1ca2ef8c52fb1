package tool

import (
	"fmt"
	"strings"

	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/schema"
	"github.com/bawdo/filtersql/store"
)

// Shape renders records as markdown blocks headed by the indicator column.
// Nil values and the indicator itself are left out of the body.
func Shape(page *store.Page, indicator, namespace string) string {
	if page == nil || len(page.Rows) == 0 {
		return "No records found."
	}

	blocks := make([]string, 0, len(page.Rows))
	for _, rec := range page.Rows {
		heading := "Record"
		if v, ok := rec[indicator]; ok && v != nil {
			heading = store.CellString(v)
		}
		lines := []string{strings.TrimSpace("### " + namespace + " " + heading)}
		for _, col := range page.Columns {
			if col == indicator {
				continue
			}
			v := rec[col]
			if v == nil {
				continue
			}
			lines = append(lines, col+": "+store.CellString(v))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// Render wraps the shaped records with the pagination summary.
func Render(page *store.Page, indicator, namespace string) string {
	var total int64
	var n int
	if page != nil {
		total, n = page.Total, len(page.Rows)
	}
	return fmt.Sprintf(`## Query results

%s

## Query pagination

Loaded %d of %d.
Notify user about total records count, and how many records were loaded.
`, Shape(page, indicator, namespace), n, total)
}

// Description is the tool description shown to agents: usage guidance
// followed by the field list of the tool's table.
func (s *Search) Description() string {
	cur := s.schema.Current()
	semantic := cur.SemanticColumns(s.table)

	ops := make([]string, 0, len(filter.Operators()))
	for _, op := range filter.Operators() {
		ops = append(ops, string(op))
	}

	var sb strings.Builder
	sb.WriteString("Searches the " + s.table + " table with a filter tree of conditions combined by and, or and not.\n\n")
	sb.WriteString("Capabilities:\n")
	sb.WriteString("Structured filtering: leaves compare a field with an operator and a value. Operators: " + strings.Join(ops, ", ") + ".\n")
	if len(semantic) > 0 {
		sb.WriteString("Semantic search: the semantic operator matches meaning in " + strings.Join(semantic, ", ") +
			" and takes {\"query\": text, \"threshold\": distance}.\n")
	}
	sb.WriteString("\nConstraints:\n")
	sb.WriteString("Semantic search only works on the fields listed above. It cannot be used for dates or numbers.\n")
	fmt.Fprintf(&sb, "Results are paged: limit defaults to %d and offset to %d.\n", DefaultLimit, DefaultOffset)
	sb.WriteString("\n### Table Schema:\n\n")
	sb.WriteString(cur.Describe(s.table))
	return sb.String()
}

// InputSchema is the JSON schema of the tool arguments.
func (s *Search) InputSchema() map[string]any {
	var fields []string
	if t, ok := s.schema.Current().Table(s.table); ok {
		for _, c := range t.Columns {
			if c.Kind != schema.KindVector {
				fields = append(fields, c.Name)
			}
		}
	}

	ops := make([]string, 0, len(filter.Operators()))
	for _, op := range filter.Operators() {
		ops = append(ops, string(op))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filter_tree": map[string]any{
				"type": "object",
				"description": "Either a leaf {\"field\", \"op\", \"value\"} with op one of " + strings.Join(ops, ", ") +
					", or a group {\"op\": \"and\"|\"or\"|\"not\", \"children\": [...]}.",
			},
			"limit":  map[string]any{"type": "integer", "minimum": 0, "default": DefaultLimit},
			"offset": map[string]any{"type": "integer", "minimum": 0, "default": DefaultOffset},
			"select_fields": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": fields},
			},
		},
		"additionalProperties": false,
	}
}
