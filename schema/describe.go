package schema

import (
	"fmt"
	"strings"
)

// Describe renders the fields of table for a tool description, one
// markdown bullet per column. Vector columns are left out; text columns
// backed by an embedding are marked as searchable with the semantic
// operator.
func (s *Schema) Describe(table string) string {
	t, ok := s.index[table]
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Available Table Fields:")
	for _, c := range t.Columns {
		if c.Kind == KindVector {
			continue
		}
		desc := c.Description
		if desc == "" {
			desc = "No description provided."
		}
		kind := string(c.Kind)
		if c.Embedding != "" {
			kind += ", semantic"
		}
		fmt.Fprintf(&sb, "\n- **%s** (%s): %s", c.Name, kind, desc)
	}
	return sb.String()
}

// SemanticColumns returns the columns of table that support the semantic
// operator.
func (s *Schema) SemanticColumns(table string) []string {
	t, ok := s.index[table]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range t.Columns {
		if c.Embedding != "" {
			out = append(out, c.Name)
		}
	}
	return out
}
