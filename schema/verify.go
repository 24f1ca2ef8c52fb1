package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Introspector lists the columns a live database has for a table.
type Introspector interface {
	TableColumns(ctx context.Context, table string) ([]string, error)
}

// Verify checks that every allowlisted table and column exists in the
// database behind db.
func (s *Schema) Verify(ctx context.Context, db Introspector) error {
	var problems []string
	for _, t := range s.Tables {
		cols, err := db.TableColumns(ctx, t.Name)
		if err != nil {
			return fmt.Errorf("schema: inspect %s: %w", t.Name, err)
		}
		if len(cols) == 0 {
			problems = append(problems, fmt.Sprintf("table %q not found", t.Name))
			continue
		}
		have := make(map[string]bool, len(cols))
		for _, c := range cols {
			have[strings.ToLower(c)] = true
		}
		var missing []string
		for _, c := range t.Columns {
			if !have[strings.ToLower(c.Name)] {
				missing = append(missing, c.Name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("table %q lacks columns %s", t.Name, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("schema: database does not match: %s", strings.Join(problems, "; "))
	}
	return nil
}
