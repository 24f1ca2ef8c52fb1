package store

import (
	"fmt"
	"strings"
	"time"
)

// MaxTableRows caps the rows Table renders.
const MaxTableRows = 1000

// CellString renders a record value for display. Nil becomes NULL.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// Table renders the page as a bordered text table followed by a row count.
func (p *Page) Table() string {
	if len(p.Columns) == 0 {
		return "(0 rows)\n"
	}

	rows := p.Rows
	truncated := len(rows) > MaxTableRows
	if truncated {
		rows = rows[:MaxTableRows]
	}

	cells := make([][]string, len(rows))
	widths := make([]int, len(p.Columns))
	for i, c := range p.Columns {
		widths[i] = len(c)
	}
	for r, rec := range rows {
		cells[r] = make([]string, len(p.Columns))
		for i, c := range p.Columns {
			s := CellString(rec[c])
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	var b strings.Builder
	sep := buildSeparator(widths)

	b.WriteString(sep)
	b.WriteByte('|')
	for i, c := range p.Columns {
		fmt.Fprintf(&b, " %-*s |", widths[i], c)
	}
	b.WriteByte('\n')
	b.WriteString(sep)

	for _, row := range cells {
		b.WriteByte('|')
		for i, cell := range row {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteByte('\n')
	}
	b.WriteString(sep)

	if n := len(cells); n == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", n)
	}
	if truncated {
		fmt.Fprintf(&b, "(truncated at %d rows)\n", MaxTableRows)
	}
	return b.String()
}

func buildSeparator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}
