package visitors

import (
	"strings"

	"github.com/bawdo/filtersql/nodes"
)

// FormattingVisitor wraps a dialect Renderer and produces human-readable
// multi-line SQL. Only VisitSelectCore is overridden; every other node is
// rendered by the wrapped dialect, so quoting and binding are unchanged.
type FormattingVisitor struct {
	Renderer
}

var _ Renderer = (*FormattingVisitor)(nil)

// NewFormattingVisitor constructs a FormattingVisitor wrapping the given
// dialect visitor.
func NewFormattingVisitor(inner Renderer) *FormattingVisitor {
	if inner == nil {
		panic("filtersql: FormattingVisitor requires a non-nil inner visitor")
	}
	return &FormattingVisitor{Renderer: inner}
}

// VisitSelectCore renders a SELECT statement in multi-line formatted style.
// Projections use leading-comma continuation; all major clauses begin on a
// new line. Child expressions are rendered by the wrapped dialect.
func (f *FormattingVisitor) VisitSelectCore(node *nodes.SelectCore) string {
	var sb strings.Builder
	inner := f.Renderer

	if node.Comment != "" {
		sb.WriteString("/* ")
		sb.WriteString(strings.ReplaceAll(node.Comment, "*/", "* /"))
		sb.WriteString(" */\n")
	}

	sb.WriteString("SELECT")

	// Projections, leading-comma style
	if len(node.Projections) == 0 {
		sb.WriteString(" *")
	} else {
		sb.WriteString(" ")
		sb.WriteString(node.Projections[0].Accept(inner))
		for _, p := range node.Projections[1:] {
			sb.WriteString("\n\t,")
			sb.WriteString(p.Accept(inner))
		}
	}

	if node.From != nil {
		sb.WriteString("\nFROM ")
		sb.WriteString(node.From.Accept(inner))
	}

	if len(node.Wheres) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(node.Wheres[0].Accept(inner))
		for _, w := range node.Wheres[1:] {
			sb.WriteString("\n\tAND ")
			sb.WriteString(w.Accept(inner))
		}
	}

	if node.Limit != nil {
		sb.WriteString("\nLIMIT ")
		sb.WriteString(node.Limit.Accept(inner))
	}

	if node.Offset != nil {
		sb.WriteString("\nOFFSET ")
		sb.WriteString(node.Offset.Accept(inner))
	}

	return sb.String()
}
