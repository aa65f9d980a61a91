// Package diagnostic carries source spans through every compiler stage and
// renders them as human-readable, optionally colorized error reports.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/logrusorgru/aurora"
)

// Position reuses participle's lexer.Position so every stage of the
// pipeline (lexer, ast, hir, diagnostic) shares one span representation.
type Position = lexer.Position

// Type distinguishes the primary offending span from supporting context.
type Type int

const (
	Primary Type = iota
	Secondary
)

// Span is one annotated region of source attached to an error.
type Span struct {
	Message string
	Type    Type
	Start   Position
	End     Position
}

// Option mutates a SpanError as it is constructed.
type Option func(*SpanError)

// Spanf builds an Option that appends an annotated span with a formatted message.
func Spanf(t Type, start, end Position, format string, a ...interface{}) Option {
	return func(se *SpanError) {
		se.Spans = append(se.Spans, Span{
			Message: fmt.Sprintf(format, a...),
			Type:    t,
			Start:   start,
			End:     end,
		})
	}
}

// SpanError is an error decorated with one or more source spans.
type SpanError struct {
	Err      error
	Pos, End Position
	Spans    []Span
}

func (se *SpanError) Error() string {
	return fmt.Sprintf("%s %s", FormatPos(se.Pos), se.Err)
}

func (se *SpanError) Unwrap() error {
	return se.Err
}

// WithError wraps err with span annotations rooted at pos/end.
func WithError(err error, pos, end Position, opts ...Option) error {
	se := &SpanError{Err: err, Pos: pos, End: end}
	for _, opt := range opts {
		opt(se)
	}
	return se
}

// FormatPos renders a Position as "file:line:col:".
func FormatPos(pos Position) string {
	return fmt.Sprintf("%s:%d:%d:", pos.Filename, pos.Line, pos.Column)
}

// Pretty renders the error and its spans against the original source lines,
// underlining the offending column range. Colorized when color is true.
func (se *SpanError) Pretty(lines []string, color bool) string {
	au := aurora.NewAurora(color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", au.Bold(au.Red("error:")), au.Bold(se.Err.Error()))

	for _, span := range se.Spans {
		fmt.Fprintf(&b, "  %s\n", au.Cyan(FormatPos(span.Start)))
		idx := span.Start.Line - 1
		if idx >= 0 && idx < len(lines) {
			line := lines[idx]
			b.WriteString("    " + line + "\n")

			start := span.Start.Column - 1
			if start < 0 {
				start = 0
			}
			if start > len(line) {
				start = len(line)
			}
			width := span.End.Column - span.Start.Column
			if width < 1 {
				width = 1
			}

			underline := strings.Repeat(" ", start) + strings.Repeat("^", width)
			msgColor := au.Red
			marker := underline
			if span.Type == Secondary {
				msgColor = au.Green
				marker = strings.Repeat(" ", start) + strings.Repeat("-", width)
			}
			fmt.Fprintf(&b, "    %s", msgColor(marker))
			if span.Message != "" {
				fmt.Fprintf(&b, " %s", msgColor(span.Message))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
