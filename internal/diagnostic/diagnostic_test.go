package diagnostic_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rrscript/rrc/internal/diagnostic"
)

func pos(file string, line, col int) diagnostic.Position {
	return diagnostic.Position{Filename: file, Line: line, Column: col}
}

func TestFormatPos(t *testing.T) {
	require.Equal(t, "main.rr:3:5:", diagnostic.FormatPos(pos("main.rr", 3, 5)))
}

func TestWithErrorUnwrapsToOriginalError(t *testing.T) {
	base := errors.New("boom")
	err := diagnostic.WithError(base, pos("a.rr", 1, 1), pos("a.rr", 1, 4))
	require.Same(t, base, errors.Unwrap(err))
}

func TestPrettyUnderlinesOffendingSpan(t *testing.T) {
	base := errors.New("type error")
	err := diagnostic.WithError(base, pos("a.rr", 1, 5), pos("a.rr", 1, 8),
		diagnostic.Spanf(diagnostic.Primary, pos("a.rr", 1, 5), pos("a.rr", 1, 8), "bad expression"))

	se, ok := err.(*diagnostic.SpanError)
	require.True(t, ok)

	out := se.Pretty([]string{"let x = bad"}, false)
	require.Contains(t, out, "type error")
	require.Contains(t, out, "bad expression")
	require.Contains(t, out, "let x = bad")
	// Columns 5..8: four spaces of offset, then a three-caret underline.
	require.Contains(t, out, "    ^^^ bad expression")
}

func TestPrettySkipsOutOfRangeLine(t *testing.T) {
	base := errors.New("oops")
	err := diagnostic.WithError(base, pos("a.rr", 99, 1), pos("a.rr", 99, 2),
		diagnostic.Spanf(diagnostic.Primary, pos("a.rr", 99, 1), pos("a.rr", 99, 2), "past end of file"))
	se := err.(*diagnostic.SpanError)

	out := se.Pretty([]string{"only one line"}, false)
	require.Contains(t, out, "oops")
	require.NotContains(t, out, "past end of file", "a span whose line is out of range must not render a source excerpt")
}
