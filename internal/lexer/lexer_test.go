package lexer

import (
	"testing"

	"github.com/rrscript/rrc/internal/token"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token.Token) []token.Kind {
	var ks []token.Kind
	for _, t := range toks {
		ks = append(ks, t.Kind)
	}
	return ks
}

func TestDottedIdentifier(t *testing.T) {
	toks, err := New("t.rr", "idx.cube(2L, 1L)").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.IDENT, toks[0].Kind)
	require.Equal(t, "idx.cube", toks[0].Literal)
}

func TestNewlineElidedInsideParens(t *testing.T) {
	toks, err := New("t.rr", "add(1L,\n2L)\n").Tokenize()
	require.NoError(t, err)
	require.Equal(t,
		[]token.Kind{token.IDENT, token.LPAREN, token.INT, token.COMMA, token.INT, token.RPAREN, token.NEWLINE, token.EOF},
		kinds(toks),
		"newline inside parens must be elided; the one after the closing paren is kept")
}

func TestNewlineSignificantAtTopLevel(t *testing.T) {
	toks, err := New("t.rr", "x <- 1L\ny <- 2L\n").Tokenize()
	require.NoError(t, err)
	require.Contains(t, kinds(toks), token.NEWLINE)
}

func TestAssignOperators(t *testing.T) {
	toks, err := New("t.rr", "x <- 1L\ny = 2L\nz += 1L\n").Tokenize()
	require.NoError(t, err)
	var got []token.Kind
	for _, tk := range toks {
		if tk.Kind == token.ASSIGN_ARROW || tk.Kind == token.ASSIGN_EQ || tk.Kind == token.PLUS_EQ {
			got = append(got, tk.Kind)
		}
	}
	require.Equal(t, []token.Kind{token.ASSIGN_ARROW, token.ASSIGN_EQ, token.PLUS_EQ}, got)
}

func TestIntSuffixAndFloat(t *testing.T) {
	toks, err := New("t.rr", "1L 2.5 3").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.INT, toks[0].Kind)
	require.Equal(t, "1L", toks[0].Literal)
	require.Equal(t, token.FLOAT, toks[1].Kind)
	require.Equal(t, token.INT, toks[2].Kind)
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	_, err := New("t.rr", `"abc`).Tokenize()
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
}

func TestRangeOperator(t *testing.T) {
	toks, err := New("t.rr", "1L..n").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.INT, toks[0].Kind)
	require.Equal(t, token.RANGE, toks[1].Kind)
	require.Equal(t, token.IDENT, toks[2].Kind)
}

func TestStringEscapes(t *testing.T) {
	toks, err := New("t.rr", `"a\nb"`).Tokenize()
	require.NoError(t, err)
	require.Equal(t, "a\nb", toks[0].Literal)
}
