package hir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rrscript/rrc/internal/hir"
)

func TestSymbolsInternDedupesByName(t *testing.T) {
	s := hir.NewSymbols()
	a1 := s.Intern("x")
	a2 := s.Intern("x")
	b := s.Intern("y")

	require.Equal(t, a1, a2, "interning the same name twice must return the same SymbolID")
	require.NotEqual(t, a1, b)
	require.Equal(t, "x", s.Get(a1))
	require.Equal(t, "y", s.Get(b))
}

func TestSymbolsGetOutOfRangeIsSafe(t *testing.T) {
	s := hir.NewSymbols()
	require.Equal(t, "<invalid>", s.Get(hir.SymbolID(99)))
}

func TestScopeLookupPrefersInnermostBinding(t *testing.T) {
	outer := hir.NewScope(nil)
	outer.Insert("x", &hir.Object{Kind: hir.ObjGlobal, Sym: 1})

	inner := hir.NewScope(outer)
	inner.Insert("x", &hir.Object{Kind: hir.ObjLocal, Sym: 2})

	obj, ok := inner.Lookup("x")
	require.True(t, ok)
	require.Equal(t, hir.ObjLocal, obj.Kind, "the innermost binding must shadow the outer one")
}

func TestScopeLookupFallsThroughToOuter(t *testing.T) {
	outer := hir.NewScope(nil)
	outer.Insert("g", &hir.Object{Kind: hir.ObjGlobal, Sym: 1})
	inner := hir.NewScope(outer)

	obj, ok := inner.Lookup("g")
	require.True(t, ok)
	require.Equal(t, hir.ObjGlobal, obj.Kind)
}

func TestScopeLookupMissReturnsFalse(t *testing.T) {
	s := hir.NewScope(nil)
	_, ok := s.Lookup("nope")
	require.False(t, ok)
}

func TestScopeRootClimbsToOutermost(t *testing.T) {
	root := hir.NewScope(nil)
	mid := hir.NewScope(root)
	leaf := hir.NewScope(mid)
	require.Same(t, root, leaf.Root())
}
