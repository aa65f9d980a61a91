package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rrscript/rrc/internal/hir"
	"github.com/rrscript/rrc/internal/optimize"
)

func span() hir.Span { return hir.Span{} }

func intLit(v int64) *hir.Lit { return hir.NewIntLit(span(), v) }

// A chain of locals each assigned a literal is fully substituted at O2: a
// later read sees the literal, never a reference to the intermediate
// local.
func TestO2ChainsLiteralSubstitutionThroughLocals(t *testing.T) {
	symbols := hir.NewSymbols()
	a := symbols.Intern("a")
	b := symbols.Intern("b")

	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{
		hir.NewLet(span(), a, nil, intLit(1)),
		hir.NewLet(span(), b, nil, hir.NewLocal(span(), a)),
		hir.NewReturn(span(), hir.NewLocal(span(), b)),
	}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O2)

	// Both lets are dead once their reads are substituted, so dead-let
	// elimination leaves the return as the only statement.
	ret := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*hir.Return)
	lit, ok := ret.Value.(*hir.Lit)
	require.True(t, ok, "a local chained to a literal through two lets must substitute to the literal at O2")
	require.Equal(t, int64(1), lit.IntVal)
}

// Once a local is reassigned to a non-eligible expression (a Binary), O2
// must never keep substituting its earlier literal value, and must never
// re-synthesize the Binary itself at a later use: a bare read of the
// local is emitted instead. dx is initialized from a global, so x + dx
// cannot constant-fold to a literal.
func TestO2NeverReexpandsBinaryAtLaterUse(t *testing.T) {
	symbols := hir.NewSymbols()
	x := symbols.Intern("x")
	dx := symbols.Intern("dx")
	input := symbols.Intern("input")

	reassign := hir.NewAssign(span(), hir.NewLLocal(span(), x),
		hir.NewBinary(span(), hir.Add, hir.NewLocal(span(), x), hir.NewLocal(span(), dx)))

	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{
		hir.NewLet(span(), x, nil, intLit(1)),
		hir.NewLet(span(), dx, nil, hir.NewGlobal(span(), input)),
		reassign,
		hir.NewExprStmt(span(), hir.NewLocal(span(), x)),
	}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O2)

	last := fn.Body.Stmts[3].(*hir.ExprStmt)
	_, ok := last.X.(*hir.Local)
	require.True(t, ok, "a later read of a reassigned-to-a-Binary local must stay a bare Local reference")
}

// Dead-let elimination at O1 drops a Let whose local is never read and
// whose initializer has no Call, but keeps one whose initializer calls
// something (may have a side effect).
func TestO1DropsDeadLetButKeepsEffectfulOne(t *testing.T) {
	symbols := hir.NewSymbols()
	unused := symbols.Intern("unused")
	sideEffect := symbols.Intern("sideEffect")
	callee := symbols.Intern("doSomething")

	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{
		hir.NewLet(span(), unused, nil, intLit(42)),
		hir.NewLet(span(), sideEffect, nil, hir.NewCall(span(), hir.NewGlobal(span(), callee), nil)),
		hir.NewReturn(span(), nil),
	}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O1)

	require.Len(t, fn.Body.Stmts, 2, "the dead let must be dropped but the effectful one kept")
	_, ok := fn.Body.Stmts[0].(*hir.Let)
	require.True(t, ok)
	require.Equal(t, sideEffect, fn.Body.Stmts[0].(*hir.Let).Name)
}

// A while loop whose condition folds to the literal false is eliminated
// entirely at O2 (never at O1, where it must be left alone).
func TestO2EliminatesWhileFalseLoop(t *testing.T) {
	symbols := hir.NewSymbols()
	whileStmt := hir.NewWhile(span(), hir.NewBoolLit(span(), false), hir.NewBlock(span(), nil))
	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{whileStmt}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O2)
	require.Empty(t, fn.Body.Stmts)
}

func TestO1LeavesWhileFalseLoopAlone(t *testing.T) {
	symbols := hir.NewSymbols()
	whileStmt := hir.NewWhile(span(), hir.NewBoolLit(span(), false), hir.NewBlock(span(), nil))
	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{whileStmt}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O1)
	require.Len(t, fn.Body.Stmts, 1)
}

// Dividing two int literals must fold to a float literal, never an int:
// R's `/` always performs floating-point division, so O1/O2 folding must
// match what O0 produces at runtime (`6L / 4L` is 1.5, not 1L).
func TestConstantFoldingDivOfTwoIntsProducesFloat(t *testing.T) {
	symbols := hir.NewSymbols()
	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{
		hir.NewExprStmt(span(), hir.NewBinary(span(), hir.Div, intLit(6), intLit(4))),
	}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O1)

	stmt := fn.Body.Stmts[0].(*hir.ExprStmt)
	lit, ok := stmt.X.(*hir.Lit)
	require.True(t, ok, "6L / 4L must constant-fold")
	require.Equal(t, hir.FloatLit, lit.Kind)
	require.Equal(t, 1.5, lit.FloatVal)
}

// R's `%%` takes the sign of the divisor, unlike Go's `%` which takes the
// sign of the dividend: -7L %% 3L is 2, not -1.
func TestConstantFoldingModUsesDivisorSign(t *testing.T) {
	symbols := hir.NewSymbols()
	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{
		hir.NewExprStmt(span(), hir.NewBinary(span(), hir.Mod, intLit(-7), intLit(3))),
	}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O1)

	stmt := fn.Body.Stmts[0].(*hir.ExprStmt)
	lit, ok := stmt.X.(*hir.Lit)
	require.True(t, ok, "-7L %% 3L must constant-fold")
	require.Equal(t, hir.IntLit, lit.Kind)
	require.Equal(t, int64(2), lit.IntVal)
}

// O0 is a strict no-op: the module is returned unmodified.
func TestO0IsNoOp(t *testing.T) {
	symbols := hir.NewSymbols()
	x := symbols.Intern("x")
	fn := hir.NewFn(span(), symbols.Intern("main"), nil, nil, hir.NewBlock(span(), []hir.Stmt{
		hir.NewLet(span(), x, nil, hir.NewBinary(span(), hir.Add, intLit(2), intLit(3))),
	}))
	mod := &hir.Module{Symbols: symbols, Items: []hir.Item{hir.ItemFn{Fn: fn}}}

	optimize.Optimize(mod, optimize.O0)

	let := fn.Body.Stmts[0].(*hir.Let)
	_, ok := let.Init.(*hir.Binary)
	require.True(t, ok, "O0 must not constant-fold")
}
