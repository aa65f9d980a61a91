// Package optimize rewrites HIR at one of three selectable levels while
// holding the no-duplication/no-stale-reexpansion invariant: a later use
// of a name is always emitted as a reference to that name, never as a
// fresh copy of the expression it was assigned from, except where a
// narrow, provably-safe substitution is allowed (see eligible below).
//
// The tracker is a single forward walk building, at each point, the set
// of locals whose current value is known to equal a literal or another
// already-substituted local — never re-derived by re-parsing source
// text, per design note "prefer explicit use-def tracking over syntactic
// rewriting."
package optimize

import "github.com/rrscript/rrc/internal/hir"

// Level selects how aggressively the optimizer rewrites HIR.
type Level int

const (
	O0 Level = iota // straight lowering, no transforms
	O1               // constant folding, dead-let elimination
	O2               // O1 plus safe inlining and branch simplification
)

// Optimize rewrites every function body (and top-level statement) in mod
// in place and returns it.
func Optimize(mod *hir.Module, level Level) *hir.Module {
	if level == O0 {
		return mod
	}
	topLevel := newState()
	for i, item := range mod.Items {
		switch it := item.(type) {
		case hir.ItemFn:
			optimizeFn(it.Fn, level)
		case hir.ItemExprStmt:
			it.X = foldAndInline(it.X, topLevel, level)
			mod.Items[i] = it
		case hir.ItemAssign:
			it.Value = foldAndInline(it.Value, topLevel, level)
			it.Target = optimizeLValue(it.Target, topLevel, level)
			if local, ok := it.Target.(*hir.LLocal); ok {
				if level >= O2 {
					topLevel.set(local.Sym, it.Value)
				} else {
					topLevel.invalidate(local.Sym)
				}
			}
			mod.Items[i] = it
		}
	}
	return mod
}

func optimizeFn(fn *hir.Fn, level Level) {
	s := newState()
	fn.Body.Stmts = optimizeStmts(fn.Body.Stmts, s, level)
	// Dead-let elimination runs once over the whole body: a let inside a
	// nested block may be read after that block, which a per-block pass
	// cannot see.
	if level >= O1 {
		fn.Body.Stmts = eliminateDeadLets(fn.Body.Stmts)
	}
}

// state is the use-def tracker: for each local whose current value is
// known safe to substitute, the expression to substitute it with.
type state struct {
	defs map[hir.SymbolID]hir.Expr
}

func newState() *state { return &state{defs: make(map[hir.SymbolID]hir.Expr)} }

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.defs {
		c.defs[k] = v
	}
	return c
}

func (s *state) set(sym hir.SymbolID, e hir.Expr) {
	if cand, ok := eligible(e, s); ok {
		s.defs[sym] = cand
	} else {
		delete(s.defs, sym)
	}
}

func (s *state) invalidate(sym hir.SymbolID) { delete(s.defs, sym) }

// eligible reports whether e is safe to substitute at a later use site:
// a literal, or a read of another local that is itself currently
// substitutable (chained).
func eligible(e hir.Expr, s *state) (hir.Expr, bool) {
	switch x := e.(type) {
	case *hir.Lit:
		return x, true
	case *hir.Local:
		if cand, ok := s.defs[x.Sym]; ok {
			return cand, true
		}
	}
	return nil, false
}

// optimizeStmts processes a straight-line statement sequence, threading
// the use-def state forward and flattening any statement that a pass
// rewrites into zero or more replacement statements (branch
// simplification).
func optimizeStmts(stmts []hir.Stmt, s *state, level Level) []hir.Stmt {
	var out []hir.Stmt
	for _, stmt := range stmts {
		out = append(out, optimizeStmt(stmt, s, level)...)
	}
	return out
}

func optimizeStmt(stmt hir.Stmt, s *state, level Level) []hir.Stmt {
	switch st := stmt.(type) {
	case *hir.Let:
		st.Init = foldAndInline(st.Init, s, level)
		if level >= O2 {
			s.set(st.Name, st.Init)
		} else {
			s.invalidate(st.Name)
		}
		return []hir.Stmt{st}

	case *hir.Assign:
		st.Value = foldAndInline(st.Value, s, level)
		st.Target = optimizeLValue(st.Target, s, level)
		if local, ok := st.Target.(*hir.LLocal); ok {
			if level >= O2 {
				s.set(local.Sym, st.Value)
			} else {
				s.invalidate(local.Sym)
			}
		}
		return []hir.Stmt{st}

	case *hir.ExprStmt:
		st.X = foldAndInline(st.X, s, level)
		return []hir.Stmt{st}

	case *hir.Return:
		if st.Value != nil {
			st.Value = foldAndInline(st.Value, s, level)
		}
		return []hir.Stmt{st}

	case *hir.Break, *hir.Continue:
		return []hir.Stmt{st}

	case *hir.If:
		st.Cond = foldAndInline(st.Cond, s, level)

		thenState := s.clone()
		st.Then.Stmts = optimizeStmts(st.Then.Stmts, thenState, level)

		var elseTouched map[hir.SymbolID]bool
		if st.Else != nil {
			elseState := s.clone()
			st.Else.Stmts = optimizeStmts(st.Else.Stmts, elseState, level)
			elseTouched = touchedSymbols(st.Else.Stmts)
		}
		for sym := range touchedSymbols(st.Then.Stmts) {
			s.invalidate(sym)
		}
		for sym := range elseTouched {
			s.invalidate(sym)
		}

		if level >= O2 {
			if lit, ok := st.Cond.(*hir.Lit); ok && lit.Kind == hir.BoolLit {
				if lit.BoolVal {
					return st.Then.Stmts
				}
				if st.Else != nil {
					return st.Else.Stmts
				}
				return nil
			}
		}
		return []hir.Stmt{st}

	case *hir.While:
		touched := touchedSymbols(st.Body.Stmts)
		bodyState := s.clone()
		for sym := range touched {
			bodyState.invalidate(sym)
		}
		st.Cond = foldAndInline(st.Cond, bodyState, level)
		st.Body.Stmts = optimizeStmts(st.Body.Stmts, bodyState, level)
		for sym := range touched {
			s.invalidate(sym)
		}

		if level >= O2 {
			if lit, ok := st.Cond.(*hir.Lit); ok && lit.Kind == hir.BoolLit && !lit.BoolVal {
				return nil
			}
		}
		return []hir.Stmt{st}

	case *hir.For:
		touched := touchedSymbols(st.Body.Stmts)
		bodyState := s.clone()
		bodyState.invalidate(st.Name)
		for sym := range touched {
			bodyState.invalidate(sym)
		}
		if st.Iter.Kind == hir.ForIterRange {
			st.Iter.Range.Start = foldAndInline(st.Iter.Range.Start, s, level)
			st.Iter.Range.End = foldAndInline(st.Iter.Range.End, s, level)
		} else {
			st.Iter.Expr = foldAndInline(st.Iter.Expr, s, level)
		}
		st.Body.Stmts = optimizeStmts(st.Body.Stmts, bodyState, level)
		for sym := range touched {
			s.invalidate(sym)
		}
		return []hir.Stmt{st}

	default:
		return []hir.Stmt{stmt}
	}
}

func optimizeLValue(target hir.LValue, s *state, level Level) hir.LValue {
	switch t := target.(type) {
	case *hir.LIndex:
		t.Base = foldAndInline(t.Base, s, level)
		for i, idx := range t.Indices {
			t.Indices[i] = foldAndInline(idx, s, level)
		}
		return t
	case *hir.LField:
		t.Base = foldAndInline(t.Base, s, level)
		return t
	default:
		return target
	}
}

// foldAndInline recursively simplifies e bottom-up: subexpressions first,
// then (at O1+) constant folding, then (at O2) substitution of a local
// read whose value is currently known and safe.
func foldAndInline(e hir.Expr, s *state, level Level) hir.Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *hir.Lit:
		return x

	case *hir.Local:
		if level >= O2 {
			if cand, ok := s.defs[x.Sym]; ok {
				return cand
			}
		}
		return x

	case *hir.Global:
		return x

	case *hir.Unary:
		x.X = foldAndInline(x.X, s, level)
		if level >= O1 {
			if lit, ok := foldUnary(x.Op, x.X); ok {
				return lit
			}
		}
		return x

	case *hir.Binary:
		x.X = foldAndInline(x.X, s, level)
		x.Y = foldAndInline(x.Y, s, level)
		if level >= O1 {
			if lit, ok := foldBinary(x.Op, x.X, x.Y); ok {
				return lit
			}
		}
		return x

	case *hir.Call:
		x.Callee = foldAndInline(x.Callee, s, level)
		for i := range x.Args {
			x.Args[i].Value = foldAndInline(x.Args[i].Value, s, level)
		}
		return x

	case *hir.Index:
		x.X = foldAndInline(x.X, s, level)
		for i, idx := range x.Indices {
			x.Indices[i] = foldAndInline(idx, s, level)
		}
		return x

	case *hir.Field:
		x.X = foldAndInline(x.X, s, level)
		return x

	case *hir.Range:
		x.Start = foldAndInline(x.Start, s, level)
		x.End = foldAndInline(x.End, s, level)
		return x

	case *hir.Array:
		for i, el := range x.Elems {
			x.Elems[i] = foldAndInline(el, s, level)
		}
		return x

	case *hir.Record:
		for i := range x.Fields {
			x.Fields[i].Value = foldAndInline(x.Fields[i].Value, s, level)
		}
		return x

	case *hir.Block:
		x.Stmts = optimizeStmts(x.Stmts, s.clone(), level)
		return x

	default:
		return e
	}
}

func foldUnary(op hir.UnOp, x hir.Expr) (*hir.Lit, bool) {
	lit, ok := x.(*hir.Lit)
	if !ok {
		return nil, false
	}
	switch op {
	case hir.Neg:
		switch lit.Kind {
		case hir.IntLit:
			return hir.NewIntLit(lit.Span(), -lit.IntVal), true
		case hir.FloatLit:
			return hir.NewFloatLit(lit.Span(), -lit.FloatVal), true
		}
	case hir.Not:
		if lit.Kind == hir.BoolLit {
			return hir.NewBoolLit(lit.Span(), !lit.BoolVal), true
		}
	}
	return nil, false
}

func foldBinary(op hir.BinOp, x, y hir.Expr) (*hir.Lit, bool) {
	xl, ok := x.(*hir.Lit)
	if !ok {
		return nil, false
	}
	yl, ok := y.(*hir.Lit)
	if !ok {
		return nil, false
	}

	numeric := (xl.Kind == hir.IntLit || xl.Kind == hir.FloatLit) &&
		(yl.Kind == hir.IntLit || yl.Kind == hir.FloatLit)
	if numeric {
		if xl.Kind == hir.IntLit && yl.Kind == hir.IntLit {
			a, b := xl.IntVal, yl.IntVal
			switch op {
			case hir.Add:
				return hir.NewIntLit(xl.Span(), a+b), true
			case hir.Sub:
				return hir.NewIntLit(xl.Span(), a-b), true
			case hir.Mul:
				return hir.NewIntLit(xl.Span(), a*b), true
			case hir.Div:
				// R's `/` always performs floating-point division, even on two
				// integer operands; `%/%` is the separate integer-division
				// operator. Folding this to an int literal would make the
				// result diverge from O0's runtime evaluation.
				if b != 0 {
					return hir.NewFloatLit(xl.Span(), float64(a)/float64(b)), true
				}
				return nil, false
			case hir.Mod:
				// R's `%%` takes the sign of the divisor, unlike Go's `%`
				// which takes the sign of the dividend.
				if b != 0 {
					return hir.NewIntLit(xl.Span(), rMod(a, b)), true
				}
				return nil, false
			case hir.Eq:
				return hir.NewBoolLit(xl.Span(), a == b), true
			case hir.Neq:
				return hir.NewBoolLit(xl.Span(), a != b), true
			case hir.Lt:
				return hir.NewBoolLit(xl.Span(), a < b), true
			case hir.Lte:
				return hir.NewBoolLit(xl.Span(), a <= b), true
			case hir.Gt:
				return hir.NewBoolLit(xl.Span(), a > b), true
			case hir.Gte:
				return hir.NewBoolLit(xl.Span(), a >= b), true
			}
			return nil, false
		}

		a, b := asFloat(xl), asFloat(yl)
		switch op {
		case hir.Add:
			return hir.NewFloatLit(xl.Span(), a+b), true
		case hir.Sub:
			return hir.NewFloatLit(xl.Span(), a-b), true
		case hir.Mul:
			return hir.NewFloatLit(xl.Span(), a*b), true
		case hir.Div:
			if b != 0 {
				return hir.NewFloatLit(xl.Span(), a/b), true
			}
			return nil, false
		case hir.Eq:
			return hir.NewBoolLit(xl.Span(), a == b), true
		case hir.Neq:
			return hir.NewBoolLit(xl.Span(), a != b), true
		case hir.Lt:
			return hir.NewBoolLit(xl.Span(), a < b), true
		case hir.Lte:
			return hir.NewBoolLit(xl.Span(), a <= b), true
		case hir.Gt:
			return hir.NewBoolLit(xl.Span(), a > b), true
		case hir.Gte:
			return hir.NewBoolLit(xl.Span(), a >= b), true
		}
		return nil, false
	}

	if xl.Kind == hir.BoolLit && yl.Kind == hir.BoolLit {
		switch op {
		case hir.And:
			return hir.NewBoolLit(xl.Span(), xl.BoolVal && yl.BoolVal), true
		case hir.Or:
			return hir.NewBoolLit(xl.Span(), xl.BoolVal || yl.BoolVal), true
		case hir.Eq:
			return hir.NewBoolLit(xl.Span(), xl.BoolVal == yl.BoolVal), true
		case hir.Neq:
			return hir.NewBoolLit(xl.Span(), xl.BoolVal != yl.BoolVal), true
		}
	}

	return nil, false
}

// rMod implements R's divisor-signed `%%`: the result always takes the
// sign of b, whereas Go's `%` takes the sign of a.
func rMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func asFloat(l *hir.Lit) float64 {
	if l.Kind == hir.FloatLit {
		return l.FloatVal
	}
	return float64(l.IntVal)
}

// eliminateDeadLets drops top-level Let statements of stmts whose local is
// never read anywhere in stmts (nested bodies included) and whose
// initializer cannot have a side effect (no call). Conservative: anything
// containing a call is kept, and Lets inside nested bodies are kept.
func eliminateDeadLets(stmts []hir.Stmt) []hir.Stmt {
	reads := readSymbols(stmts)
	var out []hir.Stmt
	for _, stmt := range stmts {
		if let, ok := stmt.(*hir.Let); ok {
			if !reads[let.Name] && !containsCall(let.Init) {
				continue
			}
		}
		out = append(out, stmt)
	}
	return out
}

// touchedSymbols collects every local assigned anywhere in stmts,
// descending into nested control-flow bodies.
func touchedSymbols(stmts []hir.Stmt) map[hir.SymbolID]bool {
	out := make(map[hir.SymbolID]bool)
	var walk func([]hir.Stmt)
	walk = func(ss []hir.Stmt) {
		for _, stmt := range ss {
			switch st := stmt.(type) {
			case *hir.Let:
				out[st.Name] = true
			case *hir.Assign:
				if local, ok := st.Target.(*hir.LLocal); ok {
					out[local.Sym] = true
				}
			case *hir.If:
				walk(st.Then.Stmts)
				if st.Else != nil {
					walk(st.Else.Stmts)
				}
			case *hir.While:
				walk(st.Body.Stmts)
			case *hir.For:
				out[st.Name] = true
				walk(st.Body.Stmts)
			}
		}
	}
	walk(stmts)
	return out
}

// readSymbols collects every local read anywhere in stmts, descending
// into every expression and nested control-flow body.
func readSymbols(stmts []hir.Stmt) map[hir.SymbolID]bool {
	out := make(map[hir.SymbolID]bool)
	visit := func(e hir.Expr) { walkExpr(e, func(x hir.Expr) {
		if local, ok := x.(*hir.Local); ok {
			out[local.Sym] = true
		}
	}) }

	var walk func([]hir.Stmt)
	walk = func(ss []hir.Stmt) {
		for _, stmt := range ss {
			switch st := stmt.(type) {
			case *hir.Let:
				visit(st.Init)
			case *hir.Assign:
				visit(st.Value)
				if idx, ok := st.Target.(*hir.LIndex); ok {
					visit(idx.Base)
					for _, i := range idx.Indices {
						visit(i)
					}
				}
				if fld, ok := st.Target.(*hir.LField); ok {
					visit(fld.Base)
				}
			case *hir.ExprStmt:
				visit(st.X)
			case *hir.Return:
				if st.Value != nil {
					visit(st.Value)
				}
			case *hir.If:
				visit(st.Cond)
				walk(st.Then.Stmts)
				if st.Else != nil {
					walk(st.Else.Stmts)
				}
			case *hir.While:
				visit(st.Cond)
				walk(st.Body.Stmts)
			case *hir.For:
				if st.Iter.Kind == hir.ForIterRange {
					visit(st.Iter.Range.Start)
					visit(st.Iter.Range.End)
				} else {
					visit(st.Iter.Expr)
				}
				walk(st.Body.Stmts)
			}
		}
	}
	walk(stmts)
	return out
}

// walkExpr visits e and every subexpression, calling visit on each.
func walkExpr(e hir.Expr, visit func(hir.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch x := e.(type) {
	case *hir.Unary:
		walkExpr(x.X, visit)
	case *hir.Binary:
		walkExpr(x.X, visit)
		walkExpr(x.Y, visit)
	case *hir.Call:
		walkExpr(x.Callee, visit)
		for _, a := range x.Args {
			walkExpr(a.Value, visit)
		}
	case *hir.Index:
		walkExpr(x.X, visit)
		for _, i := range x.Indices {
			walkExpr(i, visit)
		}
	case *hir.Field:
		walkExpr(x.X, visit)
	case *hir.Range:
		walkExpr(x.Start, visit)
		walkExpr(x.End, visit)
	case *hir.Array:
		for _, el := range x.Elems {
			walkExpr(el, visit)
		}
	case *hir.Record:
		for _, f := range x.Fields {
			walkExpr(f.Value, visit)
		}
	}
}

// containsCall reports whether e contains a Call anywhere, meaning its
// evaluation may be effectful and it must not be dropped.
func containsCall(e hir.Expr) bool {
	found := false
	walkExpr(e, func(x hir.Expr) {
		if _, ok := x.(*hir.Call); ok {
			found = true
		}
	})
	return found
}
