// Package lower walks the surface AST and produces the typed HIR,
// resolving every identifier to a local or global reference and
// normalizing both function-declaration heritages and compound
// assignment into one shape, per spec §4.3.
package lower

import (
	"github.com/opencontainers/go-digest"
	"github.com/rrscript/rrc/internal/ast"
	"github.com/rrscript/rrc/internal/errdefs"
	"github.com/rrscript/rrc/internal/hir"
	"github.com/rrscript/rrc/internal/token"
)

// Lowerer walks one module's AST, accumulating a shared symbol table.
type Lowerer struct {
	symbols  *hir.Symbols
	modScope *hir.Scope
}

// New creates a Lowerer with a fresh symbol table and module scope.
func New() *Lowerer {
	return &Lowerer{symbols: hir.NewSymbols(), modScope: hir.NewScope(nil)}
}

// Symbols returns the symbol table populated so far.
func (l *Lowerer) Symbols() *hir.Symbols { return l.symbols }

// Lower lowers mod, whose source text was src, into an HIR Module.
func (l *Lowerer) Lower(mod *ast.Module, id hir.ModuleID, src string) (*hir.Module, error) {
	// Register every top-level function name in module scope before
	// lowering bodies. References to a function name lower as Global either
	// way, before or after its declaration: function scopes do not chain to
	// module scope, and lowerExpr treats an ObjFunc entry like an unbound
	// name.
	for _, decl := range mod.Decls {
		if decl.Func != nil {
			sym := l.symbols.Intern(decl.Func.Name.Name)
			l.modScope.Insert(decl.Func.Name.Name, &hir.Object{Kind: hir.ObjFunc, Sym: sym})
		}
	}

	var items []hir.Item
	for _, decl := range mod.Decls {
		item, err := l.lowerDecl(decl)
		if err != nil {
			return nil, errdefs.Wrap(err, "lower")
		}
		items = append(items, item)
	}

	return &hir.Module{
		ID:       id,
		Filename: mod.Filename,
		Digest:   digest.FromString(src),
		Symbols:  l.symbols,
		Scope:    l.modScope,
		Items:    items,
	}, nil
}

func spanOf(n ast.Node) hir.Span {
	return hir.Span{Pos: n.Position(), End: n.End()}
}

func (l *Lowerer) lowerDecl(decl *ast.Decl) (hir.Item, error) {
	if decl.Func != nil {
		fn, err := l.lowerFunction(decl.Func)
		if err != nil {
			return nil, err
		}
		return hir.ItemFn{Fn: fn}, nil
	}

	switch s := decl.Stmt.(type) {
	case *ast.ExprStmt:
		x, err := l.lowerExpr(l.modScope, s.X)
		if err != nil {
			return nil, err
		}
		return hir.ItemExprStmt{X: x}, nil
	case *ast.AssignStmt:
		target, value, err := l.lowerAssignTargetValue(l.modScope, s)
		if err != nil {
			return nil, err
		}
		return hir.ItemAssign{Target: target, Value: value}, nil
	default:
		return nil, errdefs.WithInternalErrorf(decl, "unsupported top-level statement")
	}
}

func isLiteralExpr(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.StringLit:
		return true
	default:
		return false
	}
}

func (l *Lowerer) resolveType(annot *ast.TypeAnnot) (*hir.Ty, error) {
	if annot == nil {
		return nil, nil
	}
	t, ok := hir.TyFromKeyword(annot.Keyword)
	if !ok {
		return nil, errdefs.WithUnresolvedType(annot)
	}
	return &t, nil
}

func (l *Lowerer) lowerFunction(fn *ast.Function) (*hir.Fn, error) {
	scope := hir.NewScope(nil)
	seen := make(map[string]*ast.Param)

	var params []*hir.Param
	for _, p := range fn.Params {
		if _, ok := seen[p.Name.Name]; ok {
			return nil, errdefs.WithDuplicateParam(fn, p)
		}
		seen[p.Name.Name] = p

		ty, err := l.resolveType(p.Type)
		if err != nil {
			return nil, err
		}

		var def hir.Expr
		if p.Default != nil {
			if !isLiteralExpr(p.Default) {
				return nil, errdefs.WithUnsupportedDefault(p)
			}
			d, err := l.lowerExpr(scope, p.Default)
			if err != nil {
				return nil, err
			}
			def = d
		}

		sym := l.symbols.Intern(p.Name.Name)
		scope.Insert(p.Name.Name, &hir.Object{Kind: hir.ObjParam, Sym: sym})
		params = append(params, &hir.Param{Name: sym, Ty: ty, Default: def})
	}

	retTy, err := l.resolveType(fn.RetType)
	if err != nil {
		return nil, err
	}

	body, err := l.lowerBlock(scope, fn.Body)
	if err != nil {
		return nil, err
	}

	fnSym := l.symbols.Intern(fn.Name.Name)
	return hir.NewFn(spanOf(fn), fnSym, params, retTy, body), nil
}

// lowerBlock never drops a statement, including the block's tail.
func (l *Lowerer) lowerBlock(scope *hir.Scope, block *ast.BlockStmt) (*hir.Block, error) {
	var stmts []hir.Stmt
	for _, s := range block.Stmts {
		hs, err := l.lowerStmt(scope, s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, hs)
	}
	return hir.NewBlock(spanOf(block), stmts), nil
}

func (l *Lowerer) lowerStmt(scope *hir.Scope, stmt ast.Stmt) (hir.Stmt, error) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		ty, err := l.resolveType(s.Type)
		if err != nil {
			return nil, err
		}
		init, err := l.lowerExpr(scope, s.Init)
		if err != nil {
			return nil, err
		}
		sym := l.symbols.Intern(s.Name.Name)
		scope.Insert(s.Name.Name, &hir.Object{Kind: hir.ObjLocal, Sym: sym})
		return hir.NewLet(spanOf(s), sym, ty, init), nil

	case *ast.AssignStmt:
		target, value, err := l.lowerAssignTargetValue(scope, s)
		if err != nil {
			return nil, err
		}
		return hir.NewAssign(spanOf(s), target, value), nil

	case *ast.ExprStmt:
		x, err := l.lowerExpr(scope, s.X)
		if err != nil {
			return nil, err
		}
		return hir.NewExprStmt(spanOf(s), x), nil

	case *ast.ReturnStmt:
		var val hir.Expr
		if s.Value != nil {
			v, err := l.lowerExpr(scope, s.Value)
			if err != nil {
				return nil, err
			}
			val = v
		}
		return hir.NewReturn(spanOf(s), val), nil

	case *ast.BreakStmt:
		return hir.NewBreak(spanOf(s)), nil

	case *ast.ContinueStmt:
		return hir.NewContinue(spanOf(s)), nil

	case *ast.IfStmt:
		cond, err := l.lowerExpr(scope, s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := l.lowerBlock(scope, s.Then)
		if err != nil {
			return nil, err
		}
		var els *hir.Block
		if s.Else != nil {
			e, err := l.lowerBlock(scope, s.Else)
			if err != nil {
				return nil, err
			}
			els = e
		}
		return hir.NewIf(spanOf(s), cond, then, els), nil

	case *ast.WhileStmt:
		cond, err := l.lowerExpr(scope, s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := l.lowerBlock(scope, s.Body)
		if err != nil {
			return nil, err
		}
		return hir.NewWhile(spanOf(s), cond, body), nil

	case *ast.ForStmt:
		return l.lowerFor(scope, s)

	default:
		return nil, errdefs.WithInternalErrorf(stmt, "unsupported statement")
	}
}

// lowerFor always produces a canonical range iterator when the surface
// spells a range, marked inclusive: spec §9 resolves the a..b ambiguity by
// treating the surface spelling itself as inclusive, with no further `-1`
// adjustment (test evidence: original_source's canonical-range test
// asserts `end` lowers to exactly the surface expression, unmodified).
func (l *Lowerer) lowerFor(scope *hir.Scope, s *ast.ForStmt) (hir.Stmt, error) {
	var iter hir.ForIter
	if rng, ok := s.Iter.(*ast.RangeExpr); ok {
		start, err := l.lowerExpr(scope, rng.Start)
		if err != nil {
			return nil, err
		}
		end, err := l.lowerExpr(scope, rng.End)
		if err != nil {
			return nil, err
		}
		iter = hir.ForIter{Kind: hir.ForIterRange, Range: hir.NewRange(spanOf(rng), start, end, true)}
	} else {
		e, err := l.lowerExpr(scope, s.Iter)
		if err != nil {
			return nil, err
		}
		iter = hir.ForIter{Kind: hir.ForIterExpr, Expr: e}
	}

	sym := l.symbols.Intern(s.Name.Name)
	scope.Insert(s.Name.Name, &hir.Object{Kind: hir.ObjLocal, Sym: sym})

	body, err := l.lowerBlock(scope, s.Body)
	if err != nil {
		return nil, err
	}
	return hir.NewFor(spanOf(s), sym, iter, body), nil
}

var compoundOps = map[token.Kind]hir.BinOp{
	token.PLUS_EQ:  hir.Add,
	token.MINUS_EQ: hir.Sub,
	token.STAR_EQ:  hir.Mul,
	token.SLASH_EQ: hir.Div,
}

// lowerAssignTargetValue lowers `lvalue <- expr`, `lvalue = expr`, and
// `lvalue OP= expr` uniformly. Compound assignment never survives past
// this point: it is rewritten to an assignment whose value is a binary
// expression over the target's read form, per spec §3/§4.3.
func (l *Lowerer) lowerAssignTargetValue(scope *hir.Scope, s *ast.AssignStmt) (hir.LValue, hir.Expr, error) {
	target, readForm, err := l.lowerLValue(scope, s.Target)
	if err != nil {
		return nil, nil, err
	}

	if op, ok := compoundOps[s.Op]; ok {
		rhs, err := l.lowerExpr(scope, s.Value)
		if err != nil {
			return nil, nil, err
		}
		value := hir.NewBinary(spanOf(s), op, readForm, rhs)
		return target, value, nil
	}

	value, err := l.lowerExpr(scope, s.Value)
	if err != nil {
		return nil, nil, err
	}
	return target, value, nil
}

// lowerLValue lowers an assignment target, returning both the LValue form
// (for the write position) and an equivalent read-form Expr (for compound
// assignment's implicit read), built from the same lowered base
// subexpressions so they are not independently re-evaluated in HIR.
func (l *Lowerer) lowerLValue(scope *hir.Scope, target ast.Expr) (hir.LValue, hir.Expr, error) {
	switch t := target.(type) {
	case *ast.Ident:
		if obj, ok := scope.Lookup(t.Name); ok && (obj.Kind == hir.ObjParam || obj.Kind == hir.ObjLocal) {
			return hir.NewLLocal(spanOf(t), obj.Sym), hir.NewLocal(spanOf(t), obj.Sym), nil
		}
		// First assignment to this name introduces a new local binding,
		// matching the surface language's no-declaration-keyword style.
		sym := l.symbols.Intern(t.Name)
		scope.Insert(t.Name, &hir.Object{Kind: hir.ObjLocal, Sym: sym})
		return hir.NewLLocal(spanOf(t), sym), hir.NewLocal(spanOf(t), sym), nil

	case *ast.IndexExpr:
		base, err := l.lowerExpr(scope, t.X)
		if err != nil {
			return nil, nil, err
		}
		var indices []hir.Expr
		for _, idx := range t.Indices {
			hidx, err := l.lowerExpr(scope, idx)
			if err != nil {
				return nil, nil, err
			}
			indices = append(indices, hidx)
		}
		return hir.NewLIndex(spanOf(t), base, indices), hir.NewIndex(spanOf(t), base, indices), nil

	case *ast.FieldExpr:
		base, err := l.lowerExpr(scope, t.X)
		if err != nil {
			return nil, nil, err
		}
		sym := l.symbols.Intern(t.Name.Name)
		return hir.NewLField(spanOf(t), base, sym), hir.NewField(spanOf(t), base, sym), nil

	default:
		return nil, nil, errdefs.WithMalformedLValue(target)
	}
}

var binOps = map[token.Kind]hir.BinOp{
	token.PLUS:    hir.Add,
	token.MINUS:   hir.Sub,
	token.STAR:    hir.Mul,
	token.SLASH:   hir.Div,
	token.PERCENT: hir.Mod,
	token.EQ:      hir.Eq,
	token.NEQ:     hir.Neq,
	token.LT:      hir.Lt,
	token.LTE:     hir.Lte,
	token.GT:      hir.Gt,
	token.GTE:     hir.Gte,
	token.AND:     hir.And,
	token.OR:      hir.Or,
}

func (l *Lowerer) lowerExpr(scope *hir.Scope, e ast.Expr) (hir.Expr, error) {
	switch x := e.(type) {
	case *ast.IntLit:
		return hir.NewIntLit(spanOf(x), x.Value), nil
	case *ast.FloatLit:
		return hir.NewFloatLit(spanOf(x), x.Value), nil
	case *ast.BoolLit:
		return hir.NewBoolLit(spanOf(x), x.Value), nil
	case *ast.StringLit:
		return hir.NewStringLit(spanOf(x), x.Value), nil

	case *ast.Ident:
		if obj, ok := scope.Lookup(x.Name); ok && (obj.Kind == hir.ObjParam || obj.Kind == hir.ObjLocal) {
			return hir.NewLocal(spanOf(x), obj.Sym), nil
		}
		sym := l.symbols.Intern(x.Name)
		return hir.NewGlobal(spanOf(x), sym), nil

	case *ast.UnaryExpr:
		xx, err := l.lowerExpr(scope, x.X)
		if err != nil {
			return nil, err
		}
		op := hir.Neg
		if x.Op == token.NOT {
			op = hir.Not
		}
		return hir.NewUnary(spanOf(x), op, xx), nil

	case *ast.BinaryExpr:
		lx, err := l.lowerExpr(scope, x.X)
		if err != nil {
			return nil, err
		}
		ly, err := l.lowerExpr(scope, x.Y)
		if err != nil {
			return nil, err
		}
		op, ok := binOps[x.Op]
		if !ok {
			return nil, errdefs.WithInternalErrorf(x, "unsupported binary operator %s", x.Op)
		}
		return hir.NewBinary(spanOf(x), op, lx, ly), nil

	case *ast.CallExpr:
		callee, err := l.lowerExpr(scope, x.Callee)
		if err != nil {
			return nil, err
		}
		var args []hir.Arg
		for _, a := range x.Args {
			v, err := l.lowerExpr(scope, a.Value)
			if err != nil {
				return nil, err
			}
			arg := hir.Arg{Value: v}
			if a.Name != nil {
				sym := l.symbols.Intern(a.Name.Name)
				arg.Name = &sym
			}
			args = append(args, arg)
		}
		return hir.NewCall(spanOf(x), callee, args), nil

	case *ast.IndexExpr:
		base, err := l.lowerExpr(scope, x.X)
		if err != nil {
			return nil, err
		}
		var indices []hir.Expr
		for _, idx := range x.Indices {
			hidx, err := l.lowerExpr(scope, idx)
			if err != nil {
				return nil, err
			}
			indices = append(indices, hidx)
		}
		return hir.NewIndex(spanOf(x), base, indices), nil

	case *ast.FieldExpr:
		base, err := l.lowerExpr(scope, x.X)
		if err != nil {
			return nil, err
		}
		sym := l.symbols.Intern(x.Name.Name)
		return hir.NewField(spanOf(x), base, sym), nil

	case *ast.RangeExpr:
		start, err := l.lowerExpr(scope, x.Start)
		if err != nil {
			return nil, err
		}
		end, err := l.lowerExpr(scope, x.End)
		if err != nil {
			return nil, err
		}
		return hir.NewRange(spanOf(x), start, end, true), nil

	case *ast.ArrayExpr:
		var elems []hir.Expr
		for _, el := range x.Elems {
			he, err := l.lowerExpr(scope, el)
			if err != nil {
				return nil, err
			}
			elems = append(elems, he)
		}
		return hir.NewArray(spanOf(x), elems), nil

	case *ast.RecordExpr:
		var fields []hir.RecordField
		for _, f := range x.Fields {
			v, err := l.lowerExpr(scope, f.Value)
			if err != nil {
				return nil, err
			}
			sym := l.symbols.Intern(f.Key.Name)
			fields = append(fields, hir.RecordField{Name: sym, Value: v})
		}
		return hir.NewRecord(spanOf(x), fields), nil

	case *ast.FuncLitExpr:
		return nil, errdefs.WithInternalErrorf(x, "nested function literals are not supported")

	default:
		return nil, errdefs.WithInternalErrorf(e, "unsupported expression")
	}
}
