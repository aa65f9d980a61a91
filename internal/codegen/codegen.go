// Package codegen renders HIR to the target dialect's text, the way the
// teacher's parser/unparse.go renders its CST back to HLB source: one
// String-shaped function per node kind, dispatched by a type switch
// over the tagged union.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rrscript/rrc/internal/errdefs"
	"github.com/rrscript/rrc/internal/hir"
	"github.com/rrscript/rrc/internal/runtime"
)

// Options controls emission.
type Options struct {
	// IncludeRuntime appends the runtime preamble ahead of the emitted
	// module, unless --no-runtime was passed.
	IncludeRuntime bool
}

// Emit renders mod to the target dialect, optionally prefixed with the
// runtime preamble.
func Emit(mod *hir.Module, opts Options) (string, error) {
	// rr_bool only exists in the runtime preamble; without it (--no-runtime)
	// conditions must be emitted bare so the output still runs under a
	// vanilla interpreter with no preamble loaded.
	e := &emitter{mod: mod, wrapConditions: opts.IncludeRuntime}
	body, err := e.emitModule()
	if err != nil {
		return "", err
	}
	if !opts.IncludeRuntime {
		return body, nil
	}
	return runtime.Preamble + "\n" + body, nil
}

type emitter struct {
	mod            *hir.Module
	params         map[hir.SymbolID]bool // current function's parameters
	wrapConditions bool                  // guard if/while conditions with rr_bool(...)
}

// cond renders a condition expression, wrapping it in the rr_bool guard
// when the runtime preamble that defines rr_bool is being emitted.
func (e *emitter) cond(s string) string {
	if e.wrapConditions {
		return fmt.Sprintf("rr_bool(%s)", s)
	}
	return s
}

func (e *emitter) name(sym hir.SymbolID) string {
	n := e.mod.Symbols.Get(sym)
	if e.params != nil && e.params[sym] {
		return ".arg_" + n
	}
	return n
}

func (e *emitter) emitModule() (string, error) {
	var parts []string
	for _, item := range e.mod.Items {
		s, err := e.emitItem(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

func (e *emitter) emitItem(item hir.Item) (string, error) {
	switch it := item.(type) {
	case hir.ItemFn:
		return e.emitFn(it.Fn)
	case hir.ItemExprStmt:
		return e.emitExpr(it.X)
	case hir.ItemAssign:
		return e.emitAssign(it.Target, it.Value)
	default:
		return "", errdefs.WithHIRInternalErrorf(item.Span(), "unsupported top-level item")
	}
}

func (e *emitter) emitFn(fn *hir.Fn) (string, error) {
	e.params = make(map[hir.SymbolID]bool, len(fn.Params))
	for _, p := range fn.Params {
		e.params[p.Name] = true
	}

	var params []string
	for _, p := range fn.Params {
		if p.Default != nil {
			d, err := e.emitExpr(p.Default)
			if err != nil {
				return "", err
			}
			params = append(params, fmt.Sprintf("%s = %s", e.name(p.Name), d))
		} else {
			params = append(params, e.name(p.Name))
		}
	}

	body, err := e.emitBlock(fn.Body, 1)
	if err != nil {
		return "", err
	}

	out := fmt.Sprintf("%s <- function(%s) {\n%s}", e.name(fn.Name), strings.Join(params, ", "), body)
	e.params = nil
	return out, nil
}

func indent(level int) string { return strings.Repeat("  ", level) }

func (e *emitter) emitBlock(b *hir.Block, level int) (string, error) {
	var sb strings.Builder
	for _, stmt := range b.Stmts {
		s, err := e.emitStmt(stmt, level)
		if err != nil {
			return "", err
		}
		sb.WriteString(indent(level))
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (e *emitter) emitStmt(stmt hir.Stmt, level int) (string, error) {
	switch s := stmt.(type) {
	case *hir.Let:
		v, err := e.emitExpr(s.Init)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s <- %s", e.name(s.Name), v), nil

	case *hir.Assign:
		return e.emitAssign(s.Target, s.Value)

	case *hir.ExprStmt:
		return e.emitExpr(s.X)

	case *hir.Return:
		if s.Value == nil {
			return "return()", nil
		}
		v, err := e.emitExpr(s.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("return(%s)", v), nil

	case *hir.Break:
		return "break", nil

	case *hir.Continue:
		return "next", nil

	case *hir.If:
		cond, err := e.emitExpr(s.Cond)
		if err != nil {
			return "", err
		}
		then, err := e.emitBlock(s.Then, level+1)
		if err != nil {
			return "", err
		}
		if s.Else == nil {
			return fmt.Sprintf("if (%s) {\n%s%s}", e.cond(cond), then, indent(level)), nil
		}
		els, err := e.emitBlock(s.Else, level+1)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("if (%s) {\n%s%s} else {\n%s%s}",
			e.cond(cond), then, indent(level), els, indent(level)), nil

	case *hir.While:
		cond, err := e.emitExpr(s.Cond)
		if err != nil {
			return "", err
		}
		body, err := e.emitBlock(s.Body, level+1)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("while (%s) {\n%s%s}", e.cond(cond), body, indent(level)), nil

	case *hir.For:
		seq, err := e.emitForIter(s.Iter)
		if err != nil {
			return "", err
		}
		body, err := e.emitBlock(s.Body, level+1)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("for (%s in %s) {\n%s%s}", e.name(s.Name), seq, body, indent(level)), nil

	default:
		return "", errdefs.WithHIRInternalErrorf(stmt.Span(), "unsupported statement")
	}
}

func (e *emitter) emitForIter(it hir.ForIter) (string, error) {
	if it.Kind == hir.ForIterRange {
		start, err := e.emitExpr(it.Range.Start)
		if err != nil {
			return "", err
		}
		end, err := e.emitExpr(it.Range.End)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s", start, end), nil
	}
	return e.emitExpr(it.Expr)
}

func (e *emitter) emitAssign(target hir.LValue, value hir.Expr) (string, error) {
	v, err := e.emitExpr(value)
	if err != nil {
		return "", err
	}
	switch t := target.(type) {
	case *hir.LLocal:
		return fmt.Sprintf("%s <- %s", e.name(t.Sym), v), nil
	case *hir.LGlobal:
		return fmt.Sprintf("%s <- %s", e.name(t.Sym), v), nil
	case *hir.LIndex:
		base, err := e.emitExpr(t.Base)
		if err != nil {
			return "", err
		}
		var subs []string
		for _, idx := range t.Indices {
			s, err := e.emitExpr(idx)
			if err != nil {
				return "", err
			}
			subs = append(subs, fmt.Sprintf(`rr_index1_write(%s, "index")`, s))
		}
		return fmt.Sprintf("%s[%s] <- %s", base, strings.Join(subs, ", "), v), nil
	case *hir.LField:
		base, err := e.emitExpr(t.Base)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s$%s <- %s", base, e.mod.Symbols.Get(t.Sym), v), nil
	default:
		return "", errdefs.WithHIRInternalErrorf(target.Span(), "unsupported assignment target")
	}
}

var binSymbols = map[hir.BinOp]string{
	hir.Add: "+", hir.Sub: "-", hir.Mul: "*", hir.Div: "/", hir.Mod: "%%",
	hir.Eq: "==", hir.Neq: "!=", hir.Lt: "<", hir.Lte: "<=", hir.Gt: ">", hir.Gte: ">=",
	hir.And: "&&", hir.Or: "||",
}

func (e *emitter) emitExpr(expr hir.Expr) (string, error) {
	switch x := expr.(type) {
	case *hir.Lit:
		return e.emitLit(x), nil

	case *hir.Local:
		return e.name(x.Sym), nil

	case *hir.Global:
		return e.mod.Symbols.Get(x.Sym), nil

	case *hir.Unary:
		xx, err := e.emitExpr(x.X)
		if err != nil {
			return "", err
		}
		if x.Op == hir.Not {
			return fmt.Sprintf("!(%s)", xx), nil
		}
		return fmt.Sprintf("-(%s)", xx), nil

	case *hir.Binary:
		lhs, err := e.emitExpr(x.X)
		if err != nil {
			return "", err
		}
		rhs, err := e.emitExpr(x.Y)
		if err != nil {
			return "", err
		}
		sym, ok := binSymbols[x.Op]
		if !ok {
			return "", errdefs.WithHIRInternalErrorf(x.Span(), "unsupported binary operator")
		}
		return fmt.Sprintf("(%s %s %s)", lhs, sym, rhs), nil

	case *hir.Call:
		callee, err := e.emitExpr(x.Callee)
		if err != nil {
			return "", err
		}
		var args []string
		for _, a := range x.Args {
			v, err := e.emitExpr(a.Value)
			if err != nil {
				return "", err
			}
			if a.Name != nil {
				args = append(args, fmt.Sprintf("%s = %s", e.mod.Symbols.Get(*a.Name), v))
			} else {
				args = append(args, v)
			}
		}
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", ")), nil

	case *hir.Index:
		base, err := e.emitExpr(x.X)
		if err != nil {
			return "", err
		}
		var idxs []string
		for _, idx := range x.Indices {
			s, err := e.emitExpr(idx)
			if err != nil {
				return "", err
			}
			idxs = append(idxs, s)
		}
		if len(idxs) == 1 {
			return fmt.Sprintf(`rr_index1_read(%s, %s, "index")`, base, idxs[0]), nil
		}
		// Multi-dim reads apply the per-axis checker directly inside the
		// subscript, the same way index writes do, rather than routing
		// through rr_index1_read (which only checks bounds on a single axis).
		var subs []string
		for _, s := range idxs {
			subs = append(subs, fmt.Sprintf(`rr_index1_write(%s, "index")`, s))
		}
		return fmt.Sprintf("%s[%s]", base, strings.Join(subs, ", ")), nil

	case *hir.Field:
		base, err := e.emitExpr(x.X)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s$%s", base, e.mod.Symbols.Get(x.Sym)), nil

	case *hir.Range:
		start, err := e.emitExpr(x.Start)
		if err != nil {
			return "", err
		}
		end, err := e.emitExpr(x.End)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s", start, end), nil

	case *hir.Array:
		var elems []string
		for _, el := range x.Elems {
			s, err := e.emitExpr(el)
			if err != nil {
				return "", err
			}
			elems = append(elems, s)
		}
		return fmt.Sprintf("c(%s)", strings.Join(elems, ", ")), nil

	case *hir.Record:
		var fields []string
		for _, f := range x.Fields {
			v, err := e.emitExpr(f.Value)
			if err != nil {
				return "", err
			}
			fields = append(fields, fmt.Sprintf("%s = %s", e.mod.Symbols.Get(f.Name), v))
		}
		return fmt.Sprintf("list(%s)", strings.Join(fields, ", ")), nil

	default:
		return "", errdefs.WithHIRInternalErrorf(expr.Span(), "unsupported expression")
	}
}

func (e *emitter) emitLit(l *hir.Lit) string {
	switch l.Kind {
	case hir.IntLit:
		return strconv.FormatInt(l.IntVal, 10) + "L"
	case hir.FloatLit:
		return strconv.FormatFloat(l.FloatVal, 'g', -1, 64)
	case hir.BoolLit:
		if l.BoolVal {
			return "TRUE"
		}
		return "FALSE"
	case hir.StringLit:
		return escapeString(l.StrVal)
	default:
		return "NULL"
	}
}

// escapeString renders s with the target dialect's double-quote escaping.
func escapeString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
