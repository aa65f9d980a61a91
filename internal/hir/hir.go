// Package hir is the typed, symbol-interned intermediate representation
// sitting between the surface AST and code generation.
package hir

import (
	"github.com/opencontainers/go-digest"
	"github.com/rrscript/rrc/internal/diagnostic"
)

// Span is the surface token range a HIR node was lowered from. Expression,
// statement, lvalue and function nodes carry one set by lowering; the
// top-level ItemExprStmt and ItemAssign items that lowering builds carry a
// zero Span.
type Span struct {
	Pos, End diagnostic.Position
}

// Ty is the closed set of semantic kinds. Types are advisory: recorded in
// HIR but never gate compilation.
type Ty int

const (
	Unset Ty = iota
	Double
	Int
	Logical
	Char
)

func (t Ty) String() string {
	switch t {
	case Double:
		return "Double"
	case Int:
		return "Int"
	case Logical:
		return "Logical"
	case Char:
		return "Char"
	default:
		return "Unset"
	}
}

// TyFromKeyword maps a surface annotation keyword to its semantic Ty.
// Many keywords map to one kind, per spec §3.
func TyFromKeyword(keyword string) (Ty, bool) {
	switch keyword {
	case "f64", "float", "double":
		return Double, true
	case "i64", "int":
		return Int, true
	case "bool", "logical":
		return Logical, true
	case "char", "string":
		return Char, true
	default:
		return Unset, false
	}
}

// ---- Expressions ----

// BinOp enumerates HIR binary operators.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

// UnOp enumerates HIR unary operators.
type UnOp int

const (
	Neg UnOp = iota
	Not
)

// LitKind enumerates HIR literal kinds.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	BoolLit
	StringLit
)

// Expr is implemented by every HIR expression variant.
type Expr interface {
	hirExprNode()
	Span() Span
}

type exprBase struct{ span Span }

func (e exprBase) Span() Span { return e.span }

type Lit struct {
	exprBase
	Kind     LitKind
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	StrVal   string
}

func (*Lit) hirExprNode() {}

// NewIntLit builds an integer literal expression.
func NewIntLit(span Span, v int64) *Lit { return &Lit{exprBase{span}, IntLit, v, 0, false, ""} }

// NewFloatLit builds a floating literal expression.
func NewFloatLit(span Span, v float64) *Lit {
	return &Lit{exprBase{span}, FloatLit, 0, v, false, ""}
}

// NewBoolLit builds a logical literal expression.
func NewBoolLit(span Span, v bool) *Lit { return &Lit{exprBase{span}, BoolLit, 0, 0, v, ""} }

// NewStringLit builds a string literal expression.
func NewStringLit(span Span, v string) *Lit { return &Lit{exprBase{span}, StringLit, 0, 0, false, v} }

// Local is a reference to a name resolved to a local binding in the
// nearest enclosing function.
type Local struct {
	exprBase
	Sym SymbolID
}

func (*Local) hirExprNode() {}

// Global is a reference to a name that did not resolve to any local;
// binding it is the target dialect's concern.
type Global struct {
	exprBase
	Sym SymbolID
}

func (*Global) hirExprNode() {}

type Unary struct {
	exprBase
	Op UnOp
	X  Expr
}

func (*Unary) hirExprNode() {}

type Binary struct {
	exprBase
	Op   BinOp
	X, Y Expr
}

func (*Binary) hirExprNode() {}

// Arg is one call argument, optionally named.
type Arg struct {
	Name  *SymbolID
	Value Expr
}

type Call struct {
	exprBase
	Callee Expr
	Args   []Arg
}

func (*Call) hirExprNode() {}

// Index is 1-based, one or more subscripts.
type Index struct {
	exprBase
	X       Expr
	Indices []Expr
}

func (*Index) hirExprNode() {}

type Field struct {
	exprBase
	X   Expr
	Sym SymbolID
}

func (*Field) hirExprNode() {}

// Range is a canonical range: explicit start, end, and inclusive flag,
// produced regardless of surface spelling.
type Range struct {
	exprBase
	Start, End Expr
	Inclusive  bool
}

func (*Range) hirExprNode() {}

type Array struct {
	exprBase
	Elems []Expr
}

func (*Array) hirExprNode() {}

type RecordField struct {
	Name  SymbolID
	Value Expr
}

type Record struct {
	exprBase
	Fields []RecordField
}

func (*Record) hirExprNode() {}

// Block is a sequence of statements; its value (where one is needed, e.g.
// as an if/while/for body or a function body) is its tail statement's
// value. Block satisfies Expr so it can serve uniformly as the payload of
// If/While/For statement bodies, matching the spec's listing of "block"
// among HIR expression variants without a parallel statement-only
// duplicate (see DESIGN.md).
type Block struct {
	exprBase
	Stmts []Stmt
}

func (*Block) hirExprNode() {}

// ---- LValues ----

// LValue is implemented by every assignable target variant.
type LValue interface {
	hirLValueNode()
	Span() Span
}

type lvalBase struct{ span Span }

func (l lvalBase) Span() Span { return l.span }

type LLocal struct {
	lvalBase
	Sym SymbolID
}

func (*LLocal) hirLValueNode() {}

type LGlobal struct {
	lvalBase
	Sym SymbolID
}

func (*LGlobal) hirLValueNode() {}

type LIndex struct {
	lvalBase
	Base    Expr
	Indices []Expr
}

func (*LIndex) hirLValueNode() {}

type LField struct {
	lvalBase
	Base Expr
	Sym  SymbolID
}

func (*LField) hirLValueNode() {}

// ---- Statements ----

// Stmt is implemented by every HIR statement variant.
type Stmt interface {
	hirStmtNode()
	Span() Span
}

type stmtBase struct{ span Span }

func (s stmtBase) Span() Span { return s.span }

type Let struct {
	stmtBase
	Name SymbolID
	Ty   *Ty
	Init Expr
}

func (*Let) hirStmtNode() {}

type Assign struct {
	stmtBase
	Target LValue
	Value  Expr
}

func (*Assign) hirStmtNode() {}

type ExprStmt struct {
	stmtBase
	X Expr
}

func (*ExprStmt) hirStmtNode() {}

type Return struct {
	stmtBase
	Value Expr // nil: bare return
}

func (*Return) hirStmtNode() {}

// ForIterKind distinguishes a canonical range iterator from an arbitrary
// sequence-valued expression.
type ForIterKind int

const (
	ForIterRange ForIterKind = iota
	ForIterExpr
)

type ForIter struct {
	Kind  ForIterKind
	Range *Range // set when Kind == ForIterRange
	Expr  Expr   // set when Kind == ForIterExpr
}

type For struct {
	stmtBase
	Name SymbolID
	Iter ForIter
	Body *Block
}

func (*For) hirStmtNode() {}

type While struct {
	stmtBase
	Cond Expr
	Body *Block
}

func (*While) hirStmtNode() {}

type If struct {
	stmtBase
	Cond Expr
	Then *Block
	Else *Block // nil: no else
}

func (*If) hirStmtNode() {}

type Break struct{ stmtBase }

func (*Break) hirStmtNode() {}

type Continue struct{ stmtBase }

func (*Continue) hirStmtNode() {}

// ---- Top-level items ----

// Param is a function parameter with optional type annotation and default.
type Param struct {
	Name    SymbolID
	Ty      *Ty
	Default Expr
}

// Fn is the unified representation of a function, regardless of which
// surface form (function-literal assignment or short typed form) produced
// it.
type Fn struct {
	span   Span
	Name   SymbolID
	Params []*Param
	RetTy  *Ty
	Body   *Block
}

func (f *Fn) Span() Span { return f.span }

// NewFn constructs a Fn, recording its originating span.
func NewFn(span Span, name SymbolID, params []*Param, retTy *Ty, body *Block) *Fn {
	return &Fn{span: span, Name: name, Params: params, RetTy: retTy, Body: body}
}

// Item is implemented by every top-level module item.
type Item interface {
	hirItemNode()
	Span() Span
}

type ItemFn struct{ *Fn }

func (ItemFn) hirItemNode() {}

type ItemExprStmt struct {
	stmtBase
	X Expr
}

func (ItemExprStmt) hirItemNode() {}

type ItemAssign struct {
	stmtBase
	Target LValue
	Value  Expr
}

func (ItemAssign) hirItemNode() {}

// ModuleID identifies one compiled module within a single invocation.
type ModuleID int

// Module is the lowered form of one source file.
type Module struct {
	ID       ModuleID
	Filename string
	Digest   digest.Digest
	Symbols  *Symbols
	Scope    *Scope
	Items    []Item
}
