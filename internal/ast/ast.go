// Package ast defines the surface-faithful abstract syntax tree produced by
// the parser. Every node embeds Mixin so it carries the span of its
// originating token range, mirroring the teacher's CST node design.
package ast

import (
	"fmt"

	"github.com/rrscript/rrc/internal/diagnostic"
	"github.com/rrscript/rrc/internal/token"
)

// Node is implemented by every AST node.
type Node interface {
	Position() diagnostic.Position
	End() diagnostic.Position
	WithError(err error, opts ...diagnostic.Option) error
	Spanf(t diagnostic.Type, format string, a ...interface{}) diagnostic.Option
}

// Mixin gives every node its span and diagnostic helpers.
type Mixin struct {
	Pos    diagnostic.Position
	EndPos diagnostic.Position
}

func (m Mixin) Position() diagnostic.Position { return m.Pos }
func (m Mixin) End() diagnostic.Position      { return m.EndPos }

func (m Mixin) WithError(err error, opts ...diagnostic.Option) error {
	return diagnostic.WithError(err, m.Pos, m.EndPos, opts...)
}

func (m Mixin) Spanf(t diagnostic.Type, format string, a ...interface{}) diagnostic.Option {
	return diagnostic.Spanf(t, m.Position(), m.End(), format, a...)
}

// FuncForm tags which surface heritage a function declaration used; both
// forms collapse into one HIR entity during lowering.
type FuncForm int

const (
	LitForm   FuncForm = iota // name <- function(params) { body }
	ShortForm                 // fn name(params) -> Ret = expr | fn name(params) { body }
)

// Ident is an identifier reference or binding occurrence.
type Ident struct {
	Mixin
	Name string
}

func (i *Ident) String() string { return i.Name }

// TypeAnnot is a surface type annotation keyword (f64, int, bool, ...).
type TypeAnnot struct {
	Mixin
	Keyword string
}

// Param is one function parameter: name, optional type, optional default.
type Param struct {
	Mixin
	Name    *Ident
	Type    *TypeAnnot
	Default Expr
}

// Function is the unified representation of a function declaration,
// regardless of which surface form produced it.
type Function struct {
	Mixin
	Form    FuncForm
	Name    *Ident
	Params  []*Param
	RetType *TypeAnnot
	Body    *BlockStmt
}

// Module is an ordered sequence of top-level items.
type Module struct {
	Mixin
	Filename string
	Decls    []*Decl
}

// Decl is a tagged top-level item: a function definition, or a statement
// (expression statement / assignment) appearing at module scope.
type Decl struct {
	Mixin
	Func *Function
	Stmt Stmt
}

// ---- Statements ----

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

type BlockStmt struct {
	Mixin
	Stmts []Stmt
}

func (*BlockStmt) stmtNode() {}

type LetStmt struct {
	Mixin
	Name *Ident
	Type *TypeAnnot
	Init Expr
}

func (*LetStmt) stmtNode() {}

// AssignStmt covers `lvalue <- expr`, `lvalue = expr`, and `lvalue OP= expr`.
// Op is one of ASSIGN_ARROW, ASSIGN_EQ, PLUS_EQ, MINUS_EQ, STAR_EQ, SLASH_EQ.
type AssignStmt struct {
	Mixin
	Target Expr
	Op     token.Kind
	Value  Expr
}

func (*AssignStmt) stmtNode() {}

type ExprStmt struct {
	Mixin
	X Expr
}

func (*ExprStmt) stmtNode() {}

type ReturnStmt struct {
	Mixin
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

type BreakStmt struct{ Mixin }

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct{ Mixin }

func (*ContinueStmt) stmtNode() {}

type IfStmt struct {
	Mixin
	Cond Expr
	Then *BlockStmt
	Else *BlockStmt
}

func (*IfStmt) stmtNode() {}

type WhileStmt struct {
	Mixin
	Cond Expr
	Body *BlockStmt
}

func (*WhileStmt) stmtNode() {}

type ForStmt struct {
	Mixin
	Name *Ident
	Iter Expr
	Body *BlockStmt
}

func (*ForStmt) stmtNode() {}

// ---- Expressions ----

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

type IntLit struct {
	Mixin
	Text  string
	Value int64
}

func (*IntLit) exprNode() {}

type FloatLit struct {
	Mixin
	Text  string
	Value float64
}

func (*FloatLit) exprNode() {}

type BoolLit struct {
	Mixin
	Value bool
}

func (*BoolLit) exprNode() {}

type StringLit struct {
	Mixin
	Value string
}

func (*StringLit) exprNode() {}

func (i *Ident) exprNode() {}

type UnaryExpr struct {
	Mixin
	Op token.Kind
	X  Expr
}

func (*UnaryExpr) exprNode() {}

type BinaryExpr struct {
	Mixin
	Op   token.Kind
	X, Y Expr
}

func (*BinaryExpr) exprNode() {}

// Arg is one call argument, optionally named.
type Arg struct {
	Mixin
	Name  *Ident
	Value Expr
}

type CallExpr struct {
	Mixin
	Callee Expr
	Args   []*Arg
}

func (*CallExpr) exprNode() {}

type IndexExpr struct {
	Mixin
	X       Expr
	Indices []Expr
}

func (*IndexExpr) exprNode() {}

type FieldExpr struct {
	Mixin
	X    Expr
	Name *Ident
}

func (*FieldExpr) exprNode() {}

type RangeExpr struct {
	Mixin
	Start, End Expr
}

func (*RangeExpr) exprNode() {}

type ArrayExpr struct {
	Mixin
	Elems []Expr
}

func (*ArrayExpr) exprNode() {}

type RecordField struct {
	Mixin
	Key   *Ident
	Value Expr
}

type RecordExpr struct {
	Mixin
	Fields []*RecordField
}

func (*RecordExpr) exprNode() {}

// FuncLitExpr is an inline function literal, used as the RHS of
// `name <- function(params) body` and anywhere a nested literal appears.
type FuncLitExpr struct {
	Mixin
	Params  []*Param
	RetType *TypeAnnot
	Body    *BlockStmt
}

func (*FuncLitExpr) exprNode() {}

var _ fmt.Stringer = (*Ident)(nil)
