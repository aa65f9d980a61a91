package hir

// This file collects constructors for the HIR expression, lvalue and
// statement nodes the lowering pass builds (literal constructors and NewFn
// live in hir.go). Keeping them here (rather than inline literals at each
// call site) means those nodes' spans are set through one path.

func NewLocal(span Span, sym SymbolID) *Local   { return &Local{exprBase{span}, sym} }
func NewGlobal(span Span, sym SymbolID) *Global { return &Global{exprBase{span}, sym} }

func NewUnary(span Span, op UnOp, x Expr) *Unary {
	return &Unary{exprBase{span}, op, x}
}

func NewBinary(span Span, op BinOp, x, y Expr) *Binary {
	return &Binary{exprBase{span}, op, x, y}
}

func NewCall(span Span, callee Expr, args []Arg) *Call {
	return &Call{exprBase{span}, callee, args}
}

func NewIndex(span Span, base Expr, indices []Expr) *Index {
	return &Index{exprBase{span}, base, indices}
}

func NewField(span Span, base Expr, sym SymbolID) *Field {
	return &Field{exprBase{span}, base, sym}
}

func NewRange(span Span, start, end Expr, inclusive bool) *Range {
	return &Range{exprBase{span}, start, end, inclusive}
}

func NewArray(span Span, elems []Expr) *Array {
	return &Array{exprBase{span}, elems}
}

func NewRecord(span Span, fields []RecordField) *Record {
	return &Record{exprBase{span}, fields}
}

// NewBlock builds a Block from its statements. A Block is an Expr (see
// the type's doc comment) so it can serve as the body of If/While/For
// without a parallel statement-only type.
func NewBlock(span Span, stmts []Stmt) *Block {
	return &Block{exprBase{span}, stmts}
}

func NewLLocal(span Span, sym SymbolID) *LLocal { return &LLocal{lvalBase{span}, sym} }
func NewLGlobal(span Span, sym SymbolID) *LGlobal {
	return &LGlobal{lvalBase{span}, sym}
}

func NewLIndex(span Span, base Expr, indices []Expr) *LIndex {
	return &LIndex{lvalBase{span}, base, indices}
}

func NewLField(span Span, base Expr, sym SymbolID) *LField {
	return &LField{lvalBase{span}, base, sym}
}

func NewLet(span Span, name SymbolID, ty *Ty, init Expr) *Let {
	return &Let{stmtBase{span}, name, ty, init}
}

func NewAssign(span Span, target LValue, value Expr) *Assign {
	return &Assign{stmtBase{span}, target, value}
}

func NewExprStmt(span Span, x Expr) *ExprStmt {
	return &ExprStmt{stmtBase{span}, x}
}

func NewReturn(span Span, value Expr) *Return {
	return &Return{stmtBase{span}, value}
}

func NewBreak(span Span) *Break       { return &Break{stmtBase{span}} }
func NewContinue(span Span) *Continue { return &Continue{stmtBase{span}} }

func NewIf(span Span, cond Expr, then, els *Block) *If {
	return &If{stmtBase{span}, cond, then, els}
}

func NewWhile(span Span, cond Expr, body *Block) *While {
	return &While{stmtBase{span}, cond, body}
}

func NewFor(span Span, name SymbolID, iter ForIter, body *Block) *For {
	return &For{stmtBase{span}, name, iter, body}
}
