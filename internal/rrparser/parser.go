// Package rrparser implements a hand-written recursive-descent parser over
// the hybrid surface grammar rather than a declarative grammar. Newlines
// inside unclosed parens and brackets never reach it (internal/lexer elides
// them by bracket depth); record literals skip newlines explicitly; a
// single-statement control body ends at the first NEWLINE because no
// expression production consumes one; and parseIfStmt looks past newlines
// for an else, restoring its position when none follows.
package rrparser

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rrscript/rrc/internal/ast"
	"github.com/rrscript/rrc/internal/diagnostic"
	"github.com/rrscript/rrc/internal/lexer"
	"github.com/rrscript/rrc/internal/token"
)

// Error is a parse-time failure carrying the offending span.
type Error struct {
	Pos     diagnostic.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", diagnostic.FormatPos(e.Pos), e.Message)
}

// Parse lexes and parses src into a Module.
func Parse(filename, src string) (*ast.Module, error) {
	toks, err := lexer.New(filename, src).Tokenize()
	if err != nil {
		return nil, errors.Wrap(err, "lex error")
	}
	p := &parser{toks: toks, filename: filename}
	return p.parseModule()
}

type parser struct {
	toks     []token.Token
	pos      int
	filename string
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *parser) peekKind(n int) token.Kind {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token.EOF
	}
	return p.toks[idx].Kind
}

func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *parser) errf(format string, a ...interface{}) error {
	return &Error{Pos: p.cur().Pos, Message: fmt.Sprintf(format, a...)}
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, p.errf("expected %s, found %s", k, p.cur().Kind)
	}
	return p.advance(), nil
}

// skipSeparators consumes any run of NEWLINE/SEMI tokens, used between
// statements at block/top-level scope.
func (p *parser) skipSeparators() {
	for p.at(token.NEWLINE) || p.at(token.SEMI) {
		p.advance()
	}
}

// skipNewlines discards a run of NEWLINE tokens: inside record literals
// (whose brace the lexer cannot distinguish from a block), before a
// control body, and while looking ahead for an else.
func (p *parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

func mixinFrom(start, end diagnostic.Position) ast.Mixin {
	return ast.Mixin{Pos: start, EndPos: end}
}

// ---- Module & declarations ----

func (p *parser) parseModule() (*ast.Module, error) {
	start := p.cur().Pos
	mod := &ast.Module{Filename: p.filename}
	p.skipSeparators()
	for !p.at(token.EOF) {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		mod.Decls = append(mod.Decls, decl)
		p.skipSeparators()
	}
	mod.Mixin = mixinFrom(start, p.cur().Pos)
	return mod, nil
}

func (p *parser) parseDecl() (*ast.Decl, error) {
	start := p.cur().Pos

	if p.at(token.FN) {
		fn, err := p.parseFuncShort()
		if err != nil {
			return nil, err
		}
		return &ast.Decl{Mixin: mixinFrom(start, fn.End()), Func: fn}, nil
	}

	if p.at(token.IDENT) {
		kind1 := p.peekKind(1)
		if (kind1 == token.ASSIGN_ARROW || kind1 == token.ASSIGN_EQ) && p.peekKind(2) == token.FUNCTION {
			fn, err := p.parseFuncLit()
			if err != nil {
				return nil, err
			}
			return &ast.Decl{Mixin: mixinFrom(start, fn.End()), Func: fn}, nil
		}
	}

	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.Decl{Mixin: mixinFrom(start, stmt.End()), Stmt: stmt}, nil
}

// parseFuncLit parses `name <- function(params) { body }`.
func (p *parser) parseFuncLit() (*ast.Function, error) {
	start := p.cur().Pos
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	p.advance() // <- or =
	if _, err := p.expect(token.FUNCTION); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	p.skipSeparators()
	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Function{
		Mixin:  mixinFrom(start, body.End()),
		Form:   ast.LitForm,
		Name:   name,
		Params: params,
		Body:   body,
	}, nil
}

// parseFuncShort parses `fn name(params) -> Ret = expr` or
// `fn name(params) body_block`.
func (p *parser) parseFuncShort() (*ast.Function, error) {
	start := p.cur().Pos
	if _, err := p.expect(token.FN); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	var retType *ast.TypeAnnot
	if p.at(token.ARROW) {
		p.advance()
		rt, err := p.parseTypeAnnot()
		if err != nil {
			return nil, err
		}
		retType = rt
	}

	var body *ast.BlockStmt
	if p.at(token.ASSIGN_EQ) {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body = &ast.BlockStmt{
			Mixin: mixinFrom(expr.Position(), expr.End()),
			Stmts: []ast.Stmt{&ast.ExprStmt{Mixin: mixinFrom(expr.Position(), expr.End()), X: expr}},
		}
	} else {
		p.skipSeparators()
		b, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		body = b
	}

	return &ast.Function{
		Mixin:   mixinFrom(start, body.End()),
		Form:    ast.ShortForm,
		Name:    name,
		Params:  params,
		RetType: retType,
		Body:    body,
	}, nil
}

func (p *parser) parseIdent() (*ast.Ident, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return &ast.Ident{Mixin: mixinFrom(tok.Pos, tok.End), Name: tok.Literal}, nil
}

func (p *parser) parseTypeAnnot() (*ast.TypeAnnot, error) {
	tok := p.cur()
	// Type keywords lex as plain identifiers; string is spelled "string".
	if tok.Kind != token.IDENT {
		return nil, p.errf("expected type annotation, found %s", tok.Kind)
	}
	p.advance()
	return &ast.TypeAnnot{Mixin: mixinFrom(tok.Pos, tok.End), Keyword: tok.Literal}, nil
}

// parseParams parses a comma-separated parameter list; the enclosing
// parens keep the lexer from emitting NEWLINE tokens within it.
func (p *parser) parseParams() ([]*ast.Param, error) {
	var params []*ast.Param
	for !p.at(token.RPAREN) {
		start := p.cur().Pos
		name, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		param := &ast.Param{Name: name}

		if p.at(token.COLON) {
			p.advance()
			ty, err := p.parseTypeAnnot()
			if err != nil {
				return nil, err
			}
			param.Type = ty
		}
		if p.at(token.ASSIGN_EQ) {
			p.advance()
			def, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		param.Mixin = mixinFrom(start, p.cur().Pos)
		params = append(params, param)

		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

// ---- Statements ----

func (p *parser) parseBraceBlock() (*ast.BlockStmt, error) {
	start := p.cur().Pos
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipSeparators()
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipSeparators()
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Mixin: mixinFrom(start, end.End), Stmts: stmts}, nil
}

// parseBody parses either a brace block, or a single statement terminated
// by the first NEWLINE not inside a grouping (the lexer already elides
// newlines inside unclosed parens/brackets). NEWLINEs between the control
// head and the body are skipped, so the body may start on the next line.
func (p *parser) parseBody() (*ast.BlockStmt, error) {
	p.skipNewlines()
	if p.at(token.LBRACE) {
		return p.parseBraceBlock()
	}
	start := p.cur().Pos
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Mixin: mixinFrom(start, stmt.End()), Stmts: []ast.Stmt{stmt}}, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	start := p.cur().Pos

	switch p.cur().Kind {
	case token.LET:
		return p.parseLetStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN:
		p.advance()
		if p.at(token.NEWLINE) || p.at(token.SEMI) || p.at(token.RBRACE) || p.at(token.EOF) {
			return &ast.ReturnStmt{Mixin: mixinFrom(start, p.cur().Pos)}, nil
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Mixin: mixinFrom(start, val.End()), Value: val}, nil
	case token.BREAK:
		p.advance()
		return &ast.BreakStmt{Mixin: mixinFrom(start, p.cur().Pos)}, nil
	case token.CONTINUE:
		p.advance()
		return &ast.ContinueStmt{Mixin: mixinFrom(start, p.cur().Pos)}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch p.cur().Kind {
	case token.ASSIGN_ARROW, token.ASSIGN_EQ, token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ:
		op := p.advance().Kind
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Mixin: mixinFrom(start, value.End()), Target: expr, Op: op, Value: value}, nil
	}

	return &ast.ExprStmt{Mixin: mixinFrom(start, expr.End()), X: expr}, nil
}

func (p *parser) parseLetStmt() (ast.Stmt, error) {
	start := p.cur().Pos
	p.advance() // let
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	var ty *ast.TypeAnnot
	if p.at(token.COLON) {
		p.advance()
		ty, err = p.parseTypeAnnot()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.ASSIGN_EQ); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{Mixin: mixinFrom(start, init.End()), Name: name, Type: ty, Init: init}, nil
}

// parseCondition parses an if/while head condition, optionally
// parenthesized. A parenthesized condition is itself just an expression
// with grouping parens, so no special-casing beyond normal expr parsing is
// needed: '{' is never a valid continuation token of a binary expression,
// so the head naturally terminates at the opening brace (or at the first
// NEWLINE, for a no-paren single-line body).
func (p *parser) parseCondition() (ast.Expr, error) {
	return p.parseExpr()
}

func (p *parser) parseIfStmt() (ast.Stmt, error) {
	start := p.cur().Pos
	p.advance() // if
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	end := then.End()
	var elseBlock *ast.BlockStmt

	// Only consume a following ELSE if it is actually present; otherwise
	// leave any pending NEWLINE for the enclosing statement sequence so a
	// sibling statement on the next line is never absorbed into this if.
	checkpoint := p.pos
	p.skipNewlines()
	if p.at(token.ELSE) {
		p.advance()
		elseBody, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		elseBlock = elseBody
		end = elseBlock.End()
	} else {
		p.pos = checkpoint
	}

	return &ast.IfStmt{Mixin: mixinFrom(start, end), Cond: cond, Then: then, Else: elseBlock}, nil
}

func (p *parser) parseWhileStmt() (ast.Stmt, error) {
	start := p.cur().Pos
	p.advance() // while
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Mixin: mixinFrom(start, body.End()), Cond: cond, Body: body}, nil
}

func (p *parser) parseForStmt() (ast.Stmt, error) {
	start := p.cur().Pos
	p.advance() // for
	parenthesized := false
	if p.at(token.LPAREN) {
		parenthesized = true
		p.advance()
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if parenthesized {
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Mixin: mixinFrom(start, body.End()), Name: name, Iter: iter, Body: body}, nil
}

// ---- Expressions (precedence climbing) ----

type precLevel struct {
	prec  int
	rassr bool
}

var binPrec = map[token.Kind]precLevel{
	token.OR:      {1, false},
	token.AND:     {2, false},
	token.EQ:      {3, false},
	token.NEQ:     {3, false},
	token.LT:      {3, false},
	token.LTE:     {3, false},
	token.GT:      {3, false},
	token.GTE:     {3, false},
	token.RANGE:   {4, false},
	token.PLUS:    {5, false},
	token.MINUS:   {5, false},
	token.STAR:    {6, false},
	token.SLASH:   {6, false},
	token.PERCENT: {6, false},
}

func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		lvl, ok := binPrec[p.cur().Kind]
		if !ok || lvl.prec < minPrec {
			return left, nil
		}
		op := p.advance().Kind

		if op == token.RANGE {
			end, err := p.parseBinary(lvl.prec + 1)
			if err != nil {
				return nil, err
			}
			left = &ast.RangeExpr{Mixin: mixinFrom(left.Position(), end.End()), Start: left, End: end}
			continue
		}

		right, err := p.parseBinary(lvl.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Mixin: mixinFrom(left.Position(), right.End()), Op: op, X: left, Y: right}
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	start := p.cur().Pos
	switch p.cur().Kind {
	case token.MINUS, token.NOT:
		op := p.advance().Kind
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Mixin: mixinFrom(start, x.End()), Op: op, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.LPAREN:
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(token.RPAREN)
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Mixin: mixinFrom(expr.Position(), end.End), Callee: expr, Args: args}
		case token.LBRACK:
			p.advance()
			var indices []ast.Expr
			for !p.at(token.RBRACK) {
				idx, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				indices = append(indices, idx)
				if p.at(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			end, err := p.expect(token.RBRACK)
			if err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Mixin: mixinFrom(expr.Position(), end.End), X: expr, Indices: indices}
		case token.DOT:
			p.advance()
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			expr = &ast.FieldExpr{Mixin: mixinFrom(expr.Position(), name.End()), X: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseArgs() ([]*ast.Arg, error) {
	var args []*ast.Arg
	for !p.at(token.RPAREN) {
		start := p.cur().Pos
		var name *ast.Ident
		if p.at(token.IDENT) && p.peekKind(1) == token.ASSIGN_EQ {
			n, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			name = n
			p.advance() // =
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, &ast.Arg{Mixin: mixinFrom(start, val.End()), Name: name, Value: val})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		text := tok.Literal
		numeric := text
		if len(numeric) > 0 && numeric[len(numeric)-1] == 'L' {
			numeric = numeric[:len(numeric)-1]
		}
		v, err := strconv.ParseInt(numeric, 10, 64)
		if err != nil {
			return nil, &Error{Pos: tok.Pos, Message: fmt.Sprintf("invalid integer literal %q", text)}
		}
		return &ast.IntLit{Mixin: mixinFrom(tok.Pos, tok.End), Text: text, Value: v}, nil
	case token.FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &Error{Pos: tok.Pos, Message: fmt.Sprintf("invalid float literal %q", tok.Literal)}
		}
		return &ast.FloatLit{Mixin: mixinFrom(tok.Pos, tok.End), Text: tok.Literal, Value: v}, nil
	case token.BOOL:
		p.advance()
		return &ast.BoolLit{Mixin: mixinFrom(tok.Pos, tok.End), Value: tok.Literal == "TRUE"}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{Mixin: mixinFrom(tok.Pos, tok.End), Value: tok.Literal}, nil
	case token.IDENT:
		return p.parseIdent()
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.LBRACK:
		return p.parseArrayExpr()
	case token.LBRACE:
		return p.parseRecordExpr()
	case token.FUNCTION:
		return p.parseFuncLitExpr()
	}
	return nil, p.errf("unexpected token %s in expression", tok.Kind)
}

func (p *parser) parseArrayExpr() (ast.Expr, error) {
	start := p.cur().Pos
	p.advance() // [
	var elems []ast.Expr
	for !p.at(token.RBRACK) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, err := p.expect(token.RBRACK)
	if err != nil {
		return nil, err
	}
	return &ast.ArrayExpr{Mixin: mixinFrom(start, end.End), Elems: elems}, nil
}

func (p *parser) parseRecordExpr() (ast.Expr, error) {
	start := p.cur().Pos
	p.advance() // {
	p.skipNewlines()
	var fields []*ast.RecordField
	for !p.at(token.RBRACE) {
		fstart := p.cur().Pos
		key, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, &ast.RecordField{Mixin: mixinFrom(fstart, val.End()), Key: key, Value: val})
		p.skipNewlines()
		if p.at(token.COMMA) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.RecordExpr{Mixin: mixinFrom(start, end.End), Fields: fields}, nil
}

func (p *parser) parseFuncLitExpr() (ast.Expr, error) {
	start := p.cur().Pos
	p.advance() // function
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	p.skipSeparators()
	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncLitExpr{Mixin: mixinFrom(start, body.End()), Params: params, Body: body}, nil
}
