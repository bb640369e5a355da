package parser

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// Parser implements a recursive descent parser for Setsuna source text.
// The whole input is tokenized up front so that constructs requiring
// backtracking, such as paren lambdas, can save and restore the token
// position cheaply.
type Parser struct {
	tokens []Token
	pos    int
	depth  int
	opts   Options
	lexErr error
}

// NewParser creates a new parser for the given source text.
func NewParser(src string, opts ...Option) *Parser {
	options := Options{
		MaxDepth: 200,
	}
	for _, opt := range opts {
		opt(&options)
	}

	l := NewLexer(src, options.Filename)
	var tokens []Token
	for {
		t := l.Next()
		tokens = append(tokens, t)
		if t.Type == TokenEOF || t.Type == TokenError {
			break
		}
	}

	return &Parser{
		tokens: tokens,
		opts:   options,
		lexErr: l.Error(),
	}
}

// Parse parses the entire input and returns the program syntax tree.
func (p *Parser) Parse() (*types.Program, error) {
	if p.lexErr != nil {
		return nil, p.lexErr
	}

	prog := &types.Program{Filename: p.opts.Filename}

	p.skipSeps()
	for !p.at(TokenEOF) {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)

		if err := p.expectSep(TokenEOF); err != nil {
			return nil, err
		}
	}

	return prog, nil
}

// Token cursor

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) at(tt TokenType) bool {
	return p.tokens[p.pos].Type == tt
}

func (p *Parser) peekType(n int) TokenType {
	i := p.pos + n
	if i >= len(p.tokens) {
		return TokenEOF
	}
	return p.tokens[i].Type
}

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) skipNewlines() {
	for p.at(TokenNewline) {
		p.advance()
	}
}

func (p *Parser) skipSeps() {
	for p.at(TokenNewline) || p.at(TokenSemicolon) {
		p.advance()
	}
}

// expect checks that the current token matches the expected type and
// advances past it.
func (p *Parser) expect(tt TokenType) (Token, error) {
	if !p.at(tt) {
		return Token{}, p.errorf(types.ErrExpectedToken, "Expected '%s' but got '%s'", tt, p.current().Type)
	}
	return p.advance(), nil
}

// expectIdent checks that the current token is an identifier and
// advances past it.
func (p *Parser) expectIdent() (Token, error) {
	if !p.at(TokenIdent) {
		return Token{}, p.errorf(types.ErrExpectedToken, "Expected identifier but got '%s'", p.current().Type)
	}
	return p.advance(), nil
}

// expectSep consumes the separators after a statement: one or more
// newlines or semicolons. The closing token and EOF also terminate a
// statement without an explicit separator.
func (p *Parser) expectSep(closing TokenType) error {
	if p.at(TokenNewline) || p.at(TokenSemicolon) {
		p.skipSeps()
		return nil
	}
	if p.at(closing) || p.at(TokenEOF) {
		return nil
	}
	return p.errorf(types.ErrUnexpectedToken, "Unexpected token '%s', expected newline or ';'", p.current().Type)
}

func (p *Parser) errorf(code types.ErrorCode, format string, args ...any) error {
	t := p.current()
	return &types.Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: t.Loc,
		Token:    t.Value,
	}
}

// enter guards against runaway expression nesting.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		return p.errorf(types.ErrNestingTooDeep, "Expression nesting exceeds %d levels", p.opts.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// Declarations

func (p *Parser) parseDecl() (types.Decl, error) {
	switch p.current().Type {
	case TokenType_:
		return p.parseTypeDecl()
	case TokenModule:
		return p.parseModuleDecl()
	case TokenImport:
		return p.parseImportDecl()
	default:
		expr, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &types.ExprDecl{Expr: expr}, nil
	}
}

// parseTypeDecl parses an algebraic data type declaration.
// Syntax: type Name [<T, U>] { Ctor [(T1, T2)], ... }
func (p *Parser) parseTypeDecl() (*types.TypeDecl, error) {
	loc := p.advance().Loc

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var typeParams []string
	if p.at(TokenLt) {
		p.advance()
		for {
			tp, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			typeParams = append(typeParams, tp.Value)
			if !p.at(TokenComma) {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenGt); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenBraceOpen); err != nil {
		return nil, err
	}
	p.skipSeps()

	var ctors []types.CtorDecl
	for !p.at(TokenBraceClose) {
		cname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		var fields []types.TypeExpr
		if p.at(TokenParenOpen) {
			p.advance()
			p.skipNewlines()
			for !p.at(TokenParenClose) {
				field, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				fields = append(fields, field)
				if !p.at(TokenComma) {
					break
				}
				p.advance()
				p.skipNewlines()
			}
			if _, err := p.expect(TokenParenClose); err != nil {
				return nil, err
			}
		}

		ctors = append(ctors, types.CtorDecl{Name: cname.Value, Fields: fields})

		if p.at(TokenComma) {
			p.advance()
		}
		p.skipSeps()
	}

	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	if len(ctors) == 0 {
		return nil, p.errorf(types.ErrUnexpectedToken, "Type '%s' declares no constructors", name.Value)
	}

	return &types.TypeDecl{
		Name:       name.Value,
		TypeParams: typeParams,
		Ctors:      ctors,
		Location:   loc,
	}, nil
}

// parseModuleDecl parses an inline module declaration.
// Syntax: module Name { body... }
func (p *Parser) parseModuleDecl() (*types.ModuleDecl, error) {
	loc := p.advance().Loc

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenBraceOpen); err != nil {
		return nil, err
	}
	p.skipSeps()

	var body []types.Expr
	for !p.at(TokenBraceClose) {
		expr, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, expr)

		if err := p.expectSep(TokenBraceClose); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	return &types.ModuleDecl{Name: name.Value, Body: body, Location: loc}, nil
}

// parseImportDecl parses an import declaration.
// Syntax: import name [as alias]
func (p *Parser) parseImportDecl() (*types.ImportDecl, error) {
	loc := p.advance().Loc

	module, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var alias string
	if p.at(TokenAs) {
		p.advance()
		a, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		alias = a.Value
	}

	return &types.ImportDecl{Module: module.Value, Alias: alias, Location: loc}, nil
}

// Statements

// parseStatement parses a statement-level expression: bindings, named
// function definitions and assignments, falling back to plain
// expressions.
func (p *Parser) parseStatement() (types.Expr, error) {
	switch p.current().Type {
	case TokenLet:
		return p.parseLet(false)
	case TokenConst:
		return p.parseLet(true)
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.at(TokenAssign) {
		id, ok := expr.(*types.Identifier)
		if !ok {
			return nil, p.errorf(types.ErrUnexpectedToken, "Left-hand side of assignment must be a variable")
		}
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &types.AssignExpr{Name: id.Name, Value: value, Location: id.Location}, nil
	}

	return expr, nil
}

// parseLet parses a let or const binding.
// Syntax: let name [: Type] = expr
func (p *Parser) parseLet(isConst bool) (types.Expr, error) {
	loc := p.advance().Loc

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var ty types.TypeExpr
	if p.at(TokenColon) {
		p.advance()
		ty, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenAssign); err != nil {
		return nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &types.LetExpr{
		Name:     name.Value,
		Type:     ty,
		Value:    value,
		Const:    isConst,
		Location: loc,
	}, nil
}

// parseFn parses a function definition or anonymous function.
// Syntax: fn name(params) [: Type] { body }  |  fn name(params) [: Type] => expr
// Syntax: fn (params) => expr  |  fn (params) { body }
func (p *Parser) parseFn() (types.Expr, error) {
	loc := p.advance().Loc

	if p.at(TokenIdent) {
		name := p.advance()

		params, err := p.parseParamList()
		if err != nil {
			return nil, err
		}

		var ret types.TypeExpr
		if p.at(TokenColon) {
			p.advance()
			ret, err = p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
		}

		var body types.Expr
		if p.at(TokenArrow) {
			p.advance()
			body, err = p.parseExpr()
		} else {
			body, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}

		return &types.FnDef{
			Name:       name.Value,
			Params:     params,
			ReturnType: ret,
			Body:       body,
			Location:   loc,
		}, nil
	}

	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}

	var body types.Expr
	if p.at(TokenArrow) {
		p.advance()
		body, err = p.parseExpr()
	} else {
		body, err = p.parseBlock()
	}
	if err != nil {
		return nil, err
	}

	return &types.Lambda{Params: params, Body: body, Location: loc}, nil
}

func (p *Parser) parseParamList() ([]types.Param, error) {
	if _, err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var params []types.Param
	for !p.at(TokenParenClose) {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		var ty types.TypeExpr
		if p.at(TokenColon) {
			p.advance()
			ty, err = p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
		}

		params = append(params, types.Param{Name: name.Value, Type: ty})

		if !p.at(TokenComma) {
			break
		}
		p.advance()
		p.skipNewlines()
	}

	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return params, nil
}

// Expressions, in order of increasing precedence

func (p *Parser) parseExpr() (types.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseOr()
}

func (p *Parser) parseOr() (types.Expr, error) {
	return p.parseBinary(p.parseAnd, TokenOr)
}

func (p *Parser) parseAnd() (types.Expr, error) {
	return p.parseBinary(p.parseEquality, TokenAnd)
}

func (p *Parser) parseEquality() (types.Expr, error) {
	return p.parseBinary(p.parseComparison, TokenEq, TokenNeq)
}

func (p *Parser) parseComparison() (types.Expr, error) {
	return p.parseBinary(p.parseTerm, TokenLt, TokenGt, TokenLte, TokenGte)
}

func (p *Parser) parseTerm() (types.Expr, error) {
	return p.parseBinary(p.parseFactor, TokenPlus, TokenMinus)
}

func (p *Parser) parseFactor() (types.Expr, error) {
	return p.parseBinary(p.parseUnary, TokenStar, TokenSlash, TokenPercent)
}

// parseBinary parses a left-associative run of the given operators at
// one precedence level.
func (p *Parser) parseBinary(next func() (types.Expr, error), ops ...TokenType) (types.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for {
		tt := p.current().Type
		matched := false
		for _, op := range ops {
			if tt == op {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}

		opTok := p.advance()
		p.skipNewlines()
		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &types.BinaryExpr{
			Op:       binaryOp(opTok.Type),
			Left:     left,
			Right:    right,
			Location: opTok.Loc,
		}
	}
}

func binaryOp(tt TokenType) types.BinaryOpKind {
	switch tt {
	case TokenPlus:
		return types.OpAdd
	case TokenMinus:
		return types.OpSub
	case TokenStar:
		return types.OpMul
	case TokenSlash:
		return types.OpDiv
	case TokenPercent:
		return types.OpMod
	case TokenEq:
		return types.OpEq
	case TokenNeq:
		return types.OpNeq
	case TokenLt:
		return types.OpLt
	case TokenGt:
		return types.OpGt
	case TokenLte:
		return types.OpLte
	case TokenGte:
		return types.OpGte
	case TokenAnd:
		return types.OpAnd
	default:
		return types.OpOr
	}
}

func (p *Parser) parseUnary() (types.Expr, error) {
	switch p.current().Type {
	case TokenMinus:
		loc := p.advance().Loc
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &types.UnaryExpr{Op: types.OpNeg, Operand: operand, Location: loc}, nil
	case TokenNot:
		loc := p.advance().Loc
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &types.UnaryExpr{Op: types.OpNot, Operand: operand, Location: loc}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses calls, field accesses and module accesses, which
// chain and bind tighter than any operator.
func (p *Parser) parsePostfix() (types.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case TokenParenOpen:
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &types.CallExpr{Callee: expr, Args: args, Location: expr.Loc()}

		case TokenDot:
			p.advance()
			var field Token
			switch p.current().Type {
			case TokenIdent:
				field = p.advance()
			case TokenInt:
				field = p.advance()
			default:
				return nil, p.errorf(types.ErrExpectedToken, "Expected field name after '.' but got '%s'", p.current().Type)
			}
			expr = &types.FieldAccess{Object: expr, Field: field.Value, Location: expr.Loc()}

		case TokenDoubleColon:
			id, ok := expr.(*types.Identifier)
			if !ok {
				return nil, p.errorf(types.ErrUnexpectedToken, "'::' requires a module name on the left")
			}
			p.advance()
			member, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			expr = &types.ModuleAccess{Module: id.Name, Member: member.Value, Location: id.Location}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]types.Expr, error) {
	if _, err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var args []types.Expr
	for !p.at(TokenParenClose) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		p.skipNewlines()
		if !p.at(TokenComma) {
			break
		}
		p.advance()
		p.skipNewlines()
	}

	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (types.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.current()
	switch tok.Type {
	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(types.ErrNumberOutOfRange, "Integer literal out of range: %s", tok.Value)
		}
		return &types.IntLit{Value: v, Location: tok.Loc}, nil

	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf(types.ErrNumberOutOfRange, "Float literal out of range: %s", tok.Value)
		}
		return &types.FloatLit{Value: v, Location: tok.Loc}, nil

	case TokenString:
		p.advance()
		return &types.StringLit{Value: tok.Value, Location: tok.Loc}, nil

	case TokenFString:
		p.advance()
		return p.parseFString(tok)

	case TokenTrue:
		p.advance()
		return &types.BoolLit{Value: true, Location: tok.Loc}, nil

	case TokenFalse:
		p.advance()
		return &types.BoolLit{Value: false, Location: tok.Loc}, nil

	case TokenIdent:
		p.advance()
		return &types.Identifier{Name: tok.Value, Location: tok.Loc}, nil

	case TokenFn:
		return p.parseFn()

	case TokenIf:
		return p.parseIf()

	case TokenMatch:
		return p.parseMatch()

	case TokenWhile:
		loc := p.advance().Loc
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &types.WhileExpr{Cond: cond, Body: body, Location: loc}, nil

	case TokenFor:
		loc := p.advance().Loc
		v, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenIn); err != nil {
			return nil, err
		}
		iter, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &types.ForExpr{Var: v.Value, Iterable: iter, Body: body, Location: loc}, nil

	case TokenParenOpen:
		return p.parseParenExpr()

	case TokenBracketOpen:
		return p.parseList()

	case TokenMapOpen:
		return p.parseMap()

	case TokenBraceOpen:
		if p.looksLikeRecord() {
			return p.parseRecord()
		}
		return p.parseBlock()

	default:
		return nil, p.errorf(types.ErrUnexpectedToken, "Unexpected token '%s'", tok.Type)
	}
}

// parseIf parses a conditional expression. The else branch may be a
// block or a chained if, and may appear after a newline.
func (p *Parser) parseIf() (types.Expr, error) {
	loc := p.advance().Loc

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var els types.Expr
	save := p.pos
	p.skipNewlines()
	if p.at(TokenElse) {
		p.advance()
		if p.at(TokenIf) {
			els, err = p.parseIf()
		} else {
			els, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.pos = save
	}

	return &types.IfExpr{Cond: cond, Then: then, Else: els, Location: loc}, nil
}

// parseBlock parses a braced sequence of statements. The block's value
// is the value of its last statement.
func (p *Parser) parseBlock() (types.Expr, error) {
	open, err := p.expect(TokenBraceOpen)
	if err != nil {
		return nil, err
	}
	p.skipSeps()

	var exprs []types.Expr
	for !p.at(TokenBraceClose) {
		expr, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)

		if err := p.expectSep(TokenBraceClose); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	return &types.BlockExpr{Exprs: exprs, Location: open.Loc}, nil
}

// looksLikeRecord distinguishes a record literal from a block by
// looking past the opening brace: an identifier immediately followed
// by a colon starts a record.
func (p *Parser) looksLikeRecord() bool {
	save := p.pos
	defer func() { p.pos = save }()

	p.advance()
	p.skipNewlines()
	return p.at(TokenIdent) && p.peekType(1) == TokenColon
}

func (p *Parser) parseRecord() (types.Expr, error) {
	loc := p.advance().Loc
	p.skipNewlines()

	var fields []types.RecordField
	for !p.at(TokenBraceClose) {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, types.RecordField{Name: name.Value, Value: value})

		if p.at(TokenComma) {
			p.advance()
		}
		p.skipNewlines()
	}

	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	return &types.RecordExpr{Fields: fields, Location: loc}, nil
}

func (p *Parser) parseList() (types.Expr, error) {
	loc := p.advance().Loc
	p.skipNewlines()

	var elems []types.Expr
	for !p.at(TokenBracketClose) {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)

		p.skipNewlines()
		if !p.at(TokenComma) {
			break
		}
		p.advance()
		p.skipNewlines()
	}

	if _, err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	return &types.ListExpr{Elements: elems, Location: loc}, nil
}

func (p *Parser) parseMap() (types.Expr, error) {
	loc := p.advance().Loc
	p.skipNewlines()

	var entries []types.MapEntry
	for !p.at(TokenBraceClose) {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, types.MapEntry{Key: key, Value: value})

		if p.at(TokenComma) {
			p.advance()
		}
		p.skipNewlines()
	}

	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	return &types.MapExpr{Entries: entries, Location: loc}, nil
}

// parseParenExpr parses a parenthesized construct: a lambda, the unit
// value, a grouping, or a tuple literal.
func (p *Parser) parseParenExpr() (types.Expr, error) {
	if lam, err := p.tryLambda(); lam != nil || err != nil {
		return lam, err
	}

	loc := p.advance().Loc
	p.skipNewlines()

	if p.at(TokenParenClose) {
		p.advance()
		return &types.TupleExpr{Location: loc}, nil
	}

	var exprs []types.Expr
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)

		p.skipNewlines()
		if !p.at(TokenComma) {
			break
		}
		p.advance()
		p.skipNewlines()
		if p.at(TokenParenClose) {
			break
		}
	}

	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &types.TupleExpr{Elements: exprs, Location: loc}, nil
}

// tryLambda speculatively parses a paren lambda: (a, b) => expr.
// Returns (nil, nil) with the position restored when the input is not
// a lambda. Errors are only reported after the arrow commits.
func (p *Parser) tryLambda() (types.Expr, error) {
	save := p.pos
	loc := p.current().Loc

	p.advance()
	p.skipNewlines()

	var params []types.Param
	for !p.at(TokenParenClose) {
		if !p.at(TokenIdent) {
			p.pos = save
			return nil, nil
		}
		name := p.advance()

		var ty types.TypeExpr
		if p.at(TokenColon) {
			p.advance()
			t, err := p.parseTypeExpr()
			if err != nil {
				p.pos = save
				return nil, nil
			}
			ty = t
		}

		params = append(params, types.Param{Name: name.Value, Type: ty})

		if p.at(TokenComma) {
			p.advance()
			p.skipNewlines()
			continue
		}
		if !p.at(TokenParenClose) {
			p.pos = save
			return nil, nil
		}
	}
	p.advance()

	if !p.at(TokenArrow) {
		p.pos = save
		return nil, nil
	}
	p.advance()

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &types.Lambda{Params: params, Body: body, Location: loc}, nil
}

// parseMatch parses a match expression.
// Syntax: match expr { pattern [if guard] => expr, ... }
func (p *Parser) parseMatch() (types.Expr, error) {
	loc := p.advance().Loc

	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenBraceOpen); err != nil {
		return nil, err
	}
	p.skipSeps()

	var arms []types.MatchArm
	for !p.at(TokenBraceClose) {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}

		var guard types.Expr
		if p.at(TokenIf) {
			p.advance()
			guard, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}

		if _, err := p.expect(TokenArrow); err != nil {
			return nil, err
		}
		p.skipNewlines()

		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		arms = append(arms, types.MatchArm{Pattern: pat, Guard: guard, Body: body})

		if p.at(TokenComma) {
			p.advance()
		}
		p.skipSeps()
	}

	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	if len(arms) == 0 {
		return nil, p.errorf(types.ErrExpectedPattern, "Match expression has no arms")
	}

	return &types.MatchExpr{Scrutinee: scrutinee, Arms: arms, Location: loc}, nil
}

// Patterns

func (p *Parser) parsePattern() (types.Pattern, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.current()
	switch tok.Type {
	case TokenIdent:
		p.advance()
		if tok.Value == "_" {
			return &types.WildcardPattern{Location: tok.Loc}, nil
		}
		if p.at(TokenParenOpen) {
			p.advance()
			p.skipNewlines()
			var args []types.Pattern
			for !p.at(TokenParenClose) {
				arg, err := p.parsePattern()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.at(TokenComma) {
					break
				}
				p.advance()
				p.skipNewlines()
			}
			if _, err := p.expect(TokenParenClose); err != nil {
				return nil, err
			}
			return &types.CtorPattern{Name: tok.Value, Args: args, Location: tok.Loc}, nil
		}
		if startsUpper(tok.Value) {
			return &types.CtorPattern{Name: tok.Value, Location: tok.Loc}, nil
		}
		return &types.VarPattern{Name: tok.Value, Location: tok.Loc}, nil

	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(types.ErrNumberOutOfRange, "Integer literal out of range: %s", tok.Value)
		}
		return &types.LiteralPattern{Value: v, Location: tok.Loc}, nil

	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf(types.ErrNumberOutOfRange, "Float literal out of range: %s", tok.Value)
		}
		return &types.LiteralPattern{Value: v, Location: tok.Loc}, nil

	case TokenMinus:
		p.advance()
		num := p.current()
		switch num.Type {
		case TokenInt:
			p.advance()
			v, err := strconv.ParseInt(num.Value, 10, 64)
			if err != nil {
				return nil, p.errorf(types.ErrNumberOutOfRange, "Integer literal out of range: %s", num.Value)
			}
			return &types.LiteralPattern{Value: -v, Location: tok.Loc}, nil
		case TokenFloat:
			p.advance()
			v, err := strconv.ParseFloat(num.Value, 64)
			if err != nil {
				return nil, p.errorf(types.ErrNumberOutOfRange, "Float literal out of range: %s", num.Value)
			}
			return &types.LiteralPattern{Value: -v, Location: tok.Loc}, nil
		default:
			return nil, p.errorf(types.ErrExpectedPattern, "Expected number after '-' in pattern")
		}

	case TokenString:
		p.advance()
		return &types.LiteralPattern{Value: tok.Value, Location: tok.Loc}, nil

	case TokenTrue:
		p.advance()
		return &types.LiteralPattern{Value: true, Location: tok.Loc}, nil

	case TokenFalse:
		p.advance()
		return &types.LiteralPattern{Value: false, Location: tok.Loc}, nil

	case TokenBracketOpen:
		return p.parseListPattern()

	case TokenParenOpen:
		p.advance()
		p.skipNewlines()
		var elems []types.Pattern
		for !p.at(TokenParenClose) {
			elem, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			if !p.at(TokenComma) {
				break
			}
			p.advance()
			p.skipNewlines()
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return &types.TuplePattern{Elements: elems, Location: tok.Loc}, nil

	case TokenBraceOpen:
		p.advance()
		p.skipNewlines()
		var fields []types.PatternField
		for !p.at(TokenBraceClose) {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			var pat types.Pattern
			if p.at(TokenColon) {
				p.advance()
				pat, err = p.parsePattern()
				if err != nil {
					return nil, err
				}
			} else {
				pat = &types.VarPattern{Name: name.Value, Location: name.Loc}
			}
			fields = append(fields, types.PatternField{Name: name.Value, Pattern: pat})
			if !p.at(TokenComma) {
				break
			}
			p.advance()
			p.skipNewlines()
		}
		if _, err := p.expect(TokenBraceClose); err != nil {
			return nil, err
		}
		return &types.RecordPattern{Fields: fields, Location: tok.Loc}, nil

	default:
		return nil, p.errorf(types.ErrExpectedPattern, "Expected pattern but got '%s'", tok.Type)
	}
}

// parseListPattern parses a list pattern, with an optional ...rest
// binding in the final position.
func (p *Parser) parseListPattern() (types.Pattern, error) {
	loc := p.advance().Loc
	p.skipNewlines()

	pat := &types.ListPattern{Location: loc}
	for !p.at(TokenBracketClose) {
		if p.at(TokenEllipsis) {
			p.advance()
			rest, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			pat.Rest = rest.Value
			pat.HasRest = true
			p.skipNewlines()
			break
		}

		elem, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		pat.Elements = append(pat.Elements, elem)

		if !p.at(TokenComma) {
			break
		}
		p.advance()
		p.skipNewlines()
	}

	if _, err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	return pat, nil
}

// Type expressions

func (p *Parser) parseTypeExpr() (types.TypeExpr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.current()
	switch tok.Type {
	case TokenIdent:
		p.advance()
		var args []types.TypeExpr
		if p.at(TokenLt) {
			p.advance()
			for {
				arg, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.at(TokenComma) {
					break
				}
				p.advance()
			}
			if _, err := p.expect(TokenGt); err != nil {
				return nil, err
			}
		}
		return &types.NamedType{Name: tok.Value, Args: args, Location: tok.Loc}, nil

	case TokenBracketOpen:
		p.advance()
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenBracketClose); err != nil {
			return nil, err
		}
		return &types.ListType{Elem: elem, Location: tok.Loc}, nil

	case TokenParenOpen:
		p.advance()
		p.skipNewlines()
		var elems []types.TypeExpr
		for !p.at(TokenParenClose) {
			elem, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			if !p.at(TokenComma) {
				break
			}
			p.advance()
			p.skipNewlines()
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}

		// The lexer has no "->" token: the arrow arrives as '-' then '>'.
		arrow := p.at(TokenArrow)
		if !arrow && p.at(TokenMinus) && p.peekType(1) == TokenGt {
			p.advance()
			arrow = true
		}
		if arrow {
			p.advance()
			ret, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			return &types.FnType{Params: elems, Return: ret, Location: tok.Loc}, nil
		}

		if len(elems) == 1 {
			return elems[0], nil
		}
		return &types.TupleType{Elems: elems, Location: tok.Loc}, nil

	default:
		return nil, p.errorf(types.ErrExpectedTypeExpr, "Expected type but got '%s'", tok.Type)
	}
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
