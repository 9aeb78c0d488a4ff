package parser

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/lexer"
)

func (p *Parser) parseBlock() *ast.Statement {
	start := p.cur
	if !p.expect(lexer.LBRACE, "PAR002", "expected '{' to open block") {
		return &ast.Statement{Kind: ast.StmtBlock, Span: p.spanFrom(start)}
	}
	var stmts []*ast.Statement
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(lexer.RBRACE, "PAR002", "expected '}' to close block")
	return &ast.Statement{Kind: ast.StmtBlock, Body: stmts, Span: p.spanFrom(start)}
}

// scanTypePrefixSilently walks past what could be the type portion of a
// typed local declaration (`Foo.Bar<T>[]? name`) without touching the
// diagnostic sink, so a failed guess can be rewound for free. The real,
// diagnostic-capable grammar only runs once the shape is confirmed.
func (p *Parser) scanTypePrefixSilently() bool {
	if !p.at(lexer.IDENT) {
		return false
	}
	p.advance()
	for p.at(lexer.DOT) {
		p.advance()
		if !p.at(lexer.IDENT) {
			return false
		}
		p.advance()
	}
	if p.at(lexer.LT) {
		depth := 0
		p.advance()
		depth++
		for depth > 0 {
			if p.at(lexer.EOF) {
				return false
			}
			switch p.cur.Type {
			case lexer.LT:
				depth++
			case lexer.GT:
				depth--
			}
			p.advance()
		}
	}
	for p.at(lexer.LBRACKET) {
		p.advance()
		for p.at(lexer.COMMA) {
			p.advance()
		}
		if !p.at(lexer.RBRACKET) {
			return false
		}
		p.advance()
	}
	if p.at(lexer.QUESTION) {
		p.advance()
	}
	return true
}

func (p *Parser) parseStatement() *ast.Statement {
	start := p.cur

	switch p.cur.Type {
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.SEMICOLON:
		p.advance()
		return &ast.Statement{Kind: ast.StmtEmpty, Span: p.spanFrom(start)}
	case lexer.LET, lexer.VAR:
		return p.parseVarDecl()
	case lexer.CONST:
		return p.parseLocalConst()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.DO:
		return p.parseDoWhileStmt()
	case lexer.FOR_KW:
		return p.parseForStmt()
	case lexer.FOREACH:
		return p.parseForeachStmt()
	case lexer.SWITCH:
		return p.parseSwitchStmt()
	case lexer.TRY:
		return p.parseTryStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.BREAK:
		return p.parseBreakContinue(ast.StmtBreak)
	case lexer.CONTINUE:
		return p.parseBreakContinue(ast.StmtContinue)
	case lexer.GOTO:
		return p.parseGotoStmt()
	case lexer.THROW:
		return p.parseThrowStmt()
	case lexer.REGION:
		return p.parseRegionStmt()
	case lexer.USING:
		return p.parseUsingStmt()
	case lexer.LOCK:
		return p.parseLockStmt()
	case lexer.CHECKED, lexer.UNCHECKED:
		return p.parseCheckedUncheckedStmt()
	case lexer.ATOMIC:
		return p.parseAtomicStmt()
	case lexer.YIELD:
		return p.parseYieldStmt()
	case lexer.FIXED:
		return p.parseFixedStmt()
	case lexer.UNSAFE:
		return p.parseUnsafeStmt()
	}

	if p.at(lexer.IDENT) {
		saved := p.mark()
		if p.scanTypePrefixSilently() && p.at(lexer.IDENT) {
			p.advance() // the candidate name
			switch {
			case p.at(lexer.LPAREN):
				p.rewind(saved)
				return p.parseLocalFunctionStmt()
			case p.at(lexer.ASSIGN), p.at(lexer.SEMICOLON):
				p.rewind(saved)
				p.ll1Markers = append(p.ll1Markers, "LL1-TYPED-LOCAL")
				return p.parseTypedLocalStmt()
			}
		}
		p.rewind(saved)

		if p.peek.Type == lexer.COLON {
			return p.parseLabeledStmt()
		}
	}

	expr := p.parseExpressionNode()
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after expression statement")
	return &ast.Statement{Kind: ast.StmtExpression, Expr: expr, Span: p.spanFrom(start)}
}

func (p *Parser) parseLocalFunctionStmt() *ast.Statement {
	start := p.cur
	item := p.parseFunction(ast.ItemBase{Span: p.curSpan()}, start, nil)
	fd, _ := item.(*ast.FunctionDecl)
	return &ast.Statement{Kind: ast.StmtLocalFunction, LocalFunction: fd, Span: p.spanFrom(start)}
}

// parseTypedLocalStmt rewrites an implicit `Type name = init;` local
// (no `let`/`var`) into a StmtVariableDeclaration, flagging it so the
// author can adopt the explicit form.
func (p *Parser) parseTypedLocalStmt() *ast.Statement {
	start := p.cur
	ty := p.parseTypeExpression()
	name := p.cur.Literal
	p.advance()
	var init *ast.ExprNode
	if p.at(lexer.ASSIGN) {
		p.advance()
		init = p.parseExpressionNode()
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after variable declaration")
	p.sink.Warnf(p.spanFrom(start), "LCL0001", "implicit local declaration without 'let'/'var'; treated as a let binding")
	return &ast.Statement{
		Kind: ast.StmtVariableDeclaration, VarModifier: ast.VarLet,
		Declarators: []ast.Declarator{{Name: name, Type: &ty, Initializer: init, Span: p.spanFrom(start)}},
		Span:        p.spanFrom(start),
	}
}

func (p *Parser) parseVarDecl() *ast.Statement {
	start := p.cur
	mod := ast.VarLet
	if p.at(lexer.VAR) {
		mod = ast.VarVar
	}
	p.advance() // let|var
	isPinned := false
	if p.at(lexer.PINNED) {
		isPinned = true
		p.advance()
	}
	var decls []ast.Declarator
	for {
		decls = append(decls, p.parseDeclaratorWithOptionalType())
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after variable declaration")
	return &ast.Statement{Kind: ast.StmtVariableDeclaration, VarModifier: mod, Declarators: decls, IsPinned: isPinned, Span: p.spanFrom(start)}
}

// parseDeclaratorWithOptionalType resolves the third documented LL(1)
// allowance: `let Vec<int> items = ...;` (explicit pre-colon type) vs
// `let items = ...;` (no type) vs `let items: Vec<int> = ...;` (explicit
// post-colon type) all start with an IDENT and must be told apart.
func (p *Parser) parseDeclaratorWithOptionalType() ast.Declarator {
	start := p.cur
	saved := p.mark()
	if p.scanTypePrefixSilently() && p.at(lexer.IDENT) {
		p.rewind(saved)
		p.ll1Markers = append(p.ll1Markers, "LL1-LET-TYPE")
		ty := p.parseTypeExpression()
		name := p.cur.Literal
		p.advance()
		var init *ast.ExprNode
		if p.at(lexer.ASSIGN) {
			p.advance()
			init = p.parseExpressionNode()
		}
		return ast.Declarator{Name: name, Type: &ty, Initializer: init, Span: p.spanFrom(start)}
	}
	p.rewind(saved)

	name := p.cur.Literal
	p.advance()
	var ty *ast.TypeExpr
	if p.at(lexer.COLON) {
		p.advance()
		t := p.parseTypeExpression()
		ty = &t
	}
	var init *ast.ExprNode
	if p.at(lexer.ASSIGN) {
		p.advance()
		init = p.parseExpressionNode()
	}
	return ast.Declarator{Name: name, Type: ty, Initializer: init, Span: p.spanFrom(start)}
}

func (p *Parser) parseLocalConst() *ast.Statement {
	start := p.cur
	p.advance() // const
	var decls []ast.Declarator
	for {
		dstart := p.cur
		name := p.cur.Literal
		p.advance()
		var ty *ast.TypeExpr
		if p.at(lexer.COLON) {
			p.advance()
			t := p.parseTypeExpression()
			ty = &t
		}
		p.expect(lexer.ASSIGN, "PAR002", "expected '=' in const declaration")
		init := p.parseExpressionNode()
		decls = append(decls, ast.Declarator{Name: name, Type: ty, Initializer: init, Span: p.spanFrom(dstart)})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after const declaration")
	return &ast.Statement{Kind: ast.StmtConstDeclaration, Declarators: decls, Span: p.spanFrom(start)}
}

func (p *Parser) parseIfStmt() *ast.Statement {
	start := p.cur
	p.advance() // if
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'if'")
	cond := p.parseExpressionNode()
	p.expect(lexer.RPAREN, "PAR002", "expected ')' after if condition")
	then := p.parseStatement()
	var els *ast.Statement
	if p.at(lexer.ELSE) {
		p.advance()
		els = p.parseStatement()
	}
	return &ast.Statement{Kind: ast.StmtIf, Cond: cond, Then: then, Else: els, Span: p.spanFrom(start)}
}

func (p *Parser) parseWhileStmt() *ast.Statement {
	start := p.cur
	p.advance() // while
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'while'")
	cond := p.parseExpressionNode()
	p.expect(lexer.RPAREN, "PAR002", "expected ')' after while condition")
	body := p.parseStatement()
	return &ast.Statement{Kind: ast.StmtWhile, Cond: cond, Then: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseDoWhileStmt() *ast.Statement {
	start := p.cur
	p.advance() // do
	body := p.parseStatement()
	p.expect(lexer.WHILE, "PAR002", "expected 'while' after do-block")
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'while'")
	cond := p.parseExpressionNode()
	p.expect(lexer.RPAREN, "PAR002", "expected ')' after while condition")
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after do-while statement")
	return &ast.Statement{Kind: ast.StmtDoWhile, Cond: cond, Then: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseForStmt() *ast.Statement {
	start := p.cur
	p.advance() // for
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'for'")

	var init ast.ForInit
	switch {
	case p.at(lexer.SEMICOLON):
		init = ast.ForInit{Kind: ast.ForInitNone}
	case p.at(lexer.LET) || p.at(lexer.VAR):
		decl := p.parseVarDecl() // consumes trailing ';'
		init = ast.ForInit{Kind: ast.ForInitDeclaration, Declaration: decl}
	case p.at(lexer.CONST):
		c := p.parseLocalConst()
		init = ast.ForInit{Kind: ast.ForInitConst, Const: c}
	default:
		var exprs []*ast.ExprNode
		exprs = append(exprs, p.parseExpressionNode())
		for p.at(lexer.COMMA) {
			p.advance()
			exprs = append(exprs, p.parseExpressionNode())
		}
		p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after for-initializer")
		init = ast.ForInit{Kind: ast.ForInitExpressions, Expressions: exprs}
	}

	var cond *ast.ExprNode
	if !p.at(lexer.SEMICOLON) {
		cond = p.parseExpressionNode()
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after for-condition")

	var iterators []*ast.ExprNode
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		iterators = append(iterators, p.parseExpressionNode())
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, "PAR002", "expected ')' to close for-clause")
	body := p.parseStatement()

	return &ast.Statement{Kind: ast.StmtFor, ForInitializer: init, Cond: cond, ForIterators: iterators, Then: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseForeachStmt() *ast.Statement {
	start := p.cur
	p.advance() // foreach
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'foreach'")
	var raw []byte
	depth := 0
	for {
		if p.at(lexer.EOF) {
			break
		}
		if depth == 0 && p.cur.Literal == "in" {
			break
		}
		switch p.cur.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			if depth == 0 {
				break
			}
			depth--
		}
		if len(raw) > 0 {
			raw = append(raw, ' ')
		}
		raw = append(raw, []byte(p.cur.Literal)...)
		p.advance()
	}
	p.expect(lexer.IN_KW, "PAR002", "expected 'in' in foreach binding")
	seq := p.parseExpressionNode()
	p.expect(lexer.RPAREN, "PAR002", "expected ')' to close foreach clause")
	body := p.parseStatement()
	return &ast.Statement{Kind: ast.StmtForeach, ForeachBindingRaw: string(raw), ForeachSeq: seq, ForeachBody: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseSwitchStmt() *ast.Statement {
	start := p.cur
	p.advance() // switch
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'switch'")
	scrutinee := p.parseExpressionNode()
	p.expect(lexer.RPAREN, "PAR002", "expected ')' after switch scrutinee")
	p.expect(lexer.LBRACE, "PAR002", "expected '{' to open switch body")

	var sections []ast.SwitchSection
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		var labels []ast.SwitchLabel
		for p.at(lexer.CASE) || p.at(lexer.DEFAULT) {
			if p.at(lexer.DEFAULT) {
				p.advance()
				p.expect(lexer.COLON, "PAR002", "expected ':' after 'default'")
				labels = append(labels, ast.SwitchLabel{Kind: ast.SwitchDefault})
				continue
			}
			p.advance() // case
			pat := p.parsePatternBare()
			var guards []ast.PatternGuard
			depth := 0
			for p.at(lexer.WHEN) {
				gstart := p.cur
				p.advance()
				expr := p.parseExpressionNode()
				guards = append(guards, ast.PatternGuard{Expression: *expr, Depth: depth, KeywordSpan: p.spanFrom(gstart)})
				depth++
			}
			p.expect(lexer.COLON, "PAR002", "expected ':' after case pattern")
			labels = append(labels, ast.SwitchLabel{Kind: ast.SwitchCase, Pattern: pat, Guards: guards})
		}
		var stmts []*ast.Statement
		for !p.at(lexer.CASE) && !p.at(lexer.DEFAULT) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			stmts = append(stmts, p.parseStatement())
		}
		sections = append(sections, ast.SwitchSection{Labels: labels, Statements: stmts})
	}
	p.expect(lexer.RBRACE, "PAR002", "expected '}' to close switch body")
	return &ast.Statement{Kind: ast.StmtSwitch, SwitchScrutinee: scrutinee, SwitchSections: sections, Span: p.spanFrom(start)}
}

func (p *Parser) parseTryStmt() *ast.Statement {
	start := p.cur
	p.advance() // try
	body := p.parseBlock()
	var catches []ast.CatchClause
	for p.at(lexer.CATCH) {
		cstart := p.cur
		p.advance()
		var exceptionType *ast.TypeExpr
		var binding string
		if p.at(lexer.LPAREN) {
			p.advance()
			t := p.parseTypeExpression()
			exceptionType = &t
			if p.at(lexer.IDENT) {
				binding = p.cur.Literal
				p.advance()
			}
			p.expect(lexer.RPAREN, "PAR002", "expected ')' to close catch clause")
		}
		var filter *ast.ExprNode
		if p.at(lexer.WHEN) {
			p.advance()
			p.expect(lexer.LPAREN, "PAR002", "expected '(' after catch 'when'")
			filter = p.parseExpressionNode()
			p.expect(lexer.RPAREN, "PAR002", "expected ')' to close catch filter")
		}
		cbody := p.parseBlock()
		catches = append(catches, ast.CatchClause{ExceptionType: exceptionType, BindingName: binding, Filter: filter, Body: cbody, Span: p.spanFrom(cstart)})
	}
	var finally *ast.Statement
	if p.at(lexer.FINALLY) {
		p.advance()
		finally = p.parseBlock()
	}
	return &ast.Statement{Kind: ast.StmtTry, TryBody: body, Catches: catches, Finally: finally, Span: p.spanFrom(start)}
}

func (p *Parser) parseReturnStmt() *ast.Statement {
	start := p.cur
	p.advance() // return
	var expr *ast.ExprNode
	if !p.at(lexer.SEMICOLON) {
		expr = p.parseExpressionNode()
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after return statement")
	return &ast.Statement{Kind: ast.StmtReturn, Expr: expr, Span: p.spanFrom(start)}
}

func (p *Parser) parseBreakContinue(kind ast.StmtKind) *ast.Statement {
	start := p.cur
	p.advance() // break|continue
	label := ""
	if p.at(lexer.IDENT) {
		label = p.cur.Literal
		p.advance()
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after statement")
	return &ast.Statement{Kind: kind, Label: label, Span: p.spanFrom(start)}
}

func (p *Parser) parseGotoStmt() *ast.Statement {
	start := p.cur
	p.advance() // goto
	var target ast.GotoTarget
	switch {
	case p.at(lexer.CASE):
		p.advance()
		target = ast.GotoTarget{Kind: ast.GotoCase, Pattern: p.parsePatternBare()}
	case p.at(lexer.DEFAULT):
		p.advance()
		target = ast.GotoTarget{Kind: ast.GotoDefault}
	default:
		target = ast.GotoTarget{Kind: ast.GotoLabel, Label: p.cur.Literal}
		p.advance()
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after goto statement")
	return &ast.Statement{Kind: ast.StmtGoto, GotoTarget: target, Span: p.spanFrom(start)}
}

func (p *Parser) parseThrowStmt() *ast.Statement {
	start := p.cur
	p.advance() // throw
	var expr *ast.ExprNode
	if !p.at(lexer.SEMICOLON) {
		expr = p.parseExpressionNode()
	}
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after throw statement")
	return &ast.Statement{Kind: ast.StmtThrow, Expr: expr, Span: p.spanFrom(start)}
}

func (p *Parser) parseRegionStmt() *ast.Statement {
	start := p.cur
	p.advance() // region
	name := ""
	if p.at(lexer.IDENT) {
		name = p.cur.Literal
		p.advance()
	}
	body := p.parseBlock()
	return &ast.Statement{Kind: ast.StmtRegion, RegionName: name, RegionBody: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseUsingStmt() *ast.Statement {
	start := p.cur
	p.advance() // using
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'using'")

	var resource ast.UsingResource
	saved := p.mark()
	if p.scanTypePrefixSilently() && p.at(lexer.IDENT) {
		p.rewind(saved)
		decl := p.parseTypedLocalDeclOnly()
		resource = ast.UsingResource{IsDeclaration: true, Declaration: decl}
	} else {
		p.rewind(saved)
		resource = ast.UsingResource{Expr: p.parseExpressionNode()}
	}
	p.expect(lexer.RPAREN, "PAR002", "expected ')' to close using clause")
	body := p.parseStatement()
	return &ast.Statement{Kind: ast.StmtUsing, UsingResource: resource, UsingBody: body, Span: p.spanFrom(start)}
}

// parseTypedLocalDeclOnly parses `Type name = expr` without a trailing
// semicolon, for the `using (Type name = expr)` resource form.
func (p *Parser) parseTypedLocalDeclOnly() *ast.Statement {
	start := p.cur
	ty := p.parseTypeExpression()
	name := p.cur.Literal
	p.advance()
	p.expect(lexer.ASSIGN, "PAR002", "expected '=' in using declaration")
	init := p.parseExpressionNode()
	return &ast.Statement{
		Kind: ast.StmtVariableDeclaration, VarModifier: ast.VarLet,
		Declarators: []ast.Declarator{{Name: name, Type: &ty, Initializer: init, Span: p.spanFrom(start)}},
		Span:        p.spanFrom(start),
	}
}

func (p *Parser) parseLockStmt() *ast.Statement {
	start := p.cur
	p.advance() // lock
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'lock'")
	expr := p.parseExpressionNode()
	p.expect(lexer.RPAREN, "PAR002", "expected ')' after lock expression")
	body := p.parseStatement()
	return &ast.Statement{Kind: ast.StmtLock, LockExpr: expr, LockBody: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseCheckedUncheckedStmt() *ast.Statement {
	start := p.cur
	kind := ast.StmtChecked
	if p.at(lexer.UNCHECKED) {
		kind = ast.StmtUnchecked
	}
	p.advance()
	body := p.parseBlock()
	return &ast.Statement{Kind: kind, Then: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseAtomicStmt() *ast.Statement {
	start := p.cur
	p.advance() // atomic
	var ordering *ast.ExprNode
	if p.at(lexer.LPAREN) {
		p.advance()
		ordering = p.parseExpressionNode()
		p.expect(lexer.RPAREN, "PAR002", "expected ')' after atomic ordering")
	}
	body := p.parseBlock()
	return &ast.Statement{Kind: ast.StmtAtomic, AtomicOrdering: ordering, AtomicBody: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseYieldStmt() *ast.Statement {
	start := p.cur
	p.advance() // yield
	if p.at(lexer.BREAK) {
		p.advance()
		p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after yield break")
		return &ast.Statement{Kind: ast.StmtYieldBreak, Span: p.spanFrom(start)}
	}
	if p.at(lexer.RETURN) {
		p.advance()
	}
	expr := p.parseExpressionNode()
	p.expect(lexer.SEMICOLON, "PAR002", "expected ';' after yield return")
	return &ast.Statement{Kind: ast.StmtYieldReturn, Expr: expr, Span: p.spanFrom(start)}
}

func (p *Parser) parseFixedStmt() *ast.Statement {
	start := p.cur
	p.advance() // fixed
	p.expect(lexer.LPAREN, "PAR002", "expected '(' after 'fixed'")
	var decls []ast.Declarator
	for {
		decls = append(decls, p.parseDeclaratorWithOptionalType())
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, "PAR002", "expected ')' to close fixed clause")
	body := p.parseBlock()
	return &ast.Statement{Kind: ast.StmtFixed, FixedDeclarators: decls, FixedBody: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseUnsafeStmt() *ast.Statement {
	start := p.cur
	p.advance() // unsafe
	body := p.parseBlock()
	return &ast.Statement{Kind: ast.StmtUnsafe, Then: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseLabeledStmt() *ast.Statement {
	start := p.cur
	label := p.cur.Literal
	p.advance()
	p.expect(lexer.COLON, "PAR002", "expected ':' after statement label")
	inner := p.parseStatement()
	return &ast.Statement{Kind: ast.StmtLabeled, LabelName: label, Labeled: inner, Span: p.spanFrom(start)}
}
