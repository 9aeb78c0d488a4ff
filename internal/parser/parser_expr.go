package parser

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/lexer"
)

var assignOps = map[lexer.TokenType]bool{
	lexer.ASSIGN: true, lexer.PLUSEQ: true, lexer.MINUSEQ: true,
	lexer.STAREQ: true, lexer.SLASHEQ: true, lexer.PERCENTEQ: true,
}

// parseExpressionNode is the single entry point into the expression
// grammar, a standard precedence-climbing descent from assignment (the
// lowest binding) down through unary/postfix.
func (p *Parser) parseExpressionNode() *ast.ExprNode {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() *ast.ExprNode {
	left := p.parseCoalesce()
	if assignOps[p.cur.Type] {
		op := p.cur.Literal
		p.advance()
		right := p.parseAssignment()
		return &ast.ExprNode{Kind: ast.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseCoalesce() *ast.ExprNode {
	left := p.parseOr()
	for p.at(lexer.QUESTIONQUESTION) {
		p.advance()
		right := p.parseOr()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: "??", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseOr() *ast.ExprNode {
	left := p.parseAnd()
	for p.at(lexer.OROR) {
		p.advance()
		right := p.parseAnd()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: "||", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() *ast.ExprNode {
	left := p.parseBitOr()
	for p.at(lexer.ANDAND) {
		p.advance()
		right := p.parseBitOr()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: "&&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitOr() *ast.ExprNode {
	left := p.parseBitXor()
	for p.at(lexer.PIPE) {
		p.advance()
		right := p.parseBitXor()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: "|", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitXor() *ast.ExprNode {
	left := p.parseBitAnd()
	for p.at(lexer.CARET) {
		p.advance()
		right := p.parseBitAnd()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: "^", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitAnd() *ast.ExprNode {
	left := p.parseEquality()
	for p.at(lexer.AMP) {
		p.advance()
		right := p.parseEquality()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: "&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() *ast.ExprNode {
	left := p.parseRelational()
	for p.at(lexer.EQ) || p.at(lexer.NEQ) {
		op := p.cur.Literal
		p.advance()
		right := p.parseRelational()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() *ast.ExprNode {
	left := p.parseIsAs()
	for p.at(lexer.LT) || p.at(lexer.GT) || p.at(lexer.LTE) || p.at(lexer.GTE) {
		op := p.cur.Literal
		p.advance()
		right := p.parseIsAs()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseIsAs() *ast.ExprNode {
	left := p.parseAdditive()
	for p.at(lexer.IS) || p.at(lexer.AS) {
		if p.at(lexer.IS) {
			p.advance()
			pat := p.parsePatternBare()
			left = &ast.ExprNode{Kind: ast.ExprPattern, PatternExpr: left, Pattern: pat}
			continue
		}
		p.advance() // as
		ty := p.parseTypeExpression()
		left = &ast.ExprNode{Kind: ast.ExprCast, CastType: &ty, IsAsCast: true, Inner: left}
	}
	return left
}

func (p *Parser) parseAdditive() *ast.ExprNode {
	left := p.parseMultiplicative()
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		op := p.cur.Literal
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.ExprNode {
	left := p.parseUnary()
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		op := p.cur.Literal
		p.advance()
		right := p.parseUnary()
		left = &ast.ExprNode{Kind: ast.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() *ast.ExprNode {
	switch p.cur.Type {
	case lexer.MINUS, lexer.BANG, lexer.TILDE, lexer.PLUSPLUS, lexer.MINUSMINUS, lexer.STAR, lexer.AMP:
		op := p.cur.Literal
		p.advance()
		operand := p.parseUnary()
		return &ast.ExprNode{Kind: ast.ExprUnary, Op: op, Right: operand}
	case lexer.AWAIT:
		p.advance()
		operand := p.parseUnary()
		return &ast.ExprNode{Kind: ast.ExprAwait, Inner: operand}
	case lexer.THROW:
		p.advance()
		operand := p.parseUnary()
		return &ast.ExprNode{Kind: ast.ExprThrow, Inner: operand}
	case lexer.REF:
		p.advance()
		operand := p.parseUnary()
		return &ast.ExprNode{Kind: ast.ExprRef, Inner: operand}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.ExprNode {
	node := p.parsePrimary()
	for {
		switch {
		case p.at(lexer.DOT):
			p.advance()
			member := p.cur.Literal
			p.advance()
			node = &ast.ExprNode{Kind: ast.ExprMemberAccess, Target: node, Member: member}
		case p.at(lexer.QUESTIONDOT):
			p.advance()
			member := p.cur.Literal
			p.advance()
			node = &ast.ExprNode{Kind: ast.ExprMemberAccess, Target: node, Member: member, NullConditional: true}
		case p.at(lexer.LPAREN):
			args := p.parseArgumentList()
			node = &ast.ExprNode{Kind: ast.ExprCall, Callee: node, Args: args}
		case p.at(lexer.LBRACKET):
			p.advance()
			var idx []*ast.ExprNode
			for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
				idx = append(idx, p.parseExpressionNode())
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			p.expect(lexer.RBRACKET, "PAR006", "expected ']' to close index expression")
			node = &ast.ExprNode{Kind: ast.ExprIndex, Target: node, IndexArgs: idx}
		case p.at(lexer.PLUSPLUS):
			p.advance()
			node = &ast.ExprNode{Kind: ast.ExprUnary, Op: "++post", Right: node}
		case p.at(lexer.MINUSMINUS):
			p.advance()
			node = &ast.ExprNode{Kind: ast.ExprUnary, Op: "--post", Right: node}
		case p.at(lexer.BANG):
			p.advance()
			node = &ast.ExprNode{Kind: ast.ExprUnary, Op: "!post", Right: node}
		case p.at(lexer.QUESTION):
			// At a postfix expression site `?` is unambiguously
			// try-propagate; the nullable-type `?` suffix is only ever
			// consumed directly inside parseTypeExpression.
			p.advance()
			node = &ast.ExprNode{Kind: ast.ExprTryPropagate, Inner: node}
		case p.at(lexer.SWITCH):
			node = p.parseSwitchExpr(node)
		default:
			return node
		}
	}
}

func (p *Parser) parseArgumentList() []ast.Argument {
	p.expect(lexer.LPAREN, "PAR006", "expected '(' to open argument list")
	var args []ast.Argument
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		start := p.cur
		name := ""
		if p.at(lexer.IDENT) && p.peek.Type == lexer.COLON {
			name = p.cur.Literal
			p.advance()
			p.advance()
		}
		val := p.parseExpressionNode()
		args = append(args, ast.Argument{Name: name, Value: val, Span: p.spanFrom(start)})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, "PAR006", "expected ')' to close argument list")
	return args
}

func (p *Parser) parseSwitchExpr(scrutinee *ast.ExprNode) *ast.ExprNode {
	p.advance() // switch
	p.expect(lexer.LBRACE, "PAR006", "expected '{' to open switch expression")
	var arms []ast.SwitchArm
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		pat := p.parsePatternBare()
		var guard *ast.ExprNode
		if p.at(lexer.WHEN) {
			p.advance()
			guard = p.parseExpressionNode()
		}
		p.expect(lexer.FARROW, "PAR006", "expected '=>' in switch expression arm")
		body := p.parseExpressionNode()
		arms = append(arms, ast.SwitchArm{Pattern: pat, Guard: guard, Body: body})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE, "PAR006", "expected '}' to close switch expression")
	return &ast.ExprNode{Kind: ast.ExprSwitch, Scrutinee: scrutinee, Arms: arms}
}

func (p *Parser) parsePrimary() *ast.ExprNode {
	start := p.cur
	switch p.cur.Type {
	case lexer.INT:
		meta := numericMeta(p.cur.Literal, false)
		text := p.cur.Literal
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitInt, LiteralText: text, NumericMeta: meta, Span: p.spanFrom(start)}
	case lexer.FLOAT:
		meta := numericMeta(p.cur.Literal, true)
		text := p.cur.Literal
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitFloat, LiteralText: text, NumericMeta: meta, Span: p.spanFrom(start)}
	case lexer.STRING:
		text := p.cur.Literal
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitString, LiteralText: text, Span: p.spanFrom(start)}
	case lexer.CHAR:
		text := p.cur.Literal
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitChar, LiteralText: text, Span: p.spanFrom(start)}
	case lexer.TRUE, lexer.FALSE:
		text := p.cur.Literal
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitBool, LiteralText: text, Span: p.spanFrom(start)}
	case lexer.NULL:
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitNull, LiteralText: "null", Span: p.spanFrom(start)}
	case lexer.DOLLAR:
		return p.parseInterpolatedString()
	case lexer.NEW:
		return p.parseNewExpr()
	case lexer.THIS:
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "this", Span: p.spanFrom(start)}
	case lexer.BASE:
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "base", Span: p.spanFrom(start)}
	case lexer.SIZEOF, lexer.ALIGNOF:
		kind := ast.ExprSizeof
		if p.at(lexer.ALIGNOF) {
			kind = ast.ExprAlignof
		}
		p.advance()
		p.expect(lexer.LPAREN, "PAR006", "expected '(' after sizeof/alignof")
		ty := p.parseTypeExpression()
		p.expect(lexer.RPAREN, "PAR006", "expected ')' to close sizeof/alignof")
		return &ast.ExprNode{Kind: kind, OperandType: &ty, Span: p.spanFrom(start)}
	case lexer.NAMEOF:
		p.advance()
		p.expect(lexer.LPAREN, "PAR006", "expected '(' after nameof")
		name := p.parseDottedPath()
		p.expect(lexer.RPAREN, "PAR006", "expected ')' to close nameof")
		return &ast.ExprNode{Kind: ast.ExprNameof, Name: name, Span: p.spanFrom(start)}
	case lexer.QUOTE_KW:
		p.advance()
		p.expect(lexer.LBRACE, "PAR006", "expected '{' after quote")
		src := p.collectBalancedExpr()
		p.expect(lexer.RBRACE, "PAR006", "expected '}' to close quote block")
		return &ast.ExprNode{Kind: ast.ExprQuote, QuotedSource: src, Span: p.spanFrom(start)}
	case lexer.LBRACKET:
		p.advance()
		var elems []*ast.ExprNode
		for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
			elems = append(elems, p.parseExpressionNode())
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(lexer.RBRACKET, "PAR006", "expected ']' to close collection literal")
		return &ast.ExprNode{Kind: ast.ExprNew, CollectionInit: elems, Span: p.spanFrom(start)}
	case lexer.LPAREN:
		return p.parseParenOrLambdaOrTuple()
	case lexer.IDENT:
		if p.peekIs(lexer.FARROW) {
			name := p.cur.Literal
			p.advance()
			p.advance() // =>
			body := p.parseLambdaBody()
			return &ast.ExprNode{Kind: ast.ExprLambda, LambdaParams: []ast.LambdaParam{{Name: name}}, LambdaBody: body, Span: p.spanFrom(start)}
		}
		name := p.cur.Literal
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprIdentifier, Name: name, Span: p.spanFrom(start)}
	default:
		p.sink.Errorf(p.curSpan(), "PAR006", "unexpected token %q in expression", p.cur.Literal)
		tok := p.cur
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprIdentifier, Name: tok.Literal, Span: p.spanFrom(start)}
	}
}

func numericMeta(lit string, isFloat bool) *ast.NumericLiteralMetadata {
	i := 0
	for i < len(lit) && (lit[i] >= '0' && lit[i] <= '9' || lit[i] == '.' || lit[i] == '_' || lit[i] == 'e' || lit[i] == 'E' || ((lit[i] == '+' || lit[i] == '-') && i > 0 && (lit[i-1] == 'e' || lit[i-1] == 'E'))) {
		i++
	}
	suffix := lit[i:]
	if suffix == "" {
		typ := "i32"
		if isFloat {
			typ = "f64"
		}
		return &ast.NumericLiteralMetadata{LiteralType: typ, ExplicitSuffix: false}
	}
	return &ast.NumericLiteralMetadata{LiteralType: suffix, ExplicitSuffix: true, SuffixText: suffix}
}

func (p *Parser) parseNewExpr() *ast.ExprNode {
	start := p.cur
	p.advance() // new
	ty := p.parseTypeExpression()
	var args []ast.Argument
	if p.at(lexer.LPAREN) {
		args = p.parseArgumentList()
	}
	var initMembers []ast.ObjectInitMember
	var collectionInit []*ast.ExprNode
	if p.at(lexer.LBRACE) {
		p.advance()
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			if p.at(lexer.IDENT) && p.peek.Type == lexer.ASSIGN {
				mstart := p.cur
				name := p.cur.Literal
				p.advance()
				p.advance()
				val := p.parseExpressionNode()
				initMembers = append(initMembers, ast.ObjectInitMember{Name: name, Value: val, Span: p.spanFrom(mstart)})
			} else {
				collectionInit = append(collectionInit, p.parseExpressionNode())
			}
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(lexer.RBRACE, "PAR006", "expected '}' to close initializer")
	}
	return &ast.ExprNode{
		Kind: ast.ExprNew, NewType: &ty, Args: args,
		InitMembers: initMembers, CollectionInit: collectionInit, Span: p.spanFrom(start),
	}
}

// parseParenOrLambdaOrTuple disambiguates `(expr)`, `(T, U)` tuples, and
// `(a, b) => expr` lambdas. The lambda path is speculative and rewound
// on failure.
func (p *Parser) parseParenOrLambdaOrTuple() *ast.ExprNode {
	start := p.cur
	saved := p.mark()
	if params, ok := p.tryParseLambdaParams(); ok && p.at(lexer.FARROW) {
		p.advance()
		body := p.parseLambdaBody()
		return &ast.ExprNode{Kind: ast.ExprLambda, LambdaParams: params, LambdaBody: body, Span: p.spanFrom(start)}
	}
	p.rewind(saved)

	p.advance() // (
	if p.at(lexer.RPAREN) {
		p.advance()
		return &ast.ExprNode{Kind: ast.ExprTuple, Span: p.spanFrom(start)}
	}
	first := p.parseExpressionNode()
	if p.at(lexer.COMMA) {
		elems := []*ast.ExprNode{first}
		for p.at(lexer.COMMA) {
			p.advance()
			elems = append(elems, p.parseExpressionNode())
		}
		p.expect(lexer.RPAREN, "PAR006", "expected ')' to close tuple expression")
		return &ast.ExprNode{Kind: ast.ExprTuple, TupleElements: elems, Span: p.spanFrom(start)}
	}
	p.expect(lexer.RPAREN, "PAR006", "expected ')' to close parenthesized expression")
	return first
}

func (p *Parser) tryParseLambdaParams() ([]ast.LambdaParam, bool) {
	if !p.at(lexer.LPAREN) {
		return nil, false
	}
	p.advance()
	var params []ast.LambdaParam
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		if !p.at(lexer.IDENT) {
			return nil, false
		}
		if p.peek.Type == lexer.IDENT {
			ty := p.parseTypeExpression()
			if !p.at(lexer.IDENT) {
				return nil, false
			}
			name := p.cur.Literal
			p.advance()
			params = append(params, ast.LambdaParam{Name: name, Type: &ty})
		} else {
			name := p.cur.Literal
			p.advance()
			params = append(params, ast.LambdaParam{Name: name})
		}
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if !p.at(lexer.RPAREN) {
		return nil, false
	}
	p.advance()
	return params, true
}

func (p *Parser) parseLambdaBody() *ast.Statement {
	if p.at(lexer.LBRACE) {
		return p.parseBlock()
	}
	expr := p.parseExpressionNode()
	return &ast.Statement{Kind: ast.StmtReturn, Expr: expr}
}

// parseInterpolatedString handles `$"...{expr}..."`: the lexer hands
// back one STRING token with the braces intact, so the parser splits it
// into literal Parts and re-parses each `{...}` span as a nested
// expression via a fresh Parser instance over just that substring.
func (p *Parser) parseInterpolatedString() *ast.ExprNode {
	start := p.cur
	p.advance() // $
	raw := p.cur.Literal
	p.advance() // STRING

	var parts []string
	var exprs []*ast.ExprNode
	i := 0
	var cur []byte
	for i < len(raw) {
		if raw[i] == '{' && (i+1 >= len(raw) || raw[i+1] != '{') {
			parts = append(parts, string(cur))
			cur = nil
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						continue
					}
				}
				j++
			}
			exprSrc := raw[i+1 : j]
			sub := New(exprSrc, p.file)
			exprs = append(exprs, sub.parseExpressionNode())
			i = j + 1
			continue
		}
		if raw[i] == '{' {
			i++ // literal `{{`
		}
		cur = append(cur, raw[i])
		i++
	}
	parts = append(parts, string(cur))

	return &ast.ExprNode{Kind: ast.ExprInterpolatedString, Parts: parts, Expressions: exprs, Span: p.spanFrom(start)}
}
