package parser

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/lexer"
)

// parseTypeExpression parses a full TypeExpr: optional ref prefix,
// optional pointer chain with qualifiers, a primary type, then array
// rank and nullable suffixes.
func (p *Parser) parseTypeExpression() ast.TypeExpr {
	start := p.cur

	var refKind *ast.RefKind
	if p.at(lexer.REF) {
		p.advance()
		rk := ast.RefMutable
		if p.cur.Literal == "readonly" {
			rk = ast.RefReadOnly
			p.advance()
		}
		refKind = &rk
	}

	var prefixes []ast.PointerSuffix
	for p.at(lexer.AT) || p.at(lexer.STAR) {
		var quals []ast.PointerQualifier
		alignedN := 0
		for p.at(lexer.AT) {
			p.advance()
			name := p.cur.Literal
			p.advance()
			var q ast.PointerQualifier
			switch name {
			case "restrict":
				q = ast.QRestrict
			case "noalias":
				q = ast.QNoAlias
			case "readonly":
				q = ast.QReadOnly
			case "expose_address":
				q = ast.QExposeAddress
			case "aligned":
				q = ast.QAligned
				if p.at(lexer.LPAREN) {
					p.advance()
					alignedN = parseDecimalLiteral(p.cur.Literal)
					p.advance()
					p.expect(lexer.RPAREN, "PAR009", "expected ')' after alignment value")
				}
			}
			quals = append(quals, q)
		}
		if !p.expect(lexer.STAR, "PAR009", "expected '*' after pointer qualifiers") {
			break
		}
		mutable := false
		switch p.cur.Literal {
		case "mut":
			mutable = true
			p.advance()
		case "const":
			p.advance()
		}
		prefixes = append(prefixes, ast.PointerSuffix{Mutable: mutable, Qualifiers: quals, AlignedN: alignedN})
	}

	ty := p.parseTypePrimary()

	if len(prefixes) > 0 {
		// Stored in the order parsed: outermost pointer level first,
		// matching TypeExpr.String()'s right-to-left rebuild.
		ty.Pointer = prefixes
	}
	ty.Ref = refKind

	for p.at(lexer.LBRACKET) {
		p.advance()
		rank := 1
		for p.at(lexer.COMMA) {
			rank++
			p.advance()
		}
		p.expect(lexer.RBRACKET, "PAR009", "expected ']' to close array rank suffix")
		ty.ArrayRanks = append(ty.ArrayRanks, rank)
	}
	if p.at(lexer.QUESTION) {
		p.advance()
		ty.Nullable = true
	}
	ty.Span = p.spanFrom(start)
	return ty
}

func (p *Parser) parseTypePrimary() ast.TypeExpr {
	switch {
	case p.cur.Literal == "fn":
		return p.parseFnType()
	case p.cur.Literal == "dyn" || p.at(lexer.IMPL):
		return p.parseTraitObjectType()
	case p.at(lexer.LPAREN):
		return p.parseTupleType()
	default:
		return p.parseNamedType()
	}
}

func (p *Parser) parseFnType() ast.TypeExpr {
	p.advance() // fn
	abi := "Chic"
	isExternC := false
	if p.at(lexer.LPAREN) && p.cur.Literal == "extern" {
		// not reachable under current grammar shape; kept for forward compat
	}
	p.expect(lexer.LPAREN, "PAR009", "expected '(' in function type")
	var params []ast.TypeExpr
	var modes []ast.BindingModifier
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		mode := ast.BindValue
		switch p.cur.Type {
		case lexer.IN_KW:
			mode = ast.BindIn
			p.advance()
		case lexer.REF:
			mode = ast.BindRef
			p.advance()
		case lexer.OUT:
			mode = ast.BindOut
			p.advance()
		}
		params = append(params, p.parseTypeExpression())
		modes = append(modes, mode)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, "PAR009", "expected ')' to close function type parameters")
	var ret *ast.TypeExpr
	if p.at(lexer.ARROW) {
		p.advance()
		r := p.parseTypeExpression()
		ret = &r
	}
	return ast.TypeExpr{Fn: &ast.FnSignatureType{ABI: abi, IsExternC: isExternC, Params: params, ParamModes: modes, Return: ret}}
}

func (p *Parser) parseTraitObjectType() ast.TypeExpr {
	opaque := p.at(lexer.IMPL)
	p.advance() // dyn|impl
	var bounds []string
	bounds = append(bounds, p.parseDottedPath())
	for p.at(lexer.PLUS) {
		p.advance()
		bounds = append(bounds, p.parseDottedPath())
	}
	return ast.TypeExpr{TraitObject: &ast.TraitObjectType{Bounds: bounds, OpaqueImpl: opaque}}
}

func (p *Parser) parseTupleType() ast.TypeExpr {
	p.advance() // (
	var elems []ast.TupleElement
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		name := ""
		if p.at(lexer.IDENT) && p.peek.Type == lexer.COLON {
			name = p.cur.Literal
			p.advance()
			p.advance()
		}
		elems = append(elems, ast.TupleElement{Name: name, Type: p.parseTypeExpression()})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, "PAR009", "expected ')' to close tuple type")
	return ast.TypeExpr{Tuple: elems}
}

func (p *Parser) parseNamedType() ast.TypeExpr {
	name := p.parseDottedPath()
	ty := ast.TypeExpr{Name: name}
	if p.at(lexer.LT) {
		ty.GenericArgs = p.parseGenericArgs()
	}
	return ty
}

func (p *Parser) parseGenericArgs() []ast.ConstGenericArg {
	p.advance() // <
	var args []ast.ConstGenericArg
	for !p.at(lexer.GT) && !p.at(lexer.EOF) {
		if p.at(lexer.INT) || p.at(lexer.TRUE) || p.at(lexer.FALSE) {
			args = append(args, ast.ConstGenericArg{Expr: p.cur.Literal, Evaluated: p.cur.Literal})
			p.advance()
		} else {
			t := p.parseTypeExpression()
			args = append(args, ast.ConstGenericArg{Type: &t})
		}
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.GT, "PAR009", "expected '>' to close generic argument list")
	return args
}

func parseDecimalLiteral(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// parseParameterList parses a `(...)` parameter list shared by functions,
// constructors, and delegates.
func (p *Parser) parseParameterList() []ast.Parameter {
	p.expect(lexer.LPAREN, "PAR008", "expected '(' to open parameter list")
	var params []ast.Parameter
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		params = append(params, p.parseParameter())
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, "PAR008", "expected ')' to close parameter list")
	return params
}

func (p *Parser) parseParameter() ast.Parameter {
	start := p.cur
	attrs := p.parseAttributes()

	isThis := false
	if p.cur.Literal == "this" || p.at(lexer.THIS) {
		isThis = true
		p.advance()
	}

	modifier := ast.BindValue
	nullable := false
	switch p.cur.Type {
	case lexer.IN_KW:
		modifier = ast.BindIn
		p.advance()
	case lexer.REF:
		modifier = ast.BindRef
		p.advance()
		if p.at(lexer.QUESTION) {
			nullable = true
			p.advance()
		}
	case lexer.OUT:
		modifier = ast.BindOut
		p.advance()
		if p.at(lexer.QUESTION) {
			nullable = true
			p.advance()
		}
	}

	ty := p.parseTypeExpression()
	name := p.cur.Literal
	if !p.at(lexer.IDENT) {
		p.sink.Errorf(p.curSpan(), "PAR008", "expected parameter name")
		p.synchronizeParameter()
		return ast.Parameter{Modifier: modifier, Type: ty, Attributes: attrs, IsExtensionThis: isThis, Span: p.spanFrom(start)}
	}
	p.advance()

	var lends *ast.LendsClause
	if p.cur.Literal == "lends" {
		lstart := p.cur
		p.advance()
		p.expect(lexer.LPAREN, "PAR008", "expected '(' after 'lends'")
		var targets []string
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			targets = append(targets, p.cur.Literal)
			p.advance()
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN, "PAR008", "expected ')' to close 'lends' clause")
		lends = &ast.LendsClause{Targets: targets, Span: p.spanFrom(lstart)}
	}

	var def *ast.ExprNode
	if p.at(lexer.ASSIGN) {
		p.advance()
		def = p.parseExpressionNode()
	}

	return ast.Parameter{
		Modifier: modifier, ModifierNullable: nullable, Name: name, Type: ty,
		Attributes: attrs, Lends: lends, IsExtensionThis: isThis, Default: def,
		Span: p.spanFrom(start),
	}
}
