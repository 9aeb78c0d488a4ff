package parser

import (
	"strings"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/lexer"
)

// parsePatternBare parses a single pattern with no trailing `when`
// guard, for call sites that track guards separately (switch
// expression arms, switch statement labels, is-expressions).
func (p *Parser) parsePatternBare() *ast.Pattern {
	start := p.cur
	var raw strings.Builder
	node := p.parsePatternAlt(&raw)
	span := p.spanFrom(start)
	return &ast.Pattern{
		RawText: raw.String(),
		Ast:     &ast.PatternAst{Node: node, Span: span, Metadata: computePatternMetadata(node)},
		Span:    span,
	}
}

// parsePattern parses a full pattern plus its optional `when` guard
// chain, always returning the reconstructed raw text even when the
// dedicated pattern grammar below fails to build a tree.
func (p *Parser) parsePattern() *ast.Pattern {
	pat := p.parsePatternBare()
	depth := 0
	for p.at(lexer.WHEN) {
		gstart := p.cur
		p.advance()
		expr := p.parseExpressionNode()
		pat.Guards = append(pat.Guards, ast.PatternGuard{Expression: *expr, Depth: depth, KeywordSpan: p.spanFrom(gstart)})
		depth++
	}
	return pat
}

func (p *Parser) rawTok(raw *strings.Builder) {
	if raw.Len() > 0 {
		raw.WriteByte(' ')
	}
	raw.WriteString(p.cur.Literal)
}

// parsePatternAlt handles `pat1 or pat2 or ...` at the top of the
// pattern grammar (lowest precedence).
func (p *Parser) parsePatternAlt(raw *strings.Builder) *ast.PatternNode {
	start := p.cur
	first := p.parsePatternPrimary(raw)
	if p.cur.Literal != "or" {
		return first
	}
	alts := []*ast.PatternNode{first}
	for p.cur.Literal == "or" {
		p.rawTok(raw)
		p.advance()
		alts = append(alts, p.parsePatternPrimary(raw))
	}
	return &ast.PatternNode{Kind: ast.PatOr, Alternatives: alts, Span: p.spanFrom(start)}
}

func (p *Parser) parsePatternPrimary(raw *strings.Builder) *ast.PatternNode {
	start := p.cur

	switch p.cur.Type {
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.CHAR, lexer.TRUE, lexer.FALSE, lexer.NULL, lexer.MINUS:
		text := p.cur.Literal
		if p.at(lexer.MINUS) {
			p.rawTok(raw)
			p.advance()
			text = "-" + p.cur.Literal
		}
		p.rawTok(raw)
		p.advance()
		return &ast.PatternNode{Kind: ast.PatLiteral, LiteralText: text, Span: p.spanFrom(start)}

	case lexer.LBRACKET:
		return p.parseListPattern(raw, start)

	case lexer.LPAREN:
		return p.parseTuplePattern(raw, start)

	case lexer.IDENT:
		if p.cur.Literal == "_" {
			p.rawTok(raw)
			p.advance()
			return &ast.PatternNode{Kind: ast.PatWildcard, Span: p.spanFrom(start)}
		}
		return p.parseIdentOrTypeOrRecordPattern(raw, start)

	default:
		p.rawTok(raw)
		p.advance()
		return &ast.PatternNode{Kind: ast.PatWildcard, Span: p.spanFrom(start)}
	}
}

// parseIdentOrTypeOrRecordPattern disambiguates a lowercase binding
// (`x`), a type pattern (`Point p`), and a record pattern
// (`Point { X: x, Y: y }`) by inspecting the token that follows the
// leading dotted name.
func (p *Parser) parseIdentOrTypeOrRecordPattern(raw *strings.Builder, start lexer.Token) *ast.PatternNode {
	name := p.cur.Literal
	p.rawTok(raw)
	p.advance()
	for p.at(lexer.DOT) {
		p.rawTok(raw)
		p.advance()
		name += "." + p.cur.Literal
		p.rawTok(raw)
		p.advance()
	}

	if p.at(lexer.LBRACE) {
		ty := ast.TypeExpr{Name: name}
		p.rawTok(raw)
		p.advance()
		var fields []ast.RecordPatternField
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			fstart := p.cur
			fname := p.cur.Literal
			p.rawTok(raw)
			p.advance()
			p.rawTok(raw)
			p.expect(lexer.COLON, "PAT0004", "expected ':' in record pattern field")
			sub := p.parsePatternAlt(raw)
			fields = append(fields, ast.RecordPatternField{Name: fname, Pattern: sub, Span: p.spanFrom(fstart)})
			if p.at(lexer.COMMA) {
				p.rawTok(raw)
				p.advance()
				continue
			}
			break
		}
		p.rawTok(raw)
		p.expect(lexer.RBRACE, "PAT0004", "expected '}' to close record pattern")
		return &ast.PatternNode{Kind: ast.PatRecord, RecordType: &ty, RecordFields: fields, Span: p.spanFrom(start)}
	}

	if p.at(lexer.IDENT) {
		// `Type binding` — type pattern with a capture.
		binding := p.cur.Literal
		p.rawTok(raw)
		p.advance()
		return &ast.PatternNode{Kind: ast.PatType, Name: binding, Type: &ast.TypeExpr{Name: name}, Span: p.spanFrom(start)}
	}

	return &ast.PatternNode{Kind: ast.PatBinding, Name: name, Span: p.spanFrom(start)}
}

func (p *Parser) parseTuplePattern(raw *strings.Builder, start lexer.Token) *ast.PatternNode {
	p.rawTok(raw)
	p.advance()
	var elems []*ast.PatternNode
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		elems = append(elems, p.parsePatternAlt(raw))
		if p.at(lexer.COMMA) {
			p.rawTok(raw)
			p.advance()
			continue
		}
		break
	}
	p.rawTok(raw)
	p.expect(lexer.RPAREN, "PAT0004", "expected ')' to close tuple pattern")
	return &ast.PatternNode{Kind: ast.PatTuple, TupleElements: elems, Span: p.spanFrom(start)}
}

func (p *Parser) parseListPattern(raw *strings.Builder, start lexer.Token) *ast.PatternNode {
	p.rawTok(raw)
	p.advance()
	var head []*ast.PatternNode
	rest := ""
	var tail []*ast.PatternNode
	sawRest := false
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		if p.at(lexer.DOTDOT) {
			p.rawTok(raw)
			p.advance()
			sawRest = true
			if p.at(lexer.IDENT) {
				rest = p.cur.Literal
				p.rawTok(raw)
				p.advance()
			}
			if p.at(lexer.COMMA) {
				p.rawTok(raw)
				p.advance()
			}
			continue
		}
		elem := p.parsePatternAlt(raw)
		if sawRest {
			tail = append(tail, elem)
		} else {
			head = append(head, elem)
		}
		if p.at(lexer.COMMA) {
			p.rawTok(raw)
			p.advance()
			continue
		}
		break
	}
	p.rawTok(raw)
	p.expect(lexer.RBRACKET, "PAT0004", "expected ']' to close list pattern")
	return &ast.PatternNode{Kind: ast.PatListSlice, Head: head, RestBinding: rest, Tail: tail, Span: p.spanFrom(start)}
}

// computePatternMetadata walks a pattern tree once, collecting every
// binding name, counting list-slice patterns, and collecting referenced
// record field names.
func computePatternMetadata(n *ast.PatternNode) ast.PatternMetadata {
	var meta ast.PatternMetadata
	var walk func(*ast.PatternNode)
	walk = func(n *ast.PatternNode) {
		if n == nil {
			return
		}
		switch n.Kind {
		case ast.PatBinding:
			meta.Bindings = append(meta.Bindings, n.Name)
		case ast.PatType:
			if n.Name != "" {
				meta.Bindings = append(meta.Bindings, n.Name)
			}
		case ast.PatRecord:
			for _, f := range n.RecordFields {
				meta.RecordFields = append(meta.RecordFields, f.Name)
				walk(f.Pattern)
			}
		case ast.PatTuple:
			for _, e := range n.TupleElements {
				walk(e)
			}
		case ast.PatListSlice:
			meta.ListSlices++
			if n.RestBinding != "" {
				meta.Bindings = append(meta.Bindings, n.RestBinding)
			}
			for _, e := range n.Head {
				walk(e)
			}
			for _, e := range n.Tail {
				walk(e)
			}
		case ast.PatOr:
			for _, a := range n.Alternatives {
				walk(a)
			}
		}
	}
	walk(n)
	return meta
}
