package parser

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/lexer"
)

var builtinAttributes = map[string]bool{
	"cimport": true, "extern": true, "flags": true, "mmio": true,
	"register": true, "service": true, "inject": true, "thread_safe": true,
	"shareable": true, "repr": true, "align": true, "fallible": true,
	"category": true, "id": true, "weak_import": true, "no_std": true,
	"std": true, "no_main": true, "global_allocator": true, "link": true,
	"module": true, "vectorize": true, "friend": true,
}

// parseAttributes consumes zero or more `@name(args)` attributes
// preceding a declaration, classifying each as Builtin or Macro.
func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.at(lexer.AT) {
		switch p.peek.Literal {
		case "restrict", "noalias", "readonly", "expose_address", "aligned":
			// A pointer qualifier: it belongs to the type that follows.
			return attrs
		}
		start := p.cur
		p.advance()
		name := p.cur.Literal
		p.advance()
		var args []ast.AttributeArg
		if p.at(lexer.LPAREN) {
			p.advance()
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				arg := p.parseAttributeArg()
				args = append(args, arg)
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			p.expect(lexer.RPAREN, "PAR001", "expected ')' to close attribute arguments")
		}
		isBuiltin := builtinAttributes[name]
		attrs = append(attrs, ast.Attribute{
			Name:       name,
			Args:       args,
			IsBuiltin:  isBuiltin,
			Expandable: !isBuiltin,
			Span:       p.spanFrom(start),
		})
	}
	return attrs
}

func (p *Parser) parseAttributeArg() ast.AttributeArg {
	// `name = value` or a bare positional value/expression text.
	if p.at(lexer.IDENT) && p.peekIs(lexer.ASSIGN) {
		name := p.cur.Literal
		p.advance()
		p.advance()
		val := p.collectBalancedExpr()
		return ast.AttributeArg{Name: name, Value: val}
	}
	val := p.collectBalancedExpr()
	return ast.AttributeArg{Value: val}
}

// collectBalancedExpr collects raw source text up to the next top-level
// `,` or `)`, tracking paren/bracket/brace/angle depth independently.
func (p *Parser) collectBalancedExpr() string {
	parenDepth, braceDepth, bracketDepth, angleDepth := 0, 0, 0, 0
	var b []byte
	for {
		if p.at(lexer.EOF) {
			break
		}
		if parenDepth == 0 && braceDepth == 0 && bracketDepth == 0 {
			if p.at(lexer.COMMA) || p.at(lexer.RPAREN) {
				break
			}
		}
		switch p.cur.Type {
		case lexer.LPAREN:
			parenDepth++
		case lexer.RPAREN:
			if parenDepth > 0 {
				parenDepth--
			}
		case lexer.LBRACE:
			braceDepth++
		case lexer.RBRACE:
			if braceDepth > 0 {
				braceDepth--
			}
		case lexer.LBRACKET:
			bracketDepth++
		case lexer.RBRACKET:
			if bracketDepth > 0 {
				bracketDepth--
			}
		case lexer.LT:
			angleDepth++
		case lexer.GT:
			if angleDepth > 0 {
				angleDepth--
			}
		}
		if len(b) > 0 {
			b = append(b, ' ')
		}
		b = append(b, []byte(p.cur.Literal)...)
		p.advance()
	}
	return string(b)
}

func parseVisibility(tok lexer.TokenType) (ast.Visibility, bool) {
	switch tok {
	case lexer.PUBLIC:
		return ast.Public, true
	case lexer.INTERNAL:
		return ast.Internal, true
	case lexer.PROTECTED:
		return ast.Protected, true
	case lexer.PRIVATE:
		return ast.Private, true
	}
	return ast.Private, false
}

// parseTopLevelItem parses one item (import, namespace block, aggregate,
// function, const, static, test, typealias). On malformed input it emits
// a diagnostic and resynchronizes via synchronizeItem rather than
// aborting.
func (p *Parser) parseTopLevelItem() ast.Item {
	docs := p.takeDocs()
	attrs := p.parseAttributes()
	start := p.cur

	vis := ast.Internal
	if v, ok := parseVisibility(p.cur.Type); ok {
		vis = v
		p.advance()
	}

	base := ast.ItemBase{Visibility: vis, Attributes: attrs, Doc: docs, Span: p.spanFrom(start)}

	switch p.cur.Type {
	case lexer.IMPORT, lexer.GLOBAL:
		return p.parseImportItem(base, start)
	case lexer.USING:
		p.sink.Errorf(p.curSpan(), "IMPORT0001", "'using' is not a valid import directive; use 'import' instead")
		p.synchronizeItem()
		return nil
	case lexer.NAMESPACE:
		return p.parseNamespaceBlock(base, start)
	case lexer.STRUCT, lexer.RECORD:
		return p.parseStructLike(base, start, false)
	case lexer.CLASS:
		return p.parseStructLike(base, start, true)
	case lexer.UNION:
		return p.parseUnion(base, start)
	case lexer.ENUM:
		return p.parseEnum(base, start)
	case lexer.INTERFACE:
		return p.parseInterface(base, start)
	case lexer.TRAIT:
		return p.parseTrait(base, start)
	case lexer.IMPL:
		return p.parseImpl(base, start)
	case lexer.EXTENSION:
		return p.parseExtension(base, start)
	case lexer.DELEGATE:
		return p.parseDelegate(base, start)
	case lexer.TYPE_KW:
		return p.parseTypeAlias(base, start)
	case lexer.CONST:
		return p.parseTopConst(base, start)
	case lexer.STATIC:
		return p.parseTopStatic(base, start)
	default:
		if isFunctionStart(p.cur.Type, p.peek.Type) {
			return p.parseFunction(base, start, nil)
		}
		p.sink.Errorf(p.curSpan(), "PAR001", "unexpected token %q at top level", p.cur.Literal)
		p.synchronizeItem()
		return nil
	}
}

func isFunctionStart(cur, peek lexer.TokenType) bool {
	switch cur {
	case lexer.ASYNC, lexer.UNSAFE, lexer.EXTERN:
		return true
	case lexer.IDENT, lexer.VOID, lexer.SELF_TYPE:
		// `Type name(` — a function/method declaration.
		return peek == lexer.IDENT || peek == lexer.LT
	}
	return false
}

func (p *Parser) parseImportItem(base ast.ItemBase, start lexer.Token) ast.Item {
	isGlobal := false
	if p.at(lexer.GLOBAL) {
		isGlobal = true
		p.advance()
	}
	p.expect(lexer.IMPORT, "PAR005", "expected 'import'")
	isStatic := false
	if p.at(lexer.STATIC) {
		isStatic = true
		p.advance()
	}
	target := p.parseDottedPath()
	kind := ast.ImportPlain
	alias := ""
	switch {
	case isStatic:
		kind = ast.ImportStatic
	case isGlobal:
		kind = ast.ImportGlobal
	case p.at(lexer.ASSIGN):
		p.advance()
		alias = target
		target = p.parseDottedPath()
		kind = ast.ImportAlias
	}
	p.expect(lexer.SEMICOLON, "PAR005", "expected ';' after import directive")
	return &ast.ImportItem{
		ItemBase: base,
		Directive: ast.ImportDirective{
			Doc: base.Doc, IsGlobal: isGlobal, Kind: kind,
			Target: target, Alias: alias, Span: p.spanFrom(start),
		},
	}
}

func (p *Parser) parseNamespaceBlock(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // namespace
	name := p.parseDottedPath()
	item := &ast.NamespaceItem{ItemBase: base, NamespaceName: name}
	if !p.expect(lexer.LBRACE, "PAR004", "expected '{' to open namespace block") {
		p.synchronizeItem()
		return item
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		it := p.parseTopLevelItem()
		if it != nil {
			item.Items = append(item.Items, it)
		}
	}
	p.expect(lexer.RBRACE, "PAR004", "expected '}' to close namespace block")
	return item
}

func (p *Parser) parseGenerics() ast.Generics {
	var g ast.Generics
	if !p.at(lexer.LT) {
		return g
	}
	p.advance()
	for !p.at(lexer.GT) && !p.at(lexer.EOF) {
		if p.at(lexer.CONST) {
			p.advance()
			name := p.cur.Literal
			p.advance()
			p.expect(lexer.COLON, "PAR009", "expected ':' in const generic parameter")
			ty := p.parseTypeExpression()
			g.ConstParams = append(g.ConstParams, ast.ConstGenericParam{Name: name, ValueType: ty})
		} else {
			variance := ast.Invariant
			if p.cur.Literal == "out" {
				variance = ast.Covariant
				p.advance()
			} else if p.cur.Literal == "in" {
				variance = ast.Contravariant
				p.advance()
			}
			name := p.cur.Literal
			p.advance()
			var constraints []ast.TypeExpr
			if p.at(lexer.COLON) {
				p.advance()
				constraints = append(constraints, p.parseTypeExpression())
				for p.at(lexer.PLUS) {
					p.advance()
					constraints = append(constraints, p.parseTypeExpression())
				}
			}
			g.TypeParams = append(g.TypeParams, ast.TypeParam{Name: name, Variance: variance, Constraints: constraints})
		}
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.GT, "PAR009", "expected '>' to close generic parameter list")
	return g
}

func (p *Parser) parseBases() []ast.TypeExpr {
	var bases []ast.TypeExpr
	if p.at(lexer.COLON) {
		p.advance()
		bases = append(bases, p.parseTypeExpression())
		for p.at(lexer.COMMA) {
			p.advance()
			bases = append(bases, p.parseTypeExpression())
		}
	}
	return bases
}

func (p *Parser) parseStructLike(base ast.ItemBase, start lexer.Token, isClass bool) ast.Item {
	isRecord := p.at(lexer.RECORD)
	p.advance() // struct|class|record
	name := p.cur.Literal
	p.advance()
	generics := p.parseGenerics()
	decl := &ast.StructDecl{ItemBase: base, StructName: name, IsClass: isClass, IsRecord: isRecord, Generics: generics}

	if isRecord && p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			fname := p.cur.Literal
			p.advance()
			p.expect(lexer.COLON, "PAR009", "expected ':' in positional field")
			fty := p.parseTypeExpression()
			decl.PositionalFields = append(decl.PositionalFields, ast.PositionalField{Name: fname, Type: fty})
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(lexer.RPAREN, "PAR001", "expected ')' to close positional field list")
	}

	decl.Bases = p.parseBases()

	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open aggregate body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		p.parseStructMember(decl)
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close aggregate body")
	return decl
}

func (p *Parser) parseStructMember(decl *ast.StructDecl) {
	docs := p.takeDocs()
	attrs := p.parseAttributes()
	start := p.cur
	vis := ast.Internal
	if v, ok := parseVisibility(p.cur.Type); ok {
		vis = v
		p.advance()
	}
	isStatic := false
	isReadonly := false
	isRequired := false
	for {
		switch p.cur.Type {
		case lexer.STATIC:
			isStatic = true
			p.advance()
			continue
		case lexer.READONLY:
			isReadonly = true
			p.advance()
			continue
		case lexer.REQUIRED:
			isRequired = true
			p.advance()
			continue
		}
		break
	}

	base := ast.ItemBase{Visibility: vis, Attributes: attrs, Doc: docs, Span: p.spanFrom(start)}

	// `Type Name (` or `Type Name <` starts a method; `Type Name` followed
	// by anything else is a field or property.
	isMethod := isFunctionStart(p.cur.Type, p.peek.Type)
	if isMethod && p.at(lexer.IDENT) {
		saved := p.mark()
		isMethod = p.scanTypePrefixSilently() && p.at(lexer.IDENT)
		if isMethod {
			p.advance()
			isMethod = p.at(lexer.LPAREN) || p.at(lexer.LT)
		}
		p.rewind(saved)
	}

	switch {
	case p.at(lexer.CONST):
		c := p.parseTopConst(base, start).(*ast.ConstDecl)
		decl.Consts = append(decl.Consts, c)
	case p.at(lexer.IDENT) && p.cur.Literal == decl.StructName && p.peek.Type == lexer.LPAREN:
		ctor := p.parseConstructor(base, start, decl.StructName)
		decl.Constructors = append(decl.Constructors, ctor)
	case isMethod:
		fn := p.parseFunction(base, start, nil)
		if fn != nil {
			if fd, ok := fn.(*ast.FunctionDecl); ok {
				fd.Flags.IsExtern = fd.Flags.IsExtern
				decl.Methods = append(decl.Methods, fd)
			}
		}
	default:
		field := p.parseFieldOrProperty(base, isStatic, isReadonly, isRequired)
		switch f := field.(type) {
		case *ast.FieldDecl:
			decl.Fields = append(decl.Fields, *f)
		case *ast.PropertyDecl:
			decl.Properties = append(decl.Properties, *f)
		}
	}
}

func (p *Parser) parseConstructor(base ast.ItemBase, start lexer.Token, ownerName string) *ast.FunctionDecl {
	p.advance() // ctor name (== type name)
	params := p.parseParameterList()
	fn := &ast.FunctionDecl{ItemBase: base, FuncName: "init", Signature: ast.Signature{Parameters: params}}
	if p.at(lexer.LBRACE) {
		fn.Body = p.parseBlock()
	} else {
		p.expect(lexer.SEMICOLON, "PAR003", "expected constructor body or ';'")
	}
	return fn
}

func (p *Parser) parseFieldOrProperty(base ast.ItemBase, isStatic, isReadonly, isRequired bool) ast.Item {
	ty := p.parseTypeExpression()
	name := p.cur.Literal
	p.advance()

	var mmio *ast.MMIOFieldMeta
	for _, a := range base.Attributes {
		if a.Name == "register" {
			off, _ := attrInt(a, "offset")
			width, _ := attrInt(a, "width")
			access := ast.AccessRW
			if v, ok := a.Lookup("access"); ok {
				switch v {
				case "ro":
					access = ast.AccessRO
				case "wo":
					access = ast.AccessWO
				}
			}
			mmio = &ast.MMIOFieldMeta{Offset: off, Width: width, Access: access}
		}
	}

	if p.at(lexer.LBRACE) {
		// Property with accessors.
		p.advance()
		prop := &ast.PropertyDecl{Visibility: base.Visibility, Name: name, Type: ty, IsRequired: isRequired, IsStatic: isStatic, Span: base.Span}
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			prop.Accessors = append(prop.Accessors, p.parseAccessor())
		}
		p.expect(lexer.RBRACE, "PAR007", "expected '}' to close property accessor list")
		if p.at(lexer.ASSIGN) {
			p.advance()
			prop.Initializer = p.parseExpressionNode()
			p.expect(lexer.SEMICOLON, "PAR007", "expected ';' after property initializer")
		}
		return prop
	}

	field := &ast.FieldDecl{
		Visibility: base.Visibility, Name: name, Type: ty, MMIO: mmio,
		IsRequired: isRequired, IsReadonly: isReadonly, IsStatic: isStatic, Span: base.Span,
	}
	for _, a := range base.Attributes {
		if a.Name == "view_of" {
			if v, ok := a.Lookup(""); ok {
				field.ViewOf = v
			}
		}
	}
	if p.at(lexer.ASSIGN) {
		p.advance()
		field.Initializer = p.parseExpressionNode()
	}
	p.expect(lexer.SEMICOLON, "PAR007", "expected ';' after field declaration")
	return field
}

func attrInt(a ast.Attribute, name string) (int, bool) {
	v, ok := a.Lookup(name)
	if !ok {
		return 0, false
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (p *Parser) parseAccessor() ast.Accessor {
	vis := ast.Internal
	if v, ok := parseVisibility(p.cur.Type); ok {
		vis = v
		p.advance()
	}
	var kind ast.AccessorKind
	switch p.cur.Type {
	case lexer.GET:
		kind = ast.AccessorGet
	case lexer.SET:
		kind = ast.AccessorSet
	case lexer.INIT:
		kind = ast.AccessorInit
	}
	start := p.cur
	p.advance()
	acc := ast.Accessor{Kind: kind, Visibility: vis, Span: p.spanFrom(start)}
	switch {
	case p.at(lexer.SEMICOLON):
		p.advance()
		acc.Body = ast.AccessorAuto
	case p.at(lexer.FARROW):
		p.advance()
		acc.Body = ast.AccessorExpression
		acc.Expr = p.parseExpressionNode()
		p.expect(lexer.SEMICOLON, "PAR007", "expected ';' after expression-bodied accessor")
	case p.at(lexer.LBRACE):
		acc.Body = ast.AccessorBlock
		acc.Block = p.parseBlock()
	default:
		p.sink.Errorf(p.curSpan(), "PAR007", "invalid property accessor body")
		p.synchronizeField()
	}
	return acc
}

func (p *Parser) parseUnion(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // union
	name := p.cur.Literal
	p.advance()
	generics := p.parseGenerics()
	decl := &ast.UnionDecl{ItemBase: base, UnionName: name, Generics: generics}
	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open union body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		vstart := p.cur
		vname := p.cur.Literal
		p.advance()
		variant := ast.UnionVariant{Name: vname, Span: p.spanFrom(vstart)}
		if p.at(lexer.LBRACE) {
			p.advance()
			for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
				fname := p.cur.Literal
				p.advance()
				p.expect(lexer.COLON, "PAR009", "expected ':' in union field")
				fty := p.parseTypeExpression()
				variant.Fields = append(variant.Fields, ast.FieldDecl{Name: fname, Type: fty, Visibility: ast.Public})
				if p.at(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RBRACE, "PAR003", "expected '}' to close union variant fields")
		}
		decl.Variants = append(decl.Variants, variant)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close union body")
	return decl
}

func (p *Parser) parseEnum(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // enum
	name := p.cur.Literal
	p.advance()
	decl := &ast.EnumDecl{ItemBase: base, EnumName: name}
	for _, a := range base.Attributes {
		if a.Name == "flags" {
			decl.IsFlags = true
		}
	}
	if p.at(lexer.COLON) {
		p.advance()
		ty := p.parseTypeExpression()
		decl.UnderlyingType = &ty
	}
	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open enum body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		vname := p.cur.Literal
		vstart := p.cur
		p.advance()
		variant := ast.EnumVariant{Name: vname, Span: p.spanFrom(vstart)}
		if p.at(lexer.ASSIGN) {
			p.advance()
			variant.Value = p.parseExpressionNode()
		}
		decl.Variants = append(decl.Variants, variant)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close enum body")
	return decl
}

func (p *Parser) parseInterface(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance()
	name := p.cur.Literal
	p.advance()
	generics := p.parseGenerics()
	decl := &ast.InterfaceDecl{ItemBase: base, InterfaceName: name, Generics: generics}
	decl.Bases = p.parseBases()
	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open interface body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		mdocs := p.takeDocs()
		mattrs := p.parseAttributes()
		mstart := p.cur
		if p.at(lexer.CONST) {
			c := p.parseTopConst(ast.ItemBase{Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart).(*ast.ConstDecl)
			decl.Consts = append(decl.Consts, c)
			continue
		}
		fn := p.parseFunction(ast.ItemBase{Visibility: ast.Public, Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart, nil)
		if fd, ok := fn.(*ast.FunctionDecl); ok {
			decl.Methods = append(decl.Methods, fd)
		}
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close interface body")
	return decl
}

func (p *Parser) parseTrait(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance()
	name := p.cur.Literal
	p.advance()
	generics := p.parseGenerics()
	decl := &ast.TraitDecl{ItemBase: base, TraitName: name, Generics: generics}
	decl.Bases = p.parseBases()
	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open trait body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		mdocs := p.takeDocs()
		mattrs := p.parseAttributes()
		mstart := p.cur
		switch {
		case p.at(lexer.TYPE_KW):
			p.advance()
			tname := p.cur.Literal
			p.advance()
			at := ast.AssociatedType{Name: tname, Span: p.spanFrom(mstart)}
			if p.at(lexer.ASSIGN) {
				p.advance()
				d := p.parseTypeExpression()
				at.Default = &d
			}
			p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after associated type")
			decl.AssociatedTypes = append(decl.AssociatedTypes, at)
		case p.at(lexer.CONST):
			c := p.parseTopConst(ast.ItemBase{Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart).(*ast.ConstDecl)
			decl.Consts = append(decl.Consts, c)
		default:
			fn := p.parseFunction(ast.ItemBase{Visibility: ast.Public, Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart, nil)
			if fd, ok := fn.(*ast.FunctionDecl); ok {
				decl.Methods = append(decl.Methods, fd)
			}
		}
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close trait body")
	return decl
}

func (p *Parser) parseImpl(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // impl
	generics := p.parseGenerics()
	first := p.parseTypeExpression()
	decl := &ast.ImplDecl{ItemBase: base, Generics: generics}
	if p.at(lexer.FOR_KW) {
		p.advance()
		target := p.parseTypeExpression()
		decl.Trait = &first
		decl.Target = target
	} else {
		decl.Target = first // inherent impl, rejected later (TCK099)
	}
	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open impl body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		mdocs := p.takeDocs()
		mattrs := p.parseAttributes()
		mstart := p.cur
		switch {
		case p.at(lexer.TYPE_KW):
			p.advance()
			tname := p.cur.Literal
			p.advance()
			p.expect(lexer.ASSIGN, "PAR003", "expected '=' in associated type binding")
			v := p.parseTypeExpression()
			p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after associated type binding")
			decl.AssociatedTypes = append(decl.AssociatedTypes, ast.AssociatedTypeBinding{Name: tname, Value: v, Span: p.spanFrom(mstart)})
		case p.at(lexer.CONST):
			c := p.parseTopConst(ast.ItemBase{Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart).(*ast.ConstDecl)
			decl.Consts = append(decl.Consts, c)
		default:
			fn := p.parseFunction(ast.ItemBase{Visibility: ast.Public, Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart, nil)
			if fd, ok := fn.(*ast.FunctionDecl); ok {
				decl.Methods = append(decl.Methods, fd)
			}
		}
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close impl body")
	return decl
}

func (p *Parser) parseExtension(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // extension
	generics := p.parseGenerics()
	target := p.parseTypeExpression()
	decl := &ast.ExtensionDecl{ItemBase: base, Generics: generics, Target: target}
	for _, a := range base.Attributes {
		if a.Name == "default" {
			decl.IsDefault = true
		}
	}
	if p.at(lexer.COLON) {
		p.advance()
		decl.Constraints = append(decl.Constraints, p.parseExtensionConstraint())
		for p.at(lexer.COMMA) {
			p.advance()
			decl.Constraints = append(decl.Constraints, p.parseExtensionConstraint())
		}
	}
	if !p.expect(lexer.LBRACE, "PAR003", "expected '{' to open extension body") {
		p.synchronizeItem()
		return decl
	}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		mdocs := p.takeDocs()
		mattrs := p.parseAttributes()
		mstart := p.cur
		fn := p.parseFunction(ast.ItemBase{Visibility: ast.Public, Doc: mdocs, Attributes: mattrs, Span: p.spanFrom(mstart)}, mstart, nil)
		if fd, ok := fn.(*ast.FunctionDecl); ok {
			decl.Methods = append(decl.Methods, fd)
		}
	}
	p.expect(lexer.RBRACE, "PAR003", "expected '}' to close extension body")
	return decl
}

// parseExtensionConstraint parses a single `Self : InterfaceName`
// condition; anything else is rejected with DIM0002.
func (p *Parser) parseExtensionConstraint() ast.ExtensionConstraint {
	start := p.cur
	if p.cur.Literal != "Self" {
		p.sink.Errorf(p.curSpan(), "DIM0002", "extension constraint must have the form 'Self : Interface'")
	}
	p.advance() // Self
	p.expect(lexer.COLON, "DIM0002", "expected ':' in extension constraint")
	name := p.cur.Literal
	p.advance()
	return ast.ExtensionConstraint{InterfaceName: name, Span: p.spanFrom(start)}
}

func (p *Parser) parseDelegate(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // delegate
	returnType := p.parseTypeExpression()
	name := p.cur.Literal
	p.advance()
	generics := p.parseGenerics()
	params := p.parseParameterList()
	p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after delegate declaration")
	return &ast.DelegateDecl{
		ItemBase: base, DelegateName: name, Generics: generics,
		Signature: ast.Signature{Parameters: params, ReturnType: returnType},
	}
}

func (p *Parser) parseTypeAlias(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // type
	name := p.cur.Literal
	p.advance()
	generics := p.parseGenerics()
	p.expect(lexer.ASSIGN, "PAR003", "expected '=' in type alias")
	target := p.parseTypeExpression()
	p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after type alias")
	return &ast.TypeAliasDecl{ItemBase: base, AliasName: name, Generics: generics, Target: target}
}

func (p *Parser) parseTopConst(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // const
	name := p.cur.Literal
	p.advance()
	var ty *ast.TypeExpr
	if p.at(lexer.COLON) {
		p.advance()
		t := p.parseTypeExpression()
		ty = &t
	}
	p.expect(lexer.ASSIGN, "PAR003", "expected '=' in const declaration")
	val := p.parseExpressionNode()
	p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after const declaration")
	return &ast.ConstDecl{ItemBase: base, ConstName: name, Type: ty, Value: val}
}

func (p *Parser) parseTopStatic(base ast.ItemBase, start lexer.Token) ast.Item {
	p.advance() // static
	mutable := false
	if p.cur.Literal == "mut" {
		mutable = true
		p.advance()
	}
	name := p.cur.Literal
	p.advance()
	p.expect(lexer.COLON, "PAR003", "expected ':' in static declaration")
	ty := p.parseTypeExpression()
	var val *ast.ExprNode
	if p.at(lexer.ASSIGN) {
		p.advance()
		val = p.parseExpressionNode()
	}
	p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after static declaration")
	return &ast.StaticDecl{ItemBase: base, StaticName: name, Type: ty, Mutable: mutable, Value: val}
}

func (p *Parser) parseFunction(base ast.ItemBase, start lexer.Token, receiverHint *ast.Parameter) ast.Item {
	var flags ast.FunctionFlags
	var modifiers []string
	for {
		switch p.cur.Type {
		case lexer.ASYNC:
			flags.IsAsync = true
			modifiers = append(modifiers, "async")
			p.advance()
			continue
		case lexer.UNSAFE:
			flags.IsUnsafe = true
			modifiers = append(modifiers, "unsafe")
			p.advance()
			continue
		case lexer.EXTERN:
			flags.IsExtern = true
			modifiers = append(modifiers, "extern")
			p.advance()
			continue
		case lexer.VIRTUAL, lexer.OVERRIDE, lexer.SEALED, lexer.ABSTRACT:
			modifiers = append(modifiers, p.cur.Literal)
			p.advance()
			continue
		}
		break
	}
	retType := p.parseTypeExpression()
	var op ast.OperatorKind
	var name string
	if p.at(lexer.OPERATOR) {
		p.advance()
		op = classifyOperator(p.cur.Literal)
		name = "op_" + p.cur.Literal
		p.advance()
	} else {
		name = p.cur.Literal
		p.advance()
	}
	generics := p.parseGenerics()
	params := p.parseParameterList()

	var throws []ast.TypeExpr
	if p.cur.Literal == "throws" {
		p.advance()
		throws = append(throws, p.parseTypeExpression())
		for p.at(lexer.COMMA) {
			p.advance()
			throws = append(throws, p.parseTypeExpression())
		}
	}

	var lendsToReturn []string
	if p.cur.Literal == "lends" {
		p.advance()
		p.expect(lexer.LPAREN, "PAR003", "expected '(' after 'lends'")
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			lendsToReturn = append(lendsToReturn, p.cur.Literal)
			p.advance()
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN, "PAR003", "expected ')' to close 'lends' clause")
	}

	fn := &ast.FunctionDecl{
		ItemBase: base, FuncName: name, Operator: op, Generics: generics, Flags: flags, Modifiers: modifiers,
		Signature: ast.Signature{Parameters: params, ReturnType: retType, Throws: throws, LendsToReturn: lendsToReturn},
	}

	for _, a := range base.Attributes {
		if a.Name == "extern" {
			opts := &ast.ExternOptions{}
			if v, ok := a.Lookup("library"); ok {
				opts.Library = v
			}
			if v, ok := a.Lookup("alias"); ok {
				opts.Alias = v
			}
			if v, ok := a.Lookup("charset"); ok {
				opts.Charset = v
			}
			if v, ok := a.Lookup("optional"); ok && v == "true" {
				opts.Optional = true
			}
			fn.Extern = opts
		}
		if a.Name == "cimport" {
			if v, ok := a.Lookup(""); ok {
				_ = v // synthetic CImport import directive emitted by caller (module/namespace level)
			}
		}
	}

	switch {
	case p.at(lexer.LBRACE):
		fn.Body = p.parseBlock()
	case p.at(lexer.FARROW):
		// expression-bodied member
		p.advance()
		expr := p.parseExpressionNode()
		var stmt *ast.Statement
		if retType.Name == "void" || retType.Name == "" {
			stmt = &ast.Statement{Kind: ast.StmtExpression, Expr: expr}
		} else {
			stmt = &ast.Statement{Kind: ast.StmtReturn, Expr: expr}
		}
		fn.Body = &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{stmt}}
		p.expect(lexer.SEMICOLON, "PAR003", "expected ';' after expression body")
	default:
		p.expect(lexer.SEMICOLON, "PAR003", "expected function body or ';'")
	}
	return fn
}

func classifyOperator(lit string) ast.OperatorKind {
	switch lit {
	case "+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "&", "|", "^":
		return ast.BinaryOperator
	case "!", "~":
		return ast.UnaryOperator
	}
	return ast.ConversionOperator
}
