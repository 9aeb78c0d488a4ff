package mir

import "github.com/chic-lang/chicc/internal/ast"

// lowerExprOperand lowers e into a single Operand, flattening call
// subexpressions through lowerCallStatement (which may split the current
// block) and otherwise building Const/Pending/Copy operands directly.
func (b *BodyBuilder) lowerExprOperand(e *ast.ExprNode) Operand {
	if e == nil {
		return Operand{Kind: OperandConst, Const: &ConstOperand{Kind: ConstUnit, Ty: Unit}}
	}
	switch e.Kind {
	case ast.ExprLiteral:
		return b.lowerLiteral(e)
	case ast.ExprIdentifier:
		return b.lowerIdentifier(e)
	case ast.ExprCall:
		return b.lowerCallExpr(e)
	case ast.ExprMemberAccess:
		return b.lowerMemberAccess(e)
	case ast.ExprBinary:
		return b.lowerBinary(e)
	case ast.ExprUnary:
		return b.lowerUnary(e)
	case ast.ExprNew:
		return b.lowerNew(e)
	case ast.ExprCast:
		return b.lowerExprOperand(e.Right)
	case ast.ExprAwait, ast.ExprThrow, ast.ExprTryPropagate, ast.ExprRef:
		return b.lowerExprOperand(e.Inner)
	case ast.ExprTuple:
		elems := make([]Operand, len(e.TupleElements))
		for i, el := range e.TupleElements {
			elems[i] = b.lowerExprOperand(el)
		}
		id := b.newTemp(Unknown, e.Span)
		b.body.Push(b.current, Statement{Kind: StmtAssign, Span: e.Span, Dest: &Place{Local: id}, Value: &RValue{Kind: RValueAggregate, Elements: elems}})
		return CopyOperand(Place{Local: id})
	case ast.ExprDefault:
		return Operand{Kind: OperandConst, Const: &ConstOperand{Kind: ConstNull, Ty: Unknown}}
	default:
		return PendingOp(Pending{Category: PendingUnresolvedMember, Repr: e.Name, Span: e.Span})
	}
}

func (b *BodyBuilder) lowerLiteral(e *ast.ExprNode) Operand {
	var kind ConstKind
	switch e.LiteralKind {
	case ast.LitInt:
		kind = ConstInt
	case ast.LitFloat:
		kind = ConstFloat
	case ast.LitString:
		kind = ConstString
	case ast.LitChar:
		kind = ConstChar
	case ast.LitBool:
		kind = ConstBool
	case ast.LitNull:
		kind = ConstNull
	}
	ty := Unknown
	if e.NumericMeta != nil {
		ty = Named(e.NumericMeta.LiteralType)
	}
	return ConstOp(ConstOperand{Kind: kind, Text: e.LiteralText, Ty: ty})
}

// localByName searches every local declared so far in the body
// (arguments included) for the given name, most recent first; locals of
// scopes that have already been exited are not excluded.
func (b *BodyBuilder) localByName(name string) (LocalID, bool) {
	for i := len(b.body.Locals) - 1; i >= 0; i-- {
		if b.body.Locals[i].Name == name {
			return LocalID(i), true
		}
	}
	return 0, false
}

func (b *BodyBuilder) lowerIdentifier(e *ast.ExprNode) Operand {
	if id, ok := b.localByName(e.Name); ok {
		return CopyOperand(Place{Local: id})
	}
	// Unqualified identifier resolving to a static-imported type's
	// member, a namespace-scope function group, or an unknown name: all
	// are left as Pending per §9 ("Pending operands instead of fix-point
	// resolution"); ambiguity/unknown diagnostics are the checker's job.
	return PendingOp(Pending{Category: PendingUnknownIdent, Repr: e.Name, Span: e.Span})
}

func (b *BodyBuilder) lowerCallExpr(e *ast.ExprNode) Operand {
	id := b.newTemp(Unknown, e.Span)
	place := Place{Local: id}
	b.lowerCallStatement(e, &place, e.Span)
	return CopyOperand(place)
}

// lowerMemberAccess lowers static/instance member access. When the
// target lowers to a local place, the member becomes a field projection
// on it; anything else (including a type or namespace path) becomes a
// Pending operand carrying the member path as its repr, since this
// builder has no symbol-registry access (§4.4 "Static access").
func (b *BodyBuilder) lowerMemberAccess(e *ast.ExprNode) Operand {
	target := b.lowerExprOperand(e.Target)
	if target.Kind == OperandCopy {
		p := *target.Place
		p.Projections = append(p.Projections, Projection{Kind: ProjField, Field: e.Member})
		return CopyOperand(p)
	}
	repr := e.Member
	if e.Target != nil && e.Target.Kind == ast.ExprIdentifier {
		repr = e.Target.Name + "." + e.Member
	}
	return PendingOp(Pending{Category: PendingUnresolvedMember, Repr: repr, Span: e.Span})
}

func (b *BodyBuilder) lowerBinary(e *ast.ExprNode) Operand {
	left := b.lowerExprOperand(e.Left)
	right := b.lowerExprOperand(e.Right)
	id := b.newTemp(Unknown, e.Span)
	b.body.Push(b.current, Statement{
		Kind: StmtAssign, Span: e.Span, Dest: &Place{Local: id},
		Value: &RValue{Kind: RValueBinary, Op: e.Op, Left: &left, Right: &right},
	})
	return CopyOperand(Place{Local: id})
}

func (b *BodyBuilder) lowerUnary(e *ast.ExprNode) Operand {
	operand := b.lowerExprOperand(e.Right)
	id := b.newTemp(Unknown, e.Span)
	b.body.Push(b.current, Statement{
		Kind: StmtAssign, Span: e.Span, Dest: &Place{Local: id},
		Value: &RValue{Kind: RValueUnary, UnaryOp: e.Op, Operand1: &operand},
	})
	return CopyOperand(Place{Local: id})
}

// lowerNew lowers an object/collection initializer into an aggregate
// RValue assigned to a fresh temp.
func (b *BodyBuilder) lowerNew(e *ast.ExprNode) Operand {
	var ty Ty
	if e.NewType != nil {
		ty = TyFromAst(*e.NewType)
	}
	fields := make(map[string]Operand, len(e.InitMembers))
	for _, m := range e.InitMembers {
		fields[m.Name] = b.lowerExprOperand(m.Value)
	}
	var elements []Operand
	for _, c := range e.CollectionInit {
		elements = append(elements, b.lowerExprOperand(c))
	}
	id := b.newTemp(ty, e.Span)
	b.body.Push(b.current, Statement{
		Kind: StmtAssign, Span: e.Span, Dest: &Place{Local: id},
		Value: &RValue{Kind: RValueAggregate, AggregateType: ty, Fields: fields, Elements: elements},
	})
	return CopyOperand(Place{Local: id})
}
