package mir

import "github.com/chic-lang/chicc/internal/ast"

// TyFromAst lowers a checked ast.TypeExpr into its MIR Ty representation.
func TyFromAst(t ast.TypeExpr) Ty {
	base := namedOrBuiltin(t)

	if t.IsArray() {
		base = Ty{Kind: TyArray, Elem: ptrTy(base)}
	}
	for i := len(t.Pointer) - 1; i >= 0; i-- {
		p := t.Pointer[i]
		quals := make([]PointerQual, len(p.Qualifiers))
		for j, q := range p.Qualifiers {
			quals[j] = PointerQual(q)
		}
		base = Ty{Kind: TyPointer, Pointer: &PointerTy{Elem: ptrTy(base), Mutable: p.Mutable, Qualifiers: quals, AlignedN: p.AlignedN}}
	}
	if t.Ref != nil {
		base = Ty{Kind: TyRef, Ref: &RefTy{Elem: ptrTy(base), ReadOnly: *t.Ref == ast.RefReadOnly}}
	}
	if t.Nullable {
		base = Ty{Kind: TyNullable, Elem: ptrTy(base)}
	}
	return base
}

func namedOrBuiltin(t ast.TypeExpr) Ty {
	if t.Fn != nil {
		params := make([]Ty, len(t.Fn.Params))
		modes := make([]ParamMode, len(t.Fn.ParamModes))
		for i, p := range t.Fn.Params {
			params[i] = TyFromAst(p)
		}
		for i, m := range t.Fn.ParamModes {
			modes[i] = ParamMode(m)
		}
		var ret *Ty
		if t.Fn.Return != nil {
			r := TyFromAst(*t.Fn.Return)
			ret = &r
		}
		abi := t.Fn.ABI
		if abi == "" {
			abi = "Chic"
		}
		return Ty{Kind: TyFn, Fn: &FnTy{ABI: abi, Params: params, ParamModes: modes, Return: ret, Variadic: t.Fn.Variadic}}
	}
	if t.TraitObject != nil {
		return Ty{Kind: TyTraitObject, TraitObject: &TraitObjectTy{Traits: t.TraitObject.Bounds, OpaqueImpl: t.TraitObject.OpaqueImpl}}
	}
	if len(t.Tuple) > 0 {
		elems := make([]TupleElem, len(t.Tuple))
		for i, e := range t.Tuple {
			elems[i] = TupleElem{Name: e.Name, Ty: TyFromAst(e.Type)}
		}
		return Ty{Kind: TyTuple, Tuple: elems}
	}
	switch t.Name {
	case "void":
		return Unit
	case "string":
		return String
	case "str":
		return Str
	case "Vec", "Std.Collections.Vec":
		return Ty{Kind: TyVec, Elem: genericElem(t)}
	case "Span", "Std.Span":
		return Ty{Kind: TySpan, Elem: genericElem(t)}
	case "ReadOnlySpan", "Std.ReadOnlySpan":
		return Ty{Kind: TyReadOnlySpan, Elem: genericElem(t)}
	case "Rc", "Std.Rc":
		return Ty{Kind: TyRc, Elem: genericElem(t)}
	case "Arc", "Std.Sync.Arc":
		return Ty{Kind: TyArc, Elem: genericElem(t)}
	case "Vector", "Std.Simd.Vector":
		lanes := 0
		if len(t.GenericArgs) > 1 {
			lanes = parseIntConst(t.GenericArgs[1])
		}
		return Ty{Kind: TyVector, Elem: genericElem(t), Lanes: lanes}
	}
	args := make([]Ty, 0, len(t.GenericArgs))
	for _, a := range t.GenericArgs {
		if a.Type != nil {
			args = append(args, TyFromAst(*a.Type))
		}
	}
	return Named(t.Name, args...)
}

func genericElem(t ast.TypeExpr) *Ty {
	if len(t.GenericArgs) > 0 && t.GenericArgs[0].Type != nil {
		e := TyFromAst(*t.GenericArgs[0].Type)
		return &e
	}
	u := Unknown
	return &u
}

func parseIntConst(a ast.ConstGenericArg) int {
	s := a.Evaluated
	if s == "" {
		s = a.Expr
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func ptrTy(t Ty) *Ty { return &t }
