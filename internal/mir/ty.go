// Package mir lowers a checked AST module into a typed, basic-block
// structured mid-level IR: explicit StorageLive/StorageDead, typed
// locals, scopes with drop semantics, exception regions, trait/class
// vtables, and static/field/property access lowering.
package mir

import "strings"

// TyKind tags the variant of a Ty.
type TyKind int

const (
	TyNamed TyKind = iota
	TyArray
	TyVec
	TySpan
	TyReadOnlySpan
	TyRc
	TyArc
	TyTuple
	TyFn
	TyVector // SIMD lane type
	TyPointer
	TyRef
	TyString
	TyStr
	TyUnit
	TyUnknown
	TyNullable
	TyTraitObject
)

// TupleElem is one (optionally named) element of a TyTuple.
type TupleElem struct {
	Name string
	Ty   Ty
}

// FnTy is the payload of a TyFn: ABI, per-parameter passing modes, and
// variadic flag.
type FnTy struct {
	ABI        string
	Params     []Ty
	ParamModes []ParamMode
	Return     *Ty
	Variadic   bool
}

// ParamMode mirrors ast.BindingModifier at the MIR level.
type ParamMode int

const (
	ModeValue ParamMode = iota
	ModeIn
	ModeRef
	ModeOut
)

// PointerQual mirrors ast.PointerQualifier at the MIR level.
type PointerQual int

const (
	QRestrict PointerQual = iota
	QNoAlias
	QReadOnly
	QAligned
	QExposeAddress
)

// PointerTy is the payload of a TyPointer.
type PointerTy struct {
	Elem       *Ty
	Mutable    bool
	Qualifiers []PointerQual
	AlignedN   int
}

// RefTy is the payload of a TyRef.
type RefTy struct {
	Elem     *Ty
	ReadOnly bool
}

// TraitObjectTy is the payload of a TyTraitObject.
type TraitObjectTy struct {
	Traits     []string
	OpaqueImpl bool
}

// Ty is the tagged union of MIR types.
type Ty struct {
	Kind TyKind

	// TyNamed
	Name        string
	GenericArgs []Ty

	// TyArray/TyVec/TySpan/TyReadOnlySpan/TyRc/TyArc/TyNullable
	Elem *Ty

	// TyTuple
	Tuple []TupleElem

	// TyFn
	Fn *FnTy

	// TyVector
	Lanes int

	// TyPointer
	Pointer *PointerTy

	// TyRef
	Ref *RefTy

	// TyTraitObject
	TraitObject *TraitObjectTy
}

// Unit, String, Unknown are common singleton Ty values.
var (
	Unit    = Ty{Kind: TyUnit}
	String  = Ty{Kind: TyString}
	Str     = Ty{Kind: TyStr}
	Unknown = Ty{Kind: TyUnknown}
)

func Named(name string, args ...Ty) Ty {
	return Ty{Kind: TyNamed, Name: name, GenericArgs: args}
}

// String renders the canonical textual form, e.g. "*mut @restrict
// *const Env", "Array<int>[]", "fn(int) -> void", "dyn Printable +
// Send". A TyArray records no rank, so every array prints with `[]`.
func (t Ty) String() string {
	switch t.Kind {
	case TyNamed:
		s := t.Name
		if len(t.GenericArgs) > 0 {
			parts := make([]string, len(t.GenericArgs))
			for i, a := range t.GenericArgs {
				parts[i] = a.String()
			}
			s += "<" + strings.Join(parts, ", ") + ">"
		}
		return s
	case TyArray:
		return "Array<" + elemStr(t.Elem) + ">[]"
	case TyVec:
		return "Vec<" + elemStr(t.Elem) + ">"
	case TySpan:
		return "Span<" + elemStr(t.Elem) + ">"
	case TyReadOnlySpan:
		return "ReadOnlySpan<" + elemStr(t.Elem) + ">"
	case TyRc:
		return "Rc<" + elemStr(t.Elem) + ">"
	case TyArc:
		return "Arc<" + elemStr(t.Elem) + ">"
	case TyTuple:
		parts := make([]string, len(t.Tuple))
		for i, e := range t.Tuple {
			if e.Name != "" {
				parts[i] = e.Name + ": " + e.Ty.String()
			} else {
				parts[i] = e.Ty.String()
			}
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TyFn:
		params := make([]string, len(t.Fn.Params))
		for i, p := range t.Fn.Params {
			params[i] = p.String()
		}
		ret := "void"
		if t.Fn.Return != nil {
			ret = t.Fn.Return.String()
		}
		return "fn(" + strings.Join(params, ", ") + ") -> " + ret
	case TyVector:
		return "Vector<" + elemStr(t.Elem) + ", " + itoa(t.Lanes) + ">"
	case TyPointer:
		mut := "const"
		if t.Pointer.Mutable {
			mut = "mut"
		}
		var quals string
		for _, q := range t.Pointer.Qualifiers {
			quals += "@" + pointerQualName(q, t.Pointer.AlignedN) + " "
		}
		return quals + "*" + mut + " " + elemStr(t.Pointer.Elem)
	case TyRef:
		if t.Ref.ReadOnly {
			return "ref readonly " + elemStr(t.Ref.Elem)
		}
		return "ref " + elemStr(t.Ref.Elem)
	case TyString:
		return "string"
	case TyStr:
		return "str"
	case TyUnit:
		return "void"
	case TyNullable:
		return elemStr(t.Elem) + "?"
	case TyTraitObject:
		kw := "dyn "
		if t.TraitObject.OpaqueImpl {
			kw = "impl "
		}
		return kw + strings.Join(t.TraitObject.Traits, " + ")
	default:
		return "<unknown>"
	}
}

func elemStr(t *Ty) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}

func pointerQualName(q PointerQual, alignedN int) string {
	switch q {
	case QRestrict:
		return "restrict"
	case QNoAlias:
		return "noalias"
	case QReadOnly:
		return "readonly"
	case QExposeAddress:
		return "expose_address"
	case QAligned:
		return "aligned(" + itoa(alignedN) + ")"
	default:
		return "?"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
