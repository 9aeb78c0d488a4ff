package ast

// PointerQualifier is a single qualifier attached to a pointer suffix.
type PointerQualifier int

const (
	QRestrict PointerQualifier = iota
	QNoAlias
	QReadOnly
	QAligned // carries an N via PointerSuffix.AlignedN
	QExposeAddress
)

// PointerSuffix models a single `*mut`/`*const` level with its qualifier
// set, including the `@aligned(N)` payload when present.
type PointerSuffix struct {
	Mutable    bool
	Qualifiers []PointerQualifier
	AlignedN   int // meaningful only if QAligned is present
}

// RefKind distinguishes `ref T` from `ref readonly T`.
type RefKind int

const (
	RefMutable RefKind = iota
	RefReadOnly
)

// ConstGenericArg is either a type argument or a const-evaluated
// expression argument to a generic parameter list.
type ConstGenericArg struct {
	Type *TypeExpr
	// Expr holds source text for a const-expression argument; Evaluated
	// memoises its canonical printed form once computed.
	Expr      string
	Evaluated string
}

// TupleElement is one named-or-unnamed slot of a tuple type.
type TupleElement struct {
	Name string // empty if unnamed
	Type TypeExpr
}

// FnSignatureType is the `fn(...) -> T` suffix of a TypeExpr.
type FnSignatureType struct {
	ABI        string // "Chic" or the extern("...") string
	IsExternC  bool
	Params     []TypeExpr
	ParamModes []BindingModifier
	Return     *TypeExpr
	Variadic   bool
}

// TraitObjectType is the `dyn Trait1 + Trait2` suffix.
type TraitObjectType struct {
	Bounds     []string
	OpaqueImpl bool // `impl Trait` rather than `dyn Trait`
}

// TypeExpr is the canonical dotted type name plus its suffix chain.
type TypeExpr struct {
	Name          string // canonical dotted name, e.g. "Std.Collections.Vec"
	GenericArgs   []ConstGenericArg
	ArrayRanks    []int // one entry per `[...]` suffix: its rank (1 for `[]`, 2 for `[,]`)
	Nullable      bool
	Pointer       []PointerSuffix // chain, outermost first
	SegmentQuals  []string        // per dotted-segment qualifiers, rarely used
	Tuple         []TupleElement
	Fn            *FnSignatureType
	TraitObject   *TraitObjectType
	Ref           *RefKind
	IsView        bool
	Span          Span
}

// IsPointer reports whether the type ends in at least one pointer level.
func (t TypeExpr) IsPointer() bool { return len(t.Pointer) > 0 }

// IsArray reports whether the type has array-rank suffixes.
func (t TypeExpr) IsArray() bool { return len(t.ArrayRanks) > 0 }

// String renders the canonical printed form, e.g. "*mut @restrict *const
// Env", "Array<int>[,]", "fn(int) -> void", "dyn Printable + Send".
func (t TypeExpr) String() string {
	s := t.Name
	if len(t.GenericArgs) > 0 {
		s += "<"
		for i, a := range t.GenericArgs {
			if i > 0 {
				s += ", "
			}
			if a.Type != nil {
				s += a.Type.String()
			} else if a.Evaluated != "" {
				s += a.Evaluated
			} else {
				s += a.Expr
			}
		}
		s += ">"
	}
	if t.Fn != nil {
		params := ""
		for i, p := range t.Fn.Params {
			if i > 0 {
				params += ", "
			}
			params += p.String()
		}
		ret := "void"
		if t.Fn.Return != nil {
			ret = t.Fn.Return.String()
		}
		s = "fn(" + params + ") -> " + ret
	}
	if t.TraitObject != nil {
		kw := "dyn "
		if t.TraitObject.OpaqueImpl {
			kw = "impl "
		}
		s = kw
		for i, b := range t.TraitObject.Bounds {
			if i > 0 {
				s += " + "
			}
			s += b
		}
	}
	for _, rank := range t.ArrayRanks {
		commas := ""
		for i := 1; i < rank; i++ {
			commas += ","
		}
		s = "Array<" + s + ">[" + commas + "]"
	}
	for i := len(t.Pointer) - 1; i >= 0; i-- {
		p := t.Pointer[i]
		mut := "const"
		if p.Mutable {
			mut = "mut"
		}
		quals := ""
		for _, q := range p.Qualifiers {
			quals += "@" + qualifierName(q, p.AlignedN) + " "
		}
		s = quals + "*" + mut + " " + s
	}
	if t.Ref != nil {
		if *t.Ref == RefReadOnly {
			s = "ref readonly " + s
		} else {
			s = "ref " + s
		}
	}
	if t.Nullable {
		s += "?"
	}
	return s
}

func qualifierName(q PointerQualifier, alignedN int) string {
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
