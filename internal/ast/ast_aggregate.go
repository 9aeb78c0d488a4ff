package ast

// InlineAttr controls whether an aggregate is passed/returned inline or
// boxed across module boundaries.
type InlineAttr int

const (
	InlineLocal InlineAttr = iota
	InlineCross
)

// LayoutHints is the struct-level `layout(...)` / `@repr`/`@align`
// declaration.
type LayoutHints struct {
	ReprC   bool
	Packing int // 0 = unspecified
	Align   int // 0 = unspecified
}

// MMIOEndianness is the endianness field of an `@mmio(...)` payload.
type MMIOEndianness int

const (
	EndiannessNative MMIOEndianness = iota
	EndiannessLittle
	EndiannessBig
)

// MMIOStructDescriptor marks a struct as memory-mapped I/O.
type MMIOStructDescriptor struct {
	Base          uint64
	Size          *uint64
	AddressSpace  string
	Endianness    MMIOEndianness
}

// PositionalField names a record's positional constructor field.
type PositionalField struct {
	Name string
	Type TypeExpr
}

// StructDecl covers both structs and classes (via IsClass): the two item
// kinds share identical shape, so one declaration node serves both.
type StructDecl struct {
	ItemBase
	StructName string
	IsClass    bool
	IsRecord   bool

	Generics           Generics
	AutoTraits         AutoTraitOverrides
	Bases              []TypeExpr

	Fields       []FieldDecl
	Properties   []PropertyDecl
	Constructors []*FunctionDecl
	Consts       []*ConstDecl
	Methods      []*FunctionDecl
	NestedTypes  []Item

	MMIO     *MMIOStructDescriptor
	Layout   LayoutHints
	Inline   InlineAttr
	PositionalFields []PositionalField
}

func (*StructDecl) itemNode()      {}
func (s *StructDecl) Name() string { return s.StructName }

// UnionVariant is a union member; ViewTarget is set when the variant is
// a view projection over another variant.
type UnionVariant struct {
	Name       string
	Fields     []FieldDecl
	ViewTarget string
	Span       Span
}

// UnionDecl is a union with view projections.
type UnionDecl struct {
	ItemBase
	UnionName string
	Generics  Generics
	Variants  []UnionVariant
}

func (*UnionDecl) itemNode()      {}
func (u *UnionDecl) Name() string { return u.UnionName }

// EnumVariant is one case of an enum, optionally carrying data
// (`@flags` enums use IsFlags on EnumDecl).
type EnumVariant struct {
	Name   string
	Value  *ExprNode // explicit discriminant, if any
	Fields []FieldDecl
	Span   Span
}

// EnumDecl is an enum with variants.
type EnumDecl struct {
	ItemBase
	EnumName   string
	UnderlyingType *TypeExpr
	IsFlags    bool
	Variants   []EnumVariant
}

func (*EnumDecl) itemNode()      {}
func (e *EnumDecl) Name() string { return e.EnumName }

// InterfaceDecl declares method/property/const signatures implemented by
// classes/structs.
type InterfaceDecl struct {
	ItemBase
	InterfaceName string
	Generics      Generics
	Bases         []TypeExpr
	Methods       []*FunctionDecl
	Properties    []PropertyDecl
	Consts        []*ConstDecl
}

func (*InterfaceDecl) itemNode()      {}
func (i *InterfaceDecl) Name() string { return i.InterfaceName }

// AssociatedType is a trait's `type Assoc;` member, with an optional
// default.
type AssociatedType struct {
	Name    string
	Default *TypeExpr
	Bounds  []TypeExpr
	Span    Span
}

// TraitDecl declares a trait with methods, associated types, and consts,
// optionally carrying default method bodies.
type TraitDecl struct {
	ItemBase
	TraitName       string
	Generics        Generics
	Bases           []TypeExpr
	Methods         []*FunctionDecl
	AssociatedTypes []AssociatedType
	Consts          []*ConstDecl

	// ObjectSafetyViolations is populated by the checker, not the parser.
	ObjectSafetyViolations []string
}

func (*TraitDecl) itemNode()      {}
func (t *TraitDecl) Name() string { return t.TraitName }

// AssociatedTypeBinding is `type Assoc = Concrete;` inside an impl block.
type AssociatedTypeBinding struct {
	Name  string
	Value TypeExpr
	Span  Span
}

// ImplDecl is `impl Trait for Type { ... }` or (rejected) an inherent
// impl with no trait.
type ImplDecl struct {
	ItemBase
	Trait           *TypeExpr // nil for an (invalid, TCK099) inherent impl
	Target          TypeExpr
	Generics        Generics
	Methods         []*FunctionDecl
	AssociatedTypes []AssociatedTypeBinding
	Consts          []*ConstDecl
}

func (*ImplDecl) itemNode() {}
func (i *ImplDecl) Name() string {
	if i.Trait != nil {
		return i.Trait.Name + " for " + i.Target.Name
	}
	return "impl " + i.Target.Name
}

// ExtensionConstraint is a `Self : InterfaceName` condition on an
// extension.
type ExtensionConstraint struct {
	InterfaceName string
	Span          Span
}

// ExtensionDecl adds methods to an existing target type.
type ExtensionDecl struct {
	ItemBase
	Target      TypeExpr
	Generics    Generics
	Constraints []ExtensionConstraint
	Methods     []*FunctionDecl
	// IsDefault marks a default-extension;
	// its constraint must name an interface.
	IsDefault bool
}

func (*ExtensionDecl) itemNode()      {}
func (e *ExtensionDecl) Name() string { return "extension " + e.Target.Name }

// TypeAliasDecl is `type Name<...> = Target;`.
type TypeAliasDecl struct {
	ItemBase
	AliasName string
	Generics  Generics
	Target    TypeExpr
}

func (*TypeAliasDecl) itemNode()      {}
func (t *TypeAliasDecl) Name() string { return t.AliasName }

// DelegateDecl is a named function-pointer type.
type DelegateDecl struct {
	ItemBase
	DelegateName string
	Generics     Generics
	Signature    Signature
}

func (*DelegateDecl) itemNode()      {}
func (d *DelegateDecl) Name() string { return d.DelegateName }

// ConstDecl is a top-level or member `const Name: Type = expr;`.
type ConstDecl struct {
	ItemBase
	ConstName string
	Type      *TypeExpr
	Value     *ExprNode
}

func (*ConstDecl) itemNode()      {}
func (c *ConstDecl) Name() string { return c.ConstName }

// StaticDecl is a top-level `static [mut] Name: Type = expr;`.
type StaticDecl struct {
	ItemBase
	StaticName string
	Type       TypeExpr
	Mutable    bool
	Value      *ExprNode
}

func (*StaticDecl) itemNode()      {}
func (s *StaticDecl) Name() string { return s.StaticName }
