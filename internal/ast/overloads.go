package ast

import "strings"

// OverloadKind distinguishes the three things an OverloadCatalog groups.
type OverloadKind int

const (
	OverloadFunction OverloadKind = iota
	OverloadMethod
	OverloadConstructor
)

// OverloadKey groups declarations that could plausibly overload one
// another.
type OverloadKey struct {
	Owner string // canonical "A::B::Type"; for free functions, the enclosing namespace (empty at top level)
	Name  string
	Kind  OverloadKind
}

// OverloadDeclaration locates the originating item within the module so
// the checker/lowering can fetch the full declaration back out.
type OverloadDeclaration struct {
	ItemIndex  int
	MemberKind string // "", "method", "ctor" — empty means the item itself
	MemberIdx  int
}

// ParamSummary is the overload-relevant slice of a Parameter.
type ParamSummary struct {
	Mode       BindingModifier
	Nullable   bool
	Type       string
	HasDefault bool
	DIInject   bool
}

// OverloadEntry is one member of an OverloadSet.
type OverloadEntry struct {
	Qualified  string
	Span       Span
	Params     []ParamSummary
	Return     string
	Throws     []string
	Generics   Generics
	Attributes []string
	Modifiers  []string
	Decl       OverloadDeclaration
}

// OverloadSet is every declaration sharing one OverloadKey.
type OverloadSet struct {
	Entries []OverloadEntry
}

// OverloadCatalog maps OverloadKey to OverloadSet for an entire module.
type OverloadCatalog struct {
	sets map[OverloadKey]*OverloadSet
}

// NewOverloadCatalog returns an empty catalog.
func NewOverloadCatalog() *OverloadCatalog {
	return &OverloadCatalog{sets: make(map[OverloadKey]*OverloadSet)}
}

// Lookup returns the OverloadSet for key, if any.
func (c *OverloadCatalog) Lookup(key OverloadKey) (*OverloadSet, bool) {
	s, ok := c.sets[key]
	return s, ok
}

// Keys returns every key currently populated, for iteration in tests.
func (c *OverloadCatalog) Keys() []OverloadKey {
	keys := make([]OverloadKey, 0, len(c.sets))
	for k := range c.sets {
		keys = append(keys, k)
	}
	return keys
}

func (c *OverloadCatalog) add(key OverloadKey, entry OverloadEntry) {
	set, ok := c.sets[key]
	if !ok {
		set = &OverloadSet{}
		c.sets[key] = set
	}
	set.Entries = append(set.Entries, entry)
}

// CanonicalOwner normalises a dotted namespace/type qualification to
// "::"-separated form, stripping generic arguments via a depth-tracked
// scan, and avoiding double-qualification when the target already
// carries the namespace prefix.
func CanonicalOwner(namespace, qualifiedName string) string {
	stripped := stripGenericArgs(qualifiedName)
	normTarget := strings.ReplaceAll(stripped, ".", "::")
	normNS := strings.ReplaceAll(namespace, ".", "::")
	if normNS == "" {
		return normTarget
	}
	prefix := normNS + "::"
	if strings.HasPrefix(normTarget, prefix) {
		return normTarget
	}
	return prefix + normTarget
}

// stripGenericArgs removes any `<...>` generic argument list from a
// dotted name using an explicit depth counter, so nested angle brackets
// (`Foo<Bar<Baz>>`) are handled correctly and `::`/`.` separators outside
// the generic list are preserved untouched.
func stripGenericArgs(name string) string {
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func paramSummary(p Parameter) ParamSummary {
	return ParamSummary{
		Mode:       p.Modifier,
		Nullable:   p.Type.Nullable,
		Type:       p.Type.String(),
		HasDefault: p.Default != nil,
		DIInject:   hasAttribute(p.Attributes, "inject"),
	}
}

func hasAttribute(attrs []Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func attrNames(attrs []Attribute) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a.Name)
	}
	return out
}

func throwNames(throws []TypeExpr) []string {
	out := make([]string, 0, len(throws))
	for _, t := range throws {
		out = append(out, t.String())
	}
	return out
}

func entryFromFunction(owner string, f *FunctionDecl, decl OverloadDeclaration) OverloadEntry {
	params := make([]ParamSummary, 0, len(f.Signature.Parameters))
	for _, p := range f.Signature.Parameters {
		params = append(params, paramSummary(p))
	}
	qualified := f.FuncName
	if owner != "" {
		qualified = owner + "::" + f.FuncName
	}
	return OverloadEntry{
		Qualified:  qualified,
		Span:       f.Span,
		Params:     params,
		Return:     f.Signature.ReturnType.String(),
		Throws:     throwNames(f.Signature.Throws),
		Generics:   f.Generics,
		Attributes: attrNames(f.Attributes),
		Modifiers:  f.Modifiers,
		Decl:       decl,
	}
}

// buildOverloadCatalog walks the module's item tree (recursing into
// namespace blocks) and records every free function, every
// struct/class/interface/trait/impl/extension method, and every
// constructor, keyed by owner and signature.
func buildOverloadCatalog(m *Module) *OverloadCatalog {
	c := NewOverloadCatalog()
	walkItems(m.Items, m.Namespace, c)
	return c
}

func walkItems(items []Item, namespace string, c *OverloadCatalog) {
	for idx, it := range items {
		switch v := it.(type) {
		case *FunctionDecl:
			key := OverloadKey{Owner: namespace, Name: v.FuncName, Kind: OverloadFunction}
			c.add(key, entryFromFunction(namespace, v, OverloadDeclaration{ItemIndex: idx}))
		case *NamespaceItem:
			nested := v.NamespaceName
			if namespace != "" {
				nested = namespace + "." + v.NamespaceName
			}
			walkItems(v.Items, nested, c)
		case *StructDecl:
			owner := CanonicalOwner(namespace, v.StructName)
			for mi, meth := range v.Methods {
				key := OverloadKey{Owner: owner, Name: meth.FuncName, Kind: OverloadMethod}
				c.add(key, entryFromFunction(owner, meth, OverloadDeclaration{ItemIndex: idx, MemberKind: "method", MemberIdx: mi}))
			}
			for ci, ctor := range v.Constructors {
				key := OverloadKey{Owner: owner, Name: "init", Kind: OverloadConstructor}
				entry := entryFromFunction(owner, ctor, OverloadDeclaration{ItemIndex: idx, MemberKind: "ctor", MemberIdx: ci})
				entry.Qualified = owner + "::init#" + itoa(c.sets[key].entriesLenSafe())
				c.add(key, entry)
			}
		case *InterfaceDecl:
			owner := CanonicalOwner(namespace, v.InterfaceName)
			for mi, meth := range v.Methods {
				g := meth.Generics
				if g.IsEmpty() {
					g = v.Generics
				}
				key := OverloadKey{Owner: owner, Name: meth.FuncName, Kind: OverloadMethod}
				entry := entryFromFunction(owner, meth, OverloadDeclaration{ItemIndex: idx, MemberKind: "method", MemberIdx: mi})
				entry.Generics = g
				c.add(key, entry)
			}
		case *TraitDecl:
			owner := CanonicalOwner(namespace, v.TraitName)
			for mi, meth := range v.Methods {
				g := meth.Generics
				if g.IsEmpty() {
					g = v.Generics
				}
				key := OverloadKey{Owner: owner, Name: meth.FuncName, Kind: OverloadMethod}
				entry := entryFromFunction(owner, meth, OverloadDeclaration{ItemIndex: idx, MemberKind: "method", MemberIdx: mi})
				entry.Generics = g
				c.add(key, entry)
			}
		case *ImplDecl:
			owner := CanonicalOwner(namespace, v.Target.Name)
			for mi, meth := range v.Methods {
				key := OverloadKey{Owner: owner, Name: meth.FuncName, Kind: OverloadMethod}
				c.add(key, entryFromFunction(owner, meth, OverloadDeclaration{ItemIndex: idx, MemberKind: "method", MemberIdx: mi}))
			}
		case *ExtensionDecl:
			owner := CanonicalOwner(namespace, v.Target.Name)
			for mi, meth := range v.Methods {
				key := OverloadKey{Owner: owner, Name: meth.FuncName, Kind: OverloadMethod}
				c.add(key, entryFromFunction(owner, meth, OverloadDeclaration{ItemIndex: idx, MemberKind: "method", MemberIdx: mi}))
			}
		}
	}
}

// entriesLenSafe returns the current entry count, or 0 for a nil set —
// used only to compute the next constructor's positional index before
// the entry itself has been appended.
func (s *OverloadSet) entriesLenSafe() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
