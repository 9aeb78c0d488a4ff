// Package ast is the in-memory data model produced by the parser core and
// consumed (read-only) by the type checker and MIR builder.
package ast

import "github.com/chic-lang/chicc/internal/diag"

// Span is re-exported locally so AST files read naturally as `ast.Span`
// while every phase still shares the same underlying diag.Span value.
type Span = diag.Span

// Visibility is the declared accessibility of an Item or member.
type Visibility int

const (
	Public Visibility = iota
	Internal
	Protected
	Private
	ProtectedInternal
	PrivateProtected
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case Private:
		return "private"
	case ProtectedInternal:
		return "protected internal"
	case PrivateProtected:
		return "private protected"
	default:
		return "unknown"
	}
}

// Variance is a generic type parameter's declared variance.
type Variance int

const (
	Invariant Variance = iota
	Covariant              // "out"
	Contravariant          // "in"
)

// Attribute is either a recognised Builtin attribute or an opaque Macro
// attribute preserved verbatim.
type Attribute struct {
	Name      string
	Args      []AttributeArg
	IsBuiltin bool
	// RawTokens holds the unexpanded token text for macro attributes.
	RawTokens  string
	Expandable bool
	Span       Span
}

// AttributeArg is a single `name=value` or positional attribute argument.
type AttributeArg struct {
	Name  string // empty for positional arguments
	Value string
}

// Lookup returns the first argument named name, if present.
func (a Attribute) Lookup(name string) (string, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return "", false
}

// TriState models an Option<bool> auto-trait override: unspecified,
// explicitly true, or explicitly false.
type TriState int

const (
	Unspecified TriState = iota
	True
	False
)

// AutoTraitOverrides captures `@thread_safe`/`@shareable`/Copy overrides
// on an aggregate.
type AutoTraitOverrides struct {
	ThreadSafe TriState
	Shareable  TriState
	Copy       TriState
}

// TypeParam is a generic type parameter with variance and constraints.
type TypeParam struct {
	Name        string
	Variance    Variance
	Constraints []TypeExpr
	Span        Span
}

// ConstGenericParam is a const generic parameter with a typed value and
// optional predicate constraint (e.g. `const N: usize where N > 0`).
type ConstGenericParam struct {
	Name      string
	ValueType TypeExpr
	Predicate *Expression
	Span      Span
}

// Generics bundles type and const generic parameter lists.
type Generics struct {
	TypeParams  []TypeParam
	ConstParams []ConstGenericParam
}

func (g *Generics) IsEmpty() bool {
	return g == nil || (len(g.TypeParams) == 0 && len(g.ConstParams) == 0)
}

// DocComment is the accumulated `///` lines preceding a declaration.
type DocComment struct {
	Lines []string
}

func (d DocComment) String() string {
	out := ""
	for i, l := range d.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// ItemBase holds the fields every top-level Item carries.
type ItemBase struct {
	Visibility Visibility
	Attributes []Attribute
	Doc        DocComment
	Span       Span
}

// Item is the tagged variant over every top-level declaration kind.
type Item interface {
	itemNode()
	Base() *ItemBase
	Name() string
}

func (b *ItemBase) Base() *ItemBase { return b }

// ImportKind distinguishes the five import directive forms.
type ImportKind int

const (
	ImportPlain ImportKind = iota
	ImportGlobal
	ImportAlias
	ImportStatic
	ImportCImport
)

// ImportItem is the `Item` wrapper for an ImportDirective so imports can
// live in Module.Items alongside other declarations.
type ImportItem struct {
	ItemBase
	Directive ImportDirective
}

func (*ImportItem) itemNode()     {}
func (i *ImportItem) Name() string { return i.Directive.Target }

// ImportDirective models `import X`, `global import X`, `import Alias =
// X`, `import static X`, and the synthetic CImport directive emitted for
// `@cimport` on an extern function.
type ImportDirective struct {
	Doc      DocComment
	IsGlobal bool
	Kind     ImportKind
	Target   string
	Alias    string // set only for ImportAlias
	Span     Span
}

// NamespaceItem models `namespace Foo { ... }` (a scoped block, not the
// file-scoped `namespace Foo;` form which instead sets Module.Namespace).
type NamespaceItem struct {
	ItemBase
	NamespaceName string
	Items         []Item
}

func (*NamespaceItem) itemNode()      {}
func (n *NamespaceItem) Name() string { return n.NamespaceName }

// StdAttr / MainAttr model the crate-wide `#![...]` attribute settings.
type StdAttr int

const (
	StdUnspecified StdAttr = iota
	StdStd
	StdNoStd
)

type MainAttr int

const (
	MainUnspecified MainAttr = iota
	MainNoMain
)

// FriendDirective models a `@friend("Other.Namespace")`-style grant.
type FriendDirective struct {
	Target string
	Span   Span
}

// Module is the top-level parsed unit.
type Module struct {
	Namespace     string
	NamespaceSpan Span

	Std  StdAttr
	Main MainAttr

	NamespaceAttributes []Attribute
	Friends             []FriendDirective
	PackageImports      []string

	Items []Item

	overloads     *OverloadCatalog
	overloadsDone bool
}

// NewModule returns an empty module ready to accumulate items.
func NewModule() *Module {
	return &Module{overloads: NewOverloadCatalog()}
}

// PushItem appends an item and marks the overload catalog dirty.
func (m *Module) PushItem(it Item) {
	m.Items = append(m.Items, it)
	m.overloadsDone = false
}

// OverloadsDirty reports whether RebuildOverloads must run before the
// catalog can be queried.
func (m *Module) OverloadsDirty() bool {
	return !m.overloadsDone
}

// Overloads returns the cached catalog. Calling it while dirty is a
// debug-checked invariant violation.
func (m *Module) Overloads() *OverloadCatalog {
	if !m.overloadsDone {
		panic("ast: Module.Overloads called while overload catalog is dirty; call RebuildOverloads first")
	}
	return m.overloads
}

// RebuildOverloads recomputes the overload catalog from the current item
// list. Idempotent: calling it twice in a row without an intervening
// PushItem yields the same catalog.
func (m *Module) RebuildOverloads() {
	m.overloads = buildOverloadCatalog(m)
	m.overloadsDone = true
}
