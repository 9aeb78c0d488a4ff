package check

import (
	"strings"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// SymbolKind tags what a Symbol names.
type SymbolKind int

const (
	SymStruct SymbolKind = iota
	SymUnion
	SymEnum
	SymClass
	SymInterface
	SymTrait
	SymDelegate
	SymTypeAlias
	SymConst
	SymStatic
	SymFunction
)

// Symbol is one discovered declaration, keyed by its fully-qualified
// dotted path.
type Symbol struct {
	Kind      SymbolKind
	Qualified string
	Item      ast.Item
	Generics  ast.Generics
	Span      ast.Span
}

// Registry is the symbol index populated by the discovery pass and
// consulted by every validation pass.
type Registry struct {
	// byName indexes every non-overloadable top-level declaration kind
	// by its fully-qualified name; functions are intentionally excluded
	// since they may legally overload (recorded in the overload catalog
	// instead, owned by internal/ast).
	byName map[string]*Symbol

	// byShortName indexes the same declarations, plus free functions, by
	// their final dotted segment, for the unqualified-reference ambiguity
	// check.
	byShortName map[string][]*Symbol

	structs    map[string]*ast.StructDecl // keyed by qualified name, includes classes
	interfaces map[string]*ast.InterfaceDecl
	traits     map[string]*ast.TraitDecl
	extensions []extensionEntry
	impls      []implEntry
}

type extensionEntry struct {
	decl      *ast.ExtensionDecl
	namespace string
}

type implEntry struct {
	decl      *ast.ImplDecl
	namespace string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:      make(map[string]*Symbol),
		byShortName: make(map[string][]*Symbol),
		structs:     make(map[string]*ast.StructDecl),
		interfaces:  make(map[string]*ast.InterfaceDecl),
		traits:      make(map[string]*ast.TraitDecl),
	}
}

// Discover walks the module (recursing into namespace blocks), assigns
// fully-qualified names, and records type kinds as the discovery half
// of the two-pass registration model. Duplicate non-overloadable
// top-level declarations are diagnosed with TCK400.
func (r *Registry) Discover(m *ast.Module, sink *diag.Sink) {
	r.discoverItems(m.Items, m.Namespace, sink)
}

func (r *Registry) discoverItems(items []ast.Item, namespace string, sink *diag.Sink) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.NamespaceItem:
			child := it.NamespaceName
			if namespace != "" {
				child = namespace + "." + it.NamespaceName
			}
			r.discoverItems(it.Items, child, sink)
		case *ast.StructDecl:
			qn := qualify(namespace, it.StructName)
			kind := SymStruct
			if it.IsClass {
				kind = SymClass
			}
			r.register(qn, kind, it, it.Generics, it.Span, sink)
			r.structs[qn] = it
		case *ast.UnionDecl:
			qn := qualify(namespace, it.UnionName)
			r.register(qn, SymUnion, it, it.Generics, it.Span, sink)
		case *ast.EnumDecl:
			qn := qualify(namespace, it.EnumName)
			r.register(qn, SymEnum, it, ast.Generics{}, it.Span, sink)
		case *ast.InterfaceDecl:
			qn := qualify(namespace, it.InterfaceName)
			r.register(qn, SymInterface, it, it.Generics, it.Span, sink)
			r.interfaces[qn] = it
		case *ast.TraitDecl:
			qn := qualify(namespace, it.TraitName)
			r.register(qn, SymTrait, it, it.Generics, it.Span, sink)
			r.traits[qn] = it
		case *ast.DelegateDecl:
			qn := qualify(namespace, it.DelegateName)
			r.register(qn, SymDelegate, it, it.Generics, it.Span, sink)
		case *ast.TypeAliasDecl:
			qn := qualify(namespace, it.AliasName)
			r.register(qn, SymTypeAlias, it, it.Generics, it.Span, sink)
		case *ast.ConstDecl:
			qn := qualify(namespace, it.ConstName)
			r.register(qn, SymConst, it, ast.Generics{}, it.Span, sink)
		case *ast.FunctionDecl:
			// Functions may legally overload; no TCK400 here.
			qn := qualify(namespace, it.FuncName)
			r.byShortName[it.FuncName] = append(r.byShortName[it.FuncName], &Symbol{
				Kind: SymFunction, Qualified: qn, Item: it, Generics: it.Generics, Span: it.Span,
			})
		case *ast.ExtensionDecl:
			r.extensions = append(r.extensions, extensionEntry{decl: it, namespace: namespace})
		case *ast.ImplDecl:
			r.impls = append(r.impls, implEntry{decl: it, namespace: namespace})
		}
	}
}

func (r *Registry) register(qn string, kind SymbolKind, item ast.Item, generics ast.Generics, span ast.Span, sink *diag.Sink) {
	if existing, ok := r.byName[qn]; ok {
		sink.Errorf(span, TCK400, "duplicate top-level declaration %q (first declared at %s)", qn, existing.Span.Start)
		return
	}
	sym := &Symbol{Kind: kind, Qualified: qn, Item: item, Generics: generics, Span: span}
	r.byName[qn] = sym
	short := qn
	if i := strings.LastIndex(qn, "."); i >= 0 {
		short = qn[i+1:]
	}
	r.byShortName[short] = append(r.byShortName[short], sym)
}

// Lookup returns the symbol registered under a fully-qualified name.
func (r *Registry) Lookup(qualified string) (*Symbol, bool) {
	s, ok := r.byName[qualified]
	return s, ok
}

// LookupShort returns every symbol whose final dotted segment matches
// name, used to detect ambiguous unqualified type references (TCK031).
func (r *Registry) LookupShort(name string) []*Symbol {
	return r.byShortName[name]
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
