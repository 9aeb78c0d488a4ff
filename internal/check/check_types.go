package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// resolveType reports whether ty names a known type: a builtin scalar, a
// generic type parameter in scope, or a registered declaration reachable
// either by its exact qualified name or by an unambiguous short name.
func resolveType(reg *Registry, ty ast.TypeExpr, inScope map[string]bool) (ambiguous bool) {
	if ty.Fn != nil || ty.Tuple != nil || ty.TraitObject != nil {
		return false
	}
	name := ty.Name
	if name == "" || builtinTypeNames[name] || inScope[name] {
		return false
	}
	if _, ok := reg.Lookup(name); ok {
		return false
	}
	matches := reg.LookupShort(name)
	if len(matches) == 1 {
		return false
	}
	if len(matches) > 1 {
		return true
	}
	return false
}

// checkUnknownTypes walks every field, parameter, and return type
// reachable from the registry and diagnoses TCK030 (no match) or TCK031
// (multiple candidates for an unqualified short name).
func checkUnknownTypes(reg *Registry, sink *diag.Sink) {
	for _, sym := range reg.byName {
		scope := genericScope(sym.Generics)
		switch it := sym.Item.(type) {
		case *ast.StructDecl:
			for _, f := range it.Fields {
				checkTypeRef(reg, f.Type, scope, sink)
			}
			for _, p := range it.Properties {
				checkTypeRef(reg, p.Type, scope, sink)
			}
		case *ast.InterfaceDecl:
			for _, m := range it.Methods {
				checkFunctionTypeRefs(reg, m, scope, sink)
			}
		case *ast.TraitDecl:
			for _, m := range it.Methods {
				checkFunctionTypeRefs(reg, m, scope, sink)
			}
		case *ast.DelegateDecl:
			checkSignatureTypeRefs(reg, it.Signature, scope, sink)
		}
	}
}

func checkFunctionTypeRefs(reg *Registry, fn *ast.FunctionDecl, outer map[string]bool, sink *diag.Sink) {
	scope := outer
	if !fn.Generics.IsEmpty() {
		scope = mergeScope(outer, genericScope(fn.Generics))
	}
	checkSignatureTypeRefs(reg, fn.Signature, scope, sink)
}

func checkSignatureTypeRefs(reg *Registry, sig ast.Signature, scope map[string]bool, sink *diag.Sink) {
	for _, p := range sig.Parameters {
		checkTypeRef(reg, p.Type, scope, sink)
	}
	checkTypeRef(reg, sig.ReturnType, scope, sink)
}

func checkTypeRef(reg *Registry, ty ast.TypeExpr, scope map[string]bool, sink *diag.Sink) {
	if ty.Name == "" {
		return
	}
	if resolveType(reg, ty, scope) {
		sink.Errorf(ty.Span, TCK031, "ambiguous type reference %q: multiple candidates in scope", ty.Name)
		return
	}
	if ty.Fn != nil || ty.Tuple != nil || ty.TraitObject != nil {
		return
	}
	name := ty.Name
	if name == "" || builtinTypeNames[name] || scope[name] {
		return
	}
	if _, ok := reg.Lookup(name); ok {
		return
	}
	if matches := reg.LookupShort(name); len(matches) == 1 {
		return
	}
	if len(reg.LookupShort(name)) == 0 {
		sink.Errorf(ty.Span, TCK030, "unknown type %q", ty.Name)
	}
}

func genericScope(g ast.Generics) map[string]bool {
	scope := make(map[string]bool, len(g.TypeParams))
	for _, tp := range g.TypeParams {
		scope[tp.Name] = true
	}
	return scope
}

func mergeScope(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}
