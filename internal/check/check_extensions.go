package check

import "github.com/chic-lang/chicc/internal/diag"

// checkExtensions resolves each extension's target type and validates
// it: the target must resolve unambiguously (TCK011) to a struct or
// class (TCK012), and a default-extension's single constraint must
// name an interface (DIM0001).
func checkExtensions(reg *Registry, sink *diag.Sink) {
	for _, e := range reg.extensions {
		decl := e.decl
		sym, ambiguous := resolveTargetSymbol(reg, decl.Target.Name, e.namespace)
		if ambiguous {
			sink.Errorf(decl.Target.Span, TCK011, "extension target %q is ambiguous: multiple candidates in scope", decl.Target.Name)
			continue
		}
		if sym == nil {
			continue // unknown type already reported by TCK030
		}
		if sym.Kind != SymStruct && sym.Kind != SymClass {
			sink.Errorf(decl.Target.Span, TCK012, "extension target %q must be a struct or class", decl.Target.Name)
		}
		if decl.IsDefault {
			if len(decl.Constraints) != 1 {
				sink.Errorf(decl.Span, DIM0001, "default extension must declare exactly one constraint")
				continue
			}
			ifaceSym, _ := resolveTargetSymbol(reg, decl.Constraints[0].InterfaceName, e.namespace)
			if ifaceSym != nil && ifaceSym.Kind != SymInterface {
				sink.Errorf(decl.Constraints[0].Span, DIM0001, "default extension constraint %q must name an interface", decl.Constraints[0].InterfaceName)
			}
		}
	}
}

// checkImpls validates `impl Trait for Target` blocks: an inherent impl
// with no trait is rejected (TCK099), a blanket impl over a bare
// generic parameter is rejected (TCK095), the named trait must resolve
// to a known trait (TCK092), and every trait method/associated type
// without a default must be supplied (TCK098).
func checkImpls(reg *Registry, sink *diag.Sink) {
	for _, e := range reg.impls {
		decl := e.decl
		if decl.Trait == nil {
			sink.Errorf(decl.Span, TCK099, "inherent impls are unsupported; declare the methods on the type itself")
			continue
		}
		for _, tp := range decl.Generics.TypeParams {
			if tp.Name == decl.Target.Name {
				sink.Errorf(decl.Target.Span, TCK095, "blanket impl over generic parameter %q is unsupported", decl.Target.Name)
			}
		}

		traitSym, ambiguous := resolveTargetSymbol(reg, decl.Trait.Name, e.namespace)
		if ambiguous || traitSym == nil || traitSym.Kind != SymTrait {
			sink.Errorf(decl.Trait.Span, TCK092, "unknown trait %q", decl.Trait.Name)
			continue
		}
		traitDecl, ok := reg.traits[traitSym.Qualified]
		if !ok {
			continue
		}

		implMethods := make(map[string]bool, len(decl.Methods))
		for _, m := range decl.Methods {
			implMethods[m.FuncName] = true
		}
		for _, tm := range traitDecl.Methods {
			if tm.Body == nil && !implMethods[tm.FuncName] {
				sink.Errorf(decl.Span, TCK098, "impl of %q for %q is missing method %q", decl.Trait.Name, decl.Target.Name, tm.FuncName)
			}
		}
		implAssoc := make(map[string]bool, len(decl.AssociatedTypes))
		for _, a := range decl.AssociatedTypes {
			implAssoc[a.Name] = true
		}
		for _, ta := range traitDecl.AssociatedTypes {
			if ta.Default == nil && !implAssoc[ta.Name] {
				sink.Errorf(decl.Span, TCK098, "impl of %q for %q is missing associated type %q", decl.Trait.Name, decl.Target.Name, ta.Name)
			}
		}
	}
}

// resolveTargetSymbol looks a bare name up first within namespace, then
// by its unambiguous short name; ambiguous reports true when more than
// one short-name candidate exists and none qualifies exactly.
func resolveTargetSymbol(reg *Registry, name, namespace string) (sym *Symbol, ambiguous bool) {
	if s, ok := reg.Lookup(qualify(namespace, name)); ok {
		return s, false
	}
	if s, ok := reg.Lookup(name); ok {
		return s, false
	}
	matches := reg.LookupShort(name)
	if len(matches) == 1 {
		return matches[0], false
	}
	if len(matches) > 1 {
		return nil, true
	}
	return nil, false
}
