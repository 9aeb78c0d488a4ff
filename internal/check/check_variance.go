package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkVariance walks every generic type parameter position through all
// members of its declaring struct/class/interface/trait, enforcing that
// a covariant (`out`) parameter only appears in output position and a
// contravariant (`in`) parameter only in input position.
func checkVariance(reg *Registry, sink *diag.Sink) {
	for _, sym := range reg.byName {
		var methods []*ast.FunctionDecl
		var props []ast.PropertyDecl
		var generics ast.Generics
		switch it := sym.Item.(type) {
		case *ast.StructDecl:
			methods, props, generics = it.Methods, it.Properties, it.Generics
		case *ast.InterfaceDecl:
			methods, props, generics = it.Methods, it.Properties, it.Generics
		case *ast.TraitDecl:
			methods, generics = it.Methods, it.Generics
		default:
			continue
		}
		variance := make(map[string]ast.Variance, len(generics.TypeParams))
		spans := make(map[string]ast.Span, len(generics.TypeParams))
		for _, tp := range generics.TypeParams {
			variance[tp.Name] = tp.Variance
			spans[tp.Name] = tp.Span
		}
		if len(variance) == 0 {
			continue
		}
		for _, m := range methods {
			for _, p := range m.Signature.Parameters {
				checkVariancePosition(p.Type, variance, spans, false, sink)
			}
			checkVariancePosition(m.Signature.ReturnType, variance, spans, true, sink)
		}
		for _, p := range props {
			for _, a := range p.Accessors {
				isOutput := a.Kind == ast.AccessorGet
				checkVariancePosition(p.Type, variance, spans, isOutput, sink)
			}
		}
	}
}

func checkVariancePosition(ty ast.TypeExpr, variance map[string]ast.Variance, spans map[string]ast.Span, output bool, sink *diag.Sink) {
	v, ok := variance[ty.Name]
	if !ok {
		return
	}
	switch v {
	case ast.Covariant:
		if !output {
			sink.Errorf(spans[ty.Name], TCK022, "covariant type parameter %q used in input position", ty.Name)
		}
	case ast.Contravariant:
		if output {
			sink.Errorf(spans[ty.Name], TCK022, "contravariant type parameter %q used in output position", ty.Name)
		}
	}
}
