package arena

import "github.com/chic-lang/chicc/internal/ast"

// slack applies a "50%+4" headroom over a derived budget, leaving room
// for growth without constant reallocation.
func slack(n int) int {
	return n + n/2 + 4
}

// Allocations is the per-category budget/usage snapshot derived from a
// module's declared shape.
type Allocations struct {
	SignatureBudget int
	SignatureUsed   int
	TypeInfoBudget  int
	TypeInfoUsed    int
	TraitInfoBudget int
	TraitInfoUsed   int

	// Overrun is set (never panics in release) when a category exceeds
	// its derived budget; debug builds may assert on it instead.
	Overrun bool
}

// Observe folds a newly finished module's shape into the running
// budget/usage counters.
func (a *Allocations) Observe(m *ast.Module) {
	funcs, types, traits := countShapes(m.Items)

	a.SignatureBudget += slack(funcs)
	a.SignatureUsed += funcs
	a.TypeInfoBudget += slack(types)
	a.TypeInfoUsed += types
	a.TraitInfoBudget += slack(traits)
	a.TraitInfoUsed += traits

	if a.SignatureUsed > a.SignatureBudget ||
		a.TypeInfoUsed > a.TypeInfoBudget ||
		a.TraitInfoUsed > a.TraitInfoBudget {
		a.Overrun = true
	}
}

// countShapes walks a module's items (recursing into namespaces) and
// returns counts of: signatures (free functions + methods +
// constructors), type infos (struct/class/union/enum/interface), and
// trait infos (trait declarations).
func countShapes(items []ast.Item) (funcs, types, traits int) {
	for _, it := range items {
		switch v := it.(type) {
		case *ast.FunctionDecl:
			funcs++
		case *ast.NamespaceItem:
			f, t, tr := countShapes(v.Items)
			funcs += f
			types += t
			traits += tr
		case *ast.StructDecl:
			types++
			funcs += len(v.Methods) + len(v.Constructors)
		case *ast.UnionDecl:
			types++
		case *ast.EnumDecl:
			types++
		case *ast.InterfaceDecl:
			types++
			funcs += len(v.Methods)
		case *ast.TraitDecl:
			traits++
			funcs += len(v.Methods)
		case *ast.ImplDecl:
			funcs += len(v.Methods)
		case *ast.ExtensionDecl:
			funcs += len(v.Methods)
		}
	}
	return
}

// DebugAssertWithinBudget panics iff debugAsserts is true and the
// budget has overrun. Budget overruns are debug-asserts, not panics in
// release builds.
func (a Allocations) DebugAssertWithinBudget(debugAsserts bool) {
	if debugAsserts && a.Overrun {
		panic("arena: allocation budget exceeded")
	}
}
