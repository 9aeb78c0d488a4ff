package mir

import "github.com/chic-lang/chicc/internal/ast"

// CaptureCache memoises lambda capture-analysis results keyed by the
// lambda body's surface text, since the same lambda source frequently
// recurs across specializations of a generic method.
type CaptureCache struct {
	entries map[string][]CapturedLocal
	Hits    int
	Misses  int
}

func NewCaptureCache() *CaptureCache {
	return &CaptureCache{entries: make(map[string][]CapturedLocal)}
}

// Analyze returns the set of enclosing locals a lambda body closes over,
// computing and caching the result on first use for the given body text.
func (c *CaptureCache) Analyze(bodyText string, body *ast.Statement, enclosing *BodyBuilder) []CapturedLocal {
	if cached, ok := c.entries[bodyText]; ok {
		c.Hits++
		return cached
	}
	c.Misses++
	seen := make(map[string]bool)
	var captures []CapturedLocal
	collectFreeIdents(body, func(name string) {
		if seen[name] {
			return
		}
		if id, ok := enclosing.localByName(name); ok {
			seen[name] = true
			decl := enclosing.body.Locals[id]
			captures = append(captures, CapturedLocal{Name: name, Local: id, Ty: decl.Ty, Mutable: decl.Mutable})
		}
	})
	c.entries[bodyText] = captures
	return captures
}

// collectFreeIdents walks a statement tree collecting every identifier
// expression reference, passing each to visit. It does not distinguish
// bound parameters from free variables; callers filter against the
// enclosing scope via the visit callback.
func collectFreeIdents(s *ast.Statement, visit func(string)) {
	if s == nil {
		return
	}
	walkExprIn(s.Expr, visit)
	walkExprIn(s.Cond, visit)
	for _, inner := range s.Body {
		collectFreeIdents(inner, visit)
	}
	collectFreeIdents(s.Then, visit)
	collectFreeIdents(s.Else, visit)
	collectFreeIdents(s.ForeachBody, visit)
	for _, sec := range s.SwitchSections {
		for _, st := range sec.Statements {
			collectFreeIdents(st, visit)
		}
	}
	collectFreeIdents(s.TryBody, visit)
	for _, c := range s.Catches {
		collectFreeIdents(c.Body, visit)
	}
	collectFreeIdents(s.Finally, visit)
}

func walkExprIn(e *ast.ExprNode, visit func(string)) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprIdentifier:
		visit(e.Name)
	case ast.ExprBinary:
		walkExprIn(e.Left, visit)
		walkExprIn(e.Right, visit)
	case ast.ExprUnary:
		walkExprIn(e.Right, visit)
	case ast.ExprCall:
		walkExprIn(e.Callee, visit)
		for _, a := range e.Args {
			walkExprIn(a.Value, visit)
		}
	case ast.ExprMemberAccess:
		walkExprIn(e.Target, visit)
	case ast.ExprIndex:
		walkExprIn(e.Target, visit)
		for _, a := range e.IndexArgs {
			walkExprIn(a, visit)
		}
	case ast.ExprTuple:
		for _, el := range e.TupleElements {
			walkExprIn(el, visit)
		}
	}
}
