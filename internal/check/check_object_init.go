package check

import (
	"strings"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkObjectInitCallsInStatement walks every `new Type { ... }` object
// initializer reachable from a function body and diagnoses TCK190 when
// a required field/property (accumulated up the inheritance chain) is
// missing from the initializer's member list.
func checkObjectInitCallsInStatement(reg *Registry, s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkObjectInitCallsInStatement(reg, inner, sink)
		}
	case ast.StmtVariableDeclaration, ast.StmtConstDeclaration:
		for _, d := range s.Declarators {
			checkObjectInitCallsInExpr(reg, d.Initializer, sink)
		}
	case ast.StmtExpression, ast.StmtReturn, ast.StmtThrow, ast.StmtYieldReturn:
		checkObjectInitCallsInExpr(reg, s.Expr, sink)
	case ast.StmtIf:
		checkObjectInitCallsInExpr(reg, s.Cond, sink)
		checkObjectInitCallsInStatement(reg, s.Then, sink)
		checkObjectInitCallsInStatement(reg, s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile:
		checkObjectInitCallsInExpr(reg, s.Cond, sink)
		checkObjectInitCallsInStatement(reg, s.Then, sink)
	case ast.StmtFor:
		checkObjectInitCallsInStatement(reg, s.Then, sink)
	case ast.StmtForeach:
		checkObjectInitCallsInExpr(reg, s.ForeachSeq, sink)
		checkObjectInitCallsInStatement(reg, s.ForeachBody, sink)
	}
}

func checkObjectInitCallsInExpr(reg *Registry, e *ast.ExprNode, sink *diag.Sink) {
	if e == nil {
		return
	}
	if e.Kind == ast.ExprNew && e.NewType != nil && len(e.InitMembers) > 0 {
		checkRequiredMembers(reg, e, sink)
	}
	checkObjectInitCallsInExpr(reg, e.Left, sink)
	checkObjectInitCallsInExpr(reg, e.Right, sink)
	checkObjectInitCallsInExpr(reg, e.Callee, sink)
	checkObjectInitCallsInExpr(reg, e.Target, sink)
	checkObjectInitCallsInExpr(reg, e.Inner, sink)
	checkObjectInitCallsInExpr(reg, e.PatternExpr, sink)
	for _, a := range e.Args {
		checkObjectInitCallsInExpr(reg, a.Value, sink)
	}
	for _, m := range e.InitMembers {
		checkObjectInitCallsInExpr(reg, m.Value, sink)
	}
	for _, c := range e.CollectionInit {
		checkObjectInitCallsInExpr(reg, c, sink)
	}
	for _, idx := range e.IndexArgs {
		checkObjectInitCallsInExpr(reg, idx, sink)
	}
	for _, t := range e.TupleElements {
		checkObjectInitCallsInExpr(reg, t, sink)
	}
	for _, x := range e.Expressions {
		checkObjectInitCallsInExpr(reg, x, sink)
	}
	if e.LambdaBody != nil {
		checkObjectInitCallsInStatement(reg, e.LambdaBody, sink)
	}
}

func checkRequiredMembers(reg *Registry, e *ast.ExprNode, sink *diag.Sink) {
	st := resolveStruct(reg, e.NewType.Name)
	if st == nil {
		return
	}
	assigned := make(map[string]bool, len(e.InitMembers))
	for _, m := range e.InitMembers {
		assigned[m.Name] = true
	}
	for _, name := range requiredMembers(reg, st, map[string]bool{}) {
		if !assigned[name] {
			sink.Errorf(e.Span, TCK190, "object initializer for %q is missing required member `%s`", st.StructName, name)
		}
	}
}

func resolveStruct(reg *Registry, name string) *ast.StructDecl {
	sym, ok := reg.Lookup(name)
	if !ok {
		matches := reg.LookupShort(name)
		if len(matches) != 1 {
			return nil
		}
		sym = matches[0]
	}
	st, ok := sym.Item.(*ast.StructDecl)
	if !ok {
		return nil
	}
	return st
}

// requiredMembers accumulates the required field/property names of st
// and every base type reachable through Bases (§5 "new expressions":
// "accumulating the required set up the inheritance chain"). visited
// guards against a cyclic Bases chain.
func requiredMembers(reg *Registry, st *ast.StructDecl, visited map[string]bool) []string {
	if visited[st.StructName] {
		return nil
	}
	visited[st.StructName] = true

	var names []string
	for _, f := range st.Fields {
		if f.IsRequired {
			names = append(names, f.Name)
		}
	}
	for _, p := range st.Properties {
		if p.IsRequired {
			names = append(names, p.Name)
		}
	}
	for _, base := range st.Bases {
		baseName := strings.TrimSpace(base.Name)
		if baseName == "" {
			continue
		}
		if baseStruct := resolveStruct(reg, baseName); baseStruct != nil {
			names = append(names, requiredMembers(reg, baseStruct, visited)...)
		}
	}
	return names
}
