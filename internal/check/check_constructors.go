package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkConstructorCallsInStatement walks every `new Type(...)` call
// reachable from a function body and diagnoses TCK131 when the
// argument count matches none of the target type's declared
// constructors, accounting for trailing defaulted parameters.
func checkConstructorCallsInStatement(reg *Registry, s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkConstructorCallsInStatement(reg, inner, sink)
		}
	case ast.StmtVariableDeclaration, ast.StmtConstDeclaration:
		for _, d := range s.Declarators {
			checkConstructorCallsInExpr(reg, d.Initializer, sink)
		}
	case ast.StmtExpression, ast.StmtReturn, ast.StmtThrow, ast.StmtYieldReturn:
		checkConstructorCallsInExpr(reg, s.Expr, sink)
	case ast.StmtIf:
		checkConstructorCallsInExpr(reg, s.Cond, sink)
		checkConstructorCallsInStatement(reg, s.Then, sink)
		checkConstructorCallsInStatement(reg, s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile:
		checkConstructorCallsInExpr(reg, s.Cond, sink)
		checkConstructorCallsInStatement(reg, s.Then, sink)
	case ast.StmtFor:
		checkConstructorCallsInStatement(reg, s.Then, sink)
	case ast.StmtForeach:
		checkConstructorCallsInExpr(reg, s.ForeachSeq, sink)
		checkConstructorCallsInStatement(reg, s.ForeachBody, sink)
	}
}

func checkConstructorCallsInExpr(reg *Registry, e *ast.ExprNode, sink *diag.Sink) {
	if e == nil {
		return
	}
	if e.Kind == ast.ExprNew && e.NewType != nil && len(e.Args) > 0 {
		checkConstructorArity(reg, e, sink)
	}
	checkConstructorCallsInExpr(reg, e.Left, sink)
	checkConstructorCallsInExpr(reg, e.Right, sink)
	checkConstructorCallsInExpr(reg, e.Callee, sink)
	checkConstructorCallsInExpr(reg, e.Target, sink)
	checkConstructorCallsInExpr(reg, e.Inner, sink)
	checkConstructorCallsInExpr(reg, e.PatternExpr, sink)
	for _, a := range e.Args {
		checkConstructorCallsInExpr(reg, a.Value, sink)
	}
	for _, m := range e.InitMembers {
		checkConstructorCallsInExpr(reg, m.Value, sink)
	}
	for _, c := range e.CollectionInit {
		checkConstructorCallsInExpr(reg, c, sink)
	}
	for _, idx := range e.IndexArgs {
		checkConstructorCallsInExpr(reg, idx, sink)
	}
	for _, t := range e.TupleElements {
		checkConstructorCallsInExpr(reg, t, sink)
	}
	for _, x := range e.Expressions {
		checkConstructorCallsInExpr(reg, x, sink)
	}
	if e.LambdaBody != nil {
		checkConstructorCallsInStatement(reg, e.LambdaBody, sink)
	}
}

func checkConstructorArity(reg *Registry, e *ast.ExprNode, sink *diag.Sink) {
	sym, ok := reg.Lookup(e.NewType.Name)
	if !ok {
		matches := reg.LookupShort(e.NewType.Name)
		if len(matches) != 1 {
			return
		}
		sym = matches[0]
	}
	st, ok := sym.Item.(*ast.StructDecl)
	if !ok || len(st.Constructors) == 0 {
		return
	}
	argc := len(e.Args)
	for _, ctor := range st.Constructors {
		min, max := 0, len(ctor.Signature.Parameters)
		for _, p := range ctor.Signature.Parameters {
			if p.Default == nil {
				min++
			}
		}
		if argc >= min && argc <= max {
			return
		}
	}
	sink.Errorf(e.Span, TCK131, "no constructor of %q accepts %d argument(s)", st.StructName, argc)
}
