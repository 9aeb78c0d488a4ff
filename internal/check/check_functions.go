package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkAsyncReturn enforces that an `async` function/method returns
// Std.Async.Task or Std.Async.Task<T> with exactly one declared type
// argument.
func checkAsyncReturn(ctx FunctionContext, sink *diag.Sink) {
	if !ctx.Fn.Flags.IsAsync {
		return
	}
	ret := ctx.Fn.Signature.ReturnType
	name := normalizeNamespace(ret.Name)
	if name != "Std.Async.Task" {
		sink.Errorf(ret.Span, TCK080, "async function %q must return Std.Async.Task or Std.Async.Task<T>, got %q", ctx.Fn.FuncName, ret.String())
		return
	}
	if len(ret.GenericArgs) == 0 {
		return // bare Task, legal
	}
	if len(ret.GenericArgs) != 1 {
		sink.Errorf(ret.Span, TCK080, "Std.Async.Task takes exactly one type argument, got %d", len(ret.GenericArgs))
		return
	}
	arg := ret.GenericArgs[0]
	if arg.Type == nil || arg.Type.Name == "" || arg.Type.Name == "unspecified" {
		sink.Errorf(ret.Span, TCK080, "Std.Async.Task<T> requires a declared type argument")
	}
}

func normalizeNamespace(name string) string {
	// canonical form uses dots; accept a "::"-qualified spelling too.
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == ':' && i+1 < len(name) && name[i+1] == ':' {
			out = append(out, '.')
			i++
			continue
		}
		out = append(out, name[i])
	}
	return string(out)
}

// constFnAllowedStatements are the only statement kinds a compile-time
// function body may contain.
var constFnAllowedStatements = map[ast.StmtKind]bool{
	ast.StmtBlock: true, ast.StmtEmpty: true, ast.StmtConstDeclaration: true,
	ast.StmtVariableDeclaration: true, ast.StmtExpression: true,
	ast.StmtReturn: true, ast.StmtIf: true,
}

// checkConstFn validates a constexpr (const) function:
// non-async, non-extern, non-unsafe, no generics, no throws clause, no
// ref/out parameters, and a body restricted to the allowed statement
// shapes.
func checkConstFn(ctx FunctionContext, sink *diag.Sink) {
	if !ctx.Fn.Flags.IsConstexpr {
		return
	}
	fn := ctx.Fn
	span := fn.Span
	switch {
	case fn.Flags.IsAsync:
		sink.Errorf(span, TCK160, "const function %q cannot be async", fn.FuncName)
		return
	case fn.Flags.IsExtern:
		sink.Errorf(span, TCK160, "const function %q cannot be extern", fn.FuncName)
		return
	case fn.Flags.IsUnsafe:
		sink.Errorf(span, TCK160, "const function %q cannot be unsafe", fn.FuncName)
		return
	case !fn.Generics.IsEmpty():
		sink.Errorf(span, TCK160, "const function %q cannot declare generic parameters", fn.FuncName)
		return
	case len(fn.Signature.Throws) > 0:
		sink.Errorf(span, TCK160, "const function %q cannot declare a throws clause", fn.FuncName)
		return
	}
	for _, p := range fn.Signature.Parameters {
		if p.Modifier == ast.BindRef || p.Modifier == ast.BindOut {
			sink.Errorf(p.Span, TCK160, "const function %q cannot take ref/out parameter %q", fn.FuncName, p.Name)
			return
		}
	}
	if fn.Body == nil {
		return
	}
	checkConstFnStatement(fn.Body, fn.FuncName, sink)
}

func checkConstFnStatement(s *ast.Statement, fnName string, sink *diag.Sink) {
	if s == nil {
		return
	}
	if !constFnAllowedStatements[s.Kind] {
		sink.Errorf(s.Span, TCK161, "const function %q body cannot contain a %v statement", fnName, s.Kind)
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkConstFnStatement(inner, fnName, sink)
		}
	case ast.StmtVariableDeclaration, ast.StmtConstDeclaration:
		for _, d := range s.Declarators {
			if d.Initializer == nil {
				sink.Errorf(s.Span, TCK161, "const function %q local %q needs an initializer", fnName, d.Name)
				continue
			}
			checkConstFnExpr(d.Initializer, fnName, sink)
		}
	case ast.StmtExpression:
		checkConstFnExpr(s.Expr, fnName, sink)
	case ast.StmtReturn:
		if s.Expr != nil {
			checkConstFnExpr(s.Expr, fnName, sink)
		}
	case ast.StmtIf:
		if s.Cond != nil {
			checkConstFnExpr(s.Cond, fnName, sink)
		}
		checkConstFnStatement(s.Then, fnName, sink)
		checkConstFnStatement(s.Else, fnName, sink)
	}
}

// checkConstFnExpr rejects call targets that are not a dotted path and
// assignments whose target is not a plain local identifier; blocks,
// unary/binary ops, parens, casts, and member reads are allowed.
func checkConstFnExpr(e *ast.ExprNode, fnName string, sink *diag.Sink) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprCall:
		if e.Callee != nil && e.Callee.Kind != ast.ExprIdentifier && e.Callee.Kind != ast.ExprMemberAccess {
			sink.Errorf(e.Span, TCK161, "const function %q call target must be a dotted path", fnName)
		}
		for _, a := range e.Args {
			checkConstFnExpr(a.Value, fnName, sink)
		}
	case ast.ExprBinary:
		if e.Op == "=" && e.Left != nil && e.Left.Kind != ast.ExprIdentifier {
			sink.Errorf(e.Span, TCK161, "const function %q assignment target must be a plain local", fnName)
		}
		checkConstFnExpr(e.Left, fnName, sink)
		checkConstFnExpr(e.Right, fnName, sink)
	case ast.ExprUnary:
		checkConstFnExpr(e.Right, fnName, sink)
	case ast.ExprCast:
		checkConstFnExpr(e.Left, fnName, sink)
	case ast.ExprMemberAccess:
		checkConstFnExpr(e.Target, fnName, sink)
	case ast.ExprLambda, ast.ExprIndex, ast.ExprNew, ast.ExprAwait, ast.ExprSwitch:
		sink.Errorf(e.Span, TCK161, "const function %q body cannot contain this expression form", fnName)
	}
}

// checkDefaultArgOrdering enforces that once a parameter declares a
// default, every subsequent parameter must too, and that `ref`/`out`
// parameters never carry a default.
func checkDefaultArgOrdering(ctx FunctionContext, sink *diag.Sink) {
	seenDefault := false
	for _, p := range ctx.Fn.Signature.Parameters {
		if p.Default != nil && (p.Modifier == ast.BindRef || p.Modifier == ast.BindOut) {
			sink.Errorf(p.Span, TCK045, "parameter %q cannot bind a default value with a ref/out modifier", p.Name)
			continue
		}
		if p.Default != nil {
			seenDefault = true
			continue
		}
		if seenDefault {
			sink.Errorf(p.Span, TCK044, "parameter %q without a default follows a defaulted parameter", p.Name)
		}
	}
}
