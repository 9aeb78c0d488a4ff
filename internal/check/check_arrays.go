package check

import (
	"strconv"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkArraysInStatement validates `Array<T[, N]>`-typed declarations:
// a declared length or an initializer must be present, a given length
// must agree with the initializer's element count, multi-rank arrays
// are rejected, and a bare collection literal needs an explicit array
// type rather than inferring one. The declared length is the array
// type's second const-generic argument; the initializer is the
// `new Array<T,N> { ... }` or bare `[ ... ]` collection-literal form.
func checkArraysInStatement(s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkArraysInStatement(inner, sink)
		}
	case ast.StmtVariableDeclaration:
		for _, d := range s.Declarators {
			checkArrayDeclarator(d, sink)
		}
	case ast.StmtIf:
		checkArraysInStatement(s.Then, sink)
		checkArraysInStatement(s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor:
		checkArraysInStatement(s.Then, sink)
	case ast.StmtForeach:
		checkArraysInStatement(s.ForeachBody, sink)
	}
}

func checkArrayDeclarator(d ast.Declarator, sink *diag.Sink) {
	hasBareCollectionLiteral := d.Initializer != nil && d.Initializer.Kind == ast.ExprNew &&
		d.Initializer.NewType == nil && len(d.Initializer.CollectionInit) > 0

	if d.Type == nil {
		if hasBareCollectionLiteral {
			sink.Errorf(d.Span, TCK147, "collection literal assigned to %q needs an explicit array type", d.Name)
		}
		return
	}
	if d.Type.Name != "Array" {
		return
	}
	if len(d.Type.ArrayRanks) > 0 {
		sink.Errorf(d.Type.Span, TCK144, "multi-rank arrays are unsupported")
	}

	hasInit := d.Initializer != nil && d.Initializer.Kind == ast.ExprNew && len(d.Initializer.CollectionInit) > 0
	var lengthArg *ast.ConstGenericArg
	if len(d.Type.GenericArgs) >= 2 {
		lengthArg = &d.Type.GenericArgs[1]
	}

	switch {
	case lengthArg == nil && !hasInit:
		sink.Errorf(d.Type.Span, TCK139, "array %q needs a declared length or an initializer", d.Name)
	case lengthArg != nil && hasInit:
		if lengthArg.Type != nil {
			sink.Errorf(d.Type.Span, TCK145, "array length must be a const expression when an initializer is given")
			return
		}
		n, err := strconv.Atoi(lengthArg.Evaluated)
		if err == nil && n != len(d.Initializer.CollectionInit) {
			sink.Errorf(d.Initializer.Span, TCK140, "array length %d does not match initializer element count %d", n, len(d.Initializer.CollectionInit))
		}
	}
}
