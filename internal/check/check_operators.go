package check

import (
	"strings"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// operatorTracker accumulates one owning type's declared relational/
// equality operators so the paired-operator rule can be checked once
// every method has been visited.
type operatorTracker struct {
	seen map[string]map[string]ast.Span // ownerName -> operator symbol -> span
}

func newOperatorTracker() *operatorTracker {
	return &operatorTracker{seen: make(map[string]map[string]ast.Span)}
}

var relationalPairs = map[string]string{
	"==": "!=", "!=": "==",
	"<": ">", ">": "<",
	"<=": ">=", ">=": "<=",
}

// record validates the shape of a single operator declaration
// and records it for the cross-method pairing check.
func (t *operatorTracker) record(ctx FunctionContext, sink *diag.Sink) {
	fn := ctx.Fn
	if fn.Visibility != ast.Public {
		sink.Errorf(fn.Span, TCK150, "operator %q must be declared public", fn.FuncName)
	}
	params := fn.Signature.Parameters
	ownsOwner := false
	for _, p := range params {
		if p.Type.Name == ctx.OwnerName {
			ownsOwner = true
			break
		}
	}
	switch fn.Operator {
	case ast.UnaryOperator:
		if len(params) != 1 {
			sink.Errorf(fn.Span, TCK150, "unary operator %q must take exactly one parameter", fn.FuncName)
		} else if params[0].Type.Name != ctx.OwnerName {
			sink.Errorf(fn.Span, TCK150, "unary operator %q parameter must be the owning type", fn.FuncName)
		}
	case ast.BinaryOperator:
		if len(params) < 1 || !ownsOwner {
			sink.Errorf(fn.Span, TCK150, "operator %q must take at least one parameter of the owning type", fn.FuncName)
		}
		if sym := opSymbol(fn.FuncName); isRelational(sym) && fn.Signature.ReturnType.Name != "bool" {
			sink.Errorf(fn.Span, TCK150, "relational operator %q must return bool", sym)
		}
	case ast.ConversionOperator:
		retIsOwner := fn.Signature.ReturnType.Name == ctx.OwnerName
		if !ownsOwner && !retIsOwner {
			sink.Errorf(fn.Span, TCK150, "conversion operator %q must have the owning type as its parameter or return type", fn.FuncName)
		}
	}

	if sym := opSymbol(fn.FuncName); isRelational(sym) {
		owners, ok := t.seen[ctx.OwnerName]
		if !ok {
			owners = make(map[string]ast.Span)
			t.seen[ctx.OwnerName] = owners
		}
		owners[sym] = fn.Span
	}
}

func opSymbol(funcName string) string {
	return strings.TrimPrefix(funcName, "op_")
}

func isRelational(opName string) bool {
	_, ok := relationalPairs[opName]
	return ok
}

// finish checks that every recorded relational/equality operator has its
// counterpart declared on the same owner.
func (t *operatorTracker) finish(sink *diag.Sink) {
	for owner, ops := range t.seen {
		for op, span := range ops {
			counterpart := relationalPairs[op]
			if _, ok := ops[counterpart]; !ok {
				sink.Errorf(span, TCK151, "operator %q on %q has no matching %q counterpart", op, owner, counterpart)
			}
		}
	}
}
