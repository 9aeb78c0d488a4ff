package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkLends validates `lends(...)` borrow annotations: every named
// target must be another parameter of the same signature (TCK181 for a
// parameter's own `lends` clause, TCK182 for the signature-level
// `lends_to_return` list), and a return value cannot claim to borrow
// from a by-value parameter (TCK183).
func checkLends(ctx FunctionContext, sink *diag.Sink) {
	sig := ctx.Fn.Signature
	names := make(map[string]ast.Parameter, len(sig.Parameters))
	for _, p := range sig.Parameters {
		names[p.Name] = p
	}

	for _, p := range sig.Parameters {
		if p.Lends == nil {
			continue
		}
		for _, target := range p.Lends.Targets {
			if _, ok := names[target]; !ok {
				sink.Errorf(p.Lends.Span, TCK181, "parameter %q lends from unknown parameter %q", p.Name, target)
			}
		}
	}

	for _, target := range sig.LendsToReturn {
		tp, ok := names[target]
		if !ok {
			sink.Errorf(ctx.Fn.Span, TCK182, "return value lends from unknown parameter %q", target)
			continue
		}
		if tp.Modifier == ast.BindValue {
			sink.Errorf(ctx.Fn.Span, TCK183, "return value cannot borrow from by-value parameter %q", target)
		}
	}
}
