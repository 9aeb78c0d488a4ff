package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// vectorizableElementTypes are the scalar types a SIMD lane can hold.
var vectorizableElementTypes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true,
}

// checkVectorize validates an `@vectorize(width)`-annotated function: the
// width must be a positive power of two (TYPE0701), every non-receiver
// parameter and the return type must be a vectorizable scalar
// (TYPE0702), and the function shape must be one SIMD lowering can
// actually handle: no generics, no async, no ref/out parameters
// (TYPE0705).
func checkVectorize(ctx FunctionContext, sink *diag.Sink) {
	hint := ctx.Fn.Vectorize
	if hint == nil {
		return
	}
	if hint.Width <= 0 || hint.Width&(hint.Width-1) != 0 {
		sink.Errorf(ctx.Fn.Span, TYPE0701, "vectorize width %d must be a positive power of two", hint.Width)
	}

	for _, p := range ctx.Fn.Signature.Parameters {
		if p.IsExtensionThis {
			continue
		}
		if !vectorizableElementTypes[p.Type.Name] {
			sink.Errorf(p.Span, TYPE0702, "vectorized parameter %q has non-vectorizable element type %q", p.Name, p.Type.Name)
		}
	}
	if ret := ctx.Fn.Signature.ReturnType; ret.Name != "void" && !vectorizableElementTypes[ret.Name] {
		sink.Errorf(ctx.Fn.Span, TYPE0702, "vectorized function return type %q is not a vectorizable element type", ret.Name)
	}

	if !ctx.Fn.Generics.IsEmpty() {
		sink.Errorf(ctx.Fn.Span, TYPE0705, "vectorized function %q cannot declare generic parameters", ctx.Fn.FuncName)
	}
	if ctx.Fn.Flags.IsAsync {
		sink.Errorf(ctx.Fn.Span, TYPE0705, "vectorized function %q cannot be async", ctx.Fn.FuncName)
	}
	for _, p := range ctx.Fn.Signature.Parameters {
		if p.Modifier == ast.BindRef || p.Modifier == ast.BindOut {
			sink.Errorf(p.Span, TYPE0705, "vectorized function %q cannot take ref/out parameter %q", ctx.Fn.FuncName, p.Name)
		}
	}
}
