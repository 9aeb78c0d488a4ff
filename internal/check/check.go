package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// Check runs the two-pass registration/validation model over m and
// returns every diagnostic raised. It never panics: a structurally
// broken module still yields best-effort diagnostics.
func Check(m *ast.Module) *diag.Sink {
	sink := diag.NewSink()
	reg := NewRegistry()
	reg.Discover(m, sink)

	checkExtensions(reg, sink)
	checkImpls(reg, sink)
	checkVariance(reg, sink)
	checkUnknownTypes(reg, sink)
	checkAtomicStructs(reg, sink)

	ops := newOperatorTracker()
	walkAllFunctions(m, func(ctx FunctionContext) {
		checkAsyncReturn(ctx, sink)
		checkConstFn(ctx, sink)
		checkDefaultArgOrdering(ctx, sink)
		checkLends(ctx, sink)
		checkVectorize(ctx, sink)
		if ctx.Fn.Operator != ast.NotOperator {
			ops.record(ctx, sink)
		}
		if ctx.Fn.Body != nil {
			checkArraysInStatement(ctx.Fn.Body, sink)
			checkNumericLiteralsInStatement(ctx.Fn.Body, sink)
			checkPatternsInStatement(ctx.Fn.Body, sink)
			checkAtomicsInStatement(ctx.Fn.Body, sink)
			checkCompareExchangeCallsInStatement(ctx.Fn.Body, sink)
			checkConstructorCallsInStatement(reg, ctx.Fn.Body, sink)
			checkObjectInitCallsInStatement(reg, ctx.Fn.Body, sink)
		}
	})
	ops.finish(sink)

	return sink
}

// FunctionContext carries a FunctionDecl plus the context needed by
// validations that care about its owner (operator checks need the owner
// type, variance needs the owner's generic parameter list).
type FunctionContext struct {
	Fn          *ast.FunctionDecl
	OwnerName   string
	OwnerKind   string // "struct", "class", "interface", "trait", "impl", "extension", "free"
	IsCtor      bool
	OwnerFields []ast.FieldDecl // fields of the owning struct/class
}

// walkAllFunctions visits every free function, method, and constructor
// in the module, recursing into namespace blocks.
func walkAllFunctions(m *ast.Module, visit func(FunctionContext)) {
	walkItemsForFunctions(m.Items, visit)
}

func walkItemsForFunctions(items []ast.Item, visit func(FunctionContext)) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.NamespaceItem:
			walkItemsForFunctions(it.Items, visit)
		case *ast.StructDecl:
			kind := "struct"
			if it.IsClass {
				kind = "class"
			}
			for _, fn := range it.Methods {
				visit(FunctionContext{Fn: fn, OwnerName: it.StructName, OwnerKind: kind, OwnerFields: it.Fields})
			}
			for _, ctor := range it.Constructors {
				visit(FunctionContext{Fn: ctor, OwnerName: it.StructName, OwnerKind: kind, IsCtor: true, OwnerFields: it.Fields})
			}
		case *ast.InterfaceDecl:
			for _, fn := range it.Methods {
				visit(FunctionContext{Fn: fn, OwnerName: it.InterfaceName, OwnerKind: "interface"})
			}
		case *ast.TraitDecl:
			for _, fn := range it.Methods {
				visit(FunctionContext{Fn: fn, OwnerName: it.TraitName, OwnerKind: "trait"})
			}
		case *ast.ImplDecl:
			for _, fn := range it.Methods {
				visit(FunctionContext{Fn: fn, OwnerName: it.Target.Name, OwnerKind: "impl"})
			}
		case *ast.ExtensionDecl:
			for _, fn := range it.Methods {
				visit(FunctionContext{Fn: fn, OwnerName: it.Target.Name, OwnerKind: "extension"})
			}
		case *ast.FunctionDecl:
			visit(FunctionContext{Fn: it, OwnerKind: "free"})
		}
	}
}

// builtinTypeNames is the set of primitive type names the checker
// recognises without a registry lookup, including the numeric-literal
// aliases (long, ulong, usize) alongside the plain scalar/void set.
var builtinTypeNames = map[string]bool{
	"void": true, "bool": true, "char": true, "string": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true, "decimal": true,
	"usize": true, "isize": true,
	// C#-style integer aliases: int is the source language's primary
	// integer spelling, used throughout every original_source/ test and
	// spec.md §8 scenario.
	"int": true, "uint": true,
	"long": true, "ulong": true,
	"short": true, "ushort": true,
	"byte": true, "sbyte": true,
	"System.UIntPtr": true, "System.IntPtr": true,
	"Self": true, "this": true,
}
