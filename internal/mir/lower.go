package mir

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// LoweredModule is the result of lowering a checked AST module: every
// function/method/constructor/accessor body, the static registry, and
// every trait/class vtable, plus the diagnostics raised during lowering.
type LoweredModule struct {
	Functions []*MirBody
	Statics   *StaticRegistry
	TraitVTables []TraitVTable
	ClassVTables []ClassVTable
	Diagnostics *diag.Sink
}

// LowerModule lowers every function, method, constructor, and property
// accessor in m, registers its statics, and emits trait/class vtables in
// discovery order (§5 "Trait vtables are appended in discovery order").
func LowerModule(m *ast.Module) *LoweredModule {
	lm := &LoweredModule{
		Statics:     NewStaticRegistry(),
		Diagnostics: diag.NewSink(),
	}
	lowerItems(m.Items, m.Namespace, lm)
	return lm
}

func lowerItems(items []ast.Item, namespace string, lm *LoweredModule) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.NamespaceItem:
			child := it.NamespaceName
			if namespace != "" {
				child = namespace + "." + it.NamespaceName
			}
			lowerItems(it.Items, child, lm)
		case *ast.StructDecl:
			lowerStruct(it, namespace, lm)
		case *ast.InterfaceDecl:
			// Interfaces carry no lowerable bodies (only signatures).
		case *ast.TraitDecl:
			for _, m := range it.Methods {
				if m.Body != nil {
					lm.Functions = append(lm.Functions, lowerFunction(m, it.TraitName, namespace, lm.Diagnostics))
				}
			}
		case *ast.ImplDecl:
			lowerImpl(it, namespace, lm)
		case *ast.ExtensionDecl:
			for _, m := range it.Methods {
				lm.Functions = append(lm.Functions, lowerFunction(m, it.Target.Name, namespace, lm.Diagnostics))
			}
		case *ast.FunctionDecl:
			lm.Functions = append(lm.Functions, lowerFunction(it, "", namespace, lm.Diagnostics))
		case *ast.StaticDecl:
			lm.Statics.Register(StaticEntry{Name: it.StaticName, Ty: TyFromAst(it.Type), Mutable: it.Mutable, Span: it.Span})
		}
	}
}

func lowerStruct(it *ast.StructDecl, namespace string, lm *LoweredModule) {
	for _, f := range it.Fields {
		if f.IsStatic {
			lm.Statics.Register(StaticEntry{Name: f.Name, Owner: it.StructName, Ty: TyFromAst(f.Type), Mutable: !f.IsReadonly, Span: f.Span})
		}
	}
	for _, ctor := range it.Constructors {
		lm.Functions = append(lm.Functions, lowerFunction(ctor, it.StructName, namespace, lm.Diagnostics))
	}
	for _, m := range it.Methods {
		if m.Body != nil {
			lm.Functions = append(lm.Functions, lowerFunction(m, it.StructName, namespace, lm.Diagnostics))
		}
	}
	for _, p := range it.Properties {
		for _, acc := range p.Accessors {
			if body := accessorBody(p, acc); body != nil || acc.Body == ast.AccessorExpression {
				lm.Functions = append(lm.Functions, lowerAccessor(it.StructName, p, acc, lm.Diagnostics))
			}
		}
	}
	for _, nested := range it.NestedTypes {
		lowerItems([]ast.Item{nested}, namespace+"."+it.StructName, lm)
	}
	if vt := BuildClassVTable(it); len(vt.Slots) > 0 {
		lm.ClassVTables = append(lm.ClassVTables, vt)
	}
}

func accessorBody(p ast.PropertyDecl, acc ast.Accessor) *ast.Statement {
	if acc.Body == ast.AccessorBlock {
		return acc.Block
	}
	return nil
}

func accessorName(typeName string, p ast.PropertyDecl, acc ast.Accessor) string {
	kind := "get"
	switch acc.Kind {
	case ast.AccessorSet:
		kind = "set"
	case ast.AccessorInit:
		kind = "init"
	}
	return typeName + "::" + p.Name + "$" + kind
}

func lowerAccessor(typeName string, p ast.PropertyDecl, acc ast.Accessor, sink *diag.Sink) *MirBody {
	name := accessorName(typeName, p, acc)
	b := NewBodyBuilder(name, p.Span, sink)
	b.AddArg("self", Named(typeName), false, p.Span)
	if acc.Kind != ast.AccessorGet {
		b.AddArg("value", TyFromAst(p.Type), false, p.Span)
	}
	switch acc.Body {
	case ast.AccessorBlock:
		b.LowerBlock(acc.Block)
	case ast.AccessorExpression:
		v := b.lowerExprOperand(acc.Expr)
		b.body.Terminate(b.current, Terminator{Kind: TermReturn, Span: p.Span, ReturnValue: &v})
		b.current = b.body.NewBlock()
	}
	return b.body
}

// lowerImpl lowers each impl method body and, for a trait impl, emits a
// TraitVTable whose slots follow the impl's own method-declaration
// order; the trait declaration is not consulted here, so trait default
// methods the impl omits get no slot. BuildTraitVTable, given the
// resolved trait declaration, produces trait-declaration order with
// default-method fallback.
func lowerImpl(it *ast.ImplDecl, namespace string, lm *LoweredModule) {
	typeName := it.Target.Name
	var traitName string
	if it.Trait != nil {
		traitName = it.Trait.Name
	}
	slots := make([]VTableSlot, 0, len(it.Methods))
	for _, m := range it.Methods {
		lm.Functions = append(lm.Functions, lowerFunction(m, typeName, namespace, lm.Diagnostics))
		slots = append(slots, VTableSlot{Method: m.FuncName, Symbol: methodSymbol(typeName, m.FuncName)})
	}
	if it.Trait != nil {
		lm.TraitVTables = append(lm.TraitVTables, TraitVTable{
			Symbol: TraitVTableSymbol(traitName, typeName), TraitName: traitName, ImplType: typeName, Slots: slots,
		})
	}
}

// BuildTraitVTable emits a TraitVTable whose slots follow traitDecl's
// method-declaration order exactly, substituting a trait default method
// for any method the impl does not itself supply (§8 property 5).
func BuildTraitVTable(traitDecl *ast.TraitDecl, impl *ast.ImplDecl) TraitVTable {
	implMethods := make(map[string]*ast.FunctionDecl, len(impl.Methods))
	for _, m := range impl.Methods {
		implMethods[m.FuncName] = m
	}
	typeName := impl.Target.Name
	slots := make([]VTableSlot, 0, len(traitDecl.Methods))
	for _, tm := range traitDecl.Methods {
		if _, ok := implMethods[tm.FuncName]; ok {
			slots = append(slots, VTableSlot{Method: tm.FuncName, Symbol: methodSymbol(typeName, tm.FuncName)})
		} else {
			// Trait default method, Self substituted to typeName.
			slots = append(slots, VTableSlot{Method: tm.FuncName, Symbol: methodSymbol(traitDecl.TraitName, tm.FuncName)})
		}
	}
	return TraitVTable{
		Symbol: TraitVTableSymbol(traitDecl.TraitName, typeName), TraitName: traitDecl.TraitName, ImplType: typeName, Slots: slots,
	}
}

func methodSymbol(owner, method string) string {
	return escapeNamespace(owner) + "$" + method
}

// BuildClassVTable emits a ClassVTable for a class's virtual/override/
// abstract/sealed members; property accessors occupy distinct slots
// keyed by (member, Get|Set|Init).
func BuildClassVTable(decl *ast.StructDecl) ClassVTable {
	var slots []ClassVTableSlot
	idx := 0
	addSlot := func(member string, acc AccessorKind) {
		slots = append(slots, ClassVTableSlot{SlotIndex: idx, Member: member, Accessor: acc, Symbol: methodSymbol(decl.StructName, member)})
		idx++
	}
	for _, m := range decl.Methods {
		if m.Dispatch.Virtual || m.Dispatch.Override || m.Dispatch.Abstract || m.Dispatch.Sealed {
			addSlot(m.FuncName, AccessorNone)
		}
	}
	for _, p := range decl.Properties {
		for _, acc := range p.Accessors {
			if acc.Dispatch.Virtual || acc.Dispatch.Override || acc.Dispatch.Abstract || acc.Dispatch.Sealed {
				kind := AccessorGet
				switch acc.Kind {
				case ast.AccessorSet:
					kind = AccessorSet
				case ast.AccessorInit:
					kind = AccessorInit
				}
				addSlot(p.Name, kind)
			}
		}
	}
	return ClassVTable{TypeName: decl.StructName, Symbol: ClassVTableSymbol(decl.StructName), Slots: slots}
}

// lowerFunction lowers one function/method/constructor body into a
// MirBody, synthesising a `self` argument for non-static owned methods.
func lowerFunction(fn *ast.FunctionDecl, owner, namespace string, sink *diag.Sink) *MirBody {
	name := fn.FuncName
	if owner != "" {
		name = owner + "::" + fn.FuncName
	}
	b := NewBodyBuilder(name, fn.Span, sink)
	if owner != "" && !isStaticLike(fn) {
		b.AddArg("self", Named(owner), false, fn.Span)
	}
	for _, p := range fn.Signature.Parameters {
		mut := p.Modifier == ast.BindRef || p.Modifier == ast.BindOut
		b.AddArg(p.Name, TyFromAst(p.Type), mut, p.Span)
	}
	if fn.Flags.IsAsync {
		b.body.AsyncMachine = &AsyncMachineMetadata{ReturnsTask: true}
		if len(fn.Signature.ReturnType.GenericArgs) == 1 && fn.Signature.ReturnType.GenericArgs[0].Type != nil {
			rt := TyFromAst(*fn.Signature.ReturnType.GenericArgs[0].Type)
			b.body.AsyncMachine.TaskResultType = &rt
		}
	}
	if fn.Vectorize != nil {
		b.body.VectorizeDecimal = true
	}
	if fn.Body != nil {
		b.LowerBlock(fn.Body)
	}
	return b.body
}

func isStaticLike(fn *ast.FunctionDecl) bool {
	for _, mod := range fn.Modifiers {
		if mod == "static" {
			return true
		}
	}
	return false
}
