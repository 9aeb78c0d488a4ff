package mir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// Scenario E of spec.md §8:
//
//	public void f() {
//	  goto target;
//	  { int x = 1; target: return; }
//	}
func TestLowerStatement_GotoIntoNestedScope(t *testing.T) {
	target := ast.Span{}
	inner := &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
		{Kind: ast.StmtVariableDeclaration, Declarators: []ast.Declarator{{Name: "x", Initializer: &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitInt, LiteralText: "1"}}}},
		{Kind: ast.StmtLabeled, LabelName: "target", Labeled: &ast.Statement{Kind: ast.StmtReturn}},
	}}
	body := &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
		{Kind: ast.StmtGoto, GotoTarget: ast.GotoTarget{Kind: ast.GotoLabel, Label: "target"}, Span: target},
		inner,
	}}

	sink := diag.NewSink()
	b := NewBodyBuilder("f", target, sink)
	b.LowerBlock(body)

	require.False(t, sink.Clean())
	found := false
	for _, d := range sink.All() {
		if d.Code != nil && d.Code.Code == "MIR0010" {
			found = true
		}
	}
	require.True(t, found, "expected a goto-into-nested-scope diagnostic")
}

func TestLowerStatement_GotoSameScopeIsClean(t *testing.T) {
	body := &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
		{Kind: ast.StmtGoto, GotoTarget: ast.GotoTarget{Kind: ast.GotoLabel, Label: "target"}},
		{Kind: ast.StmtLabeled, LabelName: "target", Labeled: &ast.Statement{Kind: ast.StmtReturn}},
	}}
	sink := diag.NewSink()
	b := NewBodyBuilder("f", ast.Span{}, sink)
	b.LowerBlock(body)
	require.True(t, sink.Clean())
}

// Property 5 of §8: for any `impl Trait for Type`, vtable slots follow
// trait-declaration order, and each slot's symbol is for a defined impl
// method or the trait's default method with Self substituted to Type.
func TestBuildTraitVTable_DeclarationOrderAndDefaults(t *testing.T) {
	traitDecl := &ast.TraitDecl{
		TraitName: "Printable",
		Methods: []*ast.FunctionDecl{
			{FuncName: "Print"},
			{FuncName: "Describe", Body: &ast.Statement{Kind: ast.StmtEmpty}}, // has a default body
		},
	}
	impl := &ast.ImplDecl{
		Trait:  &ast.TypeExpr{Name: "Printable"},
		Target: ast.TypeExpr{Name: "Widget"},
		Methods: []*ast.FunctionDecl{
			{FuncName: "Print"},
		},
	}
	vt := BuildTraitVTable(traitDecl, impl)
	require.Equal(t, "vtable$Printable$Widget", vt.Symbol)
	require.Len(t, vt.Slots, 2)
	require.Equal(t, "Print", vt.Slots[0].Method)
	require.Equal(t, methodSymbol("Widget", "Print"), vt.Slots[0].Symbol)
	require.Equal(t, "Describe", vt.Slots[1].Method)
	require.Equal(t, methodSymbol("Printable", "Describe"), vt.Slots[1].Symbol, "unimplemented default falls back to the trait's own method, Self substituted to Type")
}

// Structural variant of TestBuildTraitVTable_DeclarationOrderAndDefaults:
// cmp.Diff gives a field-level diff across the whole slot slice instead
// of a single require.Equal per field, the way the teacher's
// internal/parser/testutil.go uses cmp.Diff for golden comparisons.
func TestBuildTraitVTable_StructuralDiff(t *testing.T) {
	traitDecl := &ast.TraitDecl{
		TraitName: "Printable",
		Methods: []*ast.FunctionDecl{
			{FuncName: "Print"},
			{FuncName: "Describe", Body: &ast.Statement{Kind: ast.StmtEmpty}},
		},
	}
	impl := &ast.ImplDecl{
		Trait:  &ast.TypeExpr{Name: "Printable"},
		Target: ast.TypeExpr{Name: "Widget"},
		Methods: []*ast.FunctionDecl{
			{FuncName: "Print"},
		},
	}
	want := TraitVTable{
		Symbol:    "vtable$Printable$Widget",
		TraitName: "Printable",
		ImplType:  "Widget",
		Slots: []VTableSlot{
			{Method: "Print", Symbol: methodSymbol("Widget", "Print")},
			{Method: "Describe", Symbol: methodSymbol("Printable", "Describe")},
		},
	}
	got := BuildTraitVTable(traitDecl, impl)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TraitVTable mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerModule_FreeFunctionProducesABody(t *testing.T) {
	m := ast.NewModule()
	m.PushItem(&ast.FunctionDecl{
		FuncName: "Add",
		Signature: ast.Signature{
			Parameters: []ast.Parameter{{Name: "a", Type: ast.TypeExpr{Name: "i32"}}, {Name: "b", Type: ast.TypeExpr{Name: "i32"}}},
			ReturnType: ast.TypeExpr{Name: "i32"},
		},
		Body: &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
			{Kind: ast.StmtReturn, Expr: &ast.ExprNode{
				Kind: ast.ExprBinary, Op: "+",
				Left:  &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "a"},
				Right: &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "b"},
			}},
		}},
	})
	m.RebuildOverloads()

	lm := LowerModule(m)
	require.Len(t, lm.Functions, 1)
	require.Equal(t, "Add", lm.Functions[0].Name)
	require.Equal(t, 2, lm.Functions[0].ArgCount)
	require.True(t, lm.Diagnostics.Clean())
}

func TestStaticRegistry_UniquePerOwner(t *testing.T) {
	r := NewStaticRegistry()
	require.True(t, r.Register(StaticEntry{Name: "Count", Owner: "Widget"}))
	require.False(t, r.Register(StaticEntry{Name: "Count", Owner: "Widget"}), "duplicate owner+name must be rejected")
	require.True(t, r.Register(StaticEntry{Name: "Count", Owner: "Other"}), "same name under a different owner is fine")
}

func TestTyFromAst_PointerAndNullablePrinting(t *testing.T) {
	ref := ast.RefReadOnly
	te := ast.TypeExpr{
		Name: "Env",
		Pointer: []ast.PointerSuffix{
			{Mutable: true, Qualifiers: []ast.PointerQualifier{ast.QRestrict}},
		},
	}
	ty := TyFromAst(te)
	require.Equal(t, "@restrict *mut Env", ty.String())

	te2 := ast.TypeExpr{Name: "i32", Nullable: true}
	require.Equal(t, "i32?", TyFromAst(te2).String())
	_ = ref
}
