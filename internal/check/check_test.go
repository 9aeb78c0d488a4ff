package check

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

func hasCode(sink *diag.Sink, code string) bool {
	for _, d := range sink.All() {
		if d.Code != nil && d.Code.Code == code {
			return true
		}
	}
	return false
}

func messageContaining(sink *diag.Sink, substr string) (string, bool) {
	for _, d := range sink.All() {
		if strings.Contains(d.Message, substr) {
			return d.Message, true
		}
	}
	return "", false
}

// Scenario A of spec.md §8: an async function whose return type isn't
// Std.Async.Task or Std.Async.Task<T> is rejected.
func TestCheck_AsyncReturnMustBeTask(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.FunctionDecl{
		FuncName: "Fetch",
		Flags:    ast.FunctionFlags{IsAsync: true},
		Signature: ast.Signature{
			ReturnType: ast.TypeExpr{Name: "int"},
		},
		Body: &ast.Statement{Kind: ast.StmtBlock},
	})
	m.RebuildOverloads()

	sink := Check(m)
	require.True(t, hasCode(sink, TCK080))
}

func TestCheck_AsyncReturnTaskOfTIsClean(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.FunctionDecl{
		FuncName: "Fetch",
		Flags:    ast.FunctionFlags{IsAsync: true},
		Signature: ast.Signature{
			ReturnType: ast.TypeExpr{
				Name:        "Std.Async.Task",
				GenericArgs: []ast.ConstGenericArg{{Type: &ast.TypeExpr{Name: "int"}}},
			},
		},
		Body: &ast.Statement{Kind: ast.StmtBlock},
	})
	m.RebuildOverloads()

	sink := Check(m)
	require.False(t, hasCode(sink, TCK080))
}

// Scenario C of spec.md §8: a relational/equality operator declared
// without its counterpart is rejected with TCK151, naming the missing
// counterpart operator.
func TestCheck_OperatorWithoutCounterpartIsRejected(t *testing.T) {
	eq := &ast.FunctionDecl{
		FuncName: "op_==",
		Operator: ast.BinaryOperator,
		Signature: ast.Signature{
			Parameters: []ast.Parameter{
				{Name: "a", Type: ast.TypeExpr{Name: "Vec2"}},
				{Name: "b", Type: ast.TypeExpr{Name: "Vec2"}},
			},
			ReturnType: ast.TypeExpr{Name: "bool"},
		},
	}
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "Vec2",
		Fields: []ast.FieldDecl{
			{Name: "X", Type: ast.TypeExpr{Name: "int"}},
		},
		Methods: []*ast.FunctionDecl{eq},
	})
	m.RebuildOverloads()

	sink := Check(m)
	_, found := messageContaining(sink, "no matching")
	require.True(t, hasCode(sink, TCK151))
	require.True(t, found, "expected a TCK151 diagnostic naming the missing counterpart")
}

func TestCheck_OperatorWithCounterpartIsClean(t *testing.T) {
	eq := &ast.FunctionDecl{
		FuncName: "op_==",
		Operator: ast.BinaryOperator,
		Signature: ast.Signature{
			Parameters: []ast.Parameter{
				{Name: "a", Type: ast.TypeExpr{Name: "Vec2"}},
				{Name: "b", Type: ast.TypeExpr{Name: "Vec2"}},
			},
			ReturnType: ast.TypeExpr{Name: "bool"},
		},
	}
	neq := &ast.FunctionDecl{
		FuncName: "op_!=",
		Operator: ast.BinaryOperator,
		Signature: ast.Signature{
			Parameters: []ast.Parameter{
				{Name: "a", Type: ast.TypeExpr{Name: "Vec2"}},
				{Name: "b", Type: ast.TypeExpr{Name: "Vec2"}},
			},
			ReturnType: ast.TypeExpr{Name: "bool"},
		},
	}
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "Vec2",
		Fields: []ast.FieldDecl{
			{Name: "X", Type: ast.TypeExpr{Name: "int"}},
		},
		Methods: []*ast.FunctionDecl{eq, neq},
	})
	m.RebuildOverloads()

	sink := Check(m)
	require.False(t, hasCode(sink, TCK151))
}

// Scenario F of spec.md §8: `new P { Y = 42 }` where P declares a
// required field X omits it, raising TCK190 naming the missing member.
func TestCheck_ObjectInitializerMissingRequiredMemberIsRejected(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "P",
		Fields: []ast.FieldDecl{
			{Name: "X", Type: ast.TypeExpr{Name: "int"}, IsRequired: true},
			{Name: "Y", Type: ast.TypeExpr{Name: "int"}},
		},
	})
	m.PushItem(&ast.FunctionDecl{
		FuncName: "make",
		Signature: ast.Signature{ReturnType: ast.TypeExpr{Name: "P"}},
		Body: &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
			{Kind: ast.StmtReturn, Expr: &ast.ExprNode{
				Kind:    ast.ExprNew,
				NewType: &ast.TypeExpr{Name: "P"},
				InitMembers: []ast.ObjectInitMember{
					{Name: "Y", Value: &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitInt, LiteralText: "42"}},
				},
			}},
		}},
	})
	m.RebuildOverloads()

	sink := Check(m)
	msg, found := messageContaining(sink, "required member `X`")
	require.True(t, found, "expected a diagnostic naming the missing required member, got: %v", sink.All())
	require.True(t, hasCode(sink, TCK190))
	_ = msg
}

func TestCheck_ObjectInitializerWithAllRequiredMembersIsClean(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "P",
		Fields: []ast.FieldDecl{
			{Name: "X", Type: ast.TypeExpr{Name: "int"}, IsRequired: true},
			{Name: "Y", Type: ast.TypeExpr{Name: "int"}},
		},
	})
	m.PushItem(&ast.FunctionDecl{
		FuncName: "make",
		Signature: ast.Signature{ReturnType: ast.TypeExpr{Name: "P"}},
		Body: &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
			{Kind: ast.StmtReturn, Expr: &ast.ExprNode{
				Kind:    ast.ExprNew,
				NewType: &ast.TypeExpr{Name: "P"},
				InitMembers: []ast.ObjectInitMember{
					{Name: "X", Value: &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitInt, LiteralText: "1"}},
					{Name: "Y", Value: &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitInt, LiteralText: "42"}},
				},
			}},
		}},
	})
	m.RebuildOverloads()

	sink := Check(m)
	require.False(t, hasCode(sink, TCK190))
}

// A required member inherited through Bases must also be satisfied.
func TestCheck_ObjectInitializerRequiredMemberFromBaseIsEnforced(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "Base",
		IsClass:    true,
		Fields: []ast.FieldDecl{
			{Name: "Id", Type: ast.TypeExpr{Name: "int"}, IsRequired: true},
		},
	})
	m.PushItem(&ast.StructDecl{
		StructName: "Derived",
		IsClass:    true,
		Bases:      []ast.TypeExpr{{Name: "Base"}},
		Fields: []ast.FieldDecl{
			{Name: "Y", Type: ast.TypeExpr{Name: "int"}},
		},
	})
	m.PushItem(&ast.FunctionDecl{
		FuncName: "make",
		Signature: ast.Signature{ReturnType: ast.TypeExpr{Name: "Derived"}},
		Body: &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
			{Kind: ast.StmtReturn, Expr: &ast.ExprNode{
				Kind:    ast.ExprNew,
				NewType: &ast.TypeExpr{Name: "Derived"},
				InitMembers: []ast.ObjectInitMember{
					{Name: "Y", Value: &ast.ExprNode{Kind: ast.ExprLiteral, LiteralKind: ast.LitInt, LiteralText: "42"}},
				},
			}},
		}},
	})
	m.RebuildOverloads()

	sink := Check(m)
	_, found := messageContaining(sink, "required member `Id`")
	require.True(t, found, "required member inherited through Bases must still be enforced, got: %v", sink.All())
}

func TestCheck_CleanModuleProducesNoDiagnostics(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	sink := Check(m)
	require.True(t, sink.Clean())
}

func memoryOrder(name string) *ast.ExprNode {
	return &ast.ExprNode{Kind: ast.ExprMemberAccess, Target: &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "MemoryOrder"}, Member: name}
}

func compareExchangeCall(successOrder, failureOrder string) *ast.ExprNode {
	callee := &ast.ExprNode{Kind: ast.ExprMemberAccess, Member: "CompareExchange", Target: &ast.ExprNode{
		Kind: ast.ExprMemberAccess, Member: "Atomic", Target: &ast.ExprNode{
			Kind: ast.ExprMemberAccess, Member: "Sync", Target: &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "Std"},
		},
	}}
	return &ast.ExprNode{
		Kind:   ast.ExprCall,
		Callee: callee,
		Args: []ast.Argument{
			{Value: &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "target"}},
			{Value: &ast.ExprNode{Kind: ast.ExprIdentifier, Name: "expected"}},
			{Value: memoryOrder(successOrder)},
			{Value: memoryOrder(failureOrder)},
		},
	}
}

func moduleWithCallStatement(call *ast.ExprNode) *ast.Module {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.FunctionDecl{
		FuncName: "cas",
		Body: &ast.Statement{Kind: ast.StmtBlock, Body: []*ast.Statement{
			{Kind: ast.StmtExpression, Expr: call},
		}},
	})
	m.RebuildOverloads()
	return m
}

// §5/§8: Std::Sync::Atomic::CompareExchange requires failure_order <=
// success_order in the Relaxed < Acquire < AcqRel < SeqCst lattice.
func TestCheck_CompareExchangeFailureOrderStrongerThanSuccessIsRejected(t *testing.T) {
	sink := Check(moduleWithCallStatement(compareExchangeCall("Acquire", "SeqCst")))
	require.True(t, hasCode(sink, MM0002))
}

func TestCheck_CompareExchangeFailureOrderReleaseIsRejected(t *testing.T) {
	sink := Check(moduleWithCallStatement(compareExchangeCall("AcqRel", "Release")))
	require.True(t, hasCode(sink, MM0002))
}

func TestCheck_CompareExchangeFailureOrderAcqRelIsRejected(t *testing.T) {
	sink := Check(moduleWithCallStatement(compareExchangeCall("SeqCst", "AcqRel")))
	require.True(t, hasCode(sink, MM0002))
}

func TestCheck_CompareExchangeValidOrderingIsClean(t *testing.T) {
	sink := Check(moduleWithCallStatement(compareExchangeCall("SeqCst", "Acquire")))
	require.False(t, hasCode(sink, MM0002))
}

func TestCheck_CompareExchangeEqualOrdersIsClean(t *testing.T) {
	sink := Check(moduleWithCallStatement(compareExchangeCall("Relaxed", "Relaxed")))
	require.False(t, hasCode(sink, MM0002))
}
