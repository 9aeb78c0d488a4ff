package di

import (
	"testing"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestBuildManifest_ServiceWithConstructorInjection(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "OrderService",
		IsClass:    true,
		Attributes: []ast.Attribute{{Name: "service", IsBuiltin: true, Args: []ast.AttributeArg{{Name: "lifetime", Value: "singleton"}}}},
		Constructors: []*ast.FunctionDecl{{
			FuncName: "init",
			Signature: ast.Signature{Parameters: []ast.Parameter{
				{Name: "repo", Type: ast.TypeExpr{Name: "IRepository"}, Attributes: []ast.Attribute{{Name: "inject", IsBuiltin: true}}},
			}},
		}},
	})
	mf := BuildManifest(m)
	require.Len(t, mf.Services, 1)
	svc := mf.Services[0]
	require.Equal(t, "Demo.OrderService", svc.Name)
	require.Equal(t, Singleton, svc.Lifetime)
	require.Len(t, svc.Dependencies, 1)
	require.Equal(t, "IRepository", svc.Dependencies[0].TargetType)
	require.Equal(t, ConstructorParameter, svc.Dependencies[0].Site.Kind)
}

func TestBuildManifest_ModuleAttribute(t *testing.T) {
	m := ast.NewModule()
	m.PushItem(&ast.StructDecl{StructName: "AppModule", Attributes: []ast.Attribute{{Name: "module", IsBuiltin: true}}})
	mf := BuildManifest(m)
	require.Equal(t, []string{"AppModule"}, mf.Modules)
}
