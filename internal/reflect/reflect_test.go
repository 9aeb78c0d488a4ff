package reflect

import (
	"encoding/json"
	"testing"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestBuildManifest_StructWithFieldsAndMethods(t *testing.T) {
	m := ast.NewModule()
	m.Namespace = "Demo"
	m.PushItem(&ast.StructDecl{
		StructName: "Widget",
		IsClass:    true,
		Fields:     []ast.FieldDecl{{Name: "id", Type: ast.TypeExpr{Name: "i32"}}},
		Methods: []*ast.FunctionDecl{
			{FuncName: "Name", Signature: ast.Signature{ReturnType: ast.TypeExpr{Name: "string"}}},
		},
	})

	mf := BuildManifest(m)
	require.Equal(t, ManifestVersion, mf.Version)
	require.Len(t, mf.Types, 1)
	ty := mf.Types[0]
	require.Equal(t, "Demo.Widget", ty.Name)
	require.Equal(t, "class", ty.Kind)
	require.Len(t, ty.Fields, 1)
	require.Equal(t, "id", ty.Fields[0].Name)
	require.Len(t, ty.Methods, 1)
	require.Equal(t, "Name", ty.Methods[0].Name)
	require.Equal(t, "string", ty.Methods[0].ReturnType)
}

func TestBuildManifest_NamespaceNesting(t *testing.T) {
	m := ast.NewModule()
	m.PushItem(&ast.NamespaceItem{
		NamespaceName: "Inner",
		Items:         []ast.Item{&ast.EnumDecl{EnumName: "Color", Variants: []ast.EnumVariant{{Name: "Red"}, {Name: "Blue"}}}},
	})

	mf := BuildManifest(m)
	require.Len(t, mf.Types, 1)
	require.Equal(t, "Inner.Color", mf.Types[0].Name)
	require.Equal(t, "enum", mf.Types[0].Kind)
	require.Len(t, mf.Types[0].Fields, 2)
}

func TestEncode_ProducesVersionedJSON(t *testing.T) {
	mf := &Manifest{Version: ManifestVersion, Types: []TypeRecord{{Name: "Demo.Widget", Kind: "class"}}}
	out, err := Encode(mf)
	require.NoError(t, err)

	var roundTrip map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	require.Equal(t, float64(2), roundTrip["version"])
	types, ok := roundTrip["types"].([]interface{})
	require.True(t, ok)
	require.Len(t, types, 1)
}
