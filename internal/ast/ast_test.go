package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Property 1 of spec.md §8: after push_item the catalog is dirty; after
// rebuild_overloads every free function appears in exactly one
// OverloadSet keyed by {owner, name, kind}, with entry count equal to
// declaration count.
func TestRebuildOverloads_FreeFunctionsGroupByOwnerNameKind(t *testing.T) {
	m := NewModule()
	m.Namespace = "Demo"
	m.PushItem(&FunctionDecl{FuncName: "Add", Signature: Signature{Parameters: []Parameter{{Name: "a", Type: TypeExpr{Name: "int"}}}}})
	m.PushItem(&FunctionDecl{FuncName: "Add", Signature: Signature{Parameters: []Parameter{{Name: "a", Type: TypeExpr{Name: "int"}}, {Name: "b", Type: TypeExpr{Name: "int"}}}}})

	require.True(t, m.OverloadsDirty())
	m.RebuildOverloads()
	require.False(t, m.OverloadsDirty())

	key := OverloadKey{Owner: "Demo", Name: "Add", Kind: OverloadFunction}
	set, ok := m.Overloads().Lookup(key)
	require.True(t, ok)
	require.Len(t, set.Entries, 2)
}

// Property 7: rebuild_overloads applied twice yields the same catalog.
func TestRebuildOverloads_Idempotent(t *testing.T) {
	m := NewModule()
	m.PushItem(&FunctionDecl{FuncName: "F"})
	m.RebuildOverloads()
	first := m.Overloads().Keys()

	m.RebuildOverloads()
	second := m.Overloads().Keys()

	require.ElementsMatch(t, first, second)
}

func TestCanonicalOwner_StripsGenericsAndAvoidsDoubleQualification(t *testing.T) {
	require.Equal(t, "Demo::Widget", CanonicalOwner("Demo", "Widget"))
	require.Equal(t, "Demo::Widget", CanonicalOwner("Demo", "Demo.Widget"))
	require.Equal(t, "Demo::Box", CanonicalOwner("Demo", "Box<Widget<int>>"))
}

func TestPushItem_MarksOverloadsDirty(t *testing.T) {
	m := NewModule()
	m.RebuildOverloads()
	require.False(t, m.OverloadsDirty())

	m.PushItem(&FunctionDecl{FuncName: "G"})
	require.True(t, m.OverloadsDirty())
}
