package importresolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveType_SelfResolvesToContext(t *testing.T) {
	r := NewStaticResolver()
	res := r.ResolveType("Self", "Demo", "Demo.Widget")
	require.Equal(t, Found, res.Kind)
	require.Equal(t, "Demo.Widget", res.Qualified)
}

func TestResolveType_AmbiguousShortName(t *testing.T) {
	r := NewStaticResolver()
	r.AddKnownType("A.Widget")
	r.AddKnownType("B.Widget")
	res := r.ResolveType("Widget", "", "")
	require.Equal(t, Ambiguous, res.Kind)
	require.ElementsMatch(t, []string{"A.Widget", "B.Widget"}, res.Candidates)
}

func TestResolveType_UniqueShortNameFound(t *testing.T) {
	r := NewStaticResolver()
	r.AddKnownType("A.Widget")
	res := r.ResolveType("Widget", "", "")
	require.Equal(t, Found, res.Kind)
	require.Equal(t, "A.Widget", res.Qualified)
}

func TestResolveType_NotFound(t *testing.T) {
	r := NewStaticResolver()
	res := r.ResolveType("Nope", "", "")
	require.Equal(t, NotFound, res.Kind)
}

func TestCombinedScope_SplitsDottedStaticImports(t *testing.T) {
	r := NewStaticResolver()
	r.AddStaticImport("Demo", "Std.Math.Trig")
	scope := r.CombinedScope("Demo")
	require.Equal(t, [][]string{{"Std", "Math", "Trig"}}, scope.StaticImports)
}
