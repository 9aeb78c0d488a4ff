package session

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_AssignsFreshIdentityAndDefaultProfile(t *testing.T) {
	s1 := New()
	s2 := New()
	require.NotEqual(t, s1.ID, s2.ID)
	require.Equal(t, 8, s1.Profile.PointerWidth)
}

func TestRun_CleanOnEmptyModule(t *testing.T) {
	s := New()
	res := s.Run("namespace Demo;", "demo.chic")
	require.True(t, res.Clean())
	require.Equal(t, 2, res.Reflection.Version)
}

func TestRun_LayoutsComputedForStructs(t *testing.T) {
	src := `namespace Demo;
struct Point {
    public int X;
    public int Y;
}
`
	s := New()
	res := s.Run(src, "demo.chic")
	_, ok := res.Layouts["Demo.Point"]
	require.True(t, ok)
}

func TestReflectJSONPath_AppendsExtension(t *testing.T) {
	require.Equal(t, "out.reflect.json", ReflectJSONPath("out"))
}
