package layout

import (
	"testing"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/stretchr/testify/require"
)

func point() *ast.StructDecl {
	return &ast.StructDecl{
		StructName: "Point",
		Layout:     ast.LayoutHints{ReprC: true},
		Fields: []ast.FieldDecl{
			{Name: "x", Type: ast.TypeExpr{Name: "int"}},
			{Name: "y", Type: ast.TypeExpr{Name: "int"}},
		},
	}
}

// Scenario D of spec.md §8: @repr(C) struct Point { int x; int y; }
// must yield {align: 4, size: 8} with x at 0, y at 4.
func TestLayoutStruct_ScenarioD(t *testing.T) {
	e := NewEngine(Default64())
	l := e.LayoutStruct("Point", point())

	require.True(t, l.ReprC)
	require.Equal(t, 4, l.Align)
	require.NotNil(t, l.Size)
	require.Equal(t, 8, *l.Size)

	xOff, ok := l.FieldOffsetOf("x")
	require.True(t, ok)
	require.Equal(t, 0, xOff)

	yOff, ok := l.FieldOffsetOf("y")
	require.True(t, ok)
	require.Equal(t, 4, yOff)
}

// Property 2 of §8: size is a multiple of alignment, and alignment is a
// power of two, whenever every field's size is known.
func TestLayoutStruct_PropertyTwo(t *testing.T) {
	decl := &ast.StructDecl{
		StructName: "Mixed",
		Fields: []ast.FieldDecl{
			{Name: "a", Type: ast.TypeExpr{Name: "u8"}},
			{Name: "b", Type: ast.TypeExpr{Name: "i64"}},
			{Name: "c", Type: ast.TypeExpr{Name: "bool"}},
		},
	}
	e := NewEngine(Default64())
	l := e.LayoutStruct("Mixed", decl)
	require.NotNil(t, l.Size)
	require.Zero(t, *l.Size%l.Align)
	require.True(t, isPowerOfTwo(l.Align))

	var sum int
	for _, f := range l.Fields {
		require.NotNil(t, f.Size)
		sum += *f.Size
	}
	require.GreaterOrEqual(t, *l.Size, sum)
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

func TestLayoutStruct_Packing(t *testing.T) {
	decl := &ast.StructDecl{
		StructName: "Packed",
		Layout:     ast.LayoutHints{Packing: 1},
		Fields: []ast.FieldDecl{
			{Name: "a", Type: ast.TypeExpr{Name: "u8"}},
			{Name: "b", Type: ast.TypeExpr{Name: "i64"}},
		},
	}
	e := NewEngine(Default64())
	l := e.LayoutStruct("Packed", decl)
	require.Equal(t, 1, l.Align)
	bOff, ok := l.FieldOffsetOf("b")
	require.True(t, ok)
	require.Equal(t, 1, bOff) // no padding: packing caps alignment to 1
}

func TestLayoutStruct_UnknownFieldSizeLeavesOffsetsNil(t *testing.T) {
	decl := &ast.StructDecl{
		StructName: "Holder",
		Fields: []ast.FieldDecl{
			{Name: "a", Type: ast.TypeExpr{Name: "i32"}},
			{Name: "b", Type: ast.TypeExpr{Name: "Unregistered"}},
		},
	}
	e := NewEngine(Default64())
	l := e.LayoutStruct("Holder", decl)
	require.Nil(t, l.Size)
	bOff, ok := l.FieldOffsetOf("b")
	require.False(t, ok)
	require.Zero(t, bOff)
}

func TestSequenceLayout_ArrayAndSpanShapes(t *testing.T) {
	e := NewEngine(Default64())
	arr := e.SequenceLayoutFor(SeqArray, ast.TypeExpr{Name: "i32"})
	vec := e.SequenceLayoutFor(SeqVec, ast.TypeExpr{Name: "i32"})
	require.Equal(t, arr.Size, vec.Size, "Array and Vec share an identical shape")

	span := e.SequenceLayoutFor(SeqSpan, ast.TypeExpr{Name: "i32"})
	ros := e.SequenceLayoutFor(SeqReadOnlySpan, ast.TypeExpr{Name: "i32"})
	require.Equal(t, span.Size, ros.Size, "Span and ReadOnlySpan share an identical shape")

	require.Equal(t, e.Profile.PointerWidth, arr.Align)
	require.Equal(t, e.Profile.PointerWidth, span.Align)
}

func TestSequenceLayout_CachedByElementName(t *testing.T) {
	e := NewEngine(Default64())
	a := e.SequenceLayoutFor(SeqVec, ast.TypeExpr{Name: "i32"})
	b := e.SequenceLayoutFor(SeqVec, ast.TypeExpr{Name: "i32"})
	require.Same(t, a, b)
}

func TestSizeAlign_CSharpStyleAliasesResolveToCanonicalScalars(t *testing.T) {
	e := NewEngine(Default64())
	cases := []struct {
		alias, canonical string
	}{
		{"int", "i32"}, {"uint", "u32"},
		{"long", "i64"}, {"ulong", "u64"},
		{"short", "i16"}, {"ushort", "u16"},
		{"byte", "u8"}, {"sbyte", "i8"},
	}
	for _, c := range cases {
		size, align, ok := e.SizeAlign(ast.TypeExpr{Name: c.alias})
		require.True(t, ok, "%s should resolve", c.alias)
		wantSize, wantAlign, _ := e.SizeAlign(ast.TypeExpr{Name: c.canonical})
		require.Equal(t, wantSize, size, "%s size must match %s", c.alias, c.canonical)
		require.Equal(t, wantAlign, align, "%s align must match %s", c.alias, c.canonical)
	}
}

func TestMMIOLayout_RequiresUnsafeAndRegisters(t *testing.T) {
	base := uint64(0x4000_0000)
	decl := &ast.StructDecl{
		StructName: "Uart",
		MMIO:       &ast.MMIOStructDescriptor{Base: base, AddressSpace: "mmio"},
		Fields: []ast.FieldDecl{
			{Name: "data", Type: ast.TypeExpr{Name: "u32"}, MMIO: &ast.MMIOFieldMeta{Offset: 0, Width: 32, Access: ast.AccessRW}},
		},
	}
	e := NewEngine(Default64())
	l := e.LayoutStruct("Uart", decl)
	require.NotNil(t, l.MMIO)
	require.True(t, l.MMIO.RequiresUnsafe)
	require.Equal(t, base, l.MMIO.Base)
	require.Len(t, l.MMIO.Registers, 1)
	require.Equal(t, RegisterRW, l.MMIO.Registers[0].Access)
}
