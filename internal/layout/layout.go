package layout

import (
	"strings"

	"github.com/chic-lang/chicc/internal/ast"
)

// FieldOffset is a single field's computed position within a struct
// layout. Offset is nil for the first field whose size could not be
// determined and for every field after it (§4.5 step 2).
type FieldOffset struct {
	Name   string
	Offset *int
	Size   *int
	Align  int
}

// ListLayout is inferred when field names suggest sequence semantics: a
// data/items/elements/ptr field paired with a length/count/len field.
type ListLayout struct {
	DataField string
	LenField  string
}

// RegisterAccess mirrors ast.MMIOFieldAccess for the layout-side register
// table (kept as a distinct type so this package doesn't need to import
// ast's field-level detail beyond what layout actually consumes).
type RegisterAccess int

const (
	RegisterRO RegisterAccess = iota
	RegisterWO
	RegisterRW
)

// RegisterField is one `@register(offset=, width=, access=)` entry.
type RegisterField struct {
	Name   string
	Offset int
	Width  int
	Access RegisterAccess
}

// MMIOLayout is populated when a struct carries `@mmio(...)`: an
// address-fixed layout whose field reads/writes must go through volatile
// accessors at lowering time.
type MMIOLayout struct {
	Base           uint64
	Size           *uint64
	AddressSpace   string
	Endianness     ast.MMIOEndianness
	RequiresUnsafe bool
	Registers      []RegisterField
}

// StructLayout is the computed layout of one struct/class/union.
type StructLayout struct {
	Name       string
	Size       *int // nil if any field's size is unknown
	Align      int
	ReprC      bool
	Packing    int
	Fields     []FieldOffset
	Positional []string // record_positional_fields, declaration order
	List       *ListLayout
	AutoTraits ast.AutoTraitOverrides
	Disposer   string // "<Type>::dispose" symbol, empty if none found
	MMIO       *MMIOLayout
}

// FieldOffsetOf returns the offset of the named field, if computed.
func (l *StructLayout) FieldOffsetOf(name string) (int, bool) {
	for _, f := range l.Fields {
		if f.Name == name && f.Offset != nil {
			return *f.Offset, true
		}
	}
	return 0, false
}

// SequenceKind distinguishes the four built-in sequence layouts, which
// share field shapes pairwise (Array/Vec identical; Span/ReadOnlySpan
// identical).
type SequenceKind int

const (
	SeqArray SequenceKind = iota
	SeqVec
	SeqSpan
	SeqReadOnlySpan
)

// SequenceLayout is the built-in layout for Array<T>/Vec<T>/Span<T>/
// ReadOnlySpan<T>, generated once per (kind, element canonical name) pair
// and cached by the Engine.
type SequenceLayout struct {
	Kind      SequenceKind
	Element   string
	Size      int
	Align     int
	ElemSize  int
	ElemAlign int
	// Array/Vec only: small-buffer-optimisation fields.
	InlineCapable bool
	InlinePad     int
	InlineBytes   int
}

const (
	inlinePadBytes   = 7
	inlineStorageLen = 64
)

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		n += align - r
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// builtinSizes gives the known size/align, in bytes, of every scalar
// type the checker also recognises without a registry lookup.
var builtinSizes = map[string][2]int{
	"void": {0, 1},
	"bool": {1, 1}, "char": {4, 4},
	"i8": {1, 1}, "u8": {1, 1},
	"i16": {2, 2}, "u16": {2, 2},
	"i32": {4, 4}, "u32": {4, 4},
	"i64": {8, 8}, "u64": {8, 8},
	"f32": {4, 4}, "f64": {8, 8},
	"decimal": {16, 8},
}

// scalarAliases maps the source language's C#-style integer spellings
// onto their canonical builtinSizes/builtinTypeNames entry. int is the
// primary integer spelling used throughout spec examples and tests.
var scalarAliases = map[string]string{
	"int": "i32", "uint": "u32",
	"long": "i64", "ulong": "u64",
	"short": "i16", "ushort": "u16",
	"byte": "u8", "sbyte": "i8",
}

func canonicalScalarName(name string) string {
	if alias, ok := scalarAliases[name]; ok {
		return alias
	}
	return name
}

// Engine computes struct/class/union layouts and caches the built-in
// sequence layouts, parameterised by a TargetProfile for pointer width
// and alignment floor.
type Engine struct {
	Profile TargetProfile

	structs    map[string]*ast.StructDecl
	cache      map[string]*StructLayout
	inProgress map[string]bool

	sequences map[string]*SequenceLayout
}

// NewEngine returns an Engine for the given target profile.
func NewEngine(profile TargetProfile) *Engine {
	return &Engine{
		Profile:    profile,
		structs:    make(map[string]*ast.StructDecl),
		cache:      make(map[string]*StructLayout),
		inProgress: make(map[string]bool),
		sequences:  make(map[string]*SequenceLayout),
	}
}

// RegisterStruct makes decl available under its fully-qualified name for
// recursive field-type resolution (a field of type Foo can only be sized
// once Foo itself has been registered).
func (e *Engine) RegisterStruct(qualifiedName string, decl *ast.StructDecl) {
	e.structs[qualifiedName] = decl
}

// SizeAlign returns the size and alignment of a type expression, if
// known. A nil size (ok=false) propagates through struct layout as an
// unresolved field per §4.5 step 2.
func (e *Engine) SizeAlign(t ast.TypeExpr) (size int, align int, ok bool) {
	if t.IsPointer() || t.Ref != nil {
		w := e.Profile.PointerWidth
		return w, w, true
	}
	if t.IsArray() {
		elem := t
		elem.ArrayRanks = nil
		sl := e.SequenceLayoutFor(SeqArray, elem)
		return sl.Size, sl.Align, true
	}
	switch t.Name {
	case "Array", "Std.Collections.Array":
		return e.seqFromGenericArgs(SeqArray, t)
	case "Vec", "Std.Collections.Vec":
		return e.seqFromGenericArgs(SeqVec, t)
	case "Span", "Std.Span":
		return e.seqFromGenericArgs(SeqSpan, t)
	case "ReadOnlySpan", "Std.ReadOnlySpan":
		return e.seqFromGenericArgs(SeqReadOnlySpan, t)
	case "string", "str":
		w := e.Profile.PointerWidth
		return 2 * w, w, true
	}
	if sz, ok := builtinSizes[canonicalScalarName(t.Name)]; ok {
		return sz[0], sz[1], true
	}
	if decl, found := e.structs[t.Name]; found {
		sl := e.LayoutStruct(t.Name, decl)
		if sl.Size == nil {
			return 0, sl.Align, false
		}
		return *sl.Size, sl.Align, true
	}
	return 0, 0, false
}

func (e *Engine) seqFromGenericArgs(kind SequenceKind, t ast.TypeExpr) (int, int, bool) {
	var elem ast.TypeExpr
	if len(t.GenericArgs) > 0 && t.GenericArgs[0].Type != nil {
		elem = *t.GenericArgs[0].Type
	} else {
		elem = ast.TypeExpr{Name: "u8"}
	}
	sl := e.SequenceLayoutFor(kind, elem)
	return sl.Size, sl.Align, true
}

// SequenceLayoutFor returns the cached built-in layout for kind over the
// given element type, computing and caching it on first use.
func (e *Engine) SequenceLayoutFor(kind SequenceKind, elem ast.TypeExpr) *SequenceLayout {
	key := seqKey(kind, elem)
	if l, ok := e.sequences[key]; ok {
		return l
	}
	elemSize, elemAlign, ok := e.SizeAlign(elem)
	if !ok {
		elemSize, elemAlign = 1, 1
	}
	w := e.Profile.PointerWidth
	var l *SequenceLayout
	switch kind {
	case SeqArray, SeqVec:
		// {ptr, len, cap, elem_size, elem_align, drop_fn, region_ptr,
		// uses_inline, inline_pad(7), inline_storage(64)}
		size := w /*ptr*/ + w /*len*/ + w /*cap*/ + w /*elem_size*/ + w /*elem_align*/ + w /*drop_fn*/ + w /*region_ptr*/ + 1 /*uses_inline*/ + inlinePadBytes + inlineStorageLen
		l = &SequenceLayout{
			Kind: kind, Element: elem.String(), Size: roundUp(size, w), Align: w,
			ElemSize: elemSize, ElemAlign: elemAlign,
			InlineCapable: elemSize <= inlineStorageLen, InlinePad: inlinePadBytes, InlineBytes: inlineStorageLen,
		}
	case SeqSpan, SeqReadOnlySpan:
		// {data (value-ptr, 3 words), len, elem_size, elem_align}
		size := 3*w + w + w + w
		l = &SequenceLayout{
			Kind: kind, Element: elem.String(), Size: roundUp(size, w), Align: w,
			ElemSize: elemSize, ElemAlign: elemAlign,
		}
	}
	e.sequences[key] = l
	return l
}

func seqKey(kind SequenceKind, elem ast.TypeExpr) string {
	return elem.String() + "#" + itoaSeq(int(kind))
}

func itoaSeq(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// LayoutStruct computes (or returns the cached) layout for decl,
// implementing the §4.5 struct layout algorithm. A field whose own type
// is still being laid out (a direct or indirect cycle) is treated as
// unknown-size, which also makes the enclosing struct's size unknown;
// this breaks cycles without panicking.
func (e *Engine) LayoutStruct(qualifiedName string, decl *ast.StructDecl) *StructLayout {
	if l, ok := e.cache[qualifiedName]; ok {
		return l
	}
	if e.inProgress[qualifiedName] {
		return &StructLayout{Name: qualifiedName, Align: MinAlign}
	}
	e.inProgress[qualifiedName] = true
	defer delete(e.inProgress, qualifiedName)

	hints := decl.Layout
	l := &StructLayout{
		Name:       qualifiedName,
		ReprC:      hints.ReprC,
		Packing:    hints.Packing,
		AutoTraits: decl.AutoTraits,
	}

	minAlign := MinAlign
	if e.Profile.MinAlign > minAlign {
		minAlign = e.Profile.MinAlign
	}

	offset := 0
	align := minAlign
	sizeKnown := true
	for _, f := range decl.Fields {
		if f.IsStatic {
			continue
		}
		fsize, falign, ok := e.SizeAlign(f.Type)
		effAlign := falign
		if hints.Packing > 0 && effAlign > hints.Packing {
			effAlign = hints.Packing
		}
		if effAlign < 1 {
			effAlign = 1
		}
		align = maxInt(align, effAlign)
		if !ok || !sizeKnown {
			sizeKnown = false
			fo := FieldOffset{Name: f.Name, Align: effAlign}
			if ok {
				sz := fsize
				fo.Size = &sz
			}
			l.Fields = append(l.Fields, fo)
			continue
		}
		offset = roundUp(offset, effAlign)
		off := offset
		sz := fsize
		l.Fields = append(l.Fields, FieldOffset{Name: f.Name, Offset: &off, Size: &sz, Align: effAlign})
		offset += fsize
	}

	if hints.Align > 0 {
		userAlign := hints.Align
		if hints.Packing > 0 && userAlign > hints.Packing {
			userAlign = hints.Packing
		}
		align = maxInt(align, userAlign)
	}
	l.Align = align

	if sizeKnown {
		total := roundUp(offset, align)
		l.Size = &total
	}

	l.Positional = positionalFieldNames(decl)
	l.List = inferListLayout(decl.Fields)
	l.Disposer = findDisposer(decl)

	if decl.MMIO != nil {
		l.MMIO = buildMMIOLayout(decl)
	}

	e.cache[qualifiedName] = l
	return l
}

func positionalFieldNames(decl *ast.StructDecl) []string {
	if !decl.IsRecord {
		return nil
	}
	names := make([]string, 0, len(decl.PositionalFields))
	for _, pf := range decl.PositionalFields {
		names = append(names, pf.Name)
	}
	return names
}

var dataFieldNames = map[string]bool{"data": true, "items": true, "elements": true, "ptr": true}
var lenFieldNames = map[string]bool{"length": true, "count": true, "len": true}

// inferListLayout matches field names suggesting sequence semantics:
// a data/items/elements/ptr field paired with a length/count/len field.
func inferListLayout(fields []ast.FieldDecl) *ListLayout {
	var data, length string
	for _, f := range fields {
		lower := strings.ToLower(f.Name)
		if dataFieldNames[lower] && data == "" {
			data = f.Name
		}
		if lenFieldNames[lower] && length == "" {
			length = f.Name
		}
	}
	if data == "" || length == "" {
		return nil
	}
	return &ListLayout{DataField: data, LenField: length}
}

// findDisposer looks for a `<Type>::dispose(self) -> void` method.
func findDisposer(decl *ast.StructDecl) string {
	for _, m := range decl.Methods {
		if m.FuncName != "dispose" {
			continue
		}
		if m.Signature.ReturnType.Name != "void" {
			continue
		}
		if len(m.Signature.Parameters) != 0 {
			continue
		}
		return decl.StructName + "::dispose"
	}
	return ""
}

func toRegisterAccess(a ast.MMIOFieldAccess) RegisterAccess {
	switch a {
	case ast.AccessWO:
		return RegisterWO
	case ast.AccessRW:
		return RegisterRW
	default:
		return RegisterRO
	}
}

func buildMMIOLayout(decl *ast.StructDecl) *MMIOLayout {
	m := decl.MMIO
	out := &MMIOLayout{
		Base: m.Base, Size: m.Size, AddressSpace: m.AddressSpace,
		Endianness: m.Endianness, RequiresUnsafe: true,
	}
	for _, f := range decl.Fields {
		if f.MMIO == nil {
			continue
		}
		out.Registers = append(out.Registers, RegisterField{
			Name: f.Name, Offset: f.MMIO.Offset, Width: f.MMIO.Width,
			Access: toRegisterAccess(f.MMIO.Access),
		})
	}
	return out
}
