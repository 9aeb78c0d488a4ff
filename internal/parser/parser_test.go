package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chicc/internal/ast"
)

func parseClean(t *testing.T, src string) *ast.Module {
	t.Helper()
	res := ParseModule(src, "test.chic")
	require.Empty(t, res.Diagnostics, "expected a clean parse, got %v", res.Diagnostics)
	return res.Module
}

func TestCrateAttribute(t *testing.T) {
	res := ParseModule(`#![std]
namespace App;
`, "test.chic")
	require.Empty(t, res.Diagnostics)
	assert.Equal(t, ast.StdStd, res.Module.Std)
	assert.Contains(t, res.LL1Markers, "LL1-CRATE-ATTR")
}

func TestFileScopedVsBlockNamespace(t *testing.T) {
	t.Run("file-scoped", func(t *testing.T) {
		res := ParseModule(`namespace App.Core;

struct Widget { }
`, "test.chic")
		require.Empty(t, res.Diagnostics)
		assert.Equal(t, "App.Core", res.Module.Namespace)
		assert.Contains(t, res.LL1Markers, "LL1-FILE-NAMESPACE")
		require.Len(t, res.Module.Items, 1)
	})

	t.Run("block", func(t *testing.T) {
		res := ParseModule(`namespace App.Core {
    struct Widget { }
}
`, "test.chic")
		require.Empty(t, res.Diagnostics)
		assert.Equal(t, "", res.Module.Namespace)
		require.Len(t, res.Module.Items, 1)
		ns, ok := res.Module.Items[0].(*ast.NamespaceItem)
		require.True(t, ok)
		assert.Equal(t, "App.Core", ns.NamespaceName)
		assert.Len(t, ns.Items, 1)
	})
}

func TestStructAndClassDecl(t *testing.T) {
	m := parseClean(t, `
struct Point {
    public int X;
    public int Y;
}

public class Widget : Base, IDisposable {
    private string name;
    public Widget(string name) { this.name = name; }
    public string GetName() => this.name;
}
`)
	require.Len(t, m.Items, 2)

	point, ok := m.Items[0].(*ast.StructDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", point.StructName)
	assert.False(t, point.IsClass)
	require.Len(t, point.Fields, 2)
	assert.Equal(t, "X", point.Fields[0].Name)

	widget, ok := m.Items[1].(*ast.StructDecl)
	require.True(t, ok)
	assert.True(t, widget.IsClass)
	require.Len(t, widget.Bases, 2)
	assert.Equal(t, "Base", widget.Bases[0].Name)
	assert.Equal(t, "IDisposable", widget.Bases[1].Name)
	require.Len(t, widget.Constructors, 1)
	require.Len(t, widget.Methods, 1)
}

func TestFlagsEnum(t *testing.T) {
	m := parseClean(t, `
@flags
enum Permissions : u8 {
    None = 0,
    Read = 1,
    Write = 2,
}
`)
	require.Len(t, m.Items, 1)
	e, ok := m.Items[0].(*ast.EnumDecl)
	require.True(t, ok)
	assert.True(t, e.IsFlags)
	require.NotNil(t, e.UnderlyingType)
	assert.Equal(t, "u8", e.UnderlyingType.Name)
	require.Len(t, e.Variants, 3)
	assert.Equal(t, "Write", e.Variants[2].Name)
}

func TestInterfaceTraitImplExtension(t *testing.T) {
	m := parseClean(t, `
interface Shape {
    float Area();
}

trait Describable {
    type Output;
    Output Describe();
}

impl Describable for Shape {
    type Output = string;
    string Describe() => "shape";
}

extension Shape : Self : Describable {
    string Summary() => this.Describe();
}
`)
	require.Len(t, m.Items, 4)

	iface, ok := m.Items[0].(*ast.InterfaceDecl)
	require.True(t, ok)
	assert.Equal(t, "Shape", iface.InterfaceName)
	require.Len(t, iface.Methods, 1)

	trait, ok := m.Items[1].(*ast.TraitDecl)
	require.True(t, ok)
	require.Len(t, trait.AssociatedTypes, 1)
	assert.Equal(t, "Output", trait.AssociatedTypes[0].Name)

	impl, ok := m.Items[2].(*ast.ImplDecl)
	require.True(t, ok)
	require.NotNil(t, impl.Trait)
	assert.Equal(t, "Describable", impl.Trait.Name)
	assert.Equal(t, "Shape", impl.Target.Name)
	require.Len(t, impl.AssociatedTypes, 1)

	ext, ok := m.Items[3].(*ast.ExtensionDecl)
	require.True(t, ok)
	assert.Equal(t, "Shape", ext.Target.Name)
	require.Len(t, ext.Constraints, 1)
	assert.Equal(t, "Describable", ext.Constraints[0].InterfaceName)
}

func TestMalformedExtensionConstraintDiagnostic(t *testing.T) {
	res := ParseModule(`
extension Shape : NotSelfForm {
    void M() => 0;
}
`, "test.chic")
	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "DIM0002")
}

func TestStatementKinds(t *testing.T) {
	m := parseClean(t, `
public void Run() {
    let x = 1;
    var y: int = 2;
    if (x == 1) {
        y += 1;
    } else {
        y -= 1;
    }
    while (y < 10) {
        y++;
    }
    for (let i = 0; i < 10; i++) {
        y += i;
    }
    foreach (item in items) {
        y += item;
    }
    switch (y) {
        case 1:
            break;
        default:
            break;
    }
    try {
        y = 1 / y;
    } catch (DivideByZeroError e) {
        y = 0;
    } finally {
        y += 1;
    }
    using (Handle handle = OpenFile("f")) {
        handle.Read();
    }
    lock (this) {
        y += 1;
    }
    return;
}
`)
	require.Len(t, m.Items, 1)
	fn, ok := m.Items[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.NotNil(t, fn.Body)
	assert.Equal(t, ast.StmtBlock, fn.Body.Kind)

	var kinds []ast.StmtKind
	for _, s := range fn.Body.Body {
		kinds = append(kinds, s.Kind)
	}
	assert.Contains(t, kinds, ast.StmtVariableDeclaration)
	assert.Contains(t, kinds, ast.StmtIf)
	assert.Contains(t, kinds, ast.StmtWhile)
	assert.Contains(t, kinds, ast.StmtFor)
	assert.Contains(t, kinds, ast.StmtForeach)
	assert.Contains(t, kinds, ast.StmtSwitch)
	assert.Contains(t, kinds, ast.StmtTry)
	assert.Contains(t, kinds, ast.StmtUsing)
	assert.Contains(t, kinds, ast.StmtLock)
	assert.Contains(t, kinds, ast.StmtReturn)
}

func TestTypedLocalLL1Allowance(t *testing.T) {
	res := ParseModule(`
public void Run() {
    Widget w = MakeWidget();
}
`, "test.chic")
	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "LCL0001")
	assert.Contains(t, res.LL1Markers, "LL1-TYPED-LOCAL")

	fn := res.Module.Items[0].(*ast.FunctionDecl)
	stmt := fn.Body.Body[0]
	require.Equal(t, ast.StmtVariableDeclaration, stmt.Kind)
	require.Len(t, stmt.Declarators, 1)
	assert.Equal(t, "w", stmt.Declarators[0].Name)
	require.NotNil(t, stmt.Declarators[0].Type)
	assert.Equal(t, "Widget", stmt.Declarators[0].Type.Name)
}

func TestLetOptionalTypeAllowance(t *testing.T) {
	t.Run("pre-colon type", func(t *testing.T) {
		res := ParseModule(`
public void Run() {
    let Vec<int> items = MakeVec();
}
`, "test.chic")
		require.Empty(t, res.Diagnostics)
		assert.Contains(t, res.LL1Markers, "LL1-LET-TYPE")
		fn := res.Module.Items[0].(*ast.FunctionDecl)
		decl := fn.Body.Body[0].Declarators[0]
		assert.Equal(t, "items", decl.Name)
		require.NotNil(t, decl.Type)
		assert.Equal(t, "Vec", decl.Type.Name)
	})

	t.Run("post-colon type", func(t *testing.T) {
		m := parseClean(t, `
public void Run() {
    let items: Vec<int> = MakeVec();
}
`)
		fn := m.Items[0].(*ast.FunctionDecl)
		decl := fn.Body.Body[0].Declarators[0]
		assert.Equal(t, "items", decl.Name)
		require.NotNil(t, decl.Type)
		assert.Equal(t, "Vec", decl.Type.Name)
	})

	t.Run("no type", func(t *testing.T) {
		m := parseClean(t, `
public void Run() {
    let items = MakeVec();
}
`)
		fn := m.Items[0].(*ast.FunctionDecl)
		decl := fn.Body.Body[0].Declarators[0]
		assert.Equal(t, "items", decl.Name)
		assert.Nil(t, decl.Type)
	})
}

func TestExpressionPrecedence(t *testing.T) {
	m := parseClean(t, `
public int Run() => 1 + 2 * 3;
`)
	fn := m.Items[0].(*ast.FunctionDecl)
	require.NotNil(t, fn.Body)
	expr := fn.Body.Body[0].Expr
	require.NotNil(t, expr)
	require.Equal(t, ast.ExprBinary, expr.Kind)
	assert.Equal(t, "+", expr.Op)
	assert.Equal(t, "1", expr.Left.LiteralText)
	require.Equal(t, ast.ExprBinary, expr.Right.Kind)
	assert.Equal(t, "*", expr.Right.Op)
}

func TestLambdaDisambiguation(t *testing.T) {
	t.Run("single param shorthand", func(t *testing.T) {
		m := parseClean(t, `
public void Run() {
    let f = x => x + 1;
}
`)
		fn := m.Items[0].(*ast.FunctionDecl)
		init := fn.Body.Body[0].Declarators[0].Initializer
		require.Equal(t, ast.ExprLambda, init.Kind)
		require.Len(t, init.LambdaParams, 1)
		assert.Equal(t, "x", init.LambdaParams[0].Name)
	})

	t.Run("multi param", func(t *testing.T) {
		m := parseClean(t, `
public void Run() {
    let f = (a, b) => a + b;
}
`)
		fn := m.Items[0].(*ast.FunctionDecl)
		init := fn.Body.Body[0].Declarators[0].Initializer
		require.Equal(t, ast.ExprLambda, init.Kind)
		require.Len(t, init.LambdaParams, 2)
	})

	t.Run("grouped expression not a lambda", func(t *testing.T) {
		m := parseClean(t, `
public void Run() {
    let f = (a + b);
}
`)
		fn := m.Items[0].(*ast.FunctionDecl)
		init := fn.Body.Body[0].Declarators[0].Initializer
		assert.Equal(t, ast.ExprBinary, init.Kind)
	})
}

func TestInterpolatedString(t *testing.T) {
	m := parseClean(t, `
public string Run() => $"hello {name} you are {age + 1} now";
`)
	fn := m.Items[0].(*ast.FunctionDecl)
	expr := fn.Body.Body[0].Expr
	require.Equal(t, ast.ExprInterpolatedString, expr.Kind)
	require.Len(t, expr.Expressions, 2)
	assert.Equal(t, ast.ExprIdentifier, expr.Expressions[0].Kind)
	assert.Equal(t, "name", expr.Expressions[0].Name)
	assert.Equal(t, ast.ExprBinary, expr.Expressions[1].Kind)
}

func TestSwitchExpressionPatterns(t *testing.T) {
	m := parseClean(t, `
public string Describe() => shape switch {
    Circle { Radius: r } when r > 0 => "circle",
    [first, ..rest] => "list",
    (a, b) => "pair",
    _ => "other",
};
`)
	fn := m.Items[0].(*ast.FunctionDecl)
	expr := fn.Body.Body[0].Expr
	require.Equal(t, ast.ExprSwitch, expr.Kind)
	require.Len(t, expr.Arms, 4)

	recordArm := expr.Arms[0]
	require.NotNil(t, recordArm.Guard)
	require.NotNil(t, recordArm.Pattern.Ast)
	assert.Equal(t, ast.PatRecord, recordArm.Pattern.Ast.Node.Kind)

	listArm := expr.Arms[1]
	assert.Equal(t, ast.PatListSlice, listArm.Pattern.Ast.Node.Kind)
	assert.Equal(t, "rest", listArm.Pattern.Ast.Node.RestBinding)

	tupleArm := expr.Arms[2]
	assert.Equal(t, ast.PatTuple, tupleArm.Pattern.Ast.Node.Kind)

	wildcardArm := expr.Arms[3]
	assert.Equal(t, ast.PatWildcard, wildcardArm.Pattern.Ast.Node.Kind)
}

func TestRecoveryDoesNotPanicOnMalformedInput(t *testing.T) {
	require.NotPanics(t, func() {
		res := ParseModule(`
struct Broken {
    public X
    public Y: int;
}

public Run(): void { }
`, "test.chic")
		assert.NotEmpty(t, res.Diagnostics)
		assert.NotEmpty(t, res.RecoveryTelemetry)
	})
}

func TestPointerQualifierChain(t *testing.T) {
	m := parseClean(t, `
extern void Foo(@restrict @noalias *mut *const Env p);
`)
	fn := m.Items[0].(*ast.FunctionDecl)
	param := fn.Signature.Parameters[0]
	require.Len(t, param.Type.Pointer, 2)
	// Stored outermost first: index 0 is the `*mut` level carrying the
	// qualifiers, index 1 is the innermost `*const`.
	assert.True(t, param.Type.Pointer[0].Mutable)
	assert.Contains(t, param.Type.Pointer[0].Qualifiers, ast.QRestrict)
	assert.Contains(t, param.Type.Pointer[0].Qualifiers, ast.QNoAlias)
	assert.False(t, param.Type.Pointer[1].Mutable)
	assert.Equal(t, "Env", param.Type.Name)
	assert.Equal(t, "@restrict @noalias *mut *const Env", param.Type.String())
}

func TestUnattachedDocCommentWarns(t *testing.T) {
	res := ParseModule(`
/// orphaned doc comment
`, "test.chic")
	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "DOC0001")
}
