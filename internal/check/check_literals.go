package check

import (
	"strconv"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// literalTypeAliases normalises the few declared-type spellings that
// accept more than one literal-type name: long/i64, ulong/u64, and
// usize/System.UIntPtr.
var literalTypeAliases = map[string]string{
	"long": "i64", "i64": "i64",
	"ulong": "u64", "u64": "u64",
	"usize": "System.UIntPtr", "System.UIntPtr": "System.UIntPtr",
}

// integerWidths gives the bit width of every fixed-width integer literal
// type, used for the TCK121 overflow check; unsigned types additionally
// forbid a leading '-' (detected by strconv failing to parse as uint).
var integerWidths = map[string]int{
	"i8": 8, "i16": 16, "i32": 32, "i64": 64,
	"u8": 8, "u16": 16, "u32": 32, "u64": 64,
}

func canonicalLiteralType(name string) string {
	if alias, ok := literalTypeAliases[name]; ok {
		return alias
	}
	return name
}

// checkNumericLiteralsInStatement recurses into declarator initializers
// and diagnoses a declared-type/literal-type mismatch (TCK120) or a
// literal value that overflows the declared width (TCK121).
func checkNumericLiteralsInStatement(s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkNumericLiteralsInStatement(inner, sink)
		}
	case ast.StmtVariableDeclaration, ast.StmtConstDeclaration:
		for _, d := range s.Declarators {
			if d.Type != nil && d.Initializer != nil {
				checkNumericLiteral(*d.Type, d.Initializer, sink)
			}
		}
	case ast.StmtIf:
		checkNumericLiteralsInStatement(s.Then, sink)
		checkNumericLiteralsInStatement(s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile:
		checkNumericLiteralsInStatement(s.Then, sink)
	case ast.StmtFor:
		checkNumericLiteralsInStatement(s.Then, sink)
	case ast.StmtForeach:
		checkNumericLiteralsInStatement(s.ForeachBody, sink)
	}
}

func checkNumericLiteral(declared ast.TypeExpr, e *ast.ExprNode, sink *diag.Sink) {
	if e.Kind != ast.ExprLiteral || e.NumericMeta == nil {
		return
	}
	declName := canonicalLiteralType(declared.Name)
	if declName == "" || declName == "decimal" || !(isNumericTypeName(declName)) {
		return
	}
	meta := e.NumericMeta
	litType := canonicalLiteralType(meta.LiteralType)
	if meta.ExplicitSuffix && litType != declName {
		sink.Errorf(e.Span, TCK120, "literal suffix %q does not match declared type %q", meta.SuffixText, declared.Name)
		return
	}
	width, ok := integerWidths[declName]
	if !ok {
		return
	}
	unsigned := declName[0] == 'u'
	if unsigned {
		if v, err := strconv.ParseUint(e.LiteralText, 0, width); err != nil || v > maxUint(width) {
			sink.Errorf(e.Span, TCK121, "literal %s overflows %s", e.LiteralText, declName)
		}
		return
	}
	if v, err := strconv.ParseInt(e.LiteralText, 0, width); err != nil || v > maxInt(width) || v < minInt(width) {
		sink.Errorf(e.Span, TCK121, "literal %s overflows %s", e.LiteralText, declName)
	}
}

func isNumericTypeName(n string) bool {
	_, isInt := integerWidths[n]
	return isInt || n == "f32" || n == "f64"
}

func maxUint(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func maxInt(width int) int64 {
	return (int64(1) << uint(width-1)) - 1
}

func minInt(width int) int64 {
	return -(int64(1) << uint(width-1))
}
