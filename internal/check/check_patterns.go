package check

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// checkPatternsInStatement validates `switch`-statement case patterns:
// a guard on the `default:` label is meaningless (PAT0001), two case
// labels with identical source text are a duplicate pattern (PAT0002),
// a slice pattern nested inside another slice pattern's head/tail is
// unsupported (PAT0003), and a switch with neither a `default:` label
// nor a catch-all binding/wildcard case is non-exhaustive (PAT0004).
func checkPatternsInStatement(s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkPatternsInStatement(inner, sink)
		}
	case ast.StmtIf:
		checkPatternsInStatement(s.Then, sink)
		checkPatternsInStatement(s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor:
		checkPatternsInStatement(s.Then, sink)
	case ast.StmtForeach:
		checkPatternsInStatement(s.ForeachBody, sink)
	case ast.StmtSwitch:
		checkSwitchSections(s, sink)
		for _, sec := range s.SwitchSections {
			for _, inner := range sec.Statements {
				checkPatternsInStatement(inner, sink)
			}
		}
	}
}

func checkSwitchSections(s *ast.Statement, sink *diag.Sink) {
	seen := make(map[string]bool)
	hasDefault := false
	hasCatchAll := false
	for _, sec := range s.SwitchSections {
		for _, label := range sec.Labels {
			if label.Kind == ast.SwitchDefault {
				hasDefault = true
				if len(label.Guards) > 0 {
					sink.Errorf(s.Span, PAT0001, "a guard on the default case has no effect")
				}
				continue
			}
			if label.Pattern == nil {
				continue
			}
			if seen[label.Pattern.RawText] {
				sink.Errorf(label.Pattern.Span, PAT0002, "duplicate case pattern %q", label.Pattern.RawText)
			}
			seen[label.Pattern.RawText] = true

			if !label.Pattern.Parsed() {
				continue
			}
			node := label.Pattern.Ast.Node
			if len(label.Guards) == 0 && (node.Kind == ast.PatWildcard || node.Kind == ast.PatBinding) {
				hasCatchAll = true
			}
			walkPatternForNestedSlice(node, sink)
		}
	}
	if !hasDefault && !hasCatchAll {
		sink.Errorf(s.Span, PAT0004, "switch is not exhaustive: add a default case or a catch-all binding")
	}
}

func walkPatternForNestedSlice(n *ast.PatternNode, sink *diag.Sink) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.PatListSlice:
		for _, h := range n.Head {
			if h.Kind == ast.PatListSlice {
				sink.Errorf(h.Span, PAT0003, "nested slice patterns are unsupported")
			}
			walkPatternForNestedSlice(h, sink)
		}
		for _, t := range n.Tail {
			if t.Kind == ast.PatListSlice {
				sink.Errorf(t.Span, PAT0003, "nested slice patterns are unsupported")
			}
			walkPatternForNestedSlice(t, sink)
		}
	case ast.PatTuple:
		for _, e := range n.TupleElements {
			walkPatternForNestedSlice(e, sink)
		}
	case ast.PatOr:
		for _, a := range n.Alternatives {
			walkPatternForNestedSlice(a, sink)
		}
	case ast.PatRecord:
		for _, f := range n.RecordFields {
			walkPatternForNestedSlice(f.Pattern, sink)
		}
	}
}
