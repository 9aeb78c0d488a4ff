package check

import (
	"strings"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// validMemoryOrderings are the legal `Std::Sync::MemoryOrder` members:
// `Relaxed < Acquire < AcqRel < SeqCst` is the strength lattice; Release
// sits alongside Acquire (neither implies the other) but above Relaxed.
var validMemoryOrderings = map[string]bool{
	"Relaxed": true, "Acquire": true, "Release": true, "AcqRel": true, "SeqCst": true,
}

// orderStrength ranks a MemoryOrder member for the failure_order <=
// success_order comparison CompareExchange requires. Release and
// Acquire are incomparable in the full memory model, but for the
// failure-order bound the checker only needs "at least as strong as
// Relaxed, weaker than AcqRel/SeqCst", so Release shares Acquire's rank.
var orderStrength = map[string]int{
	"Relaxed": 0, "Acquire": 1, "Release": 1, "AcqRel": 2, "SeqCst": 3,
}

// checkAtomicsInStatement diagnoses an `atomic(order) { ... }` block
// whose ordering expression does not name one of the five recognised
// memory orders (MM0001).
func checkAtomicsInStatement(s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkAtomicsInStatement(inner, sink)
		}
	case ast.StmtAtomic:
		if e := s.AtomicOrdering; e != nil {
			if e.Kind != ast.ExprMemberAccess || e.Target == nil || e.Target.Kind != ast.ExprIdentifier ||
				e.Target.Name != "MemoryOrder" || !validMemoryOrderings[e.Member] {
				sink.Errorf(s.Span, MM0001, "atomic block has an invalid memory ordering")
			}
		}
		checkAtomicsInStatement(s.AtomicBody, sink)
	case ast.StmtIf:
		checkAtomicsInStatement(s.Then, sink)
		checkAtomicsInStatement(s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor:
		checkAtomicsInStatement(s.Then, sink)
	case ast.StmtForeach:
		checkAtomicsInStatement(s.ForeachBody, sink)
	}
}

// checkCompareExchangeCallsInStatement walks every statement reachable
// from a function body looking for a call to
// `Std::Sync::Atomic::CompareExchange(target, expected, success_order,
// failure_order)` and enforces MM0002: failure_order must not exceed
// success_order in the strength lattice, and Release/AcqRel are never
// valid failure orders.
func checkCompareExchangeCallsInStatement(s *ast.Statement, sink *diag.Sink) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, inner := range s.Body {
			checkCompareExchangeCallsInStatement(inner, sink)
		}
	case ast.StmtVariableDeclaration, ast.StmtConstDeclaration:
		for _, d := range s.Declarators {
			checkCompareExchangeCallsInExpr(d.Initializer, sink)
		}
	case ast.StmtExpression, ast.StmtReturn, ast.StmtThrow, ast.StmtYieldReturn:
		checkCompareExchangeCallsInExpr(s.Expr, sink)
	case ast.StmtIf:
		checkCompareExchangeCallsInExpr(s.Cond, sink)
		checkCompareExchangeCallsInStatement(s.Then, sink)
		checkCompareExchangeCallsInStatement(s.Else, sink)
	case ast.StmtWhile, ast.StmtDoWhile:
		checkCompareExchangeCallsInExpr(s.Cond, sink)
		checkCompareExchangeCallsInStatement(s.Then, sink)
	case ast.StmtFor:
		checkCompareExchangeCallsInStatement(s.Then, sink)
	case ast.StmtForeach:
		checkCompareExchangeCallsInExpr(s.ForeachSeq, sink)
		checkCompareExchangeCallsInStatement(s.ForeachBody, sink)
	case ast.StmtAtomic:
		checkCompareExchangeCallsInExpr(s.AtomicOrdering, sink)
		checkCompareExchangeCallsInStatement(s.AtomicBody, sink)
	}
}

func checkCompareExchangeCallsInExpr(e *ast.ExprNode, sink *diag.Sink) {
	if e == nil {
		return
	}
	if e.Kind == ast.ExprCall && e.Callee != nil {
		if member, path := memberPath(e.Callee); member == "CompareExchange" && strings.Contains(path, "Atomic") {
			checkCompareExchangeOrderings(e, sink)
		}
	}
	checkCompareExchangeCallsInExpr(e.Left, sink)
	checkCompareExchangeCallsInExpr(e.Right, sink)
	checkCompareExchangeCallsInExpr(e.Callee, sink)
	checkCompareExchangeCallsInExpr(e.Target, sink)
	checkCompareExchangeCallsInExpr(e.Inner, sink)
	for _, a := range e.Args {
		checkCompareExchangeCallsInExpr(a.Value, sink)
	}
	for _, m := range e.InitMembers {
		checkCompareExchangeCallsInExpr(m.Value, sink)
	}
	if e.LambdaBody != nil {
		checkCompareExchangeCallsInStatement(e.LambdaBody, sink)
	}
}

// memberPath flattens a (possibly namespaced) member-access chain into
// its final member name and the full dotted path, e.g.
// `Std.Sync.Atomic.CompareExchange(...)`'s callee yields
// ("CompareExchange", "Std.Sync.Atomic.CompareExchange"). Anything other
// than a chain of identifiers/member accesses yields ("", "").
func memberPath(e *ast.ExprNode) (member, path string) {
	switch e.Kind {
	case ast.ExprIdentifier:
		return e.Name, e.Name
	case ast.ExprMemberAccess:
		if e.Target == nil {
			return e.Member, e.Member
		}
		_, targetPath := memberPath(e.Target)
		if targetPath == "" {
			return e.Member, e.Member
		}
		return e.Member, targetPath + "." + e.Member
	default:
		return "", ""
	}
}

// memoryOrderName extracts the `MemoryOrder.X` member name from an
// argument expression, or "" if it isn't shaped that way.
func memoryOrderName(e *ast.ExprNode) string {
	if e == nil || e.Kind != ast.ExprMemberAccess || e.Target == nil || e.Target.Kind != ast.ExprIdentifier {
		return ""
	}
	if e.Target.Name != "MemoryOrder" || !validMemoryOrderings[e.Member] {
		return ""
	}
	return e.Member
}

func checkCompareExchangeOrderings(call *ast.ExprNode, sink *diag.Sink) {
	if len(call.Args) < 4 {
		return
	}
	success := memoryOrderName(call.Args[2].Value)
	failure := memoryOrderName(call.Args[3].Value)
	if success == "" || failure == "" {
		return
	}
	if failure == "Release" || failure == "AcqRel" {
		sink.Errorf(call.Span, MM0002, "CompareExchange failure order %q is invalid: Release and AcqRel cannot be used as a failure order", failure)
		return
	}
	if orderStrength[failure] > orderStrength[success] {
		sink.Errorf(call.Span, MM0002, "CompareExchange failure order %q must not be stronger than success order %q", failure, success)
	}
}

// checkAtomicStructs diagnoses a struct carrying an Atomic<T> field
// without both the ThreadSafe and Shareable auto-trait overrides set
// (MM0003): an atomic field is only meaningful on a type that is
// actually safe to share across threads.
func checkAtomicStructs(reg *Registry, sink *diag.Sink) {
	for _, sym := range reg.byName {
		st, ok := sym.Item.(*ast.StructDecl)
		if !ok {
			continue
		}
		hasAtomic := false
		for _, f := range st.Fields {
			if f.Type.Name == "Atomic" {
				hasAtomic = true
				break
			}
		}
		if !hasAtomic {
			continue
		}
		if st.AutoTraits.ThreadSafe != ast.True || st.AutoTraits.Shareable != ast.True {
			sink.Errorf(st.Span, MM0003, "type %q has an Atomic field but does not declare @thread_safe and @shareable", st.StructName)
		}
	}
}
