package mir

import (
	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/diag"
)

// scopeFrame is one entry of the BodyBuilder's scope stack: its live
// locals (for StorageDead emission on exit), and break/continue targets
// when the scope is a loop body.
type scopeFrame struct {
	locals        []LocalID
	breakTarget   *BlockID
	continueTarget *BlockID
	isLoop        bool
}

// labelState tracks a goto label's resolved block and the scope depth it
// was defined at, used to diagnose "goto into a nested scope".
type labelState struct {
	block       BlockID
	scopeDepth  int
	defined     bool
}

// pendingGoto is a forward goto recorded before its label was seen.
type pendingGoto struct {
	label      string
	scopeDepth int
	span       diag.Span
}

// switchContext tracks the current `switch` for `goto case`/`goto
// default` resolution.
type switchContext struct {
	labelBlocks map[string]BlockID // canonical pattern text -> block
	defaultBlock *BlockID
	guardedLabels map[string]bool
}

// BodyBuilder lowers one function/method/constructor/accessor body.
type BodyBuilder struct {
	body   *MirBody
	sink   *diag.Sink
	engine interface{} // *layout.Engine, kept untyped to avoid an import cycle risk; unused by current lowering paths

	current BlockID
	scopes  []scopeFrame

	labels        map[string]*labelState
	pendingGotos  map[string][]pendingGoto

	switchStack []*switchContext
	unsafeDepth int

	tempCounter int
	foreachCounter int
}

// NewBodyBuilder starts lowering a new body named name with no locals
// yet; arguments are added with AddArg, which bumps the body's ArgCount.
func NewBodyBuilder(name string, span diag.Span, sink *diag.Sink) *BodyBuilder {
	b := &BodyBuilder{
		body:         &MirBody{Name: name, Span: span},
		sink:         sink,
		labels:       make(map[string]*labelState),
		pendingGotos: make(map[string][]pendingGoto),
	}
	b.current = b.body.NewBlock()
	return b
}

// Body returns the body under construction.
func (b *BodyBuilder) Body() *MirBody { return b.body }

// AddArg registers a function parameter as a LocalArg local.
func (b *BodyBuilder) AddArg(name string, ty Ty, mutable bool, span diag.Span) LocalID {
	id := b.body.NewLocal(LocalDecl{Name: name, Ty: ty, Mutable: mutable, Span: span, Kind: LocalArg})
	b.body.ArgCount++
	return id
}

func (b *BodyBuilder) newTemp(ty Ty, span diag.Span) LocalID {
	b.tempCounter++
	return b.body.NewLocal(LocalDecl{Name: tempName(b.tempCounter), Ty: ty, Mutable: true, Span: span, Kind: LocalTemp})
}

func tempName(n int) string {
	return "__tmp_" + itoa(n)
}

func (b *BodyBuilder) pushScope(isLoop bool) int {
	b.scopes = append(b.scopes, scopeFrame{isLoop: isLoop})
	return len(b.scopes)
}

// popScope emits StorageDead for every local declared in the top scope,
// in reverse declaration order, then pops it.
func (b *BodyBuilder) popScope(span diag.Span) {
	n := len(b.scopes)
	top := b.scopes[n-1]
	for i := len(top.locals) - 1; i >= 0; i-- {
		b.body.Push(b.current, Statement{Kind: StmtStorageDead, Span: span, Local: top.locals[i]})
	}
	b.scopes = b.scopes[:n-1]
}

func (b *BodyBuilder) declareLocal(name string, ty Ty, mutable bool, kind LocalKind, span diag.Span) LocalID {
	id := b.body.NewLocal(LocalDecl{Name: name, Ty: ty, Mutable: mutable, Span: span, Kind: kind})
	b.body.Push(b.current, Statement{Kind: StmtStorageLive, Span: span, Local: id})
	if n := len(b.scopes); n > 0 {
		b.scopes[n-1].locals = append(b.scopes[n-1].locals, id)
	}
	return id
}

func (b *BodyBuilder) currentLoop() *scopeFrame {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if b.scopes[i].isLoop {
			return &b.scopes[i]
		}
	}
	return nil
}

func gotoTerm(target BlockID) Terminator {
	return Terminator{Kind: TermGoto, Target: target}
}

func (b *BodyBuilder) terminateGoto(block, target BlockID) {
	b.body.Terminate(block, gotoTerm(target))
}

// LowerBlock lowers a StmtBlock's statement sequence, pushing and popping
// a scope frame around it.
func (b *BodyBuilder) LowerBlock(block *ast.Statement) {
	b.pushScope(false)
	for _, s := range block.Body {
		b.LowerStatement(s)
	}
	b.popScope(block.Span)
}

// LowerStatement dispatches on the statement's kind.
func (b *BodyBuilder) LowerStatement(s *ast.Statement) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		b.LowerBlock(s)
	case ast.StmtEmpty:
		// no-op
	case ast.StmtVariableDeclaration:
		b.lowerVarDecl(s)
	case ast.StmtConstDeclaration:
		b.lowerVarDecl(s)
	case ast.StmtExpression:
		b.lowerExprStatement(s.Expr, s.Span)
	case ast.StmtReturn:
		b.lowerReturn(s)
	case ast.StmtBreak:
		b.lowerBreak(s)
	case ast.StmtContinue:
		b.lowerContinue(s)
	case ast.StmtGoto:
		b.lowerGoto(s)
	case ast.StmtThrow:
		b.lowerThrow(s)
	case ast.StmtIf:
		b.lowerIf(s)
	case ast.StmtWhile:
		b.lowerWhile(s)
	case ast.StmtDoWhile:
		b.lowerDoWhile(s)
	case ast.StmtFor:
		b.lowerFor(s)
	case ast.StmtForeach:
		b.lowerForeach(s)
	case ast.StmtSwitch:
		b.lowerSwitch(s)
	case ast.StmtTry:
		b.lowerTry(s)
	case ast.StmtRegion:
		b.LowerStatement(s.RegionBody)
	case ast.StmtUsing:
		b.lowerUsing(s)
	case ast.StmtLock:
		b.LowerStatement(s.LockBody)
	case ast.StmtChecked, ast.StmtUnchecked:
		b.LowerStatement(s.Then)
	case ast.StmtAtomic:
		b.LowerStatement(s.AtomicBody)
	case ast.StmtYieldReturn:
		b.lowerYieldReturn(s)
	case ast.StmtYieldBreak:
		b.lowerYieldBreak(s)
	case ast.StmtFixed:
		b.lowerFixed(s)
	case ast.StmtUnsafe:
		b.unsafeDepth++
		b.LowerStatement(s.Then)
		b.unsafeDepth--
	case ast.StmtLabeled:
		b.lowerLabeled(s)
	}
}

func (b *BodyBuilder) lowerVarDecl(s *ast.Statement) {
	for _, d := range s.Declarators {
		var ty Ty
		if d.Type != nil {
			ty = TyFromAst(*d.Type)
		} else {
			ty = Unknown
		}
		id := b.declareLocal(d.Name, ty, s.VarModifier == ast.VarVar || s.Kind == ast.StmtVariableDeclaration, LocalUser, d.Span)
		if d.Initializer != nil {
			val := b.lowerExprOperand(d.Initializer)
			b.body.Push(b.current, Statement{
				Kind: StmtAssign, Span: d.Span,
				Dest: &Place{Local: id}, Value: &RValue{Kind: RValueUse, Operand: &val},
			})
		}
	}
}

func (b *BodyBuilder) lowerExprStatement(e *ast.ExprNode, span diag.Span) {
	if e == nil {
		return
	}
	if e.Kind == ast.ExprCall {
		b.lowerCallStatement(e, nil, span)
		return
	}
	// Any other bare expression statement is lowered for its side
	// effects only; the resulting operand is discarded.
	b.lowerExprOperand(e)
}

// lowerCallStatement lowers a call expression as a Call terminator,
// optionally assigning its result into dest, and continues lowering in a
// freshly allocated successor block.
func (b *BodyBuilder) lowerCallStatement(e *ast.ExprNode, dest *Place, span diag.Span) {
	fn := b.lowerExprOperand(e.Callee)
	args := make([]Operand, len(e.Args))
	modes := make([]ParamMode, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.lowerExprOperand(a.Value)
		modes[i] = ModeValue
	}
	next := b.body.NewBlock()
	b.body.Terminate(b.current, Terminator{
		Kind: TermCall, Span: span, Func: &fn, Args: args, ArgModes: modes,
		Dest: dest, CallTarget: next, Dispatch: DispatchStatic,
	})
	b.current = next
}

func (b *BodyBuilder) lowerReturn(s *ast.Statement) {
	var val *Operand
	if s.Expr != nil {
		v := b.lowerExprOperand(s.Expr)
		val = &v
	}
	b.body.Terminate(b.current, Terminator{Kind: TermReturn, Span: s.Span, ReturnValue: val})
	b.current = b.body.NewBlock()
}

func (b *BodyBuilder) lowerBreak(s *ast.Statement) {
	loop := b.currentLoop()
	if loop == nil || loop.breakTarget == nil {
		b.sink.Errorf(s.Span, "MIR0001", "break outside of a loop")
		return
	}
	b.terminateGoto(b.current, *loop.breakTarget)
	b.current = b.body.NewBlock()
}

func (b *BodyBuilder) lowerContinue(s *ast.Statement) {
	loop := b.currentLoop()
	if loop == nil || loop.continueTarget == nil {
		b.sink.Errorf(s.Span, "MIR0002", "continue outside of a loop")
		return
	}
	b.terminateGoto(b.current, *loop.continueTarget)
	b.current = b.body.NewBlock()
}

func (b *BodyBuilder) lowerThrow(s *ast.Statement) {
	var ex *Operand
	if s.Expr != nil {
		v := b.lowerExprOperand(s.Expr)
		ex = &v
	}
	b.body.Terminate(b.current, Terminator{Kind: TermThrow, Span: s.Span, Exception: ex})
	b.current = b.body.NewBlock()
}

func (b *BodyBuilder) lowerIf(s *ast.Statement) {
	cond := b.lowerExprOperand(s.Cond)
	thenBlock := b.body.NewBlock()
	elseBlock := b.body.NewBlock()
	after := b.body.NewBlock()

	b.body.Terminate(b.current, Terminator{
		Kind: TermSwitchInt, Span: s.Span, Discriminant: &cond,
		SwitchArms: []SwitchIntTarget{{Value: 1, Target: thenBlock}}, Otherwise: elseBlock,
	})

	b.current = thenBlock
	b.LowerStatement(s.Then)
	b.terminateGoto(b.current, after)

	b.current = elseBlock
	if s.Else != nil {
		b.LowerStatement(s.Else)
	}
	b.terminateGoto(b.current, after)

	b.current = after
}

// lowerWhile lays out §4.4's LoopBlockPlan{condition, body, exit}.
func (b *BodyBuilder) lowerWhile(s *ast.Statement) {
	cond := b.body.NewBlock()
	body := b.body.NewBlock()
	exit := b.body.NewBlock()

	b.terminateGoto(b.current, cond)
	b.current = cond
	c := b.lowerExprOperand(s.Cond)
	b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &c,
		SwitchArms: []SwitchIntTarget{{Value: 1, Target: body}}, Otherwise: exit})

	b.current = body
	b.pushScope(true)
	b.scopes[len(b.scopes)-1].breakTarget = &exit
	b.scopes[len(b.scopes)-1].continueTarget = &cond
	b.LowerStatement(s.Then)
	b.popScope(s.Span)
	b.terminateGoto(b.current, cond)

	b.current = exit
}

func (b *BodyBuilder) lowerDoWhile(s *ast.Statement) {
	body := b.body.NewBlock()
	cond := b.body.NewBlock()
	exit := b.body.NewBlock()

	b.terminateGoto(b.current, body)
	b.current = body
	b.pushScope(true)
	b.scopes[len(b.scopes)-1].breakTarget = &exit
	b.scopes[len(b.scopes)-1].continueTarget = &cond
	b.LowerStatement(s.Then)
	b.popScope(s.Span)
	b.terminateGoto(b.current, cond)

	b.current = cond
	c := b.lowerExprOperand(s.Cond)
	b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &c,
		SwitchArms: []SwitchIntTarget{{Value: 1, Target: body}}, Otherwise: exit})

	b.current = exit
}

func (b *BodyBuilder) lowerFor(s *ast.Statement) {
	b.pushScope(false)
	switch s.ForInitializer.Kind {
	case ast.ForInitDeclaration:
		b.LowerStatement(s.ForInitializer.Declaration)
	case ast.ForInitConst:
		b.LowerStatement(s.ForInitializer.Const)
	case ast.ForInitExpressions:
		for _, e := range s.ForInitializer.Expressions {
			b.lowerExprOperand(e)
		}
	}

	cond := b.body.NewBlock()
	body := b.body.NewBlock()
	iter := b.body.NewBlock()
	exit := b.body.NewBlock()

	b.terminateGoto(b.current, cond)
	b.current = cond
	if s.Cond != nil {
		c := b.lowerExprOperand(s.Cond)
		b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &c,
			SwitchArms: []SwitchIntTarget{{Value: 1, Target: body}}, Otherwise: exit})
	} else {
		b.terminateGoto(b.current, body)
	}

	b.current = body
	b.pushScope(true)
	b.scopes[len(b.scopes)-1].breakTarget = &exit
	b.scopes[len(b.scopes)-1].continueTarget = &iter
	b.LowerStatement(s.Then)
	b.popScope(s.Span)
	b.terminateGoto(b.current, iter)

	b.current = iter
	for _, e := range s.ForIterators {
		b.lowerExprOperand(e)
	}
	b.terminateGoto(b.current, cond)

	b.current = exit
	b.popScope(s.Span)
}

// lowerForeach synthesises three locals: __foreach_seq_N,
// __foreach_enum_N (declared for every foreach), and the user binding.
func (b *BodyBuilder) lowerForeach(s *ast.Statement) {
	b.foreachCounter++
	n := b.foreachCounter
	b.pushScope(false)

	seqVal := b.lowerExprOperand(s.ForeachSeq)
	seqLocal := b.declareLocal("__foreach_seq_"+itoa(n), Unknown, false, LocalForeachSeq, s.Span)
	b.body.Push(b.current, Statement{Kind: StmtAssign, Span: s.Span, Dest: &Place{Local: seqLocal}, Value: &RValue{Kind: RValueUse, Operand: &seqVal}})
	enumLocal := b.declareLocal("__foreach_enum_"+itoa(n), Unknown, true, LocalForeachEnum, s.Span)

	prepare := b.body.NewBlock()
	cond := b.body.NewBlock()
	body := b.body.NewBlock()
	cleanup := b.body.NewBlock()
	breakCleanup := b.body.NewBlock()
	exit := b.body.NewBlock()

	b.terminateGoto(b.current, prepare)
	b.current = prepare
	_ = enumLocal
	b.terminateGoto(b.current, cond)

	b.current = cond
	// Condition is whatever the enumerator's MoveNext resolves to;
	// modelled here as a Pending operand since enumerator protocol
	// resolution is outside this body builder's scope.
	discr := PendingOp(Pending{Category: PendingUnresolvedMember, Repr: "MoveNext", Span: s.Span})
	b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &discr,
		SwitchArms: []SwitchIntTarget{{Value: 1, Target: body}}, Otherwise: exit})

	b.current = body
	b.declareLocal(bindingName(s.ForeachBindingRaw), Unknown, false, LocalUser, s.Span)
	b.pushScope(true)
	b.scopes[len(b.scopes)-1].breakTarget = &breakCleanup
	b.scopes[len(b.scopes)-1].continueTarget = &cleanup
	b.LowerStatement(s.ForeachBody)
	b.popScope(s.Span)
	b.terminateGoto(b.current, cleanup)

	b.current = cleanup
	b.terminateGoto(b.current, cond)

	b.current = breakCleanup
	b.terminateGoto(b.current, exit)

	b.current = exit
	b.popScope(s.Span)
}

// bindingName extracts the declared identifier from a raw foreach
// binding such as "var x" or "ref readonly Item item".
func bindingName(raw string) string {
	last := raw
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == ' ' {
			last = raw[i+1:]
			break
		}
	}
	return last
}

func (b *BodyBuilder) lowerUsing(s *ast.Statement) {
	b.pushScope(false)
	if s.UsingResource.IsDeclaration {
		b.LowerStatement(s.UsingResource.Declaration)
	} else if s.UsingResource.Expr != nil {
		b.lowerExprOperand(s.UsingResource.Expr)
	}
	b.LowerStatement(s.UsingBody)
	b.popScope(s.Span)
}

func (b *BodyBuilder) lowerFixed(s *ast.Statement) {
	b.pushScope(false)
	for _, d := range s.FixedDeclarators {
		id := b.declareLocal(d.Name, Unknown, false, LocalUser, d.Span)
		if d.Initializer != nil {
			v := b.lowerExprOperand(d.Initializer)
			b.body.Push(b.current, Statement{Kind: StmtAssign, Span: d.Span, Dest: &Place{Local: id}, Value: &RValue{Kind: RValueUse, Operand: &v}})
		}
	}
	b.LowerStatement(s.FixedBody)
	b.popScope(s.Span)
}

func (b *BodyBuilder) lowerYieldReturn(s *ast.Statement) {
	if b.body.Generator == nil {
		b.body.Generator = &GeneratorMetadata{IsGenerator: true}
	}
	b.body.Generator.YieldPoints = append(b.body.Generator.YieldPoints, s.Span)
	if s.Expr != nil {
		b.lowerExprOperand(s.Expr)
	}
}

func (b *BodyBuilder) lowerYieldBreak(s *ast.Statement) {
	if b.body.Generator == nil {
		b.body.Generator = &GeneratorMetadata{IsGenerator: true}
	}
	b.body.Generator.HasYieldBreak = true
	b.body.Terminate(b.current, Terminator{Kind: TermReturn, Span: s.Span})
	b.current = b.body.NewBlock()
}

// lowerLabeled resolves a label definition against any pending forward
// gotos and diagnoses a jump into a nested scope (§4.4 "Jumping into a
// deeper scope is an error").
func (b *BodyBuilder) lowerLabeled(s *ast.Statement) {
	depth := len(b.scopes)
	ls, exists := b.labels[s.LabelName]
	var block BlockID
	if exists {
		block = ls.block
	} else {
		block = b.body.NewBlock()
		ls = &labelState{block: block}
		b.labels[s.LabelName] = ls
	}
	b.terminateGoto(b.current, block)
	b.current = block
	ls.scopeDepth = depth
	ls.defined = true

	for _, pg := range b.pendingGotos[s.LabelName] {
		if depth > pg.scopeDepth {
			b.sink.Errorf(pg.span, "MIR0010", "goto %s cannot jump into a nested scope", s.LabelName)
		}
	}
	delete(b.pendingGotos, s.LabelName)

	b.LowerStatement(s.Labeled)
}

func (b *BodyBuilder) lowerGoto(s *ast.Statement) {
	switch s.GotoTarget.Kind {
	case ast.GotoLabel:
		b.lowerGotoLabel(s)
	case ast.GotoCase:
		b.lowerGotoCase(s)
	case ast.GotoDefault:
		b.lowerGotoDefault(s)
	}
}

func (b *BodyBuilder) lowerGotoLabel(s *ast.Statement) {
	name := s.GotoTarget.Label
	depth := len(b.scopes)
	ls, exists := b.labels[name]
	if exists && ls.defined {
		if ls.scopeDepth > depth {
			b.sink.Errorf(s.Span, "MIR0010", "goto %s cannot jump into a nested scope", name)
		}
		b.terminateGoto(b.current, ls.block)
		b.current = b.body.NewBlock()
		return
	}
	if !exists {
		ls = &labelState{block: b.body.NewBlock()}
		b.labels[name] = ls
	}
	b.pendingGotos[name] = append(b.pendingGotos[name], pendingGoto{label: name, scopeDepth: depth, span: s.Span})
	b.terminateGoto(b.current, ls.block)
	b.current = b.body.NewBlock()
}

func (b *BodyBuilder) currentSwitch() *switchContext {
	if len(b.switchStack) == 0 {
		return nil
	}
	return b.switchStack[len(b.switchStack)-1]
}

func (b *BodyBuilder) lowerGotoCase(s *ast.Statement) {
	sw := b.currentSwitch()
	if sw == nil {
		b.sink.Errorf(s.Span, "MIR0011", "goto case is only valid inside a switch")
		return
	}
	pat := s.GotoTarget.Pattern
	if pat == nil || !pat.Parsed() {
		b.sink.Errorf(s.Span, "MIR0012", "goto case target pattern failed to parse")
		return
	}
	if len(pat.Guards) > 0 {
		b.sink.Errorf(s.Span, "MIR0013", "goto case target may not carry a when guard")
		return
	}
	if pat.Ast.Node.Kind == ast.PatListSlice {
		b.sink.Errorf(s.Span, "MIR0014", "goto case target may not be a list-slice pattern")
		return
	}
	key := pat.RawText
	if sw.guardedLabels[key] {
		b.sink.Errorf(s.Span, "MIR0015", "goto case cannot target a guarded case label %q", key)
		return
	}
	target, ok := sw.labelBlocks[key]
	if !ok {
		b.sink.Errorf(s.Span, "MIR0016", "goto case target %q not found in enclosing switch", key)
		return
	}
	b.terminateGoto(b.current, target)
	b.current = b.body.NewBlock()
}

func (b *BodyBuilder) lowerGotoDefault(s *ast.Statement) {
	sw := b.currentSwitch()
	if sw == nil || sw.defaultBlock == nil {
		b.sink.Errorf(s.Span, "MIR0017", "goto default has no enclosing default case")
		return
	}
	b.terminateGoto(b.current, *sw.defaultBlock)
	b.current = b.body.NewBlock()
}

// lowerSwitch lowers each section to its own block, recording pattern
// text -> block in a switchContext for goto case/default resolution.
func (b *BodyBuilder) lowerSwitch(s *ast.Statement) {
	scrutinee := b.lowerExprOperand(s.SwitchScrutinee)
	_ = scrutinee

	sw := &switchContext{labelBlocks: make(map[string]BlockID), guardedLabels: make(map[string]bool)}
	after := b.body.NewBlock()

	type section struct {
		block BlockID
		stmts []*ast.Statement
	}
	var sections []section
	for _, sec := range s.SwitchSections {
		blk := b.body.NewBlock()
		for _, lbl := range sec.Labels {
			switch lbl.Kind {
			case ast.SwitchDefault:
				sw.defaultBlock = &blk
			case ast.SwitchCase:
				if lbl.Pattern != nil {
					sw.labelBlocks[lbl.Pattern.RawText] = blk
					if len(lbl.Guards) > 0 {
						sw.guardedLabels[lbl.Pattern.RawText] = true
					}
				}
			}
		}
		sections = append(sections, section{block: blk, stmts: sec.Statements})
	}

	arms := make([]SwitchIntTarget, 0, len(sections))
	for i, sec := range sections {
		arms = append(arms, SwitchIntTarget{Value: int64(i), Target: sec.block})
	}
	otherwise := after
	if sw.defaultBlock != nil {
		otherwise = *sw.defaultBlock
	}
	b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &scrutinee, SwitchArms: arms, Otherwise: otherwise})

	b.switchStack = append(b.switchStack, sw)
	for _, sec := range sections {
		b.current = sec.block
		b.pushScope(false)
		for _, st := range sec.stmts {
			b.LowerStatement(st)
		}
		b.popScope(s.Span)
		b.terminateGoto(b.current, after)
	}
	b.switchStack = b.switchStack[:len(b.switchStack)-1]

	b.current = after
}

// lowerTry lowers a try/catch/finally per §4.4: each catch becomes
// (entry, body, cleanup) blocks, a dispatch block selects the matching
// catch by type test, and a finally region (if present) branches to a
// rethrow block when an exception flag is still set, else to after.
func (b *BodyBuilder) lowerTry(s *ast.Statement) {
	tryEntry := b.body.NewBlock()
	dispatch := b.body.NewBlock()
	unhandled := b.body.NewBlock()
	after := b.body.NewBlock()

	b.terminateGoto(b.current, tryEntry)
	b.current = tryEntry
	b.LowerStatement(s.TryBody)
	afterTry := after
	if s.Finally != nil {
		afterTry = b.body.NewBlock()
	}
	b.terminateGoto(b.current, afterTry)

	region := ExceptionRegion{TryEntry: tryEntry, AfterBlock: after, UnhandledBlock: unhandled}

	for _, c := range s.Catches {
		entry := b.body.NewBlock()
		body := b.body.NewBlock()
		cleanup := b.body.NewBlock()

		b.current = entry
		var bindingLocal *LocalID
		if c.BindingName != "" {
			ty := Unknown
			if c.ExceptionType != nil {
				ty = TyFromAst(*c.ExceptionType)
			}
			id := b.declareLocal(c.BindingName, ty, false, LocalUser, c.Span)
			bindingLocal = &id
		}
		b.terminateGoto(b.current, body)

		b.current = body
		if c.Filter != nil {
			filterBody := b.body.NewBlock()
			nextCatch := b.body.NewBlock()
			cond := b.lowerExprOperand(c.Filter)
			b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: c.Span, Discriminant: &cond,
				SwitchArms: []SwitchIntTarget{{Value: 1, Target: filterBody}}, Otherwise: nextCatch})
			b.current = filterBody
		}
		b.LowerStatement(c.Body)
		b.terminateGoto(b.current, cleanup)

		b.current = cleanup
		exitTarget := after
		if s.Finally != nil {
			exitTarget = afterTry
		}
		b.terminateGoto(b.current, exitTarget)

		etype := ""
		if c.ExceptionType != nil {
			etype = c.ExceptionType.Name
		}
		region.Catches = append(region.Catches, CatchRegion{
			ExceptionType: etype, BindingLocal: bindingLocal, Entry: entry, Body: body, Cleanup: cleanup, HasFilter: c.Filter != nil,
		})
	}

	// The dispatch block selects a catch via type tests; modelled as a
	// SwitchInt over a Pending discriminant (the type-test mechanism is
	// a back-end concern).
	dispDiscr := PendingOp(Pending{Category: PendingUnresolvedMember, Repr: "exception.typeid", Span: s.Span})
	var arms []SwitchIntTarget
	for i, c := range region.Catches {
		arms = append(arms, SwitchIntTarget{Value: int64(i), Target: c.Entry})
	}
	b.body.Terminate(dispatch, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &dispDiscr, SwitchArms: arms, Otherwise: unhandled})

	b.body.Terminate(unhandled, Terminator{Kind: TermThrow, Span: s.Span})

	if s.Finally != nil {
		finallyBlock := b.body.NewBlock()
		b.current = afterTry
		b.terminateGoto(b.current, finallyBlock)
		b.current = finallyBlock
		b.LowerStatement(s.Finally)
		rethrow := b.body.NewBlock()
		b.body.Terminate(rethrow, Terminator{Kind: TermThrow, Span: s.Span})
		// The exception flag is modelled as a Pending discriminant, like
		// the dispatch block's type test: set -> rethrow, clear -> after.
		flag := PendingOp(Pending{Category: PendingUnresolvedMember, Repr: "exception.flag", Span: s.Span})
		b.body.Terminate(b.current, Terminator{Kind: TermSwitchInt, Span: s.Span, Discriminant: &flag,
			SwitchArms: []SwitchIntTarget{{Value: 1, Target: rethrow}}, Otherwise: after})
		region.FinallyBlock = &finallyBlock
	}

	b.body.ExceptionRegions = append(b.body.ExceptionRegions, region)
	b.current = after
}
