package ast

// StmtKind tags the variant of a Statement.
type StmtKind int

const (
	StmtBlock StmtKind = iota
	StmtEmpty
	StmtVariableDeclaration
	StmtConstDeclaration
	StmtLocalFunction
	StmtExpression
	StmtReturn
	StmtBreak
	StmtContinue
	StmtGoto
	StmtThrow
	StmtIf
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtForeach
	StmtSwitch
	StmtTry
	StmtRegion
	StmtUsing
	StmtLock
	StmtChecked
	StmtUnchecked
	StmtAtomic
	StmtYieldReturn
	StmtYieldBreak
	StmtFixed
	StmtUnsafe
	StmtLabeled
)

// VarModifier distinguishes `let` from `var` locals.
type VarModifier int

const (
	VarLet VarModifier = iota
	VarVar
)

// Declarator is a single `name[: Type] [= init]` entry of a variable or
// const declaration; a declaration may list several, comma-separated.
type Declarator struct {
	Name        string
	Type        *TypeExpr
	Initializer *ExprNode
	Span        Span
}

// GotoTarget distinguishes the three `goto` forms: label, case value, and default.
type GotoTargetKind int

const (
	GotoLabel GotoTargetKind = iota
	GotoCase
	GotoDefault
)

type GotoTarget struct {
	Kind    GotoTargetKind
	Label   string   // GotoLabel
	Pattern *Pattern // GotoCase
}

// ForInit is the `For` statement's initializer clause variant.
type ForInitKind int

const (
	ForInitNone ForInitKind = iota
	ForInitDeclaration
	ForInitConst
	ForInitExpressions
)

type ForInit struct {
	Kind        ForInitKind
	Declaration *Statement  // StmtVariableDeclaration
	Const       *Statement  // StmtConstDeclaration
	Expressions []*ExprNode // ForInitExpressions
}

// SwitchLabelKind distinguishes `case pattern [when guard]:` from
// `default:`.
type SwitchLabelKind int

const (
	SwitchCase SwitchLabelKind = iota
	SwitchDefault
)

type SwitchLabel struct {
	Kind    SwitchLabelKind
	Pattern *Pattern
	Guards  []PatternGuard
}

type SwitchSection struct {
	Labels     []SwitchLabel
	Statements []*Statement
}

// CatchClause is a single `catch (Type name) [when filter] { body }`.
type CatchClause struct {
	ExceptionType *TypeExpr
	BindingName   string // empty if unbound
	Filter        *ExprNode
	Body          *Statement // StmtBlock
	Span          Span
}

// UsingResource is either `using (expr)` or `using (Type name = expr)`.
type UsingResource struct {
	IsDeclaration bool
	Expr          *ExprNode  // when !IsDeclaration
	Declaration   *Statement // StmtVariableDeclaration, when IsDeclaration
}

// Statement is the tagged variant over every statement kind.
type Statement struct {
	Kind StmtKind
	Span Span

	// StmtBlock
	Body []*Statement

	// StmtVariableDeclaration
	VarModifier VarModifier
	Declarators []Declarator
	IsPinned    bool

	// StmtConstDeclaration reuses Declarators.

	// StmtLocalFunction
	LocalFunction *FunctionDecl

	// StmtExpression / StmtReturn / StmtThrow / StmtYieldReturn
	Expr *ExprNode

	// StmtBreak / StmtContinue
	Label string // optional target label

	// StmtGoto
	GotoTarget GotoTarget

	// StmtIf
	Cond       *ExprNode
	Then       *Statement
	Else       *Statement

	// StmtWhile / StmtDoWhile reuse Cond + Then(body)

	// StmtFor
	ForInitializer ForInit
	ForIterators   []*ExprNode

	// StmtForeach
	ForeachBindingRaw string // raw binding text, kept verbatim
	ForeachSeq        *ExprNode
	ForeachBody       *Statement

	// StmtSwitch
	SwitchScrutinee *ExprNode
	SwitchSections  []SwitchSection

	// StmtTry
	TryBody    *Statement
	Catches    []CatchClause
	Finally    *Statement

	// StmtRegion
	RegionName string
	RegionBody *Statement

	// StmtUsing
	UsingResource UsingResource
	UsingBody     *Statement

	// StmtLock
	LockExpr *ExprNode
	LockBody *Statement

	// StmtChecked / StmtUnchecked / StmtUnsafe reuse Then as body

	// StmtAtomic
	AtomicOrdering *ExprNode
	AtomicBody     *Statement

	// StmtFixed
	FixedDeclarators []Declarator
	FixedBody        *Statement

	// StmtLabeled
	LabelName string
	Labeled   *Statement
}
