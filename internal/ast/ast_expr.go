package ast

// NumericLiteralMetadata records the inferred/declared type of a numeric
// literal for the suffix-matching diagnostics.
type NumericLiteralMetadata struct {
	LiteralType    string // e.g. "i32", "f64", "decimal"
	ExplicitSuffix bool
	SuffixText     string
}

// LiteralKind tags the shape of a literal ExprNode.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
	LitNull
)

// ExprKind tags the variant of a parsed ExprNode.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprIdentifier
	ExprBinary
	ExprUnary
	ExprCall
	ExprNew
	ExprMemberAccess
	ExprIndex
	ExprCast
	ExprSwitch
	ExprLambda
	ExprInterpolatedString
	ExprAwait
	ExprThrow
	ExprTryPropagate // the `?` postfix operator
	ExprSizeof
	ExprAlignof
	ExprNameof
	ExprQuote
	ExprPattern
	ExprTuple
	ExprRef
	ExprDefault
)

// Argument is a single call/new argument, optionally named.
type Argument struct {
	Name  string // empty for positional
	Value *ExprNode
	Span  Span
}

// ObjectInitMember is a single `Name = expr` entry of an object
// initializer.
type ObjectInitMember struct {
	Name  string
	Value *ExprNode
	Span  Span
}

// SwitchArm is one `pattern when guard => expr` arm of a switch
// expression.
type SwitchArm struct {
	Pattern *Pattern
	Guard   *ExprNode
	Body    *ExprNode
}

// LambdaParam is a single lambda parameter; Type is nil when inferred.
type LambdaParam struct {
	Name string
	Type *TypeExpr
}

// ExprNode is the parsed tree for a single expression.
type ExprNode struct {
	Kind ExprKind
	Span Span

	// ExprLiteral
	LiteralKind LiteralKind
	LiteralText string
	NumericMeta *NumericLiteralMetadata

	// ExprIdentifier / ExprNameof
	Name string

	// ExprBinary / ExprUnary
	Op    string
	Left  *ExprNode
	Right *ExprNode // also used as the single operand of ExprUnary

	// ExprCall
	Callee *ExprNode
	Args   []Argument

	// ExprNew
	NewType        *TypeExpr
	InitMembers    []ObjectInitMember
	CollectionInit []*ExprNode

	// ExprMemberAccess
	Target          *ExprNode
	Member          string
	NullConditional bool

	// ExprIndex
	IndexArgs []*ExprNode

	// ExprCast
	CastType   *TypeExpr
	IsAsCast   bool // `x as T` vs `(T)x`

	// ExprSwitch
	Scrutinee *ExprNode
	Arms      []SwitchArm

	// ExprLambda
	LambdaParams []LambdaParam
	LambdaBody   *Statement // block or expression-bodied

	// ExprInterpolatedString
	Parts       []string    // literal text segments
	Expressions []*ExprNode // interpolated expressions, len = len(Parts)-1

	// ExprAwait / ExprThrow / ExprTryPropagate / ExprRef
	Inner *ExprNode

	// ExprSizeof / ExprAlignof
	OperandType *TypeExpr

	// ExprQuote
	QuotedSource string

	// ExprPattern (is-pattern expressions: `x is Some(y)`)
	PatternExpr *ExprNode
	Pattern     *Pattern

	// ExprTuple
	TupleElements []*ExprNode
}

// Expression is the surface-level node stored on statements/members:
// raw source text plus the optionally-parsed tree.
type Expression struct {
	Text string
	Node *ExprNode
	Span Span
}
