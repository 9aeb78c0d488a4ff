// Package check implements the symbol registry and validation passes: it
// populates a fully-qualified symbol index from a parsed module and checks
// the language invariants documented per diagnostic code below.
package check

// Diagnostic codes. Every code named here except DIM0002 is emitted by at
// least one path in this package; DIM0002 is raised by the parser.
const (
	TCK011 = "TCK011" // extension target ambiguity
	TCK012 = "TCK012" // extension target must be struct/class
	TCK022 = "TCK022" // variance misuse
	TCK030 = "TCK030" // unknown type
	TCK031 = "TCK031" // ambiguous type
	TCK044 = "TCK044" // default-arg ordering
	TCK045 = "TCK045" // default-arg binding
	TCK080 = "TCK080" // async return must be Task/Task<T>
	TCK092 = "TCK092" // unknown trait
	TCK095 = "TCK095" // blanket impls unsupported
	TCK098 = "TCK098" // missing impl method/associated type
	TCK099 = "TCK099" // inherent impls unsupported
	TCK120 = "TCK120" // literal suffix type mismatch
	TCK121 = "TCK121" // literal overflow
	TCK131 = "TCK131" // constructor arity mismatch
	TCK139 = "TCK139" // array needs length or initializer
	TCK140 = "TCK140" // array length != initializer count
	TCK144 = "TCK144" // multi-rank arrays unsupported
	TCK145 = "TCK145" // array length must be const when initializer given
	TCK147 = "TCK147" // implicit array type forbidden
	TCK150 = "TCK150" // operator declaration shape invalid
	TCK151 = "TCK151" // relational/equality operator missing its counterpart
	TCK160 = "TCK160" // const-fn signature invalid
	TCK161 = "TCK161" // const-fn body unsupported construct
	TCK181 = "TCK181" // lends target mismatch
	TCK182 = "TCK182" // lends_to_return mismatch
	TCK183 = "TCK183" // receiver/view mismatch
	TCK190 = "TCK190" // object initializer omits a required member
	TCK400 = "TCK400" // duplicate top-level declaration

	PAT0001 = "PAT0001" // pattern guard misuse
	PAT0002 = "PAT0002" // duplicate pattern
	PAT0003 = "PAT0003" // slice pattern misuse
	PAT0004 = "PAT0004" // exhaustiveness

	DIM0001 = "DIM0001" // default extension needs exactly one constraint, naming an interface
	DIM0002 = "DIM0002" // default-extension constraint malformed (raised by the parser)

	MM0001 = "MM0001" // atomic block ordering expression invalid
	MM0002 = "MM0002" // CompareExchange failure_order must not exceed success_order
	MM0003 = "MM0003" // Atomic<T> missing ThreadSafe/Shareable

	TYPE0701 = "TYPE0701" // vectorize width invalid
	TYPE0702 = "TYPE0702" // vectorize element type invalid
	TYPE0705 = "TYPE0705" // vectorize constraints violated
)
