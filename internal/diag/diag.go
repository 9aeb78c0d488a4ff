// Package diag defines the span and diagnostic vocabulary shared by every
// phase of the front end: lexer, parser, type checker, and MIR builder.
package diag

import "fmt"

// Pos is a single point in a source file.
type Pos struct {
	Line   int
	Column int
	Offset int // byte offset, used for deterministic ordering
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range within a single file.
type Span struct {
	FileID int
	File   string
	Start  Pos
	End    Pos
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("<file %d>:%s-%s", s.FileID, s.Start, s.End)
	}
	return fmt.Sprintf("%s:%s-%s", s.File, s.Start, s.End)
}

// Before reports whether s starts strictly before other, used to keep
// diagnostic ordering deterministic: diagnostics sort by phase, then by
// source span.
func (s Span) Before(other Span) bool {
	if s.FileID != other.FileID {
		return s.FileID < other.FileID
	}
	return s.Start.Offset < other.Start.Offset
}

// Severity classifies a Diagnostic.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "note"
	}
}

// Code is a stable taxonomy entry, e.g. "TCK080" or "LCL0001".
type Code struct {
	Code     string
	Category string // e.g. "parser", "typecheck", "mir", "layout"
}

// Label attaches a message to a span, either the primary offending
// location or a secondary point of interest (e.g. the conflicting decl).
type Label struct {
	Span    Span
	Message string
}

// Suggestion is an optional fix-it the diagnostic may carry.
type Suggestion struct {
	Message     string
	Span        *Span
	Replacement string
}

// Diagnostic is the single structured-error shape used everywhere in the
// core.
type Diagnostic struct {
	Severity        Severity
	Message         string
	Code            *Code
	PrimaryLabel    *Label
	SecondaryLabels []Label
	Notes           []string
	Suggestions     []Suggestion
}

func (d Diagnostic) String() string {
	code := ""
	if d.Code != nil {
		code = d.Code.Code + ": "
	}
	return fmt.Sprintf("%s: %s%s", d.Severity, code, d.Message)
}

// Errorf builds an Error-severity diagnostic with a primary label.
func Errorf(span Span, code string, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Code:     &Code{Code: code},
		PrimaryLabel: &Label{
			Span:    span,
			Message: fmt.Sprintf(format, args...),
		},
	}
}

// Warnf builds a Warning-severity diagnostic with a primary label.
func Warnf(span Span, code string, format string, args ...any) Diagnostic {
	d := Errorf(span, code, format, args...)
	d.Severity = Warning
	return d
}

// Sink is an append-only accumulator; no phase is ever allowed to throw
// a Diagnostic away or abort because one was recorded.
type Sink struct {
	diagnostics []Diagnostic
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Push appends a diagnostic, preserving insertion order.
func (s *Sink) Push(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// Errorf is a convenience wrapper around Push(Errorf(...)).
func (s *Sink) Errorf(span Span, code string, format string, args ...any) {
	s.Push(Errorf(span, code, format, args...))
}

// Warnf is a convenience wrapper around Push(Warnf(...)).
func (s *Sink) Warnf(span Span, code string, format string, args ...any) {
	s.Push(Warnf(span, code, format, args...))
}

// All returns every diagnostic recorded so far, in emission order.
func (s *Sink) All() []Diagnostic {
	return s.diagnostics
}

// Clean reports whether no Error-severity diagnostic has been recorded.
// A compilation is clean iff no Error-severity diagnostic exists in any
// phase's sink.
func (s *Sink) Clean() bool {
	for _, d := range s.diagnostics {
		if d.Severity == Error {
			return false
		}
	}
	return true
}

// HasCode reports whether any diagnostic carries the given code.
func (s *Sink) HasCode(code string) bool {
	for _, d := range s.diagnostics {
		if d.Code != nil && d.Code.Code == code {
			return true
		}
	}
	return false
}

// Merge appends another sink's diagnostics onto this one, preserving
// relative order; used when the driver combines per-phase sinks.
func (s *Sink) Merge(other *Sink) {
	if other == nil {
		return
	}
	s.diagnostics = append(s.diagnostics, other.diagnostics...)
}
