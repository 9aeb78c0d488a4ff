// Package session wires the five compiler phases together behind a
// single entry point, the way the teacher's cmd/nerd wires zap logging
// and a request-scoped identity around its command handlers. A Session
// owns a *zap.Logger and a uuid identity; Run drives parse -> check ->
// mir -> layout -> reflect and returns every phase's output together.
package session

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/chic-lang/chicc/internal/check"
	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/layout"
	"github.com/chic-lang/chicc/internal/mir"
	"github.com/chic-lang/chicc/internal/parser"
	"github.com/chic-lang/chicc/internal/reflect"
)

// Session is one compilation run's identity and logger.
type Session struct {
	ID      uuid.UUID
	Logger  *zap.Logger
	Profile layout.TargetProfile
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger overrides the default production logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.Logger = l }
}

// WithProfile overrides the default 64-bit target profile used for
// layout computation.
func WithProfile(p layout.TargetProfile) Option {
	return func(s *Session) { s.Profile = p }
}

// New builds a Session with a fresh identity. A nil logger is replaced
// with zap.NewNop() so callers that don't care about logging never
// need a nil check, matching the teacher's cli_test.go convention of
// swapping in zap.NewNop() for tests.
func New(opts ...Option) *Session {
	s := &Session{ID: uuid.New(), Logger: zap.NewNop(), Profile: layout.Default64()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result bundles every phase's output for one source file.
type Result struct {
	Module      *ast.Module
	Diagnostics *diag.Sink
	Lowered     *mir.LoweredModule
	Layouts     map[string]*layout.StructLayout
	Reflection  *reflect.Manifest
}

// Clean reports whether no phase produced an Error-severity diagnostic.
func (r *Result) Clean() bool {
	return r.Diagnostics.Clean()
}

// Run parses src (named file for diagnostics), type-checks it, lowers
// it to MIR, computes struct layouts, and builds the reflection
// manifest. Diagnostics from every phase land in one merged sink,
// matching §7's "every phase accumulates diagnostics in an append-only
// sink; none is thrown" propagation policy.
func (s *Session) Run(src, file string) *Result {
	s.Logger.Info("parse", zap.String("session", s.ID.String()), zap.String("file", file))
	pr := parser.ParseModule(src, file)
	m := pr.Module

	sink := diag.NewSink()
	for _, d := range pr.Diagnostics {
		sink.Push(d)
	}

	s.Logger.Info("check", zap.String("session", s.ID.String()))
	sink.Merge(check.Check(m))

	s.Logger.Info("lower", zap.String("session", s.ID.String()))
	lowered := mir.LowerModule(m)
	sink.Merge(lowered.Diagnostics)

	s.Logger.Info("layout", zap.String("session", s.ID.String()))
	layouts := s.layoutAllStructs(m)

	s.Logger.Info("reflect", zap.String("session", s.ID.String()))
	manifest := reflect.BuildManifest(m)

	return &Result{
		Module:      m,
		Diagnostics: sink,
		Lowered:     lowered,
		Layouts:     layouts,
		Reflection:  manifest,
	}
}

func (s *Session) layoutAllStructs(m *ast.Module) map[string]*layout.StructLayout {
	engine := layout.NewEngine(s.Profile)
	out := make(map[string]*layout.StructLayout)
	walkStructs(m.Items, m.Namespace, func(qn string, decl *ast.StructDecl) {
		out[qn] = engine.LayoutStruct(qn, decl)
	})
	return out
}

func walkStructs(items []ast.Item, namespace string, visit func(string, *ast.StructDecl)) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.NamespaceItem:
			child := it.NamespaceName
			if namespace != "" {
				child = namespace + "." + it.NamespaceName
			}
			walkStructs(it.Items, child, visit)
		case *ast.StructDecl:
			qn := it.StructName
			if namespace != "" {
				qn = namespace + "." + it.StructName
			}
			visit(qn, it)
		}
	}
}

// ReflectJSONPath derives the adjacent `<output>.reflect.json` path
// described in §6 for a given primary output path.
func ReflectJSONPath(output string) string {
	return fmt.Sprintf("%s.reflect.json", output)
}
