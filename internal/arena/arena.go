// Package arena provides interior-mutable storage for parsed modules and
// the allocation-budget tracking that goes with it.
package arena

import (
	"fmt"
	"sync"

	"github.com/chic-lang/chicc/internal/ast"
	"github.com/google/uuid"
)

// ModuleID is a stable handle into an AstArena.
type ModuleID uint32

// borrowState tracks the single exclusive-or-many-shared borrow rule
// for one stored module.
type borrowState struct {
	shared    int
	exclusive bool
}

// AstArena is a slab of parsed modules, identified by ModuleID, with a
// runtime-checked borrow discipline: many concurrent immutable borrows
// are fine, but a mutable borrow must be exclusive.
type AstArena struct {
	mu      sync.Mutex
	id      uuid.UUID
	modules []*ast.Module
	borrows []borrowState
	budget  Allocations
}

// New returns an empty arena with a fresh identity, used to correlate
// arena budget reports across a compilation session.
func New() *AstArena {
	return &AstArena{id: uuid.New()}
}

// ID returns the arena's session-scoped identity.
func (a *AstArena) ID() uuid.UUID { return a.id }

// ModuleBuilder accumulates namespace metadata, items, crate attributes,
// friends, and package imports before being finished into the arena.
type ModuleBuilder struct {
	module *ast.Module
}

// ModuleBuilder starts accumulating a new module.
func (a *AstArena) ModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{module: ast.NewModule()}
}

func (b *ModuleBuilder) SetNamespace(ns string, span ast.Span) *ModuleBuilder {
	b.module.Namespace = ns
	b.module.NamespaceSpan = span
	return b
}

func (b *ModuleBuilder) SetStd(v ast.StdAttr) *ModuleBuilder   { b.module.Std = v; return b }
func (b *ModuleBuilder) SetMain(v ast.MainAttr) *ModuleBuilder { b.module.Main = v; return b }

func (b *ModuleBuilder) AddFriend(f ast.FriendDirective) *ModuleBuilder {
	b.module.Friends = append(b.module.Friends, f)
	return b
}

func (b *ModuleBuilder) AddPackageImport(path string) *ModuleBuilder {
	b.module.PackageImports = append(b.module.PackageImports, path)
	return b
}

func (b *ModuleBuilder) AddNamespaceAttribute(a ast.Attribute) *ModuleBuilder {
	b.module.NamespaceAttributes = append(b.module.NamespaceAttributes, a)
	return b
}

// PushItem adds a top-level item, marking the catalog dirty exactly as
// Module.PushItem does.
func (b *ModuleBuilder) PushItem(it ast.Item) *ModuleBuilder {
	b.module.PushItem(it)
	return b
}

// FinishIn commits the accumulated module into the arena and returns its
// handle.
func (b *ModuleBuilder) FinishIn(a *AstArena) ModuleID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := ModuleID(len(a.modules))
	a.modules = append(a.modules, b.module)
	a.borrows = append(a.borrows, borrowState{})
	a.budget.Observe(b.module)
	return id
}

// FinishOwned returns the accumulated module detached from any arena.
func (b *ModuleBuilder) FinishOwned() *ast.Module {
	return b.module
}

// Module returns a shared (read-only) borrow of the module at id. It
// panics if an exclusive borrow is outstanding.
func (a *AstArena) Module(id ModuleID) *ast.Module {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := &a.borrows[id]
	if st.exclusive {
		panic(fmt.Sprintf("arena: module %d is exclusively borrowed", id))
	}
	st.shared++
	return a.modules[id]
}

// ReleaseShared ends one shared borrow obtained via Module.
func (a *AstArena) ReleaseShared(id ModuleID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := &a.borrows[id]
	if st.shared > 0 {
		st.shared--
	}
}

// ModuleMut returns an exclusive (mutable) borrow of the module at id.
// It panics if any borrow — shared or exclusive — is outstanding.
func (a *AstArena) ModuleMut(id ModuleID) *ast.Module {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := &a.borrows[id]
	if st.exclusive || st.shared > 0 {
		panic(fmt.Sprintf("arena: module %d already borrowed", id))
	}
	st.exclusive = true
	return a.modules[id]
}

// ReleaseMut ends the exclusive borrow obtained via ModuleMut.
func (a *AstArena) ReleaseMut(id ModuleID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.borrows[id].exclusive = false
}

// Budget returns the arena's current allocation-budget snapshot.
func (a *AstArena) Budget() Allocations {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.budget
}
