package mir

import "github.com/chic-lang/chicc/internal/diag"

// StaticEntry is one module-scoped static field or `static` item.
type StaticEntry struct {
	Name    string
	Owner   string // empty for a top-level `static`, else the declaring type
	Ty      Ty
	Mutable bool
	Span    diag.Span
}

// StaticRegistry is the module-scoped table of static storage locations
// consulted by static-access lowering. Static fields are uniquely named
// per owner (§3 invariant); registering a duplicate returns false and
// leaves the existing entry untouched.
type StaticRegistry struct {
	entries []StaticEntry
	byKey   map[string]int
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{byKey: make(map[string]int)}
}

func staticKey(owner, name string) string { return owner + "::" + name }

// Register adds e, returning false if owner+name is already registered.
func (r *StaticRegistry) Register(e StaticEntry) bool {
	key := staticKey(e.Owner, e.Name)
	if _, exists := r.byKey[key]; exists {
		return false
	}
	r.byKey[key] = len(r.entries)
	r.entries = append(r.entries, e)
	return true
}

// Lookup returns the entry registered for owner+name, if any.
func (r *StaticRegistry) Lookup(owner, name string) (StaticEntry, bool) {
	idx, ok := r.byKey[staticKey(owner, name)]
	if !ok {
		return StaticEntry{}, false
	}
	return r.entries[idx], true
}

// All returns every registered static entry, in registration order.
func (r *StaticRegistry) All() []StaticEntry { return r.entries }
