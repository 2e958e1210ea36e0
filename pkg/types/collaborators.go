package types

// TypeFinder resolves type names. Implementations return false for names
// that do not resolve; a miss is never an error.
type TypeFinder interface {
	FindType(side Side, name string) (*TypeNode, bool)
}

// Store persists types. It backs Save and Reload of a configured type and
// the commit of deferred changes onto configuration types.
type Store interface {
	// Persist writes the type's current state.
	Persist(t *TypeNode) error

	// Load reads the persisted form of a type.
	// Returns ErrNotFound if the type was never persisted.
	Load(side Side, name string) (*TypeNode, error)

	// IsMutable reports whether the type's backing store currently
	// accepts writes.
	IsMutable(t *TypeNode) bool
}

// Part names a section of a type affected by a change.
type Part string

// Affected parts reported in ContentChangeEvent.
const (
	PartCategories         Part = "categories"
	PartPropertyReferences Part = "property-references"
	PartPendingChanges     Part = "pending-changes"
	PartProperties         Part = "properties"
)

// ContentChangeEvent is emitted exactly once per engine mutation.
type ContentChangeEvent struct {
	Side  Side
	Type  string
	Parts []Part
}

// Listener receives content change notifications.
type Listener interface {
	ContentChanged(ev ContentChangeEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev ContentChangeEvent)

// ContentChanged calls f(ev).
func (f ListenerFunc) ContentChanged(ev ContentChangeEvent) { f(ev) }
