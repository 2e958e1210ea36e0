package deferred

import (
	"fmt"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Change is one deferred category assignment.
type Change struct {
	PropertyID string
	Category   string
	Position   int
	State      State
}

// PendingChange returns the persisted form of c.
func (c Change) PendingChange() types.PendingChange {
	return types.PendingChange{PropertyID: c.PropertyID, Category: c.Category, Position: c.Position}
}

// Buffer holds the deferred changes of one configured type, keyed by
// property id. Deferring the same property again replaces its change
// but keeps its place in the buffer.
type Buffer struct {
	changes map[string]*Change
	order   []string
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{changes: make(map[string]*Change)}
}

// Restore creates a buffer holding the given persisted changes as pending.
func Restore(pending []types.PendingChange) *Buffer {
	b := NewBuffer()
	for _, pc := range pending {
		// Persisted changes were validated when first deferred.
		_ = b.Defer(pc.PropertyID, pc.Category, pc.Position)
	}
	return b
}

// Defer records a pending change for propertyID.
// Returns ErrInvalidID if propertyID is empty.
func (b *Buffer) Defer(propertyID, category string, position int) error {
	if propertyID == "" {
		return types.ErrInvalidID
	}
	ch, ok := b.changes[propertyID]
	if !ok {
		ch = &Change{PropertyID: propertyID, State: StateNone}
		b.changes[propertyID] = ch
		b.order = append(b.order, propertyID)
	}
	next, err := Transition(ch.State, EventDefer)
	if err != nil {
		return err
	}
	ch.State = next
	ch.Category = category
	ch.Position = position
	return nil
}

// Lookup returns the pending change for propertyID.
func (b *Buffer) Lookup(propertyID string) (Change, bool) {
	ch, ok := b.changes[propertyID]
	if !ok || ch.State != StatePending {
		return Change{}, false
	}
	return *ch, true
}

// Pending returns the pending changes in the order they were first deferred.
func (b *Buffer) Pending() []Change {
	out := make([]Change, 0, len(b.order))
	for _, id := range b.order {
		if ch := b.changes[id]; ch.State == StatePending {
			out = append(out, *ch)
		}
	}
	return out
}

// Len returns the number of pending changes.
func (b *Buffer) Len() int {
	return len(b.Pending())
}

// PendingChanges returns the persisted form of the pending changes.
func (b *Buffer) PendingChanges() []types.PendingChange {
	pending := b.Pending()
	if len(pending) == 0 {
		return nil
	}
	out := make([]types.PendingChange, len(pending))
	for i, ch := range pending {
		out[i] = ch.PendingChange()
	}
	return out
}

// Resolve completes one pending change with a commit or an abandon event
// and removes it from the buffer. The returned change carries the final
// state.
func (b *Buffer) Resolve(propertyID string, e Event) (Change, error) {
	ch, ok := b.changes[propertyID]
	if !ok {
		return Change{}, fmt.Errorf("%w: no deferred change for %q", ErrInvalidTransition, propertyID)
	}
	next, err := Transition(ch.State, e)
	if err != nil {
		return *ch, err
	}
	ch.State = next
	b.remove(propertyID)
	return *ch, nil
}

// Discard drops every pending change and returns them in their final
// state.
func (b *Buffer) Discard() []Change {
	var out []Change
	for _, ch := range b.Pending() {
		done, err := b.Resolve(ch.PropertyID, EventReload)
		if err == nil {
			out = append(out, done)
		}
	}
	return out
}

func (b *Buffer) remove(propertyID string) {
	delete(b.changes, propertyID)
	for i, id := range b.order {
		if id == propertyID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}
