package deferred

import (
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Registry keeps one Buffer per configured type.
type Registry struct {
	buffers map[types.TypeID]*Buffer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{buffers: make(map[types.TypeID]*Buffer)}
}

// Buffer returns the buffer of context, creating it from the type's
// persisted pending changes on first use.
func (r *Registry) Buffer(context *types.TypeNode) *Buffer {
	b, ok := r.buffers[context.ID]
	if !ok {
		b = Restore(context.PendingChanges)
		r.buffers[context.ID] = b
	}
	return b
}

// Reset replaces the buffer of context with one restored from the type's
// persisted pending changes. The old buffer's changes are discarded and
// returned.
func (r *Registry) Reset(context *types.TypeNode) []Change {
	var dropped []Change
	if old, ok := r.buffers[context.ID]; ok {
		dropped = old.Discard()
	}
	r.buffers[context.ID] = Restore(context.PendingChanges)
	return dropped
}

// Lookup returns the pending change for propertyID made in context.
// Changes buffered under any other type are not visible.
func (r *Registry) Lookup(context *types.TypeNode, propertyID string) (types.PendingChange, bool) {
	ch, ok := r.Buffer(context).Lookup(propertyID)
	if !ok {
		return types.PendingChange{}, false
	}
	return ch.PendingChange(), true
}
