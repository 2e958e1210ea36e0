// Package order sorts the properties of a category and rewrites the
// property reference lists that persist that order.
package order

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/internal/propmap"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// PendingSource exposes the deferred category changes of a context type.
type PendingSource interface {
	Lookup(context *types.TypeNode, propertyID string) (types.PendingChange, bool)
}

// Orderer sorts properties by the reference lists of their owning
// configured types.
type Orderer struct {
	walker  *hierarchy.Walker
	builder *propmap.Builder
	pending PendingSource
	logger  *slog.Logger
}

// NewOrderer creates an Orderer. pending may be nil; a nil logger uses
// slog.Default().
func NewOrderer(walker *hierarchy.Walker, builder *propmap.Builder, pending PendingSource, logger *slog.Logger) *Orderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orderer{walker: walker, builder: builder, pending: pending, logger: logger}
}

type sortEntry struct {
	p         *types.Property
	encounter int
	rank      int
	refIndex  int
}

// Order returns props sorted for display in context. Properties of
// supertypes come before those of subtypes; properties owned by the same
// configured type follow that type's reference list; properties without a
// reference keep their encounter order after all referenced ones. A
// property without a reference whose pending change carries a position is
// then placed at that position.
func (o *Orderer) Order(props []*types.Property, context *types.TypeNode) []*types.Property {
	chain := o.walker.Chain(context)
	rank := make(map[types.TypeID]int, len(chain))
	for i, t := range chain {
		rank[t.ID] = i
	}

	var positioned []*types.Property
	positions := make(map[string]int)
	entries := make([]sortEntry, 0, len(props))
	for i, p := range props {
		e := sortEntry{p: p, encounter: i, rank: len(chain), refIndex: math.MaxInt}
		if owner, ok := o.builder.OwningConfiguredType(p, context); ok {
			if r, inChain := rank[owner.ID]; inChain {
				e.rank = r
			}
			if idx := owner.RefIndex(p.ID); idx >= 0 {
				e.refIndex = idx
			}
		}
		if e.refIndex == math.MaxInt {
			if pos, ok := o.pendingPosition(context, p); ok {
				positioned = append(positioned, p)
				positions[p.ID] = pos
				continue
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.refIndex != b.refIndex {
			return a.refIndex < b.refIndex
		}
		return a.encounter < b.encounter
	})

	out := make([]*types.Property, 0, len(props))
	for _, e := range entries {
		out = append(out, e.p)
	}
	sort.SliceStable(positioned, func(i, j int) bool {
		return positions[positioned[i].ID] < positions[positioned[j].ID]
	})
	for _, p := range positioned {
		out = insertAt(out, p, positions[p.ID])
	}
	return out
}

func (o *Orderer) pendingPosition(context *types.TypeNode, p *types.Property) (int, bool) {
	if o.pending == nil || !p.IsConfigurationSide() {
		return 0, false
	}
	ch, ok := o.pending.Lookup(context, p.ID)
	if !ok || ch.Position < 0 {
		return 0, false
	}
	return ch.Position, true
}

func insertAt(list []*types.Property, p *types.Property, pos int) []*types.Property {
	if pos > len(list) {
		pos = len(list)
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = p
	return list
}

// MoveReferences moves the properties at indices of props one step up or
// down and writes the resulting order into context's reference list. props
// is the ordered property list of one category as seen from context; every
// entry must be owned by context. References to properties that no longer
// exist are pruned by this write, and properties without a reference are
// appended before the move is applied.
//
// It returns the indices the moved properties ended up at, in the order of
// indices. Returns ErrNotOwned if a property belongs to another type.
func (o *Orderer) MoveReferences(context *types.TypeNode, props []*types.Property, indices []int, up bool) ([]int, error) {
	for _, p := range props {
		owner, ok := o.builder.OwningConfiguredType(p, context)
		if !ok || owner.ID != context.ID {
			return nil, types.NotOwnedError("property", p.PropertyName(), context.Name)
		}
	}
	reordered, result, err := Move(props, indices, up)
	if err != nil {
		return nil, err
	}
	if err := o.ApplyOrder(context, reordered); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyOrder writes the order of ordered into context's reference list.
// The list is pruned first, references missing for ordered are appended,
// and ordered is then written into the slots its properties occupy.
// References to other properties keep their slots.
func (o *Orderer) ApplyOrder(context *types.TypeNode, ordered []*types.Property) error {
	refs, err := o.PruneReferences(context)
	if err != nil {
		return err
	}
	member := make(map[string]bool, len(ordered))
	present := make(map[string]bool, len(refs))
	for _, id := range refs {
		present[id] = true
	}
	for _, p := range ordered {
		member[p.ID] = true
		if !present[p.ID] {
			refs = append(refs, p.ID)
			present[p.ID] = true
		}
	}
	var slots []int
	for i, id := range refs {
		if member[id] {
			slots = append(slots, i)
		}
	}
	if len(slots) != len(ordered) {
		return fmt.Errorf("%w: %d reference slots for %d properties", types.ErrInvalidArgument, len(slots), len(ordered))
	}
	for k, slot := range slots {
		refs[slot] = ordered[k].ID
	}
	context.PropertyRefs = refs
	return nil
}

// PruneReferences returns context's reference list without the entries
// whose property no longer exists in context's property map. The type
// itself is not modified.
func (o *Orderer) PruneReferences(context *types.TypeNode) ([]string, error) {
	m, err := o.builder.Build(context, 0, true)
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, m.Len())
	for _, p := range m.Values() {
		live[p.ID] = true
	}
	refs := make([]string, 0, len(context.PropertyRefs))
	seen := make(map[string]bool, len(context.PropertyRefs))
	for _, id := range context.PropertyRefs {
		if !live[id] || seen[id] {
			o.logger.Debug("pruning stale property reference", "type", context.Name, "property_id", id)
			continue
		}
		seen[id] = true
		refs = append(refs, id)
	}
	return refs, nil
}
