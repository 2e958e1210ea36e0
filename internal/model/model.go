// Package model holds the in-memory type graph as an arena: types live in a
// slice and are identified by their index, so identity checks during
// traversal are integer comparisons.
package model

import (
	"fmt"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

var _ types.TypeFinder = (*Model)(nil)

type typeKey struct {
	side types.Side
	name string
}

// Model is an arena of configured and configuration types.
type Model struct {
	nodes  []*types.TypeNode
	byName map[typeKey]types.TypeID
}

// New creates an empty model.
func New() *Model {
	return &Model{byName: make(map[typeKey]types.TypeID)}
}

// Add inserts a type into the arena and assigns its ID.
// Returns ErrInvalidName for an empty name and ErrInvalidData if a type with
// the same side and name already exists.
func (m *Model) Add(t *types.TypeNode) (types.TypeID, error) {
	if t.Name == "" {
		return types.NoType, types.ErrInvalidName
	}
	if t.Side != types.SideConfigured && t.Side != types.SideConfiguration {
		return types.NoType, fmt.Errorf("%w: side of %q", types.ErrInvalidArgument, t.Name)
	}
	key := typeKey{t.Side, t.Name}
	if _, dup := m.byName[key]; dup {
		return types.NoType, fmt.Errorf("%w: duplicate %s type %q", types.ErrInvalidData, t.Side, t.Name)
	}
	id := types.TypeID(len(m.nodes))
	t.ID = id
	for _, p := range t.Properties {
		p.Owner = t.Name
	}
	for _, c := range t.Categories {
		c.Owner = t.Name
	}
	m.nodes = append(m.nodes, t)
	m.byName[key] = id
	return id, nil
}

// MustAdd is Add for fixtures; it panics on error.
func (m *Model) MustAdd(t *types.TypeNode) *types.TypeNode {
	if _, err := m.Add(t); err != nil {
		panic(err)
	}
	return t
}

// Replace swaps the node stored under t's side and name for t, keeping the
// arena slot. Used when a type is reloaded from its persisted form.
func (m *Model) Replace(t *types.TypeNode) error {
	id, ok := m.byName[typeKey{t.Side, t.Name}]
	if !ok {
		return fmt.Errorf("%w: %s type %q", types.ErrTypeNotFound, t.Side, t.Name)
	}
	t.ID = id
	for _, p := range t.Properties {
		p.Owner = t.Name
	}
	for _, c := range t.Categories {
		c.Owner = t.Name
	}
	m.nodes[id] = t
	return nil
}

// Get returns the node at id.
func (m *Model) Get(id types.TypeID) (*types.TypeNode, bool) {
	if id < 0 || int(id) >= len(m.nodes) {
		return nil, false
	}
	return m.nodes[id], true
}

// FindType resolves a type by side and qualified name.
func (m *Model) FindType(side types.Side, name string) (*types.TypeNode, bool) {
	if name == "" {
		return nil, false
	}
	id, ok := m.byName[typeKey{side, name}]
	if !ok {
		return nil, false
	}
	return m.nodes[id], true
}

// Types returns every node of the given side in insertion order. A zero
// side returns all nodes.
func (m *Model) Types(side types.Side) []*types.TypeNode {
	var out []*types.TypeNode
	for _, n := range m.nodes {
		if side == 0 || n.Side == side {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of nodes in the arena.
func (m *Model) Len() int {
	return len(m.nodes)
}

// FindSupertype resolves the direct supertype of t within t's side.
func FindSupertype(f types.TypeFinder, t *types.TypeNode) (*types.TypeNode, bool) {
	if t == nil || t.Supertype == "" {
		return nil, false
	}
	return f.FindType(t.Side, t.Supertype)
}

// FindConfigurationType resolves the configuration type a configured type
// configures. A configured type that does not configure one, or whose link
// does not resolve, yields false.
func FindConfigurationType(f types.TypeFinder, t *types.TypeNode) (*types.TypeNode, bool) {
	if t == nil || t.Side != types.SideConfigured || !t.ConfiguresCounterpart {
		return nil, false
	}
	return f.FindType(types.SideConfiguration, t.Counterpart)
}
