// Package propmap builds the de-duplicated, ordered map of product
// definition properties of a configured type across both hierarchies.
package propmap

import (
	"github.com/mesh-intelligence/prodmodel/internal/override"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Map is an insertion-ordered map from logical property key to property.
// Replacing the value of an existing key keeps the key's position.
type Map struct {
	keys    []override.Key
	entries map[override.Key]*types.Property
}

func newMap() *Map {
	return &Map{entries: make(map[override.Key]*types.Property)}
}

func (m *Map) set(k override.Key, p *types.Property) {
	if _, ok := m.entries[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.entries[k] = p
}

// retain drops every entry for which keep returns false.
func (m *Map) retain(keep func(*types.Property) bool) {
	kept := m.keys[:0]
	for _, k := range m.keys {
		if keep(m.entries[k]) {
			kept = append(kept, k)
			continue
		}
		delete(m.entries, k)
	}
	m.keys = kept
}

// Len returns the number of properties.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in map order.
func (m *Map) Keys() []override.Key {
	return append([]override.Key(nil), m.keys...)
}

// Values returns the properties in map order.
func (m *Map) Values() []*types.Property {
	out := make([]*types.Property, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.entries[k]
	}
	return out
}

// Names returns the logical property names in map order.
func (m *Map) Names() []string {
	out := make([]string, len(m.keys))
	for i, k := range m.keys {
		out[i] = k.Name
	}
	return out
}

// Get returns the property stored under k.
func (m *Map) Get(k override.Key) (*types.Property, bool) {
	p, ok := m.entries[k]
	return p, ok
}

// Contains reports whether p itself is one of the map's values.
func (m *Map) Contains(p *types.Property) bool {
	q, ok := m.entries[override.KeyOf(p)]
	return ok && q == p
}

// FindByName returns the first property in map order with the given
// logical name, whatever its kind.
func (m *Map) FindByName(name string) (*types.Property, bool) {
	for _, k := range m.keys {
		if k.Name == name {
			return m.entries[k], true
		}
	}
	return nil, false
}

// FindByKindAndName returns the property of exactly kind with the given
// logical name. A property of another kind with that name does not match.
func (m *Map) FindByKindAndName(kind types.PropertyKind, name string) (*types.Property, bool) {
	return m.Get(override.Key{Kind: kind, Name: name})
}

// FindByID returns the property with the given id.
func (m *Map) FindByID(id string) (*types.Property, bool) {
	for _, k := range m.keys {
		if p := m.entries[k]; p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// OfKind returns a new map holding only properties of kind, in order.
func (m *Map) OfKind(kind types.PropertyKind) *Map {
	out := newMap()
	for _, k := range m.keys {
		if k.Kind == kind {
			out.set(k, m.entries[k])
		}
	}
	return out
}
