// Package override decides which declaration of a logical property is in
// effect along a supertype chain.
//
// The first declaration met walking from the context type upward wins and
// hides every declaration of the same kind and property name above it. The
// winner decides relevance, so an irrelevant override in a subtype withdraws
// a relevant supertype property.
package override

import (
	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Key identifies a logical property. Overriding is resolved per kind and
// by case-sensitive property name.
type Key struct {
	Kind types.PropertyKind
	Name string
}

// KeyOf returns the shadowing key of p.
func KeyOf(p *types.Property) Key {
	return Key{Kind: p.Kind, Name: p.PropertyName()}
}

// Winners maps each key declared along ancestors (leaf first) to its first
// declaration. Irrelevant declarations win like any other.
func Winners(ancestors []*types.TypeNode) map[Key]*types.Property {
	winners := make(map[Key]*types.Property)
	for _, t := range ancestors {
		for _, p := range t.Properties {
			k := KeyOf(p)
			if _, seen := winners[k]; !seen {
				winners[k] = p
			}
		}
	}
	return winners
}

// Resolver answers override questions for single properties.
type Resolver struct {
	walker *hierarchy.Walker
}

// NewResolver creates a Resolver over walker.
func NewResolver(walker *hierarchy.Walker) *Resolver {
	return &Resolver{walker: walker}
}

// FindOverridden returns the supertype declaration that p, declared in
// owner, hides. It does not require p to carry the overwrite flag.
func (r *Resolver) FindOverridden(p *types.Property, owner *types.TypeNode) (*types.Property, bool) {
	ancestors := r.walker.Ancestors(owner)
	if len(ancestors) < 2 {
		return nil, false
	}
	key := KeyOf(p)
	for _, t := range ancestors[1:] {
		for _, q := range t.Properties {
			if KeyOf(q) == key {
				return q, true
			}
		}
	}
	return nil, false
}

// IsOverride reports whether p has its overwrite flag set and actually
// overrides a supertype declaration.
func (r *Resolver) IsOverride(p *types.Property, owner *types.TypeNode) bool {
	if !p.IsOverwrite() {
		return false
	}
	_, found := r.FindOverridden(p, owner)
	return found
}

// MissingOverloadTarget reports a formula signature flagged as overloading a
// supertype formula when no supertype declares that formula. The formula
// still shadows by name; the miss is a validation finding only.
func (r *Resolver) MissingOverloadTarget(p *types.Property, owner *types.TypeNode) bool {
	if p.Kind != types.KindFormulaSignature || !p.IsOverwrite() {
		return false
	}
	_, found := r.FindOverridden(p, owner)
	return !found
}
