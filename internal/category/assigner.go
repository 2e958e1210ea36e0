// Package category assigns resolved properties to the categories of a
// configured type's hierarchy and maintains category order.
package category

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/internal/order"
	"github.com/mesh-intelligence/prodmodel/internal/propmap"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Assigner buckets properties into categories.
type Assigner struct {
	walker  *hierarchy.Walker
	builder *propmap.Builder
	orderer *order.Orderer
	pending order.PendingSource
}

// NewAssigner creates an Assigner. pending may be nil.
func NewAssigner(walker *hierarchy.Walker, builder *propmap.Builder, orderer *order.Orderer, pending order.PendingSource) *Assigner {
	return &Assigner{walker: walker, builder: builder, orderer: orderer, pending: pending}
}

// Categories returns the categories visible in context, root-most type
// first, each type's categories in their defined order.
func (a *Assigner) Categories(context *types.TypeNode, includeSupertypes bool) []*types.Category {
	var out []*types.Category
	for _, t := range a.walker.Scope(context, includeSupertypes) {
		out = append(out, t.Categories...)
	}
	return out
}

// FindCategory returns the category named name in context's hierarchy.
// Names match exactly.
func (a *Assigner) FindCategory(context *types.TypeNode, name string) (*types.Category, bool) {
	if name == "" {
		return nil, false
	}
	for _, c := range a.Categories(context, true) {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// FindDefaultCategory returns the first category, walking context's
// hierarchy top-down, that is the default for kind.
func (a *Assigner) FindDefaultCategory(kind types.PropertyKind, context *types.TypeNode, includeSupertypes bool) (*types.Category, bool) {
	for _, c := range a.Categories(context, includeSupertypes) {
		if c.IsDefaultFor(kind) {
			return c, true
		}
	}
	return nil, false
}

// DefaultCategories returns every category in context's hierarchy that is
// the default for kind. More than one is a validation finding.
func (a *Assigner) DefaultCategories(kind types.PropertyKind, context *types.TypeNode) []*types.Category {
	var out []*types.Category
	for _, c := range a.Categories(context, true) {
		if c.IsDefaultFor(kind) {
			out = append(out, c)
		}
	}
	return out
}

// DefaultCategoryCount returns len(DefaultCategories(kind, context)).
func (a *Assigner) DefaultCategoryCount(kind types.PropertyKind, context *types.TypeNode) int {
	return len(a.DefaultCategories(kind, context))
}

// IsCategoryNameDuplicated reports whether name is used by more than one
// category in context's hierarchy, ignoring case.
func (a *Assigner) IsCategoryNameDuplicated(name string, context *types.TypeNode) bool {
	n := 0
	for _, c := range a.Categories(context, true) {
		if strings.EqualFold(c.Name, name) {
			n++
		}
	}
	return n > 1
}

// EffectiveCategory returns the category name p is assigned to in context:
// the target of a pending change made in context when one exists,
// otherwise the stored name.
func (a *Assigner) EffectiveCategory(p *types.Property, context *types.TypeNode) string {
	if a.pending != nil && p.IsConfigurationSide() {
		if ch, ok := a.pending.Lookup(context, p.ID); ok {
			return ch.Category
		}
	}
	return p.Category
}

// IsMember reports whether p belongs to cat when viewed from context. A
// property whose category name is empty or does not resolve in context's
// hierarchy belongs to the default category for its kind. A category
// without a name never takes such properties.
func (a *Assigner) IsMember(cat *types.Category, p *types.Property, context *types.TypeNode, includeSupertypes bool) bool {
	name := a.EffectiveCategory(p, context)
	if _, ok := a.FindCategory(context, name); ok {
		return cat.Name == name
	}
	if cat.Name == "" {
		return false
	}
	def, ok := a.FindDefaultCategory(p.Kind, context, includeSupertypes)
	return ok && def == cat
}

// PropertiesOf returns the ordered properties of cat as seen from context.
// Without includeSupertypes only properties contributed by context and its
// own configuration type are considered, and only context's categories are
// searched for a default.
// Returns ErrWrongSide if context is not a configured type.
func (a *Assigner) PropertiesOf(cat *types.Category, context *types.TypeNode, includeSupertypes bool) ([]*types.Property, error) {
	if cat == nil {
		return nil, fmt.Errorf("%w: nil category", types.ErrCategoryNotFound)
	}
	m, err := a.builder.Build(context, 0, includeSupertypes)
	if err != nil {
		return nil, err
	}
	var members []*types.Property
	for _, p := range m.Values() {
		if a.IsMember(cat, p, context, includeSupertypes) {
			members = append(members, p)
		}
	}
	return a.orderer.Order(members, context), nil
}

// Assignment pairs a category with its ordered properties.
type Assignment struct {
	Category   *types.Category
	Properties []*types.Property
}

// Assign partitions every property of context into its category, in
// categories order. Properties that resolve to no category at all are
// returned separately.
func (a *Assigner) Assign(context *types.TypeNode, categories []*types.Category) ([]Assignment, []*types.Property, error) {
	m, err := a.builder.Build(context, 0, true)
	if err != nil {
		return nil, nil, err
	}
	out := make([]Assignment, len(categories))
	placed := make(map[string]bool, m.Len())
	for i, c := range categories {
		var members []*types.Property
		for _, p := range m.Values() {
			if a.IsMember(c, p, context, true) {
				members = append(members, p)
				placed[p.ID] = true
			}
		}
		out[i] = Assignment{Category: c, Properties: a.orderer.Order(members, context)}
	}
	var unplaced []*types.Property
	for _, p := range m.Values() {
		if !placed[p.ID] {
			unplaced = append(unplaced, p)
		}
	}
	return out, unplaced, nil
}
