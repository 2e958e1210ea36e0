// Package engine is the facade over property resolution and
// categorization. It owns the deferred change buffers of every configured
// type and emits exactly one content change event per mutation.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mesh-intelligence/prodmodel/internal/category"
	"github.com/mesh-intelligence/prodmodel/internal/deferred"
	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/internal/model"
	"github.com/mesh-intelligence/prodmodel/internal/order"
	"github.com/mesh-intelligence/prodmodel/internal/override"
	"github.com/mesh-intelligence/prodmodel/internal/propmap"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Engine resolves, categorizes and orders the properties of the types in
// a model. It is not safe for concurrent use.
type Engine struct {
	model     *model.Model
	store     types.Store
	listeners []types.Listener
	logger    *slog.Logger
	display   types.DisplayOrder

	walker   *hierarchy.Walker
	resolver *override.Resolver
	builder  *propmap.Builder
	orderer  *order.Orderer
	assigner *category.Assigner
	pending  *deferred.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithListener registers a content change listener.
func WithListener(l types.Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// WithDisplayOrder selects which category column comes first in
// OrderedCategories and ExportOrder.
func WithDisplayOrder(d types.DisplayOrder) Option {
	return func(e *Engine) { e.display = d }
}

// New creates an engine over m. store backs Save and Reload and may be nil
// for read-only use.
func New(m *model.Model, store types.Store, opts ...Option) *Engine {
	e := &Engine{
		model:   m,
		store:   store,
		logger:  slog.Default(),
		display: types.DisplayLeftFirst,
		pending: deferred.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.walker = hierarchy.NewWalker(m, e.logger)
	e.resolver = override.NewResolver(e.walker)
	e.builder = propmap.NewBuilder(m, e.walker, e.logger)
	e.orderer = order.NewOrderer(e.walker, e.builder, e.pending, e.logger)
	e.assigner = category.NewAssigner(e.walker, e.builder, e.orderer, e.pending)
	return e
}

// Model returns the type graph the engine works on.
func (e *Engine) Model() *model.Model { return e.model }

// Walker returns the hierarchy walker.
func (e *Engine) Walker() *hierarchy.Walker { return e.walker }

// Resolver returns the override resolver.
func (e *Engine) Resolver() *override.Resolver { return e.resolver }

func (e *Engine) emit(context *types.TypeNode, parts ...types.Part) {
	ev := types.ContentChangeEvent{Side: context.Side, Type: context.Name, Parts: parts}
	for _, l := range e.listeners {
		l.ContentChanged(ev)
	}
}

// ConfiguredType resolves a configured type by name.
// Returns ErrTypeNotFound if it does not exist.
func (e *Engine) ConfiguredType(name string) (*types.TypeNode, error) {
	t, ok := e.model.FindType(types.SideConfigured, name)
	if !ok {
		return nil, fmt.Errorf("%w: configured type %q", types.ErrTypeNotFound, name)
	}
	return t, nil
}

// BuildMap returns the effective properties of context. A zero kind
// returns every kind.
func (e *Engine) BuildMap(context *types.TypeNode, kind types.PropertyKind, includeSupertypes bool) (*propmap.Map, error) {
	return e.builder.Build(context, kind, includeSupertypes)
}

// FindByName returns the effective property with the given logical name
// in context's full map.
func (e *Engine) FindByName(context *types.TypeNode, name string) (*types.Property, bool, error) {
	m, err := e.builder.Build(context, 0, true)
	if err != nil {
		return nil, false, err
	}
	p, ok := m.FindByName(name)
	return p, ok, nil
}

// FindByKindAndName returns the effective property of kind with the given
// logical name. A property of the same name but another kind is not found.
func (e *Engine) FindByKindAndName(context *types.TypeNode, kind types.PropertyKind, name string) (*types.Property, bool, error) {
	m, err := e.builder.Build(context, 0, true)
	if err != nil {
		return nil, false, err
	}
	p, ok := m.FindByKindAndName(kind, name)
	return p, ok, nil
}

// FindByID returns the effective property with the given id in context's
// full map.
func (e *Engine) FindByID(context *types.TypeNode, id string) (*types.Property, bool, error) {
	m, err := e.builder.Build(context, 0, true)
	if err != nil {
		return nil, false, err
	}
	p, ok := m.FindByID(id)
	return p, ok, nil
}

// PropertiesOf returns the ordered properties of cat as seen from context.
func (e *Engine) PropertiesOf(cat *types.Category, context *types.TypeNode, includeSupertypes bool) ([]*types.Property, error) {
	return e.assigner.PropertiesOf(cat, context, includeSupertypes)
}

// Order sorts props for display in context.
func (e *Engine) Order(props []*types.Property, context *types.TypeNode) []*types.Property {
	return e.orderer.Order(props, context)
}

// Categories returns the categories of context's hierarchy in definition
// order, root-most type first.
func (e *Engine) Categories(context *types.TypeNode, includeSupertypes bool) []*types.Category {
	return e.assigner.Categories(context, includeSupertypes)
}

// OrderedCategories returns context's categories grouped by position in
// the configured display order.
func (e *Engine) OrderedCategories(context *types.TypeNode) []*types.Category {
	return e.assigner.DisplayOrder(context, e.display)
}

// Assign partitions context's properties over OrderedCategories.
// Properties that reach no category are returned separately.
func (e *Engine) Assign(context *types.TypeNode) ([]category.Assignment, []*types.Property, error) {
	return e.assigner.Assign(context, e.OrderedCategories(context))
}

// ExportOrder returns every property of context ordered across
// categories: each category's properties in display order, followed by
// properties that reach no category.
func (e *Engine) ExportOrder(context *types.TypeNode) ([]*types.Property, error) {
	groups, unplaced, err := e.Assign(context)
	if err != nil {
		return nil, err
	}
	var out []*types.Property
	for _, g := range groups {
		out = append(out, g.Properties...)
	}
	return append(out, e.orderer.Order(unplaced, context)...), nil
}

// FindDefaultCategory returns the default category for kind in context's
// hierarchy.
func (e *Engine) FindDefaultCategory(kind types.PropertyKind, context *types.TypeNode, includeSupertypes bool) (*types.Category, bool) {
	return e.assigner.FindDefaultCategory(kind, context, includeSupertypes)
}

// FindCategory returns the category named name in context's hierarchy.
func (e *Engine) FindCategory(context *types.TypeNode, name string) (*types.Category, bool) {
	return e.assigner.FindCategory(context, name)
}

// IsCategoryNameDuplicated reports whether name is used more than once in
// context's hierarchy, ignoring case.
func (e *Engine) IsCategoryNameDuplicated(name string, context *types.TypeNode) bool {
	return e.assigner.IsCategoryNameDuplicated(name, context)
}

// DefaultCategoryCount returns how many categories in context's hierarchy
// are the default for kind.
func (e *Engine) DefaultCategoryCount(kind types.PropertyKind, context *types.TypeNode) int {
	return e.assigner.DefaultCategoryCount(kind, context)
}

// EffectiveCategory returns the category p resolves to in context, or
// false when it reaches none.
func (e *Engine) EffectiveCategory(p *types.Property, context *types.TypeNode) (*types.Category, bool) {
	for _, c := range e.assigner.Categories(context, true) {
		if e.assigner.IsMember(c, p, context, true) {
			return c, true
		}
	}
	return nil, false
}

// PendingChange returns the deferred change recorded in context for p.
func (e *Engine) PendingChange(context *types.TypeNode, p *types.Property) (types.PendingChange, bool) {
	return e.pending.Lookup(context, p.ID)
}

// PendingChanges returns every deferred change recorded in context.
func (e *Engine) PendingChanges(context *types.TypeNode) []types.PendingChange {
	return e.pending.Buffer(context).PendingChanges()
}

func checkConfigured(context *types.TypeNode) error {
	if context == nil {
		return types.ErrTypeNotFound
	}
	if !context.IsConfigured() {
		return fmt.Errorf("%w: %q", types.ErrWrongSide, context.Name)
	}
	return nil
}

// MovePropertyReferences moves the properties at indices of props one step
// up or down and persists the new order in context's reference list. props
// is a category's property list owned by context. It returns the indices
// actually reached, in the order of indices.
func (e *Engine) MovePropertyReferences(context *types.TypeNode, props []*types.Property, indices []int, up bool) ([]int, error) {
	if err := checkConfigured(context); err != nil {
		return nil, err
	}
	result, err := e.orderer.MoveReferences(context, props, indices, up)
	if err != nil {
		return nil, err
	}
	e.emit(context, types.PartPropertyReferences)
	return result, nil
}

// MoveCategoryProperties moves properties within cat, addressing them by
// their index in the list of properties context itself contributes to
// cat.
func (e *Engine) MoveCategoryProperties(context *types.TypeNode, cat *types.Category, indices []int, up bool) ([]int, error) {
	props, err := e.assigner.PropertiesOf(cat, context, false)
	if err != nil {
		return nil, err
	}
	return e.MovePropertyReferences(context, props, indices, up)
}

// MoveCategories moves cats one step within their position group of
// context's category list and reports whether anything moved.
func (e *Engine) MoveCategories(context *types.TypeNode, cats []*types.Category, up bool) (bool, error) {
	if err := checkConfigured(context); err != nil {
		return false, err
	}
	moved, err := category.MoveCategories(context, cats, up)
	if err != nil {
		return false, err
	}
	e.emit(context, types.PartCategories)
	return moved, nil
}

// ChangeCategoryAndDeferPolicyChange assigns p to the category named
// categoryName as seen from context. An empty name returns p to the
// default category of its kind.
//
// A configured-side property owned by context changes at once and, when
// position is not negative, is placed at that index among context's own
// members of the target category. A configuration-side property is not
// touched: the change is buffered in context and committed onto the
// property's owner when context is saved. Its position is clamped to the
// target's current members; a negative position appends.
//
// Returns ErrPropertyNotFound if p is not a property of context,
// ErrCategoryNotFound for an unknown category name and ErrNotOwned for a
// configured-side property declared by another type.
func (e *Engine) ChangeCategoryAndDeferPolicyChange(context *types.TypeNode, p *types.Property, categoryName string, position int) error {
	if err := checkConfigured(context); err != nil {
		return err
	}
	m, err := e.builder.Build(context, 0, true)
	if err != nil {
		return err
	}
	if p == nil || !m.Contains(p) {
		return types.ErrPropertyNotFound
	}
	target, ok := e.assigner.FindCategory(context, categoryName)
	if categoryName != "" && !ok {
		return fmt.Errorf("%w: %q", types.ErrCategoryNotFound, categoryName)
	}
	if categoryName == "" {
		target, ok = e.assigner.FindDefaultCategory(p.Kind, context, true)
	}

	if p.IsConfigurationSide() {
		pos := 0
		if ok {
			members, err := e.assigner.PropertiesOf(target, context, true)
			if err != nil {
				return err
			}
			n := 0
			for _, mp := range members {
				if mp != p {
					n++
				}
			}
			pos = n
			if position >= 0 && position < n {
				pos = position
			}
		}
		if err := e.pending.Buffer(context).Defer(p.ID, categoryName, pos); err != nil {
			return err
		}
		parts := []types.Part{types.PartPendingChanges}
		if position >= 0 && e.dropOwnReference(context, p) {
			parts = append(parts, types.PartPropertyReferences)
		}
		e.emit(context, parts...)
		return nil
	}

	if p.Owner != context.Name {
		return types.NotOwnedError("property", p.PropertyName(), context.Name)
	}
	p.Category = categoryName
	if position < 0 || !ok {
		e.emit(context, types.PartProperties)
		return nil
	}
	members, err := e.assigner.PropertiesOf(target, context, false)
	if err != nil {
		return err
	}
	rest := make([]*types.Property, 0, len(members))
	for _, mp := range members {
		if mp != p {
			rest = append(rest, mp)
		}
	}
	if position > len(rest) {
		position = len(rest)
	}
	placed := append(rest[:position:position], p)
	placed = append(placed, rest[position:]...)
	if err := e.orderer.ApplyOrder(context, placed); err != nil {
		return err
	}
	e.emit(context, types.PartProperties, types.PartPropertyReferences)
	return nil
}

// dropOwnReference removes p from context's reference list when context is
// the configured type p is ordered by, so a pending position places it.
func (e *Engine) dropOwnReference(context *types.TypeNode, p *types.Property) bool {
	if context.RefIndex(p.ID) < 0 {
		return false
	}
	owner, ok := e.builder.OwningConfiguredType(p, context)
	if !ok || owner != context {
		return false
	}
	context.PropertyRefs = slices.DeleteFunc(slices.Clone(context.PropertyRefs), func(id string) bool {
		return id == p.ID
	})
	return true
}

// Serialize persists context together with its deferred changes without
// committing them. A later Reload restores the same pending state.
func (e *Engine) Serialize(context *types.TypeNode) error {
	if err := checkConfigured(context); err != nil {
		return err
	}
	if e.store == nil {
		return types.ErrBackendDetached
	}
	context.PendingChanges = e.pending.Buffer(context).PendingChanges()
	if err := e.store.Persist(context); err != nil {
		return fmt.Errorf("persisting %q: %w", context.Name, err)
	}
	return nil
}

// Save persists context and commits its deferred changes. Each change is
// written onto the owning configuration type when that type is mutable;
// otherwise it is dropped. A change whose owner fails to persist stays
// pending and is persisted with context.
func (e *Engine) Save(context *types.TypeNode) error {
	if err := e.Serialize(context); err != nil {
		return err
	}
	buf := e.pending.Buffer(context)
	pending := buf.Pending()
	if len(pending) == 0 {
		return nil
	}

	m, err := e.builder.Build(context, 0, true)
	if err != nil {
		return err
	}
	var errs []error
	for _, ch := range pending {
		p, found := m.FindByID(ch.PropertyID)
		var owner *types.TypeNode
		if found {
			owner, found = e.model.FindType(types.SideConfiguration, p.Owner)
		}
		if !found {
			e.logger.Debug("dropping deferred change for unknown property",
				"type", context.Name, "property_id", ch.PropertyID)
			_, _ = buf.Resolve(ch.PropertyID, deferred.EventAbandon)
			continue
		}
		if !e.store.IsMutable(owner) {
			e.logger.Warn("abandoning deferred category change, owner is read-only",
				"type", context.Name, "owner", owner.Name, "property", p.PropertyName(), "category", ch.Category)
			_, _ = buf.Resolve(ch.PropertyID, deferred.EventAbandon)
			continue
		}
		prevCategory, prevPosition := p.Category, p.CategoryPosition
		p.Category = ch.Category
		p.CategoryPosition = ch.Position
		if err := e.store.Persist(owner); err != nil {
			p.Category, p.CategoryPosition = prevCategory, prevPosition
			errs = append(errs, fmt.Errorf("committing %q to %q: %w", p.PropertyName(), owner.Name, err))
			continue
		}
		if _, err := buf.Resolve(ch.PropertyID, deferred.EventCommit); err != nil {
			errs = append(errs, err)
		}
	}

	context.PendingChanges = buf.PendingChanges()
	if err := e.store.Persist(context); err != nil {
		errs = append(errs, fmt.Errorf("persisting %q: %w", context.Name, err))
	}
	e.emit(context, types.PartPendingChanges, types.PartProperties)
	return errors.Join(errs...)
}

// Reload replaces context with its persisted form and discards its
// deferred changes; pending changes stored with the persisted form are
// restored. It returns the reloaded type, which takes context's place in
// the model.
func (e *Engine) Reload(context *types.TypeNode) (*types.TypeNode, error) {
	if err := checkConfigured(context); err != nil {
		return nil, err
	}
	if e.store == nil {
		return nil, types.ErrBackendDetached
	}
	loaded, err := e.store.Load(context.Side, context.Name)
	if err != nil {
		return nil, fmt.Errorf("reloading %q: %w", context.Name, err)
	}
	if err := e.model.Replace(loaded); err != nil {
		return nil, err
	}
	for _, ch := range e.pending.Reset(loaded) {
		e.logger.Debug("discarded deferred change on reload",
			"type", loaded.Name, "property_id", ch.PropertyID)
	}
	e.emit(loaded, types.PartCategories, types.PartPropertyReferences, types.PartPendingChanges, types.PartProperties)
	return loaded, nil
}

// Discard drops every deferred change of context and persists the type
// without them when a store is attached. It returns the number of changes
// dropped.
func (e *Engine) Discard(context *types.TypeNode) (int, error) {
	if err := checkConfigured(context); err != nil {
		return 0, err
	}
	e.pending.Buffer(context)
	context.PendingChanges = nil
	dropped := e.pending.Reset(context)
	if e.store != nil {
		if err := e.store.Persist(context); err != nil {
			return len(dropped), fmt.Errorf("persisting %q: %w", context.Name, err)
		}
	}
	e.emit(context, types.PartPendingChanges)
	return len(dropped), nil
}
