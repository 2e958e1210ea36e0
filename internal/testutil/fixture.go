// Package testutil builds in-memory type graphs for tests.
package testutil

import (
	"github.com/mesh-intelligence/prodmodel/internal/model"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Fixture wraps a model arena with terse builders.
type Fixture struct {
	Model *model.Model
}

// NewFixture creates an empty fixture.
func NewFixture() *Fixture {
	return &Fixture{Model: model.New()}
}

// Configured adds a configured type. A non-empty configures links it to
// that configuration type.
func (f *Fixture) Configured(name, supertype, configures string) *types.TypeNode {
	return f.Model.MustAdd(&types.TypeNode{
		Name:                  name,
		Side:                  types.SideConfigured,
		Supertype:             supertype,
		Counterpart:           configures,
		ConfiguresCounterpart: configures != "",
	})
}

// Configuration adds a configuration type. A non-empty configuredBy links
// it to that configured type.
func (f *Fixture) Configuration(name, supertype, configuredBy string) *types.TypeNode {
	return f.Model.MustAdd(&types.TypeNode{
		Name:                  name,
		Side:                  types.SideConfiguration,
		Supertype:             supertype,
		Counterpart:           configuredBy,
		ConfiguresCounterpart: configuredBy != "",
	})
}

// PropertyID is the deterministic id fixtures give a property.
func PropertyID(owner string, kind types.PropertyKind, name string) string {
	return owner + "/" + kind.String() + "/" + name
}

func add(t *types.TypeNode, p *types.Property) *types.Property {
	p.ID = PropertyID(t.Name, p.Kind, p.Name)
	return t.AddProperty(p)
}

// ConfiguredAttr declares a configured attribute on t.
func ConfiguredAttr(t *types.TypeNode, name string) *types.Property {
	return add(t, &types.Property{
		Kind:      types.KindConfiguredAttribute,
		Name:      name,
		Attribute: &types.AttributePayload{Datatype: "String"},
	})
}

// ConfigurationAttr declares a configuration attribute on t.
func ConfigurationAttr(t *types.TypeNode, name string, relevant bool) *types.Property {
	return add(t, &types.Property{
		Kind:      types.KindConfigurationAttribute,
		Name:      name,
		Relevant:  relevant,
		Attribute: &types.AttributePayload{Datatype: "Money"},
	})
}

// OverrideAttr declares an overriding configuration attribute on t.
func OverrideAttr(t *types.TypeNode, name string, relevant bool) *types.Property {
	p := ConfigurationAttr(t, name, relevant)
	p.Overwrite = true
	return p
}

// Formula declares a formula signature on t.
func Formula(t *types.TypeNode, method, formulaName string, overloads bool) *types.Property {
	return add(t, &types.Property{
		Kind: types.KindFormulaSignature,
		Name: method,
		Formula: &types.FormulaPayload{
			FormulaName:      formulaName,
			Datatype:         "Decimal",
			OverloadsFormula: overloads,
		},
	})
}

// TableUsage declares a table usage on t.
func TableUsage(t *types.TypeNode, role string) *types.Property {
	return add(t, &types.Property{
		Kind:       types.KindTableUsage,
		Name:       role,
		TableUsage: &types.TableUsagePayload{TableStructures: []string{role + "Structure"}},
	})
}

// Rule declares a validation rule on t.
func Rule(t *types.TypeNode, name string, relevant bool) *types.Property {
	return add(t, &types.Property{
		Kind:     types.KindValidationRule,
		Name:     name,
		Relevant: relevant,
		Rule:     &types.RulePayload{MessageCode: name},
	})
}

// Category adds a category to t that is the default for the given kinds.
func Category(t *types.TypeNode, name string, pos types.Position, defaults ...types.PropertyKind) *types.Category {
	c := &types.Category{Name: name, Position: pos}
	for _, k := range defaults {
		c.SetDefaultFor(k, true)
	}
	return t.AddCategory(c)
}

// Names returns the logical property names of props.
func Names(props []*types.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.PropertyName()
	}
	return out
}

// CategoryNames returns the names of cats.
func CategoryNames(cats []*types.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}

// MemoryStore is a types.Store over cloned snapshots, with per-type
// mutability switches.
type MemoryStore struct {
	saved    map[string]*types.TypeNode
	readOnly map[string]bool
	failures map[string]error
	Persists []string
}

var _ types.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		saved:    make(map[string]*types.TypeNode),
		readOnly: make(map[string]bool),
		failures: make(map[string]error),
	}
}

func storeKey(side types.Side, name string) string {
	return side.String() + ":" + name
}

// SetReadOnly toggles whether t may be persisted.
func (s *MemoryStore) SetReadOnly(t *types.TypeNode, readOnly bool) {
	s.readOnly[storeKey(t.Side, t.Name)] = readOnly
}

// FailPersist makes every Persist of t return err while t stays mutable.
// A nil err clears the failure.
func (s *MemoryStore) FailPersist(t *types.TypeNode, err error) {
	key := storeKey(t.Side, t.Name)
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Persist stores a clone of t.
func (s *MemoryStore) Persist(t *types.TypeNode) error {
	if !s.IsMutable(t) {
		return types.ErrReadOnly
	}
	key := storeKey(t.Side, t.Name)
	if err := s.failures[key]; err != nil {
		return err
	}
	s.saved[key] = t.Clone()
	s.Persists = append(s.Persists, key)
	return nil
}

// Load returns a clone of the last persisted form.
func (s *MemoryStore) Load(side types.Side, name string) (*types.TypeNode, error) {
	t, ok := s.saved[storeKey(side, name)]
	if !ok {
		return nil, types.ErrNotFound
	}
	return t.Clone(), nil
}

// IsMutable reports whether t is writable.
func (s *MemoryStore) IsMutable(t *types.TypeNode) bool {
	return !s.readOnly[storeKey(t.Side, t.Name)]
}

// Recorder collects content change events.
type Recorder struct {
	Events []types.ContentChangeEvent
}

// ContentChanged records ev.
func (r *Recorder) ContentChanged(ev types.ContentChangeEvent) {
	r.Events = append(r.Events, ev)
}
