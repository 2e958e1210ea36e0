// Package modelfile reads and writes model documents: the persisted shape
// of a set of configured and configuration types, as YAML, CUE or CBOR.
package modelfile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/prodmodel/internal/model"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Document is a set of types.
type Document struct {
	Types []TypeDoc `json:"types" yaml:"types"`
}

// TypeDoc is one configured or configuration type.
type TypeDoc struct {
	Name      string `json:"name" yaml:"name"`
	Side      string `json:"side" yaml:"side"`
	Supertype string `json:"supertype,omitempty" yaml:"supertype,omitempty"`

	// Configures names the configuration type a configured type
	// configures; ConfiguredBy names the configured type a configuration
	// type is configured by. Only the one matching Side is read.
	Configures   string `json:"configures,omitempty" yaml:"configures,omitempty"`
	ConfiguredBy string `json:"configured_by,omitempty" yaml:"configured_by,omitempty"`

	Properties     []PropertyDoc `json:"properties,omitempty" yaml:"properties,omitempty"`
	Categories     []CategoryDoc `json:"categories,omitempty" yaml:"categories,omitempty"`
	PropertyRefs   []string      `json:"property_refs,omitempty" yaml:"property_refs,omitempty"`
	PendingChanges []PendingDoc  `json:"pending_changes,omitempty" yaml:"pending_changes,omitempty"`
}

// PropertyDoc is one property. The payload fields used depend on Kind.
type PropertyDoc struct {
	ID               string `json:"id,omitempty" yaml:"id,omitempty"`
	Kind             string `json:"kind" yaml:"kind"`
	Name             string `json:"name" yaml:"name"`
	Overwrite        bool   `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
	Relevant         bool   `json:"relevant,omitempty" yaml:"relevant,omitempty"`
	Category         string `json:"category,omitempty" yaml:"category,omitempty"`
	CategoryPosition int    `json:"category_position,omitempty" yaml:"category_position,omitempty"`

	Datatype         string   `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	DefaultValue     string   `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	FormulaName      string   `json:"formula_name,omitempty" yaml:"formula_name,omitempty"`
	OverloadsFormula bool     `json:"overloads_formula,omitempty" yaml:"overloads_formula,omitempty"`
	TableStructures  []string `json:"table_structures,omitempty" yaml:"table_structures,omitempty"`
	Required         bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MessageCode      string   `json:"message_code,omitempty" yaml:"message_code,omitempty"`
	MessageText      string   `json:"message_text,omitempty" yaml:"message_text,omitempty"`
}

// CategoryDoc is one category. DefaultFor lists property kinds by name.
type CategoryDoc struct {
	Name       string   `json:"name" yaml:"name"`
	Position   string   `json:"position" yaml:"position"`
	DefaultFor []string `json:"default_for,omitempty" yaml:"default_for,omitempty"`
}

// PendingDoc is one serialized deferred category change.
type PendingDoc struct {
	PropertyID string `json:"property_id" yaml:"property_id"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty"`
	Position   int    `json:"position,omitempty" yaml:"position,omitempty"`
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ToModel builds a model from d. Properties without an id get a UUID v7.
// Returns ErrInvalidData, wrapping the specific cause, for unknown sides,
// kinds or positions, for a property declared on the wrong side and for
// duplicate type names.
func ToModel(d *Document) (*model.Model, error) {
	m := model.New()
	for _, td := range d.Types {
		t, err := td.toNode()
		if err != nil {
			return nil, fmt.Errorf("%w: type %q: %w", types.ErrInvalidData, td.Name, err)
		}
		if _, err := m.Add(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (td TypeDoc) toNode() (*types.TypeNode, error) {
	side, err := types.ParseSide(td.Side)
	if err != nil {
		return nil, err
	}
	t := &types.TypeNode{Name: td.Name, Side: side, Supertype: td.Supertype}
	switch side {
	case types.SideConfigured:
		t.Counterpart = td.Configures
	case types.SideConfiguration:
		t.Counterpart = td.ConfiguredBy
	}
	t.ConfiguresCounterpart = t.Counterpart != ""

	for _, pd := range td.Properties {
		p, err := pd.toProperty()
		if err != nil {
			return nil, err
		}
		if p.Kind.DeclaredOn() != side {
			return nil, fmt.Errorf("%w: %s %q cannot be declared on a %s type",
				types.ErrWrongSide, p.Kind, p.Name, side)
		}
		t.AddProperty(p)
	}

	if side != types.SideConfigured {
		if len(td.Categories) > 0 || len(td.PropertyRefs) > 0 || len(td.PendingChanges) > 0 {
			return nil, fmt.Errorf("%w: categories and ordering belong to configured types", types.ErrWrongSide)
		}
		return t, nil
	}
	for _, cd := range td.Categories {
		c, err := cd.toCategory()
		if err != nil {
			return nil, err
		}
		t.AddCategory(c)
	}
	t.PropertyRefs = append([]string(nil), td.PropertyRefs...)
	for _, pc := range td.PendingChanges {
		t.PendingChanges = append(t.PendingChanges, types.PendingChange{
			PropertyID: pc.PropertyID,
			Category:   pc.Category,
			Position:   pc.Position,
		})
	}
	return t, nil
}

func (pd PropertyDoc) toProperty() (*types.Property, error) {
	kind, err := types.ParseKind(pd.Kind)
	if err != nil {
		return nil, err
	}
	p := &types.Property{
		ID:               pd.ID,
		Kind:             kind,
		Name:             pd.Name,
		Overwrite:        pd.Overwrite,
		Relevant:         pd.Relevant,
		Category:         pd.Category,
		CategoryPosition: pd.CategoryPosition,
	}
	if p.ID == "" {
		p.ID = newID()
	}
	switch kind {
	case types.KindConfigurationAttribute, types.KindConfiguredAttribute:
		p.Attribute = &types.AttributePayload{Datatype: pd.Datatype, DefaultValue: pd.DefaultValue}
	case types.KindFormulaSignature:
		p.Formula = &types.FormulaPayload{
			FormulaName:      pd.FormulaName,
			Datatype:         pd.Datatype,
			OverloadsFormula: pd.OverloadsFormula,
		}
	case types.KindTableUsage:
		p.TableUsage = &types.TableUsagePayload{
			TableStructures: append([]string(nil), pd.TableStructures...),
			Required:        pd.Required,
		}
	case types.KindValidationRule:
		p.Rule = &types.RulePayload{MessageCode: pd.MessageCode, MessageText: pd.MessageText}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("property %q: %w", pd.Name, err)
	}
	return p, nil
}

func (cd CategoryDoc) toCategory() (*types.Category, error) {
	pos, err := types.ParsePosition(cd.Position)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", cd.Name, err)
	}
	c := &types.Category{Name: cd.Name, Position: pos}
	for _, name := range cd.DefaultFor {
		k, err := types.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", cd.Name, err)
		}
		c.SetDefaultFor(k, true)
	}
	return c, nil
}

// FromModel returns the document form of every type in m, in model order.
func FromModel(m *model.Model) *Document {
	d := &Document{}
	for _, t := range m.Types(0) {
		d.Types = append(d.Types, fromNode(t))
	}
	return d
}

func fromNode(t *types.TypeNode) TypeDoc {
	td := TypeDoc{Name: t.Name, Side: t.Side.String(), Supertype: t.Supertype}
	if t.ConfiguresCounterpart {
		switch t.Side {
		case types.SideConfigured:
			td.Configures = t.Counterpart
		case types.SideConfiguration:
			td.ConfiguredBy = t.Counterpart
		}
	}
	for _, p := range t.Properties {
		td.Properties = append(td.Properties, fromProperty(p))
	}
	for _, c := range t.Categories {
		cd := CategoryDoc{Name: c.Name, Position: c.Position.String()}
		for _, k := range c.DefaultKinds() {
			cd.DefaultFor = append(cd.DefaultFor, k.String())
		}
		td.Categories = append(td.Categories, cd)
	}
	td.PropertyRefs = append([]string(nil), t.PropertyRefs...)
	for _, pc := range t.PendingChanges {
		td.PendingChanges = append(td.PendingChanges, PendingDoc{
			PropertyID: pc.PropertyID,
			Category:   pc.Category,
			Position:   pc.Position,
		})
	}
	return td
}

func fromProperty(p *types.Property) PropertyDoc {
	pd := PropertyDoc{
		ID:               p.ID,
		Kind:             p.Kind.String(),
		Name:             p.Name,
		Overwrite:        p.Overwrite,
		Relevant:         p.Relevant,
		Category:         p.Category,
		CategoryPosition: p.CategoryPosition,
	}
	switch p.Kind {
	case types.KindConfigurationAttribute, types.KindConfiguredAttribute:
		if p.Attribute != nil {
			pd.Datatype = p.Attribute.Datatype
			pd.DefaultValue = p.Attribute.DefaultValue
		}
	case types.KindFormulaSignature:
		if p.Formula != nil {
			pd.FormulaName = p.Formula.FormulaName
			pd.Datatype = p.Formula.Datatype
			pd.OverloadsFormula = p.Formula.OverloadsFormula
		}
	case types.KindTableUsage:
		if p.TableUsage != nil {
			pd.TableStructures = append([]string(nil), p.TableUsage.TableStructures...)
			pd.Required = p.TableUsage.Required
		}
	case types.KindValidationRule:
		if p.Rule != nil {
			pd.MessageCode = p.Rule.MessageCode
			pd.MessageText = p.Rule.MessageText
		}
	}
	return pd
}
