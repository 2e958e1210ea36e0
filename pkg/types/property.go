package types

// Property is a product-definition property: any element that can be
// assigned to a category of a configured type. Kind selects the variant;
// exactly the payload matching Kind is non-nil (Attribute is shared by both
// attribute kinds).
type Property struct {
	ID    string       // Stable id referenced by PropertyRefs; UUID v7 when generated.
	Kind  PropertyKind // Variant tag.
	Name  string       // Element name: attribute, method, table role or rule name.
	Owner string       // Qualified name of the declaring type.

	// Overwrite marks an attribute that overrides a supertype attribute of
	// the same name.
	Overwrite bool

	// Relevant is the stored business flag of the configuration side:
	// "configured by product" for attributes and "configurable by product"
	// for validation rules. Configured-side kinds ignore it.
	Relevant bool

	Category         string // Stored category name; empty selects the default category.
	CategoryPosition int    // Position inside the category, written by deferred commits.

	Attribute  *AttributePayload
	Formula    *FormulaPayload
	TableUsage *TableUsagePayload
	Rule       *RulePayload
}

// AttributePayload carries the data of both attribute kinds.
type AttributePayload struct {
	Datatype     string
	DefaultValue string
}

// FormulaPayload carries the data of a formula signature.
type FormulaPayload struct {
	FormulaName      string // Logical property name; falls back to the method name.
	Datatype         string
	OverloadsFormula bool // Shadows a supertype formula with the same formula name.
}

// TableUsagePayload carries the data of a table usage.
type TableUsagePayload struct {
	TableStructures []string
	Required        bool
}

// RulePayload carries the data of a validation rule.
type RulePayload struct {
	MessageCode string
	MessageText string
}

// PropertyName returns the logical name the property is known by in the
// property map: the formula name for formula signatures, the element name
// for everything else.
func (p *Property) PropertyName() string {
	switch p.Kind {
	case KindFormulaSignature:
		if p.Formula != nil && p.Formula.FormulaName != "" {
			return p.Formula.FormulaName
		}
		return p.Name
	case KindConfigurationAttribute, KindConfiguredAttribute, KindTableUsage, KindValidationRule:
		return p.Name
	default:
		return p.Name
	}
}

// IsRelevant reports whether the property counts as a property of the
// configured type. Formula signatures, table usages and configured
// attributes are relevant whenever they are declared.
func (p *Property) IsRelevant() bool {
	switch p.Kind {
	case KindConfigurationAttribute, KindValidationRule:
		return p.Relevant
	case KindConfiguredAttribute, KindFormulaSignature, KindTableUsage:
		return true
	default:
		return false
	}
}

// IsOverwrite reports whether the property declares itself an override of
// a supertype element.
func (p *Property) IsOverwrite() bool {
	switch p.Kind {
	case KindConfigurationAttribute, KindConfiguredAttribute:
		return p.Overwrite
	case KindFormulaSignature:
		return p.Formula != nil && p.Formula.OverloadsFormula
	case KindTableUsage, KindValidationRule:
		return false
	default:
		return false
	}
}

// IsConfigurationSide reports whether the property is declared by a
// configuration type and therefore only referenced by configured types.
func (p *Property) IsConfigurationSide() bool {
	return p.Kind.DeclaredOn() == SideConfiguration
}

// Clone returns a deep copy of the property.
func (p *Property) Clone() *Property {
	c := *p
	if p.Attribute != nil {
		a := *p.Attribute
		c.Attribute = &a
	}
	if p.Formula != nil {
		f := *p.Formula
		c.Formula = &f
	}
	if p.TableUsage != nil {
		t := *p.TableUsage
		t.TableStructures = append([]string(nil), p.TableUsage.TableStructures...)
		c.TableUsage = &t
	}
	if p.Rule != nil {
		r := *p.Rule
		c.Rule = &r
	}
	return &c
}

// Validate checks that the property is well-formed: a known kind, a
// non-empty name and an id.
func (p *Property) Validate() error {
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.ID == "" {
		return ErrInvalidID
	}
	return nil
}
