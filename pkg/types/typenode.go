package types

import "fmt"

// Side identifies which of the two hierarchies a type belongs to.
type Side int

// Hierarchy sides.
const (
	// SideConfigured is the product side: commercially configurable
	// attributes, formulas and table usages, plus categories.
	SideConfigured Side = iota + 1
	// SideConfiguration is the policy side: business attributes and
	// validation rules.
	SideConfiguration
)

// String returns "configured" or "configuration".
func (s Side) String() string {
	switch s {
	case SideConfigured:
		return "configured"
	case SideConfiguration:
		return "configuration"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide converts "configured" or "configuration" into a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "configured":
		return SideConfigured, nil
	case "configuration":
		return SideConfiguration, nil
	default:
		return 0, fmt.Errorf("%w: side %q", ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if s != SideConfigured && s != SideConfiguration {
		return nil, fmt.Errorf("%w: side %d", ErrInvalidArgument, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(b []byte) error {
	parsed, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TypeID is the arena index of a type. Identity comparisons during
// traversal use TypeID, never pointers.
type TypeID int

// NoType is the TypeID of a node that has not been added to an arena.
const NoType TypeID = -1

// TypeNode is a configured type or a configuration type. Supertype and
// Counterpart are names resolved lazily through a TypeFinder.
type TypeNode struct {
	ID        TypeID
	Name      string // Qualified name, unique per side.
	Side      Side
	Supertype string // Empty for a hierarchy root.

	// Counterpart names the configuration type a configured type
	// configures, or the configured type a configuration type is
	// configured by. ConfiguresCounterpart switches the link on.
	Counterpart           string
	ConfiguresCounterpart bool

	// Properties holds the locally declared elements in declaration order.
	Properties []*Property

	// Categories and PropertyRefs are owned exclusively by configured types.
	Categories   []*Category
	PropertyRefs []string

	// PendingChanges is the serialized form of deferred category changes.
	// It is written just before the type is persisted and read back on
	// reload; the live buffer is held by the engine.
	PendingChanges []PendingChange
}

// PendingChange is one deferred category change for a property owned by a
// configuration type.
type PendingChange struct {
	PropertyID string
	Category   string
	Position   int
}

// IsConfigured reports whether the node is on the product side.
func (t *TypeNode) IsConfigured() bool {
	return t.Side == SideConfigured
}

// Property returns the local property with the given id.
func (t *TypeNode) Property(id string) (*Property, bool) {
	for _, p := range t.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PropertiesOfKind returns local properties of kind k in declaration order.
func (t *TypeNode) PropertiesOfKind(k PropertyKind) []*Property {
	var out []*Property
	for _, p := range t.Properties {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}

// Category returns the local category with exactly the given name.
func (t *TypeNode) Category(name string) (*Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// OwnsCategory reports whether c is one of this type's categories.
func (t *TypeNode) OwnsCategory(c *Category) bool {
	for _, own := range t.Categories {
		if own == c {
			return true
		}
	}
	return false
}

// RefIndex returns the index of id in PropertyRefs, or -1.
func (t *TypeNode) RefIndex(id string) int {
	for i, ref := range t.PropertyRefs {
		if ref == id {
			return i
		}
	}
	return -1
}

// AddProperty appends a property, stamping the owner.
func (t *TypeNode) AddProperty(p *Property) *Property {
	p.Owner = t.Name
	t.Properties = append(t.Properties, p)
	return p
}

// AddCategory appends a category, stamping the owner.
func (t *TypeNode) AddCategory(c *Category) *Category {
	c.Owner = t.Name
	t.Categories = append(t.Categories, c)
	return c
}

// Clone returns a deep copy of the node with the same ID.
func (t *TypeNode) Clone() *TypeNode {
	c := *t
	c.Properties = make([]*Property, len(t.Properties))
	for i, p := range t.Properties {
		c.Properties[i] = p.Clone()
	}
	c.Categories = make([]*Category, len(t.Categories))
	for i, cat := range t.Categories {
		cp := *cat
		c.Categories[i] = &cp
	}
	c.PropertyRefs = append([]string(nil), t.PropertyRefs...)
	c.PendingChanges = append([]PendingChange(nil), t.PendingChanges...)
	return &c
}
