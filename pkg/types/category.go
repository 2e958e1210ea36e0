package types

import (
	"fmt"
	"strings"
)

// Position places a category in the left or right display column.
type Position int

// Category positions.
const (
	PositionLeft Position = iota + 1
	PositionRight
)

// String returns "left" or "right".
func (p Position) String() string {
	switch p {
	case PositionLeft:
		return "left"
	case PositionRight:
		return "right"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// ParsePosition converts "left" or "right" (any case) into a Position.
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(s) {
	case "left":
		return PositionLeft, nil
	case "right":
		return PositionRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	if p != PositionLeft && p != PositionRight {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(b []byte) error {
	parsed, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Category groups properties of a configured type for display and editing.
// Names are unique case-insensitively within the hierarchy of the owning type.
type Category struct {
	Name     string
	Owner    string // Qualified name of the owning configured type.
	Position Position

	DefaultForConfigurationAttributes bool
	DefaultForConfiguredAttributes    bool
	DefaultForFormulaSignatures       bool
	DefaultForTableUsages             bool
	DefaultForValidationRules         bool
}

// IsDefaultFor reports whether the category receives properties of kind k
// that have no (or an unresolvable) category.
func (c *Category) IsDefaultFor(k PropertyKind) bool {
	switch k {
	case KindConfigurationAttribute:
		return c.DefaultForConfigurationAttributes
	case KindConfiguredAttribute:
		return c.DefaultForConfiguredAttributes
	case KindFormulaSignature:
		return c.DefaultForFormulaSignatures
	case KindTableUsage:
		return c.DefaultForTableUsages
	case KindValidationRule:
		return c.DefaultForValidationRules
	default:
		return false
	}
}

// SetDefaultFor sets the default flag for kind k.
func (c *Category) SetDefaultFor(k PropertyKind, v bool) {
	switch k {
	case KindConfigurationAttribute:
		c.DefaultForConfigurationAttributes = v
	case KindConfiguredAttribute:
		c.DefaultForConfiguredAttributes = v
	case KindFormulaSignature:
		c.DefaultForFormulaSignatures = v
	case KindTableUsage:
		c.DefaultForTableUsages = v
	case KindValidationRule:
		c.DefaultForValidationRules = v
	}
}

// DefaultKinds returns the kinds this category is the default for.
func (c *Category) DefaultKinds() []PropertyKind {
	var kinds []PropertyKind
	for _, k := range AllKinds {
		if c.IsDefaultFor(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// HasName compares the category name case-insensitively.
func (c *Category) HasName(name string) bool {
	return strings.EqualFold(c.Name, name)
}
