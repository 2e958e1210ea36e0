package types

import "fmt"

// PropertyKind tags the variant of a Property. The set is closed; every
// switch over it must handle all five kinds.
type PropertyKind int

// Property kinds. The zero value is invalid so an unset kind is caught.
const (
	KindConfigurationAttribute PropertyKind = iota + 1
	KindConfiguredAttribute
	KindFormulaSignature
	KindTableUsage
	KindValidationRule
)

// AllKinds lists every property kind in declaration order.
var AllKinds = []PropertyKind{
	KindConfigurationAttribute,
	KindConfiguredAttribute,
	KindFormulaSignature,
	KindTableUsage,
	KindValidationRule,
}

var kindNames = map[PropertyKind]string{
	KindConfigurationAttribute: "configuration-attribute",
	KindConfiguredAttribute:    "configured-attribute",
	KindFormulaSignature:       "formula-signature",
	KindTableUsage:             "table-usage",
	KindValidationRule:         "validation-rule",
}

// String returns the stable external name of the kind.
func (k PropertyKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k PropertyKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// DeclaredOn returns the side of the hierarchy that declares properties of
// this kind.
func (k PropertyKind) DeclaredOn() Side {
	switch k {
	case KindConfigurationAttribute, KindValidationRule:
		return SideConfiguration
	case KindConfiguredAttribute, KindFormulaSignature, KindTableUsage:
		return SideConfigured
	default:
		return 0
	}
}

// ParseKind converts an external kind name into a PropertyKind.
// Returns ErrInvalidKind if the name is not recognized.
func ParseKind(s string) (PropertyKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k PropertyKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PropertyKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
