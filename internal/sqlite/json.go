package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// payloadJSON is the kind-specific part of a property, stored in the
// payload column as a JSON document.
type payloadJSON struct {
	Datatype         string   `json:"datatype,omitempty"`
	DefaultValue     string   `json:"default_value,omitempty"`
	FormulaName      string   `json:"formula_name,omitempty"`
	OverloadsFormula bool     `json:"overloads_formula,omitempty"`
	TableStructures  []string `json:"table_structures,omitempty"`
	Required         bool     `json:"required,omitempty"`
	MessageCode      string   `json:"message_code,omitempty"`
	MessageText      string   `json:"message_text,omitempty"`
}

// encodePayload serializes the payload matching p's kind.
func encodePayload(p *types.Property) (string, error) {
	var pl payloadJSON
	switch p.Kind {
	case types.KindConfigurationAttribute, types.KindConfiguredAttribute:
		if p.Attribute != nil {
			pl.Datatype = p.Attribute.Datatype
			pl.DefaultValue = p.Attribute.DefaultValue
		}
	case types.KindFormulaSignature:
		if p.Formula != nil {
			pl.FormulaName = p.Formula.FormulaName
			pl.Datatype = p.Formula.Datatype
			pl.OverloadsFormula = p.Formula.OverloadsFormula
		}
	case types.KindTableUsage:
		if p.TableUsage != nil {
			pl.TableStructures = p.TableUsage.TableStructures
			pl.Required = p.TableUsage.Required
		}
	case types.KindValidationRule:
		if p.Rule != nil {
			pl.MessageCode = p.Rule.MessageCode
			pl.MessageText = p.Rule.MessageText
		}
	default:
		return "", fmt.Errorf("%w: %d", types.ErrInvalidKind, p.Kind)
	}
	data, err := json.Marshal(pl)
	if err != nil {
		return "", fmt.Errorf("marshaling payload of %q: %w", p.ID, err)
	}
	return string(data), nil
}

// decodePayload sets the payload of p from its stored form. p.Kind must be
// set.
func decodePayload(p *types.Property, data string) error {
	var pl payloadJSON
	if data != "" {
		if err := json.Unmarshal([]byte(data), &pl); err != nil {
			return fmt.Errorf("%w: payload of %q: %v", types.ErrInvalidData, p.ID, err)
		}
	}
	switch p.Kind {
	case types.KindConfigurationAttribute, types.KindConfiguredAttribute:
		p.Attribute = &types.AttributePayload{Datatype: pl.Datatype, DefaultValue: pl.DefaultValue}
	case types.KindFormulaSignature:
		p.Formula = &types.FormulaPayload{
			FormulaName:      pl.FormulaName,
			Datatype:         pl.Datatype,
			OverloadsFormula: pl.OverloadsFormula,
		}
	case types.KindTableUsage:
		p.TableUsage = &types.TableUsagePayload{TableStructures: pl.TableStructures, Required: pl.Required}
	case types.KindValidationRule:
		p.Rule = &types.RulePayload{MessageCode: pl.MessageCode, MessageText: pl.MessageText}
	default:
		return fmt.Errorf("%w: %d", types.ErrInvalidKind, p.Kind)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
