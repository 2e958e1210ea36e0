// Package validate reports consistency findings for a configured type's
// categories and properties. Findings are messages, never errors; the
// pass works on inconsistent models because the engine tolerates them.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/prodmodel/internal/engine"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Severity of a finding.
type Severity string

// Severities, least severe first.
const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Message codes.
const (
	CodeDuplicateCategoryName  = "DUPLICATE_CATEGORY_NAME"
	CodeDuplicateDefault       = "DUPLICATE_DEFAULT_CATEGORY"
	CodeMissingDefault         = "MISSING_DEFAULT_CATEGORY"
	CodeUnresolvedCategory     = "UNRESOLVED_CATEGORY"
	CodeMissingOverloadTarget  = "MISSING_OVERLOADED_FORMULA"
	CodeUnresolvedSupertype    = "UNRESOLVED_SUPERTYPE"
	CodeUnresolvedConfiguredBy = "UNRESOLVED_CONFIGURATION_TYPE"
)

// Message is one validation finding.
type Message struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Text     string   `json:"text"`
	Objects  []string `json:"objects,omitempty"`
}

// Messages is a list of findings.
type Messages []Message

// MaxSeverity returns the most severe severity in ms, or "" when empty.
func (ms Messages) MaxSeverity() Severity {
	var top Severity
	for _, m := range ms {
		if severityRank(m.Severity) > severityRank(top) {
			top = m.Severity
		}
	}
	return top
}

// HasErrors reports whether any finding is an error.
func (ms Messages) HasErrors() bool {
	return ms.MaxSeverity() == SeverityError
}

// Validator runs the validation pass over an engine's model.
type Validator struct {
	engine *engine.Engine
}

// New creates a Validator.
func New(e *engine.Engine) *Validator {
	return &Validator{engine: e}
}

// Validate returns the findings for context, most severe first.
// Returns ErrWrongSide if context is not a configured type.
func (v *Validator) Validate(context *types.TypeNode) (Messages, error) {
	m, err := v.engine.BuildMap(context, 0, true)
	if err != nil {
		return nil, err
	}
	var out Messages
	out = append(out, v.hierarchy(context)...)
	out = append(out, v.categoryNames(context)...)
	out = append(out, v.defaults(context, m.Values())...)
	out = append(out, v.properties(context, m.Values())...)
	sort.SliceStable(out, func(i, j int) bool {
		return severityRank(out[i].Severity) > severityRank(out[j].Severity)
	})
	return out, nil
}

func (v *Validator) hierarchy(context *types.TypeNode) Messages {
	var out Messages
	finder := v.engine.Model()
	for _, t := range v.engine.Walker().Chain(context) {
		if t.Supertype != "" {
			if _, ok := finder.FindType(t.Side, t.Supertype); !ok {
				out = append(out, Message{
					Severity: SeverityWarning,
					Code:     CodeUnresolvedSupertype,
					Text:     fmt.Sprintf("supertype %q of %q does not exist", t.Supertype, t.Name),
					Objects:  []string{t.Name},
				})
			}
		}
		if t.ConfiguresCounterpart {
			if _, ok := finder.FindType(types.SideConfiguration, t.Counterpart); !ok {
				out = append(out, Message{
					Severity: SeverityWarning,
					Code:     CodeUnresolvedConfiguredBy,
					Text:     fmt.Sprintf("configuration type %q of %q does not exist", t.Counterpart, t.Name),
					Objects:  []string{t.Name},
				})
			}
		}
	}
	return out
}

func (v *Validator) categoryNames(context *types.TypeNode) Messages {
	var out Messages
	reported := make(map[string]bool)
	for _, c := range v.engine.Categories(context, true) {
		key := strings.ToLower(c.Name)
		if reported[key] || !v.engine.IsCategoryNameDuplicated(c.Name, context) {
			continue
		}
		reported[key] = true
		out = append(out, Message{
			Severity: SeverityError,
			Code:     CodeDuplicateCategoryName,
			Text:     fmt.Sprintf("category name %q is used more than once in the hierarchy of %q", c.Name, context.Name),
			Objects:  []string{c.Owner + "." + c.Name},
		})
	}
	return out
}

func (v *Validator) defaults(context *types.TypeNode, props []*types.Property) Messages {
	var out Messages
	used := make(map[types.PropertyKind]bool)
	for _, p := range props {
		used[p.Kind] = true
	}
	for _, k := range types.AllKinds {
		switch n := v.engine.DefaultCategoryCount(k, context); {
		case n > 1:
			out = append(out, Message{
				Severity: SeverityError,
				Code:     CodeDuplicateDefault,
				Text:     fmt.Sprintf("%d categories are the default for %s", n, k),
				Objects:  []string{context.Name},
			})
		case n == 0 && used[k]:
			out = append(out, Message{
				Severity: SeverityWarning,
				Code:     CodeMissingDefault,
				Text:     fmt.Sprintf("no category is the default for %s", k),
				Objects:  []string{context.Name},
			})
		}
	}
	return out
}

func (v *Validator) properties(context *types.TypeNode, props []*types.Property) Messages {
	var out Messages
	finder := v.engine.Model()
	for _, p := range props {
		if p.Category != "" {
			if _, ok := v.engine.FindCategory(context, p.Category); !ok {
				out = append(out, Message{
					Severity: SeverityInfo,
					Code:     CodeUnresolvedCategory,
					Text: fmt.Sprintf("category %q of %s %q does not exist, the default category is used",
						p.Category, p.Kind, p.PropertyName()),
					Objects: []string{p.Owner + "." + p.PropertyName()},
				})
			}
		}
		if p.Kind != types.KindFormulaSignature {
			continue
		}
		owner, ok := finder.FindType(types.SideConfigured, p.Owner)
		if ok && v.engine.Resolver().MissingOverloadTarget(p, owner) {
			out = append(out, Message{
				Severity: SeverityWarning,
				Code:     CodeMissingOverloadTarget,
				Text:     fmt.Sprintf("formula %q overloads a formula no supertype declares", p.PropertyName()),
				Objects:  []string{p.Owner + "." + p.Name},
			})
		}
	}
	return out
}
