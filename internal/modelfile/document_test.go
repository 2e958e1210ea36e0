package modelfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

const sampleYAML = `types:
  - name: Policy
    side: configuration
    configured_by: Product
    properties:
      - id: limit
        kind: configuration-attribute
        name: limit
        relevant: true
        datatype: Money
      - kind: validation-rule
        name: check
        relevant: true
        message_code: E1
  - name: Product
    side: configured
    configures: Policy
    properties:
      - id: name
        kind: configured-attribute
        name: name
        category: general
      - id: calc
        kind: formula-signature
        name: computePremium
        formula_name: premium
        overloads_formula: true
      - id: rates
        kind: table-usage
        name: rates
        table_structures: [RateTable]
        required: true
    categories:
      - name: general
        position: left
        default_for: [configured-attribute, configuration-attribute]
      - name: pricing
        position: right
        default_for: [formula-signature]
    property_refs: [calc, name]
    pending_changes:
      - property_id: limit
        category: pricing
        position: 1
`

const sampleCUE = `
types: [{
	name:          "Policy"
	side:          "configuration"
	configured_by: "Product"
	properties: [{id: "limit", kind: "configuration-attribute", name: "limit", relevant: true}]
}, {
	name:       "Product"
	side:       "configured"
	configures: "Policy"
	categories: [{name: "general", position: "left", default_for: ["configuration-attribute"]}]
}]
`

func TestDecodeYAMLToModel(t *testing.T) {
	d, err := Decode([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	m, err := ToModel(d)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	product, ok := m.FindType(types.SideConfigured, "Product")
	require.True(t, ok)
	assert.True(t, product.ConfiguresCounterpart)
	assert.Equal(t, "Policy", product.Counterpart)
	require.Len(t, product.Properties, 3)
	assert.Equal(t, "premium", product.Properties[1].PropertyName())
	assert.True(t, product.Properties[1].Formula.OverloadsFormula)
	assert.Equal(t, []string{"RateTable"}, product.Properties[2].TableUsage.TableStructures)
	assert.Equal(t, "Product", product.Properties[0].Owner)

	require.Len(t, product.Categories, 2)
	assert.True(t, product.Categories[0].IsDefaultFor(types.KindConfigurationAttribute))
	assert.Equal(t, types.PositionRight, product.Categories[1].Position)
	assert.Equal(t, []string{"calc", "name"}, product.PropertyRefs)
	assert.Equal(t, []types.PendingChange{{PropertyID: "limit", Category: "pricing", Position: 1}}, product.PendingChanges)

	policy, ok := m.FindType(types.SideConfiguration, "Policy")
	require.True(t, ok)
	rule := policy.Properties[1]
	_, err = uuid.Parse(rule.ID)
	assert.NoError(t, err, "generated id must be a UUID")
	assert.Equal(t, "E1", rule.Rule.MessageCode)
}

func TestDecodeCUE(t *testing.T) {
	d, err := Decode([]byte(sampleCUE), FormatCUE)
	require.NoError(t, err)
	require.Len(t, d.Types, 2)
	assert.Equal(t, "Product", d.Types[0].ConfiguredBy)
	assert.Equal(t, []string{"configuration-attribute"}, d.Types[1].Categories[0].DefaultFor)

	_, err = ToModel(d)
	require.NoError(t, err)
}

func TestDecodeCUERejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown kind", `types: [{name: "A", side: "configured", properties: [{kind: "gadget", name: "x"}]}]`},
		{"unknown side", `types: [{name: "A", side: "sideways"}]`},
		{"unknown field", `types: [{name: "A", side: "configured", colour: "red"}]`},
		{"not concrete", `types: [{name: string, side: "configured"}]`},
		{"syntax", `types: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src), FormatCUE)
			assert.ErrorIs(t, err, types.ErrInvalidData)
		})
	}
}

func TestDecodeYAMLRejectsUnknownFields(t *testing.T) {
	_, err := Decode([]byte("types:\n  - name: A\n    side: configured\n    colour: red\n"), FormatYAML)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestToModelErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want error
	}{
		{"bad side", Document{Types: []TypeDoc{{Name: "A", Side: "x"}}}, types.ErrInvalidData},
		{"bad kind", Document{Types: []TypeDoc{{Name: "A", Side: "configured",
			Properties: []PropertyDoc{{Kind: "x", Name: "p"}}}}}, types.ErrInvalidKind},
		{"wrong side", Document{Types: []TypeDoc{{Name: "A", Side: "configured",
			Properties: []PropertyDoc{{Kind: "validation-rule", Name: "r"}}}}}, types.ErrWrongSide},
		{"bad position", Document{Types: []TypeDoc{{Name: "A", Side: "configured",
			Categories: []CategoryDoc{{Name: "c", Position: "middle"}}}}}, types.ErrInvalidPosition},
		{"categories on configuration type", Document{Types: []TypeDoc{{Name: "P", Side: "configuration",
			Categories: []CategoryDoc{{Name: "c", Position: "left"}}}}}, types.ErrWrongSide},
		{"empty property name", Document{Types: []TypeDoc{{Name: "A", Side: "configured",
			Properties: []PropertyDoc{{Kind: "table-usage"}}}}}, types.ErrInvalidName},
		{"duplicate type", Document{Types: []TypeDoc{{Name: "A", Side: "configured"}, {Name: "A", Side: "configured"}}},
			types.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToModel(&tt.doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestYAMLAndCBORRoundTrip(t *testing.T) {
	d, err := Decode([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	m, err := ToModel(d)
	require.NoError(t, err)
	want := FromModel(m)

	for _, f := range []Format{FormatYAML, FormatCBOR} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Encode(want, f)
			require.NoError(t, err)
			got, err := Decode(data, f)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestCBOREncodingIsDeterministic(t *testing.T) {
	d, err := Decode([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	a, err := Encode(d, FormatCBOR)
	require.NoError(t, err)
	b, err := Encode(d, FormatCBOR)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeCUEIsUnsupported(t *testing.T) {
	_, err := Encode(&Document{}, FormatCUE)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"model.yaml", FormatYAML, true},
		{"model.YML", FormatYAML, true},
		{"dir/model.cue", FormatCUE, true},
		{"model.cbor", FormatCBOR, true},
		{"model.json", "", false},
		{"model", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.cue")
	require.NoError(t, os.WriteFile(path, []byte(sampleCUE), 0o644))
	d, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, d.Types, 2)
}
