package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/internal/category"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func sampleView() View {
	general := &types.Category{Name: "general", Position: types.PositionLeft}
	pricing := &types.Category{Name: "pricing", Position: types.PositionRight}
	empty := &types.Category{Name: "notes", Position: types.PositionLeft}
	name := &types.Property{ID: "p1", Kind: types.KindConfiguredAttribute, Name: "name"}
	limit := &types.Property{ID: "p2", Kind: types.KindConfigurationAttribute, Name: "limit"}
	premium := &types.Property{ID: "p3", Kind: types.KindFormulaSignature, Name: "calc",
		Formula: &types.FormulaPayload{FormulaName: "premium"}}
	orphan := &types.Property{ID: "p4", Kind: types.KindTableUsage, Name: "rates"}

	return View{
		Type: &types.TypeNode{Name: "Product", Side: types.SideConfigured},
		Groups: []category.Assignment{
			{Category: general, Properties: []*types.Property{name, limit}},
			{Category: empty},
			{Category: pricing, Properties: []*types.Property{premium}},
		},
		Unplaced: []*types.Property{orphan},
		Pending:  map[string]bool{"p2": true},
	}
}

func TestRenderColumns(t *testing.T) {
	var buf bytes.Buffer
	out := NewPrinter(&buf).Render(sampleView())

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "Product (configured)", lines[0])

	header := lines[2]
	assert.Less(t, strings.Index(header, "general"), strings.Index(header, "pricing"),
		"left column is drawn before the right one")
	assert.Contains(t, out, "name configured-attribute")
	assert.Contains(t, out, "limit configuration-attribute *")
	assert.Contains(t, out, "premium formula-signature")
	assert.Contains(t, out, "(empty)")
	assert.Contains(t, out, "uncategorized")
	assert.Contains(t, out, "rates table-usage")
}

func TestRenderWithoutUnplaced(t *testing.T) {
	v := sampleView()
	v.Unplaced = nil
	v.Groups[0].Category.Name = ""

	out := NewPrinter(&bytes.Buffer{}).Render(v)
	assert.NotContains(t, out, "uncategorized")
	assert.Contains(t, out, "(unnamed)")
}
