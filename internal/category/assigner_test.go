package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/internal/deferred"
	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/internal/order"
	"github.com/mesh-intelligence/prodmodel/internal/propmap"
	"github.com/mesh-intelligence/prodmodel/internal/testutil"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func newAssigner(f *testutil.Fixture, pending order.PendingSource) *Assigner {
	w := hierarchy.NewWalker(f.Model, nil)
	b := propmap.NewBuilder(f.Model, w, nil)
	return NewAssigner(w, b, order.NewOrderer(w, b, pending, nil), pending)
}

func TestPropertiesOfExplicitAndDefault(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	general := testutil.Category(a, "general", types.PositionLeft, types.KindConfiguredAttribute)
	pricing := testutil.Category(a, "pricing", types.PositionRight)
	name := testutil.ConfiguredAttr(a, "name")
	premium := testutil.ConfiguredAttr(a, "premium")
	premium.Category = "pricing"

	as := newAssigner(f, nil)
	got, err := as.PropertiesOf(general, a, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{name}, got)

	got, err = as.PropertiesOf(pricing, a, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{premium}, got)
}

func TestPropertiesOfUnresolvedNameFallsBackToDefault(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	def := testutil.Category(a, "default", types.PositionLeft, types.KindTableUsage)
	usage := testutil.TableUsage(a, "rates")
	usage.Category = "missingCategory"

	got, err := newAssigner(f, nil).PropertiesOf(def, a, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"rates"}, testutil.Names(got))
}

func TestPropertiesOfSiblingCategoryFallsBackToDefault(t *testing.T) {
	f := testutil.NewFixture()
	root := f.Configured("Root", "", "")
	left := f.Configured("Left", "Root", "")
	right := f.Configured("Right", "Root", "")
	def := testutil.Category(root, "default", types.PositionLeft, types.KindConfiguredAttribute)
	testutil.Category(right, "onlyRight", types.PositionLeft)
	p := testutil.ConfiguredAttr(left, "p")
	p.Category = "onlyRight"

	got, err := newAssigner(f, nil).PropertiesOf(def, left, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{p}, got)
}

func TestUnnamedCategoryNeverTakesDefaults(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	unnamed := testutil.Category(a, "", types.PositionLeft, types.KindConfiguredAttribute)
	testutil.ConfiguredAttr(a, "x")

	got, err := newAssigner(f, nil).PropertiesOf(unnamed, a, true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDefaultSearchIsTopDownAndScoped(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	b := f.Configured("B", "A", "")
	top := testutil.Category(a, "top", types.PositionLeft, types.KindConfiguredAttribute)
	local := testutil.Category(b, "local", types.PositionLeft, types.KindConfiguredAttribute)
	own := testutil.ConfiguredAttr(b, "own")
	testutil.ConfiguredAttr(a, "inherited")

	as := newAssigner(f, nil)
	got, ok := as.FindDefaultCategory(types.KindConfiguredAttribute, b, true)
	require.True(t, ok)
	assert.Same(t, top, got)
	got, ok = as.FindDefaultCategory(types.KindConfiguredAttribute, b, false)
	require.True(t, ok)
	assert.Same(t, local, got)
	assert.Equal(t, 2, as.DefaultCategoryCount(types.KindConfiguredAttribute, b))

	props, err := as.PropertiesOf(top, b, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"inherited", "own"}, testutil.Names(props))

	props, err = as.PropertiesOf(local, b, false)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{own}, props)
}

func TestPropertiesOfHidesShadowedDeclaration(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	b := f.Configured("B", "A", "")
	cat := testutil.Category(a, "c", types.PositionLeft, types.KindConfiguredAttribute)
	base := testutil.ConfiguredAttr(a, "x")
	sub := testutil.ConfiguredAttr(b, "x")
	sub.Overwrite = true

	as := newAssigner(f, nil)
	got, err := as.PropertiesOf(cat, b, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{sub}, got)

	got, err = as.PropertiesOf(cat, a, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{base}, got)
}

func TestEveryUncategorizedPropertyLandsInItsDefault(t *testing.T) {
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "A")
	a := f.Configured("A", "", "P")
	cats := map[types.PropertyKind]*types.Category{}
	for _, k := range types.AllKinds {
		cats[k] = testutil.Category(a, k.String(), types.PositionLeft, k)
	}
	props := []*types.Property{
		testutil.ConfiguredAttr(a, "attr"),
		testutil.Formula(a, "calc", "premium", false),
		testutil.TableUsage(a, "rates"),
		testutil.ConfigurationAttr(p, "limit", true),
		testutil.Rule(p, "check", true),
	}

	as := newAssigner(f, nil)
	for _, prop := range props {
		got, err := as.PropertiesOf(cats[prop.Kind], a, true)
		require.NoError(t, err)
		assert.Contains(t, got, prop, prop.Kind.String())
	}
}

func TestPendingChangeRedirectsConfigurationProperty(t *testing.T) {
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "A")
	a := f.Configured("A", "", "P")
	b := f.Configured("B", "", "")
	def := testutil.Category(a, "def", types.PositionLeft, types.KindConfigurationAttribute)
	target := testutil.Category(a, "target", types.PositionRight)
	limit := testutil.ConfigurationAttr(p, "limit", true)

	reg := deferred.NewRegistry()
	require.NoError(t, reg.Buffer(a).Defer(limit.ID, "target", -1))
	require.NoError(t, reg.Buffer(b).Defer(limit.ID, "def", -1))

	as := newAssigner(f, reg)
	got, err := as.PropertiesOf(target, a, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{limit}, got)

	got, err = as.PropertiesOf(def, a, true)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "", limit.Category)
}

func TestIsCategoryNameDuplicatedIgnoresCase(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	b := f.Configured("B", "A", "")
	testutil.Category(a, "General", types.PositionLeft)
	testutil.Category(b, "general", types.PositionRight)
	testutil.Category(b, "other", types.PositionRight)

	as := newAssigner(f, nil)
	assert.True(t, as.IsCategoryNameDuplicated("GENERAL", b))
	assert.False(t, as.IsCategoryNameDuplicated("other", b))
	assert.False(t, as.IsCategoryNameDuplicated("General", a))

	_, ok := as.FindCategory(b, "GENERAL")
	assert.False(t, ok)
}

func TestAssignReportsUnplaced(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	cat := testutil.Category(a, "attrs", types.PositionLeft, types.KindConfiguredAttribute)
	testutil.ConfiguredAttr(a, "x")
	testutil.TableUsage(a, "orphan")

	groups, unplaced, err := newAssigner(f, nil).Assign(a, []*types.Category{cat})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"x"}, testutil.Names(groups[0].Properties))
	assert.Equal(t, []string{"orphan"}, testutil.Names(unplaced))
}
