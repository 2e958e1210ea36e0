package propmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/internal/testutil"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func newBuilder(f *testutil.Fixture) *Builder {
	return NewBuilder(f.Model, hierarchy.NewWalker(f.Model, nil), nil)
}

func TestBuildWithdrawnAttribute(t *testing.T) {
	// D configures P2; P2 overrides P1.a as not relevant.
	f := testutil.NewFixture()
	p1 := f.Configuration("P1", "", "B")
	p2 := f.Configuration("P2", "P1", "D")
	f.Configured("B", "", "P1")
	d := f.Configured("D", "B", "P2")
	testutil.ConfigurationAttr(p1, "a", true)
	testutil.OverrideAttr(p2, "a", false)

	b := newBuilder(f)

	m, err := b.Build(d, types.KindConfigurationAttribute, true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	base, _ := f.Model.FindType(types.SideConfigured, "B")
	m, err = b.Build(base, types.KindConfigurationAttribute, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, m.Names())
}

func TestBuildWithdrawnAttributeWithoutConfiguredSupertype(t *testing.T) {
	f := testutil.NewFixture()
	p1 := f.Configuration("P1", "", "")
	p2 := f.Configuration("P2", "P1", "D")
	d := f.Configured("D", "", "P2")
	testutil.ConfigurationAttr(p1, "a", true)
	testutil.OverrideAttr(p2, "a", false)

	m, err := newBuilder(f).Build(d, types.KindConfigurationAttribute, true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestBuildSharedConfigurationTypeCountedOnce(t *testing.T) {
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "B")
	shared := testutil.ConfigurationAttr(p, "shared", true)
	f.Configured("B", "", "P")
	f.Configured("C", "B", "P")
	d := f.Configured("D", "C", "")

	m, err := newBuilder(f).Build(d, 0, true)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	assert.Same(t, shared, m.Values()[0])
}

func TestBuildKeepsFirstDeclaredPosition(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "", "")
	b := f.Configured("B", "A", "")
	testutil.ConfiguredAttr(a, "first")
	testutil.ConfiguredAttr(a, "second")
	testutil.ConfiguredAttr(b, "third")
	override := testutil.ConfiguredAttr(b, "first")

	m, err := newBuilder(f).Build(b, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, m.Names())
	got, ok := m.FindByName("first")
	require.True(t, ok)
	assert.Same(t, override, got)
}

func TestBuildInterleavesConfigurationLevels(t *testing.T) {
	f := testutil.NewFixture()
	p1 := f.Configuration("P1", "", "A")
	p2 := f.Configuration("P2", "P1", "B")
	a := f.Configured("A", "", "P1")
	b := f.Configured("B", "A", "P2")
	testutil.ConfiguredAttr(a, "a1")
	testutil.ConfigurationAttr(p1, "p1", true)
	testutil.Rule(p1, "r1", true)
	testutil.Rule(p1, "hidden", false)
	testutil.TableUsage(b, "rates")
	testutil.Formula(b, "computePremium", "premium", false)
	testutil.ConfigurationAttr(p2, "p2", true)

	m, err := newBuilder(f).Build(b, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "p1", "r1", "rates", "premium", "p2"}, m.Names())

	rules, err := newBuilder(f).Build(b, types.KindValidationRule, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, rules.Names())
}

func TestBuildLocalOnly(t *testing.T) {
	f := testutil.NewFixture()
	p1 := f.Configuration("P1", "", "A")
	p2 := f.Configuration("P2", "P1", "B")
	a := f.Configured("A", "", "P1")
	b := f.Configured("B", "A", "P2")
	testutil.ConfiguredAttr(a, "inherited")
	testutil.ConfigurationAttr(p1, "inheritedPolicy", true)
	testutil.ConfiguredAttr(b, "own")
	testutil.ConfigurationAttr(p2, "ownPolicy", true)

	m, err := newBuilder(f).Build(b, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"own", "ownPolicy"}, m.Names())
}

func TestBuildSurvivesStructuralInconsistency(t *testing.T) {
	f := testutil.NewFixture()
	a := f.Configured("A", "B", "Missing")
	f.Configured("B", "A", "")
	testutil.ConfiguredAttr(a, "x")

	m, err := newBuilder(f).Build(a, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, m.Names())
}

func TestBuildRejectsConfigurationType(t *testing.T) {
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "")

	_, err := newBuilder(f).Build(p, 0, true)
	assert.ErrorIs(t, err, types.ErrWrongSide)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestFindByKindAndNameRequiresMatchingKind(t *testing.T) {
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "A")
	a := f.Configured("A", "", "P")
	attr := testutil.ConfigurationAttr(p, "limit", true)

	m, err := newBuilder(f).Build(a, 0, true)
	require.NoError(t, err)

	got, ok := m.FindByName("limit")
	require.True(t, ok)
	assert.Same(t, attr, got)

	_, ok = m.FindByKindAndName(types.KindValidationRule, "limit")
	assert.False(t, ok)
	_, ok = m.FindByName("absent")
	assert.False(t, ok)

	got, ok = m.FindByKindAndName(types.KindConfigurationAttribute, "limit")
	require.True(t, ok)
	assert.Same(t, attr, got)
}

func TestOwningConfiguredType(t *testing.T) {
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "A")
	a := f.Configured("A", "", "P")
	b := f.Configured("B", "A", "P")
	own := testutil.ConfiguredAttr(b, "own")
	policy := testutil.ConfigurationAttr(p, "policy", true)

	bld := newBuilder(f)
	owner, ok := bld.OwningConfiguredType(own, b)
	require.True(t, ok)
	assert.Same(t, b, owner)

	owner, ok = bld.OwningConfiguredType(policy, b)
	require.True(t, ok)
	assert.Same(t, b, owner)

	owner, ok = bld.OwningConfiguredType(policy, a)
	require.True(t, ok)
	assert.Same(t, a, owner)
}

func TestOwningConfiguredTypeThroughConfigurationSupertype(t *testing.T) {
	f := testutil.NewFixture()
	p1 := f.Configuration("P1", "", "")
	f.Configuration("P2", "P1", "D")
	d := f.Configured("D", "", "P2")
	inherited := testutil.ConfigurationAttr(p1, "inherited", true)

	owner, ok := newBuilder(f).OwningConfiguredType(inherited, d)
	require.True(t, ok)
	assert.Same(t, d, owner)
}
