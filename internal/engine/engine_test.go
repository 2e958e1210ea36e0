package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/internal/testutil"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// policyFixture builds a configured type Product configuring Policy, with
// a default category per side and a second category "special".
type policyFixture struct {
	f        *testutil.Fixture
	policy   *types.TypeNode
	product  *types.TypeNode
	general  *types.Category
	special  *types.Category
	limit    *types.Property
	name     *types.Property
	store    *testutil.MemoryStore
	recorder *testutil.Recorder
	engine   *Engine
}

func newPolicyFixture(t *testing.T) *policyFixture {
	t.Helper()
	pf := &policyFixture{f: testutil.NewFixture()}
	pf.policy = pf.f.Configuration("Policy", "", "Product")
	pf.product = pf.f.Configured("Product", "", "Policy")
	pf.general = testutil.Category(pf.product, "general", types.PositionLeft,
		types.KindConfigurationAttribute, types.KindConfiguredAttribute)
	pf.special = testutil.Category(pf.product, "special", types.PositionRight)
	pf.limit = testutil.ConfigurationAttr(pf.policy, "limit", true)
	pf.name = testutil.ConfiguredAttr(pf.product, "name")
	pf.store = testutil.NewMemoryStore()
	pf.recorder = &testutil.Recorder{}
	pf.engine = New(pf.f.Model, pf.store, WithListener(pf.recorder))
	require.NoError(t, pf.store.Persist(pf.policy))
	require.NoError(t, pf.store.Persist(pf.product))
	return pf
}

func TestChangeConfigurationPropertyIsDeferred(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine

	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))
	assert.Equal(t, "", pf.limit.Category)
	require.Len(t, pf.recorder.Events, 1)
	assert.Equal(t, []types.Part{types.PartPendingChanges}, pf.recorder.Events[0].Parts)

	ch, ok := e.PendingChange(pf.product, pf.limit)
	require.True(t, ok)
	assert.Equal(t, "special", ch.Category)
	assert.Equal(t, 0, ch.Position)

	got, err := e.PropertiesOf(pf.special, pf.product, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{pf.limit}, got)

	got, err = e.PropertiesOf(pf.general, pf.product, true)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{pf.name}, got)
}

func TestDeferredPositionIsClamped(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine

	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "general", 7))
	ch, ok := e.PendingChange(pf.product, pf.limit)
	require.True(t, ok)
	assert.Equal(t, 1, ch.Position)

	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "general", 0))
	got, err := e.PropertiesOf(pf.general, pf.product, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"limit", "name"}, testutil.Names(got))
}

func TestSaveCommitsToMutableOwner(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))

	require.NoError(t, e.Save(pf.product))
	assert.Equal(t, "special", pf.limit.Category)
	_, ok := e.PendingChange(pf.product, pf.limit)
	assert.False(t, ok)
	assert.Empty(t, pf.product.PendingChanges)

	stored, err := pf.store.Load(types.SideConfiguration, "Policy")
	require.NoError(t, err)
	p, ok := stored.Property(pf.limit.ID)
	require.True(t, ok)
	assert.Equal(t, "special", p.Category)
}

func TestSaveAbandonsChangeForReadOnlyOwner(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	pf.store.SetReadOnly(pf.policy, true)
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))

	require.NoError(t, e.Save(pf.product))
	assert.Equal(t, "", pf.limit.Category)
	_, ok := e.PendingChange(pf.product, pf.limit)
	assert.False(t, ok)

	got, err := e.PropertiesOf(pf.general, pf.product, true)
	require.NoError(t, err)
	assert.Contains(t, got, pf.limit)
}

func TestSerializeThenReloadRestoresPendingChange(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))
	require.NoError(t, e.Serialize(pf.product))

	reloaded, err := e.Reload(pf.product)
	require.NoError(t, err)
	assert.Equal(t, pf.product.ID, reloaded.ID)

	ch, ok := e.PendingChange(reloaded, pf.limit)
	require.True(t, ok)
	assert.Equal(t, "special", ch.Category)
	assert.Equal(t, "", pf.limit.Category)
}

func TestReloadWithoutSaveDiscardsPendingChange(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))

	reloaded, err := e.Reload(pf.product)
	require.NoError(t, err)
	_, ok := e.PendingChange(reloaded, pf.limit)
	assert.False(t, ok)

	found, ok := e.Model().FindType(types.SideConfigured, "Product")
	require.True(t, ok)
	assert.Same(t, reloaded, found)
}

func TestChangeConfiguredPropertyAppliesAtOnce(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	other := testutil.ConfiguredAttr(pf.product, "other")
	other.Category = "special"

	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.name, "special", 0))
	assert.Equal(t, "special", pf.name.Category)
	_, ok := e.PendingChange(pf.product, pf.name)
	assert.False(t, ok)

	got, err := e.PropertiesOf(pf.special, pf.product, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "other"}, testutil.Names(got))
	require.Len(t, pf.recorder.Events, 1)
}

func TestChangeCategoryErrors(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	sub := pf.f.Configured("SubProduct", "Product", "")
	foreign := testutil.ConfiguredAttr(pf.f.Configured("Other", "", ""), "foreign")

	err := e.ChangeCategoryAndDeferPolicyChange(pf.product, foreign, "special", -1)
	assert.ErrorIs(t, err, types.ErrPropertyNotFound)

	err = e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.name, "nope", -1)
	assert.ErrorIs(t, err, types.ErrCategoryNotFound)

	err = e.ChangeCategoryAndDeferPolicyChange(sub, pf.name, "special", -1)
	assert.ErrorIs(t, err, types.ErrNotOwned)

	err = e.ChangeCategoryAndDeferPolicyChange(pf.policy, pf.limit, "special", -1)
	assert.ErrorIs(t, err, types.ErrWrongSide)

	assert.Empty(t, pf.recorder.Events)
}

func TestMoveCategoryPropertiesEmitsOneEvent(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	p2 := testutil.ConfiguredAttr(pf.product, "p2")
	p3 := testutil.ConfiguredAttr(pf.product, "p3")
	pf.product.PropertyRefs = []string{pf.name.ID, p2.ID, p3.ID}

	got, err := e.PropertiesOf(pf.general, pf.product, false)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "p2", "p3", "limit"}, testutil.Names(got))

	idx, err := e.MoveCategoryProperties(pf.product, pf.general, []int{2, 1}, true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, idx)
	require.Len(t, pf.recorder.Events, 1)
	assert.Equal(t, []types.Part{types.PartPropertyReferences}, pf.recorder.Events[0].Parts)

	got, err = e.PropertiesOf(pf.general, pf.product, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3", "name", "limit"}, testutil.Names(got))

	second, err := e.PropertiesOf(pf.general, pf.product, false)
	require.NoError(t, err)
	assert.Equal(t, got, second)
}

func TestMoveCategoriesEmitsOneEvent(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	extra := testutil.Category(pf.product, "extra", types.PositionLeft)

	moved, err := e.MoveCategories(pf.product, []*types.Category{extra}, true)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"extra", "special", "general"}, testutil.CategoryNames(pf.product.Categories))
	assert.Len(t, pf.recorder.Events, 1)
}

func TestExportOrder(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	usage := testutil.TableUsage(pf.product, "rates")
	pf.name.Category = "special"

	got, err := e.ExportOrder(pf.product)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{pf.limit, pf.name, usage}, got)

	rightFirst := New(pf.f.Model, pf.store, WithDisplayOrder(types.DisplayRightFirst))
	got, err = rightFirst.ExportOrder(pf.product)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{pf.name, pf.limit, usage}, got)
}

func TestDiscardDropsPersistedPendingChanges(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))
	require.NoError(t, e.Serialize(pf.product))

	// A fresh engine sees the serialized change only through the stored type.
	reloaded, err := New(pf.f.Model, pf.store).Reload(pf.product)
	require.NoError(t, err)
	fresh := New(pf.f.Model, pf.store, WithListener(pf.recorder))
	pf.recorder.Events = nil

	n, err := fresh.Discard(reloaded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := fresh.PendingChange(reloaded, pf.limit)
	assert.False(t, ok)
	require.Len(t, pf.recorder.Events, 1)
	assert.Equal(t, []types.Part{types.PartPendingChanges}, pf.recorder.Events[0].Parts)

	stored, err := pf.store.Load(types.SideConfigured, "Product")
	require.NoError(t, err)
	assert.Empty(t, stored.PendingChanges)
}

func TestMoveDeferredProperty(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	testutil.ConfiguredAttr(pf.product, "x")
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "general", 0))

	got, err := e.PropertiesOf(pf.general, pf.product, false)
	require.NoError(t, err)
	require.Equal(t, []string{"limit", "name", "x"}, testutil.Names(got))

	idx, err := e.MoveCategoryProperties(pf.product, pf.general, []int{0}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, idx)

	got, err = e.PropertiesOf(pf.general, pf.product, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "limit", "x"}, testutil.Names(got))
	assert.Same(t, pf.limit, got[idx[0]])
}

func TestDeferredPositionReplacesOwnReference(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	x := testutil.ConfiguredAttr(pf.product, "x")
	pf.product.PropertyRefs = []string{pf.name.ID, x.ID, pf.limit.ID}

	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "general", 0))
	assert.Equal(t, []string{pf.name.ID, x.ID}, pf.product.PropertyRefs)
	require.Len(t, pf.recorder.Events, 1)
	assert.Equal(t, []types.Part{types.PartPendingChanges, types.PartPropertyReferences}, pf.recorder.Events[0].Parts)

	got, err := e.PropertiesOf(pf.general, pf.product, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"limit", "name", "x"}, testutil.Names(got))
}

func TestMoveSharedConfigurationPropertyInSubtype(t *testing.T) {
	// B and its subtype D both configure P.
	f := testutil.NewFixture()
	p := f.Configuration("P", "", "B")
	f.Configured("B", "", "P")
	d := f.Configured("D", "B", "P")
	c := testutil.Category(d, "c", types.PositionLeft,
		types.KindConfigurationAttribute, types.KindConfiguredAttribute)
	testutil.ConfigurationAttr(p, "shared", true)
	testutil.ConfiguredAttr(d, "x")
	e := New(f.Model, testutil.NewMemoryStore())

	props, err := e.PropertiesOf(c, d, false)
	require.NoError(t, err)
	require.Len(t, props, 2)

	idx, err := e.MoveCategoryProperties(d, c, []int{1}, true)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, idx)

	got, err := e.PropertiesOf(c, d, false)
	require.NoError(t, err)
	assert.Equal(t, []*types.Property{props[1], props[0]}, got)
	assert.Equal(t, []string{props[1].ID, props[0].ID}, d.PropertyRefs)
}

func TestSaveKeepsChangePendingWhenOwnerPersistFails(t *testing.T) {
	pf := newPolicyFixture(t)
	e := pf.engine
	require.NoError(t, e.ChangeCategoryAndDeferPolicyChange(pf.product, pf.limit, "special", -1))
	pf.store.FailPersist(pf.policy, errors.New("disk full"))

	err := e.Save(pf.product)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "", pf.limit.Category)
	ch, ok := e.PendingChange(pf.product, pf.limit)
	require.True(t, ok)
	assert.Equal(t, "special", ch.Category)

	stored, err := pf.store.Load(types.SideConfigured, "Product")
	require.NoError(t, err)
	require.Len(t, stored.PendingChanges, 1)
	assert.Equal(t, pf.limit.ID, stored.PendingChanges[0].PropertyID)

	pf.store.FailPersist(pf.policy, nil)
	require.NoError(t, e.Save(pf.product))
	assert.Equal(t, "special", pf.limit.Category)
	_, ok = e.PendingChange(pf.product, pf.limit)
	assert.False(t, ok)
}
