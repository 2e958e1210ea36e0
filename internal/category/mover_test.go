package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/internal/testutil"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func sixCategories(f *testutil.Fixture) (*types.TypeNode, []*types.Category) {
	a := f.Configured("A", "", "")
	cats := []*types.Category{
		testutil.Category(a, "cat1", types.PositionLeft),
		testutil.Category(a, "cat2", types.PositionRight),
		testutil.Category(a, "cat3", types.PositionRight),
		testutil.Category(a, "cat4", types.PositionLeft),
		testutil.Category(a, "cat5", types.PositionLeft),
		testutil.Category(a, "cat6", types.PositionRight),
	}
	return a, cats
}

func TestMoveCategoriesStaysWithinPosition(t *testing.T) {
	f := testutil.NewFixture()
	a, cats := sixCategories(f)

	moved, err := MoveCategories(a, []*types.Category{cats[1], cats[3]}, true)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t,
		[]string{"cat4", "cat2", "cat3", "cat1", "cat5", "cat6"},
		testutil.CategoryNames(a.Categories))
}

func TestMoveCategoriesDown(t *testing.T) {
	f := testutil.NewFixture()
	a, cats := sixCategories(f)

	moved, err := MoveCategories(a, []*types.Category{cats[2]}, false)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t,
		[]string{"cat1", "cat2", "cat6", "cat4", "cat5", "cat3"},
		testutil.CategoryNames(a.Categories))
}

func TestMoveCategoriesAtLimit(t *testing.T) {
	f := testutil.NewFixture()
	a, cats := sixCategories(f)

	moved, err := MoveCategories(a, []*types.Category{cats[0], cats[1]}, true)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t,
		[]string{"cat1", "cat2", "cat3", "cat4", "cat5", "cat6"},
		testutil.CategoryNames(a.Categories))
}

func TestMoveCategoriesRejectsForeignCategory(t *testing.T) {
	f := testutil.NewFixture()
	a, cats := sixCategories(f)
	b := f.Configured("B", "A", "")
	foreign := testutil.Category(b, "foreign", types.PositionLeft)

	_, err := MoveCategories(b, []*types.Category{cats[0]}, true)
	assert.ErrorIs(t, err, types.ErrNotOwned)

	_, err = MoveCategories(a, []*types.Category{foreign}, true)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestDisplayOrder(t *testing.T) {
	f := testutil.NewFixture()
	sixCategories(f)
	b := f.Configured("B", "A", "")
	testutil.Category(b, "sub", types.PositionLeft)

	as := newAssigner(f, nil)
	assert.Equal(t,
		[]string{"cat1", "cat4", "cat5", "sub", "cat2", "cat3", "cat6"},
		testutil.CategoryNames(as.DisplayOrder(b, types.DisplayLeftFirst)))
	assert.Equal(t,
		[]string{"cat2", "cat3", "cat6", "cat1", "cat4", "cat5", "sub"},
		testutil.CategoryNames(as.DisplayOrder(b, types.DisplayRightFirst)))
}
