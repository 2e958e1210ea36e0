package category

import (
	"github.com/mesh-intelligence/prodmodel/internal/order"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// MoveCategories moves cats one step up or down within context's category
// list. Categories only move among those with the same Position; the
// slots each position group occupies in the list are preserved.
// It reports whether any category changed place.
// Returns ErrNotOwned if a category does not belong to context.
func MoveCategories(context *types.TypeNode, cats []*types.Category, up bool) (bool, error) {
	for _, c := range cats {
		if !context.OwnsCategory(c) {
			return false, types.NotOwnedError("category", c.Name, context.Name)
		}
	}

	moved := false
	for _, pos := range []types.Position{types.PositionLeft, types.PositionRight} {
		var slots []int
		var group []*types.Category
		var selected []int
		for i, c := range context.Categories {
			if c.Position != pos {
				continue
			}
			for _, s := range cats {
				if s == c {
					selected = append(selected, len(group))
					break
				}
			}
			slots = append(slots, i)
			group = append(group, c)
		}
		if len(selected) == 0 {
			continue
		}
		reordered, idx, err := order.Move(group, selected, up)
		if err != nil {
			return false, err
		}
		for k := range selected {
			if idx[k] != selected[k] {
				moved = true
			}
		}
		for k, slot := range slots {
			context.Categories[slot] = reordered[k]
		}
	}
	return moved, nil
}

// DisplayOrder returns the categories of context's hierarchy grouped by
// position: the first position's categories in hierarchy order, then the
// other's.
func (a *Assigner) DisplayOrder(context *types.TypeNode, display types.DisplayOrder) []*types.Category {
	first, second := types.PositionLeft, types.PositionRight
	if display == types.DisplayRightFirst {
		first, second = second, first
	}
	all := a.Categories(context, true)
	out := make([]*types.Category, 0, len(all))
	for _, pos := range []types.Position{first, second} {
		for _, c := range all {
			if c.Position == pos {
				out = append(out, c)
			}
		}
	}
	return out
}
