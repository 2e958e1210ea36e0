package order

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Move shifts the items at indices one step up (towards index 0) or down.
// Indices are processed in the direction of the move, so a contiguous
// selection travels as a block. An item at the boundary, or directly
// behind a selected item that could not move, stays where it is; that is
// the documented limit, not an error.
//
// It returns the reordered copy and, for each entry of indices in the
// order given, the index the item ended up at.
// Returns ErrInvalidArgument if an index is out of range.
func Move[T any](items []T, indices []int, up bool) ([]T, []int, error) {
	out := append([]T(nil), items...)
	for _, i := range indices {
		if i < 0 || i >= len(items) {
			return nil, nil, fmt.Errorf("%w: index %d out of range [0,%d)", types.ErrInvalidArgument, i, len(items))
		}
	}

	unique := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			unique = append(unique, i)
		}
	}
	if up {
		sort.Ints(unique)
	} else {
		sort.Sort(sort.Reverse(sort.IntSlice(unique)))
	}

	step := 1
	if up {
		step = -1
	}
	blocked := make(map[int]bool)
	moved := make(map[int]int, len(unique))
	for _, i := range unique {
		target := i + step
		if target < 0 || target >= len(out) || blocked[target] {
			blocked[i] = true
			moved[i] = i
			continue
		}
		out[i], out[target] = out[target], out[i]
		moved[i] = target
	}

	result := make([]int, len(indices))
	for k, i := range indices {
		result[k] = moved[i]
	}
	return out, result, nil
}
