package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		indices   []int
		up        bool
		want      []string
		wantIndex []int
	}{
		{
			name:      "single up",
			items:     []string{"a", "b", "c"},
			indices:   []int{2},
			up:        true,
			want:      []string{"a", "c", "b"},
			wantIndex: []int{1},
		},
		{
			name:      "block up returns input order",
			items:     []string{"p1", "p2", "p3"},
			indices:   []int{2, 1},
			up:        true,
			want:      []string{"p2", "p3", "p1"},
			wantIndex: []int{1, 0},
		},
		{
			name:      "top is blocked",
			items:     []string{"a", "b", "c"},
			indices:   []int{0},
			up:        true,
			want:      []string{"a", "b", "c"},
			wantIndex: []int{0},
		},
		{
			name:      "blocked item blocks its follower",
			items:     []string{"a", "b", "c", "d"},
			indices:   []int{0, 1, 3},
			up:        true,
			want:      []string{"a", "b", "d", "c"},
			wantIndex: []int{0, 1, 2},
		},
		{
			name:      "block down",
			items:     []string{"a", "b", "c", "d"},
			indices:   []int{0, 1},
			up:        false,
			want:      []string{"c", "a", "b", "d"},
			wantIndex: []int{1, 2},
		},
		{
			name:      "bottom is blocked",
			items:     []string{"a", "b", "c"},
			indices:   []int{1, 2},
			up:        false,
			want:      []string{"a", "b", "c"},
			wantIndex: []int{1, 2},
		},
		{
			name:      "duplicates collapse",
			items:     []string{"a", "b"},
			indices:   []int{1, 1},
			up:        true,
			want:      []string{"b", "a"},
			wantIndex: []int{0, 0},
		},
		{
			name:      "empty selection",
			items:     []string{"a", "b"},
			indices:   nil,
			up:        true,
			want:      []string{"a", "b"},
			wantIndex: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, idx, err := Move(tt.items, tt.indices, tt.up)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func TestMoveDoesNotModifyInput(t *testing.T) {
	items := []string{"a", "b"}
	_, _, err := Move(items, []int{1}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestMoveRejectsOutOfRange(t *testing.T) {
	_, _, err := Move([]string{"a"}, []int{1}, true)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, _, err = Move([]string{"a"}, []int{-1}, false)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
