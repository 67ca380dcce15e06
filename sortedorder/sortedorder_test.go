package sortedorder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrdb/arrdb/format"
)

func TestReorder_RowMajor(t *testing.T) {
	require := require.New(t)

	coords := [][]int64{{2, 1}, {1, 2}, {1, 1}}
	idx := Reorder(coords, format.LayoutRowMajor)

	got := make([][]int64, len(idx))
	for i, j := range idx {
		got[i] = coords[j]
	}

	require.Equal([][]int64{{1, 1}, {1, 2}, {2, 1}}, got)
}

func TestReorder_ColMajor(t *testing.T) {
	require := require.New(t)

	coords := [][]int64{{2, 1}, {1, 2}, {1, 1}}
	idx := Reorder(coords, format.LayoutColMajor)

	got := make([][]int64, len(idx))
	for i, j := range idx {
		got[i] = coords[j]
	}

	require.Equal([][]int64{{1, 1}, {2, 1}, {1, 2}}, got)
}
