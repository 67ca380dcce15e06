// Package sortedorder adapts between the engine's internal global storage
// order and the row-major/column-major layouts a query's caller may
// request (spec §4.4 "Sorted-read adapter", §4.5 WRITE_SORTED_ROW/COL).
// Global order groups cells by tile first; row-major/column-major order a
// subarray's coordinates directly, ignoring tile boundaries, so a
// materialized result (or a sorted write batch) needs its own pass.
package sortedorder

import (
	"sort"

	"github.com/arrdb/arrdb/format"
)

// RowMajorLess reports whether a sorts before b in row-major order: the
// last dimension varies fastest.
func RowMajorLess(a, b []int64) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return a[len(a)-1] < b[len(b)-1]
}

// ColMajorLess reports whether a sorts before b in column-major order: the
// first dimension varies fastest.
func ColMajorLess(a, b []int64) bool {
	for i := len(a) - 1; i > 0; i-- {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return a[0] < b[0]
}

// Less returns the comparator for layout, defaulting to row-major for any
// layout other than column-major (global/unordered callers sort by the
// schema's own global cell order instead and never reach here).
func Less(layout format.Layout) func(a, b []int64) bool {
	if layout == format.LayoutColMajor {
		return ColMajorLess
	}

	return RowMajorLess
}

// Reorder returns a stable permutation of coords' indices in the order
// layout requests. Callers apply the returned permutation to their own
// parallel per-attribute data, since sortedorder has no notion of cell
// values, only coordinates.
func Reorder(coords [][]int64, layout format.Layout) []int {
	idx := make([]int, len(coords))
	for i := range idx {
		idx[i] = i
	}

	less := Less(layout)

	sort.SliceStable(idx, func(i, j int) bool {
		return less(coords[idx[i]], coords[idx[j]])
	})

	return idx
}
