package pool

import "sync"

// Slice pools for typed coordinate and offset slices. The read path uses
// GetInt64Slice as scratch space when decoding sparse coordinate tiles;
// nothing in the module calls GetUint64Slice.
var (
	uint64SlicePool = sync.Pool{New: func() any { return &[]uint64{} }}
	int64SlicePool  = sync.Pool{New: func() any { return &[]int64{} }}
)

// GetUint64Slice retrieves a []uint64 of exactly size length from the pool.
// The returned cleanup function must be called (typically via defer) once
// the caller is done with the slice.
func GetUint64Slice(size int) ([]uint64, func()) {
	ptr, _ := uint64SlicePool.Get().(*[]uint64)
	s := (*ptr)[:0]

	if cap(s) < size {
		s = make([]uint64, size)
	} else {
		s = s[:size]
	}
	*ptr = s

	return s, func() { uint64SlicePool.Put(ptr) }
}

// GetInt64Slice retrieves a []int64 of exactly size length from the pool.
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	s := (*ptr)[:0]

	if cap(s) < size {
		s = make([]int64, size)
	} else {
		s = s[:size]
	}
	*ptr = s

	return s, func() { int64SlicePool.Put(ptr) }
}
