// Package schema models the array/attribute/dimension metadata from the
// engine's data model: cell size, variable-length flags, tile/cell order,
// coordinate type, and domain/tile extents.
package schema

import (
	"fmt"
	"math"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
)

// Dimension is one axis of an array's domain: a closed inclusive range
// [Low, High] of the array's coordinate type, with an optional tile
// extent that subdivides the domain for dense arrays.
type Dimension struct {
	Name string
	// Low and High are the inclusive domain bounds. They are compared as
	// plain signed int64 values whatever the domain's CoordType.
	Low, High int64
	// TileExtent is the per-dimension tile size; 0 means "no tiling along
	// this dimension" (the whole extent is one tile run). It drives the
	// tile grid of the global cell order for dense and sparse arrays alike.
	TileExtent int64
}

// Extent returns High-Low+1, the number of coordinate points along this
// dimension.
func (d Dimension) Extent() int64 {
	return d.High - d.Low + 1
}

// Contains reports whether v lies within [Low, High].
func (d Dimension) Contains(v int64) bool {
	return v >= d.Low && v <= d.High
}

// TileCount returns how many tiles this dimension is divided into for a
// dense array, given its TileExtent.
func (d Dimension) TileCount() int64 {
	if d.TileExtent <= 0 {
		return 1
	}

	return (d.Extent() + d.TileExtent - 1) / d.TileExtent
}

// Domain is the ordered list of dimensions defining an array's coordinate
// space (§3: "a per-dimension closed domain").
type Domain struct {
	CoordType  format.CellType
	Dimensions []Dimension
}

// NDim returns the dimension count D.
func (d Domain) NDim() int {
	return len(d.Dimensions)
}

// Validate checks the domain's internal consistency: at least one
// dimension, a valid integer/float coordinate type, and non-inverted
// per-dimension bounds.
func (d Domain) Validate() error {
	if len(d.Dimensions) == 0 {
		return errs.ErrDimensionCountZero
	}

	if !d.CoordType.IsInteger() && !d.CoordType.IsFloat() {
		return errs.ErrInvalidCellType
	}

	for _, dim := range d.Dimensions {
		if dim.Low > dim.High {
			return fmt.Errorf("dimension %q: %w", dim.Name, errs.ErrDomainInverted)
		}

		if dim.TileExtent < 0 {
			return fmt.Errorf("dimension %q: %w", dim.Name, errs.ErrInvalidTileExtent)
		}
	}

	return nil
}

// Contains reports whether the coordinate tuple coords lies inside the
// domain on every axis.
func (d Domain) Contains(coords []int64) bool {
	if len(coords) != len(d.Dimensions) {
		return false
	}

	for i, dim := range d.Dimensions {
		if !dim.Contains(coords[i]) {
			return false
		}
	}

	return true
}

// EmptyValue returns the schema's type-max "empty cell" sentinel for a
// dense array, per spec §9. Clients must never write this value as a
// meaningful datum.
func EmptyValue(t format.CellType) uint64 {
	switch t {
	case format.CellTypeInt8:
		return uint64(uint8(math.MaxInt8))
	case format.CellTypeInt16:
		return uint64(uint16(math.MaxInt16))
	case format.CellTypeInt32:
		return uint64(uint32(math.MaxInt32))
	case format.CellTypeInt64:
		return uint64(math.MaxInt64)
	case format.CellTypeUint8:
		return math.MaxUint8
	case format.CellTypeUint16:
		return math.MaxUint16
	case format.CellTypeUint32:
		return math.MaxUint32
	case format.CellTypeUint64:
		return math.MaxUint64
	case format.CellTypeFloat32:
		return uint64(math.Float32bits(float32(math.NaN())))
	case format.CellTypeFloat64:
		return math.Float64bits(math.NaN())
	default:
		return 0
	}
}
