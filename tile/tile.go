// Package tile implements the tile container described in spec §3: a
// contiguous run of up to Capacity cells, stored and (de)compressed
// independently. Fixed-size attributes use FixedTile; variable-sized
// attributes use VarTile (parallel offsets + values streams); sparse
// coordinates use CoordsTile, which keeps one homogeneous byte stream per
// dimension so a delta-style codec sees a uniform run (spec §4.1).
package tile

import (
	"encoding/binary"

	"github.com/arrdb/arrdb/errs"
)

// FixedTile holds up to Capacity fixed-size cells as one flat byte buffer.
type FixedTile struct {
	Data     []byte
	CellSize int
}

// NewFixedTile creates an empty FixedTile for cells of the given byte size.
func NewFixedTile(cellSize int) *FixedTile {
	return &FixedTile{CellSize: cellSize}
}

// Count returns the number of cells currently stored.
func (t *FixedTile) Count() int {
	if t.CellSize == 0 {
		return 0
	}

	return len(t.Data) / t.CellSize
}

// Append adds one cell's bytes. cell must be exactly CellSize bytes.
func (t *FixedTile) Append(cell []byte) error {
	if len(cell) != t.CellSize {
		return errs.ErrTileCapacityExceeded
	}

	t.Data = append(t.Data, cell...)

	return nil
}

// CellAt returns the byte slice for cell i without copying.
func (t *FixedTile) CellAt(i int) []byte {
	return t.Data[i*t.CellSize : (i+1)*t.CellSize]
}

// VarTile holds up to Capacity variable-sized cells: C fixed-width uint64
// offsets into a concatenated values stream (spec §3 Tile).
type VarTile struct {
	Offsets []uint64
	Values  []byte
}

// NewVarTile creates an empty VarTile.
func NewVarTile() *VarTile {
	return &VarTile{}
}

// Count returns the number of cells currently stored.
func (t *VarTile) Count() int {
	return len(t.Offsets)
}

// Append adds one variable-length cell's raw bytes.
func (t *VarTile) Append(value []byte) {
	t.Offsets = append(t.Offsets, uint64(len(t.Values)))
	t.Values = append(t.Values, value...)
}

// ValueAt returns the byte slice for cell i without copying.
func (t *VarTile) ValueAt(i int) []byte {
	start := t.Offsets[i]

	var end uint64
	if i+1 < len(t.Offsets) {
		end = t.Offsets[i+1]
	} else {
		end = uint64(len(t.Values))
	}

	return t.Values[start:end]
}

// OffsetsBytes serializes the offsets stream as C little-endian uint64s.
func (t *VarTile) OffsetsBytes() []byte {
	out := make([]byte, len(t.Offsets)*8)
	for i, o := range t.Offsets {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], o)
	}

	return out
}

// ParseVarTileOffsets reconstructs the Offsets slice from its serialized
// bytes (the reader's counterpart to OffsetsBytes).
func ParseVarTileOffsets(data []byte) ([]uint64, error) {
	if len(data)%8 != 0 {
		return nil, errs.ErrTileCorrupt
	}

	out := make([]uint64, len(data)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(data[i*8 : i*8+8])
	}

	return out, nil
}

// CoordsTile holds the coordinates of up to Capacity sparse cells, one
// homogeneous byte sub-stream per dimension so each dimension compresses
// as a run of similarly-distributed values (spec §4.1).
type CoordsTile struct {
	NDim int
	dims [][]int64 // dims[d] holds the d-th coordinate of every cell
}

// NewCoordsTile creates an empty CoordsTile for ndim dimensions.
func NewCoordsTile(ndim int) *CoordsTile {
	dims := make([][]int64, ndim)
	return &CoordsTile{NDim: ndim, dims: dims}
}

// Count returns the number of coordinate tuples stored.
func (t *CoordsTile) Count() int {
	if t.NDim == 0 {
		return 0
	}

	return len(t.dims[0])
}

// Append adds one coordinate tuple. coords must have NDim entries.
func (t *CoordsTile) Append(coords []int64) error {
	if len(coords) != t.NDim {
		return errs.ErrTileCapacityExceeded
	}

	for d, v := range coords {
		t.dims[d] = append(t.dims[d], v)
	}

	return nil
}

// At returns the coordinate tuple for cell i.
func (t *CoordsTile) At(i int) []int64 {
	out := make([]int64, t.NDim)
	for d := 0; d < t.NDim; d++ {
		out[d] = t.dims[d][i]
	}

	return out
}

// DimBytes serializes dimension d's coordinate stream as little-endian
// int64s, the unit the chunked codec pipeline compresses independently.
func (t *CoordsTile) DimBytes(d int) []byte {
	vals := t.dims[d]
	out := make([]byte, len(vals)*8)

	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], uint64(v))
	}

	return out
}

// SetDimBytes populates dimension d's coordinate stream by parsing
// little-endian int64s, the reader's counterpart to DimBytes.
func (t *CoordsTile) SetDimBytes(d int, data []byte) error {
	if len(data)%8 != 0 {
		return errs.ErrTileCorrupt
	}

	vals := make([]int64, len(data)/8)
	for i := range vals {
		vals[i] = int64(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}

	t.dims[d] = vals

	return nil
}
