package schema

import "github.com/arrdb/arrdb/format"

// CellRank is the composite sort key that realizes the schema's "global
// cell order" (spec Glossary): cells are ordered first by the tile they
// fall in (ranked according to TileOrder over per-dimension tile indices),
// then by position within that tile (ranked according to CellOrder over
// per-dimension intra-tile offsets). Comparing two CellRank values with
// Less reproduces the total order the read/write query state machines
// must honor.
type CellRank struct {
	Tile uint64
	Cell uint64
}

// Less reports whether r sorts before other in global cell order.
func (r CellRank) Less(other CellRank) bool {
	if r.Tile != other.Tile {
		return r.Tile < other.Tile
	}

	return r.Cell < other.Cell
}

// Equal reports whether r and other denote the same logical cell slot.
func (r CellRank) Equal(other CellRank) bool {
	return r.Tile == other.Tile && r.Cell == other.Cell
}

func mixedRadixRank(indices, extents []int64, colMajor bool) uint64 {
	var rank uint64

	if colMajor {
		for i := len(indices) - 1; i >= 0; i-- {
			rank = rank*uint64(extents[i]) + uint64(indices[i])
		}

		return rank
	}

	for i := 0; i < len(indices); i++ {
		rank = rank*uint64(extents[i]) + uint64(indices[i])
	}

	return rank
}

// tileIndices returns, per dimension, the tile index that coords[i]
// belongs to, and the per-dimension tile-count extents used to rank it.
func (s *ArraySchema) tileIndices(coords []int64) (indices, extents []int64) {
	indices = make([]int64, len(coords))
	extents = make([]int64, len(coords))

	for i, dim := range s.Domain.Dimensions {
		tileExtent := dim.TileExtent
		if tileExtent <= 0 {
			tileExtent = dim.Extent()
		}

		indices[i] = (coords[i] - dim.Low) / tileExtent
		extents[i] = dim.TileCount()
	}

	return indices, extents
}

// cellIndicesInTile returns, per dimension, the coordinate's offset within
// its own tile, and that tile's per-dimension extents (clipped at the
// domain boundary for an edge tile).
func (s *ArraySchema) cellIndicesInTile(coords []int64) (indices, extents []int64) {
	indices = make([]int64, len(coords))
	extents = make([]int64, len(coords))

	for i, dim := range s.Domain.Dimensions {
		tileExtent := dim.TileExtent
		if tileExtent <= 0 {
			tileExtent = dim.Extent()
		}

		tileIdx := (coords[i] - dim.Low) / tileExtent
		tileStart := dim.Low + tileIdx*tileExtent
		tileEnd := tileStart + tileExtent - 1
		if tileEnd > dim.High {
			tileEnd = dim.High
		}

		indices[i] = coords[i] - tileStart
		extents[i] = tileEnd - tileStart + 1
	}

	return indices, extents
}

// GlobalCellOrder computes the CellRank of the coordinate tuple coords
// under this schema's TileOrder/CellOrder. coords must have NDim() entries
// and lie within the domain.
func (s *ArraySchema) GlobalCellOrder(coords []int64) CellRank {
	tileIdx, tileExtents := s.tileIndices(coords)
	cellIdx, cellExtents := s.cellIndicesInTile(coords)

	tileRank := mixedRadixRank(tileIdx, tileExtents, s.TileOrder == format.TileOrderColMajor)
	cellRank := mixedRadixRank(cellIdx, cellExtents, s.CellOrder == format.CellOrderColMajor)

	return CellRank{Tile: tileRank, Cell: cellRank}
}
