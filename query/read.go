package query

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/fragment"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/internal/pool"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/sortedorder"
	"github.com/arrdb/arrdb/storagemgr"
)

// mergedCell is one emitted cell's provenance: which fragment, tile, and
// intra-tile position supplies its attribute values. A nil reader means
// "no fragment wrote this cell" (dense empty-sentinel fill, spec §9).
type mergedCell struct {
	coords  []int64
	reader  *fragment.Reader
	tileIdx int
	cellPos int
}

// readState is the read query's resumable cursor: the fully merged,
// ordered cell sequence and how many cells have been emitted so far across
// Submit calls (spec §4.4 "suspension points").
type readState struct {
	cells       []mergedCell
	cursor      int
	fragReaders []*fragment.Reader
}

// NewReadQuery initializes a read query (spec §4.4): it snapshots the
// array's currently visible fragments, computes the candidate cell set
// intersecting subarray across every fragment, resolves inter-fragment
// duplicate coordinates (latest fragment wins), and orders the result
// according to layout. The merge is computed eagerly at Init rather than
// incrementally tile-by-tile; this trades streaming memory for a much
// simpler, still-correct implementation (see design notes).
func NewReadQuery(ctx context.Context, mgr *storagemgr.Manager, arrayURI string, subarray []Range, attrs []string, layout format.Layout, buffers Buffers) (*Query, error) {
	sch, err := mgr.OpenArray(ctx, arrayURI)
	if err != nil {
		return nil, err
	}

	q := &Query{
		ctx:      ctx,
		mgr:      mgr,
		ArrayURI: arrayURI,
		Schema:   sch,
		Subarray: subarray,
		Attrs:    attrs,
		Layout:   layout,
		Buffers:  buffers,
	}

	if len(q.Subarray) == 0 {
		q.Subarray = fullDomainSubarray(sch)
	}

	if err := q.validateCommon(); err != nil {
		return nil, err
	}

	wantCoords := false

	for _, a := range attrs {
		if a == format.ReservedCoords {
			wantCoords = true
		}
	}

	if wantCoords && buffers.Coords == nil {
		return nil, errs.ErrMissingCoordsBuffer
	}

	names := mgr.VisibleFragments(arrayURI)

	readers := make([]*fragment.Reader, len(names))

	for i, name := range names {
		r, err := mgr.OpenFragment(ctx, arrayURI, name)
		if err != nil {
			q.Status = format.QueryStatusFailed
			return nil, err
		}

		readers[i] = r
	}

	byCoords := make(map[string]mergedCell)

	if sch.Mode == format.ArraySparse {
		for _, r := range readers {
			if err := collectSparseCandidates(r, q.Subarray, byCoords); err != nil {
				q.Status = format.QueryStatusFailed
				return nil, err
			}
		}
	} else {
		collectDenseCandidates(sch, readers, q.Subarray, byCoords)
	}

	cells := make([]mergedCell, 0, len(byCoords))
	for _, c := range byCoords {
		cells = append(cells, c)
	}

	sortMergedCells(cells, sch, layout)

	q.read = &readState{cells: cells, fragReaders: readers}
	q.Status = format.QueryStatusInProgress

	return q, nil
}

func coordKey(coords []int64) string {
	return fmt.Sprint(coords)
}

// collectSparseCandidates decodes fragment r's coordinate tiles, keeping
// only cells inside subarray, and records them in byCoords keyed by
// coordinate tuple — a later call (a newer fragment) silently overwrites
// an earlier one, realizing "latest fragment wins" (spec §4.4).
func collectSparseCandidates(r *fragment.Reader, subarray []Range, byCoords map[string]mergedCell) error {
	ndim := r.Footer.NDim

	for t := 0; t < r.TileCount(); t++ {
		mbr := r.TileMBR(t)
		if !mbrIntersectsSubarray(mbr.Low, mbr.High, subarray) {
			continue
		}

		raw, err := r.ReadTile(format.ReservedCoords, t)
		if err != nil {
			return err
		}

		count := int(r.Footer.TileCellCounts[t])
		dimLen := count * 8

		scratch, release := pool.GetInt64Slice(ndim)

		for j := 0; j < count; j++ {
			for d := 0; d < ndim; d++ {
				off := d*dimLen + j*8
				scratch[d] = int64(binary.LittleEndian.Uint64(raw[off : off+8]))
			}

			if !containsCoords(subarray, scratch) {
				continue
			}

			coords := append([]int64(nil), scratch...)
			byCoords[coordKey(coords)] = mergedCell{coords: coords, reader: r, tileIdx: t, cellPos: j}
		}

		release()
	}

	return nil
}

// collectDenseCandidates enumerates every coordinate in subarray and
// assigns it to the latest fragment that covers it. Dense fragments in
// this implementation always cover the array's full domain (write queries
// only support full-domain dense writes), so "covers" reduces to "this
// fragment's tile count includes the coordinate's computed tile rank".
func collectDenseCandidates(sch *schema.ArraySchema, readers []*fragment.Reader, subarray []Range, byCoords map[string]mergedCell) {
	ndim := sch.Domain.NDim()
	coords := make([]int64, ndim)

	var recurse func(d int)

	recurse = func(d int) {
		if d == ndim {
			rank := sch.GlobalCellOrder(coords)
			tileIdx := int(rank.Tile)
			cellPos := int(rank.Cell)

			for i := len(readers) - 1; i >= 0; i-- {
				r := readers[i]
				if tileIdx < r.TileCount() {
					cp := append([]int64(nil), coords...)
					byCoords[coordKey(cp)] = mergedCell{coords: cp, reader: r, tileIdx: tileIdx, cellPos: cellPos}

					return
				}
			}

			cp := append([]int64(nil), coords...)
			byCoords[coordKey(cp)] = mergedCell{coords: cp, reader: nil}

			return
		}

		for v := subarray[d].Low; v <= subarray[d].High; v++ {
			coords[d] = v
			recurse(d + 1)
		}
	}

	recurse(0)
}

// sortMergedCells orders cells per layout: global order for Global and
// Unordered (no physical reordering needed), row-/column-major via the
// sortedorder adapter otherwise.
func sortMergedCells(cells []mergedCell, sch *schema.ArraySchema, layout format.Layout) {
	switch layout {
	case format.LayoutRowMajor, format.LayoutColMajor:
		coordsOnly := make([][]int64, len(cells))
		for i, c := range cells {
			coordsOnly[i] = c.coords
		}

		idx := sortedorder.Reorder(coordsOnly, layout)

		reordered := make([]mergedCell, len(cells))
		for i, j := range idx {
			reordered[i] = cells[j]
		}

		copy(cells, reordered)
	default:
		sort.Slice(cells, func(i, j int) bool {
			return sch.GlobalCellOrder(cells[i].coords).Less(sch.GlobalCellOrder(cells[j].coords))
		})
	}
}

// Submit drives the read state machine, filling every selected buffer from
// the saved cursor until a buffer would overflow (status becomes
// OVERFLOWED) or every merged cell has been emitted (status becomes
// COMPLETED). Between calls the caller may resize buffers and resubmit;
// the cursor resumes exactly where it left off (spec §4.4, §8 invariant 3).
func (q *Query) Submit() error {
	if q.read == nil {
		return fmt.Errorf("query: not a read query")
	}

	if q.Status == format.QueryStatusFailed {
		return errs.ErrQueryFailed
	}

	if q.Status == format.QueryStatusCompleted {
		return errs.ErrQueryAlreadyFinalized
	}

	rs := q.read

	for _, b := range q.Buffers.Fixed {
		b.Used = 0
	}

	for _, vb := range q.Buffers.Var {
		vb.Offsets.Used = 0
		vb.Values.Used = 0
	}

	if q.Buffers.Coords != nil {
		q.Buffers.Coords.Used = 0
	}

	for rs.cursor < len(rs.cells) {
		cell := rs.cells[rs.cursor]

		if q.cellFits(cell) {
			if err := q.emitCell(cell); err != nil {
				q.Status = format.QueryStatusFailed
				return err
			}

			rs.cursor++

			continue
		}

		q.Status = format.QueryStatusOverflowed

		return nil
	}

	q.Status = format.QueryStatusCompleted

	return nil
}

// cellFits reports whether every selected buffer has room for one more
// cell of this attribute set without decompressing anything.
func (q *Query) cellFits(cell mergedCell) bool {
	ndim := q.Schema.Domain.NDim()

	if q.Buffers.Coords != nil && q.Buffers.Coords.Remaining() < ndim*8 {
		return false
	}

	for _, name := range q.Attrs {
		if name == format.ReservedCoords {
			continue
		}

		a, _ := q.Schema.AttributeByName(name)

		if a.IsVarLen() {
			vb := q.Buffers.Var[name]
			if vb.Offsets.Remaining() < 8 {
				return false
			}
			// Values capacity is checked lazily at emit time since the
			// cell's exact byte length isn't known without decompressing.
			continue
		}

		b := q.Buffers.Fixed[name]
		if b.Remaining() < a.CellByteSize() {
			return false
		}
	}

	return true
}

func (q *Query) emitCell(cell mergedCell) error {
	if q.Buffers.Coords != nil {
		cb := q.Buffers.Coords
		for _, v := range cell.coords {
			binary.LittleEndian.PutUint64(cb.Data[cb.Used:cb.Used+8], uint64(v))
			cb.Used += 8
		}
	}

	for _, name := range q.Attrs {
		if name == format.ReservedCoords {
			continue
		}

		a, _ := q.Schema.AttributeByName(name)

		value, err := q.readAttrValue(cell, a)
		if err != nil {
			return err
		}

		if a.IsVarLen() {
			vb := q.Buffers.Var[name]
			if vb.Values.Remaining() < len(value) {
				return errs.ErrQueryFailed
			}

			binary.LittleEndian.PutUint64(vb.Offsets.Data[vb.Offsets.Used:vb.Offsets.Used+8], uint64(vb.Values.Used))
			vb.Offsets.Used += 8

			copy(vb.Values.Data[vb.Values.Used:], value)
			vb.Values.Used += len(value)
		} else {
			b := q.Buffers.Fixed[name]
			copy(b.Data[b.Used:], value)
			b.Used += len(value)
		}
	}

	return nil
}

// readAttrValue decompresses the owning tile (served through the shared
// cache) and extracts the bytes for one cell, or the schema's typed empty
// sentinel if the cell has no owning fragment (dense miss, spec §9).
func (q *Query) readAttrValue(cell mergedCell, a schema.Attribute) ([]byte, error) {
	if cell.reader == nil {
		return denseEmptyValue(a), nil
	}

	raw, err := cell.reader.ReadTile(a.Name, cell.tileIdx)
	if err != nil {
		return nil, err
	}

	if a.IsVarLen() {
		count := int(cell.reader.Footer.TileCellCounts[cell.tileIdx])
		offBytes := raw[:count*8]

		offsets := make([]uint64, count)
		for i := range offsets {
			offsets[i] = binary.LittleEndian.Uint64(offBytes[i*8 : i*8+8])
		}

		values := raw[count*8:]

		start := offsets[cell.cellPos]

		var end uint64
		if cell.cellPos+1 < count {
			end = offsets[cell.cellPos+1]
		} else {
			end = uint64(len(values))
		}

		return values[start:end], nil
	}

	size := a.CellByteSize()

	return raw[cell.cellPos*size : (cell.cellPos+1)*size], nil
}

func denseEmptyValue(a schema.Attribute) []byte {
	size := a.Type.ByteWidth()
	if size == 0 {
		size = 8
	}

	out := make([]byte, size)
	v := schema.EmptyValue(a.Type)

	switch size {
	case 1:
		out[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(out, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(out, uint32(v))
	default:
		binary.LittleEndian.PutUint64(out, v)
	}

	return out
}
