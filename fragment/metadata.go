package fragment

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
)

// FooterVersionMajor is bumped on incompatible footer layout changes;
// readers reject a footer whose major component differs (spec §6.3).
const FooterVersionMajor = 1
const footerVersionMinor = 0
const footerVersionRevision = 0

// MBR is an axis-aligned minimum bounding rectangle over NDim dimensions,
// used both per-tile and as the fragment-wide global MBR (spec §6.3).
type MBR struct {
	Low  []int64
	High []int64
}

// Expand grows m to cover coords, initializing m on its first call.
func (m *MBR) Expand(coords []int64) {
	if m.Low == nil {
		m.Low = append([]int64(nil), coords...)
		m.High = append([]int64(nil), coords...)

		return
	}

	for d, c := range coords {
		if c < m.Low[d] {
			m.Low[d] = c
		}

		if c > m.High[d] {
			m.High[d] = c
		}
	}
}

// Intersects reports whether m and other overlap on every dimension.
func (m MBR) Intersects(other MBR) bool {
	for d := range m.Low {
		if m.High[d] < other.Low[d] || other.High[d] < m.Low[d] {
			return false
		}
	}

	return true
}

// BoundingCoords holds the first and last cell coordinates of a tile in the
// array's global cell order (spec §6.3), distinct from the tile's MBR: it
// lets a reader position a cursor without decompressing the tile.
type BoundingCoords struct {
	First []int64
	Last  []int64
}

// AttributeTiles records, for one attribute, the per-tile byte offset and
// compressed size within that attribute's data file (spec §4.2, §6.3). For
// every attribute except __coords there is exactly one (offset, size) pair
// per tile, at index tileIdx. __coords treats each dimension as its own
// chunked sub-stream (spec §4.1), so its data file holds NDim consecutive
// chunks per tile and its Offsets/Sizes instead hold NDim entries per tile,
// at index tileIdx*NDim+dim — see Footer.CoordsChunk.
type AttributeTiles struct {
	Offsets []uint64
	Sizes   []uint64
}

// Footer is a fragment's binary metadata: everything a reader needs to
// locate and validate tiles without touching the data files (spec §6.3).
type Footer struct {
	VersionMajor, VersionMinor, VersionRevision uint16
	Mode                                        format.ArrayMode
	NDim                                        int
	TileCount                                   uint64

	// AttrOrder fixes attribute iteration order for serialization; Tiles
	// is keyed by attribute name.
	AttrOrder []string
	Tiles     map[string]AttributeTiles

	// TileCellCounts records the cell count of each tile (the last tile of
	// a fragment may be partial); len == TileCount. It lets a reader split
	// a variable-sized attribute's decompressed (offsets, values) stream
	// without re-deriving the count from byte size alone.
	TileCellCounts []uint64

	TileMBRs           []MBR            // sparse only, len == TileCount
	TileBoundingCoords []BoundingCoords // sparse only, len == TileCount
	GlobalMBR          MBR              // sparse only
}

// NewFooter creates an empty footer for the given attribute order.
func NewFooter(mode format.ArrayMode, ndim int, attrOrder []string) *Footer {
	tiles := make(map[string]AttributeTiles, len(attrOrder))
	for _, a := range attrOrder {
		tiles[a] = AttributeTiles{}
	}

	return &Footer{
		VersionMajor:    FooterVersionMajor,
		VersionMinor:    footerVersionMinor,
		VersionRevision: footerVersionRevision,
		Mode:            mode,
		NDim:            ndim,
		AttrOrder:       append([]string(nil), attrOrder...),
		Tiles:           tiles,
	}
}

// RecordTile appends one chunk's offset/size for attr. For every attribute
// but __coords, callers record exactly one chunk per tile; for __coords,
// callers record one chunk per dimension per tile (NDim calls per tile, in
// ascending dimension order), so Tiles["__coords"] ends up with NDim
// entries per tile — see CoordsChunk.
func (f *Footer) RecordTile(attr string, offset, size uint64) {
	at := f.Tiles[attr]
	at.Offsets = append(at.Offsets, offset)
	at.Sizes = append(at.Sizes, size)
	f.Tiles[attr] = at
}

// CoordsChunk returns the offset/size of dimension dim's chunk within tile
// tileIdx's coordinate data, or ok=false if out of range.
func (f *Footer) CoordsChunk(tileIdx, dim int) (offset, size uint64, ok bool) {
	at := f.Tiles[format.ReservedCoords]
	idx := tileIdx*f.NDim + dim

	if idx < 0 || idx >= len(at.Offsets) {
		return 0, 0, false
	}

	return at.Offsets[idx], at.Sizes[idx], true
}

// Bytes serializes the footer: version triplet, mode, attribute count and
// names, per-attribute offset/size vectors, tile count, sparse MBR/bounding
// coordinate arrays and global MBR, then a trailing CRC32 over everything
// preceding it (spec §6.3).
func (f *Footer) Bytes() []byte {
	buf := make([]byte, 0, 256)

	var tmp [8]byte

	putU16 := func(v uint16) {
		binary.LittleEndian.PutUint16(tmp[:2], v)
		buf = append(buf, tmp[:2]...)
	}
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:8], v)
		buf = append(buf, tmp[:8]...)
	}
	putI64 := func(v int64) { putU64(uint64(v)) }
	putString := func(s string) {
		putU64(uint64(len(s)))
		buf = append(buf, s...)
	}

	putU16(f.VersionMajor)
	putU16(f.VersionMinor)
	putU16(f.VersionRevision)
	buf = append(buf, byte(f.Mode))
	putU64(uint64(f.NDim))

	putU64(uint64(len(f.AttrOrder)))

	for _, attr := range f.AttrOrder {
		putString(attr)

		at := f.Tiles[attr]
		putU64(uint64(len(at.Offsets)))

		for _, o := range at.Offsets {
			putU64(o)
		}

		putU64(uint64(len(at.Sizes)))

		for _, s := range at.Sizes {
			putU64(s)
		}
	}

	putU64(f.TileCount)

	putU64(uint64(len(f.TileCellCounts)))

	for _, c := range f.TileCellCounts {
		putU64(c)
	}

	sparse := f.Mode == format.ArraySparse

	var sparseFlag byte
	if sparse {
		sparseFlag = 1
	}

	buf = append(buf, sparseFlag)

	if sparse {
		for _, mbr := range f.TileMBRs {
			for _, v := range mbr.Low {
				putI64(v)
			}

			for _, v := range mbr.High {
				putI64(v)
			}
		}

		for _, bc := range f.TileBoundingCoords {
			for _, v := range bc.First {
				putI64(v)
			}

			for _, v := range bc.Last {
				putI64(v)
			}
		}

		for _, v := range f.GlobalMBR.Low {
			putI64(v)
		}

		for _, v := range f.GlobalMBR.High {
			putI64(v)
		}
	}

	crc := crc32.ChecksumIEEE(buf)
	putU64(uint64(crc))

	return buf
}

// ParseFooter deserializes a footer previously produced by Bytes, validating
// its trailing CRC and rejecting a footer whose major version differs from
// FooterVersionMajor (spec §6.3, §7).
func ParseFooter(data []byte) (*Footer, error) {
	if len(data) < 8 {
		return nil, errs.ErrInvalidFooterCRC
	}

	body, crcBytes := data[:len(data)-8], data[len(data)-8:]

	wantCRC := binary.LittleEndian.Uint64(crcBytes)
	gotCRC := uint64(crc32.ChecksumIEEE(body))

	if wantCRC != gotCRC {
		return nil, errs.ErrInvalidFooterCRC
	}

	r := &reader{buf: body}

	f := &Footer{}
	f.VersionMajor = r.u16()
	f.VersionMinor = r.u16()
	f.VersionRevision = r.u16()

	if f.VersionMajor != FooterVersionMajor {
		return nil, errs.ErrInvalidFooterVersion
	}

	f.Mode = format.ArrayMode(r.byte())
	f.NDim = int(r.u64())

	nAttr := int(r.u64())
	f.AttrOrder = make([]string, nAttr)
	f.Tiles = make(map[string]AttributeTiles, nAttr)

	for i := 0; i < nAttr; i++ {
		name := r.string()
		f.AttrOrder[i] = name

		var at AttributeTiles

		nOff := int(r.u64())
		at.Offsets = make([]uint64, nOff)

		for j := range at.Offsets {
			at.Offsets[j] = r.u64()
		}

		nSize := int(r.u64())
		at.Sizes = make([]uint64, nSize)

		for j := range at.Sizes {
			at.Sizes[j] = r.u64()
		}

		f.Tiles[name] = at
	}

	f.TileCount = r.u64()

	nCounts := int(r.u64())
	f.TileCellCounts = make([]uint64, nCounts)

	for i := range f.TileCellCounts {
		f.TileCellCounts[i] = r.u64()
	}

	sparse := r.byte() == 1
	if sparse {
		f.TileMBRs = make([]MBR, f.TileCount)
		for i := range f.TileMBRs {
			f.TileMBRs[i].Low = r.i64s(f.NDim)
			f.TileMBRs[i].High = r.i64s(f.NDim)
		}

		f.TileBoundingCoords = make([]BoundingCoords, f.TileCount)
		for i := range f.TileBoundingCoords {
			f.TileBoundingCoords[i].First = r.i64s(f.NDim)
			f.TileBoundingCoords[i].Last = r.i64s(f.NDim)
		}

		f.GlobalMBR.Low = r.i64s(f.NDim)
		f.GlobalMBR.High = r.i64s(f.NDim)
	}

	if r.err != nil {
		return nil, r.err
	}

	return f, nil
}

// reader is a tiny cursor over a byte slice used only by ParseFooter; it
// mirrors the section package's header-parsing style without pulling in a
// general-purpose binary reader dependency the rest of the module doesn't
// otherwise need.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil || r.pos+n > len(r.buf) {
		if r.err == nil {
			r.err = errs.ErrInvalidFooterCRC
		}

		return false
	}

	return true
}

func (r *reader) byte() byte {
	if !r.need(1) {
		return 0
	}

	b := r.buf[r.pos]
	r.pos++

	return b
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}

	v := binary.LittleEndian.Uint16(r.buf[r.pos : r.pos+2])
	r.pos += 2

	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}

	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8

	return v
}

func (r *reader) string() string {
	n := int(r.u64())
	if !r.need(n) {
		return ""
	}

	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n

	return s
}

func (r *reader) i64s(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(r.u64())
	}

	return out
}
