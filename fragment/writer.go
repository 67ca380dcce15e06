package fragment

import (
	"context"
	"fmt"

	"github.com/arrdb/arrdb/codec"
	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/tile"
	"github.com/arrdb/arrdb/vfs"
)

// attrBuffer accumulates one attribute's cells for the tile currently being
// built, in exactly one of its fixed or var_ forms depending on the
// attribute's declared layout.
type attrBuffer struct {
	attr  schema.Attribute
	fixed *tile.FixedTile
	var_  *tile.VarTile
}

func newAttrBuffer(attr schema.Attribute) *attrBuffer {
	b := &attrBuffer{attr: attr}
	if attr.IsVarLen() {
		b.var_ = tile.NewVarTile()
	} else {
		b.fixed = tile.NewFixedTile(attr.CellByteSize())
	}

	return b
}

func (b *attrBuffer) append(value []byte) error {
	if b.var_ != nil {
		b.var_.Append(value)
		return nil
	}

	return b.fixed.Append(value)
}

func (b *attrBuffer) count() int {
	if b.var_ != nil {
		return b.var_.Count()
	}

	return b.fixed.Count()
}

func (b *attrBuffer) reset() {
	if b.var_ != nil {
		b.var_ = tile.NewVarTile()
	} else {
		b.fixed = tile.NewFixedTile(b.attr.CellByteSize())
	}
}

// Writer builds one new fragment from a stream of cells (spec §4.2). It
// buffers per-attribute tiles in memory, flushing each to its data file as
// it fills, and commits the fragment atomically on Finalize via
// temp-directory rename.
type Writer struct {
	ctx    context.Context
	fs     vfs.FS
	schema *schema.ArraySchema
	codecs *codec.Registry

	arrayDir  string
	finalName string
	tmpDir    string

	buffers map[string]*attrBuffer
	coords  *tile.CoordsTile

	footer      *Footer
	globalMBR   MBR
	tileMBR     MBR
	tileFirst   []int64
	tileLast    []int64
	cellsInTile int
	tileIndex   int

	cellCount int
}

// NewWriter creates a Writer targeting a new fragment under arrayDir,
// identified by the given host/thread/timestamp triplet (spec §3).
func NewWriter(ctx context.Context, fs vfs.FS, arrayDir string, sch *schema.ArraySchema, codecs *codec.Registry, host string, threadID uint64, timestampMs int64) (*Writer, error) {
	name := Name(arrayDir, host, threadID, timestampMs)
	tmpDir := arrayDir + "/__fragments/" + TempName(name)

	if err := fs.CreateDir(ctx, tmpDir); err != nil {
		return nil, fmt.Errorf("fragment: create temp dir: %w", err)
	}

	buffers := make(map[string]*attrBuffer, len(sch.Attributes))
	for _, a := range sch.Attributes {
		if a.Name == format.ReservedCoords {
			continue
		}

		buffers[a.Name] = newAttrBuffer(a)
	}

	var coords *tile.CoordsTile
	if sch.Mode == format.ArraySparse {
		coords = tile.NewCoordsTile(sch.Domain.NDim())
	}

	w := &Writer{
		ctx:       ctx,
		fs:        fs,
		schema:    sch,
		codecs:    codecs,
		arrayDir:  arrayDir,
		finalName: name,
		tmpDir:    tmpDir,
		buffers:   buffers,
		coords:    coords,
		footer:    NewFooter(sch.Mode, sch.Domain.NDim(), sch.AttributeNames()),
	}

	return w, nil
}

// Append buffers one cell's attribute values (already serialized to bytes
// in schema-declared order, excluding __coords) plus its coordinates for a
// sparse array (nil for dense). When the active tile reaches the schema's
// tile capacity, it is flushed automatically.
func (w *Writer) Append(values map[string][]byte, coords []int64) error {
	for _, a := range w.schema.Attributes {
		if a.Name == format.ReservedCoords {
			continue
		}

		v, ok := values[a.Name]
		if !ok {
			return fmt.Errorf("attribute %q: %w", a.Name, errs.ErrMissingBuffer)
		}

		if err := w.buffers[a.Name].append(v); err != nil {
			return err
		}
	}

	if w.schema.Mode == format.ArraySparse {
		if len(coords) != w.schema.Domain.NDim() {
			return fmt.Errorf("fragment: coordinate arity mismatch")
		}

		if err := w.coords.Append(coords); err != nil {
			return err
		}

		w.tileMBR.Expand(coords)
		w.globalMBR.Expand(coords)

		if w.tileFirst == nil {
			w.tileFirst = append([]int64(nil), coords...)
		}

		w.tileLast = append([]int64(nil), coords...)
	}

	w.cellsInTile++
	w.cellCount++

	if uint64(w.cellsInTile) >= w.schema.TileCapacity() {
		return w.flushTile()
	}

	return nil
}

func (w *Writer) attrFileURI(attr string) string {
	if attr == format.ReservedCoords {
		return w.tmpDir + "/__coords.tdb"
	}

	a, _ := w.schema.AttributeByName(attr)
	if a.IsVarLen() {
		return w.tmpDir + "/" + attr + "_var.tdb"
	}

	return w.tmpDir + "/" + attr + ".tdb"
}

func (w *Writer) writeCompressedChunk(uri string, raw []byte, compression format.CompressionType, level int) (offset, size uint64, err error) {
	c, err := w.codecs.Get(compression)
	if err != nil {
		return 0, 0, err
	}

	chunked := codec.NewChunked(c, level, 0)

	compressed, err := chunked.CompressTile(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("fragment: compress tile: %w", err)
	}

	exists, err := w.fs.IsFile(w.ctx, uri)
	if err != nil {
		return 0, 0, err
	}

	var curSize int64
	if exists {
		curSize, err = w.fs.FileSize(w.ctx, uri)
		if err != nil {
			return 0, 0, err
		}
	}

	if err := w.fs.Write(w.ctx, uri, compressed, exists); err != nil {
		return 0, 0, err
	}

	return uint64(curSize), uint64(len(compressed)), nil
}

// flushTile compresses and appends the current in-memory tile for every
// attribute (and coordinates, for sparse arrays) and records the result in
// the footer.
func (w *Writer) flushTile() error {
	if w.cellsInTile == 0 {
		return nil
	}

	for _, a := range w.schema.Attributes {
		if a.Name == format.ReservedCoords {
			continue
		}

		buf := w.buffers[a.Name]

		var raw []byte
		if buf.var_ != nil {
			raw = append(append([]byte(nil), buf.var_.OffsetsBytes()...), buf.var_.Values...)
		} else {
			raw = buf.fixed.Data
		}

		offset, size, err := w.writeCompressedChunk(w.attrFileURI(a.Name), raw, a.CompressionType, a.CompressionLvl)
		if err != nil {
			return err
		}

		w.footer.RecordTile(a.Name, offset, size)

		buf.reset()
	}

	if w.schema.Mode == format.ArraySparse {
		ndim := w.schema.Domain.NDim()
		coordsAttr, _ := w.schema.AttributeByName(format.ReservedCoords)

		// Each dimension is its own chunked sub-stream (spec §4.1): a
		// delta-style codec sees one dimension's homogeneous run at a time
		// instead of NDim interleaved ones, so it compresses coordinate
		// domains far better than a single combined chunk would.
		for d := 0; d < ndim; d++ {
			offset, size, err := w.writeCompressedChunk(w.attrFileURI(format.ReservedCoords), w.coords.DimBytes(d), coordsAttr.CompressionType, coordsAttr.CompressionLvl)
			if err != nil {
				return err
			}

			w.footer.RecordTile(format.ReservedCoords, offset, size)
		}

		w.footer.TileMBRs = append(w.footer.TileMBRs, w.tileMBR)
		w.footer.TileBoundingCoords = append(w.footer.TileBoundingCoords, BoundingCoords{First: w.tileFirst, Last: w.tileLast})

		w.coords = tile.NewCoordsTile(ndim)
		w.tileMBR = MBR{}
		w.tileFirst, w.tileLast = nil, nil
	}

	w.footer.TileCellCounts = append(w.footer.TileCellCounts, uint64(w.cellsInTile))
	w.footer.TileCount++
	w.tileIndex++
	w.cellsInTile = 0

	return nil
}

// Finalize flushes any partial tile, writes the metadata footer, and
// atomically publishes the fragment by renaming its temp directory to its
// final name. An empty write (no cells ever appended) produces no
// fragment: the temp directory is removed and ("", nil) is returned (spec
// §8 invariant 4, idempotent finalize).
func (w *Writer) Finalize() (string, error) {
	if err := w.flushTile(); err != nil {
		_ = w.Abort()
		return "", err
	}

	if w.cellCount == 0 {
		return "", w.Abort()
	}

	if w.schema.Mode == format.ArraySparse {
		w.footer.GlobalMBR = w.globalMBR
	}

	footerURI := w.tmpDir + "/__fragment_metadata.tdb"
	if err := w.fs.Write(w.ctx, footerURI, w.footer.Bytes(), false); err != nil {
		_ = w.Abort()
		return "", err
	}

	// A zero-byte success marker, written only after the footer (spec
	// §4.2): a reader can treat its absence as "this fragment never
	// finished its metadata write" without having to parse the footer at
	// all, and its presence inside tmpDir means it renames into place
	// atomically along with everything else.
	markerURI := w.tmpDir + "/__fragment_metadata.tdb.ok"
	if err := w.fs.Write(w.ctx, markerURI, nil, false); err != nil {
		_ = w.Abort()
		return "", err
	}

	finalDir := w.arrayDir + "/__fragments/" + w.finalName

	if err := w.fs.MoveDir(w.ctx, w.tmpDir, finalDir); err != nil {
		_ = w.Abort()
		return "", err
	}

	return w.finalName, nil
}

// Abort removes the writer's temp directory, leaving no partial fragment
// visible (spec §4.2, §7).
func (w *Writer) Abort() error {
	return w.fs.DeleteDir(w.ctx, w.tmpDir)
}
