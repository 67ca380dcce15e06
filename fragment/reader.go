package fragment

import (
	"context"
	"fmt"

	"github.com/arrdb/arrdb/cache"
	"github.com/arrdb/arrdb/codec"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/vfs"
)

// Reader exposes random read access to one committed fragment's tiles
// (spec §4.3): it opens the attribute data files lazily and serves
// repeated tile reads through a shared tile cache.
type Reader struct {
	ctx    context.Context
	fs     vfs.FS
	schema *schema.ArraySchema
	codecs *codec.Registry
	tcache *cache.TileCache

	ID  string // fragment name, also the cache key's FragmentID
	Dir string
	Footer *Footer
}

// Open loads a committed fragment's metadata footer and returns a Reader
// for it. tcache may be nil, in which case every ReadTile call decompresses
// fresh.
func Open(ctx context.Context, fs vfs.FS, arrayDir, fragmentName string, sch *schema.ArraySchema, codecs *codec.Registry, tcache *cache.TileCache) (*Reader, error) {
	dir := arrayDir + "/__fragments/" + fragmentName
	metaURI := dir + "/__fragment_metadata.tdb"

	size, err := fs.FileSize(ctx, metaURI)
	if err != nil {
		return nil, fmt.Errorf("fragment: stat metadata for %q: %w", fragmentName, err)
	}

	data, err := fs.Read(ctx, metaURI, 0, size)
	if err != nil {
		return nil, fmt.Errorf("fragment: read metadata for %q: %w", fragmentName, err)
	}

	footer, err := ParseFooter(data)
	if err != nil {
		return nil, fmt.Errorf("fragment: parse metadata for %q: %w", fragmentName, err)
	}

	return &Reader{
		ctx:    ctx,
		fs:     fs,
		schema: sch,
		codecs: codecs,
		tcache: tcache,
		ID:     fragmentName,
		Dir:    dir,
		Footer: footer,
	}, nil
}

func (r *Reader) attrFileURI(attr string) string {
	if attr == format.ReservedCoords {
		return r.Dir + "/__coords.tdb"
	}

	a, _ := r.schema.AttributeByName(attr)
	if a.IsVarLen() {
		return r.Dir + "/" + attr + "_var.tdb"
	}

	return r.Dir + "/" + attr + ".tdb"
}

// TileCount returns the number of tiles in this fragment.
func (r *Reader) TileCount() int {
	return int(r.Footer.TileCount)
}

// TileMBR returns tile i's minimum bounding rectangle (sparse only).
func (r *Reader) TileMBR(i int) MBR {
	return r.Footer.TileMBRs[i]
}

// TileBoundingCoords returns tile i's first/last cell coordinates in
// global order (sparse only).
func (r *Reader) TileBoundingCoords(i int) BoundingCoords {
	return r.Footer.TileBoundingCoords[i]
}

// GlobalMBR returns the fragment-wide bounding rectangle (sparse only).
func (r *Reader) GlobalMBR() MBR {
	return r.Footer.GlobalMBR
}

// ReadTile returns the decompressed bytes of tile i for attr, serving from
// the shared tile cache when present.
func (r *Reader) ReadTile(attr string, i int) ([]byte, error) {
	if r.tcache != nil {
		key := cache.Key{FragmentID: r.ID, Attribute: attr, TileID: uint64(i)}
		if data, ok := r.tcache.Get(key); ok {
			return data, nil
		}

		data, err := r.readTileUncached(attr, i)
		if err != nil {
			return nil, err
		}

		r.tcache.Put(key, data)

		return data, nil
	}

	return r.readTileUncached(attr, i)
}

func (r *Reader) readTileUncached(attr string, i int) ([]byte, error) {
	if attr == format.ReservedCoords {
		return r.readCoordsTileUncached(i)
	}

	at, ok := r.Footer.Tiles[attr]
	if !ok || i >= len(at.Offsets) {
		return nil, fmt.Errorf("fragment: no tile %d for attribute %q", i, attr)
	}

	compressed, err := r.fs.Read(r.ctx, r.attrFileURI(attr), int64(at.Offsets[i]), int64(at.Sizes[i]))
	if err != nil {
		return nil, err
	}

	a, ok := r.schema.AttributeByName(attr)
	if !ok {
		a = schema.Attribute{Name: format.ReservedCoords, CompressionType: format.CompressionDoubleDelta}
	}

	c, err := r.codecs.Get(a.CompressionType)
	if err != nil {
		return nil, err
	}

	chunked := codec.NewChunked(c, a.CompressionLvl, 0)

	return chunked.DecompressTile(compressed, len(compressed))
}

// readCoordsTileUncached reassembles tile i's coordinates from their
// per-dimension chunks (spec §4.1: each dimension is its own chunked
// sub-stream). It decompresses each dimension's chunk independently and
// concatenates them dimension-major — dim 0's values for every cell, then
// dim 1's, and so on — the layout query/read.go's collectSparseCandidates
// already expects.
func (r *Reader) readCoordsTileUncached(i int) ([]byte, error) {
	a, ok := r.schema.AttributeByName(format.ReservedCoords)
	if !ok {
		a = schema.Attribute{Name: format.ReservedCoords, CompressionType: format.CompressionDoubleDelta}
	}

	c, err := r.codecs.Get(a.CompressionType)
	if err != nil {
		return nil, err
	}

	chunked := codec.NewChunked(c, a.CompressionLvl, 0)

	uri := r.attrFileURI(format.ReservedCoords)

	count := 0
	if i < len(r.Footer.TileCellCounts) {
		count = int(r.Footer.TileCellCounts[i])
	}

	dimLen := count * 8
	out := make([]byte, 0, dimLen*r.Footer.NDim)

	for d := 0; d < r.Footer.NDim; d++ {
		offset, size, ok := r.Footer.CoordsChunk(i, d)
		if !ok {
			return nil, fmt.Errorf("fragment: no tile %d dim %d for attribute %q", i, d, format.ReservedCoords)
		}

		compressed, err := r.fs.Read(r.ctx, uri, int64(offset), int64(size))
		if err != nil {
			return nil, err
		}

		decompressed, err := chunked.DecompressTile(compressed, dimLen)
		if err != nil {
			return nil, err
		}

		out = append(out, decompressed...)
	}

	return out, nil
}
