package codec

import (
	"encoding/binary"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/internal/pool"
)

// ChunkRecordHeaderSize is the fixed 8-byte (original length, compressed
// length) header preceding every chunk's compressed bytes on disk.
const ChunkRecordHeaderSize = 8

// Chunked wraps a Codec with the tile chunking framing from spec §4.1: a
// tile is compressed as a sequence of fixed-size chunks, each chunk's
// on-disk record being [4-byte original length][4-byte compressed
// length][compressed bytes]. With the default chunk size (effectively
// INT_MAX) a tile normally produces exactly one chunk; ChunkSize is
// configurable so huge tiles can still be chunked.
type Chunked struct {
	codec     Codec
	level     int
	chunkSize int
}

// NewChunked wraps codec with chunk framing. chunkSize <= 0 means "one
// chunk, whatever the tile's size" (the spec's practical default).
func NewChunked(c Codec, level, chunkSize int) Chunked {
	return Chunked{codec: c, level: level, chunkSize: chunkSize}
}

// CompressTile compresses in as a sequence of chunk records.
func (c Chunked) CompressTile(in []byte) ([]byte, error) {
	chunkSize := c.chunkSize
	if chunkSize <= 0 || chunkSize > len(in) {
		chunkSize = len(in)
	}

	if chunkSize == 0 {
		return nil, nil
	}

	buf := pool.GetTileBuffer()
	defer pool.PutTileBuffer(buf)

	buf.Grow(len(in) + len(in)/4)

	for off := 0; off < len(in); off += chunkSize {
		end := off + chunkSize
		if end > len(in) {
			end = len(in)
		}

		chunk := in[off:end]

		compressed, err := c.codec.Compress(c.level, chunk)
		if err != nil {
			return nil, err
		}

		var hdr [ChunkRecordHeaderSize]byte
		binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(chunk)))
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(compressed)))

		buf.MustWrite(hdr[:])
		buf.MustWrite(compressed)
	}

	out := append([]byte(nil), buf.Bytes()...)

	return out, nil
}

// DecompressTile reverses CompressTile, streaming chunk records back into a
// single decompressed byte container.
func (c Chunked) DecompressTile(in []byte, decompressedSizeHint int) ([]byte, error) {
	buf := pool.GetTileBuffer()
	defer pool.PutTileBuffer(buf)

	buf.Grow(decompressedSizeHint)

	pos := 0
	for pos < len(in) {
		if pos+ChunkRecordHeaderSize > len(in) {
			return nil, errs.ErrTileCorrupt
		}

		origLen := int(binary.LittleEndian.Uint32(in[pos : pos+4]))
		compLen := int(binary.LittleEndian.Uint32(in[pos+4 : pos+8]))
		pos += ChunkRecordHeaderSize

		if pos+compLen > len(in) {
			return nil, errs.ErrTileCorrupt
		}

		compressed := in[pos : pos+compLen]
		pos += compLen

		n, decompressed, err := c.codec.Decompress(compressed, origLen)
		if err != nil {
			return nil, err
		}

		if n != origLen {
			return nil, errs.ErrTileCorrupt
		}

		buf.MustWrite(decompressed)
	}

	out := append([]byte(nil), buf.Bytes()...)

	return out, nil
}
