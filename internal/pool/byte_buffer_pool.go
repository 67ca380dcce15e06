// Package pool provides reusable byte buffers for the tile codec pipeline
// and fragment writer, reducing allocation churn when many tiles are
// compressed and written in sequence.
package pool

import "sync"

// Default and threshold sizes for the tile staging buffer pool. Tiles are
// rarely larger than a few hundred KiB decompressed, so the default is
// sized for one dense tile of moderate capacity.
const (
	TileBufferDefaultSize  = 64 * 1024       // 64KiB
	TileBufferMaxThreshold = 4 * 1024 * 1024 // 4MiB
)

// ByteBuffer is a growable byte slice wrapper designed to be pooled and
// reused across tile compress/decompress cycles.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but retains its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the current buffer length.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// MustWrite appends data, growing the buffer if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer can accept at least requiredBytes more bytes
// without reallocating, using the same doubling-then-25%-growth strategy
// the teacher's pool package uses for its blob buffers.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := TileBufferDefaultSize
	if cap(bb.B) > 4*TileBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool pools ByteBuffers, discarding ones that grew past
// maxThreshold instead of retaining them.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose buffers start at defaultSize and
// are discarded (not retained) once they exceed maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool, or discards it if it grew too large.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var tileBufferPool = NewByteBufferPool(TileBufferDefaultSize, TileBufferMaxThreshold)

// GetTileBuffer retrieves a ByteBuffer from the shared tile-staging pool.
func GetTileBuffer() *ByteBuffer {
	return tileBufferPool.Get()
}

// PutTileBuffer returns a ByteBuffer to the shared tile-staging pool.
func PutTileBuffer(bb *ByteBuffer) {
	tileBufferPool.Put(bb)
}
