package codec

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arrdb/arrdb/errs"
)

// LZ4 wraps github.com/pierrec/lz4/v4 for low-latency tile compression,
// used where decode speed on the read hot path matters more than ratio.
//
// The first output byte is a format tag: lz4TagBlock for an LZ4 block, or
// lz4TagRaw when the block compressor reported the input as incompressible
// and the remaining bytes are stored verbatim.
type LZ4 struct{}

var _ Codec = LZ4{}

const (
	lz4TagRaw   byte = 0
	lz4TagBlock byte = 1
)

// NewLZ4 creates an LZ4 codec.
func NewLZ4() LZ4 { return LZ4{} }

var lz4CompressorPool = sync.Pool{New: func() any { return &lz4.Compressor{} }}

func (LZ4) Compress(_ int, in []byte) ([]byte, error) {
	if len(in) == 0 {
		return []byte{lz4TagRaw}, nil
	}

	dst := make([]byte, 1+lz4.CompressBlockBound(len(in)))

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(in, dst[1:])
	if err != nil {
		return nil, errors.Join(errs.ErrCompressFailed, err)
	}

	if n == 0 {
		// CompressBlock reports incompressible input by returning 0; fall
		// back to storing the bytes verbatim behind the raw tag.
		raw := make([]byte, 1+len(in))
		raw[0] = lz4TagRaw
		copy(raw[1:], in)

		return raw, nil
	}

	dst[0] = lz4TagBlock

	return dst[:1+n], nil
}

func (LZ4) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	if len(in) == 0 {
		return 0, nil, nil
	}

	tag, body := in[0], in[1:]
	if tag == lz4TagRaw {
		out := make([]byte, len(body))
		copy(out, body)

		return len(out), out, nil
	}

	if outCapacity <= 0 {
		outCapacity = len(body) * 4
	}

	for {
		dst := make([]byte, outCapacity)

		n, err := lz4.UncompressBlock(body, dst)
		if err == nil {
			return n, dst[:n], nil
		}

		if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && outCapacity < 256*1024*1024 {
			outCapacity *= 2
			continue
		}

		return 0, nil, errors.Join(errs.ErrDecompressFailed, err)
	}
}
