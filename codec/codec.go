// Package codec implements the tile codec pipeline: a uniform Codec
// interface over concrete compressors, plus the chunked compress/decompress
// framing that lets a tile be compressed as a sequence of fixed-size
// chunks (spec §4.1).
package codec

import (
	"fmt"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
)

// Codec maps a byte slice to a byte slice, losslessly and deterministically.
// Level is a codec-specific compression-effort knob; codecs that don't
// support levels ignore it.
//
// Compress returns newly allocated output owned by the caller; it does not
// modify in.
//
// Decompress writes into a caller-provided destination capacity (outCap is
// a hint, not a hard cap enforced by every backend) and returns the number
// of bytes written.
type Codec interface {
	Compress(level int, in []byte) (out []byte, err error)
	Decompress(in []byte, outCapacity int) (n int, out []byte, err error)
}

// Registry resolves a format.CompressionType to its Codec implementation.
// The zero value is unusable; use NewRegistry.
type Registry struct {
	codecs map[format.CompressionType]Codec
}

// NewRegistry builds a Registry pre-populated with every built-in codec.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[format.CompressionType]Codec, 8)}
	r.Register(format.CompressionNone, NewNoOp())
	r.Register(format.CompressionGzip, NewGzip())
	r.Register(format.CompressionZstd, NewZstd())
	r.Register(format.CompressionLZ4, NewLZ4())
	r.Register(format.CompressionS2, NewS2())
	r.Register(format.CompressionRLE, NewRLE())
	r.Register(format.CompressionDoubleDelta, NewDoubleDelta())
	r.Register(format.CompressionBitPacking, NewBitPacking())

	return r
}

// Register adds or replaces the codec used for compressionType.
func (r *Registry) Register(compressionType format.CompressionType, c Codec) {
	r.codecs[compressionType] = c
}

// Get resolves compressionType to its Codec.
func (r *Registry) Get(compressionType format.CompressionType) (Codec, error) {
	c, ok := r.codecs[compressionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCodec, compressionType)
	}

	return c, nil
}
