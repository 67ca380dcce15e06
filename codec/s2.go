package codec

import (
	"github.com/klauspost/compress/s2"

	"github.com/arrdb/arrdb/errs"
)

// S2 wraps github.com/klauspost/compress/s2, an extended Snappy variant.
// It stands in for the byte-shuffle family of fast block codecs (the
// engine's concrete codec set does not ship a cgo BLOSC binding), giving
// attributes a cheap, high-throughput compression option.
type S2 struct{}

var _ Codec = S2{}

// NewS2 creates an S2 codec.
func NewS2() S2 { return S2{} }

func (S2) Compress(level int, in []byte) ([]byte, error) {
	if level >= 7 {
		return s2.EncodeBetter(nil, in), nil
	}

	return s2.Encode(nil, in), nil
}

func (S2) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	n, err := s2.DecodedLen(in)
	if err != nil {
		return 0, nil, errs.ErrDecompressFailed
	}

	dst := make([]byte, n)
	if outCapacity > n {
		dst = make([]byte, n, outCapacity)
		dst = dst[:n]
	}

	out, err := s2.Decode(dst, in)
	if err != nil {
		return 0, nil, errs.ErrDecompressFailed
	}

	return len(out), out, nil
}
