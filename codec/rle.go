package codec

import (
	"encoding/binary"

	"github.com/arrdb/arrdb/errs"
)

// RLE implements classic byte-run-length encoding: each run is a 4-byte
// little-endian repeat count followed by the single repeated byte. It
// favors low-cardinality attribute values (boolean flags, small integer
// enums, categorical strings) where the teacher's Gorilla/delta encoders
// don't apply because the data isn't a numeric time series.
//
// Level is unused.
type RLE struct{}

var _ Codec = RLE{}

// NewRLE creates an RLE codec.
func NewRLE() RLE { return RLE{} }

func (RLE) Compress(_ int, in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in)/4+5)

	i := 0
	for i < len(in) {
		b := in[i]
		run := 1
		for i+run < len(in) && in[i+run] == b && run < 1<<32-1 {
			run++
		}

		var hdr [4]byte
		binary.LittleEndian.PutUint32(hdr[:], uint32(run))
		out = append(out, hdr[:]...)
		out = append(out, b)

		i += run
	}

	return out, nil
}

func (RLE) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	out := make([]byte, 0, outCapacity)

	i := 0
	for i < len(in) {
		if i+5 > len(in) {
			return 0, nil, errs.ErrDecompressFailed
		}

		run := binary.LittleEndian.Uint32(in[i : i+4])
		b := in[i+4]

		for j := uint32(0); j < run; j++ {
			out = append(out, b)
		}

		i += 5
	}

	return len(out), out, nil
}
