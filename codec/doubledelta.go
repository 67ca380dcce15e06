package codec

import (
	"encoding/binary"

	"github.com/arrdb/arrdb/errs"
)

// DoubleDelta implements delta-of-delta + zigzag + varint encoding over a
// stream of little-endian int64 values. It is the default codec for the
// sparse array coordinates attribute (spec §3 invariant) and is grounded on
// the teacher's delta-of-delta timestamp encoder: store the first value
// raw, the second as a delta, and every subsequent value as the difference
// between consecutive deltas, which collapses to near-zero bytes for
// regularly-spaced coordinates (e.g. a scan over a dense dimension).
//
// Level is unused; the encoding has no speed/ratio knob.
type DoubleDelta struct{}

var _ Codec = DoubleDelta{}

// NewDoubleDelta creates a DoubleDelta codec.
func NewDoubleDelta() DoubleDelta { return DoubleDelta{} }

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func (DoubleDelta) Compress(_ int, in []byte) ([]byte, error) {
	if len(in)%8 != 0 {
		return nil, errs.ErrCompressFailed
	}

	count := len(in) / 8
	out := make([]byte, 0, len(in)/2+binary.MaxVarintLen64)

	var buf [binary.MaxVarintLen64]byte

	var prevVal, prevDelta int64

	for i := 0; i < count; i++ {
		v := int64(binary.LittleEndian.Uint64(in[i*8 : i*8+8]))

		switch i {
		case 0:
			n := binary.PutUvarint(buf[:], zigzagEncode(v))
			out = append(out, buf[:n]...)
		case 1:
			delta := v - prevVal
			n := binary.PutUvarint(buf[:], zigzagEncode(delta))
			out = append(out, buf[:n]...)
			prevDelta = delta
		default:
			delta := v - prevVal
			dod := delta - prevDelta
			n := binary.PutUvarint(buf[:], zigzagEncode(dod))
			out = append(out, buf[:n]...)
			prevDelta = delta
		}

		prevVal = v
	}

	return out, nil
}

func (DoubleDelta) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	out := make([]byte, 0, outCapacity)

	var prevVal, prevDelta int64

	i := 0
	idx := 0

	for i < len(in) {
		uv, n := binary.Uvarint(in[i:])
		if n <= 0 {
			return 0, nil, errs.ErrDecompressFailed
		}
		i += n

		var v int64

		switch idx {
		case 0:
			v = zigzagDecode(uv)
		case 1:
			prevDelta = zigzagDecode(uv)
			v = prevVal + prevDelta
		default:
			dod := zigzagDecode(uv)
			prevDelta += dod
			v = prevVal + prevDelta
		}

		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v))
		out = append(out, tmp[:]...)

		prevVal = v
		idx++
	}

	return len(out), out, nil
}
