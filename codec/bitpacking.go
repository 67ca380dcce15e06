package codec

import (
	"encoding/binary"
	"math/bits"

	"github.com/arrdb/arrdb/errs"
)

// BitPacking packs a stream of little-endian uint64 values into the
// minimal fixed bit width needed to represent the maximum value in the
// input, grounded on the bit-accumulator technique the teacher's Gorilla
// float encoder uses (accumulate bits, flush whole bytes). It suits narrow
// integer coordinate domains (e.g. a dimension spanning a few hundred
// values) where the dense "one int64 per coordinate" layout wastes most of
// every word.
//
// The accumulator is byte-oriented: bitWriter/bitReader move width-bit
// fields one destination byte at a time instead of shifting a whole value
// into a single uint64 register. A width that doesn't divide evenly into
// 64 (the common case — 61, 37, 19, ...) leaves a nonzero bit remainder
// between values; shifting the next value by that remainder in one step
// can push its high bits past bit 63 and lose them silently. Moving byte
// by byte never shifts by more than 7 bits at once, so nothing is lost
// regardless of width or bit offset.
//
// Output layout: 1 byte bit-width, 4 bytes little-endian value count, then
// the packed bit stream, byte-aligned at the end (trailing bits zero).
type BitPacking struct{}

var _ Codec = BitPacking{}

// NewBitPacking creates a BitPacking codec.
func NewBitPacking() BitPacking { return BitPacking{} }

// bitWriter appends width-bit fields to a byte slice, one destination byte
// at a time, so a single field write can never overflow a fixed-width
// register regardless of width or the current bit offset.
type bitWriter struct {
	out    []byte
	bitPos int
}

func (w *bitWriter) writeBits(v uint64, width int) {
	for width > 0 {
		byteIdx := w.bitPos / 8
		bitOff := w.bitPos % 8

		for byteIdx >= len(w.out) {
			w.out = append(w.out, 0)
		}

		free := 8 - bitOff
		take := width
		if take > free {
			take = free
		}

		chunk := byte(v & (uint64(1)<<uint(take) - 1))
		w.out[byteIdx] |= chunk << uint(bitOff)

		v >>= uint(take)
		width -= take
		w.bitPos += take
	}
}

// bitReader is bitWriter's inverse: it reads width-bit fields back one
// source byte at a time.
type bitReader struct {
	in     []byte
	bitPos int
}

func (r *bitReader) readBits(width int) (uint64, error) {
	var v uint64
	var got int

	for got < width {
		byteIdx := r.bitPos / 8
		if byteIdx >= len(r.in) {
			return 0, errs.ErrDecompressFailed
		}

		bitOff := r.bitPos % 8
		free := 8 - bitOff

		take := width - got
		if take > free {
			take = free
		}

		mask := byte(uint64(1)<<uint(take) - 1)
		chunk := uint64((r.in[byteIdx] >> uint(bitOff)) & mask)
		v |= chunk << uint(got)

		got += take
		r.bitPos += take
	}

	return v, nil
}

func (BitPacking) Compress(_ int, in []byte) ([]byte, error) {
	if len(in)%8 != 0 {
		return nil, errs.ErrCompressFailed
	}

	count := len(in) / 8
	if count == 0 {
		return []byte{0, 0, 0, 0, 0}, nil
	}

	var maxV uint64
	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint64(in[i*8 : i*8+8])
		if v > maxV {
			maxV = v
		}
	}

	width := bits.Len64(maxV)
	if width == 0 {
		width = 1
	}

	hdr := make([]byte, 5, 5+(count*width+7)/8)
	hdr[0] = byte(width)
	binary.LittleEndian.PutUint32(hdr[1:5], uint32(count))

	bw := &bitWriter{out: make([]byte, 0, (count*width+7)/8)}

	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint64(in[i*8 : i*8+8])
		bw.writeBits(v, width)
	}

	return append(hdr, bw.out...), nil
}

func (BitPacking) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	if len(in) < 5 {
		return 0, nil, errs.ErrDecompressFailed
	}

	width := int(in[0])
	count := int(binary.LittleEndian.Uint32(in[1:5]))
	body := in[5:]

	out := make([]byte, 0, outCapacity)

	if count == 0 {
		return 0, out, nil
	}

	br := &bitReader{in: body}

	for i := 0; i < count; i++ {
		v, err := br.readBits(width)
		if err != nil {
			return 0, nil, err
		}

		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		out = append(out, tmp[:]...)
	}

	return len(out), out, nil
}
