// Package kv implements the key-value facade (spec §3 Keys, §4.6): it
// rewrites typed key lookups into subarray queries over a synthetic 2-D
// hashed coordinate space, reusing the query core unchanged.
package kv

import (
	"crypto/md5"
	"encoding/binary"
	"math"

	"github.com/arrdb/arrdb/format"
)

// Key is one typed key: a scalar type tag plus the raw little-endian bytes
// of its value, which may carry more than one element (e.g. a FLOAT64
// pair). The coordinate a key hashes to depends only on these two fields.
type Key struct {
	Type  format.CellType
	Bytes []byte
}

// Int32Key builds an INT32 scalar key.
func Int32Key(v int32) Key {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))

	return Key{Type: format.CellTypeInt32, Bytes: b}
}

// Float32Key builds a FLOAT32 scalar key.
func Float32Key(v float32) Key {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))

	return Key{Type: format.CellTypeFloat32, Bytes: b}
}

// Float64SliceKey builds a FLOAT64 array key from one or more values.
func Float64SliceKey(vs []float64) Key {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[i*8:i*8+8], math.Float64bits(v))
	}

	return Key{Type: format.CellTypeFloat64, Bytes: b}
}

// StringKey builds a CHAR key from a string.
func StringKey(s string) Key {
	return Key{Type: format.CellTypeChar, Bytes: []byte(s)}
}

// digest returns the two uint64 halves of the MD5 digest of
// `type_tag ‖ size(u64 LE) ‖ bytes` (spec §3 Keys).
func digest(k Key) (hi, lo uint64) {
	buf := make([]byte, 0, 9+len(k.Bytes))
	buf = append(buf, byte(k.Type))

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(k.Bytes)))
	buf = append(buf, sizeBuf[:]...)
	buf = append(buf, k.Bytes...)

	sum := md5.Sum(buf)

	hi = binary.LittleEndian.Uint64(sum[0:8])
	lo = binary.LittleEndian.Uint64(sum[8:16])

	return hi, lo
}

// coords maps a key to its (d1, d2) coordinate pair. The digest halves are
// shifted right by one bit to land inside the domain's signed int64 range;
// the engine's dimension arithmetic (Contains, GlobalCellOrder) works in
// plain int64, so a full unsigned 64-bit span would wrap through negative
// values. This halves the effective coordinate space to 2^63 per axis,
// which does not materially change the already-astronomical collision odds
// MD5 gives the facade (spec §9 "KV collision policy").
func coords(k Key) []int64 {
	hi, lo := digest(k)
	return []int64{int64(hi >> 1), int64(lo >> 1)}
}
