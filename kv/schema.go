package kv

import (
	"math"

	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/schema"
)

// defaultCapacity is the tile capacity (cells per tile) used for a KV
// store's underlying sparse array when the caller does not need to tune it.
const defaultCapacity = 1024

// NewSchema builds the sparse array schema backing a KV store: a 2-D
// domain spanning the hashed coordinate space (see coords), the two
// reserved bookkeeping attributes __key and __key_type prepended, followed
// by the caller's value attributes (spec §4.6).
func NewSchema(valueAttrs []schema.Attribute, capacity uint64) (*schema.ArraySchema, error) {
	if capacity == 0 {
		capacity = defaultCapacity
	}

	domain := schema.Domain{
		CoordType: format.CellTypeUint64,
		Dimensions: []schema.Dimension{
			{Name: format.ReservedKeyDim1, Low: 0, High: math.MaxInt64},
			{Name: format.ReservedKeyDim2, Low: 0, High: math.MaxInt64},
		},
	}

	attrs := make([]schema.Attribute, 0, len(valueAttrs)+2)
	attrs = append(attrs,
		schema.Attribute{Name: format.ReservedKey, Type: format.CellTypeChar, ValuesPerCell: format.VarLen, CompressionType: format.CompressionNone},
		schema.Attribute{Name: format.ReservedKeyType, Type: format.CellTypeUint8, ValuesPerCell: 1, CompressionType: format.CompressionNone},
	)
	attrs = append(attrs, valueAttrs...)

	return schema.NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderRowMajor, capacity, format.ArraySparse)
}
