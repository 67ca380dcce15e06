package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrdb/arrdb/format"
)

func sparseSchema(t *testing.T) *ArraySchema {
	t.Helper()

	domain := Domain{
		CoordType: format.CellTypeUint64,
		Dimensions: []Dimension{
			{Name: "d1", Low: 1, High: 4, TileExtent: 2},
			{Name: "d2", Low: 1, High: 4, TileExtent: 2},
		},
	}

	attrs := []Attribute{
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1, CompressionType: format.CompressionZstd},
		{Name: "a2", Type: format.CellTypeChar, ValuesPerCell: format.VarLen, CompressionType: format.CompressionGzip},
		{Name: "a3", Type: format.CellTypeFloat32, ValuesPerCell: 2, CompressionType: format.CompressionNone},
	}

	s, err := NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderRowMajor, 2, format.ArraySparse)
	require.NoError(t, err)

	return s
}

func TestNewArraySchema_InjectsCoords(t *testing.T) {
	require := require.New(t)

	s := sparseSchema(t)

	attr, ok := s.AttributeByName(format.ReservedCoords)
	require.True(ok)
	require.Equal(format.CompressionDoubleDelta, attr.CompressionType)
	require.Equal(2, attr.ValuesPerCell)
}

func TestNewArraySchema_RejectsReservedUserAttribute(t *testing.T) {
	require := require.New(t)

	domain := Domain{CoordType: format.CellTypeUint64, Dimensions: []Dimension{{Name: "d1", Low: 0, High: 10}}}
	attrs := []Attribute{{Name: format.ReservedKey, Type: format.CellTypeInt32, ValuesPerCell: 1}}

	_, err := NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderRowMajor, 4, format.ArraySparse)
	require.Error(err)
}

func TestNewArraySchema_RejectsDuplicateAttribute(t *testing.T) {
	require := require.New(t)

	domain := Domain{CoordType: format.CellTypeUint64, Dimensions: []Dimension{{Name: "d1", Low: 0, High: 10}}}
	attrs := []Attribute{
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1},
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1},
	}

	_, err := NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderRowMajor, 4, format.ArraySparse)
	require.Error(err)
}

func TestSchemaBytes_RoundTrip(t *testing.T) {
	require := require.New(t)

	s := sparseSchema(t)

	data := s.Bytes()
	parsed, err := ParseArraySchema(data)
	require.NoError(err)

	require.Equal(s.Domain.CoordType, parsed.Domain.CoordType)
	require.Equal(s.CellOrder, parsed.CellOrder)
	require.Equal(s.TileOrder, parsed.TileOrder)
	require.Equal(s.Capacity, parsed.Capacity)
	require.Len(parsed.Attributes, len(s.Attributes))

	for i, a := range s.Attributes {
		require.Equal(a.Name, parsed.Attributes[i].Name)
		require.Equal(a.Type, parsed.Attributes[i].Type)
		require.Equal(a.ValuesPerCell, parsed.Attributes[i].ValuesPerCell)
	}
}

func TestGlobalCellOrder_Monotonic(t *testing.T) {
	require := require.New(t)

	s := sparseSchema(t)

	// S1 scenario coordinates, already in the schema's global order.
	coords := [][]int64{
		{1, 1}, {1, 2}, {1, 4}, {2, 3}, {3, 1}, {4, 2}, {3, 3}, {3, 4},
	}

	var prev CellRank
	for i, c := range coords {
		rank := s.GlobalCellOrder(c)
		if i > 0 {
			require.Falsef(rank.Less(prev), "coord %v should not sort before %v", c, coords[i-1])
		}
		prev = rank
	}
}

func TestEmptyValue_PerType(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(0xFF), EmptyValue(format.CellTypeUint8))
	require.NotZero(EmptyValue(format.CellTypeFloat64))
}
