package tile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedTile_AppendAndRead(t *testing.T) {
	require := require.New(t)

	ft := NewFixedTile(4)
	require.NoError(ft.Append([]byte{1, 2, 3, 4}))
	require.NoError(ft.Append([]byte{5, 6, 7, 8}))

	require.Equal(2, ft.Count())
	require.Equal([]byte{1, 2, 3, 4}, ft.CellAt(0))
	require.Equal([]byte{5, 6, 7, 8}, ft.CellAt(1))
}

func TestFixedTile_WrongSize(t *testing.T) {
	ft := NewFixedTile(4)
	require.Error(t, ft.Append([]byte{1, 2, 3}))
}

func TestVarTile_RoundTrip(t *testing.T) {
	require := require.New(t)

	vt := NewVarTile()
	vt.Append([]byte("a"))
	vt.Append([]byte("bb"))
	vt.Append([]byte("ccc"))

	require.Equal(3, vt.Count())
	require.Equal([]byte("a"), vt.ValueAt(0))
	require.Equal([]byte("bb"), vt.ValueAt(1))
	require.Equal([]byte("ccc"), vt.ValueAt(2))

	offBytes := vt.OffsetsBytes()
	offsets, err := ParseVarTileOffsets(offBytes)
	require.NoError(err)
	require.Equal(vt.Offsets, offsets)
}

func TestCoordsTile_RoundTrip(t *testing.T) {
	require := require.New(t)

	ct := NewCoordsTile(2)
	coordsList := [][]int64{{1, 1}, {1, 2}, {3, 3}}

	for _, c := range coordsList {
		require.NoError(ct.Append(c))
	}

	require.Equal(3, ct.Count())

	for i, c := range coordsList {
		require.Equal(c, ct.At(i))
	}

	for d := 0; d < 2; d++ {
		data := ct.DimBytes(d)

		parsed := NewCoordsTile(2)
		require.NoError(parsed.SetDimBytes(d, data))
		require.Equal(ct.dims[d], parsed.dims[d])
	}
}
