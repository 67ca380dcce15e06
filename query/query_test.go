package query

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrdb/arrdb/config"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/storagemgr"
	"github.com/arrdb/arrdb/vfs"
)

func newManager(t *testing.T) (*storagemgr.Manager, context.Context) {
	t.Helper()

	disp := vfs.NewDispatcher()
	disp.Register("mem", vfs.NewMem())

	return storagemgr.New(config.DefaultEngineConfig(), disp, nil), context.Background()
}

func int32b(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))

	return b
}

func float32b(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))

	return b
}

// s1Schema builds the schema from spec scenario S1: 2-D UINT64 coords over
// [1,4]^2, capacity 2, attributes a1:INT32, a2:CHAR var, a3:FLOAT32 x2.
func s1Schema(t *testing.T) *schema.ArraySchema {
	t.Helper()

	domain := schema.Domain{
		CoordType: format.CellTypeUint64,
		Dimensions: []schema.Dimension{
			{Name: "d1", Low: 1, High: 4, TileExtent: 2},
			{Name: "d2", Low: 1, High: 4, TileExtent: 2},
		},
	}

	attrs := []schema.Attribute{
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1, CompressionType: format.CompressionNone},
		{Name: "a2", Type: format.CellTypeChar, ValuesPerCell: format.VarLen, CompressionType: format.CompressionNone},
		{Name: "a3", Type: format.CellTypeFloat32, ValuesPerCell: 2, CompressionType: format.CompressionNone},
	}

	sch, err := schema.NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderRowMajor, 2, format.ArraySparse)
	require.NoError(t, err)

	return sch
}

func TestS1_SparseGlobalWriteThenFullRead(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)
	sch := s1Schema(t)
	require.NoError(mgr.CreateArray(ctx, "mem://s1", sch))

	coordsList := [][]int64{{1, 1}, {1, 2}, {1, 4}, {2, 3}, {3, 1}, {4, 2}, {3, 3}, {3, 4}}
	a2Values := []string{"a", "bb", "ccc", "dddd", "e", "ff", "ggg", "hhhh"}

	wq, err := NewWriteQuery(ctx, mgr, "mem://s1", format.QueryWrite, "host1", 1, 1000)
	require.NoError(err)

	var cells []CellWrite

	for i, c := range coordsList {
		cells = append(cells, CellWrite{
			Coords: c,
			Values: map[string][]byte{
				"a1": int32b(int32(i)),
				"a2": []byte(a2Values[i]),
				"a3": append(float32b(float32(i)+0.1), float32b(float32(i)+0.2)...),
			},
		})
	}

	require.NoError(wq.Submit(cells))

	name, err := wq.Finalize()
	require.NoError(err)
	require.NotEmpty(name)

	buffers := Buffers{
		Fixed: map[string]*Buffer{
			"a1": {Data: make([]byte, 8*4)},
			"a3": {Data: make([]byte, 8*8)},
		},
		Var: map[string]*VarBuffer{
			"a2": {Offsets: Buffer{Data: make([]byte, 8*8)}, Values: Buffer{Data: make([]byte, 64)}},
		},
	}

	rq, err := NewReadQuery(ctx, mgr, "mem://s1", nil, []string{"a1", "a2", "a3"}, format.LayoutGlobal, buffers)
	require.NoError(err)

	require.NoError(rq.Submit())
	require.Equal(format.QueryStatusCompleted, rq.Status)

	for i := range coordsList {
		got := int32(binary.LittleEndian.Uint32(buffers.Fixed["a1"].Data[i*4 : i*4+4]))
		require.EqualValues(i, got)
	}
}

func TestS2_UnorderedWriteDedup(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)
	sch := s1Schema(t)
	require.NoError(mgr.CreateArray(ctx, "mem://s2", sch))

	coordsList := [][]int64{{1, 1}, {1, 2}, {1, 4}, {2, 3}, {3, 1}, {4, 2}, {3, 3}, {3, 4}}

	wq, err := NewWriteQuery(ctx, mgr, "mem://s2", format.QueryWriteUnordered, "host1", 1, 1000)
	require.NoError(err)

	var batch1 []CellWrite

	for i, c := range coordsList {
		batch1 = append(batch1, CellWrite{
			Coords: c,
			Values: map[string][]byte{"a1": int32b(int32(i)), "a2": []byte("x"), "a3": append(float32b(0), float32b(0)...)},
		})
	}

	require.NoError(wq.Submit(batch1))

	// Second batch overwrites (3,3) with a1 = 99.
	require.NoError(wq.Submit([]CellWrite{
		{Coords: []int64{3, 3}, Values: map[string][]byte{"a1": int32b(99), "a2": []byte("y"), "a3": append(float32b(0), float32b(0)...)}},
	}))

	_, err = wq.Finalize()
	require.NoError(err)

	buffers := Buffers{
		Fixed: map[string]*Buffer{"a1": {Data: make([]byte, 4)}},
		Var:   map[string]*VarBuffer{"a2": {Offsets: Buffer{Data: make([]byte, 8)}, Values: Buffer{Data: make([]byte, 8)}}},
	}

	rq, err := NewReadQuery(ctx, mgr, "mem://s2", []Range{{Low: 3, High: 3}, {Low: 3, High: 3}}, []string{"a1", "a2"}, format.LayoutGlobal, buffers)
	require.NoError(err)
	require.NoError(rq.Submit())

	got := int32(binary.LittleEndian.Uint32(buffers.Fixed["a1"].Data[0:4]))
	require.EqualValues(99, got)
}

func TestS3_Overflow(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)
	sch := s1Schema(t)
	require.NoError(mgr.CreateArray(ctx, "mem://s3", sch))

	coordsList := [][]int64{{1, 1}, {1, 2}, {1, 4}, {2, 3}, {3, 1}, {4, 2}, {3, 3}, {3, 4}}

	wq, err := NewWriteQuery(ctx, mgr, "mem://s3", format.QueryWrite, "host1", 1, 1000)
	require.NoError(err)

	var cells []CellWrite

	for i, c := range coordsList {
		cells = append(cells, CellWrite{
			Coords: c,
			Values: map[string][]byte{"a1": int32b(int32(i)), "a2": []byte("z"), "a3": append(float32b(0), float32b(0)...)},
		})
	}

	require.NoError(wq.Submit(cells))
	_, err = wq.Finalize()
	require.NoError(err)

	buf := &Buffer{Data: make([]byte, 12)}
	buffers := Buffers{Fixed: map[string]*Buffer{"a1": buf}}

	rq, err := NewReadQuery(ctx, mgr, "mem://s3", nil, []string{"a1"}, format.LayoutGlobal, buffers)
	require.NoError(err)

	require.NoError(rq.Submit())
	require.Equal(format.QueryStatusOverflowed, rq.Status)
	require.Equal(12, buf.Used)
	require.Equal([]int32{0, 1, 2}, decodeInt32s(buf.Data[:buf.Used]))

	require.NoError(rq.Submit())
	require.Equal(format.QueryStatusOverflowed, rq.Status)
	require.Equal(12, buf.Used)
	require.Equal([]int32{3, 4, 5}, decodeInt32s(buf.Data[:buf.Used]))

	require.NoError(rq.Submit())
	require.Equal(format.QueryStatusCompleted, rq.Status)
	require.Equal(8, buf.Used)
	require.Equal([]int32{6, 7}, decodeInt32s(buf.Data[:buf.Used]))
}

func decodeInt32s(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}

	return out
}

func TestS4_RowMajorReadOverDense(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)

	domain := schema.Domain{
		CoordType: format.CellTypeInt64,
		Dimensions: []schema.Dimension{
			{Name: "d1", Low: 1, High: 4, TileExtent: 2},
			{Name: "d2", Low: 1, High: 4, TileExtent: 2},
		},
	}

	attrs := []schema.Attribute{
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1, CompressionType: format.CompressionNone},
	}

	sch, err := schema.NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderColMajor, 4, format.ArrayDense)
	require.NoError(err)
	require.NoError(mgr.CreateArray(ctx, "mem://s4", sch))

	wq, err := NewWriteQuery(ctx, mgr, "mem://s4", format.QueryWrite, "host1", 1, 1000)
	require.NoError(err)

	var cells []CellWrite

	val := int32(0)

	for d1 := int64(1); d1 <= 4; d1++ {
		for d2 := int64(1); d2 <= 4; d2++ {
			cells = append(cells, CellWrite{Coords: []int64{d1, d2}, Values: map[string][]byte{"a1": int32b(val)}})
			val++
		}
	}

	require.NoError(wq.Submit(cells))
	_, err = wq.Finalize()
	require.NoError(err)

	buffers := Buffers{Fixed: map[string]*Buffer{"a1": {Data: make([]byte, 16*4)}}}

	rq, err := NewReadQuery(ctx, mgr, "mem://s4", []Range{{Low: 1, High: 4}, {Low: 1, High: 4}}, []string{"a1"}, format.LayoutRowMajor, buffers)
	require.NoError(err)
	require.NoError(rq.Submit())
	require.Equal(format.QueryStatusCompleted, rq.Status)

	got := decodeInt32s(buffers.Fixed["a1"].Data)

	want := make([]int32, 0, 16)

	lookup := map[[2]int64]int32{}
	val = 0

	for d1 := int64(1); d1 <= 4; d1++ {
		for d2 := int64(1); d2 <= 4; d2++ {
			lookup[[2]int64{d1, d2}] = val
			val++
		}
	}

	for d1 := int64(1); d1 <= 4; d1++ {
		for d2 := int64(1); d2 <= 4; d2++ {
			want = append(want, lookup[[2]int64{d1, d2}])
		}
	}

	require.Equal(want, got)
}
