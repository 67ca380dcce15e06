package kv

import (
	"context"
	"encoding/binary"
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

// TestS5_KVPutGet implements spec scenario S5: put four keys of different
// scalar/array/char types, then point-get the FLOAT64-array key back.
func TestS5_KVPutGet(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)

	valueAttrs := []schema.Attribute{
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1, CompressionType: format.CompressionNone},
	}

	store, err := Create(ctx, mgr, "mem://kv1", valueAttrs, 0)
	require.NoError(err)

	items := []Item{
		{Key: Int32Key(100), Values: map[string][]byte{"a1": int32b(0)}},
		{Key: Float32Key(200.0), Values: map[string][]byte{"a1": int32b(1)}},
		{Key: Float64SliceKey([]float64{300.0, 300.1}), Values: map[string][]byte{"a1": int32b(2)}},
		{Key: StringKey("key_4"), Values: map[string][]byte{"a1": int32b(3)}},
	}

	require.NoError(store.Put(ctx, "host1", 1, 1000, items))

	values, found, err := store.Get(ctx, Float64SliceKey([]float64{300.0, 300.1}), []string{"a1"})
	require.NoError(err)
	require.True(found)
	require.Equal(int32(2), int32(binary.LittleEndian.Uint32(values["a1"])))
}

// TestKVRoundTrip implements spec invariant 6: a bulk put of distinct keys
// followed by a point get per key returns the corresponding values.
func TestKVRoundTrip(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)

	valueAttrs := []schema.Attribute{
		{Name: "a1", Type: format.CellTypeInt32, ValuesPerCell: 1, CompressionType: format.CompressionNone},
	}

	store, err := Create(ctx, mgr, "mem://kv2", valueAttrs, 0)
	require.NoError(err)

	keys := make([]Key, 20)
	items := make([]Item, 20)

	for i := range items {
		keys[i] = Int32Key(int32(i))
		items[i] = Item{Key: keys[i], Values: map[string][]byte{"a1": int32b(int32(i))}}
	}

	require.NoError(store.Put(ctx, "host1", 1, 1000, items))

	for i, k := range keys {
		values, found, err := store.Get(ctx, k, []string{"a1"})
		require.NoError(err)
		require.True(found)
		require.EqualValues(i, binary.LittleEndian.Uint32(values["a1"]))
	}
}

func TestKV_GetMissingKeyNotFound(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)

	store, err := Create(ctx, mgr, "mem://kv3", nil, 0)
	require.NoError(err)

	require.NoError(store.Put(ctx, "host1", 1, 1000, []Item{{Key: Int32Key(1)}}))

	_, found, err := store.Get(ctx, Int32Key(2), []string{format.ReservedKeyType})
	require.NoError(err)
	require.False(found)
}

func TestKV_PutEmptyBatchRejected(t *testing.T) {
	require := require.New(t)

	mgr, ctx := newManager(t)

	store, err := Create(ctx, mgr, "mem://kv4", nil, 0)
	require.NoError(err)

	require.Error(store.Put(ctx, "host1", 1, 1000, nil))
}
