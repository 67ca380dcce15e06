package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileCache_PutGet(t *testing.T) {
	require := require.New(t)

	c := New(1024)
	key := Key{FragmentID: "f1", Attribute: "a", TileID: 0}

	c.Put(key, []byte("hello"))

	data, ok := c.Get(key)
	require.True(ok)
	require.Equal([]byte("hello"), data)

	stats := c.Stats()
	require.EqualValues(1, stats.Hits)
	require.EqualValues(0, stats.Misses)
	require.EqualValues(5, stats.UsedBytes)
}

func TestTileCache_Miss(t *testing.T) {
	require := require.New(t)

	c := New(1024)

	_, ok := c.Get(Key{FragmentID: "f1", Attribute: "a", TileID: 0})
	require.False(ok)
	require.EqualValues(1, c.Stats().Misses)
}

func TestTileCache_EvictsOnByteBudget(t *testing.T) {
	require := require.New(t)

	c := New(10)

	c.Put(Key{FragmentID: "f1", Attribute: "a", TileID: 0}, []byte("01234"))
	c.Put(Key{FragmentID: "f1", Attribute: "a", TileID: 1}, []byte("56789"))
	require.EqualValues(10, c.Stats().UsedBytes)

	// Admitting a third tile must evict the least-recently-used (tile 0).
	c.Put(Key{FragmentID: "f1", Attribute: "a", TileID: 2}, []byte("abcde"))

	_, ok := c.Get(Key{FragmentID: "f1", Attribute: "a", TileID: 0})
	require.False(ok)

	_, ok = c.Get(Key{FragmentID: "f1", Attribute: "a", TileID: 2})
	require.True(ok)
}

func TestTileCache_OversizedTileNotAdmitted(t *testing.T) {
	require := require.New(t)

	c := New(4)
	c.Put(Key{FragmentID: "f1", Attribute: "a", TileID: 0}, []byte("12345"))

	require.EqualValues(0, c.Stats().UsedBytes)
	require.EqualValues(0, c.Stats().EntryCount)
}

func TestTileCache_RemoveFragment(t *testing.T) {
	require := require.New(t)

	c := New(1024)
	c.Put(Key{FragmentID: "f1", Attribute: "a", TileID: 0}, []byte("x"))
	c.Put(Key{FragmentID: "f2", Attribute: "a", TileID: 0}, []byte("y"))

	c.RemoveFragment("f1")

	_, ok := c.Get(Key{FragmentID: "f1", Attribute: "a", TileID: 0})
	require.False(ok)

	_, ok = c.Get(Key{FragmentID: "f2", Attribute: "a", TileID: 0})
	require.True(ok)
}
