package query

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrdb/arrdb/config"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/storagemgr"
	"github.com/arrdb/arrdb/vfs"
)

// failFS wraps an FS backend and fails the Nth CreateDir/Write call (a
// single shared counter across both), simulating a crash partway through
// a fragment write. Modeled on mbr_pruning_test.go's spyFS, which records
// calls instead of failing them.
type failFS struct {
	vfs.FS
	mu     sync.Mutex
	calls  int
	failAt int
}

func (f *failFS) reset(failAt int) {
	f.mu.Lock()
	f.calls = 0
	f.failAt = failAt
	f.mu.Unlock()
}

func (f *failFS) nextCall() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.calls
}

func (f *failFS) CreateDir(ctx context.Context, uri string) error {
	if n := f.nextCall(); n == f.failAt {
		return fmt.Errorf("injected failure at I/O call %d (CreateDir %s)", n, uri)
	}

	return f.FS.CreateDir(ctx, uri)
}

func (f *failFS) Write(ctx context.Context, uri string, data []byte, appendMode bool) error {
	if n := f.nextCall(); n == f.failAt {
		return fmt.Errorf("injected failure at I/O call %d (Write %s)", n, uri)
	}

	return f.FS.Write(ctx, uri, data, appendMode)
}

// isolationSchema is a minimal 2-D sparse schema with tile capacity 1, so a
// single cell write exercises exactly one tile flush: this makes the
// fragment writer's I/O call sequence (CreateDir tmp, write a1, write
// coords dim 0, write coords dim 1, write footer, write success marker — 6
// calls total) predictable enough to fail at every call in turn.
func isolationSchema(t *testing.T) *schema.ArraySchema {
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
	}

	sch, err := schema.NewArraySchema(domain, attrs, format.CellOrderRowMajor, format.TileOrderRowMajor, 1, format.ArraySparse)
	require.NoError(t, err)

	return sch
}

// TestInvariant5_FragmentIsolationUnderInjectedFailure implements spec §8
// invariant 5: a crash-simulated failure during write, with an error
// injected at every I/O call once, must leave no partial fragment visible
// to a subsequent read. For every call site in one fragment write's I/O
// sequence, this fails exactly that call and asserts the array ends up
// with no visible fragment and no partial fragment directory left behind —
// Writer.Finalize's own abort-on-error path (and, for a CreateDir failure,
// the fact that no temp directory was ever created) is what's under test.
func TestInvariant5_FragmentIsolationUnderInjectedFailure(t *testing.T) {
	const totalCalls = 6 // CreateDir + a1 + coords dim0 + coords dim1 + footer + marker

	for failAt := 1; failAt <= totalCalls; failAt++ {
		t.Run(fmt.Sprintf("failAt=%d", failAt), func(t *testing.T) {
			require := require.New(t)

			mem := vfs.NewMem()
			ffs := &failFS{FS: mem}

			disp := vfs.NewDispatcher()
			disp.Register("mem", ffs)

			mgr := storagemgr.New(config.DefaultEngineConfig(), disp, nil)
			ctx := context.Background()

			arrayURI := fmt.Sprintf("mem://inv5-%d", failAt)
			sch := isolationSchema(t)
			require.NoError(mgr.CreateArray(ctx, arrayURI, sch))

			ffs.reset(failAt)

			wq, err := NewWriteQuery(ctx, mgr, arrayURI, format.QueryWrite, "host1", 1, 1000)
			require.NoError(err)
			require.NoError(wq.Submit([]CellWrite{{Coords: []int64{1, 1}, Values: map[string][]byte{"a1": int32b(7)}}}))

			name, err := wq.Finalize()
			require.Error(err)
			require.Empty(name)
			require.Equal(format.QueryStatusFailed, wq.Status)

			require.Empty(mgr.VisibleFragments(arrayURI))

			fragDir := arrayURI + "/__fragments"

			isDir, err := mem.IsDir(ctx, fragDir)
			require.NoError(err)

			if isDir {
				dirs, err := mem.LsDirs(ctx, fragDir)
				require.NoError(err)
				require.Empty(dirs, "no partial fragment directory should remain visible")
			}
		})
	}
}
