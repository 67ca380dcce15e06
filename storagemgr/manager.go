// Package storagemgr implements the process-wide storage manager (spec
// §4.7, §5, §9): it owns the shared tile cache, the VFS dispatcher, and
// the set of open array schemas, handing out read-only references that
// queries and the KV facade borrow for their lifetime.
package storagemgr

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arrdb/arrdb/cache"
	"github.com/arrdb/arrdb/codec"
	"github.com/arrdb/arrdb/config"
	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/fragment"
	"github.com/arrdb/arrdb/logx"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/vfs"
)

// arrayState is the manager's bookkeeping for one open array: its schema
// and the committed fragment names currently visible, oldest first.
type arrayState struct {
	schema    *schema.ArraySchema
	fragments []string // names, sorted oldest-first by fragment.Less
}

// Manager owns every long-lived, process-wide collaborator the query core
// needs: the tile cache, the VFS dispatcher, and open array schemas (spec
// §9 "Ownership and lifecycle").
type Manager struct {
	mu     sync.RWMutex
	cfg    config.EngineConfig
	fs     *vfs.Dispatcher
	cache  *cache.TileCache
	codecs *codec.Registry
	log    *logx.Logger

	arrays map[string]*arrayState // keyed by array URI
}

// New creates a Manager with the given configuration, VFS dispatcher, and
// logger (Nop if log is nil).
func New(cfg config.EngineConfig, fs *vfs.Dispatcher, log *logx.Logger) *Manager {
	if log == nil {
		log = logx.Nop()
	}

	return &Manager{
		cfg:    cfg,
		fs:     fs,
		cache:  cache.New(cfg.TileCacheBytes),
		codecs: codec.NewRegistry(),
		log:    log,
		arrays: make(map[string]*arrayState),
	}
}

// Codecs returns the manager's shared codec registry.
func (m *Manager) Codecs() *codec.Registry {
	return m.codecs
}

// Cache returns the manager's shared tile cache.
func (m *Manager) Cache() *cache.TileCache {
	return m.cache
}

// CreateArray persists sch as arrayURI's schema and registers it as open,
// failing if the array already exists.
func (m *Manager) CreateArray(ctx context.Context, arrayURI string, sch *schema.ArraySchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.arrays[arrayURI]; exists {
		return fmt.Errorf("array %q: %w", arrayURI, errs.ErrArrayAlreadyExists)
	}

	fs, err := m.fs.Open(arrayURI)
	if err != nil {
		return err
	}

	if err := fs.CreateDir(ctx, arrayURI); err != nil {
		return err
	}

	if err := fs.Write(ctx, arrayURI+"/__array_metadata.tdb", sch.Bytes(), false); err != nil {
		return err
	}

	m.arrays[arrayURI] = &arrayState{schema: sch}
	m.log.Infow("array created", "array", arrayURI)

	return nil
}

// OpenArray loads arrayURI's schema and committed fragment list from disk
// (if not already open) and returns the schema; the fragment list is
// available from VisibleFragments.
func (m *Manager) OpenArray(ctx context.Context, arrayURI string) (*schema.ArraySchema, error) {
	m.mu.RLock()
	st, ok := m.arrays[arrayURI]
	m.mu.RUnlock()

	if ok {
		return st.schema, nil
	}

	fs, err := m.fs.Open(arrayURI)
	if err != nil {
		return nil, err
	}

	isDir, err := fs.IsDir(ctx, arrayURI)
	if err != nil {
		return nil, err
	}

	if !isDir {
		return nil, fmt.Errorf("array %q: %w", arrayURI, errs.ErrArrayNotFound)
	}

	size, err := fs.FileSize(ctx, arrayURI+"/__array_metadata.tdb")
	if err != nil {
		return nil, err
	}

	data, err := fs.Read(ctx, arrayURI+"/__array_metadata.tdb", 0, size)
	if err != nil {
		return nil, err
	}

	sch, err := schema.ParseArraySchema(data)
	if err != nil {
		return nil, err
	}

	names, err := m.listFragments(ctx, fs, arrayURI)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.arrays[arrayURI] = &arrayState{schema: sch, fragments: names}
	m.mu.Unlock()

	return sch, nil
}

func (m *Manager) listFragments(ctx context.Context, fs vfs.FS, arrayURI string) ([]string, error) {
	dir := arrayURI + "/__fragments"

	isDir, err := fs.IsDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	if !isDir {
		return nil, nil
	}

	names, err := fs.LsDirs(ctx, dir)
	if err != nil {
		return nil, err
	}

	out := names[:0:0]

	for _, n := range names {
		if len(n) > 4 && n[len(n)-4:] == ".tmp" {
			continue // in-progress writer, not yet committed
		}

		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool { return fragment.Less(out[i], out[j]) })

	return out, nil
}

// VisibleFragments returns a copy of arrayURI's fragment names, oldest
// first: those found when the array was first opened plus every fragment
// committed through this manager since (CommitFragment). A read query's
// init step captures this slice and must not observe later commits (spec
// §4.4 "snapshot at init").
func (m *Manager) VisibleFragments(arrayURI string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.arrays[arrayURI]
	if !ok {
		return nil
	}

	return append([]string(nil), st.fragments...)
}

// OpenFragment opens a committed fragment reader for arrayURI, using the
// manager's shared tile cache and codec registry.
func (m *Manager) OpenFragment(ctx context.Context, arrayURI, fragmentName string) (*fragment.Reader, error) {
	m.mu.RLock()
	st, ok := m.arrays[arrayURI]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("array %q: %w", arrayURI, errs.ErrArrayNotFound)
	}

	fs, err := m.fs.Open(arrayURI)
	if err != nil {
		return nil, err
	}

	return fragment.Open(ctx, fs, arrayURI, fragmentName, st.schema, m.codecs, m.cache)
}

// NewWriter creates a fragment writer for arrayURI, identified by the
// given host/thread/timestamp triplet.
func (m *Manager) NewWriter(ctx context.Context, arrayURI, host string, threadID uint64, timestampMs int64) (*fragment.Writer, error) {
	m.mu.RLock()
	st, ok := m.arrays[arrayURI]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("array %q: %w", arrayURI, errs.ErrArrayNotFound)
	}

	fs, err := m.fs.Open(arrayURI)
	if err != nil {
		return nil, err
	}

	return fragment.NewWriter(ctx, fs, arrayURI, st.schema, m.codecs, host, threadID, timestampMs)
}

// CommitFragment registers a freshly finalized fragment name as visible.
// An empty name (the writer's idempotent-finalize case) is a no-op.
func (m *Manager) CommitFragment(arrayURI, fragmentName string) {
	if fragmentName == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.arrays[arrayURI]
	if !ok {
		return
	}

	st.fragments = append(st.fragments, fragmentName)
	sort.Slice(st.fragments, func(i, j int) bool { return fragment.Less(st.fragments[i], st.fragments[j]) })

	m.log.Infow("fragment committed", "array", arrayURI, "fragment", fragmentName)
}
