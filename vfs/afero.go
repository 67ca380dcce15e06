package vfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arrdb/arrdb/errs"
)

// aferoFS adapts an afero.Fs (rooted at a backend-specific base) to the
// engine's FS interface, translating "does not exist" errors into
// errs.ErrNotFound and stripping the scheme prefix from incoming URIs.
type aferoFS struct {
	fs afero.Fs
}

var _ FS = (*aferoFS)(nil)

// NewLocal creates a POSIX-style backend rooted at root, using os.
func NewLocal(root string) (FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	base := afero.NewBasePathFs(afero.NewOsFs(), root)

	return &aferoFS{fs: base}, nil
}

// NewMem creates an in-memory backend, used by tests and by the s6
// MBR-pruning testable property (spec §8).
func NewMem() FS {
	return &aferoFS{fs: afero.NewMemMapFs()}
}

func (a *aferoFS) path(uri string) string {
	return Path(uri)
}

func (a *aferoFS) IsDir(_ context.Context, uri string) (bool, error) {
	info, err := a.fs.Stat(a.path(uri))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return info.IsDir(), nil
}

func (a *aferoFS) IsFile(_ context.Context, uri string) (bool, error) {
	info, err := a.fs.Stat(a.path(uri))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return !info.IsDir(), nil
}

func (a *aferoFS) CreateDir(_ context.Context, uri string) error {
	return a.fs.MkdirAll(a.path(uri), 0o755)
}

func (a *aferoFS) DeleteDir(_ context.Context, uri string) error {
	return a.fs.RemoveAll(a.path(uri))
}

func (a *aferoFS) MoveDir(_ context.Context, from, to string) error {
	if err := a.fs.MkdirAll(filepath.Dir(a.path(to)), 0o755); err != nil {
		return err
	}

	return a.fs.Rename(a.path(from), a.path(to))
}

func (a *aferoFS) CreateFile(_ context.Context, uri string) error {
	p := a.path(uri)

	if err := a.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	f, err := a.fs.Create(p)
	if err != nil {
		return err
	}

	return f.Close()
}

func (a *aferoFS) DeleteFile(_ context.Context, uri string) error {
	err := a.fs.Remove(a.path(uri))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", errs.ErrNotFound, uri)
	}

	return err
}

func (a *aferoFS) Read(_ context.Context, uri string, offset, length int64) ([]byte, error) {
	f, err := a.fs.Open(a.path(uri))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, uri)
		}

		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)

	n, err := f.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return nil, err
	}

	return buf[:n], nil
}

func (a *aferoFS) Write(_ context.Context, uri string, data []byte, appendMode bool) error {
	p := a.path(uri)

	if err := a.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := a.fs.OpenFile(p, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)

	return err
}

func (a *aferoFS) FileSize(_ context.Context, uri string) (int64, error) {
	info, err := a.fs.Stat(a.path(uri))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", errs.ErrNotFound, uri)
		}

		return 0, err
	}

	return info.Size(), nil
}

func (a *aferoFS) Ls(_ context.Context, uri string) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.path(uri))
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}

	return out, nil
}

func (a *aferoFS) LsDirs(ctx context.Context, uri string) ([]string, error) {
	return a.filterByKind(ctx, uri, true)
}

func (a *aferoFS) LsFiles(ctx context.Context, uri string) ([]string, error) {
	return a.filterByKind(ctx, uri, false)
}

func (a *aferoFS) filterByKind(_ context.Context, uri string, dirs bool) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.path(uri))
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() == dirs {
			out = append(out, e.Name())
		}
	}

	return out, nil
}
