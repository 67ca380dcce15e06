// Package vfs defines the VFS collaborator (spec §6.1): the minimal
// file-system interface the engine consumes, with scheme-dispatched URIs
// selecting a concrete backend. Local disk and in-memory backends are
// implemented over github.com/spf13/afero so both share one thin adapter
// instead of two hand-rolled implementations.
package vfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/arrdb/arrdb/errs"
)

// FS is the file-system collaborator the engine consumes. Every method
// returns a typed result or error; implementations must treat MoveDir as
// atomic within the backend, since fragment commit depends on that.
type FS interface {
	IsDir(ctx context.Context, uri string) (bool, error)
	IsFile(ctx context.Context, uri string) (bool, error)
	CreateDir(ctx context.Context, uri string) error
	DeleteDir(ctx context.Context, uri string) error
	MoveDir(ctx context.Context, from, to string) error
	CreateFile(ctx context.Context, uri string) error
	DeleteFile(ctx context.Context, uri string) error
	Read(ctx context.Context, uri string, offset, length int64) ([]byte, error)
	Write(ctx context.Context, uri string, data []byte, append bool) error
	FileSize(ctx context.Context, uri string) (int64, error)
	Ls(ctx context.Context, uri string) ([]string, error)
	LsDirs(ctx context.Context, uri string) ([]string, error)
	LsFiles(ctx context.Context, uri string) ([]string, error)
}

// Scheme extracts the URI scheme (e.g. "file", "mem", "hdfs", "s3") used
// to dispatch to a concrete backend.
func Scheme(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[:i]
	}

	return ""
}

// Path strips the scheme prefix, returning the backend-local path.
func Path(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[i+3:]
	}

	return uri
}

// Dispatcher resolves a URI scheme to a registered FS backend.
type Dispatcher struct {
	backends map[string]FS
}

// NewDispatcher creates a Dispatcher with no backends registered.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{backends: make(map[string]FS, 4)}
}

// Register associates scheme (without "://") with a backend.
func (d *Dispatcher) Register(scheme string, fs FS) {
	d.backends[scheme] = fs
}

// Open resolves uri's scheme to its backend.
func (d *Dispatcher) Open(uri string) (FS, error) {
	scheme := Scheme(uri)

	fs, ok := d.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedScheme, scheme)
	}

	return fs, nil
}
