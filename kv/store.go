package kv

import (
	"context"
	"fmt"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/query"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/storagemgr"
)

// pointBufferBytes is the starting size for a Get's internal buffers. A
// point lookup resolves to at most one cell (barring a hash collision,
// spec §9), so this only needs to be large enough for one cell's worth of
// fixed-size and variable-size attribute bytes; it doubles on overflow.
const pointBufferBytes = 4096

// maxGetRetries bounds how many times Get doubles its buffers before
// giving up, guarding against a pathologically large single value forever
// overflowing.
const maxGetRetries = 8

// Item is one key/value pair submitted to Put.
type Item struct {
	Key    Key
	Values map[string][]byte
}

// Store is a key-value array opened through the storage manager: puts and
// gets are rewritten into write and read queries over a 2-D hashed
// coordinate space (spec §4.6).
type Store struct {
	mgr      *storagemgr.Manager
	arrayURI string
	schema   *schema.ArraySchema
}

// Create creates a new KV-backed array with the given value attributes and
// tile capacity (0 selects a default).
func Create(ctx context.Context, mgr *storagemgr.Manager, arrayURI string, valueAttrs []schema.Attribute, capacity uint64) (*Store, error) {
	sch, err := NewSchema(valueAttrs, capacity)
	if err != nil {
		return nil, err
	}

	if err := mgr.CreateArray(ctx, arrayURI, sch); err != nil {
		return nil, err
	}

	return &Store{mgr: mgr, arrayURI: arrayURI, schema: sch}, nil
}

// Open opens an existing KV-backed array.
func Open(ctx context.Context, mgr *storagemgr.Manager, arrayURI string) (*Store, error) {
	sch, err := mgr.OpenArray(ctx, arrayURI)
	if err != nil {
		return nil, err
	}

	return &Store{mgr: mgr, arrayURI: arrayURI, schema: sch}, nil
}

// Put bulk-writes items as one unordered write query, prepending the
// reserved __key/__key_type attributes so the array can reconstruct keys
// (spec §4.6). A later item whose key hashes to the same coordinate as an
// earlier one overwrites it, same as any unordered write (spec §8 S2).
func (s *Store) Put(ctx context.Context, host string, threadID uint64, timestampMs int64, items []Item) error {
	if len(items) == 0 {
		return errs.ErrEmptyKeySet
	}

	wq, err := query.NewWriteQuery(ctx, s.mgr, s.arrayURI, format.QueryWriteUnordered, host, threadID, timestampMs)
	if err != nil {
		return err
	}

	cells := make([]query.CellWrite, 0, len(items))

	for _, it := range items {
		if !isSupportedKeyType(it.Key.Type) {
			return fmt.Errorf("key type %s: %w", it.Key.Type, errs.ErrKeyTypeUnsupported)
		}

		values := make(map[string][]byte, len(it.Values)+2)
		for k, v := range it.Values {
			values[k] = v
		}

		values[format.ReservedKey] = it.Key.Bytes
		values[format.ReservedKeyType] = []byte{byte(it.Key.Type)}

		cells = append(cells, query.CellWrite{Coords: coords(it.Key), Values: values})
	}

	if err := wq.Submit(cells); err != nil {
		return err
	}

	_, err = wq.Finalize()

	return err
}

func isSupportedKeyType(t format.CellType) bool {
	switch t {
	case format.CellTypeInt8, format.CellTypeInt16, format.CellTypeInt32, format.CellTypeInt64,
		format.CellTypeUint8, format.CellTypeUint16, format.CellTypeUint32, format.CellTypeUint64,
		format.CellTypeFloat32, format.CellTypeFloat64, format.CellTypeChar:
		return true
	default:
		return false
	}
}

// Get performs a point read for key, returning the requested attributes'
// raw bytes, or found=false if no cell exists at that coordinate (spec
// §4.6 "degenerate subarray"). Internal buffers grow and retry on
// overflow, since the caller only deals in whole attribute values.
func (s *Store) Get(ctx context.Context, key Key, attrs []string) (values map[string][]byte, found bool, err error) {
	c := coords(key)
	subarray := []query.Range{{Low: c[0], High: c[0]}, {Low: c[1], High: c[1]}}

	size := pointBufferBytes

	for attempt := 0; attempt < maxGetRetries; attempt++ {
		buffers := s.makeBuffers(attrs, size)

		rq, err := query.NewReadQuery(ctx, s.mgr, s.arrayURI, subarray, attrs, format.LayoutGlobal, buffers)
		if err != nil {
			return nil, false, err
		}

		if err := rq.Submit(); err != nil {
			return nil, false, err
		}

		switch rq.Status {
		case format.QueryStatusOverflowed:
			size *= 2
			continue
		case format.QueryStatusFailed:
			return nil, false, errs.ErrQueryFailed
		}

		return extractValues(attrs, buffers), anyCellEmitted(buffers), nil
	}

	return nil, false, fmt.Errorf("kv: get did not converge after %d retries: %w", maxGetRetries, errs.ErrQueryFailed)
}

func (s *Store) makeBuffers(attrs []string, size int) query.Buffers {
	buffers := query.Buffers{Fixed: map[string]*query.Buffer{}, Var: map[string]*query.VarBuffer{}}

	for _, name := range attrs {
		if name == format.ReservedCoords {
			buffers.Coords = &query.Buffer{Data: make([]byte, size)}
			continue
		}

		a, ok := s.schema.AttributeByName(name)
		if !ok {
			continue
		}

		if a.IsVarLen() {
			buffers.Var[name] = &query.VarBuffer{
				Offsets: query.Buffer{Data: make([]byte, size)},
				Values:  query.Buffer{Data: make([]byte, size)},
			}
		} else {
			buffers.Fixed[name] = &query.Buffer{Data: make([]byte, size)}
		}
	}

	return buffers
}

func extractValues(attrs []string, buffers query.Buffers) map[string][]byte {
	out := make(map[string][]byte, len(attrs))

	for _, name := range attrs {
		if name == format.ReservedCoords {
			if buffers.Coords != nil {
				out[name] = append([]byte(nil), buffers.Coords.Data[:buffers.Coords.Used]...)
			}

			continue
		}

		if b, ok := buffers.Fixed[name]; ok {
			out[name] = append([]byte(nil), b.Data[:b.Used]...)
			continue
		}

		if vb, ok := buffers.Var[name]; ok {
			out[name] = append([]byte(nil), vb.Values.Data[:vb.Values.Used]...)
		}
	}

	return out
}

func anyCellEmitted(buffers query.Buffers) bool {
	for _, b := range buffers.Fixed {
		if b.Used > 0 {
			return true
		}
	}

	for _, vb := range buffers.Var {
		if vb.Offsets.Used > 0 {
			return true
		}
	}

	if buffers.Coords != nil && buffers.Coords.Used > 0 {
		return true
	}

	return false
}
