package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/storagemgr"
)

// CellWrite is one cell submitted to a write query: its coordinates
// (ignored by dense full-domain writes' persisted storage, but still
// required to place the cell in global order) and its per-attribute raw
// bytes, excluding __coords.
type CellWrite struct {
	Coords []int64
	Values map[string][]byte
}

// writeState is the write query's accumulated, not-yet-flushed cell set
// (spec §4.5). All three write modes converge on the same representation:
// cells are staged keyed by coordinate tuple (a later Submit silently
// overwrites an earlier one at the same coordinates, spec §8 invariant —
// S2 "unordered write dedup"), then sorted into global cell order and
// streamed to the fragment writer at Finalize.
type writeState struct {
	qtype       format.QueryType
	host        string
	threadID    uint64
	timestampMs int64

	pending map[string]CellWrite
}

// NewWriteQuery initializes a write query of the given type against
// arrayURI (spec §4.5). qtype selects only how the caller is expected to
// order its input; internally every mode is staged and sorted identically
// before being handed to the fragment writer (see design notes).
func NewWriteQuery(ctx context.Context, mgr *storagemgr.Manager, arrayURI string, qtype format.QueryType, host string, threadID uint64, timestampMs int64) (*Query, error) {
	sch, err := mgr.OpenArray(ctx, arrayURI)
	if err != nil {
		return nil, err
	}

	q := &Query{
		ctx:      ctx,
		mgr:      mgr,
		ArrayURI: arrayURI,
		Schema:   sch,
		Layout:   format.LayoutGlobal,
	}

	q.write = &writeState{
		qtype:       qtype,
		host:        host,
		threadID:    threadID,
		timestampMs: timestampMs,
		pending:     make(map[string]CellWrite),
	}

	q.Status = format.QueryStatusInProgress

	return q, nil
}

// Submit stages cells, validating each against the array's domain. A later
// Submit at the same coordinates overwrites the earlier value (spec §8
// S2). Submissions may be called repeatedly before Finalize.
func (q *Query) Submit(cells []CellWrite) error {
	if q.write == nil {
		return fmt.Errorf("query: not a write query")
	}

	if q.Status == format.QueryStatusFailed {
		return errs.ErrQueryFailed
	}

	if q.Status == format.QueryStatusCompleted {
		return errs.ErrQueryAlreadyFinalized
	}

	for _, c := range cells {
		if !q.Schema.Domain.Contains(c.Coords) {
			q.Status = format.QueryStatusFailed
			return fmt.Errorf("%w: %v", errs.ErrSubarrayOutOfDomain, c.Coords)
		}

		q.write.pending[coordKey(c.Coords)] = c
	}

	return nil
}

// Finalize sorts every staged cell into the schema's global cell order and
// streams it to a fragment writer, then commits the resulting fragment
// with the storage manager. An empty cell set produces no fragment (spec
// §8 invariant 4); the returned name is "" in that case.
func (q *Query) Finalize() (string, error) {
	if q.write == nil {
		return "", fmt.Errorf("query: not a write query")
	}

	if q.Status == format.QueryStatusFailed {
		return "", errs.ErrQueryFailed
	}

	ws := q.write

	cells := make([]CellWrite, 0, len(ws.pending))
	for _, c := range ws.pending {
		cells = append(cells, c)
	}

	sort.Slice(cells, func(i, j int) bool {
		return q.Schema.GlobalCellOrder(cells[i].Coords).Less(q.Schema.GlobalCellOrder(cells[j].Coords))
	})

	if len(cells) == 0 {
		q.Status = format.QueryStatusCompleted
		return "", nil
	}

	w, err := q.mgr.NewWriter(q.ctx, q.ArrayURI, ws.host, ws.threadID, ws.timestampMs)
	if err != nil {
		q.Status = format.QueryStatusFailed
		return "", err
	}

	for _, c := range cells {
		if err := w.Append(c.Values, c.Coords); err != nil {
			_ = w.Abort()
			q.Status = format.QueryStatusFailed

			return "", err
		}
	}

	name, err := w.Finalize()
	if err != nil {
		q.Status = format.QueryStatusFailed
		return "", err
	}

	q.mgr.CommitFragment(q.ArrayURI, name)
	q.Status = format.QueryStatusCompleted

	return name, nil
}

// Abort discards every staged cell without committing a fragment.
func (q *Query) Abort() {
	if q.write != nil {
		q.write.pending = make(map[string]CellWrite)
	}

	q.Status = format.QueryStatusFailed
}
