// Package query implements the read and write query state machines (spec
// §2, §4.4, §4.5): the common Query type tracks status and buffers; read.go
// and write.go hold each state machine's resumable cursor.
package query

import (
	"context"
	"fmt"

	"github.com/arrdb/arrdb/errs"
	"github.com/arrdb/arrdb/format"
	"github.com/arrdb/arrdb/schema"
	"github.com/arrdb/arrdb/storagemgr"
)

// Range is an inclusive [Low, High] bound on one dimension of a query's
// subarray (spec §3 Subarray).
type Range struct {
	Low, High int64
}

// Buffer is a user-owned byte buffer that a read query fills: each Submit
// writes from the start of Data and sets Used to the number of bytes it
// produced (spec §6.5). Write queries take CellWrite values, not Buffers.
type Buffer struct {
	Data []byte
	Used int
}

// Remaining returns the unused capacity of the buffer.
func (b *Buffer) Remaining() int {
	return len(b.Data) - b.Used
}

// VarBuffer is the (offsets, values) pair backing a variable-sized
// attribute (spec §6.5).
type VarBuffer struct {
	Offsets Buffer
	Values  Buffer
}

// Buffers holds every buffer supplied at Init, keyed by attribute name.
// Coords is non-nil only when __coords was explicitly requested.
type Buffers struct {
	Fixed  map[string]*Buffer
	Var    map[string]*VarBuffer
	Coords *Buffer
}

// Query is the shared state of a read or write query (spec §2 "Query"):
// a schema reference, subarray, attribute/layout selection, and externally
// visible status. Read- and write-specific cursors live in readState and
// writeState respectively; exactly one is non-nil for an initialized query.
type Query struct {
	ctx      context.Context
	mgr      *storagemgr.Manager
	ArrayURI string
	Schema   *schema.ArraySchema
	Subarray []Range
	Attrs    []string
	Layout   format.Layout
	Buffers  Buffers
	Status   format.QueryStatus

	read  *readState
	write *writeState
}

func (q *Query) validateCommon() error {
	if len(q.Subarray) != 0 && len(q.Subarray) != q.Schema.Domain.NDim() {
		return fmt.Errorf("subarray has %d dimensions, schema has %d: %w", len(q.Subarray), q.Schema.Domain.NDim(), errs.ErrSubarrayOutOfDomain)
	}

	for i, r := range q.Subarray {
		if r.Low > r.High {
			return fmt.Errorf("dimension %d: %w", i, errs.ErrSubarrayInverted)
		}

		dim := q.Schema.Domain.Dimensions[i]
		if r.Low < dim.Low || r.High > dim.High {
			return fmt.Errorf("dimension %d: %w", i, errs.ErrSubarrayOutOfDomain)
		}
	}

	for _, name := range q.Attrs {
		if name == format.ReservedCoords {
			continue
		}

		if _, ok := q.Schema.AttributeByName(name); !ok {
			return fmt.Errorf("attribute %q: %w", name, errs.ErrInvalidAttributeName)
		}
	}

	return nil
}

// fullDomainSubarray returns one Range per dimension spanning the whole
// domain, used when a query is initialized with an empty subarray.
func fullDomainSubarray(sch *schema.ArraySchema) []Range {
	out := make([]Range, sch.Domain.NDim())
	for i, d := range sch.Domain.Dimensions {
		out[i] = Range{Low: d.Low, High: d.High}
	}

	return out
}

func containsCoords(subarray []Range, coords []int64) bool {
	for i, r := range subarray {
		if coords[i] < r.Low || coords[i] > r.High {
			return false
		}
	}

	return true
}

func mbrIntersectsSubarray(low, high []int64, subarray []Range) bool {
	for i, r := range subarray {
		if high[i] < r.Low || low[i] > r.High {
			return false
		}
	}

	return true
}
