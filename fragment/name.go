// Package fragment implements the on-disk unit of a committed write (spec
// §3 Fragment, §4.2-4.3, §6.2-6.3): naming, the binary metadata footer, and
// the writer/reader pair that produce and consume a fragment directory.
package fragment

import (
	"fmt"
	"strconv"
	"strings"
)

// Name composes a fragment directory name from its creating array URI, a
// host identifier, a thread identifier, and a millisecond timestamp. The
// lexicographic order of (timestampMs, host, threadID) is the insertion
// order used to resolve inter-fragment duplicate cells (spec §3): fields
// are zero-padded so string comparison matches numeric comparison.
//
// The array URI is not embedded in the returned name itself (callers join
// it under the array's own fragments directory); it is accepted here only
// to mirror the source's identity composition, and reserved for a future
// per-array uniqueness check.
func Name(_ string, host string, threadID uint64, timestampMs int64) string {
	return fmt.Sprintf("%020d_%s_%020d", timestampMs, host, threadID)
}

// TempName returns the in-progress name for a fragment still being
// written; it is renamed to its final Name only on successful finalize
// (spec §4.2 "temp file then rename").
func TempName(name string) string {
	return name + ".tmp"
}

// Parsed holds the three ordering components recovered from a fragment name.
type Parsed struct {
	TimestampMs int64
	Host        string
	ThreadID    uint64
}

// ParseName recovers the ordering components from a fragment name produced
// by Name. It returns an error if name does not have the expected
// three-component, zero-padded shape.
func ParseName(name string) (Parsed, error) {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) != 3 {
		return Parsed{}, fmt.Errorf("fragment: malformed fragment name %q", name)
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Parsed{}, fmt.Errorf("fragment: malformed timestamp in name %q: %w", name, err)
	}

	tid, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Parsed{}, fmt.Errorf("fragment: malformed thread id in name %q: %w", name, err)
	}

	return Parsed{TimestampMs: ts, Host: parts[1], ThreadID: tid}, nil
}

// Less reports whether fragment a was inserted before fragment b, using the
// (timestamp, host, thread) lexicographic order (spec §3). Ties should not
// occur between distinct fragments by construction.
func Less(a, b string) bool {
	return a < b
}
