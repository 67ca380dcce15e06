// Package format defines the small closed enumerations shared across every
// arrdb package: cell scalar types, compression types, layouts, array mode,
// and query status. Keeping these in a leaf package (no
// dependencies on the rest of the module) mirrors how the teacher keeps its
// encoding/compression enums free of cycles.
package format

// CellType enumerates the coordinate and attribute scalar types the engine
// understands. Values are stable across the on-disk footer format, so the
// numeric assignment must never be reordered.
type CellType uint8

const (
	CellTypeInvalid CellType = 0x0
	CellTypeInt8    CellType = 0x1
	CellTypeInt16   CellType = 0x2
	CellTypeInt32   CellType = 0x3
	CellTypeInt64   CellType = 0x4
	CellTypeUint8   CellType = 0x5
	CellTypeUint16  CellType = 0x6
	CellTypeUint32  CellType = 0x7
	CellTypeUint64  CellType = 0x8
	CellTypeFloat32 CellType = 0x9
	CellTypeFloat64 CellType = 0xA
	CellTypeChar    CellType = 0xB // byte-oriented, always variable-length
)

func (t CellType) String() string {
	switch t {
	case CellTypeInt8:
		return "Int8"
	case CellTypeInt16:
		return "Int16"
	case CellTypeInt32:
		return "Int32"
	case CellTypeInt64:
		return "Int64"
	case CellTypeUint8:
		return "Uint8"
	case CellTypeUint16:
		return "Uint16"
	case CellTypeUint32:
		return "Uint32"
	case CellTypeUint64:
		return "Uint64"
	case CellTypeFloat32:
		return "Float32"
	case CellTypeFloat64:
		return "Float64"
	case CellTypeChar:
		return "Char"
	default:
		return "Invalid"
	}
}

// IsInteger reports whether t is one of the fixed-width integer types.
func (t CellType) IsInteger() bool {
	switch t {
	case CellTypeInt8, CellTypeInt16, CellTypeInt32, CellTypeInt64,
		CellTypeUint8, CellTypeUint16, CellTypeUint32, CellTypeUint64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is Float32 or Float64.
func (t CellType) IsFloat() bool {
	return t == CellTypeFloat32 || t == CellTypeFloat64
}

// ByteWidth returns the fixed on-disk width of a single scalar of type t, or
// 0 for the variable-width Char type.
func (t CellType) ByteWidth() int {
	switch t {
	case CellTypeInt8, CellTypeUint8:
		return 1
	case CellTypeInt16, CellTypeUint16:
		return 2
	case CellTypeInt32, CellTypeUint32, CellTypeFloat32:
		return 4
	case CellTypeInt64, CellTypeUint64, CellTypeFloat64:
		return 8
	default:
		return 0
	}
}

// CompressionType identifies a pluggable tile codec. It is a closed
// enumeration stored in array/attribute metadata.
type CompressionType uint8

const (
	CompressionNone        CompressionType = 0x1
	CompressionGzip        CompressionType = 0x2
	CompressionZstd        CompressionType = 0x3
	CompressionLZ4         CompressionType = 0x4
	CompressionS2          CompressionType = 0x5
	CompressionRLE         CompressionType = 0x6
	CompressionDoubleDelta CompressionType = 0x7
	CompressionBitPacking  CompressionType = 0x8
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionGzip:
		return "Gzip"
	case CompressionZstd:
		return "Zstd"
	case CompressionLZ4:
		return "LZ4"
	case CompressionS2:
		return "S2"
	case CompressionRLE:
		return "RLE"
	case CompressionDoubleDelta:
		return "DoubleDelta"
	case CompressionBitPacking:
		return "BitPacking"
	default:
		return "Unknown"
	}
}

// CellOrder and TileOrder together determine the schema's global cell
// order (spec §3, §4.4).
type CellOrder uint8

const (
	CellOrderRowMajor CellOrder = iota + 1
	CellOrderColMajor
	CellOrderGlobal
)

func (o CellOrder) String() string {
	switch o {
	case CellOrderRowMajor:
		return "RowMajor"
	case CellOrderColMajor:
		return "ColMajor"
	case CellOrderGlobal:
		return "Global"
	default:
		return "Unknown"
	}
}

type TileOrder uint8

const (
	TileOrderRowMajor TileOrder = iota + 1
	TileOrderColMajor
)

func (o TileOrder) String() string {
	if o == TileOrderColMajor {
		return "ColMajor"
	}

	return "RowMajor"
}

// Layout is the cell ordering a query requests for its user buffers.
type Layout uint8

const (
	LayoutRowMajor Layout = iota + 1
	LayoutColMajor
	LayoutGlobal
	LayoutUnordered
)

func (l Layout) String() string {
	switch l {
	case LayoutRowMajor:
		return "RowMajor"
	case LayoutColMajor:
		return "ColMajor"
	case LayoutGlobal:
		return "Global"
	case LayoutUnordered:
		return "Unordered"
	default:
		return "Unknown"
	}
}

// ArrayMode distinguishes dense from sparse arrays.
type ArrayMode uint8

const (
	ArrayDense ArrayMode = iota + 1
	ArraySparse
)

func (m ArrayMode) String() string {
	if m == ArraySparse {
		return "Sparse"
	}

	return "Dense"
}

// QueryType selects the write-path state machine (spec §4.5).
type QueryType uint8

const (
	QueryRead QueryType = iota + 1
	QueryWrite
	QueryWriteUnordered
	QueryWriteSortedRow
	QueryWriteSortedCol
)

// QueryStatus is the externally visible state of a submitted query.
type QueryStatus uint8

const (
	QueryStatusUninitialized QueryStatus = iota
	QueryStatusInProgress
	QueryStatusCompleted
	QueryStatusOverflowed
	QueryStatusFailed
)

func (s QueryStatus) String() string {
	switch s {
	case QueryStatusInProgress:
		return "IN_PROGRESS"
	case QueryStatusCompleted:
		return "COMPLETED"
	case QueryStatusOverflowed:
		return "OVERFLOWED"
	case QueryStatusFailed:
		return "FAILED"
	default:
		return "UNINITIALIZED"
	}
}

// VarLen is the sentinel values-per-cell count meaning "variable length".
const VarLen = -1

// Reserved attribute/dimension names that user schemas may not reuse.
const (
	ReservedCoords  = "__coords"
	ReservedKey     = "__key"
	ReservedKeyType = "__key_type"
	ReservedKeyDim1 = "__key_dim_1"
	ReservedKeyDim2 = "__key_dim_2"
)

// IsReservedName reports whether name collides with one of the engine's
// reserved attribute names.
func IsReservedName(name string) bool {
	switch name {
	case ReservedCoords, ReservedKey, ReservedKeyType, ReservedKeyDim1, ReservedKeyDim2:
		return true
	default:
		return false
	}
}
