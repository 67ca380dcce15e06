// Package errs defines the sentinel error values shared by every arrdb
// package, grouped by the error kind taxonomy from the engine design.
package errs

import "errors"

// Kind partitions errors into the families a caller can dispatch on without
// parsing messages.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSchema
	KindQuery
	KindStorageManager
	KindTile
	KindVFS
	KindCodec
	KindKVQuery
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "SchemaError"
	case KindQuery:
		return "QueryError"
	case KindStorageManager:
		return "StorageManagerError"
	case KindTile:
		return "TileError"
	case KindVFS:
		return "VFSError"
	case KindCodec:
		return "CodecError"
	case KindKVQuery:
		return "KVQueryError"
	default:
		return "Unknown"
	}
}

// Schema errors: argument validation at schema construction time.
var (
	ErrDimensionCountZero    = errors.New("schema: dimension count must be at least 1")
	ErrDomainInverted        = errors.New("schema: dimension domain low bound exceeds high bound")
	ErrInvalidCellType       = errors.New("schema: invalid cell scalar type")
	ErrReservedAttributeName = errors.New("schema: attribute name collides with a reserved name")
	ErrDuplicateAttribute    = errors.New("schema: duplicate attribute name")
	ErrInvalidCapacity       = errors.New("schema: tile capacity must be positive")
	ErrInvalidTileExtent     = errors.New("schema: tile extent must be positive and fit the domain")
)

// Query errors: reported at Query.Init and do not alter persistent state.
var (
	ErrSubarrayOutOfDomain   = errors.New("query: subarray exceeds array domain")
	ErrSubarrayInverted      = errors.New("query: subarray low bound exceeds high bound on some dimension")
	ErrInvalidAttributeName  = errors.New("query: unknown attribute name")
	ErrMissingCoordsBuffer   = errors.New("query: __coords requested but no coordinates buffer supplied")
	ErrMissingBuffer         = errors.New("query: no buffer supplied for a selected attribute")
	ErrQueryAlreadyFinalized = errors.New("query: query already finalized")
	ErrQueryFailed           = errors.New("query: query already in FAILED state")
	ErrUnorderedCells        = errors.New("query: cells are not in the promised global order")
	ErrInterrupted           = errors.New("query: cancelled")
)

// StorageManager errors.
var (
	ErrArrayNotFound        = errors.New("storagemgr: array not found")
	ErrArrayAlreadyExists   = errors.New("storagemgr: array already exists")
	ErrFragmentNotVisible   = errors.New("storagemgr: fragment is not part of the query's snapshot")
	ErrSchemaVersionTooNew  = errors.New("storagemgr: schema footer version is newer than supported")
)

// Tile errors.
var (
	ErrTileCapacityExceeded = errors.New("tile: cell count exceeds tile capacity")
	ErrTileCorrupt          = errors.New("tile: decompressed tile size does not match recorded size")
	ErrInvalidFooterCRC     = errors.New("tile: fragment metadata footer CRC mismatch")
	ErrInvalidFooterVersion = errors.New("tile: fragment metadata footer major version mismatch")
)

// VFS errors, with a sub-reason carried in the message.
var (
	ErrUnsupportedScheme = errors.New("vfs: unsupported URI scheme")
	ErrNotFound          = errors.New("vfs: path not found")
	ErrAlreadyExists     = errors.New("vfs: path already exists")
	ErrTimeout           = errors.New("vfs: operation timed out")
)

// Codec errors.
var (
	ErrUnknownCodec       = errors.New("codec: unknown compression type")
	ErrCompressFailed     = errors.New("codec: compression failed")
	ErrDecompressFailed   = errors.New("codec: decompression failed")
	ErrDecompressOverflow = errors.New("codec: decompressed size exceeds destination capacity")
)

// KV facade errors.
var (
	ErrKeyTypeUnsupported = errors.New("kv: unsupported key scalar type")
	ErrKeyNotFound        = errors.New("kv: key not found")
	ErrEmptyKeySet        = errors.New("kv: empty key set")
)

var kindOf = map[error]Kind{
	ErrDimensionCountZero:    KindSchema,
	ErrDomainInverted:        KindSchema,
	ErrInvalidCellType:       KindSchema,
	ErrReservedAttributeName: KindSchema,
	ErrDuplicateAttribute:    KindSchema,
	ErrInvalidCapacity:       KindSchema,
	ErrInvalidTileExtent:     KindSchema,

	ErrSubarrayOutOfDomain:   KindQuery,
	ErrSubarrayInverted:      KindQuery,
	ErrInvalidAttributeName:  KindQuery,
	ErrMissingCoordsBuffer:   KindQuery,
	ErrMissingBuffer:         KindQuery,
	ErrQueryAlreadyFinalized: KindQuery,
	ErrQueryFailed:           KindQuery,
	ErrUnorderedCells:        KindQuery,
	ErrInterrupted:           KindQuery,

	ErrArrayNotFound:       KindStorageManager,
	ErrArrayAlreadyExists:  KindStorageManager,
	ErrFragmentNotVisible:  KindStorageManager,
	ErrSchemaVersionTooNew: KindStorageManager,

	ErrTileCapacityExceeded: KindTile,
	ErrTileCorrupt:          KindTile,
	ErrInvalidFooterCRC:     KindTile,
	ErrInvalidFooterVersion: KindTile,

	ErrUnsupportedScheme: KindVFS,
	ErrNotFound:          KindVFS,
	ErrAlreadyExists:     KindVFS,
	ErrTimeout:           KindVFS,

	ErrUnknownCodec:       KindCodec,
	ErrCompressFailed:     KindCodec,
	ErrDecompressFailed:   KindCodec,
	ErrDecompressOverflow: KindCodec,

	ErrKeyTypeUnsupported: KindKVQuery,
	ErrKeyNotFound:        KindKVQuery,
	ErrEmptyKeySet:        KindKVQuery,
}

// KindOf reports which error-kind family err (or a wrapped sentinel inside
// it) belongs to. Returns KindUnknown if err does not wrap a known sentinel.
func KindOf(err error) Kind {
	for sentinel, k := range kindOf {
		if errors.Is(err, sentinel) {
			return k
		}
	}

	return KindUnknown
}
