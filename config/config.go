// Package config holds the typed configuration surfaces the storage
// manager and VFS backends read at construction time. Loading supports
// YAML files via gopkg.in/yaml.v3, matching the teacher's transitive
// dependency on the same library for its own test fixtures.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arrdb/arrdb/format"
)

// VFSParams configures timeouts for VFS backends that talk to a remote
// service (HDFS, S3). Local and in-memory backends ignore these.
type VFSParams struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultVFSParams returns conservative timeouts.
func DefaultVFSParams() VFSParams {
	return VFSParams{
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// EngineConfig is the top-level configuration for a storage manager
// instance: tile cache budget, default codecs, and the tile chunking size
// (spec §4.1). Of these, only TileCacheBytes is read by the storage
// manager; the chunk size and codec fields are carried as settings and no
// other package reads them.
type EngineConfig struct {
	// TileCacheBytes bounds the shared LRU tile cache by decompressed size.
	TileCacheBytes int64 `yaml:"tile_cache_bytes"`

	// TileChunkSize is the configured compression chunk size within a tile
	// (default INT_MAX, one chunk per tile). The fragment writer does not
	// read it: it always compresses each tile as a single chunk.
	TileChunkSize int `yaml:"tile_chunk_size"`

	// DefaultCoordsCodec names the coordinates codec (DOUBLE_DELTA by
	// default). Schema construction does not read it: a sparse schema's
	// __coords attribute always uses DOUBLE_DELTA.
	DefaultCoordsCodec format.CompressionType `yaml:"default_coords_codec"`

	// DefaultOffsetsCodec names an offsets codec. The fragment writer does
	// not read it: a variable-sized attribute's offsets are compressed
	// together with its values using the attribute's own codec.
	DefaultOffsetsCodec format.CompressionType `yaml:"default_offsets_codec"`

	VFS VFSParams `yaml:"vfs"`
}

// DefaultEngineConfig returns the engine defaults used when a caller does
// not supply its own configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TileCacheBytes:       64 * 1024 * 1024,
		TileChunkSize:        1 << 31 - 1, // INT_MAX chunks, i.e. one chunk per tile in practice
		DefaultCoordsCodec:   format.CompressionDoubleDelta,
		DefaultOffsetsCodec:  format.CompressionZstd,
		VFS:                  DefaultVFSParams(),
	}
}

// Load reads an EngineConfig from a YAML file at path, applying defaults
// for any field the file does not set.
func Load(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, err
	}

	return cfg, nil
}
