package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arrdb/arrdb/errs"
)

// Zstd wraps github.com/klauspost/compress/zstd. It is a common choice for
// cold tiles, trading compression speed for ratio at higher levels.
type Zstd struct{}

var _ Codec = Zstd{}

// NewZstd creates a Zstd codec.
func NewZstd() Zstd { return Zstd{} }

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(err)
		}

		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(err)
		}

		return dec
	},
}

// zstdLevel maps the generic 0-9 level knob onto zstd's named speed levels.
func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 4:
		return zstd.SpeedDefault
	case level <= 7:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (Zstd) Compress(level int, in []byte) ([]byte, error) {
	if level <= 4 {
		enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)

		return enc.EncodeAll(in, nil), nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(in, nil), nil
}

func (Zstd) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	dst := make([]byte, 0, outCapacity)

	out, err := dec.DecodeAll(in, dst)
	if err != nil {
		return 0, nil, errs.ErrDecompressFailed
	}

	return len(out), out, nil
}
