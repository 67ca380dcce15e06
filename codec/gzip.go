package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/arrdb/arrdb/errs"
)

// Gzip implements the Codec interface over klauspost/compress's gzip
// package, the same module codec/zstd.go and codec/s2.go already depend
// on for their own formats. It produces the universally-recognized gzip
// container (for interchange with tooling that expects it), but gets
// there through klauspost's faster deflate rather than the standard
// library's, keeping the whole codec package on one compression library
// instead of mixing stdlib and klauspost implementations of the same
// concern. For in-process tile compression Zstd or LZ4 is still the
// better default.
type Gzip struct{}

var _ Codec = Gzip{}

// NewGzip creates a Gzip codec.
func NewGzip() Gzip { return Gzip{} }

func (Gzip) Compress(level int, in []byte) ([]byte, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}

	var buf bytes.Buffer

	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(in); err != nil {
		_ = w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (Gzip) Decompress(in []byte, outCapacity int) (int, []byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return 0, nil, errs.ErrDecompressFailed
	}
	defer r.Close()

	buf := bytes.NewBuffer(make([]byte, 0, outCapacity))
	if _, err := io.Copy(buf, r); err != nil {
		return 0, nil, errs.ErrDecompressFailed
	}

	return buf.Len(), buf.Bytes(), nil
}
