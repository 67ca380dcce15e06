package codec

// NoOp bypasses compression entirely, used for attributes where the data is
// already compressed or where compression overhead is not worth it.
type NoOp struct{}

var _ Codec = NoOp{}

// NewNoOp creates a no-operation codec.
func NewNoOp() NoOp { return NoOp{} }

func (NoOp) Compress(_ int, in []byte) ([]byte, error) {
	return append([]byte(nil), in...), nil
}

func (NoOp) Decompress(in []byte, _ int) (int, []byte, error) {
	return len(in), in, nil
}
