package codec

// Identity is the bytewise-copy codec used as the default. It never
// compresses, so the write pipeline always falls back to the
// uncompressed-storage branch for it — useful for archives where CPU is
// scarcer than disk, and as the zero-dependency baseline every other
// codec is checked against.
type Identity struct{}

// NewIdentity returns the identity codec.
func NewIdentity() *Identity { return &Identity{} }

// Compress always reports ErrBufferTooSmall: an identity transform never
// shrinks its input, so the pipeline should store the block verbatim.
func (Identity) Compress(src []byte) ([]byte, error) {
	return nil, ErrBufferTooSmall
}

// Decompress returns a copy of src unchanged.
func (Identity) Decompress(src []byte, originalSize int) ([]byte, error) {
	out := make([]byte, originalSize)
	copy(out, src)
	return out, nil
}

// Name returns "identity".
func (Identity) Name() string { return "identity" }
