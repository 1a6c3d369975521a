package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd wraps github.com/klauspost/compress/zstd for small,
// independently-addressable storage blocks: each block is compressed and
// decompressed on its own, so a pooled encoder/decoder pair amortizes
// setup cost across many small calls rather than one large stream.
type Zstd struct {
	level zstd.EncoderLevel

	encOnce sync.Once
	enc     *zstd.Encoder
	encErr  error

	decOnce sync.Once
	dec     *zstd.Decoder
	decErr  error
}

// NewZstd creates a Zstd codec at the given encoder level. Pass
// zstd.SpeedDefault for a balanced default.
func NewZstd(level zstd.EncoderLevel) *Zstd {
	return &Zstd{level: level}
}

// Name returns "zstd".
func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) encoder() (*zstd.Encoder, error) {
	z.encOnce.Do(func() {
		z.enc, z.encErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(z.level))
	})
	return z.enc, z.encErr
}

func (z *Zstd) decoder() (*zstd.Decoder, error) {
	z.decOnce.Do(func() {
		z.dec, z.decErr = zstd.NewReader(nil)
	})
	return z.dec, z.decErr
}

// Compress zstd-compresses src.
func (z *Zstd) Compress(src []byte) ([]byte, error) {
	enc, err := z.encoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder init failed: %w", err)
	}
	return enc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

// Decompress reverses Compress.
func (z *Zstd) Decompress(src []byte, originalSize int) ([]byte, error) {
	dec, err := z.decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder init failed: %w", err)
	}
	out, err := dec.DecodeAll(src, make([]byte, 0, originalSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}

// Close releases the codec's decoder goroutines. Safe to call once the
// codec is no longer in use by any archive.
func (z *Zstd) Close() {
	if z.dec != nil {
		z.dec.Close()
	}
}
