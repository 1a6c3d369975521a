package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Gzip wraps compress/gzip as a block codec.
type Gzip struct {
	level int
}

// NewGzip creates a Gzip codec at the given compression level
// (gzip.HuffmanOnly through gzip.BestCompression). Levels outside that
// range fall back to gzip.DefaultCompression.
func NewGzip(level int) *Gzip {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &Gzip{level: level}
}

// Name returns "gzip".
func (g *Gzip) Name() string { return "gzip" }

// Compress gzip-compresses src. If the result is not smaller than src,
// callers should prefer the uncompressed-fallback path (the pipeline
// checks this, not the codec, since "smaller" is a storage decision).
func (g *Gzip) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer creation failed: %w", err)
	}

	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gzip compression failed: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (g *Gzip) Decompress(src []byte, originalSize int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("gzip reader creation failed: %w", err)
	}
	defer func() { _ = r.Close() }()

	out := make([]byte, 0, originalSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("gzip decompression failed: %w", err)
	}

	return buf.Bytes(), nil
}
