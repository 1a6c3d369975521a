// Package codec implements the compressor/decompressor contract the
// storage engine compresses against: an opaque (compress, decompress)
// pair with a "no-compression fallback" escape hatch, never an error
// surfaced to the caller.
package codec

import "errors"

// ErrBufferTooSmall is returned by Compress when the codec cannot shrink
// src into the space it was given. It is not a failure of the pipeline:
// the write path reacts to it by storing the block uncompressed.
var ErrBufferTooSmall = errors.New("codec: buffer too small")

// Codec is the opaque compressor/decompressor pair every storage block is
// written and read through. Implementations must satisfy
// Decompress(Compress(x)) == x for any x.
type Codec interface {
	// Compress returns a compressed encoding of src, or ErrBufferTooSmall
	// if the codec declines to compress it. An encoding that is not
	// smaller than src may also be returned without error; the pipeline
	// stores such blocks uncompressed.
	Compress(src []byte) ([]byte, error)
	// Decompress reverses Compress. A malformed input is reported as a
	// plain error; the pipeline elevates it to corrupt-archive.
	Decompress(src []byte, originalSize int) ([]byte, error)
	// Name identifies the codec for diagnostics and logging.
	Name() string
}
