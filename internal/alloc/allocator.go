// Package alloc implements the archive's space allocator: a bump
// allocator over header.file_size with advisory free.
package alloc

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Allocator manages space allocation in a compio archive file.
//
// Strategy:
//   - End-of-file (bump) allocation: every Allocate call returns the
//     current high-water mark and advances it.
//   - No freed-space reuse: Free never lets a later Allocate land inside
//     a previously freed range — a free-list able to reuse reclaimed
//     ranges is a possible enhancement, not built here (see DESIGN.md).
//   - Zero-fill-on-free: when enabled, Free overwrites the reclaimed
//     range with zeros so a sparse-file-aware filesystem can physically
//     reclaim it, even though the logical offset is never reused.
//
// Not thread-safe; single archive handle, single thread.
type Allocator struct {
	fileSize  uint64
	zeroFill  bool
	zeroCache []byte
	log       *zap.SugaredLogger
}

// SetLogger attaches a structured logger used to record allocate/free
// activity. A nil logger is replaced with a no-op one.
func (a *Allocator) SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	a.log = l
}

func (a *Allocator) logger() *zap.SugaredLogger {
	if a.log == nil {
		return zap.NewNop().Sugar()
	}
	return a.log
}

// New creates an allocator whose high-water mark starts at fileSize
// (typically header.file_size read back from an existing archive, or the
// header's fixed size for a freshly created one). zeroFill mirrors the
// fill_holes_with_zeros configuration option.
func New(fileSize uint64, zeroFill bool) *Allocator {
	return &Allocator{fileSize: fileSize, zeroFill: zeroFill}
}

// Allocate reserves a block of size bytes at the current end of file and
// advances the high-water mark. Size must be > 0.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("alloc: cannot allocate zero bytes")
	}

	addr := a.fileSize
	a.fileSize = addr + size
	a.logger().Debugw("alloc allocate", "addr", addr, "size", size)
	return addr, nil
}

// Free reclaims the range [addr, addr+size). The range is never handed
// out again by Allocate; when zero-fill is enabled it is overwritten
// with zeros through w so the OS may sparsify the file.
func (a *Allocator) Free(w io.WriterAt, addr, size uint64) error {
	a.logger().Debugw("alloc free", "addr", addr, "size", size, "zero_fill", a.zeroFill)
	if !a.zeroFill || size == 0 {
		return nil
	}

	if uint64(len(a.zeroCache)) < size {
		a.zeroCache = make([]byte, size)
	}

	//nolint:gosec // addr/size are archive-internal offsets bounded by file_size
	if _, err := w.WriteAt(a.zeroCache[:size], int64(addr)); err != nil {
		return fmt.Errorf("alloc: zero-fill free failed: %w", err)
	}
	return nil
}

// FileSize returns the current end-of-file address — the allocator's
// high-water mark, persisted as header.file_size.
func (a *Allocator) FileSize() uint64 {
	return a.fileSize
}

// SetFileSize overrides the high-water mark.
func (a *Allocator) SetFileSize(size uint64) {
	a.fileSize = size
}
