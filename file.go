package compio

import (
	"io"

	"github.com/scigolib/compio/internal/filestable"
	"github.com/scigolib/compio/internal/utils"
)

// Seek whence codes, matching the archive-level seek contract.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// FileHandle is a positional read/write/seek handle to one logical file
// within an open Archive. It satisfies io.ReadWriteSeeker. Not safe for
// concurrent use.
type FileHandle struct {
	archive  *Archive
	name     string
	nameHash uint64
	cursor   uint64
	size     uint64
	writable bool
	closed   bool
}

var _ io.ReadWriteSeeker = (*FileHandle)(nil)

// Close releases the handle. compio keeps no per-handle resources beyond
// this struct, so Close only guards against further use.
func (fh *FileHandle) Close() error {
	fh.closed = true
	return nil
}

// Write splices p into the logical file at the current cursor,
// re-chunking the affected range, and advances the cursor by len(p).
func (fh *FileHandle) Write(p []byte) (int, error) {
	if fh.closed {
		return 0, utils.NewError(utils.KindInvalidArgument, "FileHandle.Write", nil)
	}
	if !fh.writable {
		return 0, utils.NewError(utils.KindReadOnly, "FileHandle.Write", nil)
	}
	if len(p) == 0 {
		return 0, nil
	}

	newSize, err := fh.archive.pipeline.Write(fh.nameHash, fh.cursor, p, fh.size)
	if err != nil {
		return 0, err
	}
	fh.size = newSize
	fh.cursor += uint64(len(p))

	if err := filestable.SetSize(&fh.archive.header.Files, fh.name, fh.size); err != nil {
		return 0, err
	}
	fh.archive.dirty = true
	if err := fh.archive.flushHeader(); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Read copies up to len(p) bytes starting at the current cursor, and
// advances the cursor by the number of bytes copied. A read at or past
// EOF returns 0, io.EOF rather than an archive error.
func (fh *FileHandle) Read(p []byte) (int, error) {
	if fh.closed {
		return 0, utils.NewError(utils.KindInvalidArgument, "FileHandle.Read", nil)
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := fh.archive.pipeline.Read(fh.nameHash, fh.cursor, fh.size, p)
	if err != nil {
		return n, err
	}
	fh.cursor += uint64(n)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Seek repositions the cursor per whence (SeekSet/SeekCur/SeekEnd).
// Seeking past the end is permitted; a subsequent read there returns
// zero bytes and a subsequent write there creates a zero-filled hole.
func (fh *FileHandle) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = int64(fh.cursor)
	case SeekEnd:
		base = int64(fh.size)
	default:
		return 0, utils.NewError(utils.KindInvalidArgument, "FileHandle.Seek", nil)
	}

	newPos := base + offset
	if newPos < 0 {
		return 0, utils.NewError(utils.KindInvalidArgument, "FileHandle.Seek", nil)
	}

	fh.cursor = uint64(newPos)
	return newPos, nil
}

// Tell returns the current cursor position.
func (fh *FileHandle) Tell() int64 {
	return int64(fh.cursor)
}

// Name returns the logical file name this handle was opened with.
func (fh *FileHandle) Name() string { return fh.name }

// Size returns the logical file's current size.
func (fh *FileHandle) Size() uint64 { return fh.size }
