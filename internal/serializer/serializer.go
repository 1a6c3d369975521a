// Package serializer implements the compio binary format: fixed-endian
// read/write of the header, B-Tree index nodes, and storage blocks at
// specified file offsets. It is the sole owner of byte order — every
// other component works with format.Header/Node/Block values and never
// touches a byte slice directly.
package serializer

import (
	"errors"
	"io"

	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/utils"
)

var order = utils.ByteOrder

// ReadHeader parses the fixed-size header at offset 0. A short read or
// bad magic is reported as corrupt-archive; any other read failure is
// reported as io-error.
func ReadHeader(r utils.ReaderAt) (*format.Header, error) {
	buf := make([]byte, format.HeaderSize())
	if _, err := r.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, utils.NewError(utils.KindCorruptArchive, "read header", err)
		}
		return nil, utils.WrapError("read header", err)
	}

	h := &format.Header{}
	off := 0

	h.Magic = order.Uint32(buf[off:])
	off += 4
	h.IndexRoot = order.Uint64(buf[off:])
	off += 8
	h.FileSize = order.Uint64(buf[off:])
	off += 8

	h.Files.NFiles = order.Uint64(buf[off:])
	off += 8

	for i := 0; i < format.MaxFiles; i++ {
		copy(h.Files.Entries[i].Name[:], buf[off:off+format.NameMax])
		off += format.NameMax
		h.Files.Entries[i].Size = order.Uint64(buf[off:])
		off += 8
	}

	if h.Magic != format.Magic {
		return nil, utils.NewError(utils.KindCorruptArchive, "read header", errInvalidMagic)
	}

	return h, nil
}

// WriteHeader writes h at offset 0.
func WriteHeader(w io.WriterAt, h *format.Header) error {
	buf := make([]byte, format.HeaderSize())
	off := 0

	order.PutUint32(buf[off:], h.Magic)
	off += 4
	order.PutUint64(buf[off:], h.IndexRoot)
	off += 8
	order.PutUint64(buf[off:], h.FileSize)
	off += 8

	order.PutUint64(buf[off:], h.Files.NFiles)
	off += 8

	for i := 0; i < format.MaxFiles; i++ {
		copy(buf[off:off+format.NameMax], h.Files.Entries[i].Name[:])
		off += format.NameMax
		order.PutUint64(buf[off:], h.Files.Entries[i].Size)
		off += 8
	}

	if _, err := w.WriteAt(buf, 0); err != nil {
		return utils.WrapError("write header", err)
	}
	return nil
}

var errInvalidMagic = &magicError{}

type magicError struct{}

func (*magicError) Error() string { return "invalid archive magic" }
