package serializer

import (
	"io"

	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/utils"
)

// ReadBlock parses a storage block at addr: the fixed header followed by
// exactly Size bytes of payload.
func ReadBlock(r utils.ReaderAt, addr int64) (*format.Block, error) {
	hdr := make([]byte, format.BlockHeaderSize())
	if _, err := r.ReadAt(hdr, addr); err != nil {
		return nil, utils.WrapError("read block header", err)
	}

	b := &format.Block{}
	off := 0

	b.IsCompressed = hdr[off] != 0
	off++
	b.Size = order.Uint64(hdr[off:])
	off += 8
	b.OriginalSize = order.Uint64(hdr[off:])
	off += 8
	b.IndexKey = format.Key{
		Hash: order.Uint64(hdr[off:]),
		Pos:  order.Uint64(hdr[off+8:]),
	}

	b.Data = make([]byte, b.Size)
	if b.Size > 0 {
		if _, err := r.ReadAt(b.Data, addr+format.BlockHeaderSize()); err != nil {
			return nil, utils.WrapError("read block data", err)
		}
	}

	return b, nil
}

// WriteBlock writes b at addr: header then payload. len(b.Data) must
// equal b.Size.
func WriteBlock(w io.WriterAt, addr int64, b *format.Block) error {
	hdr := make([]byte, format.BlockHeaderSize())
	off := 0

	if b.IsCompressed {
		hdr[off] = 1
	}
	off++
	order.PutUint64(hdr[off:], b.Size)
	off += 8
	order.PutUint64(hdr[off:], b.OriginalSize)
	off += 8
	order.PutUint64(hdr[off:], b.IndexKey.Hash)
	order.PutUint64(hdr[off+8:], b.IndexKey.Pos)

	if _, err := w.WriteAt(hdr, addr); err != nil {
		return utils.WrapError("write block header", err)
	}
	if len(b.Data) > 0 {
		if _, err := w.WriteAt(b.Data, addr+format.BlockHeaderSize()); err != nil {
			return utils.WrapError("write block data", err)
		}
	}
	return nil
}

// BlockFootprint returns the total on-disk size of b (header + payload),
// the amount of space the allocator must reserve for it.
func BlockFootprint(b *format.Block) int64 {
	return format.BlockHeaderSize() + int64(b.Size)
}
