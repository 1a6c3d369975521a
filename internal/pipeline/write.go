package pipeline

import (
	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/serializer"
)

// Write splices data into the logical file identified by nameHash at
// cursor, re-chunking the affected range at the configured block size.
// It returns the logical file's new size (fileSize if the write did not
// extend past the old end).
func (p *Pipeline) Write(nameHash, cursor uint64, data []byte, fileSize uint64) (uint64, error) {
	n := uint64(len(data))
	writeEnd := cursor + n

	pairs, err := p.deriveRange(nameHash, cursor, writeEnd)
	if err != nil {
		return fileSize, err
	}

	start := cursor
	if len(pairs) > 0 {
		if pairs[0].Key.Pos < start {
			start = pairs[0].Key.Pos
		}
	} else if fileSize < start {
		// cursor is past the current end and no block overlaps the
		// write range: widen start to fileSize so the zero-initialized
		// scratch materializes real blocks across the past-EOF hole
		// instead of leaving [fileSize, cursor) unbacked by any key.
		start = fileSize
	}

	// The last overlapping block may extend past cursor+n; widen the
	// scratch boundary so its full extent is covered and no live bytes
	// are dropped when it is freed and re-chunked.
	scratchEnd := writeEnd
	if len(pairs) > 0 {
		last := pairs[len(pairs)-1]
		if tail := last.Key.Pos + last.Value.Size; tail > scratchEnd {
			scratchEnd = tail
		}
	}

	scratch := make([]byte, scratchEnd-start)

	oldKeys := make(map[format.Key]format.Value, len(pairs))
	for _, pr := range pairs {
		oldKeys[pr.Key] = pr.Value

		decoded, err := p.decodeBlock(pr.Value.Addr)
		if err != nil {
			return fileSize, err
		}
		copy(scratch[pr.Key.Pos-start:], decoded)

		blk, err := serializer.ReadBlock(p.store, int64(pr.Value.Addr))
		if err != nil {
			return fileSize, err
		}
		if err := p.alloc.Free(p.store, pr.Value.Addr, uint64(serializer.BlockFootprint(blk))); err != nil {
			return fileSize, err
		}
	}

	copy(scratch[cursor-start:], data)

	newKeys := make(map[format.Key]format.Value, (len(scratch)/int(p.blockSize))+1)

	for off := uint64(0); off < uint64(len(scratch)); off += p.blockSize {
		chunkEnd := off + p.blockSize
		if chunkEnd > uint64(len(scratch)) {
			chunkEnd = uint64(len(scratch))
		}
		chunk := scratch[off:chunkEnd]
		key := format.Key{Hash: nameHash, Pos: start + off}

		blk := &format.Block{
			OriginalSize: uint64(len(chunk)),
			IndexKey:     key,
		}

		if compressed, cerr := p.codec.Compress(chunk); cerr == nil && len(compressed) < len(chunk) {
			blk.IsCompressed = true
			blk.Data = compressed
			blk.Size = uint64(len(compressed))
		} else {
			blk.IsCompressed = false
			blk.Data = chunk
			blk.Size = uint64(len(chunk))
		}

		addr, err := p.alloc.Allocate(uint64(serializer.BlockFootprint(blk)))
		if err != nil {
			return fileSize, err
		}
		if err := serializer.WriteBlock(p.store, int64(addr), blk); err != nil {
			return fileSize, err
		}

		value := format.Value{Addr: addr, Size: blk.OriginalSize}
		newKeys[key] = value

		if _, existed := oldKeys[key]; existed {
			if err := p.tree.Update(key, value); err != nil {
				return fileSize, err
			}
		} else {
			if err := p.tree.Insert(key, value); err != nil {
				return fileSize, err
			}
		}
	}

	for k := range oldKeys {
		if _, stillLive := newKeys[k]; !stillLive {
			if err := p.tree.Remove(k); err != nil {
				return fileSize, err
			}
		}
	}

	newSize := fileSize
	if writeEnd > newSize {
		newSize = writeEnd
	}

	p.log.Debugw("pipeline write", "name_hash", nameHash, "cursor", cursor, "n", n, "new_size", newSize, "chunks", len(newKeys))

	return newSize, nil
}
