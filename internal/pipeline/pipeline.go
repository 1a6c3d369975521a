// Package pipeline implements the read/write splice pipeline: given a
// logical file's cursor and a byte count, it derives the B-Tree key
// range touched, decompresses and concatenates the overlapping storage
// blocks, splices in the caller's buffer (zero-filling any hole), and
// re-chunks, compresses, and re-indexes the result.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/scigolib/compio/internal/alloc"
	"github.com/scigolib/compio/internal/btree"
	"github.com/scigolib/compio/internal/cache"
	"github.com/scigolib/compio/internal/codec"
	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/serializer"
	"github.com/scigolib/compio/internal/utils"
)

// Pipeline ties together the B-Tree index, the allocator, and a codec
// over one archive's backing store.
type Pipeline struct {
	store     cache.Store
	tree      *btree.Tree
	alloc     *alloc.Allocator
	codec     codec.Codec
	blockSize uint64
	log       *zap.SugaredLogger
}

// New creates a pipeline. blockSize is the target re-chunking size B
// from the archive configuration.
func New(store cache.Store, tree *btree.Tree, a *alloc.Allocator, c codec.Codec, blockSize uint64) *Pipeline {
	return &Pipeline{store: store, tree: tree, alloc: a, codec: c, blockSize: blockSize, log: zap.NewNop().Sugar()}
}

// SetLogger attaches a structured logger used to record splice activity.
// A nil logger is replaced with a no-op one.
func (p *Pipeline) SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	p.log = l
}

// deriveRange returns the key/value pairs in [kMin, kMax) for nameHash,
// prepended with the block starting before start if it extends past it
// (the "probe largest key <= k_min" rule).
func (p *Pipeline) deriveRange(nameHash, start, end uint64) ([]btree.Pair, error) {
	kMin := format.Key{Hash: nameHash, Pos: start}
	kMax := format.Key{Hash: nameHash, Pos: end}

	pairs, err := p.tree.RangeQuery(kMin, kMax)
	if err != nil {
		return nil, err
	}

	floorKey, floorValue, ok, err := p.tree.FindFloor(kMin)
	if err != nil {
		return nil, err
	}
	if ok && floorKey.Hash == nameHash && floorKey.Pos+floorValue.Size > start {
		if len(pairs) == 0 || !pairs[0].Key.Equal(floorKey) {
			pairs = append([]btree.Pair{{Key: floorKey, Value: floorValue}}, pairs...)
		}
	}

	return pairs, nil
}

func (p *Pipeline) decodeBlock(addr uint64) ([]byte, error) {
	blk, err := serializer.ReadBlock(p.store, int64(addr))
	if err != nil {
		return nil, err
	}
	if !blk.IsCompressed {
		return blk.Data, nil
	}
	out, err := p.codec.Decompress(blk.Data, int(blk.OriginalSize))
	if err != nil {
		return nil, utils.NewError(utils.KindCorruptArchive, "pipeline.decodeBlock", err)
	}
	return out, nil
}

// Read copies up to len(buf) bytes starting at cursor in the logical
// file identified by nameHash, clamped to fileSize. It returns the
// number of bytes actually copied.
func (p *Pipeline) Read(nameHash, cursor, fileSize uint64, buf []byte) (int, error) {
	if cursor >= fileSize {
		return 0, nil
	}
	want := uint64(len(buf))
	if cursor+want > fileSize {
		want = fileSize - cursor
	}
	if want == 0 {
		return 0, nil
	}

	pairs, err := p.deriveRange(nameHash, cursor, cursor+want)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	var scratch []byte
	rangeStart := pairs[0].Key.Pos
	for _, pr := range pairs {
		data, err := p.decodeBlock(pr.Value.Addr)
		if err != nil {
			return 0, err
		}
		scratch = append(scratch, data...)
	}

	// cursor can sit before the first indexed block (an unbacked hole);
	// synthesize leading zeros rather than underflowing the skip below.
	var lead uint64
	if rangeStart > cursor {
		lead = rangeStart - cursor
		if lead > want {
			lead = want
		}
		for i := uint64(0); i < lead; i++ {
			buf[i] = 0
		}
	}

	skip := uint64(0)
	if rangeStart < cursor {
		skip = cursor - rangeStart
	}
	if skip > uint64(len(scratch)) {
		skip = uint64(len(scratch))
	}
	avail := uint64(len(scratch)) - skip
	toCopy := want - lead
	if avail < toCopy {
		toCopy = avail
	}
	copy(buf[lead:], scratch[skip:skip+toCopy])
	return int(lead + toCopy), nil
}
