// Package compio implements an embedded random-access file API over a
// compressed multi-file archive held in a single host file: a fixed
// roster of logical files, each addressable by name, each supporting
// positional read/write/seek against a transparently compressed,
// block-oriented backing store.
package compio

import (
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/scigolib/compio/internal/alloc"
	"github.com/scigolib/compio/internal/btree"
	"github.com/scigolib/compio/internal/cache"
	"github.com/scigolib/compio/internal/filestable"
	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/pipeline"
	"github.com/scigolib/compio/internal/serializer"
	"github.com/scigolib/compio/internal/utils"
)

// Archive is a handle to one open compio host file. It is not safe for
// concurrent use: one handle belongs to one thread at a time.
type Archive struct {
	path     string
	osFile   *os.File
	header   *format.Header
	alloc    *alloc.Allocator
	tree     *btree.Tree
	pipeline *pipeline.Pipeline
	cfg      Config
	bits     modeBits
	dirty    bool
}

var _ cache.Store = (*os.File)(nil)

// Open opens path as a compio archive under mode, applying cfg. A
// zero-length file is initialized with a default header and empty tree
// (unless mode is read-only, in which case the archive is treated as
// having no logical files, and no bytes are written). An existing
// non-empty file is parsed and its magic validated.
func Open(path string, mode Mode, cfg Config) (*Archive, error) {
	bits, err := mode.bits()
	if err != nil {
		return nil, err
	}
	if cfg.BTreeDegree < 2 {
		return nil, utils.NewError(utils.KindInvalidArgument, "compio.Open", nil)
	}
	if cfg.BlockSize == 0 || cfg.BlockSize > utils.MaxBlockSize {
		return nil, utils.NewError(utils.KindInvalidArgument, "compio.Open", nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	flags := os.O_RDONLY
	switch {
	case bits.truncate:
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case bits.write && bits.create:
		flags = os.O_RDWR | os.O_CREATE
	case bits.write:
		// write without create: r+ must fail rather than silently
		// creating a missing archive.
		flags = os.O_RDWR
	case bits.read:
		flags = os.O_RDONLY
	}

	//nolint:gosec // G304: caller-provided archive path is the whole point of this API
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, utils.WrapError("compio.Open", err)
	}

	cleanup := true
	defer func() {
		if cleanup {
			_ = f.Close()
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, utils.WrapError("compio.Open", err)
	}

	var header *format.Header
	if fi.Size() == 0 {
		header = &format.Header{Magic: format.Magic, IndexRoot: format.EmptyRoot, FileSize: uint64(format.HeaderSize())}
		if bits.write {
			if err := serializer.WriteHeader(f, header); err != nil {
				return nil, err
			}
		}
	} else {
		header, err = serializer.ReadHeader(f)
		if err != nil {
			return nil, err
		}
	}

	a := alloc.New(header.FileSize, cfg.FillHolesWithZeros)
	a.SetLogger(cfg.Logger)

	layout := format.NodeLayout{Degree: cfg.BTreeDegree}
	tree := btree.Open(f, a, layout, header.IndexRoot)
	tree.SetLogger(cfg.Logger)

	pl := pipeline.New(f, tree, a, cfg.Codec, cfg.BlockSize)
	pl.SetLogger(cfg.Logger)

	cfg.Logger.Debugw("compio archive opened", "path", path, "mode", mode, "size", fi.Size())

	cleanup = false
	return &Archive{
		path:     path,
		osFile:   f,
		header:   header,
		alloc:    a,
		tree:     tree,
		pipeline: pl,
		cfg:      cfg,
		bits:     bits,
	}, nil
}

// Close flushes the header if dirty and closes the host file. Safe to
// call multiple times.
func (a *Archive) Close() error {
	if a.osFile == nil {
		return nil
	}
	if a.dirty && a.bits.write {
		if err := a.flushHeader(); err != nil {
			_ = a.osFile.Close()
			a.osFile = nil
			return err
		}
	}
	err := utils.WrapError("compio.Close", a.osFile.Close())
	a.osFile = nil
	a.cfg.Logger.Debugw("compio archive closed", "path", a.path)
	return err
}

func (a *Archive) flushHeader() error {
	a.header.IndexRoot = a.tree.RootAddr()
	a.header.FileSize = a.alloc.FileSize()
	if err := serializer.WriteHeader(a.osFile, a.header); err != nil {
		return err
	}
	a.dirty = false
	return nil
}

// OpenFile opens the logical file name for the access described by the
// archive's mode, creating a fresh zero-length entry if name is absent
// and the archive is writable.
func (a *Archive) OpenFile(name string) (*FileHandle, error) {
	if name == "" {
		return nil, utils.NewError(utils.KindInvalidArgument, "compio.OpenFile", nil)
	}
	if len(name) > format.NameMax {
		return nil, utils.NewError(utils.KindNameTooLong, "compio.OpenFile", nil)
	}

	idx := filestable.Find(&a.header.Files, name)
	var size uint64
	if idx >= 0 {
		size = a.header.Files.Entries[idx].Size
	} else {
		if !a.bits.allowsOpenForWrite() {
			return nil, utils.NewError(utils.KindNoSuchFile, "compio.OpenFile", nil)
		}
		if err := filestable.Add(&a.header.Files, name, 0); err != nil {
			return nil, err
		}
		a.dirty = true
		if err := a.flushHeader(); err != nil {
			return nil, err
		}
	}

	a.cfg.Logger.Debugw("compio file opened", "name", name, "size", size)

	var cursor uint64
	if a.bits.appendOnly {
		cursor = size
	}

	return &FileHandle{
		archive:  a,
		name:     name,
		nameHash: format.HashName(name),
		cursor:   cursor,
		size:     size,
		writable: a.bits.write,
	}, nil
}

// ListFiles returns the names of every logical file currently in the
// archive's files table, in table order.
func (a *Archive) ListFiles() ([]string, error) {
	names := make([]string, 0, a.header.Files.NFiles)
	for i := uint64(0); i < a.header.Files.NFiles; i++ {
		names = append(names, a.header.Files.Entries[i].NameString())
	}
	return names, nil
}

// RemoveFile deletes name from the archive: its files-table entry is
// removed, and every storage block and index entry in its hash band is
// freed. The name becomes available again for OpenFile in write mode.
func (a *Archive) RemoveFile(name string) error {
	if len(name) > format.NameMax {
		return utils.NewError(utils.KindNameTooLong, "compio.RemoveFile", nil)
	}
	if !a.bits.write {
		return utils.NewError(utils.KindReadOnly, "compio.RemoveFile", nil)
	}

	idx := filestable.Find(&a.header.Files, name)
	if idx < 0 {
		return utils.NewError(utils.KindNoSuchFile, "compio.RemoveFile", nil)
	}

	hash := format.HashName(name)
	kMin := format.Key{Hash: hash, Pos: 0}
	kMax := format.Key{Hash: hash, Pos: math.MaxUint64}

	pairs, err := a.tree.RangeQuery(kMin, kMax)
	if err != nil {
		return err
	}

	for _, pr := range pairs {
		blk, err := serializer.ReadBlock(a.osFile, int64(pr.Value.Addr))
		if err != nil {
			return err
		}
		if err := a.alloc.Free(a.osFile, pr.Value.Addr, uint64(serializer.BlockFootprint(blk))); err != nil {
			return err
		}
		if err := a.tree.Remove(pr.Key); err != nil {
			return err
		}
	}

	if err := filestable.Remove(&a.header.Files, name); err != nil {
		return err
	}

	a.dirty = true
	a.cfg.Logger.Debugw("compio file removed", "name", name, "blocks_freed", len(pairs))
	return a.flushHeader()
}
