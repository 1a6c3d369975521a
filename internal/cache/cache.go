// Package cache implements a lazily-loaded, dirty-tracked handle over a
// single B-Tree node's on-disk representation: the node is read from its
// file address on first access, mutations mark it dirty, and releasing
// the handle writes it back only if something changed.
package cache

import (
	"io"

	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/serializer"
	"github.com/scigolib/compio/internal/utils"
)

// Store is the minimal I/O surface a node cache needs: random-access
// read and write of the underlying archive file.
type Store interface {
	utils.ReaderAt
	io.WriterAt
}

// NodeHandle tracks one materialized node: its address, its in-memory
// value, and whether it has been mutated since load. A fresh node (not
// yet assigned an address) has addr == 0 and must be allocated before
// Release can write it back; the B-Tree engine is responsible for
// assigning an address before releasing a new node.
type NodeHandle struct {
	store   Store
	layout  format.NodeLayout
	addr    uint64
	node    *format.Node
	dirty   bool
	removed bool
}

// Load materializes the node at addr, reading it from store on first
// use.
func Load(store Store, layout format.NodeLayout, addr uint64) (*NodeHandle, error) {
	n, err := serializer.ReadNode(store, int64(addr), layout)
	if err != nil {
		return nil, err
	}
	return &NodeHandle{store: store, layout: layout, addr: addr, node: n}, nil
}

// New wraps a freshly-created node not yet backed by a file address. The
// caller must call SetAddr before Release.
func New(store Store, layout format.NodeLayout, n *format.Node) *NodeHandle {
	return &NodeHandle{store: store, layout: layout, node: n, dirty: true}
}

// Node returns the in-memory node value. Callers mutating it through the
// returned pointer must call MarkDirty.
func (h *NodeHandle) Node() *format.Node { return h.node }

// Addr returns the node's file address.
func (h *NodeHandle) Addr() uint64 { return h.addr }

// SetAddr assigns the file address a new node will be written at.
func (h *NodeHandle) SetAddr(addr uint64) { h.addr = addr }

// MarkDirty flags the node as needing a write-back on Release.
func (h *NodeHandle) MarkDirty() { h.dirty = true }

// Remove suppresses the write-back a dirty handle would otherwise
// perform: used when a node has been merged away or deleted and its
// slot must not be resurrected by Release.
func (h *NodeHandle) Remove() { h.removed = true }

// Release writes the node back to its file address if it is dirty and
// has not been removed. Safe to call multiple times.
func (h *NodeHandle) Release() error {
	if h.removed || !h.dirty {
		return nil
	}
	if err := serializer.WriteNode(h.store, int64(h.addr), h.node, h.layout); err != nil {
		return err
	}
	h.dirty = false
	return nil
}
