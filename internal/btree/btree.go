// Package btree implements the persistent B-Tree index over the
// compio archive's (hash64, pos64) -> (addr64, size64) key/value space:
// fixed minimum-degree nodes, proactive split-on-descent insertion,
// predecessor/successor-promoting deletion with borrow/merge
// rebalancing, and pruned-traversal range queries.
package btree

import (
	"go.uber.org/zap"

	"github.com/scigolib/compio/internal/alloc"
	"github.com/scigolib/compio/internal/cache"
	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/utils"
)

// Tree is a handle to one archive's B-Tree index. It is not safe for
// concurrent use.
type Tree struct {
	store    cache.Store
	alloc    *alloc.Allocator
	layout   format.NodeLayout
	rootAddr uint64 // format.EmptyRoot when the tree holds no keys
	log      *zap.SugaredLogger
}

// Open wraps an existing (possibly empty) tree rooted at rootAddr.
func Open(store cache.Store, a *alloc.Allocator, layout format.NodeLayout, rootAddr uint64) *Tree {
	return &Tree{store: store, alloc: a, layout: layout, rootAddr: rootAddr, log: zap.NewNop().Sugar()}
}

// SetLogger attaches a structured logger that records structural
// rebalances (splits and merges; borrows are not logged). A nil logger is
// replaced with a no-op one.
func (t *Tree) SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	t.log = l
}

// RootAddr returns the current root node's file address, or
// format.EmptyRoot if the tree is empty. Archive lifecycle code persists
// this into the header after mutating calls.
func (t *Tree) RootAddr() uint64 { return t.rootAddr }

func (t *Tree) newNode(isLeaf bool) (*cache.NodeHandle, error) {
	addr, err := t.alloc.Allocate(uint64(t.layout.Size()))
	if err != nil {
		return nil, err
	}
	h := cache.New(t.store, t.layout, format.NewNode(t.layout.Degree, isLeaf))
	h.SetAddr(addr)
	return h, nil
}

func (t *Tree) load(addr uint64) (*cache.NodeHandle, error) {
	return cache.Load(t.store, t.layout, addr)
}

// Get looks up key and reports whether it is present.
func (t *Tree) Get(key format.Key) (format.Value, bool, error) {
	if t.rootAddr == format.EmptyRoot {
		return format.Value{}, false, nil
	}
	return t.search(t.rootAddr, key)
}

func (t *Tree) search(addr uint64, key format.Key) (format.Value, bool, error) {
	h, err := t.load(addr)
	if err != nil {
		return format.Value{}, false, err
	}
	n := h.Node()

	i, found := findIndex(n, key)
	if found {
		return n.Values[i], true, nil
	}
	if n.IsLeaf {
		return format.Value{}, false, nil
	}
	return t.search(n.Children[i], key)
}

// Insert adds key/value. Behavior on a pre-existing key is undefined by
// this method; callers that want upsert semantics should use Update.
func (t *Tree) Insert(key format.Key, value format.Value) error {
	if t.rootAddr == format.EmptyRoot {
		h, err := t.newNode(true)
		if err != nil {
			return err
		}
		insertKeyAt(h.Node(), 0, key, value)
		h.MarkDirty()
		t.rootAddr = h.Addr()
		return h.Release()
	}

	rootH, err := t.load(t.rootAddr)
	if err != nil {
		return err
	}

	if int(rootH.Node().NumKeys) == t.layout.MaxKeys() {
		newRootH, err := t.newNode(false)
		if err != nil {
			return err
		}
		newRootH.Node().Children[0] = t.rootAddr

		if err := t.splitChild(newRootH, 0, rootH); err != nil {
			return err
		}
		t.rootAddr = newRootH.Addr()

		if err := t.insertNonFull(newRootH, key, value); err != nil {
			return err
		}
		return newRootH.Release()
	}

	if err := t.insertNonFull(rootH, key, value); err != nil {
		return err
	}
	return nil
}

// splitChild splits the full child at parent.Children[i] into two nodes,
// promoting its median key/value into parent at index i. childH and the
// new sibling are written back before returning; parentH is marked dirty
// and left for the caller to release.
func (t *Tree) splitChild(parentH *cache.NodeHandle, i int, childH *cache.NodeHandle) error {
	d := int(t.layout.Degree)
	child := childH.Node()

	siblingH, err := t.newNode(child.IsLeaf)
	if err != nil {
		return err
	}
	sibling := siblingH.Node()

	// Second half of child's keys/values move to sibling.
	for j := 0; j < d-1; j++ {
		sibling.Keys[j] = child.Keys[j+d]
		sibling.Values[j] = child.Values[j+d]
	}
	sibling.NumKeys = uint32(d - 1)

	if !child.IsLeaf {
		for j := 0; j < d; j++ {
			sibling.Children[j] = child.Children[j+d]
		}
	}

	medianKey := child.Keys[d-1]
	medianValue := child.Values[d-1]
	child.NumKeys = uint32(d - 1)

	parent := parentH.Node()
	numChildrenBefore := int(parent.NumKeys) + 1
	insertChildAt(parent, i+1, numChildrenBefore, siblingH.Addr())
	insertKeyAt(parent, i, medianKey, medianValue)

	childH.MarkDirty()
	siblingH.MarkDirty()
	parentH.MarkDirty()

	t.log.Debugw("btree split", "child_addr", childH.Addr(), "sibling_addr", siblingH.Addr(), "parent_addr", parentH.Addr())

	if err := childH.Release(); err != nil {
		return err
	}
	if err := siblingH.Release(); err != nil {
		return err
	}
	return nil
}

// insertNonFull inserts key/value into the subtree rooted at h, which
// must not itself be full. h is written back before returning.
func (t *Tree) insertNonFull(h *cache.NodeHandle, key format.Key, value format.Value) error {
	n := h.Node()
	i := int(n.NumKeys) - 1

	if n.IsLeaf {
		for i >= 0 && key.Less(n.Keys[i]) {
			i--
		}
		insertKeyAt(n, i+1, key, value)
		h.MarkDirty()
		return h.Release()
	}

	for i >= 0 && key.Less(n.Keys[i]) {
		i--
	}
	i++

	childH, err := t.load(n.Children[i])
	if err != nil {
		return err
	}

	if int(childH.Node().NumKeys) == t.layout.MaxKeys() {
		if err := t.splitChild(h, i, childH); err != nil {
			return err
		}
		h.MarkDirty()
		if err := h.Release(); err != nil {
			return err
		}
		if !key.Less(n.Keys[i]) {
			i++ // median promoted at i; descend into the new sibling at i+1
		}
		childH, err = t.load(n.Children[i])
		if err != nil {
			return err
		}
	}

	return t.insertNonFull(childH, key, value)
}

// Update replaces the value for an existing key. Returns no-such-file
// if key is absent.
func (t *Tree) Update(key format.Key, value format.Value) error {
	if t.rootAddr == format.EmptyRoot {
		return utils.NewError(utils.KindNoSuchFile, "btree.Update", nil)
	}
	return t.update(t.rootAddr, key, value)
}

func (t *Tree) update(addr uint64, key format.Key, value format.Value) error {
	h, err := t.load(addr)
	if err != nil {
		return err
	}
	n := h.Node()

	i, found := findIndex(n, key)
	if found {
		n.Values[i] = value
		h.MarkDirty()
		return h.Release()
	}
	if n.IsLeaf {
		return utils.NewError(utils.KindNoSuchFile, "btree.Update", nil)
	}
	return t.update(n.Children[i], key, value)
}
