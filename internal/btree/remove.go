package btree

import (
	"github.com/scigolib/compio/internal/cache"
	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/utils"
)

// Remove deletes key from the tree. Returns no-such-file if key is
// absent.
func (t *Tree) Remove(key format.Key) error {
	if t.rootAddr == format.EmptyRoot {
		return utils.NewError(utils.KindNoSuchFile, "btree.Remove", nil)
	}

	rootH, err := t.load(t.rootAddr)
	if err != nil {
		return err
	}

	if err := t.remove(rootH, key); err != nil {
		return err
	}

	// If the root is an internal node that just lost its only key, its
	// sole remaining child becomes the new root.
	root := rootH.Node()
	if root.NumKeys == 0 && !root.IsLeaf {
		t.rootAddr = root.Children[0]
		rootH.Remove()
		return rootH.Release()
	}
	if root.NumKeys == 0 && root.IsLeaf {
		t.rootAddr = format.EmptyRoot
		rootH.Remove()
		return rootH.Release()
	}
	return nil
}

// remove deletes key from the subtree rooted at h, per the classic
// predecessor/successor-promotion algorithm. h is released (or replaced
// via Remove()) before returning; it is never left both unwritten and
// logically stale.
func (t *Tree) remove(h *cache.NodeHandle, key format.Key) error {
	n := h.Node()
	i, found := findIndex(n, key)

	if found {
		if n.IsLeaf {
			removeKeyAt(n, i)
			h.MarkDirty()
			return h.Release()
		}
		if err := t.removeFromInternal(h, i); err != nil {
			return err
		}
		return h.Release()
	}

	if n.IsLeaf {
		// key not present anywhere in the tree
		if err := h.Release(); err != nil {
			return err
		}
		return utils.NewError(utils.KindNoSuchFile, "btree.Remove", nil)
	}

	childH, err := t.load(n.Children[i])
	if err != nil {
		return err
	}
	if int(childH.Node().NumKeys) < t.layout.MinKeys()+1 {
		if err := t.fill(h, i); err != nil {
			return err
		}
		// fill may have shifted which child index now holds the key's
		// subtree (a merge folds i and i+1 together at index
		// min(i, new last valid index)); reload using the current node
		// state to find the right child.
		n = h.Node()
		if i > int(n.NumKeys) {
			i = int(n.NumKeys)
		}
		childH, err = t.load(n.Children[i])
		if err != nil {
			return err
		}
	}

	if err := t.remove(childH, key); err != nil {
		return err
	}
	return h.Release()
}

// removeFromInternal deletes the key at index idx of an internal node,
// promoting its predecessor or successor, or merging children when
// neither has a spare key.
func (t *Tree) removeFromInternal(h *cache.NodeHandle, idx int) error {
	n := h.Node()
	key := n.Keys[idx]

	predH, err := t.load(n.Children[idx])
	if err != nil {
		return err
	}
	if int(predH.Node().NumKeys) >= t.layout.MinKeys()+1 {
		predKey, predValue := t.maxOf(predH)
		n.Keys[idx] = predKey
		n.Values[idx] = predValue
		h.MarkDirty()
		return t.remove(predH, predKey)
	}

	succH, err := t.load(n.Children[idx+1])
	if err != nil {
		return err
	}
	if int(succH.Node().NumKeys) >= t.layout.MinKeys()+1 {
		succKey, succValue := t.minOf(succH)
		n.Keys[idx] = succKey
		n.Values[idx] = succValue
		h.MarkDirty()
		return t.remove(succH, succKey)
	}

	if err := t.mergeChildren(h, idx); err != nil {
		return err
	}
	n = h.Node()
	mergedH, err := t.load(n.Children[idx])
	if err != nil {
		return err
	}
	return t.remove(mergedH, key)
}

// maxOf returns the largest key/value in the subtree rooted at h,
// without mutating it.
func (t *Tree) maxOf(h *cache.NodeHandle) (format.Key, format.Value) {
	n := h.Node()
	for !n.IsLeaf {
		childH, err := t.load(n.Children[n.NumKeys])
		if err != nil {
			return format.Key{}, format.Value{}
		}
		h = childH
		n = h.Node()
	}
	return n.Keys[n.NumKeys-1], n.Values[n.NumKeys-1]
}

// minOf returns the smallest key/value in the subtree rooted at h,
// without mutating it.
func (t *Tree) minOf(h *cache.NodeHandle) (format.Key, format.Value) {
	n := h.Node()
	for !n.IsLeaf {
		childH, err := t.load(n.Children[0])
		if err != nil {
			return format.Key{}, format.Value{}
		}
		h = childH
		n = h.Node()
	}
	return n.Keys[0], n.Values[0]
}

// fill ensures parent.Children[idx] holds at least MinKeys+1 keys,
// borrowing a key from an adjacent sibling with keys to spare, or
// merging with one otherwise.
func (t *Tree) fill(parentH *cache.NodeHandle, idx int) error {
	parent := parentH.Node()

	if idx != 0 {
		prevH, err := t.load(parent.Children[idx-1])
		if err != nil {
			return err
		}
		if int(prevH.Node().NumKeys) >= t.layout.MinKeys()+1 {
			return t.borrowFromPrev(parentH, idx, prevH)
		}
	}
	if idx != int(parent.NumKeys) {
		nextH, err := t.load(parent.Children[idx+1])
		if err != nil {
			return err
		}
		if int(nextH.Node().NumKeys) >= t.layout.MinKeys()+1 {
			return t.borrowFromNext(parentH, idx, nextH)
		}
	}

	if idx != int(parent.NumKeys) {
		return t.mergeChildren(parentH, idx)
	}
	return t.mergeChildren(parentH, idx-1)
}

func (t *Tree) borrowFromPrev(parentH *cache.NodeHandle, idx int, prevH *cache.NodeHandle) error {
	parent := parentH.Node()
	childH, err := t.load(parent.Children[idx])
	if err != nil {
		return err
	}
	child := childH.Node()
	prev := prevH.Node()

	insertKeyAt(child, 0, parent.Keys[idx-1], parent.Values[idx-1])
	parent.Keys[idx-1] = prev.Keys[prev.NumKeys-1]
	parent.Values[idx-1] = prev.Values[prev.NumKeys-1]

	if !child.IsLeaf {
		numChildrenBefore := int(child.NumKeys) // insertKeyAt already raised NumKeys to old+1, which is the child count before this insert
		insertChildAt(child, 0, numChildrenBefore, prev.Children[prev.NumKeys])
	}

	removeKeyAt(prev, int(prev.NumKeys)-1)

	childH.MarkDirty()
	prevH.MarkDirty()
	parentH.MarkDirty()

	if err := childH.Release(); err != nil {
		return err
	}
	return prevH.Release()
}

func (t *Tree) borrowFromNext(parentH *cache.NodeHandle, idx int, nextH *cache.NodeHandle) error {
	parent := parentH.Node()
	childH, err := t.load(parent.Children[idx])
	if err != nil {
		return err
	}
	child := childH.Node()
	next := nextH.Node()

	insertKeyAt(child, int(child.NumKeys), parent.Keys[idx], parent.Values[idx])
	parent.Keys[idx] = next.Keys[0]
	parent.Values[idx] = next.Values[0]

	if !child.IsLeaf {
		numChildren := int(child.NumKeys) // == original child count (appending at the end)
		insertChildAt(child, numChildren, numChildren, next.Children[0])
		removeChildAt(next, 0, int(next.NumKeys)+1)
	}

	removeKeyAt(next, 0)

	childH.MarkDirty()
	nextH.MarkDirty()
	parentH.MarkDirty()

	if err := childH.Release(); err != nil {
		return err
	}
	return nextH.Release()
}

// mergeChildren folds parent.Children[idx+1] and the key at parent
// index idx into parent.Children[idx], discarding the sibling slot.
func (t *Tree) mergeChildren(parentH *cache.NodeHandle, idx int) error {
	parent := parentH.Node()
	childH, err := t.load(parent.Children[idx])
	if err != nil {
		return err
	}
	siblingH, err := t.load(parent.Children[idx+1])
	if err != nil {
		return err
	}
	child := childH.Node()
	sibling := siblingH.Node()

	base := int(child.NumKeys)
	child.Keys[base] = parent.Keys[idx]
	child.Values[base] = parent.Values[idx]
	for j := 0; j < int(sibling.NumKeys); j++ {
		child.Keys[base+1+j] = sibling.Keys[j]
		child.Values[base+1+j] = sibling.Values[j]
	}
	if !child.IsLeaf {
		for j := 0; j <= int(sibling.NumKeys); j++ {
			child.Children[base+1+j] = sibling.Children[j]
		}
	}
	child.NumKeys = uint32(base + 1 + int(sibling.NumKeys))

	removeKeyAt(parent, idx)
	removeChildAt(parent, idx+1, int(parent.NumKeys)+2)

	childH.MarkDirty()
	parentH.MarkDirty()
	siblingH.Remove() // folded into child; its slot must not be resurrected

	t.log.Debugw("btree merge", "child_addr", childH.Addr(), "absorbed_addr", siblingH.Addr())

	if err := siblingH.Release(); err != nil {
		return err
	}
	return childH.Release()
}
