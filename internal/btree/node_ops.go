package btree

import "github.com/scigolib/compio/internal/format"

// insertKeyAt shifts keys/values in [i, NumKeys) right by one slot and
// writes k/v at i, growing NumKeys by one. Caller must ensure the node
// is not already at full capacity.
func insertKeyAt(n *format.Node, i int, k format.Key, v format.Value) {
	for j := int(n.NumKeys); j > i; j-- {
		n.Keys[j] = n.Keys[j-1]
		n.Values[j] = n.Values[j-1]
	}
	n.Keys[i] = k
	n.Values[i] = v
	n.NumKeys++
}

// removeKeyAt removes the key/value at i, shifting the remainder left,
// and returns what was removed.
func removeKeyAt(n *format.Node, i int) (format.Key, format.Value) {
	k, v := n.Keys[i], n.Values[i]
	for j := i; j < int(n.NumKeys)-1; j++ {
		n.Keys[j] = n.Keys[j+1]
		n.Values[j] = n.Values[j+1]
	}
	n.NumKeys--
	return k, v
}

// insertChildAt shifts children in [i, numChildrenBefore) right by one
// slot and places addr at i. numChildrenBefore is the live child count
// before this insertion (n.NumKeys+1, read before any key is inserted).
func insertChildAt(n *format.Node, i, numChildrenBefore int, addr uint64) {
	for j := numChildrenBefore; j > i; j-- {
		n.Children[j] = n.Children[j-1]
	}
	n.Children[i] = addr
}

// removeChildAt removes the child pointer at i, shifting the remainder
// left, and returns what was removed. numChildrenBefore is the live
// child count before this removal.
func removeChildAt(n *format.Node, i, numChildrenBefore int) uint64 {
	addr := n.Children[i]
	for j := i; j < numChildrenBefore-1; j++ {
		n.Children[j] = n.Children[j+1]
	}
	return addr
}

// findIndex returns the smallest i such that key <= n.Keys[i], and
// whether n.Keys[i] == key at that position (i == NumKeys means key
// sorts after every key in the node).
func findIndex(n *format.Node, key format.Key) (int, bool) {
	i := 0
	for i < int(n.NumKeys) && n.Keys[i].Less(key) {
		i++
	}
	found := i < int(n.NumKeys) && n.Keys[i].Equal(key)
	return i, found
}
