package btree

import "github.com/scigolib/compio/internal/format"

// Pair is one key/value result from a range query.
type Pair struct {
	Key   format.Key
	Value format.Value
}

// RangeQuery returns every key/value pair with key in the half-open
// range [kMin, kMax), in ascending key order, via a pruned in-order
// traversal.
func (t *Tree) RangeQuery(kMin, kMax format.Key) ([]Pair, error) {
	if t.rootAddr == format.EmptyRoot {
		return nil, nil
	}
	var out []Pair
	if err := t.rangeQuery(t.rootAddr, kMin, kMax, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) rangeQuery(addr uint64, kMin, kMax format.Key, out *[]Pair) error {
	h, err := t.load(addr)
	if err != nil {
		return err
	}
	n := h.Node()

	for i := 0; i < int(n.NumKeys); i++ {
		if !n.IsLeaf && kMin.Less(n.Keys[i]) {
			if err := t.rangeQuery(n.Children[i], kMin, kMax, out); err != nil {
				return err
			}
		}
		if !n.Keys[i].Less(kMax) {
			return nil
		}
		if !n.Keys[i].Less(kMin) {
			*out = append(*out, Pair{Key: n.Keys[i], Value: n.Values[i]})
		}
	}

	if !n.IsLeaf {
		if err := t.rangeQuery(n.Children[n.NumKeys], kMin, kMax, out); err != nil {
			return err
		}
	}
	return nil
}

// FindFloor returns the largest key <= key present in the tree, along
// with its value. ok is false if no such key exists (key is smaller
// than every key in the tree, or the tree is empty).
func (t *Tree) FindFloor(key format.Key) (format.Key, format.Value, bool, error) {
	if t.rootAddr == format.EmptyRoot {
		return format.Key{}, format.Value{}, false, nil
	}
	return t.findFloor(t.rootAddr, key)
}

func (t *Tree) findFloor(addr uint64, key format.Key) (format.Key, format.Value, bool, error) {
	h, err := t.load(addr)
	if err != nil {
		return format.Key{}, format.Value{}, false, err
	}
	n := h.Node()

	i, found := findIndex(n, key)
	if found {
		return n.Keys[i], n.Values[i], true, nil
	}

	if !n.IsLeaf {
		if fk, fv, ok, err := t.findFloor(n.Children[i], key); err != nil {
			return format.Key{}, format.Value{}, false, err
		} else if ok {
			return fk, fv, true, nil
		}
	}

	// No floor in the child subtree (or no child to descend into): the
	// largest key in this node strictly less than key, if any, is the
	// best candidate.
	if i > 0 {
		return n.Keys[i-1], n.Values[i-1], true, nil
	}
	return format.Key{}, format.Value{}, false, nil
}
