package serializer

import (
	"io"

	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/utils"
)

// ReadNode parses a node at addr according to layout. Key/Value/Children
// arrays are always read at full capacity; NumKeys marks how many slots
// are live.
func ReadNode(r utils.ReaderAt, addr int64, layout format.NodeLayout) (*format.Node, error) {
	buf := make([]byte, layout.Size())
	if _, err := r.ReadAt(buf, addr); err != nil {
		return nil, utils.WrapError("read node", err)
	}

	n := format.NewNode(layout.Degree, false)
	off := 0

	n.IsLeaf = buf[off] != 0
	off++
	n.NumKeys = order.Uint32(buf[off:])
	off += 4

	maxKeys := layout.MaxKeys()
	for i := 0; i < maxKeys; i++ {
		n.Keys[i] = format.Key{
			Hash: order.Uint64(buf[off:]),
			Pos:  order.Uint64(buf[off+8:]),
		}
		off += 16
	}
	for i := 0; i < maxKeys; i++ {
		n.Values[i] = format.Value{
			Addr: order.Uint64(buf[off:]),
			Size: order.Uint64(buf[off+8:]),
		}
		off += 16
	}

	maxChildren := layout.MaxChildren()
	for i := 0; i < maxChildren; i++ {
		n.Children[i] = order.Uint64(buf[off:])
		off += 8
	}

	return n, nil
}

// WriteNode writes n at addr according to layout. n's arrays must be at
// full layout capacity (as produced by format.NewNode).
func WriteNode(w io.WriterAt, addr int64, n *format.Node, layout format.NodeLayout) error {
	buf := make([]byte, layout.Size())
	off := 0

	if n.IsLeaf {
		buf[off] = 1
	}
	off++
	order.PutUint32(buf[off:], n.NumKeys)
	off += 4

	maxKeys := layout.MaxKeys()
	for i := 0; i < maxKeys; i++ {
		order.PutUint64(buf[off:], n.Keys[i].Hash)
		order.PutUint64(buf[off+8:], n.Keys[i].Pos)
		off += 16
	}
	for i := 0; i < maxKeys; i++ {
		order.PutUint64(buf[off:], n.Values[i].Addr)
		order.PutUint64(buf[off+8:], n.Values[i].Size)
		off += 16
	}

	maxChildren := layout.MaxChildren()
	for i := 0; i < maxChildren; i++ {
		order.PutUint64(buf[off:], n.Children[i])
		off += 8
	}

	if _, err := w.WriteAt(buf, addr); err != nil {
		return utils.WrapError("write node", err)
	}
	return nil
}
