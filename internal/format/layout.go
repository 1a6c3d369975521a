package format

// Sizes of the fixed-width fields making up a Key, Value, and node header
// on disk. Kept as named constants rather than inline magic numbers so
// the serializer's offset math stays self-describing.
const (
	keySize      = 16 // hash64 + pos64
	valueSize    = 16 // addr64 + size64
	childSize    = 8
	nodeHeaderSz = 1 + 4 // is_leaf:u8 + num_keys:u32

	blockHeaderFixedSz = 1 + 8 + 8 + keySize // is_compressed + size + original_size + index_key
)

// NodeLayout captures the on-disk geometry of a B-Tree index node for a
// given minimum-degree parameter. Every node of a tree shares one
// layout; node footprint on disk is constant regardless of how full a
// node actually is.
type NodeLayout struct {
	Degree uint32
}

// MaxKeys returns 2*Degree-1, the node key-array capacity.
func (l NodeLayout) MaxKeys() int { return int(2*l.Degree - 1) }

// MaxChildren returns 2*Degree, the node child-array capacity.
func (l NodeLayout) MaxChildren() int { return int(2 * l.Degree) }

// MinKeys returns Degree-1, the minimum key count for any non-root node.
func (l NodeLayout) MinKeys() int { return int(l.Degree - 1) }

// Size returns the constant on-disk footprint of one node under this
// layout: header + full key array + full value array + full child array.
func (l NodeLayout) Size() int64 {
	maxKeys := int64(l.MaxKeys())
	maxChildren := int64(l.MaxChildren())
	return nodeHeaderSz + maxKeys*keySize + maxKeys*valueSize + maxChildren*childSize
}

// FilesTableSize returns the on-disk size of the fixed-capacity files
// table embedded in the header.
func FilesTableSize() int64 {
	return 8 + int64(MaxFiles)*(int64(NameMax)+8) // n_files:u64 + entries
}

// HeaderSize returns the on-disk size of the archive header.
func HeaderSize() int64 {
	return 4 + 8 + 8 + FilesTableSize() // magic + index_root + file_size + files_table
}

// BlockHeaderSize returns the fixed portion of a storage block's on-disk
// representation, excluding its variable-length Data.
func BlockHeaderSize() int64 {
	return blockHeaderFixedSz
}
