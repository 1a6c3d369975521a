package btree

import (
	"fmt"
	"os"
	"testing"

	"github.com/scigolib/compio/internal/alloc"
	"github.com/scigolib/compio/internal/format"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, degree uint32) (*Tree, *os.File) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "btree")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	a := alloc.New(0, false)
	layout := format.NodeLayout{Degree: degree}
	return Open(f, a, layout, format.EmptyRoot), f
}

func key(hash, pos uint64) format.Key { return format.Key{Hash: hash, Pos: pos} }
func val(addr, size uint64) format.Value { return format.Value{Addr: addr, Size: size} }

func TestInsertGet_SingleKey(t *testing.T) {
	tr, _ := newTestTree(t, 4)

	require.NoError(t, tr.Insert(key(1, 0), val(100, 10)))

	v, ok, err := tr.Get(key(1, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, val(100, 10), v)

	_, ok, err = tr.Get(key(1, 1))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInsertGet_ManyKeysForceSplits(t *testing.T) {
	tr, _ := newTestTree(t, 2) // degree 2: splits after 3 keys in a node

	const n = 100
	for i := 0; i < n; i++ {
		require.NoError(t, tr.Insert(key(1, uint64(i)), val(uint64(i)*16, 16)))
	}

	for i := 0; i < n; i++ {
		v, ok, err := tr.Get(key(1, uint64(i)))
		require.NoError(t, err)
		require.True(t, ok, "key %d should be present", i)
		require.Equal(t, val(uint64(i)*16, 16), v)
	}
}

func TestUpdate_ExistingKey(t *testing.T) {
	tr, _ := newTestTree(t, 4)
	require.NoError(t, tr.Insert(key(1, 0), val(100, 10)))

	require.NoError(t, tr.Update(key(1, 0), val(999, 20)))

	v, ok, err := tr.Get(key(1, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, val(999, 20), v)
}

func TestUpdate_MissingKeyFails(t *testing.T) {
	tr, _ := newTestTree(t, 4)
	err := tr.Update(key(1, 0), val(1, 1))
	require.Error(t, err)
}

func TestRangeQuery_HalfOpenRange(t *testing.T) {
	tr, _ := newTestTree(t, 4)

	for i := 0; i < 10; i++ {
		require.NoError(t, tr.Insert(key(1, uint64(i*10)), val(uint64(i), 10)))
	}

	pairs, err := tr.RangeQuery(key(1, 20), key(1, 60))
	require.NoError(t, err)

	require.Len(t, pairs, 4) // positions 20,30,40,50
	for idx, p := range pairs {
		require.Equal(t, key(1, uint64(20+idx*10)), p.Key)
	}
}

func TestFindFloor(t *testing.T) {
	tr, _ := newTestTree(t, 4)

	require.NoError(t, tr.Insert(key(1, 0), val(1, 10)))
	require.NoError(t, tr.Insert(key(1, 10), val(2, 10)))
	require.NoError(t, tr.Insert(key(1, 30), val(3, 10)))

	k, v, ok, err := tr.FindFloor(key(1, 25))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, key(1, 10), k)
	require.Equal(t, val(2, 10), v)

	_, _, ok, err = tr.FindFloor(key(1, 0))
	require.NoError(t, err)
	require.True(t, ok)

	_, _, ok, err = tr.FindFloor(key(0, 0))
	require.NoError(t, err)
	require.False(t, ok, "no key smaller than the smallest key in the tree")
}

func TestRemove_LeafKey(t *testing.T) {
	tr, _ := newTestTree(t, 4)
	require.NoError(t, tr.Insert(key(1, 0), val(1, 1)))
	require.NoError(t, tr.Insert(key(1, 1), val(2, 2)))

	require.NoError(t, tr.Remove(key(1, 0)))

	_, ok, err := tr.Get(key(1, 0))
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := tr.Get(key(1, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, val(2, 2), v)
}

func TestRemove_MissingKeyFails(t *testing.T) {
	tr, _ := newTestTree(t, 4)
	require.NoError(t, tr.Insert(key(1, 0), val(1, 1)))

	err := tr.Remove(key(1, 99))
	require.Error(t, err)
}

func TestRemove_AllKeysForcesRebalancingAndEmptiesTree(t *testing.T) {
	tr, _ := newTestTree(t, 2)

	const n = 60
	for i := 0; i < n; i++ {
		require.NoError(t, tr.Insert(key(1, uint64(i)), val(uint64(i), 1)))
	}

	for i := 0; i < n; i++ {
		require.NoError(t, tr.Remove(key(1, uint64(i))), "removing key %d", i)
		for j := i + 1; j < n; j++ {
			v, ok, err := tr.Get(key(1, uint64(j)))
			require.NoError(t, err)
			require.True(t, ok, "key %d should survive removal of key %d", j, i)
			require.Equal(t, val(uint64(j), 1), v)
		}
	}

	require.Equal(t, uint64(format.EmptyRoot), tr.RootAddr())
}

func TestRemove_ReverseOrderAlsoRebalancesCorrectly(t *testing.T) {
	tr, _ := newTestTree(t, 2)

	const n = 40
	for i := 0; i < n; i++ {
		require.NoError(t, tr.Insert(key(1, uint64(i)), val(uint64(i), 1)))
	}

	for i := n - 1; i >= 0; i-- {
		require.NoError(t, tr.Remove(key(1, uint64(i))), "removing key %d", i)
	}

	require.Equal(t, uint64(format.EmptyRoot), tr.RootAddr())
}

func TestDistinctHashBandsDoNotInterfere(t *testing.T) {
	tr, _ := newTestTree(t, 2)

	for file := uint64(0); file < 5; file++ {
		for pos := uint64(0); pos < 20; pos++ {
			require.NoError(t, tr.Insert(key(file, pos), val(file*1000+pos, 1)))
		}
	}

	for file := uint64(0); file < 5; file++ {
		pairs, err := tr.RangeQuery(key(file, 0), key(file+1, 0))
		require.NoError(t, err)
		require.Len(t, pairs, 20, fmt.Sprintf("hash band %d", file))
	}
}
