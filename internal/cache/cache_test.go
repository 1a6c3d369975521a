package cache

import (
	"os"
	"testing"

	"github.com/scigolib/compio/internal/format"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) Store {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "cache")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestNew_ReleaseWritesBack(t *testing.T) {
	store := tempStore(t)
	layout := format.NodeLayout{Degree: 4}

	n := format.NewNode(layout.Degree, true)
	n.NumKeys = 1
	n.Keys[0] = format.Key{Hash: 1, Pos: 0}

	h := New(store, layout, n)
	h.SetAddr(0)
	require.NoError(t, h.Release())

	loaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), loaded.Node().NumKeys)
}

func TestLoad_MarkDirtyThenRelease(t *testing.T) {
	store := tempStore(t)
	layout := format.NodeLayout{Degree: 4}

	n := format.NewNode(layout.Degree, true)
	h := New(store, layout, n)
	h.SetAddr(0)
	require.NoError(t, h.Release())

	loaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	loaded.Node().NumKeys = 3
	loaded.MarkDirty()
	require.NoError(t, loaded.Release())

	reloaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), reloaded.Node().NumKeys)
}

func TestLoad_ReleaseWithoutDirtyIsNoOp(t *testing.T) {
	store := tempStore(t)
	layout := format.NodeLayout{Degree: 4}

	n := format.NewNode(layout.Degree, true)
	n.NumKeys = 2
	h := New(store, layout, n)
	h.SetAddr(0)
	require.NoError(t, h.Release())

	loaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	loaded.Node().NumKeys = 99 // mutate without MarkDirty
	require.NoError(t, loaded.Release())

	reloaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), reloaded.Node().NumKeys, "unmarked mutation must not be persisted")
}

func TestRemove_SuppressesWriteBack(t *testing.T) {
	store := tempStore(t)
	layout := format.NodeLayout{Degree: 4}

	n := format.NewNode(layout.Degree, true)
	n.NumKeys = 1
	h := New(store, layout, n)
	h.SetAddr(0)
	require.NoError(t, h.Release())

	loaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	loaded.Node().NumKeys = 7
	loaded.MarkDirty()
	loaded.Remove()
	require.NoError(t, loaded.Release())

	reloaded, err := Load(store, layout, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), reloaded.Node().NumKeys)
}
