package compio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempArchivePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "archive.compio")
}

// tempEmptyArchivePath returns a path to a zero-length file that already
// exists on disk, so opening it in read-only mode does not require
// create permission.
func tempEmptyArchivePath(t *testing.T) string {
	t.Helper()
	path := tempArchivePath(t)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return path
}

func TestOpen_ZeroLengthFileInReadModeHasNoFiles(t *testing.T) {
	path := tempEmptyArchivePath(t)

	a, err := Open(path, ModeRead, NewConfig())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	_, err = a.OpenFile("missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoSuchFile))
}

func TestOpen_ZeroLengthFileInWriteModeCreatesEntries(t *testing.T) {
	path := tempArchivePath(t)

	a, err := Open(path, ModeWrite, NewConfig())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	fh, err := a.OpenFile("newfile")
	require.NoError(t, err)
	require.Equal(t, uint64(0), fh.Size())

	names, err := a.ListFiles()
	require.NoError(t, err)
	require.Contains(t, names, "newfile")
}

func TestScenarioA_BasicSpliceEndToEnd(t *testing.T) {
	path := tempArchivePath(t)
	cfg := NewConfig(WithBlockSize(16), WithBTreeDegree(4))

	a, err := Open(path, ModeWrite, cfg)
	require.NoError(t, err)

	fh, err := a.OpenFile("a")
	require.NoError(t, err)

	_, err = fh.Write([]byte("HELLOWORLD!!!!!!"))
	require.NoError(t, err)

	_, err = fh.Seek(5, SeekSet)
	require.NoError(t, err)
	_, err = fh.Write([]byte(","))
	require.NoError(t, err)

	_, err = fh.Seek(0, SeekSet)
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := fh.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	require.Equal(t, "HELLO,WORLD!!!!!", string(buf))
	require.Equal(t, uint64(16), fh.Size())
	require.NoError(t, fh.Close())
	require.NoError(t, a.Close())

	// Reopen and verify the header/index survived the round trip.
	a2, err := Open(path, ModeReadWrite, cfg)
	require.NoError(t, err)
	defer func() { _ = a2.Close() }()

	fh2, err := a2.OpenFile("a")
	require.NoError(t, err)
	require.Equal(t, uint64(16), fh2.Size())

	buf2 := make([]byte, 16)
	n, err = fh2.Read(buf2)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	require.Equal(t, "HELLO,WORLD!!!!!", string(buf2))
}

func TestScenarioE_RemoveThenRecreate(t *testing.T) {
	path := tempArchivePath(t)
	cfg := NewConfig(WithBlockSize(16), WithBTreeDegree(4))

	a, err := Open(path, ModeWrite, cfg)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	fhA, err := a.OpenFile("a")
	require.NoError(t, err)
	_, err = fhA.Write([]byte("AAAAA"))
	require.NoError(t, err)

	fhB, err := a.OpenFile("b")
	require.NoError(t, err)
	_, err = fhB.Write([]byte("BBBBB"))
	require.NoError(t, err)

	require.NoError(t, a.RemoveFile("a"))

	names, err := a.ListFiles()
	require.NoError(t, err)
	require.NotContains(t, names, "a")
	require.Contains(t, names, "b")

	fhNewA, err := a.OpenFile("a")
	require.NoError(t, err)
	require.Equal(t, uint64(0), fhNewA.Size())

	buf := make([]byte, 5)
	n, err := fhNewA.Read(buf)
	require.Error(t, err) // io.EOF on an empty file
	require.Equal(t, 0, n)

	fhB2, err := a.OpenFile("b")
	require.NoError(t, err)
	require.Equal(t, uint64(5), fhB2.Size())

	bufB := make([]byte, 5)
	n, err = fhB2.Read(bufB)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "BBBBB", string(bufB))
}

func TestOpenFile_NameTooLong(t *testing.T) {
	path := tempArchivePath(t)
	a, err := Open(path, ModeWrite, NewConfig())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	longName := make([]byte, 100)
	for i := range longName {
		longName[i] = 'x'
	}

	_, err = a.OpenFile(string(longName))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNameTooLong))
}

func TestWrite_OnReadOnlyArchiveFails(t *testing.T) {
	path := tempArchivePath(t)

	a, err := Open(path, ModeWrite, NewConfig())
	require.NoError(t, err)
	fh, err := a.OpenFile("a")
	require.NoError(t, err)
	_, err = fh.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	ro, err := Open(path, ModeRead, NewConfig())
	require.NoError(t, err)
	defer func() { _ = ro.Close() }()

	fhRO, err := ro.OpenFile("a")
	require.NoError(t, err)

	_, err = fhRO.Write([]byte("x"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrReadOnly))
}

func TestMode_UnknownModeFailsInvalidArgument(t *testing.T) {
	path := tempArchivePath(t)
	_, err := Open(path, Mode("bogus"), NewConfig())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestSeek_PastEndThenWriteCreatesHole(t *testing.T) {
	path := tempArchivePath(t)
	a, err := Open(path, ModeWrite, NewConfig(WithBlockSize(16)))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	fh, err := a.OpenFile("a")
	require.NoError(t, err)

	_, err = fh.Seek(10, SeekSet)
	require.NoError(t, err)
	_, err = fh.Write([]byte("X"))
	require.NoError(t, err)
	require.Equal(t, uint64(11), fh.Size())

	_, err = fh.Seek(0, SeekSet)
	require.NoError(t, err)
	buf := make([]byte, 11)
	n, err := fh.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, append(make([]byte, 10), 'X'), buf)
}

func TestOpenFile_AppendModePositionsCursorAtEnd(t *testing.T) {
	path := tempArchivePath(t)

	a, err := Open(path, ModeWrite, NewConfig())
	require.NoError(t, err)
	fh, err := a.OpenFile("a")
	require.NoError(t, err)
	_, err = fh.Write([]byte("HELLO"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	ap, err := Open(path, ModeAppend, NewConfig())
	require.NoError(t, err)
	defer func() { _ = ap.Close() }()

	fhAppend, err := ap.OpenFile("a")
	require.NoError(t, err)
	require.Equal(t, int64(5), fhAppend.Tell())

	_, err = fhAppend.Write([]byte("WORLD"))
	require.NoError(t, err)
	require.Equal(t, uint64(10), fhAppend.Size())
}

func TestOpen_ReadWriteModeFailsOnMissingArchive(t *testing.T) {
	path := tempArchivePath(t)

	_, err := Open(path, ModeReadWrite, NewConfig())
	require.Error(t, err)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
