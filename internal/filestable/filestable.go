// Package filestable manages the fixed-capacity roster of logical files
// embedded in the archive header: lookup by name, insertion of a new
// entry, and compacting removal.
package filestable

import (
	"github.com/scigolib/compio/internal/format"
	"github.com/scigolib/compio/internal/utils"
)

// Find returns the index of name within t.Entries[:t.NFiles], or -1 if
// absent.
func Find(t *format.FilesTable, name string) int {
	for i := uint64(0); i < t.NFiles; i++ {
		if t.Entries[i].NameString() == name {
			return int(i)
		}
	}
	return -1
}

// Add appends a new entry for name with the given initial size. It fails
// with invalid-argument if name is empty or already exists, name-too-long
// if name is longer than NameMax, and too-many-files if the table is
// already at capacity.
func Add(t *format.FilesTable, name string, size uint64) error {
	if name == "" {
		return utils.NewError(utils.KindInvalidArgument, "filestable.Add", nil)
	}
	if len(name) > format.NameMax {
		return utils.NewError(utils.KindNameTooLong, "filestable.Add", nil)
	}
	if Find(t, name) >= 0 {
		return utils.NewError(utils.KindInvalidArgument, "filestable.Add", nil)
	}
	if t.NFiles >= uint64(format.MaxFiles) {
		return utils.NewError(utils.KindTooManyFiles, "filestable.Add", nil)
	}

	idx := t.NFiles
	var entry format.FileEntry
	copy(entry.Name[:], name)
	entry.Size = size
	t.Entries[idx] = entry
	t.NFiles++
	return nil
}

// Remove deletes the entry for name, compacting the entries that
// followed it down by one slot so [0, NFiles) stays contiguous. Returns
// no-such-file if name is not present.
func Remove(t *format.FilesTable, name string) error {
	idx := Find(t, name)
	if idx < 0 {
		return utils.NewError(utils.KindNoSuchFile, "filestable.Remove", nil)
	}

	for i := idx; i < int(t.NFiles)-1; i++ {
		t.Entries[i] = t.Entries[i+1]
	}
	t.Entries[t.NFiles-1] = format.FileEntry{}
	t.NFiles--
	return nil
}

// SetSize updates the recorded logical size of an existing entry.
func SetSize(t *format.FilesTable, name string, size uint64) error {
	idx := Find(t, name)
	if idx < 0 {
		return utils.NewError(utils.KindNoSuchFile, "filestable.SetSize", nil)
	}
	t.Entries[idx].Size = size
	return nil
}
