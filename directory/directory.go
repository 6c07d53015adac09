package directory

import (
	"github.com/tfs-go/tfs/errors"
)

// Directory is an ordered list of FCB records, matching the on-disk
// representation: the concatenation of each entry's 24-byte record, in
// order.
type Directory struct {
	entries []FCB
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{}
}

// FromEntries wraps an already-built entry slice as a Directory.
func FromEntries(entries []FCB) *Directory {
	return &Directory{entries: entries}
}

// Entries returns the directory's entries in order. Callers must not
// retain the slice past the next mutation.
func (d *Directory) Entries() []FCB {
	return d.entries
}

// Len returns the number of entries in the directory.
func (d *Directory) Len() int {
	return len(d.entries)
}

// ByteSize returns the on-disk size of the directory: num_entries * 24.
func (d *Directory) ByteSize() int32 {
	return int32(len(d.entries)) * EntrySize
}

// ToBytes serializes the directory as the concatenation of its entries'
// records, in list order. An empty directory serializes to an empty
// buffer.
func (d *Directory) ToBytes() []byte {
	buf := make([]byte, 0, len(d.entries)*EntrySize)
	for _, entry := range d.entries {
		buf = append(buf, entry.ToBytes()...)
	}
	return buf
}

// FromBytes parses a directory from a byte buffer. size must be a
// non-negative multiple of EntrySize.
func FromBytes(buf []byte, size int32) (*Directory, error) {
	if size < 0 || size%EntrySize != 0 {
		return nil, errors.ErrInvalidDirBytes
	}

	count := int(size) / EntrySize
	entries := make([]FCB, 0, count)
	for i := 0; i < count; i++ {
		start := i * EntrySize
		entry, err := FCBFromBytes(buf[start : start+EntrySize])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return &Directory{entries: entries}, nil
}

// Find returns the index of the entry matching (name, isDir), or -1 if
// none exists.
func (d *Directory) Find(name string, isDir bool) int {
	for i, entry := range d.entries {
		if entry.Matches(name, isDir) {
			return i
		}
	}
	return -1
}

// Contains reports whether an entry matching (name, isDir) exists.
func (d *Directory) Contains(name string, isDir bool) bool {
	return d.Find(name, isDir) >= 0
}

// Add appends entry to the directory. It fails with ErrDuplicateEntry if
// an entry with the same name and is-directory flag already exists.
func (d *Directory) Add(entry FCB) error {
	if d.Contains(entry.Name, entry.IsDir) {
		return errors.ErrDuplicateEntry.WithMessage(entry.Name)
	}
	d.entries = append(d.entries, entry)
	return nil
}

// RemoveByName removes the entry matching (name, isDir). It fails with
// ErrNotFound if no such entry exists.
func (d *Directory) RemoveByName(name string, isDir bool) error {
	index := d.Find(name, isDir)
	if index < 0 {
		return errors.ErrNotFound.WithMessage(name)
	}
	d.entries = append(d.entries[:index], d.entries[index+1:]...)
	return nil
}

// Remove removes an entry matching entry's name and is-directory flag.
func (d *Directory) Remove(entry FCB) error {
	return d.RemoveByName(entry.Name, entry.IsDir)
}

// Update overwrites the stored entry matching (key.Name, key.IsDir) with
// replacement in its entirety. It fails with ErrNotFound if absent.
func (d *Directory) Update(key FCB, replacement FCB) error {
	index := d.Find(key.Name, key.IsDir)
	if index < 0 {
		return errors.ErrNotFound.WithMessage(key.Name)
	}
	d.entries[index] = replacement
	return nil
}

// UpdateName renames the entry matching (name, isDir) to newName. It fails
// with ErrNotFound if absent.
func (d *Directory) UpdateName(name string, isDir bool, newName string) error {
	index := d.Find(name, isDir)
	if index < 0 {
		return errors.ErrNotFound.WithMessage(name)
	}
	d.entries[index].Name = truncateName(newName)
	return nil
}

// UpdateLocation changes the starting block of the entry matching (name,
// isDir). It fails with ErrNotFound if absent.
func (d *Directory) UpdateLocation(name string, isDir bool, startingBlock int32) error {
	index := d.Find(name, isDir)
	if index < 0 {
		return errors.ErrNotFound.WithMessage(name)
	}
	d.entries[index].StartingBlock = startingBlock
	return nil
}

// UpdateSize changes the byte size of the entry matching (name, isDir). It
// fails with ErrNotFound if absent.
func (d *Directory) UpdateSize(name string, isDir bool, sizeBytes int32) error {
	index := d.Find(name, isDir)
	if index < 0 {
		return errors.ErrNotFound.WithMessage(name)
	}
	d.entries[index].SizeBytes = sizeBytes
	return nil
}
