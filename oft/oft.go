// Package oft implements the in-memory Open File Table: a fixed-capacity
// array of handles, each holding a copy of the opened file's FCB and a
// current byte offset.
package oft

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
)

// Entry is one open-file-table slot: a value copy of the FCB as of open
// time, plus the handle's current read/write offset.
type Entry struct {
	FCB    directory.FCB
	Offset int64
}

// Table is the fixed-capacity open file table. occupied tracks which
// slots are in use with a bitmap, so Add finds the first empty slot by
// scanning the bitmap rather than inspecting the stored entries.
type Table struct {
	entries  []Entry
	occupied bitmap.Bitmap
}

// New creates an OFT with the given capacity.
func New(capacity int) *Table {
	return &Table{
		entries:  make([]Entry, capacity),
		occupied: bitmap.New(capacity),
	}
}

// Capacity returns the number of handles the table can hold at once.
func (t *Table) Capacity() int {
	return len(t.entries)
}

func (t *Table) validHandle(h int) bool {
	return h >= 0 && h < len(t.entries)
}

func (t *Table) checkHandle(h int) error {
	if !t.validHandle(h) || !t.occupied.Get(h) {
		return errors.ErrBadHandle.WithMessage(fmt.Sprintf("handle %d", h))
	}
	return nil
}

// Add installs fcb with the given starting offset in the first empty
// slot and returns its handle. offset must be in [0, fcb.SizeBytes].
func (t *Table) Add(fcb directory.FCB, offset int64) (int, error) {
	if offset < 0 || offset > int64(fcb.SizeBytes) {
		return -1, errors.ErrBadHandle.WithMessage(
			fmt.Sprintf("offset %d out of range [0, %d]", offset, fcb.SizeBytes))
	}

	for i := 0; i < len(t.entries); i++ {
		if !t.occupied.Get(i) {
			t.entries[i] = Entry{FCB: fcb, Offset: offset}
			t.occupied.Set(i, true)
			return i, nil
		}
	}

	return -1, errors.ErrOutOfSpace.WithMessage("open file table is full")
}

// Remove clears the slot for handle h.
func (t *Table) Remove(h int) error {
	if err := t.checkHandle(h); err != nil {
		return err
	}
	t.entries[h] = Entry{}
	t.occupied.Set(h, false)
	return nil
}

// Get returns the entry stored at handle h.
func (t *Table) Get(h int) (Entry, error) {
	if err := t.checkHandle(h); err != nil {
		return Entry{}, err
	}
	return t.entries[h], nil
}

// LookupHandle scans for a slot whose stored FCB matches fcb by name,
// is-directory flag, and starting block. It returns -1 if none is open.
func (t *Table) LookupHandle(fcb directory.FCB) int {
	for i := 0; i < len(t.entries); i++ {
		if !t.occupied.Get(i) {
			continue
		}
		stored := t.entries[i].FCB
		if stored.Matches(fcb.Name, fcb.IsDir) && stored.StartingBlock == fcb.StartingBlock {
			return i
		}
	}
	return -1
}

// UpdateOffset sets the current offset of handle h. v must be in
// [0, fcb.SizeBytes] for the slot's current FCB.
func (t *Table) UpdateOffset(h int, v int64) error {
	if err := t.checkHandle(h); err != nil {
		return err
	}
	fcb := t.entries[h].FCB
	if v < 0 || v > int64(fcb.SizeBytes) {
		return errors.ErrBadHandle.WithMessage(
			fmt.Sprintf("offset %d out of range [0, %d]", v, fcb.SizeBytes))
	}
	t.entries[h].Offset = v
	return nil
}

// UpdateFCB replaces the FCB stored at handle h, e.g. after a rename or a
// size change.
func (t *Table) UpdateFCB(h int, fcb directory.FCB) error {
	if err := t.checkHandle(h); err != nil {
		return err
	}
	t.entries[h].FCB = fcb
	return nil
}
