// Package fat implements the File Allocation Table: a flat integer array
// describing, for each block on the device, whether it is free, the
// terminal block of a chain, or linked to a successor block.
package fat

import (
	"fmt"

	"github.com/tfs-go/tfs/errors"
)

// Sentinel FAT entry values, as defined by the on-disk format.
const (
	Free       = int32(0)
	EndOfChain = int32(-1)
	// OutOfRange is returned by Get for an index outside the table; it is
	// never a valid stored entry.
	OutOfRange = int32(-2)
)

// Table is the in-memory File Allocation Table. ReservedEnd is the index of
// the last block occupied by the PCB+FAT region itself (inclusive); entries
// at or below it may only be set once, at mkfs time.
type Table struct {
	entries     []int32
	ReservedEnd int32
}

// New creates a FAT of length n with every entry free, PCB/FAT region
// reserved up to and including reservedEnd.
func New(n int, reservedEnd int32) *Table {
	return &Table{
		entries:     make([]int32, n),
		ReservedEnd: reservedEnd,
	}
}

// FromSlice wraps an already-populated entry slice (e.g. one just read from
// disk) as a Table.
func FromSlice(entries []int32, reservedEnd int32) *Table {
	return &Table{entries: entries, ReservedEnd: reservedEnd}
}

// Len returns the number of blocks this table describes. It replaces a
// naive uninitialized-field accessor with the one value that can never
// drift out of sync with the backing slice.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries exposes the raw backing slice for serialization. Callers must not
// retain it past the next mutation.
func (t *Table) Entries() []int32 {
	return t.entries
}

func (t *Table) inRange(i int32) bool {
	return i >= 0 && int(i) < len(t.entries)
}

func (t *Table) isReserved(i int32) bool {
	return i <= t.ReservedEnd
}

// Get returns the entry for block i, or OutOfRange if i is outside the
// table.
func (t *Table) Get(i int32) int32 {
	if !t.inRange(i) {
		return OutOfRange
	}
	return t.entries[i]
}

// Set installs v as the successor of block i. Mutating a reserved
// (PCB/FAT) block after it has already been initialized is rejected with
// ErrFatGuard.
func (t *Table) Set(i int32, v int32) error {
	if !t.inRange(i) {
		return errors.ErrIOBounds.WithMessage(
			fmt.Sprintf("block index %d not in [0, %d)", i, len(t.entries)))
	}
	if v < -1 || int(v) >= len(t.entries) {
		return errors.ErrIOBounds.WithMessage(
			fmt.Sprintf("FAT value %d not in [-1, %d)", v, len(t.entries)))
	}
	if t.isReserved(i) && t.entries[i] != Free {
		return errors.ErrFatGuard.WithMessage(
			fmt.Sprintf("block %d is part of the reserved PCB/FAT region", i))
	}

	t.entries[i] = v
	return nil
}

// Walk returns every block in the chain that starts at head, in order,
// stopping at (and excluding) the terminal EndOfChain marker.
func (t *Table) Walk(head int32) []int32 {
	var chain []int32
	seen := make(map[int32]bool)

	block := head
	for block != EndOfChain {
		if !t.inRange(block) || seen[block] {
			break
		}
		seen[block] = true
		chain = append(chain, block)
		block = t.entries[block]
	}
	return chain
}

// FreeChain releases every block in the chain starting at head back to the
// free pool. head must be at or past the root directory's block; the PCB
// and FAT's own reserved chain is never freed by this call.
func (t *Table) FreeChain(head int32, rootDirBlock int32) error {
	if head < rootDirBlock {
		return errors.ErrFatGuard.WithMessage(
			fmt.Sprintf("refusing to free chain at %d, below root directory block %d", head, rootDirBlock))
	}

	for _, block := range t.Walk(head) {
		t.entries[block] = Free
	}
	return nil
}

// OneFree returns any free block other than pivot, or -1 if none exists.
func (t *Table) OneFree(pivot int32) int32 {
	for i, v := range t.entries {
		if v == Free && int32(i) != pivot {
			return int32(i)
		}
	}
	return -1
}

// Allocate returns up to n free block indices, skipping the reserved
// PCB/FAT region and the pivot (first_free_block). It fails with
// ErrOutOfSpace if fewer than n blocks are available.
func (t *Table) Allocate(n int, pivot int32) ([]int32, error) {
	result := make([]int32, 0, n)
	for i := int32(0); i < int32(len(t.entries)) && len(result) < n; i++ {
		if t.isReserved(i) || i == pivot {
			continue
		}
		if t.entries[i] == Free {
			result = append(result, i)
		}
	}

	if len(result) < n {
		return nil, errors.ErrOutOfSpace.WithMessage(
			fmt.Sprintf("requested %d free blocks, found %d", n, len(result)))
	}
	return result, nil
}
