// Package directory implements the File Control Block (directory entry)
// record and the ordered Directory list that holds them.
package directory

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/tfs-go/tfs/errors"
)

// EntrySize is the fixed size, in bytes, of one serialized FCB.
const EntrySize = 24

// RootName is the reserved name of the root directory's self-FCB, entry 0
// of the root directory's own entry list.
const RootName = "ROOT"

// NameSize is the fixed width, in bytes, of the name field.
const NameSize = 15

var byteOrder = binary.BigEndian

// FCB is a directory entry: a file or subdirectory's name, kind, starting
// block, and size.
type FCB struct {
	Name          string
	IsDir         bool
	StartingBlock int32
	SizeBytes     int32
}

// truncateName truncates names longer than NameSize bytes, as required by
// the on-disk name field width.
func truncateName(name string) string {
	raw := []byte(name)
	if len(raw) > NameSize {
		raw = raw[:NameSize]
	}
	return string(raw)
}

// sameName compares two names case-insensitively, matching the source's
// equalsIgnoreCase semantics.
func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Matches reports whether the entry has the given name (case-insensitive)
// and is-directory flag.
func (fcb FCB) Matches(name string, isDir bool) bool {
	return sameName(fcb.Name, name) && fcb.IsDir == isDir
}

// ToBytes serializes the entry into its fixed 24-byte on-disk record.
func (fcb FCB) ToBytes() []byte {
	buf := make([]byte, EntrySize)

	name := []byte(truncateName(fcb.Name))
	copy(buf[:NameSize], name)
	// The rest of the name field is already zero from make([]byte, ...).

	if fcb.IsDir {
		buf[15] = 1
	}

	byteOrder.PutUint32(buf[16:20], uint32(fcb.StartingBlock))
	byteOrder.PutUint32(buf[20:24], uint32(fcb.SizeBytes))

	return buf
}

// FCBFromBytes parses one 24-byte record into an FCB.
func FCBFromBytes(record []byte) (FCB, error) {
	if len(record) != EntrySize {
		return FCB{}, errors.ErrInvalidDirBytes
	}

	name := string(bytes.TrimRight(record[:NameSize], "\x00"))
	isDir := record[15] != 0
	startingBlock := int32(byteOrder.Uint32(record[16:20]))
	sizeBytes := int32(byteOrder.Uint32(record[20:24]))

	return FCB{
		Name:          name,
		IsDir:         isDir,
		StartingBlock: startingBlock,
		SizeBytes:     sizeBytes,
	}, nil
}

// TruncateName exposes the on-disk name-width truncation so callers can
// normalize a requested name before comparing it against stored entries.
func TruncateName(name string) string {
	return truncateName(name)
}

// NewFCB builds an FCB, truncating the name to the on-disk width up front
// so in-memory comparisons see the same name a round trip through disk
// would produce.
func NewFCB(name string, isDir bool, startingBlock, sizeBytes int32) FCB {
	return FCB{
		Name:          truncateName(name),
		IsDir:         isDir,
		StartingBlock: startingBlock,
		SizeBytes:     sizeBytes,
	}
}
