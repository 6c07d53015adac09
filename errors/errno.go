// Package errors defines the tagged error kinds produced by the TFS engine.
//
// Each kind is a sentinel value so callers can compare with errors.Is, while
// WithMessage/WrapError still attach a human-readable, contextualized
// message without losing the underlying kind.
package errors

import (
	"fmt"
)

type DiskoError string

const ErrInvalidPath = DiskoError("malformed path")
const ErrNotMounted = DiskoError("engine is not mounted")
const ErrAlreadyMounted = DiskoError("engine is already mounted")
const ErrPathNotFound = DiskoError("a component of the path does not exist or is not a directory")
const ErrNotFound = DiskoError("no such file or directory")
const ErrDuplicateEntry = DiskoError("an entry with that name already exists")
const ErrDirNotEmpty = DiskoError("directory not empty")
const ErrOutOfSpace = DiskoError("not enough free blocks")
const ErrFatGuard = DiskoError("illegal FAT mutation")
const ErrBadHandle = DiskoError("invalid or empty open file handle")
const ErrInvalidRead = DiskoError("invalid read of a free or out-of-range block")
const ErrInvalidWrite = DiskoError("invalid write target")
const ErrIOFailed = DiskoError("block device I/O failure")
const ErrIOBounds = DiskoError("block index out of range")
const ErrInvalidDirBytes = DiskoError("directory byte buffer is not a valid multiple of the entry size")

func (e DiskoError) Error() string {
	return string(e)
}

func (e DiskoError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e DiskoError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: fmt.Errorf("%w: %w", e, err),
	}
}
