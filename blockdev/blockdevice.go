// Package blockdev implements the primitive block device the TFS engine is
// built on: fixed-size block reads and writes against a seekable stream
// that emulates a block storage medium of constant capacity. In production
// that stream is a single host file; tests back it with an in-memory
// buffer instead.
package blockdev

import (
	"fmt"
	"io"
	"os"

	"github.com/tfs-go/tfs/errors"
)

// Stream is the minimal interface a backing store must satisfy. *os.File
// satisfies it directly; bytesextra.NewReadWriteSeeker over a []byte does
// too, for fast in-memory tests.
type Stream interface {
	io.ReadWriteSeeker
}

// BlockDevice addresses a Stream as a sequence of fixed-size blocks.
// BlockSize and TotalBlocks are fixed for the lifetime of the device;
// they're established at construction and never change.
type BlockDevice struct {
	BlockSize   uint32
	TotalBlocks uint32

	stream Stream
	closer io.Closer
}

// FromStream wraps an already-open Stream as a BlockDevice. Used directly
// by tests; Create/Open/OpenExisting use it internally for the os.File
// case.
func FromStream(stream Stream, totalBlocks, blockSize uint32) *BlockDevice {
	dev := &BlockDevice{BlockSize: blockSize, TotalBlocks: totalBlocks, stream: stream}
	if closer, ok := stream.(io.Closer); ok {
		dev.closer = closer
	}
	return dev
}

// Create replaces any existing file at name, preallocates totalBytes, and
// returns a device opened for read/write with the given block size.
func Create(name string, totalBytes int64, blockSize uint32) (*BlockDevice, error) {
	file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}

	if err := file.Truncate(totalBytes); err != nil {
		file.Close()
		os.Remove(name)
		return nil, errors.ErrIOFailed.WrapError(err)
	}

	return FromStream(file, uint32(totalBytes)/blockSize, blockSize), nil
}

// Open opens an existing container file, verifying it is at least
// totalBytes long, and returns a device with the given block size.
func Open(name string, totalBytes int64, blockSize uint32) (*BlockDevice, error) {
	file, err := os.OpenFile(name, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.ErrIOFailed.WrapError(err)
	}
	if info.Size() < totalBytes {
		file.Close()
		return nil, errors.ErrIOFailed.WithMessage(
			fmt.Sprintf("container %q is %d bytes, expected at least %d", name, info.Size(), totalBytes))
	}

	return FromStream(file, uint32(totalBytes)/blockSize, blockSize), nil
}

// OpenExisting opens a container file whose size determines the block
// count, given a known block size.
func OpenExisting(name string, blockSize uint32) (*BlockDevice, error) {
	file, err := os.OpenFile(name, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.ErrIOFailed.WrapError(err)
	}

	return FromStream(file, uint32(info.Size())/blockSize, blockSize), nil
}

// GetBlockCount returns the number of addressable blocks on the device.
func (dev *BlockDevice) GetBlockCount() uint32 {
	return dev.TotalBlocks
}

func (dev *BlockDevice) checkIndex(index uint32) error {
	if index >= dev.TotalBlocks {
		return errors.ErrIOBounds.WithMessage(
			fmt.Sprintf("block index %d not in [0, %d)", index, dev.TotalBlocks))
	}
	return nil
}

func (dev *BlockDevice) seekToBlock(index uint32) error {
	_, err := dev.stream.Seek(int64(index)*int64(dev.BlockSize), io.SeekStart)
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// ReadBlock fills buf (which must be at least BlockSize bytes) with the
// contents of block index.
func (dev *BlockDevice) ReadBlock(index uint32, buf []byte) error {
	if err := dev.checkIndex(index); err != nil {
		return err
	}
	if uint32(len(buf)) < dev.BlockSize {
		return errors.ErrIOFailed.WithMessage(
			fmt.Sprintf("read buffer too small: need %d bytes, got %d", dev.BlockSize, len(buf)))
	}
	if err := dev.seekToBlock(index); err != nil {
		return err
	}

	n, err := io.ReadFull(dev.stream, buf[:dev.BlockSize])
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	if uint32(n) < dev.BlockSize {
		return errors.ErrIOFailed.WithMessage("short read")
	}
	return nil
}

// WriteBlock writes up to BlockSize bytes from buf to block index.
func (dev *BlockDevice) WriteBlock(index uint32, buf []byte) error {
	if err := dev.checkIndex(index); err != nil {
		return err
	}
	if err := dev.seekToBlock(index); err != nil {
		return err
	}

	data := buf
	if uint32(len(data)) > dev.BlockSize {
		data = data[:dev.BlockSize]
	}

	_, err := dev.stream.Write(data)
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Close releases the underlying resource, if the backing stream owns one.
func (dev *BlockDevice) Close() error {
	if dev.closer == nil {
		return nil
	}
	err := dev.closer.Close()
	dev.closer = nil
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}
