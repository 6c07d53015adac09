// Package pcb implements the Partition Control Block: the 16-byte header
// plus the File Allocation Table, serialized contiguously starting at
// block 0 of the device.
package pcb

import (
	"encoding/binary"
	"fmt"

	"github.com/noxer/bytewriter"
	"github.com/tfs-go/tfs/blockdev"
	"github.com/tfs-go/tfs/errors"
	"github.com/tfs-go/tfs/fat"
)

// HeaderSize is the fixed size, in bytes, of the PCB header preceding the
// FAT region.
const HeaderSize = 16

// byteOrder is fixed for the lifetime of the on-disk format: big-endian,
// for parity with the source implementation's platform default.
var byteOrder = binary.BigEndian

// PCB is the in-memory partition control block: the header fields plus the
// FAT it owns.
type PCB struct {
	BlockSize      int32
	NumBlocks      int32
	FirstFreeBlock int32
	RootDirBlock   int32
	FAT            *fat.Table
}

// BlockCount returns ceil((HeaderSize + 4*NumBlocks) / BlockSize), the
// number of blocks the PCB+FAT region occupies.
func (p *PCB) BlockCount() int32 {
	return RegionBlockCount(p.NumBlocks, p.BlockSize)
}

// RegionBlockCount computes the number of blocks needed to store a PCB
// header plus a FAT of numBlocks entries, given blockSize.
func RegionBlockCount(numBlocks, blockSize int32) int32 {
	totalBytes := int64(HeaderSize) + 4*int64(numBlocks)
	return int32((totalBytes + int64(blockSize) - 1) / int64(blockSize))
}

// ToBytes serializes the header and FAT into a contiguous buffer of length
// HeaderSize + 4*NumBlocks.
func (p *PCB) ToBytes() ([]byte, error) {
	buf := make([]byte, HeaderSize+4*int(p.NumBlocks))
	writer := bytewriter.New(buf)

	fields := []int32{p.BlockSize, p.NumBlocks, p.FirstFreeBlock, p.RootDirBlock}
	for _, field := range fields {
		if err := binary.Write(writer, byteOrder, field); err != nil {
			return nil, errors.ErrIOFailed.WrapError(err)
		}
	}

	for _, entry := range p.FAT.Entries() {
		if err := binary.Write(writer, byteOrder, entry); err != nil {
			return nil, errors.ErrIOFailed.WrapError(err)
		}
	}

	return buf, nil
}

// Sync serializes the PCB+FAT and writes it to blocks 0..BlockCount()-1 of
// dev.
func Sync(dev *blockdev.BlockDevice, p *PCB) error {
	raw, err := p.ToBytes()
	if err != nil {
		return err
	}

	blockCount := p.BlockCount()
	padded := make([]byte, int(blockCount)*int(p.BlockSize))
	copy(padded, raw)

	for i := int32(0); i < blockCount; i++ {
		start := int(i) * int(p.BlockSize)
		end := start + int(p.BlockSize)
		if err := dev.WriteBlock(uint32(i), padded[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ReadPCB reads the PCB+FAT region from dev. blockSize and numBlocks come
// from the mount-time arguments, not the on-disk header: the stored
// block_size/num_blocks fields are discarded in favor of what the caller
// asked to mount with. FirstFreeBlock and RootDirBlock are taken from disk.
func ReadPCB(dev *blockdev.BlockDevice, blockSize uint32, numBlocks uint32) (*PCB, error) {
	blockCount := RegionBlockCount(int32(numBlocks), int32(blockSize))

	raw := make([]byte, int(blockCount)*int(blockSize))
	for i := int32(0); i < blockCount; i++ {
		start := int(i) * int(blockSize)
		end := start + int(blockSize)
		if err := dev.ReadBlock(uint32(i), raw[start:end]); err != nil {
			return nil, err
		}
	}

	if len(raw) < HeaderSize+4*int(numBlocks) {
		return nil, errors.ErrIOFailed.WithMessage(
			fmt.Sprintf("PCB region too small: got %d bytes, need %d", len(raw), HeaderSize+4*int(numBlocks)))
	}

	firstFreeBlock := int32(byteOrder.Uint32(raw[8:12]))
	rootDirBlock := int32(byteOrder.Uint32(raw[12:16]))

	entries := make([]int32, numBlocks)
	for i := range entries {
		offset := HeaderSize + 4*i
		entries[i] = int32(byteOrder.Uint32(raw[offset : offset+4]))
	}

	return &PCB{
		BlockSize:      int32(blockSize),
		NumBlocks:      int32(numBlocks),
		FirstFreeBlock: firstFreeBlock,
		RootDirBlock:   rootDirBlock,
		FAT:            fat.FromSlice(entries, RegionBlockCount(int32(numBlocks), int32(blockSize))-1),
	}, nil
}
