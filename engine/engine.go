// Package engine implements the Filesystem Engine: the component that owns
// a mounted container's PCB, FAT, in-memory root directory, and open file
// table, and exposes mkfs/mount/unmount plus the file and directory
// operations built on top of them.
package engine

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/tfs-go/tfs/blockdev"
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
	"github.com/tfs-go/tfs/fat"
	"github.com/tfs-go/tfs/oft"
	"github.com/tfs-go/tfs/pcb"
)

// Engine is a single mounted (or not-yet-mounted) TFS container.
type Engine struct {
	dev      *blockdev.BlockDevice
	pcb      *pcb.PCB
	root     *directory.Directory
	oftTable *oft.Table

	containerName string
	totalBytes    int64
	blockSize     uint32
	mounted       bool
}

// New returns an unmounted engine.
func New() *Engine {
	return &Engine{}
}

// IsMounted reports whether a container is currently mounted.
func (e *Engine) IsMounted() bool {
	return e.mounted
}

// Mkfs formats name as a fresh TFS container of totalBytes capacity with
// the given block size. The container is not left mounted; call Mount
// afterward to use it.
func (e *Engine) Mkfs(name string, totalBytes int64, blockSize uint32) error {
	dev, err := blockdev.Create(name, totalBytes, blockSize)
	if err != nil {
		return err
	}
	defer dev.Close()

	n := int32(dev.GetBlockCount())
	pcbEnd := pcb.RegionBlockCount(n, int32(blockSize)) - 1

	fatTable := fat.New(int(n), pcbEnd)
	for i := int32(0); i < pcbEnd; i++ {
		if err := fatTable.Set(i, i+1); err != nil {
			return err
		}
	}
	if err := fatTable.Set(pcbEnd, fat.EndOfChain); err != nil {
		return err
	}

	rootDirBlock := pcbEnd + 1
	firstFreeBlock := rootDirBlock

	root := directory.New()
	if err := root.Add(directory.NewFCB(directory.RootName, true, rootDirBlock, directory.EntrySize)); err != nil {
		return err
	}

	rootBuf := make([]byte, blockSize)
	copy(rootBuf, root.ToBytes())
	if err := dev.WriteBlock(uint32(rootDirBlock), rootBuf); err != nil {
		return err
	}
	if err := fatTable.Set(rootDirBlock, fat.EndOfChain); err != nil {
		return err
	}
	firstFreeBlock++

	p := &pcb.PCB{
		BlockSize:      int32(blockSize),
		NumBlocks:      n,
		FirstFreeBlock: firstFreeBlock,
		RootDirBlock:   rootDirBlock,
		FAT:            fatTable,
	}
	return pcb.Sync(dev, p)
}

// Mount opens an existing container and loads its metadata into memory.
func (e *Engine) Mount(name string, totalBytes int64, blockSize uint32) error {
	if e.mounted {
		return errors.ErrAlreadyMounted
	}

	dev, err := blockdev.Open(name, totalBytes, blockSize)
	if err != nil {
		return err
	}

	p, err := pcb.ReadPCB(dev, blockSize, dev.GetBlockCount())
	if err != nil {
		dev.Close()
		return err
	}

	e.dev = dev
	e.pcb = p

	selfBlock := make([]byte, blockSize)
	if err := dev.ReadBlock(uint32(p.RootDirBlock), selfBlock); err != nil {
		dev.Close()
		return err
	}
	selfFCB, err := directory.FCBFromBytes(selfBlock[:directory.EntrySize])
	if err != nil {
		dev.Close()
		return err
	}

	root, err := e.loadDirectoryAt(p.RootDirBlock, selfFCB.SizeBytes)
	if err != nil {
		dev.Close()
		return err
	}

	e.root = root
	e.oftTable = oft.New(int(totalBytes / int64(blockSize)))
	e.containerName = name
	e.totalBytes = totalBytes
	e.blockSize = blockSize
	e.mounted = true
	return nil
}

// Unmount persists metadata and the root directory, then releases the
// container. Open handles are discarded implicitly with the OFT.
func (e *Engine) Unmount() error {
	if !e.mounted {
		return errors.ErrNotMounted
	}

	var result *multierror.Error

	newSize := e.root.ByteSize()
	if err := e.root.UpdateSize(directory.RootName, true, newSize); err != nil {
		result = multierror.Append(result, err)
	}
	if err := e.writeDirectoryAt(e.root, e.pcb.RootDirBlock); err != nil {
		result = multierror.Append(result, err)
	}
	if err := pcb.Sync(e.dev, e.pcb); err != nil {
		result = multierror.Append(result, err)
	}
	if err := e.dev.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	e.dev = nil
	e.pcb = nil
	e.root = nil
	e.oftTable = nil
	e.mounted = false

	return result.ErrorOrNil()
}

// Sync persists the current PCB and FAT without unmounting.
func (e *Engine) Sync() error {
	if !e.mounted {
		return errors.ErrNotMounted
	}
	return pcb.Sync(e.dev, e.pcb)
}

// PrintMemoryState renders the in-memory PCB header, the form the "prmfs"
// shell command surfaces.
func (e *Engine) PrintMemoryState() (string, error) {
	if !e.mounted {
		return "", errors.ErrNotMounted
	}
	return fmt.Sprintf(
		"block_size=%d num_blocks=%d first_free_block=%d root_dir_block=%d",
		e.pcb.BlockSize, e.pcb.NumBlocks, e.pcb.FirstFreeBlock, e.pcb.RootDirBlock,
	), nil
}

// PrintDiskState re-reads the PCB from the container, bypassing the
// in-memory copy, the form the "prrfs" shell command surfaces.
// first_free_block and root_dir_block come from disk; block_size and
// num_blocks are the mount-time values, as pcb.ReadPCB discards the stored
// ones.
func (e *Engine) PrintDiskState() (string, error) {
	if !e.mounted {
		return "", errors.ErrNotMounted
	}
	onDisk, err := pcb.ReadPCB(e.dev, e.blockSize, e.dev.GetBlockCount())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"block_size=%d num_blocks=%d first_free_block=%d root_dir_block=%d",
		onDisk.BlockSize, onDisk.NumBlocks, onDisk.FirstFreeBlock, onDisk.RootDirBlock,
	), nil
}
