package engine

import (
	"fmt"

	"github.com/tfs-go/tfs/errors"
	"github.com/tfs-go/tfs/fat"
	"github.com/tfs-go/tfs/pcb"
)

// roundUpToBlock rounds size up to the next multiple of blockSize.
func roundUpToBlock(size, blockSize int64) int64 {
	return ((size + blockSize - 1) / blockSize) * blockSize
}

// writeSizeFor computes W = max(B, round_up(size, B)): the number of bytes
// a file of the given logical size reserves on disk.
func (e *Engine) writeSizeFor(size int64) int64 {
	b := int64(e.pcb.BlockSize)
	w := roundUpToBlock(size, b)
	if w < b {
		w = b
	}
	return w
}

// writeBlocksAt writes buf starting at block l, allocating or extending the
// chain as needed, and persists the updated FAT/PCB.
func (e *Engine) writeBlocksAt(buf []byte, l int32) error {
	b := int32(e.pcb.BlockSize)
	k := int32((int64(len(buf)) + int64(b) - 1) / int64(b))
	if k < 1 {
		k = 1
	}

	padded := make([]byte, int64(k)*int64(b))
	copy(padded, buf)

	if e.pcb.FAT.Get(l) == fat.Free {
		if err := e.writeFreshChain(padded, l, k, b); err != nil {
			return err
		}
	} else {
		if err := e.writeExistingChain(padded, l, k, b); err != nil {
			return err
		}
	}

	return pcb.Sync(e.dev, e.pcb)
}

// writeFreshChain implements block-chain write Case A: l is currently free.
func (e *Engine) writeFreshChain(padded []byte, l, k, b int32) error {
	if k == 1 {
		if err := e.dev.WriteBlock(uint32(l), padded); err != nil {
			return err
		}
		if err := e.pcb.FAT.Set(l, fat.EndOfChain); err != nil {
			return err
		}
		if l == e.pcb.FirstFreeBlock {
			e.pcb.FirstFreeBlock = e.pcb.FAT.OneFree(l)
		}
		return nil
	}

	extra, err := e.pcb.FAT.Allocate(int(k-1), e.pcb.FirstFreeBlock)
	if err != nil {
		return err
	}
	chain := append([]int32{l}, extra...)

	for i, block := range chain {
		start := int64(i) * int64(b)
		if err := e.dev.WriteBlock(uint32(block), padded[start:start+int64(b)]); err != nil {
			return err
		}
		next := fat.EndOfChain
		if i < len(chain)-1 {
			next = chain[i+1]
		}
		if err := e.pcb.FAT.Set(block, next); err != nil {
			return err
		}
	}

	e.pcb.FirstFreeBlock = e.pcb.FAT.OneFree(e.pcb.FirstFreeBlock)
	return nil
}

// writeExistingChain implements block-chain write Case B: l already heads
// an occupied chain. Blocks beyond what the new payload needs are freed;
// blocks the payload needs beyond the existing chain length are allocated.
func (e *Engine) writeExistingChain(padded []byte, l, k, b int32) error {
	existing := e.pcb.FAT.Walk(l)

	for i := int32(0); i < k; i++ {
		if int(i) < len(existing) {
			continue
		}
		extra, err := e.pcb.FAT.Allocate(1, e.pcb.FirstFreeBlock)
		if err != nil {
			return err
		}
		// Mark the new block occupied immediately so a later Allocate call
		// in this same loop can't pick it again before it's linked.
		if err := e.pcb.FAT.Set(extra[0], fat.EndOfChain); err != nil {
			return err
		}
		existing = append(existing, extra[0])
	}

	for i := int32(0); i < k; i++ {
		start := int64(i) * int64(b)
		if err := e.dev.WriteBlock(uint32(existing[i]), padded[start:start+int64(b)]); err != nil {
			return err
		}
	}

	for i := int32(0); i < k; i++ {
		next := fat.EndOfChain
		if i < k-1 {
			next = existing[i+1]
		}
		if err := e.pcb.FAT.Set(existing[i], next); err != nil {
			return err
		}
	}

	if int32(len(existing)) > k {
		tail := existing[k]
		if err := e.pcb.FAT.FreeChain(tail, e.pcb.RootDirBlock); err != nil {
			return err
		}
	}

	e.pcb.FirstFreeBlock = e.pcb.FAT.OneFree(e.pcb.FirstFreeBlock)
	return nil
}

// readBlocksAt returns the concatenation of every block in the chain
// starting at l, in order.
func (e *Engine) readBlocksAt(l int32) ([]byte, error) {
	if e.pcb.FAT.Get(l) == fat.Free {
		return nil, errors.ErrInvalidRead.WithMessage(fmt.Sprintf("block %d is free", l))
	}

	chain := e.pcb.FAT.Walk(l)
	if len(chain) == 0 {
		return nil, errors.ErrInvalidRead.WithMessage(fmt.Sprintf("block %d is out of range", l))
	}

	b := int(e.pcb.BlockSize)
	buf := make([]byte, len(chain)*b)
	for i, block := range chain {
		if err := e.dev.ReadBlock(uint32(block), buf[i*b:(i+1)*b]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// readBytesAt copies up to length bytes starting at offset from the chain
// headed by startingBlock.
func (e *Engine) readBytesAt(startingBlock int32, offset, length int64) ([]byte, error) {
	b := int64(e.pcb.BlockSize)
	startBlockNth := offset / b

	chain := e.pcb.FAT.Walk(startingBlock)
	if startBlockNth >= int64(len(chain)) {
		return nil, errors.ErrInvalidRead.WithMessage("offset past end of chain")
	}

	result := make([]byte, 0, length)
	firstOffset := int(offset % b)

	for i := startBlockNth; i < int64(len(chain)) && int64(len(result)) < length; i++ {
		block := make([]byte, b)
		if err := e.dev.ReadBlock(uint32(chain[i]), block); err != nil {
			return nil, err
		}

		start := 0
		if i == startBlockNth {
			start = firstOffset
		}
		avail := block[start:]

		remaining := length - int64(len(result))
		if int64(len(avail)) > remaining {
			avail = avail[:remaining]
		}
		result = append(result, avail...)
	}

	return result, nil
}

// writeBytesAt copies data into the chain headed by startingBlock beginning
// at offset, expanding the in-memory view and the chain as needed.
func (e *Engine) writeBytesAt(startingBlock int32, offset int64, data []byte) error {
	b := int64(e.pcb.BlockSize)
	startBlockNth := offset / b

	chain := e.pcb.FAT.Walk(startingBlock)

	var readLocation int32
	var view []byte

	switch {
	case startBlockNth < int64(len(chain)):
		readLocation = chain[startBlockNth]
		var err error
		view, err = e.readBlocksAt(readLocation)
		if err != nil {
			return err
		}

	case startBlockNth == int64(len(chain)) && offset%b == 0:
		// offset lands exactly one block past a block-aligned chain end
		// (e.g. appending to a file whose size is a multiple of B):
		// extend the chain with a fresh tail block rather than failing.
		tail := chain[len(chain)-1]
		extra, err := e.pcb.FAT.Allocate(1, e.pcb.FirstFreeBlock)
		if err != nil {
			return err
		}
		readLocation = extra[0]
		if err := e.pcb.FAT.Set(readLocation, fat.EndOfChain); err != nil {
			return err
		}
		if err := e.pcb.FAT.Set(tail, readLocation); err != nil {
			return err
		}

	default:
		return errors.ErrInvalidWrite.WithMessage("offset past end of allocated chain")
	}

	within := int(offset % b)
	needed := within + len(data)
	if needed > len(view) {
		grown := make([]byte, needed)
		copy(grown, view)
		view = grown
	}
	copy(view[within:], data)

	return e.writeBlocksAt(view, readLocation)
}
