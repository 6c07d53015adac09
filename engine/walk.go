package engine

import (
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
)

// trailStep is one stop along a tree walk from the root: the directory
// loaded at that step, its starting block, whether it is the root, and
// (for non-root steps) the truncated name of its own entry in its parent.
type trailStep struct {
	dir    *directory.Directory
	block  int32
	isRoot bool
	name   string
}

// walkResult names the two directories size propagation touches after a
// mutation: the directory directly holding the mutated entry (parent), and
// (when parent is not the root) the directory holding parent's own entry
// (ancestor).
type walkResult struct {
	parentDir    *directory.Directory
	parentBlock  int32
	parentIsRoot bool

	parentNameInAncestor string
	ancestorDir          *directory.Directory
	ancestorBlock        int32
	ancestorIsRoot       bool

	targetName string
}

// walkTrail descends from the in-memory root through components, each of
// which must name a directory, and returns every step visited including
// the root itself as trail[0].
func (e *Engine) walkTrail(components []string) ([]trailStep, error) {
	trail := []trailStep{{dir: e.root, block: e.pcb.RootDirBlock, isRoot: true}}
	current := trail[0]

	for _, name := range components {
		truncated := directory.TruncateName(name)
		idx := current.dir.Find(truncated, true)
		if idx < 0 {
			return nil, errors.ErrPathNotFound.WithMessage(truncated)
		}

		entry := current.dir.Entries()[idx]
		childDir, err := e.loadDirectoryAt(entry.StartingBlock, entry.SizeBytes)
		if err != nil {
			return nil, err
		}

		current = trailStep{dir: childDir, block: entry.StartingBlock, name: truncated}
		trail = append(trail, current)
	}

	return trail, nil
}

// walkToParent resolves every component but the last to the directory that
// would directly hold an entry named components[len-1], along with enough
// context (ancestor) to propagate a size change after mutating it.
func (e *Engine) walkToParent(components []string) (*walkResult, error) {
	if len(components) == 0 {
		return nil, errors.ErrInvalidPath
	}

	targetName := directory.TruncateName(components[len(components)-1])
	trail, err := e.walkTrail(components[:len(components)-1])
	if err != nil {
		return nil, err
	}

	parent := trail[len(trail)-1]
	wr := &walkResult{
		parentDir:    parent.dir,
		parentBlock:  parent.block,
		parentIsRoot: parent.isRoot,
		targetName:   targetName,
	}

	if !parent.isRoot {
		ancestor := trail[len(trail)-2]
		wr.parentNameInAncestor = parent.name
		wr.ancestorDir = ancestor.dir
		wr.ancestorBlock = ancestor.block
		wr.ancestorIsRoot = ancestor.isRoot
	}

	return wr, nil
}

// loadDirectoryAt reads the block chain starting at block and decodes the
// first sizeBytes of it as a directory.
func (e *Engine) loadDirectoryAt(block int32, sizeBytes int32) (*directory.Directory, error) {
	raw, err := e.readBlocksAt(block)
	if err != nil {
		return nil, err
	}
	if int32(len(raw)) < sizeBytes {
		return nil, errors.ErrInvalidDirBytes
	}
	return directory.FromBytes(raw[:sizeBytes], sizeBytes)
}

// writeDirectoryAt serializes dir and writes it via the block-chain writer.
func (e *Engine) writeDirectoryAt(dir *directory.Directory, block int32) error {
	return e.writeBlocksAt(dir.ToBytes(), block)
}

// propagateSize implements size propagation: write parent, then update
// whichever ancestor record holds parent's byte size (the ancestor
// directory, or root's own self-FCB when parent is root).
func (e *Engine) propagateSize(wr *walkResult) error {
	if err := e.writeDirectoryAt(wr.parentDir, wr.parentBlock); err != nil {
		return err
	}

	if wr.parentIsRoot {
		newSize := wr.parentDir.ByteSize()
		if err := wr.parentDir.UpdateSize(directory.RootName, true, newSize); err != nil {
			return err
		}
		return e.writeDirectoryAt(wr.parentDir, wr.parentBlock)
	}

	if err := wr.ancestorDir.UpdateSize(wr.parentNameInAncestor, true, wr.parentDir.ByteSize()); err != nil {
		return err
	}
	return e.writeDirectoryAt(wr.ancestorDir, wr.ancestorBlock)
}
