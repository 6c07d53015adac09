package engine

import (
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
)

// Mkdir creates an empty directory at path. Returns 0 on success, -1 on a
// general failure, -2 if parent already holds a directory with that name.
func (e *Engine) Mkdir(path string) (int, error) {
	if !e.mounted {
		return -1, errors.ErrNotMounted
	}
	comps, err := ParsePath(path)
	if err != nil || len(comps) == 0 {
		return -1, errors.ErrInvalidPath
	}

	wr, err := e.walkToParent(comps)
	if err != nil {
		return -1, err
	}
	if wr.parentDir.Contains(wr.targetName, true) {
		return -2, errors.ErrDuplicateEntry.WithMessage(wr.targetName)
	}

	l := e.pcb.FirstFreeBlock
	if err := e.writeDirectoryAt(directory.New(), l); err != nil {
		return -1, err
	}

	if err := wr.parentDir.Add(directory.NewFCB(wr.targetName, true, l, 0)); err != nil {
		return -2, err
	}
	if err := e.propagateSize(wr); err != nil {
		return -1, err
	}
	return 0, nil
}

// Rmdir removes the empty directory at path. Returns -2 if it does not
// exist or is not empty.
func (e *Engine) Rmdir(path string) (int, error) {
	if !e.mounted {
		return -1, errors.ErrNotMounted
	}
	comps, err := ParsePath(path)
	if err != nil || len(comps) == 0 {
		return -1, errors.ErrInvalidPath
	}

	wr, err := e.walkToParent(comps)
	if err != nil {
		return -1, err
	}

	idx := wr.parentDir.Find(wr.targetName, true)
	if idx < 0 {
		return -2, errors.ErrNotFound.WithMessage(wr.targetName)
	}
	target := wr.parentDir.Entries()[idx]
	if target.SizeBytes != 0 {
		return -2, errors.ErrDirNotEmpty.WithMessage(wr.targetName)
	}

	if err := e.pcb.FAT.FreeChain(target.StartingBlock, e.pcb.RootDirBlock); err != nil {
		return -1, err
	}
	if err := wr.parentDir.RemoveByName(wr.targetName, true); err != nil {
		return -1, err
	}
	if err := e.propagateSize(wr); err != nil {
		return -1, err
	}
	return 0, nil
}

// Ls lists the entries of the directory named by path. "/" lists the root.
func (e *Engine) Ls(path string) ([]directory.FCB, error) {
	if !e.mounted {
		return nil, errors.ErrNotMounted
	}

	comps, err := ParsePath(path)
	if err != nil {
		return nil, errors.ErrInvalidPath
	}
	if len(comps) == 0 {
		return append([]directory.FCB{}, e.root.Entries()...), nil
	}

	trail, err := e.walkTrail(comps)
	if err != nil {
		return nil, err
	}
	last := trail[len(trail)-1]
	return append([]directory.FCB{}, last.dir.Entries()...), nil
}
