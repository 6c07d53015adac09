package engine

import (
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
)

// Create allocates a file of the given logical size at path, zero-filled.
// On success it returns the file's starting block (always >= 0). On
// failure it returns -1 (general) or -2 (a file with that name already
// exists in the parent).
func (e *Engine) Create(path string, size int64) (int32, error) {
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
	if wr.parentDir.Contains(wr.targetName, false) {
		return -2, errors.ErrDuplicateEntry.WithMessage(wr.targetName)
	}

	buf := make([]byte, e.writeSizeFor(size))
	l := e.pcb.FirstFreeBlock
	if err := e.writeBlocksAt(buf, l); err != nil {
		return -1, err
	}

	if err := wr.parentDir.Add(directory.NewFCB(wr.targetName, false, l, int32(size))); err != nil {
		return -2, err
	}
	if err := e.propagateSize(wr); err != nil {
		return -1, err
	}
	return l, nil
}

// Rm deletes the file at path, closing it first if it is open.
func (e *Engine) Rm(path string) (int, error) {
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

	idx := wr.parentDir.Find(wr.targetName, false)
	if idx < 0 {
		return -2, errors.ErrNotFound.WithMessage(wr.targetName)
	}
	target := wr.parentDir.Entries()[idx]

	if err := e.pcb.FAT.FreeChain(target.StartingBlock, e.pcb.RootDirBlock); err != nil {
		return -1, err
	}
	if h := e.oftTable.LookupHandle(target); h >= 0 {
		e.oftTable.Remove(h)
	}
	if err := wr.parentDir.RemoveByName(wr.targetName, false); err != nil {
		return -1, err
	}
	if err := e.propagateSize(wr); err != nil {
		return -1, err
	}
	return 0, nil
}

// Append writes data to the end of the file at path, opening it in the OFT
// if it is not already open.
func (e *Engine) Append(path string, data []byte) (int, error) {
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

	idx := wr.parentDir.Find(wr.targetName, false)
	if idx < 0 {
		return -2, errors.ErrNotFound.WithMessage(wr.targetName)
	}
	fcb := wr.parentDir.Entries()[idx]

	h := e.oftTable.LookupHandle(fcb)
	if h < 0 {
		if h, err = e.oftTable.Add(fcb, int64(fcb.SizeBytes)); err != nil {
			return -1, err
		}
	} else if err := e.oftTable.UpdateOffset(h, int64(fcb.SizeBytes)); err != nil {
		return -1, err
	}

	if err := e.writeBytesAt(fcb.StartingBlock, int64(fcb.SizeBytes), data); err != nil {
		return -1, err
	}

	newSize := fcb.SizeBytes + int32(len(data))
	fcb.SizeBytes = newSize

	if err := e.oftTable.UpdateFCB(h, fcb); err != nil {
		return -1, err
	}
	if err := e.oftTable.UpdateOffset(h, int64(newSize)); err != nil {
		return -1, err
	}
	if err := wr.parentDir.UpdateSize(wr.targetName, false, newSize); err != nil {
		return -1, err
	}
	if err := e.propagateSize(wr); err != nil {
		return -1, err
	}
	return 0, nil
}

// Print reads n bytes starting at position from the file at path and
// decodes them as UTF-8, the "read-range" operation.
func (e *Engine) Print(path string, position, n int64) (string, error) {
	if !e.mounted {
		return "", errors.ErrNotMounted
	}
	comps, err := ParsePath(path)
	if err != nil || len(comps) == 0 {
		return "", errors.ErrInvalidPath
	}

	wr, err := e.walkToParent(comps)
	if err != nil {
		return "", err
	}

	idx := wr.parentDir.Find(wr.targetName, false)
	if idx < 0 {
		return "", errors.ErrNotFound.WithMessage(wr.targetName)
	}
	fcb := wr.parentDir.Entries()[idx]

	if position < 0 || position > int64(fcb.SizeBytes) || position+n > int64(fcb.SizeBytes) {
		return "", errors.ErrInvalidRead.WithMessage("read range out of bounds")
	}

	h := e.oftTable.LookupHandle(fcb)
	if h < 0 {
		if h, err = e.oftTable.Add(fcb, position); err != nil {
			return "", err
		}
	} else if err := e.oftTable.UpdateOffset(h, position); err != nil {
		return "", err
	}

	data, err := e.readBytesAt(fcb.StartingBlock, position, n)
	if err != nil {
		return "", err
	}
	if err := e.oftTable.UpdateOffset(h, position+n); err != nil {
		return "", err
	}

	return string(data), nil
}

// Rename changes the name of the file at path to newName. Returns -2 if
// the file is missing or if the parent already contains a file named
// newName (including the file's own current name); a directory with that
// name does not block the rename.
func (e *Engine) Rename(path, newName string) (int, error) {
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

	idx := wr.parentDir.Find(wr.targetName, false)
	if idx < 0 {
		return -2, errors.ErrNotFound.WithMessage(wr.targetName)
	}
	fcb := wr.parentDir.Entries()[idx]

	truncated := directory.TruncateName(newName)
	if wr.parentDir.Contains(truncated, false) {
		return -2, errors.ErrDuplicateEntry.WithMessage(truncated)
	}

	if err := wr.parentDir.UpdateName(wr.targetName, false, truncated); err != nil {
		return -1, err
	}
	fcb.Name = truncated

	if h := e.oftTable.LookupHandle(directory.FCB{Name: wr.targetName, IsDir: false, StartingBlock: fcb.StartingBlock}); h >= 0 {
		if err := e.oftTable.UpdateFCB(h, fcb); err != nil {
			return -1, err
		}
	}
	if err := e.propagateSize(wr); err != nil {
		return -1, err
	}
	return 0, nil
}

// Cp copies src to dst. Returns -2 if src does not exist, -3 if dst
// already exists.
func (e *Engine) Cp(src, dst string) (int, error) {
	if !e.mounted {
		return -1, errors.ErrNotMounted
	}
	srcComps, err := ParsePath(src)
	if err != nil || len(srcComps) == 0 {
		return -1, errors.ErrInvalidPath
	}
	dstComps, err := ParsePath(dst)
	if err != nil || len(dstComps) == 0 {
		return -1, errors.ErrInvalidPath
	}

	srcWR, err := e.walkToParent(srcComps)
	if err != nil {
		return -1, err
	}
	srcIdx := srcWR.parentDir.Find(srcWR.targetName, false)
	if srcIdx < 0 {
		return -2, errors.ErrNotFound.WithMessage(srcWR.targetName)
	}
	srcFCB := srcWR.parentDir.Entries()[srcIdx]
	if srcFCB.SizeBytes == 0 {
		return -1, errors.ErrInvalidRead.WithMessage("source file is empty")
	}

	dstWR, err := e.walkToParent(dstComps)
	if err != nil {
		return -1, err
	}
	if dstWR.parentDir.Contains(dstWR.targetName, false) {
		return -3, errors.ErrDuplicateEntry.WithMessage(dstWR.targetName)
	}

	raw, err := e.readBlocksAt(srcFCB.StartingBlock)
	if err != nil {
		return -1, err
	}
	if int32(len(raw)) > srcFCB.SizeBytes {
		raw = raw[:srcFCB.SizeBytes]
	}

	buf := make([]byte, e.writeSizeFor(int64(srcFCB.SizeBytes)))
	copy(buf, raw)

	l := e.pcb.FirstFreeBlock
	if err := e.writeBlocksAt(buf, l); err != nil {
		return -1, err
	}

	if err := dstWR.parentDir.Add(directory.NewFCB(dstWR.targetName, false, l, srcFCB.SizeBytes)); err != nil {
		return -3, err
	}
	if err := e.propagateSize(dstWR); err != nil {
		return -1, err
	}
	return 0, nil
}
