package engine_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/engine"
	"github.com/tfs-go/tfs/errors"
	"github.com/tfs-go/tfs/pcb"
)

const (
	testTotalBytes = 65535
	testBlockSize  = 128
)

func newContainer(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "TFSDiskFile")
}

func mustMount(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	name := newContainer(t)
	e := engine.New()
	require.NoError(t, e.Mkfs(name, testTotalBytes, testBlockSize))
	require.NoError(t, e.Mount(name, testTotalBytes, testBlockSize))
	t.Cleanup(func() { e.Unmount() })
	return e, name
}

func TestMkfsThenMountDerivesLayoutFromSpec(t *testing.T) {
	e, _ := mustMount(t)

	regionBlocks := pcb.RegionBlockCount(511, testBlockSize)
	pcbEnd := regionBlocks - 1
	wantRootDirBlock := pcbEnd + 1
	wantFirstFreeBlock := wantRootDirBlock + 1

	state, err := e.PrintMemoryState()
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf(
		"block_size=128 num_blocks=511 first_free_block=%d root_dir_block=%d",
		wantFirstFreeBlock, wantRootDirBlock,
	), state)

	entries, err := e.Ls("/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ROOT", entries[0].Name)
}

func TestMountFailsWhenAlreadyMounted(t *testing.T) {
	e, name := mustMount(t)
	require.ErrorIs(t, e.Mount(name, testTotalBytes, testBlockSize), errors.ErrAlreadyMounted)
}

func TestMkdirNestingAndLs(t *testing.T) {
	e, _ := mustMount(t)

	status, err := e.Mkdir("/docs")
	require.NoError(t, err)
	require.Equal(t, 0, status)

	status, err = e.Mkdir("/docs/drafts")
	require.NoError(t, err)
	require.Equal(t, 0, status)

	status, err = e.Mkdir("/docs")
	require.Equal(t, -2, status)
	require.ErrorIs(t, err, errors.ErrDuplicateEntry)

	entries, err := e.Ls("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "drafts", entries[0].Name)
}

func TestCreateAppendAndPrint(t *testing.T) {
	e, _ := mustMount(t)

	l, err := e.Create("/note.txt", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, l, int32(0))

	status, err := e.Append("/note.txt", []byte("hello "))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	status, err = e.Append("/note.txt", []byte("world"))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	text, err := e.Print("/note.txt", 0, 11)
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestAppendAcrossMultipleBlocks(t *testing.T) {
	e, _ := mustMount(t)

	_, err := e.Create("/big.bin", 0)
	require.NoError(t, err)

	payload := make([]byte, testBlockSize*3)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	status, err := e.Append("/big.bin", payload)
	require.NoError(t, err)
	require.Equal(t, 0, status)

	text, err := e.Print("/big.bin", 0, int64(len(payload)))
	require.NoError(t, err)
	require.Equal(t, string(payload), text)
}

func TestAppendExactlyAtBlockBoundaryExtendsChain(t *testing.T) {
	e, _ := mustMount(t)

	_, err := e.Create("/aligned.bin", 0)
	require.NoError(t, err)

	first := make([]byte, testBlockSize)
	for i := range first {
		first[i] = 'x'
	}
	status, err := e.Append("/aligned.bin", first)
	require.NoError(t, err)
	require.Equal(t, 0, status)

	// size is now exactly one block; this append's offset lands one past
	// the chain end and must extend it rather than fail.
	status, err = e.Append("/aligned.bin", []byte("tail"))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	text, err := e.Print("/aligned.bin", int64(testBlockSize), 4)
	require.NoError(t, err)
	require.Equal(t, "tail", text)
}

func TestCreateRenameAndRenameToSameNameFails(t *testing.T) {
	e, _ := mustMount(t)

	_, err := e.Create("/old.txt", 4)
	require.NoError(t, err)

	status, err := e.Rename("/old.txt", "new.txt")
	require.NoError(t, err)
	require.Equal(t, 0, status)

	entries, err := e.Ls("/")
	require.NoError(t, err)
	require.True(t, containsName(entries, "new.txt"))

	status, err = e.Rename("/new.txt", "new.txt")
	require.Equal(t, -2, status)
	require.ErrorIs(t, err, errors.ErrDuplicateEntry)
}

func TestCreateAppendCopyAndPrint(t *testing.T) {
	e, _ := mustMount(t)

	_, err := e.Create("/src.txt", 0)
	require.NoError(t, err)
	_, err = e.Append("/src.txt", []byte("copy me"))
	require.NoError(t, err)

	status, err := e.Cp("/src.txt", "/dst.txt")
	require.NoError(t, err)
	require.Equal(t, 0, status)

	text, err := e.Print("/dst.txt", 0, 7)
	require.NoError(t, err)
	require.Equal(t, "copy me", text)

	status, err = e.Cp("/src.txt", "/dst.txt")
	require.Equal(t, -3, status)
	require.ErrorIs(t, err, errors.ErrDuplicateEntry)
}

func TestMkdirCreateRmdirRmSequence(t *testing.T) {
	e, _ := mustMount(t)

	_, err := e.Mkdir("/work")
	require.NoError(t, err)
	_, err = e.Create("/work/file.txt", 3)
	require.NoError(t, err)

	status, err := e.Rmdir("/work")
	require.Equal(t, -2, status)
	require.ErrorIs(t, err, errors.ErrDirNotEmpty)

	status, err = e.Rm("/work/file.txt")
	require.NoError(t, err)
	require.Equal(t, 0, status)

	status, err = e.Rmdir("/work")
	require.NoError(t, err)
	require.Equal(t, 0, status)

	entries, err := e.Ls("/")
	require.NoError(t, err)
	require.False(t, containsName(entries, "work"))
}

func TestUnmountThenRemountPersistsState(t *testing.T) {
	e, name := mustMount(t)

	_, err := e.Mkdir("/persisted")
	require.NoError(t, err)
	_, err = e.Create("/persisted/file.txt", 5)
	require.NoError(t, err)
	status, err := e.Append("/persisted/file.txt", []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 0, status)

	require.NoError(t, e.Unmount())

	reopened := engine.New()
	require.NoError(t, reopened.Mount(name, testTotalBytes, testBlockSize))
	defer reopened.Unmount()

	entries, err := reopened.Ls("/persisted")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "file.txt", entries[0].Name)
	require.EqualValues(t, 10, entries[0].SizeBytes)

	text, err := reopened.Print("/persisted/file.txt", 0, 10)
	require.NoError(t, err)
	require.Equal(t, "hello", text[5:])
}

func containsName(entries []directory.FCB, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}
