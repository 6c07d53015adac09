package fat_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tfs-go/tfs/errors"
	"github.com/tfs-go/tfs/fat"
)

func TestSetRejectsReservedBlockAfterInit(t *testing.T) {
	table := fat.New(20, 4)
	require.NoError(t, table.Set(0, 1))
	err := table.Set(0, 2)
	require.ErrorIs(t, err, errors.ErrFatGuard)
}

func TestGetOutOfRangeReturnsSentinel(t *testing.T) {
	table := fat.New(10, 2)
	require.EqualValues(t, fat.OutOfRange, table.Get(100))
	require.EqualValues(t, fat.OutOfRange, table.Get(-5))
}

func TestWalkFollowsChainToEnd(t *testing.T) {
	table := fat.New(10, -1)
	require.NoError(t, table.Set(5, 6))
	require.NoError(t, table.Set(6, 7))
	require.NoError(t, table.Set(7, fat.EndOfChain))

	require.Equal(t, []int32{5, 6, 7}, table.Walk(5))
}

func TestWalkStopsOnCycleInsteadOfLoopingForever(t *testing.T) {
	table := fat.New(10, -1)
	require.NoError(t, table.Set(1, 2))
	require.NoError(t, table.Set(2, 1))

	chain := table.Walk(1)
	require.Len(t, chain, 2)
}

func TestFreeChainReleasesAllLinkedBlocks(t *testing.T) {
	table := fat.New(10, -1)
	require.NoError(t, table.Set(5, 6))
	require.NoError(t, table.Set(6, fat.EndOfChain))

	require.NoError(t, table.FreeChain(5, 5))
	require.EqualValues(t, fat.Free, table.Get(5))
	require.EqualValues(t, fat.Free, table.Get(6))
}

func TestFreeChainRejectsBlockBeforeRoot(t *testing.T) {
	table := fat.New(10, 3)
	err := table.FreeChain(2, 5)
	require.ErrorIs(t, err, errors.ErrFatGuard)
}

func TestAllocateSkipsReservedAndPivot(t *testing.T) {
	table := fat.New(10, 2) // blocks 0,1,2 reserved
	pivot := int32(3)

	blocks, err := table.Allocate(3, pivot)
	require.NoError(t, err)
	require.Equal(t, []int32{4, 5, 6}, blocks)
}

func TestAllocateFailsWhenNotEnoughFreeBlocks(t *testing.T) {
	table := fat.New(5, 2)
	_, err := table.Allocate(10, 3)
	require.ErrorIs(t, err, errors.ErrOutOfSpace)
}

func TestOneFreeExcludesPivot(t *testing.T) {
	table := fat.New(4, -1)
	require.EqualValues(t, 1, table.OneFree(0))
	require.EqualValues(t, 0, table.OneFree(5))
}

func TestOneFreeReturnsNegativeOneWhenFull(t *testing.T) {
	table := fat.New(2, -1)
	require.NoError(t, table.Set(0, fat.EndOfChain))
	require.NoError(t, table.Set(1, fat.EndOfChain))
	require.EqualValues(t, -1, table.OneFree(-1))
}
