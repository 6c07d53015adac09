package oft_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
	"github.com/tfs-go/tfs/oft"
)

func TestAddReturnsFirstEmptySlot(t *testing.T) {
	table := oft.New(4)
	fcb := directory.NewFCB("f", false, 10, 100)

	h, err := table.Add(fcb, 0)
	require.NoError(t, err)
	require.Equal(t, 0, h)

	entry, err := table.Get(h)
	require.NoError(t, err)
	require.Equal(t, fcb, entry.FCB)
	require.EqualValues(t, 0, entry.Offset)
}

func TestAddRejectsOffsetPastSize(t *testing.T) {
	table := oft.New(4)
	fcb := directory.NewFCB("f", false, 10, 5)

	_, err := table.Add(fcb, 6)
	require.ErrorIs(t, err, errors.ErrBadHandle)
}

func TestRemoveFreesSlotForReuse(t *testing.T) {
	table := oft.New(1)
	fcb := directory.NewFCB("f", false, 10, 5)

	h, err := table.Add(fcb, 0)
	require.NoError(t, err)
	require.NoError(t, table.Remove(h))

	h2, err := table.Add(fcb, 0)
	require.NoError(t, err)
	require.Equal(t, h, h2)
}

func TestLookupHandleMatchesByNameKindAndBlock(t *testing.T) {
	table := oft.New(4)
	fcb := directory.NewFCB("f", false, 10, 5)
	h, err := table.Add(fcb, 0)
	require.NoError(t, err)

	require.Equal(t, h, table.LookupHandle(fcb))
	require.Equal(t, -1, table.LookupHandle(directory.NewFCB("other", false, 10, 5)))
}

func TestUpdateOffsetValidatesBounds(t *testing.T) {
	table := oft.New(4)
	fcb := directory.NewFCB("f", false, 10, 5)
	h, err := table.Add(fcb, 0)
	require.NoError(t, err)

	require.NoError(t, table.UpdateOffset(h, 5))
	require.ErrorIs(t, table.UpdateOffset(h, 6), errors.ErrBadHandle)
}

func TestOperationsOnEmptySlotFailWithBadHandle(t *testing.T) {
	table := oft.New(2)
	require.ErrorIs(t, table.Remove(0), errors.ErrBadHandle)
	_, err := table.Get(0)
	require.ErrorIs(t, err, errors.ErrBadHandle)
}

func TestHandleOutOfCapacityFailsWithBadHandle(t *testing.T) {
	table := oft.New(2)
	_, err := table.Get(5)
	require.ErrorIs(t, err, errors.ErrBadHandle)
}

func TestAddFailsWhenTableIsFull(t *testing.T) {
	table := oft.New(1)
	fcb := directory.NewFCB("f", false, 10, 5)
	_, err := table.Add(fcb, 0)
	require.NoError(t, err)

	_, err = table.Add(fcb, 0)
	require.Error(t, err)
}
