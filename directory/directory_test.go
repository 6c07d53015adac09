package directory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/errors"
)

func TestDirectoryRoundTripsThroughBytes(t *testing.T) {
	dir := directory.New()
	require.NoError(t, dir.Add(directory.NewFCB(directory.RootName, true, 5, 24)))
	require.NoError(t, dir.Add(directory.NewFCB("a", true, 6, 0)))
	require.NoError(t, dir.Add(directory.NewFCB("f", false, 7, 100)))

	raw := dir.ToBytes()
	require.Len(t, raw, 3*directory.EntrySize)

	reloaded, err := directory.FromBytes(raw, dir.ByteSize())
	require.NoError(t, err)
	require.Equal(t, dir.Entries(), reloaded.Entries())
}

func TestEmptyDirectorySerializesToEmptyBuffer(t *testing.T) {
	dir := directory.New()
	require.Empty(t, dir.ToBytes())
}

func TestFromBytesRejectsNonMultipleSize(t *testing.T) {
	_, err := directory.FromBytes(make([]byte, 10), 10)
	require.ErrorIs(t, err, errors.ErrInvalidDirBytes)
}

func TestFromBytesRejectsNegativeSize(t *testing.T) {
	_, err := directory.FromBytes(nil, -1)
	require.ErrorIs(t, err, errors.ErrInvalidDirBytes)
}

func TestAddRejectsDuplicateNameAndKind(t *testing.T) {
	dir := directory.New()
	require.NoError(t, dir.Add(directory.NewFCB("x", false, 1, 0)))
	err := dir.Add(directory.NewFCB("X", false, 2, 0))
	require.ErrorIs(t, err, errors.ErrDuplicateEntry)
}

func TestAddAllowsSameNameDifferentKind(t *testing.T) {
	dir := directory.New()
	require.NoError(t, dir.Add(directory.NewFCB("x", false, 1, 0)))
	require.NoError(t, dir.Add(directory.NewFCB("x", true, 2, 0)))
}

func TestRemoveByNameFailsWhenAbsent(t *testing.T) {
	dir := directory.New()
	err := dir.RemoveByName("missing", false)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpdateSizePropagatesToStoredEntry(t *testing.T) {
	dir := directory.New()
	require.NoError(t, dir.Add(directory.NewFCB("f", false, 1, 0)))
	require.NoError(t, dir.UpdateSize("f", false, 99))

	idx := dir.Find("f", false)
	require.EqualValues(t, 99, dir.Entries()[idx].SizeBytes)
}

func TestUpdateNameFailsWhenAbsent(t *testing.T) {
	dir := directory.New()
	err := dir.UpdateName("missing", false, "new")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestContains(t *testing.T) {
	dir := directory.New()
	require.False(t, dir.Contains("f", false))
	require.NoError(t, dir.Add(directory.NewFCB("f", false, 1, 0)))
	require.True(t, dir.Contains("f", false))
}
