package directory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tfs-go/tfs/directory"
)

func TestFCBRoundTripsThroughBytes(t *testing.T) {
	fcb := directory.NewFCB("readme", false, 42, 1024)
	record := fcb.ToBytes()
	require.Len(t, record, directory.EntrySize)

	decoded, err := directory.FCBFromBytes(record)
	require.NoError(t, err)
	require.Equal(t, fcb, decoded)
}

func TestFCBLongNameIsTruncatedToFieldWidth(t *testing.T) {
	fcb := directory.NewFCB("this-name-is-way-too-long-for-the-field", false, 1, 1)
	record := fcb.ToBytes()

	name := record[:directory.NameSize]
	require.Len(t, name, 15)
	require.Equal(t, "this-name-is-wa", string(name))
}

func TestFCBShortNameIsZeroPaddedOnDisk(t *testing.T) {
	fcb := directory.NewFCB("a", false, 1, 1)
	record := fcb.ToBytes()

	for i := 1; i < directory.NameSize; i++ {
		require.EqualValues(t, 0, record[i], "byte %d of name field should be zero", i)
	}
}

func TestFCBMatchesIsCaseInsensitiveOnName(t *testing.T) {
	fcb := directory.NewFCB("Readme", false, 1, 1)
	require.True(t, fcb.Matches("readme", false))
	require.True(t, fcb.Matches("README", false))
	require.False(t, fcb.Matches("readme", true))
}

func TestFCBFromBytesRejectsWrongSize(t *testing.T) {
	_, err := directory.FCBFromBytes(make([]byte, 10))
	require.Error(t, err)
}
