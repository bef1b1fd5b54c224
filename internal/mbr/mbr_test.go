package mbr

import (
	"testing"

	"github.com/hadrisrs/diskimg/binfmt"
	"github.com/stretchr/testify/require"
)

func TestEntryRoundTrip(t *testing.T) {
	e := Entry{
		Boot:     Bootable,
		CHSFirst: binfmt.CHS{0, 1, 1},
		Type:     PartitionTypeFAT32LBA,
		CHSLast:  binfmt.CHS{254, 63, 255},
		LBAFirst: 2048,
		LBACount: 1 << 20,
	}
	var buf [16]byte
	require.NoError(t, e.Encode(buf[:]))

	got, err := DecodeEntry(buf[:])
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestTableRoundTrip(t *testing.T) {
	var sector [SectorSize]byte
	table := Table{
		DiskSignature: 0xDEADBEEF,
		Entries: [numEntries]Entry{
			{Boot: Bootable, Type: PartitionTypeFAT32LBA, LBAFirst: 1, LBACount: 100},
		},
	}
	require.NoError(t, table.Encode(sector[:]))
	require.NoError(t, table.Validate(sector[:]))

	got, err := Decode(sector[:])
	require.NoError(t, err)
	require.Equal(t, table, got)
}

func TestValidateBadSignature(t *testing.T) {
	var sector [SectorSize]byte
	table := Table{}
	require.NoError(t, table.Encode(sector[:]))
	sector[signatureOffset] = 0
	require.ErrorIs(t, table.Validate(sector[:]), ErrBadSignature)
}

func TestValidateGapInTable(t *testing.T) {
	var sector [SectorSize]byte
	table := Table{
		Entries: [numEntries]Entry{
			{Type: PartitionTypeUnused},
			{Type: PartitionTypeFAT32LBA, LBAFirst: 1, LBACount: 10},
		},
	}
	require.NoError(t, table.Encode(sector[:]))
	require.ErrorIs(t, table.Validate(sector[:]), ErrGapInTable)
}

func TestValidateBadBootIndicator(t *testing.T) {
	var sector [SectorSize]byte
	table := Table{
		Entries: [numEntries]Entry{
			{Boot: BootIndicator(0x01), Type: PartitionTypeFAT32LBA, LBAFirst: 1, LBACount: 10},
		},
	}
	require.NoError(t, table.Encode(sector[:]))
	require.ErrorIs(t, table.Validate(sector[:]), ErrBadBootIndicator)
}

func TestProtectiveEntry(t *testing.T) {
	e := ProtectiveEntry(1 << 20)
	require.Equal(t, PartitionTypeGPTProtective, e.Type)
	require.False(t, e.IsBootable())
	require.EqualValues(t, 1, e.LBAFirst)
	require.EqualValues(t, 1<<20-1, e.LBACount)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	require.ErrorIs(t, err, ErrShortBuffer)
	_, err = DecodeEntry(make([]byte, 4))
	require.ErrorIs(t, err, ErrShortBuffer)
}
