package gpt

import (
	"testing"

	"github.com/hadrisrs/diskimg/binfmt"
	"github.com/stretchr/testify/require"
)

func TestEntryRoundTrip(t *testing.T) {
	e := Entry{
		TypeGUID:   binfmt.NewGUID(),
		UniqueGUID: binfmt.NewGUID(),
		FirstLBA:   2048,
		LastLBA:    4095,
		Attributes: 1,
		Name:       "EFI System",
	}
	var buf [EntrySize]byte
	require.NoError(t, e.Encode(buf[:]))

	got, err := DecodeEntry(buf[:])
	require.NoError(t, err)
	require.Equal(t, e, got)
	require.False(t, got.IsEmpty())
}

func TestEntryEmpty(t *testing.T) {
	var buf [EntrySize]byte
	got, err := DecodeEntry(buf[:])
	require.NoError(t, err)
	require.True(t, got.IsEmpty())
}

func TestHeaderRoundTripAndCRC(t *testing.T) {
	h := Header{
		Revision:                 0x00010000,
		HeaderSize:               HeaderSize,
		CurrentLBA:               1,
		BackupLBA:                1000,
		FirstUsableLBA:           34,
		LastUsableLBA:            966,
		DiskGUID:                 binfmt.NewGUID(),
		PartitionEntryLBA:        2,
		NumberOfPartitionEntries: 128,
		SizeOfPartitionEntry:     EntrySize,
	}
	entries := make([]byte, EntrySize*int(h.NumberOfPartitionEntries))
	h.Finalize(entries)

	var raw [HeaderSize]byte
	require.NoError(t, h.Encode(raw[:]))
	require.NoError(t, h.Validate(raw[:], entries))

	got, err := DecodeHeader(raw[:])
	require.NoError(t, err)
	require.Equal(t, h.Revision, got.Revision)
	require.Equal(t, h.DiskGUID, got.DiskGUID)
	require.Equal(t, h.PartitionEntryLBA, got.PartitionEntryLBA)
}

func TestValidateBadSignature(t *testing.T) {
	var raw [HeaderSize]byte
	h := Header{}
	h.Finalize(nil)
	require.NoError(t, h.Encode(raw[:]))
	raw[0] = 0
	require.ErrorIs(t, h.Validate(raw[:], nil), ErrBadSignature)
}

func TestValidateBadHeaderCRC(t *testing.T) {
	var raw [HeaderSize]byte
	h := Header{}
	h.Finalize(nil)
	require.NoError(t, h.Encode(raw[:]))
	raw[50] ^= 0xFF
	require.ErrorIs(t, h.Validate(raw[:], nil), ErrBadHeaderCRC)
}

func TestValidateBadEntryCRC(t *testing.T) {
	var raw [HeaderSize]byte
	h := Header{}
	h.Finalize([]byte{1, 2, 3})
	require.NoError(t, h.Encode(raw[:]))
	require.ErrorIs(t, h.Validate(raw[:], []byte{1, 2, 4}), ErrBadEntryCRC)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 10))
	require.ErrorIs(t, err, ErrShortBuffer)
	_, err = DecodeEntry(make([]byte, 10))
	require.ErrorIs(t, err, ErrShortBuffer)
}
