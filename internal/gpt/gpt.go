// Package gpt decodes and encodes a GUID Partition Table header and its
// partition entry array, including the CRC32 self-checks UEFI requires of
// both the header and the entry array.
package gpt

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/hadrisrs/diskimg/binfmt"
	"github.com/hadrisrs/diskimg/internal/utf16x"
)

const (
	// HeaderSize is the on-disk size of a GPT header, per UEFI spec.
	HeaderSize = 92
	// Signature is "EFI PART" read as a little-endian uint64.
	Signature uint64 = 0x5452415020494645
	// EntrySize is the conventional size of one partition entry.
	EntrySize = 128

	nameOffset = 56
	nameLen    = 72
)

var (
	ErrShortBuffer  = errors.New("gpt: buffer too short")
	ErrBadSignature = errors.New("gpt: bad header signature")
	ErrBadHeaderCRC = errors.New("gpt: header CRC32 mismatch")
	ErrBadEntryCRC  = errors.New("gpt: partition entry array CRC32 mismatch")
)

var nameCodec = utf16x.LittleEndian()

// Header is a decoded GPT header. Unlike a view over the raw header bytes,
// it is a plain value: decode once with DecodeHeader, work with named
// fields, and re-encode with Encode once CRC fields are finalized via
// Finalize.
type Header struct {
	Revision               uint32
	HeaderSize             uint32
	CurrentLBA             int64
	BackupLBA              int64
	FirstUsableLBA         int64
	LastUsableLBA          int64
	DiskGUID               binfmt.GUID
	PartitionEntryLBA      int64
	NumberOfPartitionEntries uint32
	SizeOfPartitionEntry   uint32
	headerCRC              uint32
	entriesCRC             uint32
}

// DecodeHeader parses a 92-byte GPT header. It does not verify the
// signature or either CRC32; call Validate for that.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	return Header{
		Revision:                 binary.LittleEndian.Uint32(b[8:12]),
		HeaderSize:               binary.LittleEndian.Uint32(b[12:16]),
		headerCRC:                binary.LittleEndian.Uint32(b[16:20]),
		CurrentLBA:               int64(binary.LittleEndian.Uint64(b[24:32])),
		BackupLBA:                int64(binary.LittleEndian.Uint64(b[32:40])),
		FirstUsableLBA:           int64(binary.LittleEndian.Uint64(b[40:48])),
		LastUsableLBA:            int64(binary.LittleEndian.Uint64(b[48:56])),
		DiskGUID:                 binfmt.ParseGUID(b[56:72]),
		PartitionEntryLBA:        int64(binary.LittleEndian.Uint64(b[72:80])),
		NumberOfPartitionEntries: binary.LittleEndian.Uint32(b[80:84]),
		SizeOfPartitionEntry:     binary.LittleEndian.Uint32(b[84:88]),
		entriesCRC:               binary.LittleEndian.Uint32(b[88:92]),
	}, nil
}

// Encode writes h's 92-byte on-disk form into b, including both CRC32
// fields exactly as last set by Finalize (or as decoded, if never
// finalized).
func (h Header) Encode(b []byte) error {
	if len(b) < HeaderSize {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint64(b[0:8], Signature)
	binary.LittleEndian.PutUint32(b[8:12], h.Revision)
	binary.LittleEndian.PutUint32(b[12:16], h.HeaderSize)
	binary.LittleEndian.PutUint32(b[16:20], h.headerCRC)
	b[20], b[21], b[22], b[23] = 0, 0, 0, 0
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.CurrentLBA))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.BackupLBA))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.FirstUsableLBA))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.LastUsableLBA))
	copy(b[56:72], h.DiskGUID.Bytes())
	binary.LittleEndian.PutUint64(b[72:80], uint64(h.PartitionEntryLBA))
	binary.LittleEndian.PutUint32(b[80:84], h.NumberOfPartitionEntries)
	binary.LittleEndian.PutUint32(b[84:88], h.SizeOfPartitionEntry)
	binary.LittleEndian.PutUint32(b[88:92], h.entriesCRC)
	return nil
}

// Finalize computes and stores both CRC32 fields (CRC-32/ISO-HDLC, the
// same polynomial as Ethernet/zip): the entry array's CRC32 over rawEntries,
// then the header's own CRC32 computed over its encoded bytes with the
// header CRC field itself read as zero, per the UEFI rule.
func (h *Header) Finalize(rawEntries []byte) {
	h.entriesCRC = crc32.ChecksumIEEE(rawEntries)
	var buf [HeaderSize]byte
	h.headerCRC = 0
	h.Encode(buf[:])
	h.headerCRC = crc32.ChecksumIEEE(buf[:])
}

// Validate checks the signature and both CRC32 fields against rawEntries,
// the raw partition entry array bytes (NumberOfPartitionEntries *
// SizeOfPartitionEntry long) that follow the header on disk.
func (h Header) Validate(rawHeader, rawEntries []byte) error {
	if len(rawHeader) < HeaderSize {
		return ErrShortBuffer
	}
	if binary.LittleEndian.Uint64(rawHeader[0:8]) != Signature {
		return ErrBadSignature
	}
	var buf [HeaderSize]byte
	copy(buf[:], rawHeader[:HeaderSize])
	binary.LittleEndian.PutUint32(buf[16:20], 0)
	if crc32.ChecksumIEEE(buf[:]) != h.headerCRC {
		return ErrBadHeaderCRC
	}
	if crc32.ChecksumIEEE(rawEntries) != h.entriesCRC {
		return ErrBadEntryCRC
	}
	return nil
}

// PartitionAttributes is the 64-bit GPT partition attribute bitmask.
type PartitionAttributes uint64

// Entry is a decoded GPT partition entry (conventionally 128 bytes).
type Entry struct {
	TypeGUID   binfmt.GUID
	UniqueGUID binfmt.GUID
	FirstLBA   int64
	LastLBA    int64
	Attributes PartitionAttributes
	Name       string
}

// IsEmpty reports whether the entry's type GUID is the all-zero sentinel
// that marks an unused slot in the partition entry array.
func (e Entry) IsEmpty() bool { return e.TypeGUID == (binfmt.GUID{}) }

// DecodeEntry parses a 128-byte GPT partition entry.
func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < EntrySize {
		return Entry{}, ErrShortBuffer
	}
	var e Entry
	e.TypeGUID = binfmt.ParseGUID(b[0:16])
	e.UniqueGUID = binfmt.ParseGUID(b[16:32])
	e.FirstLBA = int64(binary.LittleEndian.Uint64(b[32:40]))
	e.LastLBA = int64(binary.LittleEndian.Uint64(b[40:48]))
	e.Attributes = PartitionAttributes(binary.LittleEndian.Uint64(b[48:56]))

	n16 := 0
	for ; n16 < nameLen/2; n16++ {
		off := nameOffset + n16*2
		if binary.LittleEndian.Uint16(b[off:]) == 0 {
			break
		}
	}
	var name [nameLen * 3]byte // worst case: every UTF-16 code unit decodes to a 3-byte UTF-8 rune
	n, err := nameCodec.Decode(name[:], b[nameOffset:nameOffset+n16*2])
	if err != nil {
		return Entry{}, err
	}
	e.Name = string(name[:n])
	return e, nil
}

// Encode writes e's 128-byte on-disk form into b.
func (e Entry) Encode(b []byte) error {
	if len(b) < EntrySize {
		return ErrShortBuffer
	}
	copy(b[0:16], e.TypeGUID.Bytes())
	copy(b[16:32], e.UniqueGUID.Bytes())
	binary.LittleEndian.PutUint64(b[32:40], uint64(e.FirstLBA))
	binary.LittleEndian.PutUint64(b[40:48], uint64(e.LastLBA))
	binary.LittleEndian.PutUint64(b[48:56], uint64(e.Attributes))
	for i := nameOffset; i < nameOffset+nameLen; i++ {
		b[i] = 0
	}
	_, err := nameCodec.Encode(b[nameOffset:nameOffset+nameLen], []byte(e.Name))
	return err
}
