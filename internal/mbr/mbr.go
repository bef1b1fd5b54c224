// Package mbr decodes and encodes a Master Boot Record partition table:
// the four-entry table at byte 446 of sector 0, its CHS/LBA fields and the
// trailing 0x55AA signature, plus the validation rules spec.md §4.5 imposes
// on any MBR this module writes or accepts (either a real partition table
// or the single protective entry a GPT-only image carries at LBA 0).
package mbr

import (
	"encoding/binary"
	"errors"

	"github.com/hadrisrs/diskimg/binfmt"
)

const (
	SectorSize       = 512
	bootstrapLen     = 440
	tableOffset      = 446
	entryLen         = 16
	numEntries       = 4
	signatureOffset  = 510
	// Signature is the trailing magic every valid MBR ends with.
	Signature uint16 = 0xAA55
)

var (
	// ErrShortBuffer is returned when a byte slice is too small to hold an
	// MBR sector or a single partition entry.
	ErrShortBuffer = errors.New("mbr: buffer too short")
	// ErrBadSignature is returned by Validate when the trailing boot
	// signature is not 0x55AA.
	ErrBadSignature = errors.New("mbr: bad boot signature")
	// ErrBadBootIndicator is returned by Validate when a partition table
	// entry's boot indicator byte is neither 0x00 nor 0x80.
	ErrBadBootIndicator = errors.New("mbr: boot indicator must be 0x00 or 0x80")
	// ErrGapInTable is returned by Validate when a non-empty partition
	// table entry follows an empty (zero partition type) one; the four
	// entries must be packed from index 0 with no gaps.
	ErrGapInTable = errors.New("mbr: non-empty partition entry follows an empty one")
)

// PartitionType identifies the filesystem or role of a partition entry.
type PartitionType byte

const (
	PartitionTypeUnused        PartitionType = 0x00
	PartitionTypeFAT12         PartitionType = 0x01
	PartitionTypeFAT16         PartitionType = 0x04
	PartitionTypeExtended      PartitionType = 0x05
	PartitionTypeNTFS          PartitionType = 0x07 // also exFAT
	PartitionTypeFAT32CHS      PartitionType = 0x0B
	PartitionTypeFAT32LBA      PartitionType = 0x0C
	PartitionTypeISO9660       PartitionType = 0x17 // hidden, ISO9660/HPFS-tagged NTFS
	PartitionTypeLinux         PartitionType = 0x83
	PartitionTypeFreeBSD       PartitionType = 0xA5
	PartitionTypeAppleHFS      PartitionType = 0xAF
	PartitionTypeGPTProtective PartitionType = 0xEE
	PartitionTypeEFISystem     PartitionType = 0xEF
)

// BootIndicator is the first byte of a partition entry: 0x80 marks the
// active/bootable partition, 0x00 marks every other entry.
type BootIndicator byte

const (
	NotBootable BootIndicator = 0x00
	Bootable    BootIndicator = 0x80
)

// Entry is a decoded 16-byte MBR partition table entry. Unlike a view over
// the raw sector bytes, an Entry is a plain value: callers decode it once
// with DecodeEntry, work with named fields, and re-encode it with Encode.
type Entry struct {
	Boot      BootIndicator
	CHSFirst  binfmt.CHS
	Type      PartitionType
	CHSLast   binfmt.CHS
	LBAFirst  uint32
	LBACount  uint32
}

// IsBootable reports whether the entry's boot indicator marks it active.
func (e Entry) IsBootable() bool { return e.Boot == Bootable }

// IsEmpty reports whether the entry is unused (zero partition type).
func (e Entry) IsEmpty() bool { return e.Type == PartitionTypeUnused }

// DecodeEntry parses one 16-byte partition table entry.
func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < entryLen {
		return Entry{}, ErrShortBuffer
	}
	return Entry{
		Boot:     BootIndicator(b[0]),
		CHSFirst: binfmt.CHS{b[1], b[2], b[3]},
		Type:     PartitionType(b[4]),
		CHSLast:  binfmt.CHS{b[5], b[6], b[7]},
		LBAFirst: binary.LittleEndian.Uint32(b[8:12]),
		LBACount: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// Encode writes the entry's 16-byte on-disk form into b.
func (e Entry) Encode(b []byte) error {
	if len(b) < entryLen {
		return ErrShortBuffer
	}
	b[0] = byte(e.Boot)
	b[1], b[2], b[3] = e.CHSFirst[0], e.CHSFirst[1], e.CHSFirst[2]
	b[4] = byte(e.Type)
	b[5], b[6], b[7] = e.CHSLast[0], e.CHSLast[1], e.CHSLast[2]
	binary.LittleEndian.PutUint32(b[8:12], e.LBAFirst)
	binary.LittleEndian.PutUint32(b[12:16], e.LBACount)
	return nil
}

// Table is a decoded MBR: the disk signature and the four partition
// entries. It does not carry the 440-byte bootstrap code region, which
// callers that need it read and write directly against the sector bytes
// via the slice Bootstrap returns.
type Table struct {
	DiskSignature uint32
	Entries       [numEntries]Entry
}

// Decode parses sector, a full 512-byte MBR sector, into a Table. It does
// not check the trailing signature or entry ordering; call Validate for
// that.
func Decode(sector []byte) (Table, error) {
	if len(sector) < SectorSize {
		return Table{}, ErrShortBuffer
	}
	var t Table
	t.DiskSignature = binary.LittleEndian.Uint32(sector[bootstrapLen : bootstrapLen+4])
	for i := 0; i < numEntries; i++ {
		off := tableOffset + i*entryLen
		e, err := DecodeEntry(sector[off : off+entryLen])
		if err != nil {
			return Table{}, err
		}
		t.Entries[i] = e
	}
	return t, nil
}

// Encode writes t into sector, a full 512-byte MBR sector, including the
// trailing 0x55AA signature. The bootstrap region (bytes 0..439) is left
// untouched; use the slice Bootstrap returns to manage it separately.
func (t Table) Encode(sector []byte) error {
	if len(sector) < SectorSize {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint32(sector[bootstrapLen:bootstrapLen+4], t.DiskSignature)
	sector[bootstrapLen+4] = 0
	sector[bootstrapLen+5] = 0
	for i, e := range t.Entries {
		off := tableOffset + i*entryLen
		if err := e.Encode(sector[off : off+entryLen]); err != nil {
			return err
		}
	}
	binary.LittleEndian.PutUint16(sector[signatureOffset:signatureOffset+2], Signature)
	return nil
}

// Validate checks the trailing boot signature and the four partition
// table entries against spec.md §4.5: a trailing 0x55AA signature, a boot
// indicator restricted to {0x00, 0x80} on every entry, and no non-empty
// entry following an empty one.
func (t Table) Validate(sector []byte) error {
	if len(sector) < SectorSize {
		return ErrShortBuffer
	}
	if binary.LittleEndian.Uint16(sector[signatureOffset:signatureOffset+2]) != Signature {
		return ErrBadSignature
	}
	seenEmpty := false
	for _, e := range t.Entries {
		if e.Boot != NotBootable && e.Boot != Bootable {
			return ErrBadBootIndicator
		}
		if e.IsEmpty() {
			seenEmpty = true
			continue
		}
		if seenEmpty {
			return ErrGapInTable
		}
	}
	return nil
}

// Bootstrap returns the 440-byte bootstrap code region of sector.
func Bootstrap(sector []byte) []byte { return sector[0:bootstrapLen] }

// ProtectiveEntry builds the single partition table entry a GPT-protected
// disk's LBA-0 MBR carries: type 0xEE, spanning the whole disk (or
// 0xFFFFFFFF sectors if the disk is too large to represent exactly, per
// the UEFI protective-MBR convention), non-bootable.
func ProtectiveEntry(totalLBA uint32) Entry {
	count := totalLBA - 1
	if totalLBA == 0 || count > 0xFFFFFFFF-1 {
		count = 0xFFFFFFFF
	}
	return Entry{
		Boot:     NotBootable,
		CHSFirst: binfmt.LBAToCHS(1),
		Type:     PartitionTypeGPTProtective,
		CHSLast:  binfmt.CHS{0xFF, 0xFF, 0xFF},
		LBAFirst: 1,
		LBACount: count,
	}
}
