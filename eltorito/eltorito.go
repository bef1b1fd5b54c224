// Package eltorito implements the El Torito boot catalog described in
// spec.md §3.4/§4.4: the validation entry checksum law, default and
// section boot entries, section headers, and boot-info-table/GRUB2
// patching of the boot image itself. The platform/emulation constants
// and catalog-entry shape are grounded in
// vaerh-iso9660/eltorito.go and vaerh-iso9660/bootcatalog.go; the
// validation-entry/section-header binary layouts those files reference
// but never define (no struct or MarshalBinary exists anywhere in that
// repo's retrieved files) are authored fresh here directly from
// ECMA-119/El Torito 1.0, following the same byte-offset-accessor idiom
// used throughout the fat32 and iso9660 packages.
package eltorito

import "encoding/binary"

// Platform implements the El Torito platform_id byte.
type Platform byte

const (
	PlatformX86 Platform = 0x00
	PlatformPPC Platform = 0x01
	PlatformMac Platform = 0x02
	PlatformEFI Platform = 0xEF
)

// Emulation implements the boot-media byte of a section entry.
type Emulation byte

const (
	EmulationNone    Emulation = 0
	EmulationFloppy12 Emulation = 1
	EmulationFloppy144 Emulation = 2
	EmulationFloppy288 Emulation = 3
	EmulationHDD      Emulation = 4
)

const (
	catalogEntrySize = 32

	headerIDMore  = 0x90
	headerIDFinal = 0x91

	validationHeaderID = 0x01
	validationKey      = 0xAA55 // stored as bytes 0x55, 0xAA (LE)

	bootIndicatorBootable = 0x88
)

// Entry describes one bootable image to register in the catalog, per
// spec.md §4.4.
type Entry struct {
	Platform   Platform
	Emulation  Emulation
	LoadSegment uint16 // 0 defaults to the BIOS default (0x7C0)
	ImagePath  string  // path within the ISO tree, for caller bookkeeping
	ImageLBA   uint32  // extent of the boot image, from iso9660.Writer.Extent
	ImageSize  int64   // byte size of the boot image

	// SelectionCriteria is written verbatim into the section entry's
	// selection-criteria byte; 0 for "none".
	SelectionCriteria byte
}

func (e Entry) loadSizeSectors() uint16 {
	// "Virtual sector count", in 512-byte units per the El Torito spec,
	// default = ceil(image_size / 2048) * 4 (2048/512).
	sectors2048 := (e.ImageSize + 2047) / 2048
	return uint16(sectors2048 * 4)
}

func (e Entry) loadSegment() uint16 {
	if e.LoadSegment != 0 {
		return e.LoadSegment
	}
	return 0
}

// EncodeCatalog builds the full boot catalog (spec.md §4.4 steps 1-4):
// validation entry for the first entry's platform, the first entry as
// the default (unheadered) section entry, then one section header plus
// its entries per subsequent platform group, terminated by a 32-byte
// zero record.
func EncodeCatalog(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errNoEntries
	}

	buf := make([]byte, 0, catalogEntrySize*(len(entries)+3))
	buf = append(buf, encodeValidationEntry(entries[0].Platform)...)
	buf = append(buf, encodeSectionEntry(entries[0], true)...)

	i := 1
	for i < len(entries) {
		platform := entries[i].Platform
		j := i
		for j < len(entries) && entries[j].Platform == platform {
			j++
		}
		group := entries[i:j]
		isLastGroup := j == len(entries)
		headerID := byte(headerIDMore)
		if isLastGroup {
			headerID = headerIDFinal
		}
		buf = append(buf, encodeSectionHeader(headerID, platform, len(group))...)
		for _, e := range group {
			buf = append(buf, encodeSectionEntry(e, true)...)
		}
		i = j
	}

	buf = append(buf, make([]byte, catalogEntrySize)...) // terminator
	return buf, nil
}

type catalogError string

func (e catalogError) Error() string { return string(e) }

const errNoEntries = catalogError("eltorito: catalog needs at least one entry")

// encodeValidationEntry builds the 32-byte validation entry (ECMA-119 /
// El Torito §2.1), choosing checksum so the 16 little-endian words of
// the entry sum to 0 mod 2^16 (spec.md Testable Property 6).
func encodeValidationEntry(platform Platform) []byte {
	b := make([]byte, catalogEntrySize)
	b[0] = validationHeaderID
	b[1] = byte(platform)
	// bytes 2-3 reserved, bytes 4-27 manufacturer (left zero)
	b[30] = 0x55
	b[31] = 0xAA

	var sum uint16
	for i := 0; i < catalogEntrySize; i += 2 {
		if i == 28 {
			continue // checksum field itself, solved for below
		}
		sum += binary.LittleEndian.Uint16(b[i : i+2])
	}
	checksum := -int16(sum)
	binary.LittleEndian.PutUint16(b[28:30], uint16(checksum))
	return b
}

// encodeSectionEntry builds a 32-byte boot (or section) entry.
func encodeSectionEntry(e Entry, bootable bool) []byte {
	b := make([]byte, catalogEntrySize)
	if bootable {
		b[0] = bootIndicatorBootable
	}
	b[1] = byte(e.Emulation)
	binary.LittleEndian.PutUint16(b[2:4], e.loadSegment())
	b[4] = 0 // system type, unused for a plain data/HDD image
	// byte 5 reserved
	binary.LittleEndian.PutUint16(b[6:8], e.loadSizeSectors())
	binary.LittleEndian.PutUint32(b[8:12], e.ImageLBA)
	b[12] = e.SelectionCriteria
	// bytes 13-31 vendor-unique, left zero
	return b
}

// encodeSectionHeader builds a 32-byte section header (ECMA-119 / El
// Torito §2.3): headerID is 0x90 ("more headers follow") or 0x91
// ("final header").
func encodeSectionHeader(headerID byte, platform Platform, entryCount int) []byte {
	b := make([]byte, catalogEntrySize)
	b[0] = headerID
	b[1] = byte(platform)
	binary.LittleEndian.PutUint16(b[2:4], uint16(entryCount))
	return b
}

// RewriteFinalHeader flips a previously-final section header (0x91) back
// to 0x90 ("more headers follow"), per spec.md §4.4 step 3: appending a
// new platform group to an existing catalog demotes the old final
// header.
func RewriteFinalHeader(catalog []byte, headerOffset int) {
	catalog[headerOffset] = headerIDMore
}
