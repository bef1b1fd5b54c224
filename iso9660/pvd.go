package iso9660

import (
	"time"

	"github.com/hadrisrs/diskimg/binfmt"
)

// Byte offsets within a 2048-byte Primary Volume Descriptor (ECMA-119 8.4).
const (
	pvdTypeOff            = 0
	pvdIdentOff           = 1 // "CD001", 5 bytes
	pvdVersionOff         = 6
	pvdSystemIDOff        = 8  // 32 a-chars
	pvdVolumeIDOff        = 40 // 32 d-chars
	pvdSpaceSizeOff       = 80  // LsbMsb32, 8 bytes
	pvdSetSizeOff         = 120 // LsbMsb16, 4 bytes
	pvdSeqNumberOff       = 124 // LsbMsb16, 4 bytes
	pvdBlockSizeOff       = 128 // LsbMsb16, 4 bytes
	pvdPathTableSizeOff   = 132 // LsbMsb32, 8 bytes
	pvdLPathTableOff      = 140 // u32 LE
	pvdOptLPathTableOff   = 144
	pvdMPathTableOff      = 148 // u32 BE
	pvdOptMPathTableOff   = 152
	pvdRootDirRecordOff   = 156 // 34 bytes
	pvdVolSetIDOff        = 190 // 128 d-chars
	pvdPublisherOff       = 318 // 128 a-chars
	pvdPreparerOff        = 446 // 128 a-chars
	pvdApplicationOff     = 574 // 128 a-chars
	pvdCopyrightOff       = 702 // 37 d-chars
	pvdAbstractOff        = 739 // 37 d-chars
	pvdBibliographicOff   = 776 // 37 d-chars
	pvdCreationOff        = 813 // 17 bytes
	pvdModificationOff    = 830
	pvdExpirationOff      = 847
	pvdEffectiveOff       = 864
	pvdFileStructVerOff   = 881
	pvdApplicationUseOff  = 883 // 512 bytes
)

// pvd views a 2048-byte Primary Volume Descriptor.
type pvd struct {
	data []byte
}

func asPVD(b []byte) pvd { return pvd{data: b[:SectorSize:SectorSize]} }

// initPrimaryVolumeDescriptor zeroes and stamps the fixed header fields
// common to every PVD this writer emits.
func initPrimaryVolumeDescriptor(b []byte) pvd {
	for i := range b {
		b[i] = 0
	}
	p := asPVD(b)
	p.data[pvdTypeOff] = vdTypePrimary
	copy(p.data[pvdIdentOff:pvdIdentOff+5], stdIdentifier)
	p.data[pvdVersionOff] = 1
	p.data[pvdFileStructVerOff] = 1
	return p
}

func (p pvd) SetSystemID(s string)  { padAChars(p.data[pvdSystemIDOff:pvdSystemIDOff+32], s) }
func (p pvd) SetVolumeID(s string)  { padDChars(p.data[pvdVolumeIDOff:pvdVolumeIDOff+32], s) }
func (p pvd) SetVolumeSpaceSize(n uint32) {
	binfmt.AsLsbMsb32(p.data[pvdSpaceSizeOff : pvdSpaceSizeOff+8]).Set(n)
}
func (p pvd) SetVolumeSetSize(n uint16) {
	binfmt.AsLsbMsb16(p.data[pvdSetSizeOff : pvdSetSizeOff+4]).Set(n)
}
func (p pvd) SetVolumeSeqNumber(n uint16) {
	binfmt.AsLsbMsb16(p.data[pvdSeqNumberOff : pvdSeqNumberOff+4]).Set(n)
}
func (p pvd) SetLogicalBlockSize(n uint16) {
	binfmt.AsLsbMsb16(p.data[pvdBlockSizeOff : pvdBlockSizeOff+4]).Set(n)
}
func (p pvd) SetPathTableSize(n uint32) {
	binfmt.AsLsbMsb32(p.data[pvdPathTableSizeOff : pvdPathTableSizeOff+8]).Set(n)
}
func (p pvd) SetLPathTableLBA(n uint32) {
	binfmt.AsU32(p.data[pvdLPathTableOff : pvdLPathTableOff+4]).Set(n)
}
func (p pvd) SetOptLPathTableLBA(n uint32) {
	binfmt.AsU32(p.data[pvdOptLPathTableOff : pvdOptLPathTableOff+4]).Set(n)
}
func (p pvd) SetMPathTableLBA(n uint32) {
	binfmt.AsBEU32(p.data[pvdMPathTableOff : pvdMPathTableOff+4]).Set(n)
}
func (p pvd) SetOptMPathTableLBA(n uint32) {
	binfmt.AsBEU32(p.data[pvdOptMPathTableOff : pvdOptMPathTableOff+4]).Set(n)
}

func (p pvd) RootDirRecordBuf() []byte {
	return p.data[pvdRootDirRecordOff : pvdRootDirRecordOff+34]
}

func (p pvd) SetVolumeSetID(s string)      { padDChars(p.data[pvdVolSetIDOff:pvdVolSetIDOff+128], s) }
func (p pvd) SetPublisher(s string)        { padAChars(p.data[pvdPublisherOff:pvdPublisherOff+128], s) }
func (p pvd) SetDataPreparer(s string)     { padAChars(p.data[pvdPreparerOff:pvdPreparerOff+128], s) }
func (p pvd) SetApplication(s string)      { padAChars(p.data[pvdApplicationOff:pvdApplicationOff+128], s) }

func (p pvd) SetCreationTime(t time.Time) {
	ts := newLongDateTime(t)
	copy(p.data[pvdCreationOff:pvdCreationOff+17], ts[:])
}
func (p pvd) SetModificationTime(t time.Time) {
	ts := newLongDateTime(t)
	copy(p.data[pvdModificationOff:pvdModificationOff+17], ts[:])
}
func (p pvd) SetEffectiveTime(t time.Time) {
	ts := newLongDateTime(t)
	copy(p.data[pvdEffectiveOff:pvdEffectiveOff+17], ts[:])
}

func (p pvd) VolumeSpaceSize() uint32 {
	return binfmt.AsLsbMsb32(p.data[pvdSpaceSizeOff : pvdSpaceSizeOff+8]).Get()
}
func (p pvd) RootDirRecord() dirRecord { return asDirRecord(p.RootDirRecordBuf()) }

// padDChars/padAChars space-pad into a charset-constrained field without
// returning an error. A value that fails the charset check is upper-cased
// and truncated to the field width and set again; if that still fails,
// the field is left unchanged. Format callers are expected to pass
// already-validated identifiers; the hard validation lives in binfmt.Str
// for callers who want it.
func padDChars(dst []byte, s string) { padCharset(dst, s, binfmt.DCharset) }
func padAChars(dst []byte, s string) { padCharset(dst, s, binfmt.ACharset) }

func padCharset(dst []byte, s string, cs binfmt.Charset) {
	str := binfmt.AsStr(dst, len(dst), cs)
	if err := str.Set(s); err != nil {
		// Retry with an upper-cased, width-truncated copy rather than
		// propagating the error through every PVD setter's void signature.
		safe := make([]byte, 0, len(s))
		for i := 0; i < len(s) && len(safe) < len(dst); i++ {
			c := s[i]
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			safe = append(safe, c)
		}
		_ = str.Set(string(safe))
	}
}

// initBootRecordVolumeDescriptor writes an El Torito boot record volume
// descriptor (ECMA-119 8.2 + El Torito 1.0 §1.1): identifier
// "EL TORITO SPECIFICATION" followed by the boot catalog's LBA.
func initBootRecordVolumeDescriptor(b []byte, catalogLBA uint32) {
	for i := range b {
		b[i] = 0
	}
	b[pvdTypeOff] = vdTypeBootRecord
	copy(b[pvdIdentOff:pvdIdentOff+5], stdIdentifier)
	b[pvdVersionOff] = 1
	copy(b[7:7+23], "EL TORITO SPECIFICATION")
	binfmt.AsU32(b[71:75]).Set(catalogLBA)
}

// NewBootRecordVolumeDescriptor builds a 2048-byte El Torito Boot Record
// volume descriptor pointing at catalogLBA, ready to append to a
// Writer's ExtraDescriptors (spec.md §4.4 step 4).
func NewBootRecordVolumeDescriptor(catalogLBA uint32) []byte {
	b := make([]byte, SectorSize)
	initBootRecordVolumeDescriptor(b, catalogLBA)
	return b
}

// initTerminatorVolumeDescriptor writes the volume descriptor set
// terminator (ECMA-119 8.3).
func initTerminatorVolumeDescriptor(b []byte) {
	for i := range b {
		b[i] = 0
	}
	b[pvdTypeOff] = vdTypeTerminator
	copy(b[pvdIdentOff:pvdIdentOff+5], stdIdentifier)
	b[pvdVersionOff] = 1
}
