package iso9660

import (
	"github.com/hadrisrs/diskimg/binfmt"
)

// Directory record fixed-portion byte offsets (ECMA-119 9.1), before the
// variable-length identifier field.
const (
	drLenOff        = 0
	drExtAttrLenOff = 1
	drExtentOff     = 2  // LsbMsb32, 8 bytes
	drDataLenOff    = 10 // LsbMsb32, 8 bytes
	drDateTimeOff   = 18 // 7 bytes
	drFlagsOff      = 25
	drFileUnitOff   = 26
	drInterleaveOff = 27
	drVolSeqOff     = 28 // LsbMsb16, 4 bytes
	drNameLenOff    = 32
	drNameOff       = 33

	drFixedLen = 33 // everything before the name field
)

// dirRecord views a directory-record-sized byte buffer.
type dirRecord struct {
	data []byte
}

// recordLength returns the total on-disk length of a directory record
// with the given identifier length, rounded up to an even number of
// bytes (ECMA-119 9.1.1): fixed portion + name + optional pad byte.
func recordLength(nameLen int) int {
	n := drFixedLen + nameLen
	if n%2 != 0 {
		n++
	}
	return n
}

// encodeDirRecord writes a full directory record into dst (which must be
// at least recordLength(len(name)) bytes) and returns the number of
// bytes written.
func encodeDirRecord(dst []byte, extent, dataLen uint32, when shortDateTime, flags byte, volSeq uint16, name string) int {
	total := recordLength(len(name))
	rec := dst[:total]
	for i := range rec {
		rec[i] = 0
	}
	rec[drLenOff] = byte(total)
	rec[drExtAttrLenOff] = 0
	binfmt.AsLsbMsb32(rec[drExtentOff : drExtentOff+8]).Set(extent)
	binfmt.AsLsbMsb32(rec[drDataLenOff : drDataLenOff+8]).Set(dataLen)
	copy(rec[drDateTimeOff:drDateTimeOff+7], when[:])
	rec[drFlagsOff] = flags
	rec[drFileUnitOff] = 0
	rec[drInterleaveOff] = 0
	binfmt.AsLsbMsb16(rec[drVolSeqOff : drVolSeqOff+4]).Set(volSeq)
	rec[drNameLenOff] = byte(len(name))
	copy(rec[drNameOff:drNameOff+len(name)], name)
	return total
}

func asDirRecord(b []byte) dirRecord { return dirRecord{data: b} }

func (d dirRecord) Len() int      { return int(d.data[drLenOff]) }
func (d dirRecord) Extent() uint32 { return binfmt.AsLsbMsb32(d.data[drExtentOff : drExtentOff+8]).Get() }
func (d dirRecord) DataLen() uint32 {
	return binfmt.AsLsbMsb32(d.data[drDataLenOff : drDataLenOff+8]).Get()
}
func (d dirRecord) Flags() byte { return d.data[drFlagsOff] }
func (d dirRecord) IsDir() bool { return d.Flags()&fileFlagDirectory != 0 }
func (d dirRecord) NameLen() int { return int(d.data[drNameLenOff]) }
func (d dirRecord) Name() string {
	n := d.NameLen()
	raw := d.data[drNameOff : drNameOff+n]
	if n == 1 && (raw[0] == 0x00 || raw[0] == 0x01) {
		return string(raw) // "." or ".." self/parent markers
	}
	return string(raw)
}
func (d dirRecord) DateTime() shortDateTime {
	var s shortDateTime
	copy(s[:], d.data[drDateTimeOff:drDateTimeOff+7])
	return s
}
