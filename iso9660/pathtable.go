package iso9660

import "encoding/binary"

// pathTableEntry is one ECMA-119 9.4 path table record: name length,
// extended attribute length, a 4-byte extent LBA and a 2-byte parent
// index, both in the table's own endianness (little for the L-table,
// big for the M-table), followed by the directory identifier and an
// optional pad byte to keep the entry an even length.
type pathTableEntry struct {
	NameLen    uint8
	ExtentLBA  uint32
	ParentIdx  uint16
	Name       string // "\x00" for the root entry
}

func (e pathTableEntry) encodedLen() int {
	n := 8 + len(e.Name)
	if len(e.Name)%2 != 0 {
		n++
	}
	return n
}

// encodeLTable and encodeMTable serialize a path table in little-endian
// and big-endian form respectively. Per spec.md §3.3 they must be
// byte-identical in length — callers should assert
// len(encodeLTable(es)) == len(encodeMTable(es)).
func encodeLTable(entries []pathTableEntry) []byte {
	return encodePathTable(entries, binary.LittleEndian)
}

func encodeMTable(entries []pathTableEntry) []byte {
	return encodePathTable(entries, binary.BigEndian)
}

func encodePathTable(entries []pathTableEntry, order binary.ByteOrder) []byte {
	total := 0
	for _, e := range entries {
		total += e.encodedLen()
	}
	buf := make([]byte, total)
	pos := 0
	for _, e := range entries {
		n := e.encodedLen()
		rec := buf[pos : pos+n]
		rec[0] = byte(len(e.Name))
		rec[1] = 0 // extended attribute record length
		order.PutUint32(rec[2:6], e.ExtentLBA)
		order.PutUint16(rec[6:8], e.ParentIdx)
		copy(rec[8:8+len(e.Name)], e.Name)
		pos += n
	}
	return buf
}

// pathTableSectors returns the number of 2048-byte sectors needed to
// hold an encoded path table of the given byte length.
func pathTableSectors(byteLen int) uint32 {
	return uint32((byteLen + SectorSize - 1) / SectorSize)
}
