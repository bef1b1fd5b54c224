// Package binfmt implements the byte-packed, endian-tagged integer and
// string primitives shared by the FAT32 and ISO 9660 encoders: fixed-width
// endian-tagged integers, little/big dual-endian pairs, charset-constrained
// fixed-length strings, CHS geometry conversion and GUIDs.
package binfmt

import "encoding/binary"

// U16 is a little-endian 16-bit field stored in-place in a byte slice.
type U16 struct{ b []byte }

// AsU16 views the first 2 bytes of b as a little-endian uint16 field.
// It panics if b is shorter than 2 bytes, a programmer error.
func AsU16(b []byte) U16 {
	_ = b[1]
	return U16{b[:2:2]}
}

func (f U16) Get() uint16     { return binary.LittleEndian.Uint16(f.b) }
func (f U16) Set(v uint16)    { binary.LittleEndian.PutUint16(f.b, v) }
func (f U16) Bytes() []byte   { return f.b }

// U32 is a little-endian 32-bit field stored in-place in a byte slice.
type U32 struct{ b []byte }

func AsU32(b []byte) U32 {
	_ = b[3]
	return U32{b[:4:4]}
}

func (f U32) Get() uint32  { return binary.LittleEndian.Uint32(f.b) }
func (f U32) Set(v uint32) { binary.LittleEndian.PutUint32(f.b, v) }
func (f U32) Bytes() []byte { return f.b }

// U64 is a little-endian 64-bit field stored in-place in a byte slice.
type U64 struct{ b []byte }

func AsU64(b []byte) U64 {
	_ = b[7]
	return U64{b[:8:8]}
}

func (f U64) Get() uint64  { return binary.LittleEndian.Uint64(f.b) }
func (f U64) Set(v uint64) { binary.LittleEndian.PutUint64(f.b, v) }
func (f U64) Bytes() []byte { return f.b }

// U24 is a 3-byte little-endian integer capped at 0x00FFFFFF. It is defined
// for spec completeness (FAT/ISO headers reserve 3-byte fields in a few
// places) but is not exercised by any operative encode/decode path, mirroring
// the teacher corpus where the equivalent type is likewise unused.
type U24 struct{ b []byte }

func AsU24(b []byte) U24 {
	_ = b[2]
	return U24{b[:3:3]}
}

func (f U24) Get() uint32 {
	return uint32(f.b[0]) | uint32(f.b[1])<<8 | uint32(f.b[2])<<16
}

func (f U24) Set(v uint32) {
	if v > 0x00FF_FFFF {
		panic("binfmt: U24 value out of range")
	}
	f.b[0] = byte(v)
	f.b[1] = byte(v >> 8)
	f.b[2] = byte(v >> 16)
}

// BEU16 is a big-endian 16-bit field, used for the M-path-table halves of
// ISO 9660 dual-endian structures.
type BEU16 struct{ b []byte }

func AsBEU16(b []byte) BEU16 {
	_ = b[1]
	return BEU16{b[:2:2]}
}

func (f BEU16) Get() uint16  { return binary.BigEndian.Uint16(f.b) }
func (f BEU16) Set(v uint16) { binary.BigEndian.PutUint16(f.b, v) }

// BEU32 is a big-endian 32-bit field.
type BEU32 struct{ b []byte }

func AsBEU32(b []byte) BEU32 {
	_ = b[3]
	return BEU32{b[:4:4]}
}

func (f BEU32) Get() uint32  { return binary.BigEndian.Uint32(f.b) }
func (f BEU32) Set(v uint32) { binary.BigEndian.PutUint32(f.b, v) }

// LsbMsb16 is the ISO 9660 dual little/big-endian 16-bit pair: 2 bytes LE
// followed by 2 bytes BE, both copies of the same value (ECMA-119 7.2.3).
type LsbMsb16 struct{ b []byte }

func AsLsbMsb16(b []byte) LsbMsb16 {
	_ = b[3]
	return LsbMsb16{b[:4:4]}
}

func (f LsbMsb16) Get() uint16 { return binary.LittleEndian.Uint16(f.b[0:2]) }

func (f LsbMsb16) Set(v uint16) {
	binary.LittleEndian.PutUint16(f.b[0:2], v)
	binary.BigEndian.PutUint16(f.b[2:4], v)
}

// LsbMsb32 is the ISO 9660 dual little/big-endian 32-bit pair: 4 bytes LE
// followed by 4 bytes BE (ECMA-119 7.3.3).
type LsbMsb32 struct{ b []byte }

func AsLsbMsb32(b []byte) LsbMsb32 {
	_ = b[7]
	return LsbMsb32{b[:8:8]}
}

func (f LsbMsb32) Get() uint32 { return binary.LittleEndian.Uint32(f.b[0:4]) }

func (f LsbMsb32) Set(v uint32) {
	binary.LittleEndian.PutUint32(f.b[0:4], v)
	binary.BigEndian.PutUint32(f.b[4:8], v)
}
