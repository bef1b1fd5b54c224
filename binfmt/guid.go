package binfmt

import "github.com/google/uuid"

// GUID is a 16-byte little-endian-mixed GUID as stored in GPT structures:
// the first three fields are little-endian, the last two are big-endian
// byte arrays, per the Microsoft GUID wire format (RFC 4122 differs only in
// the first three fields' byte order).
type GUID [16]byte

// NewGUID generates a random (version 4, RFC 4122 variant) GUID via
// github.com/google/uuid and reorders it into GPT's mixed-endian wire
// format.
func NewGUID() GUID {
	u := uuid.New()
	return guidFromUUIDBytes(u)
}

// ParseGUID decodes the 16-byte GPT wire representation in b into a GUID.
// It panics if b is shorter than 16 bytes, a programmer error.
func ParseGUID(b []byte) GUID {
	_ = b[15]
	var g GUID
	copy(g[:], b[:16])
	return g
}

// Bytes returns the 16-byte GPT wire representation.
func (g GUID) Bytes() []byte { return g[:] }

// String renders the GUID in RFC 4122 text form by converting back to
// standard byte order before delegating to uuid.UUID.String.
func (g GUID) String() string {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u.String()
}

func guidFromUUIDBytes(u uuid.UUID) GUID {
	var g GUID
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}
