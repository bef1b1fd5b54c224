package utf16x

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripASCII(t *testing.T) {
	c := LittleEndian()
	var buf16 [64]byte
	n, err := c.Encode(buf16[:], []byte("EFI SYSTEM"))
	require.NoError(t, err)

	var buf8 [64]byte
	m, err := c.Decode(buf8[:], buf16[:n])
	require.NoError(t, err)
	require.Equal(t, "EFI SYSTEM", string(buf8[:m]))
}

func TestRoundTripSurrogatePair(t *testing.T) {
	c := LittleEndian()
	s := "boot \U0001F680"
	var buf16 [64]byte
	n, err := c.Encode(buf16[:], []byte(s))
	require.NoError(t, err)

	var buf8 [64]byte
	m, err := c.Decode(buf8[:], buf16[:n])
	require.NoError(t, err)
	require.Equal(t, s, string(buf8[:m]))
}

func TestDecodeOddLength(t *testing.T) {
	c := LittleEndian()
	var buf8 [8]byte
	_, err := c.Decode(buf8[:], []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrOddLength)
}

func TestEncodeShortDest(t *testing.T) {
	c := LittleEndian()
	var buf16 [1]byte
	_, err := c.Encode(buf16[:], []byte("a"))
	require.ErrorIs(t, err, ErrShortDest)
}
