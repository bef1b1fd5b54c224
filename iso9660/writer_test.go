package iso9660

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriterPlanAndWriteRoundTrip(t *testing.T) {
	w := NewWriter()
	w.VolumeID = "TESTVOL"
	w.Timestamp = time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, w.AddDir("/docs"))
	require.NoError(t, w.AddFile("/README.TXT", strings.NewReader("hello iso"), int64(len("hello iso"))))
	require.NoError(t, w.AddFile("/docs/NOTES.TXT", strings.NewReader("notes"), int64(len("notes"))))

	require.NoError(t, w.Plan())

	rootExtent, ok := w.Extent("/")
	require.True(t, ok)
	require.GreaterOrEqual(t, rootExtent, uint32(SystemAreaSectors+2))

	readmeExtent, ok := w.Extent("/README.TXT")
	require.True(t, ok)
	require.Greater(t, readmeExtent, rootExtent)

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))
	require.Equal(t, int(w.total)*SectorSize, buf.Len())

	// PVD sits at SystemAreaSectors, with stdIdentifier at its fixed offset.
	pvdOff := SystemAreaSectors * SectorSize
	require.Equal(t, stdIdentifier, string(buf.Bytes()[pvdOff+pvdIdentOff:pvdOff+pvdIdentOff+5]))
}

func TestWriterRejectsDuplicatePaths(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.AddFile("/A.TXT", strings.NewReader("a"), 1))
	err := w.AddFile("/A.TXT", strings.NewReader("b"), 1)
	require.ErrorIs(t, err, ErrExists)
}

func TestPathTablesAreByteIdenticalLength(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.AddDir("/a/b/c"))
	require.NoError(t, w.AddDir("/a/d"))
	require.NoError(t, w.Plan())
	require.Equal(t, len(w.ltable), len(w.mtable))
}

func TestMangleFileName(t *testing.T) {
	require.Equal(t, "README.TXT;1", MangleFileName("readme.txt"))
	require.Equal(t, "NOEXT;1", MangleFileName("noext"))
	require.Equal(t, "WEIRD_NAME;1", MangleFileName("weird name"))
}
