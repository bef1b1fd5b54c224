package iso9660

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hadrisrs/diskimg/blockio"
	"github.com/stretchr/testify/require"
)

func buildImageDevice(t *testing.T) *blockio.MemDevice {
	t.Helper()
	w := NewWriter()
	w.VolumeID = "TESTVOL"
	w.Timestamp = time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.AddDir("/docs"))
	require.NoError(t, w.AddFile("/README.TXT", strings.NewReader("hello iso"), int64(len("hello iso"))))
	require.NoError(t, w.AddFile("/docs/NOTES.TXT", strings.NewReader("notes"), int64(len("notes"))))

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))

	dev := blockio.NewMemDevice(SectorSize, int64(buf.Len())/SectorSize)
	copy(dev.Bytes(), buf.Bytes())
	return dev
}

func TestReaderMountAndNavigate(t *testing.T) {
	dev := buildImageDevice(t)
	r, err := Mount(dev)
	require.NoError(t, err)

	entries, err := r.ReadDir("/")
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.Contains(t, names, "README.TXT")
	require.Contains(t, names, "docs")

	data, err := r.ReadFile("/README.TXT")
	require.NoError(t, err)
	require.Equal(t, "hello iso", string(data))

	docsEntries, err := r.ReadDir("/docs")
	require.NoError(t, err)
	require.Len(t, docsEntries, 1)
	require.Equal(t, "NOTES.TXT", docsEntries[0].Name)
}

func TestReaderNotFound(t *testing.T) {
	dev := buildImageDevice(t)
	r, err := Mount(dev)
	require.NoError(t, err)
	_, err = r.ReadFile("/MISSING.TXT")
	require.Error(t, err)
}
