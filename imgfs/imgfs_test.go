package imgfs

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hadrisrs/diskimg/blockio"
	"github.com/hadrisrs/diskimg/fat32"
	"github.com/hadrisrs/diskimg/iso9660"
	"github.com/stretchr/testify/require"
)

func TestFAT32Adapter(t *testing.T) {
	dev := blockio.NewMemDevice(512, 1<<16)
	require.NoError(t, fat32.Format(dev, fat32.FormatConfig{
		TotalSectors: 1 << 16,
		VolumeLabel:  "TESTVOL",
	}))

	fs, err := Open(KindFAT32, dev)
	require.NoError(t, err)

	f, err := fs.Create("/hello.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fi, err := fs.Stat("/hello.txt")
	require.NoError(t, err)
	require.Equal(t, int64(2), fi.Size)
	require.False(t, fi.IsDir)

	entries, err := fs.ReadDir("/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestISO9660Adapter(t *testing.T) {
	w := iso9660.NewWriter()
	w.Timestamp = time.Now()
	require.NoError(t, w.AddFile("/A.TXT", strings.NewReader("contents"), int64(len("contents"))))

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))

	dev := blockio.NewMemDevice(iso9660.SectorSize, int64(buf.Len())/iso9660.SectorSize)
	copy(dev.Bytes(), buf.Bytes())

	fs, err := Open(KindISO9660, dev)
	require.NoError(t, err)

	_, err = fs.Create("/B.TXT")
	require.ErrorIs(t, err, ErrReadOnly)

	f, err := fs.Open("/A.TXT")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "contents", string(data))

	_, err = f.Write([]byte("x"))
	require.ErrorIs(t, err, ErrReadOnly)
}
