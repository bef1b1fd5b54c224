package fat32

import (
	"io"
	"testing"
	"time"

	"github.com/hadrisrs/diskimg/blockio"
	"github.com/hadrisrs/diskimg/clock"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Time

func (f fixedClock) Now() time.Time { return time.Time(f) }

func formatSmallImage(t *testing.T, totalSectors uint32) *blockio.MemDevice {
	t.Helper()
	dev := blockio.NewMemDevice(512, int64(totalSectors))
	err := Format(dev, FormatConfig{
		TotalSectors: totalSectors,
		VolumeID:     0xDEADBEEF,
		VolumeLabel:  "TESTVOL",
	})
	require.NoError(t, err)
	return dev
}

func TestFormatThenMount(t *testing.T) {
	dev := formatSmallImage(t, 1<<16)
	fs, err := Mount(dev)
	require.NoError(t, err)
	require.GreaterOrEqual(t, fs.totalClusters, uint32(1))
	require.Equal(t, clusterFirst, fs.rootCluster)
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	dev := formatSmallImage(t, 1<<16)
	clk := fixedClock(time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC))
	fs, err := Mount(dev, WithClock(clk))
	require.NoError(t, err)

	f, err := fs.OpenFile("/hello.txt", ModeWrite|ModeCreate)
	require.NoError(t, err)

	payload := []byte("hello, fat32")
	n, err := f.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.NoError(t, f.Close())
	require.NoError(t, fs.Sync())

	f2, err := fs.OpenFile("/hello.txt", ModeRead)
	require.NoError(t, err)
	got := make([]byte, len(payload))
	n2, err := io.ReadFull(f2, got)
	require.NoError(t, err)
	require.Equal(t, len(payload), n2)
	require.Equal(t, payload, got)
	require.NoError(t, f2.Close())

	info, err := fs.Stat("/hello.txt")
	require.NoError(t, err)
	require.Equal(t, "HELLO.TXT", info.Name())
	require.Equal(t, int64(len(payload)), info.Size())
	require.False(t, info.IsDir())
}

func TestWriteSpanningMultipleClusters(t *testing.T) {
	dev := formatSmallImage(t, 1<<16)
	fs, err := Mount(dev)
	require.NoError(t, err)

	f, err := fs.OpenFile("/big.bin", ModeWrite|ModeCreate)
	require.NoError(t, err)

	payload := make([]byte, int(fs.clusterBytes())*3+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	_, err = f.Write(payload)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := fs.OpenFile("/big.bin", ModeRead)
	require.NoError(t, err)
	got, err := io.ReadAll(f2)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestMkdirAndReadDir(t *testing.T) {
	dev := formatSmallImage(t, 1<<16)
	fs, err := Mount(dev, WithClock(clock.System{}))
	require.NoError(t, err)

	require.NoError(t, fs.Mkdir("/sub"))

	f, err := fs.OpenFile("/sub/leaf.txt", ModeWrite|ModeCreate)
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	dir, err := fs.OpenDir("/sub")
	require.NoError(t, err)

	var names []string
	for {
		info, ok, err := dir.ReadDir()
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, info.Name())
	}
	require.Contains(t, names, "LEAF.TXT")
}

func TestOpenMissingWithoutCreateFails(t *testing.T) {
	dev := formatSmallImage(t, 1<<16)
	fs, err := Mount(dev)
	require.NoError(t, err)

	_, err = fs.OpenFile("/nope.txt", ModeRead)
	require.Error(t, err)
	var nf *NotFound
	require.ErrorAs(t, err, &nf)
}

func TestRetainClusterChainTruncateFrees(t *testing.T) {
	dev := formatSmallImage(t, 1<<16)
	fs, err := Mount(dev)
	require.NoError(t, err)

	first, err := fs.allocateChain(5)
	require.NoError(t, err)
	before := fs.freeCount

	_, err = fs.retainClusterChain(first, 2)
	require.NoError(t, err)

	length, err := fs.chainLength(first)
	require.NoError(t, err)
	require.Equal(t, uint32(2), length)
	require.Equal(t, before+3, fs.freeCount)
}
