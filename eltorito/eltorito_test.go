package eltorito

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/hadrisrs/diskimg/iso9660"
	"github.com/stretchr/testify/require"
)

func TestEncodeCatalogValidationChecksum(t *testing.T) {
	catalog, err := EncodeCatalog([]Entry{{
		Platform:  PlatformX86,
		Emulation: EmulationNone,
		ImageLBA:  42,
		ImageSize: 2048,
	}})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(catalog), catalogEntrySize*3)

	var sum uint16
	for i := 0; i < catalogEntrySize; i += 2 {
		sum += binary.LittleEndian.Uint16(catalog[i : i+2])
	}
	require.Zero(t, sum)
}

func TestEncodeCatalogMultiplePlatforms(t *testing.T) {
	catalog, err := EncodeCatalog([]Entry{
		{Platform: PlatformX86, ImageLBA: 10, ImageSize: 512},
		{Platform: PlatformEFI, ImageLBA: 20, ImageSize: 1024},
	})
	require.NoError(t, err)
	// validation + default entry + section header + section entry + terminator
	require.Equal(t, catalogEntrySize*5, len(catalog))
	require.Equal(t, byte(headerIDFinal), catalog[catalogEntrySize*2])
}

func TestPatchBootInfoTable(t *testing.T) {
	image := make([]byte, 4096)
	for i := range image {
		image[i] = byte(i)
	}
	require.NoError(t, PatchBootInfoTable(image, 99))
	require.Equal(t, uint32(isoStartLBA), binary.LittleEndian.Uint32(image[bootInfoTableOffset:]))
	require.Equal(t, uint32(99), binary.LittleEndian.Uint32(image[bootInfoTableOffset+4:]))
	require.Equal(t, uint32(len(image)), binary.LittleEndian.Uint32(image[bootInfoTableOffset+8:]))
}

func TestDecodeCatalogRoundTrip(t *testing.T) {
	catalog, err := EncodeCatalog([]Entry{
		{Platform: PlatformX86, Emulation: EmulationNone, ImageLBA: 42, ImageSize: 2048},
	})
	require.NoError(t, err)

	entries, err := DecodeCatalog(catalog)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, PlatformX86, entries[0].Platform)
	require.Equal(t, uint32(42), entries[0].ImageLBA)
}

func TestAddBootImagesWiresIntoWriter(t *testing.T) {
	w := iso9660.NewWriter()
	w.Timestamp = time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC)

	image := make([]byte, 2048)
	ref, err := AddBootImages(w, "/boot.cat", []Image{{
		Path:          "/boot/core.img",
		Data:          image,
		Platform:      PlatformX86,
		BootInfoTable: true,
	}})
	require.NoError(t, err)

	require.NoError(t, w.Plan())
	require.NoError(t, FinalizeBootRecord(w, ref))

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))

	coreLBA, ok := w.Extent("/boot/core.img")
	require.True(t, ok)
	patched := buf.Bytes()[int(coreLBA)*iso9660.SectorSize:]
	require.Equal(t, coreLBA, binary.LittleEndian.Uint32(patched[bootInfoTableOffset+4:]))
}
