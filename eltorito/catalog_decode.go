package eltorito

import (
	"encoding/binary"
	"reflect"

	log "github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

// rawValidationEntry mirrors the 32-byte validation entry via restruct
// struct tags, a tag-driven decode path alongside eltorito.go's
// offset-based encoder — used here only for reading an untrusted catalog
// back, matching the teacher corpus's restruct.Unpack idiom.
type rawValidationEntry struct {
	HeaderID     uint8
	PlatformID   uint8
	Reserved     uint16
	IDString     [24]byte
	Checksum     uint16
	KeyByte55    uint8
	KeyByteAA    uint8
}

// rawSectionEntry mirrors a 32-byte default/section boot entry.
type rawSectionEntry struct {
	BootIndicator byte
	BootMediaType byte
	LoadSegment   uint16
	SystemType    byte
	Reserved      byte
	SectorCount   uint16
	LoadRBA       uint32
	Selection     byte
	VendorUnique  [19]byte
}

// parseEntry recovers from a restruct panic and turns it into a typed
// error, the same parseN-style boundary dsoprea-go-exfat wraps its
// restruct.Unpack calls in.
func parseEntry(raw []byte, x interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = log.Wrap(e)
			} else {
				err = log.Errorf("eltorito: restruct panic decoding %s: %v", reflect.TypeOf(x).Elem().Name(), r)
			}
		}
	}()
	return restruct.Unpack(raw, binary.LittleEndian, x)
}

// DecodeCatalog parses a previously-encoded catalog back into Entry
// values, skipping the validation entry, section headers and the
// terminating zero record. It exists as a verification/read path
// alongside EncodeCatalog's offset-based writer.
func DecodeCatalog(data []byte) ([]Entry, error) {
	if len(data) < catalogEntrySize*2 {
		return nil, errNoEntries
	}

	var validation rawValidationEntry
	if err := parseEntry(data[0:catalogEntrySize], &validation); err != nil {
		return nil, err
	}
	platform := Platform(validation.PlatformID)

	var entries []Entry
	for off := catalogEntrySize; off+catalogEntrySize <= len(data); off += catalogEntrySize {
		chunk := data[off : off+catalogEntrySize]
		if isZero(chunk) {
			break
		}
		if chunk[0] == headerIDMore || chunk[0] == headerIDFinal {
			platform = Platform(chunk[1])
			continue
		}
		var sec rawSectionEntry
		if err := parseEntry(chunk, &sec); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Platform:          platform,
			Emulation:         Emulation(sec.BootMediaType),
			LoadSegment:       sec.LoadSegment,
			ImageLBA:          sec.LoadRBA,
			ImageSize:         int64(sec.SectorCount) * 512,
			SelectionCriteria: sec.Selection,
		})
	}
	return entries, nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
