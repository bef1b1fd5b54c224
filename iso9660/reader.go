package iso9660

import (
	"errors"
	"strings"

	"github.com/hadrisrs/diskimg/blockio"
)

// Reader navigates an ISO 9660 image already written by a Writer (or any
// conformant image), grounded in fat32's own mount/open pattern: parse a
// fixed volume descriptor at a known sector, then resolve paths by
// repeated linear scan of directory extents, rather than vaerh-iso9660's
// write-only ImageWriter (which has no counterpart read path at all).
type Reader struct {
	dev        blockio.SectorReader
	rootExtent uint32
	rootSize   uint32
}

// ErrNotISO9660 is returned when no Primary Volume Descriptor is found in
// the first 32 sectors past the system area.
var ErrNotISO9660 = errors.New("iso9660: no primary volume descriptor found")

// ErrReaderNotFound mirrors fat32.NotFound for a missing path.
type ErrReaderNotFound struct{ Path string }

func (e *ErrReaderNotFound) Error() string { return "iso9660: not found: " + e.Path }

// NotADirectory is returned when ReadDir is called on a plain file.
type NotADirectory struct{ Path string }

func (e *NotADirectory) Error() string { return "iso9660: not a directory: " + e.Path }

// Mount scans the volume descriptor set starting at sector
// SystemAreaSectors and returns a Reader built from the first Primary
// Volume Descriptor found.
func Mount(dev blockio.SectorReader) (*Reader, error) {
	buf := make([]byte, SectorSize)
	for lba := SystemAreaSectors; lba < SystemAreaSectors+32; lba++ {
		if err := dev.ReadSector(buf, int64(lba)); err != nil {
			return nil, err
		}
		switch buf[pvdTypeOff] {
		case vdTypeTerminator:
			return nil, ErrNotISO9660
		case vdTypePrimary:
			p := asPVD(buf)
			rec := p.RootDirRecord()
			return &Reader{dev: dev, rootExtent: rec.Extent(), rootSize: rec.DataLen()}, nil
		}
	}
	return nil, ErrNotISO9660
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Entry is one record returned by ReadDir.
type Entry struct {
	Name   string
	Extent uint32
	Size   uint32
	IsDir  bool
}

// readExtent reads an extent's full DataLen bytes (already sector
// padded) into memory. ISO 9660 directory extents and El Torito boot
// images are small enough in the scenarios this library targets that a
// whole-extent read is simpler than chunked iteration.
func (r *Reader) readExtent(extent, size uint32) ([]byte, error) {
	sectors := (size + SectorSize - 1) / SectorSize
	buf := make([]byte, sectors*SectorSize)
	ss := make([]byte, SectorSize)
	for i := uint32(0); i < sectors; i++ {
		if err := r.dev.ReadSector(ss, int64(extent+i)); err != nil {
			return nil, err
		}
		copy(buf[i*SectorSize:], ss)
	}
	return buf[:size], nil
}

// readDir lists the entries of a directory extent, skipping the "." and
// ".." self/parent records.
func (r *Reader) readDir(extent, size uint32) ([]Entry, error) {
	buf, err := r.readExtent(extent, size)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for pos := 0; pos < len(buf); {
		sectorEnd := (pos/SectorSize + 1) * SectorSize
		if pos >= sectorEnd || buf[pos] == 0 {
			pos = sectorEnd
			continue
		}
		rec := asDirRecord(buf[pos : pos+int(buf[pos])])
		name := rec.Name()
		pos += rec.Len()
		if name == "\x00" || name == "\x01" {
			continue
		}
		out = append(out, Entry{
			Name:   strings.TrimSuffix(name, ";1"),
			Extent: rec.Extent(),
			Size:   rec.DataLen(),
			IsDir:  rec.IsDir(),
		})
	}
	return out, nil
}

// ReadDir lists the contents of the directory at path ("/" for root).
func (r *Reader) ReadDir(path string) ([]Entry, error) {
	extent, size, isDir, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, &NotADirectory{Path: path}
	}
	return r.readDir(extent, size)
}

// Stat resolves path to its directory-record metadata.
func (r *Reader) Stat(path string) (Entry, error) {
	extent, size, isDir, err := r.resolve(path)
	if err != nil {
		return Entry{}, err
	}
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	return Entry{Name: strings.TrimSuffix(name, ";1"), Extent: extent, Size: size, IsDir: isDir}, nil
}

// ReadFile returns a file's full contents.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	extent, size, isDir, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if isDir {
		return nil, ErrIsDir
	}
	return r.readExtent(extent, size)
}

func (r *Reader) resolve(path string) (extent, size uint32, isDir bool, err error) {
	parts := splitPath(path)
	curExtent, curSize, curIsDir := r.rootExtent, r.rootSize, true
	for _, part := range parts {
		if !curIsDir {
			return 0, 0, false, &NotADirectory{Path: path}
		}
		entries, derr := r.readDir(curExtent, curSize)
		if derr != nil {
			return 0, 0, false, derr
		}
		found := false
		for _, e := range entries {
			if strings.EqualFold(e.Name, part) {
				curExtent, curSize, curIsDir = e.Extent, e.Size, e.IsDir
				found = true
				break
			}
		}
		if !found {
			return 0, 0, false, &ErrReaderNotFound{Path: path}
		}
	}
	return curExtent, curSize, curIsDir, nil
}
