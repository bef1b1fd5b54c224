package fat32

import "encoding/binary"

// dirent views one 32-byte slot of a directory's cluster chain
// (spec.md §3.2 "Directory record").
type dirent struct {
	data []byte
}

func asDirent(b []byte) dirent { return dirent{data: b[:sizeDirEntry:sizeDirEntry]} }

func (d dirent) IsFree() bool    { return d.data[dirNameOff] == direEmpty }
func (d dirent) IsDeleted() bool { return d.data[dirNameOff] == direDeleted }
func (d dirent) IsEndMarker() bool { return d.data[dirNameOff] == direEmpty }

// ShortName returns the raw 11-byte 8.3 name field, space-padded.
func (d dirent) ShortName() [11]byte {
	var name [11]byte
	copy(name[:], d.data[dirNameOff:dirNameOff+11])
	return name
}

func (d dirent) SetShortName(name [11]byte) {
	copy(d.data[dirNameOff:dirNameOff+11], name[:])
}

func (d dirent) Attr() fileattr      { return fileattr(d.data[dirAttrOff]) }
func (d dirent) SetAttr(a fileattr)  { d.data[dirAttrOff] = byte(a) }

func (d dirent) Cluster() uint32 {
	hi := binary.LittleEndian.Uint16(d.data[dirFstClusHIOff:])
	lo := binary.LittleEndian.Uint16(d.data[dirFstClusLOOff:])
	return uint32(hi)<<16 | uint32(lo)
}

func (d dirent) SetCluster(c uint32) {
	binary.LittleEndian.PutUint16(d.data[dirFstClusHIOff:], uint16(c>>16))
	binary.LittleEndian.PutUint16(d.data[dirFstClusLOOff:], uint16(c))
}

func (d dirent) Size() uint32     { return binary.LittleEndian.Uint32(d.data[dirFileSizeOff:]) }
func (d dirent) SetSize(sz uint32) { binary.LittleEndian.PutUint32(d.data[dirFileSizeOff:], sz) }

func (d dirent) CreatedAt() datetime {
	return datetime{
		date: binary.LittleEndian.Uint16(d.data[dirCrtDateOff:]),
		tyme: binary.LittleEndian.Uint16(d.data[dirCrtTimeOff:]),
		fine: d.data[dirCrtTime10Off],
	}
}

func (d dirent) SetCreatedAt(dt datetime) {
	binary.LittleEndian.PutUint16(d.data[dirCrtDateOff:], dt.date)
	binary.LittleEndian.PutUint16(d.data[dirCrtTimeOff:], dt.tyme)
	d.data[dirCrtTime10Off] = dt.fine
}

func (d dirent) ModifiedAt() datetime {
	return datetime{
		date: binary.LittleEndian.Uint16(d.data[dirModDateOff:]),
		tyme: binary.LittleEndian.Uint16(d.data[dirModTimeOff:]),
	}
}

func (d dirent) SetModifiedAt(dt datetime) {
	binary.LittleEndian.PutUint16(d.data[dirModDateOff:], dt.date)
	binary.LittleEndian.PutUint16(d.data[dirModTimeOff:], dt.tyme)
}

func (d dirent) SetAccessedAt(dt datetime) {
	binary.LittleEndian.PutUint16(d.data[dirLstAccDateOff:], dt.date)
}

func (d dirent) Clear() {
	for i := range d.data {
		d.data[i] = 0
	}
}

// shortNameFromPath splits the final path component into an upper-cased,
// space-padded 8.3 name, per spec.md §4.2.4 "open": split at the final
// '.', uppercase, truncate to 8/3.
func shortNameFromPath(component string) (name [11]byte, err error) {
	base, ext := component, ""
	for i := len(component) - 1; i >= 0; i-- {
		if component[i] == '.' {
			base, ext = component[:i], component[i+1:]
			break
		}
	}
	if len(base) > 8 {
		base = base[:8]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}
	for i := 0; i < 11; i++ {
		name[i] = ' '
	}
	n := copy(name[0:8], upperASCII(base))
	_ = n
	copy(name[8:11], upperASCII(ext))
	return name, nil
}

func upperASCII(s string) []byte {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return b
}
