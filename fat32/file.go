package fat32

import (
	"io"
	"strings"
)

// Mode flags control OpenFile behavior (spec.md §4.2.4 "open").
type Mode uint8

const (
	ModeRead Mode = 1 << iota
	ModeWrite
	ModeAppend
	ModeCreate
)

// descriptor is a single open-file slot in FS.descriptors, grounded in
// the teacher's fat.File struct generalized off its embedded window onto
// the shared FS window cache.
type descriptor struct {
	fs *FS

	entryLoc findResult // location of this file's 32-byte directory record
	parent   uint32     // directory cluster containing entryLoc

	firstCluster uint32
	size         uint32
	mode         Mode
	pos          uint32

	closed bool
}

// File is a handle returned by OpenFile.
type File struct {
	d *descriptor
}

// splitPath breaks a simple "/"-separated absolute path into components,
// ignoring empty segments (leading/duplicate slashes). Segments longer
// than 8.3 are not rejected; shortNameFromPath truncates them to 8.3,
// matching spec.md's "8.3 only" Non-goal.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OpenFile opens or creates the file named by path (an absolute,
// "/"-separated 8.3 path) according to mode, per spec.md §4.2.4.
func (fs *FS) OpenFile(path string, mode Mode) (*File, error) {
	comps := splitPath(path)
	if len(comps) == 0 {
		return nil, &NotFound{Path: path}
	}

	dirCluster := fs.rootCluster
	for i := 0; i < len(comps)-1; i++ {
		name, err := shortNameFromPath(comps[i])
		if err != nil {
			return nil, err
		}
		_, d, err := fs.find(dirCluster, name)
		if err != nil {
			return nil, &NotFound{Path: path}
		}
		if !d.Attr().IsDirectory() {
			return nil, &IsFile{Path: comps[i]}
		}
		dirCluster = d.Cluster()
		if dirCluster == 0 {
			dirCluster = fs.rootCluster
		}
	}

	leaf := comps[len(comps)-1]
	name, err := shortNameFromPath(leaf)
	if err != nil {
		return nil, err
	}

	loc, d, err := fs.find(dirCluster, name)
	if err != nil {
		if _, ok := err.(*NotFound); !ok || mode&ModeCreate == 0 {
			return nil, err
		}
		newLoc, nd, ierr := fs.insert(dirCluster)
		if ierr != nil {
			return nil, ierr
		}
		nd.SetShortName(name)
		nd.SetAttr(attrArchive)
		nd.SetCluster(0)
		nd.SetSize(0)
		now := newDatetime(fs.clk.Now())
		nd.SetCreatedAt(now)
		nd.SetModifiedAt(now)
		nd.SetAccessedAt(now)
		if err := fs.syncWindow(); err != nil {
			return nil, err
		}
		loc, d = newLoc, nd
	} else if d.Attr().IsDirectory() {
		return nil, &IsDirectory{Path: leaf}
	}

	desc := &descriptor{
		fs:           fs,
		entryLoc:     loc,
		parent:       dirCluster,
		firstCluster: d.Cluster(),
		size:         d.Size(),
		mode:         mode,
	}
	if mode&ModeAppend != 0 {
		desc.pos = desc.size
	}

	slot, err := fs.allocDescriptor(desc)
	if err != nil {
		return nil, err
	}
	_ = slot
	return &File{d: desc}, nil
}

func (fs *FS) allocDescriptor(d *descriptor) (int, error) {
	for i, slot := range fs.descriptors {
		if slot == nil {
			fs.descriptors[i] = d
			return i, nil
		}
	}
	return 0, &OperationNotSupported{Op: "open: descriptor table full"}
}

func (fs *FS) freeDescriptor(d *descriptor) {
	for i, slot := range fs.descriptors {
		if slot == d {
			fs.descriptors[i] = nil
			return
		}
	}
}

// entry re-reads the live directory record for this descriptor, sliding
// the shared window onto its sector — valid only until the next window
// access, per fs.window's single-sector cache contract.
func (d *descriptor) entry() (dirent, error) {
	if err := d.fs.window(d.entryLoc.sector); err != nil {
		return dirent{}, err
	}
	return asDirent(d.fs.win[d.entryLoc.offset : d.entryLoc.offset+sizeDirEntry]), nil
}

// Read implements io.Reader, walking the file's cluster chain from the
// current position (spec.md §4.2.4 "read").
func (f *File) Read(p []byte) (int, error) {
	d := f.d
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	if d.mode&ModeRead == 0 {
		return 0, &OperationNotSupported{Op: "read: not opened for reading"}
	}
	if d.pos >= d.size {
		return 0, io.EOF
	}
	fs := d.fs
	remaining := d.size - d.pos
	want := uint32(len(p))
	if want > remaining {
		want = remaining
	}
	if want == 0 {
		return 0, io.EOF
	}

	clusterBytes := fs.clusterBytes()
	n := uint32(0)
	for n < want {
		clusterIdx := (d.pos + n) / clusterBytes
		inClusterOff := (d.pos + n) % clusterBytes
		cluster, err := fs.clusterAt(d.firstCluster, clusterIdx)
		if err != nil {
			return int(n), err
		}
		sectorIdx := inClusterOff / fs.sectorSize
		sectorOff := inClusterOff % fs.sectorSize
		sector := fs.clusterSector(cluster) + int64(sectorIdx)

		if err := fs.window(sector); err != nil {
			return int(n), err
		}
		chunk := fs.sectorSize - sectorOff
		left := want - n
		if chunk > left {
			chunk = left
		}
		copy(p[n:n+chunk], fs.win[sectorOff:sectorOff+chunk])
		n += chunk
	}
	d.pos += n

	if entry, err := d.entry(); err == nil {
		entry.SetAccessedAt(newDatetime(fs.clk.Now()))
		fs.dirtyWindow()
	}
	var retErr error
	if d.pos >= d.size {
		retErr = io.EOF
	}
	return int(n), retErr
}

// Write implements io.Writer, allocating clusters as needed past the
// current end-of-file (spec.md §4.2.4 "write").
func (f *File) Write(p []byte) (int, error) {
	d := f.d
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	if d.mode&ModeWrite == 0 {
		return 0, &OperationNotSupported{Op: "write: not opened for writing"}
	}
	if d.mode&ModeAppend != 0 {
		d.pos = d.size
	}
	fs := d.fs
	if len(p) == 0 {
		return 0, nil
	}

	clusterBytes := fs.clusterBytes()
	endPos := d.pos + uint32(len(p))
	neededClusters := (endPos + clusterBytes - 1) / clusterBytes
	if d.firstCluster == 0 && endPos > 0 {
		first, err := fs.allocateChain(neededClusters)
		if err != nil {
			return 0, err
		}
		d.firstCluster = first
	} else {
		curClusters, err := fs.chainLength(d.firstCluster)
		if err != nil {
			return 0, err
		}
		if neededClusters > curClusters {
			if _, err := fs.retainClusterChain(d.firstCluster, neededClusters); err != nil {
				return 0, err
			}
		}
	}

	n := uint32(0)
	want := uint32(len(p))
	for n < want {
		clusterIdx := (d.pos + n) / clusterBytes
		inClusterOff := (d.pos + n) % clusterBytes
		cluster, err := fs.clusterAt(d.firstCluster, clusterIdx)
		if err != nil {
			return int(n), err
		}
		sectorIdx := inClusterOff / fs.sectorSize
		sectorOff := inClusterOff % fs.sectorSize
		sector := fs.clusterSector(cluster) + int64(sectorIdx)

		if err := fs.window(sector); err != nil {
			return int(n), err
		}
		chunk := fs.sectorSize - sectorOff
		left := want - n
		if chunk > left {
			chunk = left
		}
		copy(fs.win[sectorOff:sectorOff+chunk], p[n:n+chunk])
		fs.dirtyWindow()
		n += chunk
	}
	d.pos += n
	if d.pos > d.size {
		d.size = d.pos
	}

	entry, err := d.entry()
	if err != nil {
		return int(n), err
	}
	entry.SetCluster(d.firstCluster)
	entry.SetSize(d.size)
	now := newDatetime(fs.clk.Now())
	entry.SetModifiedAt(now)
	entry.SetAccessedAt(now)
	fs.dirtyWindow()
	return int(n), nil
}

// Seek repositions the file offset, per io.Seeker semantics.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	d := f.d
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(d.pos)
	case io.SeekEnd:
		base = int64(d.size)
	default:
		return 0, &OperationNotSupported{Op: "seek: bad whence"}
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, &OperationNotSupported{Op: "seek: negative position"}
	}
	d.pos = uint32(newPos)
	return newPos, nil
}

// Size returns the file's current length in bytes.
func (f *File) Size() uint32 { return f.d.size }

// Sync flushes the filesystem's shared sector window.
func (f *File) Sync() error { return f.d.fs.Sync() }

// Close releases the descriptor table slot. It does not itself flush the
// window; call FS.Sync for that, matching the teacher's explicit
// fsys.Sync() step separate from File.Close.
func (f *File) Close() error {
	if f.d.closed {
		return nil
	}
	f.d.closed = true
	f.d.fs.freeDescriptor(f.d)
	return nil
}
