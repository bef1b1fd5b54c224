package fat32

import "fmt"

// findResult locates a directory slot by walking a directory's cluster
// chain and reading its fixed 32-byte records directly from the sector
// device, grounded in the teacher's dir.find walking logic (fat.go)
// generalized onto fs.clusterSector/fs.clusterBytes and stripped of the
// long-filename checksum/continuation handling (reserved, not
// interpreted, per spec.md's Non-goals).
type findResult struct {
	cluster uint32 // directory cluster the slot lives in
	sector  int64  // absolute LBA of the sector holding the slot
	offset  int    // byte offset of the slot within that sector
}

// find searches the directory chain rooted at dirCluster for an exact,
// case-normalized 8.3 name match (spec.md §4.2.3 "find"). It returns
// ErrNotExist-shaped *NotFound if no match is found before the
// end-of-directory marker.
func (fs *FS) find(dirCluster uint32, shortName [11]byte) (findResult, dirent, error) {
	var zero findResult
	entsPerSector := fs.sectorSize / sizeDirEntry

	c := dirCluster
	for {
		base := fs.clusterSector(c)
		for s := uint32(0); s < fs.sectorsPerCluster; s++ {
			sector := base + int64(s)
			if err := fs.window(sector); err != nil {
				return zero, dirent{}, err
			}
			for i := uint32(0); i < entsPerSector; i++ {
				off := int(i * sizeDirEntry)
				d := asDirent(fs.win[off : off+sizeDirEntry])
				if d.IsEndMarker() {
					return zero, dirent{}, &NotFound{Path: string(shortName[:])}
				}
				if d.IsDeleted() || d.Attr().IsLongName() {
					continue
				}
				if d.ShortName() == shortName {
					return findResult{cluster: c, sector: sector, offset: off}, d, nil
				}
			}
		}
		e, err := fs.fatEntry(c)
		if err != nil {
			return zero, dirent{}, err
		}
		if isEOC(e) {
			return zero, dirent{}, &NotFound{Path: string(shortName[:])}
		}
		c = e & fatEntryMask
	}
}

// insert writes a new 32-byte entry into the first free or deleted slot
// of the directory chain rooted at dirCluster, extending the chain by
// one cluster if none is found (spec.md §4.2.3 "insert"). If the chain
// cannot be extended (out of space), the directory is considered full
// and a *DirectoryFull is returned per the Open Question decision in
// spec.md §9 — callers never silently grow past that failure.
func (fs *FS) insert(dirCluster uint32) (findResult, dirent, error) {
	var zero findResult
	entsPerSector := fs.sectorSize / sizeDirEntry

	c := dirCluster
	var last uint32
	for {
		last = c
		base := fs.clusterSector(c)
		for s := uint32(0); s < fs.sectorsPerCluster; s++ {
			sector := base + int64(s)
			if err := fs.window(sector); err != nil {
				return zero, dirent{}, err
			}
			for i := uint32(0); i < entsPerSector; i++ {
				off := int(i * sizeDirEntry)
				d := asDirent(fs.win[off : off+sizeDirEntry])
				if d.IsFree() || d.IsDeleted() {
					d.Clear()
					fs.dirtyWindow()
					return findResult{cluster: c, sector: sector, offset: off}, d, nil
				}
			}
		}
		e, err := fs.fatEntry(c)
		if err != nil {
			return zero, dirent{}, err
		}
		if !isEOC(e) {
			c = e & fatEntryMask
			continue
		}
		break
	}

	// No free slot in the existing chain: extend by one cluster.
	newLen, err := fs.chainLength(dirCluster)
	if err != nil {
		return zero, dirent{}, err
	}
	extended, err := fs.retainClusterChain(dirCluster, newLen+1)
	if err != nil {
		return zero, dirent{}, &DirectoryFull{Cluster: last}
	}
	_ = extended

	newCluster, err := fs.clusterAt(dirCluster, newLen)
	if err != nil {
		return zero, dirent{}, err
	}
	if err := fs.zeroCluster(newCluster); err != nil {
		return zero, dirent{}, err
	}
	sector := fs.clusterSector(newCluster)
	if err := fs.window(sector); err != nil {
		return zero, dirent{}, err
	}
	d := asDirent(fs.win[0:sizeDirEntry])
	fs.dirtyWindow()
	return findResult{cluster: newCluster, sector: sector, offset: 0}, d, nil
}

// zeroCluster overwrites an entire cluster with zero bytes, used when a
// directory chain is extended so the new block's entries all read as
// direEmpty end-markers.
func (fs *FS) zeroCluster(c uint32) error {
	var blank [512]byte
	base := fs.clusterSector(c)
	for s := uint32(0); s < fs.sectorsPerCluster; s++ {
		sector := base + int64(s)
		if sector == fs.winSect {
			copy(fs.win[:], blank[:])
			fs.dirtyWindow()
			continue
		}
		if err := fs.dev.WriteSector(blank[:fs.sectorSize], sector); err != nil {
			return fmt.Errorf("fat32: zero cluster %d: %w", c, err)
		}
	}
	return nil
}
