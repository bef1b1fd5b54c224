package iso9660

import (
	"errors"
	"io"
	"path"
	"reflect"
	"sort"
	"strings"
	"time"

	log "github.com/dsoprea/go-logging"
)

// ErrIsDir mirrors the teacher corpus's sentinel for "expected a file,
// found a directory" during tree construction.
var ErrIsDir = errors.New("iso9660: path is a directory")

// ErrExists is returned when AddFile/AddDir targets an already-occupied
// path.
var ErrExists = errors.New("iso9660: path already exists")

// FileProducer lazily yields a file's bytes once every extent in the
// image has been assigned, so content that embeds another file's LBA
// (the El Torito boot catalog, boot-info-table patches) can be computed
// after Plan runs instead of before.
type FileProducer func(extents map[string]uint32) ([]byte, error)

type node struct {
	name     string
	isDir    bool
	parent   *node
	children []*node // directories only, kept sorted by name

	size    int64
	reader  io.Reader
	produce FileProducer

	depth   int
	extent  uint32
	sectors uint32
	pathIdx uint16 // 1-based, directories only
	when    shortDateTime
}

// Writer stages a directory tree and emits it as an ISO 9660 image
// (spec.md §4.3.1), grounded in vaerh-iso9660/image_writer.go's
// ImageWriter/itemDir staging model, generalized to a lazy FileProducer
// so the El Torito boot catalog (iso9660's sibling eltorito package) can
// register content that depends on other files' assigned extents.
type Writer struct {
	VolumeID    string
	SystemID    string
	Publisher   string
	DataPreparer string
	Application string
	Timestamp   time.Time

	// ExtraDescriptors holds pre-built 2048-byte volume descriptor bodies
	// (e.g. an El Torito boot record VD) inserted between the PVD and
	// the terminator.
	ExtraDescriptors [][]byte

	root *node

	// populated by Plan
	dirs      []*node
	files     []*node
	ltable    []byte
	mtable    []byte
	pvdLBA    uint32
	termLBA   uint32
	ltableLBA uint32
	mtableLBA uint32
	total     uint32
	planned   bool
}

// NewWriter returns an empty Writer with a root directory.
func NewWriter() *Writer {
	return &Writer{
		Application: "github.com/hadrisrs/diskimg",
		root:        &node{name: "\x00", isDir: true},
	}
}

func splitISOPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (w *Writer) mkdirAll(parts []string) (*node, error) {
	cur := w.root
	for _, seg := range parts {
		var next *node
		for _, c := range cur.children {
			if c.name == seg {
				next = c
				break
			}
		}
		if next == nil {
			next = &node{name: seg, isDir: true, parent: cur, depth: cur.depth + 1}
			cur.children = append(cur.children, next)
		} else if !next.isDir {
			return nil, ErrIsDir
		}
		cur = next
	}
	return cur, nil
}

// AddDir ensures path exists as a directory, creating intermediate
// directories as needed.
func (w *Writer) AddDir(p string) error {
	_, err := w.mkdirAll(splitISOPath(p))
	return err
}

// AddFile registers a file with content known up front.
func (w *Writer) AddFile(p string, r io.Reader, size int64) error {
	return w.addFile(p, size, r, nil)
}

// AddFileFunc registers a file whose content is produced lazily after
// Plan assigns every extent in the image.
func (w *Writer) AddFileFunc(p string, size int64, produce FileProducer) error {
	return w.addFile(p, size, nil, produce)
}

func (w *Writer) addFile(p string, size int64, r io.Reader, produce FileProducer) error {
	parts := splitISOPath(p)
	if len(parts) == 0 {
		return errors.New("iso9660: empty path")
	}
	dir, err := w.mkdirAll(parts[:len(parts)-1])
	if err != nil {
		return err
	}
	name := parts[len(parts)-1]
	for _, c := range dir.children {
		if c.name == name {
			return ErrExists
		}
	}
	dir.children = append(dir.children, &node{
		name: name, parent: dir, depth: dir.depth + 1,
		size: size, reader: r, produce: produce,
	})
	return nil
}

// Extent returns the assigned LBA for path after Plan has run.
func (w *Writer) Extent(p string) (uint32, bool) {
	n := w.find(p)
	if n == nil {
		return 0, false
	}
	return n.extent, true
}

func (w *Writer) find(p string) *node {
	parts := splitISOPath(p)
	cur := w.root
	for _, seg := range parts {
		var next *node
		for _, c := range cur.children {
			if c.name == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func sortChildren(n *node) {
	sort.Slice(n.children, func(i, j int) bool { return n.children[i].name < n.children[j].name })
	for _, c := range n.children {
		if c.isDir {
			sortChildren(c)
		}
	}
}

// dirSectors computes the number of sectors a directory's own record
// table occupies: "." and ".." plus one record per child,
// never letting a record straddle a sector boundary (ECMA-119 6.8.1.1).
func dirSectors(n *node) uint32 {
	used := recordLength(1) * 2 // "." and ".."
	sectors := uint32(1)
	for _, c := range n.children {
		rl := recordLength(len(c.name))
		if used+rl > SectorSize {
			sectors++
			used = rl
		} else {
			used += rl
		}
	}
	return sectors
}

func fileSectors(size int64) uint32 {
	return uint32((size + SectorSize - 1) / SectorSize)
}

// Plan assigns every volume descriptor, path table and directory/file
// extent in the image without writing any bytes, per spec.md §4.3.1's
// Pass 0/Pass 1 split: inventory, then payload-LBA assignment. Files
// must be registered (including FileProducers) before Plan: WriteTo does
// not re-plan an already planned Writer, so a file added after Plan is
// given no extent and is not written. After Plan, callers can read back
// Extent()/Sectors() (El Torito does so to patch its Boot Record volume
// descriptor); FileProducers run during WriteTo with every extent known.
func (w *Writer) Plan() error {
	sortChildren(w.root)
	w.dirs = nil
	w.files = nil

	// Breadth-first directory order, matching path-table emission order
	// (ECMA-119 9.4: parent directories precede their children).
	queue := []*node{w.root}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		w.dirs = append(w.dirs, d)
		for _, c := range d.children {
			if c.isDir {
				queue = append(queue, c)
			} else {
				w.files = append(w.files, c)
			}
		}
	}
	sort.SliceStable(w.files, func(i, j int) bool { return w.files[i].depth < w.files[j].depth })

	for i, d := range w.dirs {
		d.pathIdx = uint16(i + 1)
		d.sectors = dirSectors(d)
	}
	for _, f := range w.files {
		f.sectors = fileSectors(f.size)
	}

	lba := uint32(SystemAreaSectors)
	w.pvdLBA = lba
	lba++
	for range w.ExtraDescriptors {
		lba++
	}
	w.termLBA = lba
	lba++

	entries := make([]pathTableEntry, len(w.dirs))
	for i, d := range w.dirs {
		parentIdx := uint16(1)
		if d.parent != nil {
			parentIdx = d.parent.pathIdx
		}
		name := d.name
		if d == w.root {
			name = "\x00"
		}
		entries[i] = pathTableEntry{NameLen: uint8(len(name)), ParentIdx: parentIdx, Name: name}
	}
	// Extents filled in after directory LBAs are known (below); encode
	// after that loop to keep the L/M tables' extent fields correct.

	for _, d := range w.dirs {
		d.extent = lba
		lba += d.sectors
	}
	for i := range entries {
		entries[i].ExtentLBA = w.dirs[i].extent
	}
	w.ltable = encodeLTable(entries)
	w.mtable = encodeMTable(entries)
	w.ltableLBA = lba
	lba += pathTableSectors(len(w.ltable))
	w.mtableLBA = lba
	lba += pathTableSectors(len(w.mtable))

	// Path tables land after the directory extents rather than before
	// them (the classical ISO layout), since the L/M tables need every
	// directory's extent to encode their own records; WriteTo's physical
	// write order follows this same directories-then-tables sequence.
	// Still ECMA-119 legal: nothing mandates a specific path-table LBA
	// beyond the PVD fields pointing at it correctly.
	for _, f := range w.files {
		f.extent = lba
		lba += f.sectors
	}

	w.total = lba
	w.planned = true
	return nil
}

// Sectors returns the sector count assigned to path after Plan.
func (w *Writer) Sectors(p string) (uint32, bool) {
	n := w.find(p)
	if n == nil {
		return 0, false
	}
	return n.sectors, true
}

func zeroPad(w io.Writer, written int, sectors uint32) error {
	total := int(sectors) * SectorSize
	if written >= total {
		return nil
	}
	_, err := w.Write(make([]byte, total-written))
	return err
}

// WriteTo serializes the planned image, per spec.md §4.3.1 Pass 1-3 (the
// writer's earlier Plan call stands in for the spec's extent-assignment
// half of Pass 1; this method performs the actual byte emission). A
// recover boundary turns any panic from the record encoders (e.g. a name
// too long for its fixed field) into a typed error, the same
// parseN-style wrapping dsoprea-go-exfat applies around its restruct
// calls.
func (w *Writer) WriteTo(out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = log.Wrap(e)
			} else {
				err = log.Errorf("iso9660: panic encoding image: %v (%s)", r, reflect.TypeOf(r))
			}
		}
	}()
	return w.writeTo(out)
}

func (w *Writer) writeTo(out io.Writer) error {
	if !w.planned {
		if err := w.Plan(); err != nil {
			return err
		}
	}
	when := newShortDateTime(w.Timestamp)
	zeroSector := make([]byte, SectorSize)

	for i := 0; i < SystemAreaSectors; i++ {
		if _, err := out.Write(zeroSector); err != nil {
			return err
		}
	}

	pvdBuf := make([]byte, SectorSize)
	p := initPrimaryVolumeDescriptor(pvdBuf)
	p.SetSystemID(w.SystemID)
	p.SetVolumeID(w.VolumeID)
	p.SetVolumeSpaceSize(w.total)
	p.SetVolumeSetSize(1)
	p.SetVolumeSeqNumber(1)
	p.SetLogicalBlockSize(SectorSize)
	p.SetPathTableSize(uint32(len(w.ltable)))
	p.SetLPathTableLBA(w.ltableLBA)
	p.SetMPathTableLBA(w.mtableLBA)
	p.SetVolumeSetID("")
	p.SetPublisher(w.Publisher)
	p.SetDataPreparer(w.DataPreparer)
	p.SetApplication(w.Application)
	now := w.Timestamp
	p.SetCreationTime(now)
	p.SetModificationTime(now)
	p.SetEffectiveTime(now)
	encodeDirRecord(p.RootDirRecordBuf(), w.root.extent, w.root.sectors*SectorSize, when, fileFlagDirectory, 1, "\x00")
	if _, err := out.Write(pvdBuf); err != nil {
		return err
	}

	for _, desc := range w.ExtraDescriptors {
		if _, err := out.Write(desc); err != nil {
			return err
		}
	}

	termBuf := make([]byte, SectorSize)
	initTerminatorVolumeDescriptor(termBuf)
	if _, err := out.Write(termBuf); err != nil {
		return err
	}

	// Write order must match Plan's LBA assignment order: directories,
	// then path tables, then files.
	for _, d := range w.dirs {
		buf, err := encodeDirectory(d, when)
		if err != nil {
			return err
		}
		if err := writePadded(out, buf, d.sectors); err != nil {
			return err
		}
	}

	if err := writePadded(out, w.ltable, pathTableSectors(len(w.ltable))); err != nil {
		return err
	}
	if err := writePadded(out, w.mtable, pathTableSectors(len(w.mtable))); err != nil {
		return err
	}

	extents := w.extentMap()
	for _, f := range w.files {
		var data []byte
		var err error
		if f.produce != nil {
			data, err = f.produce(extents)
			if err != nil {
				return err
			}
		} else {
			data, err = io.ReadAll(f.reader)
			if err != nil {
				return err
			}
		}
		if err := writePadded(out, data, f.sectors); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) extentMap() map[string]uint32 {
	m := make(map[string]uint32)
	var walk func(n *node, prefix string)
	walk = func(n *node, prefix string) {
		for _, c := range n.children {
			p := path.Join(prefix, c.name)
			m[p] = c.extent
			if c.isDir {
				walk(c, p)
			}
		}
	}
	walk(w.root, "/")
	return m
}

func writePadded(out io.Writer, data []byte, sectors uint32) error {
	if _, err := out.Write(data); err != nil {
		return err
	}
	return zeroPad(out, len(data), sectors)
}

// encodeDirectory builds a directory's full record table: "." entry,
// ".." entry, then one record per child, never splitting a record
// across a sector boundary.
func encodeDirectory(d *node, when shortDateTime) ([]byte, error) {
	buf := make([]byte, int(d.sectors)*SectorSize)
	pos := 0
	sectorUsed := 0

	writeRec := func(extent, dataLen uint32, flags byte, name string) {
		rl := recordLength(len(name))
		if sectorUsed+rl > SectorSize {
			pos += SectorSize - sectorUsed
			sectorUsed = 0
		}
		n := encodeDirRecord(buf[pos:pos+rl], extent, dataLen, when, flags, 1, name)
		pos += n
		sectorUsed += n
	}

	writeRec(d.extent, d.sectors*SectorSize, fileFlagDirectory, "\x00")
	parentExtent, parentSectors := d.extent, d.sectors
	if d.parent != nil {
		parentExtent, parentSectors = d.parent.extent, d.parent.sectors
	}
	writeRec(parentExtent, parentSectors*SectorSize, fileFlagDirectory, "\x01")

	for _, c := range d.children {
		flags := byte(0)
		dataLen := uint32(c.size)
		if c.isDir {
			flags = fileFlagDirectory
			dataLen = c.sectors * SectorSize
		}
		writeRec(c.extent, dataLen, flags, c.name)
	}
	return buf, nil
}
