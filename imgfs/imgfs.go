// Package imgfs is a filesystem-agnostic facade over the fat32 and
// iso9660 engines, per spec.md §9's "polymorphic handle over the
// capability set {open, create, read, write}" design note. Dispatch is a
// closed tagged switch over Kind, not reflection or a plugin registry,
// matching §9's "closed set of backends known at build time" and the
// teacher corpus's preference for concrete types over interface-heavy
// indirection wherever the backend set is fixed.
package imgfs

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/hadrisrs/diskimg/blockio"
	"github.com/hadrisrs/diskimg/fat32"
	"github.com/hadrisrs/diskimg/iso9660"
)

// Kind selects which concrete filesystem engine backs an FS.
type Kind int

const (
	KindFAT32 Kind = iota
	KindISO9660
)

// ErrReadOnly is returned by Create/Write on a read-only backend (every
// ISO 9660 image, since this module only ever writes one in a single
// finished pass via iso9660.Writer).
var ErrReadOnly = errors.New("imgfs: backend is read-only")

// FileInfo is the backend-agnostic projection of fat32.FileInfo and
// iso9660.Entry.
type FileInfo struct {
	Name    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

// File is the capability set common to both backends: read, write (where
// supported), seek (where supported) and close. Callers that need to
// detect unsupported operations get a plain error back, rather than a
// type assertion, since both backends return *fat32.File or a File
// wrapping an in-memory buffer uniformly.
type File interface {
	io.Reader
	io.Writer
	io.Closer
}

// FS is the facade every backend implements.
type FS interface {
	Open(path string) (File, error)
	Create(path string) (File, error)
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]FileInfo, error)
}

// Open mounts dev as kind and returns the matching FS implementation.
func Open(kind Kind, dev blockio.SectorDevice) (FS, error) {
	switch kind {
	case KindFAT32:
		fs, err := fat32.Mount(dev)
		if err != nil {
			return nil, err
		}
		return &fat32Adapter{fs: fs}, nil
	case KindISO9660:
		r, err := iso9660.Mount(dev)
		if err != nil {
			return nil, err
		}
		return &iso9660Adapter{r: r}, nil
	default:
		return nil, errors.New("imgfs: unknown Kind")
	}
}

// fat32Adapter adapts *fat32.FS to FS.
type fat32Adapter struct{ fs *fat32.FS }

func (a *fat32Adapter) Open(path string) (File, error) {
	return a.fs.OpenFile(path, fat32.ModeRead)
}

func (a *fat32Adapter) Create(path string) (File, error) {
	return a.fs.OpenFile(path, fat32.ModeRead|fat32.ModeWrite|fat32.ModeCreate)
}

func (a *fat32Adapter) Stat(path string) (FileInfo, error) {
	fi, err := a.fs.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Name: fi.Name(), Size: int64(fi.Size()), IsDir: fi.IsDir(), ModTime: fi.ModTime()}, nil
}

func (a *fat32Adapter) ReadDir(path string) ([]FileInfo, error) {
	dp, err := a.fs.OpenDir(path)
	if err != nil {
		return nil, err
	}
	var out []FileInfo
	for {
		fi, ok, err := dp.ReadDir()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, FileInfo{Name: fi.Name(), Size: int64(fi.Size()), IsDir: fi.IsDir(), ModTime: fi.ModTime()})
	}
	return out, nil
}

// iso9660Adapter adapts *iso9660.Reader to FS. ISO 9660 images built by
// this module are immutable once written, so Create always fails and
// Open returns a buffer already holding the whole file's bytes.
type iso9660Adapter struct{ r *iso9660.Reader }

func (a *iso9660Adapter) Open(path string) (File, error) {
	data, err := a.r.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &readOnlyFile{Reader: bytes.NewReader(data)}, nil
}

func (a *iso9660Adapter) Create(path string) (File, error) {
	return nil, ErrReadOnly
}

func (a *iso9660Adapter) Stat(path string) (FileInfo, error) {
	e, err := a.r.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Name: e.Name, Size: int64(e.Size), IsDir: e.IsDir}, nil
}

func (a *iso9660Adapter) ReadDir(path string) ([]FileInfo, error) {
	entries, err := a.r.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, len(entries))
	for i, e := range entries {
		out[i] = FileInfo{Name: e.Name, Size: int64(e.Size), IsDir: e.IsDir}
	}
	return out, nil
}

// readOnlyFile wraps an in-memory buffer so iso9660Adapter.Open can
// satisfy the File interface's Writer requirement with a clean error
// instead of a type assertion callers would need to guess at.
type readOnlyFile struct {
	*bytes.Reader
}

func (f *readOnlyFile) Write(p []byte) (int, error) { return 0, ErrReadOnly }
func (f *readOnlyFile) Close() error                 { return nil }
