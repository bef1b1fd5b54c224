package fat32

import "fmt"

// InvalidFileSystem is returned by Mount when the boot sector fails one of
// the FAT32 identification checks (spec.md §3.2, §4.2.5).
type InvalidFileSystem struct {
	Field string
}

func (e *InvalidFileSystem) Error() string {
	return fmt.Sprintf("fat32: invalid boot sector: %s", e.Field)
}

// OutOfSpace is returned when a cluster allocation request cannot be
// satisfied by the remaining free clusters.
type OutOfSpace struct {
	Requested, Available uint32
}

func (e *OutOfSpace) Error() string {
	return fmt.Sprintf("fat32: out of space: requested %d clusters, %d available", e.Requested, e.Available)
}

// NotFound is returned when a path component cannot be located in its
// parent directory.
type NotFound struct {
	Path string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("fat32: not found: %s", e.Path)
}

// IsDirectory is returned when a file operation is attempted on a
// directory entry.
type IsDirectory struct {
	Path string
}

func (e *IsDirectory) Error() string { return fmt.Sprintf("fat32: is a directory: %s", e.Path) }

// IsFile is returned when a directory operation is attempted on a file
// entry.
type IsFile struct {
	Path string
}

func (e *IsFile) Error() string { return fmt.Sprintf("fat32: is a file: %s", e.Path) }

// DirectoryFull is returned by insert when a directory's cluster chain has
// no free or deleted slot left and the chain cannot be extended by another
// cluster (insert first tries to grow the directory by one cluster).
type DirectoryFull struct {
	Cluster uint32
}

func (e *DirectoryFull) Error() string {
	return fmt.Sprintf("fat32: directory full at cluster %d", e.Cluster)
}

// BadCluster is returned when a chain traversal encounters a cluster number
// outside [2, maxCluster] that is not one of the reserved FAT values.
type BadCluster struct {
	Cluster uint32
}

func (e *BadCluster) Error() string {
	return fmt.Sprintf("fat32: cluster %d out of range", e.Cluster)
}

// OperationNotSupported is returned for operations this engine declines:
// opening a file when the descriptor table is full, reading or writing
// through a handle not opened for it, and seeking with a bad whence or to a
// negative position.
type OperationNotSupported struct {
	Op string
}

func (e *OperationNotSupported) Error() string {
	return fmt.Sprintf("fat32: operation not supported: %s", e.Op)
}
