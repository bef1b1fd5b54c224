// Package iso9660 implements the ISO 9660 (ECMA-119) volume-descriptor
// set, directory record, and path table encodings plus a format-time
// writer, per spec.md §3.3/§4.3. The writer's staging model (an
// in-memory directory tree of named Items flattened into a flat extent
// list) is grounded in vaerh-iso9660/image_writer.go's ImageWriter, whose
// backing PrimaryVolumeDescriptorBody/DirectoryEntry/volumeDescriptor
// types are not present in that repo's own retrieved files — they are
// authored fresh here directly from ECMA-119 as described in spec.md,
// in the teacher fat32 package's byte-offset-accessor idiom rather than
// the teacher's own struct-tag style, for consistency across the module.
package iso9660

const (
	// SectorSize is the fixed ISO 9660 logical sector size.
	SectorSize = 2048

	// SystemAreaSectors is the number of reserved sectors (0-15) before
	// the volume descriptor set begins at LBA 16.
	SystemAreaSectors = 16
)

// Volume descriptor type bytes (ECMA-119 8.1).
const (
	vdTypeBootRecord  = 0
	vdTypePrimary     = 1
	vdTypeSupplementary = 2
	vdTypePartition   = 3
	vdTypeTerminator  = 255
)

const stdIdentifier = "CD001"

// Directory record flag bits (ECMA-119 9.1.6).
const (
	fileFlagHidden    = 1 << 0
	fileFlagDirectory = 1 << 1
	fileFlagAssociated = 1 << 2
	fileFlagRecord    = 1 << 3
	fileFlagProtection = 1 << 4
	fileFlagMultiExtent = 1 << 7
)
