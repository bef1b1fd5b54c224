package fat32

// Byte offsets into the BIOS Parameter Block / boot sector (spec.md §6.2).
const (
	offJmpBoot     = 0
	offOEMName     = 3
	offBytsPerSec  = 11
	offSecPerClus  = 13
	offRsvdSecCnt  = 14
	offNumFATs     = 16
	offRootEntCnt  = 17
	offTotSec16    = 19
	offMedia       = 21
	offFATSz16     = 22
	offSecPerTrk   = 24
	offNumHeads    = 26
	offHiddSec     = 28
	offTotSec32    = 32
	offFATSz32     = 36
	offExtFlags32  = 40
	offFSVer32     = 42
	offRootClus32  = 44
	offFSInfo32    = 48
	offBkBootSec32 = 50
	offDrvNum32    = 64
	offNTres32     = 65
	offBootSig32   = 66
	offVolID32     = 67
	offVolLab32    = 71
	offFilSysType32 = 82
	offBootCode32   = 90
	off55AA         = 510
)

// Byte offsets into the FSInfo sector (spec.md §3.2 "FSInfo").
const (
	offFSILeadSig  = 0
	offFSIStrucSig = 484
	offFSIFreeCount = 488
	offFSINxtFree   = 492
	offFSITrailSig  = 508
)

const (
	fsiLeadSig  = 0x41615252 // "RRaA"
	fsiStrucSig = 0x61417272 // "rrAa"
	fsiTrailSig = 0xAA550000
)

// Byte offsets within a 32-byte directory entry (spec.md §3.2 "Directory record").
const (
	dirNameOff       = 0
	dirAttrOff       = 11
	dirNTResOff      = 12
	dirCrtTime10Off  = 13
	dirCrtTimeOff    = 14
	dirCrtDateOff    = 16
	dirLstAccDateOff = 18
	dirFstClusHIOff  = 20
	dirModTimeOff    = 22
	dirModDateOff    = 24
	dirFstClusLOOff  = 26
	dirFileSizeOff   = 28
)

const sizeDirEntry = 32

// Reserved values for the first byte of a directory entry's name field.
const (
	direEmpty   = 0x00 // end of directory, all following entries are free
	direDeleted = 0xE5 // free slot, may be reused
)

// fileattr is the DIR_Attr byte.
type fileattr byte

const (
	attrReadOnly fileattr = 1 << 0
	attrHidden   fileattr = 1 << 1
	attrSystem   fileattr = 1 << 2
	attrVolumeID fileattr = 1 << 3
	attrDirectory fileattr = 1 << 4
	attrArchive  fileattr = 1 << 5
	attrLongName fileattr = attrReadOnly | attrHidden | attrSystem | attrVolumeID

	attrMask = attrReadOnly | attrHidden | attrSystem | attrVolumeID | attrDirectory | attrArchive
)

func (a fileattr) IsReadOnly() bool  { return a&attrReadOnly != 0 }
func (a fileattr) IsHidden() bool    { return a&attrHidden != 0 }
func (a fileattr) IsSystem() bool    { return a&attrSystem != 0 }
func (a fileattr) IsVolumeID() bool  { return a&attrVolumeID != 0 }
func (a fileattr) IsDirectory() bool { return a&attrDirectory != 0 }
func (a fileattr) IsArchive() bool   { return a&attrArchive != 0 }
func (a fileattr) IsLongName() bool  { return a&attrMask == attrLongName }

// FAT32 entry reserved values (spec.md §3.2 "FAT table").
const (
	fatFree      uint32 = 0x0000_0000
	fatBad       uint32 = 0x0FFF_FFF7
	fatEOCMin    uint32 = 0x0FFF_FFF8
	fatEOC       uint32 = 0x0FFF_FFFF
	fatEntryMask uint32 = 0x0FFF_FFFF

	clusterFirst uint32 = 2
)

func isEOC(e uint32) bool { return e&fatEntryMask >= fatEOCMin }
func isBad(e uint32) bool { return e&fatEntryMask == fatBad }
func isFree(e uint32) bool { return e&fatEntryMask == fatFree }
