package fat32

import "encoding/binary"

// bpb views a 512-byte boot sector buffer as the BIOS Parameter Block plus
// the FAT32-specific extension (spec.md §3.2 "Boot-sector info"), in the
// teacher's offset-accessor style (soypat-fat/sectors.go's biosParamBlock)
// rather than a tag-driven struct library, since every field here is a
// fixed scalar at a fixed offset.
type bpb struct {
	data []byte
}

func asBPB(sector []byte) bpb {
	return bpb{data: sector[:512:512]}
}

func (b bpb) BytesPerSector() uint16 { return binary.LittleEndian.Uint16(b.data[offBytsPerSec:]) }
func (b bpb) SetBytesPerSector(v uint16) {
	binary.LittleEndian.PutUint16(b.data[offBytsPerSec:], v)
}

func (b bpb) SectorsPerCluster() uint8   { return b.data[offSecPerClus] }
func (b bpb) SetSectorsPerCluster(v uint8) { b.data[offSecPerClus] = v }

func (b bpb) ReservedSectorCount() uint16 { return binary.LittleEndian.Uint16(b.data[offRsvdSecCnt:]) }
func (b bpb) SetReservedSectorCount(v uint16) {
	binary.LittleEndian.PutUint16(b.data[offRsvdSecCnt:], v)
}

func (b bpb) NumFATs() uint8    { return b.data[offNumFATs] }
func (b bpb) SetNumFATs(v uint8) { b.data[offNumFATs] = v }

func (b bpb) RootEntryCount() uint16 { return binary.LittleEndian.Uint16(b.data[offRootEntCnt:]) }

func (b bpb) Media() uint8    { return b.data[offMedia] }
func (b bpb) SetMedia(v uint8) { b.data[offMedia] = v }

func (b bpb) TotalSectors16() uint16 { return binary.LittleEndian.Uint16(b.data[offTotSec16:]) }
func (b bpb) TotalSectors32() uint32 { return binary.LittleEndian.Uint32(b.data[offTotSec32:]) }
func (b bpb) SetTotalSectors32(v uint32) {
	binary.LittleEndian.PutUint16(b.data[offTotSec16:], 0)
	binary.LittleEndian.PutUint32(b.data[offTotSec32:], v)
}

// TotalSectors returns the 16-bit count if set, else the 32-bit count —
// FAT32 images always carry the 32-bit field, but Mount tolerates either.
func (b bpb) TotalSectors() uint32 {
	if v := b.TotalSectors16(); v != 0 {
		return uint32(v)
	}
	return b.TotalSectors32()
}

func (b bpb) FATSize16() uint16 { return binary.LittleEndian.Uint16(b.data[offFATSz16:]) }
func (b bpb) FATSize32() uint32 { return binary.LittleEndian.Uint32(b.data[offFATSz32:]) }
func (b bpb) SetFATSize32(v uint32) {
	binary.LittleEndian.PutUint16(b.data[offFATSz16:], 0)
	binary.LittleEndian.PutUint32(b.data[offFATSz32:], v)
}

// SectorsPerFAT returns FATSize32, the only variant FAT32 ever uses.
func (b bpb) SectorsPerFAT() uint32 { return b.FATSize32() }

func (b bpb) HiddenSectors() uint32 { return binary.LittleEndian.Uint32(b.data[offHiddSec:]) }
func (b bpb) SetHiddenSectors(v uint32) {
	binary.LittleEndian.PutUint32(b.data[offHiddSec:], v)
}

func (b bpb) RootCluster() uint32 { return binary.LittleEndian.Uint32(b.data[offRootClus32:]) }
func (b bpb) SetRootCluster(v uint32) {
	binary.LittleEndian.PutUint32(b.data[offRootClus32:], v)
}

func (b bpb) FSInfoSector() uint16 { return binary.LittleEndian.Uint16(b.data[offFSInfo32:]) }
func (b bpb) SetFSInfoSector(v uint16) {
	binary.LittleEndian.PutUint16(b.data[offFSInfo32:], v)
}

func (b bpb) BackupBootSector() uint16 { return binary.LittleEndian.Uint16(b.data[offBkBootSec32:]) }
func (b bpb) SetBackupBootSector(v uint16) {
	binary.LittleEndian.PutUint16(b.data[offBkBootSec32:], v)
}

func (b bpb) DriveNumber() uint8    { return b.data[offDrvNum32] }
func (b bpb) SetDriveNumber(v uint8) { b.data[offDrvNum32] = v }

func (b bpb) ExtendedBootSig() uint8 { return b.data[offBootSig32] }
func (b bpb) SetExtendedBootSig(v uint8) { b.data[offBootSig32] = v }

func (b bpb) VolumeID() uint32 { return binary.LittleEndian.Uint32(b.data[offVolID32:]) }
func (b bpb) SetVolumeID(v uint32) {
	binary.LittleEndian.PutUint32(b.data[offVolID32:], v)
}

func (b bpb) VolumeLabel() string {
	return trimTrailingSpace(b.data[offVolLab32 : offVolLab32+11])
}

func (b bpb) SetVolumeLabel(label string) {
	padInto(b.data[offVolLab32:offVolLab32+11], label)
}

func (b bpb) FilesystemType() string {
	return trimTrailingSpace(b.data[offFilSysType32 : offFilSysType32+8])
}

func (b bpb) SetFilesystemType(s string) {
	padInto(b.data[offFilSysType32:offFilSysType32+8], s)
}

func (b bpb) SetOEMName(name string) {
	padInto(b.data[offOEMName:offOEMName+8], name)
}

func (b bpb) OEMName() string {
	return trimTrailingSpace(b.data[offOEMName : offOEMName+8])
}

// SetJump writes a short JMP/NOP x86 stub sufficient to satisfy the
// "EB xx 90" pattern real FAT32 drivers sanity-check for.
func (b bpb) SetJump() {
	b.data[0] = 0xEB
	b.data[1] = 0x58
	b.data[2] = 0x90
}

func (b bpb) BootSignature() uint16 { return binary.LittleEndian.Uint16(b.data[off55AA:]) }
func (b bpb) SetBootSignature() {
	binary.LittleEndian.PutUint16(b.data[off55AA:], 0xAA55)
}

func trimTrailingSpace(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == ' ' {
		i--
	}
	return string(b[:i])
}

func padInto(dst []byte, s string) {
	n := copy(dst, s)
	for ; n < len(dst); n++ {
		dst[n] = ' '
	}
}

// fsinfo views a 512-byte sector buffer as a FAT32 FSInfo sector.
type fsinfo struct {
	data []byte
}

func asFSInfo(sector []byte) fsinfo {
	return fsinfo{data: sector[:512:512]}
}

func (f fsinfo) Signatures() (lead, struc, trail uint32) {
	return binary.LittleEndian.Uint32(f.data[offFSILeadSig:]),
		binary.LittleEndian.Uint32(f.data[offFSIStrucSig:]),
		binary.LittleEndian.Uint32(f.data[offFSITrailSig:])
}

func (f fsinfo) SetSignatures() {
	binary.LittleEndian.PutUint32(f.data[offFSILeadSig:], fsiLeadSig)
	binary.LittleEndian.PutUint32(f.data[offFSIStrucSig:], fsiStrucSig)
	binary.LittleEndian.PutUint32(f.data[offFSITrailSig:], fsiTrailSig)
}

func (f fsinfo) ValidSignatures() bool {
	lead, struc, trail := f.Signatures()
	return lead == fsiLeadSig && struc == fsiStrucSig && trail == fsiTrailSig
}

func (f fsinfo) FreeCount() uint32 { return binary.LittleEndian.Uint32(f.data[offFSIFreeCount:]) }
func (f fsinfo) SetFreeCount(v uint32) {
	binary.LittleEndian.PutUint32(f.data[offFSIFreeCount:], v)
}

func (f fsinfo) NextFree() uint32 { return binary.LittleEndian.Uint32(f.data[offFSINxtFree:]) }
func (f fsinfo) SetNextFree(v uint32) {
	binary.LittleEndian.PutUint32(f.data[offFSINxtFree:], v)
}
