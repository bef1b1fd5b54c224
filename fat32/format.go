package fat32

import (
	"encoding/binary"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/hadrisrs/diskimg/blockio"
)

// FormatConfig holds the inputs to Format, per spec.md §4.2.1.
type FormatConfig struct {
	TotalSectors      uint32
	SectorsPerCluster uint8 // 0 selects the size-based recommendation table
	ReservedSectors   uint16
	NumFATs           uint8 // 0 defaults to 1
	Media             uint8 // 0 defaults to 0xF8 (fixed disk)
	VolumeID          uint32
	VolumeLabel       string
	FSInfoSector      uint16 // 0 defaults to 1
	BackupBootSector  uint16 // 0 disables the backup at LBA 6
}

// recommendedSectorsPerCluster implements the size table from spec.md
// §4.2.1: "≤256MiB→1, ≤512MiB→2, ≤2GiB→4, ≤4GiB→8, ≤8GiB→16, ≤16GiB→32, else 64".
func recommendedSectorsPerCluster(totalSectors uint32, bytesPerSector uint32) uint8 {
	totalBytes := uint64(totalSectors) * uint64(bytesPerSector)
	const mib = 1 << 20
	const gib = 1 << 30
	switch {
	case totalBytes <= 256*mib:
		return 1
	case totalBytes <= 512*mib:
		return 2
	case totalBytes <= 2*gib:
		return 4
	case totalBytes <= 4*gib:
		return 8
	case totalBytes <= 8*gib:
		return 16
	case totalBytes <= 16*gib:
		return 32
	default:
		return 64
	}
}

// Format writes a fresh FAT32 boot sector, FSInfo sector, FAT tables and
// root directory cluster to dev, per spec.md §4.2.1. It is grounded in
// the teacher's format.go Format entrypoint, generalized onto
// blockio.SectorDevice and rebuilt against the spec's exact
// sectors-per-fat and free-count formulas (the teacher's original
// shipped only a stub).
func Format(dev blockio.SectorDevice, cfg FormatConfig) error {
	bytesPerSector := uint32(dev.SectorSize())
	if bytesPerSector == 0 {
		bytesPerSector = 512
	}

	spc := cfg.SectorsPerCluster
	if spc == 0 {
		spc = recommendedSectorsPerCluster(cfg.TotalSectors, bytesPerSector)
	}
	reserved := cfg.ReservedSectors
	if reserved == 0 {
		reserved = 32
	}
	numFATs := cfg.NumFATs
	if numFATs == 0 {
		numFATs = 1
	}
	media := cfg.Media
	if media == 0 {
		media = 0xF8
	}
	fsInfoSector := cfg.FSInfoSector
	if fsInfoSector == 0 {
		fsInfoSector = 1
	}

	if uint32(reserved)%uint32(spc) != 0 {
		return &InvalidFileSystem{Field: "reserved_sector_count not cluster-aligned"}
	}

	// Solve for sectors_per_fat and total_clusters simultaneously: both
	// depend on data_region_start, which depends on sectors_per_fat.
	// spec.md §4.2.1 gives the formula directly in terms of fat_entries,
	// so iterate the small fixed point (converges in at most 2 passes
	// for any realistic geometry).
	var sectorsPerFAT uint32
	var totalClusters uint32
	for i := 0; i < 4; i++ {
		dataRegionStart := uint32(reserved) + uint32(numFATs)*sectorsPerFAT
		if cfg.TotalSectors <= dataRegionStart {
			have := humanize.IBytes(uint64(cfg.TotalSectors) * uint64(bytesPerSector))
			need := humanize.IBytes(uint64(dataRegionStart) * uint64(bytesPerSector))
			return &InvalidFileSystem{Field: fmt.Sprintf(
				"total_sectors too small for reserved+fat regions (have %s, need at least %s)", have, need)}
		}
		usableSectors := cfg.TotalSectors - dataRegionStart
		totalClusters = usableSectors / uint32(spc)
		fatEntries := totalClusters + 2
		newSPF := (fatEntries*4 + bytesPerSector - 1) / bytesPerSector
		if newSPF == sectorsPerFAT {
			break
		}
		sectorsPerFAT = newSPF
	}
	dataRegionStart := uint32(reserved) + uint32(numFATs)*sectorsPerFAT

	var boot [512]byte
	bs := asBPB(boot[:])
	bs.SetJump()
	bs.SetOEMName("HADRISRS")
	bs.SetBytesPerSector(uint16(bytesPerSector))
	bs.SetSectorsPerCluster(spc)
	bs.SetReservedSectorCount(reserved)
	bs.SetNumFATs(numFATs)
	bs.SetMedia(media)
	bs.SetTotalSectors32(cfg.TotalSectors)
	bs.SetFATSize32(sectorsPerFAT)
	bs.SetHiddenSectors(0)
	bs.SetRootCluster(clusterFirst)
	bs.SetFSInfoSector(fsInfoSector)
	if cfg.BackupBootSector != 0 {
		bs.SetBackupBootSector(cfg.BackupBootSector)
	}
	bs.SetDriveNumber(0x80)
	bs.SetExtendedBootSig(0x29)
	bs.SetVolumeID(cfg.VolumeID)
	bs.SetVolumeLabel(foldOEMLabel(cfg.VolumeLabel))
	bs.SetFilesystemType("FAT32")
	bs.SetBootSignature()
	if err := dev.WriteSector(boot[:], 0); err != nil {
		return err
	}

	freeCount := totalClusters - 1 // root cluster consumed
	nextFree := clusterFirst + 1

	var fsi [512]byte
	fi := asFSInfo(fsi[:])
	fi.SetSignatures()
	fi.SetFreeCount(freeCount)
	fi.SetNextFree(nextFree)
	if err := dev.WriteSector(fsi[:], int64(fsInfoSector)); err != nil {
		return err
	}

	if cfg.BackupBootSector != 0 {
		if err := dev.WriteSector(boot[:], int64(cfg.BackupBootSector)); err != nil {
			return err
		}
		if err := dev.WriteSector(fsi[:], int64(cfg.BackupBootSector)+int64(fsInfoSector)); err != nil {
			return err
		}
	}

	// Initialize FAT: entry 0 = 0x0FFF_FFF8|media, entry 1 = EOC, entry 2
	// (root) = EOC. Zero the rest, replicated across every FAT copy.
	var fatSector [512]byte
	binary.LittleEndian.PutUint32(fatSector[0:4], fatEOCMin|uint32(media))
	binary.LittleEndian.PutUint32(fatSector[4:8], fatEOC)
	binary.LittleEndian.PutUint32(fatSector[8:12], fatEOC) // root, no data yet

	for copyIdx := uint32(0); copyIdx < uint32(numFATs); copyIdx++ {
		base := int64(reserved) + int64(copyIdx)*int64(sectorsPerFAT)
		if err := dev.WriteSector(fatSector[:], base); err != nil {
			return err
		}
		var blank [512]byte
		for s := int64(1); s < int64(sectorsPerFAT); s++ {
			if err := dev.WriteSector(blank[:], base+s); err != nil {
				return err
			}
		}
	}

	// Zero the root directory's single cluster so every slot reads as an
	// end-of-directory marker.
	var blank [512]byte
	rootSector := int64(dataRegionStart)
	for s := uint32(0); s < uint32(spc); s++ {
		if err := dev.WriteSector(blank[:], rootSector+int64(s)); err != nil {
			return err
		}
	}

	return nil
}
