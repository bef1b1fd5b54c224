package eltorito

import "encoding/binary"

// bootInfoTableOffset is the fixed byte offset within a boot image where
// the 56-byte boot-info-table is written (spec.md §3.1 "Boot info
// table"): iso_start(4) + file_lba(4) + file_len(4) + checksum(4), the
// remaining 40 bytes reserved/zero.
const bootInfoTableOffset = 8

// isoStartLBA is always 16 (the first sector after the system area, where
// the volume descriptor set begins) per
// every El Torito boot-info-table implementation this spec is grounded
// on.
const isoStartLBA = 16

// PatchBootInfoTable writes the 16-byte boot-info-table header (spec.md
// §3.1/§4.4 "Boot-info table patching") into image at offset 8, computing
// the checksum as the sum of every little-endian u32 word from offset 64
// to the end of image. image must already be sized to its final length;
// the patch is applied in place.
func PatchBootInfoTable(image []byte, fileLBA uint32) error {
	if len(image) < bootInfoTableOffset+16 {
		return errImageTooSmall
	}
	var checksum uint32
	for off := 64; off+4 <= len(image); off += 4 {
		checksum += binary.LittleEndian.Uint32(image[off : off+4])
	}
	binary.LittleEndian.PutUint32(image[bootInfoTableOffset+0:], isoStartLBA)
	binary.LittleEndian.PutUint32(image[bootInfoTableOffset+4:], fileLBA)
	binary.LittleEndian.PutUint32(image[bootInfoTableOffset+8:], uint32(len(image)))
	binary.LittleEndian.PutUint32(image[bootInfoTableOffset+12:], checksum)
	return nil
}

const errImageTooSmall = catalogError("eltorito: boot image too small for a boot-info-table")

// grub2InfoOffset is the fixed byte offset GRUB2 reads its own
// self-location hint from (spec.md §4.4 "GRUB2 info").
const grub2InfoOffset = 2548

// PatchGRUB2Info writes (file_lba*4 + 5) as a little-endian u32 at byte
// 2548 of the boot image, the convention GRUB2's core.img uses to find
// its own LBA without a BIOS boot-info-table.
func PatchGRUB2Info(image []byte, fileLBA uint32) error {
	if len(image) < grub2InfoOffset+4 {
		return errImageTooSmall
	}
	binary.LittleEndian.PutUint32(image[grub2InfoOffset:], fileLBA*4+5)
	return nil
}
