package eltorito

import (
	"errors"

	"github.com/hadrisrs/diskimg/iso9660"
)

// Image describes one boot image to stage into an iso9660.Writer and
// register in the catalog, per spec.md §4.4.
type Image struct {
	Path       string // ISO path the image is written to, e.g. "/boot/grub/core.img"
	Data       []byte
	Platform   Platform
	Emulation  Emulation
	LoadSegment uint16

	// BootInfoTable patches the boot-info-table (spec.md §3.1) into the
	// image at offset 8 once its final LBA is known.
	BootInfoTable bool

	// GRUB2Info patches the GRUB2 self-location hint at offset 2548.
	GRUB2Info bool

	SelectionCriteria byte
}

// errNoImages is returned by AddBootImages when given an empty image
// list; a bootable image needs at least a default entry.
var errNoImages = errors.New("eltorito: no boot images given")

// BootCatalogRef identifies the Boot Record volume descriptor staged by
// AddBootImages, so FinalizeBootRecord can patch in the catalog's real
// LBA once Plan has assigned it.
type BootCatalogRef struct {
	CatalogPath      string
	descriptorIndex  int
}

// AddBootImages stages every image into w via AddFileFunc (so
// boot-info-table/GRUB2 patches can see each image's final LBA), then
// registers a boot catalog file whose content is produced lazily from
// the same extent map, and appends a placeholder Boot Record volume
// descriptor to w.ExtraDescriptors.
//
// Call this before w.Plan(); after Plan runs (and before WriteTo), call
// FinalizeBootRecord with the returned ref to patch the real catalog LBA
// into the Boot Record volume descriptor (spec.md §4.4 step 4).
func AddBootImages(w *iso9660.Writer, catalogPath string, images []Image) (*BootCatalogRef, error) {
	if len(images) == 0 {
		return nil, errNoImages
	}
	if catalogPath == "" {
		catalogPath = "/boot.cat"
	}

	for _, img := range images {
		img := img
		err := w.AddFileFunc(img.Path, int64(len(img.Data)), func(extents map[string]uint32) ([]byte, error) {
			out := make([]byte, len(img.Data))
			copy(out, img.Data)
			lba, ok := extents[img.Path]
			if !ok {
				return nil, errUnresolvedExtent(img.Path)
			}
			if img.BootInfoTable {
				if err := PatchBootInfoTable(out, lba); err != nil {
					return nil, err
				}
			}
			if img.GRUB2Info {
				if err := PatchGRUB2Info(out, lba); err != nil {
					return nil, err
				}
			}
			return out, nil
		})
		if err != nil {
			return nil, err
		}
	}

	// The catalog's own size is fixed once the image list is known:
	// validation entry + default entry + one section header/entry pair
	// per distinct non-default platform group + terminator. Reserve the
	// worst case (every image its own group) so Plan's sector accounting
	// is stable before the producer runs.
	catalogSize := int64(catalogEntrySize * (2 + 2*(len(images)-1) + 1))
	err := w.AddFileFunc(catalogPath, catalogSize, func(extents map[string]uint32) ([]byte, error) {
		entries := make([]Entry, len(images))
		for i, img := range images {
			lba, ok := extents[img.Path]
			if !ok {
				return nil, errUnresolvedExtent(img.Path)
			}
			entries[i] = Entry{
				Platform:          img.Platform,
				Emulation:         img.Emulation,
				LoadSegment:       img.LoadSegment,
				ImagePath:         img.Path,
				ImageLBA:          lba,
				ImageSize:         int64(len(img.Data)),
				SelectionCriteria: img.SelectionCriteria,
			}
		}
		catalog, err := EncodeCatalog(entries)
		if err != nil {
			return nil, err
		}
		if len(catalog) > int(catalogSize) {
			return nil, errCatalogSize
		}
		padded := make([]byte, catalogSize)
		copy(padded, catalog)
		return padded, nil
	})
	if err != nil {
		return nil, err
	}

	// The catalog's extent is not assigned until Plan runs, so the Boot
	// Record VD is staged with a zero placeholder catalog_ptr here and
	// patched for real by FinalizeBootRecord.
	w.ExtraDescriptors = append(w.ExtraDescriptors, iso9660.NewBootRecordVolumeDescriptor(0))
	return &BootCatalogRef{CatalogPath: catalogPath, descriptorIndex: len(w.ExtraDescriptors) - 1}, nil
}

// FinalizeBootRecord patches the real catalog LBA into the Boot Record
// volume descriptor staged by AddBootImages. Call after w.Plan() (which
// assigns the catalog file's extent) and before w.WriteTo().
func FinalizeBootRecord(w *iso9660.Writer, ref *BootCatalogRef) error {
	lba, ok := w.Extent(ref.CatalogPath)
	if !ok {
		return errUnresolvedExtent(ref.CatalogPath)
	}
	w.ExtraDescriptors[ref.descriptorIndex] = iso9660.NewBootRecordVolumeDescriptor(lba)
	return nil
}

func errUnresolvedExtent(path string) error {
	return catalogError("eltorito: no extent assigned for " + path)
}

const errCatalogSize = catalogError("eltorito: encoded catalog exceeds its reserved size")
