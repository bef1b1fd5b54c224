package fat32

import "golang.org/x/text/encoding/charmap"

// foldOEMLabel folds s into code page 437, the OEM charset FAT32 volume
// labels and 8.3 short names are historically encoded in. If any rune of s
// cannot be encoded in CP437, s is returned with every byte above 0x7E
// replaced by '_' instead. Grounded in the
// teacher's plain-ASCII short-name folding, generalized per spec.md §6's
// note that volume labels and 8.3 names share the OEM charset rather than
// being constrained to 7-bit ASCII.
func foldOEMLabel(s string) string {
	enc := charmap.CodePage437.NewEncoder()
	out, err := enc.String(s)
	if err != nil {
		b := []byte(s)
		for i, c := range b {
			if c > 0x7E {
				b[i] = '_'
			}
		}
		return string(b)
	}
	return out
}
