package iso9660

import "strings"

const dCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

// MangleFileName upper-cases name and restricts it to ECMA-119 7.5
// d-characters, appending the conventional ";1" file version suffix.
// Grounded in vaerh-iso9660/mangle.go's mangleFileName, trimmed of its
// directory-identifier length budgeting since this writer does not cap
// identifiers to the interchange-level-1 31-byte limit.
func MangleFileName(name string) string {
	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	base = mangleDString(base)
	ext = mangleDString(ext)
	if ext == "" {
		return base + ";1"
	}
	return base + "." + ext + ";1"
}

// MangleDirName upper-cases name and restricts it to d-characters, with
// no version suffix (ECMA-119 7.6).
func MangleDirName(name string) string { return mangleDString(name) }

func mangleDString(s string) string {
	s = strings.ToUpper(s)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(dCharacters, c) >= 0 {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
