package util

import (
	"path/filepath"
	"strings"
)

func HasExtension(src string, ext string) bool {
	s := strings.TrimSpace(src)
	e := strings.TrimSpace(ext)
	return s != "" && e != "" && strings.EqualFold(filepath.Ext(s), e)
}

// TrimExtension drops ext from name when name carries it, ignoring case.
func TrimExtension(name string, ext string) string {
	if HasExtension(name, ext) {
		return name[:len(name)-len(ext)]
	}
	return name
}

// SafeFileName maps s onto a single path element. Letters, digits, '-', '_'
// and '.' pass through; anything else (including separators) becomes '_'.
func SafeFileName(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.'
		if ok {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
