package stego

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeExtension trims whitespace and a leading dot, applies NFC and
// lower-cases the result.
func NormalizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	// A Caser is stateful, so build one per call.
	return cases.Lower(language.Und).String(norm.NFC.String(ext))
}

// ExtensionOf returns the lower-case extension of a file name, without the
// dot. Names with no dot, or whose only dot is leading, have none.
func ExtensionOf(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return NormalizeExtension(base[i+1:])
}
