package utils

import (
	"strings"
	"unicode"
)

// CompactPlate turns a display plate ("AB 1234 CD") into a lookup key
// ("AB1234CD"): uppercase letters and digits only.
func CompactPlate(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range strings.ToUpper(plate) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
