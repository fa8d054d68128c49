package plate

import (
	"math"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio scores two strings on a 0-100 scale using the insertion/deletion
// edit distance: 200*LCS / (len(a)+len(b)), rounded half to even.
func Ratio(a, b string) int {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if a == "" || b == "" || total == 0 {
		return 0
	}

	common := edlib.LCS(a, b)
	return int(math.RoundToEven(200 * float64(common) / float64(total)))
}
