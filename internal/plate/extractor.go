package plate

import "regexp"

// Region code, serial digits and suffix letters; internal separators optional.
var platePattern = regexp.MustCompile(`([A-Z]{1,2})\s*([0-9]{2,5})\s*([A-Z]{1,3})`)

// Match is the structural split of a plate before region correction.
type Match struct {
	Left   string `json:"left_code"`
	Digits string `json:"mid_digits"`
	Suffix string `json:"right_suffix"`
}

// String assembles the plate as "LEFT DIGITS SUFFIX".
func (m Match) String() string {
	return m.Left + " " + m.Digits + " " + m.Suffix
}

// Extract returns the leftmost plate-shaped substring of cleaned text.
// Text that is not already cleaned (lowercase, punctuation) may not match.
func Extract(cleaned string) (Match, bool) {
	groups := platePattern.FindStringSubmatch(cleaned)
	if groups == nil {
		return Match{}, false
	}
	return Match{Left: groups[1], Digits: groups[2], Suffix: groups[3]}, true
}
