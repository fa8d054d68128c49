package plate

import (
	"regexp"
	"strings"
)

// Stray stamp/date fragments such as "12.34" or "<1><2>.<3><4>".
var artifactPattern = regexp.MustCompile(`\d{2}\.\d{2}|<\d><\d>\.<\d><\d>`)

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Clean normalizes raw OCR text: uppercase, colon-as-period, artifact removal,
// punctuation removal and whitespace collapsing, in that order.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	t := strings.ToUpper(text)
	t = strings.ReplaceAll(t, ":", ".")
	t = artifactPattern.ReplaceAllString(t, "")
	t = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, t)

	return strings.Join(strings.Fields(t), " ")
}
