package filter

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// Fold reduces a title to lowercase ASCII words separated by single spaces,
// so "Amélie" and "amelie" compare equal and punctuation is ignored.
func Fold(title string) string {
	ascii := unidecode.Unidecode(strings.TrimSpace(title))
	var b strings.Builder
	b.Grow(len(ascii))
	space := false
	for _, r := range strings.ToLower(ascii) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}
