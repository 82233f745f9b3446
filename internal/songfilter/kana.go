package songfilter

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// normalizeKana folds a string so that hiragana, katakana and half-width
// katakana spellings of the same reading compare equal: widen half-width
// forms, shift katakana down to hiragana, lowercase the rest.
// Widening turns half-width dakuten into combining marks (ﾀﾞ becomes タ
// plus U+3099), so the result is NFC-composed before comparison.
func normalizeKana(s string) string {
	s = norm.NFC.String(width.Widen.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		// Katakana ァ..ヶ sits exactly 0x60 above the hiragana block.
		if r >= 'ァ' && r <= 'ヶ' {
			r -= 0x60
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
