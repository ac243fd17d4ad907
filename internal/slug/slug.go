// Package slug turns free text into topic identifiers and identifiers back
// into display names.
package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make returns the identifier form of text: lower-case ASCII letters and
// digits separated by single hyphens. Diacritics are folded to their base
// letter and other scripts are transliterated to ASCII ("Straße" -> "strasse",
// "Москва" -> "moskva"); anything left outside [a-z0-9] becomes a separator.
//
// Make is idempotent: Make(Make(s)) == Make(s).
func Make(text string) string {
	folded, _, err := transform.String(foldMarks(), text)
	if err != nil {
		folded = text
	}
	ascii := unidecode.Unidecode(folded)

	var b strings.Builder
	b.Grow(len(ascii))
	pending := false
	for _, r := range strings.ToLower(ascii) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// Name derives a display name from an identifier by capitalising each
// hyphen-separated word: "child-one" becomes "Child One". Only the first
// rune of a word is upper-cased, so "2nd-place" becomes "2nd Place".
func Name(identifier string) string {
	words := strings.FieldsFunc(identifier, func(r rune) bool { return r == '-' })
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError && size <= 1 {
		return strings.ToLower(word)
	}
	return string(unicode.ToTitle(first)) + strings.ToLower(word[size:])
}

// foldMarks decomposes and drops non-spacing marks (é -> e).
// Transformers carry state, so one is built per call.
func foldMarks() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
