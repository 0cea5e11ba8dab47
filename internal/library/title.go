package library

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var leadingArticles = []string{"the ", "a ", "an "}

// CleanTitle folds a title for matching: lower case, no accents, no
// punctuation, no leading article, single spaces.
func CleanTitle(title string) string {
	s := strings.ToLower(removeAccents(title))
	s = strings.NewReplacer("&", " and ", "-", " ", "'", "", ".", " ", ":", " ").Replace(s)

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	for _, art := range leadingArticles {
		if trimmed, ok := strings.CutPrefix(s, art); ok {
			return trimmed
		}
	}
	return s
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
