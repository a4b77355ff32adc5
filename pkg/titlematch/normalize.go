// Package titlematch scores how closely a movie title matches a free-text
// query. Both sides are folded to a canonical form first.
package titlematch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Roman numerals II-IX after a space. A lone "I" or "X" and a leading
// numeral are left alone ("I, Robot", "American History X", "VII Days").
var romanPattern = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanValues = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

var leadingArticles = []string{"the ", "a ", "an "}

// Fold reduces a title to lowercase ASCII-ish words: accents dropped, sequel
// numerals made Arabic, punctuation removed and leading articles stripped
// from the title and any subtitle.
func Fold(title string) string {
	s := strings.ToLower(title)
	s = arabicNumerals(s)
	s = stripAccents(s)

	s = strings.NewReplacer("&", " and ", "-", " ", "'", "", ".", " ").Replace(s)

	segments := strings.Split(s, ":")
	for i, seg := range segments {
		segments[i] = trimArticle(strings.TrimSpace(seg))
	}
	s = strings.Join(segments, " ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

func arabicNumerals(s string) string {
	return romanPattern.ReplaceAllStringFunc(s, func(m string) string {
		if n, ok := romanValues[strings.ToLower(strings.TrimSpace(m))]; ok {
			return " " + n
		}
		return m
	})
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func trimArticle(s string) string {
	for _, a := range leadingArticles {
		if rest, ok := strings.CutPrefix(s, a); ok {
			return rest
		}
	}
	return s
}
