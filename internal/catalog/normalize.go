package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery prepares user input for lookup and upstream search.
// Composes Unicode to NFC so decomposed accents match stored titles,
// and collapses runs of whitespace. Case is preserved.
func NormalizeQuery(query string) string {
	s := norm.NFC.String(query)
	return strings.Join(strings.Fields(s), " ")
}
