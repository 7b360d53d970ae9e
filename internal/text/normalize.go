// README: Text normalisation for user messages (case folding, accent and punctuation stripping).
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the message, removes diacritics and punctuation and
// collapses runs of whitespace. "¿Catálogo?" and "catalogo" compare equal
// after normalisation, which is what the stage handlers match on.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
		default:
			// punctuation and symbols (emoji included) are dropped
		}
	}
	return strings.TrimSpace(b.String())
}

// ContainsWord reports whether the normalised message contains the
// normalised needle as a substring.
func ContainsWord(message, needle string) bool {
	return strings.Contains(Normalize(message), Normalize(needle))
}
