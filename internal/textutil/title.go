package textutil

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle derives a human-readable score title from an input
// reference: a bare filename, a local path, or an object-store URI.
// The final path segment is stripped of its extension, separators
// collapse to single spaces, and the result is title-cased.
func DisplayTitle(ref string) string {
	base := path.Base(strings.TrimSpace(ref))
	base = strings.TrimSuffix(base, path.Ext(base))

	var cleaned strings.Builder
	pendingSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if pendingSpace {
				cleaned.WriteRune(' ')
				pendingSpace = false
			}
			cleaned.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if cleaned.Len() > 0 {
				pendingSpace = true
			}
		}
	}

	title := cleaned.String()
	if title == "" {
		return "Untitled Score"
	}
	return cases.Title(language.Und).String(title)
}
