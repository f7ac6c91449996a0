package names

import (
	"regexp"
	"strings"
)

const sep = `[\s,.]+`

// OwnerPattern builds a case-insensitive regexp that finds the owner's name
// inside a block of scraped text, such as a search-result row. Persons match
// in "FIRST [MIDDLE] LAST" or "LAST, FIRST" order; companies match their words
// in sequence. It returns nil for an empty name.
func OwnerPattern(n Name) *regexp.Regexp {
	if n.IsZero() {
		return nil
	}

	if n.Type == Company || n.FirstName == "" {
		words := strings.Fields(n.FullName)
		if n.Type != Company && n.LastName != "" {
			words = strings.Fields(n.LastName)
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		return regexp.MustCompile(`(?i)\b` + strings.Join(quoted, sep) + `\b`)
	}

	first := regexp.QuoteMeta(n.FirstName)
	last := regexp.QuoteMeta(n.LastName)
	firstLast := `\b` + first + `\b(?:` + sep + `[A-Z'\-]+){0,2}?` + sep + last + `\b`
	lastFirst := `\b` + last + sep + first + `\b`
	return regexp.MustCompile(`(?i)(?:` + firstLast + `|` + lastFirst + `)`)
}
