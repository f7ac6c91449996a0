package address

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Equivalent reports whether a and b name the same street location. It
// compares number, prefix, street, type and trailing direction after
// uppercasing and trimming; an empty component equals a missing one.
func Equivalent(a, b Address) bool {
	return norm(a.Number) == norm(b.Number) &&
		normDirectional(a.Prefix) == normDirectional(b.Prefix) &&
		norm(a.Street) == norm(b.Street) &&
		normType(a.Type) == normType(b.Type) &&
		normDirectional(a.Suffix) == normDirectional(b.Suffix)
}

// EquivalentStrict is Equivalent plus an exact unit comparison.
func EquivalentStrict(a, b Address) bool {
	return Equivalent(a, b) && norm(a.Unit) == norm(b.Unit)
}

// Compare is Equivalent for callers that must tell an unusable address apart
// from a mismatch. It returns ErrNoStreet when either side lacks both a
// number and a street.
func Compare(a, b Address) (bool, error) {
	if !a.HasStreet() || !b.HasStreet() {
		return false, ErrNoStreet
	}
	return Equivalent(a, b), nil
}

// LooksFull reports whether raw parses as a complete postal address: a street
// plus a state and zip.
func LooksFull(raw string) bool {
	a := Parse(raw)
	return a.HasStreet() && a.State != "" && a.Zip != ""
}

// Display renders the street address in title case.
func (a Address) Display() string {
	return TitleCase(a.StreetAddress())
}

// TitleCase title-cases an address fragment. Tokens containing digits, USPS
// direction codes and "PO" keep their case.
func TitleCase(s string) string {
	caser := cases.Title(language.English)
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if _, ok := directionals[tok]; ok && len(tok) <= 2 {
			continue
		}
		if tok == "PO" || strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			continue
		}
		tokens[i] = caser.String(tok)
	}
	return strings.Join(tokens, " ")
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normDirectional(s string) string {
	s = norm(s)
	if d, ok := directionals[s]; ok {
		return d
	}
	return s
}

func normType(s string) string {
	s = norm(s)
	if t, ok := streetTypes[s]; ok {
		return t
	}
	return s
}
