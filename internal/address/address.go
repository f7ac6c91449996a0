package address

import (
	"errors"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// ErrNoStreet is returned by Compare when an address has neither a house
// number nor a street name. Callers doing address-mode lookups treat it as a
// hard failure; display-only callers can ignore it.
var ErrNoStreet = errors.New("address has no number or street")

// Address is a parsed US postal address. All fields are uppercase and trimmed.
// Missing components are empty strings, never placeholders.
type Address struct {
	Number string `json:"number,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Street string `json:"street,omitempty"`
	Type   string `json:"type,omitempty"`
	Suffix string `json:"suffix,omitempty"`
	Unit   string `json:"unit,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

var (
	zipRe      = regexp.MustCompile(`^\d{5}(?:-?\d{4})?$`)
	numberRe   = regexp.MustCompile(`^\d+[A-Z]?(?:-\d+[A-Z]?)?$`)
	fractionRe = regexp.MustCompile(`^\d+/\d+$`)
	spaceRe    = regexp.MustCompile(`\s+`)
	hashRe     = regexp.MustCompile(`\s*#\s*`)
	poBoxRe    = regexp.MustCompile(`^P\s*O\s+BOX\s+(\S+)`)
)

// Parse splits a free-text address into its components. It never fails:
// anything it cannot place is left in Street, and an input without a
// discernible number or street yields an Address for which HasStreet is false.
func Parse(raw string) Address {
	cleaned := clean(raw)
	if cleaned == "" {
		return Address{}
	}

	segments := splitSegments(cleaned)

	var a Address
	var streetTokens []string

	switch len(segments) {
	case 1:
		tokens := strings.Fields(segments[0])
		tokens, a.State, a.Zip = popStateZip(tokens, false)
		if a.State != "" || a.Zip != "" {
			// No commas: the city starts after the street type or unit.
			boundary := streetBoundary(tokens)
			streetTokens = tokens[:boundary]
			a.City = strings.Join(tokens[boundary:], " ")
		} else {
			streetTokens = tokens
		}
	default:
		streetTokens = strings.Fields(segments[0])
		rest := segments[1:]
		for len(rest) > 0 && isUnitSegment(rest[0]) {
			streetTokens = append(streetTokens, strings.Fields(rest[0])...)
			rest = rest[1:]
		}
		if n := len(rest); n >= 2 && zipRe.MatchString(rest[n-1]) {
			rest = append(rest[:n-2:n-2], rest[n-2]+" "+rest[n-1])
		}
		if n := len(rest); n > 0 {
			var last []string
			last, a.State, a.Zip = popStateZip(strings.Fields(rest[n-1]), true)
			cityParts := append([]string{}, rest[:n-1]...)
			if len(last) > 0 {
				cityParts = append(cityParts, strings.Join(last, " "))
			}
			a.City = strings.Join(cityParts, " ")
		}
	}

	parseStreet(&a, streetTokens)
	return a
}

// parseStreet fills Number, Prefix, Street, Type, Suffix and Unit from the
// street-line tokens.
func parseStreet(a *Address, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	line := strings.Join(tokens, " ")
	if m := poBoxRe.FindStringSubmatch(line); m != nil {
		a.Street = "PO BOX"
		a.Number = m[1]
		return
	}

	tokens, a.Unit = extractUnit(tokens)

	if len(tokens) > 0 && numberRe.MatchString(tokens[0]) {
		a.Number = tokens[0]
		tokens = tokens[1:]
		if len(tokens) > 1 && fractionRe.MatchString(tokens[0]) {
			a.Number += " " + tokens[0]
			tokens = tokens[1:]
		}
	}

	// Trailing directional after a street type, e.g. "MAIN ST NW".
	if n := len(tokens); n >= 3 {
		if dir, ok := directionals[tokens[n-1]]; ok {
			if _, isType := streetTypes[tokens[n-2]]; isType {
				a.Suffix = dir
				tokens = tokens[:n-1]
			}
		}
	}

	if n := len(tokens); n >= 2 {
		if t, ok := streetTypes[tokens[n-1]]; ok {
			a.Type = t
			tokens = tokens[:n-1]
		}
	}

	// A leading directional is a prefix only when a street name follows it.
	if len(tokens) >= 2 {
		if dir, ok := directionals[tokens[0]]; ok {
			a.Prefix = dir
			tokens = tokens[1:]
		}
	}

	a.Street = strings.Join(tokens, " ")
}

// extractUnit removes a unit designator and its value from the tokens.
func extractUnit(tokens []string) ([]string, string) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasPrefix(tok, "#") {
			value := strings.TrimPrefix(tok, "#")
			end := i + 1
			if value == "" && i+1 < len(tokens) {
				value = tokens[i+1]
				end = i + 2
			}
			return removeRange(tokens, i, end), value
		}
		if _, ok := unitDesignators[tok]; ok && i+1 < len(tokens) {
			value := strings.TrimPrefix(tokens[i+1], "#")
			return removeRange(tokens, i, i+2), value
		}
	}
	return tokens, ""
}

func removeRange(tokens []string, from, to int) []string {
	out := make([]string, 0, len(tokens)-(to-from))
	out = append(out, tokens[:from]...)
	return append(out, tokens[to:]...)
}

// streetBoundary returns the index where the street line ends in a
// comma-less full address. Without a recognizable street type every token is
// treated as street.
func streetBoundary(tokens []string) int {
	start := 1
	if len(tokens) > 0 && !numberRe.MatchString(tokens[0]) {
		start = 0
	}
	// A leading directional is skipped unless it is the street name itself,
	// as in "5 W ST". "W COURT ST" keeps COURT as the name.
	if start+1 < len(tokens) {
		if _, ok := directionals[tokens[start]]; ok {
			_, nextIsType := streetTypes[tokens[start+1]]
			afterIsType := false
			if start+2 < len(tokens) {
				_, afterIsType = streetTypes[tokens[start+2]]
			}
			if !nextIsType || afterIsType {
				start++
			}
		}
	}
	for i := start + 1; i < len(tokens); i++ {
		if _, ok := streetTypes[tokens[i]]; !ok {
			continue
		}
		end := i + 1
		if end < len(tokens) {
			if _, ok := directionals[tokens[end]]; ok {
				end++
			}
		}
		if end < len(tokens) && strings.HasPrefix(tokens[end], "#") {
			end++
		} else if end+1 < len(tokens) {
			if _, ok := unitDesignators[tokens[end]]; ok {
				end += 2
			}
		}
		return end
	}
	return len(tokens)
}

// popStateZip strips a trailing zip code and state from tokens. A trailing
// token that is also a street type or direction (CT, NE) only counts as a state
// when a zip follows it or the tokens came from their own comma segment.
func popStateZip(tokens []string, standalone bool) ([]string, string, string) {
	var zip string
	if n := len(tokens); n > 0 && zipRe.MatchString(tokens[n-1]) {
		zip = tokens[n-1][:5]
		tokens = tokens[:n-1]
	}
	n := len(tokens)
	if n == 0 {
		return tokens, "", zip
	}
	if n >= 2 {
		if abbr, ok := stateNames[tokens[n-2]+" "+tokens[n-1]]; ok {
			return tokens[:n-2], abbr, zip
		}
	}
	if abbr, ok := NormalizeState(tokens[n-1]); ok {
		_, isType := streetTypes[tokens[n-1]]
		_, isDir := directionals[tokens[n-1]]
		if zip != "" || standalone || (n > 1 && !isType && !isDir) {
			return tokens[:n-1], abbr, zip
		}
	}
	return tokens, "", zip
}

func isUnitSegment(segment string) bool {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return false
	}
	if strings.HasPrefix(fields[0], "#") {
		return true
	}
	_, ok := unitDesignators[fields[0]]
	return ok
}

// NormalizeState returns the two-letter USPS code for a state name or code.
func NormalizeState(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, ok := stateCodes[s]; ok {
		return s, true
	}
	if abbr, ok := stateNames[s]; ok {
		return abbr, true
	}
	return "", false
}

func clean(raw string) string {
	s := strings.ToUpper(unidecode.Unidecode(raw))
	s = strings.ReplaceAll(s, ".", "")
	s = hashRe.ReplaceAllString(s, " #")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,;")
}

func splitSegments(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasStreet reports whether the address carries a house number or street name.
func (a Address) HasStreet() bool {
	return norm(a.Number) != "" || norm(a.Street) != ""
}

// StreetAddress renders number, street and unit without city, state or zip.
func (a Address) StreetAddress() string {
	parts := []string{a.Number, a.Prefix, a.Street, a.Type, a.Suffix}
	if a.Street == "PO BOX" {
		parts = []string{a.Street, a.Number}
	}
	if a.Unit != "" {
		parts = append(parts, "#"+a.Unit)
	}
	return joinNonEmpty(parts)
}

// Normalized returns the canonical uppercase street identity used for
// persisted keys. It includes the unit.
func (a Address) Normalized() string {
	return joinNonEmpty([]string{
		norm(a.Number),
		normDirectional(a.Prefix),
		norm(a.Street),
		normType(a.Type),
		normDirectional(a.Suffix),
		norm(a.Unit),
	})
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
