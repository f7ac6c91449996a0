package names

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type classifies a parsed name.
type Type string

const (
	Person  Type = "PERSON"
	Company Type = "COMPANY"
)

// Order tells the parser how to read a name without a comma.
type Order int

const (
	// OrderAuto reads "LAST, FIRST" when a comma is present and "FIRST LAST" otherwise.
	OrderAuto Order = iota
	OrderFirstLast
	// OrderLastFirst is for sources that print "LAST FIRST MIDDLE" without a comma.
	OrderLastFirst
)

// Name is the decomposed form of a person or company name. Name parts are
// only filled for persons. Raw keeps the cleaned input, co-owners included.
type Name struct {
	Raw        string `json:"raw,omitempty"`
	FullName   string `json:"fullName"`
	FirstName  string `json:"firstName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Suffix     string `json:"suffix,omitempty"`
	Type       Type   `json:"type"`
}

var (
	disallowedRe = regexp.MustCompile(`[^A-Z0-9 ,&/;'\-]+`)
	spaceRe      = regexp.MustCompile(`\s+`)
	partySplitRe = regexp.MustCompile(`\s*(?:&|/|;|\bAND\b)\s*`)

	proceduralRe = regexp.MustCompile(`\b(?:` + strings.Join([]string{
		`ET\s*AL`, `ET\s*UX`, `ET\s*VIR`, `ESTATE\s+OF`, `EST\s+OF`,
		`UNKNOWN\s+HEIRS(?:\s+OF)?`, `HEIRS\s+OF`, `DECEASED`, `DECD`, `DCSD`,
		`JT/RS`, `CP/RS`, `JTWROS`, `H/W`, `W/H`, `HUSBAND`, `WIFE`,
		`TENANTS?\s+BY\s+(?:THE\s+)?ENTIRETY`, `AS\s+TENANTS?\s+IN\s+COMMON`,
	}, "|") + `)\b`)

	// An alias marker ends the name; what follows is another name for the
	// same party.
	aliasRe = regexp.MustCompile(`(?:^|\s|,)(?:A/K/A|F/K/A|N/K/A|AKA|FKA|NKA)\b.*$`)
)

// suffixes maps recognized generational and professional suffixes to their
// canonical spelling.
var suffixes = map[string]string{
	"JR": "JR", "JNR": "JR", "JUNIOR": "JR",
	"SR": "SR", "SNR": "SR", "SENIOR": "SR",
	"II": "II", "2ND": "II", "2": "II",
	"III": "III", "3RD": "III",
	"IV": "IV", "4TH": "IV",
	"ESQ": "ESQ", "ESQUIRE": "ESQ",
	"MD": "MD", "PHD": "PHD", "DDS": "DDS", "DVM": "DVM", "JD": "JD", "LLM": "LLM",
	"CPA": "CPA",
}

// Parse decomposes raw using OrderAuto.
func Parse(raw string) Name {
	return ParseWithOrder(raw, OrderAuto)
}

// ParseWithOrder decomposes raw into name parts. Company names are returned
// whole. For persons, legal boilerplate is removed first, and when several
// parties are joined by "&", "AND" or "/" only the first is decomposed.
func ParseWithOrder(raw string, order Order) Name {
	cleaned := clean(raw)
	if cleaned == "" {
		return Name{}
	}

	if companyRe.MatchString(cleaned) {
		return Name{Raw: cleaned, FullName: strings.Trim(cleaned, " ,"), Type: Company}
	}

	n := Name{Raw: cleaned, Type: Person}
	stripped := aliasRe.ReplaceAllString(cleaned, "")
	stripped = strings.TrimSpace(spaceRe.ReplaceAllString(proceduralRe.ReplaceAllString(stripped, " "), " "))
	parties := splitParties(stripped)
	if len(parties) == 0 {
		n.FullName = cleaned
		return n
	}

	n.decompose(parties[0], order)

	// "JOHN & JANE SMITH": the first party shares the last party's surname.
	if n.LastName == "" && len(parties) > 1 {
		var other Name
		other.decompose(parties[len(parties)-1], order)
		n.LastName = other.LastName
	}
	if n.LastName == "" {
		n.LastName, n.FirstName = n.FirstName, ""
	}

	n.FullName = joinNonEmpty(n.FirstName, n.MiddleName, n.LastName, n.Suffix)
	if n.FullName == "" {
		n.FullName = cleaned
	}
	return n
}

// decompose fills the person name parts from a single party.
func (n *Name) decompose(party string, order Order) {
	if i := strings.Index(party, ","); i >= 0 {
		last := n.takeSuffix(strings.Fields(strings.ReplaceAll(party[:i], ",", " ")))
		given := n.takeSuffix(strings.Fields(strings.ReplaceAll(party[i+1:], ",", " ")))
		n.LastName = strings.Join(last, " ")
		if len(given) > 0 {
			n.FirstName = given[0]
			n.MiddleName = strings.Join(given[1:], " ")
		}
		return
	}

	tokens := n.takeSuffix(strings.Fields(party))
	switch {
	case len(tokens) == 0:
	case len(tokens) == 1:
		// A lone token is a given name that may borrow a co-owner's surname.
		n.FirstName = tokens[0]
	case order == OrderLastFirst:
		n.LastName = tokens[0]
		n.FirstName = tokens[1]
		n.MiddleName = strings.Join(tokens[2:], " ")
	default:
		n.FirstName = tokens[0]
		n.LastName = tokens[len(tokens)-1]
		n.MiddleName = strings.Join(tokens[1:len(tokens)-1], " ")
	}
}

// takeSuffix removes suffix tokens, recording the first one seen. The first
// token of a part is never treated as a suffix.
func (n *Name) takeSuffix(tokens []string) []string {
	out := tokens[:0:0]
	for i, tok := range tokens {
		if s, ok := suffixes[tok]; ok && i > 0 {
			if n.Suffix == "" {
				n.Suffix = s
			}
			continue
		}
		out = append(out, tok)
	}
	return out
}

// IsZero reports whether no name was parsed.
func (n Name) IsZero() bool {
	return n.FullName == ""
}

// Normalized is the identity form of the name: uppercase, single-spaced.
func (n Name) Normalized() string {
	return strings.ToUpper(spaceRe.ReplaceAllString(strings.TrimSpace(n.FullName), " "))
}

// Display returns the name in title case, e.g. "John Smith Jr". Company
// names keep their case.
func (n Name) Display() string {
	if n.Type == Company {
		return n.FullName
	}
	suffix := n.Suffix
	if suffix == "JR" || suffix == "SR" {
		suffix = Title(suffix)
	}
	return joinNonEmpty(Title(n.FirstName), Title(n.MiddleName), Title(n.LastName), suffix)
}

// Title title-cases a name part.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

func clean(raw string) string {
	s := strings.ToUpper(unidecode.Unidecode(raw))
	s = strings.ReplaceAll(s, ".", "")
	s = disallowedRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,;&/")
}

func splitParties(s string) []string {
	parts := partySplitRe.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, " ,"); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
