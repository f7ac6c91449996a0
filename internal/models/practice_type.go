package models

import "strings"

// PracticeTypeLabels maps the practice-type segment of a product name to the
// label shown to API consumers.
var PracticeTypeLabels = map[string]string{
	"foreclosure":             "Foreclosure",
	"preforeclosure":          "Preforeclosure",
	"bankruptcy":              "Bankruptcy",
	"tax-lien":                "Tax Lien",
	"auction":                 "Auction",
	"inheritance":             "Inheritance",
	"probate":                 "Probate",
	"eviction":                "Eviction",
	"hoa-lien":                "Hoa Lien",
	"irs-lien":                "Irs Lien",
	"mortgage-lien":           "Mortgage Lien",
	"pre-inheritance":         "Pre Inheritance",
	"pre-probate":             "Pre Probate",
	"divorce":                 "Divorce",
	"tax-delinquency":         "Tax Delinquency",
	"code-violation":          "Code Violation",
	"absentee-property-owner": "Absentee Property Owner",
	"vacancy":                 "Vacancy",
	"debt":                    "Debt",
	"personal-injury":         "Personal Injury",
	"marriage":                "Marriage",
	"child-support":           "Child Support",
	"other-civil":             "Other Civil",
}

// personOnlyPracticeTypes are indexed by person; company owners are excluded.
var personOnlyPracticeTypes = map[string]struct{}{
	"preforeclosure":  {},
	"personal-injury": {},
	"probate":         {},
	"pre-probate":     {},
	"inheritance":     {},
	"pre-inheritance": {},
	"divorce":         {},
	"marriage":        {},
	"child-support":   {},
}

// PracticeTypeLabel returns the display label for a practice type, or "" when unknown.
func PracticeTypeLabel(practiceType string) string {
	return PracticeTypeLabels[strings.ToLower(strings.TrimSpace(practiceType))]
}

// IsPersonOnly reports whether company owners must be excluded from the practice type.
func IsPersonOnly(practiceType string) bool {
	_, ok := personOnlyPracticeTypes[strings.ToLower(strings.TrimSpace(practiceType))]
	return ok
}
