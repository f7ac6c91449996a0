package names

import (
	"regexp"
	"strings"
)

// companyKeywords is the denylist that marks a name as a company or
// institution. Entries are matched as whole words against the uppercased name.
var companyKeywords = []string{
	// legal entity forms
	"INC", "INCORPORATED", "CORP", "CORPORATION", "LLC", "L L C", "LLP", "LP", "LLLP",
	"PLLC", "LTD", "LIMITED", "CO", "COMPANY", "PARTNERSHIP", "PARTNERS", "D/B/A", "DBA",
	"ENTERPRISES", "GROUP", "HOLDINGS", "HOLDING", "VENTURES", "SERIES", "FUND",
	// finance and lending
	"BANK", "BANCORP", "TRUST", "TRUSTEE", "TRUSTEES", "TR", "SAVINGS", "LOAN", "LOANS",
	"MORTGAGE", "LENDING", "FINANCIAL", "FINANCE", "CREDIT", "CAPITAL", "FEDERAL",
	"MUTUAL", "INSURANCE", "ASSET", "ASSETS", "INVESTMENT", "INVESTMENTS", "EQUITY",
	"ACCEPTANCE", "SERVICING", "FNMA", "FHLMC",
	// real estate
	"PROPERTY", "PROPERTIES", "REALTY", "REAL ESTATE", "HOMES", "HOUSING", "RESIDENTIAL",
	"APARTMENTS", "CONDOMINIUM", "CONDO", "HOA", "HOMEOWNERS", "OWNERS ASSOCIATION",
	"DEVELOPMENT", "DEVELOPERS", "BUILDERS", "CONSTRUCTION", "RENTALS",
	"MANAGEMENT", "OPPORTUNITIES", "ACQUISITIONS",
	// associations and institutions
	"ASSOC", "ASSN", "ASSOCIATION", "ORGANIZATION", "FOUNDATION", "SOCIETY", "AGENCY",
	"AUTHORITY", "COMMISSION", "COUNCIL", "BOARD", "INSTITUTE", "UNIVERSITY", "COLLEGE",
	"SCHOOL", "ACADEMY", "HOSPITAL", "CLINIC", "MEDICAL", "HEALTH", "CENTER",
	"CHURCH", "CATHOLIC", "MINISTRIES", "MINISTRY", "DIOCESE", "TEMPLE", "CONGREGATION",
	"COOPERATIVE", "COOP", "CLUB", "LEAGUE", "UNION", "NATIONAL", "UNITED",
	// government
	"COUNTY", "CITY", "TOWN", "TOWNSHIP", "VILLAGE", "BOROUGH", "STATE OF", "COMMONWEALTH",
	"UNITED STATES", "USA", "GOVERNMENT", "DEPARTMENT", "DEPT", "TREASURER", "SECRETARY",
	"DISTRICT", "MUNICIPAL", "PUBLIC", "HUD",
	// trades and services
	"GENERAL", "SERVICES", "SERVICE", "SOLUTIONS", "SYSTEMS", "INDUSTRIES", "MOTORS",
	"AUTO", "CLEANING", "CLEANERS", "FURNITURE", "RESTAURANT", "MARKET",
	"SUPPLY", "ELECTRIC", "PLUMBING", "ROOFING", "TRANSPORT", "TRUCKING", "LOGISTICS",
	"INTERNATIONAL", "GLOBAL", "PROTECTION",
}

var companyRe = regexp.MustCompile(`\b(?:` + joinQuoted(companyKeywords) + `)\b`)

// IsCompany reports whether raw contains a company or institution keyword.
func IsCompany(raw string) bool {
	return companyRe.MatchString(clean(raw))
}

func joinQuoted(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return strings.Join(quoted, "|")
}
