package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Candidate is the flat record a source hands to the upsert engine. Known
// columns are typed; any other non-empty column is carried in Extra and
// stored verbatim on the property.
type Candidate struct {
	Extra                 map[string]string `json:"extra,omitempty"`
	FullName              string            `json:"Full Name,omitempty" validate:"max=300"`
	FirstName             string            `json:"First Name,omitempty"`
	MiddleName            string            `json:"Middle Name,omitempty"`
	LastName              string            `json:"Last Name,omitempty"`
	NameSuffix            string            `json:"Name Suffix,omitempty"`
	Phone                 string            `json:"Phone,omitempty"`
	PropertyAddress       string            `json:"Property Address,omitempty" validate:"max=300"`
	PropertyUnit          string            `json:"Property Unit #,omitempty"`
	PropertyCity          string            `json:"Property City,omitempty"`
	PropertyState         string            `json:"Property State,omitempty"`
	PropertyZip           string            `json:"Property Zip,omitempty" validate:"omitempty,max=10"`
	County                string            `json:"County,omitempty"`
	MailingAddress        string            `json:"Mailing Address,omitempty" validate:"max=300"`
	MailingUnit           string            `json:"Mailing Unit #,omitempty"`
	MailingCity           string            `json:"Mailing City,omitempty"`
	MailingState          string            `json:"Mailing State,omitempty"`
	MailingZip            string            `json:"Mailing Zip,omitempty" validate:"omitempty,max=10"`
	PropertyType          string            `json:"Property Type,omitempty"`
	TotalAssessedValue    string            `json:"Total Assessed Value,omitempty"`
	EstValue              string            `json:"Est Value,omitempty"`
	EstEquity             string            `json:"Est Equity,omitempty"`
	LastSaleRecordingDate string            `json:"Last Sale Recording Date,omitempty"`
	LastSaleAmount        string            `json:"Last Sale Amount,omitempty"`
	YearBuilt             string            `json:"yearBuilt,omitempty"`
	ProductName           string            `json:"productId" validate:"required,startswith=/"`
	OriginalDocType       string            `json:"originalDocType,omitempty"`
	FilingDate            string            `json:"fillingDate,omitempty"`
	CaseUniqueID          string            `json:"caseUniqueId,omitempty"`
}

// candidateFields maps source column names to Candidate fields. Several
// sources use different spellings for the same column.
var candidateFields = map[string]func(*Candidate) *string{
	"full name":                func(c *Candidate) *string { return &c.FullName },
	"owner name":               func(c *Candidate) *string { return &c.FullName },
	"first name":               func(c *Candidate) *string { return &c.FirstName },
	"middle name":              func(c *Candidate) *string { return &c.MiddleName },
	"last name":                func(c *Candidate) *string { return &c.LastName },
	"name suffix":              func(c *Candidate) *string { return &c.NameSuffix },
	"phone":                    func(c *Candidate) *string { return &c.Phone },
	"property address":         func(c *Candidate) *string { return &c.PropertyAddress },
	"property unit #":          func(c *Candidate) *string { return &c.PropertyUnit },
	"property city":            func(c *Candidate) *string { return &c.PropertyCity },
	"city":                     func(c *Candidate) *string { return &c.PropertyCity },
	"property state":           func(c *Candidate) *string { return &c.PropertyState },
	"state":                    func(c *Candidate) *string { return &c.PropertyState },
	"property zip":             func(c *Candidate) *string { return &c.PropertyZip },
	"zip":                      func(c *Candidate) *string { return &c.PropertyZip },
	"county":                   func(c *Candidate) *string { return &c.County },
	"mailing address":          func(c *Candidate) *string { return &c.MailingAddress },
	"mailing unit #":           func(c *Candidate) *string { return &c.MailingUnit },
	"mailing city":             func(c *Candidate) *string { return &c.MailingCity },
	"mailing state":            func(c *Candidate) *string { return &c.MailingState },
	"mailing zip":              func(c *Candidate) *string { return &c.MailingZip },
	"property type":            func(c *Candidate) *string { return &c.PropertyType },
	"total assessed value":     func(c *Candidate) *string { return &c.TotalAssessedValue },
	"est value":                func(c *Candidate) *string { return &c.EstValue },
	"est equity":               func(c *Candidate) *string { return &c.EstEquity },
	"last sale recording date": func(c *Candidate) *string { return &c.LastSaleRecordingDate },
	"last sale amount":         func(c *Candidate) *string { return &c.LastSaleAmount },
	"yearbuilt":                func(c *Candidate) *string { return &c.YearBuilt },
	"year built":               func(c *Candidate) *string { return &c.YearBuilt },
	"productid":                func(c *Candidate) *string { return &c.ProductName },
	"product":                  func(c *Candidate) *string { return &c.ProductName },
	"originaldoctype":          func(c *Candidate) *string { return &c.OriginalDocType },
	"fillingdate":              func(c *Candidate) *string { return &c.FilingDate },
	"csvfillingdate":           func(c *Candidate) *string { return &c.FilingDate },
	"filingdate":               func(c *Candidate) *string { return &c.FilingDate },
	"caseuniqueid":             func(c *Candidate) *string { return &c.CaseUniqueID },
	"csvcasenumber":            func(c *Candidate) *string { return &c.CaseUniqueID },
	"casenumber":               func(c *Candidate) *string { return &c.CaseUniqueID },
}

// CandidateFromRecord builds a Candidate from a source row. Column names are
// matched case-insensitively; values are trimmed and empty values dropped.
// The first non-empty value wins when two columns map to the same field.
func CandidateFromRecord(record map[string]string) Candidate {
	var c Candidate
	for key, value := range record {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		field, ok := candidateFields[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			if c.Extra == nil {
				c.Extra = make(map[string]string)
			}
			c.Extra[strings.TrimSpace(key)] = value
			continue
		}
		if p := field(&c); *p == "" || preferred(key) {
			*p = value
		}
	}
	return c
}

// preferred reports whether key is the canonical spelling of its column, so
// that it wins over an alias regardless of map iteration order.
func preferred(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "full name", "property city", "property state", "property zip", "productid", "fillingdate", "caseuniqueid", "yearbuilt":
		return true
	}
	return false
}

var validate = validator.New()

// Validate checks the structural constraints on the candidate.
func (c Candidate) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid candidate: %w", err)
	}
	return nil
}

// OwnerName returns the name to parse for the owner, assembling it from
// parts when no full name is given.
func (c Candidate) OwnerName() string {
	if strings.TrimSpace(c.FullName) != "" {
		return c.FullName
	}
	given := strings.Join(strings.Fields(c.FirstName+" "+c.MiddleName+" "+c.NameSuffix), " ")
	last := strings.TrimSpace(c.LastName)
	switch {
	case last == "":
		return given
	case given == "":
		return last
	}
	return last + ", " + given
}

var filingDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"01/02/06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// FilingTime parses FilingDate. It returns nil, nil when the date is empty.
func (c Candidate) FilingTime() (*time.Time, error) {
	s := strings.TrimSpace(c.FilingDate)
	if s == "" {
		return nil, nil
	}
	for _, layout := range filingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized filing date %q", s)
}
