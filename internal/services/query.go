package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stwalsh4118/publicrecords/internal/address"
	"github.com/stwalsh4118/publicrecords/internal/cache"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/models"
	"github.com/stwalsh4118/publicrecords/internal/names"
	"github.com/stwalsh4118/publicrecords/internal/repository"
)

// ErrInvalidQuery is returned when query parameters cannot be evaluated.
var ErrInvalidQuery = errors.New("invalid query")

const (
	// AllSelector matches every state, county or practice type.
	AllSelector = "all"

	DefaultPerPage = 20
	MaxPerPage     = 1000

	rowDateLayout = "01-02-2006"
)

// Filter restricts rows whose Field matches Value, a case-insensitive regular expression.
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// QueryParams selects and pages link records. From and To are calendar days
// and both are inclusive.
type QueryParams struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	State         string    `json:"state"`
	County        string    `json:"county"`
	Zip           string    `json:"zip"`
	Filters       []Filter  `json:"filters"`
	PracticeTypes []string  `json:"practiceTypes"`
	Page          int       `json:"page"`
	PerPage       int       `json:"perPage"`
	GroupSize     int       `json:"groupSize"`
}

// Row is one rendered result keyed by display column name.
type Row map[string]string

// QueryResult is one page of rows and the unpaginated match count. In grouped
// mode Count is the number of owner groups.
type QueryResult struct {
	Rows  []Row `json:"rows"`
	Count int64 `json:"count"`
}

// QueryAggregator answers aggregated, paginated queries over the link store.
type QueryAggregator interface {
	Query(ctx context.Context, params QueryParams) (*QueryResult, error)
}

type queryAggregator struct {
	repo  repository.QueryRepository
	cache cache.QueryCache
	log   *logger.Logger
	now   func() time.Time
}

// NewQueryAggregator creates a new instance of QueryAggregator. A nil cache
// disables result caching.
func NewQueryAggregator(repo repository.QueryRepository, qc cache.QueryCache, log *logger.Logger) QueryAggregator {
	if qc == nil {
		qc = cache.Noop{}
	}
	return &queryAggregator{
		repo:  repo,
		cache: qc,
		log:   log.WithComponent("query"),
		now:   time.Now,
	}
}

func (a *queryAggregator) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	params, err := a.normalizeParams(params)
	if err != nil {
		return nil, err
	}

	key, err := cache.Key(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache key: %w", err)
	}
	if cached, ok := a.cached(ctx, key); ok {
		return cached, nil
	}

	q := linkQuery(params)

	records, err := a.repo.FindLinks(ctx, q)
	if err != nil {
		return nil, a.classify(err)
	}
	count, err := a.repo.CountLinks(ctx, q)
	if err != nil {
		return nil, a.classify(err)
	}

	result := &QueryResult{Rows: make([]Row, 0, len(records)), Count: count}
	for _, rec := range records {
		result.Rows = append(result.Rows, RenderRow(rec))
	}

	a.store(ctx, key, result)

	a.log.Debug("Query executed", logger.Fields{
		"rows":       len(result.Rows),
		"count":      count,
		"group_size": params.GroupSize,
	})
	return result, nil
}

func (a *queryAggregator) normalizeParams(p QueryParams) (QueryParams, error) {
	if p.Page < 0 {
		return p, fmt.Errorf("%w: page must be >= 0", ErrInvalidQuery)
	}
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage < 1 || p.PerPage > MaxPerPage {
		return p, fmt.Errorf("%w: perPage must be between 1 and %d", ErrInvalidQuery, MaxPerPage)
	}
	if p.GroupSize < 0 {
		return p, fmt.Errorf("%w: groupSize must be >= 0", ErrInvalidQuery)
	}

	if p.To.IsZero() {
		p.To = a.now()
	}
	p.From = day(p.From)
	p.To = day(p.To)
	if p.From.After(p.To) {
		return p, fmt.Errorf("%w: from must not be after to", ErrInvalidQuery)
	}

	p.State = selector(p.State)
	p.County = selector(p.County)
	p.Zip = strings.TrimSpace(p.Zip)

	types := make([]string, 0, len(p.PracticeTypes))
	for _, t := range p.PracticeTypes {
		if t = selector(t); t == AllSelector {
			types = []string{AllSelector}
			break
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		types = []string{AllSelector}
	}
	p.PracticeTypes = types

	filters := make([]Filter, len(p.Filters))
	for i, f := range p.Filters {
		f.Field = strings.TrimSpace(f.Field)
		if f.Field == "" {
			return p, fmt.Errorf("%w: filter %d has no field", ErrInvalidQuery, i)
		}
		if _, err := regexp.Compile("(?i)" + f.Value); err != nil {
			return p, fmt.Errorf("%w: filter %q: %v", ErrInvalidQuery, f.Field, err)
		}
		filters[i] = f
	}
	p.Filters = filters
	return p, nil
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func selector(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AllSelector
	}
	return s
}

func linkQuery(p QueryParams) repository.LinkQuery {
	q := repository.LinkQuery{
		From:           p.From,
		To:             p.To.AddDate(0, 0, 1),
		ProductPattern: ProductPattern(p.State, p.County, p.PracticeTypes),
		Zip:            p.Zip,
		GroupSize:      p.GroupSize,
		Offset:         p.Page * p.PerPage,
		Limit:          p.PerPage,
	}
	for _, f := range p.Filters {
		q.Matches = append(q.Matches, repository.FieldMatch{Field: f.Field, Pattern: f.Value})
	}
	return q
}

// ProductPattern builds the anchored product-name regexp for the selectors.
// It returns "" when every selector is "all".
func ProductPattern(state, county string, practiceTypes []string) string {
	state, county = selector(state), selector(county)
	allTypes := len(practiceTypes) == 0 || (len(practiceTypes) == 1 && selector(practiceTypes[0]) == AllSelector)
	if state == AllSelector && county == AllSelector && allTypes {
		return ""
	}

	segment := func(s string) string {
		if s == AllSelector {
			return "[^/]+"
		}
		return regexp.QuoteMeta(s)
	}

	types := "[^/]+"
	if !allTypes {
		quoted := make([]string, len(practiceTypes))
		for i, t := range practiceTypes {
			quoted[i] = regexp.QuoteMeta(selector(t))
		}
		types = "(" + strings.Join(quoted, "|") + ")"
	}
	return "^/" + segment(state) + "/" + segment(county) + "/" + types + "$"
}

// classify maps errors caused by the caller's parameters to ErrInvalidQuery.
func (a *queryAggregator) classify(err error) error {
	if errors.Is(err, repository.ErrUnknownField) {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "2201B" {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, pgErr.Message)
	}
	a.log.Error("Query failed", err, nil)
	return err
}

func (a *queryAggregator) cached(ctx context.Context, key string) (*QueryResult, bool) {
	data, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.log.Warn("Query cache read failed", logger.Fields{"error": err.Error()})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		a.log.Warn("Discarding corrupt query cache entry", logger.Fields{"error": err.Error()})
		return nil, false
	}
	return &result, true
}

func (a *queryAggregator) store(ctx context.Context, key string, result *QueryResult) {
	data, err := json.Marshal(result)
	if err != nil {
		a.log.Warn("Query result not cacheable", logger.Fields{"error": err.Error()})
		return
	}
	if err := a.cache.Set(ctx, key, data); err != nil {
		a.log.Warn("Query cache write failed", logger.Fields{"error": err.Error()})
	}
}

// RenderRow flattens a link record into display columns. Blank address parts
// are recovered from the stored address line when it holds a full address.
func RenderRow(rec repository.LinkRecord) Row {
	o, p, l := rec.Owner, rec.Property, rec.Link

	row := Row{}
	maps.Copy(row, p.Extra)

	_, _, practiceType, _ := models.SplitProductName(rec.ProductName)

	propStreet, propUnit, propCity, propState, propZip := backfillAddress(p.Address, p.Unit, p.City, p.State, p.Zip)
	mailStreet, mailUnit, mailCity, mailState, mailZip := backfillAddress(
		o.MailingAddress, o.MailingUnit, o.MailingCity, o.MailingState, o.MailingZip)

	maps.Copy(row, Row{
		"Created At":               l.CreatedAt.Format(rowDateLayout),
		"Updated At":               l.UpdatedAt.Format(rowDateLayout),
		"Practice Type":            models.PracticeTypeLabel(practiceType),
		"Full Name":                displayName(o),
		"First Name":               names.Title(o.FirstName),
		"Middle Name":              names.Title(o.MiddleName),
		"Last Name":                names.Title(o.LastName),
		"Name Suffix":              o.Suffix,
		"Owner Type":               o.OwnerType,
		"Phone":                    o.Phone,
		"Mailing Address":          mailStreet,
		"Mailing Unit #":           mailUnit,
		"Mailing City":             mailCity,
		"Mailing State":            mailState,
		"Mailing Zip":              mailZip,
		"Property Address":         propStreet,
		"Property Unit #":          propUnit,
		"Property City":            propCity,
		"Property State":           propState,
		"Property Zip":             propZip,
		"County":                   p.County,
		"Owner Occupied":           occupiedLabel(p.OwnerOccupied),
		"Property Type":            p.PropertyType,
		"Total Assessed Value":     p.TotalAssessedValue,
		"Last Sale Recording Date": p.LastSaleRecordingDate,
		"Last Sale Amount":         p.LastSaleAmount,
		"Est Value":                p.EstValue,
		"Est Equity":               p.EstEquity,
		"yearBuilt":                p.YearBuilt,
		"caseUniqueId":             l.CaseUniqueID,
		"originalDocType":          l.OriginalDocType,
		"fillingDate":              "",
	})
	if l.FilingDate != nil {
		row["fillingDate"] = l.FilingDate.Format(rowDateLayout)
	}
	return row
}

// backfillAddress fills blank unit, city, state and zip from street when
// street parses as a complete address, and trims street to its street part.
func backfillAddress(street, unit, city, state, zip string) (string, string, string, string, string) {
	if (city != "" && state != "" && zip != "") || !address.LooksFull(street) {
		return street, unit, city, state, zip
	}
	a := address.Parse(street)
	if unit == "" {
		unit = a.Unit
	}
	if city == "" {
		city = address.TitleCase(a.City)
	}
	if state == "" {
		state = a.State
	}
	if zip == "" {
		zip = a.Zip
	}
	a.Unit = ""
	return a.Display(), unit, city, state, zip
}

// displayName renders a person's stored name parts in title case. Company
// names are shown as stored.
func displayName(o models.Owner) string {
	if o.OwnerType == string(names.Company) {
		return o.FullName
	}
	n := names.Name{
		FirstName:  o.FirstName,
		MiddleName: o.MiddleName,
		LastName:   o.LastName,
		Suffix:     o.Suffix,
		Type:       names.Person,
	}
	if d := n.Display(); d != "" {
		return d
	}
	return names.Title(o.FullName)
}

func occupiedLabel(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return "true"
	}
	return "false"
}
