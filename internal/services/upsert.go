package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"dario.cat/mergo"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stwalsh4118/publicrecords/internal/address"
	"github.com/stwalsh4118/publicrecords/internal/fingerprint"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/models"
	"github.com/stwalsh4118/publicrecords/internal/names"
	"github.com/stwalsh4118/publicrecords/internal/repository"
)

// UpsertStatus is the outcome of one upsert.
type UpsertStatus string

const (
	StatusCreated UpsertStatus = "created"
	StatusMerged  UpsertStatus = "merged"
	StatusSkipped UpsertStatus = "skipped"
)

// SkipReason explains a skipped candidate.
type SkipReason string

const (
	// ReasonInvalid means neither an owner name nor a property address was usable.
	ReasonInvalid SkipReason = "invalid"
	// ReasonUnknownProduct means the product is not in the catalog.
	ReasonUnknownProduct SkipReason = "unknown-product"
	// ReasonCompanyExcluded means a company owner was offered to a person-only practice type.
	ReasonCompanyExcluded SkipReason = "company-excluded"
	// ReasonMalformed means the candidate failed validation or was rejected by the store.
	ReasonMalformed SkipReason = "malformed"
)

// UpsertResult reports what Upsert did. Link, Owner and Property are the
// stored rows and are nil when the candidate was skipped before writing them.
type UpsertResult struct {
	Link     *models.OwnerProductProperty
	Owner    *models.Owner
	Property *models.Property
	Status   UpsertStatus
	Reason   SkipReason
}

// UpsertEngine persists candidates with at most one link per fingerprint.
type UpsertEngine interface {
	// Upsert creates, merges or skips one candidate. A skipped candidate is
	// not an error. A returned error is a store failure the caller may retry.
	Upsert(ctx context.Context, c models.Candidate) (*UpsertResult, error)
}

type upsertEngine struct {
	owners     repository.OwnerRepository
	properties repository.PropertyRepository
	products   repository.ProductRepository
	links      repository.LinkRepository
	log        *logger.Logger
}

// NewUpsertEngine creates a new instance of UpsertEngine.
func NewUpsertEngine(
	owners repository.OwnerRepository,
	properties repository.PropertyRepository,
	products repository.ProductRepository,
	links repository.LinkRepository,
	log *logger.Logger,
) UpsertEngine {
	return &upsertEngine{
		owners:     owners,
		properties: properties,
		products:   products,
		links:      links,
		log:        log.WithComponent("upsert"),
	}
}

// normalized is a candidate after name and address parsing.
type normalized struct {
	name        names.Name
	propertyAdr address.Address
	mailingAdr  address.Address
	ownerKey    string
	propertyKey string
}

func (e *upsertEngine) Upsert(ctx context.Context, c models.Candidate) (*UpsertResult, error) {
	n := normalize(c)
	if n.ownerKey == "" && n.propertyKey == "" {
		return e.skip(c, ReasonInvalid, nil), nil
	}

	// The product is resolved before any write so an unknown product never
	// leaves orphan owners or properties behind.
	product, err := e.products.FindByName(ctx, c.ProductName)
	if err != nil {
		return e.fail(c, fmt.Errorf("failed to resolve product: %w", err))
	}
	if product == nil {
		return e.skip(c, ReasonUnknownProduct, nil), nil
	}

	if err := c.Validate(); err != nil {
		return e.skip(c, ReasonMalformed, err), nil
	}

	_, _, practiceType, _ := models.SplitProductName(product.Name)
	if n.name.Type == names.Company && models.IsPersonOnly(practiceType) {
		return e.skip(c, ReasonCompanyExcluded, nil), nil
	}

	result := &UpsertResult{}

	if n.ownerKey != "" {
		result.Owner, err = e.upsertOwner(ctx, c, n)
		if err != nil {
			return e.fail(c, err)
		}
	}

	if n.propertyKey != "" {
		result.Property, err = e.upsertProperty(ctx, c, n, product)
		if err != nil {
			return e.fail(c, err)
		}
	}

	link, created, err := e.upsertLink(ctx, c, n, product, result)
	if err != nil {
		return e.fail(c, err)
	}
	result.Link = link
	result.Status = StatusMerged
	if created {
		result.Status = StatusCreated
	}

	e.log.Debug("Candidate upserted", logger.Fields{
		"status":  result.Status,
		"link_id": link.ID,
		"product": product.Name,
	})
	return result, nil
}

func normalize(c models.Candidate) normalized {
	n := normalized{
		name:        names.Parse(c.OwnerName()),
		propertyAdr: withParts(address.Parse(c.PropertyAddress), c.PropertyUnit, c.PropertyCity, c.PropertyState, c.PropertyZip),
		mailingAdr:  withParts(address.Parse(c.MailingAddress), c.MailingUnit, c.MailingCity, c.MailingState, c.MailingZip),
	}

	state, county := c.PropertyState, c.County
	if ps, pc, _, ok := models.SplitProductName(c.ProductName); ok {
		if state == "" {
			state = ps
		}
		if county == "" {
			county = pc
		}
	}
	if st, ok := address.NormalizeState(state); ok {
		state = st
	}

	n.ownerKey = fingerprint.OwnerKey(n.name, n.mailingAdr)
	n.propertyKey = fingerprint.PropertyKey(state, county, n.propertyAdr)
	return n
}

// withParts overlays the separately supplied address columns onto a parsed
// street line.
func withParts(a address.Address, unit, city, state, zip string) address.Address {
	if u := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(unit), "#")); u != "" {
		a.Unit = strings.ToUpper(u)
	}
	if city = strings.TrimSpace(city); city != "" {
		a.City = strings.ToUpper(city)
	}
	if st, ok := address.NormalizeState(state); ok {
		a.State = st
	}
	if zip = strings.TrimSpace(zip); zip != "" {
		a.Zip = zip
	}
	return a
}

func (e *upsertEngine) upsertOwner(ctx context.Context, c models.Candidate, n normalized) (*models.Owner, error) {
	incoming := models.OwnerDetails{
		FullName:       n.name.FullName,
		RawName:        strings.TrimSpace(c.OwnerName()),
		FirstName:      n.name.FirstName,
		MiddleName:     n.name.MiddleName,
		LastName:       n.name.LastName,
		Suffix:         n.name.Suffix,
		OwnerType:      string(n.name.Type),
		MailingAddress: strings.TrimSpace(c.MailingAddress),
		MailingUnit:    strings.TrimSpace(c.MailingUnit),
		MailingCity:    strings.TrimSpace(c.MailingCity),
		MailingState:   strings.TrimSpace(c.MailingState),
		MailingZip:     strings.TrimSpace(c.MailingZip),
		Phone:          strings.TrimSpace(c.Phone),
	}

	owner, created, err := e.owners.Create(ctx, &models.Owner{IdentityKey: n.ownerKey, OwnerDetails: incoming})
	if err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}
	if created {
		return owner, nil
	}

	merged := owner.OwnerDetails
	if err := mergo.Merge(&merged, incoming); err != nil {
		return nil, fmt.Errorf("failed to merge owner details: %w", err)
	}
	if merged == owner.OwnerDetails {
		return owner, nil
	}
	if err := e.owners.UpdateDetails(ctx, owner.ID, merged); err != nil {
		return nil, fmt.Errorf("failed to backfill owner: %w", err)
	}
	owner.OwnerDetails = merged
	return owner, nil
}

func (e *upsertEngine) upsertProperty(ctx context.Context, c models.Candidate, n normalized, product *models.Product) (*models.Property, error) {
	productState, productCounty, _, _ := models.SplitProductName(product.Name)

	incoming := models.Property{
		IdentityKey: n.propertyKey,
		Extra:       c.Extra,
		PropertyDetails: models.PropertyDetails{
			Address:               strings.TrimSpace(c.PropertyAddress),
			Unit:                  strings.TrimSpace(c.PropertyUnit),
			City:                  strings.TrimSpace(c.PropertyCity),
			State:                 firstNonEmpty(c.PropertyState, strings.ToUpper(productState)),
			Zip:                   strings.TrimSpace(c.PropertyZip),
			County:                firstNonEmpty(c.County, productCounty),
			PropertyType:          c.PropertyType,
			TotalAssessedValue:    c.TotalAssessedValue,
			EstValue:              c.EstValue,
			EstEquity:             c.EstEquity,
			LastSaleRecordingDate: c.LastSaleRecordingDate,
			LastSaleAmount:        c.LastSaleAmount,
			YearBuilt:             c.YearBuilt,
		},
	}
	if n.propertyAdr.HasStreet() && n.mailingAdr.HasStreet() {
		occupied := address.Equivalent(n.propertyAdr, n.mailingAdr)
		incoming.OwnerOccupied = &occupied
	}

	property, created, err := e.properties.Create(ctx, &incoming)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	if created {
		return property, nil
	}

	changed := false

	merged := property.PropertyDetails
	if err := mergo.Merge(&merged, incoming.PropertyDetails); err != nil {
		return nil, fmt.Errorf("failed to merge property details: %w", err)
	}
	if merged != property.PropertyDetails {
		property.PropertyDetails = merged
		changed = true
	}

	// A known owner-occupied value is never replaced.
	if property.OwnerOccupied == nil && incoming.OwnerOccupied != nil {
		property.OwnerOccupied = incoming.OwnerOccupied
		changed = true
	}

	if extra, added := fillExtra(property.Extra, incoming.Extra); added {
		property.Extra = extra
		changed = true
	}

	if !changed {
		return property, nil
	}
	if err := e.properties.Update(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to backfill property: %w", err)
	}
	return property, nil
}

// fillExtra adds keys from incoming that stored lacks or holds empty. It
// never replaces a populated value.
func fillExtra(stored, incoming map[string]string) (map[string]string, bool) {
	out := maps.Clone(stored)
	if out == nil {
		out = make(map[string]string, len(incoming))
	}
	added := false
	for k, v := range incoming {
		if v == "" || out[k] != "" {
			continue
		}
		out[k] = v
		added = true
	}
	return out, added
}

func (e *upsertEngine) upsertLink(
	ctx context.Context,
	c models.Candidate,
	n normalized,
	product *models.Product,
	result *UpsertResult,
) (*models.OwnerProductProperty, bool, error) {
	filingDate, err := c.FilingTime()
	if err != nil {
		e.log.Warn("Ignoring unparsable filing date", logger.Fields{
			"filing_date": c.FilingDate,
			"product":     product.Name,
		})
	}

	incoming := models.LinkDetails{
		FilingDate:      filingDate,
		CaseUniqueID:    strings.TrimSpace(c.CaseUniqueID),
		OriginalDocType: strings.TrimSpace(c.OriginalDocType),
	}
	fp := fingerprint.Compute(n.ownerKey, n.propertyKey, product.Name)

	link, err := e.links.FindByFingerprint(ctx, fp)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up link: %w", err)
	}

	if link == nil {
		candidate := &models.OwnerProductProperty{
			Fingerprint: fp,
			ProductID:   product.ID,
			LinkDetails: incoming,
		}
		if result.Owner != nil {
			candidate.OwnerID = &result.Owner.ID
		}
		if result.Property != nil {
			candidate.PropertyID = &result.Property.ID
		}

		var created bool
		link, created, err = e.links.Create(ctx, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create link: %w", err)
		}
		if created {
			return link, true, nil
		}
	}

	merged := link.LinkDetails
	if err := mergo.Merge(&merged, incoming); err != nil {
		return nil, false, fmt.Errorf("failed to merge link details: %w", err)
	}
	if sameLinkDetails(merged, link.LinkDetails) {
		return link, false, nil
	}
	if err := e.links.UpdateDetails(ctx, link.ID, merged); err != nil {
		return nil, false, fmt.Errorf("failed to backfill link: %w", err)
	}
	link.LinkDetails = merged
	return link, false, nil
}

func sameLinkDetails(a, b models.LinkDetails) bool {
	if a.CaseUniqueID != b.CaseUniqueID || a.OriginalDocType != b.OriginalDocType {
		return false
	}
	if a.FilingDate == nil || b.FilingDate == nil {
		return a.FilingDate == nil && b.FilingDate == nil
	}
	return a.FilingDate.Equal(*b.FilingDate)
}

func (e *upsertEngine) skip(c models.Candidate, reason SkipReason, cause error) *UpsertResult {
	fields := logger.Fields{
		"reason":  reason,
		"product": c.ProductName,
		"name":    c.OwnerName(),
		"address": c.PropertyAddress,
	}
	if cause != nil {
		fields["cause"] = cause.Error()
	}
	e.log.Info("Candidate skipped", fields)
	return &UpsertResult{Status: StatusSkipped, Reason: reason}
}

// fail turns store rejections of the candidate's data into a malformed skip
// and returns every other error to the caller.
func (e *upsertEngine) fail(c models.Candidate, err error) (*UpsertResult, error) {
	if isDataError(err) {
		return e.skip(c, ReasonMalformed, err), nil
	}
	e.log.Error("Upsert failed", err, logger.Fields{"product": c.ProductName})
	return nil, err
}

// isDataError reports whether err is a Postgres data exception (class 22)
// or integrity constraint violation (class 23).
func isDataError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
