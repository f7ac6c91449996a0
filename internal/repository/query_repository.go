package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// FieldMatch restricts results to rows whose Field matches the
// case-insensitive regular expression Pattern.
type FieldMatch struct {
	Field   string
	Pattern string
}

// LinkQuery is the match predicate and page shared by FindLinks and
// CountLinks. Only processed, consumed links with both an owner and a
// property are ever matched.
type LinkQuery struct {
	// From is inclusive and To exclusive.
	From time.Time
	To   time.Time

	// ProductPattern is a case-insensitive regexp over the product name.
	ProductPattern string
	Zip            string
	Matches        []FieldMatch

	// GroupSize, when positive, keeps only owners with exactly that many
	// distinct (product, property) pairs and pages over owners instead of links.
	GroupSize int

	Offset int
	Limit  int
}

// LinkRecord is a matched link joined with its owner, property and product.
type LinkRecord struct {
	Link        models.OwnerProductProperty
	Owner       models.Owner
	Property    models.Property
	ProductName string
}

// QueryRepository reads aggregated link records.
type QueryRepository interface {
	// FindLinks returns one page of matched records.
	FindLinks(ctx context.Context, q LinkQuery) ([]LinkRecord, error)

	// CountLinks returns the number of matched links, or of matched owner
	// groups in grouped mode, ignoring Offset and Limit.
	CountLinks(ctx context.Context, q LinkQuery) (int64, error)
}

type queryRepository struct {
	db *database.Database
}

// NewQueryRepository creates a new instance of QueryRepository.
func NewQueryRepository(db *database.Database) QueryRepository {
	return &queryRepository{db: db}
}

// ownerFilterColumns and propertyFilterColumns map the display keys used by
// API filters to columns.
var ownerFilterColumns = map[string]string{
	"Full Name":       "o.full_name",
	"First Name":      "o.first_name",
	"Middle Name":     "o.middle_name",
	"Last Name":       "o.last_name",
	"Name Suffix":     "o.suffix",
	"Owner Type":      "o.owner_type",
	"Phone":           "o.phone",
	"Mailing Address": "o.mailing_address",
	"Mailing Unit #":  "o.mailing_unit",
	"Mailing City":    "o.mailing_city",
	"Mailing State":   "o.mailing_state",
	"Mailing Zip":     "o.mailing_zip",
}

var propertyFilterColumns = map[string]string{
	"Property Address":         "pr.address",
	"Property Unit #":          "pr.unit",
	"Property City":            "pr.city",
	"Property State":           "pr.state",
	"Property Zip":             "pr.zip",
	"County":                   "pr.county",
	"Property Type":            "pr.property_type",
	"Total Assessed Value":     "pr.total_assessed_value",
	"Est Value":                "pr.est_value",
	"Est Equity":               "pr.est_equity",
	"Last Sale Recording Date": "pr.last_sale_recording_date",
	"Last Sale Amount":         "pr.last_sale_amount",
	"yearBuilt":                "pr.year_built",
	"Owner Occupied":           "coalesce(pr.owner_occupied::text, '')",
}

// matchStage builds the CTE both the row and count queries start from.
type matchStage struct {
	sql  string
	args []any
}

func (m *matchStage) arg(v any) string {
	m.args = append(m.args, v)
	return fmt.Sprintf("$%d", len(m.args))
}

func buildMatchStage(q LinkQuery) (*matchStage, error) {
	m := &matchStage{}

	where := []string{
		"l.created_at >= " + m.arg(q.From),
		"l.created_at < " + m.arg(q.To),
		"l.processed",
		"l.consumed",
		"l.owner_id IS NOT NULL",
		"l.property_id IS NOT NULL",
	}
	if q.ProductPattern != "" {
		where = append(where, "pd.name ~* "+m.arg(q.ProductPattern))
	}
	if q.Zip != "" {
		where = append(where, "pr.zip = "+m.arg(q.Zip))
	}
	for _, f := range q.Matches {
		expr, err := filterColumn(m, f.Field)
		if err != nil {
			return nil, err
		}
		where = append(where, expr+" ~* "+m.arg(f.Pattern))
	}

	m.sql = `
		matched AS (
			SELECT l.id AS link_id, l.owner_id, l.property_id, l.product_id, l.created_at
			FROM owner_product_properties l
			JOIN owners o ON o.id = l.owner_id
			JOIN properties pr ON pr.id = l.property_id
			JOIN products pd ON pd.id = l.product_id
			WHERE ` + strings.Join(where, "\n\t\t\t\tAND ") + `
		)`

	if q.GroupSize > 0 {
		m.sql += `,
		groups AS (
			SELECT owner_id
			FROM matched
			GROUP BY owner_id
			HAVING count(DISTINCT (product_id, property_id)) = ` + m.arg(q.GroupSize) + `
		)`
	}
	return m, nil
}

// filterColumn resolves a display key to a column. Keys naming an owner
// attribute must be known; any other key falls through to the property's
// extra fields.
func filterColumn(m *matchStage, field string) (string, error) {
	if col, ok := ownerFilterColumns[field]; ok {
		return col, nil
	}
	if col, ok := propertyFilterColumns[field]; ok {
		return col, nil
	}
	if strings.Contains(field, "Name") || strings.Contains(field, "Mailing") {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return "(pr.extra ->> " + m.arg(field) + ")", nil
}

func (r *queryRepository) FindLinks(ctx context.Context, q LinkQuery) ([]LinkRecord, error) {
	m, err := buildMatchStage(q)
	if err != nil {
		return nil, err
	}

	selected := `
		SELECT ` + qualify("l", linkColumns) + `,
			` + qualify("o", ownerColumns) + `,
			` + qualify("pr", propertyColumns) + `,
			pd.name
		FROM matched mt
		JOIN owner_product_properties l ON l.id = mt.link_id
		JOIN owners o ON o.id = mt.owner_id
		JOIN properties pr ON pr.id = mt.property_id
		JOIN products pd ON pd.id = mt.product_id`

	var query string
	if q.GroupSize > 0 {
		query = `WITH ` + m.sql + `,
		page AS (
			SELECT owner_id FROM groups ORDER BY owner_id
			OFFSET ` + m.arg(q.Offset) + ` LIMIT ` + m.arg(q.Limit) + `
		)` + selected + `
		WHERE mt.owner_id IN (SELECT owner_id FROM page)
		ORDER BY mt.owner_id, mt.link_id`
	} else {
		query = `WITH ` + m.sql + selected + `
		ORDER BY mt.created_at, mt.link_id
		OFFSET ` + m.arg(q.Offset) + ` LIMIT ` + m.arg(q.Limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, m.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var records []LinkRecord
	for rows.Next() {
		var rec LinkRecord
		l, o, p := &rec.Link, &rec.Owner, &rec.Property
		err := rows.Scan(
			&l.ID, &l.Fingerprint, &l.OwnerID, &l.PropertyID, &l.ProductID, &l.Processed,
			&l.Consumed, &l.VacancyProcessed, &l.FilingDate, &l.CaseUniqueID,
			&l.OriginalDocType, &l.CreatedAt, &l.UpdatedAt,
			&o.ID, &o.IdentityKey, &o.FullName, &o.RawName, &o.FirstName, &o.MiddleName,
			&o.LastName, &o.Suffix, &o.OwnerType, &o.MailingAddress, &o.MailingUnit,
			&o.MailingCity, &o.MailingState, &o.MailingZip, &o.Phone, &o.CreatedAt, &o.UpdatedAt,
			&p.ID, &p.IdentityKey, &p.Address, &p.Unit, &p.City, &p.State, &p.Zip, &p.County,
			&p.PropertyType, &p.TotalAssessedValue, &p.EstValue, &p.EstEquity,
			&p.LastSaleRecordingDate, &p.LastSaleAmount, &p.YearBuilt, &p.OwnerOccupied,
			&p.Extra, &p.CreatedAt, &p.UpdatedAt,
			&rec.ProductName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}
	return records, nil
}

func (r *queryRepository) CountLinks(ctx context.Context, q LinkQuery) (int64, error) {
	m, err := buildMatchStage(q)
	if err != nil {
		return 0, err
	}

	from := "matched"
	if q.GroupSize > 0 {
		from = "groups"
	}
	query := `WITH ` + m.sql + ` SELECT count(*) FROM ` + from

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, m.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// qualify prefixes every column in a comma-separated list with alias.
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
