package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// PropertyRepository defines data access for properties.
type PropertyRepository interface {
	// FindByIdentityKey returns nil, nil when no property has the key.
	FindByIdentityKey(ctx context.Context, key string) (*models.Property, error)

	// Create inserts the property unless one with the same identity key
	// already exists. It returns the stored row and whether this call inserted it.
	Create(ctx context.Context, property *models.Property) (*models.Property, bool, error)

	// Update overwrites the detail columns, extra fields and owner-occupied flag.
	Update(ctx context.Context, property *models.Property) error
}

type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{db: db}
}

const propertyColumns = `id, identity_key, address, unit, city, state, zip, county, property_type,
	total_assessed_value, est_value, est_equity, last_sale_recording_date, last_sale_amount,
	year_built, owner_occupied, extra, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID, &p.IdentityKey, &p.Address, &p.Unit, &p.City, &p.State, &p.Zip, &p.County,
		&p.PropertyType, &p.TotalAssessedValue, &p.EstValue, &p.EstEquity,
		&p.LastSaleRecordingDate, &p.LastSaleAmount, &p.YearBuilt, &p.OwnerOccupied,
		&p.Extra, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) FindByIdentityKey(ctx context.Context, key string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE identity_key = $1`

	property, err := scanProperty(r.db.Pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property by identity key: %w", err)
	}
	return property, nil
}

func (r *propertyRepository) Create(ctx context.Context, p *models.Property) (*models.Property, bool, error) {
	query := `
		INSERT INTO properties (identity_key, address, unit, city, state, zip, county,
			property_type, total_assessed_value, est_value, est_equity,
			last_sale_recording_date, last_sale_amount, year_built, owner_occupied, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (identity_key) DO NOTHING
		RETURNING ` + propertyColumns

	created, err := scanProperty(r.db.Pool.QueryRow(ctx, query,
		p.IdentityKey, p.Address, p.Unit, p.City, p.State, p.Zip, p.County, p.PropertyType,
		p.TotalAssessedValue, p.EstValue, p.EstEquity, p.LastSaleRecordingDate,
		p.LastSaleAmount, p.YearBuilt, p.OwnerOccupied, extraOrEmpty(p.Extra),
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert property: %w", err)
	}

	existing, err := r.FindByIdentityKey(ctx, p.IdentityKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("property %q vanished after insert conflict", p.IdentityKey)
	}
	return existing, false, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *models.Property) error {
	query := `
		UPDATE properties SET
			address = $2, unit = $3, city = $4, state = $5, zip = $6, county = $7,
			property_type = $8, total_assessed_value = $9, est_value = $10, est_equity = $11,
			last_sale_recording_date = $12, last_sale_amount = $13, year_built = $14,
			owner_occupied = $15, extra = $16, updated_at = now()
		WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, p.ID,
		p.Address, p.Unit, p.City, p.State, p.Zip, p.County, p.PropertyType,
		p.TotalAssessedValue, p.EstValue, p.EstEquity, p.LastSaleRecordingDate,
		p.LastSaleAmount, p.YearBuilt, p.OwnerOccupied, extraOrEmpty(p.Extra),
	)
	if err != nil {
		return fmt.Errorf("failed to update property %d: %w", p.ID, err)
	}
	return nil
}

func extraOrEmpty(extra map[string]string) map[string]string {
	if extra == nil {
		return map[string]string{}
	}
	return extra
}
