package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// LinkRepository defines data access for owner-product-property links.
type LinkRepository interface {
	// FindByFingerprint returns nil, nil when no link has the fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.OwnerProductProperty, error)

	// Create inserts the link unless one with the same fingerprint exists. It
	// returns the stored row and whether this call inserted it.
	Create(ctx context.Context, link *models.OwnerProductProperty) (*models.OwnerProductProperty, bool, error)

	// UpdateDetails overwrites the case metadata of a link.
	UpdateDetails(ctx context.Context, id int64, details models.LinkDetails) error

	// SetFlags updates the lifecycle flags of a link.
	SetFlags(ctx context.Context, id int64, processed, consumed bool) error
}

type linkRepository struct {
	db *database.Database
}

// NewLinkRepository creates a new instance of LinkRepository.
func NewLinkRepository(db *database.Database) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, fingerprint, owner_id, property_id, product_id, processed, consumed,
	vacancy_processed, filing_date, case_unique_id, original_doc_type, created_at, updated_at`

func scanLink(row pgx.Row) (*models.OwnerProductProperty, error) {
	var l models.OwnerProductProperty
	err := row.Scan(
		&l.ID, &l.Fingerprint, &l.OwnerID, &l.PropertyID, &l.ProductID, &l.Processed,
		&l.Consumed, &l.VacancyProcessed, &l.FilingDate, &l.CaseUniqueID,
		&l.OriginalDocType, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *linkRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*models.OwnerProductProperty, error) {
	query := `SELECT ` + linkColumns + ` FROM owner_product_properties WHERE fingerprint = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query link by fingerprint: %w", err)
	}
	return link, nil
}

func (r *linkRepository) Create(ctx context.Context, l *models.OwnerProductProperty) (*models.OwnerProductProperty, bool, error) {
	query := `
		INSERT INTO owner_product_properties (fingerprint, owner_id, property_id, product_id,
			processed, consumed, vacancy_processed, filing_date, case_unique_id, original_doc_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING ` + linkColumns

	created, err := scanLink(r.db.Pool.QueryRow(ctx, query,
		l.Fingerprint, l.OwnerID, l.PropertyID, l.ProductID, l.Processed, l.Consumed,
		l.VacancyProcessed, l.FilingDate, l.CaseUniqueID, l.OriginalDocType,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert link: %w", err)
	}

	existing, err := r.FindByFingerprint(ctx, l.Fingerprint)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("link %s vanished after insert conflict", l.Fingerprint)
	}
	return existing, false, nil
}

func (r *linkRepository) UpdateDetails(ctx context.Context, id int64, d models.LinkDetails) error {
	query := `
		UPDATE owner_product_properties SET
			filing_date = $2, case_unique_id = $3, original_doc_type = $4, updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id, d.FilingDate, d.CaseUniqueID, d.OriginalDocType); err != nil {
		return fmt.Errorf("failed to update link %d: %w", id, err)
	}
	return nil
}

func (r *linkRepository) SetFlags(ctx context.Context, id int64, processed, consumed bool) error {
	query := `
		UPDATE owner_product_properties SET processed = $2, consumed = $3, updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id, processed, consumed); err != nil {
		return fmt.Errorf("failed to update flags of link %d: %w", id, err)
	}
	return nil
}
