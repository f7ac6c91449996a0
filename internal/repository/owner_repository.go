package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// OwnerRepository defines data access for owners.
type OwnerRepository interface {
	// FindByIdentityKey returns nil, nil when no owner has the key.
	FindByIdentityKey(ctx context.Context, key string) (*models.Owner, error)

	// Create inserts the owner unless one with the same identity key already
	// exists. It returns the stored row and whether this call inserted it.
	Create(ctx context.Context, owner *models.Owner) (*models.Owner, bool, error)

	// UpdateDetails overwrites the owner's detail columns.
	UpdateDetails(ctx context.Context, id int64, details models.OwnerDetails) error
}

type ownerRepository struct {
	db *database.Database
}

// NewOwnerRepository creates a new instance of OwnerRepository.
func NewOwnerRepository(db *database.Database) OwnerRepository {
	return &ownerRepository{db: db}
}

const ownerColumns = `id, identity_key, full_name, raw_name, first_name, middle_name, last_name,
	suffix, owner_type, mailing_address, mailing_unit, mailing_city, mailing_state,
	mailing_zip, phone, created_at, updated_at`

func scanOwner(row pgx.Row) (*models.Owner, error) {
	var o models.Owner
	err := row.Scan(
		&o.ID, &o.IdentityKey, &o.FullName, &o.RawName, &o.FirstName, &o.MiddleName,
		&o.LastName, &o.Suffix, &o.OwnerType, &o.MailingAddress, &o.MailingUnit,
		&o.MailingCity, &o.MailingState, &o.MailingZip, &o.Phone, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ownerRepository) FindByIdentityKey(ctx context.Context, key string) (*models.Owner, error) {
	query := `SELECT ` + ownerColumns + ` FROM owners WHERE identity_key = $1`

	owner, err := scanOwner(r.db.Pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query owner by identity key: %w", err)
	}
	return owner, nil
}

func (r *ownerRepository) Create(ctx context.Context, o *models.Owner) (*models.Owner, bool, error) {
	query := `
		INSERT INTO owners (identity_key, full_name, raw_name, first_name, middle_name, last_name,
			suffix, owner_type, mailing_address, mailing_unit, mailing_city, mailing_state,
			mailing_zip, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (identity_key) DO NOTHING
		RETURNING ` + ownerColumns

	created, err := scanOwner(r.db.Pool.QueryRow(ctx, query,
		o.IdentityKey, o.FullName, o.RawName, o.FirstName, o.MiddleName, o.LastName,
		o.Suffix, o.OwnerType, o.MailingAddress, o.MailingUnit, o.MailingCity,
		o.MailingState, o.MailingZip, o.Phone,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert owner: %w", err)
	}

	// Another writer got there first.
	existing, err := r.FindByIdentityKey(ctx, o.IdentityKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("owner %q vanished after insert conflict", o.IdentityKey)
	}
	return existing, false, nil
}

func (r *ownerRepository) UpdateDetails(ctx context.Context, id int64, d models.OwnerDetails) error {
	query := `
		UPDATE owners SET
			full_name = $2, raw_name = $3, first_name = $4, middle_name = $5, last_name = $6,
			suffix = $7, owner_type = $8, mailing_address = $9, mailing_unit = $10,
			mailing_city = $11, mailing_state = $12, mailing_zip = $13, phone = $14,
			updated_at = now()
		WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id,
		d.FullName, d.RawName, d.FirstName, d.MiddleName, d.LastName, d.Suffix, d.OwnerType,
		d.MailingAddress, d.MailingUnit, d.MailingCity, d.MailingState, d.MailingZip, d.Phone,
	)
	if err != nil {
		return fmt.Errorf("failed to update owner %d: %w", id, err)
	}
	return nil
}
