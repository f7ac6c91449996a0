package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// ProducerRepository is the persistent ledger of scrape and import work units.
type ProducerRepository interface {
	// ClaimNext atomically marks the highest-priority unprocessed producer of
	// source as processed and returns it. It returns nil, nil when nothing is
	// left or every candidate is locked by a concurrent claim.
	ClaimNext(ctx context.Context, source string, order models.PriorityOrder) (*models.PublicRecordProducer, error)

	// MarkProcessed flips the producer's processed flag to true.
	MarkProcessed(ctx context.Context, id int64) error

	// ResetAll re-arms every producer of source and returns how many changed.
	ResetAll(ctx context.Context, source string) (int64, error)

	// ResetSubset marks every producer of source processed, then re-arms only
	// the listed counties of state. Both steps run in one transaction.
	ResetSubset(ctx context.Context, source, state string, counties []string) (int64, error)

	// Find returns the producer for source, state and county without claiming
	// it, or nil, nil when there is none.
	Find(ctx context.Context, source, state, county string) (*models.PublicRecordProducer, error)

	// Seed inserts the producer if absent and returns the stored row. A
	// non-nil priority is attached through the county priority table.
	Seed(ctx context.Context, producer models.PublicRecordProducer) (*models.PublicRecordProducer, error)
}

type producerRepository struct {
	db *database.Database
}

// NewProducerRepository creates a new instance of ProducerRepository.
func NewProducerRepository(db *database.Database) ProducerRepository {
	return &producerRepository{db: db}
}

const producerReturning = `p.id, p.source, p.state, p.county, p.city, p.processed,
	p.county_priority_id, p.offset_count, p.created_at, p.updated_at,
	(SELECT cp.priority FROM county_priorities cp WHERE cp.id = p.county_priority_id)`

func scanProducer(row pgx.Row) (*models.PublicRecordProducer, error) {
	var p models.PublicRecordProducer
	err := row.Scan(
		&p.ID, &p.Source, &p.State, &p.County, &p.City, &p.Processed,
		&p.CountyPriorityID, &p.Offset, &p.CreatedAt, &p.UpdatedAt, &p.Priority,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// claimQuery selects and flips one row in a single statement. SKIP LOCKED
// makes concurrent claimers pass over a row another transaction is taking.
const claimQuery = `
	UPDATE public_record_producers p
	SET processed = true, updated_at = now()
	WHERE p.id = (
		SELECT c.id
		FROM public_record_producers c
		LEFT JOIN county_priorities cp ON cp.id = c.county_priority_id
		WHERE c.source = $1 AND c.processed = false
		ORDER BY cp.priority %s NULLS LAST, c.id
		LIMIT 1
		FOR UPDATE OF c SKIP LOCKED
	)
	RETURNING ` + producerReturning

var (
	claimAscending  = fmt.Sprintf(claimQuery, "ASC")
	claimDescending = fmt.Sprintf(claimQuery, "DESC")
)

func (r *producerRepository) ClaimNext(ctx context.Context, source string, order models.PriorityOrder) (*models.PublicRecordProducer, error) {
	query := claimAscending
	if order == models.PriorityDescending {
		query = claimDescending
	}

	producer, err := scanProducer(r.db.Pool.QueryRow(ctx, query, source))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim producer for source %q: %w", source, err)
	}
	return producer, nil
}

func (r *producerRepository) MarkProcessed(ctx context.Context, id int64) error {
	query := `UPDATE public_record_producers SET processed = true, updated_at = now() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark producer %d processed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("producer %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *producerRepository) ResetAll(ctx context.Context, source string) (int64, error) {
	query := `
		UPDATE public_record_producers SET processed = false, updated_at = now()
		WHERE source = $1 AND processed = true`

	tag, err := r.db.Pool.Exec(ctx, query, source)
	if err != nil {
		return 0, fmt.Errorf("failed to reset producers for source %q: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

func (r *producerRepository) ResetSubset(ctx context.Context, source, state string, counties []string) (int64, error) {
	lowered := make([]string, len(counties))
	for i, c := range counties {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}

	var rearmed int64
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE public_record_producers SET processed = true, updated_at = now()
			WHERE source = $1 AND processed = false`, source)
		if err != nil {
			return fmt.Errorf("failed to close producers for source %q: %w", source, err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE public_record_producers SET processed = false, updated_at = now()
			WHERE source = $1 AND lower(state) = lower($2) AND lower(county) = ANY($3)`,
			source, state, lowered)
		if err != nil {
			return fmt.Errorf("failed to re-arm producers for source %q: %w", source, err)
		}
		rearmed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rearmed, nil
}

func (r *producerRepository) Find(ctx context.Context, source, state, county string) (*models.PublicRecordProducer, error) {
	query := `SELECT ` + producerReturning + `
		FROM public_record_producers p
		WHERE p.source = $1 AND lower(p.state) = lower($2) AND lower(p.county) = lower($3)
		ORDER BY p.id
		LIMIT 1`

	producer, err := scanProducer(r.db.Pool.QueryRow(ctx, query, source, state, county))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find producer %s/%s/%s: %w", source, state, county, err)
	}
	return producer, nil
}

func (r *producerRepository) Seed(ctx context.Context, p models.PublicRecordProducer) (*models.PublicRecordProducer, error) {
	var seeded *models.PublicRecordProducer
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var priorityID *int64
		if p.Priority != nil {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO county_priorities (state, county, priority) VALUES ($1, $2, $3)
				ON CONFLICT (state, county) DO UPDATE SET priority = EXCLUDED.priority
				RETURNING id`, p.State, p.County, *p.Priority).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to upsert county priority: %w", err)
			}
			priorityID = &id
		}

		var err error
		seeded, err = scanProducer(tx.QueryRow(ctx, `
			INSERT INTO public_record_producers AS p (source, state, county, city, processed, county_priority_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (source, state, county, city) DO UPDATE
				SET county_priority_id = COALESCE(EXCLUDED.county_priority_id, p.county_priority_id)
			RETURNING `+producerReturning,
			p.Source, p.State, p.County, p.City, p.Processed, priorityID))
		if err != nil {
			return fmt.Errorf("failed to seed producer %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeded, nil
}
