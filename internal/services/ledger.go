package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/models"
	"github.com/stwalsh4118/publicrecords/internal/repository"
)

var (
	// ErrSourceRequired is returned when a ledger call names no source.
	ErrSourceRequired = errors.New("source is required")

	// ErrProducerNotFound is returned when a targeted producer does not exist.
	ErrProducerNotFound = errors.New("producer not found")
)

// Ledger hands out units of ingestion work and re-arms them.
type Ledger interface {
	// ClaimNext claims the next unit by county priority. It returns nil, nil
	// when there is nothing left to claim.
	ClaimNext(ctx context.Context, source string, order models.PriorityOrder) (*models.PublicRecordProducer, error)

	// Acquire returns the producer for state and county when both are given,
	// without claiming it. Otherwise it behaves like ClaimNext.
	Acquire(ctx context.Context, source, state, county string, order models.PriorityOrder) (*models.PublicRecordProducer, error)

	MarkProcessed(ctx context.Context, id int64) error
	ResetAll(ctx context.Context, source string) (int64, error)
	ResetSubset(ctx context.Context, source, state string, counties []string) (int64, error)
	Seed(ctx context.Context, producer models.PublicRecordProducer) (*models.PublicRecordProducer, error)
}

type ledger struct {
	repo repository.ProducerRepository
	log  *logger.Logger
}

// NewLedger creates a new instance of Ledger.
func NewLedger(repo repository.ProducerRepository, log *logger.Logger) Ledger {
	return &ledger{repo: repo, log: log.WithComponent("ledger")}
}

func (l *ledger) ClaimNext(ctx context.Context, source string, order models.PriorityOrder) (*models.PublicRecordProducer, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrSourceRequired
	}

	producer, err := l.repo.ClaimNext(ctx, source, order)
	if err != nil {
		l.log.Error("Failed to claim producer", err, logger.Fields{"source": source})
		return nil, err
	}
	if producer == nil {
		l.log.Info("No producer left to claim", logger.Fields{"source": source, "order": order})
		return nil, nil
	}

	l.log.Info("Producer claimed", logger.Fields{
		"producer": producer.String(),
		"id":       producer.ID,
		"priority": producer.Priority,
	})
	return producer, nil
}

func (l *ledger) Acquire(ctx context.Context, source, state, county string, order models.PriorityOrder) (*models.PublicRecordProducer, error) {
	if state == "" || county == "" {
		return l.ClaimNext(ctx, source, order)
	}
	if strings.TrimSpace(source) == "" {
		return nil, ErrSourceRequired
	}

	producer, err := l.repo.Find(ctx, source, strings.ToUpper(state), county)
	if err != nil {
		return nil, err
	}
	if producer == nil {
		l.log.Warn("Targeted producer not found", logger.Fields{
			"source": source,
			"state":  state,
			"county": county,
		})
		return nil, fmt.Errorf("%w: %s %s/%s", ErrProducerNotFound, source, state, county)
	}
	return producer, nil
}

func (l *ledger) MarkProcessed(ctx context.Context, id int64) error {
	if err := l.repo.MarkProcessed(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrProducerNotFound, id)
		}
		return err
	}
	l.log.Debug("Producer marked processed", logger.Fields{"id": id})
	return nil
}

func (l *ledger) ResetAll(ctx context.Context, source string) (int64, error) {
	if strings.TrimSpace(source) == "" {
		return 0, ErrSourceRequired
	}

	n, err := l.repo.ResetAll(ctx, source)
	if err != nil {
		return 0, err
	}
	l.log.Info("Producers re-armed", logger.Fields{"source": source, "count": n})
	return n, nil
}

func (l *ledger) ResetSubset(ctx context.Context, source, state string, counties []string) (int64, error) {
	if strings.TrimSpace(source) == "" {
		return 0, ErrSourceRequired
	}
	if state == "" || len(counties) == 0 {
		return 0, errors.New("state and at least one county are required")
	}

	n, err := l.repo.ResetSubset(ctx, source, state, counties)
	if err != nil {
		return 0, err
	}
	if n < int64(len(counties)) {
		l.log.Warn("Some counties had no producer to re-arm", logger.Fields{
			"source":   source,
			"state":    state,
			"counties": counties,
			"rearmed":  n,
		})
	}
	l.log.Info("Producer subset re-armed", logger.Fields{"source": source, "state": state, "count": n})
	return n, nil
}

func (l *ledger) Seed(ctx context.Context, p models.PublicRecordProducer) (*models.PublicRecordProducer, error) {
	if strings.TrimSpace(p.Source) == "" {
		return nil, ErrSourceRequired
	}
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.County = strings.ToLower(strings.TrimSpace(p.County))
	return l.repo.Seed(ctx, p)
}
