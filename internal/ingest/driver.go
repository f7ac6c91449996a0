package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/stwalsh4118/publicrecords/internal/config"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/models"
	"github.com/stwalsh4118/publicrecords/internal/services"
)

// Report counts the outcomes of one ingestion job.
type Report struct {
	Skipped    map[services.SkipReason]int `json:"skipped"`
	Producer   string                      `json:"producer,omitempty"`
	Duration   time.Duration               `json:"duration"`
	Candidates int                         `json:"candidates"`
	Created    int                         `json:"created"`
	Merged     int                         `json:"merged"`
	Failed     int                         `json:"failed"`
}

func newReport(producer string) *Report {
	return &Report{Producer: producer, Skipped: map[services.SkipReason]int{}}
}

// SkippedTotal sums the skipped candidates over every reason.
func (r *Report) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

func (r *Report) add(res *services.UpsertResult) {
	switch res.Status {
	case services.StatusCreated:
		r.Created++
	case services.StatusMerged:
		r.Merged++
	case services.StatusSkipped:
		r.Skipped[res.Reason]++
	}
}

// Notifier reports failed jobs to operators.
type Notifier interface {
	JobFailed(ctx context.Context, report *Report, err error)
}

// LogNotifier writes job failures to the log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a Notifier that logs at error level.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("notifier")}
}

// JobFailed logs the failure with the partial report.
func (n *LogNotifier) JobFailed(_ context.Context, report *Report, err error) {
	n.log.Error("Ingestion job failed", err, logger.Fields{
		"producer":   report.Producer,
		"candidates": report.Candidates,
		"created":    report.Created,
		"merged":     report.Merged,
		"skipped":    report.SkippedTotal(),
		"failed":     report.Failed,
	})
}

// Driver runs ingestion jobs: it loads a producer's candidates from a
// Source, upserts them one at a time and marks the producer processed.
type Driver struct {
	engine   services.UpsertEngine
	ledger   services.Ledger
	source   Source
	notifier Notifier
	cfg      config.IngestConfig
	log      *logger.Logger
}

// NewDriver creates a Driver. A nil notifier logs failures.
func NewDriver(
	engine services.UpsertEngine,
	ledger services.Ledger,
	source Source,
	notifier Notifier,
	cfg config.IngestConfig,
	log *logger.Logger,
) *Driver {
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}
	return &Driver{
		engine:   engine,
		ledger:   ledger,
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		log:      log.WithComponent("ingest"),
	}
}

// Run ingests every candidate of producer within the configured timeout.
// When an upsert still fails after its retries the job stops, the failure is
// sent to the Notifier, the producer is left as it is and the error is
// returned together with the partial report.
func (d *Driver) Run(ctx context.Context, producer models.PublicRecordProducer) (*Report, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	d.log.Info("Ingestion job started", logger.Fields{"producer": producer.String(), "source": d.source.Name()})

	candidates, err := d.source.Candidates(ctx, producer)
	if err != nil {
		report := newReport(producer.String())
		err = fmt.Errorf("failed to load candidates for %s: %w", producer, err)
		d.notifier.JobFailed(ctx, report, err)
		return report, err
	}

	report, err := d.process(ctx, producer.String(), candidates)
	if err != nil {
		d.notifier.JobFailed(ctx, report, err)
		return report, err
	}

	if producer.ID != 0 {
		if err := d.ledger.MarkProcessed(ctx, producer.ID); err != nil {
			err = fmt.Errorf("failed to mark %s processed: %w", producer, err)
			d.notifier.JobFailed(ctx, report, err)
			return report, err
		}
	}
	return report, nil
}

// Process upserts candidates outside of any ledger job, as the import
// endpoint does. Failures are returned but not sent to the Notifier.
func (d *Driver) Process(ctx context.Context, label string, candidates []models.Candidate) (*Report, error) {
	return d.process(ctx, label, candidates)
}

func (d *Driver) process(ctx context.Context, label string, candidates []models.Candidate) (*Report, error) {
	start := time.Now()
	report := newReport(label)
	report.Candidates = len(candidates)
	defer func() { report.Duration = time.Since(start) }()

	for i, c := range candidates {
		res, err := d.upsert(ctx, c)
		if err != nil {
			report.Failed++
			return report, fmt.Errorf("candidate %d of %d: %w", i+1, len(candidates), err)
		}
		report.add(res)
	}

	d.log.Info("Ingestion finished", logger.Fields{
		"producer":   label,
		"candidates": report.Candidates,
		"created":    report.Created,
		"merged":     report.Merged,
		"skipped":    report.SkippedTotal(),
		"duration":   time.Since(start).String(),
	})
	return report, nil
}

func (d *Driver) upsert(ctx context.Context, c models.Candidate) (*services.UpsertResult, error) {
	var res *services.UpsertResult
	op := func() error {
		var err error
		res, err = d.engine.Upsert(ctx, c)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		d.log.Warn("Retrying upsert", logger.Fields{
			"error":   err.Error(),
			"wait":    wait.String(),
			"product": c.ProductName,
		})
	}

	if err := backoff.RetryNotify(op, d.policy(ctx), notify); err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Driver) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if d.cfg.InitialBackoff > 0 {
		b.InitialInterval = d.cfg.InitialBackoff
	}
	b.MaxElapsedTime = 0

	retries := d.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}
