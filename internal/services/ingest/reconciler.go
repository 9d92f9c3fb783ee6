package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/internal/services/catalog"
	"golang.org/x/sync/errgroup"
)

// ErrMissingTitle rejects records that cannot form a song row
var ErrMissingTitle = errors.New("record has no title")

// Failure is a record that could not be persisted and why
type Failure struct {
	Record models.ExtractionRecord
	Err    error
}

// Report summarises one ingestion run
type Report struct {
	Inserted int
	Skipped  int
	Failures []Failure
}

// Records returns the failed records in input order
func (r *Report) Records() []models.ExtractionRecord {
	records := make([]models.ExtractionRecord, 0, len(r.Failures))
	for _, f := range r.Failures {
		records = append(records, f.Record)
	}
	return records
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithConcurrency bounds how many records are persisted at once
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithFailureLog makes every run merge its failures into log
func WithFailureLog(log *FailureLog) Option {
	return func(r *Reconciler) {
		r.failures = log
	}
}

// WithLogger sets the logger, defaulting to slog.Default
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reconciler persists extraction records against the catalog
type Reconciler struct {
	store       catalog.Store
	concurrency int
	failures    *FailureLog
	logger      *slog.Logger
	locks       *keyLock
}

// NewReconciler creates a reconciler writing to store
func NewReconciler(store catalog.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       store,
		concurrency: 10,
		logger:      slog.Default(),
		locks:       newKeyLock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeInserted
	outcomeSkipped
)

// Ingest persists records. A failing record never stops its siblings; it is
// reported in the Report and merged into the failure log when one is set.
// The returned error is only set for cancellation or a failure log write error.
func (r *Reconciler) Ingest(ctx context.Context, records []models.ExtractionRecord) (*Report, error) {
	outcomes := make([]outcome, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i], errs[i] = r.reconcile(gctx, records[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{}
	for i, rec := range records {
		switch {
		case errs[i] != nil:
			report.Failures = append(report.Failures, Failure{Record: rec, Err: errs[i]})
		case outcomes[i] == outcomeInserted:
			report.Inserted++
		case outcomes[i] == outcomeSkipped:
			report.Skipped++
		}
	}

	r.logger.Info("ingest finished",
		"records", len(records),
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"failed", len(report.Failures))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if r.failures != nil && len(report.Failures) > 0 {
		if err := r.failures.Append(report.Records()); err != nil {
			return report, err
		}
		r.logger.Warn("failed records queued for retry", "count", len(report.Failures), "path", r.failures.Path())
	}
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context, rec models.ExtractionRecord) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcomeFailed, err
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		r.logger.Error("record rejected", "error", ErrMissingTitle)
		return outcomeFailed, ErrMissingTitle
	}
	rec.Title = title
	owner := rec.Owner()

	unlock := r.locks.Lock(title + "\x00" + owner)
	defer unlock()

	exists, err := r.store.SongExists(ctx, title, owner)
	if err != nil {
		r.logger.Error("dedup check failed", "title", title, "owner", owner, "error", err)
		return outcomeFailed, err
	}
	if exists {
		r.logger.Info("song already stored, skipping", "title", title, "owner", owner)
		return outcomeSkipped, nil
	}

	err = r.store.Transaction(ctx, func(tx catalog.Store) error {
		songID, err := tx.InsertSong(ctx, rec.ToSong())
		if err != nil {
			return err
		}
		return linkTerms(ctx, tx, songID, rec)
	})
	switch {
	case errors.Is(err, catalog.ErrDuplicateSong):
		r.logger.Info("song stored concurrently, skipping", "title", title, "owner", owner)
		return outcomeSkipped, nil
	case err != nil:
		r.logger.Error("failed to persist song", "title", title, "owner", owner, "error", err)
		return outcomeFailed, err
	}

	r.logger.Debug("song stored", "title", title, "owner", owner)
	return outcomeInserted, nil
}

// linkTerms upserts and links every term of rec. Each name is attempted even
// when a sibling fails; the failures are joined.
func linkTerms(ctx context.Context, store catalog.Store, songID uint, rec models.ExtractionRecord) error {
	var errs []error
	for _, ns := range catalog.Namespaces {
		for _, name := range models.CleanTerms(ns.Terms(rec)) {
			termID, err := store.UpsertTerm(ctx, ns, name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := store.LinkSongTerm(ctx, ns, songID, termID); err != nil {
				errs = append(errs, fmt.Errorf("linking %s %q: %w", ns, name, err))
			}
		}
	}
	return errors.Join(errs...)
}
