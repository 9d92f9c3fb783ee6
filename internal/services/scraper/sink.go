package scraper

import (
	"context"
	"sync"

	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/internal/services/ingest"
)

// Sink consumes each batch of records the pipeline emits
type Sink interface {
	Consume(ctx context.Context, records []models.ExtractionRecord) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, records []models.ExtractionRecord) error

func (f SinkFunc) Consume(ctx context.Context, records []models.ExtractionRecord) error {
	return f(ctx, records)
}

// IngestSink hands every batch straight to a reconciler
func IngestSink(r *ingest.Reconciler) Sink {
	return SinkFunc(func(ctx context.Context, records []models.ExtractionRecord) error {
		_, err := r.Ingest(ctx, records)
		return err
	})
}

// FileSink collects the run's records into the metadata file, rewriting it
// after every batch so an interrupted run keeps what it scraped.
type FileSink struct {
	path    string
	mu      sync.Mutex
	records []models.ExtractionRecord
}

// NewFileSink creates a sink writing to path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Consume(_ context.Context, records []models.ExtractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return ingest.WriteRecords(s.path, s.records)
}

// Records returns everything consumed so far
func (s *FileSink) Records() []models.ExtractionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ExtractionRecord(nil), s.records...)
}
