package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/killallgit/songscraper/internal/models"
)

// FailureLog is the JSON retry queue of records that could not be persisted.
// Appends merge with what is already on disk.
type FailureLog struct {
	path string
	mu   sync.Mutex
}

// NewFailureLog creates a failure log stored at path
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Path returns the file backing the log
func (l *FailureLog) Path() string {
	return l.path
}

// Append reads the existing entries and writes them back followed by records
func (l *FailureLog) Append(records []models.ExtractionRecord) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := ReadRecords(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		// Never overwrite a log we could not parse
		return fmt.Errorf("reading failure log: %w", err)
	}

	merged := make([]models.ExtractionRecord, 0, len(existing)+len(records))
	merged = append(merged, existing...)
	merged = append(merged, records...)

	if err := WriteRecords(l.path, merged); err != nil {
		return fmt.Errorf("writing failure log: %w", err)
	}
	return nil
}

// ReadRecords loads a JSON array of extraction records
func ReadRecords(path string) ([]models.ExtractionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []models.ExtractionRecord
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}

// WriteRecords replaces the file at path with records as a JSON array.
// The file is written to a sibling temp file first and renamed into place.
func WriteRecords(path string, records []models.ExtractionRecord) error {
	if records == nil {
		records = []models.ExtractionRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
