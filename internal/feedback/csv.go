package feedback

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// csvHeader is written once, when the log is created
var csvHeader = []string{"Name", "Email", "Feedback"}

// CSVStore appends entries to a CSV file.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore returns a store writing to path, creating its directory.
func NewCSVStore(path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}
	return &CSVStore{path: path}, nil
}

// Save appends e, writing the header first if the file is new or empty.
func (s *CSVStore) Save(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat feedback log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write([]string{e.Name, e.Email, e.Message}); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush feedback log: %w", err)
	}
	return f.Close()
}

// List reads every entry back. The CSV log carries no timestamps.
func (s *CSVStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	var entries []Entry
	for first := true; ; first = false {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read feedback log: %w", err)
		}
		if first {
			continue
		}
		entries = append(entries, Entry{Name: record[0], Email: record[1], Message: record[2]})
	}
	return entries, nil
}

// Close is a no-op; the file is opened per write.
func (s *CSVStore) Close() error {
	return nil
}
