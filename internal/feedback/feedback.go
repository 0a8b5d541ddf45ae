package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrIncompleteFeedback is returned when name, email or message is empty.
	ErrIncompleteFeedback = errors.New("please fill in all fields")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown feedback backend")
)

// Entry is one feedback submission.
type Entry struct {
	Name    string
	Email   string
	Message string
	Time    time.Time
}

// Validate trims the fields and requires all of them.
func (e *Entry) Validate() error {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(e.Email)
	e.Message = strings.TrimSpace(e.Message)
	if e.Name == "" || e.Email == "" || e.Message == "" {
		return ErrIncompleteFeedback
	}
	return nil
}

// Store persists feedback entries.
type Store interface {
	// Save validates and appends an entry.
	Save(ctx context.Context, e Entry) error
	// List returns all entries in submission order.
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Open returns the store for backend ("csv" or "sqlite") at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "csv":
		return NewCSVStore(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
