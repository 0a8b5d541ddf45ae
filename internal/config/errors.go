package config

import "errors"

// Configuration errors returned by Load and Config.Validate.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidPadding is returned when the marker padding is negative.
	ErrInvalidPadding = errors.New("invalid padding: must be non-negative")

	// ErrInvalidTolerance is returned when a text tolerance is negative.
	ErrInvalidTolerance = errors.New("invalid text tolerance: must be non-negative")

	// ErrNoPatterns is returned when no marker pattern is enabled.
	ErrNoPatterns = errors.New("no patterns enabled")

	// ErrInvalidBoundary is returned for a negative page or restart threshold.
	ErrInvalidBoundary = errors.New("invalid solutions boundary: values must be non-negative")

	// ErrInvalidFeedbackBackend is returned for a backend other than csv or sqlite.
	ErrInvalidFeedbackBackend = errors.New("invalid feedback backend: must be csv or sqlite")

	// ErrInvalidUploadLimit is returned when the upload limit is not positive.
	ErrInvalidUploadLimit = errors.New("invalid upload limit: must be positive")

	// ErrInvalidConnectionLimit is returned when the connection limit is negative.
	ErrInvalidConnectionLimit = errors.New("invalid connection limit: must be non-negative")
)
