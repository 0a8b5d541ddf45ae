package extract

import "errors"

var (
	// ErrUnknownPattern is returned when a pattern name is not registered
	ErrUnknownPattern = errors.New("unknown pattern")
	// ErrInvalidSide is returned for a side other than "problem" or "solution"
	ErrInvalidSide = errors.New("invalid pattern side")
	// ErrInvalidPattern is returned when a regular expression does not compile
	ErrInvalidPattern = errors.New("invalid pattern expression")
)
