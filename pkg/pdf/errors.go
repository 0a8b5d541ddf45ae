package pdf

import "errors"

var (
	// ErrOpen is returned when no backend can read the document
	ErrOpen = errors.New("cannot open PDF")
	// ErrNoText marks a page whose text could not be extracted
	ErrNoText = errors.New("no extractable text")
	// ErrPageOutOfRange is returned for page indices outside the document
	ErrPageOutOfRange = errors.New("page index out of range")
)
