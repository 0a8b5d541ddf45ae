package annotate

import "errors"

var (
	// ErrNotLinkable is returned for a link whose source rectangle is empty
	ErrNotLinkable = errors.New("source rectangle is empty")
	// ErrPageOutOfRange is returned for page indices outside the document
	ErrPageOutOfRange = errors.New("page index out of range")
)
