package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Opener opens a document held in memory
type Opener func(data []byte) (Document, error)

// OpenBytes opens an in-memory PDF. The ledongthuc backend is tried first as
// it has the most accurate glyph positions; dslipak is the fallback.
func OpenBytes(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrOpen)
	}

	size := int64(len(data))
	doc, lerr := OpenWithLedongthuc(bytes.NewReader(data), size)
	if lerr == nil {
		return doc, nil
	}

	doc, derr := OpenWithDslipak(bytes.NewReader(data), size)
	if derr == nil {
		return doc, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrOpen, errors.Join(lerr, derr))
}

// Open opens a PDF file and returns a Document
func Open(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return OpenBytes(data)
}
