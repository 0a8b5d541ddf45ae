// Package pdflinker adds clickable links between the problems of a textbook
// PDF and their solutions.
package pdflinker

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// Re-export types for the public API
type (
	Document             = pdf.Document
	Page                 = pdf.Page
	Word                 = pdf.Word
	Line                 = pdf.Line
	CharObject           = pdf.CharObject
	Rect                 = pdf.Rect
	TextExtractionOption = pdf.TextExtractionOption

	Pattern  = extract.Pattern
	Boundary = extract.Boundary
	Mapping  = extract.Mapping
	Record   = extract.Record

	Result = linker.Result
	Option = linker.Option
)

// Re-export option functions
var (
	WithXTolerance = pdf.WithXTolerance
	WithYTolerance = pdf.WithYTolerance

	WithPatterns      = linker.WithPatterns
	WithBoundary      = linker.WithBoundary
	WithPadding       = linker.WithPadding
	WithBidirectional = linker.WithBidirectional
	WithProgress      = linker.WithProgress
	WithLogger        = linker.WithLogger
)

// Re-export errors
var (
	ErrOpen            = pdf.ErrOpen
	ErrNoProblemsFound = linker.ErrNoProblemsFound
)

// Open opens a PDF file for text extraction
func Open(path string) (Document, error) {
	return pdf.Open(path)
}

// Link adds problem and solution links to input and writes the result to
// output. Nothing is written when no problem could be paired.
func Link(ctx context.Context, input []byte, opts ...Option) ([]byte, *Result, error) {
	var out bytes.Buffer
	result, err := linker.New(opts...).Link(ctx, input, &out)
	if err != nil {
		return nil, result, err
	}
	return out.Bytes(), result, nil
}

// LinkFile reads the PDF at inputPath and writes the linked copy to outputPath.
func LinkFile(ctx context.Context, inputPath, outputPath string, opts ...Option) (*Result, error) {
	input, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data, result, err := Link(ctx, input, opts...)
	if err != nil {
		return result, err
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return result, fmt.Errorf("failed to write file: %w", err)
	}
	return result, nil
}
