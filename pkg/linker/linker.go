// Package linker turns a textbook PDF into one where every numbered problem
// links to its solution and back.
package linker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pyhub-apps/pdflinker/pkg/annotate"
	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

var (
	// ErrNoProblemsFound is returned when no problem could be paired with a solution
	// or no pair could carry a link
	ErrNoProblemsFound = errors.New("no problems found")
	// ErrPageCountMismatch is returned when the text view and the output disagree on page count
	ErrPageCountMismatch = errors.New("page count mismatch")
)

// Result describes one run
type Result struct {
	RunID      string
	Backend    string
	Pages      int
	Records    int
	Resolved   int
	LinksAdded int
	Skipped    int
	Orphans    int
	Mapping    extract.Mapping
	Stats      extract.Stats
}

// Linker links problems to solutions. A Linker holds no per-run state and
// may be used for several runs at once unless a progress callback is set.
type Linker struct {
	scan          extract.Options
	bidirectional bool
	progress      extract.ProgressFunc
	open          pdf.Opener
	conf          *model.Configuration
	logger        *slog.Logger
}

// Option configures a Linker
type Option func(*Linker)

// WithPatterns replaces the enabled marker patterns
func WithPatterns(patterns ...extract.Pattern) Option {
	return func(l *Linker) {
		l.scan.Patterns = patterns
	}
}

// WithBoundary sets where the solutions section begins
func WithBoundary(b extract.Boundary) Option {
	return func(l *Linker) {
		l.scan.Boundary = b
	}
}

// WithPadding sets the margin around marker rectangles
func WithPadding(padding float64) Option {
	return func(l *Linker) {
		l.scan.Padding = padding
	}
}

// WithTextOptions passes extraction tolerances to the text backend
func WithTextOptions(opts ...pdf.TextExtractionOption) Option {
	return func(l *Linker) {
		l.scan.TextOptions = opts
	}
}

// WithBidirectional controls whether solutions link back to their problems
func WithBidirectional(on bool) Option {
	return func(l *Linker) {
		l.bidirectional = on
	}
}

// WithProgress sets a callback receiving completion percentages
func WithProgress(fn func(percent int)) Option {
	return func(l *Linker) {
		l.progress = fn
	}
}

// WithOpener replaces the function opening the text view of the input
func WithOpener(open pdf.Opener) Option {
	return func(l *Linker) {
		l.open = open
	}
}

// WithConfiguration sets the pdfcpu configuration used for the output
func WithConfiguration(conf *model.Configuration) Option {
	return func(l *Linker) {
		l.conf = conf
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		l.logger = logger
	}
}

// New creates a Linker with the built-in patterns, bidirectional links and
// no solutions boundary.
func New(opts ...Option) *Linker {
	l := &Linker{
		scan:          extract.DefaultOptions(),
		bidirectional: true,
		open:          pdf.OpenBytes,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Linker) report(percent int) {
	if l.progress != nil {
		l.progress(percent)
	}
}

// Link reads the PDF in input, adds the links and writes the new document
// to w. Nothing is written when no problem could be paired.
func (l *Linker) Link(ctx context.Context, input []byte, w io.Writer) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	logger := l.logger.With("run", result.RunID)

	l.report(0)

	doc, err := l.open(input)
	if err != nil {
		return result, err
	}
	defer doc.Close()
	result.Backend = doc.Backend()

	out, err := annotate.Open(bytes.NewReader(input), l.conf)
	if err != nil {
		return result, fmt.Errorf("%w: %w", pdf.ErrOpen, err)
	}

	result.Pages = doc.PageCount()
	if doc.PageCount() != out.PageCount() {
		return result, fmt.Errorf("%w: text view has %d pages, output has %d",
			ErrPageCountMismatch, doc.PageCount(), out.PageCount())
	}

	logger.Debug("scanning document", "pages", result.Pages, "backend", result.Backend)

	scan := l.scan
	scan.Logger = logger
	mapping, stats, err := extract.ScanContext(ctx, doc, scan, l.progress)
	result.Mapping = mapping
	result.Stats = stats
	result.Records = len(mapping)
	result.Orphans = stats.Orphans
	if err != nil {
		return result, err
	}

	resolved := mapping.Resolved()
	result.Resolved = len(resolved)
	if len(resolved) == 0 {
		logger.Info("no problems found", "records", result.Records, "pages", result.Pages)
		return result, ErrNoProblemsFound
	}

	for i, record := range resolved {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := l.addLink(out, result, record.Problem, record.Solution); err != nil {
			return result, fmt.Errorf("record %s: %w", record.Key, err)
		}
		if l.bidirectional {
			if err := l.addLink(out, result, record.Solution, record.Problem); err != nil {
				return result, fmt.Errorf("record %s: %w", record.Key, err)
			}
		}

		l.report(extract.ScanShare + (i+1)*(100-extract.ScanShare)/len(resolved))
	}

	if result.LinksAdded == 0 {
		logger.Info("no linkable problems found", "resolved", result.Resolved, "skipped", result.Skipped)
		return result, ErrNoProblemsFound
	}

	if err := out.Write(w); err != nil {
		return result, err
	}

	logger.Info("linked document",
		"pages", result.Pages,
		"resolved", result.Resolved,
		"links", result.LinksAdded,
		"skipped", result.Skipped,
	)
	l.report(100)
	return result, nil
}

// addLink links from to to. The source rectangle is clamped to the output
// page, which may be smaller than the page the text view reported.
func (l *Linker) addLink(out *annotate.Output, result *Result, from, to *extract.Location) error {
	box, err := out.MediaBox(from.Page)
	if err != nil {
		return err
	}

	err = out.AddLink(from.Page, from.Rect.Clamp(box), to.Page, to.Rect)
	switch {
	case errors.Is(err, annotate.ErrNotLinkable):
		result.Skipped++
		return nil
	case err != nil:
		return err
	}
	result.LinksAdded++
	return nil
}
