// Package extract locates numbered problem and solution markers in a
// document and pairs them by number.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// DefaultPadding is the margin in points added around a marker rectangle
const DefaultPadding = 4.0

// ScanShare is the part of overall progress reported while scanning
const ScanShare = 50

// Boundary decides where the solutions section of a document begins.
// Until it begins, markers matched by problem patterns open problems;
// afterwards they open solutions.
type Boundary struct {
	// FromPage is the 1-based page on which the section starts; 0 disables it.
	FromPage int
	// Heading starts the section at the first line it matches.
	Heading *regexp.Regexp
	// RestartAfter starts the section when numbering falls back to 1 after
	// a problem numbered above it; 0 disables it.
	RestartAfter int
}

// Options configures a scan
type Options struct {
	Patterns    []Pattern
	Boundary    Boundary
	Padding     float64
	TextOptions []pdf.TextExtractionOption
	Logger      *slog.Logger
}

// DefaultOptions returns the built-in patterns with the default padding
func DefaultOptions() Options {
	return Options{
		Patterns: BuiltinPatterns(),
		Padding:  DefaultPadding,
	}
}

// ProgressFunc receives a completion percentage
type ProgressFunc func(percent int)

// Stats summarizes a scan
type Stats struct {
	Pages         int
	TextlessPages int
	Lines         int
	Problems      int
	Solutions     int
	Duplicates    int
	Orphans       int
	// SectionPage is the zero-based page where the solutions section began, or -1.
	SectionPage int
}

// Scan walks every page of doc once and builds the problem/solution mapping.
func Scan(doc pdf.Document, opts Options, progress ProgressFunc) (Mapping, Stats) {
	mapping, stats, _ := ScanContext(context.Background(), doc, opts, progress)
	return mapping, stats
}

// ScanContext is Scan with cancellation checked between pages. On
// cancellation the partial mapping is returned with ctx's error.
func ScanContext(ctx context.Context, doc pdf.Document, opts Options, progress ProgressFunc) (Mapping, Stats, error) {
	s := newScanner(opts)
	pages := doc.GetPages()
	s.stats.Pages = len(pages)

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return s.mapping, s.stats, err
		}

		s.scanPage(i, page)

		if progress != nil {
			progress((i + 1) * ScanShare / len(pages))
		}
	}

	return s.mapping, s.stats, nil
}

type scanner struct {
	opts          Options
	logger        *slog.Logger
	mapping       Mapping
	stats         Stats
	inSolutions   bool
	maxProblemKey int
}

func newScanner(opts Options) *scanner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &scanner{
		opts:    opts,
		logger:  logger,
		mapping: make(Mapping),
		stats:   Stats{SectionPage: -1},
	}
}

func (s *scanner) beginSolutions(index int, reason string) {
	if s.inSolutions {
		return
	}
	s.inSolutions = true
	s.stats.SectionPage = index
	s.logger.Debug("solutions section begins", "page", index+1, "reason", reason)
}

func (s *scanner) scanPage(index int, page pdf.Page) {
	if err := page.TextErr(); err != nil {
		s.stats.TextlessPages++
		s.logger.Debug("skipping page without text", "page", index+1, "error", err)
		return
	}

	if b := s.opts.Boundary; b.FromPage > 0 && index+1 >= b.FromPage {
		s.beginSolutions(index, "page")
	}

	for _, line := range page.ExtractLines(s.opts.TextOptions...) {
		text := strings.TrimSpace(norm.NFKC.String(line.Text))
		if text == "" {
			continue
		}
		s.stats.Lines++

		if h := s.opts.Boundary.Heading; h != nil && h.MatchString(text) {
			s.beginSolutions(index, "heading")
		}

		s.scanLine(index, page, line, text)
	}
}

// classify reports which side the line's marker belongs to
func (s *scanner) classify(text string) (Side, bool) {
	problem := false
	for _, p := range s.opts.Patterns {
		if !p.Regexp.MatchString(text) {
			continue
		}
		if p.Side == SolutionSide {
			return SolutionSide, true
		}
		problem = true
	}
	if problem && s.inSolutions {
		return SolutionSide, true
	}
	return ProblemSide, problem
}

func (s *scanner) scanLine(index int, page pdf.Page, line pdf.Line, text string) {
	side, ok := s.classify(text)
	if !ok {
		return
	}
	raw, key, ok := markerKey(text)
	if !ok {
		return
	}

	if side == ProblemSide && s.opts.Boundary.RestartAfter > 0 &&
		key == "1" && s.maxProblemKey > s.opts.Boundary.RestartAfter {
		s.beginSolutions(index, "restart")
		side = SolutionSide
	}

	loc := &Location{Page: index, Rect: s.markerRect(page, line, raw)}

	switch side {
	case ProblemSide:
		s.stats.Problems++
		if _, exists := s.mapping[key]; exists {
			s.stats.Duplicates++
			s.logger.Debug("duplicate problem ignored", "key", key, "page", index+1)
			return
		}
		s.mapping[key] = &Record{Key: key, Problem: loc}
		if n := keyValue(key); n > s.maxProblemKey {
			s.maxProblemKey = n
		}

	case SolutionSide:
		s.stats.Solutions++
		record, exists := s.mapping[key]
		if !exists {
			s.stats.Orphans++
			s.logger.Debug("solution without problem dropped", "key", key, "page", index+1)
			return
		}
		if record.Solution != nil {
			s.stats.Duplicates++
			return
		}
		record.Solution = loc
	}
}

// markerRect spans the words of line from the first one up to the word
// holding the marker number, in PDF user space.
func (s *scanner) markerRect(page pdf.Page, line pdf.Line, raw string) pdf.Rect {
	if len(line.Words) == 0 {
		return pdf.Rect{}
	}

	box := line.Words[0].GetBBox()
	found := false
	for _, word := range line.Words {
		box = box.Union(word.GetBBox())
		if strings.Contains(norm.NFKC.String(word.Text), raw) {
			found = true
			break
		}
	}
	if !found {
		return pdf.Rect{}
	}

	media := page.GetMediaBox()
	rect := pdf.NewRect(box.X0, media.Y1-box.Y1, box.X1, media.Y1-box.Y0)
	return rect.Pad(s.opts.Padding).Clamp(media)
}

// keyValue converts a normalized key, saturating on overflow
func keyValue(key string) int {
	n := 0
	for _, c := range key {
		if n > (1<<31)/10 {
			return 1 << 31
		}
		n = n*10 + int(c-'0')
	}
	return n
}
