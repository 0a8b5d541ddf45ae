package extract_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
	"github.com/pyhub-apps/pdflinker/pkg/pdf/pdftest"
)

func open(t *testing.T, b *pdftest.Builder) pdf.Document {
	t.Helper()
	doc, err := pdf.OpenBytes(b.Bytes())
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func TestScanPairsProblemsWithSolutions(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().
		AddTextPage("1. What is 2+2?", "Some text", "2. What is 3+3?").
		AddTextPage("Solutions").
		AddTextPage("1. Answer: 4", "2. Answer: 6"))

	opts := extract.DefaultOptions()
	opts.Boundary.Heading = regexp.MustCompile(`^Solutions$`)

	mapping, stats := extract.Scan(doc, opts, nil)

	resolved := mapping.Resolved()
	if len(resolved) != 2 {
		t.Fatalf("Resolved() = %d records, want 2", len(resolved))
	}
	for _, r := range resolved {
		if r.Problem.Page != 0 || r.Solution.Page != 2 {
			t.Errorf("record %s: problem page %d, solution page %d", r.Key, r.Problem.Page, r.Solution.Page)
		}
		if !r.Problem.Linkable() || !r.Solution.Linkable() {
			t.Errorf("record %s is not linkable: %+v", r.Key, r)
		}
	}
	if resolved[0].Key != "1" || resolved[1].Key != "2" {
		t.Errorf("keys = %s, %s; want 1, 2", resolved[0].Key, resolved[1].Key)
	}
	if stats.SectionPage != 1 {
		t.Errorf("SectionPage = %d, want 1", stats.SectionPage)
	}
	if stats.Problems != 2 || stats.Solutions != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestScanSectionFromPage(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().
		AddTextPage("1. What is 2+2?").
		AddTextPage("1. Answer: 4"))

	opts := extract.DefaultOptions()
	opts.Boundary.FromPage = 2

	mapping, _ := extract.Scan(doc, opts, nil)
	record := mapping["1"]
	if record == nil || !record.Resolved() {
		t.Fatalf(`mapping["1"] = %+v, want resolved`, record)
	}
	if record.Problem.Page >= record.Solution.Page {
		t.Errorf("problem page %d not before solution page %d", record.Problem.Page, record.Solution.Page)
	}
}

func TestScanWithoutBoundaryKeepsFirstProblem(t *testing.T) {
	t.Parallel()

	// With no section boundary a repeated number is a duplicate problem
	doc := open(t, pdftest.New().
		AddTextPage("1. First statement").
		AddTextPage("1. Second statement"))

	mapping, stats := extract.Scan(doc, extract.DefaultOptions(), nil)
	if len(mapping) != 1 {
		t.Fatalf("len(mapping) = %d, want 1", len(mapping))
	}
	if got := mapping["1"].Problem.Page; got != 0 {
		t.Errorf("problem page = %d, want 0 (first occurrence)", got)
	}
	if mapping["1"].Solution != nil {
		t.Errorf("solution = %+v, want nil", mapping["1"].Solution)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
}

func TestScanSolutionPattern(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().
		AddTextPage("Exercise 3 Prove it.", "Problem 004 Show it.").
		AddTextPage("Solution to Exercise 3", "Answer 4", "Solution 9"))

	mapping, stats := extract.Scan(doc, extract.DefaultOptions(), nil)

	want := []string{"3", "4"}
	var got []string
	for _, r := range mapping.Resolved() {
		got = append(got, r.Key)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved keys mismatch (-want +got):\n%s", diff)
	}
	if stats.Orphans != 1 {
		t.Errorf("Orphans = %d, want 1", stats.Orphans)
	}
}

func TestScanRestartHeuristic(t *testing.T) {
	t.Parallel()

	b := pdftest.New().
		AddTextPage("1. a", "2. b", "3. c", "4. d").
		AddTextPage("1. answer a", "2. answer b")

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()
		mapping, _ := extract.Scan(open(t, b), extract.DefaultOptions(), nil)
		if n := len(mapping.Resolved()); n != 0 {
			t.Errorf("Resolved() = %d records, want 0", n)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		opts := extract.DefaultOptions()
		opts.Boundary.RestartAfter = 3
		mapping, stats := extract.Scan(open(t, b), opts, nil)
		if n := len(mapping.Resolved()); n != 2 {
			t.Errorf("Resolved() = %d records, want 2", n)
		}
		if stats.SectionPage != 1 {
			t.Errorf("SectionPage = %d, want 1", stats.SectionPage)
		}
	})

	t.Run("threshold not reached", func(t *testing.T) {
		t.Parallel()
		opts := extract.DefaultOptions()
		opts.Boundary.RestartAfter = 10
		mapping, _ := extract.Scan(open(t, b), opts, nil)
		if n := len(mapping.Resolved()); n != 0 {
			t.Errorf("Resolved() = %d records, want 0", n)
		}
	})
}

func TestScanNoMarkers(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().AddTextPage("Chapter One", "Plain prose without numbers."))
	mapping, stats := extract.Scan(doc, extract.DefaultOptions(), nil)
	if len(mapping) != 0 {
		t.Errorf("mapping = %v, want empty", mapping)
	}
	if stats.Lines != 2 {
		t.Errorf("Lines = %d, want 2", stats.Lines)
	}
}

func TestScanSkipsTextlessPages(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().
		AddTextPage("1. What is 2+2?").
		AddRawPage("BT 5 Td ET").
		AddBlankPage().
		AddTextPage("1. Answer: 4"))

	opts := extract.DefaultOptions()
	opts.Boundary.FromPage = 2

	mapping, stats := extract.Scan(doc, opts, nil)
	record := mapping["1"]
	if record == nil || !record.Resolved() {
		t.Fatalf(`mapping["1"] = %+v, want resolved`, record)
	}
	if record.Solution.Page != 3 {
		t.Errorf("solution page = %d, want 3", record.Solution.Page)
	}
	if stats.TextlessPages != 2 {
		t.Errorf("TextlessPages = %d, want 2", stats.TextlessPages)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().
		AddTextPage("1. one", "2. two", "3. three").
		AddTextPage("Solutions", "1. uno", "3. tres"))

	opts := extract.DefaultOptions()
	opts.Boundary.Heading = regexp.MustCompile(`^Solutions`)

	first, firstStats := extract.Scan(doc, opts, nil)
	second, secondStats := extract.Scan(doc, opts, nil)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("mappings differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(firstStats, secondStats); diff != "" {
		t.Errorf("stats differ (-first +second):\n%s", diff)
	}
}

func TestScanRectangles(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().
		AddPage(
			pdftest.TextLine{X: 100, Y: 500, Size: 10, Text: "12. Compute"},
			pdftest.TextLine{X: 0, Y: 785, Size: 10, Text: "13. Edge"},
		).
		AddTextPage("Exercise 12", "Exercise 13"))

	opts := extract.DefaultOptions()
	opts.Boundary.FromPage = 2

	mapping, _ := extract.Scan(doc, opts, nil)
	media := pdf.Rect{X0: 0, Y0: 0, X1: pdftest.PageWidth, Y1: pdftest.PageHeight}

	// "12." is three 6pt glyphs starting at x=100, top at 500+8, bottom at 498
	want := pdf.Rect{X0: 96, Y0: 494, X1: 122, Y1: 512}
	if diff := cmp.Diff(want, mapping["12"].Problem.Rect, cmp.Comparer(near)); diff != "" {
		t.Errorf("rect mismatch (-want +got):\n%s", diff)
	}

	for _, r := range mapping {
		for _, loc := range []*extract.Location{r.Problem, r.Solution} {
			if loc == nil || loc.Rect.IsZero() {
				continue
			}
			if !loc.Rect.Within(media) {
				t.Errorf("record %s rect %+v outside media box", r.Key, loc.Rect)
			}
			if loc.Rect.X0 > loc.Rect.X1 || loc.Rect.Y0 > loc.Rect.Y1 {
				t.Errorf("record %s rect %+v not normalized", r.Key, loc.Rect)
			}
		}
	}

	// The edge marker is clamped to the page
	if got := mapping["13"].Problem.Rect; got.X0 != 0 || got.Y1 != pdftest.PageHeight {
		t.Errorf("edge rect = %+v, want clamped to page", got)
	}

	// Exercise markers span the keyword and the number
	if got := mapping["12"].Solution.Rect; got.Width() < 10*7.2 {
		t.Errorf("solution rect %+v narrower than %q", got, "Exercise 12")
	}
}

func TestScanProgress(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().AddTextPage("a").AddTextPage("b").AddTextPage("c").AddTextPage("d"))

	var got []int
	extract.Scan(doc, extract.DefaultOptions(), func(percent int) {
		got = append(got, percent)
	})

	if diff := cmp.Diff([]int{12, 25, 37, 50}, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestScanContextCancelled(t *testing.T) {
	t.Parallel()

	doc := open(t, pdftest.New().AddTextPage("1. a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mapping, _, err := extract.ScanContext(ctx, doc, extract.DefaultOptions(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScanContext() error = %v, want context.Canceled", err)
	}
	if len(mapping) != 0 {
		t.Errorf("mapping = %v, want empty", mapping)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 0.01 && d > -0.01
}
