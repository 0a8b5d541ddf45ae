package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	rect := pdf.Rect{X0: 1, Y0: 1, X1: 2, Y1: 2}
	result := &linker.Result{
		RunID:      "run-1",
		Backend:    "ledongthuc",
		Pages:      9,
		Records:    3,
		Resolved:   2,
		LinksAdded: 3,
		Skipped:    1,
		Mapping: extract.Mapping{
			"1":  {Key: "1", Problem: &extract.Location{Page: 0, Rect: rect}, Solution: &extract.Location{Page: 7, Rect: rect}},
			"10": {Key: "10", Problem: &extract.Location{Page: 2, Rect: rect}, Solution: &extract.Location{Page: 8}},
			"4":  {Key: "4", Problem: &extract.Location{Page: 1, Rect: rect}},
		},
		Stats: extract.Stats{SectionPage: 7},
	}

	var buf bytes.Buffer
	if err := Write(&buf, "book.pdf", result); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# pdflinker report",
		"`book.pdf`",
		"from page 8",
		"## Linked problems",
		"## Problems without a solution",
		"4 (page 2)",
		"run-1",
		"skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	// Pairs are listed in numeric order
	section := strings.Index(out, "## Linked problems")
	if section < 0 {
		t.Fatalf("report has no pairs section:\n%s", out)
	}
	pairs := out[section:]
	if strings.Index(pairs, "| 1 ") > strings.Index(pairs, "| 10 ") {
		t.Errorf("pairs not in numeric order:\n%s", out)
	}
}

func TestWriteNothingResolved(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Write(&buf, "empty.pdf", &linker.Result{Mapping: extract.Mapping{}, Stats: extract.Stats{SectionPage: -1}})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "not detected") || !strings.Contains(out, "no output was written") {
		t.Errorf("unexpected report:\n%s", out)
	}
	if strings.Contains(out, "## Linked problems") {
		t.Errorf("report lists pairs for an empty run:\n%s", out)
	}
}
