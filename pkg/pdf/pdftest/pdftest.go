// Package pdftest generates small, valid PDF documents for tests.
//
// Pages are US Letter and text is set in Courier with WinAnsi encoding, so
// every glyph is 0.6 em wide and positions are easy to predict.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Page size in points
const (
	PageWidth  = 612
	PageHeight = 792
)

// TextLine is one line of text drawn at (X, Y), the baseline origin in PDF user space.
type TextLine struct {
	X, Y float64
	Size float64
	Text string
}

type page struct {
	content []byte
	blank   bool
}

// Builder assembles a document page by page.
type Builder struct {
	pages []page
	title string
}

// New returns an empty builder
func New() *Builder {
	return &Builder{}
}

// Title sets the document title stored in the Info dictionary
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// AddPage appends a page showing the given lines
func (b *Builder) AddPage(lines ...TextLine) *Builder {
	var content strings.Builder
	for _, l := range lines {
		size := l.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
			num(size), num(l.X), num(l.Y), escape(l.Text))
	}
	b.pages = append(b.pages, page{content: []byte(content.String())})
	return b
}

// AddTextPage appends a page showing one line per string, top to bottom,
// starting one inch from the top-left corner with 12pt text and 20pt leading.
func (b *Builder) AddTextPage(texts ...string) *Builder {
	lines := make([]TextLine, len(texts))
	for i, text := range texts {
		lines[i] = TextLine{X: 72, Y: PageHeight - 72 - float64(i)*20, Size: 12, Text: text}
	}
	return b.AddPage(lines...)
}

// AddBlankPage appends a page without a content stream
func (b *Builder) AddBlankPage() *Builder {
	b.pages = append(b.pages, page{blank: true})
	return b
}

// AddRawPage appends a page with the given content stream, used to simulate
// content that text extraction cannot interpret.
func (b *Builder) AddRawPage(content string) *Builder {
	b.pages = append(b.pages, page{content: []byte(content)})
	return b
}

// Bytes serializes the document.
//
// Object numbers: 1 catalog, 2 page tree, 3 font, 4 info, then a page
// object followed by its content stream for every page.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	var offsets []int

	begin := func() int {
		offsets = append(offsets, buf.Len())
		n := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n", n)
		return n
	}
	end := func() {
		buf.WriteString("endobj\n")
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(b.pages))
	for i := range b.pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}

	begin()
	buf.WriteString("<< /Type /Catalog /Pages 2 0 R >>\n")
	end()

	begin()
	fmt.Fprintf(&buf, "<< /Type /Pages /Kids [%s] /Count %d >>\n", strings.Join(kids, " "), len(b.pages))
	end()

	begin()
	widths := strings.TrimSpace(strings.Repeat("600 ", 95))
	fmt.Fprintf(&buf, "<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>\n", widths)
	end()

	begin()
	fmt.Fprintf(&buf, "<< /Title (%s) /Producer (pdftest) >>\n", escape(b.title))
	end()

	for _, p := range b.pages {
		n := begin()
		if p.blank {
			fmt.Fprintf(&buf, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> >>\n", PageWidth, PageHeight)
		} else {
			fmt.Fprintf(&buf, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\n",
				PageWidth, PageHeight, n+1)
		}
		end()

		// Blank pages keep an unused stream object so numbering stays regular
		begin()
		fmt.Fprintf(&buf, "<< /Length %d >>\nstream\n", len(p.content))
		buf.Write(p.content)
		buf.WriteString("\nendstream\n")
		end()
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// num formats a coordinate without trailing zeros
func num(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// escape quotes a string for use inside a PDF literal string
func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
