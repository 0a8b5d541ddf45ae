package pdf

import (
	"fmt"
	"io"

	lpdf "github.com/ledongthuc/pdf"
)

// BackendLedongthuc names the ledongthuc/pdf backend
const BackendLedongthuc = "ledongthuc"

// LedongthucDocument implements the Document interface using ledongthuc/pdf library
type LedongthucDocument struct {
	reader   *lpdf.Reader
	pages    []Page
	metadata Metadata
}

// OpenWithLedongthuc opens a PDF held by r using the ledongthuc/pdf library.
// This provides the most accurate text extraction with proper coordinates.
func OpenWithLedongthuc(r io.ReaderAt, size int64) (doc Document, err error) {
	// The library reports malformed structure by panicking
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("ledongthuc: %v", rec)
		}
	}()

	reader, err := lpdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}

	d := &LedongthucDocument{reader: reader}
	d.extractMetadata()
	d.initializePages()

	return d, nil
}

// extractMetadata reads the trailer's Info dictionary
func (d *LedongthucDocument) extractMetadata() {
	info := d.reader.Trailer().Key("Info")
	d.metadata = Metadata{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Producer: info.Key("Producer").Text(),
	}
}

// initializePages initializes all pages in the document
func (d *LedongthucDocument) initializePages() {
	pageCount := d.reader.NumPage()
	d.pages = make([]Page, pageCount)

	for i := 1; i <= pageCount; i++ {
		d.pages[i-1] = NewLedongthucPage(d.reader, i)
	}
}

// GetMetadata returns the PDF metadata
func (d *LedongthucDocument) GetMetadata() Metadata {
	return d.metadata
}

// GetPages returns all pages in the document
func (d *LedongthucDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *LedongthucDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *LedongthucDocument) PageCount() int {
	return len(d.pages)
}

// Backend returns BackendLedongthuc
func (d *LedongthucDocument) Backend() string {
	return BackendLedongthuc
}

// Close releases resources associated with the document
func (d *LedongthucDocument) Close() error {
	d.reader = nil
	d.pages = nil
	return nil
}

// LedongthucPage implements the Page interface using ledongthuc/pdf
type LedongthucPage struct {
	basePage
}

// NewLedongthucPage creates a new page using ledongthuc/pdf. A page whose
// content cannot be interpreted is still returned; its TextErr reports why.
func NewLedongthucPage(reader *lpdf.Reader, pageNumber int) Page {
	p := &LedongthucPage{
		basePage: basePage{
			pageNumber: pageNumber,
			mediaBox:   defaultMediaBox,
		},
	}
	p.textErr = p.extractObjects(reader)
	return p
}

// extractObjects reads the page geometry and its characters
func (p *LedongthucPage) extractObjects(reader *lpdf.Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.chars = nil
			err = fmt.Errorf("%w: page %d: %v", ErrNoText, p.pageNumber, rec)
		}
	}()

	page := reader.Page(p.pageNumber)
	if page.V.IsNull() {
		return fmt.Errorf("%w: page %d is missing", ErrNoText, p.pageNumber)
	}

	// MediaBox is [x0, y0, x1, y1] and may be inherited
	mediaBox := inherited(page.V, "MediaBox")
	if mediaBox.Kind() == lpdf.Array && mediaBox.Len() == 4 {
		box := NewRect(
			mediaBox.Index(0).Float64(),
			mediaBox.Index(1).Float64(),
			mediaBox.Index(2).Float64(),
			mediaBox.Index(3).Float64(),
		)
		if box.Width() > 0 && box.Height() > 0 {
			p.mediaBox = box
		}
	}

	if page.V.Key("Contents").IsNull() {
		return fmt.Errorf("%w: page %d has no content stream", ErrNoText, p.pageNumber)
	}

	content := page.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, text := range content.Text {
		glyphs = append(glyphs, glyph{
			Font:     text.Font,
			FontSize: text.FontSize,
			X:        text.X,
			Y:        text.Y,
			W:        text.W,
			S:        text.S,
		})
	}

	p.chars = charsFromGlyphs(glyphs, p.mediaBox.Y1)
	if len(p.chars) == 0 {
		return fmt.Errorf("%w: page %d shows no characters", ErrNoText, p.pageNumber)
	}
	return nil
}
