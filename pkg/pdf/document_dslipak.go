package pdf

import (
	"fmt"
	"io"

	gopdf "github.com/dslipak/pdf"
)

// BackendDslipak names the dslipak/pdf backend
const BackendDslipak = "dslipak"

// DsliPakDocument implements the Document interface using dslipak/pdf library
type DsliPakDocument struct {
	reader   *gopdf.Reader
	pages    []Page
	metadata Metadata
}

// OpenWithDslipak opens a PDF held by r using the dslipak/pdf library
func OpenWithDslipak(r io.ReaderAt, size int64) (doc Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("dslipak: %v", rec)
		}
	}()

	reader, err := gopdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}

	d := &DsliPakDocument{reader: reader}
	d.extractMetadata()
	d.initializePages()

	return d, nil
}

// extractMetadata reads the trailer's Info dictionary
func (d *DsliPakDocument) extractMetadata() {
	info := d.reader.Trailer().Key("Info")
	d.metadata = Metadata{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Producer: info.Key("Producer").Text(),
	}
}

// initializePages initializes all pages in the document
func (d *DsliPakDocument) initializePages() {
	pageCount := d.reader.NumPage()
	d.pages = make([]Page, pageCount)

	for i := 1; i <= pageCount; i++ {
		d.pages[i-1] = NewDsliPakPage(d.reader, i)
	}
}

// GetMetadata returns the PDF metadata
func (d *DsliPakDocument) GetMetadata() Metadata {
	return d.metadata
}

// GetPages returns all pages in the document
func (d *DsliPakDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *DsliPakDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *DsliPakDocument) PageCount() int {
	return len(d.pages)
}

// Backend returns BackendDslipak
func (d *DsliPakDocument) Backend() string {
	return BackendDslipak
}

// Close releases resources associated with the document
func (d *DsliPakDocument) Close() error {
	d.reader = nil
	d.pages = nil
	return nil
}

// DsliPakPage implements the Page interface using dslipak/pdf
type DsliPakPage struct {
	basePage
}

// NewDsliPakPage creates a new page using dslipak/pdf
func NewDsliPakPage(reader *gopdf.Reader, pageNumber int) Page {
	p := &DsliPakPage{
		basePage: basePage{
			pageNumber: pageNumber,
			mediaBox:   defaultMediaBox,
		},
	}
	p.textErr = p.extractObjects(reader)
	return p
}

// extractObjects reads the page geometry and its characters
func (p *DsliPakPage) extractObjects(reader *gopdf.Reader) (err error) {
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

	mediaBox := inherited(page.V, "MediaBox")
	if mediaBox.Kind() == gopdf.Array && mediaBox.Len() == 4 {
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
