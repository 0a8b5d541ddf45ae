package pdf

// Document represents a PDF document opened for text extraction
type Document interface {
	// GetMetadata returns the PDF metadata
	GetMetadata() Metadata

	// GetPages returns all pages in the document
	GetPages() []Page

	// GetPage returns a specific page by index (0-based)
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages
	PageCount() int

	// Backend names the library that produced the pages
	Backend() string

	// Close releases resources associated with the document
	Close() error
}

// Page represents a single page in a PDF document
type Page interface {
	// GetPageNumber returns the page number (1-based)
	GetPageNumber() int

	// GetWidth returns the page width
	GetWidth() float64

	// GetHeight returns the page height
	GetHeight() float64

	// GetMediaBox returns the page boundaries in PDF user space
	GetMediaBox() Rect

	// GetChars returns the characters of the page in pdfplumber coordinates
	GetChars() []CharObject

	// TextErr is non-nil when the page text could not be extracted
	TextErr() error

	// ExtractText extracts text from the page, one line per row
	ExtractText(opts ...TextExtractionOption) string

	// ExtractWords extracts individual words with their bounding boxes
	ExtractWords(opts ...TextExtractionOption) []Word

	// ExtractLines extracts lines together with the words they contain
	ExtractLines(opts ...TextExtractionOption) []Line
}
