package pdf

import "math"

// BoundingBox represents a rectangular area in pdfplumber coordinates:
// the origin is the top-left corner of the page and Y grows downwards.
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Union returns the smallest box containing both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Rect is a rectangle in PDF user space: lower-left origin, Y grows upwards,
// units are points. The zero Rect means "no area".
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// NewRect returns the normalized rectangle spanned by the two corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// IsZero reports whether r is the degenerate (0,0,0,0) rectangle.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of r.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Pad grows r by m on every side.
func (r Rect) Pad(m float64) Rect {
	return Rect{X0: r.X0 - m, Y0: r.Y0 - m, X1: r.X1 + m, Y1: r.Y1 + m}
}

// Clamp intersects r with bounds. If nothing of r lies inside bounds the
// zero Rect is returned.
func (r Rect) Clamp(bounds Rect) Rect {
	c := Rect{
		X0: math.Max(r.X0, bounds.X0),
		Y0: math.Max(r.Y0, bounds.Y0),
		X1: math.Min(r.X1, bounds.X1),
		Y1: math.Min(r.Y1, bounds.Y1),
	}
	if c.X0 >= c.X1 || c.Y0 >= c.Y1 {
		return Rect{}
	}
	return c
}

// Within reports whether r lies completely inside bounds.
func (r Rect) Within(bounds Rect) bool {
	return r.X0 >= bounds.X0 && r.Y0 >= bounds.Y0 && r.X1 <= bounds.X1 && r.Y1 <= bounds.Y1
}

// CharObject represents a character in the PDF
type CharObject struct {
	Text     string
	Font     string
	FontSize float64
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
	Width    float64
	Height   float64
}

// GetBBox returns the character's bounding box
func (c CharObject) GetBBox() BoundingBox {
	return BoundingBox{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1}
}

// Word is a run of characters on one line without a horizontal gap.
type Word struct {
	Text       string
	X0         float64
	Y0         float64
	X1         float64
	Y1         float64
	Characters []CharObject
}

// GetBBox returns the word's bounding box
func (w Word) GetBBox() BoundingBox {
	return BoundingBox{X0: w.X0, Y0: w.Y0, X1: w.X1, Y1: w.Y1}
}

// Line is a row of words sharing a baseline, in reading order.
type Line struct {
	Text  string
	BBox  BoundingBox
	Words []Word
}

// Metadata represents PDF document metadata
type Metadata struct {
	Title    string
	Author   string
	Producer string
}

// TextExtractionOption is a function that modifies text extraction behavior
type TextExtractionOption func(*textExtractionConfig)

type textExtractionConfig struct {
	XTolerance float64
	YTolerance float64
}

func newTextExtractionConfig(opts []TextExtractionOption) *textExtractionConfig {
	config := &textExtractionConfig{
		XTolerance: 3.0,
		YTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// WithXTolerance sets the horizontal gap above which characters start a new word
func WithXTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.XTolerance = tolerance
	}
}

// WithYTolerance sets the vertical distance within which characters share a line
func WithYTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.YTolerance = tolerance
	}
}
