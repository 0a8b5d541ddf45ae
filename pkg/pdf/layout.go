package pdf

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// glyph is a single shown character as reported by the backend libraries,
// positioned in PDF user space at its baseline.
type glyph struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

// charsFromGlyphs converts backend glyphs into characters in pdfplumber
// coordinates. top is the Y coordinate of the upper page edge in PDF space.
func charsFromGlyphs(glyphs []glyph, top float64) []CharObject {
	chars := make([]CharObject, 0, len(glyphs))
	for _, g := range glyphs {
		runes := []rune(g.S)
		if len(runes) == 0 {
			continue
		}

		// Baseline sits at roughly 80% of the font height
		fontHeight := g.FontSize
		y0 := top - (g.Y + fontHeight*0.8)

		charWidth := g.W / float64(len(runes))
		x := g.X
		for _, ch := range runes {
			// Whitespace only separates words
			if !unicode.IsSpace(ch) {
				chars = append(chars, CharObject{
					Text:     string(ch),
					Font:     g.Font,
					FontSize: g.FontSize,
					X0:       x,
					Y0:       y0,
					X1:       x + charWidth,
					Y1:       y0 + fontHeight,
					Width:    charWidth,
					Height:   fontHeight,
				})
			}
			x += charWidth
		}
	}
	return chars
}

// textLayout groups characters into lines and words.
type textLayout struct {
	xTolerance float64
	yTolerance float64
}

func newTextLayout(config *textExtractionConfig) *textLayout {
	return &textLayout{
		xTolerance: config.XTolerance,
		yTolerance: config.YTolerance,
	}
}

// groupIntoLines sorts characters top to bottom and groups those whose top
// edges lie within the Y tolerance of the first character of the line.
func (tl *textLayout) groupIntoLines(chars []CharObject) [][]CharObject {
	if len(chars) == 0 {
		return nil
	}

	sorted := make([]CharObject, len(chars))
	copy(sorted, chars)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var lines [][]CharObject
	var currentLine []CharObject
	currentY := sorted[0].Y0

	for _, char := range sorted {
		if math.Abs(char.Y0-currentY) > tl.yTolerance {
			if len(currentLine) > 0 {
				lines = append(lines, currentLine)
			}
			currentLine = []CharObject{char}
			currentY = char.Y0
		} else {
			currentLine = append(currentLine, char)
		}
	}

	if len(currentLine) > 0 {
		lines = append(lines, currentLine)
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X0 < line[j].X0
		})
	}

	return lines
}

// wordsFromLine splits one line of X-sorted characters into words
func (tl *textLayout) wordsFromLine(lineChars []CharObject) []Word {
	if len(lineChars) == 0 {
		return nil
	}

	var words []Word
	currentWord := []CharObject{lineChars[0]}

	for i := 1; i < len(lineChars); i++ {
		char := lineChars[i]
		gap := char.X0 - lineChars[i-1].X1
		if gap > tl.xTolerance || gap > char.Width*0.3 {
			words = append(words, createWord(currentWord))
			currentWord = []CharObject{char}
		} else {
			currentWord = append(currentWord, char)
		}
	}

	words = append(words, createWord(currentWord))
	return words
}

// lines builds structured lines for the given characters
func (tl *textLayout) lines(chars []CharObject) []Line {
	var lines []Line
	for _, lineChars := range tl.groupIntoLines(chars) {
		words := tl.wordsFromLine(lineChars)
		if len(words) == 0 {
			continue
		}

		bbox := words[0].GetBBox()
		texts := make([]string, len(words))
		for i, word := range words {
			texts[i] = word.Text
			bbox = bbox.Union(word.GetBBox())
		}

		lines = append(lines, Line{
			Text:  strings.Join(texts, " "),
			BBox:  bbox,
			Words: words,
		})
	}
	return lines
}

// words returns all words of the page in reading order
func (tl *textLayout) words(chars []CharObject) []Word {
	var words []Word
	for _, lineChars := range tl.groupIntoLines(chars) {
		words = append(words, tl.wordsFromLine(lineChars)...)
	}
	return words
}

// createWord creates a Word from a group of characters
func createWord(chars []CharObject) Word {
	var text strings.Builder
	minX, minY := chars[0].X0, chars[0].Y0
	maxX, maxY := chars[0].X1, chars[0].Y1

	for _, char := range chars {
		text.WriteString(char.Text)
		minX = math.Min(minX, char.X0)
		minY = math.Min(minY, char.Y0)
		maxX = math.Max(maxX, char.X1)
		maxY = math.Max(maxY, char.Y1)
	}

	return Word{
		Text:       text.String(),
		X0:         minX,
		Y0:         minY,
		X1:         maxX,
		Y1:         maxY,
		Characters: chars,
	}
}

// basePage implements the layout-derived parts of Page shared by all backends
type basePage struct {
	pageNumber int
	mediaBox   Rect
	chars      []CharObject
	textErr    error
}

// GetPageNumber returns the page number (1-based)
func (p *basePage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *basePage) GetWidth() float64 {
	return p.mediaBox.Width()
}

// GetHeight returns the page height
func (p *basePage) GetHeight() float64 {
	return p.mediaBox.Height()
}

// GetMediaBox returns the page boundaries in PDF user space
func (p *basePage) GetMediaBox() Rect {
	return p.mediaBox
}

// GetChars returns the characters of the page
func (p *basePage) GetChars() []CharObject {
	return p.chars
}

// TextErr reports why the page has no extractable text, if it has none
func (p *basePage) TextErr() error {
	return p.textErr
}

// ExtractText extracts text from the page
func (p *basePage) ExtractText(opts ...TextExtractionOption) string {
	lines := newTextLayout(newTextExtractionConfig(opts)).lines(p.chars)
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// ExtractWords extracts individual words from the page
func (p *basePage) ExtractWords(opts ...TextExtractionOption) []Word {
	return newTextLayout(newTextExtractionConfig(opts)).words(p.chars)
}

// ExtractLines extracts lines with their words in a single pass
func (p *basePage) ExtractLines(opts ...TextExtractionOption) []Line {
	return newTextLayout(newTextExtractionConfig(opts)).lines(p.chars)
}

// treeValue is the dictionary view both backend libraries offer
type treeValue[V any] interface {
	IsNull() bool
	Key(key string) V
}

// inherited looks key up on a page and then on its ancestors in the page tree
func inherited[V treeValue[V]](v V, key string) V {
	var none V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if value := v.Key(key); !value.IsNull() {
			return value
		}
		v = v.Key("Parent")
	}
	return none
}

// defaultMediaBox is US Letter, used when a page carries no usable MediaBox
var defaultMediaBox = Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}
