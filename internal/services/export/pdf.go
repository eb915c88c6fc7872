package export

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/roundtable/internal/interfaces"
)

// PageGeometry is the fixed page layout in millimetres
type PageGeometry struct {
	PageWidth    float64
	PageHeight   float64
	TopMargin    float64
	BottomMargin float64
	LeftMargin   float64
	RightMargin  float64
	LineHeight   float64
	Font         string
	BodySize     float64
}

// DefaultGeometry is A4 portrait with 20mm margins and 6mm lines
func DefaultGeometry() PageGeometry {
	return PageGeometry{
		PageWidth:    210,
		PageHeight:   297,
		TopMargin:    20,
		BottomMargin: 20,
		LeftMargin:   20,
		RightMargin:  20,
		LineHeight:   6,
		Font:         "Helvetica",
		BodySize:     11,
	}
}

// ContentWidth is the printable width between the side margins
func (g PageGeometry) ContentWidth() float64 {
	return g.PageWidth - g.LeftMargin - g.RightMargin
}

// bottomLimit is the lowest y a line may end at
func (g PageGeometry) bottomLimit() float64 {
	return g.PageHeight - g.BottomMargin
}

// headingSizes by level
var headingSizes = map[int]float64{1: 18, 2: 15, 3: 13}

// DrawOp is one drawn line of the layout plan
type DrawOp struct {
	Page     int
	Y        float64
	Text     string
	Width    float64
	FontSize float64
	Bold     bool
}

// utf8Family is the family name registered for a configured TrueType font
const utf8Family = "ReportUTF8"

// PDFEncoder paginates manually: it tracks the vertical cursor itself and
// starts a new page when the next line would cross the bottom margin.
//
// Without a TrueType font it uses the core Helvetica font, which only covers
// cp1252: characters outside it (CJK names, for example) cannot be drawn and
// come out as substitutes. WithUTF8Font lifts that limit.
type PDFEncoder struct {
	geometry PageGeometry
	fontFile string
	boldFile string
}

// PDFOption configures a PDFEncoder
type PDFOption func(*PDFEncoder)

// WithUTF8Font draws all text with a UTF-8 TrueType font. boldFile may be
// empty, in which case headings reuse the regular face.
func WithUTF8Font(fontFile, boldFile string) PDFOption {
	return func(e *PDFEncoder) {
		e.fontFile = fontFile
		e.boldFile = boldFile
	}
}

// Compile-time assertion
var _ interfaces.DocumentEncoder = (*PDFEncoder)(nil)

// NewPDFEncoder creates the paginated encoder with the default geometry
func NewPDFEncoder(opts ...PDFOption) *PDFEncoder {
	e := &PDFEncoder{geometry: DefaultGeometry()}
	for _, opt := range opts {
		opt(e)
	}
	if e.fontFile != "" {
		e.geometry.Font = utf8Family
	}
	return e
}

// Format returns "pdf"
func (e *PDFEncoder) Format() string {
	return "pdf"
}

// Geometry returns the page layout in use
func (e *PDFEncoder) Geometry() PageGeometry {
	return e.geometry
}

// Encode renders text to PDF bytes
func (e *PDFEncoder) Encode(text string) ([]byte, error) {
	pdf, _ := e.render(text)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

// Layout returns the draw plan Encode would produce
func (e *PDFEncoder) Layout(text string) []DrawOp {
	_, ops := e.render(text)
	return ops
}

type pdfLayout struct {
	pdf      *fpdf.Fpdf
	geometry PageGeometry
	tr       func(string) string
	y        float64
	ops      []DrawOp
}

func (e *PDFEncoder) render(text string) (*fpdf.Fpdf, []DrawOp) {
	g := e.geometry

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(g.LeftMargin, g.TopMargin, g.RightMargin)
	pdf.SetAutoPageBreak(false, g.BottomMargin)
	pdf.SetCreator("roundtable", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if e.fontFile != "" {
		e.registerUTF8Font(pdf)
		tr = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(g.Font, "", g.BodySize)

	l := &pdfLayout{
		pdf:      pdf,
		geometry: g,
		tr:       tr,
		y:        g.TopMargin,
	}

	for _, line := range SplitLines(text) {
		switch line.Kind {
		case LineBlank:
			l.advance(g.LineHeight)
		case LineHeading:
			size := headingSizes[line.Level]
			for _, wrapped := range l.wrap(line.Text, "B", size) {
				l.drawLine(wrapped, "B", size)
			}
			l.advance(float64(4-line.Level) * 2)
		case LineBody:
			for _, wrapped := range l.wrap(PlainText(line.Text), "", g.BodySize) {
				l.drawLine(wrapped, "", g.BodySize)
			}
		}
	}

	return pdf, l.ops
}

// registerUTF8Font loads the configured faces. A read failure is left on the
// document so Encode reports it.
func (e *PDFEncoder) registerUTF8Font(pdf *fpdf.Fpdf) {
	regular, err := os.ReadFile(e.fontFile)
	if err != nil {
		pdf.SetError(fmt.Errorf("failed to read PDF font: %w", err))
		return
	}
	bold := regular
	if e.boldFile != "" {
		if bold, err = os.ReadFile(e.boldFile); err != nil {
			pdf.SetError(fmt.Errorf("failed to read PDF bold font: %w", err))
			return
		}
	}
	pdf.AddUTF8FontFromBytes(utf8Family, "", regular)
	pdf.AddUTF8FontFromBytes(utf8Family, "B", bold)
}

// advance moves the cursor down without drawing. Space that would cross the
// bottom margin is absorbed; the next drawn line starts a new page anyway.
func (l *pdfLayout) advance(dy float64) {
	l.y += dy
	if limit := l.geometry.bottomLimit(); l.y > limit {
		l.y = limit
	}
}

// drawLine draws one line at the cursor, breaking the page first when needed,
// then resets the font to the body default
func (l *pdfLayout) drawLine(text, style string, size float64) {
	g := l.geometry
	if l.y+g.LineHeight > g.bottomLimit() {
		l.pdf.AddPage()
		l.y = g.TopMargin
	}

	l.pdf.SetFont(g.Font, style, size)
	width := l.width(text)
	l.pdf.SetXY(g.LeftMargin, l.y)
	l.pdf.CellFormat(g.ContentWidth(), g.LineHeight, l.tr(text), "", 0, "L", false, 0, "")

	l.ops = append(l.ops, DrawOp{
		Page:     l.pdf.PageNo(),
		Y:        l.y,
		Text:     text,
		Width:    width,
		FontSize: size,
		Bold:     style == "B",
	})

	l.y += g.LineHeight
	l.pdf.SetFont(g.Font, "", g.BodySize)
}

// wrap greedily fills lines up to the content width. A word wider than the
// whole line is broken by runes into pieces that each fit.
func (l *pdfLayout) wrap(text, style string, size float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	l.pdf.SetFont(l.geometry.Font, style, size)
	defer l.pdf.SetFont(l.geometry.Font, "", l.geometry.BodySize)

	maxWidth := l.geometry.ContentWidth()
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if l.width(candidate) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		if l.width(word) <= maxWidth {
			current = word
			continue
		}
		pieces := l.breakWord(word, maxWidth)
		lines = append(lines, pieces[:len(pieces)-1]...)
		current = pieces[len(pieces)-1]
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// breakWord splits word into the longest rune prefixes that fit maxWidth.
// Every piece holds at least one rune.
func (l *pdfLayout) breakWord(word string, maxWidth float64) []string {
	var pieces []string
	runes := []rune(word)
	for len(runes) > 0 {
		n := 1
		for n < len(runes) && l.width(string(runes[:n+1])) <= maxWidth {
			n++
		}
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}

func (l *pdfLayout) width(text string) float64 {
	return l.pdf.GetStringWidth(l.tr(text))
}
