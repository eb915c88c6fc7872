package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/ternarybob/roundtable/internal/interfaces"
)

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

	docxPackageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

	docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault>
<w:pPrDefault><w:pPr><w:spacing w:after="120"/></w:pPr></w:pPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="360" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:sz w:val="36"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/><w:sz w:val="30"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="200" w:after="80"/><w:outlineLvl w:val="2"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>
</w:styles>`

	docxDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

	docxDocumentClose = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr></w:body></w:document>`
)

// DOCXEncoder writes a flowing WordprocessingML document: one paragraph per
// non-blank line, Heading1-3 styles for headings, Normal for body text.
type DOCXEncoder struct{}

// Compile-time assertion
var _ interfaces.DocumentEncoder = (*DOCXEncoder)(nil)

// NewDOCXEncoder creates the structured encoder
func NewDOCXEncoder() *DOCXEncoder {
	return &DOCXEncoder{}
}

// Format returns "docx"
func (e *DOCXEncoder) Format() string {
	return "docx"
}

// Encode renders text as a .docx package
func (e *DOCXEncoder) Encode(text string) ([]byte, error) {
	document, err := documentXML(SplitLines(text))
	if err != nil {
		return nil, err
	}

	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxPackageRels)},
		{"word/_rels/document.xml.rels", []byte(docxDocumentRels)},
		{"word/document.xml", document},
		{"word/styles.xml", []byte(docxStyles)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := w.Write(part.body); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx: %w", err)
	}

	return buf.Bytes(), nil
}

// documentXML renders word/document.xml for the classified lines
func documentXML(lines []Line) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(docxDocumentOpen)

	for _, line := range lines {
		switch line.Kind {
		case LineBlank:
			continue
		case LineHeading:
			fmt.Fprintf(&buf, `<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>`, line.Level)
			if err := writeRun(&buf, Run{Text: line.Text}); err != nil {
				return nil, err
			}
			buf.WriteString(`</w:p>`)
		case LineBody:
			buf.WriteString(`<w:p><w:pPr><w:pStyle w:val="Normal"/></w:pPr>`)
			for _, run := range InlineRuns(line.Text) {
				if err := writeRun(&buf, run); err != nil {
					return nil, err
				}
			}
			buf.WriteString(`</w:p>`)
		}
	}

	buf.WriteString(docxDocumentClose)
	return buf.Bytes(), nil
}

func writeRun(buf *bytes.Buffer, run Run) error {
	buf.WriteString(`<w:r>`)
	if run.Bold || run.Italic || run.Code {
		buf.WriteString(`<w:rPr>`)
		if run.Code {
			buf.WriteString(`<w:rFonts w:ascii="Courier New" w:hAnsi="Courier New"/>`)
		}
		if run.Bold {
			buf.WriteString(`<w:b/>`)
		}
		if run.Italic {
			buf.WriteString(`<w:i/>`)
		}
		buf.WriteString(`</w:rPr>`)
	}
	buf.WriteString(`<w:t xml:space="preserve">`)
	if err := xml.EscapeText(buf, []byte(stripInvalidXML(run.Text))); err != nil {
		return fmt.Errorf("failed to escape text: %w", err)
	}
	buf.WriteString(`</w:t></w:r>`)
	return nil
}

// stripInvalidXML removes characters XML 1.0 cannot carry
func stripInvalidXML(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
