// Package export serializes the assembled report into DOCX and PDF documents.
package export

import (
	"strings"
)

// LineKind classifies one line of report text
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading
	LineBody
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeading:
		return "heading"
	default:
		return "body"
	}
}

// Line is a classified line. Level is 1-3 for headings and 0 otherwise.
type Line struct {
	Kind  LineKind
	Level int
	Text  string
}

// headingPrefixes are checked longest first so "### " is never read as "# "
var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// ClassifyLine decides whether a line is blank, a heading or body text.
// Both encoders use it so they agree on structure.
func ClassifyLine(line string) Line {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Line{Kind: LineBlank}
	}

	for _, h := range headingPrefixes {
		if strings.HasPrefix(trimmed, h.prefix) {
			return Line{
				Kind:  LineHeading,
				Level: h.level,
				Text:  strings.TrimSpace(trimmed[len(h.prefix):]),
			}
		}
	}

	return Line{Kind: LineBody, Text: trimmed}
}

// SplitLines classifies every newline-delimited line of text
func SplitLines(text string) []Line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, ClassifyLine(line))
	}
	return lines
}
