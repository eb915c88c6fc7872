package export

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Run is a span of text sharing one emphasis style
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
}

var inlineMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
)

// InlineRuns parses a body line's markdown emphasis into styled runs.
// List items keep a bullet or their number; anything producing no text
// (a thematic break, for example) falls back to the literal line.
func InlineRuns(line string) []Run {
	source := []byte(line)
	doc := inlineMarkdown.Parser().Parse(text.NewReader(source))

	r := &runCollector{source: source}
	_ = ast.Walk(doc, r.walk)

	if len(r.runs) == 0 {
		return []Run{{Text: line}}
	}
	return mergeRuns(r.runs)
}

type runCollector struct {
	source []byte
	bold   int
	italic int
	runs   []Run
}

func (r *runCollector) emit(s string, code bool) {
	if s == "" {
		return
	}
	r.runs = append(r.runs, Run{
		Text:   s,
		Bold:   r.bold > 0,
		Italic: r.italic > 0,
		Code:   code,
	})
}

func (r *runCollector) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.Level >= 2 {
			r.bold += delta
		} else {
			r.italic += delta
		}
	case *ast.ListItem:
		if entering {
			if list, ok := node.Parent().(*ast.List); ok && list.IsOrdered() {
				r.emit(fmt.Sprintf("%d. ", list.Start), false)
			} else {
				r.emit("• ", false)
			}
		}
	case *ast.Text:
		if entering {
			r.emit(string(node.Value(r.source)), false)
			if node.SoftLineBreak() || node.HardLineBreak() {
				r.emit(" ", false)
			}
		}
	case *ast.String:
		if entering {
			r.emit(string(node.Value), false)
		}
	case *ast.CodeSpan:
		if entering {
			var sb strings.Builder
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Value(r.source))
				}
			}
			r.emit(sb.String(), true)
			return ast.WalkSkipChildren, nil
		}
	case *ast.AutoLink:
		if entering {
			r.emit(string(node.Label(r.source)), false)
			return ast.WalkSkipChildren, nil
		}
	case *ast.RawHTML:
		if entering {
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				r.emit(string(seg.Value(r.source)), false)
			}
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

// mergeRuns joins neighbours with identical styling
func mergeRuns(runs []Run) []Run {
	merged := make([]Run, 0, len(runs))
	for _, run := range runs {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.Bold == run.Bold && last.Italic == run.Italic && last.Code == run.Code {
				last.Text += run.Text
				continue
			}
		}
		merged = append(merged, run)
	}
	return merged
}

// PlainText drops the emphasis markers from a body line
func PlainText(line string) string {
	var sb strings.Builder
	for _, run := range InlineRuns(line) {
		sb.WriteString(run.Text)
	}
	return sb.String()
}
