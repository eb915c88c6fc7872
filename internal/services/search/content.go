package search

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	markupPattern     = regexp.MustCompile(`(?i)<(p|div|span|br|a|b|i|em|strong|h[1-6]|ul|ol|li|table|tr|td|script|style|article|section)\b[^>]*>`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// NormalizeContent converts HTML fragments returned by a search backend into
// markdown. Plain text passes through trimmed.
func NormalizeContent(content, sourceURL string) string {
	if !markupPattern.MatchString(content) {
		return strings.TrimSpace(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}
	doc.Find("script, style, noscript, nav, footer, aside").Remove()

	body := doc.Find("body")
	html, err := body.Html()
	if err != nil {
		return strings.TrimSpace(body.Text())
	}

	converted, err := md.NewConverter(sourceURL, true, nil).ConvertString(html)
	if err != nil || strings.TrimSpace(converted) == "" {
		return strings.TrimSpace(body.Text())
	}

	return strings.TrimSpace(blankLinesPattern.ReplaceAllString(converted, "\n\n"))
}
