package models

import (
	"strings"
)

// Separators and headings used when assembling the final report
const (
	SectionSeparator = "\n\n---\n\n"
	InsightsHeading  = "## Insights"
	SourcesHeading   = "## Sources"
)

// AssembledReport is the final document in logical order:
// introduction, body, conclusion, then the relocated sources block.
type AssembledReport struct {
	Introduction string `json:"introduction,omitempty"`
	Body         string `json:"body"`
	Conclusion   string `json:"conclusion,omitempty"`
	Sources      string `json:"sources,omitempty"`
	HasSources   bool   `json:"has_sources"`
}

// Render joins the non-empty segments with SectionSeparator and appends
// the sources under a re-added heading
func (r AssembledReport) Render() string {
	segments := make([]string, 0, 3)
	for _, segment := range []string{r.Introduction, r.Body, r.Conclusion} {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(segments, SectionSeparator))
	if r.HasSources {
		sb.WriteString("\n\n")
		sb.WriteString(SourcesHeading)
		sb.WriteString("\n")
		sb.WriteString(r.Sources)
	}
	return sb.String()
}
