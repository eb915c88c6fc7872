package report

import (
	"regexp"
	"strings"

	"github.com/ternarybob/roundtable/internal/models"
)

// sourcesLine matches a "## Sources" heading on a line of its own
var sourcesLine = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(models.SourcesHeading) + `[ \t\r]*$`)

// Assemble splits the body into its parts. A leading "## Insights" heading is
// dropped; a "## Sources" heading line occurring exactly once moves what follows
// it into Sources. Deeper headings such as "### Sources of growth" do not count. With zero or several occurrences the body is kept whole.
func Assemble(body, introduction, conclusion string) models.AssembledReport {
	report := models.AssembledReport{
		Introduction: introduction,
		Conclusion:   conclusion,
	}

	if strings.HasPrefix(body, models.InsightsHeading) {
		body = strings.TrimLeft(strings.TrimPrefix(body, models.InsightsHeading), " \t\r\n")
	}

	matches := sourcesLine.FindAllStringIndex(body, -1)
	if len(matches) == 1 {
		report.Body = strings.TrimSpace(body[:matches[0][0]])
		report.Sources = strings.TrimSpace(body[matches[0][1]:])
		report.HasSources = true
		return report
	}

	report.Body = body
	return report
}

// Finalize assembles and renders the final report text:
// introduction, body, conclusion joined by "\n\n---\n\n", then the sources.
func Finalize(body, introduction, conclusion string) string {
	return Assemble(body, introduction, conclusion).Render()
}
