package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/roundtable/internal/models"
)

// formatRunState formats a run snapshot as markdown
func formatRunState(state models.RunState) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Research: %s\n\n", state.Topic))
	sb.WriteString(fmt.Sprintf("**Run ID:** %s\n", state.RunID))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", state.Status))
	sb.WriteString(fmt.Sprintf("**Started:** %s\n", state.StartTime.Format(time.RFC3339)))
	if state.EndTime != nil {
		sb.WriteString(fmt.Sprintf("**Finished:** %s (%s)\n", state.EndTime.Format(time.RFC3339), state.Duration().Round(time.Second)))
	}
	if state.Feedback != "" {
		sb.WriteString(fmt.Sprintf("**Feedback:** %s\n", state.Feedback))
	}
	if state.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", state.Error))
	}

	if len(state.Analysts) > 0 {
		sb.WriteString("\n## Analysts\n\n")
		for i, analyst := range state.Analysts {
			sb.WriteString(fmt.Sprintf("%d. **%s**, %s (%s)\n", i+1, analyst.Name, analyst.Role, analyst.Affiliation))
		}
	}

	if state.Exports != nil {
		sb.WriteString("\n## Documents\n\n")
		if state.Exports.DOCXPath != "" {
			sb.WriteString(fmt.Sprintf("- DOCX: %s\n", state.Exports.DOCXPath))
		}
		if state.Exports.DOCXError != "" {
			sb.WriteString(fmt.Sprintf("- DOCX failed: %s\n", state.Exports.DOCXError))
		}
		if state.Exports.PDFPath != "" {
			sb.WriteString(fmt.Sprintf("- PDF: %s (%d pages)\n", state.Exports.PDFPath, state.Exports.PDFPages))
		}
		if state.Exports.PDFError != "" {
			sb.WriteString(fmt.Sprintf("- PDF failed: %s\n", state.Exports.PDFError))
		}
	}

	if state.FinalReport != "" {
		sb.WriteString("\n---\n\n")
		sb.WriteString(state.FinalReport)
		sb.WriteString("\n")
	}

	return sb.String()
}
