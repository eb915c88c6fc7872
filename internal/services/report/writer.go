// Package report synthesizes interview sections and assembles the final report.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"github.com/ternarybob/roundtable/internal/models"
)

// Stage labels carried by generation errors
const (
	StageWriteSection      = "write_section"
	StageWriteReport       = "write_report"
	StageWriteIntroduction = "write_introduction"
	StageWriteConclusion   = "write_conclusion"
)

// Writer produces report text with the language model
type Writer struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewWriter creates a report writer
func NewWriter(llm interfaces.LLMService, logger arbor.ILogger) *Writer {
	return &Writer{
		llm:    llm,
		logger: logger,
	}
}

// WriteSection turns one analyst's interview context into a markdown section
func (w *Writer) WriteSection(ctx context.Context, analyst models.Analyst, context []string) (string, error) {
	contextText := strings.Join(context, "\n")
	if strings.TrimSpace(contextText) == "" {
		contextText = "[No context available.]"
	}

	section, err := w.generate(ctx, StageWriteSection,
		fmt.Sprintf(sectionWriterInstructions, analyst.Description),
		fmt.Sprintf("Use this source to write your section: %s", contextText),
	)
	if err != nil {
		return "", err
	}

	w.logger.Debug().
		Str("analyst", analyst.Name).
		Int("length", len(section)).
		Msg("Section written")
	return section, nil
}

// WriteBody consolidates all sections into the report body
func (w *Writer) WriteBody(ctx context.Context, topic string, sections []string) (string, error) {
	return w.generate(ctx, StageWriteReport,
		fmt.Sprintf(reportWriterInstructions, topic, joinSections(sections)),
		"Write a report based upon these memos.",
	)
}

// WriteIntroduction writes the report introduction
func (w *Writer) WriteIntroduction(ctx context.Context, topic string, sections []string) (string, error) {
	return w.generate(ctx, StageWriteIntroduction,
		fmt.Sprintf(introConclusionInstructions, topic, "introduction", joinSections(sections)),
		"Write the report introduction",
	)
}

// WriteConclusion writes the report conclusion
func (w *Writer) WriteConclusion(ctx context.Context, topic string, sections []string) (string, error) {
	return w.generate(ctx, StageWriteConclusion,
		fmt.Sprintf(introConclusionInstructions, topic, "conclusion", joinSections(sections)),
		"Write the report conclusion",
	)
}

func (w *Writer) generate(ctx context.Context, stage, system, instruction string) (string, error) {
	reply, err := w.llm.Chat(ctx, []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: system},
		{Role: interfaces.RoleUser, Content: instruction},
	})
	if err != nil {
		return "", common.NewGenerationError(stage, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", common.NewGenerationError(stage, fmt.Errorf("model returned an empty response"))
	}
	return reply, nil
}

func joinSections(sections []string) string {
	return strings.Join(sections, models.SectionSeparator)
}
