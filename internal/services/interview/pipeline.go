// Package interview runs one analyst through the fixed interview sequence:
// ask_question, search_web, generate_answer, save_transcript, write_section.
package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"github.com/ternarybob/roundtable/internal/models"
)

// Stage labels carried by pipeline errors
const (
	StageAskQuestion    = "ask_question"
	StageSearchWeb      = "search_web"
	StageGenerateAnswer = "generate_answer"
	StageSaveTranscript = "save_transcript"
	StageWriteSection   = "write_section"
)

// Placeholders used when a stage has nothing to work with
const (
	NoSearchResults = "[No search results found.]"
	NoContext       = "[No context available.]"
)

// DocumentSeparator joins formatted search results within one context block
const DocumentSeparator = "\n\n---\n\n"

// SectionWriter produces one report section from an interview's context
type SectionWriter interface {
	WriteSection(ctx context.Context, analyst models.Analyst, context []string) (string, error)
}

// Pipeline executes the interview stages for one InterviewState.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	llm    interfaces.LLMService
	search interfaces.WebSearchService
	writer SectionWriter
	logger arbor.ILogger
}

// NewPipeline creates an interview pipeline
func NewPipeline(llm interfaces.LLMService, search interfaces.WebSearchService, writer SectionWriter, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		llm:    llm,
		search: search,
		writer: writer,
		logger: logger,
	}
}

// Run executes every stage exactly once, in order, and returns the section.
// The first failing stage aborts the interview with a stage-tagged error.
// state.MaxTurns is recorded but does not repeat the sequence.
func (p *Pipeline) Run(ctx context.Context, state *models.InterviewState) (string, error) {
	if state == nil {
		return "", common.NewGenerationError(StageAskQuestion, fmt.Errorf("interview state is nil"))
	}

	startTime := time.Now()
	analyst := state.Analyst.Name

	stages := []struct {
		name string
		run  func(context.Context, *models.InterviewState) error
	}{
		{StageAskQuestion, p.AskQuestion},
		{StageSearchWeb, p.SearchWeb},
		{StageGenerateAnswer, p.GenerateAnswer},
		{StageSaveTranscript, func(_ context.Context, s *models.InterviewState) error { return SaveTranscript(s) }},
	}

	for _, stage := range stages {
		stageStart := time.Now()
		if err := stage.run(ctx, state); err != nil {
			p.logger.Error().
				Str("analyst", analyst).
				Str("stage", stage.name).
				Err(err).
				Msg("Interview stage failed")
			return "", common.WithStage(stage.name, err)
		}
		p.logger.Debug().
			Str("analyst", analyst).
			Str("stage", stage.name).
			Dur("duration", time.Since(stageStart)).
			Msg("Interview stage completed")
	}

	section, err := p.writer.WriteSection(ctx, state.Analyst, state.Context)
	if err != nil {
		return "", common.WithStage(StageWriteSection, err)
	}

	p.logger.Info().
		Str("analyst", analyst).
		Int("messages", len(state.Messages)).
		Int("context_blocks", len(state.Context)).
		Int("max_turns", state.MaxTurns).
		Dur("duration", time.Since(startTime)).
		Msg("Interview completed")

	return section, nil
}

// AskQuestion appends the analyst's next question
func (p *Pipeline) AskQuestion(ctx context.Context, state *models.InterviewState) error {
	messages := conversation(
		fmt.Sprintf(questionInstructions, state.Analyst.Persona()),
		state.Messages,
		askInstruction,
	)

	question, err := p.llm.Chat(ctx, messages)
	if err != nil {
		return common.NewGenerationError(StageAskQuestion, err)
	}

	state.AppendMessage(interfaces.Message{
		Role:    interfaces.RoleAnalyst,
		Name:    state.Analyst.Name,
		Content: strings.TrimSpace(question),
	})
	return nil
}

// SearchWeb turns the conversation into a query and appends one context block.
// Zero results append the no-results placeholder; provider errors are returned.
func (p *Pipeline) SearchWeb(ctx context.Context, state *models.InterviewState) error {
	query, err := p.llm.Chat(ctx, conversation(searchInstructions, state.Messages, queryInstruction))
	if err != nil {
		return common.NewGenerationError(StageSearchWeb, err)
	}
	query = cleanQuery(query)

	results, err := p.search.Search(ctx, query)
	if err != nil {
		return common.NewSearchError(StageSearchWeb, err)
	}

	p.logger.Debug().
		Str("analyst", state.Analyst.Name).
		Str("provider", p.search.Name()).
		Str("query", query).
		Int("results", len(results)).
		Msg("Web search returned")

	state.AppendContext(FormatResults(results))
	return nil
}

// GenerateAnswer appends the expert's answer grounded in the accumulated context
func (p *Pipeline) GenerateAnswer(ctx context.Context, state *models.InterviewState) error {
	contextText := NoContext
	if len(state.Context) > 0 {
		contextText = strings.Join(state.Context, "\n")
	}

	messages := conversation(
		fmt.Sprintf(answerInstructions, state.Analyst.Persona(), contextText),
		state.Messages,
		answerInstruction,
	)

	answer, err := p.llm.Chat(ctx, messages)
	if err != nil {
		return common.NewGenerationError(StageGenerateAnswer, err)
	}

	state.AppendMessage(interfaces.Message{
		Role:    interfaces.RoleExpert,
		Name:    "expert",
		Content: strings.TrimSpace(answer),
	})
	return nil
}

// SaveTranscript renders every message as "role: content", one per line
func SaveTranscript(state *models.InterviewState) error {
	if state == nil || len(state.Messages) == 0 {
		return common.NewGenerationError(StageSaveTranscript, fmt.Errorf("interview has no messages"))
	}

	lines := make([]string, 0, len(state.Messages))
	for _, msg := range state.Messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	state.Transcript = strings.Join(lines, "\n")
	return nil
}

// FormatResults renders search results as one context block
func FormatResults(results []interfaces.SearchResult) string {
	if len(results) == 0 {
		return NoSearchResults
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, fmt.Sprintf("<Document href=\"%s\"/>\n%s\n</Document>", r.URL, r.Content))
	}
	return strings.Join(docs, DocumentSeparator)
}

// conversation frames history with a system prompt and a closing instruction
func conversation(system string, history []interfaces.Message, instruction string) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{Role: interfaces.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, interfaces.Message{Role: interfaces.RoleUser, Content: instruction})
	return messages
}

func cleanQuery(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, "Query:")
	return strings.Trim(strings.TrimSpace(query), "\"'`")
}
