package personas

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

// StageCreateAnalysts tags persona generation failures
const StageCreateAnalysts = "create_analysts"

const analystInstructions = `You are tasked with creating a set of AI analyst personas.

1. Review the research topic:
%s

2. Examine any editorial feedback that has been provided to guide the creation of the analysts:
%s

3. Determine the most interesting themes based on the topic and feedback.

4. Pick the top %d themes.

5. Assign one analyst to each theme.

Write each analyst as a block of four lines, separated by a blank line:
Name: <full name>
Role: <role>
Affiliation: <organization>
Description: <focus, concerns and motives>`

// Generator creates analyst personas for a topic with the language model
type Generator struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewGenerator creates a persona generator
func NewGenerator(llm interfaces.LLMService, logger arbor.ILogger) *Generator {
	return &Generator{
		llm:    llm,
		logger: logger,
	}
}

// Generate asks the model for up to maxAnalysts personas and parses the reply.
// The result holds between 1 and maxAnalysts analysts.
func (g *Generator) Generate(ctx context.Context, topic string, maxAnalysts int, feedback string) ([]models.Analyst, error) {
	if maxAnalysts < 1 {
		maxAnalysts = 1
	}

	editorial := strings.TrimSpace(feedback)
	if editorial == "" {
		editorial = "None provided."
	}

	messages := []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: fmt.Sprintf(analystInstructions, topic, editorial, maxAnalysts)},
		{Role: interfaces.RoleUser, Content: "Generate the set of analysts."},
	}

	startTime := time.Now()
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, common.NewGenerationError(StageCreateAnalysts, err)
	}

	analysts := ParseWithLimit(raw, maxAnalysts)
	if len(analysts) > maxAnalysts {
		analysts = analysts[:maxAnalysts]
	}

	g.logger.Info().
		Str("topic", topic).
		Int("requested", maxAnalysts).
		Int("analysts", len(analysts)).
		Bool("has_feedback", feedback != "").
		Dur("duration", time.Since(startTime)).
		Msg("Analyst personas generated")

	return analysts, nil
}
