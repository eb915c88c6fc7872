package main

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/models"
)

type fakeRunner struct {
	started     []string
	maxAnalysts int
	feedback    map[string]string
	states      map[string]models.RunState
	startErr    error
	feedbackErr error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		feedback: make(map[string]string),
		states:   make(map[string]models.RunState),
	}
}

func (f *fakeRunner) Start(ctx context.Context, topic string, maxAnalysts int) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, topic)
	f.maxAnalysts = maxAnalysts
	return "run_abc", nil
}

func (f *fakeRunner) SubmitFeedback(ctx context.Context, runID, feedback string) error {
	if f.feedbackErr != nil {
		return f.feedbackErr
	}
	f.feedback[runID] = feedback
	return nil
}

func (f *fakeRunner) Status(ctx context.Context, runID string) (models.RunState, error) {
	state, ok := f.states[runID]
	if !ok {
		return models.RunState{}, common.NewNotFoundError("run %s not found", runID)
	}
	return state, nil
}

func callTool(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleStartResearch(t *testing.T) {
	runner := newFakeRunner()
	handler := handleStartResearch(runner, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{
		"topic":        "Remote work",
		"max_analysts": float64(2),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "run_abc")
	assert.Equal(t, []string{"Remote work"}, runner.started)
	assert.Equal(t, 2, runner.maxAnalysts)
}

func TestHandleStartResearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		startErr error
		want     string
	}{
		{"missing topic", map[string]any{}, nil, "topic parameter is required"},
		{"empty topic", map[string]any{"topic": ""}, nil, "topic parameter is required"},
		{"rejected", map[string]any{"topic": "AI"}, common.NewValidationError("max_analysts out of range"), "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.startErr = tt.startErr
			result, err := handleStartResearch(runner, arbor.NewLogger())(context.Background(), callTool(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestHandleSubmitFeedback(t *testing.T) {
	runner := newFakeRunner()
	handler := handleSubmitFeedback(runner, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{
		"run_id":   "run_abc",
		"feedback": "add an economist",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "add an economist", runner.feedback["run_abc"])

	result, err = handler(context.Background(), callTool(map[string]any{"run_id": "run_abc"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "feedback parameter is required")

	runner.feedbackErr = common.ErrRunInProgress
	result, err = handler(context.Background(), callTool(map[string]any{
		"run_id":   "run_abc",
		"feedback": "again",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetRunStatus(t *testing.T) {
	runner := newFakeRunner()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	runner.states["run_abc"] = models.RunState{
		RunID:       "run_abc",
		Topic:       "Remote work",
		Status:      models.RunStatusCompleted,
		StartTime:   start,
		EndTime:     &end,
		Analysts:    []models.Analyst{{Name: "Ada", Role: "Economist", Affiliation: "LSE"}},
		FinalReport: "# Remote work\n\nFindings",
		Exports: &models.ExportResult{
			DOCXPath: "out/remote_work.docx",
			PDFPath:  "out/remote_work.pdf",
			PDFPages: 3,
		},
	}
	handler := handleGetRunStatus(runner, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{"run_id": "run_abc"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "**Status:** completed")
	assert.Contains(t, text, "1m30s")
	assert.Contains(t, text, "1. **Ada**, Economist (LSE)")
	assert.Contains(t, text, "- PDF: out/remote_work.pdf (3 pages)")
	assert.Contains(t, text, "# Remote work\n\nFindings")

	result, err = handler(context.Background(), callTool(map[string]any{"run_id": "run_missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestFormatRunState_Error(t *testing.T) {
	text := formatRunState(models.RunState{
		RunID:  "run_x",
		Topic:  "AI",
		Status: models.RunStatusError,
		Error:  "interview with Ada: search failed",
	})
	assert.Contains(t, text, "**Error:** interview with Ada: search failed")
	assert.NotContains(t, text, "## Documents")
}
