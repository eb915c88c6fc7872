package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/models"
)

// researchRunner is the part of the coordinator the tools drive
type researchRunner interface {
	Start(ctx context.Context, topic string, maxAnalysts int) (string, error)
	SubmitFeedback(ctx context.Context, runID, feedback string) error
	Status(ctx context.Context, runID string) (models.RunState, error)
}

// handleStartResearch implements the start_research tool
func handleStartResearch(runner researchRunner, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic, err := request.RequireString("topic")
		if err != nil || topic == "" {
			return mcp.NewToolResultError("Error: topic parameter is required"), nil
		}
		maxAnalysts := request.GetInt("max_analysts", 0)

		runID, err := runner.Start(ctx, topic, maxAnalysts)
		if err != nil {
			logger.Warn().Err(err).Msg("start_research rejected")
			return mcp.NewToolResultError(fmt.Sprintf("Could not start research: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Research started.\n\n**Run ID:** %s\n**Status:** %s\n\nPoll get_run_status until the run completes.",
			runID, models.RunStatusInProgress)), nil
	}
}

// handleSubmitFeedback implements the submit_feedback tool
func handleSubmitFeedback(runner researchRunner, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := request.RequireString("run_id")
		if err != nil || runID == "" {
			return mcp.NewToolResultError("Error: run_id parameter is required"), nil
		}
		feedback, err := request.RequireString("feedback")
		if err != nil || feedback == "" {
			return mcp.NewToolResultError("Error: feedback parameter is required"), nil
		}

		if err := runner.SubmitFeedback(ctx, runID, feedback); err != nil {
			logger.Warn().Str("run_id", runID).Err(err).Msg("submit_feedback rejected")
			return mcp.NewToolResultError(fmt.Sprintf("Could not submit feedback: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Feedback accepted. Run %s is re-running from scratch.", runID)), nil
	}
}

// handleGetRunStatus implements the get_run_status tool
func handleGetRunStatus(runner researchRunner, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := request.RequireString("run_id")
		if err != nil || runID == "" {
			return mcp.NewToolResultError("Error: run_id parameter is required"), nil
		}

		state, err := runner.Status(ctx, runID)
		if err != nil {
			logger.Debug().Str("run_id", runID).Err(err).Msg("get_run_status failed")
			return mcp.NewToolResultError(fmt.Sprintf("Run not available: %v", err)), nil
		}

		return mcp.NewToolResultText(formatRunState(state)), nil
	}
}
