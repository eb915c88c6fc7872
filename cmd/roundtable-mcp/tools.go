package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createStartResearchTool returns the start_research tool definition
func createStartResearchTool() mcp.Tool {
	return mcp.NewTool("start_research",
		mcp.WithDescription("Start a research run: analysts are generated for the topic, interviewed with web search, and their findings assembled into a report"),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Research topic"),
		),
		mcp.WithNumber("max_analysts",
			mcp.Description("Number of analysts to interview (default from config)"),
		),
	)
}

// createSubmitFeedbackTool returns the submit_feedback tool definition
func createSubmitFeedbackTool() mcp.Tool {
	return mcp.NewTool("submit_feedback",
		mcp.WithDescription("Re-run a finished research run from scratch with editorial feedback for the analyst selection"),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID returned by start_research"),
		),
		mcp.WithString("feedback",
			mcp.Required(),
			mcp.Description("Feedback, for example which perspectives to add or drop"),
		),
	)
}

// createGetRunStatusTool returns the get_run_status tool definition
func createGetRunStatusTool() mcp.Tool {
	return mcp.NewTool("get_run_status",
		mcp.WithDescription("Get the status of a research run; a completed run includes the final report and exported document paths"),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID returned by start_research"),
		),
	)
}
