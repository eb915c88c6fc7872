package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/roundtable/internal/app"
	"github.com/ternarybob/roundtable/internal/common"
)

func main() {
	var configFiles []string
	if configPath := os.Getenv("ROUNDTABLE_CONFIG"); configPath != "" {
		configFiles = append(configFiles, configPath)
	} else if _, err := os.Stat("roundtable.toml"); err == nil {
		configFiles = append(configFiles, "roundtable.toml")
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Keep stdio quiet for the protocol

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"roundtable",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createStartResearchTool(), handleStartResearch(application.Coordinator, logger))
	mcpServer.AddTool(createSubmitFeedbackTool(), handleSubmitFeedback(application.Coordinator, logger))
	mcpServer.AddTool(createGetRunStatusTool(), handleGetRunStatus(application.Coordinator, logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
