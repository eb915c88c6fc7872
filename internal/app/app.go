package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/handlers"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"github.com/ternarybob/roundtable/internal/services/export"
	"github.com/ternarybob/roundtable/internal/services/interview"
	"github.com/ternarybob/roundtable/internal/services/llm"
	"github.com/ternarybob/roundtable/internal/services/personas"
	"github.com/ternarybob/roundtable/internal/services/report"
	"github.com/ternarybob/roundtable/internal/services/search"
	"github.com/ternarybob/roundtable/internal/services/workflow"
)

// streamInterval is how often run streams poll for changes
const streamInterval = time.Second

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Collaborators
	LLMService    *llm.ProviderFactory
	SearchService interfaces.WebSearchService

	// Pipeline services
	PersonaGenerator *personas.Generator
	ReportWriter     *report.Writer
	InterviewService *interview.Pipeline
	ExportService    *export.Service

	// Run table
	Coordinator *workflow.Coordinator
	Sweeper     *workflow.Sweeper

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	ResearchHandler *handlers.ResearchHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Str("search_provider", app.SearchService.Name()).
		Str("output_dir", cfg.Export.OutputDir).
		Msg("Application initialization complete")

	return app, nil
}

// initServices builds the pipeline from the leaves up:
// llm -> search -> report writer -> interview -> personas -> export -> coordinator -> sweeper
func (a *App) initServices() error {
	a.LLMService = llm.NewProviderFactory(a.Config, a.Logger)

	searchService, err := search.NewWebSearchService(a.Config, a.LLMService, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create web search service: %w", err)
	}
	a.SearchService = searchService

	a.ReportWriter = report.NewWriter(a.LLMService, a.Logger)
	a.InterviewService = interview.NewPipeline(a.LLMService, a.SearchService, a.ReportWriter, a.Logger)
	a.PersonaGenerator = personas.NewGenerator(a.LLMService, a.Logger)
	a.ExportService = export.NewService(&a.Config.Export, export.NewFileSink(), a.Logger)

	a.Coordinator = workflow.NewCoordinator(
		a.PersonaGenerator,
		a.InterviewService,
		a.ReportWriter,
		a.ExportService,
		&a.Config.Interview,
		a.Logger,
	)

	retention, err := time.ParseDuration(a.Config.Interview.RunRetention)
	if err != nil {
		return fmt.Errorf("invalid interview.run_retention: %w", err)
	}
	a.Sweeper = workflow.NewSweeper(a.Coordinator, retention, a.Logger)
	if err := a.Sweeper.Start(a.Config.Interview.SweepSchedule); err != nil {
		return fmt.Errorf("failed to start run sweeper: %w", err)
	}

	a.Logger.Debug().
		Bool("pdf", a.Config.Export.PDF).
		Bool("docx", a.Config.Export.DOCX).
		Int("max_turns", a.Config.Interview.MaxTurns).
		Msg("Research pipeline initialized")

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.LLMService, a.Logger)
	a.ResearchHandler = handlers.NewResearchHandler(a.Coordinator, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.Coordinator, a.Logger, streamInterval)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}
	return nil
}
