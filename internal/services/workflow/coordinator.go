// Package workflow owns the research runs: it starts them, re-runs them on
// feedback, reports their status and exports completed reports.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/models"
	"github.com/ternarybob/roundtable/internal/services/report"
	"golang.org/x/sync/singleflight"
)

// PersonaGenerator creates the analysts for a topic
type PersonaGenerator interface {
	Generate(ctx context.Context, topic string, maxAnalysts int, feedback string) ([]models.Analyst, error)
}

// InterviewRunner interviews one analyst and returns their section
type InterviewRunner interface {
	Run(ctx context.Context, state *models.InterviewState) (string, error)
}

// ReportWriter drafts the report body and its framing
type ReportWriter interface {
	WriteBody(ctx context.Context, topic string, sections []string) (string, error)
	WriteIntroduction(ctx context.Context, topic string, sections []string) (string, error)
	WriteConclusion(ctx context.Context, topic string, sections []string) (string, error)
}

// Exporter writes finished reports to disk and serves them back by file name
type Exporter interface {
	Export(ctx context.Context, runID, topic, report string) (*models.ExportResult, error)
	Read(name string) ([]byte, error)
}

// runEntry guards one run. running is true while an execution is in flight;
// generation counts executions so a stale export never lands on a newer run.
type runEntry struct {
	mu         sync.Mutex
	state      models.RunState
	running    bool
	generation int
	exported   bool
}

// Coordinator is the run table plus the components that execute runs
type Coordinator struct {
	personas  PersonaGenerator
	interview InterviewRunner
	writer    ReportWriter
	exporter  Exporter
	config    *common.InterviewConfig
	logger    arbor.ILogger

	mu      sync.RWMutex
	runs    map[string]*runEntry
	exports singleflight.Group
}

// NewCoordinator creates a coordinator with an empty run table
func NewCoordinator(
	personas PersonaGenerator,
	interview InterviewRunner,
	writer ReportWriter,
	exporter Exporter,
	config *common.InterviewConfig,
	logger arbor.ILogger,
) *Coordinator {
	return &Coordinator{
		personas:  personas,
		interview: interview,
		writer:    writer,
		exporter:  exporter,
		config:    config,
		logger:    logger,
		runs:      make(map[string]*runEntry),
	}
}

// Start validates the request, records the run as in progress and launches
// its execution in the background. maxAnalysts of 0 selects the configured default.
func (c *Coordinator) Start(ctx context.Context, topic string, maxAnalysts int) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", common.NewValidationError("topic is required")
	}
	if maxAnalysts == 0 {
		maxAnalysts = c.config.DefaultAnalysts
	}
	if maxAnalysts < 1 || maxAnalysts > c.config.MaxAnalystsLimit {
		return "", common.NewValidationError("max_analysts must be between 1 and %d, got %d", c.config.MaxAnalystsLimit, maxAnalysts)
	}

	runID := common.NewRunID()
	entry := &runEntry{
		state: models.RunState{
			RunID:       runID,
			Topic:       topic,
			MaxAnalysts: maxAnalysts,
			Status:      models.RunStatusInProgress,
			StartTime:   time.Now(),
		},
		running:    true,
		generation: 1,
	}

	c.mu.Lock()
	c.runs[runID] = entry
	c.mu.Unlock()

	c.logger.Info().
		Str("run_id", runID).
		Str("topic", topic).
		Int("max_analysts", maxAnalysts).
		Msg("Research run started")

	c.launch(runID, entry, 1)
	return runID, nil
}

// SubmitFeedback re-runs a finished run from scratch with feedback injected
// into persona generation. A run still executing is rejected with ErrRunInProgress.
func (c *Coordinator) SubmitFeedback(ctx context.Context, runID, feedback string) error {
	entry, err := c.entry(runID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	if entry.running {
		entry.mu.Unlock()
		return common.ErrRunInProgress
	}
	if !entry.state.Status.CanTransition(models.RunStatusInProgress) {
		status := entry.state.Status
		entry.mu.Unlock()
		return common.NewValidationError("run %s cannot restart from status %s", runID, status)
	}

	entry.generation++
	generation := entry.generation
	entry.running = true
	entry.exported = false
	entry.state = models.RunState{
		RunID:       runID,
		Topic:       entry.state.Topic,
		MaxAnalysts: entry.state.MaxAnalysts,
		Feedback:    feedback,
		Status:      models.RunStatusInProgress,
		StartTime:   time.Now(),
	}
	entry.mu.Unlock()

	c.logger.Info().
		Str("run_id", runID).
		Int("generation", generation).
		Msg("Feedback received, re-running research")

	c.launch(runID, entry, generation)
	return nil
}

// Status returns a snapshot of the run. The first observation of a completed
// run exports the report; later calls return the cached paths.
func (c *Coordinator) Status(ctx context.Context, runID string) (models.RunState, error) {
	entry, err := c.entry(runID)
	if err != nil {
		return models.RunState{}, err
	}

	entry.mu.Lock()
	needsExport := entry.state.Status == models.RunStatusCompleted && !entry.exported
	generation := entry.generation
	topic := entry.state.Topic
	finalReport := entry.state.FinalReport
	entry.mu.Unlock()

	if needsExport {
		c.exportOnce(ctx, runID, entry, generation, topic, finalReport)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Clone(), nil
}

// exportOnce exports one completion. Concurrent pollers of the same
// completion share a single export.
func (c *Coordinator) exportOnce(ctx context.Context, runID string, entry *runEntry, generation int, topic, finalReport string) {
	key := fmt.Sprintf("%s#%d", runID, generation)
	_, _, _ = c.exports.Do(key, func() (interface{}, error) {
		entry.mu.Lock()
		done := entry.exported || entry.generation != generation
		entry.mu.Unlock()
		if done {
			return nil, nil
		}

		result, err := c.exporter.Export(context.WithoutCancel(ctx), runID, topic, finalReport)
		if err != nil {
			c.logger.Error().
				Str("run_id", runID).
				Err(err).
				Msg("Report export failed")
		}
		if result == nil {
			result = &models.ExportResult{}
		}

		entry.mu.Lock()
		defer entry.mu.Unlock()
		if entry.generation == generation {
			entry.exported = true
			entry.state.Exports = result
		}
		return nil, nil
	})
}

// Download returns an exported document by its file name
func (c *Coordinator) Download(ctx context.Context, fileName string) ([]byte, error) {
	return c.exporter.Read(fileName)
}

// List returns snapshots of every run, newest first
func (c *Coordinator) List() []models.RunState {
	c.mu.RLock()
	entries := make([]*runEntry, 0, len(c.runs))
	for _, entry := range c.runs {
		entries = append(entries, entry)
	}
	c.mu.RUnlock()

	states := make([]models.RunState, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		states = append(states, entry.state.Clone())
		entry.mu.Unlock()
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].StartTime.After(states[j].StartTime)
	})
	return states
}

func (c *Coordinator) entry(runID string) (*runEntry, error) {
	c.mu.RLock()
	entry, ok := c.runs[runID]
	c.mu.RUnlock()
	if !ok {
		return nil, common.NewNotFoundError("run %s not found", runID)
	}
	return entry, nil
}

// launch executes the run in a panic-protected goroutine. Runs are not tied to
// the request that started them.
func (c *Coordinator) launch(runID string, entry *runEntry, generation int) {
	common.SafeGo(c.logger, "run:"+runID, func() {
		c.execute(context.Background(), runID, entry, generation)
	}, func(recovered interface{}) {
		c.finish(entry, generation, nil, "", fmt.Errorf("panic during run: %v", recovered))
	})
}

// execute runs personas, every interview in analyst order, then the report
func (c *Coordinator) execute(ctx context.Context, runID string, entry *runEntry, generation int) {
	startTime := time.Now()

	entry.mu.Lock()
	topic := entry.state.Topic
	maxAnalysts := entry.state.MaxAnalysts
	feedback := entry.state.Feedback
	entry.mu.Unlock()

	analysts, err := c.personas.Generate(ctx, topic, maxAnalysts, feedback)
	if err != nil {
		c.finish(entry, generation, nil, "", err)
		return
	}

	entry.mu.Lock()
	if entry.generation == generation {
		entry.state.Analysts = analysts
	}
	entry.mu.Unlock()

	c.logger.Info().
		Str("run_id", runID).
		Int("analysts", len(analysts)).
		Msg("Analysts created")

	sections := make([]string, 0, len(analysts))
	for _, analyst := range analysts {
		state := models.NewInterviewState(analyst, c.config.MaxTurns)
		section, err := c.interview.Run(ctx, state)
		if err != nil {
			c.finish(entry, generation, nil, "", fmt.Errorf("interview with %s: %w", analyst.Name, err))
			return
		}
		sections = append(sections, section)
	}

	finalReport, err := c.compose(ctx, topic, sections)
	if err != nil {
		c.finish(entry, generation, nil, "", err)
		return
	}

	c.finish(entry, generation, sections, finalReport, nil)

	c.logger.Info().
		Str("run_id", runID).
		Int("sections", len(sections)).
		Dur("duration", time.Since(startTime)).
		Msg("Research run completed")
}

// compose writes the body, introduction and conclusion and assembles them
func (c *Coordinator) compose(ctx context.Context, topic string, sections []string) (string, error) {
	body, err := c.writer.WriteBody(ctx, topic, sections)
	if err != nil {
		return "", err
	}
	introduction, err := c.writer.WriteIntroduction(ctx, topic, sections)
	if err != nil {
		return "", err
	}
	conclusion, err := c.writer.WriteConclusion(ctx, topic, sections)
	if err != nil {
		return "", err
	}
	return report.Finalize(body, introduction, conclusion), nil
}

// finish moves the run to its terminal status. Results of a superseded
// generation are dropped.
func (c *Coordinator) finish(entry *runEntry, generation int, sections []string, finalReport string, runErr error) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.generation != generation || !entry.running {
		return
	}

	now := time.Now()
	entry.running = false
	entry.state.EndTime = &now

	if runErr != nil {
		entry.state.Status = models.RunStatusError
		entry.state.Error = runErr.Error()
		entry.state.Sections = nil
		entry.state.FinalReport = ""
		c.logger.Error().
			Str("run_id", entry.state.RunID).
			Str("stage", common.StageOf(runErr)).
			Err(runErr).
			Msg("Research run failed")
		return
	}

	entry.state.Status = models.RunStatusCompleted
	entry.state.Sections = sections
	entry.state.FinalReport = finalReport
}

// Prune evicts finished runs whose execution ended before now minus
// olderThan. Runs in flight are never evicted. Returns the number removed.
func (c *Coordinator) Prune(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for runID, entry := range c.runs {
		entry.mu.Lock()
		expired := !entry.running && entry.state.EndTime != nil && entry.state.EndTime.Before(cutoff)
		entry.mu.Unlock()
		if expired {
			delete(c.runs, runID)
			removed++
		}
	}
	return removed
}
