package workflow

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Pruner removes finished runs from the run table
type Pruner interface {
	Prune(olderThan time.Duration) int
}

// Sweeper evicts finished runs on a cron schedule so the run table stays bounded
type Sweeper struct {
	pruner    Pruner
	retention time.Duration
	cron      *cron.Cron
	logger    arbor.ILogger
}

// NewSweeper creates a sweeper. A zero retention disables eviction.
func NewSweeper(pruner Pruner, retention time.Duration, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		pruner:    pruner,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start schedules the sweep
func (s *Sweeper) Start(schedule string) error {
	if s.retention <= 0 {
		s.logger.Debug().Msg("Run retention disabled, sweeper not started")
		return nil
	}
	if schedule == "" {
		schedule = "@every 10m"
	}

	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule '%s': %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Dur("retention", s.retention).
		Msg("Run sweeper started")

	return nil
}

// Stop stops the schedule and waits for a running sweep
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep evicts expired runs now
func (s *Sweeper) Sweep() {
	if s.retention <= 0 {
		return
	}
	if removed := s.pruner.Prune(s.retention); removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Dur("retention", s.retention).
			Msg("Expired runs evicted")
	}
}
