package handlers

import (
	"context"

	"github.com/ternarybob/roundtable/internal/models"
)

// ResearchCoordinator is the run table the HTTP and WebSocket handlers drive
type ResearchCoordinator interface {
	Start(ctx context.Context, topic string, maxAnalysts int) (string, error)
	SubmitFeedback(ctx context.Context, runID, feedback string) error
	Status(ctx context.Context, runID string) (models.RunState, error)
	Download(ctx context.Context, fileName string) ([]byte, error)
	List() []models.RunState
}

// HealthChecker reports whether the language model is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
