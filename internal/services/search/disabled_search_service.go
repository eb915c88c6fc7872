package search

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/interfaces"
)

// DisabledSearchService is used when web search is switched off.
// Every query returns zero results, so interviews proceed on the no-results placeholder.
type DisabledSearchService struct {
	logger arbor.ILogger
}

// NewDisabledSearchService creates a search service that never finds anything
func NewDisabledSearchService(logger arbor.ILogger) interfaces.WebSearchService {
	return &DisabledSearchService{
		logger: logger,
	}
}

// Search returns an empty result set
func (s *DisabledSearchService) Search(ctx context.Context, query string) ([]interfaces.SearchResult, error) {
	s.logger.Debug().
		Str("query", query).
		Msg("Web search disabled, returning no results")
	return []interfaces.SearchResult{}, nil
}

// Name identifies the backend
func (s *DisabledSearchService) Name() string {
	return "disabled"
}
