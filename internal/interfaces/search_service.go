package interfaces

import (
	"context"
)

// SearchResult is one web search hit
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// WebSearchService provides web search: invoke(queryText) -> sequence of {url, content}.
// An empty slice with a nil error means "no results"; an error is reserved for
// transport or provider failures.
type WebSearchService interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)

	// Name identifies the backend in logs ("tavily", "gemini", "disabled")
	Name() string
}
