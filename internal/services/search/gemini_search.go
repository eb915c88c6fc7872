package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"github.com/ternarybob/roundtable/internal/services/llm"
	"google.golang.org/genai"
)

// GeminiClientProvider supplies a Gemini client; llm.ProviderFactory satisfies it
type GeminiClientProvider interface {
	GetGeminiClient(ctx context.Context) (*genai.Client, error)
}

// GeminiSearchService answers queries with Gemini GoogleSearch grounding and
// turns the grounding chunks into search results.
type GeminiSearchService struct {
	clients    GeminiClientProvider
	model      string
	maxResults int
	retry      *llm.RetryConfig
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.WebSearchService = (*GeminiSearchService)(nil)

// NewGeminiSearchService creates a grounded search service
func NewGeminiSearchService(clients GeminiClientProvider, model string, maxResults int, logger arbor.ILogger) *GeminiSearchService {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &GeminiSearchService{
		clients:    clients,
		model:      model,
		maxResults: maxResults,
		retry:      llm.NewDefaultRetryConfig(),
		logger:     logger,
	}
}

// Name identifies the backend
func (s *GeminiSearchService) Name() string {
	return "gemini"
}

// Search runs one grounded generation and returns one result per web source
func (s *GeminiSearchService) Search(ctx context.Context, query string) ([]interfaces.SearchResult, error) {
	client, err := s.clients.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	prompt := fmt.Sprintf(`You are a research assistant. Today's date is %s.
Search the web and answer the following query with specific facts and data.

Query: %s`, time.Now().Format("January 2, 2006"), query)

	var resp *genai.GenerateContentResponse
	var apiErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(
			ctx,
			s.model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
			config,
		)
		if apiErr == nil {
			break
		}

		if llm.IsQuotaExhaustedError(apiErr) || attempt == s.retry.MaxRetries {
			break
		}

		backoff := s.retry.BackoffFor(attempt, apiErr)
		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Str("query", query).
			Err(apiErr).
			Msg("Retrying grounded web search")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if apiErr != nil {
		return nil, fmt.Errorf("grounded search failed: %w", apiErr)
	}

	results := groundedResults(resp, s.maxResults)

	s.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Gemini grounded search completed")

	return results, nil
}

// groundedResults maps grounding chunks to results. A chunk's content is the
// answer text it supports, or its title when no segment references it.
func groundedResults(resp *genai.GenerateContentResponse, maxResults int) []interfaces.SearchResult {
	results := []interfaces.SearchResult{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return results
	}

	candidate := resp.Candidates[0]
	gm := candidate.GroundingMetadata
	if gm == nil || len(gm.GroundingChunks) == 0 {
		text := strings.TrimSpace(resp.Text())
		if text != "" {
			results = append(results, interfaces.SearchResult{Content: text})
		}
		return results
	}

	supported := make(map[int][]string)
	for _, support := range gm.GroundingSupports {
		if support == nil || support.Segment == nil || support.Segment.Text == "" {
			continue
		}
		for _, idx := range support.GroundingChunkIndices {
			supported[int(idx)] = append(supported[int(idx)], support.Segment.Text)
		}
	}

	for i, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		content := strings.Join(supported[i], " ")
		if content == "" {
			content = chunk.Web.Title
		}
		results = append(results, interfaces.SearchResult{
			URL:     chunk.Web.URI,
			Title:   chunk.Web.Title,
			Content: content,
		})
		if len(results) == maxResults {
			break
		}
	}

	return results
}
