package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	// DefaultTavilyURL is the Tavily search endpoint.
	DefaultTavilyURL = "https://api.tavily.com/search"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2

	// DefaultMaxResults is the number of results requested per query.
	DefaultMaxResults = 3
)

// TavilyClient is a web search client for the Tavily API.
type TavilyClient struct {
	url        string
	apiKey     string
	maxResults int
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// Compile-time assertion
var _ interfaces.WebSearchService = (*TavilyClient)(nil)

// TavilyOption configures the TavilyClient.
type TavilyOption func(*TavilyClient)

// WithURL sets a custom endpoint.
func WithURL(url string) TavilyOption {
	return func(c *TavilyClient) {
		if url != "" {
			c.url = url
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) TavilyOption {
	return func(c *TavilyClient) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) TavilyOption {
	return func(c *TavilyClient) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) TavilyOption {
	return func(c *TavilyClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithMaxResults sets how many results each query asks for.
func WithMaxResults(maxResults int) TavilyOption {
	return func(c *TavilyClient) {
		if maxResults > 0 {
			c.maxResults = maxResults
		}
	}
}

// NewTavilyClient creates a new Tavily search client.
func NewTavilyClient(apiKey string, opts ...TavilyOption) *TavilyClient {
	c := &TavilyClient{
		url:        DefaultTavilyURL,
		apiKey:     apiKey,
		maxResults: DefaultMaxResults,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-200 response from the Tavily API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tavily API error: %s (status %d)", e.Message, e.StatusCode)
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

// Name identifies the backend
func (c *TavilyClient) Name() string {
	return "tavily"
}

// Search runs one query. Zero hits return an empty slice and no error.
func (c *TavilyClient) Search(ctx context.Context, query string) ([]interfaces.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  c.maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("query", query).
			Int("max_results", c.maxResults).
			Msg("Tavily search request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
		}
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]interfaces.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, interfaces.SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Content: NormalizeContent(r.Content, r.URL),
		})
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("query", query).
			Int("results", len(results)).
			Msg("Tavily search completed")
	}

	return results, nil
}
