package search

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/interfaces"
)

// NewWebSearchService creates a web search service based on configuration.
// Supported providers:
//   - "tavily": Tavily search API (default)
//   - "gemini": Gemini with GoogleSearch grounding
//   - "disabled": no results, interviews answer without web context
//
// A missing Tavily key downgrades to the disabled service with a warning.
func NewWebSearchService(
	config *common.Config,
	gemini GeminiClientProvider,
	logger arbor.ILogger,
) (interfaces.WebSearchService, error) {
	switch config.Search.Provider {
	case common.SearchProviderTavily, "":
		apiKey, err := common.ResolveAPIKey("tavily_api_key", config.Search.TavilyAPIKey)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("Tavily API key not configured: web search disabled")
			return NewDisabledSearchService(logger), nil
		}

		timeout, err := time.ParseDuration(config.Search.Timeout)
		if err != nil {
			timeout = DefaultTimeout
		}

		logger.Info().
			Str("provider", "tavily").
			Int("max_results", config.Search.MaxResults).
			Int("rate_limit", config.Search.RateLimit).
			Msg("Initializing web search service")

		return NewTavilyClient(apiKey,
			WithURL(config.Search.TavilyURL),
			WithHTTPClient(&http.Client{Timeout: timeout}),
			WithRateLimit(config.Search.RateLimit),
			WithMaxResults(config.Search.MaxResults),
			WithLogger(logger),
		), nil

	case common.SearchProviderGemini:
		if gemini == nil {
			return nil, fmt.Errorf("gemini search requires a Gemini client provider")
		}
		logger.Info().
			Str("provider", "gemini").
			Str("model", config.Gemini.Model).
			Msg("Initializing web search service")
		return NewGeminiSearchService(gemini, config.Gemini.Model, config.Search.MaxResults, logger), nil

	case common.SearchProviderDisabled:
		logger.Warn().
			Str("provider", "disabled").
			Msg("Web search explicitly disabled via configuration")
		return NewDisabledSearchService(logger), nil

	default:
		return nil, fmt.Errorf("unknown search provider '%s'", config.Search.Provider)
	}
}
