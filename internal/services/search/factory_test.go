package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"google.golang.org/genai"
)

func TestNewWebSearchService(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("disabled provider", func(t *testing.T) {
		config := common.NewDefaultConfig()
		config.Search.Provider = common.SearchProviderDisabled

		service, err := NewWebSearchService(config, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, "disabled", service.Name())

		results, err := service.Search(context.Background(), "anything")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("tavily without key falls back to disabled", func(t *testing.T) {
		t.Setenv("TAVILY_API_KEY", "")
		config := common.NewDefaultConfig()

		service, err := NewWebSearchService(config, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, "disabled", service.Name())
	})

	t.Run("tavily with key", func(t *testing.T) {
		t.Setenv("TAVILY_API_KEY", "tvly-test")
		config := common.NewDefaultConfig()

		service, err := NewWebSearchService(config, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, "tavily", service.Name())
	})

	t.Run("gemini requires a client provider", func(t *testing.T) {
		config := common.NewDefaultConfig()
		config.Search.Provider = common.SearchProviderGemini

		_, err := NewWebSearchService(config, nil, logger)
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		config := common.NewDefaultConfig()
		config.Search.Provider = "bing"

		_, err := NewWebSearchService(config, nil, logger)
		assert.Error(t, err)
	})
}

func TestGroundedResults(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText("Adoption doubled. Costs fell.", genai.RoleModel),
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://example.com/a", Title: "a.com"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b", Title: "b.com"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://example.com/c", Title: "c.com"}},
				},
				GroundingSupports: []*genai.GroundingSupport{
					{Segment: &genai.Segment{Text: "Adoption doubled."}, GroundingChunkIndices: []int32{0}},
					{Segment: &genai.Segment{Text: "Costs fell."}, GroundingChunkIndices: []int32{0, 1}},
				},
			},
		}},
	}

	results := groundedResults(resp, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.com/a", results[0].URL)
	assert.Equal(t, "Adoption doubled. Costs fell.", results[0].Content)
	assert.Equal(t, "Costs fell.", results[1].Content)

	all := groundedResults(resp, 5)
	require.Len(t, all, 3)
	assert.Equal(t, "c.com", all[2].Content, "unsupported chunk falls back to its title")
}

func TestGroundedResults_NoGrounding(t *testing.T) {
	assert.Empty(t, groundedResults(nil, 3))
	assert.Empty(t, groundedResults(&genai.GenerateContentResponse{}, 3))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText("Plain answer", genai.RoleModel),
		}},
	}
	results := groundedResults(resp, 3)
	require.Len(t, results, 1)
	assert.Equal(t, "Plain answer", results[0].Content)
}
