package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestTavilyClient_Search(t *testing.T) {
	var received tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": "solar adoption",
			"results": [
				{"title": "Report", "url": "https://example.com/a", "content": "Adoption doubled.", "score": 0.9},
				{"title": "News", "url": "https://example.com/b", "content": "Costs fell.", "score": 0.7}
			]
		}`))
	}))
	defer server.Close()

	client := NewTavilyClient("test-key",
		WithURL(server.URL),
		WithMaxResults(2),
		WithLogger(arbor.NewLogger()),
	)

	results, err := client.Search(context.Background(), "solar adoption")
	require.NoError(t, err)

	assert.Equal(t, "solar adoption", received.Query)
	assert.Equal(t, 2, received.MaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.com/a", results[0].URL)
	assert.Equal(t, "Adoption doubled.", results[0].Content)
	assert.Equal(t, "News", results[1].Title)
}

func TestTavilyClient_EmptyResultsAreNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query": "nothing", "results": []}`))
	}))
	defer server.Close()

	results, err := NewTavilyClient("k", WithURL(server.URL)).Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestTavilyClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewTavilyClient("bad", WithURL(server.URL)).Search(context.Background(), "q")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestTavilyClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTavilyClient("k", WithURL("http://127.0.0.1:0")).Search(ctx, "q")
	assert.Error(t, err)
}
