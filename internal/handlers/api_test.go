package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestAPIHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		llm    HealthChecker
		path   string
		status int
		body   string
	}{
		{"shallow", stubHealth{err: errors.New("down")}, "/api/health", http.StatusOK, `"ok"`},
		{"deep healthy", stubHealth{}, "/api/health?deep=true", http.StatusOK, `"ok"`},
		{"deep degraded", stubHealth{err: errors.New("api key rejected")}, "/api/health?deep=true", http.StatusServiceUnavailable, "api key rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAPIHandler(tt.llm, arbor.NewLogger())
			rec := serve(h.HealthHandler, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAPIHandler_Version(t *testing.T) {
	h := NewAPIHandler(nil, arbor.NewLogger())

	rec := serve(h.VersionHandler, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)

	rec = serve(h.VersionHandler, http.MethodPost, "/api/version", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
