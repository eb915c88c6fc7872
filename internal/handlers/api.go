package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
)

// APIHandler serves version, health and unknown API paths
type APIHandler struct {
	logger arbor.ILogger
	llm    HealthChecker
}

func NewAPIHandler(llm HealthChecker, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		logger: logger,
		llm:    llm,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status. ?deep=true also checks the
// language model provider.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if r.URL.Query().Get("deep") == "true" && h.llm != nil {
		if err := h.llm.HealthCheck(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("LLM health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"llm":    err.Error(),
			})
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
