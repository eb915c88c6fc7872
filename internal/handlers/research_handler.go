package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/models"
)

const maxRequestBytes = 1 << 20

// StartResearchRequest is the body of POST /api/research
type StartResearchRequest struct {
	Topic       string `json:"topic" validate:"required,max=500"`
	MaxAnalysts int    `json:"max_analysts" validate:"omitempty,min=1"`
}

// FeedbackRequest is the body of POST /api/research/{id}/feedback
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,max=4000"`
}

// RunResponse is a run snapshot plus download links for its documents
type RunResponse struct {
	models.RunState
	Downloads map[string]string `json:"downloads,omitempty"`
}

// ResearchHandler exposes the coordinator over HTTP
type ResearchHandler struct {
	coordinator ResearchCoordinator
	validate    *validator.Validate
	logger      arbor.ILogger
}

func NewResearchHandler(coordinator ResearchCoordinator, logger arbor.ILogger) *ResearchHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ResearchHandler{
		coordinator: coordinator,
		validate:    validate,
		logger:      logger,
	}
}

// StartHandler starts a run: POST /api/research
func (h *ResearchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req StartResearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	runID, err := h.coordinator.Start(r.Context(), req.Topic, req.MaxAnalysts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": string(models.RunStatusInProgress),
	})
}

// ListHandler lists every run: GET /api/research
func (h *ResearchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	runs := h.coordinator.List()
	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, newRunResponse(run))
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  responses,
		"count": len(responses),
	})
}

// StatusHandler returns one run: GET /api/research/{id}
func (h *ResearchHandler) StatusHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	state, err := h.coordinator.Status(r.Context(), runID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newRunResponse(state))
}

// FeedbackHandler re-runs a finished run: POST /api/research/{id}/feedback
func (h *ResearchHandler) FeedbackHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req FeedbackRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.coordinator.SubmitFeedback(r.Context(), runID, req.Feedback); err != nil {
		WriteServiceError(w, err)
		return
	}

	h.logger.Debug().Str("run_id", runID).Msg("Feedback accepted")
	WriteJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": string(models.RunStatusInProgress),
	})
}

// RunRoutes dispatches /api/research/{id} and /api/research/{id}/feedback
func (h *ResearchHandler) RunRoutes(w http.ResponseWriter, r *http.Request) {
	segments := PathSegments(r.URL.Path, "/api/research/")
	switch {
	case len(segments) == 1:
		h.StatusHandler(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "feedback":
		h.FeedbackHandler(w, r, segments[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// DownloadHandler serves an exported document: GET /api/download/{file}
func (h *ResearchHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/download/")
	data, err := h.coordinator.Download(r.Context(), name)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(name) {
	case ".docx":
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn().Str("file", name).Err(err).Msg("Failed to write download")
	}
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *ResearchHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return common.NewValidationError("%s", strings.Join(parts, "; ")).Error()
}

func newRunResponse(state models.RunState) RunResponse {
	resp := RunResponse{RunState: state}
	if state.Exports == nil {
		return resp
	}
	resp.Downloads = make(map[string]string)
	if state.Exports.DOCXPath != "" {
		resp.Downloads["docx"] = "/api/download/" + filepath.Base(state.Exports.DOCXPath)
	}
	if state.Exports.PDFPath != "" {
		resp.Downloads["pdf"] = "/api/download/" + filepath.Base(state.Exports.PDFPath)
	}
	return resp
}
