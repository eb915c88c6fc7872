package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/models"
)

// fakeCoordinator keeps runs in a map; Status walks a scripted sequence per run
type fakeCoordinator struct {
	mu        sync.Mutex
	started   []StartResearchRequest
	feedback  map[string]string
	states    map[string][]models.RunState
	polls     map[string]int
	files     map[string][]byte
	startErr  error
	feedbackE error
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{
		feedback: make(map[string]string),
		states:   make(map[string][]models.RunState),
		polls:    make(map[string]int),
		files:    make(map[string][]byte),
	}
}

func (f *fakeCoordinator) Start(ctx context.Context, topic string, maxAnalysts int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, StartResearchRequest{Topic: topic, MaxAnalysts: maxAnalysts})
	return "run_test", nil
}

func (f *fakeCoordinator) SubmitFeedback(ctx context.Context, runID, feedback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feedbackE != nil {
		return f.feedbackE
	}
	if _, ok := f.states[runID]; !ok {
		return common.NewNotFoundError("run %s not found", runID)
	}
	f.feedback[runID] = feedback
	return nil
}

func (f *fakeCoordinator) Status(ctx context.Context, runID string) (models.RunState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sequence, ok := f.states[runID]
	if !ok {
		return models.RunState{}, common.NewNotFoundError("run %s not found", runID)
	}
	i := f.polls[runID]
	if i >= len(sequence) {
		i = len(sequence) - 1
	}
	f.polls[runID]++
	return sequence[i], nil
}

func (f *fakeCoordinator) Download(ctx context.Context, fileName string) ([]byte, error) {
	if err := validateName(fileName); err != nil {
		return nil, err
	}
	data, ok := f.files[fileName]
	if !ok {
		return nil, common.NewNotFoundError("file %s not found", fileName)
	}
	return data, nil
}

func validateName(name string) error {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return common.NewValidationError("invalid file name")
	}
	return nil
}

func (f *fakeCoordinator) List() []models.RunState {
	f.mu.Lock()
	defer f.mu.Unlock()
	var runs []models.RunState
	for _, sequence := range f.states {
		runs = append(runs, sequence[len(sequence)-1])
	}
	return runs
}

func serve(handler http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestResearchHandler_Start(t *testing.T) {
	coordinator := newFakeCoordinator()
	h := NewResearchHandler(coordinator, arbor.NewLogger())

	rec := serve(h.StartHandler, http.MethodPost, "/api/research", `{"topic":"Remote work","max_analysts":2}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "run_test", body["run_id"])
	assert.Equal(t, "in_progress", body["status"])
	assert.Equal(t, []StartResearchRequest{{Topic: "Remote work", MaxAnalysts: 2}}, coordinator.started)
}

func TestResearchHandler_StartRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		body    string
		status  int
		message string
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed, "Method not allowed"},
		{"malformed json", http.MethodPost, `{"topic":`, http.StatusBadRequest, "Invalid request body"},
		{"missing topic", http.MethodPost, `{"max_analysts":2}`, http.StatusBadRequest, "topic failed required"},
		{"negative analysts", http.MethodPost, `{"topic":"AI","max_analysts":-1}`, http.StatusBadRequest, "max_analysts failed min=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coordinator := newFakeCoordinator()
			h := NewResearchHandler(coordinator, arbor.NewLogger())

			rec := serve(h.StartHandler, tt.method, "/api/research", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Empty(t, coordinator.started)
		})
	}
}

func TestResearchHandler_StartMapsServiceErrors(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.startErr = common.NewValidationError("max_analysts must be between 1 and 10, got 11")
	h := NewResearchHandler(coordinator, arbor.NewLogger())

	rec := serve(h.StartHandler, http.MethodPost, "/api/research", `{"topic":"AI","max_analysts":11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResearchHandler_RunRoutes(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.states["run_1"] = []models.RunState{{
		RunID:  "run_1",
		Topic:  "Remote work",
		Status: models.RunStatusCompleted,
		Exports: &models.ExportResult{
			Dir:      "/reports/remote_work_1",
			DOCXPath: "/reports/remote_work_1/remote_work_1.docx",
			PDFPath:  "/reports/remote_work_1/remote_work_1.pdf",
		},
	}}
	h := NewResearchHandler(coordinator, arbor.NewLogger())

	t.Run("status", func(t *testing.T) {
		rec := serve(h.RunRoutes, http.MethodGet, "/api/research/run_1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body RunResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "run_1", body.RunID)
		assert.Equal(t, models.RunStatusCompleted, body.Status)
		assert.Equal(t, map[string]string{
			"docx": "/api/download/remote_work_1.docx",
			"pdf":  "/api/download/remote_work_1.pdf",
		}, body.Downloads)
	})

	t.Run("unknown run", func(t *testing.T) {
		rec := serve(h.RunRoutes, http.MethodGet, "/api/research/run_missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("feedback", func(t *testing.T) {
		rec := serve(h.RunRoutes, http.MethodPost, "/api/research/run_1/feedback", `{"feedback":"add a regulator"}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "add a regulator", coordinator.feedback["run_1"])
	})

	t.Run("empty feedback", func(t *testing.T) {
		rec := serve(h.RunRoutes, http.MethodPost, "/api/research/run_1/feedback", `{"feedback":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown sub-route", func(t *testing.T) {
		rec := serve(h.RunRoutes, http.MethodGet, "/api/research/run_1/other", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestResearchHandler_FeedbackWhileRunning(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.states["run_1"] = []models.RunState{{RunID: "run_1", Status: models.RunStatusInProgress}}
	coordinator.feedbackE = common.ErrRunInProgress
	h := NewResearchHandler(coordinator, arbor.NewLogger())

	rec := serve(h.RunRoutes, http.MethodPost, "/api/research/run_1/feedback", `{"feedback":"more"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResearchHandler_List(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.states["run_1"] = []models.RunState{{RunID: "run_1", Status: models.RunStatusInProgress, StartTime: time.Now()}}
	h := NewResearchHandler(coordinator, arbor.NewLogger())

	rec := serve(h.ListHandler, http.MethodGet, "/api/research", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs  []RunResponse `json:"runs"`
		Count int           `json:"count"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "run_1", body.Runs[0].RunID)
}

func TestResearchHandler_Download(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.files["report.pdf"] = []byte("%PDF-1.3")
	h := NewResearchHandler(coordinator, arbor.NewLogger())

	rec := serve(h.DownloadHandler, http.MethodGet, "/api/download/report.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="report.pdf"`)
	assert.Equal(t, "%PDF-1.3", rec.Body.String())

	rec = serve(h.DownloadHandler, http.MethodGet, "/api/download/missing.docx", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h.DownloadHandler, http.MethodGet, "/api/download/..%2Fsecret.pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForError(common.ErrValidation))
	assert.Equal(t, http.StatusNotFound, StatusForError(common.NewNotFoundError("x")))
	assert.Equal(t, http.StatusConflict, StatusForError(common.ErrRunInProgress))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(common.NewExportError("pdf", assert.AnError)))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(assert.AnError))
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"run_1", "feedback"}, PathSegments("/api/research/run_1/feedback", "/api/research/"))
	assert.Equal(t, []string{"run_1"}, PathSegments("/api/research/run_1/", "/api/research/"))
	assert.Nil(t, PathSegments("/api/research/", "/api/research/"))
	assert.Nil(t, PathSegments("/other", "/api/research/"))
}
