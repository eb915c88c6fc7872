package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/models"
)

func TestWebSocketHandler_StreamsUntilTerminal(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.states["run_1"] = []models.RunState{
		{RunID: "run_1", Status: models.RunStatusInProgress},
		{RunID: "run_1", Status: models.RunStatusInProgress},
		{RunID: "run_1", Status: models.RunStatusInProgress},
		{RunID: "run_1", Status: models.RunStatusInProgress, Analysts: []models.Analyst{{Name: "Ada Lovelace"}}},
		{RunID: "run_1", Status: models.RunStatusCompleted, FinalReport: "# Report"},
	}

	handler := NewWebSocketHandler(coordinator, arbor.NewLogger(), 5*time.Millisecond)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleRunStream))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/runs/run_1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var statuses []models.RunStatus
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected read error: %v", err)
			break
		}
		require.Equal(t, "run", msg.Type)

		var state RunResponse
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		statuses = append(statuses, state.Status)
	}

	// unchanged snapshots are not resent
	assert.Equal(t, []models.RunStatus{
		models.RunStatusInProgress,
		models.RunStatusInProgress,
		models.RunStatusCompleted,
	}, statuses)
}

func TestWebSocketHandler_UnknownRun(t *testing.T) {
	handler := NewWebSocketHandler(newFakeCoordinator(), arbor.NewLogger(), time.Millisecond)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleRunStream))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/runs/run_missing"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
