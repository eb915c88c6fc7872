package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const writeWait = 10 * time.Second

// WSMessage is the envelope pushed to run subscribers
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketHandler streams run snapshots on /ws/runs/{id}. A snapshot is sent
// whenever the run changes; the connection closes after a terminal status.
type WebSocketHandler struct {
	coordinator ResearchCoordinator
	logger      arbor.ILogger
	interval    time.Duration
}

func NewWebSocketHandler(coordinator ResearchCoordinator, logger arbor.ILogger, interval time.Duration) *WebSocketHandler {
	if interval <= 0 {
		interval = time.Second
	}
	return &WebSocketHandler{
		coordinator: coordinator,
		logger:      logger,
		interval:    interval,
	}
}

// HandleRunStream upgrades the connection and polls the run until it finishes
func (h *WebSocketHandler) HandleRunStream(w http.ResponseWriter, r *http.Request) {
	segments := PathSegments(r.URL.Path, "/ws/runs/")
	if len(segments) != 1 {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	runID := segments[0]

	// Unknown runs are rejected before the upgrade
	if _, err := h.coordinator.Status(r.Context(), runID); err != nil {
		WriteServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader detects the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug().Str("run_id", runID).Msg("Run stream opened")

	limiter := rate.NewLimiter(rate.Every(h.interval), 1)
	var last []byte
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		state, err := h.coordinator.Status(ctx, runID)
		if err != nil {
			h.send(conn, WSMessage{Type: "error", Payload: err.Error()})
			return
		}

		payload, err := json.Marshal(newRunResponse(state))
		if err != nil {
			h.logger.Error().Str("run_id", runID).Err(err).Msg("Failed to encode run snapshot")
			return
		}
		if !bytes.Equal(payload, last) {
			if !h.send(conn, WSMessage{Type: "run", Payload: json.RawMessage(payload)}) {
				return
			}
			last = payload
		}

		if state.Status.IsTerminal() {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(state.Status)))
			h.logger.Debug().Str("run_id", runID).Str("status", string(state.Status)).Msg("Run stream closed")
			return
		}
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg WSMessage) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug().Err(err).Msg("Run stream write failed")
		return false
	}
	return true
}
