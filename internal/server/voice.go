package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/meetpoint-app/meetpoint/internal/voice"
)

func (s *Server) handleVoiceStart(w http.ResponseWriter, r *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "no live provider configured")
		return
	}

	if err := s.voice.Start(r.Context()); err != nil {
		if errors.Is(err, voice.ErrAlreadyActive) {
			writeError(w, http.StatusConflict, "voice session already active")
			return
		}
		writeError(w, http.StatusBadGateway, "voice start failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: s.voice.Status()})
}

func (s *Server) handleVoiceStop(w http.ResponseWriter, _ *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "no live provider configured")
		return
	}

	s.voice.Stop()
	writeJSON(w, http.StatusOK, statusResponse{Status: s.voice.Status()})
}

// statusResponse is the body of the voice status endpoints.
type statusResponse struct {
	Status     voice.Status `json:"status"`
	Transcript []voice.Turn `json:"transcript,omitempty"`
}

func (s *Server) handleVoiceStatus(w http.ResponseWriter, _ *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "no live provider configured")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:     s.voice.Status(),
		Transcript: s.voice.TranscriptSnapshot(),
	})
}

// handleVoiceEvents upgrades to WebSocket and streams status/transcript
// updates. The first message is a snapshot of the current state so clients
// can render immediately; afterwards one message per supervisor update.
func (s *Server) handleVoiceEvents(w http.ResponseWriter, r *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "no live provider configured")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("voice events: websocket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	updates, cancel := s.voice.Subscribe()
	defer cancel()

	ctx := r.Context()

	snapshot := voice.Update{
		Status:     s.voice.Status(),
		Transcript: s.voice.TranscriptSnapshot(),
	}
	if err := writeUpdate(ctx, conn, snapshot); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case u, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			if err := writeUpdate(ctx, conn, u); err != nil {
				// Client went away; the deferred close handles the rest.
				return
			}
		}
	}
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, u voice.Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
