// Package server exposes the MeetPoint HTTP API.
//
// Routes:
//
//   - POST   /api/venues/search      — ask the text model for meeting points
//   - GET    /api/venues/saved       — list saved venues
//   - PUT    /api/venues/saved       — save (upsert) a venue
//   - DELETE /api/venues/saved/{id}  — delete a saved venue by place ID
//   - POST   /api/chat               — text assistant exchange
//   - POST   /api/voice/start        — open the voice session
//   - POST   /api/voice/stop         — tear the voice session down
//   - GET    /api/voice/status       — current status + transcript snapshot
//   - GET    /api/voice/events       — WebSocket stream of status/transcript updates
//   - GET    /healthz, /readyz       — probes
//   - GET    /metrics                — Prometheus scrape endpoint
//
// Subsystems that are not configured (no text model, no live provider) yield
// 503 on their routes instead of failing at startup.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetpoint-app/meetpoint/internal/health"
	"github.com/meetpoint-app/meetpoint/internal/observe"
	"github.com/meetpoint-app/meetpoint/internal/venues"
	"github.com/meetpoint-app/meetpoint/internal/voice"
)

// Deps holds the subsystems the server routes to. Nil fields disable the
// corresponding routes with a 503 response.
type Deps struct {
	Voice   *voice.Supervisor
	Finder  *venues.Finder
	Store   *venues.Store
	Chat    *venues.Chat
	Health  *health.Handler
	Metrics *observe.Metrics
}

// Server dispatches the MeetPoint HTTP API to the underlying subsystems.
type Server struct {
	voice   *voice.Supervisor
	finder  *venues.Finder
	store   *venues.Store
	chat    *venues.Chat
	health  *health.Handler
	metrics *observe.Metrics
}

// New creates a Server from its dependencies.
func New(d Deps) *Server {
	return &Server{
		voice:   d.Voice,
		finder:  d.Finder,
		store:   d.Store,
		chat:    d.Chat,
		health:  d.Health,
		metrics: d.Metrics,
	}
}

// Handler builds the route table and wraps it in the observability
// middleware when metrics are configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/venues/search", s.handleVenueSearch)
	mux.HandleFunc("GET /api/venues/saved", s.handleVenueList)
	mux.HandleFunc("PUT /api/venues/saved", s.handleVenueSave)
	mux.HandleFunc("DELETE /api/venues/saved/{id}", s.handleVenueDelete)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("POST /api/voice/start", s.handleVoiceStart)
	mux.HandleFunc("POST /api/voice/stop", s.handleVoiceStop)
	mux.HandleFunc("GET /api/voice/status", s.handleVoiceStatus)
	mux.HandleFunc("GET /api/voice/events", s.handleVoiceEvents)

	if s.health != nil {
		s.health.Register(mux)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.metrics != nil {
		return observe.Middleware(s.metrics)(mux)
	}
	return mux
}

// errorBody is the JSON envelope for all error responses.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status code. On encoding failure it
// falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
