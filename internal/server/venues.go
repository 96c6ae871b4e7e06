package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/meetpoint-app/meetpoint/internal/venues"
	"github.com/meetpoint-app/meetpoint/internal/voice"
)

// searchRequest is the body of POST /api/venues/search.
type searchRequest struct {
	LocationA    string         `json:"location_a"`
	LocationB    string         `json:"location_b"`
	TransitModes []string       `json:"transit_modes,omitempty"`
	Bias         *venues.Coords `json:"bias,omitempty"`
}

// searchResponse wraps the suggested venues.
type searchResponse struct {
	Venues []venues.Venue `json:"venues"`
}

func (s *Server) handleVenueSearch(w http.ResponseWriter, r *http.Request) {
	if s.finder == nil {
		writeError(w, http.StatusServiceUnavailable, "no text model configured")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.LocationA) == "" || strings.TrimSpace(req.LocationB) == "" {
		writeError(w, http.StatusBadRequest, "both locations are required")
		return
	}

	start := time.Now()
	found, err := s.finder.Find(r.Context(), venues.Query{
		LocationA:    req.LocationA,
		LocationB:    req.LocationB,
		TransitModes: req.TransitModes,
		Bias:         req.Bias,
	})
	if s.metrics != nil {
		s.metrics.RecordLLMRequest(r.Context(), "venue_search", time.Since(start).Seconds())
		if err != nil {
			s.metrics.RecordLLMError(r.Context(), "venue_search")
		}
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "venue search failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Venues: found})
}

func (s *Server) handleVenueList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "venue store unavailable")
		return
	}

	saved, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list venues: "+err.Error())
		return
	}
	if saved == nil {
		saved = []venues.Venue{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Venues: saved})
}

// saveResponse carries the key a saved venue was stored under.
type saveResponse struct {
	PlaceID string `json:"place_id"`
}

func (s *Server) handleVenueSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "venue store unavailable")
		return
	}

	var v venues.Venue
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(v.Name) == "" {
		writeError(w, http.StatusBadRequest, "venue name is required")
		return
	}

	id, err := s.store.Save(r.Context(), v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "save venue: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{PlaceID: id})
}

func (s *Server) handleVenueDelete(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "venue store unavailable")
		return
	}

	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, venues.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no saved venue with place_id "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "delete venue: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse carries the assistant's reply.
type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "no text model configured")
		return
	}
	// Text chat yields to the voice conversation while one is live.
	if s.voice != nil && s.voice.Status() != voice.StatusInactive {
		writeError(w, http.StatusConflict, "voice session active")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	start := time.Now()
	reply, err := s.chat.Send(r.Context(), req.Message)
	if s.metrics != nil {
		s.metrics.RecordLLMRequest(r.Context(), "chat", time.Since(start).Seconds())
		if err != nil {
			s.metrics.RecordLLMError(r.Context(), "chat")
		}
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "chat failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
