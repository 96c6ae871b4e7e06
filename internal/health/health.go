// Package health serves the MeetPoint liveness and readiness probes.
//
//   - /healthz — liveness; a process that can still answer HTTP is alive,
//     so this always returns 200.
//   - /readyz  — readiness; 200 only while every registered [Checker]
//     passes. The server registers the saved-venue database and the
//     configured model providers here, so a venue store that lost its file
//     or a deployment with no providers reports not-ready instead of
//     serving 502s.
//
// Responses are JSON: a top-level "status" ("ok" or "fail") and a "checks"
// map with one entry per named checker.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check. A venue-store ping that
// takes longer than this counts as a failure.
const checkTimeout = 5 * time.Second

// Checker is one named readiness check.
type Checker struct {
	// Name keys the check in the JSON response, e.g. "database" for the
	// saved-venue store or "providers" for the model backends.
	Name string

	// Check probes the dependency. Nil means healthy. It must respect
	// context cancellation.
	Check func(ctx context.Context) error
}

// report is the JSON body of both probes.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler answers the probe routes. The checker list is fixed at
// construction; Handler itself is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] evaluating the given checkers, in order, on each
// /readyz request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: "ok"})
}

// Readyz runs every checker under a [checkTimeout] deadline derived from the
// request context and answers 200 or 503 with the per-check results.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks, ready := h.runChecks(r.Context())

	res := report{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !ready {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// runChecks evaluates the checkers sequentially. Every check runs even after
// a failure so the response names all unhealthy dependencies at once.
func (h *Handler) runChecks(parent context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(h.checkers))
	ready := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(parent, checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			ready = false
			continue
		}
		checks[c.Name] = "ok"
	}
	return checks, ready
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
