package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/posecoach/internal/app"
	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/store"
)

// Controller runs live sessions. It is implemented by app.App.
type Controller interface {
	Start(name string) (string, error)
	Stop() (scoring.SessionSummary, error)
	StartTrial(activity string) error
	StopTrial() (*scoring.SetSummary, error)
	SessionID() string
	Status() (coach.TrialStatus, bool)
}

// SessionHandler handles session resources.
type SessionHandler struct {
	store *store.Store
	ctrl  Controller
	log   *slog.Logger
}

// NewSessionHandler creates a SessionHandler. ctrl is optional; without it sessions are
// read-only.
func NewSessionHandler(st *store.Store, ctrl Controller, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{store: st, ctrl: ctrl, log: logger}
}

// ServeHTTP routes:
//
//	GET    /api/sessions
//	POST   /api/sessions                {name, activity}
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/stop
//	POST   /api/sessions/{id}/trial     {activity}
//	DELETE /api/sessions/{id}/trial
//	GET    /api/sessions/{id}/sets
//	GET    /api/sessions/{id}/reps
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/sessions")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, parts[0])
		case http.MethodDelete:
			h.delete(w, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	case 2:
	default:
		http.NotFound(w, r)
		return
	}

	id := parts[0]
	switch sub := parts[1]; {
	case sub == "stop" && r.Method == http.MethodPost:
		h.stop(w, id)
	case sub == "trial" && r.Method == http.MethodPost:
		h.startTrial(w, r, id)
	case sub == "trial" && r.Method == http.MethodDelete:
		h.stopTrial(w, id)
	case sub == "sets" && r.Method == http.MethodGet:
		h.sets(w, id)
	case sub == "reps" && r.Method == http.MethodGet:
		h.reps(w, id)
	case sub == "stop" || sub == "trial" || sub == "sets" || sub == "reps":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

type createSessionRequest struct {
	Name     string `json:"name"`
	Activity string `json:"activity"`
}

type trialRequest struct {
	Activity string `json:"activity"`
}

type sessionResponse struct {
	*store.Session
	Active  bool                   `json:"active"`
	Trial   *coach.TrialStatus     `json:"trial,omitempty"`
	Summary scoring.SessionSummary `json:"summary"`
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type setsResponse struct {
	Sets []*store.Set `json:"sets"`
}

type repsResponse struct {
	Reps []*store.Rep `json:"reps"`
}

func (h *SessionHandler) list(w http.ResponseWriter) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		h.log.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "Live coaching is not available")
		return
	}

	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id, err := h.ctrl.Start(req.Name)
	if err != nil {
		h.controllerError(w, err)
		return
	}
	if req.Activity != "" {
		if err := h.ctrl.StartTrial(req.Activity); err != nil {
			// A rejected activity must not leave a live session behind.
			if _, stopErr := h.ctrl.Stop(); stopErr != nil {
				h.log.Error("failed to stop session after trial error", "session", id, "error", stopErr)
			}
			h.controllerError(w, err)
			return
		}
	}
	h.respondSession(w, http.StatusCreated, id)
}

func (h *SessionHandler) get(w http.ResponseWriter, id string) {
	h.respondSession(w, http.StatusOK, id)
}

func (h *SessionHandler) respondSession(w http.ResponseWriter, status int, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Session not found")
		return
	}
	sums, err := h.store.Sets().Summaries(id)
	if err != nil {
		h.storeError(w, err, "")
		return
	}

	resp := sessionResponse{Session: sess, Summary: scoring.SummarizeSession(sums)}
	if h.isLive(id) {
		resp.Active = true
		if st, ok := h.ctrl.Status(); ok {
			resp.Trial = &st
		}
	}
	writeJSON(w, status, resp)
}

func (h *SessionHandler) delete(w http.ResponseWriter, id string) {
	if h.isLive(id) {
		writeError(w, http.StatusConflict, "Session is running")
		return
	}
	if err := h.store.Sessions().Delete(id); err != nil {
		h.storeError(w, err, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) stop(w http.ResponseWriter, id string) {
	if h.isLive(id) {
		if _, err := h.ctrl.Stop(); err != nil {
			h.controllerError(w, err)
			return
		}
	} else if err := h.store.Sessions().End(id, time.Now().UTC()); err != nil {
		h.storeError(w, err, "Session not found")
		return
	}
	h.respondSession(w, http.StatusOK, id)
}

func (h *SessionHandler) startTrial(w http.ResponseWriter, r *http.Request, id string) {
	if !h.isLive(id) {
		writeError(w, http.StatusConflict, "Session is not running")
		return
	}
	var req trialRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Activity == "" {
		writeError(w, http.StatusBadRequest, "Activity is required")
		return
	}
	if err := h.ctrl.StartTrial(req.Activity); err != nil {
		h.controllerError(w, err)
		return
	}
	st, _ := h.ctrl.Status()
	writeJSON(w, http.StatusOK, st)
}

func (h *SessionHandler) stopTrial(w http.ResponseWriter, id string) {
	if !h.isLive(id) {
		writeError(w, http.StatusConflict, "Session is not running")
		return
	}
	sum, err := h.ctrl.StopTrial()
	if err != nil {
		h.controllerError(w, err)
		return
	}
	if sum == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *SessionHandler) sets(w http.ResponseWriter, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		h.storeError(w, err, "Session not found")
		return
	}
	sets, err := h.store.Sets().ListBySession(id)
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	if sets == nil {
		sets = []*store.Set{}
	}
	writeJSON(w, http.StatusOK, setsResponse{Sets: sets})
}

func (h *SessionHandler) reps(w http.ResponseWriter, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		h.storeError(w, err, "Session not found")
		return
	}
	reps, err := h.store.Reps().ListBySession(id)
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	if reps == nil {
		reps = []*store.Rep{}
	}
	writeJSON(w, http.StatusOK, repsResponse{Reps: reps})
}

func (h *SessionHandler) isLive(id string) bool {
	return h.ctrl != nil && id != "" && h.ctrl.SessionID() == id
}

func (h *SessionHandler) storeError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) && notFound != "" {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	h.log.Error("store error", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal error")
}

func (h *SessionHandler) controllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coach.ErrUnknownActivity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrAlreadyRunning), errors.Is(err, app.ErrNotRunning), errors.Is(err, coach.ErrNoTrial):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("controller error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
