package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/recording"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/store"
)

var errInvalidJSON = errors.New("invalid JSON")

// SessionFactory creates a fresh coaching session.
type SessionFactory func() (*coach.Session, error)

// AnalyzeHandler runs recorded frames through a new coaching session.
type AnalyzeHandler struct {
	newSession SessionFactory
	store      *store.Store
	log        *slog.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler. st is optional and only used when a
// request asks for its results to be saved.
func NewAnalyzeHandler(factory SessionFactory, st *store.Store, logger *slog.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHandler{newSession: factory, store: st, log: logger}
}

type analyzeRequest struct {
	Activity string          `json:"activity"`
	Name     string          `json:"name"`
	Save     bool            `json:"save"`
	Frames   []detector.Pose `json:"frames"`
}

type analyzeResponse struct {
	SessionID string                 `json:"session_id,omitempty"`
	Frames    int                    `json:"frames"`
	Reps      []coach.RepResult      `json:"reps"`
	Sets      []scoring.SetSummary   `json:"sets"`
	Summary   scoring.SessionSummary `json:"summary"`
}

// ServeHTTP handles POST /api/analyze.
//
// The body is either JSON {"activity", "frames", "save", "name"} or, with Content-Type
// application/x-ndjson, a recording whose activity, name and save come from the query string.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := h.parse(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Activity == "" {
		writeError(w, http.StatusBadRequest, "Activity is required")
		return
	}
	if req.Save && h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Storage is not configured")
		return
	}

	sess, err := h.newSession()
	if err != nil {
		h.log.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if err := sess.StartTrial(req.Activity); err != nil {
		if errors.Is(err, coach.ErrUnknownActivity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := analyzeResponse{Frames: len(req.Frames), Reps: []coach.RepResult{}}
	for _, p := range req.Frames {
		res := sess.Ingest(p)
		if res.Rep != nil {
			resp.Reps = append(resp.Reps, *res.Rep)
		}
	}
	sess.StopTrial()
	resp.Sets = sess.Sets()
	resp.Summary = sess.Summary()

	if req.Save {
		id, err := h.save(req, resp)
		if err != nil {
			h.log.Error("failed to save analysis", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save analysis")
			return
		}
		resp.SessionID = id
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalyzeHandler) parse(w http.ResponseWriter, r *http.Request) (analyzeRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-ndjson") {
		q := r.URL.Query()
		frames, err := recording.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			return analyzeRequest{}, err
		}
		return analyzeRequest{
			Activity: q.Get("activity"),
			Name:     q.Get("name"),
			Save:     q.Get("save") == "true" || q.Get("save") == "1",
			Frames:   frames,
		}, nil
	}

	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return analyzeRequest{}, errInvalidJSON
	}
	return req, nil
}

func (h *AnalyzeHandler) save(req analyzeRequest, resp analyzeResponse) (string, error) {
	rec := &store.Session{Name: req.Name, Source: store.SourceReplay}
	if err := h.store.Sessions().Create(rec); err != nil {
		return "", err
	}
	for _, rep := range resp.Reps {
		if err := h.store.Reps().Create(store.NewRep(rec.ID, req.Activity, rep)); err != nil {
			return "", err
		}
	}
	for _, set := range resp.Sets {
		if _, err := h.store.Sets().Create(rec.ID, set); err != nil {
			return "", err
		}
	}
	if err := h.store.Sessions().End(rec.ID, rec.StartedAt); err != nil {
		return "", err
	}
	return rec.ID, nil
}
