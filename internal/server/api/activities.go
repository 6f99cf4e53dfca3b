package api

import (
	"net/http"

	"github.com/ayusman/posecoach/internal/activity"
)

// ActivityHandler serves the activity registry.
type ActivityHandler struct {
	registry *activity.Registry
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(reg *activity.Registry) *ActivityHandler {
	return &ActivityHandler{registry: reg}
}

type listActivitiesResponse struct {
	Activities []activity.Definition `json:"activities"`
}

// ServeHTTP handles GET /api/activities and GET /api/activities/{key}.
func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := splitPath(r.URL.Path, "/api/activities")
	switch len(parts) {
	case 0:
		writeJSON(w, http.StatusOK, listActivitiesResponse{Activities: h.registry.All()})
	case 1:
		def, ok := h.registry.Get(parts[0])
		if !ok {
			writeError(w, http.StatusNotFound, "Activity not found")
			return
		}
		writeJSON(w, http.StatusOK, def)
	default:
		http.NotFound(w, r)
	}
}
