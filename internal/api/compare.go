package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maes-platform/compliance-core/internal/httpserver"
)

// handleCompare diffs two completed assessments control-by-control (spec
// §4.I "POST /compliance/compare/{baselineId}/{currentId}").
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	baselineID, ok := parseUUIDParam(w, chi.URLParam(r, "baselineId"))
	if !ok {
		return
	}
	currentID, ok := parseUUIDParam(w, chi.URLParam(r, "currentId"))
	if !ok {
		return
	}

	diff, err := h.comparator.Compare(r.Context(), baselineID, currentID)
	if err != nil {
		respondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, diff)
}
