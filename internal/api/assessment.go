package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/httpserver"
	"github.com/maes-platform/compliance-core/pkg/queue"
)

// handleStartAssessment enqueues a job and returns its job id (spec §4.I
// "POST /assessment/start"). The Assessment row itself is created later by
// the Worker once it dequeues the job (spec §4.E), not here — but the
// assessment id is minted up front so it can be threaded through the job
// as the idempotence key (spec §4.D).
func (h *Handler) handleStartAssessment(w http.ResponseWriter, r *http.Request) {
	var req startAssessmentRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.store.GetTenant(r.Context(), req.TenantID); err != nil {
		respondErr(w, err)
		return
	}

	priority := req.Priority
	if priority == 0 {
		priority = defaultAssessmentPriority
	}

	var params json.RawMessage
	job := queue.Job{
		AssessmentID:  uuid.New().String(),
		TenantID:      req.TenantID.String(),
		BenchmarkKind: string(req.BenchmarkKind),
		Name:          req.Name,
		TriggeredBy:   req.TriggeredBy,
		Priority:      priority,
		Parameters:    params,
	}

	jobID, err := h.queue.Enqueue(r.Context(), job)
	if err != nil {
		respondErr(w, err)
		return
	}

	h.audit.LogFromRequest(r, "start", "assessment", req.TenantID, nil)

	httpserver.Respond(w, http.StatusAccepted, startAssessmentResponse{JobID: jobID})
}

// handleGetAssessment returns an assessment plus its control results (spec
// §4.I "GET /assessment/{id}").
func (h *Handler) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	a, err := h.store.GetAssessment(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	results, err := h.store.ListControlResults(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, getAssessmentResponse{
		Assessment: *a,
		Results:    results,
	})
}
