package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maes-platform/compliance-core/internal/httpserver"
	"github.com/maes-platform/compliance-core/internal/store"
)

// handleCreateSchedule creates a recurring schedule and arms its timer
// (spec §4.I "POST /schedule").
func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.store.GetTenant(r.Context(), req.TenantID); err != nil {
		respondErr(w, err)
		return
	}

	sch := store.Schedule{
		TenantID:      req.TenantID,
		Name:          req.Name,
		BenchmarkKind: req.BenchmarkKind,
		Frequency:     req.Frequency,
		Parameters:    req.Parameters,
		CreatedBy:     req.CreatedBy,
	}

	created, err := h.scheduler.CreateSchedule(r.Context(), sch)
	if err != nil {
		respondErr(w, err)
		return
	}

	h.audit.LogFromRequest(r, "create", "schedule", created.ID, nil)

	httpserver.Respond(w, http.StatusCreated, created)
}

// handleListSchedules lists a tenant's schedules (spec §4.I "GET
// /schedules"), scoped by the required tenantId query parameter.
func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	tenantIDParam := r.URL.Query().Get("tenantId")
	if tenantIDParam == "" {
		httpserver.RespondError(w, http.StatusBadRequest, "validation_error", "tenantId query parameter is required")
		return
	}
	tenantID, ok := parseUUIDParam(w, tenantIDParam)
	if !ok {
		return
	}

	schedules, err := h.scheduler.ListSchedules(r.Context(), tenantID)
	if err != nil {
		respondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, schedules)
}

// handleUpdateSchedule updates a schedule's definition and re-arms (or
// disarms, if deactivated) its timer (spec §4.I "PUT /schedule/{id}").
func (h *Handler) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req updateScheduleRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.store.GetSchedule(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	existing.Name = req.Name
	existing.BenchmarkKind = req.BenchmarkKind
	existing.Frequency = req.Frequency
	existing.Active = req.Active
	existing.Parameters = req.Parameters

	updated, err := h.scheduler.UpdateSchedule(r.Context(), *existing)
	if err != nil {
		respondErr(w, err)
		return
	}

	h.audit.LogFromRequest(r, "update", "schedule", updated.ID, nil)

	httpserver.Respond(w, http.StatusOK, updated)
}

// handleDeleteSchedule cancels a schedule's timer synchronously and removes
// it (spec §4.I "DELETE /schedule/{id}").
func (h *Handler) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.scheduler.DeleteSchedule(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}

	h.audit.LogFromRequest(r, "delete", "schedule", id, nil)

	w.WriteHeader(http.StatusNoContent)
}

// handleSchedulerStats reports live counters (spec §4.I "GET
// /scheduler/stats").
func (h *Handler) handleSchedulerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scheduler.Stats(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, stats)
}
