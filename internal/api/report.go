package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/maes-platform/compliance-core/internal/httpserver"
	"github.com/maes-platform/compliance-core/pkg/report"
)

// handleGenerateReport renders and persists a report artifact for a
// completed assessment (spec §4.I "POST /assessment/{id}/report").
func (h *Handler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req generateReportRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	rep, err := h.report.Generate(r.Context(), id, req.Format, req.Kind, report.Options{
		ExecutiveOnly: req.ExecutiveOnly,
	})
	if err != nil {
		respondErr(w, err)
		return
	}

	h.audit.LogFromRequest(r, "generate", "report", id, nil)

	httpserver.Respond(w, http.StatusCreated, rep)
}

// handleListReports lists the report artifacts generated for an assessment
// (spec §4.I "GET /assessment/{id}/reports").
func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	reports, err := h.store.ListReports(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, reports)
}

// contentTypeFor maps a report format to the Content-Type of its artifact
// download (spec §4.I "correct content-type per format").
func contentTypeFor(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	case "html":
		return "text/html"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// handleDownloadReport streams a previously generated report artifact from
// disk (spec §4.I "GET .../download"). A 404 is returned both when the
// catalog row is absent and when the file itself is missing from disk, so
// the two failure modes are indistinguishable to the caller.
func (h *Handler) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	fileName := chi.URLParam(r, "fileName")

	rep, err := h.store.GetReportByFileName(r.Context(), id, fileName)
	if err != nil {
		respondErr(w, err)
		return
	}

	data, err := os.ReadFile(rep.ArtifactPath)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, "not_found", "report artifact is missing from disk")
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(string(rep.Format)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+rep.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
