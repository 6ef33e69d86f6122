package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testServiceToken = "test-token"

func newTestHandler() *Handler {
	return New(nil, nil, nil, nil, nil, nil, noopLogger(), testServiceToken)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodGet, "/scheduler/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHealthRequiresNoToken(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestStartAssessment_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty body", ``, http.StatusBadRequest},
		{"invalid JSON", `{bad}`, http.StatusBadRequest},
		{"missing tenantId", `{"benchmarkKind":"cisV3","triggeredBy":"test"}`, http.StatusUnprocessableEntity},
		{"invalid benchmarkKind", `{"tenantId":"3fa85f64-5717-4562-b3fc-2c963f66afa6","benchmarkKind":"bogus","triggeredBy":"test"}`, http.StatusUnprocessableEntity},
	}

	h := newTestHandler()
	router := h.Routes()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/assessment/start", strings.NewReader(tt.body))
			r.Header.Set("X-Service-Token", testServiceToken)
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestGetAssessment_InvalidID(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodGet, "/assessment/not-a-uuid", nil)
	r.Header.Set("X-Service-Token", testServiceToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCompare_InvalidIDs(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodPost, "/compliance/compare/not-a-uuid/also-not-a-uuid", nil)
	r.Header.Set("X-Service-Token", testServiceToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListSchedules_MissingTenantID(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	r.Header.Set("X-Service-Token", testServiceToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListSchedules_InvalidTenantID(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodGet, "/schedules?tenantId=not-a-uuid", nil)
	r.Header.Set("X-Service-Token", testServiceToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteSchedule_InvalidID(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodDelete, "/schedule/not-a-uuid", nil)
	r.Header.Set("X-Service-Token", testServiceToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateSchedule_ValidationError(t *testing.T) {
	h := newTestHandler()
	router := h.Routes()

	r := httptest.NewRequest(http.MethodPut, "/schedule/3fa85f64-5717-4562-b3fc-2c963f66afa6", strings.NewReader(`{"name":""}`))
	r.Header.Set("X-Service-Token", testServiceToken)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d; body = %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"json":  "application/json",
		"csv":   "text/csv",
		"html":  "text/html",
		"pdf":   "application/pdf",
		"weird": "application/octet-stream",
	}
	for format, want := range cases {
		if got := contentTypeFor(format); got != want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", format, got, want)
		}
	}
}
