package api

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/store"
)

// startAssessmentRequest is the body of POST /assessment/start.
type startAssessmentRequest struct {
	TenantID      uuid.UUID           `json:"tenantId" validate:"required"`
	BenchmarkKind store.BenchmarkKind `json:"benchmarkKind" validate:"required,oneof=cisV3 cisV4 custom"`
	Name          string              `json:"name"`
	TriggeredBy   string              `json:"triggeredBy" validate:"required"`
	Priority      int                 `json:"priority" validate:"omitempty,min=1,max=9"`
}

// startAssessmentResponse is returned by POST /assessment/start.
type startAssessmentResponse struct {
	JobID string `json:"jobId"`
}

// getAssessmentResponse is returned by GET /assessment/{id}.
type getAssessmentResponse struct {
	Assessment store.Assessment      `json:"assessment"`
	Results    []store.ControlResult `json:"results"`
}

// generateReportRequest is the body of POST /assessment/{id}/report.
type generateReportRequest struct {
	Format        store.ReportFormat `json:"format" validate:"required,oneof=json csv html pdf"`
	Kind          store.ReportKind   `json:"reportKind" validate:"required,oneof=full executive"`
	ExecutiveOnly bool                `json:"executiveOnly"`
}

// createScheduleRequest is the body of POST /schedule.
type createScheduleRequest struct {
	TenantID      uuid.UUID           `json:"tenantId" validate:"required"`
	Name          string              `json:"name" validate:"required"`
	BenchmarkKind store.BenchmarkKind `json:"benchmarkKind" validate:"required,oneof=cisV3 cisV4 custom"`
	Frequency     store.Frequency     `json:"frequency" validate:"required,oneof=daily weekly monthly quarterly"`
	CreatedBy     string              `json:"createdBy"`
	Parameters    json.RawMessage     `json:"parameters,omitempty"`
}

// updateScheduleRequest is the body of PUT /schedule/{id}.
type updateScheduleRequest struct {
	Name          string              `json:"name" validate:"required"`
	BenchmarkKind store.BenchmarkKind `json:"benchmarkKind" validate:"required,oneof=cisV3 cisV4 custom"`
	Frequency     store.Frequency     `json:"frequency" validate:"required,oneof=daily weekly monthly quarterly"`
	Active        bool                `json:"active"`
	Parameters    json.RawMessage     `json:"parameters,omitempty"`
}
