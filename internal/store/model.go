// Package store persists the Compliance Assessment Core's entities (spec
// §3) to the single "maes" Postgres schema via hand-written pgx queries.
//
// A code generator (sqlc) is not invoked here: the
// teacher generates its internal/db package from .sql files with a tool
// this build does not run. The pgx usage pattern (pool.Query,
// explicit struct scanning) is the same idiom the teacher's generated code
// itself produces.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CredentialKind distinguishes how a Tenant authenticates to Microsoft Graph.
type CredentialKind string

const (
	CredentialSecret CredentialKind = "secret"
	CredentialCert   CredentialKind = "certificate"
)

// Credentials is the value object attached to a Tenant (spec §3). The
// certificate body itself is never persisted — only a reference to where it
// lives (file path or external key-store id).
type Credentials struct {
	Kind          CredentialKind `json:"kind"`
	ClientID      string         `json:"clientId"`
	ClientSecret  string         `json:"clientSecret,omitempty"`
	CertReference string         `json:"certReference,omitempty"`
}

// Tenant is the external-identity record an assessment runs against.
type Tenant struct {
	ID               uuid.UUID   `json:"id"`
	DisplayName      string      `json:"displayName"`
	DirectoryTenantID string     `json:"directoryTenantId"`
	DomainFQDN       string      `json:"domainFqdn"`
	Credentials      Credentials `json:"credentials"`
	Active           bool        `json:"active"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// BenchmarkKind identifies which control set an assessment or schedule runs.
type BenchmarkKind string

const (
	BenchmarkCISv3   BenchmarkKind = "cisV3"
	BenchmarkCISv4   BenchmarkKind = "cisV4"
	BenchmarkCustom  BenchmarkKind = "custom"
)

// Severity classifies a control's importance; level2 controls carry a 1.5x
// weight multiplier in weighted scoring (spec §4.C).
type Severity string

const (
	SeverityLevel1 Severity = "level1"
	SeverityLevel2 Severity = "level2"
)

// ControlDefinition is a single benchmark control (Catalog, spec §4.B).
type ControlDefinition struct {
	ID              string          `json:"id"`
	BenchmarkKind   BenchmarkKind   `json:"benchmarkKind"`
	Section         string          `json:"section"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Rationale       string          `json:"rationale"`
	Remediation     string          `json:"remediation"`
	Severity        Severity        `json:"severity"`
	Weight          float64         `json:"weight"`
	ExpectedResult  json.RawMessage `json:"expectedResult"`
	CheckerKey      string          `json:"checkerKey"`
	Active          bool            `json:"active"`
}

// EffectiveWeight returns the scoring weight including the severity multiplier.
func (c ControlDefinition) EffectiveWeight() float64 {
	w := c.Weight
	if w <= 0 {
		w = 1.0
	}
	if c.Severity == SeverityLevel2 {
		w *= 1.5
	}
	return w
}

// AssessmentStatus is the lifecycle state of an Assessment (spec §4.C).
type AssessmentStatus string

const (
	StatusPending   AssessmentStatus = "pending"
	StatusRunning   AssessmentStatus = "running"
	StatusCompleted AssessmentStatus = "completed"
	StatusFailed    AssessmentStatus = "failed"
	StatusCancelled AssessmentStatus = "cancelled"
)

// Totals tallies control results by outcome status.
type Totals struct {
	Total         int `json:"total"`
	Compliant     int `json:"compliant"`
	NonCompliant  int `json:"nonCompliant"`
	ManualReview  int `json:"manualReview"`
	NotApplicable int `json:"notApplicable"`
	Error         int `json:"error"`
}

// Assessment is one execution of a benchmark against one tenant (spec §3).
type Assessment struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenantId"`
	BenchmarkKind  BenchmarkKind    `json:"benchmarkKind"`
	Name           string           `json:"name"`
	TriggeredBy    string           `json:"triggeredBy"`
	Status         AssessmentStatus `json:"status"`
	Progress       int              `json:"progress"`
	Totals         Totals           `json:"totals"`
	OverallScore   float64          `json:"overallScore"`
	WeightedScore  float64          `json:"weightedScore"`
	StartedAt      *time.Time       `json:"startedAt,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	DurationSeconds int             `json:"durationSeconds"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	Parameters     json.RawMessage  `json:"parameters,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// ControlResultStatus is the outcome of one checker on one assessment.
type ControlResultStatus string

const (
	ResultCompliant     ControlResultStatus = "compliant"
	ResultNonCompliant  ControlResultStatus = "nonCompliant"
	ResultManualReview  ControlResultStatus = "manualReview"
	ResultNotApplicable ControlResultStatus = "notApplicable"
	ResultError         ControlResultStatus = "error"
)

// maxEvidenceBytes bounds the ControlResult.Evidence column (spec §4.C).
const maxEvidenceBytes = 64 * 1024

// ControlResult is the outcome of one checker on one control for one
// assessment (spec §3). Invariant: at most one per (assessmentId, controlDefinitionId).
type ControlResult struct {
	ID                  uuid.UUID           `json:"id"`
	AssessmentID        uuid.UUID           `json:"assessmentId"`
	ControlDefinitionID string              `json:"controlDefinitionId"`
	BenchmarkKind       BenchmarkKind       `json:"benchmarkKind"`
	Status              ControlResultStatus `json:"status"`
	Score               float64             `json:"score"`
	ActualResult        json.RawMessage     `json:"actualResult,omitempty"`
	Evidence            json.RawMessage     `json:"evidence,omitempty"`
	RemediationGuidance string              `json:"remediationGuidance,omitempty"`
	ErrorMessage        string              `json:"errorMessage,omitempty"`
	CheckedAt           time.Time           `json:"checkedAt"`
}

// BoundEvidence truncates evidence to maxEvidenceBytes with a truncation marker.
func BoundEvidence(raw json.RawMessage) json.RawMessage {
	if len(raw) <= maxEvidenceBytes {
		return raw
	}
	truncated := append([]byte{}, raw[:maxEvidenceBytes]...)
	marker, _ := json.Marshal(map[string]any{
		"_truncated": true,
		"data":       string(truncated),
	})
	return marker
}

// Frequency is a Schedule's recurrence cadence (spec §4.F).
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Schedule is a recurring rule that enqueues assessments automatically.
type Schedule struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenantId"`
	Name            string          `json:"name"`
	BenchmarkKind   BenchmarkKind   `json:"benchmarkKind"`
	Frequency       Frequency       `json:"frequency"`
	Active          bool            `json:"active"`
	NextRunAt       *time.Time      `json:"nextRunAt,omitempty"`
	LastRunAt       *time.Time      `json:"lastRunAt,omitempty"`
	LastAssessmentID *uuid.UUID     `json:"lastAssessmentId,omitempty"`
	Parameters      json.RawMessage `json:"parameters,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ReportFormat is the rendering format of a generated Report.
type ReportFormat string

const (
	ReportHTML ReportFormat = "html"
	ReportJSON ReportFormat = "json"
	ReportCSV  ReportFormat = "csv"
	ReportPDF  ReportFormat = "pdf"
)

// ReportKind distinguishes a full report from an executive summary.
type ReportKind string

const (
	ReportFull      ReportKind = "full"
	ReportExecutive ReportKind = "executive"
)

// Report is a materialized rendering of a completed Assessment.
type Report struct {
	ID           uuid.UUID    `json:"id"`
	AssessmentID uuid.UUID    `json:"assessmentId"`
	Format       ReportFormat `json:"format"`
	Kind         ReportKind   `json:"reportKind"`
	ArtifactPath string       `json:"artifactPath"`
	FileName     string       `json:"fileName"`
	SizeBytes    int64        `json:"sizeBytes"`
	CreatedAt    time.Time    `json:"createdAt"`
}
