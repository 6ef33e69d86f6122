// Package apperr defines the error taxonomy shared by every component
// (spec §7). Callers wrap a sentinel with context via fmt.Errorf("...: %w", ...)
// and callers up the stack match with errors.Is, mirroring the teacher's
// use of errors.Is(err, migrate.ErrNoChange).
package apperr

import (
	"errors"
	"net/http"
)

// Sentinel errors, one per machine code in spec.md §7.
var (
	ErrAuth            = errors.New("auth_error")
	ErrTokenExpired    = errors.New("token_expired")
	ErrRateLimited     = errors.New("rate_limited")
	ErrTransientIO     = errors.New("transient_io")
	ErrCheckerError    = errors.New("checker_error")
	ErrEmptyBenchmark  = errors.New("empty_benchmark")
	ErrNotReady        = errors.New("not_ready")
	ErrNotFound        = errors.New("not_found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal")
	ErrCertInvalid     = errors.New("certificate_invalid")
	ErrValidation      = errors.New("validation_error")
)

// HTTPStatus maps a sentinel (matched via errors.Is) to the HTTP status code
// the Core API should respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyBenchmark):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine code string for a sentinel-wrapped error,
// used in the API's JSON error envelope.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransientIO):
		return "transient_io"
	case errors.Is(err, ErrCheckerError):
		return "checker_error"
	case errors.Is(err, ErrEmptyBenchmark):
		return "empty_benchmark"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCertInvalid):
		return "certificate_invalid"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "internal"
	}
}
