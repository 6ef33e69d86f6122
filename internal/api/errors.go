package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/apperr"
	"github.com/maes-platform/compliance-core/internal/httpserver"
)

// respondErr maps a sentinel-wrapped error (internal/apperr) onto the
// standard JSON error envelope and HTTP status.
func respondErr(w http.ResponseWriter, err error) {
	httpserver.RespondError(w, apperr.HTTPStatus(err), apperr.Code(err), err.Error())
}

// parseUUIDParam reads a chi URL param and parses it as a uuid.UUID,
// responding with a 400 validation error on failure.
func parseUUIDParam(w http.ResponseWriter, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, apperr.Code(apperr.ErrValidation), "invalid id: "+value)
		return uuid.Nil, false
	}
	return id, true
}
