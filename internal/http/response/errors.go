package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/platform/apierr"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
)

// RespondServiceError translates service failures into status codes and
// envelope codes. Handlers never switch on error strings; everything the
// services return is typed, and anything unrecognized collapses into a
// generic 500 so driver details stay out of responses.
func RespondServiceError(c *gin.Context, err error) {
	var (
		apiErr        *apierr.Error
		validationErr *apperr.ValidationError
		notFoundErr   *apperr.NotFoundError
		circularErr   *apperr.CircularDependencyError
		conflictErr   *apperr.ConflictError
	)

	switch {
	case errors.As(err, &apiErr):
		// Pre-mapped by a layer that already knows the HTTP semantics.
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
	case errors.As(err, &validationErr):
		respondWithDetails(c, http.StatusBadRequest, "validation_failed", err, validationDetails(validationErr))
	case errors.As(err, &circularErr):
		respondWithDetails(c, http.StatusConflict, "circular_dependency", err, circularDetails(circularErr))
	case errors.As(err, &conflictErr):
		respondWithDetails(c, http.StatusConflict, "conflict", err, conflictDetails(conflictErr))
	case errors.As(err, &notFoundErr):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	default:
		// DatabaseError and anything unexpected.
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	}
}

func respondWithDetails(c *gin.Context, status int, code string, err error, details map[string]any) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Details: details,
		},
	})
}

func validationDetails(e *apperr.ValidationError) map[string]any {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	fields := make(map[string]any, len(e.Fields))
	for name, reason := range e.Fields {
		fields[name] = reason
	}
	return map[string]any{"fields": fields}
}

func circularDetails(e *apperr.CircularDependencyError) map[string]any {
	if e == nil {
		return nil
	}
	path := make([]string, 0, len(e.Path))
	for _, id := range e.Path {
		path = append(path, id.String())
	}
	return map[string]any{
		"path":        path,
		"description": e.Description,
	}
}

func conflictDetails(e *apperr.ConflictError) map[string]any {
	if e == nil || e.ExistingID == uuid.Nil {
		return nil
	}
	return map[string]any{"existing_id": e.ExistingID.String()}
}
