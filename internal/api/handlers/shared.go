package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into a T. An empty body is an error.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is required")
		}
		return v, fmt.Errorf("malformed JSON: %w", err)
	}
	return v, nil
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotAuthenticated),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrRatesNotReady),
		errors.Is(err, apperrors.ErrUserExists),
		errors.Is(err, apperrors.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidTicker),
		errors.Is(err, apperrors.ErrInvalidUUID):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrHoldingNotFound),
		errors.Is(err, apperrors.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError responds with the status statusFor picks. message is the
// user-visible text; when empty the validation message or err itself is used.
func writeServiceError(w http.ResponseWriter, err error, message string) {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		response.RespondError(w, http.StatusBadRequest, ve.Message, map[string]string{"field": ve.Field})
		return
	}
	if message == "" {
		message = err.Error()
	}
	response.RespondError(w, statusFor(err), message, err.Error())
}
