// Package middleware provides HTTP middleware for authentication, request
// validation and logging.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// HoldingIDParam is the URL parameter carrying a holding ID.
const HoldingIDParam = "holdingId"

// ValidateHoldingIDMiddleware validates that the holdingId URL parameter is present and is a valid UUID.
// Returns 400 Bad Request if the holding ID is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/holdings/{holdingId}", func(r chi.Router) {
//	    r.Use(middleware.ValidateHoldingIDMiddleware)
//	    r.Delete("/", handler.DeleteHolding)
//	})
func ValidateHoldingIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, HoldingIDParam)

		if id == "" {
			response.RespondError(w, http.StatusBadRequest, "holding ID is required", "")
			return
		}

		if err := validation.ValidateUUID(id); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid holding ID format", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
