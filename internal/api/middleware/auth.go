package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Authenticator resolves a session token. service.AuthService implements it.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (model.User, model.Session, error)
}

type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
	tokenKey   contextKey = "token"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid session token with 401.
// On success the user, session and token are stored in the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			user, session, err := auth.CurrentUser(r.Context(), token)
			if errors.Is(err, apperrors.ErrNotAuthenticated) {
				response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNotAuthenticated.Error(), "")
				return
			}
			if err != nil {
				response.RespondError(w, http.StatusInternalServerError, "failed to verify session", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, sessionKey, session)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user stored by RequireAuth.
func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}

// SessionFromContext returns the authenticated session stored by RequireAuth.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(model.Session)
	return s, ok
}

// TokenFromContext returns the bearer token stored by RequireAuth.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
