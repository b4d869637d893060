package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

type stubAuthenticator struct {
	token string
	user  model.User
	err   error
}

func (s stubAuthenticator) CurrentUser(_ context.Context, token string) (model.User, model.Session, error) {
	if s.err != nil {
		return model.User{}, model.Session{}, s.err
	}
	if token != s.token {
		return model.User{}, model.Session{}, apperrors.ErrNotAuthenticated
	}
	return s.user, model.Session{ID: "session-1", UserID: s.user.ID}, nil
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"":            "",
		"Bearer":      "",
		"Bearer  xyz": "xyz",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := middleware.BearerToken(req); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

// TestRequireAuth tests that protected routes see the signed-in user.
//
// WHY: Every portfolio route relies on the user in the context to scope
// holdings, so requests without a valid session must never reach them.
func TestRequireAuth(t *testing.T) {
	auth := stubAuthenticator{token: "good", user: model.User{ID: "user-1", Email: "ada@example.com"}}

	t.Run("valid token stores user, session and token", func(t *testing.T) {
		var gotUser model.User
		var gotSession model.Session
		var gotToken string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser, _ = middleware.UserFromContext(r.Context())
			gotSession, _ = middleware.SessionFromContext(r.Context())
			gotToken = middleware.TokenFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		middleware.RequireAuth(auth)(next).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if gotUser.ID != "user-1" {
			t.Errorf("Expected user-1, got %q", gotUser.ID)
		}
		if gotSession.ID != "session-1" {
			t.Errorf("Expected session-1, got %q", gotSession.ID)
		}
		if gotToken != "good" {
			t.Errorf("Expected token good, got %q", gotToken)
		}
	})

	t.Run("missing or bad token returns 401", func(t *testing.T) {
		for _, header := range []string{"", "Bearer bad"} {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			middleware.RequireAuth(auth)(next).ServeHTTP(w, req)

			if called {
				t.Errorf("header %q: expected handler not to be called", header)
			}
			if w.Code != http.StatusUnauthorized {
				t.Errorf("header %q: expected 401, got %d", header, w.Code)
			}
		}
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		failing := stubAuthenticator{err: errors.New("database is locked")}
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		middleware.RequireAuth(failing)(http.NotFoundHandler()).ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
	})

	t.Run("context without auth has no user", func(t *testing.T) {
		if _, ok := middleware.UserFromContext(context.Background()); ok {
			t.Error("Expected no user in empty context")
		}
		if tok := middleware.TokenFromContext(context.Background()); tok != "" {
			t.Errorf("Expected empty token, got %q", tok)
		}
	})
}
