package handlers

import (
	"net/http"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// AuthHandler handles sign-up, sign-in and sign-out requests.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// MeResponse describes the signed-in user and session.
type MeResponse struct {
	User    model.User    `json:"user"`
	Session model.Session `json:"session"`
}

// SignUp registers a new account.
//
// Endpoint: POST /api/auth/signup
// Request Body: SignUpRequest (email, password)
// Response: 201 Created with model.User
// Error: 400 Bad Request if the body or credentials are invalid
// Error: 409 Conflict if the email is already registered
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SignUpRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.authService.SignUp(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	response.RespondJSON(w, http.StatusCreated, user)
}

// SignIn opens a session and returns its bearer token.
//
// Endpoint: POST /api/auth/signin
// Request Body: SignInRequest (email, password)
// Response: 200 OK with service.SignInResult
// Error: 400 Bad Request if the body is invalid
// Error: 401 Unauthorized if the credentials do not match
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SignInRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.authService.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// SignOut revokes the session of the bearer token.
//
// Endpoint: POST /api/auth/signout
// Response: 204 No Content
// Error: 401 Unauthorized if the token is missing, expired or already revoked
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(r.Context(), middleware.BearerToken(r)); err != nil {
		writeServiceError(w, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user. Requires RequireAuth.
//
// Endpoint: GET /api/auth/me
// Response: 200 OK with MeResponse
// Error: 401 Unauthorized if not signed in
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNotAuthenticated.Error(), "")
		return
	}
	session, _ := middleware.SessionFromContext(r.Context())

	response.RespondJSON(w, http.StatusOK, MeResponse{User: user, Session: session})
}
