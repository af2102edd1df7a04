package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tesseramedia/tessera/internal/user/service"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
)

// AuthHandler serves the registration and token endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger interfaces.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *service.AuthService, logger interfaces.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Routes returns the auth route table. Both endpoints are anonymous.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())
	r.Post("/signup", h.Signup)
	r.Post("/token", h.IssueToken)
	return r
}

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type signupResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Signup registers a user or resends their confirmation code.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), req.Email, req.Username)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, signupResponse{
		Email:    user.Email,
		Username: user.Username,
	})
}

type tokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// IssueToken exchanges a confirmation code for an access token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	token, err := h.svc.IssueToken(r.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, tokenResponse{Token: token})
}
