package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/httpx"
	"github.com/ayush/app-store/backend/internal/models"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Signup creates a new user.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}

	if _, err := h.svc.Signup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		h.fail(w, r, "signup", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}

// Login authenticates a user and returns an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout revokes the bearer token used for this request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, ErrMissingToken.Error())
		return
	}

	if err := h.svc.Logout(r.Context(), id); err != nil {
		h.fail(w, r, "logout", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("op", op).Error("auth request failed")
	}
	httpx.WriteError(w, status, msg)
}
