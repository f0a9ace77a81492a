package listing

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/httpx"
	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store"
)

// Handler holds listing HTTP handlers.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Publish creates a listing owned by the authenticated caller.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
		return
	}

	var req models.PublishRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Complete() {
		httpx.WriteError(w, http.StatusBadRequest, "name, description, image, and link are required")
		return
	}

	l, err := h.svc.Publish(r.Context(), id.UserID, req)
	if errors.Is(err, store.ErrTooLong) {
		httpx.WriteError(w, http.StatusBadRequest, "field too long")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("user_id", id.UserID).Error("publish listing")
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, l)
}

// List returns the public feed.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list listings")
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	httpx.WriteJSON(w, http.StatusOK, listings)
}
