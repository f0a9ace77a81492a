// Package media stores listing images in object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/httpx"
	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store"
)

const (
	formField   = "image"
	sniffLen    = 512
	formMemory  = 1 << 20
	formOverrun = 1 << 20 // multipart framing on top of the file itself
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ObjectStore defines the interface for image storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// ActivityRecorder journals user actions. Recording is best-effort.
type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, kind models.ActivityKind, subject string)
}

// Handler holds image HTTP handlers.
type Handler struct {
	objects  ObjectStore
	activity ActivityRecorder
	maxBytes int64
	baseURL  string
	log      logrus.FieldLogger
}

func NewHandler(objects ObjectStore, activity ActivityRecorder, maxBytes int64, baseURL string, log logrus.FieldLogger) *Handler {
	return &Handler{
		objects:  objects,
		activity: activity,
		maxBytes: maxBytes,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

// Upload stores the multipart "image" file under the caller's prefix.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverrun)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formField)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		httpx.WriteError(w, http.StatusBadRequest, "image file is empty")
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType, "file is not an image")
		return
	}

	key := fmt.Sprintf("%d/%s%s", id.UserID, uuid.NewString(), extensions[contentType])
	body := io.MultiReader(bytes.NewReader(head), file)
	if err := h.objects.Put(r.Context(), key, body, header.Size, contentType); err != nil {
		h.log.WithError(err).WithField("key", key).Error("image upload")
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	if h.activity != nil {
		h.activity.Record(r.Context(), id.UserID, models.ActivityImageUpload, key)
	}
	httpx.WriteJSON(w, http.StatusCreated, models.ImageUpload{
		Key: key,
		URL: h.baseURL + "/api/images/" + key,
	})
}

// Download streams a stored image.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	obj, contentType, err := h.objects.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		h.log.WithError(err).WithField("key", key).Error("image download")
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := io.Copy(w, obj); err != nil {
		h.log.WithError(err).WithField("key", key).Warn("image stream interrupted")
	}
}
