package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store"
)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type object struct {
	data        []byte
	contentType string
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string]object
	err     error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string]object{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{data: data, contentType: contentType}
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), o.contentType, nil
}

type countingRecorder struct{ n int }

func (c *countingRecorder) Record(context.Context, int64, models.ActivityKind, string) { c.n++ }

func newTestHandler(objects *memObjects, rec *countingRecorder) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(objects, rec, 1024, "http://cdn.test/", log)

	r := chi.NewRouter()
	r.Post("/api/images", func(w http.ResponseWriter, req *http.Request) {
		h.Upload(w, req.WithContext(auth.WithIdentity(req.Context(), &models.Identity{UserID: 7})))
	})
	r.Get("/api/images/*", h.Download)
	return r
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "upload.bin")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, field, data)
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadThenDownload(t *testing.T) {
	objects := newMemObjects()
	activity := &countingRecorder{}
	h := newTestHandler(objects, activity)

	rec := upload(t, h, "image", pngPixel)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got models.ImageUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got.Key, "7/"))
	assert.True(t, strings.HasSuffix(got.Key, ".png"))
	assert.Equal(t, "http://cdn.test/api/images/"+got.Key, got.URL)
	assert.Equal(t, 1, activity.n)

	dl := httptest.NewRecorder()
	h.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, "/api/images/"+got.Key, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "image/png", dl.Header().Get("Content-Type"))
	assert.Equal(t, pngPixel, dl.Body.Bytes())
}

func TestUpload_Rejects(t *testing.T) {
	h := newTestHandler(newMemObjects(), &countingRecorder{})

	assert.Equal(t, http.StatusUnsupportedMediaType, upload(t, h, "image", []byte("plain text, not an image")).Code)
	assert.Equal(t, http.StatusBadRequest, upload(t, h, "file", pngPixel).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge,
		upload(t, h, "image", append(append([]byte{}, pngPixel...), make([]byte, 2048)...)).Code)
}

func TestUpload_StoreError(t *testing.T) {
	objects := newMemObjects()
	objects.err = errors.New("minio down")
	activity := &countingRecorder{}
	h := newTestHandler(objects, activity)

	assert.Equal(t, http.StatusInternalServerError, upload(t, h, "image", pngPixel).Code)
	assert.Zero(t, activity.n)
}

func TestDownload_NotFound(t *testing.T) {
	h := newTestHandler(newMemObjects(), &countingRecorder{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/7/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
