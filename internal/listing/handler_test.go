package listing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store"
)

func publishReq(body string, id *models.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/apps", strings.NewReader(body))
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), id))
	}
	return req
}

func TestHandler_Publish(t *testing.T) {
	h := NewHandler(NewService(&memStore{}, nil, nil, true, quietLog()), quietLog())

	rec := httptest.NewRecorder()
	h.Publish(rec, publishReq(`{"name":"X","description":"d","image":"i","link":"l"}`, &models.Identity{UserID: 5}))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "X", got["name"])
	assert.EqualValues(t, 5, got["user_id"])
	assert.Contains(t, got, "id")
	assert.Contains(t, got, "created_at")
}

func TestHandler_PublishRejects(t *testing.T) {
	st := &memStore{}
	h := NewHandler(NewService(st, nil, nil, true, quietLog()), quietLog())
	id := &models.Identity{UserID: 5}

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no identity", publishReq(`{"name":"X","description":"d","image":"i","link":"l"}`, nil), http.StatusUnauthorized},
		{"bad json", publishReq(`{"name":`, id), http.StatusBadRequest},
		{"missing field", publishReq(`{"name":"X","description":"d","image":"i"}`, id), http.StatusBadRequest},
		{"empty field", publishReq(`{"name":"","description":"d","image":"i","link":"l"}`, id), http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Publish(rec, tc.req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Empty(t, st.listings)
}

func TestHandler_PublishStoreError(t *testing.T) {
	h := NewHandler(NewService(&memStore{err: errors.New("db down")}, nil, nil, true, quietLog()), quietLog())

	rec := httptest.NewRecorder()
	h.Publish(rec, publishReq(`{"name":"X","description":"d","image":"i","link":"l"}`, &models.Identity{UserID: 5}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"server error"}`, rec.Body.String())
}

func TestHandler_PublishFieldTooLong(t *testing.T) {
	h := NewHandler(NewService(&memStore{err: store.ErrTooLong}, nil, nil, true, quietLog()), quietLog())

	rec := httptest.NewRecorder()
	h.Publish(rec, publishReq(`{"name":"X","description":"d","image":"i","link":"l"}`, &models.Identity{UserID: 5}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"field too long"}`, rec.Body.String())
}

func TestHandler_List(t *testing.T) {
	st := &memStore{}
	_, err := Seed(context.Background(), st)
	require.NoError(t, err)
	h := NewHandler(NewService(st, nil, nil, true, quietLog()), quietLog())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/apps", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_ListError(t *testing.T) {
	h := NewHandler(NewService(&memStore{err: errors.New("db down")}, nil, nil, false, quietLog()), quietLog())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/apps", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
