package listing

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	listings []models.Listing
	lists    int
	err      error

	// afterList runs once the snapshot is taken, outside the lock.
	afterList func()
}

func (m *memStore) CreateListing(_ context.Context, ownerID int64, req models.PublishRequest) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	owner := ownerID
	l := models.Listing{
		ID:          int64(len(m.listings) + 1),
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Link:        req.Link,
		UserID:      &owner,
		CreatedAt:   time.Now(),
	}
	m.listings = append(m.listings, l)
	return &l, nil
}

func (m *memStore) ListListings(_ context.Context, ownedOnly bool) ([]models.Listing, error) {
	m.mu.Lock()
	m.lists++
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	out := []models.Listing{}
	for _, l := range m.listings {
		if ownedOnly && l.IsSeeded() {
			continue
		}
		out = append(out, l)
	}
	hook := m.afterList
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (m *memStore) SeedListings(_ context.Context, seeds []models.PublishRequest) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.IsSeeded() {
			return 0, nil
		}
	}
	for _, s := range seeds {
		m.listings = append(m.listings, models.Listing{
			ID:          int64(len(m.listings) + 1),
			Name:        s.Name,
			Description: s.Description,
			Image:       s.Image,
			Link:        s.Link,
			CreatedAt:   time.Now(),
		})
	}
	return len(seeds), nil
}

type publishRecord struct {
	userID  int64
	subject string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []publishRecord
}

func (f *fakeRecorder) Record(_ context.Context, userID int64, kind models.ActivityKind, subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == models.ActivityPublish {
		f.entries = append(f.entries, publishRecord{userID, subject})
	}
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
