package auth

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nextID  int64
	err     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, name, email, hashedPw string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byEmail[email]; ok {
		return nil, store.ErrDuplicate
	}
	f.nextID++
	u := &models.User{ID: f.nextID, Name: name, Email: email, Password: hashedPw, CreatedAt: time.Now()}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

type recordedActivity struct {
	userID  int64
	kind    models.ActivityKind
	subject string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (f *fakeRecorder) Record(_ context.Context, userID int64, kind models.ActivityKind, subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedActivity{userID, kind, subject})
}

func (f *fakeRecorder) kinds() []models.ActivityKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityKind
	for _, e := range f.entries {
		out = append(out, e.kind)
	}
	return out
}

type testEnv struct {
	svc      *Service
	users    *fakeUsers
	tokens   *Tokens
	redis    *miniredis.Miniredis
	activity *fakeRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := newFakeUsers()
	tokens := NewTokens([]byte("test-secret"), time.Hour)
	activity := &fakeRecorder{}
	svc, err := NewService(users, tokens, NewRevocationList(rdb), activity, bcrypt.MinCost, log)
	require.NoError(t, err)

	return &testEnv{svc: svc, users: users, tokens: tokens, redis: mr, activity: activity}
}
