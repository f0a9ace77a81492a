package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/app-store/backend/internal/metrics"
	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store"
)

// UserStore defines the interface for user persistence. CreateUser reports a
// taken email as store.ErrDuplicate; GetUserByEmail reports an unknown email
// as store.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Revoker tracks logged-out tokens.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ActivityRecorder journals user actions. Recording is best-effort.
type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, kind models.ActivityKind, subject string)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, int64, models.ActivityKind, string) {}

// dummyPassword is hashed once at startup so logins for unknown emails
// still pay for a bcrypt comparison.
const dummyPassword = "appstore-timing-equalizer"

// Service implements signup, login, token authentication and logout.
type Service struct {
	users     UserStore
	tokens    *Tokens
	revoked   Revoker
	activity  ActivityRecorder
	cost      int
	dummyHash []byte
	log       logrus.FieldLogger
}

func NewService(users UserStore, tokens *Tokens, revoked Revoker, activity ActivityRecorder, cost int, log logrus.FieldLogger) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	if activity == nil {
		activity = nopRecorder{}
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		activity:  activity,
		cost:      cost,
		dummyHash: dummy,
		log:       log,
	}, nil
}

// Signup hashes the password and stores a new user, returning its id.
func (s *Service) Signup(ctx context.Context, name, email, password string) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			metrics.RecordAuth("signup", "rejected")
			return 0, ErrPasswordTooLong
		}
		metrics.RecordAuth("signup", "error")
		return 0, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, name, email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.RecordAuth("signup", "duplicate_email")
			return 0, ErrDuplicateEmail
		}
		if errors.Is(err, store.ErrTooLong) {
			metrics.RecordAuth("signup", "rejected")
			return 0, ErrFieldTooLong
		}
		metrics.RecordAuth("signup", "error")
		return 0, err
	}

	metrics.RecordAuth("signup", "ok")
	s.activity.Record(ctx, u.ID, models.ActivitySignup, u.Email)
	return u.ID, nil
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			metrics.RecordAuth("login", "invalid_credentials")
			return "", ErrInvalidCredentials
		}
		metrics.RecordAuth("login", "error")
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		metrics.RecordAuth("login", "invalid_credentials")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		metrics.RecordAuth("login", "error")
		return "", err
	}

	metrics.RecordAuth("login", "ok")
	s.activity.Record(ctx, u.ID, models.ActivityLogin, "")
	return token, nil
}

// Authenticate verifies a bearer token and returns the caller's identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	id, err := s.tokens.Verify(token)
	if err != nil {
		s.log.WithError(err).Debug("token rejected")
		return nil, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, id.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
		}
	}
	return id, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, id *models.Identity) error {
	if s.revoked != nil {
		if err := s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt.Sub(s.tokens.now())); err != nil {
			return err
		}
	}
	metrics.RecordAuth("logout", "ok")
	s.activity.Record(ctx, id.UserID, models.ActivityLogout, id.TokenID)
	return nil
}
