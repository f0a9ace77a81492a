package listing

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/models"
)

// Store defines the interface for listing persistence.
type Store interface {
	CreateListing(ctx context.Context, ownerID int64, req models.PublishRequest) (*models.Listing, error)
	ListListings(ctx context.Context, ownedOnly bool) ([]models.Listing, error)
}

// FeedCache holds snapshots of the public feed keyed by generation. Bump
// retires every snapshot taken so far.
type FeedCache interface {
	Generation(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
	Get(ctx context.Context, gen int64) ([]models.Listing, bool, error)
	Set(ctx context.Context, gen int64, listings []models.Listing) error
}

// ActivityRecorder journals user actions. Recording is best-effort.
type ActivityRecorder interface {
	Record(ctx context.Context, userID int64, kind models.ActivityKind, subject string)
}

// Service publishes and lists app listings.
type Service struct {
	store     Store
	cache     FeedCache
	activity  ActivityRecorder
	ownedOnly bool
	log       logrus.FieldLogger

	// stale is set when a publish could not bump the cache generation.
	// Reads bypass the cache until a bump succeeds.
	stale atomic.Bool
}

// NewService builds the listing service. With ownedOnly set the public feed
// leaves out seeded listings. cache and activity may be nil.
func NewService(store Store, cache FeedCache, activity ActivityRecorder, ownedOnly bool, log logrus.FieldLogger) *Service {
	return &Service{store: store, cache: cache, activity: activity, ownedOnly: ownedOnly, log: log}
}

// Publish stores a listing owned by ownerID.
func (s *Service) Publish(ctx context.Context, ownerID int64, req models.PublishRequest) (*models.Listing, error) {
	l, err := s.store.CreateListing(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.stale.Store(true)
			s.log.WithError(err).Warn("feed cache generation not bumped")
		}
	}
	if s.activity != nil {
		s.activity.Record(ctx, ownerID, models.ActivityPublish, strconv.FormatInt(l.ID, 10))
	}
	return l, nil
}

// ListAll returns the public feed in insertion order.
func (s *Service) ListAll(ctx context.Context) ([]models.Listing, error) {
	gen, cacheable := s.feedGeneration(ctx)
	if cacheable {
		listings, ok, err := s.cache.Get(ctx, gen)
		if err != nil {
			s.log.WithError(err).Warn("feed cache read failed")
		} else if ok {
			return listings, nil
		}
	}

	listings, err := s.store.ListListings(ctx, s.ownedOnly)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, gen, listings); err != nil {
			s.log.WithError(err).Warn("feed cache write failed")
		}
	}
	return listings, nil
}

// feedGeneration reads the generation to cache under. It reports false when
// the cache must not be used for this read.
func (s *Service) feedGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	if s.stale.CompareAndSwap(true, false) {
		if err := s.cache.Bump(ctx); err != nil {
			s.stale.Store(true)
			s.log.WithError(err).Warn("feed cache generation not bumped")
			return 0, false
		}
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.WithError(err).Warn("feed cache generation read failed")
		return 0, false
	}
	return gen, true
}
