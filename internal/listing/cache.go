package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/app-store/backend/internal/models"
)

// RedisFeedCache caches the public feed as one JSON value per generation.
// Every publish bumps the generation, so a snapshot taken before a publish
// is written under a key no reader asks for again.
type RedisFeedCache struct {
	rdb    *redis.Client
	prefix string
	genKey string
	ttl    time.Duration
}

// NewRedisFeedCache keys the cache by feed mode so switching FEED_MODE never
// serves the other variant's feed.
func NewRedisFeedCache(rdb *redis.Client, mode string, ttl time.Duration) *RedisFeedCache {
	return &RedisFeedCache{
		rdb:    rdb,
		prefix: "feed:" + mode + ":",
		genKey: "feed:gen:" + mode,
		ttl:    ttl,
	}
}

// Generation returns the current feed generation. An unset counter is 0.
func (c *RedisFeedCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("feed cache generation: %w", err)
	}
	return gen, nil
}

// Bump moves the feed to a new generation.
func (c *RedisFeedCache) Bump(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.genKey).Err(); err != nil {
		return fmt.Errorf("feed cache bump: %w", err)
	}
	return nil
}

// Get returns the feed cached for gen and whether it was present.
func (c *RedisFeedCache) Get(ctx context.Context, gen int64) ([]models.Listing, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("feed cache get: %w", err)
	}

	var listings []models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, false, fmt.Errorf("feed cache decode: %w", err)
	}
	return listings, true, nil
}

func (c *RedisFeedCache) Set(ctx context.Context, gen int64, listings []models.Listing) error {
	raw, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("feed cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(gen), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("feed cache set: %w", err)
	}
	return nil
}

func (c *RedisFeedCache) key(gen int64) string {
	return c.prefix + strconv.FormatInt(gen, 10)
}
