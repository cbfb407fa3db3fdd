package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zenith/internal/middleware"
	"zenith/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Key families and TTLs.
const (
	CategoryListPrefix = "categories:list"
	TagListPrefix      = "tags:list"
	CategoryKeyPrefix  = "category:%d"
	TagKeyPrefix       = "tag:%d"
)

const (
	ListTTL     = 5 * time.Minute
	TaxonomyTTL = 10 * time.Minute
)

// CategoryKey is the cache key for a single category.
func CategoryKey(id uint) string {
	return fmt.Sprintf(CategoryKeyPrefix, id)
}

// TagKey is the cache key for a single tag.
func TagKey(id uint) string {
	return fmt.Sprintf(TagKeyPrefix, id)
}

// ListKey builds the key for one page of a listing family.
func ListKey(prefix string, page, size int, sort string) string {
	return fmt.Sprintf("%s:%d:%d:%s", prefix, page, size, sort)
}

// Store is a cache-aside helper over Redis. A Store with a nil client is a
// pass-through that always calls fetch.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb, which may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enabled reports whether a Redis client backs the store.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// and stores the result with ttl. Redis failures degrade to fetch.
func (s *Store) Aside(ctx context.Context, family, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		observability.CacheLookups.WithLabelValues(family, "hit").Inc()
		return nil
	}
	if s.Enabled() {
		observability.CacheLookups.WithLabelValues(family, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidatePrefix deletes every key starting with prefix.
func (s *Store) InvalidatePrefix(ctx context.Context, prefix string) {
	if !s.Enabled() {
		return
	}
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			s.Invalidate(ctx, batch...)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache scan failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
	}
	s.Invalidate(ctx, batch...)
}

// InvalidateTaxonomy drops every cached category and tag listing. Post
// mutations call it too, since listings carry post counts.
func (s *Store) InvalidateTaxonomy(ctx context.Context) {
	s.InvalidatePrefix(ctx, CategoryListPrefix)
	s.InvalidatePrefix(ctx, TagListPrefix)
	s.InvalidatePrefix(ctx, "category:")
	s.InvalidatePrefix(ctx, "tag:")
}
