package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/config"
	"github.com/stemsi/exstem-player/internal/model"
)

// ErrCacheMiss is returned by a Cache for an absent key.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores encoded catalog payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis strings.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps rdb.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// CachedSource is a read-through cache in front of another Source. Cache
// errors are logged and never fail a load.
type CachedSource struct {
	inner Source
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedSource decorates inner with cache.
func NewCachedSource(inner Source, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "catalog_cache").Logger(),
	}
}

func (s *CachedSource) List(ctx context.Context) ([]model.Subject, error) {
	key := config.CacheKey.SubjectListKey()

	var subjects []model.Subject
	if s.lookup(ctx, key, &subjects) {
		return subjects, nil
	}

	subjects, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, subjects)
	return subjects, nil
}

func (s *CachedSource) Load(ctx context.Context, subjectID string) (*model.QuestionSet, error) {
	key := config.CacheKey.QuestionSetKey(subjectID)

	var payload model.SubjectPayload
	if s.lookup(ctx, key, &payload) {
		set := &model.QuestionSet{Subject: payload.Subject, Questions: payload.Questions}
		if err := Validate(set); err == nil {
			return set, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding invalid cached question set")
	}

	set, err := s.inner.Load(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, model.SubjectPayload{Subject: set.Subject, Questions: set.Questions})
	return set, nil
}

func (s *CachedSource) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache entry undecodable")
		return false
	}
	s.log.Debug().Str("key", key).Msg("Cache hit")
	return true
}

func (s *CachedSource) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
