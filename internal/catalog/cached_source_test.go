package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/config"
	"github.com/stemsi/exstem-player/internal/model"
)

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

type countingSource struct {
	lists, loads int
	err          error
}

func (s *countingSource) List(context.Context) ([]model.Subject, error) {
	s.lists++
	if s.err != nil {
		return nil, s.err
	}
	return []model.Subject{{ID: "maths1", Name: "Mathematics"}}, nil
}

func (s *countingSource) Load(_ context.Context, id string) (*model.QuestionSet, error) {
	s.loads++
	if s.err != nil {
		return nil, fail(id, s.err)
	}
	return validSet(), nil
}

func TestCachedSourceServesHits(t *testing.T) {
	inner := &countingSource{}
	cache := newMemCache()
	src := NewCachedSource(inner, cache, 15*time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		set, err := src.Load(ctx, "maths1")
		if err != nil {
			t.Fatalf("Load() #%d error = %v", i, err)
		}
		if len(set.Questions) != 2 || set.Subject.ID != "maths1" {
			t.Fatalf("Load() #%d = %+v", i, set)
		}
	}
	if inner.loads != 1 {
		t.Errorf("inner loads = %d, want 1", inner.loads)
	}

	key := config.CacheKey.QuestionSetKey("maths1")
	if ttl := cache.ttls[key]; ttl != 15*time.Minute {
		t.Errorf("ttl for %s = %v, want 15m", key, ttl)
	}

	for i := 0; i < 2; i++ {
		if _, err := src.List(ctx); err != nil {
			t.Fatalf("List() error = %v", err)
		}
	}
	if inner.lists != 1 {
		t.Errorf("inner lists = %d, want 1", inner.lists)
	}
}

func TestCachedSourceCacheFailureFallsThrough(t *testing.T) {
	inner := &countingSource{}
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	src := NewCachedSource(inner, cache, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := src.Load(context.Background(), "maths1"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if inner.loads != 2 {
		t.Errorf("inner loads = %d, want 2", inner.loads)
	}
}

func TestCachedSourceDiscardsBadEntries(t *testing.T) {
	inner := &countingSource{}
	cache := newMemCache()
	cache.data[config.CacheKey.QuestionSetKey("maths1")] = []byte(`{"subject":{"id":"maths1"},"questions":[]}`)
	cache.data[config.CacheKey.SubjectListKey()] = []byte(`not json`)
	src := NewCachedSource(inner, cache, time.Minute, zerolog.Nop())

	set, err := src.Load(context.Background(), "maths1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(set.Questions) != 2 || inner.loads != 1 {
		t.Errorf("cached invalid set was served: %+v, inner loads %d", set, inner.loads)
	}
	if _, err := src.List(context.Background()); err != nil || inner.lists != 1 {
		t.Errorf("List() error = %v, inner lists %d", err, inner.lists)
	}
}

func TestCachedSourceDoesNotCacheFailures(t *testing.T) {
	inner := &countingSource{err: ErrSubjectNotFound}
	cache := newMemCache()
	src := NewCachedSource(inner, cache, time.Minute, zerolog.Nop())

	if _, err := src.Load(context.Background(), "maths1"); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("Load() error = %v, want ErrSubjectNotFound", err)
	}
	if len(cache.data) != 0 {
		t.Errorf("cache holds %d entries after a failed load", len(cache.data))
	}
}
