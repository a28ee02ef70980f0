package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CATALOG_SOURCE", "REDIS_URL", "ALLOWED_ORIGINS", "RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.CatalogSource != SourceFS {
		t.Errorf("CatalogSource = %q, want %q", cfg.CatalogSource, SourceFS)
	}
	if cfg.RedisURL != "" || cfg.AllowedOrigins != nil {
		t.Errorf("unexpected defaults: redis=%q origins=%v", cfg.RedisURL, cfg.AllowedOrigins)
	}
	if cfg.RateLimitRPS != 5 {
		t.Errorf("RateLimitRPS = %v, want 5", cfg.RateLimitRPS)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "Postgres")
	t.Setenv("CATALOG_CACHE_TTL_MINUTES", "5")
	t.Setenv("MAX_DB_CONNS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.CatalogSource != SourcePostgres {
		t.Errorf("CatalogSource = %q", cfg.CatalogSource)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("CatalogCacheTTL = %v", cfg.CatalogCacheTTL)
	}
	if cfg.MaxDBConns != 8 {
		t.Errorf("MaxDBConns = %d, want fallback 8", cfg.MaxDBConns)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.QuestionSetKey("physics1"); got != "catalog:subject:physics1:questions" {
		t.Errorf("QuestionSetKey = %q", got)
	}
}
