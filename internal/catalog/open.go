package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/config"
	"github.com/stemsi/exstem-player/internal/database"
	"github.com/stemsi/exstem-player/internal/repository"
	"github.com/stemsi/exstem-player/questions"
)

// Backend is a configured Source together with the connections behind it.
type Backend struct {
	Source Source
	Kind   string
	Redis  *redis.Client

	pool *pgxpool.Pool
}

// Close releases the database and cache connections.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
}

// Open builds the source selected by CATALOG_SOURCE and puts the Redis
// cache in front of it when REDIS_URL is set.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	b := &Backend{Kind: cfg.CatalogSource}

	switch cfg.CatalogSource {
	case config.SourceFS:
		var fsys fs.FS = questions.FS
		if cfg.QuestionsDir != "" {
			fsys = os.DirFS(cfg.QuestionsDir)
		}
		b.Source = NewFSSource(fsys, log)

	case config.SourcePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		b.pool = pool
		b.Source = NewPostgresSource(
			repository.NewSubjectRepository(pool),
			repository.NewQuestionRepository(pool),
			log,
		)

	case config.SourceHTTP:
		b.Source = NewHTTPSource(cfg.CatalogURL, nil, log)

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		b.Close()
		return nil, err
	}
	if rdb != nil {
		b.Redis = rdb
		b.Source = NewCachedSource(b.Source, NewRedisCache(rdb), cfg.CatalogCacheTTL, log)
	}

	log.Info().Str("source", b.Kind).Bool("cached", b.Redis != nil).Msg("Catalog ready")
	return b, nil
}
