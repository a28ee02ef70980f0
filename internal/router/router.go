package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-player/internal/config"
	"github.com/stemsi/exstem-player/internal/handler"
	"github.com/stemsi/exstem-player/internal/middleware"
	"github.com/stemsi/exstem-player/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Subject *handler.SubjectHandler
	System  *handler.SystemHandler
}

// SetupRouter wires the catalog routes. limiter may be nil to disable rate
// limiting.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Accept", "Accept-Encoding", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(func(c *gin.Context) {
		c.Set(response.ContextKeySource, cfg.CatalogSource)
		c.Next()
	})
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// ─── Catalog (public, rate limited, cacheable) ─────────────────────
	api := router.Group("/api/v1")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	api.Use(middleware.CacheControl(cfg.CatalogCacheTTL))
	{
		api.GET("/subjects", handlers.Subject.GetAll)
		api.GET("/subjects/:subject_id", handlers.Subject.GetByID)
	}

	return router
}
