package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-player/internal/response"
)

// SystemHandler answers liveness probes.
type SystemHandler struct {
	source    string
	rdb       *redis.Client
	startTime time.Time
}

// NewSystemHandler reports the catalog backend name. rdb may be nil when
// the cache is off.
func NewSystemHandler(source string, rdb *redis.Client) *SystemHandler {
	return &SystemHandler{source: source, rdb: rdb, startTime: time.Now()}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	cache := "disabled"
	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			cache = "unavailable"
		} else {
			cache = "ok"
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":         "ok",
		"catalog_source": h.source,
		"cache":          cache,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}
