package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControl lets clients and proxies keep catalog GET responses for
// maxAge. Other methods are marked no-store.
func CacheControl(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && maxAge > 0 {
			c.Header("Cache-Control", value)
		} else {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
