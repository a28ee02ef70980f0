package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCacheControl(t *testing.T) {
	tests := []struct {
		method string
		maxAge time.Duration
		want   string
	}{
		{method: http.MethodGet, maxAge: 5 * time.Minute, want: "public, max-age=300"},
		{method: http.MethodGet, maxAge: 0, want: "no-store"},
		{method: http.MethodPost, maxAge: time.Minute, want: "no-store"},
	}

	for _, tt := range tests {
		r := gin.New()
		r.Use(CacheControl(tt.maxAge))
		r.Handle(tt.method, "/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, "/x", nil))
		if got := w.Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("%s maxAge=%v: Cache-Control = %q, want %q", tt.method, tt.maxAge, got, tt.want)
		}
	}
}

func TestBrotliStreamsChunkedWrites(t *testing.T) {
	chunk := strings.Repeat("0123456789", 30)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 512}))
	r.GET("/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
		for i := 0; i < 5; i++ {
			_, _ = c.Writer.WriteString(chunk)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept-Encoding", "gzip;q=0.5, br;q=1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if enc := w.Header().Get("Content-Encoding"); enc != "br" {
		t.Fatalf("Content-Encoding = %q, want br", enc)
	}
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(body) != strings.Repeat(chunk, 5) {
		t.Errorf("round trip lost data: got %d bytes", len(body))
	}
}

func TestBrotliSkipsWithoutAcceptEncoding(t *testing.T) {
	r := gin.New()
	r.Use(Brotli())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, strings.Repeat("a", 4096)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if enc := w.Header().Get("Content-Encoding"); enc != "" {
		t.Errorf("Content-Encoding = %q, want none", enc)
	}
	if w.Body.Len() != 4096 {
		t.Errorf("body length = %d, want 4096", w.Body.Len())
	}
}
