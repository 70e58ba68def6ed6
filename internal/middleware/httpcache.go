package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	HTTPCachePrefix         = "showcase:http:"
	HTTPCacheHeader         = "X-Cache"
	defaultHTTPCacheTTL     = 30 * time.Second
	defaultHTTPCacheMaxBody = 1 << 20
)

type HTTPCacheOptions struct {
	TTL          time.Duration
	SkipPaths    []string
	MaxBodyBytes int
	Disable      bool
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body up to a limit.
type captureWriter struct {
	gin.ResponseWriter
	body     []byte
	limit    int
	overflow bool
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.capture(data)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *captureWriter) capture(data []byte) {
	if w.overflow || len(data) == 0 {
		return
	}
	if len(w.body)+len(data) > w.limit {
		w.overflow = true
		w.body = nil
		return
	}
	w.body = append(w.body, data...)
}

// HTTPCache caches successful anonymous GET responses in store for a short TTL.
// Every change notification purges the cache through PurgeHTTPCache.
func HTTPCache(store Store, opts HTTPCacheOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = defaultHTTPCacheTTL
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultHTTPCacheMaxBody
	}
	maxAge := "public, max-age=" + strconv.Itoa(int(opts.TTL/time.Second))

	return func(c *gin.Context) {
		if opts.Disable || store == nil || c.Request.Method != http.MethodGet ||
			shouldSkipCachePath(c.Request.URL.Path, opts.SkipPaths) || hasBypassTimestamp(c) {
			c.Next()
			return
		}
		if IsAuthenticated(c) {
			c.Next()
			c.Header("Cache-Control", "private, no-store")
			return
		}

		ctx := c.Request.Context()
		key := HTTPCachePrefix + c.Request.URL.RequestURI()
		if raw, ok, err := store.Get(ctx, key); err == nil && ok {
			var hit cachedResponse
			if json.Unmarshal(raw, &hit) == nil && hit.Status > 0 {
				c.Header(HTTPCacheHeader, "hit")
				c.Header("Cache-Control", maxAge)
				c.Data(hit.Status, hit.ContentType, hit.Body)
				c.Abort()
				return
			}
		}

		w := &captureWriter{ResponseWriter: c.Writer, limit: opts.MaxBodyBytes}
		c.Writer = w
		c.Header(HTTPCacheHeader, "miss")
		c.Next()

		if w.Status() != http.StatusOK || w.overflow || len(w.body) == 0 || !cacheable(w.Header()) {
			return
		}
		raw, err := json.Marshal(cachedResponse{
			Status:      http.StatusOK,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body,
		})
		if err != nil {
			return
		}
		_ = store.Set(ctx, key, raw, opts.TTL)
	}
}

// PurgeHTTPCache drops every cached response.
func PurgeHTTPCache(ctx context.Context, store Store) (int64, error) {
	if store == nil {
		return 0, nil
	}
	return store.DeletePrefix(ctx, HTTPCachePrefix)
}

func shouldSkipCachePath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		p := strings.TrimSpace(pattern)
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

// hasBypassTimestamp lets polling clients force a fresh read with ?ts=.
func hasBypassTimestamp(c *gin.Context) bool {
	query := c.Request.URL.Query()
	for _, key := range []string{"ts", "_t"} {
		if strings.TrimSpace(query.Get(key)) != "" {
			return true
		}
	}
	return false
}

func cacheable(h http.Header) bool {
	cc := strings.ToLower(h.Get("Cache-Control"))
	return !strings.Contains(cc, "no-store") && !strings.Contains(cc, "private")
}
