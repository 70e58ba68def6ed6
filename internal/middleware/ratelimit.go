package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

const rateLimitPrefix = "showcase:rate:"

type RateLimitOptions struct {
	Max    int
	Window time.Duration
}

// RateLimit allows Max requests per client IP in each fixed window. Signed-in admins
// are not limited. Store errors let the request through.
func RateLimit(store Store, opts RateLimitOptions) gin.HandlerFunc {
	if opts.Max <= 0 {
		opts.Max = 50
	}
	if opts.Window <= 0 {
		opts.Window = time.Second
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if store == nil || ip == "" || IsAuthenticated(c) {
			c.Next()
			return
		}

		window := time.Now().UnixNano() / int64(opts.Window)
		key := rateLimitPrefix + ip + ":" + strconv.FormatInt(window, 10)
		count, err := store.Incr(c.Request.Context(), key, opts.Window+time.Second)
		if err != nil {
			c.Next()
			return
		}
		if count > int64(opts.Max) {
			response.TooManyRequests(c, http.StatusText(http.StatusTooManyRequests), opts.Window)
			return
		}
		c.Next()
	}
}
