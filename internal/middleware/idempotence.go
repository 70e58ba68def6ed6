package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencePrefix = "showcase:idem:"
	idempotenceTTL    = time.Minute
)

// Idempotence rejects a repeated write carrying the same Idempotency-Key while the
// first is in flight or within a minute of its success. Requests without the header
// pass through.
func Idempotence(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if store == nil || key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencePrefix + CurrentUserID(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		ok, err := store.SetNX(ctx, storeKey, []byte("0"), idempotenceTTL)
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			msg := "request already succeeded"
			if raw, found, _ := store.Get(ctx, storeKey); found && string(raw) == "0" {
				msg = "request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			_ = store.Set(ctx, storeKey, []byte("1"), idempotenceTTL)
		} else {
			_ = store.Del(ctx, storeKey)
		}
	}
}
