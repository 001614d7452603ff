package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"github.com/mx-space/pagebuilder/internal/pkg/result"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitWindow     = time.Second
	defaultRateLimitMax = 50
)

// RateLimit enforces a fixed one-second window of at most limit requests per
// client IP. Redis errors let the request through.
func RateLimit(rdb *redis.Client, limit int, log *zap.Logger) gin.HandlerFunc {
	if limit <= 0 {
		limit = defaultRateLimitMax
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rdb == nil || ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("pagebuilder:rate_limit:%s:%d", ip, time.Now().Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > int64(limit) {
			log.Warn("rate limited", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				result.Fail[any](apperr.New(apperr.CodeValidation, "Too many requests")))
			return
		}

		c.Next()
	}
}
