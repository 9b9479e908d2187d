package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/observability"
	"github.com/redis/go-redis/v9"
)

// CheckRateLimit counts one hit against resource/id in a fixed window.
// Returns true while the count stays within limit.
func CheckRateLimit(ctx context.Context, rdb redis.Cmdable, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// SET NX 带过期时间开窗口，INCR 不会改动 TTL；两条命令在同一个 MULTI 里执行，
	// 不会留下没有过期时间的计数键
	var incr *redis.IntCmd
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	}); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// RateLimit enforces limit requests per window, keyed by user or client IP.
// A nil client or non-positive limit disables it; redis failures fail open.
func RateLimit(rdb redis.Cmdable, limit int, window time.Duration, name ...string) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		id := "ip:" + c.ClientIP()
		if uid, ok := UserID(c); ok {
			id = fmt.Sprintf("user:%d", uid)
		}

		resource := c.FullPath()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.Request.Context(), rdb, resource, id, limit, window)
		if err != nil {
			observability.FromContext(c.Request.Context()).Warn("rate limiter unavailable, allowing request",
				slog.String("resource", resource), slog.Any("error", err))
			c.Next()
			return
		}
		if !allowed {
			observability.RecordRejection(observability.RuleRateLimit)
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			abortWithError(c, apperr.RateLimited())
			return
		}
		c.Next()
	}
}
