package middleware

import (
	"github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 创建限流中间件（支持依赖注入）
func RateLimiter(l limiter.LimiterIface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		if bucket, ok := l.GetBucket(key); ok {
			count := bucket.TakeAvailable(1)
			if count == 0 {
				response := app.NewResponse(c)
				response.ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
