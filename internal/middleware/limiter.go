package middleware

import (
	"github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 令牌桶限流，未配置桶的路由不受限制
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket, ok := l.GetBucket(l.Key(c)); ok {
			if bucket.TakeAvailable(1) == 0 {
				app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
