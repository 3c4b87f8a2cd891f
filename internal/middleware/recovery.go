package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 创建带日志器的 Recovery 中间件
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			var msg string
			fields := []zap.Field{
				zap.String("router", c.Request.URL.Path),
				zap.String(logger.FieldMethod, c.Request.Method),
				zap.String("query", c.Request.URL.RawQuery),
				zap.String("ip", app.GetRequestIP(c)),
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.String("stack", string(debug.Stack())),
			}
			switch v := r.(type) {
			case error:
				msg = v.Error()
				lg.Error("Recovered from panic", append(fields, zap.Error(v))...)
			case string:
				msg = v
				lg.Error("Recovered from panic", append(fields, zap.String("panic_value", v))...)
			default:
				msg = fmt.Sprintf("%v", v)
				lg.Error("Recovered from unknown panic", append(fields, zap.String("panic_value", msg))...)
			}

			app.NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails(msg))
			c.Abort()
		}()

		c.Next()
	}
}
