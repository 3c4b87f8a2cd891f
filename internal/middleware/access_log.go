package middleware

import (
	"time"

	"github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog 访问日志，健康检查请求只在 debug 级别记录
func AccessLog(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		start := time.Now()
		c.Next()
		cost := time.Since(start)

		level := zap.InfoLevel
		if path == "/api/health" {
			level = zap.DebugLevel
		}
		if ce := lg.Check(level, path); ce != nil {
			ce.Write(
				zap.String(logger.FieldMethod, c.Request.Method),
				zap.String("query", query),
				zap.Int(logger.FieldStatus, c.Writer.Status()),
				zap.Duration(logger.FieldDuration, cost),
				zap.String("ip", app.GetRequestIP(c)),
				zap.String("user-agent", c.Request.UserAgent()),
				zap.Int64(logger.FieldUID, app.GetUID(c)),
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
			)
		}
	}
}
