package middleware

import (
	"github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 404 handler
// NoFound 404 处理
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFoundAPI.WithDetails(c.Request.URL.Path))
		c.Abort()
	}
}
