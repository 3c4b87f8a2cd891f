package middleware

import (
	"strings"

	"github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// TokenFromRequest 按 Authorization 头、authorization 参数、token 参数的顺序读取令牌
// 支持 "Bearer " 前缀
func TokenFromRequest(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("authorization")
	}
	if token == "" {
		token = c.Query("token")
	}
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// WorkspaceAuth 解析工作区令牌
// 未启用鉴权时所有请求归属工作区 0
func WorkspaceAuth(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tm == nil || !tm.Enabled() {
			c.Next()
			return
		}

		token := TokenFromRequest(c)
		if token == "" {
			app.NewResponse(c).ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}
		claims, err := tm.Parse(token)
		if err != nil {
			app.NewResponse(c).ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		c.Set(app.ContextWorkspaceKey, claims)
		c.Next()
	}
}
