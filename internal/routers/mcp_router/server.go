// Package mcp_router 以 Model Context Protocol 工具的形式提供 AI 能力
package mcp_router

import (
	"context"
	"net/http"
	"strings"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

type workspaceKey struct{}

// workspace 工具调用归属的工作区，err 非空表示令牌无效
type workspace struct {
	uid int64
	err error
}

// Server MCP 工具服务
type Server struct {
	app *app.App
	mcp *server.MCPServer
}

// NewServer 创建 MCP 服务并注册全部工具
func NewServer(a *app.App) *Server {
	s := &Server{
		app: a,
		mcp: server.NewMCPServer(
			app.Name,
			app.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// Handler 返回 streamable HTTP 处理器
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(s.contextFromRequest),
	)
}

// contextFromRequest 从 Authorization 请求头解析工作区
// 未启用鉴权时固定为工作区 0
func (s *Server) contextFromRequest(ctx context.Context, r *http.Request) context.Context {
	ws := workspace{}
	tm := s.app.TokenManager
	if tm != nil && tm.Enabled() {
		token := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		claims, err := tm.Parse(token)
		if err != nil {
			s.app.Logger().Warn("mcp authorization failed", zap.Error(err))
			ws.err = err
		} else {
			ws.uid = claims.UID
		}
	}
	return context.WithValue(ctx, workspaceKey{}, ws)
}

func workspaceFrom(ctx context.Context) workspace {
	ws, _ := ctx.Value(workspaceKey{}).(workspace)
	return ws
}

func (s *Server) logToolError(tool string, uid int64, err error) {
	s.app.Logger().Warn("mcp tool failed",
		zap.String(logger.FieldMethod, tool),
		zap.Int64(logger.FieldUID, uid),
		zap.Error(err))
}

// stringSlice 读取字符串数组参数，忽略非字符串元素
func stringSlice(req mcp.CallToolRequest, name string) []string {
	raw, ok := req.GetArguments()[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
