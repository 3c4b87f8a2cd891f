// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/middleware"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError 记录错误日志，附带 TraceID
func (h *Handler) logError(ctx context.Context, method string, err error) {
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}

// bindFailed 参数校验失败时的统一响应
func (h *Handler) bindFailed(c *gin.Context, method string, errs pkgapp.ValidErrors) {
	h.App.Logger().Error(method+".BindAndValid err",
		zap.Error(errs),
		zap.String(logger.FieldTraceID, middleware.GetTraceIDFromGin(c)),
	)
	pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
}

// beginSurface 在界面区域上开始一次请求，同一区域之前未完成的请求会被取消
func (h *Handler) beginSurface(c *gin.Context, uid int64, surface service.Surface) (context.Context, *service.Ticket) {
	return h.App.Surfaces.Begin(c.Request.Context(), uid, surface)
}

// stale 请求已被同一区域更新的请求取代时输出 ErrorStaleResponse
func (h *Handler) stale(c *gin.Context, ticket *service.Ticket, uid int64, surface service.Surface) bool {
	if ticket.Current() {
		return false
	}
	h.App.Logger().Debug("drop stale response",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldSurface, string(surface)),
		zap.String(logger.FieldTraceID, middleware.GetTraceIDFromGin(c)),
	)
	pkgapp.NewResponse(c).ToResponse(code.ErrorStaleResponse)
	return true
}
