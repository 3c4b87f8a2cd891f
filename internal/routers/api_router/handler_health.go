package api_router

import (
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler 健康检查与版本信息处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口，包含存储连通性
func (h *HealthHandler) Check(c *gin.Context) {
	res := dto.HealthDTO{
		Status:   "healthy",
		Database: "connected",
		Uptime:   time.Since(h.App.StartTime).Truncate(time.Second).String(),
	}

	if err := h.App.Ping(c.Request.Context()); err != nil {
		h.App.Logger().Warn("HealthHandler.Check ping err", zap.Error(err))
		res.Status = "unhealthy"
		res.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(res))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}

// Version 服务端版本信息
func (h *HealthHandler) Version(c *gin.Context) {
	v := h.App.Version()
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.VersionDTO{
		Name:      app.Name,
		Version:   v.Version,
		GitTag:    v.GitTag,
		BuildTime: v.BuildTime,
	}))
}
