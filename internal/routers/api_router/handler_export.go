package api_router

import (
	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	apperrors "github.com/haierkeys/miknow-notebook-service/pkg/errors"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportHandler 导出到存储后端处理器
type ExportHandler struct {
	*Handler
}

// NewExportHandler 创建 ExportHandler 实例
func NewExportHandler(a *app.App) *ExportHandler {
	return &ExportHandler{Handler: NewHandler(a)}
}

// Export 导出主题、插件或图谱，返回写入的对象键
func (h *ExportHandler) Export(c *gin.Context) {
	params := &dto.ExportRequest{}
	if c.Request.ContentLength > 0 {
		if valid, errs := pkgapp.BindAndValid(c, params); !valid {
			h.bindFailed(c, "ExportHandler.Export", errs)
			return
		}
	}

	ctx := c.Request.Context()
	uid := pkgapp.GetUID(c)
	kind := service.ExportKind(c.Param("kind"))

	key, err := h.App.ExportService.Export(ctx, uid, kind, params.Name)
	if err != nil {
		h.logError(ctx, "ExportHandler.Export", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	h.App.Logger().Info("exported",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldKind, string(kind)),
		zap.String(logger.FieldFileKey, key))
	pkgapp.NewResponse(c).ToResponse(code.SuccessCreate.WithData(dto.ExportDTO{Kind: string(kind), Key: key}))
}
