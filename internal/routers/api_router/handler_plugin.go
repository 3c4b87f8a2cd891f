package api_router

import (
	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	apperrors "github.com/haierkeys/miknow-notebook-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// PluginHandler 插件开发与插件目录处理器
type PluginHandler struct {
	*Handler
}

// NewPluginHandler 创建 PluginHandler 实例
func NewPluginHandler(a *app.App) *PluginHandler {
	return &PluginHandler{Handler: NewHandler(a)}
}

func toPluginDTO(p domain.PluginData) dto.PluginDTO {
	out := dto.PluginDTO{}
	_ = copier.Copy(&out, &p)
	return out
}

func (h *PluginHandler) catalogResponse(c *gin.Context, method string, list []domain.PluginSummary, err error) {
	if err != nil {
		h.logError(c.Request.Context(), method, err)
		apperrors.ErrorResponse(c, err)
		return
	}
	var out []dto.PluginSummaryDTO
	_ = copier.Copy(&out, &list)
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// List 已保存的插件
func (h *PluginHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	plugins, err := h.App.PluginService.List(ctx, pkgapp.GetUID(c))
	if err != nil {
		h.logError(ctx, "PluginHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	out := make([]dto.PluginDTO, len(plugins))
	for i, p := range plugins {
		out[i] = toPluginDTO(p)
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Save 按名称新增或覆盖插件
func (h *PluginHandler) Save(c *gin.Context) {
	params := &dto.PluginSaveRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "PluginHandler.Save", errs)
		return
	}

	plugin := domain.PluginData{
		Name:        params.Name,
		Author:      params.Author,
		Description: params.Description,
		Version:     params.Version,
		Type:        domain.PluginType(params.Type),
		Code:        params.Code,
	}
	ctx := c.Request.Context()
	if err := h.App.PluginService.Save(ctx, pkgapp.GetUID(c), plugin); err != nil {
		h.logError(ctx, "PluginHandler.Save", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessUpdate.WithData(toPluginDTO(plugin)))
}

// Default 新建插件的初始内容
func (h *PluginHandler) Default(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(toPluginDTO(h.App.PluginService.Default())))
}

// Template 指定类型的模板代码
func (h *PluginHandler) Template(c *gin.Context) {
	t := domain.PluginType(c.Param("type"))
	src, err := h.App.PluginService.Template(t)
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.PluginTemplateDTO{Type: string(t), Code: src}))
}

// Test 静态检查插件代码，不执行
func (h *PluginHandler) Test(c *gin.Context) {
	params := &dto.PluginTestRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "PluginHandler.Test", errs)
		return
	}
	msg, err := h.App.PluginService.Test(domain.PluginData{Code: params.Code})
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.PluginTestDTO{Message: msg}))
}

// Delete 按名称删除插件
func (h *PluginHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.App.PluginService.Delete(ctx, pkgapp.GetUID(c), c.Param("name")); err != nil {
		h.logError(ctx, "PluginHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessDelete)
}

// Export 以附件形式下载插件
func (h *PluginHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	plugin, err := h.App.PluginService.Get(ctx, pkgapp.GetUID(c), c.Param("name"))
	if err != nil {
		h.logError(ctx, "PluginHandler.Export", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	body, err := h.App.PluginService.Export(*plugin)
	if err != nil {
		h.logError(ctx, "PluginHandler.Export.Marshal", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToAttachment(h.App.PluginService.ExportName(*plugin), "application/json", body)
}

// Catalog 内置插件目录
func (h *PluginHandler) Catalog(c *gin.Context) {
	list, err := h.App.PluginService.Catalog(c.Request.Context(), pkgapp.GetUID(c))
	h.catalogResponse(c, "PluginHandler.Catalog", list, err)
}

// SetInstalled 启用或停用内置插件
func (h *PluginHandler) SetInstalled(c *gin.Context) {
	params := &dto.PluginInstallRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "PluginHandler.SetInstalled", errs)
		return
	}
	list, err := h.App.PluginService.SetInstalled(c.Request.Context(), pkgapp.GetUID(c), c.Param("id"), *params.Installed)
	h.catalogResponse(c, "PluginHandler.SetInstalled", list, err)
}
