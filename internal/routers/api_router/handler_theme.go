package api_router

import (
	"io"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	apperrors "github.com/haierkeys/miknow-notebook-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// ThemeHandler 主题编辑与主题面板处理器
type ThemeHandler struct {
	*Handler
}

// NewThemeHandler 创建 ThemeHandler 实例
func NewThemeHandler(a *app.App) *ThemeHandler {
	return &ThemeHandler{Handler: NewHandler(a)}
}

func toThemeDTO(t domain.ThemeData) dto.ThemeDTO {
	return dto.ThemeDTO{Name: t.Name, Author: t.Author, Description: t.Description, Colors: t.Colors}
}

// List 已保存的自定义主题
func (h *ThemeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	themes, err := h.App.ThemeService.List(ctx, pkgapp.GetUID(c))
	if err != nil {
		h.logError(ctx, "ThemeHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	out := make([]dto.ThemeDTO, len(themes))
	for i, t := range themes {
		out[i] = toThemeDTO(t)
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Save 按名称新增或覆盖主题
func (h *ThemeHandler) Save(c *gin.Context) {
	params := &dto.ThemeSaveRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "ThemeHandler.Save", errs)
		return
	}

	theme := domain.ThemeData{
		Name:        params.Name,
		Author:      params.Author,
		Description: params.Description,
		Colors:      params.Colors,
	}
	ctx := c.Request.Context()
	if err := h.App.ThemeService.Save(ctx, pkgapp.GetUID(c), theme); err != nil {
		h.logError(ctx, "ThemeHandler.Save", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessUpdate.WithData(toThemeDTO(theme)))
}

// Catalog 内置主题与自定义主题目录
func (h *ThemeHandler) Catalog(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.App.ThemeService.Catalog(ctx, pkgapp.GetUID(c))
	if err != nil {
		h.logError(ctx, "ThemeHandler.Catalog", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	var out []dto.ThemeSummaryDTO
	_ = copier.Copy(&out, &list)
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Default 新建主题的初始内容与可编辑变量说明
func (h *ThemeHandler) Default(c *gin.Context) {
	out := dto.ThemeDefaultDTO{Theme: toThemeDTO(h.App.ThemeService.Default())}
	vars := h.App.ThemeService.Variables()
	_ = copier.Copy(&out.Variables, &vars)
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Import 导入主题文件，支持 multipart 的 file 字段或直接提交 JSON
func (h *ThemeHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()

	var raw []byte
	var err error
	if fh, ferr := c.FormFile("file"); ferr == nil {
		f, oerr := fh.Open()
		if oerr != nil {
			h.logError(ctx, "ThemeHandler.Import.Open", oerr)
			pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(oerr.Error()))
			return
		}
		defer f.Close()
		raw, err = io.ReadAll(io.LimitReader(f, maxImportSize))
	} else {
		raw, err = c.GetRawData()
	}
	if err != nil {
		h.logError(ctx, "ThemeHandler.Import.Read", err)
		pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	sum, err := h.App.ThemeService.Import(ctx, pkgapp.GetUID(c), raw)
	if err != nil {
		h.logError(ctx, "ThemeHandler.Import", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	out := dto.ThemeSummaryDTO{}
	_ = copier.Copy(&out, sum)
	pkgapp.NewResponse(c).ToResponse(code.SuccessCreate.WithData(out))
}

// Delete 删除自定义主题
func (h *ThemeHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.App.ThemeService.Delete(ctx, pkgapp.GetUID(c), c.Param("id")); err != nil {
		h.logError(ctx, "ThemeHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessDelete)
}

// CSS 将提交的主题转换为 CSS 变量
func (h *ThemeHandler) CSS(c *gin.Context) {
	params := &dto.ThemeSaveRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "ThemeHandler.CSS", errs)
		return
	}
	css := h.App.ThemeService.CSS(domain.ThemeData{Name: params.Name, Colors: params.Colors})
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.ThemeCSSDTO{CSS: css}))
}

// Export 以附件形式下载自定义主题
func (h *ThemeHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	theme, err := h.App.ThemeService.Get(ctx, pkgapp.GetUID(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, "ThemeHandler.Export", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	body, err := h.App.ThemeService.Export(*theme)
	if err != nil {
		h.logError(ctx, "ThemeHandler.Export.Marshal", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToAttachment(h.App.ThemeService.ExportName(*theme), "application/json", body)
}

// Active 当前选中的主题
func (h *ThemeHandler) Active(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := h.App.ThemeService.Active(ctx, pkgapp.GetUID(c))
	if err != nil {
		h.logError(ctx, "ThemeHandler.Active", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.ThemeActiveDTO{ID: id}))
}

// SetActive 选择主题
func (h *ThemeHandler) SetActive(c *gin.Context) {
	params := &dto.ThemeActiveRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "ThemeHandler.SetActive", errs)
		return
	}
	ctx := c.Request.Context()
	if err := h.App.ThemeService.SetActive(ctx, pkgapp.GetUID(c), params.ID); err != nil {
		h.logError(ctx, "ThemeHandler.SetActive", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessUpdate.WithData(dto.ThemeActiveDTO{ID: params.ID}))
}
