package api_router

import (
	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	apperrors "github.com/haierkeys/miknow-notebook-service/pkg/errors"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// SettingHandler 密钥与模型设置处理器
type SettingHandler struct {
	*Handler
}

// NewSettingHandler 创建 SettingHandler 实例
func NewSettingHandler(a *app.App) *SettingHandler {
	return &SettingHandler{Handler: NewHandler(a)}
}

// Models 可选模型列表
func (h *SettingHandler) Models(c *gin.Context) {
	var out []dto.ModelOptionDTO
	if err := copier.Copy(&out, h.App.CredentialService.Models()); err != nil {
		h.logError(c.Request.Context(), "SettingHandler.Models", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Credential 读取当前凭证，密钥只返回掩码
func (h *SettingHandler) Credential(c *gin.Context) {
	ctx := c.Request.Context()
	uid := pkgapp.GetUID(c)

	cred, err := h.App.CredentialService.Get(ctx, uid)
	if err != nil {
		h.logError(ctx, "SettingHandler.Credential", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.CredentialDTO{
		APIKey: util.MaskSecret(cred.APIKey),
		Model:  cred.Model,
		Valid:  cred.Valid,
	}))
}

// Status 密钥状态，已保存的状态为无效时后台重新校验
func (h *SettingHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	uid := pkgapp.GetUID(c)

	status, err := h.App.CredentialService.Status(ctx, uid)
	if err != nil {
		h.logError(ctx, "SettingHandler.Status", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	out := dto.CredentialStatusDTO{}
	_ = copier.Copy(&out, status)
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Validate 校验提交的密钥并保存校验结果
func (h *SettingHandler) Validate(c *gin.Context) {
	params := &dto.CredentialValidateRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "SettingHandler.Validate", errs)
		return
	}

	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceCredential)
	defer ticket.Done()

	ok, err := h.App.CredentialService.Validate(ctx, uid, params.APIKey)
	if h.stale(c, ticket, uid, service.SurfaceCredential) {
		return
	}
	if err != nil {
		h.logError(ctx, "SettingHandler.Validate", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.CredentialValidDTO{Valid: ok}))
}

// Save 保存密钥与模型，非空密钥需通过校验
func (h *SettingHandler) Save(c *gin.Context) {
	params := &dto.CredentialSaveRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "SettingHandler.Save", errs)
		return
	}

	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceCredential)
	defer ticket.Done()

	err := h.App.CredentialService.Save(ctx, uid, params.APIKey, params.Model)
	if h.stale(c, ticket, uid, service.SurfaceCredential) {
		return
	}
	if err != nil {
		h.logError(ctx, "SettingHandler.Save", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	cred, err := h.App.CredentialService.Get(ctx, uid)
	if err != nil {
		h.logError(ctx, "SettingHandler.Save.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessUpdate.WithData(dto.CredentialDTO{
		APIKey: util.MaskSecret(cred.APIKey),
		Model:  cred.Model,
		Valid:  cred.Valid,
	}))
}
