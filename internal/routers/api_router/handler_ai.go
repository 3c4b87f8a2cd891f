package api_router

import (
	"strconv"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	apperrors "github.com/haierkeys/miknow-notebook-service/pkg/errors"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// AIHandler 笔记分析、链接推荐、生成与问答处理器
type AIHandler struct {
	*Handler
}

// NewAIHandler 创建 AIHandler 实例
func NewAIHandler(a *app.App) *AIHandler {
	return &AIHandler{Handler: NewHandler(a)}
}

func isMalformed(f *service.Failure) bool {
	return f != nil && f.Kind == service.FailureMalformed
}

func toAnalysisDTO(r domain.AnalysisResult, fallback bool) *dto.AnalysisDTO {
	out := &dto.AnalysisDTO{}
	_ = copier.Copy(out, &r)
	out.Fallback = fallback
	return out
}

// Analyze 分析单条笔记，回复无法解析时返回默认分析结果
func (h *AIHandler) Analyze(c *gin.Context) {
	params := &dto.AnalyzeRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "AIHandler.Analyze", errs)
		return
	}

	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceAnalysis)
	defer ticket.Done()

	res := h.App.AIService.Analyze(ctx, uid, params.Content)
	if h.stale(c, ticket, uid, service.SurfaceAnalysis) {
		return
	}
	if res.Failure != nil && !isMalformed(res.Failure) {
		h.logError(ctx, "AIHandler.Analyze", res.Err())
		apperrors.ErrorResponse(c, res.Err())
		return
	}

	fallback := isMalformed(res.Failure)
	if fallback {
		h.App.Logger().Warn("AIHandler.Analyze fallback", zap.String(logger.FieldKind, string(res.Failure.Kind)), zap.Error(res.Err()))
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(toAnalysisDTO(res.OrFallback(service.AnalysisFallback()), fallback)))
}

// AnalyzeBatch 批量分析，每条笔记单独返回结果或失败原因
func (h *AIHandler) AnalyzeBatch(c *gin.Context) {
	params := &dto.AnalyzeBatchRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "AIHandler.AnalyzeBatch", errs)
		return
	}

	limit := h.App.ServiceConfig().App.BatchLimit()
	if len(params.Notes) > limit {
		pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails("at most " + strconv.Itoa(limit) + " notes per batch"))
		return
	}

	uid := pkgapp.GetUID(c)
	ctx := c.Request.Context()
	results := h.App.AIService.AnalyzeBatch(ctx, uid, params.Notes)

	items := make([]dto.BatchItemDTO, len(results))
	for i, res := range results {
		items[i].Index = i
		switch {
		case res.Failure == nil:
			items[i].Analysis = toAnalysisDTO(res.Value, false)
		case isMalformed(res.Failure):
			items[i].Analysis = toAnalysisDTO(service.AnalysisFallback(), true)
		default:
			items[i].Error = &dto.FailureDTO{Kind: string(res.Failure.Kind), Message: res.Failure.Message}
		}
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(items))
}

// Links 推荐链接，按相关度降序；回复无法解析时返回默认推荐
func (h *AIHandler) Links(c *gin.Context) {
	params := &dto.LinksRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "AIHandler.Links", errs)
		return
	}

	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceLinks)
	defer ticket.Done()

	res := h.App.AIService.SuggestLinks(ctx, uid, params.Content, params.ExistingNotes)
	if h.stale(c, ticket, uid, service.SurfaceLinks) {
		return
	}
	if res.Failure != nil && !isMalformed(res.Failure) {
		h.logError(ctx, "AIHandler.Links", res.Err())
		apperrors.ErrorResponse(c, res.Err())
		return
	}

	links := service.SortByRelevance(res.OrFallback(service.LinkFallback(params.ExistingNotes)))
	out := dto.LinksDTO{Links: make([]dto.LinkSuggestionDTO, 0, len(links)), Fallback: isMalformed(res.Failure)}
	_ = copier.Copy(&out.Links, &links)
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Generate 根据提示词生成 Markdown 笔记
func (h *AIHandler) Generate(c *gin.Context) {
	params := &dto.GenerateRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "AIHandler.Generate", errs)
		return
	}

	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceGeneration)
	defer ticket.Done()

	res := h.App.AIService.GenerateNote(ctx, uid, params.Prompt, params.RelatedNotes)
	if h.stale(c, ticket, uid, service.SurfaceGeneration) {
		return
	}
	if !res.OK() {
		h.logError(ctx, "AIHandler.Generate", res.Err())
		apperrors.ErrorResponse(c, res.Err())
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.GeneratedNoteDTO{Content: res.Value}))
}

// Answer 基于知识库内容回答问题
func (h *AIHandler) Answer(c *gin.Context) {
	params := &dto.AnswerRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "AIHandler.Answer", errs)
		return
	}

	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceQA)
	defer ticket.Done()

	res := h.App.AIService.AnswerQuestion(ctx, uid, params.Question, params.VaultContent)
	if h.stale(c, ticket, uid, service.SurfaceQA) {
		return
	}
	if !res.OK() {
		h.logError(ctx, "AIHandler.Answer", res.Err())
		apperrors.ErrorResponse(c, res.Err())
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.AnswerDTO{Answer: res.Value}))
}
