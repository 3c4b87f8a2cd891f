package api_router

import (
	"io"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	apperrors "github.com/haierkeys/miknow-notebook-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// 导入文件大小上限
const maxImportSize = 8 << 20

// GraphHandler 笔记列表与知识图谱处理器
type GraphHandler struct {
	*Handler
}

// NewGraphHandler 创建 GraphHandler 实例
func NewGraphHandler(a *app.App) *GraphHandler {
	return &GraphHandler{Handler: NewHandler(a)}
}

func toGraphDTO(g domain.GraphData) *dto.GraphDTO {
	out := &dto.GraphDTO{
		Nodes: make([]dto.GraphNodeDTO, 0, len(g.Nodes)),
		Edges: make([]dto.GraphEdgeDTO, 0, len(g.Edges)),
	}
	_ = copier.Copy(&out.Nodes, &g.Nodes)
	_ = copier.Copy(&out.Edges, &g.Edges)
	return out
}

func (h *GraphHandler) notesResponse(c *gin.Context, method string, notes []string, err error) {
	if err != nil {
		h.logError(c.Request.Context(), method, err)
		apperrors.ErrorResponse(c, err)
		return
	}
	if notes == nil {
		notes = []string{}
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.NotesDTO{Notes: notes}))
}

// Notes 读取笔记列表
func (h *GraphHandler) Notes(c *gin.Context) {
	notes, err := h.App.GraphService.Notes(c.Request.Context(), pkgapp.GetUID(c))
	h.notesResponse(c, "GraphHandler.Notes", notes, err)
}

// AddNote 追加一条笔记
func (h *GraphHandler) AddNote(c *gin.Context) {
	params := &dto.NoteAddRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "GraphHandler.AddNote", errs)
		return
	}
	notes, err := h.App.GraphService.AddNote(c.Request.Context(), pkgapp.GetUID(c), params.Note)
	h.notesResponse(c, "GraphHandler.AddNote", notes, err)
}

// SetNotes 替换笔记列表
func (h *GraphHandler) SetNotes(c *gin.Context) {
	params := &dto.NotesSetRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "GraphHandler.SetNotes", errs)
		return
	}
	notes, err := h.App.GraphService.SetNotes(c.Request.Context(), pkgapp.GetUID(c), params.Notes)
	h.notesResponse(c, "GraphHandler.SetNotes", notes, err)
}

// Graph 读取已保存的图谱，search 非空时高亮匹配节点
func (h *GraphHandler) Graph(c *gin.Context) {
	params := &dto.GraphGetRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "GraphHandler.Graph", errs)
		return
	}

	ctx := c.Request.Context()
	data, err := h.App.GraphService.Graph(ctx, pkgapp.GetUID(c))
	if err != nil {
		h.logError(ctx, "GraphHandler.Graph", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	if params.Search != "" {
		data = h.App.GraphService.Search(data, params.Search)
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(toGraphDTO(data)))
}

// Generate 由笔记列表生成图谱
func (h *GraphHandler) Generate(c *gin.Context) {
	uid := pkgapp.GetUID(c)
	ctx, ticket := h.beginSurface(c, uid, service.SurfaceGraph)
	defer ticket.Done()

	data, err := h.App.GraphService.Generate(ctx, uid)
	if h.stale(c, ticket, uid, service.SurfaceGraph) {
		return
	}
	if err != nil {
		h.logError(ctx, "GraphHandler.Generate", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(toGraphDTO(data)))
}

// readImport 读取 multipart 的 file 字段，或 JSON 中的 filename 与 content
func (h *GraphHandler) readImport(c *gin.Context) (string, []byte, bool) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.logError(c.Request.Context(), "GraphHandler.Import.Open", err)
			pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
			return "", nil, false
		}
		defer f.Close()
		body, err := io.ReadAll(io.LimitReader(f, maxImportSize))
		if err != nil {
			h.logError(c.Request.Context(), "GraphHandler.Import.Read", err)
			pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
			return "", nil, false
		}
		return fh.Filename, body, true
	}

	params := &dto.GraphImportRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		h.bindFailed(c, "GraphHandler.Import", errs)
		return "", nil, false
	}
	return params.Filename, []byte(params.Content), true
}

// Import 导入图谱 JSON 或按行分隔的笔记文本
func (h *GraphHandler) Import(c *gin.Context) {
	filename, body, ok := h.readImport(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	res, err := h.App.GraphService.Import(ctx, pkgapp.GetUID(c), filename, body)
	if err != nil {
		h.logError(ctx, "GraphHandler.Import", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	out := dto.GraphImportDTO{Kind: string(res.Kind), Notes: res.Notes}
	if res.Graph != nil {
		out.Graph = toGraphDTO(*res.Graph)
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}
