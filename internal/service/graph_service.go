package service

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

const (
	searchHighlightColor = "#ff5722"
	featureDefaultColor  = "#9c27b0"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// GraphImportKind 导入文件被识别的类型
type GraphImportKind string

const (
	GraphImportGraph GraphImportKind = "graph"
	GraphImportNotes GraphImportKind = "notes"
)

// GraphImportResult 导入结果，Kind 决定 Graph 与 Notes 哪个有值
type GraphImportResult struct {
	Kind  GraphImportKind
	Graph *domain.GraphData
	Notes []string
}

// GraphService 定义图谱视图业务服务接口
type GraphService interface {
	// Notes 读取笔记列表
	Notes(ctx context.Context, uid int64) ([]string, error)

	// AddNote 追加一条笔记并返回新的列表
	AddNote(ctx context.Context, uid int64, note string) ([]string, error)

	// SetNotes 替换笔记列表
	SetNotes(ctx context.Context, uid int64, notes []string) ([]string, error)

	// Graph 读取已保存的图谱
	Graph(ctx context.Context, uid int64) (domain.GraphData, error)

	// Generate 根据笔记列表生成并保存图谱
	Generate(ctx context.Context, uid int64) (domain.GraphData, error)

	// Search 返回高亮匹配节点后的副本
	Search(data domain.GraphData, term string) domain.GraphData

	// Import 导入图谱 JSON 或按行分隔的笔记文本
	Import(ctx context.Context, uid int64, filename string, content []byte) (*GraphImportResult, error)
}

type graphService struct {
	store  domain.Store
	logger *zap.Logger

	mu    sync.Mutex
	synth *Synthesizer
}

// NewGraphService 创建 GraphService 实例，src 为 nil 时使用时间种子
func NewGraphService(store domain.Store, src rand.Source, lg *zap.Logger) GraphService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &graphService{store: store, synth: NewSynthesizer(src), logger: lg}
}

func (s *graphService) Notes(ctx context.Context, uid int64) ([]string, error) {
	notes, _, err := getJSON[[]string](ctx, s.store, uid, domain.KeyNotes)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []string{}
	}
	return notes, nil
}

func (s *graphService) AddNote(ctx context.Context, uid int64, note string) ([]string, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, code.ErrorNoteEmpty
	}
	return updateJSON(ctx, s.store, uid, domain.KeyNotes, func(notes []string, _ bool) ([]string, error) {
		return append(notes, note), nil
	})
}

func (s *graphService) SetNotes(ctx context.Context, uid int64, notes []string) ([]string, error) {
	if notes == nil {
		notes = []string{}
	}
	if err := setJSON(ctx, s.store, uid, domain.KeyNotes, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *graphService) Graph(ctx context.Context, uid int64) (domain.GraphData, error) {
	g, ok, err := getJSON[domain.GraphData](ctx, s.store, uid, domain.KeyGraphData)
	if err != nil {
		s.logger.Warn("saved graph data is unreadable", zap.Int64(logger.FieldUID, uid), zap.Error(err))
		return domain.GraphData{}, code.ErrorGraphLoad.WithDetails(err.Error())
	}
	if !ok {
		return domain.EmptyGraph(), nil
	}
	if g.Nodes == nil {
		g.Nodes = []domain.GraphNode{}
	}
	if g.Edges == nil {
		g.Edges = []domain.GraphEdge{}
	}
	return g, nil
}

func (s *graphService) Generate(ctx context.Context, uid int64) (domain.GraphData, error) {
	notes, err := s.Notes(ctx, uid)
	if err != nil {
		return domain.GraphData{}, err
	}
	if len(notes) == 0 {
		return domain.GraphData{}, code.ErrorNoNotes
	}

	s.mu.Lock()
	g := s.synth.Synthesize(notes)
	s.mu.Unlock()

	if err := setJSON(ctx, s.store, uid, domain.KeyGraphData, g); err != nil {
		return domain.GraphData{}, err
	}
	return g, nil
}

func (s *graphService) Search(data domain.GraphData, term string) domain.GraphData {
	out := domain.GraphData{
		Nodes: make([]domain.GraphNode, len(data.Nodes)),
		Edges: make([]domain.GraphEdge, len(data.Edges)),
	}
	copy(out.Nodes, data.Nodes)
	copy(out.Edges, data.Edges)
	if term == "" {
		return out
	}

	fold := cases.Fold()
	needle := fold.String(term)
	for i, n := range out.Nodes {
		switch {
		case strings.Contains(fold.String(n.Label), needle):
			out.Nodes[i].Color = searchHighlightColor
		case n.Color != "":
		case strings.HasPrefix(n.ID, "note-"):
			out.Nodes[i].Color = noteNodeColor
		default:
			out.Nodes[i].Color = featureDefaultColor
		}
	}
	return out
}

// graphProbe 只用于判断 nodes 与 edges 键是否存在且非空
type graphProbe struct {
	Nodes any `json:"nodes"`
	Edges any `json:"edges"`
}

func (s *graphService) Import(ctx context.Context, uid int64, filename string, content []byte) (*GraphImportResult, error) {
	var probe graphProbe
	if sonic.Unmarshal(content, &probe) == nil && probe.Nodes != nil && probe.Edges != nil {
		var g domain.GraphData
		if err := sonic.Unmarshal(content, &g); err == nil {
			if err := setJSON(ctx, s.store, uid, domain.KeyGraphData, g); err != nil {
				return nil, err
			}
			return &GraphImportResult{Kind: GraphImportGraph, Graph: &g}, nil
		}
		s.logger.Debug("graph-like file did not decode, importing as text", zap.String(logger.FieldFileKey, filename))
	}

	var lines []string
	for _, line := range lineBreak.Split(string(content), -1) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, code.ErrorNoValidContent
	}
	if _, err := s.SetNotes(ctx, uid, lines); err != nil {
		return nil, err
	}
	return &GraphImportResult{Kind: GraphImportNotes, Notes: lines}, nil
}
