package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"
	"go.uber.org/zap"
)

// ExportKind 可导出的记录类型
type ExportKind string

const (
	ExportTheme  ExportKind = "theme"
	ExportPlugin ExportKind = "plugin"
	ExportGraph  ExportKind = "graph"
)

const defaultGraphExportName = "graph"

// ExportService 定义导出到存储后端的业务服务接口
type ExportService interface {
	// Enabled 导出是否可用
	Enabled() bool

	// Export 序列化记录并写入存储，返回对象键
	// theme 按 slug 查找，plugin 按名称查找，graph 的 name 仅用于文件名
	Export(ctx context.Context, uid int64, kind ExportKind, name string) (string, error)
}

type exportService struct {
	storager storage.Storager
	themes   ThemeService
	plugins  PluginService
	graphs   GraphService
	enabled  bool
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例，storager 为 nil 时导出不可用
func NewExportService(storager storage.Storager, themes ThemeService, plugins PluginService, graphs GraphService, config *ServiceConfig, lg *zap.Logger) ExportService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &exportService{
		storager: storager,
		themes:   themes,
		plugins:  plugins,
		graphs:   graphs,
		enabled:  config != nil && config.Export.IsEnable && storager != nil,
		logger:   lg,
	}
}

func (s *exportService) Enabled() bool {
	return s.enabled
}

func exportKey(uid int64, kind ExportKind, slug string) string {
	return fmt.Sprintf("u_%d/%s/%s.json", uid, kind, slug)
}

func (s *exportService) Export(ctx context.Context, uid int64, kind ExportKind, name string) (string, error) {
	if !s.enabled {
		return "", code.ErrorExportDisabled
	}

	var (
		body []byte
		slug string
		err  error
	)
	switch kind {
	case ExportTheme:
		theme, gerr := s.themes.Get(ctx, uid, name)
		if gerr != nil {
			return "", gerr
		}
		body, err = s.themes.Export(*theme)
		slug = util.Slugify(theme.Name)
	case ExportPlugin:
		plugin, gerr := s.plugins.Get(ctx, uid, name)
		if gerr != nil {
			return "", gerr
		}
		body, err = s.plugins.Export(*plugin)
		slug = util.Slugify(plugin.Name)
	case ExportGraph:
		graph, gerr := s.graphs.Graph(ctx, uid)
		if gerr != nil {
			return "", gerr
		}
		body, err = sonic.ConfigStd.MarshalIndent(graph, "", "  ")
		if name == "" {
			name = defaultGraphExportName
		}
		slug = util.Slugify(name)
	default:
		return "", code.ErrorInvalidParams.WithDetails("unknown export kind " + string(kind))
	}
	if err != nil {
		return "", err
	}

	key, err := s.storager.SendContent(ctx, exportKey(uid, kind, slug), body, "application/json")
	if err != nil {
		s.logger.Error("export upload failed",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldFileKey, exportKey(uid, kind, slug)),
			zap.Error(err))
		return "", code.ErrorExportFailed.WithDetails(err.Error())
	}
	return key, nil
}
