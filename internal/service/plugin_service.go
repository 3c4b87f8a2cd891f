package service

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
	"golang.org/x/mod/semver"
)

//go:embed templates/*.js
var pluginTemplates embed.FS

const (
	pluginTestPassed = "Plugin test completed successfully! The plugin appears to be valid."
)

var builtinPlugins = []domain.PluginSummary{
	{ID: "graph-enhancer", Name: "Graph Enhancer", Description: "Adds advanced visualization options to the graph view", Author: "MiKnow"},
	{ID: "citation-helper", Name: "Citation Helper", Description: "Automatically formats and manages citations in your notes", Author: "Community"},
	{ID: "markdown-extended", Name: "Markdown Extended", Description: "Adds additional markdown formatting options", Author: "Community"},
	{ID: "obsidian-sync", Name: "Obsidian Sync", Description: "Synchronize your notes with Obsidian.md", Author: "MiKnow"},
}

var defaultInstalledPlugins = []string{"markdown-extended"}

// PluginService 定义插件业务服务接口
// 插件代码只做保存与静态检查，从不执行
type PluginService interface {
	// Default 新建插件的初始内容
	Default() domain.PluginData

	// Template 指定类型的模板代码
	Template(t domain.PluginType) (string, error)

	// Test 静态检查插件代码
	Test(plugin domain.PluginData) (string, error)

	// List 已保存的插件
	List(ctx context.Context, uid int64) ([]domain.PluginData, error)

	// Get 按名称查找插件
	Get(ctx context.Context, uid int64, name string) (*domain.PluginData, error)

	// Save 按名称新增或覆盖插件
	Save(ctx context.Context, uid int64, plugin domain.PluginData) error

	// Delete 按名称删除插件
	Delete(ctx context.Context, uid int64, name string) error

	// ExportName 导出文件名
	ExportName(plugin domain.PluginData) string

	// Export 导出为缩进 JSON
	Export(plugin domain.PluginData) ([]byte, error)

	// Catalog 内置插件目录及安装状态
	Catalog(ctx context.Context, uid int64) ([]domain.PluginSummary, error)

	// SetInstalled 启用或停用内置插件
	SetInstalled(ctx context.Context, uid int64, id string, installed bool) ([]domain.PluginSummary, error)
}

type pluginService struct {
	store domain.Store
}

// NewPluginService 创建 PluginService 实例
func NewPluginService(store domain.Store) PluginService {
	return &pluginService{store: store}
}

func readTemplate(name string) string {
	b, err := pluginTemplates.ReadFile("templates/" + name + ".js")
	if err != nil {
		panic(fmt.Sprintf("plugin template %s: %v", name, err))
	}
	return string(b)
}

func (s *pluginService) Default() domain.PluginData {
	return domain.PluginData{
		Name:        "New Plugin",
		Description: "A custom plugin for MiKnow",
		Version:     "0.1.0",
		Type:        domain.PluginUtility,
		Code:        readTemplate("default"),
	}
}

func (s *pluginService) Template(t domain.PluginType) (string, error) {
	if !t.Valid() {
		return "", code.ErrorPluginInvalidType.WithDetails(string(t))
	}
	return readTemplate(string(t)), nil
}

func (s *pluginService) Test(plugin domain.PluginData) (string, error) {
	if err := probeSyntax(plugin.Code); err != nil {
		return "", code.ErrorPluginSyntax.WithDetails(err.Error())
	}
	if !strings.Contains(plugin.Code, "activate") || !strings.Contains(plugin.Code, "deactivate") {
		return "", code.ErrorPluginMissingLifecycle
	}
	return pluginTestPassed, nil
}

func (s *pluginService) List(ctx context.Context, uid int64) ([]domain.PluginData, error) {
	plugins, _, err := getJSON[[]domain.PluginData](ctx, s.store, uid, domain.KeyPlugins)
	if err != nil {
		return nil, err
	}
	if plugins == nil {
		plugins = []domain.PluginData{}
	}
	return plugins, nil
}

func (s *pluginService) Get(ctx context.Context, uid int64, name string) (*domain.PluginData, error) {
	plugins, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	for i := range plugins {
		if plugins[i].Name == name {
			return &plugins[i], nil
		}
	}
	return nil, code.ErrorPluginNotFound
}

// validVersion 要求完整的 x.y.z，可带预发布与构建后缀
func validVersion(v string) bool {
	sv := "v" + v
	if !semver.IsValid(sv) {
		return false
	}
	core := strings.TrimPrefix(semver.Canonical(sv), "v")
	if i := strings.IndexByte(core, '-'); i >= 0 {
		core = core[:i]
	}
	return strings.HasPrefix(v, core)
}

func (s *pluginService) Save(ctx context.Context, uid int64, plugin domain.PluginData) error {
	if strings.TrimSpace(plugin.Name) == "" {
		return code.ErrorPluginNameRequired
	}
	if !plugin.Type.Valid() {
		return code.ErrorPluginInvalidType.WithDetails(string(plugin.Type))
	}
	if !validVersion(plugin.Version) {
		return code.ErrorPluginInvalidVersion.WithDetails(plugin.Version)
	}

	_, err := updateJSON(ctx, s.store, uid, domain.KeyPlugins, func(plugins []domain.PluginData, _ bool) ([]domain.PluginData, error) {
		replaced := false
		for i := range plugins {
			if plugins[i].Name == plugin.Name {
				plugins[i] = plugin
				replaced = true
			}
		}
		if !replaced {
			plugins = append(plugins, plugin)
		}
		return plugins, nil
	})
	return err
}

func (s *pluginService) Delete(ctx context.Context, uid int64, name string) error {
	_, err := updateJSON(ctx, s.store, uid, domain.KeyPlugins, func(plugins []domain.PluginData, _ bool) ([]domain.PluginData, error) {
		kept := make([]domain.PluginData, 0, len(plugins))
		for _, p := range plugins {
			if p.Name != name {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(plugins) {
			return nil, code.ErrorPluginNotFound
		}
		return kept, nil
	})
	return err
}

func (s *pluginService) ExportName(plugin domain.PluginData) string {
	return util.Slugify(plugin.Name) + ".json"
}

func (s *pluginService) Export(plugin domain.PluginData) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(plugin, "", "  ")
}

func (s *pluginService) installed(ctx context.Context, uid int64) ([]string, error) {
	ids, ok, err := getJSON[[]string](ctx, s.store, uid, domain.KeyInstalledPlugins)
	if err != nil {
		return nil, err
	}
	if !ok {
		return append([]string(nil), defaultInstalledPlugins...), nil
	}
	return ids, nil
}

func (s *pluginService) Catalog(ctx context.Context, uid int64) ([]domain.PluginSummary, error) {
	ids, err := s.installed(ctx, uid)
	if err != nil {
		return nil, err
	}
	on := make(map[string]bool, len(ids))
	for _, id := range ids {
		on[id] = true
	}

	out := make([]domain.PluginSummary, len(builtinPlugins))
	for i, p := range builtinPlugins {
		p.Installed = on[p.ID]
		out[i] = p
	}
	return out, nil
}

func (s *pluginService) SetInstalled(ctx context.Context, uid int64, id string, installed bool) ([]domain.PluginSummary, error) {
	known := false
	for _, p := range builtinPlugins {
		if p.ID == id {
			known = true
			break
		}
	}
	if !known {
		return nil, code.ErrorPluginNotFound.WithDetails(id)
	}

	_, err := updateJSON(ctx, s.store, uid, domain.KeyInstalledPlugins, func(ids []string, ok bool) ([]string, error) {
		if !ok {
			ids = defaultInstalledPlugins
		}
		next := make([]string, 0, len(ids)+1)
		for _, v := range ids {
			if v != id {
				next = append(next, v)
			}
		}
		if installed {
			next = append(next, id)
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Catalog(ctx, uid)
}

// probeSyntax 按 ES 模块语法解析插件代码，只解析不执行
func probeSyntax(src string) error {
	_, err := js.Parse(parse.NewInputString(src), js.Options{})
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
