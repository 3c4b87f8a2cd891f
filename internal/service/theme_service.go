package service

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"
)

// ThemeService 定义主题业务服务接口
type ThemeService interface {
	// Default 新建主题的初始内容
	Default() domain.ThemeData

	// Variables 可编辑的 CSS 变量及其说明
	Variables() []ThemeVariable

	// List 已保存的自定义主题
	List(ctx context.Context, uid int64) ([]domain.ThemeData, error)

	// Get 按 slug 查找自定义主题
	Get(ctx context.Context, uid int64, id string) (*domain.ThemeData, error)

	// Catalog 内置主题与自定义主题的目录
	Catalog(ctx context.Context, uid int64) ([]domain.ThemeSummary, error)

	// Save 按名称新增或覆盖主题
	Save(ctx context.Context, uid int64, theme domain.ThemeData) error

	// Import 从 JSON 文件导入主题
	Import(ctx context.Context, uid int64, raw []byte) (*domain.ThemeSummary, error)

	// Delete 删除 slug 对应的自定义主题
	Delete(ctx context.Context, uid int64, id string) error

	// CSS 生成 :root 与 .dark 两段 CSS 变量
	CSS(theme domain.ThemeData) string

	// ExportName 导出文件名
	ExportName(theme domain.ThemeData) string

	// Export 导出为缩进 JSON
	Export(theme domain.ThemeData) ([]byte, error)

	// Active 当前选中的主题 ID
	Active(ctx context.Context, uid int64) (string, error)

	// SetActive 选择主题
	SetActive(ctx context.Context, uid int64, id string) error
}

type themeService struct {
	store domain.Store
}

// NewThemeService 创建 ThemeService 实例
func NewThemeService(store domain.Store) ThemeService {
	return &themeService{store: store}
}

func (s *themeService) Default() domain.ThemeData {
	colors := make(domain.ThemeColors, 0, len(themeVariables))
	for _, v := range themeVariables {
		colors = append(colors, domain.ColorVar{Name: v.Name, Value: v.Default})
	}
	return domain.ThemeData{
		Name:        defaultThemeName,
		Description: defaultThemeDescription,
		Colors:      colors,
	}
}

func (s *themeService) Variables() []ThemeVariable {
	out := make([]ThemeVariable, len(themeVariables))
	copy(out, themeVariables)
	return out
}

func (s *themeService) List(ctx context.Context, uid int64) ([]domain.ThemeData, error) {
	themes, _, err := getJSON[[]domain.ThemeData](ctx, s.store, uid, domain.KeyThemes)
	if err != nil {
		return nil, err
	}
	if themes == nil {
		themes = []domain.ThemeData{}
	}
	return themes, nil
}

func (s *themeService) Get(ctx context.Context, uid int64, id string) (*domain.ThemeData, error) {
	themes, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	for i := range themes {
		if util.Slugify(themes[i].Name) == id {
			return &themes[i], nil
		}
	}
	return nil, code.ErrorThemeNotFound
}

func (s *themeService) Catalog(ctx context.Context, uid int64) ([]domain.ThemeSummary, error) {
	themes, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ThemeSummary, 0, len(builtinThemes)+len(themes))
	out = append(out, builtinThemes...)
	seen := make(map[string]struct{}, cap(out))
	for _, t := range builtinThemes {
		seen[t.ID] = struct{}{}
	}

	for _, t := range themes {
		id := util.Slugify(t.Name)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, summarizeTheme(t, "Custom theme", "User"))
	}
	return out, nil
}

func summarizeTheme(t domain.ThemeData, description, author string) domain.ThemeSummary {
	if t.Description != "" {
		description = t.Description
	}
	if t.Author != "" {
		author = t.Author
	}
	return domain.ThemeSummary{
		ID:          util.Slugify(t.Name),
		Name:        t.Name,
		Description: description,
		Author:      author,
		IsCustom:    true,
	}
}

func (s *themeService) Save(ctx context.Context, uid int64, theme domain.ThemeData) error {
	if strings.TrimSpace(theme.Name) == "" {
		return code.ErrorThemeNameRequired
	}
	return s.upsert(ctx, uid, theme)
}

// upsert 名称完全相同时原位替换，否则追加
func (s *themeService) upsert(ctx context.Context, uid int64, theme domain.ThemeData) error {
	_, err := updateJSON(ctx, s.store, uid, domain.KeyThemes, func(themes []domain.ThemeData, _ bool) ([]domain.ThemeData, error) {
		replaced := false
		for i := range themes {
			if themes[i].Name == theme.Name {
				themes[i] = theme
				replaced = true
			}
		}
		if !replaced {
			themes = append(themes, theme)
		}
		return themes, nil
	})
	return err
}

func (s *themeService) Import(ctx context.Context, uid int64, raw []byte) (*domain.ThemeSummary, error) {
	var theme domain.ThemeData
	if err := sonic.Unmarshal(raw, &theme); err != nil {
		return nil, code.ErrorThemeInvalidFile.WithDetails(err.Error())
	}
	if theme.Name == "" {
		return nil, code.ErrorThemeMissingName
	}
	if err := s.upsert(ctx, uid, theme); err != nil {
		return nil, err
	}
	sum := summarizeTheme(theme, "Imported theme", "Unknown")
	return &sum, nil
}

func (s *themeService) Delete(ctx context.Context, uid int64, id string) error {
	if isBuiltinTheme(id) {
		return code.ErrorThemeBuiltin
	}
	_, err := updateJSON(ctx, s.store, uid, domain.KeyThemes, func(themes []domain.ThemeData, _ bool) ([]domain.ThemeData, error) {
		kept := make([]domain.ThemeData, 0, len(themes))
		for _, t := range themes {
			if util.Slugify(t.Name) != id {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(themes) {
			return nil, code.ErrorThemeNotFound
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	// 删除的是当前主题时回到默认主题
	if active, err := s.Active(ctx, uid); err == nil && active == id {
		return s.store.Delete(ctx, uid, domain.KeyActiveTheme)
	}
	return nil
}

func (s *themeService) CSS(theme domain.ThemeData) string {
	var vars strings.Builder
	for _, c := range theme.Colors {
		vars.WriteString("  ")
		vars.WriteString(c.Name)
		vars.WriteString(": ")
		vars.WriteString(c.Value)
		vars.WriteString(";\n")
	}
	body := vars.String()
	return ":root {\n" + body + "}\n\n.dark {\n" + body + "}"
}

func (s *themeService) ExportName(theme domain.ThemeData) string {
	return util.Slugify(theme.Name) + ".json"
}

func (s *themeService) Export(theme domain.ThemeData) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(theme, "", "  ")
}

func (s *themeService) Active(ctx context.Context, uid int64) (string, error) {
	id, ok, err := s.store.Get(ctx, uid, domain.KeyActiveTheme)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return defaultActiveTheme, nil
	}
	return id, nil
}

func (s *themeService) SetActive(ctx context.Context, uid int64, id string) error {
	catalog, err := s.Catalog(ctx, uid)
	if err != nil {
		return err
	}
	for _, t := range catalog {
		if t.ID == id {
			return s.store.Set(ctx, uid, domain.KeyActiveTheme, id)
		}
	}
	return code.ErrorThemeNotFound
}
