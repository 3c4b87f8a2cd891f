package dto

import "github.com/haierkeys/miknow-notebook-service/internal/domain"

// ThemeSaveRequest 保存主题参数，名称校验由服务层完成
type ThemeSaveRequest struct {
	Name        string             `json:"name" form:"name"`
	Author      string             `json:"author" form:"author"`
	Description string             `json:"description" form:"description"`
	Colors      domain.ThemeColors `json:"colors" form:"-"`
}

// ThemeActiveRequest 选择主题参数
type ThemeActiveRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

// ThemeDTO 主题
type ThemeDTO struct {
	Name        string             `json:"name"`
	Author      string             `json:"author"`
	Description string             `json:"description"`
	Colors      domain.ThemeColors `json:"colors"`
}

// ThemeSummaryDTO 主题面板条目
type ThemeSummaryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	IsCustom    bool   `json:"isCustom"`
}

// ThemeVariableDTO 可编辑的 CSS 变量
type ThemeVariableDTO struct {
	Name        string `json:"name"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

// ThemeDefaultDTO 新建主题的初始内容与变量说明
type ThemeDefaultDTO struct {
	Theme     ThemeDTO           `json:"theme"`
	Variables []ThemeVariableDTO `json:"variables"`
}

// ThemeCSSDTO 生成的 CSS
type ThemeCSSDTO struct {
	CSS string `json:"css"`
}

// ThemeActiveDTO 当前主题
type ThemeActiveDTO struct {
	ID string `json:"id"`
}
