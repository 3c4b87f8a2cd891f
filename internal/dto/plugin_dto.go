package dto

// PluginSaveRequest 保存插件参数，名称、版本与类型由服务层校验
type PluginSaveRequest struct {
	Name        string `json:"name" form:"name"`
	Author      string `json:"author" form:"author"`
	Description string `json:"description" form:"description"`
	Version     string `json:"version" form:"version"`
	Type        string `json:"type" form:"type"`
	Code        string `json:"code" form:"code"`
}

// PluginTestRequest 插件检查参数
type PluginTestRequest struct {
	Code string `json:"code" form:"code"`
}

// PluginInstallRequest 启用或停用内置插件
type PluginInstallRequest struct {
	Installed *bool `json:"installed" form:"installed" binding:"required"`
}

// PluginDTO 插件
type PluginDTO struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Type        string `json:"type"`
	Code        string `json:"code"`
}

// PluginSummaryDTO 插件目录条目
type PluginSummaryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Installed   bool   `json:"installed"`
}

// PluginTemplateDTO 插件模板代码
type PluginTemplateDTO struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// PluginTestDTO 检查结果
type PluginTestDTO struct {
	Message string `json:"message"`
}
