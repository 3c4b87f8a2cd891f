package domain

// PluginType 插件类型
type PluginType string

const (
	PluginVisualization PluginType = "visualization"
	PluginAnalysis      PluginType = "analysis"
	PluginIntegration   PluginType = "integration"
	PluginUtility       PluginType = "utility"
)

// PluginTypes 所有插件类型
var PluginTypes = []PluginType{PluginVisualization, PluginAnalysis, PluginIntegration, PluginUtility}

// Valid 判断插件类型是否合法
func (t PluginType) Valid() bool {
	for _, v := range PluginTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PluginData 插件记录，只保存不执行，以 Name 作为唯一标识
type PluginData struct {
	Name        string     `json:"name"`
	Author      string     `json:"author"`
	Description string     `json:"description"`
	Version     string     `json:"version"`
	Type        PluginType `json:"type"`
	Code        string     `json:"code"`
}

// PluginSummary 插件目录中的条目
type PluginSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Installed   bool   `json:"installed"`
}
