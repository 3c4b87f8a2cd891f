// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	App    AppServiceConfig    // App related config // 应用相关配置
	Export ExportServiceConfig // Export storage config // 导出存储配置
}

// AppServiceConfig app service configuration
// AppServiceConfig 应用服务配置
type AppServiceConfig struct {
	BatchMaxNotes int // Max notes per batch analysis, 0 means 20 // 批量分析最大笔记数，0 表示 20
}

// ExportServiceConfig export service configuration
// ExportServiceConfig 导出服务配置
type ExportServiceConfig struct {
	IsEnable bool // Whether export is enabled // 是否启用导出
}

// BatchLimit returns the effective batch size limit
// BatchLimit 返回批量分析的实际上限
func (c AppServiceConfig) BatchLimit() int {
	if c.BatchMaxNotes <= 0 {
		return 20
	}
	return c.BatchMaxNotes
}
