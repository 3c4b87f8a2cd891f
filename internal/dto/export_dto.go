package dto

// ExportRequest 导出参数，theme 使用 slug，plugin 使用名称，graph 的 name 仅作文件名
type ExportRequest struct {
	Name string `json:"name" form:"name"`
}

// ExportDTO 导出结果
type ExportDTO struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}
