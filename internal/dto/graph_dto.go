package dto

// NoteAddRequest 追加笔记参数
type NoteAddRequest struct {
	Note string `json:"note" form:"note" binding:"required"`
}

// NotesSetRequest 替换笔记列表参数
type NotesSetRequest struct {
	Notes []string `json:"notes" form:"notes"`
}

// GraphGetRequest 读取图谱参数，Search 非空时高亮匹配节点
type GraphGetRequest struct {
	Search string `json:"search" form:"search"`
}

// GraphImportRequest JSON 方式导入图谱的参数
type GraphImportRequest struct {
	Filename string `json:"filename" form:"filename" binding:"required"`
	Content  string `json:"content" form:"content" binding:"required"`
}

// NotesDTO 笔记列表
type NotesDTO struct {
	Notes []string `json:"notes"`
}

// GraphNodeDTO 图谱节点
type GraphNodeDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// GraphEdgeDTO 图谱边
type GraphEdgeDTO struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Width int    `json:"width,omitempty"`
}

// GraphDTO 知识图谱
type GraphDTO struct {
	Nodes []GraphNodeDTO `json:"nodes"`
	Edges []GraphEdgeDTO `json:"edges"`
}

// GraphImportDTO 导入结果，Kind 为 graph 时返回 Graph，为 notes 时返回 Notes
type GraphImportDTO struct {
	Kind  string    `json:"kind"`
	Graph *GraphDTO `json:"graph,omitempty"`
	Notes []string  `json:"notes,omitempty"`
}
