package domain

// GraphNode 图谱节点
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// GraphEdge 图谱边，端点不做引用校验
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Width int    `json:"width,omitempty"`
}

// GraphData 知识图谱
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EmptyGraph 返回节点与边均为空切片的图谱
func EmptyGraph() GraphData {
	return GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
}
