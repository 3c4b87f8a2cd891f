package service

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"
)

const (
	noteNodeValue   = 5
	noteNodeColor   = "#4caf50"
	noteLabelLength = 30
)

// featureNodes 固定的功能节点，顺序即输出顺序
var featureNodes = []domain.GraphNode{
	{ID: "analysis", Label: "Note Analysis", Value: 8, Color: "#9c27b0"},
	{ID: "links", Label: "Link Suggestions", Value: 7, Color: "#673ab7"},
	{ID: "qa", Label: "Q&A", Value: 6, Color: "#3f51b5"},
	{ID: "graph", Label: "Graph View", Value: 7, Color: "#2196f3"},
	{ID: "generation", Label: "Note Generation", Value: 6, Color: "#03a9f4"},
}

// Synthesizer 根据笔记列表生成示意图谱，边为随机连接而非语义关系
// 非并发安全
type Synthesizer struct {
	rng *rand.Rand
}

func NewSynthesizer(src rand.Source) *Synthesizer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Synthesizer{rng: rand.New(src)}
}

func (s *Synthesizer) Synthesize(notes []string) domain.GraphData {
	if len(notes) == 0 {
		return domain.EmptyGraph()
	}

	nodes := make([]domain.GraphNode, 0, len(featureNodes)+len(notes))
	nodes = append(nodes, featureNodes...)

	var edges []domain.GraphEdge
	n := len(featureNodes)

	for i, note := range notes {
		id := fmt.Sprintf("note-%d", i)
		nodes = append(nodes, domain.GraphNode{
			ID:    id,
			Label: util.Truncate(note, noteLabelLength, "..."),
			Value: noteNodeValue,
			Color: noteNodeColor,
		})

		first := s.rng.Intn(n)
		edges = append(edges, domain.GraphEdge{From: id, To: featureNodes[first].ID, Width: 1})

		if s.rng.Float64() > 0.5 {
			second := s.rng.Intn(n - 1)
			if second >= first {
				second++
			}
			edges = append(edges, domain.GraphEdge{From: id, To: featureNodes[second].ID, Width: 1})
		}
	}

	for i := range featureNodes {
		for j := range featureNodes {
			if i != j && s.rng.Float64() > 0.7 {
				edges = append(edges, domain.GraphEdge{From: featureNodes[i].ID, To: featureNodes[j].ID, Width: 2})
			}
		}
	}

	return domain.GraphData{Nodes: nodes, Edges: edges}
}
