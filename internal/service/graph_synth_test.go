package service

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_Empty(t *testing.T) {
	g := NewSynthesizer(rand.NewSource(1)).Synthesize(nil)
	require.NotNil(t, g.Nodes)
	require.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestSynthesize_Labels(t *testing.T) {
	long := strings.Repeat("é", 31)
	g := NewSynthesizer(rand.NewSource(1)).Synthesize([]string{"short", long, strings.Repeat("x", 30)})

	require.Len(t, g.Nodes, 8)
	assert.Equal(t, "analysis", g.Nodes[0].ID)
	assert.Equal(t, "generation", g.Nodes[4].ID)

	assert.Equal(t, domain.GraphNode{ID: "note-0", Label: "short", Value: 5, Color: "#4caf50"}, g.Nodes[5])
	assert.Equal(t, strings.Repeat("é", 30)+"...", g.Nodes[6].Label)
	assert.Equal(t, strings.Repeat("x", 30), g.Nodes[7].Label)
}

func TestSynthesize_SameSeedSameGraph(t *testing.T) {
	notes := []string{"a", "b", "c", "d"}
	g1 := NewSynthesizer(rand.NewSource(42)).Synthesize(notes)
	g2 := NewSynthesizer(rand.NewSource(42)).Synthesize(notes)
	assert.Equal(t, g1, g2)
}

func TestProperty_SynthesizedGraphShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("5+N nodes, 1-2 distinct feature edges per note, endpoints exist", prop.ForAll(
		func(notes []string, seed int64) bool {
			g := NewSynthesizer(rand.NewSource(seed)).Synthesize(notes)
			if len(notes) == 0 {
				return len(g.Nodes) == 0 && len(g.Edges) == 0
			}
			if len(g.Nodes) != 5+len(notes) {
				return false
			}

			ids := make(map[string]bool, len(g.Nodes))
			features := make(map[string]bool, 5)
			for _, n := range g.Nodes {
				ids[n.ID] = true
				if !strings.HasPrefix(n.ID, "note-") {
					features[n.ID] = true
				}
			}

			out := make(map[string][]string)
			for _, e := range g.Edges {
				if !ids[e.From] || !ids[e.To] {
					return false
				}
				if strings.HasPrefix(e.From, "note-") {
					if !features[e.To] || e.Width != 1 {
						return false
					}
					out[e.From] = append(out[e.From], e.To)
				} else if e.From == e.To || e.Width != 2 {
					return false
				}
			}

			for _, n := range g.Nodes[5:] {
				targets := out[n.ID]
				if len(targets) < 1 || len(targets) > 2 {
					return false
				}
				if len(targets) == 2 && targets[0] == targets[1] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
