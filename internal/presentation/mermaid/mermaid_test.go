package mermaid_test

import (
	"strings"
	"testing"

	"github.com/easelab/easel/internal/presentation/mermaid"
	"github.com/easelab/easel/pkg/domain"
)

func TestFlowchart(t *testing.T) {
	tests := []struct {
		name     string
		snap     domain.Snapshot
		contains []string
	}{
		{
			name: "entry node draws as circle",
			snap: domain.Snapshot{
				Nodes: []domain.Node{
					{ID: "fetch", Name: "fetch"},
					{ID: "sum", Name: "sum"},
				},
				Edges: []domain.Edge{domain.NewEdge("fetch", "sum", "")},
			},
			contains: []string{
				`fetch(("fetch"))`,
				`sum["sum"]`,
				"fetch --> sum",
			},
		},
		{
			name: "control edge draws thick",
			snap: domain.Snapshot{
				Nodes: []domain.Node{
					{ID: "a", Name: "a"},
					{ID: "b", Name: "b"},
				},
				Edges: []domain.Edge{domain.NewEdge("a", "b", domain.EdgeControlsFlow)},
			},
			contains: []string{"a ==> b"},
		},
		{
			name: "model annotated on second line",
			snap: domain.Snapshot{
				Nodes: []domain.Node{
					{ID: "n1", Name: "writer", Model: "gpt-4o"},
				},
			},
			contains: []string{`n1["writer <br/> gpt-4o"]`},
		},
		{
			name: "id sanitization",
			snap: domain.Snapshot{
				Nodes: []domain.Node{
					{ID: "node-1.a", Name: "first"},
				},
			},
			contains: []string{`node_1_a["first"]`},
		},
		{
			name: "quotes in names are neutralized",
			snap: domain.Snapshot{
				Nodes: []domain.Node{
					{ID: "q", Name: `say "hi"`},
				},
			},
			contains: []string{`q["say 'hi'"]`},
		},
		{
			name: "isolated nodes stay rectangles",
			snap: domain.Snapshot{
				Nodes: []domain.Node{{ID: "lone", Name: "lone"}},
			},
			contains: []string{`lone["lone"]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mermaid.Flowchart(&tt.snap)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Flowchart() =\n%v\nwant substring: %v", got, want)
				}
			}
		})
	}
}

func TestFlowchartEmpty(t *testing.T) {
	got := mermaid.Flowchart(&domain.Snapshot{})
	if got != "graph TD\n" {
		t.Errorf("empty snapshot = %q", got)
	}
}
