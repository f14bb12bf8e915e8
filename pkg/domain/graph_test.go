package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestGraphAddNode(t *testing.T) {
	g := NewGraph("demo", "")

	if err := g.AddNode(named("a")); err != nil {
		t.Fatalf("AddNode(a) failed: %v", err)
	}
	if !g.Modified() {
		t.Error("graph not marked modified after AddNode")
	}

	err := g.AddNode(named("a"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("duplicate AddNode returned %v, want ValidationError", err)
	}
	if verr.ID != "a" {
		t.Errorf("ValidationError.ID = %q, want %q", verr.ID, "a")
	}

	if err := g.AddNode(Node{Name: "anonymous"}); err == nil {
		t.Error("AddNode without id succeeded, want error")
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestGraphUpdateNode(t *testing.T) {
	g := NewGraph("demo", "")
	if err := g.AddNode(named("a")); err != nil {
		t.Fatal(err)
	}
	g.MarkSaved()

	changed := named("a")
	changed.Model = "claude-sonnet-4"
	if err := g.UpdateNode(changed); err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}
	got, _ := g.Node("a")
	if got.Model != "claude-sonnet-4" {
		t.Errorf("Node(a).Model = %q after update", got.Model)
	}
	if !g.Modified() {
		t.Error("graph not marked modified after UpdateNode")
	}

	if err := g.UpdateNode(named("ghost")); err == nil {
		t.Error("UpdateNode on unknown id succeeded, want error")
	}
}

func TestGraphEdgeInvariants(t *testing.T) {
	g := NewGraph("demo", "")
	for _, id := range []string{"a", "b"} {
		if err := g.AddNode(named(id)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		edge      Edge
		force     bool
		wantError bool
	}{
		{name: "Valid Edge", edge: Edge{Source: "a", Target: "b"}},
		{name: "Duplicate Pair", edge: Edge{Source: "a", Target: "b"}, wantError: true},
		{name: "Reverse Pair Is Distinct", edge: Edge{Source: "b", Target: "a"}},
		{name: "Missing Source", edge: Edge{Source: "x", Target: "b"}, wantError: true},
		{name: "Missing Target", edge: Edge{Source: "a", Target: "x"}, wantError: true},
		{name: "Self Loop Blocked", edge: Edge{Source: "a", Target: "a"}, wantError: true},
		{name: "Self Loop Forced", edge: Edge{Source: "a", Target: "a"}, force: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddEdge(tt.edge, tt.force)
			if tt.wantError && err == nil {
				t.Errorf("AddEdge(%s->%s) succeeded, want error", tt.edge.Source, tt.edge.Target)
			}
			if !tt.wantError && err != nil {
				t.Errorf("AddEdge(%s->%s) failed: %v", tt.edge.Source, tt.edge.Target, err)
			}
		})
	}

	e, ok := g.Edge("a-b")
	if !ok {
		t.Fatal("edge a-b not found after AddEdge")
	}
	if e.Type != EdgeProvidesContext {
		t.Errorf("edge type defaulted to %q, want %q", e.Type, EdgeProvidesContext)
	}
}

func TestGraphRemoveNodeCascades(t *testing.T) {
	g := NewGraph("demo", "")
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(named(id)); err != nil {
			t.Fatal(err)
		}
	}
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}} {
		if err := g.AddEdge(Edge{Source: pair[0], Target: pair[1]}, false); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := g.RemoveNode("b")
	if err != nil {
		t.Fatalf("RemoveNode(b) failed: %v", err)
	}
	gotIDs := make([]string, 0, len(removed))
	for _, e := range removed {
		gotIDs = append(gotIDs, e.ID)
	}
	if !reflect.DeepEqual(gotIDs, []string{"a-b", "b-c"}) {
		t.Errorf("cascaded edges = %v, want [a-b b-c]", gotIDs)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d after cascade, want 1", g.EdgeCount())
	}
	if _, ok := g.Edge("c-a"); !ok {
		t.Error("unrelated edge c-a removed by cascade")
	}

	if _, err := g.RemoveNode("ghost"); err == nil {
		t.Error("RemoveNode on unknown id succeeded, want error")
	}
}

func TestGraphExportImportRoundTrip(t *testing.T) {
	g := NewGraph("demo", "three agents")
	g.ID = "g1"
	for _, id := range []string{"a", "b", "c"} {
		n := named(id)
		n.Position = &Position{X: 10, Y: 20}
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(Edge{Source: "a", Target: "b"}, false); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(Edge{Source: "b", Target: "c", Type: EdgeControlsFlow}, false); err != nil {
		t.Fatal(err)
	}

	snap := g.Export()

	restored := NewGraph("", "")
	skipped := restored.Import(snap)
	if len(skipped) != 0 {
		t.Fatalf("round trip skipped edges: %v", skipped)
	}

	again := restored.Export()
	if !reflect.DeepEqual(snap, again) {
		t.Errorf("round trip diverged:\nexported: %+v\nreimported: %+v", snap, again)
	}
	if restored.Name != "demo" || restored.Description != "three agents" {
		t.Errorf("identity not restored: name=%q description=%q", restored.Name, restored.Description)
	}
}

func TestGraphImportSkipsDanglingEdges(t *testing.T) {
	g := NewGraph("", "")
	skipped := g.Import(&Snapshot{
		ID:    "g1",
		Name:  "partial",
		Nodes: []Node{named("a"), named("b")},
		Edges: []Edge{
			NewEdge("a", "b", ""),
			NewEdge("a", "ghost", ""),
			NewEdge("ghost", "b", ""),
		},
	})

	if len(skipped) != 2 {
		t.Fatalf("Import skipped %d edges, want 2", len(skipped))
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if !g.Modified() {
		t.Error("imported graph not marked dirty")
	}
}

func TestGraphClear(t *testing.T) {
	g := NewGraph("demo", "")
	g.ID = "g1"
	if err := g.AddNode(named("a")); err != nil {
		t.Fatal(err)
	}

	g.Clear()
	if g.ID != "" || g.Name != "" || g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("Clear left residue: id=%q name=%q nodes=%d edges=%d",
			g.ID, g.Name, g.NodeCount(), g.EdgeCount())
	}
	if g.Modified() {
		t.Error("cleared graph still marked modified")
	}
}

func TestGraphExportIsDetached(t *testing.T) {
	g := NewGraph("demo", "")
	n := named("a")
	n.Position = &Position{X: 1, Y: 2}
	if err := g.AddNode(n); err != nil {
		t.Fatal(err)
	}

	snap := g.Export()
	snap.Nodes[0].Position.X = 999

	inside, _ := g.Node("a")
	if inside.Position.X != 1 {
		t.Error("mutating an exported snapshot leaked into the graph")
	}
}
