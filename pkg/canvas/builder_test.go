package canvas

import (
	"testing"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/topology"
)

func TestBuilder_SimplePipeline(t *testing.T) {
	b := New("Research Pipeline").Description("Fetch, then summarize")

	b.Node("fetch").
		Name("Fetcher").
		Model("openai", "gpt-4o-mini").
		System("Fetch and clean the source documents.").
		At(100, 50)

	b.Node("summarize").
		Model("anthropic", "claude-sonnet-4-5").
		Temperature(0.2).
		MaxTokens(4096)

	b.Control("fetch", "summarize")

	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	if snap.Name != "Research Pipeline" {
		t.Errorf("Expected name 'Research Pipeline', got %q", snap.Name)
	}
	if snap.Description != "Fetch, then summarize" {
		t.Errorf("Unexpected description %q", snap.Description)
	}
	if len(snap.Nodes) != 2 || len(snap.Edges) != 1 {
		t.Fatalf("Expected 2 nodes and 1 edge, got %d and %d", len(snap.Nodes), len(snap.Edges))
	}

	fetch := snap.Nodes[0]
	if fetch.ID != "fetch" || fetch.Name != "Fetcher" {
		t.Errorf("Unexpected first node %+v", fetch)
	}
	if fetch.Backend != "openai" || fetch.Model != "gpt-4o-mini" {
		t.Errorf("Model not applied: %+v", fetch)
	}
	if fetch.SystemMessage != "Fetch and clean the source documents." {
		t.Errorf("System message not applied: %q", fetch.SystemMessage)
	}
	if fetch.Position == nil || fetch.Position.X != 100 || fetch.Position.Y != 50 {
		t.Errorf("Position not applied: %+v", fetch.Position)
	}
	// Defaults survive when not overridden.
	if fetch.Temperature != domain.DefaultTemperature || fetch.MaxTokens != domain.DefaultMaxTokens {
		t.Errorf("Expected default sampling settings, got %+v", fetch)
	}

	summarize := snap.Nodes[1]
	if summarize.Name != "summarize" {
		t.Errorf("Expected name to fall back to id, got %q", summarize.Name)
	}
	if summarize.Temperature != 0.2 || summarize.MaxTokens != 4096 {
		t.Errorf("Overrides not applied: %+v", summarize)
	}

	edge := snap.Edges[0]
	if edge.ID != "fetch-summarize" || edge.Type != domain.EdgeControlsFlow {
		t.Errorf("Unexpected edge %+v", edge)
	}
}

func TestBuilder_NodeChaining(t *testing.T) {
	b := New("chain")

	b.Node("a").To("b").Controls("c")
	b.Node("b")
	b.Node("c")

	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	if len(snap.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(snap.Edges))
	}
	if snap.Edges[0].Type != domain.EdgeProvidesContext {
		t.Errorf("Expected context edge, got %s", snap.Edges[0].Type)
	}
	if snap.Edges[1].Type != domain.EdgeControlsFlow {
		t.Errorf("Expected control edge, got %s", snap.Edges[1].Type)
	}

	// The built snapshot is orderable.
	order, err := topology.Order(snap)
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if len(order) != 3 || order[0] != "a" {
		t.Errorf("Unexpected order %v", order)
	}
}

func TestBuilder_NodeReturnsExisting(t *testing.T) {
	b := New("dedupe")

	b.Node("a").Name("First")
	b.Node("a").Model("openai", "gpt-4o")

	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(snap.Nodes) != 1 {
		t.Fatalf("Expected a single node, got %d", len(snap.Nodes))
	}
	node := snap.Nodes[0]
	if node.Name != "First" || node.Model != "gpt-4o" {
		t.Errorf("Expected both configurations applied, got %+v", node)
	}
}

func TestBuilder_RejectsDanglingEdges(t *testing.T) {
	b := New("dangling")
	b.Node("a").To("ghost")

	if _, err := b.Snapshot(); err == nil {
		t.Fatal("Expected error for edge to undeclared node")
	}

	b2 := New("dangling-source")
	b2.Node("a")
	b2.Connect("ghost", "a")

	if _, err := b2.Snapshot(); err == nil {
		t.Fatal("Expected error for edge from undeclared node")
	}
}
