package canvas

import (
	"fmt"

	"github.com/easelab/easel/pkg/domain"
)

// Builder manages the canvas construction.
type Builder struct {
	name        string
	description string
	nodes       map[string]*NodeBuilder
	order       []string
	edges       []domain.Edge
}

// New creates a new canvas builder for a graph with the given name.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Description sets the graph description.
func (b *Builder) Description(text string) *Builder {
	b.description = text
	return b
}

// Node creates a new node on the canvas.
// If the node already exists, it returns the existing builder.
func (b *Builder) Node(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.NewNode(id, "", "", ""),
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Connect adds a context edge from source to target.
func (b *Builder) Connect(source, target string) *Builder {
	b.edges = append(b.edges, domain.NewEdge(source, target, domain.EdgeProvidesContext))
	return b
}

// Control adds a control flow edge from source to target.
func (b *Builder) Control(source, target string) *Builder {
	b.edges = append(b.edges, domain.NewEdge(source, target, domain.EdgeControlsFlow))
	return b
}

// Snapshot compiles the canvas into a graph snapshot. Nodes keep their
// declaration order; a node without an explicit name takes its id. An
// edge referencing an undeclared node is an error.
func (b *Builder) Snapshot() (*domain.Snapshot, error) {
	snap := &domain.Snapshot{
		Name:        b.name,
		Description: b.description,
		Nodes:       make([]domain.Node, 0, len(b.order)),
		Edges:       make([]domain.Edge, 0, len(b.edges)),
	}

	for _, id := range b.order {
		node := b.nodes[id].node
		if node.Name == "" {
			node.Name = node.ID
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	for _, edge := range b.edges {
		if _, ok := b.nodes[edge.Source]; !ok {
			return nil, fmt.Errorf("edge %s: source node %q is not declared", edge.ID, edge.Source)
		}
		if _, ok := b.nodes[edge.Target]; !ok {
			return nil, fmt.Errorf("edge %s: target node %q is not declared", edge.ID, edge.Target)
		}
		snap.Edges = append(snap.Edges, edge)
	}

	return snap, nil
}
