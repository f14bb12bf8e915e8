package canvas

import "github.com/easelab/easel/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Name sets the display name. Unset, the node id is used.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// Model sets the provider backend and model identifier.
func (n *NodeBuilder) Model(backend, model string) *NodeBuilder {
	n.node.Backend = backend
	n.node.Model = model
	return n
}

// System sets the node's system message.
func (n *NodeBuilder) System(message string) *NodeBuilder {
	n.node.SystemMessage = message
	return n
}

// Temperature overrides the default sampling temperature.
func (n *NodeBuilder) Temperature(t float64) *NodeBuilder {
	n.node.Temperature = t
	return n
}

// MaxTokens overrides the default completion budget.
func (n *NodeBuilder) MaxTokens(limit int) *NodeBuilder {
	n.node.MaxTokens = limit
	return n
}

// At places the node on the canvas. Unplaced nodes are positioned by
// the layout pass on load.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = &domain.Position{X: x, Y: y}
	return n
}

// To adds a context edge from this node to the target.
func (n *NodeBuilder) To(target string) *NodeBuilder {
	n.builder.Connect(n.node.ID, target)
	return n
}

// Controls adds a control flow edge from this node to the target.
func (n *NodeBuilder) Controls(target string) *NodeBuilder {
	n.builder.Control(n.node.ID, target)
	return n
}
