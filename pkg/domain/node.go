package domain

// Default generation parameters applied by the remote service when a
// node is created without explicit values.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// Position is a node's placement on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a configured AI-agent unit in the graph.
//
// Position is a pointer because a node may exist before it has ever
// been placed; a nil position asks the loader to run a layout pass.
type Node struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Backend       string    `json:"backend"`
	Model         string    `json:"model"`
	SystemMessage string    `json:"systemMessage,omitempty"`
	Temperature   float64   `json:"temperature"`
	MaxTokens     int       `json:"maxTokens"`
	Position      *Position `json:"position,omitempty"`
	GraphID       string    `json:"graphId,omitempty"`
}

// NewNode builds a node with the default generation parameters. An
// explicit zero temperature stays zero only when the caller constructs
// the struct directly.
func NewNode(id, name, backend, model string) Node {
	return Node{
		ID:          id,
		Name:        name,
		Backend:     backend,
		Model:       model,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Equal reports whether two nodes carry the same field values.
// GraphID is local bookkeeping and does not participate; two nodes
// with the same content are equal regardless of which graph currently
// owns them.
func (n Node) Equal(o Node) bool {
	if n.ID != o.ID || n.Name != o.Name || n.Backend != o.Backend || n.Model != o.Model {
		return false
	}
	if n.SystemMessage != o.SystemMessage || n.Temperature != o.Temperature || n.MaxTokens != o.MaxTokens {
		return false
	}
	if (n.Position == nil) != (o.Position == nil) {
		return false
	}
	if n.Position != nil && *n.Position != *o.Position {
		return false
	}
	return true
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Position != nil {
		p := *n.Position
		c.Position = &p
	}
	return c
}
