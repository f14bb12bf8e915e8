package domain

// EdgeType classifies the semantics of a connection.
type EdgeType string

const (
	// EdgeProvidesContext feeds the source node's output into the
	// target node's context. This is the default connection type.
	EdgeProvidesContext EdgeType = "provides_context"

	// EdgeControlsFlow gates execution of the target on the source.
	EdgeControlsFlow EdgeType = "controls_flow"
)

// EdgeID derives the canonical edge identifier for an ordered
// source/target pair. Edge identity is structural: the same pair always
// maps to the same id, which is why at most one edge can exist per
// ordered pair.
func EdgeID(source, target string) string {
	return source + "-" + target
}

// Edge is a directed, typed connection between two nodes.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// NewEdge builds an edge with its derived id and the default type when
// none is given.
func NewEdge(source, target string, typ EdgeType) Edge {
	if typ == "" {
		typ = EdgeProvidesContext
	}
	return Edge{
		ID:     EdgeID(source, target),
		Source: source,
		Target: target,
		Type:   typ,
	}
}

// Equal reports whether two edges carry the same endpoints and type.
func (e Edge) Equal(o Edge) bool {
	return e.ID == o.ID && e.Source == o.Source && e.Target == o.Target && e.Type == o.Type
}
