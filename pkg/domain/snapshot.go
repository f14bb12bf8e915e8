package domain

import (
	"sort"
	"time"
)

// Snapshot is the structural serialization of a graph: the JSON
// document exchanged with the remote service and written by export.
// Nodes and edges are kept sorted by id so that equal graphs always
// serialize identically.
type Snapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Nodes:       make([]Node, 0, len(s.Nodes)),
		Edges:       make([]Edge, 0, len(s.Edges)),
	}
	for _, n := range s.Nodes {
		c.Nodes = append(c.Nodes, n.Clone())
	}
	c.Edges = append(c.Edges, s.Edges...)
	return c
}

// Normalize sorts nodes and edges by id in place.
func (s *Snapshot) Normalize() {
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].ID < s.Nodes[j].ID })
	sort.Slice(s.Edges, func(i, j int) bool { return s.Edges[i].ID < s.Edges[j].ID })
}

// NodeIndex returns the snapshot's nodes keyed by id.
func (s *Snapshot) NodeIndex() map[string]Node {
	idx := make(map[string]Node, len(s.Nodes))
	for _, n := range s.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// EdgeIndex returns the snapshot's edges keyed by id.
func (s *Snapshot) EdgeIndex() map[string]Edge {
	idx := make(map[string]Edge, len(s.Edges))
	for _, e := range s.Edges {
		idx[e.ID] = e
	}
	return idx
}

// GraphMeta is the name/description pair updated on the graph record
// itself, independent of its nodes and edges.
type GraphMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GraphInfo is a listing entry for a stored graph.
type GraphInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	NodeCount   int       `json:"nodeCount"`
	CreatedAt   time.Time `json:"creation_date"`
	UpdatedAt   time.Time `json:"last_modified"`
}
