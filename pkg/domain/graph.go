package domain

import "sort"

// Graph is the canonical in-memory model of one open canvas graph.
//
// It owns the node and edge collections and enforces their structural
// invariants at mutation time: ids are unique, edges reference existing
// endpoints, and a self-loop requires an explicit override. Violations
// fail with a ValidationError rather than silently doing nothing.
//
// Graph is not safe for concurrent mutation; the manager owning it
// serializes access.
type Graph struct {
	ID          string
	Name        string
	Description string

	nodes map[string]Node
	edges map[string]Edge

	modified bool
}

// NewGraph creates an empty graph. The id stays empty until the graph
// has been created remotely.
func NewGraph(name, description string) *Graph {
	return &Graph{
		Name:        name,
		Description: description,
		nodes:       make(map[string]Node),
		edges:       make(map[string]Edge),
	}
}

// AddNode inserts a node. The id must be non-empty and unique within
// the graph.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return &ValidationError{Entity: "node", Reason: "missing id"}
	}
	if _, ok := g.nodes[n.ID]; ok {
		return &ValidationError{Entity: "node", ID: n.ID, Reason: "duplicate id"}
	}
	n.GraphID = g.ID
	g.nodes[n.ID] = n.Clone()
	g.modified = true
	return nil
}

// UpdateNode replaces an existing node's field values.
func (g *Graph) UpdateNode(n Node) error {
	if _, ok := g.nodes[n.ID]; !ok {
		return &ValidationError{Entity: "node", ID: n.ID, Reason: "unknown id"}
	}
	n.GraphID = g.ID
	g.nodes[n.ID] = n.Clone()
	g.modified = true
	return nil
}

// RemoveNode deletes a node and cascades removal of every edge touching
// it. The removed edges are returned so callers can publish their
// removal.
func (g *Graph) RemoveNode(id string) ([]Edge, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, &ValidationError{Entity: "node", ID: id, Reason: "unknown id"}
	}
	var removed []Edge
	for eid, e := range g.edges {
		if e.Source == id || e.Target == id {
			removed = append(removed, e)
			delete(g.edges, eid)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	delete(g.nodes, id)
	g.modified = true
	return removed, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// AddEdge inserts an edge. Both endpoints must exist, the ordered
// (source, target) pair must be unused, and source must differ from
// target unless allowSelfLoop is set. Callers pass true only after
// the user explicitly overrode the cycle warning.
//
// An empty id is filled in from the endpoints.
func (g *Graph) AddEdge(e Edge, allowSelfLoop bool) error {
	if e.Source == "" || e.Target == "" {
		return &ValidationError{Entity: "edge", ID: e.ID, Reason: "missing endpoint"}
	}
	if e.ID == "" {
		e.ID = EdgeID(e.Source, e.Target)
	}
	if e.Type == "" {
		e.Type = EdgeProvidesContext
	}
	if _, ok := g.nodes[e.Source]; !ok {
		return &ValidationError{Entity: "edge", ID: e.ID, Reason: "source node does not exist"}
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return &ValidationError{Entity: "edge", ID: e.ID, Reason: "target node does not exist"}
	}
	if e.Source == e.Target && !allowSelfLoop {
		return &ValidationError{Entity: "edge", ID: e.ID, Reason: "self-loop requires an explicit override"}
	}
	if _, ok := g.edges[e.ID]; ok {
		return &ValidationError{Entity: "edge", ID: e.ID, Reason: "duplicate edge for pair"}
	}
	g.edges[e.ID] = e
	g.modified = true
	return nil
}

// RemoveEdge deletes an edge and returns it.
func (g *Graph) RemoveEdge(id string) (Edge, error) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, &ValidationError{Entity: "edge", ID: id, Reason: "unknown id"}
	}
	delete(g.edges, id)
	g.modified = true
	return e, nil
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Edges returns all edges sorted by id.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Modified reports whether the model has unsaved changes.
func (g *Graph) Modified() bool { return g.modified }

// MarkSaved clears the dirty flag after a successful sync.
func (g *Graph) MarkSaved() { g.modified = false }

// Clear destroys all nodes and edges and resets the identity, leaving
// an empty unnamed graph.
func (g *Graph) Clear() {
	g.ID = ""
	g.Name = ""
	g.Description = ""
	g.nodes = make(map[string]Node)
	g.edges = make(map[string]Edge)
	g.modified = false
}

// Export serializes the graph into a normalized snapshot. Node GraphID
// fields are restamped with the current graph id, which may have
// changed since insertion if the graph was only just created remotely.
func (g *Graph) Export() *Snapshot {
	nodes := g.Nodes()
	for i := range nodes {
		nodes[i].GraphID = g.ID
	}
	return &Snapshot{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Nodes:       nodes,
		Edges:       g.Edges(),
	}
}

// Import replaces the graph's content with the snapshot, loading nodes
// first and edges second. An edge referencing a missing endpoint is
// skipped and returned rather than aborting the import; the caller
// decides how loudly to complain. The model is marked dirty: imported
// state has not been synced.
func (g *Graph) Import(snap *Snapshot) (skipped []Edge) {
	g.nodes = make(map[string]Node, len(snap.Nodes))
	g.edges = make(map[string]Edge, len(snap.Edges))
	g.ID = snap.ID
	g.Name = snap.Name
	g.Description = snap.Description

	for _, n := range snap.Nodes {
		if n.ID == "" {
			continue
		}
		n.GraphID = g.ID
		g.nodes[n.ID] = n.Clone()
	}
	for _, e := range snap.Edges {
		if e.ID == "" {
			e.ID = EdgeID(e.Source, e.Target)
		}
		if e.Type == "" {
			e.Type = EdgeProvidesContext
		}
		_, srcOK := g.nodes[e.Source]
		_, tgtOK := g.nodes[e.Target]
		if !srcOK || !tgtOK {
			skipped = append(skipped, e)
			continue
		}
		g.edges[e.ID] = e
	}
	g.modified = true
	return skipped
}
