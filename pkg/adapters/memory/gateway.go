package memory

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easelab/easel/pkg/domain"
)

// record is one stored graph with its bookkeeping.
type record struct {
	snap      *domain.Snapshot
	createdAt time.Time
	updatedAt time.Time
}

// Gateway implements ports.GraphGateway entirely in process, with the
// same semantics the HTTP graph service exposes: cascading deletes,
// endpoint validation on edge creation, duplicate edge creation
// returning success, and not-found errors shaped as RemoteError. It
// backs the built-in server and doubles as a test double for anything
// speaking the gateway port.
type Gateway struct {
	mu     sync.RWMutex
	graphs map[string]*record

	now func() time.Time
}

// NewGateway creates an empty in-process gateway.
func NewGateway() *Gateway {
	return &Gateway{
		graphs: make(map[string]*record),
		now:    time.Now,
	}
}

func notFound(message string) *domain.RemoteError {
	return &domain.RemoteError{Status: http.StatusNotFound, Code: domain.CodeNotFound, Message: message}
}

func invalid(message string) *domain.RemoteError {
	return &domain.RemoteError{Status: http.StatusBadRequest, Code: domain.CodeValidationError, Message: message}
}

// ListGraphs returns summaries of every stored graph.
func (g *Gateway) ListGraphs(ctx context.Context) ([]domain.GraphInfo, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	infos := make([]domain.GraphInfo, 0, len(g.graphs))
	for _, rec := range g.graphs {
		infos = append(infos, domain.GraphInfo{
			ID:          rec.snap.ID,
			Name:        rec.snap.Name,
			Description: rec.snap.Description,
			NodeCount:   len(rec.snap.Nodes),
			CreatedAt:   rec.createdAt,
			UpdatedAt:   rec.updatedAt,
		})
	}
	return infos, nil
}

// FetchGraph retrieves a full snapshot.
func (g *Gateway) FetchGraph(ctx context.Context, graphID string) (*domain.Snapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.graphs[graphID]
	if !ok {
		return nil, notFound("graph not found")
	}
	snap := rec.snap.Clone()
	snap.Normalize()
	return snap, nil
}

// CreateGraph stores the snapshot under a freshly assigned id.
func (g *Gateway) CreateGraph(ctx context.Context, snap *domain.Snapshot) (string, error) {
	if snap == nil || snap.Name == "" {
		return "", invalid("graph name is required")
	}

	stored := snap.Clone()
	stored.ID = uuid.NewString()
	for i := range stored.Nodes {
		if stored.Nodes[i].ID == "" {
			stored.Nodes[i].ID = uuid.NewString()
		}
		stored.Nodes[i].GraphID = stored.ID
	}
	for i := range stored.Edges {
		if stored.Edges[i].ID == "" {
			stored.Edges[i].ID = domain.EdgeID(stored.Edges[i].Source, stored.Edges[i].Target)
		}
		if stored.Edges[i].Type == "" {
			stored.Edges[i].Type = domain.EdgeProvidesContext
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.graphs[stored.ID] = &record{snap: stored, createdAt: now, updatedAt: now}
	return stored.ID, nil
}

// UpdateGraph updates name and description only.
func (g *Gateway) UpdateGraph(ctx context.Context, graphID string, meta domain.GraphMeta) error {
	if meta.Name == "" {
		return invalid("graph name is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.graphs[graphID]
	if !ok {
		return notFound("graph not found")
	}
	rec.snap.Name = meta.Name
	rec.snap.Description = meta.Description
	rec.updatedAt = g.now()
	return nil
}

// DeleteGraph removes a graph and everything in it.
func (g *Gateway) DeleteGraph(ctx context.Context, graphID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.graphs[graphID]; !ok {
		return notFound("graph not found")
	}
	delete(g.graphs, graphID)
	return nil
}

// CreateNode adds a node to a graph, assigning an id when none is
// given.
func (g *Gateway) CreateNode(ctx context.Context, graphID string, n domain.Node) error {
	if n.Name == "" {
		return invalid("node name is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.graphs[graphID]
	if !ok {
		return notFound("graph not found")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	for _, existing := range rec.snap.Nodes {
		if existing.ID == n.ID {
			return invalid("node id already exists")
		}
	}
	n.GraphID = graphID
	rec.snap.Nodes = append(rec.snap.Nodes, n)
	rec.updatedAt = g.now()
	return nil
}

// UpdateNode replaces a node's fields, located by id across graphs.
func (g *Gateway) UpdateNode(ctx context.Context, n domain.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, rec := range g.graphs {
		for i := range rec.snap.Nodes {
			if rec.snap.Nodes[i].ID == n.ID {
				n.GraphID = rec.snap.ID
				rec.snap.Nodes[i] = n
				rec.updatedAt = g.now()
				return nil
			}
		}
	}
	return notFound("node not found")
}

// DeleteNode removes a node and cascades removal of its edges.
func (g *Gateway) DeleteNode(ctx context.Context, nodeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, rec := range g.graphs {
		for i := range rec.snap.Nodes {
			if rec.snap.Nodes[i].ID != nodeID {
				continue
			}
			rec.snap.Nodes = append(rec.snap.Nodes[:i], rec.snap.Nodes[i+1:]...)
			kept := rec.snap.Edges[:0]
			for _, e := range rec.snap.Edges {
				if e.Source != nodeID && e.Target != nodeID {
					kept = append(kept, e)
				}
			}
			rec.snap.Edges = kept
			rec.updatedAt = g.now()
			return nil
		}
	}
	return notFound("node not found")
}

// CreateEdge adds an edge after validating both endpoints. Creating an
// edge that already exists for the pair succeeds without duplicating
// it.
func (g *Gateway) CreateEdge(ctx context.Context, graphID string, e domain.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.graphs[graphID]
	if !ok {
		return notFound("graph not found")
	}

	hasNode := func(id string) bool {
		for _, n := range rec.snap.Nodes {
			if n.ID == id {
				return true
			}
		}
		return false
	}
	if !hasNode(e.Source) {
		return notFound("source node not found")
	}
	if !hasNode(e.Target) {
		return notFound("target node not found")
	}

	if e.ID == "" {
		e.ID = domain.EdgeID(e.Source, e.Target)
	}
	if e.Type == "" {
		e.Type = domain.EdgeProvidesContext
	}
	for _, existing := range rec.snap.Edges {
		if existing.ID == e.ID {
			// Idempotent create: the edge is already there.
			return nil
		}
	}
	rec.snap.Edges = append(rec.snap.Edges, e)
	rec.updatedAt = g.now()
	return nil
}

// DeleteEdge removes an edge by id.
func (g *Gateway) DeleteEdge(ctx context.Context, edgeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, rec := range g.graphs {
		for i := range rec.snap.Edges {
			if rec.snap.Edges[i].ID == edgeID {
				rec.snap.Edges = append(rec.snap.Edges[:i], rec.snap.Edges[i+1:]...)
				rec.updatedAt = g.now()
				return nil
			}
		}
	}
	return notFound("edge not found")
}
