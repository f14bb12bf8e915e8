package ports

import (
	"context"

	"github.com/easelab/easel/pkg/domain"
)

// GraphGateway is the remote graph service the engine syncs against.
// Implementations translate failures into *domain.RemoteError so the
// executor can tell a missing entity from a broken backend.
//
// Node and edge mutations address entities by their own ids, not
// through the graph: that is how the remote API is shaped, and the
// executor relies on it when replaying a plan.
type GraphGateway interface {
	// ListGraphs returns summaries of every stored graph.
	ListGraphs(ctx context.Context) ([]domain.GraphInfo, error)

	// FetchGraph retrieves the full snapshot of one graph.
	FetchGraph(ctx context.Context, graphID string) (*domain.Snapshot, error)

	// CreateGraph stores a snapshot as a new graph and returns the id
	// the remote assigned to it.
	CreateGraph(ctx context.Context, snap *domain.Snapshot) (string, error)

	// UpdateGraph updates a graph's name and description without
	// touching its nodes or edges.
	UpdateGraph(ctx context.Context, graphID string, meta domain.GraphMeta) error

	// DeleteGraph removes a graph and everything in it.
	DeleteGraph(ctx context.Context, graphID string) error

	// CreateNode adds a node to a graph.
	CreateNode(ctx context.Context, graphID string, n domain.Node) error

	// UpdateNode replaces a node's fields.
	UpdateNode(ctx context.Context, n domain.Node) error

	// DeleteNode removes a node.
	DeleteNode(ctx context.Context, nodeID string) error

	// CreateEdge adds an edge to a graph. Creating an edge that already
	// exists for the same (source, target) pair succeeds.
	CreateEdge(ctx context.Context, graphID string, e domain.Edge) error

	// DeleteEdge removes an edge.
	DeleteEdge(ctx context.Context, edgeID string) error
}
