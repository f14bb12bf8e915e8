package ports

import "github.com/easelab/easel/pkg/domain"

// Layout computes canvas positions for a snapshot's nodes. It runs when
// a graph arrives without stored layout data, so implementations must
// position every node, including ones caught in cycles.
type Layout interface {
	Positions(snap *domain.Snapshot) map[string]domain.Position
}
