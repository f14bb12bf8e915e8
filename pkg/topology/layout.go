package topology

import (
	"sort"

	"github.com/easelab/easel/pkg/domain"
)

// Canvas spacing between layout columns and rows, in canvas units.
const (
	columnSpacing = 260.0
	rowSpacing    = 140.0
	marginX       = 80.0
	marginY       = 60.0
)

// Layered assigns canvas positions by topological depth: sources in
// the leftmost column, every other node one column right of its
// deepest predecessor. Nodes caught in a cycle land together in the
// column after the deepest acyclic one. Rows within a column follow id
// order, so the same graph always lays out the same way.
type Layered struct{}

// NewLayered returns the default layout pass.
func NewLayered() *Layered { return &Layered{} }

// Positions computes a position for every node in the snapshot.
func (l *Layered) Positions(snap *domain.Snapshot) map[string]domain.Position {
	if snap == nil || len(snap.Nodes) == 0 {
		return map[string]domain.Position{}
	}

	depth := l.depths(snap)

	columns := make(map[int][]string)
	for id, d := range depth {
		columns[d] = append(columns[d], id)
	}

	out := make(map[string]domain.Position, len(depth))
	for d, ids := range columns {
		sort.Strings(ids)
		for row, id := range ids {
			out[id] = domain.Position{
				X: marginX + float64(d)*columnSpacing,
				Y: marginY + float64(row)*rowSpacing,
			}
		}
	}
	return out
}

// depths computes the longest-path depth of each node via Kahn's
// algorithm. Nodes left over after the queue drains sit on a cycle and
// are pushed one past the deepest settled column.
func (l *Layered) depths(snap *domain.Snapshot) map[string]int {
	indegree := make(map[string]int, len(snap.Nodes))
	for _, n := range snap.Nodes {
		indegree[n.ID] = 0
	}
	adj := make(map[string][]string)
	for _, e := range snap.Edges {
		if _, ok := indegree[e.Source]; !ok {
			continue
		}
		if _, ok := indegree[e.Target]; !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		indegree[e.Target]++
	}

	depth := make(map[string]int, len(indegree))
	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
			depth[id] = 0
		}
	}
	sort.Strings(queue)

	maxDepth := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, succ := range adj[id] {
			if d := depth[id] + 1; d > depth[succ] {
				depth[succ] = d
				if d > maxDepth {
					maxDepth = d
				}
			}
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	for id := range indegree {
		if _, ok := depth[id]; !ok {
			depth[id] = maxDepth + 1
		}
	}
	return depth
}
