package topology

import (
	"errors"
	"sort"

	"github.com/easelab/easel/pkg/domain"
)

// ErrCycle is returned by Order when the graph is not a DAG.
var ErrCycle = errors.New("graph contains a cycle")

// WouldCreateCycle reports whether adding an edge source -> target to
// the given edge set would close a cycle. A self-loop is a cycle by
// definition; otherwise the new edge closes one exactly when a path
// from target back to source already exists.
//
// The check is read-only and runs in O(V+E) over the reachable
// subgraph from target.
func WouldCreateCycle(edges []domain.Edge, source, target string) bool {
	if source == target {
		return true
	}

	adj := adjacency(edges)
	seen := make(map[string]bool)
	stack := []string{target}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == source {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, adj[cur]...)
	}
	return false
}

// Order returns a topological ordering of the snapshot's node ids using
// Kahn's algorithm. Nodes with no remaining dependencies are emitted in
// id order, so the result is deterministic for a given graph. If the
// graph contains a cycle the partial order computed so far is returned
// together with ErrCycle.
func Order(snap *domain.Snapshot) ([]string, error) {
	if snap == nil {
		return nil, nil
	}

	indegree := make(map[string]int, len(snap.Nodes))
	for _, n := range snap.Nodes {
		indegree[n.ID] = 0
	}
	adj := make(map[string][]string, len(snap.Nodes))
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

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(indegree))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		released := adj[id]
		sort.Strings(released)
		var next []string
		for _, succ := range released {
			indegree[succ]--
			if indegree[succ] == 0 {
				next = append(next, succ)
			}
		}
		if len(next) > 0 {
			ready = append(ready, next...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(indegree) {
		return order, ErrCycle
	}
	return order, nil
}

func adjacency(edges []domain.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}
