package domain

import "sort"

// ComputePlan compares a remote snapshot against the desired local one
// and returns the minimal plan that turns remote into local. A nil
// snapshot counts as empty, so diffing against a brand-new remote graph
// yields pure creations.
//
// Nodes diff three ways on id: present only locally is a creation,
// present only remotely is a deletion, present in both with unequal
// fields is an update. Edges have no update: an edge whose id matches
// but whose content differs is replaced by a deletion plus a creation,
// which the plan's phase order already sequences correctly.
//
// The result is deterministic for given inputs and empty when both
// sides already agree, so planning is safe to repeat.
func ComputePlan(remote, local *Snapshot) *Plan {
	if remote == nil {
		remote = &Snapshot{}
	}
	if local == nil {
		local = &Snapshot{}
	}

	plan := &Plan{GraphID: local.ID}
	if plan.GraphID == "" {
		plan.GraphID = remote.ID
	}

	remoteNodes := remote.NodeIndex()
	localNodes := local.NodeIndex()

	for _, id := range sortedKeys(localNodes) {
		ln := localNodes[id]
		rn, ok := remoteNodes[id]
		switch {
		case !ok:
			plan.NodesToCreate = append(plan.NodesToCreate, ln)
		case !ln.Equal(rn):
			plan.NodesToUpdate = append(plan.NodesToUpdate, ln)
		}
	}
	for _, id := range sortedKeys(remoteNodes) {
		if _, ok := localNodes[id]; !ok {
			plan.NodesToDelete = append(plan.NodesToDelete, remoteNodes[id])
		}
	}

	remoteEdges := remote.EdgeIndex()
	localEdges := local.EdgeIndex()

	for _, id := range sortedKeys(localEdges) {
		le := localEdges[id]
		re, ok := remoteEdges[id]
		switch {
		case !ok:
			plan.EdgesToCreate = append(plan.EdgesToCreate, le)
		case !le.Equal(re):
			plan.EdgesToDelete = append(plan.EdgesToDelete, re)
			plan.EdgesToCreate = append(plan.EdgesToCreate, le)
		}
	}
	for _, id := range sortedKeys(remoteEdges) {
		if _, ok := localEdges[id]; !ok {
			plan.EdgesToDelete = append(plan.EdgesToDelete, remoteEdges[id])
		}
	}

	return plan
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
