package domain

// OpKind names one kind of remote mutation in a sync plan.
type OpKind string

const (
	OpCreateNode OpKind = "create_node"
	OpUpdateNode OpKind = "update_node"
	OpDeleteNode OpKind = "delete_node"
	OpCreateEdge OpKind = "create_edge"
	OpDeleteEdge OpKind = "delete_edge"
)

// Operation is one remote mutation. Exactly one of Node or Edge is set,
// matching the kind.
type Operation struct {
	Kind OpKind
	Node *Node
	Edge *Edge
}

// EntityID returns the id of the node or edge the operation targets.
func (op Operation) EntityID() string {
	if op.Node != nil {
		return op.Node.ID
	}
	if op.Edge != nil {
		return op.Edge.ID
	}
	return ""
}

// Plan is the minimal set of remote mutations that reconciles a remote
// snapshot with the local one. Operations within one slice are
// independent; ordering constraints hold only between slices, and the
// executor enforces them phase by phase.
type Plan struct {
	GraphID string

	NodesToCreate []Node
	NodesToUpdate []Node
	NodesToDelete []Node
	EdgesToCreate []Edge
	EdgesToDelete []Edge
}

// IsEmpty reports whether the plan contains no operations.
func (p *Plan) IsEmpty() bool { return p.Size() == 0 }

// Size returns the total number of operations.
func (p *Plan) Size() int {
	return len(p.NodesToCreate) + len(p.NodesToUpdate) + len(p.NodesToDelete) +
		len(p.EdgesToCreate) + len(p.EdgesToDelete)
}

// Phases groups the plan's operations into their execution phases:
// edge deletions first so node deletions never hit a still-referenced
// node, then node deletions, creations and updates, and finally edge
// creations once every endpoint exists. Operations within one phase
// are mutually independent; phases must not overlap.
func (p *Plan) Phases() [][]Operation {
	phases := make([][]Operation, 0, 5)

	var deleteEdges []Operation
	for i := range p.EdgesToDelete {
		deleteEdges = append(deleteEdges, Operation{Kind: OpDeleteEdge, Edge: &p.EdgesToDelete[i]})
	}
	var deleteNodes []Operation
	for i := range p.NodesToDelete {
		deleteNodes = append(deleteNodes, Operation{Kind: OpDeleteNode, Node: &p.NodesToDelete[i]})
	}
	var createNodes []Operation
	for i := range p.NodesToCreate {
		createNodes = append(createNodes, Operation{Kind: OpCreateNode, Node: &p.NodesToCreate[i]})
	}
	var updateNodes []Operation
	for i := range p.NodesToUpdate {
		updateNodes = append(updateNodes, Operation{Kind: OpUpdateNode, Node: &p.NodesToUpdate[i]})
	}
	var createEdges []Operation
	for i := range p.EdgesToCreate {
		createEdges = append(createEdges, Operation{Kind: OpCreateEdge, Edge: &p.EdgesToCreate[i]})
	}

	return append(phases, deleteEdges, deleteNodes, createNodes, updateNodes, createEdges)
}

// Operations flattens the phases into one dependency-ordered slice.
func (p *Plan) Operations() []Operation {
	ops := make([]Operation, 0, p.Size())
	for _, phase := range p.Phases() {
		ops = append(ops, phase...)
	}
	return ops
}
