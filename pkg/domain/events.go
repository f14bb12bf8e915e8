package domain

// Event names published by the graph manager. Subscribers register
// against these; each name has exactly one payload type.
const (
	EventGraphSaved    = "graph:saved"
	EventGraphLoaded   = "graph:loaded"
	EventGraphModified = "graph:modified"
	EventGraphDeleted  = "graph:deleted"
	EventNodeAdded     = "node:added"
	EventNodeRemoved   = "node:removed"
	EventNodeUpdated   = "node:updated"
	EventEdgeAdded     = "edge:added"
	EventEdgeRemoved   = "edge:removed"
	EventSyncDegraded  = "sync:degraded"
)

// Event is a discriminated payload: the name is derived from the type,
// so a payload can never be published under the wrong event.
type Event interface {
	EventName() string
}

// GraphSavedEvent reports the outcome of a save. PartialSuccess is set
// when the graph record was saved but some sync operations failed.
type GraphSavedEvent struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	New            bool   `json:"isNew"`
	PartialSuccess bool   `json:"partialSuccess"`
}

func (GraphSavedEvent) EventName() string { return EventGraphSaved }

// GraphLoadedEvent carries the full snapshot that replaced the local
// model.
type GraphLoadedEvent struct {
	Graph *Snapshot `json:"graph"`
}

func (GraphLoadedEvent) EventName() string { return EventGraphLoaded }

// GraphModifiedEvent is published when the model transitions from
// clean to dirty.
type GraphModifiedEvent struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

func (GraphModifiedEvent) EventName() string { return EventGraphModified }

// GraphDeletedEvent reports a remote graph deletion.
type GraphDeletedEvent struct {
	ID string `json:"id"`
}

func (GraphDeletedEvent) EventName() string { return EventGraphDeleted }

// NodeAddedEvent carries the node that entered the model.
type NodeAddedEvent struct {
	Node Node `json:"node"`
}

func (NodeAddedEvent) EventName() string { return EventNodeAdded }

// NodeRemovedEvent reports a node removal; cascaded edge removals are
// published separately as EdgeRemovedEvents.
type NodeRemovedEvent struct {
	NodeID string `json:"nodeId"`
}

func (NodeRemovedEvent) EventName() string { return EventNodeRemoved }

// NodeUpdatedEvent carries the node's new field values.
type NodeUpdatedEvent struct {
	Node Node `json:"node"`
}

func (NodeUpdatedEvent) EventName() string { return EventNodeUpdated }

// EdgeAddedEvent carries the edge that entered the model.
type EdgeAddedEvent struct {
	Edge Edge `json:"edge"`
}

func (EdgeAddedEvent) EventName() string { return EventEdgeAdded }

// EdgeRemovedEvent reports an edge removal.
type EdgeRemovedEvent struct {
	EdgeID string `json:"edgeId"`
}

func (EdgeRemovedEvent) EventName() string { return EventEdgeRemoved }

// SyncDegradedEvent is published when a remote load failed and the
// model was rehydrated from the fallback cache instead.
type SyncDegradedEvent struct {
	GraphID string `json:"graphId,omitempty"`
	Reason  string `json:"reason"`
}

func (SyncDegradedEvent) EventName() string { return EventSyncDegraded }
