/*
Package domain contains the core model of the easel graph engine.

It defines the entities of a canvas graph (Nodes, Edges, the Graph
collection itself), the wire-level Snapshot exchanged with the remote
graph service, the Plan produced by diffing a remote snapshot against
the local graph, and the typed events published while the graph
changes. This package is kept pure and free of I/O or persistence
concerns, following Hexagonal Architecture principles.

# Key Entities

  - Node: a configured AI-agent unit (backend, model, prompt budget).
  - Edge: a directed, typed connection whose id is derived from its
    endpoints.
  - Graph: the in-memory node/edge collections with a dirty flag.
  - Snapshot: the JSON document shape shared with the remote service.
  - Plan: the minimal create/update/delete set reconciling local and
    remote state.
*/
package domain
