/*
Package engine implements the graph synchronization core: planning the
minimal set of remote mutations, executing them in referential-safe
phases, mirroring saved work into a local fallback cache and publishing
change events.

# Key Types

  - Manager: orchestrates one open graph (save, load, import, export,
    mutations) over a ports.GraphGateway.
  - Executor: applies a domain.Plan phase by phase, tolerating and
    aggregating per-operation failures.
  - Fallback: the durable local mirror used when the remote is
    unreachable.

Saves of the same graph are serialized through an internal per-graph
lock table; everything else about the Manager is safe for concurrent
use.
*/
package engine
