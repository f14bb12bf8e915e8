/*
Package ports defines the driven ports (interfaces) for the easel sync
engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to talk to a real HTTP graph service or an
in-process fake, and to back up work into whatever store the host
prefers.

# Key Interfaces

  - GraphGateway: the remote graph service the engine syncs against.
  - BackupStore: local persistence for the fallback cache.
  - Layout: the position pass applied to graphs loaded without layout data.
*/
package ports
