/*
Package easel keeps an AI-agent canvas graph consistent between a local
editing model and a remote graph service.

A graph is a set of configured agent nodes joined by directed, typed
edges. Easel owns the local model, enforces its structural invariants
(unique ids, valid endpoints, at most one edge per ordered pair, no
accidental cycles), and reconciles it against the remote service by
diffing snapshots and executing the difference as phased operations.

# Concept

Easel separates the graph model (pkg/domain) from the machinery that
moves it: a diff engine computes the minimal set of create, update and
delete operations between two snapshots; a sync executor applies them
against the remote gateway in dependency order, accumulating partial
failures instead of aborting; a fallback cache keeps the last good
snapshot local so a dead backend never strands the canvas. This
hexagonal layout means the remote transport, the cache backend and the
event wiring are all swappable adapters.

# Key Features

  - Deterministic sync: the same local and remote snapshots always
    produce the same operation plan, and replaying a plan is a no-op.
  - Partial failure tolerance: one failed node create does not abort
    the rest of the sync; failures are collected and reported.
  - Cycle guarding: connections that would close a cycle are refused
    at edit time, with an explicit override for intentional loops.
  - Offline resilience: saves write through to a local backup store,
    and loads fall back to it when the remote is unreachable.
  - Typed change events: every mutation publishes a typed event on a
    bounded, re-entrancy-guarded bus.

# Usage

Initialize a Manager against a running graph service and edit through
it. The Manager serializes concurrent saves of the same graph and
assigns ids where they are omitted.

	package main

	import (
		"context"
		"log"

		"github.com/easelab/easel"
		"github.com/easelab/easel/pkg/domain"
	)

	func main() {
		mgr, err := easel.New("http://localhost:8080")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		mgr.NewGraph(ctx, "my pipeline", "")

		fetch, _ := mgr.AddNode(ctx, domain.NewNode("fetch", "Fetcher", "openai", "gpt-4o"))
		sum, _ := mgr.AddNode(ctx, domain.NewNode("sum", "Summarizer", "openai", "gpt-4o-mini"))
		if _, err := mgr.AddEdge(ctx, fetch.ID, sum.ID, domain.EdgeProvidesContext, false); err != nil {
			log.Fatal(err)
		}

		result, err := mgr.Save(ctx, "my pipeline", "", false)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("saved as %s", result.GraphID)
	}

For tests and embedded scenarios an in-process gateway replaces the
HTTP transport:

	mgr, _ := easel.New("",
		easel.WithGateway(memory.NewGateway()),
		easel.WithoutBackup(),
	)
*/
package easel
