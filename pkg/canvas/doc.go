/*
Package canvas provides a fluent builder for programmatically
constructing graph snapshots.

It lets programs assemble agent canvases with a type-safe builder
instead of hand-writing JSON files. This is particularly useful for
seeding a graph service, unit testing and dynamic graph generation.

Example usage:

	package main

	import (
		"github.com/easelab/easel/pkg/canvas"
	)

	func main() {
		b := canvas.New("Research Pipeline")

		b.Node("fetch").
			Model("openai", "gpt-4o-mini").
			System("Fetch and clean the source documents.")

		b.Node("summarize").
			Model("anthropic", "claude-sonnet-4-5").
			Temperature(0.2)

		b.Control("fetch", "summarize")

		snap, err := b.Snapshot()
		// ... feed snap to Manager.Import(...)
		_ = snap
		_ = err
	}
*/
package canvas
