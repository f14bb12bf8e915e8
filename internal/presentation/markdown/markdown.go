// Package markdown composes the graph documents the CLI shows,
// rendered to the terminal through glamour or printed raw.
package markdown

import (
	"fmt"
	"strings"

	"github.com/easelab/easel/internal/presentation/mermaid"
	"github.com/easelab/easel/pkg/domain"
)

// GraphDocument renders a snapshot as one markdown document: metadata,
// node table, connections, execution order when given, and an embedded
// Mermaid chart.
func GraphDocument(snap *domain.Snapshot, order []string) string {
	var sb strings.Builder

	title := snap.Name
	if title == "" {
		title = snap.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if snap.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", snap.Description)
	}
	fmt.Fprintf(&sb, "%d node(s), %d edge(s)\n\n", len(snap.Nodes), len(snap.Edges))

	names := snap.NodeIndex()
	displayName := func(id string) string {
		if n, ok := names[id]; ok && n.Name != "" {
			return n.Name
		}
		return id
	}

	if len(snap.Nodes) > 0 {
		sb.WriteString("## Nodes\n\n")
		sb.WriteString("| Name | Backend | Model | Temperature | Max tokens |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, n := range snap.Nodes {
			fmt.Fprintf(&sb, "| %s | %s | %s | %.2f | %d |\n",
				cell(n.Name), cell(n.Backend), cell(n.Model), n.Temperature, n.MaxTokens)
		}
		sb.WriteString("\n")
	}

	if len(snap.Edges) > 0 {
		sb.WriteString("## Connections\n\n")
		for _, e := range snap.Edges {
			verb := "provides context to"
			if e.Type == domain.EdgeControlsFlow {
				verb = "controls flow of"
			}
			fmt.Fprintf(&sb, "- **%s** %s **%s**\n", displayName(e.Source), verb, displayName(e.Target))
		}
		sb.WriteString("\n")
	}

	if len(order) > 0 {
		sb.WriteString("## Execution order\n\n")
		for i, id := range order {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, displayName(id))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Diagram\n\n```mermaid\n")
	sb.WriteString(mermaid.Flowchart(snap))
	sb.WriteString("```\n")

	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
