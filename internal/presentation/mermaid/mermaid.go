// Package mermaid renders graph snapshots as Mermaid flowchart
// syntax, suitable for embedding in markdown fences.
package mermaid

import (
	"fmt"
	"strings"

	"github.com/easelab/easel/pkg/domain"
)

// Flowchart produces Mermaid flowchart syntax for a snapshot.
// Entry nodes (no incoming edge, at least one outgoing) draw as
// circles, everything else as rectangles; context edges are solid
// arrows, control edges thick ones. A node with a model shows it on a
// second label line.
func Flowchart(snap *domain.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	incoming := make(map[string]bool)
	outgoing := make(map[string]bool)
	for _, e := range snap.Edges {
		incoming[e.Target] = true
		outgoing[e.Source] = true
	}

	for _, n := range snap.Nodes {
		safeID := sanitizeID(n.ID)

		opener, closer := "[", "]"
		if !incoming[n.ID] && outgoing[n.ID] {
			opener, closer = "((", "))" // entry point
		}

		label := escapeLabel(n.Name)
		if label == "" {
			label = sanitizeID(n.ID)
		}
		if n.Model != "" {
			label = fmt.Sprintf("%s <br/> %s", label, escapeLabel(n.Model))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, e := range snap.Edges {
		arrow := "-->"
		if e.Type == domain.EdgeControlsFlow {
			arrow = "==>"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeID(e.Source), arrow, sanitizeID(e.Target)))
	}

	return sb.String()
}

// sanitizeID maps an id onto Mermaid's identifier alphabet.
func sanitizeID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// escapeLabel neutralizes double quotes, which would close the Mermaid
// label early.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
