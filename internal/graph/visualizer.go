package graph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT writes the graph in Graphviz DOT format. Unregistered nodes are
// drawn dashed.
func (g *DependencyGraph[K]) WriteDOT(w io.Writer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	ids := make(map[K]string, len(g.order))
	for i, key := range g.order {
		id := fmt.Sprintf("n%d", i)
		ids[key] = id

		style := "solid"
		if !g.nodes[key].Registered {
			style = "dashed"
		}
		b.WriteString(fmt.Sprintf("  %s [label=%q, style=%s];\n", id, key.String(), style))
	}

	for _, key := range g.order {
		for _, dep := range g.nodes[key].Dependencies {
			b.WriteString(fmt.Sprintf("  %s -> %s;\n", ids[key], ids[dep]))
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
