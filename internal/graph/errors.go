package graph

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle. Path lists the nodes on the cycle
// in dependency order, starting and ending at Node.
type CycleError[K Key] struct {
	Node K
	Path []K
}

func (e CycleError[K]) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	path := e.Path
	if len(path) == 0 {
		path = []K{e.Node, e.Node}
	}

	for i, node := range path {
		if i > 0 {
			b.WriteString("      ↓\n")
		}
		if i == len(path)-1 {
			b.WriteString(fmt.Sprintf("    %s (cycle)\n", node.String()))
		} else {
			b.WriteString(fmt.Sprintf("    %s\n", node.String()))
		}
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Depend on an interface registered separately to break the chain\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

// MissingError reports an edge whose target was never added to the graph.
type MissingError[K Key] struct {
	From K
	To   K
}

func (e MissingError[K]) Error() string {
	return fmt.Sprintf("%s depends on %s, which is not registered", e.From.String(), e.To.String())
}
