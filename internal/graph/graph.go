// Package graph holds the static dependency graph used to validate a set of
// rules before any of them is constructed.
package graph

import (
	"sync"
)

// Key identifies a node.
type Key interface {
	comparable
	String() string
}

// Node is a vertex of the graph. Placeholder nodes are created for
// dependencies that have not been added themselves; they have Registered
// set to false.
type Node[K Key] struct {
	Key          K
	Registered   bool
	Dependencies []K // services this node depends on
	Dependents   []K // services that depend on this node
}

// DependencyGraph manages the dependency relationships between services.
// Iteration order is insertion order so results are deterministic.
type DependencyGraph[K Key] struct {
	mu    sync.RWMutex
	nodes map[K]*Node[K]
	order []K
}

// New creates an empty graph.
func New[K Key]() *DependencyGraph[K] {
	return &DependencyGraph[K]{
		nodes: make(map[K]*Node[K]),
	}
}

// AddNode registers key with its direct dependencies. Adding the same key
// twice replaces its edges.
func (g *DependencyGraph[K]) AddNode(key K, dependencies []K) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.ensure(key)
	for _, old := range node.Dependencies {
		if dep, ok := g.nodes[old]; ok {
			dep.Dependents = remove(dep.Dependents, key)
		}
	}

	node.Registered = true
	node.Dependencies = append([]K(nil), dependencies...)

	for _, dep := range dependencies {
		depNode := g.ensure(dep)
		depNode.Dependents = append(depNode.Dependents, key)
	}
}

func (g *DependencyGraph[K]) ensure(key K) *Node[K] {
	if node, ok := g.nodes[key]; ok {
		return node
	}

	node := &Node[K]{Key: key}
	g.nodes[key] = node
	g.order = append(g.order, key)
	return node
}

// Size returns the number of registered nodes.
func (g *DependencyGraph[K]) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, node := range g.nodes {
		if node.Registered {
			n++
		}
	}
	return n
}

// Has reports whether key was added to the graph.
func (g *DependencyGraph[K]) Has(key K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[key]
	return ok && node.Registered
}

// Dependencies returns the direct dependencies of key.
func (g *DependencyGraph[K]) Dependencies(key K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[key]; ok {
		return append([]K(nil), node.Dependencies...)
	}
	return nil
}

// Dependents returns the nodes that depend directly on key.
func (g *DependencyGraph[K]) Dependents(key K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[key]; ok {
		return append([]K(nil), node.Dependents...)
	}
	return nil
}

// TransitiveDependencies returns every node reachable from key, in
// depth-first discovery order, excluding key itself.
func (g *DependencyGraph[K]) TransitiveDependencies(key K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[K]bool{key: true}
	var result []K

	var collect func(current K)
	collect = func(current K) {
		node, ok := g.nodes[current]
		if !ok {
			return
		}
		for _, dep := range node.Dependencies {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			result = append(result, dep)
			collect(dep)
		}
	}

	collect(key)
	return result
}

// Missing returns the first edge pointing at an unregistered node, or nil.
func (g *DependencyGraph[K]) Missing() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, key := range g.order {
		node := g.nodes[key]
		if !node.Registered {
			continue
		}
		for _, dep := range node.Dependencies {
			if !g.nodes[dep].Registered {
				return MissingError[K]{From: key, To: dep}
			}
		}
	}
	return nil
}

// DetectCycles returns a CycleError for the first cycle found, or nil.
func (g *DependencyGraph[K]) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[K]int, len(g.nodes))
	var stack []K

	var visit func(key K) error
	visit = func(key K) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, k := range stack {
				if k == key {
					start = i
					break
				}
			}
			path := append(append([]K(nil), stack[start:]...), key)
			return CycleError[K]{Node: key, Path: path}
		}

		state[key] = visiting
		stack = append(stack, key)

		for _, dep := range g.nodes[key].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[key] = done
		return nil
	}

	for _, key := range g.order {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}

// IsAcyclic reports whether the graph has no cycles.
func (g *DependencyGraph[K]) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// TopologicalSort returns the registered nodes with every dependency placed
// before its dependents. Ties keep insertion order.
func (g *DependencyGraph[K]) TopologicalSort() ([]K, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[K]bool, len(g.nodes))
	result := make([]K, 0, len(g.nodes))

	var visit func(key K)
	visit = func(key K) {
		if visited[key] {
			return
		}
		visited[key] = true

		node := g.nodes[key]
		for _, dep := range node.Dependencies {
			visit(dep)
		}
		if node.Registered {
			result = append(result, key)
		}
	}

	for _, key := range g.order {
		visit(key)
	}
	return result, nil
}

// Roots returns registered nodes without dependencies.
func (g *DependencyGraph[K]) Roots() []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var roots []K
	for _, key := range g.order {
		node := g.nodes[key]
		if node.Registered && len(node.Dependencies) == 0 {
			roots = append(roots, key)
		}
	}
	return roots
}

func remove[K comparable](keys []K, target K) []K {
	out := keys[:0]
	for _, k := range keys {
		if k != target {
			out = append(out, k)
		}
	}
	return out
}
