package graphdi

import (
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/junioryono/graphdi/internal/graph"
)

// ProviderGraph is the declarative set of rules a Container resolves from.
//
// Rules are registered during startup and are immutable once the graph has
// been built. A sealed graph can build any number of containers; each owns
// its own singleton cache.
//
// Example:
//
//	g := graphdi.NewProviderGraph()
//	_ = g.Register(graphdi.Provide(graphdi.Singleton, NewDataSource))
//	_ = g.Register(graphdi.Provide1(graphdi.Singleton, NewRepository))
//
//	c, err := g.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
type ProviderGraph struct {
	mu     sync.RWMutex
	rules  map[TypeID]*Rule
	order  []TypeID
	sealed bool
}

// NewProviderGraph creates an empty provider graph.
func NewProviderGraph() *ProviderGraph {
	return &ProviderGraph{
		rules: make(map[TypeID]*Rule),
	}
}

// Register adds a rule. It fails with DuplicateRuleError if a rule for the
// same TypeID is already registered.
func (g *ProviderGraph) Register(rule *Rule) error {
	if rule == nil {
		return ErrRuleNil
	}

	if rule.err != nil {
		return rule.err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sealed {
		return ErrGraphSealed
	}

	if _, exists := g.rules[rule.id]; exists {
		return DuplicateRuleError{ID: rule.id}
	}

	g.rules[rule.id] = rule
	g.order = append(g.order, rule.id)
	return nil
}

// Lookup returns the rule registered for id, or UnknownTypeError.
func (g *ProviderGraph) Lookup(id TypeID) (*Rule, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rule, ok := g.rules[id]
	if !ok {
		return nil, UnknownTypeError{ID: id}
	}
	return rule, nil
}

// Contains reports whether a rule is registered for id.
func (g *ProviderGraph) Contains(id TypeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.rules[id]
	return ok
}

// Len returns the number of registered rules.
func (g *ProviderGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.order)
}

// Rules returns the registered rules in registration order.
func (g *ProviderGraph) Rules() []*Rule {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rules := make([]*Rule, len(g.order))
	for i, id := range g.order {
		rules[i] = g.rules[id]
	}
	return rules
}

// AddModules applies one or more modules to the graph.
func (g *ProviderGraph) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(g); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks that every dependency has a rule and that the rules form
// no cycle. It returns UnknownTypeError or CyclicDependencyError.
func (g *ProviderGraph) Validate() error {
	dg := g.dependencyGraph()

	if err := dg.Missing(); err != nil {
		var missing graph.MissingError[TypeID]
		if errors.As(err, &missing) {
			return UnknownTypeError{ID: missing.To, RequiredBy: missing.From}
		}
		return err
	}

	return dg.DetectCycles()
}

// TransitiveDependencies returns every identifier id depends on, directly or
// indirectly, in depth-first discovery order.
func (g *ProviderGraph) TransitiveDependencies(id TypeID) []TypeID {
	return g.dependencyGraph().TransitiveDependencies(id)
}

// Dependents returns the identifiers of the rules that depend directly on id.
func (g *ProviderGraph) Dependents(id TypeID) []TypeID {
	return g.dependencyGraph().Dependents(id)
}

// Roots returns the identifiers of rules without dependencies, in
// registration order.
func (g *ProviderGraph) Roots() []TypeID {
	return g.dependencyGraph().Roots()
}

// WriteDOT writes the rule graph in Graphviz DOT format.
func (g *ProviderGraph) WriteDOT(w io.Writer) error {
	return g.dependencyGraph().WriteDOT(w)
}

func (g *ProviderGraph) dependencyGraph() *graph.DependencyGraph[TypeID] {
	dg := graph.New[TypeID]()
	for _, rule := range g.Rules() {
		dg.AddNode(rule.id, rule.dependencies)
	}
	return dg
}

// Build validates the graph, seals it and creates a Container using default
// options.
func (g *ProviderGraph) Build() (*Container, error) {
	return g.BuildWithOptions(nil)
}

// BuildWithOptions validates the graph (unless SkipValidation is set), seals
// it and creates a Container. With EagerSingletons every singleton is
// constructed in dependency order before BuildWithOptions returns.
func (g *ProviderGraph) BuildWithOptions(options *Options) (*Container, error) {
	if options == nil {
		options = &Options{}
	}

	if !options.SkipValidation {
		if err := g.Validate(); err != nil {
			return nil, BuildError{Phase: "validation", Cause: err}
		}
	}

	g.mu.Lock()
	g.sealed = true
	rules := make(map[TypeID]*Rule, len(g.rules))
	for id, rule := range g.rules {
		rules[id] = rule
	}
	g.mu.Unlock()

	c := newContainer(rules, options)
	c.logger.Debug("container built", zap.Int("rules", len(rules)))

	if options.EagerSingletons {
		if err := g.createSingletons(c); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

// createSingletons resolves every singleton rule in topological order.
func (g *ProviderGraph) createSingletons(c *Container) error {
	sorted, err := g.dependencyGraph().TopologicalSort()
	if err != nil {
		return BuildError{Phase: "singleton-creation", Cause: err}
	}

	for _, id := range sorted {
		rule := c.rules[id]
		if rule == nil || rule.lifetime != Singleton {
			continue
		}

		if _, err := c.Resolve(id); err != nil {
			return BuildError{Phase: "singleton-creation", Cause: err}
		}
	}

	return nil
}
