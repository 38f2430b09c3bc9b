package graphdi

import (
	"go.uber.org/zap"
)

// resolve is the body of Container.Resolve.
func (c *Container) resolve(id TypeID) (any, error) {
	if e, ok := c.entries.Load(id); ok {
		if cached := e.(*entry); cached.done.Load() {
			return cached.value, nil
		}
	}

	if err := c.plan(id); err != nil {
		return nil, err
	}

	return c.construct(id)
}

// plan walks the dependency closure of id depth-first without invoking any
// factory. inProgress holds the identifiers on the current walk; meeting one
// again is a cycle. Identifiers whose closure is complete are remembered in
// c.planned, so each one is walked once per container.
func (c *Container) plan(id TypeID) error {
	if _, ok := c.planned.Load(id); ok {
		return nil
	}

	inProgress := make(map[TypeID]bool)
	var path []TypeID

	var visit func(id, requiredBy TypeID) error
	visit = func(id, requiredBy TypeID) error {
		if _, ok := c.planned.Load(id); ok {
			return nil
		}

		if inProgress[id] {
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]TypeID(nil), path[start:]...), id)
			return CyclicDependencyError{Node: id, Path: cycle}
		}

		rule, ok := c.rules[id]
		if !ok {
			return UnknownTypeError{ID: id, RequiredBy: requiredBy}
		}

		inProgress[id] = true
		path = append(path, id)

		for _, dep := range rule.dependencies {
			if err := visit(dep, id); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		delete(inProgress, id)
		c.planned.Store(id, struct{}{})
		return nil
	}

	return visit(id, TypeID{})
}

// construct builds id, whose closure must already be planned. Singleton
// construction holds the entry lock of id while its dependencies are built;
// since planned closures are acyclic, locks are always taken along the
// dependency order and cannot deadlock.
func (c *Container) construct(id TypeID) (any, error) {
	rule := c.rules[id]
	if rule.lifetime != Singleton {
		return c.invoke(rule)
	}

	e := c.entry(id)
	if e.done.Load() {
		return e.value, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done.Load() {
		return e.value, nil
	}

	instance, err := c.invoke(rule)
	if err != nil {
		return nil, err
	}

	if err := c.commit(e, id, instance); err != nil {
		return nil, err
	}

	c.logger.Debug("singleton created", zap.Stringer("type", id))
	return instance, nil
}

// invoke resolves the dependencies of rule in declaration order and calls
// its factory.
func (c *Container) invoke(rule *Rule) (any, error) {
	deps := make([]any, len(rule.dependencies))
	for i, dep := range rule.dependencies {
		instance, err := c.construct(dep)
		if err != nil {
			return nil, err
		}
		deps[i] = instance
	}

	return rule.invoke(deps)
}
