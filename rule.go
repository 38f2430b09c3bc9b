package graphdi

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// TypeID identifies what a rule produces: a Go type and an optional name.
// Two rules may produce the same Go type as long as their names differ.
//
// TypeIDs are derived from type parameters only:
//
//	graphdi.ID[*Repository]()
//	graphdi.NamedID[DataSource]("remote")
type TypeID struct {
	Type reflect.Type
	Name string
}

// ID returns the unnamed TypeID for T.
func ID[T any]() TypeID {
	return TypeID{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// NamedID returns the TypeID for T registered under name.
func NamedID[T any](name string) TypeID {
	return TypeID{Type: reflect.TypeOf((*T)(nil)).Elem(), Name: name}
}

// String returns a short representation such as "*Repository" or
// "DataSource[remote]".
func (id TypeID) String() string {
	if id.Name != "" {
		return fmt.Sprintf("%s[%s]", formatType(id.Type), id.Name)
	}
	return formatType(id.Type)
}

// Rule maps a TypeID to a factory and a lifetime. The factory receives the
// instances of the rule's dependencies in declaration order.
//
// Rules are created with Provide, Provide1 … Provide4 or Value, which fix the
// dependency list from the factory's parameter types at compile time.
type Rule struct {
	id           TypeID
	lifetime     Lifetime
	dependencies []TypeID
	factory      func(deps []any) (any, error)
	err          error
}

// ID returns the identifier the rule produces.
func (r *Rule) ID() TypeID { return r.id }

// Lifetime returns the rule's lifetime.
func (r *Rule) Lifetime() Lifetime { return r.lifetime }

// Dependencies returns a copy of the rule's dependency identifiers in
// declaration order.
func (r *Rule) Dependencies() []TypeID {
	return append([]TypeID(nil), r.dependencies...)
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s (%s)", r.id, r.lifetime)
}

// invoke calls the factory, converting a panic into FactoryPanicError.
func (r *Rule) invoke(deps []any) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			instance = nil
			err = FactoryPanicError{ID: r.id, Panic: p, Stack: debug.Stack()}
		}
	}()

	instance, err = r.factory(deps)
	if err != nil {
		return nil, FactoryError{ID: r.id, Cause: err}
	}
	return instance, nil
}

// A RuleOption modifies a rule created by one of the Provide functions.
type RuleOption func(*ruleOptions)

type ruleOptions struct {
	name   string
	inject []string
}

// Named registers the rule's product under name, so that it is resolved with
// NamedID rather than ID.
//
//	graphdi.Provide(graphdi.Singleton, newPrimaryDB, graphdi.Named("primary"))
//	graphdi.Provide(graphdi.Singleton, newReplicaDB, graphdi.Named("replica"))
func Named(name string) RuleOption {
	return func(o *ruleOptions) {
		o.name = name
	}
}

// Inject names the rule's dependencies by position. An empty string keeps the
// unnamed identifier for that position.
//
//	graphdi.Provide2(graphdi.Singleton, NewReplicator, graphdi.Inject("primary", "replica"))
func Inject(names ...string) RuleOption {
	return func(o *ruleOptions) {
		o.inject = names
	}
}

func newRule[T any](lifetime Lifetime, hasFactory bool, deps []reflect.Type, factory func([]any) (any, error), opts []RuleOption) *Rule {
	var o ruleOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	r := &Rule{
		id:           NamedID[T](o.name),
		lifetime:     lifetime,
		dependencies: make([]TypeID, len(deps)),
		factory:      factory,
	}

	for i, dep := range deps {
		r.dependencies[i] = TypeID{Type: dep}
		if i < len(o.inject) {
			r.dependencies[i].Name = o.inject[i]
		}
	}

	switch {
	case !hasFactory:
		r.err = ErrFactoryNil
	case !lifetime.IsValid():
		r.err = LifetimeError{Value: int(lifetime)}
	case len(o.inject) > len(deps):
		r.err = fmt.Errorf("graphdi.Inject: %d names given for %d dependencies of %s", len(o.inject), len(deps), r.id)
	}

	return r
}

// as converts a resolved dependency back to its static type. A nil instance
// becomes the zero value.
func as[D any](v any) D {
	d, _ := v.(D)
	return d
}

// Value returns a singleton rule that always yields v.
//
//	graphdi.Value(logger)
func Value[T any](v T, opts ...RuleOption) *Rule {
	return newRule[T](Singleton, true, nil, func([]any) (any, error) {
		return v, nil
	}, opts)
}

// Provide returns a rule for T built by a factory without dependencies.
func Provide[T any](lifetime Lifetime, factory func() (T, error), opts ...RuleOption) *Rule {
	return newRule[T](lifetime, factory != nil, nil, func([]any) (any, error) {
		return factory()
	}, opts)
}

// Provide1 returns a rule for T whose factory depends on D1.
//
//	graphdi.Provide1(graphdi.Singleton, func(src DataSource) (*Repository, error) {
//	    return NewRepository(src), nil
//	})
func Provide1[T, D1 any](lifetime Lifetime, factory func(D1) (T, error), opts ...RuleOption) *Rule {
	deps := []reflect.Type{reflect.TypeOf((*D1)(nil)).Elem()}
	return newRule[T](lifetime, factory != nil, deps, func(d []any) (any, error) {
		return factory(as[D1](d[0]))
	}, opts)
}

// Provide2 returns a rule for T whose factory depends on D1 and D2.
func Provide2[T, D1, D2 any](lifetime Lifetime, factory func(D1, D2) (T, error), opts ...RuleOption) *Rule {
	deps := []reflect.Type{reflect.TypeOf((*D1)(nil)).Elem(), reflect.TypeOf((*D2)(nil)).Elem()}
	return newRule[T](lifetime, factory != nil, deps, func(d []any) (any, error) {
		return factory(as[D1](d[0]), as[D2](d[1]))
	}, opts)
}

// Provide3 returns a rule for T whose factory depends on D1, D2 and D3.
func Provide3[T, D1, D2, D3 any](lifetime Lifetime, factory func(D1, D2, D3) (T, error), opts ...RuleOption) *Rule {
	deps := []reflect.Type{reflect.TypeOf((*D1)(nil)).Elem(), reflect.TypeOf((*D2)(nil)).Elem(), reflect.TypeOf((*D3)(nil)).Elem()}
	return newRule[T](lifetime, factory != nil, deps, func(d []any) (any, error) {
		return factory(as[D1](d[0]), as[D2](d[1]), as[D3](d[2]))
	}, opts)
}

// Provide4 returns a rule for T whose factory depends on D1 through D4.
func Provide4[T, D1, D2, D3, D4 any](lifetime Lifetime, factory func(D1, D2, D3, D4) (T, error), opts ...RuleOption) *Rule {
	deps := []reflect.Type{reflect.TypeOf((*D1)(nil)).Elem(), reflect.TypeOf((*D2)(nil)).Elem(), reflect.TypeOf((*D3)(nil)).Elem(), reflect.TypeOf((*D4)(nil)).Elem()}
	return newRule[T](lifetime, factory != nil, deps, func(d []any) (any, error) {
		return factory(as[D1](d[0]), as[D2](d[1]), as[D3](d[2]), as[D4](d[3]))
	}, opts)
}
