// Package graphdi provides a statically typed dependency injection container
// for Go applications.
//
// # Overview
//
// graphdi keeps dependency injection explicit. The library provides:
//   - Two lifetimes: Singleton and Unscoped
//   - Rules built from typed factories; dependencies are the factory's
//     parameter types, fixed at compile time
//   - Depth-first resolution with cycle and missing-rule detection
//   - Exactly-once singleton construction, locked per type rather than per
//     container
//   - Named rules for several products of the same Go type
//   - Modules for organizing rules
//   - Disposal of singletons when the container is closed
//
// # Basic Usage
//
// Create a provider graph, register rules, build a container and resolve:
//
//	g := graphdi.NewProviderGraph()
//	_ = g.Register(graphdi.Provide(graphdi.Singleton, func() (users.DataSource, error) {
//	    return users.NewMockDataSource(users.MockConfig{Count: 50}, logger), nil
//	}))
//	_ = g.Register(graphdi.Provide1(graphdi.Singleton, func(src users.DataSource) (*users.Repository, error) {
//	    return users.NewRepository(src), nil
//	}))
//
//	c, err := g.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	repo, err := graphdi.Resolve[*users.Repository](c)
//
// # Lifetimes
//
//   - Singleton: one instance per container, created on first request (or
//     at build time with Options.EagerSingletons) and cached until Close
//   - Unscoped: a new instance every time the rule is resolved
//
// # Named Rules
//
// Register several rules for one Go type by naming them:
//
//	g.Register(graphdi.Provide(graphdi.Singleton, newMemorySource, graphdi.Named("memory")))
//	g.Register(graphdi.Provide(graphdi.Singleton, newRemoteSource, graphdi.Named("remote")))
//
//	src, err := graphdi.ResolveNamed[users.DataSource](c, "remote")
//
// A factory asks for a named dependency with graphdi.Inject.
//
// # Modules
//
//	var UsersModule = graphdi.NewModule("users",
//	    graphdi.Add(graphdi.Provide(graphdi.Singleton, newSource)),
//	    graphdi.Add(graphdi.Provide1(graphdi.Singleton, newRepository)),
//	)
//
//	g.AddModules(UsersModule)
//
// # Thread Safety
//
// ProviderGraph and Container are safe for concurrent use. Concurrent first
// requests for the same singleton run its factory once; requests for
// unrelated types do not wait on each other. Factories must not resolve
// their own product from the container.
//
// # Error Handling
//
// Configuration errors are returned unchanged to the caller of Register,
// Build or Resolve:
//   - DuplicateRuleError: a TypeID was registered twice
//   - UnknownTypeError: no rule for a requested type or dependency
//   - CyclicDependencyError: resolution would re-enter itself
//
// Factory failures are reported as FactoryError or FactoryPanicError and
// are not cached; resolving again retries the factory.
package graphdi
