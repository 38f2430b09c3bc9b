package graphdi

// ModuleOption represents a registration action within a module.
type ModuleOption func(*ProviderGraph) error

// NewModule creates a new module with the given name and options.
// Modules are a way to group related rules together; errors raised inside a
// module are wrapped in ModuleError.
//
// Example:
//
//	var StorageModule = graphdi.NewModule("storage",
//	    graphdi.Add(graphdi.Provide(graphdi.Singleton, NewDataSource)),
//	    graphdi.Add(graphdi.Provide1(graphdi.Singleton, NewRepository)),
//	)
//
//	var AppModule = graphdi.NewModule("app",
//	    StorageModule,
//	    graphdi.Add(graphdi.Provide1(graphdi.Unscoped, NewViewModel)),
//	)
func NewModule(name string, options ...ModuleOption) ModuleOption {
	return func(g *ProviderGraph) error {
		for _, option := range options {
			if option == nil {
				continue
			}

			if err := option(g); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// Add creates a ModuleOption that registers rule.
func Add(rule *Rule) ModuleOption {
	return func(g *ProviderGraph) error {
		return g.Register(rule)
	}
}
