package users

import (
	"time"

	"go.uber.org/zap"

	"github.com/junioryono/graphdi"
)

// Config configures the rules registered by Module.
type Config struct {
	Count    int
	Delay    time.Duration
	FailWith string

	// BreakerMaxFailures enables the circuit breaker around the data source
	// when greater than zero.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Module registers the users stack. It requires a *zap.Logger rule.
//
//	DataSource   singleton
//	*Repository  singleton, depends on DataSource
//	*ViewModel   unscoped, depends on *Repository and *zap.Logger
func Module(cfg Config) graphdi.ModuleOption {
	return graphdi.NewModule("users",
		graphdi.Add(graphdi.Provide1(graphdi.Singleton, func(logger *zap.Logger) (DataSource, error) {
			return NewDataSource(cfg, logger), nil
		})),
		graphdi.Add(graphdi.Provide1(graphdi.Singleton, func(source DataSource) (*Repository, error) {
			return NewRepository(source), nil
		})),
		graphdi.Add(graphdi.Provide2(graphdi.Unscoped, func(repo *Repository, logger *zap.Logger) (*ViewModel, error) {
			return NewViewModel(repo, logger), nil
		})),
	)
}

// NewDataSource builds the DataSource described by cfg.
func NewDataSource(cfg Config, logger *zap.Logger) DataSource {
	var source DataSource = NewMockDataSource(MockConfig{
		Count:    cfg.Count,
		Delay:    cfg.Delay,
		FailWith: cfg.FailWith,
	}, logger)

	if cfg.BreakerMaxFailures > 0 {
		source = NewBreakerDataSource(source, BreakerConfig{
			MaxFailures: cfg.BreakerMaxFailures,
			Timeout:     cfg.BreakerTimeout,
		}, logger)
	}
	return source
}
