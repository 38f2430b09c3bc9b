package graphdi

import (
	"time"

	"go.uber.org/zap"
)

// Options configures how a ProviderGraph builds a Container.
type Options struct {
	// Logger receives build, resolution failure and disposal events.
	// If nil, a no-op logger is used.
	Logger *zap.Logger

	// SkipValidation disables the missing-dependency and cycle checks
	// performed at build time. Resolve still detects both on demand.
	SkipValidation bool

	// EagerSingletons constructs every singleton during build, in
	// dependency order, instead of on first request.
	EagerSingletons bool

	// OnResolved is called after each successful Resolve.
	OnResolved func(id TypeID, instance any, duration time.Duration)

	// OnError is called when Resolve fails.
	OnError func(id TypeID, err error)
}
