// Package chi provides graphdi integration for the Chi router.
//
// ContainerMiddleware attaches a container to every request context and
// Handle wraps controller methods so that the controller is resolved from
// that container on each request.
//
// Example usage:
//
//	c, _ := graph.Build()
//
//	r := graphdichi.NewRouter(c)
//	r.Get("/users", graphdichi.Handle((*UsersController).List))
//	r.Post("/users/load", graphdichi.Handle((*UsersController).Load))
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/junioryono/graphdi"
)

// Config holds the configuration for the container middleware.
type Config struct {
	// Logger receives middleware and handler failures. If nil, a no-op
	// logger is used.
	Logger *zap.Logger

	// ErrorHandler is called when the container is unusable or a
	// middleware fails. If nil, a handler returning 503 Service Unavailable
	// is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares run after the container is attached, in the order added.
	Middlewares []func(*graphdi.Container, *http.Request) error
}

// Option configures the container middleware.
type Option func(*Config)

// WithLogger sets the logger used by the default error handler.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithErrorHandler sets the error handler for container and middleware
// failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the container is attached.
func WithMiddleware(mw func(*graphdi.Container, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func newConfig(opts []Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ErrorHandler == nil {
		logger := cfg.Logger
		cfg.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("container middleware failed",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		}
	}
	return cfg
}

// ContainerMiddleware creates a Chi middleware that attaches c to each
// request context, where graphdi.FromContext finds it. Requests arriving
// after c is closed are passed to the error handler.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(graphdichi.ContainerMiddleware(c))
func ContainerMiddleware(c *graphdi.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c == nil {
				cfg.ErrorHandler(w, r, graphdi.ErrContainerNil)
				return
			}
			if c.IsClosed() {
				cfg.ErrorHandler(w, r, graphdi.ErrContainerClosed)
				return
			}

			r = r.WithContext(graphdi.WithContainer(r.Context(), c))

			for _, mw := range cfg.Middlewares {
				if err := mw(c, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter returns a Chi router with ContainerMiddleware installed.
func NewRouter(c *graphdi.Container, opts ...Option) chi.Router {
	r := chi.NewRouter()
	r.Use(ContainerMiddleware(c, opts...))
	return r
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Logger receives handler failures. If nil, a no-op logger is used.
	Logger *zap.Logger

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ContainerErrorHandler is called when no container is attached to the
	// request.
	ContainerErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when the controller cannot be
	// resolved.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithHandlerLogger sets the logger used by the default handlers.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(c *HandlerConfig) {
		c.Logger = logger
	}
}

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithContainerErrorHandler sets the error handler for requests without a
// container.
func WithContainerErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ContainerErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := &HandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	logger := cfg.Logger

	if cfg.PanicHandler == nil {
		cfg.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
			logger.Error("panic in handler", zap.Any("panic", v), zap.String("path", r.URL.Path))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
	if cfg.ContainerErrorHandler == nil {
		cfg.ContainerErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to get container from context", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("failed to resolve controller", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
	return cfg
}

// Handle wraps a controller method for type-safe resolution from the
// container attached to the request context. T is resolved on every
// request, so its lifetime decides whether requests share a controller.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	r.Get("/users", graphdichi.Handle((*UsersController).List))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		c, err := graphdi.FromContext(r.Context())
		if err != nil {
			cfg.ContainerErrorHandler(w, r, err)
			return
		}

		controller, err := graphdi.Resolve[T](c)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
