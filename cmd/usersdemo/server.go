package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/junioryono/graphdi"
	graphdichi "github.com/junioryono/graphdi/chi"
	"github.com/junioryono/graphdi/internal/config"
	"github.com/junioryono/graphdi/metrics"
	"github.com/junioryono/graphdi/users"
)

// usersController serves one ViewModel shared by all requests.
type usersController struct {
	vm     *users.ViewModel
	logger *zap.Logger
}

// Close closes the ViewModel; the container calls it on shutdown.
func (uc *usersController) Close() error {
	return uc.vm.Close()
}

func (uc *usersController) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, uc.vm.State())
}

func (uc *usersController) Load(w http.ResponseWriter, r *http.Request) {
	if !uc.vm.Load() {
		if uc.vm.Closed() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service is shutting down"})
			return
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": "load already in progress"})
		return
	}

	uc.logger.Info("load requested", zap.String("request_id", middleware.GetReqID(r.Context())))
	writeJSON(w, http.StatusAccepted, uc.vm.State())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newGraph registers the service's rules.
func newGraph(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*graphdi.ProviderGraph, error) {
	g := graphdi.NewProviderGraph()

	err := g.AddModules(
		graphdi.NewModule("core",
			graphdi.Add(graphdi.Value(logger)),
			graphdi.Add(graphdi.Value(collector)),
		),
		users.Module(users.Config{
			Count:              cfg.RecordCount,
			Delay:              cfg.FetchDelay,
			FailWith:           cfg.FailureCause,
			BreakerMaxFailures: cfg.BreakerMaxFailures,
			BreakerTimeout:     cfg.BreakerTimeout,
		}),
		graphdi.NewModule("http",
			graphdi.Add(graphdi.Provide3(graphdi.Singleton,
				func(vm *users.ViewModel, collector *metrics.Collector, logger *zap.Logger) (*usersController, error) {
					collector.Observe(vm)
					return &usersController{vm: vm, logger: logger.Named("http")}, nil
				},
			)),
		),
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func newRouter(c *graphdi.Container, g *graphdi.ProviderGraph, cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) http.Handler {
	r := graphdichi.NewRouter(c, graphdichi.WithLogger(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	handlerOpts := []graphdichi.HandlerOption{graphdichi.WithHandlerLogger(logger)}
	r.Get("/users", graphdichi.Handle((*usersController).State, handlerOpts...))
	r.Post("/users/load", graphdichi.Handle((*usersController).Load, handlerOpts...))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	if cfg.ExposeGraph {
		r.Get("/debug/graph", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/vnd.graphviz")
			if err := g.WriteDOT(w); err != nil {
				logger.Error("failed to write graph", zap.Error(err))
			}
		})
	}

	return r
}
