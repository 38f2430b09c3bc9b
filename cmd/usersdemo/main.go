// Command usersdemo serves the users stack over HTTP.
//
//	GET  /users        current load state as JSON
//	POST /users/load   start a load (202), or 409 while one is running
//	GET  /healthz      liveness probe
//	GET  /metrics      Prometheus metrics
//	GET  /debug/graph  provider graph in DOT format (expose_graph only)
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/junioryono/graphdi"
	"github.com/junioryono/graphdi/internal/config"
	"github.com/junioryono/graphdi/internal/logging"
	"github.com/junioryono/graphdi/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("usersdemo stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	collector := metrics.NewCollector("usersdemo")

	g, err := newGraph(cfg, logger, collector)
	if err != nil {
		return err
	}

	options := &graphdi.Options{
		Logger:          logger,
		EagerSingletons: cfg.EagerSingletons,
	}
	collector.Apply(options)

	c, err := g.BuildWithOptions(options)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close container", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      newRouter(c, g, cfg, collector, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ListenAddress),
			zap.String("container", c.ID()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
