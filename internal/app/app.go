package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/metrics"
	"github.com/vk/morphocore/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	registry   *registry.Registry
	prom       *prometheus.Registry
	metrics    *metrics.Collector
	httpServer *http.Server
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, process
// registry and metrics registry. Extra modules are registered after the core
// ones.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New(append(append([]registry.Module{}, coreModules...), modules...)...)
	logger.Debug("All Go modules registered.", "count", len(coreModules)+len(modules), "kinds", reg.Kinds(), "methods", reg.Methods())

	prom := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(prom)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		registry: reg,
		prom:     prom,
		metrics:  collector,
	}, nil
}

// Registry returns the application's process registry. This is primarily
// for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
